package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/acedema/acedema-back/internal/common"
	"github.com/acedema/acedema-back/internal/logging"
	"github.com/acedema/acedema-back/internal/server/auth"
	"github.com/acedema/acedema-back/internal/server/credentials"
	"github.com/acedema/acedema-back/internal/server/models"
	"github.com/acedema/acedema-back/internal/server/notify"
	"github.com/acedema/acedema-back/internal/server/repositories/repomanager"
)

// PasswordGenerator produces temporary passwords.
type PasswordGenerator interface {
	Generate(length int) (string, error)
}

// TokenIssuer is the part of auth.TokenService the credential flows use.
type TokenIssuer interface {
	IssueSessionToken(email, role string) (string, error)
	IssueResetToken(email string, version int64) (string, error)
	ValidateReset(token string) (*auth.Claims, error)
}

// Recorder observes operation outcomes, e.g. for metrics.
type Recorder interface {
	Observe(operation string, err error)
}

type nopRecorder struct{}

func (nopRecorder) Observe(string, error) {}

// AuthPolicy holds the registration and reset settings taken from config.
type AuthPolicy struct {
	// OpenRegistration lets anyone register; otherwise only administrators can.
	OpenRegistration bool
	// RevealUnknownEmail makes reset requests for unknown emails fail with
	// NotFound instead of answering like a successful request.
	RevealUnknownEmail bool
	// ResetLinkHost is the host of https://<host>/restablecer?token=... links.
	ResetLinkHost string
	// AdminRoleID is the role only an administrator may assign. Zero means
	// models.RoleAdmin.
	AdminRoleID int
}

// AuthService implements registration, login, password change and the
// token-based password reset. It holds no mutable state and is shared by all
// requests.
type AuthService struct {
	repomanager repomanager.RepositoryManager
	hasher      credentials.Hasher
	generator   PasswordGenerator
	tokens      TokenIssuer
	sender      notify.Sender
	logger      logging.Logger
	recorder    Recorder
	policy      AuthPolicy

	// dummyHash is verified against when the email is unknown so that both
	// login failures cost the same.
	dummyHash string
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

func WithRecorder(r Recorder) AuthOption {
	return func(s *AuthService) { s.recorder = r }
}

func NewAuthService(m repomanager.RepositoryManager, h credentials.Hasher, g PasswordGenerator,
	t TokenIssuer, n notify.Sender, l logging.Logger, p AuthPolicy, opts ...AuthOption) *AuthService {

	s := &AuthService{
		repomanager: m,
		hasher:      h,
		generator:   g,
		tokens:      t,
		sender:      n,
		logger:      l,
		recorder:    nopRecorder{},
		policy:      p,
	}
	if s.policy.AdminRoleID == 0 {
		s.policy.AdminRoleID = models.RoleAdmin
	}
	for _, o := range opts {
		o(s)
	}
	s.dummyHash, _ = h.Hash("acedema-dummy-credential")
	return s
}

// Register validates the candidate, assigns a temporary password, stores the
// person and mails the password. Without requesterIsAdmin the call is
// refused when registration is closed or the candidate asks for the admin role.
func (s *AuthService) Register(ctx context.Context, candidate *models.Person, requesterIsAdmin bool) (res RegisterResult) {
	defer func() { s.recorder.Observe("register", res.Err) }()

	if msg := validateCandidate(candidate); msg != "" {
		return RegisterResult{Result: failed(common.ErrValidation, msg)}
	}
	if !s.policy.OpenRegistration && !requesterIsAdmin {
		return RegisterResult{Result: failed(common.ErrForbidden, msgRegistrationForbidden)}
	}
	if candidate.RoleID == s.policy.AdminRoleID && !requesterIsAdmin {
		return RegisterResult{Result: failed(common.ErrForbidden, msgAdminRoleForbidden)}
	}

	repo := s.repomanager.Personas(s.repomanager.DB())
	email := models.NormalizeEmail(candidate.Email)

	exists, err := repo.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error(ctx, "register: existence check failed", "error", err)
		return RegisterResult{Result: internalFailure(msgRegisterFailed, err)}
	}
	if exists {
		return RegisterResult{Result: duplicateEmail()}
	}

	plaintext, err := s.generator.Generate(common.TemporaryPasswordLength)
	if err != nil {
		s.logger.Error(ctx, "register: password generation failed", "error", err)
		return RegisterResult{Result: internalFailure(msgRegisterFailed, err)}
	}
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		s.logger.Error(ctx, "register: hashing failed", "error", err)
		return RegisterResult{Result: internalFailure(msgRegisterFailed, err)}
	}

	p := *candidate
	p.ID = 0
	p.Email = email
	p.PasswordHash = hash
	p.CredentialVersion = 0

	created, err := repo.Create(ctx, &p)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return RegisterResult{Result: duplicateEmail()}
		}
		s.logger.Error(ctx, "register: create failed", "error", err)
		return RegisterResult{Result: internalFailure(msgRegisterFailed, err)}
	}

	if err := s.sender.SendTemporaryCredential(ctx, created.FullName(), created.Email, plaintext); err != nil {
		s.logger.Warn(ctx, "register: credential mail failed", "id", created.ID, "error", err)
		r := failed(fmt.Errorf("%w: %w", common.ErrNotification, err), msgRegisteredMailFailed, err.Error())
		return RegisterResult{Result: r, Person: created.Public()}
	}

	s.logger.Info(ctx, "person registered", "id", created.ID, "role", created.RoleID)
	return RegisterResult{Result: succeeded(msgRegistered), Person: created.Public()}
}

func duplicateEmail() Result {
	return failed(fmt.Errorf("%w: %w", common.ErrPersistence, common.ErrDuplicateEmail), msgDuplicateEmail)
}

// validateCandidate returns the message of the first violated rule.
func validateCandidate(p *models.Person) string {
	if p == nil || p.Cedula <= 0 {
		return msgInvalidCedula
	}
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return msgEmailRequired
	}
	if !validEmail(email) {
		return msgEmailInvalid
	}
	if strings.TrimSpace(p.FirstName) == "" {
		return msgFirstNameRequired
	}
	if strings.TrimSpace(p.FirstSurname) == "" {
		return msgFirstSurnameRequired
	}
	if p.RoleID <= 0 {
		return msgRoleRequired
	}
	return ""
}

// validEmail accepts a bare addr-spec, rejecting display-name forms.
func validEmail(email string) bool {
	a, err := mail.ParseAddress(email)
	return err == nil && a.Address == email
}

// Login verifies the password and issues a session token carrying the email
// and role id. Unknown emails and wrong passwords yield the same result.
func (s *AuthService) Login(ctx context.Context, email, password string) (res LoginResult) {
	defer func() { s.recorder.Observe("login", res.Err) }()

	email = models.NormalizeEmail(email)
	repo := s.repomanager.Personas(s.repomanager.DB())

	p, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return LoginResult{Result: failed(common.ErrInvalidCredentials, msgLoginFailed)}
		}
		s.logger.Error(ctx, "login: lookup failed", "error", err)
		return LoginResult{Result: internalFailure(msgInternal, err)}
	}

	if p.PasswordHash == "" || !s.hasher.Verify(password, p.PasswordHash) {
		return LoginResult{Result: failed(common.ErrInvalidCredentials, msgLoginFailed)}
	}

	if s.hasher.NeedsUpgrade(p.PasswordHash) {
		s.upgradeHash(ctx, p, password)
	}

	token, err := s.tokens.IssueSessionToken(p.Email, strconv.Itoa(p.RoleID))
	if err != nil {
		s.logger.Error(ctx, "login: token signing failed", "error", err)
		return LoginResult{Result: internalFailure(msgInternal, err)}
	}

	return LoginResult{Result: succeeded(msgLoginOK), Person: p.Public(), Token: token}
}

// upgradeHash rehashes a legacy credential. The password itself is unchanged,
// so the credential version stays and pending reset links keep working. It is
// best effort: a concurrent password change wins and failures are only logged.
func (s *AuthService) upgradeHash(ctx context.Context, p *models.Person, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn(ctx, "login: rehash failed", "id", p.ID, "error", err)
		return
	}
	repo := s.repomanager.Personas(s.repomanager.DB())
	n, err := repo.RehashPassword(ctx, p.Email, p.PasswordHash, newHash)
	if err != nil {
		s.logger.Warn(ctx, "login: hash upgrade failed", "id", p.ID, "error", err)
		return
	}
	if n == 1 {
		s.logger.Info(ctx, "login: credential hash upgraded", "id", p.ID)
	}
}

// UpdatePasswordAuthenticated replaces the password of an already
// authenticated caller. The write is a compare-and-set on the stored hash, so
// of two concurrent changes with the same current password only one succeeds.
func (s *AuthService) UpdatePasswordAuthenticated(ctx context.Context, email, current, newPassword string) (res Result) {
	defer func() { s.recorder.Observe("update_password", res.Err) }()

	if utf8.RuneCountInString(newPassword) < common.MinPasswordLength {
		return failed(common.ErrValidation, msgPasswordTooShort)
	}

	email = models.NormalizeEmail(email)
	repo := s.repomanager.Personas(s.repomanager.DB())

	p, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.Verify(current, s.dummyHash)
			return failed(common.ErrInvalidCredentials, msgCurrentPasswordInvalid)
		}
		s.logger.Error(ctx, "update password: lookup failed", "error", err)
		return internalFailure(msgInternal, err)
	}
	if !s.hasher.Verify(current, p.PasswordHash) {
		return failed(common.ErrInvalidCredentials, msgCurrentPasswordInvalid)
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return internalFailure(msgInternal, err)
	}

	n, err := repo.CompareAndSetPassword(ctx, email, p.PasswordHash, newHash)
	if err != nil {
		s.logger.Error(ctx, "update password: write failed", "id", p.ID, "error", err)
		return internalFailure(msgInternal, err)
	}
	if n == 0 {
		return failed(common.ErrInvalidCredentials, msgCurrentPasswordInvalid)
	}

	s.logger.Info(ctx, "password updated", "id", p.ID)
	return succeeded(msgPasswordUpdated)
}

// RequestPasswordReset mails a single-use reset link. Unless
// RevealUnknownEmail is set, an unknown email gets the same answer as a known
// one and nothing is sent.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (res ResetRequestResult) {
	defer func() { s.recorder.Observe("request_reset", res.Err) }()

	email = models.NormalizeEmail(email)
	if email == "" {
		return ResetRequestResult{Result: failed(common.ErrValidation, msgEmailRequired)}
	}

	repo := s.repomanager.Personas(s.repomanager.DB())
	p, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			if s.policy.RevealUnknownEmail {
				return ResetRequestResult{Result: failed(common.ErrNotFound, msgEmailNotRegistered)}
			}
			s.logger.Info(ctx, "reset requested for unknown email")
			return ResetRequestResult{Result: succeeded(msgResetSent)}
		}
		s.logger.Error(ctx, "request reset: lookup failed", "error", err)
		return ResetRequestResult{Result: internalFailure(msgInternal, err)}
	}

	token, err := s.tokens.IssueResetToken(p.Email, p.CredentialVersion)
	if err != nil {
		s.logger.Error(ctx, "request reset: token signing failed", "error", err)
		return ResetRequestResult{Result: internalFailure(msgInternal, err)}
	}

	if err := s.sender.SendResetLink(ctx, p.Email, s.resetLink(token)); err != nil {
		s.logger.Warn(ctx, "request reset: mail failed", "id", p.ID, "error", err)
		r := failed(fmt.Errorf("%w: %w", common.ErrNotification, err), msgResetMailFailed, err.Error())
		return ResetRequestResult{Result: r}
	}

	s.logger.Info(ctx, "reset link sent", "id", p.ID)
	return ResetRequestResult{Result: succeeded(msgResetSent), Token: token}
}

func (s *AuthService) resetLink(token string) string {
	u := url.URL{
		Scheme:   "https",
		Host:     s.policy.ResetLinkHost,
		Path:     "/restablecer",
		RawQuery: url.Values{"token": {token}}.Encode(),
	}
	return u.String()
}

// ResetPasswordWithToken sets a new password for the token's email. The token
// stops working after the first successful use because the credential
// version it embeds no longer matches.
func (s *AuthService) ResetPasswordWithToken(ctx context.Context, token, newPassword string) (res Result) {
	defer func() { s.recorder.Observe("reset_password", res.Err) }()

	claims, err := s.tokens.ValidateReset(token)
	if err != nil || claims.Email == "" {
		return failed(common.ErrInvalidToken, msgResetTokenInvalid)
	}
	if utf8.RuneCountInString(newPassword) < common.MinPasswordLength {
		return failed(common.ErrValidation, msgPasswordTooShort)
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return internalFailure(msgInternal, err)
	}

	repo := s.repomanager.Personas(s.repomanager.DB())
	n, err := repo.SetPasswordIfVersion(ctx, claims.Email, newHash, claims.Version)
	if err != nil {
		s.logger.Error(ctx, "reset password: write failed", "error", err)
		return internalFailure(msgInternal, err)
	}
	if n == 0 {
		exists, err := repo.ExistsByEmail(ctx, claims.Email)
		if err != nil {
			return internalFailure(msgInternal, err)
		}
		if exists {
			return failed(common.ErrInvalidToken, msgResetTokenInvalid)
		}
		return failed(common.ErrPersistence, msgResetPersonMissing)
	}

	s.logger.Info(ctx, "password reset with token")
	return succeeded(msgResetDone)
}
