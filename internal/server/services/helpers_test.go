package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/acedema/acedema-back/internal/dbx"
	"github.com/acedema/acedema-back/internal/logging"
	"github.com/acedema/acedema-back/internal/server/auth"
	"github.com/acedema/acedema-back/internal/server/credentials"
	"github.com/acedema/acedema-back/internal/server/models"
	"github.com/acedema/acedema-back/internal/server/repositories/personas"
	"github.com/acedema/acedema-back/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

var testTokenConfig = auth.TokenConfig{
	SecretKey:       []byte("test-secret"),
	Issuer:          "acedema-back",
	Audience:        "acedema-front",
	SessionValidity: time.Hour,
	ResetValidity:   15 * time.Minute,
}

type sentCredential struct {
	name, email, plaintext string
}

type sentLink struct {
	email, link string
}

type fakeSender struct {
	mu    sync.Mutex
	creds []sentCredential
	links []sentLink
	err   error
}

func (f *fakeSender) SendTemporaryCredential(_ context.Context, name, email, plaintext string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.creds = append(f.creds, sentCredential{name, email, plaintext})
	return nil
}

func (f *fakeSender) SendResetLink(_ context.Context, email, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.links = append(f.links, sentLink{email, link})
	return nil
}

type fixedGenerator struct {
	pw  string
	err error
}

func (g fixedGenerator) Generate(int) (string, error) { return g.pw, g.err }

type recordedOutcome struct {
	op  string
	err error
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recordedOutcome
}

func (r *fakeRecorder) Observe(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, recordedOutcome{op, err})
}

// brokenRepo fails every call with a driver-like error.
type brokenRepo struct {
	personas.Repository
}

var errDB = errors.New("db error: connection refused")

func (brokenRepo) FindByEmail(context.Context, string) (*models.Person, error) { return nil, errDB }
func (brokenRepo) FindByID(context.Context, int64) (*models.Person, error)    { return nil, errDB }
func (brokenRepo) ExistsByEmail(context.Context, string) (bool, error)       { return false, errDB }

type brokenManager struct {
	*repomanager.MemoryRepositoryManager
}

func (brokenManager) Personas(dbx.DBTX) personas.Repository { return brokenRepo{} }

type authFixture struct {
	svc    *AuthService
	repos  *repomanager.MemoryRepositoryManager
	sender *fakeSender
	tokens *auth.TokenService
	hasher credentials.Hasher
}

func newAuthFixture(t *testing.T, policy AuthPolicy, opts ...AuthOption) *authFixture {
	t.Helper()
	f := &authFixture{
		repos:  repomanager.NewMemoryRepositoryManager(),
		sender: &fakeSender{},
		tokens: auth.NewTokenService(testTokenConfig),
		hasher: credentials.SHA256Hasher{},
	}
	f.svc = NewAuthService(f.repos, f.hasher, credentials.NewPasswordGenerator(), f.tokens, f.sender, logging.Nop(), policy, opts...)
	return f
}

func defaultPolicy() AuthPolicy {
	return AuthPolicy{OpenRegistration: true, ResetLinkHost: "acedema.test"}
}

func candidate(email string) *models.Person {
	return &models.Person{
		Cedula:       12345678,
		FirstName:    "Ana",
		FirstSurname: "Pérez",
		Email:        email,
		RoleID:       models.RoleStudent,
	}
}

// seed stores a person with a known password directly in the directory.
func (f *authFixture) seed(t *testing.T, email, password string) *models.Person {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	p := candidate(email)
	p.PasswordHash = hash
	created, err := f.repos.Personas(nil).Create(context.Background(), p)
	require.NoError(t, err)
	return created
}

func (f *authFixture) stored(t *testing.T, email string) *models.Person {
	t.Helper()
	p, err := f.repos.Personas(nil).FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return p
}
