package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/acedema/acedema-back/internal/logging"
	"github.com/acedema/acedema-back/internal/server/auth"
	"github.com/acedema/acedema-back/internal/server/authz"
	"github.com/acedema/acedema-back/internal/server/credentials"
	"github.com/acedema/acedema-back/internal/server/models"
	"github.com/acedema/acedema-back/internal/server/repositories/repomanager"
	"github.com/acedema/acedema-back/internal/server/services"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu        sync.Mutex
	passwords map[string]string
	links     map[string]string
	err       error
}

func newCaptureSender() *captureSender {
	return &captureSender{passwords: map[string]string{}, links: map[string]string{}}
}

func (c *captureSender) SendTemporaryCredential(_ context.Context, _, email, plaintext string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.passwords[email] = plaintext
	return nil
}

func (c *captureSender) SendResetLink(_ context.Context, email, link string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.links[email] = link
	return nil
}

func (c *captureSender) resetToken(t *testing.T, email string) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	u, err := url.Parse(c.links[email])
	require.NoError(t, err)
	return u.Query().Get("token")
}

type apiFixture struct {
	handler http.Handler
	repos   *repomanager.MemoryRepositoryManager
	tokens  *auth.TokenService
	sender  *captureSender
}

type servicesPolicy = services.AuthPolicy

type fixtureOption func(*RouterDeps, *servicesPolicy)

func newAPI(t *testing.T, opts ...fixtureOption) *apiFixture {
	t.Helper()
	f := &apiFixture{
		repos: repomanager.NewMemoryRepositoryManager(),
		tokens: auth.NewTokenService(auth.TokenConfig{
			SecretKey:       []byte("http-test"),
			Issuer:          "acedema-back",
			Audience:        "acedema-front",
			SessionValidity: time.Hour,
			ResetValidity:   15 * time.Minute,
		}),
		sender: newCaptureSender(),
	}

	policy := services.AuthPolicy{OpenRegistration: true, ResetLinkHost: "acedema.test"}
	deps := &RouterDeps{
		Gate:        authz.NewGate(f.tokens, f.repos),
		AdminRoleID: models.RoleAdmin,
		Logger:      logging.Nop(),
	}
	for _, o := range opts {
		o(deps, &policy)
	}

	deps.Auth = services.NewAuthService(f.repos, credentials.SHA256Hasher{}, credentials.NewPasswordGenerator(),
		f.tokens, f.sender, logging.Nop(), policy)
	deps.Profiles = services.NewProfileService(f.repos, logging.Nop(), models.RoleAdmin)

	f.handler = NewRouter(deps)
	return f
}

func (f *apiFixture) seed(t *testing.T, email, password string, role int) *models.Person {
	t.Helper()
	hash, _ := credentials.SHA256Hasher{}.Hash(password)
	p, err := f.repos.Personas(nil).Create(context.Background(), &models.Person{
		Cedula: 100, Email: email, FirstName: "Ana", FirstSurname: "Pérez", RoleID: role, PasswordHash: hash,
	})
	require.NoError(t, err)
	return p
}

func (f *apiFixture) session(t *testing.T, email string) string {
	t.Helper()
	tok, err := f.tokens.IssueSessionToken(email, "3")
	require.NoError(t, err)
	return tok
}

type response struct {
	Code   int
	Header http.Header
	Body   envelope
	Raw    string
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	res := response{Code: rec.Code, Header: rec.Header(), Raw: rec.Body.String()}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &res.Body)
	}
	return res
}
