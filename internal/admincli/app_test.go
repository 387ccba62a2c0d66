package admincli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/acedema/acedema-back/internal/common"
	"github.com/acedema/acedema-back/internal/logging"
	"github.com/acedema/acedema-back/internal/server/config"
	"github.com/acedema/acedema-back/internal/server/credentials"
	"github.com/acedema/acedema-back/internal/server/models"
	"github.com/acedema/acedema-back/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(answers) {
			return nil, errors.New("no more input")
		}
		i++
		return []byte(answers[i-1]), nil
	}
	t.Cleanup(func() { readPassword = orig })
}

func stubRepositories(t *testing.T, rm repomanager.RepositoryManager) {
	t.Helper()
	orig := openRepositories
	openRepositories = func(context.Context, *config.Config) (repomanager.RepositoryManager, error) {
		return rm, nil
	}
	t.Cleanup(func() { openRepositories = orig })
}

func newTestApp() (*App, *bytes.Buffer) {
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDSN = config.MemoryDSN
	out := &bytes.Buffer{}
	return NewApp(c, logging.Nop(), out), out
}

func TestRun_Hash(t *testing.T) {
	stubPasswords(t, "abc")
	app, out := newTestApp()

	require.NoError(t, app.Run(context.Background(), []string{"hash"}))
	assert.Contains(t, out.String(), "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
}

func TestRun_Generate(t *testing.T) {
	app, out := newTestApp()

	require.NoError(t, app.Run(context.Background(), []string{"generate"}))
	pw := strings.TrimSpace(out.String())
	assert.Len(t, pw, common.TemporaryPasswordLength)
	for _, r := range pw {
		assert.Contains(t, credentials.Alphabet, string(r))
	}
}

func TestRun_Migrate(t *testing.T) {
	stubRepositories(t, repomanager.NewMemoryRepositoryManager())
	app, _ := newTestApp()

	require.NoError(t, app.Run(context.Background(), []string{"migrate"}))
}

func TestRun_SetPassword(t *testing.T) {
	ctx := context.Background()
	rm := repomanager.NewMemoryRepositoryManager()
	_, err := rm.Personas(nil).Create(ctx, &models.Person{
		FirstName: "Ana", FirstSurname: "Mora", Email: "ana@acedema.com",
		RoleID: models.RoleStudent, PasswordHash: "old",
	})
	require.NoError(t, err)
	stubRepositories(t, rm)
	stubPasswords(t, "nueva-clave", "nueva-clave")

	app, out := newTestApp()
	require.NoError(t, app.Run(ctx, []string{"set-password", "ANA@acedema.com", "-d", "memory://"}))
	assert.Contains(t, out.String(), "password updated")

	p, err := rm.Personas(nil).FindByEmail(ctx, "ana@acedema.com")
	require.NoError(t, err)
	assert.True(t, credentials.SHA256Hasher{}.Verify("nueva-clave", p.PasswordHash))
	assert.EqualValues(t, 1, p.CredentialVersion)
}

func TestRun_SetPasswordErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		stubRepositories(t, repomanager.NewMemoryRepositoryManager())
		stubPasswords(t, "nueva-clave", "nueva-clave")
		app, _ := newTestApp()

		err := app.Run(ctx, []string{"set-password", "nadie@acedema.com"})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("too short", func(t *testing.T) {
		stubPasswords(t, "corta", "corta")
		app, _ := newTestApp()

		err := app.Run(ctx, []string{"set-password", "ana@acedema.com"})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("mismatch", func(t *testing.T) {
		stubPasswords(t, "nueva-clave", "otra-clave")
		app, _ := newTestApp()

		err := app.Run(ctx, []string{"set-password", "ana@acedema.com"})
		assert.EqualError(t, err, "passwords do not match")
	})

	t.Run("missing email", func(t *testing.T) {
		app, _ := newTestApp()
		assert.Error(t, app.Run(ctx, []string{"set-password"}))
	})
}

func TestRun_UnknownAndMissingCommand(t *testing.T) {
	app, out := newTestApp()

	assert.EqualError(t, app.Run(context.Background(), []string{"explode"}), `unknown command "explode"`)
	assert.Contains(t, out.String(), "Usage: acedemactl")

	assert.Error(t, app.Run(context.Background(), nil))
	assert.NoError(t, app.Run(context.Background(), []string{"help"}))
}

func TestPositional(t *testing.T) {
	got := positional([]string{"-d", "memory://", "a@b.com", "-x=argon2id", "-v"})
	assert.Equal(t, []string{"a@b.com"}, got)
}
