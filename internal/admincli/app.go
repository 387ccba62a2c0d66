// Package admincli implements acedemactl, the operator tool for the person
// directory: hashing and generating passwords, applying migrations and
// replacing a password without the old one.
package admincli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/acedema/acedema-back/internal/common"
	"github.com/acedema/acedema-back/internal/logging"
	"github.com/acedema/acedema-back/internal/server/config"
	"github.com/acedema/acedema-back/internal/server/credentials"
	"github.com/acedema/acedema-back/internal/server/repositories/repomanager"
)

const usage = `Usage: acedemactl <command> [args] [config flags]

Commands:
  hash                  read a password and print its hash
  generate              print a temporary password
  migrate               apply database migrations
  set-password <email>  replace the password of a person
  help                  show this message
`

// openRepositories is a test seam for the storage backend.
var openRepositories = func(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	if c.UsesMemoryStore() {
		return repomanager.NewMemoryRepositoryManager(), nil
	}
	return repomanager.OpenPostgres(ctx, c.DatabaseDSN)
}

type App struct {
	config *config.Config
	logger logging.Logger
	out    io.Writer
}

func NewApp(c *config.Config, l logging.Logger, out io.Writer) *App {
	return &App{config: c, logger: l, out: out}
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return errors.New("missing command")
	}

	cmd, rest := args[0], positional(args[1:])

	switch cmd {
	case "hash":
		return a.Hash()
	case "generate":
		return a.Generate()
	case "migrate":
		return a.Migrate(ctx)
	case "set-password":
		if len(rest) != 1 {
			return errors.New("usage: acedemactl set-password <email>")
		}
		return a.SetPassword(ctx, rest[0])
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// positional drops config flags and their values.
func positional(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			if !strings.Contains(args[i], "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		out = append(out, args[i])
	}
	return out
}

func (a *App) Hash() error {
	h, err := credentials.New(a.config.HashScheme)
	if err != nil {
		return err
	}
	pw, err := GetPassword(a.out, "Password: ")
	if err != nil {
		return err
	}
	hash, err := h.Hash(string(pw))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, hash)
	return nil
}

func (a *App) Generate() error {
	pw, err := credentials.NewPasswordGenerator().Generate(common.TemporaryPasswordLength)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, pw)
	return nil
}

func (a *App) Migrate(ctx context.Context) error {
	rm, err := openRepositories(ctx, a.config)
	if err != nil {
		return err
	}
	defer rm.Close()

	if err := rm.RunMigrations(ctx); err != nil {
		return err
	}
	a.logger.Info(ctx, "migrations applied")
	return nil
}

// SetPassword replaces the stored hash for email unconditionally. Outstanding
// reset tokens stop working because the credential version moves on.
func (a *App) SetPassword(ctx context.Context, email string) error {
	h, err := credentials.New(a.config.HashScheme)
	if err != nil {
		return err
	}

	pw, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	if utf8.RuneCountInString(pw) < common.MinPasswordLength {
		return fmt.Errorf("%w: password must have at least %d characters", common.ErrValidation, common.MinPasswordLength)
	}
	hash, err := h.Hash(pw)
	if err != nil {
		return err
	}

	rm, err := openRepositories(ctx, a.config)
	if err != nil {
		return err
	}
	defer rm.Close()

	n, err := rm.Personas(rm.DB()).SetPassword(ctx, email, hash)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", common.ErrNotFound, email)
	}

	a.logger.Info(ctx, "password replaced", "email", email)
	fmt.Fprintln(a.out, "password updated")
	return nil
}
