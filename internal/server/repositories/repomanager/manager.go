// Package repomanager vends repositories bound to a database handle or a
// transaction and owns the schema migrations.
package repomanager

import (
	"context"

	"github.com/acedema/acedema-back/internal/dbx"
	"github.com/acedema/acedema-back/internal/server/repositories/personas"
)

type RepositoryManager interface {
	// RunMigrations brings the schema up to date.
	RunMigrations(ctx context.Context) error

	// DB returns the non-transactional handle for single-statement work.
	DB() dbx.DBTX
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// WithTx runs fn inside a transaction; repositories built from tx share it.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error

	Personas(db dbx.DBTX) personas.Repository

	Close() error
}
