package repomanager

import (
	"context"

	"github.com/acedema/acedema-back/internal/dbx"
	"github.com/acedema/acedema-back/internal/server/repositories/personas"
)

// MemoryRepositoryManager serves one shared in-memory directory. There is no
// database handle: DB returns nil and WithTx simply calls fn, relying on the
// per-call atomicity of personas.MemoryRepository.
type MemoryRepositoryManager struct {
	personas *personas.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{personas: personas.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) DB() dbx.DBTX { return nil }

func (m *MemoryRepositoryManager) Ping(context.Context) error { return nil }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) Personas(dbx.DBTX) personas.Repository { return m.personas }

func (m *MemoryRepositoryManager) Close() error { return nil }
