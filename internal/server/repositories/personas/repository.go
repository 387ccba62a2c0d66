// Package personas is the person directory: lookups, creation and the
// credential writes used by authentication.
package personas

import (
	"context"

	"github.com/acedema/acedema-back/internal/server/models"
)

// Repository is the persistence contract consumed by the services.
// Email comparisons are case-insensitive.
type Repository interface {
	// FindByEmail returns common.ErrNotFound when no person has that email.
	FindByEmail(ctx context.Context, email string) (*models.Person, error)

	// FindByID returns common.ErrNotFound when id does not exist.
	FindByID(ctx context.Context, id int64) (*models.Person, error)

	// Create stores p and returns it with ID and RegisteredAt populated.
	// A taken email yields common.ErrDuplicateEmail.
	Create(ctx context.Context, p *models.Person) (*models.Person, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// CompareAndSetPassword replaces the hash only if the stored hash equals
	// expectedHash, in a single statement. It returns the rows affected.
	CompareAndSetPassword(ctx context.Context, email, expectedHash, newHash string) (int64, error)

	// RehashPassword swaps expectedHash for newHash, an encoding of the same
	// password, leaving the credential version untouched so outstanding reset
	// tokens stay valid. It returns the rows affected.
	RehashPassword(ctx context.Context, email, expectedHash, newHash string) (int64, error)

	// SetPassword unconditionally replaces the hash.
	SetPassword(ctx context.Context, email, newHash string) (int64, error)

	// SetPasswordIfVersion replaces the hash only while the credential
	// version still equals version.
	SetPasswordIfVersion(ctx context.Context, email, newHash string, version int64) (int64, error)

	// UpdateProfile writes the editable profile fields of person id.
	// Returns common.ErrNotFound when id does not exist.
	UpdateProfile(ctx context.Context, id int64, upd *models.ProfileUpdate) error
}
