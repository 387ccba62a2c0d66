package personas

import (
	"context"
	"sync"
	"time"

	"github.com/acedema/acedema-back/internal/common"
	"github.com/acedema/acedema-back/internal/server/models"
)

var roleNames = map[int]string{
	models.RoleAdmin:   "Administrador",
	models.RoleTeacher: "Profesor",
	models.RoleStudent: "Estudiante",
}

// MemoryRepository keeps people in process memory. It backs local
// development (memory:// DSN) and tests; every method is atomic under one
// mutex, so the credential writes keep their compare-and-set semantics.
type MemoryRepository struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*models.Person
	byEmail map[string]int64
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[int64]*models.Person),
		byEmail: make(map[string]int64),
		now:     time.Now,
	}
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*models.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.copyOf(id), nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id int64) (*models.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return nil, common.ErrNotFound
	}
	return r.copyOf(id), nil
}

func (r *MemoryRepository) Create(_ context.Context, p *models.Person) (*models.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := models.NormalizeEmail(p.Email)
	if _, taken := r.byEmail[key]; taken {
		return nil, common.ErrDuplicateEmail
	}

	r.nextID++
	p.ID = r.nextID
	p.RegisteredAt = r.now().UTC()

	stored := clonePerson(p)
	stored.RoleName = roleNames[p.RoleID]
	r.byID[p.ID] = stored
	r.byEmail[key] = p.ID

	return p, nil
}

func (r *MemoryRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.byEmail[models.NormalizeEmail(email)]
	return ok, nil
}

func (r *MemoryRepository) CompareAndSetPassword(_ context.Context, email, expectedHash, newHash string) (int64, error) {
	return r.setPassword(email, newHash, true, hashIs(expectedHash)), nil
}

func (r *MemoryRepository) RehashPassword(_ context.Context, email, expectedHash, newHash string) (int64, error) {
	return r.setPassword(email, newHash, false, hashIs(expectedHash)), nil
}

func (r *MemoryRepository) SetPassword(_ context.Context, email, newHash string) (int64, error) {
	return r.setPassword(email, newHash, true, func(*models.Person) bool { return true }), nil
}

func (r *MemoryRepository) SetPasswordIfVersion(_ context.Context, email, newHash string, version int64) (int64, error) {
	return r.setPassword(email, newHash, true, func(p *models.Person) bool {
		return p.CredentialVersion == version
	}), nil
}

func (r *MemoryRepository) UpdateProfile(_ context.Context, id int64, upd *models.ProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}

	p.BirthDate = clonePtr(upd.BirthDate)
	p.FirstName = upd.FirstName
	p.MiddleName = upd.MiddleName
	p.FirstSurname = upd.FirstSurname
	p.SecondSurname = upd.SecondSurname
	p.Address = upd.Address
	p.Phone1 = upd.Phone1
	p.Phone2 = upd.Phone2
	return nil
}

func hashIs(expected string) func(*models.Person) bool {
	return func(p *models.Person) bool {
		return p.PasswordHash != "" && p.PasswordHash == expected
	}
}

func (r *MemoryRepository) setPassword(email, newHash string, bumpVersion bool, cond func(*models.Person) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return 0
	}
	p := r.byID[id]
	if !cond(p) {
		return 0
	}
	p.PasswordHash = newHash
	if bumpVersion {
		p.CredentialVersion++
	}
	return 1
}

// copyOf must be called with mu held.
func (r *MemoryRepository) copyOf(id int64) *models.Person {
	return clonePerson(r.byID[id])
}

// clonePerson copies p including the values behind its pointer fields, so
// callers never share memory with stored rows.
func clonePerson(p *models.Person) *models.Person {
	c := *p
	c.BirthDate = clonePtr(p.BirthDate)
	c.GuardianCedula = clonePtr(p.GuardianCedula)
	return &c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
