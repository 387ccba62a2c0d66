package services

import (
	"context"
	"errors"
	"strings"

	"github.com/acedema/acedema-back/internal/common"
	"github.com/acedema/acedema-back/internal/dbx"
	"github.com/acedema/acedema-back/internal/logging"
	"github.com/acedema/acedema-back/internal/server/models"
	"github.com/acedema/acedema-back/internal/server/repositories/repomanager"
)

// ProfileService serves self-service reads and updates. The caller is the
// person resolved by the authorization gate from the session token.
type ProfileService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	adminRoleID int
}

func NewProfileService(m repomanager.RepositoryManager, l logging.Logger, adminRoleID int) *ProfileService {
	return &ProfileService{repomanager: m, logger: l, adminRoleID: adminRoleID}
}

// GetProfile returns the caller's own record, read fresh from the store.
func (s *ProfileService) GetProfile(ctx context.Context, caller *models.Person) ProfileResult {
	p, err := s.repomanager.Personas(s.repomanager.DB()).FindByEmail(ctx, caller.Email)
	if err != nil {
		return ProfileResult{Result: s.lookupFailure(ctx, err)}
	}
	return ProfileResult{Result: succeeded(msgProfileOK), Person: p.Public()}
}

// GetPerson returns the person with id if it belongs to the caller or the
// caller is an administrator.
func (s *ProfileService) GetPerson(ctx context.Context, caller *models.Person, id int64) ProfileResult {
	p, err := s.repomanager.Personas(s.repomanager.DB()).FindByID(ctx, id)
	if err != nil {
		return ProfileResult{Result: s.lookupFailure(ctx, err)}
	}
	if caller.RoleID != s.adminRoleID && !strings.EqualFold(p.Email, caller.Email) {
		return ProfileResult{Result: failed(common.ErrForbidden, msgProfileForbidden)}
	}
	return ProfileResult{Result: succeeded(msgProfileOK), Person: p.Public()}
}

// UpdateProfile applies upd to the caller's record. The target row is
// re-resolved from the caller's email inside the transaction. A blank
// declared email means the caller; any other email is Forbidden.
func (s *ProfileService) UpdateProfile(ctx context.Context, caller *models.Person, upd *models.ProfileUpdate) ProfileResult {
	if declared := strings.TrimSpace(upd.Email); declared != "" && !strings.EqualFold(declared, caller.Email) {
		return ProfileResult{Result: failed(common.ErrForbidden, msgProfileForbidden)}
	}
	if strings.TrimSpace(upd.FirstName) == "" {
		return ProfileResult{Result: failed(common.ErrValidation, msgFirstNameRequired)}
	}
	if strings.TrimSpace(upd.FirstSurname) == "" {
		return ProfileResult{Result: failed(common.ErrValidation, msgFirstSurnameRequired)}
	}

	var updated *models.Person
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Personas(tx)
		p, err := repo.FindByEmail(ctx, caller.Email)
		if err != nil {
			return err
		}
		if err := repo.UpdateProfile(ctx, p.ID, upd); err != nil {
			return err
		}
		updated, err = repo.FindByID(ctx, p.ID)
		return err
	})
	if err != nil {
		return ProfileResult{Result: s.lookupFailure(ctx, err)}
	}

	s.logger.Info(ctx, "profile updated", "id", updated.ID)
	return ProfileResult{Result: succeeded(msgProfileUpdated), Person: updated.Public()}
}

func (s *ProfileService) lookupFailure(ctx context.Context, err error) Result {
	if errors.Is(err, common.ErrNotFound) {
		return failed(common.ErrNotFound, msgPersonNotFound)
	}
	s.logger.Error(ctx, "profile: store failure", "error", err)
	return internalFailure(msgInternal, err)
}
