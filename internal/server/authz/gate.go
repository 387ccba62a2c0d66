// Package authz guards self-service endpoints: it turns a bearer session
// token into the authoritative person record and checks resource ownership.
package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/acedema/acedema-back/internal/common"
	"github.com/acedema/acedema-back/internal/server/auth"
	"github.com/acedema/acedema-back/internal/server/models"
	"github.com/acedema/acedema-back/internal/server/repositories/repomanager"
)

// SessionValidator is the part of auth.TokenService the gate needs.
type SessionValidator interface {
	ValidateSession(token string) (*auth.Claims, error)
}

type Gate struct {
	tokens      SessionValidator
	repomanager repomanager.RepositoryManager
}

func NewGate(t SessionValidator, m repomanager.RepositoryManager) *Gate {
	return &Gate{tokens: t, repomanager: m}
}

// Authorize validates token and, when ownerEmail is not empty, requires the
// token's email to match it case-insensitively. The person is always read
// from the directory by the token's email; client-supplied ids are never
// trusted.
//
// Errors: common.ErrUnauthorized for a missing, invalid or orphaned token,
// common.ErrForbidden for an owner mismatch, and a wrapped store error
// otherwise.
func (g *Gate) Authorize(ctx context.Context, token, ownerEmail string) (*models.Person, error) {
	if token == "" {
		return nil, common.ErrUnauthorized
	}
	claims, err := g.tokens.ValidateSession(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	if strings.TrimSpace(claims.Email) == "" {
		return nil, common.ErrUnauthorized
	}
	if err := checkOwner(claims.Email, ownerEmail); err != nil {
		return nil, err
	}

	p, err := g.repomanager.Personas(g.repomanager.DB()).FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return p.Public(), nil
}

// CheckOwner applies the ownership rule to an already authorized person.
func (g *Gate) CheckOwner(p *models.Person, ownerEmail string) error {
	return checkOwner(p.Email, ownerEmail)
}

func checkOwner(email, ownerEmail string) error {
	ownerEmail = strings.TrimSpace(ownerEmail)
	if ownerEmail != "" && !strings.EqualFold(email, ownerEmail) {
		return common.ErrForbidden
	}
	return nil
}

// BearerToken extracts the token from an Authorization header value. It
// returns "" when the header does not use the Bearer scheme.
func BearerToken(header string) string {
	if len(header) < len(common.BearerPrefix) || !strings.EqualFold(header[:len(common.BearerPrefix)], common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(common.BearerPrefix):])
}
