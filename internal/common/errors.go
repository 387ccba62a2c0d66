// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")

	// Error kinds reported by service results.
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrPersistence        = errors.New("persistence error")
	ErrNotification       = errors.New("notification error")

	// Programming errors.
	ErrInvalidArgument = errors.New("invalid argument")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrValidation, "validation"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrInvalidToken, "invalid_token"},
	{ErrUnauthorized, "unauthorized"},
	{ErrForbidden, "forbidden"},
	{ErrNotFound, "not_found"},
	{ErrNotification, "notification"},
	{ErrPersistence, "persistence"},
}

// Kind names the error kind of err for logs and metric labels: "ok" for nil,
// "internal" for anything that is not one of the sentinels above.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}
