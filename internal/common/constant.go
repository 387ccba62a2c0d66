package common

const (
	// AuthorizationHeader carries the session token as "Bearer <token>".
	AuthorizationHeader = "Authorization"

	// BearerPrefix is the scheme prefix expected in AuthorizationHeader.
	BearerPrefix = "Bearer "

	// TemporaryPasswordLength is the size of generated first-login passwords.
	TemporaryPasswordLength = 12

	// MinPasswordLength applies to every user-chosen password.
	MinPasswordLength = 8
)
