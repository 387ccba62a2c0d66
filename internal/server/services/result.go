// Package services contains server-side business logic: the credential
// lifecycle (AuthService) and self-service profile access (ProfileService).
//
// Operations never return bare errors. They return result objects carrying a
// success flag, a user-facing message, diagnostic details and the error kind
// in Err, to be matched with errors.Is against the sentinels in common.
package services

import (
	"github.com/acedema/acedema-back/internal/common"
	"github.com/acedema/acedema-back/internal/server/models"
)

// Result is the outcome shared by every operation.
type Result struct {
	Success bool
	Message string
	Errors  []string
	Err     error
}

// RegisterResult carries the created person. It is set on success and on a
// notification failure, since in both cases the person exists.
type RegisterResult struct {
	Result
	Person *models.Person
}

type LoginResult struct {
	Result
	Person *models.Person
	Token  string
}

// ResetRequestResult carries the issued reset token for in-process callers.
// It is empty when nothing was sent.
type ResetRequestResult struct {
	Result
	Token string
}

type ProfileResult struct {
	Result
	Person *models.Person
}

func succeeded(msg string) Result {
	return Result{Success: true, Message: msg}
}

func failed(kind error, msg string, details ...string) Result {
	if len(details) == 0 {
		details = []string{msg}
	}
	return Result{Message: msg, Errors: details, Err: kind}
}

// internalFailure turns an unexpected infrastructure error into a
// persistence result, keeping the error text for diagnostics.
func internalFailure(msg string, err error) Result {
	return failed(common.ErrPersistence, msg, err.Error())
}
