package service

import (
	"errors"

	"github.com/slim-mom/backend/internal/tokens"
)

var (
	ErrValidation = errors.New("validation failed")
	// ErrConflict: another account already owns the email.
	ErrConflict = errors.New("email already in use")
	// ErrInvalidCredentials deliberately covers both "no such account"
	// and "wrong password" so responses cannot enumerate emails.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrNotVerified        = errors.New("email not verified")
	ErrNotFound           = errors.New("user not found")
	ErrAlreadyVerified    = errors.New("verification has already been passed")
)

// ErrInvalidToken is shared with the token layer: signature, format
// and expiry failures are indistinguishable to callers.
var ErrInvalidToken = tokens.ErrInvalidToken
