package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication errors. ErrInvalidCredentials deliberately covers both
	// "no such user" and "wrong password" so callers cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email address not verified")
	ErrAccountDisabled    = errors.New("account is disabled")

	// ErrInvalidToken covers every signed-token failure: bad signature,
	// malformed structure, expiry, wrong type. Verification fails closed.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidOrExpired covers every ephemeral-token failure. Wrong token
	// and expired token are indistinguishable to the caller.
	ErrInvalidOrExpired = errors.New("invalid or expired token")
)
