package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAccountLocked is returned while the lockout window is active,
	// regardless of password correctness.
	ErrAccountLocked = errors.New("auth: account locked")
	ErrWeakPassword  = errors.New("auth: password too short")
	// ErrInvalidResetToken collapses "not found", "expired" and "already
	// used" into one externally indistinguishable condition.
	ErrInvalidResetToken = errors.New("auth: invalid or expired reset token")
	// ErrInvalidToken indicates a session token that is malformed, expired
	// or carries a bad signature. It signals "unauthenticated", never a
	// system fault.
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrForbidden    = errors.New("auth: forbidden")

	ErrNotFound      = errors.New("auth: not found")
	ErrAlreadyExists = errors.New("auth: already exists")
	ErrInvalidInput  = errors.New("auth: invalid input")
)
