package auth

import (
	"context"
	"time"
)

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	Users(ctx context.Context) UserStore
	Roles(ctx context.Context) RoleStore
	Audit(ctx context.Context) AuditStore
}

// UserStore manages principal records. All operations are potentially
// blocking I/O and must not be called while holding in-process locks.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*User, error)
	Delete(ctx context.Context, id string) error

	// UpdatePassword stores a new hash and clears the forced-change flag.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// SetResetToken stores the one-way hash of a reset token with its expiry.
	SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error

	// ConsumeResetToken atomically sets the new password hash and clears the
	// reset-token fields, the lockout state and the forced-change flag, but
	// only while the stored token hash matches and the expiry is after now.
	// Concurrent completions racing on one token are serialized here: the
	// loser gets ErrNotFound. Returns the recovered user.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*User, error)

	// RecordLoginFailure persists the failed-attempt counter and, when the
	// policy threshold is crossed, the lock state.
	RecordLoginFailure(ctx context.Context, userID string, attempts int, locked bool, lockedUntil *time.Time) error

	// RecordLoginSuccess resets the failure counter, clears any lock and
	// stamps the last-login time.
	RecordLoginSuccess(ctx context.Context, userID string, at time.Time) error

	// ClearLock unlocks an account whose lock window has elapsed.
	ClearLock(ctx context.Context, userID string) error
}

// RoleStore manages roles.
type RoleStore interface {
	Create(ctx context.Context, role *Role) error
	Find(ctx context.Context, id string) (*Role, error)
	FindByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
	Update(ctx context.Context, id string, upd RoleUpdate) (*Role, error)
	Delete(ctx context.Context, id string) error
}

// AuditStore appends immutable entries. Append is a single-document insert,
// atomic by construction.
type AuditStore interface {
	Append(ctx context.Context, entry *AuditEntry) error
	Recent(ctx context.Context, limit int) ([]*AuditEntry, error)
}
