package auth

import "time"

// User is a principal record. The password hash and the reset-token pair are
// persistence-only and never serialized to clients.
type User struct {
	ID                   string     `json:"id"`
	Email                string     `json:"email"`
	PasswordHash         string     `json:"-"`
	FullName             string     `json:"fullName"`
	RoleID               string     `json:"roleId"`
	IsActive             bool       `json:"isActive"`
	MustChangePassword   bool       `json:"mustChangePassword"`
	LastLogin            *time.Time `json:"lastLogin,omitempty"`
	FailedLoginAttempts  int        `json:"-"`
	AccountLocked        bool       `json:"-"`
	LockedUntil          *time.Time `json:"-"`
	PasswordResetToken   string     `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// Role is a named bundle of permission strings shared by many users.
// A user holds a reference, so permission edits apply to all holders at once.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	IsSuperRole bool      `json:"isSuperRole"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AuditEntry is one append-only record of a privileged action.
// ActorID is nil for anonymous or system-initiated actions. ActorEmail is a
// snapshot taken at write time so the entry keeps an identity even after the
// user record is deleted.
type AuditEntry struct {
	ID         string         `json:"id"`
	ActorID    *string        `json:"actorId"`
	ActorEmail string         `json:"-"`
	ActorName  string         `json:"actorName"`
	Action     string         `json:"action"`
	Details    map[string]any `json:"details,omitempty"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// UserUpdate describes a partial user mutation. Nil fields are left untouched.
type UserUpdate struct {
	Email              *string
	FullName           *string
	Password           *string
	RoleID             *string
	IsActive           *bool
	MustChangePassword *bool
}

// RoleUpdate describes a partial role mutation. Nil fields are left untouched.
type RoleUpdate struct {
	Name        *string
	Description *string
	Permissions []string
	IsSuperRole *bool
}
