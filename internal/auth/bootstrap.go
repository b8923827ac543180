package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// EnsureAdmin creates or repairs the bootstrap administrator account. The
// password comes from deployment configuration at seed time; no static hash
// is ever shipped. The account is flagged for a forced change on first
// login, and running EnsureAdmin again rotates the credential in place.
func EnsureAdmin(ctx context.Context, store Store, email, password, roleName string, cost int) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	role, err := store.Roles(ctx).FindByName(ctx, strings.TrimSpace(roleName))
	if err != nil {
		return nil, fmt.Errorf("look up role %q: %w", roleName, err)
	}
	hash, err := HashPassword(password, cost)
	if err != nil {
		return nil, err
	}

	users := store.Users(ctx)
	existing, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		active, force := true, true
		return users.Update(ctx, existing.ID, UserUpdate{
			Password:           &hash,
			RoleID:             &role.ID,
			IsActive:           &active,
			MustChangePassword: &force,
		})
	case errors.Is(err, ErrNotFound):
		user := &User{
			Email:              email,
			PasswordHash:       hash,
			FullName:           "System Administrator",
			RoleID:             role.ID,
			IsActive:           true,
			MustChangePassword: true,
		}
		if err := users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	default:
		return nil, err
	}
}
