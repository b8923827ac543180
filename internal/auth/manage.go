package auth

import (
	"context"
	"fmt"
	"strings"
)

// User and role management. Input is trimmed and validated here; the entry
// points guard authorization before calling in.

// CreateUserInput is the payload for CreateUser.
type CreateUserInput struct {
	Email              string
	Password           string
	FullName           string
	RoleID             string
	MustChangePassword bool
}

// CreateUser creates a principal record with a hashed credential.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &User{
		Email:              email,
		PasswordHash:       hash,
		FullName:           fullName,
		RoleID:             strings.TrimSpace(in.RoleID),
		IsActive:           true,
		MustChangePassword: in.MustChangePassword,
	}
	if err := s.store.Users(ctx).Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser loads one user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.Users(ctx).Find(ctx, id)
}

// ListUsers returns all users. Hashes stay in the struct but are never
// serialized.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.store.Users(ctx).List(ctx)
}

// UpdateUser applies a partial mutation. A password in the update is hashed
// here and sets the forced-change flag unless the update clears it
// explicitly, matching the admin "set temporary password" flow.
func (s *Service) UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if upd.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
		}
		upd.Email = &email
	}
	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		if name == "" {
			return nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
		}
		upd.FullName = &name
	}
	if upd.Password != nil {
		if len(*upd.Password) < MinPasswordLength {
			return nil, ErrWeakPassword
		}
		hash, err := HashPassword(*upd.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		upd.Password = &hash
		if upd.MustChangePassword == nil {
			force := true
			upd.MustChangePassword = &force
		}
	}
	return s.store.Users(ctx).Update(ctx, id, upd)
}

// DeleteUser removes a principal record. Audit entries referencing it keep
// their identity snapshot.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.Users(ctx).Delete(ctx, id)
}

// CreateRoleInput is the payload for CreateRole.
type CreateRoleInput struct {
	Name        string
	Description string
	Permissions []string
	IsSuperRole bool
}

// CreateRole creates a named permission bundle.
func (s *Service) CreateRole(ctx context.Context, in CreateRoleInput) (*Role, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	role := &Role{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Permissions: dedupeStrings(in.Permissions),
		IsSuperRole: in.IsSuperRole,
	}
	if err := s.store.Roles(ctx).Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// GetRole loads one role by id.
func (s *Service) GetRole(ctx context.Context, id string) (*Role, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	return s.store.Roles(ctx).Find(ctx, id)
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	return s.store.Roles(ctx).List(ctx)
}

// UpdateRole applies a partial mutation. Permission edits take effect for
// every holder of the role immediately.
func (s *Service) UpdateRole(ctx context.Context, id string, upd RoleUpdate) (*Role, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
		}
		upd.Name = &name
	}
	if upd.Permissions != nil {
		upd.Permissions = dedupeStrings(upd.Permissions)
	}
	return s.store.Roles(ctx).Update(ctx, id, upd)
}

// DeleteRole removes a role.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	return s.store.Roles(ctx).Delete(ctx, id)
}

func dedupeStrings(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	set := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := set[v]; ok {
			continue
		}
		set[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
