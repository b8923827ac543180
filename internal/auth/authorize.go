package auth

// Principal is a resolved user with its role populated. Its permission set is
// always exactly the role's set; there are no per-user overrides.
type Principal struct {
	User *User
	Role *Role
}

// HasPermission reports whether the principal may perform the action
// identified by perm. A super-role satisfies every check unconditionally.
func (p *Principal) HasPermission(perm string) bool {
	if p == nil || p.Role == nil {
		return false
	}
	if p.Role.IsSuperRole {
		return true
	}
	for _, key := range p.Role.Permissions {
		if key == perm {
			return true
		}
	}
	return false
}

// Authorize is the single allow/deny gate used by every privileged entry
// point. It is pure: deny is a returned error, never a panic, and callers map
// ErrUnauthorized to 401 and ErrForbidden to 403.
func Authorize(p *Principal, perm string) error {
	if p == nil || p.User == nil {
		return ErrUnauthorized
	}
	if !p.HasPermission(perm) {
		return ErrForbidden
	}
	return nil
}

// AuthorizeAny allows when the principal holds at least one of the given
// permissions. Role management accepts manage_roles or manage_users, so the
// guard needs an any-of form.
func AuthorizeAny(p *Principal, perms ...string) error {
	if p == nil || p.User == nil {
		return ErrUnauthorized
	}
	for _, perm := range perms {
		if p.HasPermission(perm) {
			return nil
		}
	}
	return ErrForbidden
}

// CanViewHidden is the visibility filter every public listing applies:
// principals allowed to manage content see hidden records, everyone else
// sees only visible ones.
func CanViewHidden(p *Principal) bool {
	return p.HasPermission(PermManageContent)
}
