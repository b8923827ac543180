package auth

const (
	PermManageUsers    = "manage_users"
	PermManageRoles    = "manage_roles"
	PermManageContent  = "manage_content"
	PermManageEvents   = "manage_events"
	PermManageSettings = "manage_settings"
	PermViewAuditLog   = "view_audit_log"
)

// PermissionDef documents a built-in permission for seeds and admin UIs.
// The guard itself accepts arbitrary permission strings.
type PermissionDef struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

var BuiltinPermissions = []PermissionDef{
	{Key: PermManageUsers, Description: "Create, update and delete users; initiate password resets"},
	{Key: PermManageRoles, Description: "Create, update and delete roles"},
	{Key: PermManageContent, Description: "Manage blog posts and see hidden content"},
	{Key: PermManageEvents, Description: "Manage events"},
	{Key: PermManageSettings, Description: "Manage site settings"},
	{Key: PermViewAuditLog, Description: "View the audit log"},
}
