package httpapi

import (
	"net/http"
	"strings"

	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/audit"
	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/auth"
)

type createRoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	IsSuperRole bool     `json:"isSuperRole"`
}

type updateRoleRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Permissions []string `json:"permissions"`
	IsSuperRole *bool    `json:"isSuperRole"`
}

// handleRoles accepts either role or user managers: user administration
// needs the role list to populate assignment choices.
func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermManageRoles, auth.PermManageUsers)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getRoles(w, r)
	case http.MethodPost:
		a.createRole(w, r, principal)
	case http.MethodPut:
		a.updateRole(w, r, principal)
	case http.MethodDelete:
		a.deleteRole(w, r, principal)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) getRoles(w http.ResponseWriter, r *http.Request) {
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		role, err := a.svc.GetRole(r.Context(), id)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "role": role})
		return
	}
	roles, err := a.svc.ListRoles(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	if roles == nil {
		roles = []*auth.Role{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "roles": roles, "availablePermissions": auth.BuiltinPermissions})
}

func (a *API) createRole(w http.ResponseWriter, r *http.Request, principal *auth.Principal) {
	var req createRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := a.svc.CreateRole(r.Context(), auth.CreateRoleInput{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		IsSuperRole: req.IsSuperRole,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	a.recorder.Record(actorOf(principal), audit.ActionCreateRole, map[string]any{
		"roleId": role.ID,
		"name":   role.Name,
	}, clientIP(r))
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "role": role})
}

func (a *API) updateRole(w http.ResponseWriter, r *http.Request, principal *auth.Principal) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "role id is required")
		return
	}
	var req updateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := a.svc.UpdateRole(r.Context(), id, auth.RoleUpdate{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		IsSuperRole: req.IsSuperRole,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	a.recorder.Record(actorOf(principal), audit.ActionUpdateRole, map[string]any{
		"roleId": role.ID,
		"name":   role.Name,
	}, clientIP(r))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "role": role})
}

func (a *API) deleteRole(w http.ResponseWriter, r *http.Request, principal *auth.Principal) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "role id is required")
		return
	}
	if err := a.svc.DeleteRole(r.Context(), id); err != nil {
		handleAuthError(w, r, err)
		return
	}
	a.recorder.Record(actorOf(principal), audit.ActionDeleteRole, map[string]any{
		"roleId": id,
	}, clientIP(r))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
