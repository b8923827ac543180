package httpapi

import (
	"net/http"
	"strings"

	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/audit"
	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/auth"
)

type createUserRequest struct {
	Email              string `json:"email"`
	Password           string `json:"password"`
	FullName           string `json:"fullName"`
	RoleID             string `json:"roleId"`
	MustChangePassword bool   `json:"mustChangePassword"`
}

type updateUserRequest struct {
	Email              *string `json:"email"`
	Password           *string `json:"password"`
	FullName           *string `json:"fullName"`
	RoleID             *string `json:"roleId"`
	IsActive           *bool   `json:"isActive"`
	MustChangePassword *bool   `json:"mustChangePassword"`
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermManageUsers)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getUsers(w, r)
	case http.MethodPost:
		a.createUser(w, r, principal)
	case http.MethodPut:
		a.updateUser(w, r, principal)
	case http.MethodDelete:
		a.deleteUser(w, r, principal)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) getUsers(w http.ResponseWriter, r *http.Request) {
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		user, err := a.svc.GetUser(r.Context(), id)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
		return
	}
	users, err := a.svc.ListUsers(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	if users == nil {
		users = []*auth.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "users": users})
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request, principal *auth.Principal) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.svc.CreateUser(r.Context(), auth.CreateUserInput{
		Email:              req.Email,
		Password:           req.Password,
		FullName:           req.FullName,
		RoleID:             req.RoleID,
		MustChangePassword: req.MustChangePassword,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	a.recorder.Record(actorOf(principal), audit.ActionCreateUser, map[string]any{
		"userId": user.ID,
		"email":  user.Email,
	}, clientIP(r))
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "user": user})
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request, principal *auth.Principal) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "user id is required")
		return
	}
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.svc.UpdateUser(r.Context(), id, auth.UserUpdate{
		Email:              req.Email,
		Password:           req.Password,
		FullName:           req.FullName,
		RoleID:             req.RoleID,
		IsActive:           req.IsActive,
		MustChangePassword: req.MustChangePassword,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	a.recorder.Record(actorOf(principal), audit.ActionUpdateUser, map[string]any{
		"userId": user.ID,
		"email":  user.Email,
	}, clientIP(r))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request, principal *auth.Principal) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "user id is required")
		return
	}
	// Self-deletion would strand the session; refuse it.
	if principal.User != nil && principal.User.ID == id {
		writeError(w, r, http.StatusBadRequest, "cannot delete your own account")
		return
	}
	if err := a.svc.DeleteUser(r.Context(), id); err != nil {
		handleAuthError(w, r, err)
		return
	}
	a.recorder.Record(actorOf(principal), audit.ActionDeleteUser, map[string]any{
		"userId": id,
	}, clientIP(r))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
