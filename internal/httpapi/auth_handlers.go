package httpapi

import (
	"net/http"

	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// principalView is the session identity shape returned to the browser.
type principalView struct {
	ID                 string   `json:"id"`
	Email              string   `json:"email"`
	FullName           string   `json:"fullName"`
	Role               string   `json:"role"`
	Permissions        []string `json:"permissions"`
	MustChangePassword bool     `json:"mustChangePassword"`
}

func viewPrincipal(p *auth.Principal) principalView {
	v := principalView{
		ID:                 p.User.ID,
		Email:              p.User.Email,
		FullName:           p.User.FullName,
		Permissions:        []string{},
		MustChangePassword: p.User.MustChangePassword,
	}
	if p.Role != nil {
		v.Role = p.Role.Name
		if p.Role.Permissions != nil {
			v.Permissions = p.Role.Permissions
		}
	}
	return v
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	result, err := a.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	a.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    viewPrincipal(result.Principal),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    viewPrincipal(principal),
	})
}

// handleChangePassword lets the authenticated user rotate their own
// password after proving the current one.
func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.ChangePassword(r.Context(), principal.User.ID, req.CurrentPassword, req.NewPassword); err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
