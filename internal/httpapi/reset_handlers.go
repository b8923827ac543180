package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/audit"
	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/auth"
)

type initiateResetRequest struct {
	UserID string `json:"userId"`
}

type completeResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// handleInitiateReset issues a reset token for a target account. The
// plaintext token appears only in this response for out-of-band delivery;
// the store keeps just its digest.
func (a *API) handleInitiateReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := a.ensurePermission(w, r, auth.PermManageUsers)
	if !ok {
		return
	}
	var req initiateResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	grant, err := a.svc.InitiateReset(r.Context(), req.UserID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	a.recorder.Record(actorOf(principal), audit.ActionInitiatePasswordReset, map[string]any{
		"targetUserId": grant.User.ID,
		"targetEmail":  grant.User.Email,
	}, clientIP(r))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"resetToken": grant.Token,
		"resetUrl":   resetURL(a.cfg.BaseURL, grant.Token),
		"expiresAt":  grant.ExpiresAt.Format(time.RFC3339),
		"user": map[string]any{
			"id":       grant.User.ID,
			"email":    grant.User.Email,
			"fullName": grant.User.FullName,
		},
	})
}

// handleCompleteReset is anonymous: the token is the credential. All
// failure modes come back as the same generic response.
func (a *API) handleCompleteReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req completeResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.svc.CompleteReset(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	a.recorder.Record(audit.Actor{}, audit.ActionCompletePasswordReset, map[string]any{
		"userId": user.ID,
	}, clientIP(r))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func resetURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/reset-password?token=" + token
}

func actorOf(p *auth.Principal) audit.Actor {
	if p == nil || p.User == nil {
		return audit.Actor{}
	}
	return audit.Actor{ID: p.User.ID, Email: p.User.Email}
}
