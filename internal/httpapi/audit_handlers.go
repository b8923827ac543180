package httpapi

import (
	"net/http"

	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/auth"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// handleLogs returns recent audit entries, newest first.
func (a *API) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.ensurePermission(w, r, auth.PermViewAuditLog); !ok {
		return
	}
	limit := parsePositiveInt(r.URL.Query().Get("limit"), defaultLogLimit, maxLogLimit)
	entries, err := a.recorder.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []*auth.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "logs": entries})
}
