// Package httpapi is the HTTP entry point layer: routing, middleware,
// authentication extraction and JSON encoding around the auth service.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/audit"
	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/auth"
	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/obs"
)

// ReadyProbe — readiness check (e.g. DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config carries deployment-level settings for the HTTP layer.
type Config struct {
	Version string
	// BaseURL is the public origin used to build password-reset links.
	BaseURL string
	// SecureCookies marks the session cookie Secure; on in production.
	SecureCookies bool
	// MaxBodyBytes caps request body size; 0 means the 1 MiB default.
	MaxBodyBytes int64
}

// API — HTTP layer.
type API struct {
	mux        *http.ServeMux
	svc        *auth.Service
	recorder   *audit.Recorder
	readyProbe ReadyProbe
	cfg        Config
}

func New(svc *auth.Service, recorder *audit.Recorder, rp ReadyProbe, cfg Config) *API {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	a := &API{
		mux:        http.NewServeMux(),
		svc:        svc,
		recorder:   recorder,
		readyProbe: rp,
		cfg:        cfg,
	}

	// health/ready/metrics
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	// session; login shares the reset endpoints' per-IP throttle since both
	// accept credential guesses
	a.mux.Handle("/api/auth/login", RateLimit(http.HandlerFunc(a.handleLogin), 10, 5))
	a.mux.HandleFunc("/api/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/api/auth/me", a.handleMe)

	// password lifecycle
	a.mux.HandleFunc("/api/change-password", a.handleChangePassword)
	a.mux.HandleFunc("/api/password-reset", a.handleInitiateReset)
	a.mux.Handle("/api/reset-password", RateLimit(http.HandlerFunc(a.handleCompleteReset), 5, 1))

	// administration
	a.mux.HandleFunc("/api/users", a.handleUsers)
	a.mux.HandleFunc("/api/roles", a.handleRoles)
	a.mux.HandleFunc("/api/logs", a.handleLogs)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = obs.Instrument(h)
	h = LoggingJSON(h)
	h = MaxBodyBytes(h, a.cfg.MaxBodyBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = RequestID(h)
	return h
}
