package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"crewbase.org/internal/directory"
	"crewbase.org/internal/obs"
	"crewbase.org/internal/token"
)

// ReadyProbe reports readiness, typically a database ping.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the directory service.
type API struct {
	mux        *http.ServeMux
	svc        *directory.Service
	tokens     *token.Issuer
	readyProbe ReadyProbe
	version    string
}

func New(svc *directory.Service, tokens *token.Issuer, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		svc:        svc,
		tokens:     tokens,
		readyProbe: rp,
		version:    version,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// session
	a.mux.HandleFunc("/v1/auth/signup", a.handleSignup)
	a.mux.HandleFunc("/v1/auth/signin", a.handleSignin)
	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)

	// accounts
	a.mux.HandleFunc("/v1/accounts", a.handleAccounts)
	a.mux.HandleFunc("/v1/accounts/", a.handleAccountScoped)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the mux wrapped with the authn gate and metrics.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.withAuth(a.mux))
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "crewbase-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "crewbase-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
