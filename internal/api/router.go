package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// RouterConfig holds configuration for the admin API router
type RouterConfig struct {
	Logger *slog.Logger
	Admin  *AdminHandler
	// TokenHash is the bcrypt hash admin callers must present; empty
	// disables the admin routes entirely
	TokenHash string
	// Gateway is the websocket endpoint handler for proxy hosts
	Gateway http.Handler
}

// NewRouter creates the HTTP router: health, the proxy gateway, and the
// token-guarded admin surface
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.Use(recovery(cfg.Logger))
	r.Use(logging(cfg.Logger))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	if cfg.Gateway != nil {
		r.Handle("/gateway", cfg.Gateway)
	}

	if cfg.TokenHash == "" {
		cfg.Logger.Warn("no admin token hash configured, admin API disabled")
		return r
	}

	admin := r.PathPrefix("/api/v1").Subrouter()
	admin.Use(adminAuth(cfg.TokenHash))

	admin.HandleFunc("/records/{id}", cfg.Admin.GetRecord).Methods(http.MethodGet)
	admin.HandleFunc("/records/{id}/verify", cfg.Admin.ForceVerify).Methods(http.MethodPost)
	admin.HandleFunc("/records/{id}/reset", cfg.Admin.Reset).Methods(http.MethodPost)
	admin.HandleFunc("/records/{id}/timeout", cfg.Admin.SetTimeout).Methods(http.MethodPost)
	admin.HandleFunc("/records/{id}/bypass", cfg.Admin.ToggleBypass).Methods(http.MethodPost)
	admin.HandleFunc("/stats", cfg.Admin.Stats).Methods(http.MethodGet)
	admin.HandleFunc("/reload", cfg.Admin.Reload).Methods(http.MethodPost)

	return r
}
