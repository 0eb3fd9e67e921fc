package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/dependencies/clock"
	"github.com/gateward/gateward/internal/model"
	"github.com/gateward/gateward/internal/records"
	"github.com/gateward/gateward/internal/verification"
)

// AdminHandler exposes the administrative record operations. Each is a
// direct record mutation through the record store, bypassing the session
// state machine.
type AdminHandler struct {
	records    *records.Store
	engine     *verification.Engine
	clock      clock.Clock
	logger     *slog.Logger
	configPath string
}

// NewAdminHandler creates the admin handler
func NewAdminHandler(store *records.Store, engine *verification.Engine, clk clock.Clock, configPath string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		records:    store,
		engine:     engine,
		clock:      clk,
		logger:     logger.With(slog.String("component", "admin-api")),
		configPath: configPath,
	}
}

// statsResponse summarizes the engine's state
type statsResponse struct {
	TotalRecords   int   `json:"total_records"`
	Verified       int   `json:"verified"`
	TimedOut       int   `json:"timed_out"`
	InCooldown     int   `json:"in_cooldown"`
	ActiveSessions int   `json:"active_sessions"`
	DegradedAllows int64 `json:"degraded_allows"`
	DroppedWrites  int64 `json:"dropped_writes"`
}

type timeoutRequest struct {
	Seconds int `json:"seconds"`
}

// GetRecord returns a single player record
func (h *AdminHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}

	rec, err := h.records.Fetch(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeError(w, http.StatusBadGateway, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ForceVerify marks an account verified without a challenge
func (h *AdminHandler) ForceVerify(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(rec *model.PlayerRecord) {
		rec.Verified = true
		rec.FailedAttempts = 0
		rec.TimeoutUntil = nil
	})
}

// Reset clears all verification state for an account
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(rec *model.PlayerRecord) {
		rec.Verified = false
		rec.TotalAttempts = 0
		rec.FailedAttempts = 0
		rec.TimeoutUntil = nil
		rec.CooldownUntil = nil
	})
}

// SetTimeout places an account into the penalty box for the given duration
func (h *AdminHandler) SetTimeout(w http.ResponseWriter, r *http.Request) {
	var req timeoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Seconds <= 0 {
		writeError(w, http.StatusBadRequest, "seconds must be a positive integer")
		return
	}
	until := h.clock.Now().Add(time.Duration(req.Seconds) * time.Second)
	h.mutate(w, r, func(rec *model.PlayerRecord) {
		rec.TimeoutUntil = &until
	})
}

// ToggleBypass flips the account's admission bypass flag
func (h *AdminHandler) ToggleBypass(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(rec *model.PlayerRecord) {
		rec.BypassGranted = !rec.BypassGranted
	})
}

// Stats reports engine-wide counters
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	recs, err := h.records.List(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "storage unavailable")
		return
	}

	now := h.clock.Now()
	stats := statsResponse{
		TotalRecords:   len(recs),
		ActiveSessions: h.engine.Registry().Len(),
		DegradedAllows: h.engine.Gate().DegradedAllows(),
		DroppedWrites:  h.records.WriteFailures(),
	}
	for _, rec := range recs {
		if rec.Verified {
			stats.Verified++
		}
		if rec.TimedOut(now) {
			stats.TimedOut++
		}
		if rec.InCooldown(now) {
			stats.InCooldown++
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

// Reload re-reads the config file and swaps the engine's snapshot
func (h *AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	cfg, err := config.Load(h.configPath, h.logger)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.engine.Reload(cfg)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

// mutate applies a record mutation and waits for the durable write, so
// admin operations report persistence failures instead of hiding them
func (h *AdminHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(*model.PlayerRecord)) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}

	if err := <-h.records.Update(r.Context(), id, fn); err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeError(w, http.StatusBadGateway, "storage unavailable")
		return
	}

	rec, err := h.records.Fetch(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *AdminHandler) accountID(w http.ResponseWriter, r *http.Request) (model.AccountID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := model.ParseAccountID(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return "", false
	}
	return id, true
}
