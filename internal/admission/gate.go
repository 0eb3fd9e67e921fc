package admission

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/dependencies/clock"
	"github.com/gateward/gateward/internal/model"
	"github.com/gateward/gateward/internal/records"
)

// Request describes one incoming connection attempt
type Request struct {
	AccountID     model.AccountID
	Username      string
	OriginAddress string
	// HasBypassPermission is true when the host reports the connection
	// carries the configured bypass permission
	HasBypassPermission bool
}

// Gate decides whether a new connection is allowed through, challenged,
// or refused outright. It is stateless apart from a failure counter; all
// cooldown and penalty state lives in the player record.
type Gate struct {
	records *records.Store
	clock   clock.Clock
	logger  *slog.Logger

	// degradedAllows counts connections let through because the record
	// store was unavailable
	degradedAllows atomic.Int64
}

// NewGate creates an admission gate over the given record store
func NewGate(store *records.Store, clk clock.Clock, logger *slog.Logger) *Gate {
	return &Gate{
		records: store,
		clock:   clk,
		logger:  logger.With(slog.String("component", "admission-gate")),
	}
}

// Decide evaluates a connection attempt. A storage failure degrades to
// Allow: a legitimate connection is never blocked on an infrastructure
// error, but the degradation is logged and counted.
//
// The gate never mutates cooldown or penalty fields; its only side effect
// is lazily creating a record on first contact.
func (g *Gate) Decide(ctx context.Context, cfg *config.Config, req Request) model.Admission {
	if req.HasBypassPermission {
		return model.Admission{Decision: model.DecisionAllow}
	}

	rec, err := g.records.FetchOrCreate(ctx, req.AccountID, req.Username)
	if err != nil {
		g.degradedAllows.Add(1)
		g.logger.Error("record store unavailable, allowing connection",
			slog.String("account_id", string(req.AccountID)),
			slog.String("username", req.Username),
			slog.String("error", err.Error()))
		return model.Admission{Decision: model.DecisionAllow}
	}

	if rec.BypassGranted {
		return model.Admission{Decision: model.DecisionAllow}
	}

	now := g.clock.Now()

	if rec.TimedOut(now) {
		return model.Admission{
			Decision:         model.DecisionDeny,
			PenaltyRemaining: rec.TimeoutUntil.Sub(now),
		}
	}

	if rec.InCooldown(now) && cooldownSatisfied(&cfg.Cooldown, rec, req) {
		return model.Admission{Decision: model.DecisionAllow}
	}

	return model.Admission{Decision: model.DecisionChallenge}
}

// cooldownSatisfied applies the configured matching policy to an active
// cooldown window. The record is keyed by account, so the account always
// matches; track-by-ip additionally requires the origin address observed
// at the last successful verification. With both flags off the cooldown
// never applies and the connection is re-challenged.
func cooldownSatisfied(cfg *config.CooldownConfig, rec *model.PlayerRecord, req Request) bool {
	switch {
	case cfg.TrackByUser && cfg.TrackByIP:
		return rec.LastOriginAddress == req.OriginAddress
	case cfg.TrackByUser:
		return true
	case cfg.TrackByIP:
		return rec.LastOriginAddress == req.OriginAddress
	default:
		return false
	}
}

// DegradedAllows reports how many connections were allowed because the
// record store was unavailable
func (g *Gate) DegradedAllows() int64 {
	return g.degradedAllows.Load()
}
