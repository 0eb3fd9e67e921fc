package verification

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/dependencies/clock"
	"github.com/gateward/gateward/internal/model"
	"github.com/gateward/gateward/internal/records"
	"github.com/gateward/gateward/internal/transport"
)

// Outcomes finalizes sessions. Every path deregisters through the
// registry's idempotent Remove, so a racing second finalization is a
// no-op. Record updates go through the async record store; the outcome
// paths never block on storage.
type Outcomes struct {
	registry  *Registry
	records   *records.Store
	messenger transport.Messenger
	clock     clock.Clock
	logger    *slog.Logger
	cfg       func() *config.Config

	// settleDelay is a short user-facing pause between the success
	// message and the release instruction. It never blocks other sessions.
	settleDelay time.Duration
}

// NewOutcomes creates the outcome handler
func NewOutcomes(
	registry *Registry,
	store *records.Store,
	messenger transport.Messenger,
	clk clock.Clock,
	cfg func() *config.Config,
	settleDelay time.Duration,
	logger *slog.Logger,
) *Outcomes {
	return &Outcomes{
		registry:    registry,
		records:     store,
		messenger:   messenger,
		clock:       clk,
		logger:      logger.With(slog.String("component", "outcomes")),
		cfg:         cfg,
		settleDelay: settleDelay,
	}
}

// HandleSuccess finalizes a session that completed the full challenge
func (o *Outcomes) HandleSuccess(ctx context.Context, s *Session) {
	if _, ok := o.registry.Remove(s.ConnID()); !ok {
		return
	}

	now := o.clock.Now()
	cooldownUntil := now.Add(o.cfg().Cooldown.Duration())
	username := s.Username()
	origin := s.OriginAddress()

	o.records.Update(ctx, s.AccountID(), func(r *model.PlayerRecord) {
		r.Verified = true
		r.FailedAttempts = 0
		r.CooldownUntil = &cooldownUntil
		r.LastOriginAddress = origin
		r.Username = username
	})

	o.logger.Info("verification succeeded",
		slog.String("account_id", string(s.AccountID())),
		slog.String("username", username))

	o.messenger.SendMessage(s.ConnID(), transport.MsgSuccess, nil)
	if o.settleDelay > 0 {
		connID := s.ConnID()
		time.AfterFunc(o.settleDelay, func() {
			o.messenger.Release(connID)
		})
		return
	}
	o.messenger.Release(s.ConnID())
}

// HandleFailure finalizes a session that exhausted its attempt budget
func (o *Outcomes) HandleFailure(ctx context.Context, s *Session) {
	o.finalizeFailure(ctx, s, transport.MsgFailed)
}

// HandleTimeout finalizes a session the supervisor found unresponsive
func (o *Outcomes) HandleTimeout(ctx context.Context, s *Session) {
	o.finalizeFailure(ctx, s, transport.MsgTimedOut)
}

func (o *Outcomes) finalizeFailure(ctx context.Context, s *Session, reasonKey string) {
	if _, ok := o.registry.Remove(s.ConnID()); !ok {
		return
	}

	cfg := o.cfg()
	until := o.clock.Now().Add(cfg.Timeout.Duration())

	o.records.Update(ctx, s.AccountID(), func(r *model.PlayerRecord) {
		r.TimeoutUntil = &until
		r.FailedAttempts++
	})

	o.logger.Info("verification failed",
		slog.String("account_id", string(s.AccountID())),
		slog.String("username", s.Username()),
		slog.String("reason", reasonKey))

	minutes := int(cfg.Timeout.Duration().Minutes())
	if minutes < 1 {
		minutes = 1
	}
	o.messenger.Disconnect(s.ConnID(), reasonKey, map[string]string{
		"time": strconv.Itoa(minutes),
	})
}
