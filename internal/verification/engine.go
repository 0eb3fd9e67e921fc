package verification

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gateward/gateward/internal/admission"
	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/dependencies/clock"
	"github.com/gateward/gateward/internal/dependencies/random"
	"github.com/gateward/gateward/internal/model"
	"github.com/gateward/gateward/internal/records"
	"github.com/gateward/gateward/internal/transport"
)

// Engine is the admission and verification engine. It owns the session
// registry, the timeout supervisor, and the outcome handler, and exposes
// the capability surface the host adapter drives:
// Decide, OnSpawn, OnChat, OnOrientation, OnDisconnect.
//
// All state is per-instance; independent engines can coexist in tests.
type Engine struct {
	cfg        atomic.Pointer[config.Config]
	classifier atomic.Pointer[Classifier]

	gate       *admission.Gate
	registry   *Registry
	outcomes   *Outcomes
	supervisor *Supervisor
	records    *records.Store
	messenger  transport.Messenger
	clock      clock.Clock
	random     random.Random
	logger     *slog.Logger
}

// Options tunes engine behavior outside the user-facing configuration
type Options struct {
	// SettleDelay pauses between the success message and release.
	// Zero releases immediately.
	SettleDelay time.Duration
	// SweepPeriod overrides the supervisor's sweep interval
	SweepPeriod time.Duration
}

// NewEngine wires an engine instance over the given record store and
// host messenger
func NewEngine(
	cfg *config.Config,
	store *records.Store,
	messenger transport.Messenger,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
	opts Options,
) *Engine {
	e := &Engine{
		gate:      admission.NewGate(store, clk, logger),
		registry:  NewRegistry(),
		records:   store,
		messenger: messenger,
		clock:     clk,
		random:    rnd,
		logger:    logger.With(slog.String("component", "verification-engine")),
	}
	e.cfg.Store(cfg)
	e.classifier.Store(NewClassifier(&cfg.Movement))

	e.outcomes = NewOutcomes(e.registry, store, messenger, clk, e.Config, opts.SettleDelay, logger)
	e.supervisor = NewSupervisor(e.registry, e.outcomes, clk, e.Config, opts.SweepPeriod, logger)
	return e
}

// Config returns the current configuration snapshot
func (e *Engine) Config() *config.Config {
	return e.cfg.Load()
}

// Reload atomically swaps the configuration snapshot. Live sessions keep
// the direction queue they started with; new sessions pick up the new
// settings.
func (e *Engine) Reload(cfg *config.Config) {
	e.cfg.Store(cfg)
	e.classifier.Store(NewClassifier(&cfg.Movement))
	e.logger.Info("configuration reloaded")
}

// Registry exposes the session registry (admin stats, tests)
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Gate exposes the admission gate's counters
func (e *Engine) Gate() *admission.Gate {
	return e.gate
}

// Start launches the timeout supervisor
func (e *Engine) Start() {
	go e.supervisor.Run()
}

// Stop terminates the supervisor
func (e *Engine) Stop() {
	e.supervisor.Stop()
}

// Decide evaluates a new connection attempt against the admission gate
func (e *Engine) Decide(ctx context.Context, req admission.Request) model.Admission {
	return e.gate.Decide(ctx, e.Config(), req)
}

// OnSpawn starts a verification session for a connection that entered
// the holding environment. It generates the challenge code, registers
// the session, counts the challenge against the record, and prompts
// the user.
func (e *Engine) OnSpawn(ctx context.Context, connID model.ConnectionID, accountID model.AccountID, username, originAddr string) error {
	cfg := e.Config()

	code := e.random.String(cfg.Code.Length, cfg.Code.Characters)
	session := NewSession(SessionParams{
		ConnID:        connID,
		AccountID:     accountID,
		Username:      username,
		OriginAddress: originAddr,
		TargetCode:    code,
		CaseSensitive: cfg.Code.CaseSensitive,
		Steps:         cfg.Movement.Steps(),
		MaxAttempts:   cfg.Attempts.MaxAttempts,
	}, e.clock.Now())

	if err := e.registry.Add(session); err != nil {
		return err
	}

	e.records.Update(ctx, accountID, func(r *model.PlayerRecord) {
		r.TotalAttempts++
	})

	e.logger.Info("verification session started",
		slog.String("connection_id", string(connID)),
		slog.String("account_id", string(accountID)),
		slog.String("username", username))

	e.messenger.SendMessage(connID, transport.MsgWelcome, nil)
	e.messenger.SendMessage(connID, transport.MsgChatPrompt, map[string]string{
		"code": code,
	})
	return nil
}

// OnChat feeds a textual message into the connection's session. Messages
// with no live session, or outside the chat stage, are silently ignored.
func (e *Engine) OnChat(ctx context.Context, connID model.ConnectionID, text string) {
	session, ok := e.registry.Get(connID)
	if !ok {
		return
	}

	result, remaining := session.HandleChat(text, e.clock.Now())
	switch result {
	case ChatMatched:
		if session.Stage() == StageCompleted {
			// Empty direction queue; the chat stage was the whole challenge
			if session.MarkHandled() {
				e.outcomes.HandleSuccess(ctx, session)
			}
			return
		}
		step, _ := session.ActiveDirection()
		e.messenger.SendMessage(connID, transport.MsgMovementPrompt, stepParams(step))
	case ChatRetry:
		e.messenger.SendMessage(connID, transport.MsgChatRetry, map[string]string{
			"attempts": strconv.Itoa(remaining),
			"code":     session.TargetCode(),
		})
	case ChatExhausted:
		if session.MarkHandled() {
			e.outcomes.HandleFailure(ctx, session)
		}
	case ChatIgnored:
	}
}

// OnOrientation feeds an orientation sample into the connection's
// session. Position is not semantically meaningful to the engine; the
// host adapter strips it before this point.
func (e *Engine) OnOrientation(ctx context.Context, connID model.ConnectionID, yaw, pitch float64) {
	session, ok := e.registry.Get(connID)
	if !ok {
		return
	}

	result := session.HandleOrientation(yaw, pitch, e.clock.Now(), e.classifier.Load())
	if result.Completed {
		if session.MarkHandled() {
			e.outcomes.HandleSuccess(ctx, session)
		}
		return
	}
	if result.Advanced {
		e.messenger.SendMessage(connID, transport.MsgMovementAdvance, stepParams(result.Next))
	}
}

// OnDisconnect deregisters the connection's session (if any) and evicts
// the account's cache entry. Both operations are idempotent.
func (e *Engine) OnDisconnect(ctx context.Context, connID model.ConnectionID, accountID model.AccountID) {
	if session, ok := e.registry.Remove(connID); ok {
		session.MarkHandled()
		if accountID == "" {
			accountID = session.AccountID()
		}
	}
	if accountID != "" {
		e.records.Evict(accountID)
	}
}

func stepParams(step model.DirectionStep) map[string]string {
	return map[string]string{
		"direction": string(step.Direction),
		"seconds":   strconv.FormatFloat(step.Hold.Seconds(), 'g', -1, 64),
	}
}
