package verification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/dependencies/clock"
)

// Supervisor periodically sweeps the registry and times out sessions that
// have gone silent. It holds no session state of its own; the handled
// flag on the session makes each timeout fire at most once.
type Supervisor struct {
	registry *Registry
	outcomes *Outcomes
	clock    clock.Clock
	logger   *slog.Logger
	cfg      func() *config.Config
	period   time.Duration

	stopOnce sync.Once
	done     chan struct{}
}

// DefaultSweepPeriod is how often the supervisor scans live sessions
const DefaultSweepPeriod = time.Second

// NewSupervisor creates a timeout supervisor over the given registry
func NewSupervisor(
	registry *Registry,
	outcomes *Outcomes,
	clk clock.Clock,
	cfg func() *config.Config,
	period time.Duration,
	logger *slog.Logger,
) *Supervisor {
	if period <= 0 {
		period = DefaultSweepPeriod
	}
	return &Supervisor{
		registry: registry,
		outcomes: outcomes,
		clock:    clk,
		logger:   logger.With(slog.String("component", "timeout-supervisor")),
		cfg:      cfg,
		period:   period,
		done:     make(chan struct{}),
	}
}

// Run executes the sweep loop until Stop is called. It is meant to run
// on its own goroutine.
func (s *Supervisor) Run() {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.done:
			return
		}
	}
}

// Stop terminates the sweep loop
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Sweep times out every live session whose last inbound signal is older
// than the response timeout. The sweep itself does no storage I/O; record
// updates are dispatched asynchronously by the outcome handler.
func (s *Supervisor) Sweep(ctx context.Context) {
	cfg := s.cfg()
	if !cfg.Movement.KickOnTimeout {
		return
	}

	now := s.clock.Now()
	timeout := cfg.Movement.ResponseTimeout()

	for _, session := range s.registry.Snapshot() {
		if !session.Expired(now, timeout) {
			continue
		}
		if !session.MarkHandled() {
			continue
		}
		s.logger.Info("session timed out",
			slog.String("connection_id", string(session.ConnID())),
			slog.String("account_id", string(session.AccountID())))
		s.outcomes.HandleTimeout(ctx, session)
	}
}
