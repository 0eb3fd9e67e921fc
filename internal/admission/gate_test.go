package admission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/dependencies/mocks"
	"github.com/gateward/gateward/internal/model"
	"github.com/gateward/gateward/internal/records"
	"github.com/gateward/gateward/internal/storage/memory"
	"github.com/gateward/gateward/internal/testutil"
)

type GateSuite struct {
	suite.Suite
	backend *memory.Storage
	store   *records.Store
	clock   *mocks.MockClock
	gate    *Gate
	cfg     *config.Config
	ctx     context.Context
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.backend = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s.store = records.New(s.backend, s.clock, records.DefaultConfig(), testutil.NopLogger())
	s.gate = NewGate(s.store, s.clock, testutil.NopLogger())
	s.cfg = config.Default()
	s.ctx = context.Background()
}

func (s *GateSuite) TearDownTest() {
	s.store.Close()
}

func (s *GateSuite) seed(mutate func(*model.PlayerRecord)) {
	rec := model.NewPlayerRecord("acct-1", "steve", s.clock.Now())
	if mutate != nil {
		mutate(rec)
	}
	s.Require().NoError(s.backend.SaveRecord(s.ctx, rec))
}

func (s *GateSuite) request() Request {
	return Request{
		AccountID:     "acct-1",
		Username:      "steve",
		OriginAddress: "203.0.113.7",
	}
}

func (s *GateSuite) TestBypassPermissionAllowsWithoutRecord() {
	req := s.request()
	req.HasBypassPermission = true

	adm := s.gate.Decide(s.ctx, s.cfg, req)
	s.Equal(model.DecisionAllow, adm.Decision)

	// No record was created for a bypassed connection
	_, err := s.backend.GetRecord(s.ctx, "acct-1")
	s.ErrorIs(err, model.ErrRecordNotFound)
}

func (s *GateSuite) TestFirstContactIsChallenged() {
	adm := s.gate.Decide(s.ctx, s.cfg, s.request())
	s.Equal(model.DecisionChallenge, adm.Decision)

	// The record was created lazily
	rec, err := s.backend.GetRecord(s.ctx, "acct-1")
	s.Require().NoError(err)
	s.False(rec.Verified)
}

func (s *GateSuite) TestGrantedBypassAllows() {
	s.seed(func(r *model.PlayerRecord) { r.BypassGranted = true })

	adm := s.gate.Decide(s.ctx, s.cfg, s.request())
	s.Equal(model.DecisionAllow, adm.Decision)
}

func (s *GateSuite) TestActiveTimeoutDenies() {
	s.seed(func(r *model.PlayerRecord) {
		until := s.clock.Now().Add(10 * time.Minute)
		r.TimeoutUntil = &until
	})

	adm := s.gate.Decide(s.ctx, s.cfg, s.request())
	s.Equal(model.DecisionDeny, adm.Decision)
	s.Equal(10*time.Minute, adm.PenaltyRemaining)
}

func (s *GateSuite) TestExpiredTimeoutChallengesAgain() {
	s.seed(func(r *model.PlayerRecord) {
		until := s.clock.Now().Add(10 * time.Minute)
		r.TimeoutUntil = &until
	})

	s.clock.Advance(11 * time.Minute)

	adm := s.gate.Decide(s.ctx, s.cfg, s.request())
	s.Equal(model.DecisionChallenge, adm.Decision)
}

func (s *GateSuite) TestTimeoutTakesPrecedenceOverCooldown() {
	s.seed(func(r *model.PlayerRecord) {
		timeout := s.clock.Now().Add(5 * time.Minute)
		cooldown := s.clock.Now().Add(24 * time.Hour)
		r.TimeoutUntil = &timeout
		r.CooldownUntil = &cooldown
		r.Verified = true
		r.LastOriginAddress = "203.0.113.7"
	})

	adm := s.gate.Decide(s.ctx, s.cfg, s.request())
	s.Equal(model.DecisionDeny, adm.Decision)
}

func (s *GateSuite) seedCooldown(origin string) {
	s.seed(func(r *model.PlayerRecord) {
		cooldown := s.clock.Now().Add(24 * time.Hour)
		r.CooldownUntil = &cooldown
		r.Verified = true
		r.LastOriginAddress = origin
	})
}

func (s *GateSuite) TestCooldownBothFlagsSameOriginAllows() {
	s.cfg.Cooldown.TrackByUser = true
	s.cfg.Cooldown.TrackByIP = true
	s.seedCooldown("203.0.113.7")

	adm := s.gate.Decide(s.ctx, s.cfg, s.request())
	s.Equal(model.DecisionAllow, adm.Decision)
}

func (s *GateSuite) TestCooldownBothFlagsNewOriginChallenges() {
	s.cfg.Cooldown.TrackByUser = true
	s.cfg.Cooldown.TrackByIP = true
	s.seedCooldown("198.51.100.9")

	adm := s.gate.Decide(s.ctx, s.cfg, s.request())
	s.Equal(model.DecisionChallenge, adm.Decision)
}

func (s *GateSuite) TestCooldownUserOnlyIgnoresOrigin() {
	s.cfg.Cooldown.TrackByUser = true
	s.cfg.Cooldown.TrackByIP = false
	s.seedCooldown("198.51.100.9")

	adm := s.gate.Decide(s.ctx, s.cfg, s.request())
	s.Equal(model.DecisionAllow, adm.Decision)
}

func (s *GateSuite) TestCooldownIPOnlyRequiresOriginMatch() {
	s.cfg.Cooldown.TrackByUser = false
	s.cfg.Cooldown.TrackByIP = true
	s.seedCooldown("203.0.113.7")

	adm := s.gate.Decide(s.ctx, s.cfg, s.request())
	s.Equal(model.DecisionAllow, adm.Decision)

	req := s.request()
	req.OriginAddress = "198.51.100.9"
	adm = s.gate.Decide(s.ctx, s.cfg, req)
	s.Equal(model.DecisionChallenge, adm.Decision)
}

func (s *GateSuite) TestCooldownNeitherFlagAlwaysChallenges() {
	s.cfg.Cooldown.TrackByUser = false
	s.cfg.Cooldown.TrackByIP = false
	s.seedCooldown("203.0.113.7")

	adm := s.gate.Decide(s.ctx, s.cfg, s.request())
	s.Equal(model.DecisionChallenge, adm.Decision)
}

func (s *GateSuite) TestExpiredCooldownChallenges() {
	s.cfg.Cooldown.TrackByUser = true
	s.cfg.Cooldown.TrackByIP = true
	s.seedCooldown("203.0.113.7")

	s.clock.Advance(25 * time.Hour)

	adm := s.gate.Decide(s.ctx, s.cfg, s.request())
	s.Equal(model.DecisionChallenge, adm.Decision)
}

func (s *GateSuite) TestStorageFailureDegradesToAllow() {
	store := records.New(&downStore{}, s.clock, records.DefaultConfig(), testutil.NopLogger())
	defer store.Close()
	gate := NewGate(store, s.clock, testutil.NopLogger())

	adm := gate.Decide(s.ctx, s.cfg, s.request())
	s.Equal(model.DecisionAllow, adm.Decision)
	s.Equal(int64(1), gate.DegradedAllows())
}

// downStore simulates an unavailable backend
type downStore struct{}

func (d *downStore) SaveRecord(context.Context, *model.PlayerRecord) error {
	return context.DeadlineExceeded
}

func (d *downStore) GetRecord(context.Context, model.AccountID) (*model.PlayerRecord, error) {
	return nil, context.DeadlineExceeded
}

func (d *downStore) CreateRecord(context.Context, *model.PlayerRecord) (bool, error) {
	return false, context.DeadlineExceeded
}

func (d *downStore) ListRecords(context.Context) ([]*model.PlayerRecord, error) {
	return nil, context.DeadlineExceeded
}
