package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/dependencies/mocks"
	"github.com/gateward/gateward/internal/dependencies/random"
	"github.com/gateward/gateward/internal/model"
	"github.com/gateward/gateward/internal/records"
	"github.com/gateward/gateward/internal/storage/memory"
	"github.com/gateward/gateward/internal/testutil"
	"github.com/gateward/gateward/internal/verification"
)

const (
	testToken     = "test-admin-token"
	testAccountID = "a0b1c2d3-e4f5-4678-9abc-def012345678"
)

// nopMessenger satisfies the transport interface for engine wiring
type nopMessenger struct{}

func (nopMessenger) SendMessage(model.ConnectionID, string, map[string]string) {}

func (nopMessenger) Release(model.ConnectionID) {}

func (nopMessenger) Disconnect(model.ConnectionID, string, map[string]string) {}

type AdminSuite struct {
	suite.Suite
	backend *memory.Storage
	store   *records.Store
	clock   *mocks.MockClock
	engine  *verification.Engine
	router  http.Handler
	ctx     context.Context
}

func TestAdminSuite(t *testing.T) {
	suite.Run(t, new(AdminSuite))
}

func (s *AdminSuite) SetupTest() {
	s.backend = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s.store = records.New(s.backend, s.clock, records.DefaultConfig(), testutil.NopLogger())
	s.engine = verification.NewEngine(config.Default(), s.store, nopMessenger{}, s.clock, random.New(), testutil.NopLogger(), verification.Options{})
	s.ctx = context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte(testToken), bcrypt.MinCost)
	s.Require().NoError(err)

	admin := NewAdminHandler(s.store, s.engine, s.clock, "testdata/nonexistent.yml", testutil.NopLogger())
	s.router = NewRouter(RouterConfig{
		Logger:    testutil.NopLogger(),
		Admin:     admin,
		TokenHash: string(hash),
	})
}

func (s *AdminSuite) TearDownTest() {
	s.store.Close()
}

func (s *AdminSuite) seedRecord(mutate func(*model.PlayerRecord)) {
	rec := model.NewPlayerRecord(testAccountID, "steve", s.clock.Now())
	if mutate != nil {
		mutate(rec)
	}
	s.Require().NoError(s.backend.SaveRecord(s.ctx, rec))
}

func (s *AdminSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AdminSuite) decodeRecord(w *httptest.ResponseRecorder) *model.PlayerRecord {
	var rec model.PlayerRecord
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&rec))
	return &rec
}

func (s *AdminSuite) TestHealthzIsUnauthenticated() {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
}

func (s *AdminSuite) TestMissingTokenIsRejected() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/"+testAccountID, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AdminSuite) TestWrongTokenIsRejected() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/"+testAccountID, nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AdminSuite) TestGetRecord() {
	s.seedRecord(func(r *model.PlayerRecord) { r.Verified = true })

	w := s.do(http.MethodGet, "/api/v1/records/"+testAccountID, "")
	s.Equal(http.StatusOK, w.Code)

	rec := s.decodeRecord(w)
	s.True(rec.Verified)
	s.Equal("steve", rec.Username)
}

func (s *AdminSuite) TestGetRecordNotFound() {
	w := s.do(http.MethodGet, "/api/v1/records/"+testAccountID, "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *AdminSuite) TestInvalidAccountID() {
	w := s.do(http.MethodGet, "/api/v1/records/not-a-uuid", "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AdminSuite) TestForceVerify() {
	until := s.clock.Now().Add(10 * time.Minute)
	s.seedRecord(func(r *model.PlayerRecord) {
		r.FailedAttempts = 2
		r.TimeoutUntil = &until
	})

	w := s.do(http.MethodPost, "/api/v1/records/"+testAccountID+"/verify", "")
	s.Equal(http.StatusOK, w.Code)

	rec := s.decodeRecord(w)
	s.True(rec.Verified)
	s.Equal(0, rec.FailedAttempts)
	s.Nil(rec.TimeoutUntil)

	// The mutation is durable
	durable, err := s.backend.GetRecord(s.ctx, testAccountID)
	s.Require().NoError(err)
	s.True(durable.Verified)
}

func (s *AdminSuite) TestReset() {
	cooldown := s.clock.Now().Add(24 * time.Hour)
	s.seedRecord(func(r *model.PlayerRecord) {
		r.Verified = true
		r.TotalAttempts = 4
		r.CooldownUntil = &cooldown
	})

	w := s.do(http.MethodPost, "/api/v1/records/"+testAccountID+"/reset", "")
	s.Equal(http.StatusOK, w.Code)

	rec := s.decodeRecord(w)
	s.False(rec.Verified)
	s.Equal(0, rec.TotalAttempts)
	s.Nil(rec.CooldownUntil)
}

func (s *AdminSuite) TestSetTimeout() {
	s.seedRecord(nil)

	w := s.do(http.MethodPost, "/api/v1/records/"+testAccountID+"/timeout", `{"seconds": 300}`)
	s.Equal(http.StatusOK, w.Code)

	rec := s.decodeRecord(w)
	s.Require().NotNil(rec.TimeoutUntil)
	s.True(rec.TimedOut(s.clock.Now()))
	s.Equal(s.clock.Now().Add(5*time.Minute), rec.TimeoutUntil.UTC())
}

func (s *AdminSuite) TestSetTimeoutRejectsNonPositiveSeconds() {
	s.seedRecord(nil)

	w := s.do(http.MethodPost, "/api/v1/records/"+testAccountID+"/timeout", `{"seconds": 0}`)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/records/"+testAccountID+"/timeout", `not json`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AdminSuite) TestToggleBypass() {
	s.seedRecord(nil)

	w := s.do(http.MethodPost, "/api/v1/records/"+testAccountID+"/bypass", "")
	s.Equal(http.StatusOK, w.Code)
	s.True(s.decodeRecord(w).BypassGranted)

	w = s.do(http.MethodPost, "/api/v1/records/"+testAccountID+"/bypass", "")
	s.Equal(http.StatusOK, w.Code)
	s.False(s.decodeRecord(w).BypassGranted)
}

func (s *AdminSuite) TestStats() {
	cooldown := s.clock.Now().Add(24 * time.Hour)
	s.seedRecord(func(r *model.PlayerRecord) {
		r.Verified = true
		r.CooldownUntil = &cooldown
	})
	other := model.NewPlayerRecord("b1c2d3e4-f5a6-4789-abcd-ef0123456789", "alex", s.clock.Now())
	timeout := s.clock.Now().Add(10 * time.Minute)
	other.TimeoutUntil = &timeout
	s.Require().NoError(s.backend.SaveRecord(s.ctx, other))

	w := s.do(http.MethodGet, "/api/v1/stats", "")
	s.Equal(http.StatusOK, w.Code)

	var stats struct {
		TotalRecords   int `json:"total_records"`
		Verified       int `json:"verified"`
		TimedOut       int `json:"timed_out"`
		InCooldown     int `json:"in_cooldown"`
		ActiveSessions int `json:"active_sessions"`
	}
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&stats))
	s.Equal(2, stats.TotalRecords)
	s.Equal(1, stats.Verified)
	s.Equal(1, stats.TimedOut)
	s.Equal(1, stats.InCooldown)
	s.Equal(0, stats.ActiveSessions)
}

func (s *AdminSuite) TestReloadWithMissingFileFallsBackToDefaults() {
	// A missing config file is not an error; reload swaps in defaults
	w := s.do(http.MethodPost, "/api/v1/reload", "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal(3, s.engine.Config().Code.Length)
}
