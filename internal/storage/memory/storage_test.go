package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/gateward/gateward/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) record(id string) *model.PlayerRecord {
	return model.NewPlayerRecord(model.AccountID(id), "steve", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
}

func (s *StorageSuite) TestSaveAndGetRecord() {
	rec := s.record("acct-1")
	rec.Verified = true

	err := s.storage.SaveRecord(s.ctx, rec)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRecord(s.ctx, "acct-1")
	s.Require().NoError(err)
	s.Equal(rec.AccountID, retrieved.AccountID)
	s.Equal("steve", retrieved.Username)
	s.True(retrieved.Verified)
}

func (s *StorageSuite) TestGetRecordNotFound() {
	_, err := s.storage.GetRecord(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrRecordNotFound)
}

func (s *StorageSuite) TestGetReturnsCopy() {
	rec := s.record("acct-1")
	s.Require().NoError(s.storage.SaveRecord(s.ctx, rec))

	first, err := s.storage.GetRecord(s.ctx, "acct-1")
	s.Require().NoError(err)
	first.Username = "mutated"

	second, err := s.storage.GetRecord(s.ctx, "acct-1")
	s.Require().NoError(err)
	s.Equal("steve", second.Username)
}

func (s *StorageSuite) TestCreateRecordInsertsIfAbsent() {
	created, err := s.storage.CreateRecord(s.ctx, s.record("acct-1"))
	s.Require().NoError(err)
	s.True(created)

	other := s.record("acct-1")
	other.Username = "alex"
	created, err = s.storage.CreateRecord(s.ctx, other)
	s.Require().NoError(err)
	s.False(created)

	// The original row wins
	retrieved, err := s.storage.GetRecord(s.ctx, "acct-1")
	s.Require().NoError(err)
	s.Equal("steve", retrieved.Username)
}

func (s *StorageSuite) TestListRecords() {
	s.Require().NoError(s.storage.SaveRecord(s.ctx, s.record("acct-1")))
	s.Require().NoError(s.storage.SaveRecord(s.ctx, s.record("acct-2")))

	records, err := s.storage.ListRecords(s.ctx)
	s.Require().NoError(err)
	s.Len(records, 2)
}
