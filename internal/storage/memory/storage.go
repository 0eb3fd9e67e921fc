package memory

import (
	"context"
	"sync"

	"github.com/gateward/gateward/internal/model"
	"github.com/gateward/gateward/internal/storage"
)

// Storage is an in-memory implementation of the record store interface
type Storage struct {
	mu      sync.RWMutex
	records map[model.AccountID]*model.PlayerRecord
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		records: make(map[model.AccountID]*model.PlayerRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.RecordStore = (*Storage)(nil)

func (s *Storage) SaveRecord(ctx context.Context, rec *model.PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.AccountID] = rec.Clone()
	return nil
}

func (s *Storage) GetRecord(ctx context.Context, id model.AccountID) (*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (s *Storage) CreateRecord(ctx context.Context, rec *model.PlayerRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.AccountID]; exists {
		return false, nil
	}
	s.records[rec.AccountID] = rec.Clone()
	return true, nil
}

func (s *Storage) ListRecords(ctx context.Context) ([]*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*model.PlayerRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec.Clone())
	}
	return records, nil
}
