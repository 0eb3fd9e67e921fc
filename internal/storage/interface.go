package storage

import (
	"context"

	"github.com/gateward/gateward/internal/model"
)

// RecordStore defines the interface for durable player-record persistence
type RecordStore interface {
	// SaveRecord writes a record unconditionally (last writer wins)
	SaveRecord(ctx context.Context, rec *model.PlayerRecord) error

	// GetRecord fetches a record, or model.ErrRecordNotFound
	GetRecord(ctx context.Context, id model.AccountID) (*model.PlayerRecord, error)

	// CreateRecord inserts a record only if no record exists for its key.
	// Returns false if a record was already present.
	CreateRecord(ctx context.Context, rec *model.PlayerRecord) (bool, error)

	// ListRecords returns all records; used by the administrative stats surface
	ListRecords(ctx context.Context) ([]*model.PlayerRecord, error)
}
