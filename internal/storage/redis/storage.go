package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gateward/gateward/internal/model"
	"github.com/gateward/gateward/internal/storage"
)

// Storage is a Redis-backed implementation of the record store interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.RecordStore = (*Storage)(nil)

func (s *Storage) SaveRecord(ctx context.Context, rec *model.PlayerRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, recordKey(rec.AccountID), data, 0).Err()
}

func (s *Storage) GetRecord(ctx context.Context, id model.AccountID) (*model.PlayerRecord, error) {
	data, err := s.client.Get(ctx, recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRecordNotFound
		}
		return nil, err
	}

	var rec model.PlayerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Storage) CreateRecord(ctx context.Context, rec *model.PlayerRecord) (bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, recordKey(rec.AccountID), data, 0).Result()
}

func (s *Storage) ListRecords(ctx context.Context) ([]*model.PlayerRecord, error) {
	var records []*model.PlayerRecord

	iter := s.client.Scan(ctx, 0, recordKeyPattern(), 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Key expired between scan and get
				continue
			}
			return nil, err
		}
		var rec model.PlayerRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
