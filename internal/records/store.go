package records

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/gateward/gateward/internal/dependencies/clock"
	"github.com/gateward/gateward/internal/model"
	"github.com/gateward/gateward/internal/storage"
)

// Config holds tuning for the record store
type Config struct {
	// Workers bounds the pool that performs backend writes
	Workers int
	// WriteRetryElapsed bounds how long a failed backend write is retried
	// before being dropped
	WriteRetryElapsed time.Duration
}

// DefaultConfig returns sensible defaults for the record store
func DefaultConfig() Config {
	return Config{
		Workers:           4,
		WriteRetryElapsed: 10 * time.Second,
	}
}

// Store is the asynchronous, cache-fronted player record store.
//
// While a record is cached, the cache entry is the authoritative copy;
// the backend is the durable fallback. Mutations apply to the cache
// immediately and are written through to the backend on a bounded worker
// pool, with at most one in-flight backend write per key.
type Store struct {
	backend storage.RecordStore
	clock   clock.Clock
	logger  *slog.Logger
	cfg     Config

	mu     sync.RWMutex
	cache  map[model.AccountID]*entry
	closed bool

	tasks chan func()
	wg    sync.WaitGroup

	writeFailures atomic.Int64
}

// entry is the single authoritative in-memory copy of one record
type entry struct {
	mu  sync.Mutex
	rec *model.PlayerRecord

	// flushMu serializes backend writes for this key
	flushMu sync.Mutex
}

// New creates a record store over the given backend and starts its workers
func New(backend storage.RecordStore, clk clock.Clock, cfg Config, logger *slog.Logger) *Store {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.WriteRetryElapsed <= 0 {
		cfg.WriteRetryElapsed = DefaultConfig().WriteRetryElapsed
	}

	s := &Store{
		backend: backend,
		clock:   clk,
		logger:  logger.With(slog.String("component", "record-store")),
		cfg:     cfg,
		cache:   make(map[model.AccountID]*entry),
		tasks:   make(chan func(), 1024),
	}

	for i := 0; i < cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

func (s *Store) worker() {
	defer s.wg.Done()
	for task := range s.tasks {
		task()
	}
}

// Close stops the worker pool after draining queued writes
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.tasks)
	s.wg.Wait()
}

// Fetch returns the record for an account, cache-first
func (s *Store) Fetch(ctx context.Context, id model.AccountID) (*model.PlayerRecord, error) {
	if e := s.lookup(id); e != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.rec.Clone(), nil
	}

	rec, err := s.backend.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	e := s.admit(id, rec)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec.Clone(), nil
}

// FetchOrCreate returns the record for an account, synthesizing and
// persisting a fresh unverified record if none exists yet
func (s *Store) FetchOrCreate(ctx context.Context, id model.AccountID, username string) (*model.PlayerRecord, error) {
	rec, err := s.Fetch(ctx, id)
	if err == nil {
		return rec, nil
	}
	if err != model.ErrRecordNotFound {
		return nil, err
	}

	fresh := model.NewPlayerRecord(id, username, s.clock.Now())
	created, err := s.backend.CreateRecord(ctx, fresh)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost an insert race; the existing row wins
		existing, err := s.backend.GetRecord(ctx, id)
		if err != nil {
			return nil, err
		}
		fresh = existing
	}
	e := s.admit(id, fresh)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec.Clone(), nil
}

// Update applies a mutation to the cached record and writes it through to
// the backend asynchronously. The returned channel reports the result
// once; callers may discard it.
//
// On a cache hit the mutation applies before Update returns. On a miss
// the load, mutation and write all happen on the worker pool, so callers
// never wait on a backend read; administrative mutations for offline
// accounts still work through the channel.
func (s *Store) Update(ctx context.Context, id model.AccountID, mutate func(*model.PlayerRecord)) <-chan error {
	done := make(chan error, 1)

	if e := s.lookup(id); e != nil {
		s.apply(e, mutate)
		if !s.enqueue(func() { done <- s.flush(e) }) {
			done <- context.Canceled
		}
		return done
	}

	if !s.enqueue(func() {
		rec, err := s.backend.GetRecord(ctx, id)
		if err != nil {
			done <- err
			return
		}
		e := s.admit(id, rec)
		s.apply(e, mutate)
		done <- s.flush(e)
	}) {
		done <- context.Canceled
	}
	return done
}

func (s *Store) apply(e *entry, mutate func(*model.PlayerRecord)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	mutate(e.rec)
	e.rec.UpdatedAt = s.clock.Now()
}

// Evict drops the cache entry for an account. Queued writes for the key
// still complete; the durable row persists.
func (s *Store) Evict(id model.AccountID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, id)
}

// List returns all durable records, for the administrative stats surface
func (s *Store) List(ctx context.Context) ([]*model.PlayerRecord, error) {
	return s.backend.ListRecords(ctx)
}

// WriteFailures reports how many backend writes were dropped after
// exhausting retries
func (s *Store) WriteFailures() int64 {
	return s.writeFailures.Load()
}

func (s *Store) lookup(id model.AccountID) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[id]
}

// admit installs a record into the cache, keeping an existing entry if one
// appeared concurrently (exactly one authoritative copy per key)
func (s *Store) admit(id model.AccountID, rec *model.PlayerRecord) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.cache[id]; ok {
		return e
	}
	e := &entry{rec: rec.Clone()}
	s.cache[id] = e
	return e
}

func (s *Store) enqueue(task func()) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	s.tasks <- task
	return true
}

// flush writes the latest state of an entry to the backend, retrying
// transient failures with exponential backoff
func (s *Store) flush(e *entry) error {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	e.mu.Lock()
	snap := e.rec.Clone()
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteRetryElapsed+time.Second)
	defer cancel()

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, s.backend.SaveRecord(ctx, snap)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(s.cfg.WriteRetryElapsed),
	)
	if err != nil {
		s.writeFailures.Add(1)
		s.logger.Error("dropping record write after retries",
			slog.String("account_id", string(snap.AccountID)),
			slog.String("error", err.Error()))
	}
	return err
}
