package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iwvelando/invoice-roi/pkg/scenario"
)

type memoryEntry struct {
	rec       scenario.Record
	createdAt time.Time
	seq       uint64
}

// MemoryStore keeps records in a map. It is lost on exit and intended for the
// CLI, tests and single-process demos.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	seq        uint64
	maxRecords int // 0 = unlimited
	opts       options
	logger     *zap.Logger
}

// NewMemoryStore creates an empty store. When maxRecords is positive the
// oldest records are evicted beyond that count.
func NewMemoryStore(maxRecords int, logger *zap.Logger, opts ...Option) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRecords < 0 {
		maxRecords = 0
	}
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		maxRecords: maxRecords,
		opts:       buildOptions(opts),
		logger:     logger,
	}
}

func (s *MemoryStore) Insert(ctx context.Context, rec scenario.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.opts.newID()
	createdAt := s.opts.now()
	stored := copyRecord(rec)
	stored[scenario.ColumnID] = id
	stored[scenario.ColumnCreatedAt] = createdAt

	s.seq++
	s.entries[id] = memoryEntry{rec: stored, createdAt: createdAt, seq: s.seq}
	s.evictIfNeeded()

	s.logger.Debug("inserted scenario record",
		zap.String("op", "store.MemoryStore.Insert"),
		zap.String("id", id),
	)
	return id, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]scenario.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.sorted()
	records := make([]scenario.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, copyRecord(e.rec))
	}
	return records, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (scenario.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, scenario.ErrNotFound
	}
	return copyRecord(e.rec), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return scenario.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// sorted returns entries newest first. Must be called with lock held.
func (s *MemoryStore) sorted() []memoryEntry {
	entries := make([]memoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].createdAt.Equal(entries[j].createdAt) {
			return entries[i].createdAt.After(entries[j].createdAt)
		}
		return entries[i].seq > entries[j].seq
	})
	return entries
}

// evictIfNeeded removes the oldest records beyond maxRecords.
// Must be called with lock held.
func (s *MemoryStore) evictIfNeeded() {
	if s.maxRecords <= 0 || len(s.entries) <= s.maxRecords {
		return
	}

	entries := s.sorted()
	for _, e := range entries[s.maxRecords:] {
		id, _ := e.rec[scenario.ColumnID].(string)
		delete(s.entries, id)
		s.logger.Debug("evicted scenario record",
			zap.String("op", "store.MemoryStore.evictIfNeeded"),
			zap.String("id", id),
		)
	}
}
