package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/okian/audiogram/internal/domain/model"
	"github.com/okian/audiogram/pkg/metrics"
)

// Snapshot is an immutable view of one loaded dataset.
type Snapshot struct {
	Records []model.RawRecord
	ByID    map[int64]int
	Loaded  time.Time
}

// MemoryStore is an in-memory Store. Writes publish a new snapshot through an
// atomic pointer so reads never take a lock.
type MemoryStore struct {
	snapshot atomic.Pointer[Snapshot]
	intn     func(n int) int
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{intn: rand.IntN}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{ByID: map[int64]int{}})
	return s
}

// Replace publishes records as the new dataset. The slice is copied.
func (s *MemoryStore) Replace(_ context.Context, records []model.RawRecord) {
	snap := &Snapshot{
		Records: append([]model.RawRecord(nil), records...),
		ByID:    make(map[int64]int, len(records)),
		Loaded:  time.Now(),
	}
	for i, r := range snap.Records {
		if _, dup := snap.ByID[r.ID]; !dup {
			snap.ByID[r.ID] = i
		}
	}
	s.snapshot.Store(snap)
	metrics.UpdateDatasetRecords(len(snap.Records))
}

// Snapshot returns the current snapshot.
func (s *MemoryStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

func (s *MemoryStore) Len(_ context.Context) int {
	return len(s.snapshot.Load().Records)
}

func (s *MemoryStore) At(_ context.Context, i int) (model.RawRecord, error) {
	defer observe("index", time.Now())
	recs := s.snapshot.Load().Records
	if len(recs) == 0 {
		return model.RawRecord{}, ErrEmpty
	}
	if i < 0 || i >= len(recs) {
		metrics.RecordLookupMiss("index")
		return model.RawRecord{}, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, i, len(recs))
	}
	return recs[i], nil
}

func (s *MemoryStore) First(_ context.Context) (model.RawRecord, error) {
	defer observe("first", time.Now())
	recs := s.snapshot.Load().Records
	if len(recs) == 0 {
		return model.RawRecord{}, ErrEmpty
	}
	return recs[0], nil
}

func (s *MemoryStore) ByID(_ context.Context, id int64) (model.RawRecord, error) {
	defer observe("id", time.Now())
	snap := s.snapshot.Load()
	if len(snap.Records) == 0 {
		return model.RawRecord{}, ErrEmpty
	}
	i, ok := snap.ByID[id]
	if !ok {
		metrics.RecordLookupMiss("id")
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.RawRecord{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return snap.Records[i], nil
}

func (s *MemoryStore) Random(_ context.Context) (model.RawRecord, error) {
	defer observe("random", time.Now())
	recs := s.snapshot.Load().Records
	if len(recs) == 0 {
		return model.RawRecord{}, ErrEmpty
	}
	return recs[s.intn(len(recs))], nil
}

func (s *MemoryStore) All(_ context.Context) []model.RawRecord {
	return s.snapshot.Load().Records
}

func observe(mode string, start time.Time) {
	metrics.RecordSelectionLatency(mode, float64(time.Since(start).Microseconds())/1000)
}
