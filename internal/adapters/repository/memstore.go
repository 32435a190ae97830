package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/rankteam/internal/domain/model"
	"github.com/okian/rankteam/internal/domain/rank"
	"github.com/okian/rankteam/pkg/metrics"
)

// MemoryStore is a map-backed Store guarded by a RWMutex. Reads never block
// each other; registrations serialize.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Entry

	now                   func() time.Time
	metricsUpdateInterval time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewMemoryStore creates an empty store and starts the background metrics
// updater, which stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[string]Entry),
		now:                   time.Now,
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	metrics.UpdateRegisteredRanks(0)
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the metrics updater goroutine.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
		// already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Upsert implements Store.Upsert.
func (s *MemoryStore) Upsert(ctx context.Context, rec model.RankRecord) (Entry, bool, error) {
	rec.ID = strings.TrimSpace(rec.ID)
	if err := validateRecord(rec); err != nil {
		metrics.RecordErrorByType("invalid_record", "low")
		return Entry{}, false, err
	}

	s.mu.Lock()
	prev, existed := s.byID[rec.ID]
	s.byID[rec.ID] = Entry{RankRecord: rec, UpdatedAt: s.now()}
	s.mu.Unlock()

	if !existed {
		metrics.UpdateRegisteredRanks(s.Count(ctx))
	}
	return prev, existed, nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// LookupRanks implements Store.LookupRanks in a single read-locked pass.
func (s *MemoryStore) LookupRanks(ctx context.Context, ids []string) (map[string]model.RankRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.RecordRankLookup(float64(time.Since(start).Microseconds()) / 1000)
	}()

	out := make(map[string]model.RankRecord, len(ids))

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range ids {
		if e, ok := s.byID[strings.TrimSpace(id)]; ok {
			out[id] = e.RankRecord
		}
	}
	return out, nil
}

// Count returns the number of registered identities.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// validateRecord rejects records scoring would silently treat as unranked.
func validateRecord(rec model.RankRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if !rec.Tier.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRecord, rank.ErrUnknownTier, rec.Tier)
	}
	if rec.Division == rank.NoDivision {
		return nil
	}
	if !rec.Tier.HasDivisions() || rec.Division.Ordinal() < 0 {
		return fmt.Errorf("%w: %w: %s %q", ErrInvalidRecord, rank.ErrUnknownDivision, rec.Tier, rec.Division)
	}
	return nil
}

// startMetricsUpdater periodically republishes the registered-ranks gauge.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateRegisteredRanks(s.Count(ctx))
			}
		}
	}()
}
