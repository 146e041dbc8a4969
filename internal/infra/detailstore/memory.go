package detailstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dealscout/dealscout/internal/domain/catalog"
)

type detailEntry struct {
	payload   catalog.ProductDetails
	expiresAt time.Time
}

// MemoryStore is the in-process implementation of the detail store. With
// a zero TTL entries live until the process exits, which matches the
// session-lifetime ownership of detail records.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	details  map[string]detailEntry
	trending map[string]int64
	displays map[string]string
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		details:  make(map[string]detailEntry),
		trending: make(map[string]int64),
		displays: make(map[string]string),
	}
}

// Get implements catalog.DetailStore.
func (s *MemoryStore) Get(_ context.Context, id string) (catalog.ProductDetails, bool, error) {
	if id == "" {
		return catalog.ProductDetails{}, false, nil
	}
	s.mu.RLock()
	entry, ok := s.details[id]
	s.mu.RUnlock()
	if !ok {
		return catalog.ProductDetails{}, false, nil
	}
	if hasExpired(entry.expiresAt) {
		s.mu.Lock()
		delete(s.details, id)
		s.mu.Unlock()
		return catalog.ProductDetails{}, false, nil
	}
	return entry.payload, true, nil
}

// Put caches a detail record. Last write wins.
func (s *MemoryStore) Put(_ context.Context, id string, details catalog.ProductDetails) error {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if s.ttl > 0 {
		exp = time.Now().Add(s.ttl)
	}
	s.details[id] = detailEntry{payload: details, expiresAt: exp}
	return nil
}

// IncrementQuery bumps the counter for a canonical query and records a
// display string for it.
func (s *MemoryStore) IncrementQuery(_ context.Context, canonical, display string) error {
	if canonical == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trending[canonical]++
	if _, exists := s.displays[canonical]; !exists {
		s.displays[canonical] = display
	}
	return nil
}

// TopQueries returns the most frequent queries.
func (s *MemoryStore) TopQueries(_ context.Context, limit int) ([]catalog.TrendingQuery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = len(s.trending)
	}
	items := make([]catalog.TrendingQuery, 0, len(s.trending))
	for canonical, count := range s.trending {
		display := s.displays[canonical]
		if display == "" {
			display = canonical
		}
		items = append(items, catalog.TrendingQuery{Query: display, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Query < items[j].Query
		}
		return items[i].Count > items[j].Count
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(time.Now())
}

var _ catalog.DetailStore = (*MemoryStore)(nil)
