package scanner

import (
	"sync"
	"time"

	"solana-sniper-core/internal/domain"
	"solana-sniper-core/internal/filter"
	"solana-sniper-core/internal/observability"
)

// StoreOptions configures a Store.
type StoreOptions struct {
	// Capacity defaults to domain.OpportunityCapacity.
	Capacity int
	// Clock is used by ApplyFilters for age and lock checks. Defaults to time.Now.
	Clock func() time.Time
}

// Store is a bounded, deduplicated, most-recent-first collection of opportunities.
// Safe for concurrent use; every method holds the lock only for in-memory work.
type Store struct {
	mu    sync.RWMutex
	items []domain.TokenOpportunity // index 0 is the most recent
	index map[string]struct{}       // addresses present in items

	capacity int
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore(opts StoreOptions) *Store {
	s := &Store{
		index:    make(map[string]struct{}),
		capacity: opts.Capacity,
		now:      opts.Clock,
	}
	if s.capacity <= 0 {
		s.capacity = domain.OpportunityCapacity
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Submit inserts op at the front unless its address is already present,
// in which case the stored record is left untouched. Oldest entries are
// evicted once the store exceeds capacity. Returns true if op was inserted.
func (s *Store) Submit(op domain.TokenOpportunity) bool {
	if op.Address == "" {
		return false
	}
	op = op.Clone()
	op.Score = clampScore(op.Score)

	s.mu.Lock()
	if _, exists := s.index[op.Address]; exists {
		size := len(s.items)
		s.mu.Unlock()
		observability.RecordStoreSubmit(false, 0, size)
		return false
	}

	s.items = append(s.items, domain.TokenOpportunity{})
	copy(s.items[1:], s.items)
	s.items[0] = op
	s.index[op.Address] = struct{}{}

	evicted := 0
	for len(s.items) > s.capacity {
		last := len(s.items) - 1
		delete(s.index, s.items[last].Address)
		s.items[last] = domain.TokenOpportunity{}
		s.items = s.items[:last]
		evicted++
	}
	size := len(s.items)
	s.mu.Unlock()

	observability.RecordStoreSubmit(true, evicted, size)
	return true
}

// Snapshot returns a point-in-time copy of the collection, most recent first.
func (s *Store) Snapshot() []domain.TokenOpportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TokenOpportunity, len(s.items))
	for i, op := range s.items {
		out[i] = op.Clone()
	}
	return out
}

// ApplyFilters returns the snapshot entries that pass all six hard predicates.
func (s *Store) ApplyFilters(settings domain.FilterSettings) []domain.TokenOpportunity {
	snapshot := s.Snapshot()
	now := s.now()

	out := make([]domain.TokenOpportunity, 0, len(snapshot))
	for _, op := range snapshot {
		if filter.Validate(op, settings, now) {
			out = append(out, op)
		}
	}
	return out
}

// Get returns a copy of the record for address.
func (s *Store) Get(address string) (domain.TokenOpportunity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.index[address]; !ok {
		return domain.TokenOpportunity{}, false
	}
	for _, op := range s.items {
		if op.Address == address {
			return op.Clone(), true
		}
	}
	return domain.TokenOpportunity{}, false
}

// Update applies fn to the stored record for address in place.
// The address cannot be changed and the score is clamped to [0, 100].
// Returns false if address is not present.
func (s *Store) Update(address string, fn func(*domain.TokenOpportunity)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[address]; !ok {
		return false
	}
	for i := range s.items {
		if s.items[i].Address != address {
			continue
		}
		next := s.items[i].Clone()
		fn(&next)
		next.Address = address
		next.Score = clampScore(next.Score)
		s.items[i] = next
		return true
	}
	return false
}

// Len returns the number of stored opportunities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func clampScore(score uint8) uint8 {
	if score > 100 {
		return 100
	}
	return score
}
