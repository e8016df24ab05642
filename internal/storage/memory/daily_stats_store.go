package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper-core/internal/domain"
	"solana-sniper-core/internal/storage"
)

// DailyStatsStore is an in-memory implementation of storage.DailyStatsStore.
type DailyStatsStore struct {
	mu   sync.RWMutex
	data map[string]domain.DailyStats // keyed by date
}

// NewDailyStatsStore creates a new in-memory daily stats store.
func NewDailyStatsStore() *DailyStatsStore {
	return &DailyStatsStore{
		data: make(map[string]domain.DailyStats),
	}
}

// Upsert writes each entry, replacing any existing entry for the same date.
func (s *DailyStatsStore) Upsert(_ context.Context, stats []domain.DailyStats) error {
	for _, st := range stats {
		if st.Date == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range stats {
		s.data[st.Date] = st
	}
	return nil
}

// GetByDate retrieves the entry for date.
func (s *DailyStatsStore) GetByDate(_ context.Context, date string) (*domain.DailyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[date]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return &st, nil
}

// List retrieves every entry ordered by date ASC.
func (s *DailyStatsStore) List(_ context.Context) ([]domain.DailyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.DailyStats, 0, len(s.data))
	for _, st := range s.data {
		result = append(result, st)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})
	return result, nil
}

// DeleteAll removes every entry.
func (s *DailyStatsStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]domain.DailyStats)
	return nil
}

var _ storage.DailyStatsStore = (*DailyStatsStore)(nil)
