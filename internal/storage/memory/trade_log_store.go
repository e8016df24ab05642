package memory

import (
	"context"
	"sync"

	"solana-sniper-core/internal/domain"
	"solana-sniper-core/internal/storage"
)

// TradeLogStore is an in-memory implementation of storage.TradeLogStore.
type TradeLogStore struct {
	mu    sync.RWMutex
	order []string                    // ids in insertion order
	data  map[string]*domain.TradeLog // keyed by id
}

// NewTradeLogStore creates a new in-memory trade log store.
func NewTradeLogStore() *TradeLogStore {
	return &TradeLogStore{
		data: make(map[string]*domain.TradeLog),
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if id exists.
func (s *TradeLogStore) Insert(_ context.Context, t *domain.TradeLog) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}

	stored := t.Clone()
	s.data[t.ID] = &stored
	s.order = append(s.order, t.ID)
	return nil
}

// GetByID retrieves a trade by its ID.
func (s *TradeLogStore) GetByID(_ context.Context, id string) (*domain.TradeLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	out := t.Clone()
	return &out, nil
}

// GetByToken retrieves all trades for a token address in insertion order.
func (s *TradeLogStore) GetByToken(_ context.Context, tokenAddress string) ([]*domain.TradeLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeLog
	for _, id := range s.order {
		t := s.data[id]
		if t.TokenAddress == tokenAddress {
			out := t.Clone()
			result = append(result, &out)
		}
	}
	return result, nil
}

// List retrieves every trade in insertion order.
func (s *TradeLogStore) List(_ context.Context) ([]*domain.TradeLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TradeLog, 0, len(s.order))
	for _, id := range s.order {
		out := s.data[id].Clone()
		result = append(result, &out)
	}
	return result, nil
}

// DeleteAll removes every trade.
func (s *TradeLogStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = nil
	s.data = make(map[string]*domain.TradeLog)
	return nil
}

var _ storage.TradeLogStore = (*TradeLogStore)(nil)
