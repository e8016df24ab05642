package storage

import (
	"context"

	"solana-sniper-core/internal/domain"
)

// TradeLogStore provides access to trade_logs storage.
// Entries are append-only; DeleteAll is the only removal.
type TradeLogStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, t *domain.TradeLog) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.TradeLog, error)

	// GetByToken retrieves all trades for a token address in insertion order.
	GetByToken(ctx context.Context, tokenAddress string) ([]*domain.TradeLog, error)

	// List retrieves every trade in insertion order.
	List(ctx context.Context) ([]*domain.TradeLog, error)

	// DeleteAll removes every trade.
	DeleteAll(ctx context.Context) error
}

// DailyStatsStore provides access to daily_stats storage.
type DailyStatsStore interface {
	// Upsert writes each entry, replacing any existing entry for the same date.
	Upsert(ctx context.Context, stats []domain.DailyStats) error

	// GetByDate retrieves the entry for date (YYYY-MM-DD). Returns ErrNotFound if not exists.
	GetByDate(ctx context.Context, date string) (*domain.DailyStats, error)

	// List retrieves every entry ordered by date ASC.
	List(ctx context.Context) ([]domain.DailyStats, error)

	// DeleteAll removes every entry.
	DeleteAll(ctx context.Context) error
}
