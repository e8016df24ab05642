package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-sniper-core/internal/domain"
	"solana-sniper-core/internal/observability"
	"solana-sniper-core/internal/storage"
)

// Journal writes every trade to a durable store before it reaches the
// in-memory ledger, and mirrors the daily rollups to a stats store.
// A nil daily store disables FlushDailyStats.
type Journal struct {
	ledger *Ledger
	trades storage.TradeLogStore
	daily  storage.DailyStatsStore
	logger *zap.Logger
}

// NewJournal wires a ledger to its stores.
func NewJournal(l *Ledger, trades storage.TradeLogStore, daily storage.DailyStatsStore, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{
		ledger: l,
		trades: trades,
		daily:  daily,
		logger: logger.Named("journal"),
	}
}

// Ledger returns the in-memory ledger.
func (j *Journal) Ledger() *Ledger {
	return j.ledger
}

// Record persists t and appends it to the ledger. A trade whose ID is
// already stored is rejected with ErrDuplicateTrade.
func (j *Journal) Record(ctx context.Context, t domain.TradeLog) (domain.TradeLog, error) {
	prepared, err := j.ledger.Prepare(t)
	if err != nil {
		observability.RecordTradeRejected("invalid")
		return domain.TradeLog{}, err
	}
	if j.ledger.dedup && j.ledger.HasSignature(prepared.TxSignature) {
		observability.RecordTradeRejected("duplicate")
		return domain.TradeLog{}, fmt.Errorf("%w: tx_signature %s", ErrDuplicateTrade, prepared.TxSignature)
	}

	if err := j.trades.Insert(ctx, &prepared); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			observability.RecordTradeRejected("duplicate")
			return domain.TradeLog{}, fmt.Errorf("%w: id %s", ErrDuplicateTrade, prepared.ID)
		}
		return domain.TradeLog{}, fmt.Errorf("persist trade: %w", err)
	}

	stored, err := j.ledger.LogTrade(prepared)
	if err != nil {
		// Persisted but not in memory; a restart restores it.
		j.logger.Error("trade persisted but not appended",
			zap.String("id", prepared.ID),
			zap.Error(err))
		return domain.TradeLog{}, err
	}
	return stored, nil
}

// Restore reloads the ledger from the trade store. Returns the number of
// trades loaded.
func (j *Journal) Restore(ctx context.Context) (int, error) {
	stored, err := j.trades.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list trades: %w", err)
	}

	trades := make([]domain.TradeLog, len(stored))
	for i, t := range stored {
		trades[i] = *t
	}
	if err := j.ledger.Load(trades); err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}

	j.logger.Info("ledger restored", zap.Int("trades", len(trades)))
	return len(trades), nil
}

// Clear removes every trade and daily rollup from the stores, then the
// ledger.
func (j *Journal) Clear(ctx context.Context) error {
	if err := j.trades.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear trades: %w", err)
	}
	if j.daily != nil {
		if err := j.daily.DeleteAll(ctx); err != nil {
			return fmt.Errorf("clear daily stats: %w", err)
		}
	}
	j.ledger.Clear()
	return nil
}

// FlushDailyStats writes the current daily rollups to the stats store.
// Returns the number of days written.
func (j *Journal) FlushDailyStats(ctx context.Context) (int, error) {
	if j.daily == nil {
		return 0, nil
	}

	start := time.Now()
	stats := j.ledger.DailyStats()
	err := j.daily.Upsert(ctx, stats)
	observability.RecordDailyStatsFlush(time.Since(start).Seconds(), err)
	if err != nil {
		return 0, fmt.Errorf("flush daily stats: %w", err)
	}

	j.logger.Debug("daily stats flushed", zap.Int("days", len(stats)))
	return len(stats), nil
}
