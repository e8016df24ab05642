package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"solana-sniper-core/internal/domain"
	"solana-sniper-core/internal/storage"
)

// DailyStatsStore implements storage.DailyStatsStore using ClickHouse.
// Rows are versioned; the ReplacingMergeTree keeps the latest per date and
// reads use FINAL.
type DailyStatsStore struct {
	conn  *Conn
	clock func() time.Time
}

// NewDailyStatsStore creates a new DailyStatsStore.
func NewDailyStatsStore(conn *Conn) *DailyStatsStore {
	return &DailyStatsStore{conn: conn, clock: time.Now}
}

// Compile-time interface check.
var _ storage.DailyStatsStore = (*DailyStatsStore)(nil)

// Upsert writes every entry in one batch with a fresh version.
func (s *DailyStatsStore) Upsert(ctx context.Context, stats []domain.DailyStats) (err error) {
	if len(stats) == 0 {
		return nil
	}
	for _, st := range stats {
		if st.Date == "" {
			return storage.ErrInvalidInput
		}
	}
	defer func(start time.Time) { observe("upsert_daily_stats", start, err) }(time.Now())

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO daily_stats (
			date, total_spent, total_earned, profit_loss,
			trade_count, win_count, loss_count, version
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	version := uint64(s.clock().UnixNano())
	for _, st := range stats {
		err = batch.Append(
			st.Date, st.TotalSpent, st.TotalEarned, st.ProfitLoss,
			st.TradeCount, st.WinCount, st.LossCount, version,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByDate retrieves the latest entry for date.
func (s *DailyStatsStore) GetByDate(ctx context.Context, date string) (_ *domain.DailyStats, err error) {
	defer func(start time.Time) { observe("get_daily_stats", start, err) }(time.Now())

	query := `
		SELECT date, total_spent, total_earned, profit_loss, trade_count, win_count, loss_count
		FROM daily_stats FINAL
		WHERE date = ?
		LIMIT 1
	`

	var st domain.DailyStats
	err = s.conn.QueryRow(ctx, query, date).Scan(
		&st.Date, &st.TotalSpent, &st.TotalEarned, &st.ProfitLoss,
		&st.TradeCount, &st.WinCount, &st.LossCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get daily stats: %w", err)
	}
	return &st, nil
}

// List retrieves every entry ordered by date ASC.
func (s *DailyStatsStore) List(ctx context.Context) (_ []domain.DailyStats, err error) {
	defer func(start time.Time) { observe("list_daily_stats", start, err) }(time.Now())

	rows, err := s.conn.Query(ctx, `
		SELECT date, total_spent, total_earned, profit_loss, trade_count, win_count, loss_count
		FROM daily_stats FINAL
		ORDER BY date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list daily stats: %w", err)
	}
	defer rows.Close()

	return scanDailyStats(rows)
}

// DeleteAll removes every entry.
func (s *DailyStatsStore) DeleteAll(ctx context.Context) (err error) {
	defer func(start time.Time) { observe("truncate_daily_stats", start, err) }(time.Now())

	if err = s.conn.Exec(ctx, `TRUNCATE TABLE IF EXISTS daily_stats`); err != nil {
		return fmt.Errorf("truncate daily stats: %w", err)
	}
	return nil
}

func scanDailyStats(rows driver.Rows) ([]domain.DailyStats, error) {
	result := []domain.DailyStats{}
	for rows.Next() {
		var st domain.DailyStats
		if err := rows.Scan(
			&st.Date, &st.TotalSpent, &st.TotalEarned, &st.ProfitLoss,
			&st.TradeCount, &st.WinCount, &st.LossCount,
		); err != nil {
			return nil, fmt.Errorf("scan daily stats row: %w", err)
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily stats rows: %w", err)
	}
	return result, nil
}
