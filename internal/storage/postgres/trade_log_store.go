package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-sniper-core/internal/domain"
	"solana-sniper-core/internal/storage"
)

// TradeLogStore implements storage.TradeLogStore using PostgreSQL.
// Insertion order is kept by the seq column.
type TradeLogStore struct {
	pool *Pool
}

// NewTradeLogStore creates a new TradeLogStore.
func NewTradeLogStore(pool *Pool) *TradeLogStore {
	return &TradeLogStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeLogStore = (*TradeLogStore)(nil)

const tradeLogColumns = `
	id, token_address, token_symbol, token_name, trade_type,
	amount_in, amount_out, price, ts, tx_signature,
	profit_loss, profit_loss_percent, time_held
`

// Insert adds a new trade. Returns ErrDuplicateKey if id exists.
func (s *TradeLogStore) Insert(ctx context.Context, t *domain.TradeLog) (err error) {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("insert_trade_log", start, err) }(time.Now())

	query := `
		INSERT INTO trade_logs (` + tradeLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = s.pool.Exec(ctx, query,
		t.ID, t.TokenAddress, t.TokenSymbol, t.TokenName, string(t.TradeType),
		t.AmountIn, t.AmountOut, t.Price, t.Timestamp, t.TxSignature,
		t.ProfitLoss, t.ProfitLossPercent, t.TimeHeld,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade log: %w", err)
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeLogStore) GetByID(ctx context.Context, id string) (_ *domain.TradeLog, err error) {
	defer func(start time.Time) { observe("get_trade_log", start, err) }(time.Now())

	query := `SELECT ` + tradeLogColumns + ` FROM trade_logs WHERE id = $1`

	t, err := scanTradeLog(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade log by id: %w", err)
	}
	return t, nil
}

// GetByToken retrieves all trades for a token address in insertion order.
func (s *TradeLogStore) GetByToken(ctx context.Context, tokenAddress string) (_ []*domain.TradeLog, err error) {
	defer func(start time.Time) { observe("get_trade_logs_by_token", start, err) }(time.Now())

	query := `
		SELECT ` + tradeLogColumns + `
		FROM trade_logs
		WHERE token_address = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("get trade logs by token: %w", err)
	}
	defer rows.Close()

	return scanTradeLogs(rows)
}

// List retrieves every trade in insertion order.
func (s *TradeLogStore) List(ctx context.Context) (_ []*domain.TradeLog, err error) {
	defer func(start time.Time) { observe("list_trade_logs", start, err) }(time.Now())

	query := `SELECT ` + tradeLogColumns + ` FROM trade_logs ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list trade logs: %w", err)
	}
	defer rows.Close()

	return scanTradeLogs(rows)
}

// DeleteAll removes every trade.
func (s *TradeLogStore) DeleteAll(ctx context.Context) (err error) {
	defer func(start time.Time) { observe("delete_trade_logs", start, err) }(time.Now())

	if _, err = s.pool.Exec(ctx, `DELETE FROM trade_logs`); err != nil {
		return fmt.Errorf("delete trade logs: %w", err)
	}
	return nil
}

// scanTradeLog scans a single row into a TradeLog.
func scanTradeLog(row pgx.Row) (*domain.TradeLog, error) {
	var (
		t         domain.TradeLog
		tradeType string
	)

	err := row.Scan(
		&t.ID, &t.TokenAddress, &t.TokenSymbol, &t.TokenName, &tradeType,
		&t.AmountIn, &t.AmountOut, &t.Price, &t.Timestamp, &t.TxSignature,
		&t.ProfitLoss, &t.ProfitLossPercent, &t.TimeHeld,
	)
	if err != nil {
		return nil, err
	}

	t.TradeType = domain.TradeType(tradeType)
	t.Timestamp = t.Timestamp.UTC()
	return &t, nil
}

// scanTradeLogs scans multiple rows into a slice of TradeLog.
func scanTradeLogs(rows pgx.Rows) ([]*domain.TradeLog, error) {
	var trades []*domain.TradeLog

	for rows.Next() {
		t, err := scanTradeLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade log row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade log rows: %w", err)
	}

	return trades, nil
}
