// Package ledger keeps the append-only trade log with per-day rollups and
// on-demand performance metrics.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solana-sniper-core/internal/domain"
	"solana-sniper-core/internal/idhash"
	"solana-sniper-core/internal/observability"
)

// Ledger errors.
var (
	// ErrInvalidTrade is returned when a trade fails the structural check.
	ErrInvalidTrade = errors.New("invalid trade")

	// ErrDuplicateTrade is returned when signature dedup is enabled and the
	// tx signature was already logged.
	ErrDuplicateTrade = errors.New("duplicate trade")
)

// DateLayout is the day key format.
const DateLayout = "2006-01-02"

// Options configures a Ledger.
type Options struct {
	// Location determines the calendar day of a trade. Defaults to UTC.
	Location *time.Location
	// DedupBySignature rejects a second trade with the same non-empty tx signature.
	DedupBySignature bool
	Logger           *zap.Logger
}

// Ledger is safe for concurrent use. Every method holds the lock only for
// the in-memory operation.
type Ledger struct {
	mu   sync.RWMutex
	book *book

	loc    *time.Location
	dedup  bool
	logger *zap.Logger
}

// book is the mutable state swapped as a unit by Clear and Load.
type book struct {
	trades     []domain.TradeLog
	daily      map[string]*dayAccumulator
	signatures map[string]struct{}
}

type dayAccumulator struct {
	spent      decimal.Decimal
	earned     decimal.Decimal
	profitLoss decimal.Decimal
	trades     uint32
	wins       uint32
	losses     uint32
}

func newBook() *book {
	return &book{
		daily:      make(map[string]*dayAccumulator),
		signatures: make(map[string]struct{}),
	}
}

// New creates an empty ledger.
func New(opts Options) *Ledger {
	l := &Ledger{
		book:   newBook(),
		loc:    opts.Location,
		dedup:  opts.DedupBySignature,
		logger: opts.Logger,
	}
	if l.loc == nil {
		l.loc = time.UTC
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	l.logger = l.logger.Named("ledger")
	return l
}

// Location returns the time zone used for day keys.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// DayKey returns the calendar day of ts in the ledger's location.
func (l *Ledger) DayKey(ts time.Time) string {
	return ts.In(l.loc).Format(DateLayout)
}

// Prepare checks the structure of t and assigns a deterministic ID when
// missing. It does not modify the ledger.
func (l *Ledger) Prepare(t domain.TradeLog) (domain.TradeLog, error) {
	if !t.TradeType.IsValid() {
		return domain.TradeLog{}, fmt.Errorf("%w: trade_type must be Buy or Sell, got %q", ErrInvalidTrade, t.TradeType)
	}
	if t.Timestamp.IsZero() {
		return domain.TradeLog{}, fmt.Errorf("%w: timestamp is required", ErrInvalidTrade)
	}
	if !finite(t.AmountIn) || !finite(t.AmountOut) || !finite(t.Price) {
		return domain.TradeLog{}, fmt.Errorf("%w: amounts and price must be finite", ErrInvalidTrade)
	}
	if t.ProfitLoss != nil && !finite(*t.ProfitLoss) {
		return domain.TradeLog{}, fmt.Errorf("%w: profit_loss must be finite", ErrInvalidTrade)
	}
	if t.ProfitLossPercent != nil && !finite(*t.ProfitLossPercent) {
		return domain.TradeLog{}, fmt.Errorf("%w: profit_loss_percent must be finite", ErrInvalidTrade)
	}

	out := t.Clone()
	if out.ID == "" {
		out.ID = idhash.ComputeTradeLogID(
			out.TokenAddress,
			out.TradeType.String(),
			out.Timestamp.UnixNano(),
			out.TxSignature,
			out.AmountIn,
			out.AmountOut,
		)
	}
	return out, nil
}

// HasSignature reports whether a trade with sig was logged.
func (l *Ledger) HasSignature(sig string) bool {
	if sig == "" {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.book.signatures[sig]
	return ok
}

// LogTrade appends t and updates its day bucket. Identical trades appended
// twice are counted twice unless DedupBySignature is set.
// Returns the stored entry.
func (l *Ledger) LogTrade(t domain.TradeLog) (domain.TradeLog, error) {
	prepared, err := l.Prepare(t)
	if err != nil {
		observability.RecordTradeRejected("invalid")
		return domain.TradeLog{}, err
	}
	day := l.DayKey(prepared.Timestamp)

	l.mu.Lock()
	if l.dedup && prepared.TxSignature != "" {
		if _, seen := l.book.signatures[prepared.TxSignature]; seen {
			l.mu.Unlock()
			observability.RecordTradeRejected("duplicate")
			return domain.TradeLog{}, fmt.Errorf("%w: tx_signature %s", ErrDuplicateTrade, prepared.TxSignature)
		}
	}
	l.book.add(prepared, day)
	l.mu.Unlock()

	observability.RecordTradeLogged(prepared.TradeType.String())
	l.logger.Info("trade logged",
		zap.String("id", prepared.ID),
		zap.String("token", prepared.TokenAddress),
		zap.String("type", prepared.TradeType.String()),
		zap.String("day", day))
	return prepared.Clone(), nil
}

// Load replaces the ledger content with trades, in order. On error the
// ledger is unchanged.
func (l *Ledger) Load(trades []domain.TradeLog) error {
	next := newBook()
	for i, t := range trades {
		prepared, err := l.Prepare(t)
		if err != nil {
			return fmt.Errorf("trade %d: %w", i, err)
		}
		if l.dedup && prepared.TxSignature != "" {
			if _, seen := next.signatures[prepared.TxSignature]; seen {
				return fmt.Errorf("trade %d: %w: tx_signature %s", i, ErrDuplicateTrade, prepared.TxSignature)
			}
		}
		next.add(prepared, l.DayKey(prepared.Timestamp))
	}

	l.mu.Lock()
	l.book = next
	l.mu.Unlock()
	return nil
}

// Clear empties the trade list and the daily stats together.
func (l *Ledger) Clear() {
	l.mu.Lock()
	l.book = newBook()
	l.mu.Unlock()

	observability.RecordLedgerClear()
	l.logger.Info("all logs cleared")
}

// Len returns the number of logged trades.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.book.trades)
}

// TradeLogs returns every trade in insertion order.
func (l *Ledger) TradeLogs() []domain.TradeLog {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.TradeLog, len(l.book.trades))
	for i, t := range l.book.trades {
		out[i] = t.Clone()
	}
	return out
}

// TokenLogs returns the trades for one token address in insertion order.
func (l *Ledger) TokenLogs(address string) []domain.TradeLog {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []domain.TradeLog{}
	for _, t := range l.book.trades {
		if t.TokenAddress == address {
			out = append(out, t.Clone())
		}
	}
	return out
}

// DailyStats returns one entry per day, sorted by date.
func (l *Ledger) DailyStats() []domain.DailyStats {
	l.mu.RLock()
	out := make([]domain.DailyStats, 0, len(l.book.daily))
	for date, acc := range l.book.daily {
		out = append(out, acc.stats(date))
	}
	l.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.DailyStats) int {
		switch {
		case a.Date < b.Date:
			return -1
		case a.Date > b.Date:
			return 1
		}
		return 0
	})
	return out
}

func (b *book) add(t domain.TradeLog, day string) {
	b.trades = append(b.trades, t)
	if t.TxSignature != "" {
		b.signatures[t.TxSignature] = struct{}{}
	}

	acc, ok := b.daily[day]
	if !ok {
		acc = &dayAccumulator{}
		b.daily[day] = acc
	}
	acc.trades++

	switch t.TradeType {
	case domain.TradeTypeBuy:
		acc.spent = acc.spent.Add(decimal.NewFromFloat(t.AmountIn))
	case domain.TradeTypeSell:
		acc.earned = acc.earned.Add(decimal.NewFromFloat(t.AmountOut))
		if t.ProfitLoss != nil {
			acc.profitLoss = acc.profitLoss.Add(decimal.NewFromFloat(*t.ProfitLoss))
			if *t.ProfitLoss > 0 {
				acc.wins++
			} else {
				acc.losses++
			}
		}
	}
}

func (a *dayAccumulator) stats(date string) domain.DailyStats {
	return domain.DailyStats{
		Date:        date,
		TotalSpent:  a.spent.InexactFloat64(),
		TotalEarned: a.earned.InexactFloat64(),
		ProfitLoss:  a.profitLoss.InexactFloat64(),
		TradeCount:  a.trades,
		WinCount:    a.wins,
		LossCount:   a.losses,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
