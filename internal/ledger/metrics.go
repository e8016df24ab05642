package ledger

import (
	"github.com/shopspring/decimal"

	"solana-sniper-core/internal/domain"
)

// PerformanceMetrics recomputes the metrics from the full trade list.
// Only Sell entries count toward wins, profit and best/worst; a Sell
// without profit_loss counts as a zero-profit loss.
func (l *Ledger) PerformanceMetrics() domain.PerformanceMetrics {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return computeMetrics(l.book.trades)
}

func computeMetrics(trades []domain.TradeLog) domain.PerformanceMetrics {
	m := domain.PerformanceMetrics{TotalTrades: uint32(len(trades))}

	var (
		sells  uint32
		total  decimal.Decimal
		havePL bool
		best   float64
		worst  float64
	)
	for _, t := range trades {
		if t.TradeType != domain.TradeTypeSell {
			continue
		}
		sells++
		if t.ProfitLoss == nil {
			continue
		}

		pl := *t.ProfitLoss
		total = total.Add(decimal.NewFromFloat(pl))
		if pl > 0 {
			m.WinTrades++
		}
		if !havePL {
			best, worst = pl, pl
			havePL = true
			continue
		}
		best = max(best, pl)
		worst = min(worst, pl)
	}

	if sells == 0 {
		return m
	}

	m.LossTrades = sells - m.WinTrades
	m.WinRate = float64(m.WinTrades) / float64(sells) * 100
	m.TotalProfit = total.InexactFloat64()
	m.AvgProfit = total.Div(decimal.NewFromInt(int64(sells))).InexactFloat64()
	m.BestTrade = best
	m.WorstTrade = worst
	return m
}
