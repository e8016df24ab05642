package domain

// DailyStats is the rollup of ledger activity for one calendar day.
// Date is formatted as YYYY-MM-DD.
type DailyStats struct {
	Date        string  `json:"date"`
	TotalSpent  float64 `json:"total_spent"`
	TotalEarned float64 `json:"total_earned"`
	ProfitLoss  float64 `json:"profit_loss"`
	TradeCount  uint32  `json:"trade_count"`
	WinCount    uint32  `json:"win_count"`
	LossCount   uint32  `json:"loss_count"`
}

// PerformanceMetrics is derived from the full trade ledger on demand.
// Not persisted.
type PerformanceMetrics struct {
	TotalTrades uint32  `json:"total_trades"`
	WinTrades   uint32  `json:"win_trades"`
	LossTrades  uint32  `json:"loss_trades"`
	WinRate     float64 `json:"win_rate"` // percent
	TotalProfit float64 `json:"total_profit"`
	AvgProfit   float64 `json:"avg_profit"`
	BestTrade   float64 `json:"best_trade"`
	WorstTrade  float64 `json:"worst_trade"`
}
