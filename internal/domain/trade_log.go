package domain

import "time"

// TradeType distinguishes entries in the trade ledger.
type TradeType string

const (
	TradeTypeBuy  TradeType = "Buy"
	TradeTypeSell TradeType = "Sell"
)

// String returns the string representation of TradeType.
func (t TradeType) String() string {
	return string(t)
}

// IsValid checks if the trade type is a valid value.
func (t TradeType) IsValid() bool {
	return t == TradeTypeBuy || t == TradeTypeSell
}

// TradeLog represents one completed or attempted trade.
// Immutable once appended to the ledger.
type TradeLog struct {
	ID           string    `json:"id"`
	TokenAddress string    `json:"token_address"`
	TokenSymbol  string    `json:"token_symbol"`
	TokenName    string    `json:"token_name"`
	TradeType    TradeType `json:"trade_type"`
	AmountIn     float64   `json:"amount_in"`
	AmountOut    float64   `json:"amount_out"`
	Price        float64   `json:"price"`
	Timestamp    time.Time `json:"timestamp"`
	TxSignature  string    `json:"tx_signature"`

	// Sell only
	ProfitLoss        *float64 `json:"profit_loss,omitempty"`
	ProfitLossPercent *float64 `json:"profit_loss_percent,omitempty"`
	TimeHeld          *string  `json:"time_held,omitempty"`
}

// Clone returns a copy that shares no pointers with t.
func (t TradeLog) Clone() TradeLog {
	if t.ProfitLoss != nil {
		v := *t.ProfitLoss
		t.ProfitLoss = &v
	}
	if t.ProfitLossPercent != nil {
		v := *t.ProfitLossPercent
		t.ProfitLossPercent = &v
	}
	if t.TimeHeld != nil {
		v := *t.TimeHeld
		t.TimeHeld = &v
	}
	return t
}
