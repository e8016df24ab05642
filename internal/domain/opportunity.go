package domain

import "time"

// OpportunityCapacity is the maximum number of opportunities kept by the store.
const OpportunityCapacity = 1000

// SourcePumpFun is the origin name stamped on records produced by the live feed.
const SourcePumpFun = "pump.fun"

// TokenOpportunity represents one discovered tradable asset.
// Address is immutable once created; Score is always within [0, 100].
type TokenOpportunity struct {
	Address   string     `json:"address"`
	Symbol    string     `json:"symbol"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	MarketCap float64    `json:"market_cap"`
	Volume24h float64    `json:"volume_24h"`
	Liquidity float64    `json:"liquidity"`
	Holders   uint32     `json:"holders"`
	CreatedAt time.Time  `json:"created_at"`
	LPLocked  bool       `json:"lp_locked"`
	LPLockEnd *time.Time `json:"lp_lock_end,omitempty"` // meaningful only when LPLocked
	BuyTax    uint8      `json:"buy_tax"`               // percent
	SellTax   uint8      `json:"sell_tax"`              // percent
	Score     uint8      `json:"score"`                 // last computed
	Source    string     `json:"source"`
}

// Clone returns a copy that shares no pointers with op.
func (op TokenOpportunity) Clone() TokenOpportunity {
	if op.LPLockEnd != nil {
		end := *op.LPLockEnd
		op.LPLockEnd = &end
	}
	return op
}
