package domain

import (
	"fmt"
	"math"
	"slices"
)

// FilterSettings is the risk policy an opportunity is evaluated against.
// Callers own it; evaluation never mutates it.
type FilterSettings struct {
	MinLiquidity        float64  `json:"min_liquidity" mapstructure:"min_liquidity"`
	MinHolders          uint32   `json:"min_holders" mapstructure:"min_holders"`
	MaxBuyTax           uint8    `json:"max_buy_tax" mapstructure:"max_buy_tax"`
	MaxSellTax          uint8    `json:"max_sell_tax" mapstructure:"max_sell_tax"`
	RequireLPLock       bool     `json:"require_lp_lock" mapstructure:"require_lp_lock"`
	MinLPLockDays       uint32   `json:"min_lp_lock_days" mapstructure:"min_lp_lock_days"`
	MinTokenAgeMinutes  uint32   `json:"min_token_age_minutes" mapstructure:"min_token_age_minutes"`
	MaxSimilarTokens    uint8    `json:"max_similar_tokens" mapstructure:"max_similar_tokens"`
	BlacklistedCreators []string `json:"blacklisted_creators" mapstructure:"blacklisted_creators"`
	MinScore            uint8    `json:"min_score" mapstructure:"min_score"`
}

// DefaultFilterSettings returns the stock policy.
func DefaultFilterSettings() FilterSettings {
	return FilterSettings{
		MinLiquidity:        25.0,
		MinHolders:          50,
		MaxBuyTax:           10,
		MaxSellTax:          10,
		RequireLPLock:       true,
		MinLPLockDays:       30,
		MinTokenAgeMinutes:  3,
		MaxSimilarTokens:    3,
		BlacklistedCreators: []string{},
		MinScore:            75,
	}
}

// Clone returns a deep copy.
func (s FilterSettings) Clone() FilterSettings {
	s.BlacklistedCreators = slices.Clone(s.BlacklistedCreators)
	if s.BlacklistedCreators == nil {
		s.BlacklistedCreators = []string{}
	}
	return s
}

// IsBlacklisted reports whether address appears in BlacklistedCreators.
func (s FilterSettings) IsBlacklisted(address string) bool {
	return slices.Contains(s.BlacklistedCreators, address)
}

// Validate checks value ranges. Address format of blacklist entries is
// checked by the filter package, which owns the Solana key rules.
func (s FilterSettings) Validate() error {
	if math.IsNaN(s.MinLiquidity) || math.IsInf(s.MinLiquidity, 0) {
		return fmt.Errorf("min_liquidity must be finite")
	}
	if s.MinLiquidity < 0 {
		return fmt.Errorf("min_liquidity must be >= 0, got %v", s.MinLiquidity)
	}
	if s.MaxBuyTax > 100 {
		return fmt.Errorf("max_buy_tax must be <= 100, got %d", s.MaxBuyTax)
	}
	if s.MaxSellTax > 100 {
		return fmt.Errorf("max_sell_tax must be <= 100, got %d", s.MaxSellTax)
	}
	if s.MinScore > 100 {
		return fmt.Errorf("min_score must be <= 100, got %d", s.MinScore)
	}
	return nil
}
