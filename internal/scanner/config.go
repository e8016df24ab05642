package scanner

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"solana-sniper-core/internal/domain"
)

// ErrInvalidConfig is returned when Configure rejects a payload.
var ErrInvalidConfig = errors.New("invalid scanner config")

// Settings is the resolved scanner configuration.
type Settings struct {
	Sources        []string `json:"sources" mapstructure:"sources"`
	MinLiquidity   float64  `json:"min_liquidity" mapstructure:"min_liquidity"`
	MinHolders     uint32   `json:"min_holders" mapstructure:"min_holders"`
	MaxBuyTax      uint8    `json:"max_buy_tax" mapstructure:"max_buy_tax"`
	MaxSellTax     uint8    `json:"max_sell_tax" mapstructure:"max_sell_tax"`
	RequireLPLock  bool     `json:"require_lp_lock" mapstructure:"require_lp_lock"`
	MinScore       uint8    `json:"min_score" mapstructure:"min_score"`
	ScanIntervalMs uint32   `json:"scan_interval_ms" mapstructure:"scan_interval_ms"`
}

// DefaultSettings returns the stock scanner configuration.
func DefaultSettings() Settings {
	return Settings{
		Sources:        []string{domain.SourcePumpFun},
		MinLiquidity:   25.0,
		MinHolders:     50,
		MaxBuyTax:      10,
		MaxSellTax:     10,
		RequireLPLock:  true,
		MinScore:       75,
		ScanIntervalMs: 5000,
	}
}

// ScanInterval returns ScanIntervalMs as a duration.
func (s Settings) ScanInterval() time.Duration {
	return time.Duration(s.ScanIntervalMs) * time.Millisecond
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	s.Sources = slices.Clone(s.Sources)
	return s
}

// Overlay returns base with the scanner thresholds written over the matching fields.
func (s Settings) Overlay(base domain.FilterSettings) domain.FilterSettings {
	out := base.Clone()
	out.MinLiquidity = s.MinLiquidity
	out.MinHolders = s.MinHolders
	out.MaxBuyTax = s.MaxBuyTax
	out.MaxSellTax = s.MaxSellTax
	out.RequireLPLock = s.RequireLPLock
	out.MinScore = s.MinScore
	return out
}

// Validate checks the resolved configuration.
func (s Settings) Validate() error {
	if len(s.Sources) == 0 {
		return fmt.Errorf("%w: sources must not be empty", ErrInvalidConfig)
	}
	for _, src := range s.Sources {
		if !slices.Contains(supportedSources, src) {
			return fmt.Errorf("%w: unsupported source %q", ErrInvalidConfig, src)
		}
	}
	if math.IsNaN(s.MinLiquidity) || math.IsInf(s.MinLiquidity, 0) || s.MinLiquidity < 0 {
		return fmt.Errorf("%w: min_liquidity must be a finite value >= 0", ErrInvalidConfig)
	}
	if s.MaxBuyTax > 100 || s.MaxSellTax > 100 {
		return fmt.Errorf("%w: taxes must be <= 100", ErrInvalidConfig)
	}
	if s.MinScore > 100 {
		return fmt.Errorf("%w: min_score must be <= 100", ErrInvalidConfig)
	}
	if s.ScanIntervalMs < minScanIntervalMs {
		return fmt.Errorf("%w: scan_interval_ms must be >= %d", ErrInvalidConfig, minScanIntervalMs)
	}
	return nil
}

const minScanIntervalMs = 100

var supportedSources = []string{domain.SourcePumpFun}

// ScannerConfig is a partial update; nil fields keep their current value.
type ScannerConfig struct {
	Sources        *[]string `json:"sources,omitempty"`
	MinLiquidity   *float64  `json:"min_liquidity,omitempty"`
	MinHolders     *uint32   `json:"min_holders,omitempty"`
	MaxBuyTax      *uint8    `json:"max_buy_tax,omitempty"`
	MaxSellTax     *uint8    `json:"max_sell_tax,omitempty"`
	RequireLPLock  *bool     `json:"require_lp_lock,omitempty"`
	MinScore       *uint8    `json:"min_score,omitempty"`
	ScanIntervalMs *uint32   `json:"scan_interval_ms,omitempty"`
}

// Apply returns current with every non-nil field of c written over it.
func (c ScannerConfig) Apply(current Settings) Settings {
	next := current.Clone()
	if c.Sources != nil {
		next.Sources = slices.Clone(*c.Sources)
	}
	if c.MinLiquidity != nil {
		next.MinLiquidity = *c.MinLiquidity
	}
	if c.MinHolders != nil {
		next.MinHolders = *c.MinHolders
	}
	if c.MaxBuyTax != nil {
		next.MaxBuyTax = *c.MaxBuyTax
	}
	if c.MaxSellTax != nil {
		next.MaxSellTax = *c.MaxSellTax
	}
	if c.RequireLPLock != nil {
		next.RequireLPLock = *c.RequireLPLock
	}
	if c.MinScore != nil {
		next.MinScore = *c.MinScore
	}
	if c.ScanIntervalMs != nil {
		next.ScanIntervalMs = *c.ScanIntervalMs
	}
	return next
}

// AsConfig returns s as a full update, every field set.
func (s Settings) AsConfig() ScannerConfig {
	s = s.Clone()
	return ScannerConfig{
		Sources:        &s.Sources,
		MinLiquidity:   &s.MinLiquidity,
		MinHolders:     &s.MinHolders,
		MaxBuyTax:      &s.MaxBuyTax,
		MaxSellTax:     &s.MaxSellTax,
		RequireLPLock:  &s.RequireLPLock,
		MinScore:       &s.MinScore,
		ScanIntervalMs: &s.ScanIntervalMs,
	}
}
