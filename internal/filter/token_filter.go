package filter

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-sniper-core/internal/domain"
	"solana-sniper-core/internal/observability"
	"solana-sniper-core/internal/solana"
)

// ErrInvalidSettings is returned when a settings payload is rejected.
var ErrInvalidSettings = errors.New("invalid filter settings")

// ValidateSettings checks ranges and blacklist entry formats.
func ValidateSettings(s domain.FilterSettings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	for i, addr := range s.BlacklistedCreators {
		if err := solana.ValidateAddress(addr); err != nil {
			return fmt.Errorf("%w: blacklisted_creators[%d]: %v", ErrInvalidSettings, i, err)
		}
	}
	return nil
}

// Options configures a TokenFilter.
type Options struct {
	Logger *zap.Logger
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// TokenFilter holds the active policy and evaluates opportunities against it.
// Safe for concurrent use.
type TokenFilter struct {
	mu       sync.RWMutex
	settings domain.FilterSettings

	now    func() time.Time
	logger *zap.Logger
}

// NewTokenFilter creates a filter with the given initial settings.
func NewTokenFilter(settings domain.FilterSettings, opts Options) (*TokenFilter, error) {
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	f := &TokenFilter{
		settings: settings.Clone(),
		now:      opts.Clock,
		logger:   opts.Logger,
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	f.logger = f.logger.Named("filter")
	return f, nil
}

// UpdateSettings replaces the policy. On error the previous settings stay active.
func (f *TokenFilter) UpdateSettings(s domain.FilterSettings) error {
	if err := ValidateSettings(s); err != nil {
		return err
	}
	for _, addr := range s.BlacklistedCreators {
		if !solana.IsOnCurve(addr) {
			f.logger.Warn("blacklist entry is off curve, no wallet can own it",
				zap.String("address", addr))
		}
	}

	next := s.Clone()
	f.mu.Lock()
	f.settings = next
	f.mu.Unlock()

	f.logger.Info("filter settings updated",
		zap.Float64("min_liquidity", next.MinLiquidity),
		zap.Uint32("min_holders", next.MinHolders),
		zap.Uint8("min_score", next.MinScore),
		zap.Int("blacklisted", len(next.BlacklistedCreators)))
	return nil
}

// Settings returns a copy of the active policy.
func (f *TokenFilter) Settings() domain.FilterSettings {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.settings.Clone()
}

// Validate applies the hard filter with the active policy.
func (f *TokenFilter) Validate(op domain.TokenOpportunity) bool {
	pass := Validate(op, f.Settings(), f.now())
	observability.RecordFilterEvaluation(pass)
	return pass
}

// CalculateScore scores op with the active policy.
func (f *TokenFilter) CalculateScore(op domain.TokenOpportunity) uint8 {
	return CalculateScore(op, f.Settings(), f.now())
}

// Evaluate reports per-predicate results with the active policy.
func (f *TokenFilter) Evaluate(op domain.TokenOpportunity) Evaluation {
	ev := Evaluate(op, f.Settings(), f.now())
	observability.RecordFilterEvaluation(ev.Pass)
	return ev
}

// Score returns a copy of op with Score set from the active policy.
func (f *TokenFilter) Score(op domain.TokenOpportunity) domain.TokenOpportunity {
	out := op.Clone()
	out.Score = f.CalculateScore(op)
	return out
}

// ScoreAll scores every opportunity against one settings snapshot and one clock reading.
func (f *TokenFilter) ScoreAll(ops []domain.TokenOpportunity) []domain.TokenOpportunity {
	settings := f.Settings()
	now := f.now()
	out := make([]domain.TokenOpportunity, len(ops))
	for i, op := range ops {
		out[i] = op.Clone()
		out[i].Score = CalculateScore(op, settings, now)
	}
	return out
}
