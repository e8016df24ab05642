// Package filter implements the hard risk filter and the 0-100 safety score
// for token opportunities. All functions are pure given an explicit now.
package filter

import (
	"fmt"
	"math"
	"time"

	"solana-sniper-core/internal/domain"
)

const (
	maxScore = 100
	day      = 24 * time.Hour
)

// Score deductions.
const (
	liquidityBelowMin   = 20
	liquidityBelowTwice = 10
	holdersBelowMin     = 15
	holdersBelowTwice   = 7
	taxCap              = 25.0
	taxFactor           = 2.5
	lpUnlocked          = 30
	lpUnder30Days       = 25
	lpUnder90Days       = 15
	lpUnder180Days      = 5
	tooYoung            = 10
)

// Criterion names, in evaluation order.
const (
	CriterionLiquidity = "liquidity"
	CriterionHolders   = "holders"
	CriterionTaxes     = "taxes"
	CriterionLPLock    = "lp_lock"
	CriterionAge       = "token_age"
	CriterionCreator   = "blacklist_and_score"
)

// CriterionResult is the outcome of one hard predicate.
type CriterionResult struct {
	Name      string `json:"name"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
	Pass      bool   `json:"pass"`
}

// Evaluation holds per-predicate results plus the computed score.
type Evaluation struct {
	Pass     bool              `json:"pass"`
	Score    uint8             `json:"score"`
	Criteria []CriterionResult `json:"criteria"`
}

// Failed returns the names of predicates that did not pass.
func (e Evaluation) Failed() []string {
	var names []string
	for _, c := range e.Criteria {
		if !c.Pass {
			names = append(names, c.Name)
		}
	}
	return names
}

// Validate reports whether op satisfies all six hard predicates.
// Predicate 6 compares the score already stored on op, not a fresh one.
func Validate(op domain.TokenOpportunity, s domain.FilterSettings, now time.Time) bool {
	return checkLiquidity(op, s) &&
		checkHolders(op, s) &&
		checkTaxes(op, s) &&
		checkLPLock(op, s, now) &&
		checkAge(op, s, now) &&
		checkCreatorAndScore(op, s)
}

// Evaluate runs every predicate and reports each result.
func Evaluate(op domain.TokenOpportunity, s domain.FilterSettings, now time.Time) Evaluation {
	lockActual := "unlocked"
	if op.LPLocked {
		lockActual = "locked, end unknown"
		if op.LPLockEnd != nil {
			lockActual = fmt.Sprintf("locked, %d days remaining", remainingDays(*op.LPLockEnd, now))
		}
	}
	lockThreshold := "not required"
	if s.RequireLPLock {
		lockThreshold = fmt.Sprintf("locked >= %d days", s.MinLPLockDays)
	}

	criteria := []CriterionResult{
		{
			Name:      CriterionLiquidity,
			Threshold: fmt.Sprintf(">= %g", s.MinLiquidity),
			Actual:    fmt.Sprintf("%g", op.Liquidity),
			Pass:      checkLiquidity(op, s),
		},
		{
			Name:      CriterionHolders,
			Threshold: fmt.Sprintf(">= %d", s.MinHolders),
			Actual:    fmt.Sprintf("%d", op.Holders),
			Pass:      checkHolders(op, s),
		},
		{
			Name:      CriterionTaxes,
			Threshold: fmt.Sprintf("buy <= %d%%, sell <= %d%%", s.MaxBuyTax, s.MaxSellTax),
			Actual:    fmt.Sprintf("buy %d%%, sell %d%%", op.BuyTax, op.SellTax),
			Pass:      checkTaxes(op, s),
		},
		{
			Name:      CriterionLPLock,
			Threshold: lockThreshold,
			Actual:    lockActual,
			Pass:      checkLPLock(op, s, now),
		},
		{
			Name:      CriterionAge,
			Threshold: fmt.Sprintf(">= %d minutes", s.MinTokenAgeMinutes),
			Actual:    fmt.Sprintf("%d minutes", ageMinutes(op.CreatedAt, now)),
			Pass:      checkAge(op, s, now),
		},
		{
			Name:      CriterionCreator,
			Threshold: fmt.Sprintf("not blacklisted, score >= %d", s.MinScore),
			Actual:    fmt.Sprintf("blacklisted=%t, score=%d", s.IsBlacklisted(op.Address), op.Score),
			Pass:      checkCreatorAndScore(op, s),
		},
	}

	pass := true
	for _, c := range criteria {
		if !c.Pass {
			pass = false
			break
		}
	}

	return Evaluation{
		Pass:     pass,
		Score:    CalculateScore(op, s, now),
		Criteria: criteria,
	}
}

// CalculateScore returns the safety score of op in [0, 100]; higher is safer.
// It starts at 100, subtracts the risk deductions, then clamps.
func CalculateScore(op domain.TokenOpportunity, s domain.FilterSettings, now time.Time) uint8 {
	score := maxScore

	switch {
	case op.Liquidity < s.MinLiquidity:
		score -= liquidityBelowMin
	case op.Liquidity < s.MinLiquidity*2:
		score -= liquidityBelowTwice
	}

	switch {
	case op.Holders < s.MinHolders:
		score -= holdersBelowMin
	case uint64(op.Holders) < 2*uint64(s.MinHolders):
		score -= holdersBelowTwice
	}

	score -= taxDeduction(op.BuyTax, op.SellTax)

	if !op.LPLocked {
		score -= lpUnlocked
	} else if op.LPLockEnd != nil {
		switch days := remainingDays(*op.LPLockEnd, now); {
		case days < 30:
			score -= lpUnder30Days
		case days < 90:
			score -= lpUnder90Days
		case days < 180:
			score -= lpUnder180Days
		}
	}

	if ageMinutes(op.CreatedAt, now) < int64(s.MinTokenAgeMinutes) {
		score -= tooYoung
	}

	return clamp(score)
}

func checkLiquidity(op domain.TokenOpportunity, s domain.FilterSettings) bool {
	return op.Liquidity >= s.MinLiquidity
}

func checkHolders(op domain.TokenOpportunity, s domain.FilterSettings) bool {
	return op.Holders >= s.MinHolders
}

func checkTaxes(op domain.TokenOpportunity, s domain.FilterSettings) bool {
	return op.BuyTax <= s.MaxBuyTax && op.SellTax <= s.MaxSellTax
}

func checkLPLock(op domain.TokenOpportunity, s domain.FilterSettings, now time.Time) bool {
	if !s.RequireLPLock {
		return true
	}
	if !op.LPLocked || op.LPLockEnd == nil {
		return false
	}
	return remainingDays(*op.LPLockEnd, now) >= int64(s.MinLPLockDays)
}

func checkAge(op domain.TokenOpportunity, s domain.FilterSettings, now time.Time) bool {
	return ageMinutes(op.CreatedAt, now) >= int64(s.MinTokenAgeMinutes)
}

func checkCreatorAndScore(op domain.TokenOpportunity, s domain.FilterSettings) bool {
	return !s.IsBlacklisted(op.Address) && op.Score >= s.MinScore
}

// taxDeduction is min(25, mean tax * 2.5), truncated.
func taxDeduction(buy, sell uint8) int {
	mean := float64(int(buy)+int(sell)) / 2
	return int(math.Min(taxCap, mean*taxFactor))
}

// remainingDays truncates toward zero; a lock that already expired is negative.
func remainingDays(end, now time.Time) int64 {
	return int64(end.Sub(now) / day)
}

// ageMinutes truncates toward zero; a created_at in the future is negative.
func ageMinutes(createdAt, now time.Time) int64 {
	return int64(now.Sub(createdAt) / time.Minute)
}

func clamp(score int) uint8 {
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return uint8(score)
}
