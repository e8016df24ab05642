package ledger

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper-core/internal/domain"
)

var day1 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func buy(token string, amountIn float64, ts time.Time, sig string) domain.TradeLog {
	return domain.TradeLog{
		TokenAddress: token,
		TokenSymbol:  "ABC",
		TradeType:    domain.TradeTypeBuy,
		AmountIn:     amountIn,
		Price:        1,
		Timestamp:    ts,
		TxSignature:  sig,
	}
}

func sell(token string, amountOut float64, pl *float64, ts time.Time, sig string) domain.TradeLog {
	return domain.TradeLog{
		TokenAddress: token,
		TokenSymbol:  "ABC",
		TradeType:    domain.TradeTypeSell,
		AmountOut:    amountOut,
		Price:        1,
		Timestamp:    ts,
		TxSignature:  sig,
		ProfitLoss:   pl,
	}
}

func TestLogTrade_AssignsDeterministicID(t *testing.T) {
	l1 := New(Options{})
	l2 := New(Options{})

	a, err := l1.LogTrade(buy("tok", 1, day1, "sig1"))
	require.NoError(t, err)
	b, err := l2.LogTrade(buy("tok", 1, day1, "sig1"))
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, a.ID, b.ID)

	explicit := buy("tok", 1, day1, "sig1")
	explicit.ID = "custom"
	c, err := l1.LogTrade(explicit)
	require.NoError(t, err)
	assert.Equal(t, "custom", c.ID)
}

func TestLogTrade_RejectsMalformed(t *testing.T) {
	l := New(Options{})

	cases := map[string]domain.TradeLog{
		"unknown type":   {TradeType: "Hold", Timestamp: day1},
		"zero timestamp": {TradeType: domain.TradeTypeBuy},
		"nan amount":     {TradeType: domain.TradeTypeBuy, Timestamp: day1, AmountIn: math.NaN()},
		"inf price":      {TradeType: domain.TradeTypeBuy, Timestamp: day1, Price: math.Inf(1)},
		"nan pl":         {TradeType: domain.TradeTypeSell, Timestamp: day1, ProfitLoss: ptr(math.NaN())},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := l.LogTrade(tc)
			assert.ErrorIs(t, err, ErrInvalidTrade)
		})
	}
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.DailyStats())
}

func TestDailyStats_BuyAndSellBuckets(t *testing.T) {
	l := New(Options{})

	_, _ = l.LogTrade(buy("tok", 0.1, day1, "b1"))
	_, _ = l.LogTrade(buy("tok", 0.2, day1, "b2"))
	_, _ = l.LogTrade(sell("tok", 0.5, ptr(0.2), day1, "s1"))
	_, _ = l.LogTrade(sell("tok", 0.1, ptr(-0.2), day1.Add(24*time.Hour), "s2"))

	stats := l.DailyStats()
	require.Len(t, stats, 2)

	assert.Equal(t, domain.DailyStats{
		Date:        "2025-03-10",
		TotalSpent:  0.3,
		TotalEarned: 0.5,
		ProfitLoss:  0.2,
		TradeCount:  3,
		WinCount:    1,
		LossCount:   0,
	}, stats[0])
	assert.Equal(t, "2025-03-11", stats[1].Date)
	assert.Equal(t, uint32(1), stats[1].LossCount)
	assert.InDelta(t, -0.2, stats[1].ProfitLoss, 1e-12)
}

func TestDailyStats_SellOnlyAdditivity(t *testing.T) {
	l := New(Options{})

	pls := []float64{1.5, -0.5, 0, 2, -3, 0.01}
	for i, pl := range pls {
		_, err := l.LogTrade(sell("tok", 1, ptr(pl), day1, fmt.Sprintf("s%d", i)))
		require.NoError(t, err)
	}

	stats := l.DailyStats()
	require.Len(t, stats, 1)
	assert.Equal(t, stats[0].TradeCount, stats[0].WinCount+stats[0].LossCount)
	assert.Equal(t, uint32(3), stats[0].WinCount)
	// Zero profit counts as a loss.
	assert.Equal(t, uint32(3), stats[0].LossCount)
}

func TestDailyStats_SellWithoutProfitLoss(t *testing.T) {
	l := New(Options{})

	_, err := l.LogTrade(sell("tok", 2, nil, day1, "s1"))
	require.NoError(t, err)

	stats := l.DailyStats()
	require.Len(t, stats, 1)
	assert.Equal(t, uint32(1), stats[0].TradeCount)
	assert.Equal(t, uint32(0), stats[0].WinCount)
	assert.Equal(t, uint32(0), stats[0].LossCount)
	assert.Equal(t, 2.0, stats[0].TotalEarned)
	assert.Equal(t, 0.0, stats[0].ProfitLoss)
}

func TestDailyStats_UsesLedgerLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	l := New(Options{Location: loc})

	// 22:30 UTC is already the next day at UTC+3.
	ts := time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC)
	_, err := l.LogTrade(buy("tok", 1, ts, "b1"))
	require.NoError(t, err)

	stats := l.DailyStats()
	require.Len(t, stats, 1)
	assert.Equal(t, "2025-03-11", stats[0].Date)
	assert.Equal(t, "2025-03-10", New(Options{}).DayKey(ts))
}

func TestLogTrade_DuplicatesDoubleCountByDefault(t *testing.T) {
	l := New(Options{})

	trade := buy("tok", 1, day1, "sig1")
	_, err := l.LogTrade(trade)
	require.NoError(t, err)
	_, err = l.LogTrade(trade)
	require.NoError(t, err)

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, uint32(2), l.DailyStats()[0].TradeCount)
}

func TestLogTrade_DedupBySignature(t *testing.T) {
	l := New(Options{DedupBySignature: true})

	_, err := l.LogTrade(buy("tok", 1, day1, "sig1"))
	require.NoError(t, err)
	_, err = l.LogTrade(buy("tok", 2, day1, "sig1"))
	assert.ErrorIs(t, err, ErrDuplicateTrade)

	// Empty signatures are never deduplicated.
	_, err = l.LogTrade(buy("tok", 1, day1, ""))
	require.NoError(t, err)
	_, err = l.LogTrade(buy("tok", 1, day1, ""))
	require.NoError(t, err)

	assert.Equal(t, 3, l.Len())
	assert.True(t, l.HasSignature("sig1"))
	assert.False(t, l.HasSignature(""))
}

func TestTokenLogs(t *testing.T) {
	l := New(Options{})

	_, _ = l.LogTrade(buy("a", 1, day1, "1"))
	_, _ = l.LogTrade(buy("b", 1, day1, "2"))
	_, _ = l.LogTrade(sell("a", 1, ptr(0.1), day1, "3"))

	logs := l.TokenLogs("a")
	require.Len(t, logs, 2)
	assert.Equal(t, "1", logs[0].TxSignature)
	assert.Equal(t, "3", logs[1].TxSignature)

	none := l.TokenLogs("missing")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestTradeLogs_ReturnsCopies(t *testing.T) {
	l := New(Options{})
	_, _ = l.LogTrade(sell("a", 1, ptr(0.5), day1, "1"))

	logs := l.TradeLogs()
	*logs[0].ProfitLoss = 100

	assert.Equal(t, 0.5, *l.TradeLogs()[0].ProfitLoss)
}

func TestClear(t *testing.T) {
	l := New(Options{DedupBySignature: true})
	_, _ = l.LogTrade(buy("a", 1, day1, "sig"))

	l.Clear()

	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.DailyStats())
	assert.Equal(t, domain.PerformanceMetrics{}, l.PerformanceMetrics())

	_, err := l.LogTrade(buy("a", 1, day1, "sig"))
	assert.NoError(t, err, "signature set must be cleared too")
}

func TestLoad(t *testing.T) {
	l := New(Options{})
	_, _ = l.LogTrade(buy("old", 1, day1, "old"))

	err := l.Load([]domain.TradeLog{
		buy("a", 1, day1, "1"),
		sell("a", 2, ptr(1.0), day1, "2"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, l.Len())
	assert.Empty(t, l.TokenLogs("old"))
	assert.Equal(t, uint32(2), l.DailyStats()[0].TradeCount)
}

func TestLoad_FailureLeavesLedgerUnchanged(t *testing.T) {
	l := New(Options{})
	_, _ = l.LogTrade(buy("keep", 1, day1, "keep"))

	err := l.Load([]domain.TradeLog{
		buy("a", 1, day1, "1"),
		{TradeType: "bogus", Timestamp: day1},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTrade))

	assert.Equal(t, 1, l.Len())
	assert.Len(t, l.TokenLogs("keep"), 1)
}

func TestLoad_DuplicateSignatureWithDedup(t *testing.T) {
	l := New(Options{DedupBySignature: true})

	err := l.Load([]domain.TradeLog{
		buy("a", 1, day1, "same"),
		buy("a", 2, day1, "same"),
	})
	assert.ErrorIs(t, err, ErrDuplicateTrade)
	assert.Equal(t, 0, l.Len())
}

func TestLedger_ConcurrentLogTrade(t *testing.T) {
	l := New(Options{})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = l.LogTrade(buy("tok", 1, day1, fmt.Sprintf("b%d", i)))
			} else {
				_, _ = l.LogTrade(sell("tok", 1, ptr(1.0), day1, fmt.Sprintf("s%d", i)))
			}
			_ = l.DailyStats()
			_ = l.PerformanceMetrics()
		}(i)
	}
	wg.Wait()

	stats := l.DailyStats()
	require.Len(t, stats, 1)
	assert.Equal(t, uint32(100), stats[0].TradeCount)
	assert.Equal(t, uint32(50), stats[0].WinCount)
	assert.Equal(t, 50.0, stats[0].TotalSpent)
	assert.Equal(t, 50.0, stats[0].TotalEarned)
}
