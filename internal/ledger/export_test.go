package ledger

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper-core/internal/domain"
)

const header = "Date,Token,Type,Amount In,Amount Out,Price,Profit/Loss,Profit/Loss %,Time Held,Tx Signature\n"

func TestExportCSV_Empty(t *testing.T) {
	out, err := New(Options{}).ExportCSV()
	require.NoError(t, err)
	assert.Equal(t, header, out)
}

func TestExportCSV_BuyRow(t *testing.T) {
	l := New(Options{})
	_, err := l.LogTrade(domain.TradeLog{
		TokenAddress: "tok",
		TokenSymbol:  "ABC",
		TradeType:    domain.TradeTypeBuy,
		AmountIn:     1,
		AmountOut:    0,
		Price:        2,
		Timestamp:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		TxSignature:  "sig1",
	})
	require.NoError(t, err)

	out, err := l.ExportCSV()
	require.NoError(t, err)
	assert.Equal(t, header+"2025-01-02 03:04:05,ABC,Buy,1,0,2,,,,sig1\n", out)
}

func TestExportCSV_SellRowWithOptionals(t *testing.T) {
	l := New(Options{})
	_, err := l.LogTrade(domain.TradeLog{
		TokenSymbol:       "XYZ",
		TradeType:         domain.TradeTypeSell,
		AmountIn:          1000,
		AmountOut:         0.75,
		Price:             0.00075,
		Timestamp:         time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		TxSignature:       "sig2",
		ProfitLoss:        ptr(-0.25),
		ProfitLossPercent: ptr(-25.0),
		TimeHeld:          ptr("5m 12s"),
	})
	require.NoError(t, err)

	out, err := l.ExportCSV()
	require.NoError(t, err)
	assert.Equal(t, header+"2025-01-02 03:04:05,XYZ,Sell,1000,0.75,0.00075,-0.25,-25,5m 12s,sig2\n", out)
}

func TestExportCSV_QuotesSpecialCharacters(t *testing.T) {
	l := New(Options{})
	_, err := l.LogTrade(domain.TradeLog{
		TokenSymbol: "A,B",
		TradeType:   domain.TradeTypeBuy,
		Timestamp:   day1,
	})
	require.NoError(t, err)

	out, err := l.ExportCSV()
	require.NoError(t, err)
	assert.Contains(t, out, `,"A,B",Buy,`)
}

func TestExportCSV_Deterministic(t *testing.T) {
	l := New(Options{})
	for i := 0; i < 5; i++ {
		_, _ = l.LogTrade(sell("tok", float64(i), ptr(float64(i)-2), day1.Add(time.Duration(i)*time.Minute), "s"))
	}

	first, err := l.ExportCSV()
	require.NoError(t, err)
	second, err := l.ExportCSV()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 6, strings.Count(first, "\n"))
}

func TestExportCSV_UsesLedgerLocation(t *testing.T) {
	l := New(Options{Location: time.FixedZone("UTC-5", -5*60*60)})
	_, err := l.LogTrade(buy("tok", 1, time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC), "sig"))
	require.NoError(t, err)

	out, err := l.ExportCSV()
	require.NoError(t, err)
	assert.Contains(t, out, "\n2025-01-01 22:00:00,ABC,Buy,")
}
