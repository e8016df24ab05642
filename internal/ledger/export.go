package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"solana-sniper-core/internal/domain"
)

// TimestampLayout is the timestamp format used in exports.
const TimestampLayout = "2006-01-02 15:04:05"

var exportHeader = []string{
	"Date", "Token", "Type", "Amount In", "Amount Out", "Price",
	"Profit/Loss", "Profit/Loss %", "Time Held", "Tx Signature",
}

// WriteCSV writes the header and one row per trade in insertion order.
// Absent optional fields are written as empty cells.
func (l *Ledger) WriteCSV(w io.Writer) error {
	trades := l.TradeLogs()

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range trades {
		if err := cw.Write(l.exportRow(t)); err != nil {
			return fmt.Errorf("write trade %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV returns the export as a string. The output is byte-identical
// for the same ledger content.
func (l *Ledger) ExportCSV() (string, error) {
	var sb strings.Builder
	if err := l.WriteCSV(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (l *Ledger) exportRow(t domain.TradeLog) []string {
	return []string{
		t.Timestamp.In(l.loc).Format(TimestampLayout),
		t.TokenSymbol,
		t.TradeType.String(),
		formatFloat(t.AmountIn),
		formatFloat(t.AmountOut),
		formatFloat(t.Price),
		formatOptional(t.ProfitLoss),
		formatOptional(t.ProfitLossPercent),
		deref(t.TimeHeld),
		t.TxSignature,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
