package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// ComputeTradeLogID computes a deterministic trade log id using SHA256.
// Formula: SHA256(token_address|trade_type|timestamp_ns|tx_signature|amount_in|amount_out)
// Returns hex-encoded hash (64 characters).
func ComputeTradeLogID(
	tokenAddress string,
	tradeType string,
	timestampNs int64,
	txSignature string,
	amountIn float64,
	amountOut float64,
) string {
	data := fmt.Sprintf("%s|%s|%d|%s|%s|%s",
		tokenAddress,
		tradeType,
		timestampNs,
		txSignature,
		strconv.FormatFloat(amountIn, 'g', -1, 64),
		strconv.FormatFloat(amountOut, 'g', -1, 64),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
