// Package feed adapts the pump.fun new-token websocket stream into
// canonical token opportunities.
package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"solana-sniper-core/internal/domain"
	"solana-sniper-core/internal/solana"
)

// ErrMalformedEvent is returned for frames that cannot become an opportunity.
var ErrMalformedEvent = errors.New("malformed feed event")

// Sink receives normalized opportunities.
type Sink interface {
	Submit(op domain.TokenOpportunity) bool
}

// NewTokenEvent is one new-listing notification as sent by the feed.
type NewTokenEvent struct {
	Mint        string      `json:"mint"`
	Name        string      `json:"name"`
	Symbol      string      `json:"symbol"`
	PriceNative numericText `json:"priceNative"`
	PriceUsd    numericText `json:"priceUsd"`
	Liquidity   numericText `json:"liquidity"`
	CreatedAt   numericText `json:"createdAt"`
}

// numericText holds a numeric field that the feed may send either as a
// JSON string or as a bare number.
type numericText string

func (n *numericText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = numericText(s)
		return nil
	}
	*n = numericText(data)
	return nil
}

// Float parses the text, returning 0 when it is not a finite number.
func (n numericText) Float() float64 {
	v, err := strconv.ParseFloat(string(n), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// DecodeEvent parses one text frame.
func DecodeEvent(frame []byte) (NewTokenEvent, error) {
	var evt NewTokenEvent
	if err := json.Unmarshal(frame, &evt); err != nil {
		return NewTokenEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if evt.Mint == "" {
		return NewTokenEvent{}, fmt.Errorf("%w: missing mint", ErrMalformedEvent)
	}
	if err := solana.ValidateAddress(evt.Mint); err != nil {
		return NewTokenEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return evt, nil
}

// Normalize builds the canonical record for evt. Fields the feed does not
// carry take their zero value; receivedAt becomes CreatedAt.
func Normalize(evt NewTokenEvent, receivedAt time.Time) domain.TokenOpportunity {
	return domain.TokenOpportunity{
		Address:   evt.Mint,
		Symbol:    evt.Symbol,
		Name:      evt.Name,
		Price:     evt.PriceUsd.Float(),
		Liquidity: evt.Liquidity.Float(),
		CreatedAt: receivedAt,
		Source:    domain.SourcePumpFun,
	}
}
