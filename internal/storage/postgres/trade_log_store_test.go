package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper-core/internal/domain"
	"solana-sniper-core/internal/storage"
)

func createTestTradeLog(id, token string, tradeType domain.TradeType) *domain.TradeLog {
	t := &domain.TradeLog{
		ID:           id,
		TokenAddress: token,
		TokenSymbol:  "ABC",
		TokenName:    "Alpha Coin",
		TradeType:    tradeType,
		AmountIn:     1.5,
		AmountOut:    1500,
		Price:        0.001,
		Timestamp:    time.Date(2025, 4, 1, 12, 30, 0, 0, time.UTC),
		TxSignature:  "sig-" + id,
	}
	if tradeType == domain.TradeTypeSell {
		t.ProfitLoss = ptr(0.25)
		t.ProfitLossPercent = ptr(16.6)
		t.TimeHeld = ptr("3m 10s")
	}
	return t
}

func TestTradeLogStore_InsertAndGetByID(t *testing.T) {
	pool := newTestPool(t)

	ctx := context.Background()
	store := NewTradeLogStore(pool)

	trade := createTestTradeLog("trade-001", "token-a", domain.TradeTypeSell)
	require.NoError(t, store.Insert(ctx, trade))

	got, err := store.GetByID(ctx, "trade-001")
	require.NoError(t, err)

	assert.Equal(t, trade.TokenAddress, got.TokenAddress)
	assert.Equal(t, trade.TokenSymbol, got.TokenSymbol)
	assert.Equal(t, trade.TokenName, got.TokenName)
	assert.Equal(t, domain.TradeTypeSell, got.TradeType)
	assert.InDelta(t, trade.AmountIn, got.AmountIn, 1e-9)
	assert.InDelta(t, trade.AmountOut, got.AmountOut, 1e-9)
	assert.InDelta(t, trade.Price, got.Price, 1e-12)
	assert.True(t, trade.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, trade.TxSignature, got.TxSignature)
	require.NotNil(t, got.ProfitLoss)
	assert.InDelta(t, 0.25, *got.ProfitLoss, 1e-9)
	require.NotNil(t, got.TimeHeld)
	assert.Equal(t, "3m 10s", *got.TimeHeld)
}

func TestTradeLogStore_BuyHasNullOptionals(t *testing.T) {
	pool := newTestPool(t)

	ctx := context.Background()
	store := NewTradeLogStore(pool)

	require.NoError(t, store.Insert(ctx, createTestTradeLog("buy-1", "token-a", domain.TradeTypeBuy)))

	got, err := store.GetByID(ctx, "buy-1")
	require.NoError(t, err)
	assert.Nil(t, got.ProfitLoss)
	assert.Nil(t, got.ProfitLossPercent)
	assert.Nil(t, got.TimeHeld)
}

func TestTradeLogStore_DuplicateKey(t *testing.T) {
	pool := newTestPool(t)

	ctx := context.Background()
	store := NewTradeLogStore(pool)

	require.NoError(t, store.Insert(ctx, createTestTradeLog("dup", "token-a", domain.TradeTypeBuy)))
	err := store.Insert(ctx, createTestTradeLog("dup", "token-b", domain.TradeTypeBuy))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeLogStore_NotFound(t *testing.T) {
	pool := newTestPool(t)

	_, err := NewTradeLogStore(pool).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeLogStore_OrderingAndDelete(t *testing.T) {
	pool := newTestPool(t)

	ctx := context.Background()
	store := NewTradeLogStore(pool)

	// Insertion order, not id or timestamp order.
	ids := []string{"z", "a", "m"}
	for i, id := range ids {
		trade := createTestTradeLog(id, "token-a", domain.TradeTypeBuy)
		trade.Timestamp = trade.Timestamp.Add(-time.Duration(i) * time.Hour)
		require.NoError(t, store.Insert(ctx, trade))
	}
	require.NoError(t, store.Insert(ctx, createTestTradeLog("other", "token-b", domain.TradeTypeBuy)))

	byToken, err := store.GetByToken(ctx, "token-a")
	require.NoError(t, err)
	require.Len(t, byToken, 3)
	for i, id := range ids {
		assert.Equal(t, id, byToken[i].ID)
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "other", all[3].ID)

	require.NoError(t, store.DeleteAll(ctx))
	all, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
