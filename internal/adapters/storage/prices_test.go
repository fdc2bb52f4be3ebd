package storage_test

import (
	"context"
	"testing"

	"github.com/alejandrodnm/walkforward/internal/adapters/storage"
	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStorage_PricesRoundTrip(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	prices := []domain.RawPrice{
		{Timestamp: "2025-03-01T00:10:00Z", Price: 101, Oracle: "pyth"},
		{Timestamp: "2025-03-01T00:05:00Z", Price: 100.5, Oracle: "pyth"},
		{Timestamp: "garbage", Price: 100, Oracle: ""},
	}
	require.NoError(t, db.SavePrices(ctx, "BTC/USD", prices))
	require.NoError(t, db.SavePrices(ctx, "ETH/USD", prices[:1]))

	got, err := db.FetchHistory(ctx, "BTC/USD", 0)
	require.NoError(t, err)
	assert.Equal(t, prices, got, "se conserva el orden newest-first y los registros inválidos")

	limited, err := db.FetchHistory(ctx, "BTC/USD", 2)
	require.NoError(t, err)
	assert.Equal(t, prices[:2], limited)

	pairs, err := db.ListPairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC/USD", "ETH/USD"}, pairs)
}

func TestSQLiteStorage_SavePricesReplaces(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SavePrices(ctx, "BTC/USD", []domain.RawPrice{{Timestamp: "1", Price: 1}, {Timestamp: "2", Price: 2}}))
	require.NoError(t, db.SavePrices(ctx, "BTC/USD", []domain.RawPrice{{Timestamp: "3", Price: 3}}))

	got, err := db.FetchHistory(ctx, "BTC/USD", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, got[0].Price)
}

func TestSQLiteStorage_FetchUnknownPair(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	got, err := db.FetchHistory(context.Background(), "DOGE/USD", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
