package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/walkforward/internal/adapters/storage"
	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func makeSummary(id, strategy string, createdAt time.Time) domain.BacktestSummary {
	return domain.BacktestSummary{
		ID:            id,
		Strategy:      strategy,
		PairFilter:    "BTC/USD",
		HorizonHours:  4,
		TotalTrades:   2,
		CorrectTrades: 1,
		Accuracy:      ptr(50),
		MaxDrawdown:   1.25,
		ProfitFactor:  2.5,
		MaxWinStreak:  1,
		MaxLossStreak: 1,
		Calibration: []domain.CalibrationBin{
			{Label: "0-40%", Min: 0, Max: 0.4},
			{Label: "40-60%", Min: 0.4, Max: 0.6, Total: 2, Correct: 1, Accuracy: ptr(50)},
		},
		Diagnostics: domain.Diagnostics{Evaluated: 10, Signaled: 3, NullStrategy: 7, NoFutureData: 1, SkippedSparse: 2, SkippedDuplicate: 1},
		CreatedAt:   createdAt,
	}
}

func makeTrades() []domain.Trade {
	return []domain.Trade{
		{Time: 1000, Timestamp: "a", FutureTime: 5000, EntryPrice: 100, FuturePrice: 102,
			Direction: domain.DirectionUp, Threshold: 101, Confidence: 0.5, Correct: true, PctChange: 2, Strategy: "momentum"},
		{Time: 2000, Timestamp: "b", FutureTime: 6000, EntryPrice: 102, FuturePrice: 103,
			Direction: domain.DirectionDown, Threshold: 102, Confidence: 0.55, Correct: false, PctChange: 0.98, Strategy: "momentum"},
	}
}

func TestSQLiteStorage_SaveAndList(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, db.SaveBacktest(ctx, makeSummary("bt-1", "momentum", now.Add(-time.Minute)), makeTrades()))
	require.NoError(t, db.SaveBacktest(ctx, makeSummary("bt-2", "mean_reversion", now), nil))

	all, err := db.ListBacktests(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	// Más recientes primero
	assert.Equal(t, "bt-2", all[0].ID)
	assert.Equal(t, "bt-1", all[1].ID)

	got := all[1]
	assert.Equal(t, "momentum", got.Strategy)
	assert.Equal(t, "BTC/USD", got.PairFilter)
	assert.Equal(t, 4.0, got.HorizonHours)
	require.NotNil(t, got.Accuracy)
	assert.Equal(t, 50.0, *got.Accuracy)
	assert.Nil(t, got.Sharpe)
	assert.Equal(t, 10, got.Diagnostics.Evaluated)
	assert.Equal(t, 1, got.Diagnostics.NoFutureData)
	assert.Equal(t, 2, got.Diagnostics.SkippedSparse)
	assert.Equal(t, 1, got.Diagnostics.SkippedDuplicate)
	assert.True(t, now.Add(-time.Minute).Equal(got.CreatedAt))
	require.Len(t, got.Calibration, 2)
	assert.Equal(t, 2, got.Calibration[1].Total)
	assert.Nil(t, got.Calibration[0].Accuracy)

	filtered, err := db.ListBacktests(ctx, "momentum")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "bt-1", filtered[0].ID)
}

func TestSQLiteStorage_TradesRoundTrip(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	trades := makeTrades()
	require.NoError(t, db.SaveBacktest(ctx, makeSummary("bt-1", "momentum", time.Now()), trades))

	got, err := db.GetBacktestTrades(ctx, "bt-1")
	require.NoError(t, err)
	assert.Equal(t, trades, got)

	none, err := db.GetBacktestTrades(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStorage_DuplicateIDRollsBack(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SaveBacktest(ctx, makeSummary("bt-1", "momentum", time.Now()), makeTrades()))
	require.Error(t, db.SaveBacktest(ctx, makeSummary("bt-1", "momentum", time.Now()), makeTrades()))

	got, err := db.GetBacktestTrades(ctx, "bt-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLiteStorage_ListEmpty(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	all, err := db.ListBacktests(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}
