package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knockout/internal/store/model"
)

func newTestStore(t *testing.T) *TradeStore {
	t.Helper()
	s, err := NewTradeStore(filepath.Join(t.TempDir(), "trades.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTrade(runID string, tradeID int, netPL float64) *model.TradeModel {
	return &model.TradeModel{
		RunID:      runID,
		TradeID:    tradeID,
		Symbol:     "SPY",
		Direction:  "BUY",
		Status:     "CLOSED",
		OptionType: "DOWN_AND_OUT_CALL",
		Strike:     100,
		Barrier:    98,
		ExpiryDays: 2,
		EntryPrice: 0.21,
		ExitPrice:  0.35,
		GrossPL:    0.14,
		NetPL:      netPL,
	}
}

func TestInsertAndListByRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, sampleTrade("run-a", 1, 0.05)))
	require.NoError(t, s.Insert(ctx, sampleTrade("run-a", 2, -0.02)))
	require.NoError(t, s.Insert(ctx, sampleTrade("run-b", 1, 0.10)))

	trades, err := s.ListByRun(ctx, "run-a", 0)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, 1, trades[0].TradeID)
	assert.Equal(t, 2, trades[1].TradeID)
	assert.Equal(t, "SPY", trades[0].Symbol)
	assert.InDelta(t, 0.05, trades[0].NetPL, 1e-12)

	count, err := s.CountByRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestListByRunEmpty(t *testing.T) {
	s := newTestStore(t)
	trades, err := s.ListByRun(context.Background(), "nope", 10)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestInsertNil(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.Insert(context.Background(), nil))
}
