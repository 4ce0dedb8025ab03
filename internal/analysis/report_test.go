package analysis

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dayStart = int64(1704153600) // 2024-01-02 00:00 UTC

func tradeOnDay(id, dayOffset int, netPL float64) ClosedTrade {
	return ClosedTrade{
		TradeID:   id,
		Symbol:    "SPY",
		Direction: "BUY",
		ExitTS:    dayStart + int64(dayOffset)*86400 + 3600,
		GrossPL:   netPL + 0.0937,
		NetPL:     netPL,
	}
}

func TestAnalyzeNoTrades(t *testing.T) {
	rep := Analyze(nil, 100000, 100000, 0.02)
	assert.Equal(t, 0, rep.TotalTrades)
	assert.Equal(t, 0.0, rep.TotalReturnPct)
	assert.False(t, rep.HasSharpe)
	assert.Contains(t, rep.Render(), "没有已平仓交易")
}

func TestAnalyzeBasicMetrics(t *testing.T) {
	trades := []ClosedTrade{
		tradeOnDay(1, 0, 100),
		tradeOnDay(2, 1, -50),
		tradeOnDay(3, 2, 80),
	}
	rep := Analyze(trades, 100000, 100130, 0.02)
	assert.Equal(t, 3, rep.TotalTrades)
	assert.Equal(t, 2, rep.Wins)
	assert.Equal(t, 1, rep.Losses)
	assert.InDelta(t, 66.6667, rep.WinRatePct, 1e-3)
	assert.InDelta(t, 130.0, rep.TotalNetPL, 1e-9)
	assert.InDelta(t, 180.0/50.0, rep.ProfitFactor, 1e-9)
	assert.InDelta(t, 0.13, rep.TotalReturnPct, 1e-9)
}

func TestAnalyzeRiskAdjustedRatios(t *testing.T) {
	// 三个交易日的日收益 0.001 / -0.0005 / 0.0008
	trades := []ClosedTrade{
		tradeOnDay(1, 0, 100),
		tradeOnDay(2, 1, -50),
		tradeOnDay(3, 2, 80),
	}
	rep := Analyze(trades, 100000, 100130, 0.02)
	require.True(t, rep.HasSharpe)
	require.True(t, rep.HasSortino)
	assert.InDelta(t, 6.89919901992507, rep.SharpeRatio, 1e-9)
	assert.InDelta(t, 9.698671929327183, rep.SortinoRatio, 1e-9)
}

func TestAnalyzeSameDayTradesAggregate(t *testing.T) {
	// 同一天的两笔合并成一个日收益样本，样本不足时不出比率
	trades := []ClosedTrade{
		tradeOnDay(1, 0, 100),
		tradeOnDay(2, 0, -30),
	}
	rep := Analyze(trades, 100000, 100070, 0.02)
	assert.False(t, rep.HasSharpe)
	assert.False(t, rep.HasSortino)
}

func TestAnalyzeAllWinsProfitFactorInf(t *testing.T) {
	trades := []ClosedTrade{tradeOnDay(1, 0, 100), tradeOnDay(2, 1, 50)}
	rep := Analyze(trades, 100000, 100150, 0.02)
	assert.True(t, math.IsInf(rep.ProfitFactor, 1))
	assert.Contains(t, rep.Render(), "inf")
}

func TestLoadTradesMissingFile(t *testing.T) {
	_, err := LoadTrades(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLoadTradesParsesClosedRows(t *testing.T) {
	csv := strings.Join([]string{
		"Trade_ID,Symbol,Direction,Status,Signal_Timestamp,Entry_Execution_Timestamp,Underlying_Price_at_Signal,Underlying_Price_at_Entry,Option_Type,Strike_Price,Barrier_Price,Expiry_Days,Entry_Price,Entry_Fees,Execution_Timestamp,Underlying_Price_at_Exit,Exit_Price,Exit_Fees,Gross_PL,Net_PL",
		"1,SPY,BUY,CLOSED,400,1000,99,99.2,DOWN_AND_OUT_CALL,100,98,2,0.21,0.04685,2000,100.1,0.35,0.04685,0.14,0.0463",
		"2,SPY,SELL,CLOSED,500,1100,101,100.8,UP_AND_OUT_PUT,100,102,2,0.18,0.04685,2100,99.9,0.1,0.04685,-0.08,-0.1737",
	}, "\n") + "\n"
	path := filepath.Join(t.TempDir(), "trade_log.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	trades, err := LoadTrades(path)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, 1, trades[0].TradeID)
	assert.Equal(t, "SPY", trades[0].Symbol)
	assert.Equal(t, int64(2000), trades[0].ExitTS)
	assert.InDelta(t, 0.0463, trades[0].NetPL, 1e-12)
	assert.InDelta(t, -0.1737, trades[1].NetPL, 1e-12)
}

func TestLoadTradesMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("Trade_ID,Symbol\n1,SPY\n"), 0o644))
	_, err := LoadTrades(path)
	assert.Error(t, err)
}

func TestWriteCharts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "report.html")
	equity := []EquityPoint{{TS: 1000, Equity: 100000}, {TS: 1060, Equity: 100010}}
	trades := []ClosedTrade{tradeOnDay(1, 0, 100), tradeOnDay(2, 1, -50)}
	require.NoError(t, WriteCharts(path, equity, trades))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Equity Curve")
	assert.Contains(t, string(data), "Net PL per Trade")
}
