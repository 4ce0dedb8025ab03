package analysis

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"knockout/internal/logger"
)

const tradingDaysPerYear = 252.0

// ClosedTrade 是从交易日志 CSV 还原出的一条已平仓记录。
type ClosedTrade struct {
	TradeID   int
	Symbol    string
	Direction string
	ExitTS    int64
	GrossPL   float64
	NetPL     float64
}

// Report 汇总一次回测的绩效指标。
type Report struct {
	StartingCapital float64
	EndingCapital   float64
	TotalReturnPct  float64
	TotalTrades     int
	Wins            int
	Losses          int
	WinRatePct      float64
	GrossProfit     float64
	GrossLoss       float64
	ProfitFactor    float64
	TotalNetPL      float64
	SharpeRatio     float64
	SortinoRatio    float64
	HasSharpe       bool
	HasSortino      bool
}

// LoadTrades 解析交易日志 CSV，只保留已平仓的行。
// 文件不存在视为"没有可分析的数据"，返回错误由调用方决定是否致命。
func LoadTrades(path string) ([]ClosedTrade, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("trade log %s not found: %w", path, err)
		}
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read trade log: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("trade log %s is empty", path)
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	required := []string{"Trade_ID", "Symbol", "Direction", "Status", "Execution_Timestamp", "Gross_PL", "Net_PL"}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("trade log missing column %s", name)
		}
	}

	trades := make([]ClosedTrade, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < len(rows[0]) {
			continue
		}
		if !strings.EqualFold(row[col["Status"]], "CLOSED") {
			continue
		}
		id, _ := strconv.Atoi(row[col["Trade_ID"]])
		exitTS, _ := strconv.ParseInt(row[col["Execution_Timestamp"]], 10, 64)
		grossPL, _ := strconv.ParseFloat(row[col["Gross_PL"]], 64)
		netPL, _ := strconv.ParseFloat(row[col["Net_PL"]], 64)
		trades = append(trades, ClosedTrade{
			TradeID:   id,
			Symbol:    row[col["Symbol"]],
			Direction: row[col["Direction"]],
			ExitTS:    exitTS,
			GrossPL:   grossPL,
			NetPL:     netPL,
		})
	}
	return trades, nil
}

// Analyze 从已平仓交易计算绩效报告。
// 没有成交时返回只含资金信息的缩减报告。
func Analyze(trades []ClosedTrade, startingCapital, endingCapital, riskFreeRate float64) Report {
	rep := Report{
		StartingCapital: startingCapital,
		EndingCapital:   endingCapital,
	}
	if startingCapital > 0 {
		rep.TotalReturnPct = (endingCapital - startingCapital) / startingCapital * 100
	}
	if len(trades) == 0 {
		return rep
	}

	rep.TotalTrades = len(trades)
	for _, t := range trades {
		rep.TotalNetPL += t.NetPL
		if t.NetPL > 0 {
			rep.Wins++
			rep.GrossProfit += t.NetPL
		} else {
			rep.Losses++
			rep.GrossLoss += math.Abs(t.NetPL)
		}
	}
	rep.WinRatePct = float64(rep.Wins) / float64(rep.TotalTrades) * 100
	if rep.GrossLoss > 0 {
		rep.ProfitFactor = rep.GrossProfit / rep.GrossLoss
	} else if rep.GrossProfit > 0 {
		rep.ProfitFactor = math.Inf(1)
	}

	daily := dailyReturns(trades, startingCapital)
	if len(daily) >= 2 {
		rfDaily := riskFreeRate / tradingDaysPerYear
		mean := meanOf(daily)
		std := stdOf(daily, mean)
		if std > 0 {
			rep.SharpeRatio = (mean - rfDaily) / std * math.Sqrt(tradingDaysPerYear)
			rep.HasSharpe = true
		}
		downside := downsideStd(daily, rfDaily)
		if downside > 0 {
			rep.SortinoRatio = (mean - rfDaily) / downside * math.Sqrt(tradingDaysPerYear)
			rep.HasSortino = true
		}
	}
	return rep
}

// dailyReturns 按平仓日聚合 Net_PL，再除以起始资金得到日收益序列。
func dailyReturns(trades []ClosedTrade, startingCapital float64) []float64 {
	if startingCapital <= 0 {
		return nil
	}
	byDay := make(map[string]float64)
	for _, t := range trades {
		day := time.Unix(t.ExitTS, 0).UTC().Format("2006-01-02")
		byDay[day] += t.NetPL
	}
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	returns := make([]float64, 0, len(days))
	for _, day := range days {
		returns = append(returns, byDay[day]/startingCapital)
	}
	return returns
}

func meanOf(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdOf(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func downsideStd(xs []float64, target float64) float64 {
	var ss float64
	var n int
	for _, x := range xs {
		if x < target {
			d := x - target
			ss += d * d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(ss / float64(n))
}

// Render 把报告格式化成多行文本，供日志整体输出。
func (r Report) Render() string {
	var b strings.Builder
	line := strings.Repeat("=", 48)
	fmt.Fprintf(&b, "%s\n", line)
	fmt.Fprintf(&b, "回测绩效报告\n")
	fmt.Fprintf(&b, "%s\n", line)
	fmt.Fprintf(&b, "起始资金:     %.2f\n", r.StartingCapital)
	fmt.Fprintf(&b, "期末资金:     %.2f\n", r.EndingCapital)
	fmt.Fprintf(&b, "总收益率:     %.2f%%\n", r.TotalReturnPct)
	if r.TotalTrades == 0 {
		fmt.Fprintf(&b, "本次回测没有已平仓交易，跳过交易级指标\n")
		fmt.Fprintf(&b, "%s", line)
		return b.String()
	}
	fmt.Fprintf(&b, "已平仓交易:   %d (胜 %d / 负 %d)\n", r.TotalTrades, r.Wins, r.Losses)
	fmt.Fprintf(&b, "胜率:         %.2f%%\n", r.WinRatePct)
	fmt.Fprintf(&b, "净盈亏合计:   %.2f\n", r.TotalNetPL)
	if math.IsInf(r.ProfitFactor, 1) {
		fmt.Fprintf(&b, "盈亏比:       inf (无亏损交易)\n")
	} else {
		fmt.Fprintf(&b, "盈亏比:       %.2f\n", r.ProfitFactor)
	}
	if r.HasSharpe {
		fmt.Fprintf(&b, "年化 Sharpe:  %.2f\n", r.SharpeRatio)
	} else {
		fmt.Fprintf(&b, "年化 Sharpe:  n/a (日收益样本不足)\n")
	}
	if r.HasSortino {
		fmt.Fprintf(&b, "年化 Sortino: %.2f\n", r.SortinoRatio)
	} else {
		fmt.Fprintf(&b, "年化 Sortino: n/a\n")
	}
	fmt.Fprintf(&b, "%s", line)
	return b.String()
}

// Print 把报告打到结构化日志里。
func (r Report) Print() {
	logger.InfoBlock(r.Render())
}
