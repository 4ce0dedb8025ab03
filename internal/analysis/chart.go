package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	colorEquity = "#3b82f6"
	colorWin    = "#34d399"
	colorLoss   = "#f87171"

	chartWidthPx  = 1400
	chartHeightPx = 420
)

// EquityPoint 是权益曲线上的一个采样点。
type EquityPoint struct {
	TS     int64
	Equity float64
}

// WriteCharts 生成权益曲线与逐笔盈亏两张图，合成一个 HTML 页面落盘。
func WriteCharts(path string, equity []EquityPoint, trades []ClosedTrade) error {
	if path == "" {
		return fmt.Errorf("chart path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	if line := buildEquityLine(equity); line != nil {
		page.AddCharts(line)
	}
	if bar := buildPLBar(trades); bar != nil {
		page.AddCharts(bar)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return page.Render(file)
}

func buildEquityLine(points []EquityPoint) *charts.Line {
	if len(points) == 0 {
		return nil
	}
	xAxis := make([]string, 0, len(points))
	data := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		xAxis = append(xAxis, time.Unix(p.TS, 0).UTC().Format("01-02 15:04"))
		data = append(data, opts.LineData{Value: p.Equity})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", chartHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{Title: "Equity Curve"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("Equity", data,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorEquity, Width: 2}),
	)
	return line
}

func buildPLBar(trades []ClosedTrade) *charts.Bar {
	if len(trades) == 0 {
		return nil
	}
	xAxis := make([]string, 0, len(trades))
	data := make([]opts.BarData, 0, len(trades))
	for _, t := range trades {
		xAxis = append(xAxis, fmt.Sprintf("#%d", t.TradeID))
		color := colorWin
		if t.NetPL <= 0 {
			color = colorLoss
		}
		data = append(data, opts.BarData{
			Value:     t.NetPL,
			ItemStyle: &opts.ItemStyle{Color: color},
		})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", chartHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{Title: "Net PL per Trade"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	bar.SetXAxis(xAxis)
	bar.AddSeries("Net_PL", data)
	return bar
}
