package report

import (
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"dip-trader/internal/models"
)

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Trading Report</title>
<style>
body { font-family: -apple-system, Helvetica, Arial, sans-serif; margin: 40px; color: #222; }
h1 { font-size: 22px; }
h2 { font-size: 16px; margin-top: 32px; }
table { border-collapse: collapse; width: 100%; margin-top: 12px; }
th, td { border: 1px solid #ddd; padding: 8px 12px; text-align: right; font-size: 13px; }
th { background: #f5f5f5; }
td.sym, th.sym { text-align: left; }
.summary { background: #f9f9f9; border: 1px solid #eee; padding: 16px 20px; margin-top: 16px; }
.summary span { display: inline-block; margin-right: 32px; }
.paper { color: #b8860b; }
.live { color: #006400; }
</style>
</head>
<body>
<h1>Trading Report &mdash; {{.Symbol}} <span class="{{if .IsPaper}}paper{{else}}live{{end}}">[{{if .IsPaper}}PAPER{{else}}LIVE{{end}}]</span></h1>
<div class="summary">
<span>Session: {{.SessionID}}</span>
<span>Started: {{.StartedAt.Format "2006-01-02 15:04:05"}}</span>
{{if gt .Baseline 0.0}}<span>Baseline ({{.Benchmark}}): {{printf "%.2f" .Baseline}}</span>{{end}}
<span>Final decline: {{printf "%.2f" .DeclinePct}}%</span>
<span>Trades: {{.TradeCount}}</span>
<span>Total cost: ${{printf "%.2f" .TotalCost}}</span>
</div>
<h2>Transactions</h2>
{{if .Records}}
<table>
<tr><th class="sym">Date</th><th class="sym">Symbol</th><th>Quantity</th><th>Price</th><th>Total Cost</th><th>Benchmark Drop</th></tr>
{{range .Records}}
<tr>
<td class="sym">{{.Date}}</td>
<td class="sym">{{.Symbol}}</td>
<td>{{.Quantity}}</td>
<td>${{printf "%.2f" .Price}}</td>
<td>${{printf "%.2f" .TotalCost}}</td>
<td>{{printf "%.2f" .DeclinePct}}%</td>
</tr>
{{end}}
</table>
{{else}}
<p>No transactions this session.</p>
{{end}}
</body>
</html>
`

var reportTmpl = template.Must(template.New("report").Parse(reportTemplate))

func (r *Reporter) writeHTML(path string, sum models.TradingSummary, recs []models.TradeRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report html: %w", err)
	}
	defer f.Close()

	var totalCost float64
	for _, rec := range recs {
		totalCost += rec.TotalCost
	}
	data := struct {
		SessionID  string
		Symbol     string
		Benchmark  string
		IsPaper    bool
		StartedAt  time.Time
		Baseline   float64
		DeclinePct float64
		TradeCount int
		TotalCost  float64
		Records    []models.TradeRecord
	}{
		SessionID:  sum.SessionID,
		Symbol:     sum.Symbol,
		Benchmark:  sum.BenchmarkSymbol,
		IsPaper:    sum.Mode == models.ModePaper,
		StartedAt:  sum.StartedAt,
		Baseline:   sum.BaselinePrice,
		DeclinePct: sum.TotalDeclinePct,
		TradeCount: sum.TotalTrades,
		TotalCost:  totalCost,
		Records:    recs,
	}

	if err := reportTmpl.Execute(f, data); err != nil {
		return fmt.Errorf("rendering report html: %w", err)
	}
	return nil
}

// writeChart renders the benchmark decline series observed during the
// session as an interactive line chart.
func (r *Reporter) writeChart(path string, sum models.TradingSummary, obs []models.Observation) error {
	xs := make([]string, 0, len(obs))
	prices := make([]opts.LineData, 0, len(obs))
	declines := make([]opts.LineData, 0, len(obs))
	for _, o := range obs {
		xs = append(xs, o.Timestamp.Format("15:04:05"))
		prices = append(prices, opts.LineData{Value: o.Price})
		declines = append(declines, opts.LineData{Value: o.DeclinePct})
	}

	priceLine := charts.NewLine()
	priceLine.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s benchmark price", sum.BenchmarkSymbol),
			Subtitle: fmt.Sprintf("session %s", sum.SessionID),
		}),
	)
	priceLine.SetXAxis(xs).AddSeries(sum.BenchmarkSymbol, prices)

	declineLine := charts.NewLine()
	declineLine.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Decline from baseline (%)",
			Subtitle: fmt.Sprintf("baseline %.2f", sum.BaselinePrice),
		}),
	)
	declineLine.SetXAxis(xs).AddSeries("decline %", declines)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(priceLine, declineLine)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart html: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}
