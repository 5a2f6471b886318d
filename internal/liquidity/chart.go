package liquidity

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Amboss-style dark theme.
var (
	chartBackground = drawing.ColorFromHex("181c20")
	chartAxisColor  = drawing.ColorFromHex("b8e0ff")
	chartGridColor  = drawing.ColorFromHex("333333")
	chartTorColor   = drawing.ColorFromHex("ff3c7d")
	chartAllColor   = drawing.ColorFromHex("ffffff")
)

// keyBudgets are the USD budgets annotated with their effective fee
// percentage. Budgets absent from the grid are skipped.
var keyBudgets = []float64{10, 50, 100, 500}

// chartInput carries the computed series for one chart render. All values
// are in USD; the two liquidity series share the budget grid.
type chartInput struct {
	BudgetsUSD      []float64
	TorLiquidityUSD []float64
	TorCostUSD      []float64
	AllLiquidityUSD []float64
	AllCostUSD      []float64
	TorRestricted   int // offers excluded from the Tor-eligible series
	TotalOffers     int
}

// formatUSD renders a value like "$1,234".
func formatUSD(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)

	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}

	if neg {
		return "-$" + string(out)
	}
	return "$" + string(out)
}

// usdValueFormatter adapts formatUSD to the chart axis formatter signature.
func usdValueFormatter(v any) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	return formatUSD(f)
}

// feeAnnotations builds the fee-percentage labels placed on a series at the
// key budgets: the total cost as a percentage of liquidity purchased.
func feeAnnotations(budgets, liquidity, costs []float64) []chart.Value2 {
	annotations := make([]chart.Value2, 0, len(keyBudgets))
	for _, key := range keyBudgets {
		for i, budget := range budgets {
			if budget != key || liquidity[i] <= 0 {
				continue
			}

			pct := 100 * costs[i] / liquidity[i]
			annotations = append(annotations, chart.Value2{
				XValue: budget,
				YValue: liquidity[i],
				Label:  fmt.Sprintf("%.2f%%", pct),
			})
		}
	}

	return annotations
}

// renderChart draws the liquidity purchase power chart as a PNG: liquidity
// purchasable (y) against total cost (x) for Tor-eligible offers and for the
// whole order book.
func renderChart(in chartInput) ([]byte, error) {
	maxY := 1.0
	for _, v := range in.AllLiquidityUSD {
		if v > maxY {
			maxY = v
		}
	}

	axisStyle := chart.Style{
		FontColor:   chartAxisColor,
		StrokeColor: chartGridColor,
	}
	gridStyle := chart.Style{
		StrokeColor: chartGridColor,
		StrokeWidth: 0.7,
	}

	torSeries := chart.ContinuousSeries{
		Name:    "Tor-Eligible Offers",
		XValues: in.BudgetsUSD,
		YValues: in.TorLiquidityUSD,
		Style: chart.Style{
			StrokeColor: chartTorColor,
			StrokeWidth: 2,
		},
	}
	allSeries := chart.ContinuousSeries{
		Name:    "All Offers (Clearnet & Tor)",
		XValues: in.BudgetsUSD,
		YValues: in.AllLiquidityUSD,
		Style: chart.Style{
			StrokeColor: chartAllColor,
			StrokeWidth: 2,
		},
	}

	graph := chart.Chart{
		Title: fmt.Sprintf("Magma Liquidity Purchase Power (Tor-restricted offers: %d of %d)",
			in.TorRestricted, in.TotalOffers),
		TitleStyle: chart.Style{FontColor: chartAllColor},
		Width:      1200,
		Height:     700,
		Background: chart.Style{FillColor: chartBackground},
		Canvas:     chart.Style{FillColor: chartBackground},
		XAxis: chart.XAxis{
			Name:           "Total Cost (USD)",
			NameStyle:      chart.Style{FontColor: chartAxisColor},
			Style:          axisStyle,
			GridMajorStyle: gridStyle,
			ValueFormatter: usdValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Max Liquidity Purchased (USD)",
			NameStyle:      chart.Style{FontColor: chartAxisColor},
			Style:          axisStyle,
			GridMajorStyle: gridStyle,
			ValueFormatter: usdValueFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: maxY},
		},
		Series: []chart.Series{
			torSeries,
			allSeries,
			chart.AnnotationSeries{
				Annotations: feeAnnotations(in.BudgetsUSD, in.TorLiquidityUSD, in.TorCostUSD),
				Style: chart.Style{
					StrokeColor: chartTorColor,
					FontColor:   chartTorColor,
					FillColor:   chartBackground,
				},
			},
			chart.AnnotationSeries{
				Annotations: feeAnnotations(in.BudgetsUSD, in.AllLiquidityUSD, in.AllCostUSD),
				Style: chart.Style{
					StrokeColor: chartAllColor,
					FontColor:   chartAllColor,
					FillColor:   chartBackground,
				},
			},
		},
	}

	graph.Elements = []chart.Renderable{
		chart.Legend(&graph, chart.Style{
			FillColor: chartBackground,
			FontColor: chartAxisColor,
		}),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
