package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one hourly observation attached to causal analysis results.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

func (cs Candles) Points() []PricePoint {
	out := make([]PricePoint, 0, len(cs))
	for _, c := range cs {
		out = append(out, PricePoint{
			Timestamp: c.OpenAt(),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		})
	}
	return out
}

// ChangePercent computes (after-before)/before*100; ok is false when before is zero.
func ChangePercent(before, after float64) (float64, bool) {
	b := decimal.NewFromFloat(before)
	if b.IsZero() {
		return 0, false
	}
	pct := decimal.NewFromFloat(after).Sub(b).Div(b).Mul(decimal.NewFromInt(100))
	return pct.InexactFloat64(), true
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Summarize renders a compact description of a price window for prompts.
func Summarize(points []PricePoint) string {
	if len(points) == 0 {
		return "No price data available"
	}
	low := decimal.NewFromFloat(points[0].Close)
	high := low
	sum := decimal.Zero
	volSum := decimal.Zero
	for _, p := range points {
		c := decimal.NewFromFloat(p.Close)
		low = decimal.Min(low, c)
		high = decimal.Max(high, c)
		sum = sum.Add(c)
		volSum = volSum.Add(decimal.NewFromFloat(p.Volume))
	}
	n := decimal.NewFromInt(int64(len(points)))
	change := 0.0
	if first := points[0].Close; first > 0 {
		change, _ = ChangePercent(first, points[len(points)-1].Close)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Period: %s to %s\n", points[0].Timestamp.Format(time.RFC3339), points[len(points)-1].Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "Price range: $%s - $%s\n", low.StringFixed(2), high.StringFixed(2))
	fmt.Fprintf(&b, "Average price: $%s\n", sum.Div(n).StringFixed(2))
	fmt.Fprintf(&b, "Price change: %.2f%%\n", change)
	fmt.Fprintf(&b, "Average volume: %s\n", volSum.Div(n).StringFixed(2))
	fmt.Fprintf(&b, "Data points: %d", len(points))
	return b.String()
}

// FormatCandleLines renders one "time | O H L C V" line per candle.
func FormatCandleLines(cs Candles) string {
	lines := make([]string, 0, len(cs))
	for _, c := range cs {
		lines = append(lines, fmt.Sprintf("%s | O:%.2f H:%.2f L:%.2f C:%.2f V:%.0f",
			c.OpenAt().Format("2006-01-02 15:04"), c.Open, c.High, c.Low, c.Close, c.Volume))
	}
	return strings.Join(lines, "\n")
}
