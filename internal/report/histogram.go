package report

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderHistogram draws the distribution of the filtered amounts and
// returns the chart as PNG bytes
func RenderHistogram(values []decimal.Decimal, bins int, title string) ([]byte, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("no values to plot")
	}
	if bins < 1 {
		return nil, fmt.Errorf("bin count must be positive: %d", bins)
	}

	points := make(plotter.Values, len(values))
	for i, v := range values {
		points[i] = v.InexactFloat64()
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "amount owed"
	p.Y.Label.Text = "debtors"

	hist, err := plotter.NewHist(points, bins)
	if err != nil {
		return nil, fmt.Errorf("building histogram: %w", err)
	}
	p.Add(hist)

	wt, err := p.WriterTo(10*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("rendering histogram: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding histogram: %w", err)
	}

	return buf.Bytes(), nil
}
