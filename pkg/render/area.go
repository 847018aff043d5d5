package render

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

// maxStackedSeries caps the number of y columns a stacked area draws
const maxStackedSeries = 5

// renderArea aggregates y per x (sum or avg) and draws a single filled series
func renderArea(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	m := spec.Mapping
	agg := model.ParseAggregation(m.Aggregation).Restrict(model.AggSum, model.AggAvg)

	xc, err := tbl.Column(m.X)
	if err != nil {
		return nil, err
	}
	groups, err := tbl.Aggregate(m.X, m.Y, agg, table.SortedKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate area data: %w", err)
	}

	var pts plotter.XYs
	var ticks []plot.Tick
	for i, g := range groups {
		if math.IsNaN(g.Value) {
			continue
		}
		x := float64(i)
		if xc.IsNumeric() {
			x = g.Key.Num
		} else {
			ticks = append(ticks, plot.Tick{Value: x, Label: g.Key.String()})
		}
		pts = append(pts, plotter.XY{X: x, Y: g.Value})
	}
	if len(pts) == 0 {
		return nil, ErrNoData
	}

	p := newAxesPlot(th, spec.Title, false, true)
	fill, err := filledPolygon(underCurve(pts), withAlpha(th.Color(0), 0.6))
	if err != nil {
		return nil, fmt.Errorf("failed to create fill: %w", err)
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %w", err)
	}
	line.Color = withAlpha(th.Color(0), 0.9)
	line.Width = vg.Points(3)
	p.Add(fill, line)

	applyTicks(p, ticks)
	if len(ticks) == 0 {
		rotateXTicks(p)
	}
	setAxisLabels(p, m.X, m.Y)
	return renderPlot(p, th)
}

// renderStackedArea stacks up to five y columns over the rows sorted by x.
// Columns named in y_cols that do not exist are skipped; nulls count as zero.
func renderStackedArea(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	m := spec.Mapping
	xc, err := tbl.Column(m.X)
	if err != nil {
		return nil, err
	}

	var series []*table.Column
	for _, name := range stackedColumns(tbl, m.YCols) {
		c, err := tbl.NumericColumn(name)
		if err != nil {
			return nil, err
		}
		series = append(series, c)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: none of %v exist", ErrNoData, []string(m.YCols))
	}

	rows, err := tbl.SortedRows(m.X)
	if err != nil {
		return nil, err
	}
	xs, ticks := mapX(xc, rows)

	// keep rows with a usable x; the stack starts at zero
	var keep []int
	var px []float64
	for i, r := range rows {
		if finite(xs[i]) {
			keep = append(keep, r)
			px = append(px, xs[i])
		}
	}
	if len(keep) == 0 {
		return nil, ErrNoData
	}

	p := newAxesPlot(th, spec.Title, false, true)
	lower := make([]float64, len(keep))
	for si, c := range series {
		upper := make([]float64, len(keep))
		for i, r := range keep {
			v, _ := c.Float(r)
			upper[i] = lower[i] + v
		}

		pts := make(plotter.XYs, 0, 2*len(keep))
		for i := range keep {
			pts = append(pts, plotter.XY{X: px[i], Y: upper[i]})
		}
		for i := len(keep) - 1; i >= 0; i-- {
			pts = append(pts, plotter.XY{X: px[i], Y: lower[i]})
		}
		layer, err := filledPolygon(pts, withAlpha(th.Color(si), 0.8))
		if err != nil {
			return nil, fmt.Errorf("failed to create layer %q: %w", c.Name, err)
		}
		p.Add(layer)
		p.Legend.Add(c.Name, layer)
		lower = upper
	}

	applyTicks(p, ticks)
	if len(ticks) == 0 {
		rotateXTicks(p)
	}
	p.X.Label.Text = titleCase(m.X)
	p.Y.Label.Text = "Value"
	return renderPlot(p, th)
}

// stackedColumns returns the first five requested columns that exist
func stackedColumns(tbl *table.Table, names []string) []string {
	if len(names) > maxStackedSeries {
		names = names[:maxStackedSeries]
	}
	var out []string
	for _, n := range names {
		if tbl.Has(n) {
			out = append(out, n)
		}
	}
	return out
}
