package render

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

// gaugeHeadroom scales the column maximum to the full gauge range
const gaugeHeadroom = 1.2

// FormatKPIValue renders a KPI number: millions and thousands get an M or K
// suffix with two decimals, other values at least 1 in magnitude get two
// decimals, and smaller values get four.
func FormatKPIValue(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2fK", v/1e3)
	case abs >= 1:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.4f", v)
	}
}

// kpiValue reduces the y column to one number. Count is the number of rows,
// nulls included; every other aggregation skips nulls.
func kpiValue(tbl *table.Table, y string, agg model.Aggregation) (float64, error) {
	if agg == model.AggCount {
		c, err := tbl.Column(y)
		if err != nil {
			return 0, err
		}
		return float64(c.Len()), nil
	}
	c, err := tbl.NumericColumn(y)
	if err != nil {
		return 0, err
	}
	return table.Reduce(c.NonNull(), agg), nil
}

// renderKPI shows a single aggregated number above the chart title
func renderKPI(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	m := spec.Mapping
	value, err := kpiValue(tbl, m.Y, model.ParseAggregation(m.Aggregation))
	if err != nil {
		return nil, err
	}

	p := newPlot(th, "")
	p.HideAxes()
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	valueStyle := th.TextStyle(vg.Points(52), true)
	valueStyle.Color = th.Color(1)
	if err := addText(p, 0.5, 0.55, FormatKPIValue(value), valueStyle); err != nil {
		return nil, err
	}
	if err := addText(p, 0.5, 0.25, spec.Title, th.TextStyle(vg.Points(16), true)); err != nil {
		return nil, err
	}
	return renderPlot(p, th)
}

// gaugeReading returns the aggregated value and its share of the gauge range
// in percent. The range is 1.2 times the column maximum; a non-positive range
// reads as zero.
func gaugeReading(tbl *table.Table, y string, agg model.Aggregation) (value, pct float64, err error) {
	c, err := tbl.NumericColumn(y)
	if err != nil {
		return 0, 0, err
	}
	vals := c.NonNull()
	if len(vals) == 0 {
		return 0, 0, ErrNoData
	}
	value = table.Reduce(vals, agg.Restrict(model.AggSum, model.AggAvg, model.AggMax))
	full := floats.Max(vals) * gaugeHeadroom
	if full > 0 {
		pct = value / full * 100
	}
	return value, pct, nil
}

// renderGauge draws a half-dial whose arc and needle follow the reading.
// The arc switches color at 70%.
func renderGauge(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	m := spec.Mapping
	value, pct, err := gaugeReading(tbl, m.Y, model.ParseAggregation(m.Aggregation))
	if err != nil {
		return nil, err
	}
	// readings past either end pin the dial
	shown := math.Max(0, math.Min(100, pct))

	p := newPlot(th, "")
	p.HideAxes()

	track, err := filledPolygon(band(0.9, 1.1, 0, math.Pi, 100), th.Grid)
	if err != nil {
		return nil, err
	}
	p.Add(track)

	arcColor := th.Color(0)
	if pct >= 70 {
		arcColor = th.Color(2)
	}
	needle := math.Pi * (1 - shown/100)
	if shown > 0 {
		fill, err := filledPolygon(band(0.9, 1.1, math.Pi, needle, 100), withAlpha(arcColor, 0.9))
		if err != nil {
			return nil, err
		}
		p.Add(fill)
	}

	line, err := plotter.NewLine(plotter.XYs{
		{X: 0, Y: 0},
		{X: 0.9 * math.Cos(needle), Y: 0.9 * math.Sin(needle)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create needle: %w", err)
	}
	line.LineStyle = draw.LineStyle{Color: th.Text, Width: vg.Points(3)}
	p.Add(line)

	if err := addText(p, 0, -0.3, fmt.Sprintf("%.1f", value), th.TextStyle(vg.Points(24), true)); err != nil {
		return nil, err
	}
	if err := addText(p, 0, -0.5, spec.Title, th.TextStyle(vg.Points(12), true)); err != nil {
		return nil, err
	}

	fitAspect(p, th, -1.3, 1.3, -0.7, 1.3)
	return renderPlot(p, th)
}

// addText places a single label at data coordinates
func addText(p *plot.Plot, x, y float64, s string, style text.Style) error {
	lbl, err := labelsAt(plotter.XYs{{X: x, Y: y}}, []string{s}, style)
	if err != nil {
		return err
	}
	p.Add(lbl)
	return nil
}
