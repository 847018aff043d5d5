package render

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

// waterfallStep is one bar of a waterfall: it floats from Base to Base+Delta
type waterfallStep struct {
	Label string
	Base  float64
	Delta float64
}

// waterfallSteps orders rows by x and accumulates y into a running total.
// Null y values count as zero.
func waterfallSteps(tbl *table.Table, m model.Mapping) ([]waterfallStep, error) {
	xc, err := tbl.Column(m.X)
	if err != nil {
		return nil, err
	}
	yc, err := tbl.NumericColumn(m.Y)
	if err != nil {
		return nil, err
	}
	rows, err := tbl.SortedRows(m.X)
	if err != nil {
		return nil, err
	}

	steps := make([]waterfallStep, len(rows))
	var total float64
	for i, r := range rows {
		v, _ := yc.Float(r)
		steps[i] = waterfallStep{Label: xc.Label(r), Base: total, Delta: v}
		total += v
	}
	return steps, nil
}

// renderWaterfall draws floating bars colored by the sign of each increment,
// joined by dashed guides at the running total.
func renderWaterfall(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	m := spec.Mapping
	steps, err := waterfallSteps(tbl, m)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, ErrNoData
	}

	p := newAxesPlot(th, spec.Title, false, true)
	guide := draw.LineStyle{
		Color:  withAlpha(th.Text, 0.6),
		Width:  vg.Points(1),
		Dashes: []vg.Length{vg.Points(4), vg.Points(2)},
	}
	ticks := make([]plot.Tick, len(steps))
	for i, s := range steps {
		x := float64(i)
		fill := th.Color(0)
		if s.Delta < 0 {
			fill = th.Color(2)
		}
		bar, err := rectangle(x-0.4, x+0.4, s.Base, s.Base+s.Delta, withAlpha(fill, 0.8), th.FigureBackground)
		if err != nil {
			return nil, fmt.Errorf("failed to create step %d: %w", i, err)
		}
		p.Add(bar)
		ticks[i] = plot.Tick{Value: x, Label: s.Label}

		if i < len(steps)-1 {
			end := s.Base + s.Delta
			l, err := plotter.NewLine(plotter.XYs{{X: x + 0.4, Y: end}, {X: x + 0.6, Y: end}})
			if err != nil {
				return nil, fmt.Errorf("failed to create guide: %w", err)
			}
			l.LineStyle = guide
			p.Add(l)
		}
	}

	applyTicks(p, ticks)
	setAxisLabels(p, m.X, m.Y)
	return renderPlot(p, th)
}
