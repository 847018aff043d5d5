package render

import (
	"fmt"
	"math"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

// renderBar draws one bar per x group, each in the next palette color.
// Supported aggregations are sum, avg and count.
func renderBar(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	m := spec.Mapping
	agg := model.ParseAggregation(m.Aggregation).Restrict(model.AggSum, model.AggAvg, model.AggCount)

	groups, err := tbl.Aggregate(m.X, m.Y, agg, table.SortedKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate bar data: %w", err)
	}
	if len(groups) == 0 {
		return nil, ErrNoData
	}

	p := newAxesPlot(th, spec.Title, false, true)
	labels := make([]string, len(groups))
	for i, g := range groups {
		v := g.Value
		if math.IsNaN(v) {
			v = 0
		}
		bar, err := plotter.NewBarChart(plotter.Values{v}, vg.Points(barWidth(th, len(groups))))
		if err != nil {
			return nil, fmt.Errorf("failed to create bar: %w", err)
		}
		bar.XMin = float64(i)
		bar.Color = withAlpha(th.Color(i), 0.9)
		bar.LineStyle.Color = th.FigureBackground
		bar.LineStyle.Width = vg.Points(1.5)
		p.Add(bar)
		labels[i] = g.Key.String()
	}

	p.NominalX(labels...)
	rotateXTicks(p)
	setAxisLabels(p, m.X, m.Y)
	return renderPlot(p, th)
}

// barWidth spreads n bars over the plot width leaving a fifth as gap
func barWidth(th Theme, n int) float64 {
	usable := float64(th.Width) * 0.8
	w := usable / float64(n) * 0.8
	return math.Max(1, math.Min(w, 120))
}
