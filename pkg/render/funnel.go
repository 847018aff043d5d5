package render

import (
	"fmt"
	"sort"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

const funnelLimit = 8

type funnelStage struct {
	Label string
	Value float64
}

// funnelEntries returns the eight rows with the largest y, largest first.
// Rows with a null y are skipped.
func funnelEntries(tbl *table.Table, m model.Mapping) ([]funnelStage, error) {
	xc, err := tbl.Column(m.X)
	if err != nil {
		return nil, err
	}
	yc, err := tbl.NumericColumn(m.Y)
	if err != nil {
		return nil, err
	}

	var stages []funnelStage
	for r := 0; r < tbl.Rows(); r++ {
		v, ok := yc.Float(r)
		if !ok {
			continue
		}
		stages = append(stages, funnelStage{Label: xc.Label(r), Value: v})
	}
	sort.SliceStable(stages, func(a, b int) bool {
		return stages[a].Value > stages[b].Value
	})
	if len(stages) > funnelLimit {
		stages = stages[:funnelLimit]
	}
	return stages, nil
}

// renderFunnel draws one horizontal bar per stage, widest on top, each
// scaled to the largest value and labelled inline.
func renderFunnel(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	stages, err := funnelEntries(tbl, spec.Mapping)
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 || stages[0].Value <= 0 {
		return nil, ErrNoData
	}
	top := stages[0].Value

	p := newPlot(th, spec.Title)
	p.HideAxes()
	n := len(stages)
	centers := make(plotter.XYs, n)
	labels := make([]string, n)
	for i, s := range stages {
		y := float64(n - 1 - i)
		width := s.Value / top
		bar, err := rectangle(0, width, y-0.4, y+0.4, withAlpha(th.Color(i), 0.8), th.FigureBackground)
		if err != nil {
			return nil, fmt.Errorf("failed to create stage %q: %w", s.Label, err)
		}
		bar.LineStyle.Width = vg.Points(2)
		p.Add(bar)
		centers[i] = plotter.XY{X: width / 2, Y: y}
		labels[i] = fmt.Sprintf("%s: %.0f", s.Label, s.Value)
	}
	lbl, err := labelsAt(centers, labels, th.TextStyle(th.TickSize, true))
	if err != nil {
		return nil, err
	}
	p.Add(lbl)

	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = -0.6, float64(n)-0.4
	return renderPlot(p, th)
}
