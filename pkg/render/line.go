package render

import (
	"fmt"
	"math"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

// renderLine connects the raw points in x order and shades the area down to
// zero. A null y breaks the line instead of bridging the gap.
func renderLine(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	m := spec.Mapping
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

	xs, ticks := mapX(xc, rows)
	var pts plotter.XYs
	for i, r := range rows {
		if !finite(xs[i]) {
			continue
		}
		y, ok := yc.Float(r)
		if !ok {
			y = math.NaN()
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: y})
	}
	runs := splitAtGaps(pts)
	if len(runs) == 0 {
		return nil, ErrNoData
	}

	p := newAxesPlot(th, spec.Title, true, true)
	for _, run := range runs {
		fill, err := filledPolygon(underCurve(run), withAlpha(th.Color(1), 0.2))
		if err != nil {
			return nil, fmt.Errorf("failed to create fill: %w", err)
		}
		p.Add(fill)
	}
	for _, run := range runs {
		line, points, err := plotter.NewLinePoints(run)
		if err != nil {
			return nil, fmt.Errorf("failed to create line: %w", err)
		}
		line.Color = withAlpha(th.Color(1), 0.9)
		line.Width = vg.Points(3)
		points.Shape = draw.CircleGlyph{}
		points.Radius = vg.Points(4)
		points.Color = th.Color(0)
		p.Add(line, points)
	}

	applyTicks(p, ticks)
	if len(ticks) == 0 {
		rotateXTicks(p)
	}
	setAxisLabels(p, m.X, m.Y)
	return renderPlot(p, th)
}

// underCurve closes a series of points down to the y=0 baseline
func underCurve(pts plotter.XYs) plotter.XYs {
	out := make(plotter.XYs, 0, len(pts)+2)
	out = append(out, plotter.XY{X: pts[0].X, Y: 0})
	out = append(out, pts...)
	out = append(out, plotter.XY{X: pts[len(pts)-1].X, Y: 0})
	return out
}

// splitAtGaps cuts a series into runs at every NaN y. Empty runs are dropped.
func splitAtGaps(pts plotter.XYs) []plotter.XYs {
	var runs []plotter.XYs
	var cur plotter.XYs
	for _, pt := range pts {
		if math.IsNaN(pt.Y) {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, pt)
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}
