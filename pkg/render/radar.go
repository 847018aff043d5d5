package render

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

const (
	radarLimit = 8
	radarRings = 4
)

// radarPoints takes the first eight rows as spokes. Each spoke is labelled
// with the row's category values and measures the y value; null counts as zero.
func radarPoints(tbl *table.Table, m model.Mapping) ([]string, []float64, error) {
	if len(m.Categories) == 0 {
		return nil, nil, fmt.Errorf("%w: radar needs at least one category column", table.ErrColumnNotFound)
	}
	cats := make([]*table.Column, len(m.Categories))
	for i, name := range m.Categories {
		c, err := tbl.Column(name)
		if err != nil {
			return nil, nil, err
		}
		cats[i] = c
	}
	yc, err := tbl.NumericColumn(m.Y)
	if err != nil {
		return nil, nil, err
	}

	n := tbl.Rows()
	if n > radarLimit {
		n = radarLimit
	}
	labels := make([]string, n)
	values := make([]float64, n)
	for r := 0; r < n; r++ {
		parts := make([]string, len(cats))
		for i, c := range cats {
			parts[i] = c.Label(r)
		}
		labels[r] = strings.Join(parts, " / ")
		values[r], _ = yc.Float(r)
	}
	return labels, values, nil
}

// renderRadar draws the values on evenly spaced spokes and closes the polygon
// back to the first point.
func renderRadar(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	labels, values, err := radarPoints(tbl, spec.Mapping)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	// shift so the smallest value sits at the center when values go negative
	origin := math.Min(0, floats.Min(values))
	reach := floats.Max(values) - origin
	if reach <= 0 {
		reach = 1
	}

	p := newPlot(th, spec.Title)
	p.HideAxes()
	n := len(values)
	angle := func(i int) float64 { return 2 * math.Pi * float64(i) / float64(n) }

	ringStyle := draw.LineStyle{Color: th.AxesEdge, Width: vg.Points(0.8)}
	for k := 1; k <= radarRings; k++ {
		ring, err := plotter.NewLine(arc(0, 0, float64(k)/radarRings, 0, 2*math.Pi, 72))
		if err != nil {
			return nil, fmt.Errorf("failed to create ring: %w", err)
		}
		ring.LineStyle = ringStyle
		p.Add(ring)
	}

	pts := make(plotter.XYs, 0, n+1)
	spokeEnds := make(plotter.XYs, n)
	labelAt := make(plotter.XYs, n)
	for i, v := range values {
		a := angle(i)
		r := (v - origin) / reach
		pts = append(pts, plotter.XY{X: r * math.Cos(a), Y: r * math.Sin(a)})
		spokeEnds[i] = plotter.XY{X: math.Cos(a), Y: math.Sin(a)}
		labelAt[i] = plotter.XY{X: 1.15 * math.Cos(a), Y: 1.15 * math.Sin(a)}

		spoke, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, spokeEnds[i]})
		if err != nil {
			return nil, fmt.Errorf("failed to create spoke: %w", err)
		}
		spoke.LineStyle = ringStyle
		p.Add(spoke)
	}
	pts = append(pts, pts[0])

	area, err := filledPolygon(pts, withAlpha(th.Color(0), 0.25))
	if err != nil {
		return nil, fmt.Errorf("failed to create radar area: %w", err)
	}
	outline, markers, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create radar outline: %w", err)
	}
	outline.LineStyle = draw.LineStyle{Color: th.Color(0), Width: vg.Points(2)}
	markers.Shape = draw.CircleGlyph{}
	markers.Radius = vg.Points(3)
	markers.Color = th.Color(0)
	p.Add(area, outline, markers)

	lbl, err := labelsAt(labelAt, labels, th.TextStyle(th.TickSize, false))
	if err != nil {
		return nil, err
	}
	p.Add(lbl)

	fitAspect(p, th, -1.4, 1.4, -1.3, 1.3)
	return renderPlot(p, th)
}
