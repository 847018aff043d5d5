package render

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

const (
	// scatterArea is the marker area of a plain scatter point, in square points
	scatterArea = 60.0
	bubbleMin   = 100.0
	bubbleSpan  = 2000.0
)

// xyPoints pairs x and y for every row where both are set. It also returns the
// row index behind each point and the nominal ticks for a string x.
func xyPoints(tbl *table.Table, x, y string) (plotter.XYs, []int, []plot.Tick, error) {
	xc, err := tbl.Column(x)
	if err != nil {
		return nil, nil, nil, err
	}
	yc, err := tbl.NumericColumn(y)
	if err != nil {
		return nil, nil, nil, err
	}
	rows := make([]int, tbl.Rows())
	for i := range rows {
		rows[i] = i
	}
	xs, ticks := mapX(xc, rows)

	var pts plotter.XYs
	var kept []int
	for i, r := range rows {
		v, ok := yc.Float(r)
		if !ok || !finite(xs[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: v})
		kept = append(kept, r)
	}
	return pts, kept, ticks, nil
}

// renderScatter plots the raw x/y pairs
func renderScatter(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	m := spec.Mapping
	pts, _, ticks, err := xyPoints(tbl, m.X, m.Y)
	if err != nil {
		return nil, err
	}
	if len(pts) == 0 {
		return nil, ErrNoData
	}

	radius := vg.Points(math.Sqrt(scatterArea) / 2)
	p := newAxesPlot(th, spec.Title, true, true)
	if err := addMarkers(p, pts, th, func(int) vg.Length { return radius }); err != nil {
		return nil, err
	}

	applyTicks(p, ticks)
	setAxisLabels(p, m.X, m.Y)
	return renderPlot(p, th)
}

// bubbleSizes min-max normalizes a numeric column into marker areas between
// 100 and 2100 square points. Nulls count as zero and the denominator carries
// a +1 so a constant column does not divide by zero.
func bubbleSizes(c *table.Column) ([]float64, error) {
	vals, err := c.Floats()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		if math.IsNaN(v) {
			vals[i] = 0
		}
	}
	if len(vals) == 0 {
		return vals, nil
	}
	lo, hi := floats.Min(vals), floats.Max(vals)
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = (v-lo)/(hi-lo+1)*bubbleSpan + bubbleMin
	}
	return out, nil
}

// renderBubble is a scatter whose marker area follows the size column
func renderBubble(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	m := spec.Mapping
	sc, err := tbl.NumericColumn(m.Size)
	if err != nil {
		return nil, err
	}
	sizes, err := bubbleSizes(sc)
	if err != nil {
		return nil, err
	}
	pts, rows, ticks, err := xyPoints(tbl, m.X, m.Y)
	if err != nil {
		return nil, err
	}
	if len(pts) == 0 {
		return nil, ErrNoData
	}

	p := newAxesPlot(th, spec.Title, true, true)
	radius := func(i int) vg.Length {
		return vg.Points(math.Sqrt(sizes[rows[i]]) / 2)
	}
	if err := addMarkers(p, pts, th, radius); err != nil {
		return nil, err
	}

	applyTicks(p, ticks)
	setAxisLabels(p, m.X, m.Y)
	return renderPlot(p, th)
}

// addMarkers draws filled circles in the first palette color ringed with the second
func addMarkers(p *plot.Plot, pts plotter.XYs, th Theme, radius func(int) vg.Length) error {
	fill, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to create scatter: %w", err)
	}
	fillColor := withAlpha(th.Color(0), 0.6)
	fill.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{Color: fillColor, Radius: radius(i), Shape: draw.CircleGlyph{}}
	}

	ring, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to create scatter: %w", err)
	}
	ringColor := th.Color(1)
	ring.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{Color: ringColor, Radius: radius(i), Shape: draw.RingGlyph{}}
	}

	p.Add(fill, ring)
	return nil
}
