package render

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

const (
	treemapLimit = 12
	// treemap layout area in data units, matching the canvas aspect
	treemapWidth  = 10.0
	treemapHeight = 6.0
)

// rect is an axis-aligned rectangle in data units
type rect struct {
	X, Y, W, H float64
}

// treemapEntries sums y per x and keeps the twelve largest, largest first
func treemapEntries(tbl *table.Table, m model.Mapping) ([]table.Aggregated, error) {
	groups, err := tbl.Aggregate(m.X, m.Y, model.AggSum, table.SortedKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate treemap data: %w", err)
	}
	return table.TopN(groups, treemapLimit), nil
}

// renderTreemap tiles the canvas with one rectangle per entry, area
// proportional to value. Data a treemap cannot show (no entries, or a
// non-positive value) is drawn as a pie chart instead.
func renderTreemap(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	m := spec.Mapping
	entries, err := treemapEntries(tbl, m)
	if err != nil {
		return nil, err
	}
	sizes := make([]float64, len(entries))
	for i, e := range entries {
		sizes[i] = e.Value
	}
	rects, ok := squarify(sizes, rect{W: treemapWidth, H: treemapHeight})
	if !ok {
		return renderPie(tbl, spec, th)
	}

	p := newPlot(th, spec.Title)
	p.HideAxes()
	var centers plotter.XYs
	var labels []string
	for i, r := range rects {
		tile, err := rectangle(r.X, r.X+r.W, r.Y, r.Y+r.H, withAlpha(th.Color(i), 0.8), th.FigureBackground)
		if err != nil {
			return nil, fmt.Errorf("failed to create tile: %w", err)
		}
		tile.LineStyle.Width = vg.Points(2)
		p.Add(tile)
		centers = append(centers, plotter.XY{X: r.X + r.W/2, Y: r.Y + r.H/2})
		labels = append(labels, fmt.Sprintf("%s\n%.0f", entries[i].Key.String(), entries[i].Value))
	}
	lbl, err := labelsAt(centers, labels, th.TextStyle(vg.Points(9), true))
	if err != nil {
		return nil, err
	}
	p.Add(lbl)

	p.X.Min, p.X.Max = 0, treemapWidth
	p.Y.Min, p.Y.Max = 0, treemapHeight
	return renderPlot(p, th)
}

// squarify lays out values, sorted in descending order, as rectangles filling
// bounds, using the squarified treemap algorithm of Bruls, Huizing and van
// Wijk. It reports false when there is nothing to lay out or a value is not
// positive.
func squarify(values []float64, bounds rect) ([]rect, bool) {
	if len(values) == 0 {
		return nil, false
	}
	var total float64
	for _, v := range values {
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, false
		}
		total += v
	}
	areas := make([]float64, len(values))
	scale := bounds.W * bounds.H / total
	for i, v := range values {
		areas[i] = v * scale
	}
	return squarifyAreas(areas, bounds), true
}

func squarifyAreas(areas []float64, r rect) []rect {
	if len(areas) == 0 {
		return nil
	}
	if len(areas) == 1 {
		return layoutStrip(areas, r)
	}
	i := 1
	for i < len(areas) && worstRatio(areas[:i], r) >= worstRatio(areas[:i+1], r) {
		i++
	}
	strip := areas[:i]
	return append(layoutStrip(strip, r), squarifyAreas(areas[i:], leftover(strip, r))...)
}

// layoutStrip places areas in a strip along the shorter side of r
func layoutStrip(areas []float64, r rect) []rect {
	covered := floats.Sum(areas)
	out := make([]rect, len(areas))
	if r.W >= r.H {
		w := covered / r.H
		y := r.Y
		for i, a := range areas {
			h := a / w
			out[i] = rect{X: r.X, Y: y, W: w, H: h}
			y += h
		}
		return out
	}
	h := covered / r.W
	x := r.X
	for i, a := range areas {
		w := a / h
		out[i] = rect{X: x, Y: r.Y, W: w, H: h}
		x += w
	}
	return out
}

// leftover is the part of r not covered by a strip of areas
func leftover(areas []float64, r rect) rect {
	covered := floats.Sum(areas)
	if r.W >= r.H {
		w := covered / r.H
		return rect{X: r.X + w, Y: r.Y, W: r.W - w, H: r.H}
	}
	h := covered / r.W
	return rect{X: r.X, Y: r.Y + h, W: r.W, H: r.H - h}
}

// worstRatio is the largest aspect ratio among the rectangles of a strip
func worstRatio(areas []float64, r rect) float64 {
	worst := 0.0
	for _, s := range layoutStrip(areas, r) {
		worst = math.Max(worst, math.Max(s.W/s.H, s.H/s.W))
	}
	return worst
}
