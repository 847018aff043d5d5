package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var nan = math.NaN()

// rectangle builds a filled, outlined polygon covering [x0,x1]×[y0,y1]
func rectangle(x0, x1, y0, y1 float64, fill, edge color.Color) (*plotter.Polygon, error) {
	poly, err := plotter.NewPolygon(plotter.XYs{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
	})
	if err != nil {
		return nil, err
	}
	poly.Color = fill
	poly.LineStyle = draw.LineStyle{Color: edge, Width: vg.Points(1.5)}
	return poly, nil
}

// filledPolygon builds a polygon with no outline
func filledPolygon(pts plotter.XYs, fill color.Color) (*plotter.Polygon, error) {
	poly, err := plotter.NewPolygon(pts)
	if err != nil {
		return nil, err
	}
	poly.Color = fill
	poly.LineStyle.Width = 0
	poly.LineStyle.Color = nil
	return poly, nil
}

// arc returns n+1 points on a circle of radius r around (cx, cy) from angle
// a0 to a1 (radians, counter-clockwise positive).
func arc(cx, cy, r, a0, a1 float64, n int) plotter.XYs {
	pts := make(plotter.XYs, n+1)
	for i := 0; i <= n; i++ {
		a := a0 + (a1-a0)*float64(i)/float64(n)
		pts[i] = plotter.XY{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return pts
}

// band returns the outline of a ring segment between radii r0 and r1
func band(r0, r1, a0, a1 float64, n int) plotter.XYs {
	outer := arc(0, 0, r1, a0, a1, n)
	inner := arc(0, 0, r0, a1, a0, n)
	return append(outer, inner...)
}

// labelsAt places text labels at data coordinates, each with the given style
func labelsAt(xys plotter.XYs, labels []string, style text.Style) (*plotter.Labels, error) {
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("failed to create labels: %w", err)
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i] = style
	}
	return lbl, nil
}

// finite reports whether v can be plotted
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
