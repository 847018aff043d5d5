package render

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

const (
	histogramBins = 30
	violinLimit   = 8
	// kdePoints is the number of density samples along each violin
	kdePoints = 100
	// violinHalfWidth is half the widest violin, in category slots
	violinHalfWidth = 0.25
)

// renderHistogram bins the non-null y values into 30 equal bins
func renderHistogram(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	m := spec.Mapping
	yc, err := tbl.NumericColumn(m.Y)
	if err != nil {
		return nil, err
	}
	values := yc.NonNull()
	if len(values) == 0 {
		return nil, ErrNoData
	}

	p := newAxesPlot(th, spec.Title, false, true)
	hist, err := plotter.NewHist(plotter.Values(values), histogramBins)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram: %w", err)
	}
	hist.FillColor = withAlpha(th.Color(0), 0.9)
	hist.LineStyle.Color = th.FigureBackground
	hist.LineStyle.Width = vg.Points(1.5)
	p.Add(hist)

	p.X.Label.Text = titleCase(m.Y)
	p.Y.Label.Text = "Frequency"
	return renderPlot(p, th)
}

// renderBoxplot draws one box per x group, or a single box when x is not set
func renderBoxplot(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	m := spec.Mapping
	yc, err := tbl.NumericColumn(m.Y)
	if err != nil {
		return nil, err
	}

	var groups []table.Group
	if m.X == "" {
		groups = []table.Group{{Values: yc.NonNull()}}
	} else {
		xc, err := tbl.Column(m.X)
		if err != nil {
			return nil, err
		}
		order := table.FirstSeen
		if xc.IsNumeric() {
			order = table.SortedKeys
		}
		if groups, err = tbl.GroupBy(m.X, m.Y, order); err != nil {
			return nil, err
		}
	}

	p := newAxesPlot(th, spec.Title, false, true)
	width := vg.Points(barWidth(th, len(groups)) * 0.75)
	labels := make([]string, len(groups))
	drawn := 0
	for i, g := range groups {
		labels[i] = g.Key.String()
		if len(g.Values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(width, float64(i), plotter.Values(g.Values))
		if err != nil {
			return nil, fmt.Errorf("failed to create box %q: %w", labels[i], err)
		}
		box.FillColor = withAlpha(th.Color(i), 0.9)
		box.BoxStyle.Color = th.Text
		box.WhiskerStyle.Color = th.Text
		box.GlyphStyle.Color = th.Text
		p.Add(box)
		drawn++
	}
	if drawn == 0 {
		return nil, ErrNoData
	}

	p.NominalX(labels...)
	if m.X != "" {
		rotateXTicks(p)
	}
	setAxisLabels(p, m.X, m.Y)
	return renderPlot(p, th)
}

// violinGroups returns the groups of the first eight distinct x values in
// order of appearance.
func violinGroups(tbl *table.Table, m model.Mapping) ([]table.Group, error) {
	groups, err := tbl.GroupBy(m.X, m.Y, table.FirstSeen)
	if err != nil {
		return nil, err
	}
	if len(groups) > violinLimit {
		groups = groups[:violinLimit]
	}
	return groups, nil
}

// renderViolin draws a kernel density outline per group with mean and
// extrema markers.
func renderViolin(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	m := spec.Mapping
	groups, err := violinGroups(tbl, m)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrNoData
	}

	p := newAxesPlot(th, spec.Title, false, true)
	edge := draw.LineStyle{Color: th.Text, Width: vg.Points(2)}
	labels := make([]string, len(groups))
	for i, g := range groups {
		labels[i] = g.Key.String()
		if len(g.Values) == 0 {
			continue
		}
		pos := float64(i)

		if body := violinOutline(g.Values, pos); body != nil {
			poly, err := plotter.NewPolygon(body)
			if err != nil {
				return nil, fmt.Errorf("failed to create violin %q: %w", labels[i], err)
			}
			poly.Color = withAlpha(th.Color(0), 0.7)
			poly.LineStyle = draw.LineStyle{Color: th.Text, Width: vg.Points(1)}
			p.Add(poly)
		}

		lo, hi := floats.Min(g.Values), floats.Max(g.Values)
		mean := stat.Mean(g.Values, nil)
		segments := []plotter.XYs{
			{{X: pos, Y: lo}, {X: pos, Y: hi}},
			{{X: pos - 0.1, Y: lo}, {X: pos + 0.1, Y: lo}},
			{{X: pos - 0.1, Y: hi}, {X: pos + 0.1, Y: hi}},
			{{X: pos - 0.1, Y: mean}, {X: pos + 0.1, Y: mean}},
		}
		for _, seg := range segments {
			l, err := plotter.NewLine(seg)
			if err != nil {
				return nil, fmt.Errorf("failed to create violin marker: %w", err)
			}
			l.LineStyle = edge
			p.Add(l)
		}
	}

	p.NominalX(labels...)
	rotateXTicks(p)
	setAxisLabels(p, m.X, m.Y)
	return renderPlot(p, th)
}

// violinOutline estimates the density of values with a Gaussian kernel and
// Scott's bandwidth, and mirrors it around pos. It returns nil when the
// values have no spread.
func violinOutline(values []float64, pos float64) plotter.XYs {
	if len(values) < 2 {
		return nil
	}
	sd := stat.StdDev(values, nil)
	if sd == 0 || math.IsNaN(sd) {
		return nil
	}
	bw := sd * math.Pow(float64(len(values)), -0.2)
	kernel := distuv.Normal{Mu: 0, Sigma: bw}

	lo, hi := floats.Min(values), floats.Max(values)
	ys := make([]float64, kdePoints)
	dens := make([]float64, kdePoints)
	floats.Span(ys, lo, hi)
	for i, y := range ys {
		for _, v := range values {
			dens[i] += kernel.Prob(y - v)
		}
		dens[i] /= float64(len(values))
	}
	peak := floats.Max(dens)
	if peak <= 0 {
		return nil
	}

	out := make(plotter.XYs, 0, 2*kdePoints)
	for i := range ys {
		out = append(out, plotter.XY{X: pos + dens[i]/peak*violinHalfWidth, Y: ys[i]})
	}
	for i := kdePoints - 1; i >= 0; i-- {
		out = append(out, plotter.XY{X: pos - dens[i]/peak*violinHalfWidth, Y: ys[i]})
	}
	return out
}
