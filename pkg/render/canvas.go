package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"unicode"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// drawContext is the canvas one chart is drawn on. Every render call
// acquires its own, so charts never share drawing state.
type drawContext struct {
	theme  Theme
	canvas *vgimg.Canvas
}

func newDrawContext(th Theme) *drawContext {
	c := vgimg.NewWith(
		vgimg.UseWH(th.Width, th.Height),
		vgimg.UseDPI(th.DPI),
		vgimg.UseBackgroundColor(th.FigureBackground),
	)
	return &drawContext{theme: th, canvas: c}
}

// renderPlot draws p on a fresh canvas and returns the PNG bytes
func renderPlot(p *plot.Plot, th Theme) ([]byte, error) {
	dc := newDrawContext(th)
	p.Draw(draw.New(dc.canvas))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: dc.canvas}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// newPlot creates a plot with the theme's background, title and axis styles
func newPlot(th Theme, title string) *plot.Plot {
	p := plot.New()
	p.BackgroundColor = th.FigureBackground

	p.Title.Text = title
	p.Title.TextStyle.Color = th.Text
	p.Title.TextStyle.Font = th.Font(th.TitleSize, true)
	p.Title.Padding = vg.Points(15)

	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.LineStyle.Color = th.AxesEdge
		ax.LineStyle.Width = vg.Points(1.5)
		ax.Label.TextStyle.Color = th.Text
		ax.Label.TextStyle.Font = th.Font(th.LabelSize, true)
		ax.Tick.Label.Color = th.Text
		ax.Tick.Label.Font = th.Font(th.TickSize, false)
		ax.Tick.LineStyle.Color = th.AxesEdge
	}

	p.Legend.TextStyle.Color = th.Text
	p.Legend.TextStyle.Font = th.Font(th.TickSize, false)
	p.Legend.Top = true
	return p
}

// newAxesPlot is newPlot plus the axes background panel and dashed grid
func newAxesPlot(th Theme, title string, vertical, horizontal bool) *plot.Plot {
	p := newPlot(th, title)
	p.Add(axesPanel{fill: th.AxesBackground, edge: th.AxesEdge})

	grid := plotter.NewGrid()
	gridStyle := draw.LineStyle{
		Color:  th.Grid,
		Width:  vg.Points(0.8),
		Dashes: []vg.Length{vg.Points(4), vg.Points(2)},
	}
	grid.Vertical = gridStyle
	grid.Horizontal = gridStyle
	if !vertical {
		grid.Vertical.Color = nil
	}
	if !horizontal {
		grid.Horizontal.Color = nil
	}
	p.Add(grid)
	return p
}

// setAxisLabels labels both axes with title-cased column names
func setAxisLabels(p *plot.Plot, x, y string) {
	p.X.Label.Text = titleCase(x)
	p.Y.Label.Text = titleCase(y)
}

// rotateXTicks tilts x tick labels by 45 degrees, right aligned
func rotateXTicks(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
}

// fitAspect sets the data ranges so one x unit and one y unit cover the
// same distance on the canvas, which keeps circles round.
func fitAspect(p *plot.Plot, th Theme, xmin, xmax, ymin, ymax float64) {
	titleSpace := vg.Length(0)
	if p.Title.Text != "" {
		titleSpace = th.TitleSize*1.3 + p.Title.Padding
	}
	ratio := float64(th.Width) / float64(th.Height-titleSpace)

	dx, dy := xmax-xmin, ymax-ymin
	if dx/dy < ratio {
		cx, half := (xmin+xmax)/2, dy*ratio/2
		xmin, xmax = cx-half, cx+half
	} else {
		cy, half := (ymin+ymax)/2, dx/ratio/2
		ymin, ymax = cy-half, cy+half
	}
	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = ymin, ymax
}

// axesPanel fills and outlines the data area
type axesPanel struct {
	fill color.Color
	edge color.Color
}

// Plot implements plot.Plotter
func (a axesPanel) Plot(c draw.Canvas, _ *plot.Plot) {
	c.SetColor(a.fill)
	c.Fill(c.Rectangle.Path())

	border := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Max.X, Y: c.Min.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Min.X, Y: c.Min.Y},
	}
	c.StrokeLines(draw.LineStyle{Color: a.edge, Width: vg.Points(1.5)}, border)
}

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest, so "total_revenue" becomes "Total_Revenue".
func titleCase(s string) string {
	out := make([]rune, 0, len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				out = append(out, unicode.ToLower(r))
			} else {
				out = append(out, unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		out = append(out, r)
		prevLetter = false
	}
	return string(out)
}
