package render

import (
	"image/color"

	xfont "golang.org/x/image/font"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Theme is the immutable set of visual constants applied to every chart.
// It is passed by value into each render call.
type Theme struct {
	FigureBackground color.RGBA
	AxesBackground   color.RGBA
	AxesEdge         color.RGBA
	Grid             color.RGBA
	Text             color.RGBA
	Palette          []color.RGBA

	Typeface  font.Typeface
	Variant   font.Variant
	FontSize  vg.Length
	LabelSize vg.Length
	TitleSize vg.Length
	TickSize  vg.Length

	Width  vg.Length
	Height vg.Length
	DPI    int
}

// DarkTheme returns the dark navy/purple theme used for all charts
func DarkTheme() Theme {
	return Theme{
		FigureBackground: hex(0x1a1a2e),
		AxesBackground:   hex(0x16213e),
		AxesEdge:         hex(0x4a5568),
		Grid:             withAlpha(hex(0x374151), 0.3),
		Text:             hex(0xe5e7eb),
		Palette: []color.RGBA{
			hex(0x3b82f6), // blue
			hex(0x9333ea), // purple
			hex(0xec4899), // pink
			hex(0x06b6d4), // cyan
			hex(0x8b5cf6), // violet
			hex(0xf43f5e), // rose
			hex(0x0ea5e9), // sky
			hex(0xd946ef), // fuchsia
			hex(0x10b981), // emerald
			hex(0xf59e0b), // amber
		},
		Typeface:  "Liberation",
		Variant:   "Sans",
		FontSize:  vg.Points(11),
		LabelSize: vg.Points(12),
		TitleSize: vg.Points(14),
		TickSize:  vg.Points(10),
		Width:     10 * vg.Inch,
		Height:    6 * vg.Inch,
		DPI:       100,
	}
}

// Color returns palette entry i, cycling
func (t Theme) Color(i int) color.RGBA {
	return t.Palette[i%len(t.Palette)]
}

// PixelSize returns the canvas size in pixels
func (t Theme) PixelSize() (int, int) {
	return int(float64(t.Width/vg.Inch) * float64(t.DPI)), int(float64(t.Height/vg.Inch) * float64(t.DPI))
}

// Font builds a font of the theme's family
func (t Theme) Font(size vg.Length, bold bool) font.Font {
	f := font.Font{Typeface: t.Typeface, Variant: t.Variant, Size: size}
	if bold {
		f.Weight = xfont.WeightBold
	}
	return f
}

// TextStyle builds a centered text style in the theme's text color
func (t Theme) TextStyle(size vg.Length, bold bool) text.Style {
	return text.Style{
		Color:   t.Text,
		Font:    t.Font(size, bold),
		XAlign:  text.XCenter,
		YAlign:  text.YCenter,
		Handler: plot.DefaultTextHandler,
	}
}

// drawingColor converts a theme color for go-chart
func drawingColor(c color.RGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

func hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// withAlpha returns c with the given opacity. image/color uses
// premultiplied alpha, so the channels are scaled too.
func withAlpha(c color.RGBA, alpha float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: uint8(255 * alpha),
	}
}
