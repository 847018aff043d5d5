// Package report lays rendered charts out as a PDF dashboard.
package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/yourusername/graph-generation-service/pkg/model"
)

const (
	pageMargin    = 10.0 // mm
	chartsPerPage = 2
	gutter        = 8.0
	headerHeight  = 14.0
	captionHeight = 8.0
	// EmptyNotice is printed when no chart rendered
	EmptyNotice = "No charts could be rendered"
)

// rgb is a PDF fill or text color
type rgb struct{ r, g, b int }

var (
	pageBackground = rgb{0x1a, 0x1a, 0x2e}
	textColor      = rgb{0xe5, 0xe7, 0xeb}
	mutedColor     = rgb{0x9c, 0xa3, 0xaf}
)

// Build renders charts into a landscape A4 PDF with two charts per page,
// each under its title. An empty chart list yields a single page carrying
// EmptyNotice.
func Build(title string, charts []model.RenderedChart, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)

	// The core fonts use cp1252; characters outside it print as '.'.
	// The translator is not safe for concurrent use, so each document has its own.
	toPage := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	heading := toPage(title)
	pdf.SetHeaderFunc(func() {
		pdf.SetFillColor(pageBackground.r, pageBackground.g, pageBackground.b)
		pdf.Rect(0, 0, pageW, pageH, "F")

		pdf.SetXY(pageMargin, pageMargin)
		pdf.SetFont("Helvetica", "B", 16)
		pdf.SetTextColor(textColor.r, textColor.g, textColor.b)
		pdf.CellFormat(pageW-2*pageMargin, headerHeight/2, heading, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(mutedColor.r, mutedColor.g, mutedColor.b)
		stamp := fmt.Sprintf("Generated %s", generatedAt.UTC().Format(time.RFC1123))
		pdf.CellFormat(pageW-2*pageMargin, headerHeight/2, stamp, "", 1, "L", false, 0, "")
	})
	pdf.SetFooterFunc(func() {
		pdf.SetXY(pageMargin, pageH-pageMargin)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(mutedColor.r, mutedColor.g, mutedColor.b)
		pdf.CellFormat(pageW-2*pageMargin, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	if len(charts) == 0 {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(textColor.r, textColor.g, textColor.b)
		pdf.SetXY(pageMargin, pageH/2)
		pdf.CellFormat(pageW-2*pageMargin, 10, EmptyNotice, "", 0, "C", false, 0, "")
		return output(pdf)
	}

	// two side-by-side slots, sized to keep the charts' 10:6 aspect
	slotW := (pageW - 2*pageMargin - gutter) / chartsPerPage
	imgH := slotW * 0.6
	top := pageMargin + headerHeight + gutter

	for i, c := range charts {
		if i%chartsPerPage == 0 {
			pdf.AddPage()
		}
		raw, err := base64.StdEncoding.DecodeString(c.Image)
		if err != nil {
			return nil, fmt.Errorf("chart %q: invalid image encoding: %w", c.ID, err)
		}

		x := pageMargin + float64(i%chartsPerPage)*(slotW+gutter)
		pdf.SetXY(x, top)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(textColor.r, textColor.g, textColor.b)
		pdf.CellFormat(slotW, captionHeight, toPage(c.Title), "", 0, "L", false, 0, "")

		name := fmt.Sprintf("chart-%d", i)
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(raw))
		pdf.ImageOptions(name, x, top+captionHeight, slotW, imgH, false, opts, 0, "")
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("chart %q: failed to add image: %w", c.ID, err)
		}
	}
	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
