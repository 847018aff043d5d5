package report

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/yourusername/graph-generation-service/pkg/model"
)

func pngChart(t *testing.T, id string) model.RenderedChart {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 60))
	for x := 0; x < 100; x++ {
		for y := 0; y < 60; y++ {
			img.Set(x, y, color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return model.RenderedChart{
		ID:    id,
		Title: "Chart " + id,
		Type:  "bar",
		Image: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}
}

func TestBuild(t *testing.T) {
	generated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		title         string
		charts        []model.RenderedChart
		wantPages     int
		expectError   bool
		errorContains string
	}{
		{
			name:      "no charts yields notice page",
			title:     "Dashboard",
			charts:    nil,
			wantPages: 1,
		},
		{
			name:      "two charts share a page",
			title:     "Dashboard",
			charts:    []model.RenderedChart{pngChart(t, "1"), pngChart(t, "2")},
			wantPages: 1,
		},
		{
			name:      "three charts need two pages",
			title:     "Dashboard",
			charts:    []model.RenderedChart{pngChart(t, "1"), pngChart(t, "2"), pngChart(t, "3")},
			wantPages: 2,
		},
		{
			name:      "non-ascii titles",
			title:     "Umsätze € Übersicht",
			charts:    []model.RenderedChart{withTitle(pngChart(t, "1"), "Größe – Q1")},
			wantPages: 1,
		},
		{
			name:          "bad image encoding",
			title:         "Dashboard",
			charts:        []model.RenderedChart{{ID: "x", Image: "%%%"}},
			expectError:   true,
			errorContains: "invalid image encoding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Build(tt.title, tt.charts, generated)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("error %q does not contain %q", err, tt.errorContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.HasPrefix(out, []byte("%PDF-")) {
				t.Fatalf("output does not start with a PDF header")
			}
			if got := bytes.Count(out, []byte("/Type /Page\n")); got != tt.wantPages {
				t.Errorf("got %d pages, want %d", got, tt.wantPages)
			}
		})
	}
}

func withTitle(c model.RenderedChart, title string) model.RenderedChart {
	c.Title = title
	return c
}

func TestCoreFontTranslation(t *testing.T) {
	toPage := gofpdf.New("L", "mm", "A4", "").UnicodeTranslatorFromDescriptor("")
	tests := []struct {
		in   string
		want string
	}{
		{"Revenue", "Revenue"},
		{"Umsätze", "Ums\xe4tze"},
		{"€ 5", "\x80 5"},
		{"Größe – Q1", "Gr\xf6\xdfe \x96 Q1"},
	}
	for _, tt := range tests {
		if got := toPage(tt.in); got != tt.want {
			t.Errorf("toPage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
