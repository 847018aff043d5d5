package cli

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grafana/grafana-plugin-sdk-go/backend"

	"github.com/yourusername/graph-generation-service/pkg/config"
	"github.com/yourusername/graph-generation-service/pkg/model"
)

const requestFile = `{
	"data": [
		{"month": "2024-01", "revenue": 120, "units": 4},
		{"month": "2024-02", "revenue": 90, "units": 7},
		{"month": "2024-03", "revenue": 150, "units": 5}
	],
	"charts": [
		{"id": "revenue/line", "title": "Revenue", "type": "line", "mapping": {"x": "month", "y": "revenue"}},
		{"id": "units", "type": "kpi", "mapping": {"y": "units", "aggregation": "sum"}},
		{"id": "broken", "type": "bar", "mapping": {"x": "month", "y": "profit"}}
	]
}`

func writeRequest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "request.json")
	if err := os.WriteFile(path, []byte(requestFile), 0644); err != nil {
		t.Fatalf("failed to write request: %v", err)
	}
	return path
}

func TestApp_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	if err := app.ExecuteWithArgs(context.Background(), []string{"version"}); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "graphgen version") {
		t.Errorf("unexpected version output: %s", stdout.String())
	}
}

func TestApp_Types(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	if err := app.ExecuteWithArgs(context.Background(), []string{"types"}); err != nil {
		t.Fatalf("types command failed: %v", err)
	}
	lines := strings.Fields(stdout.String())
	if len(lines) != 20 {
		t.Errorf("got %d types, want 20", len(lines))
	}
	if lines[0] != "area" {
		t.Errorf("first type = %q, want area", lines[0])
	}
}

func TestApp_RenderPNG(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "charts")
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"render", "--request", writeRequest(t), "--out", outDir})
	if err != nil {
		t.Fatalf("render command failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "rendered 2 of 3 charts") {
		t.Errorf("unexpected summary: %s", stdout.String())
	}

	for _, name := range []string{"revenue_line.png", "units.png"} {
		f, err := os.Open(filepath.Join(outDir, name))
		if err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
		if _, err := png.Decode(f); err != nil {
			t.Errorf("%s is not a png: %v", name, err)
		}
		f.Close()
	}
}

func TestApp_RenderPDF(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "report.pdf")
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"render", "-r", writeRequest(t), "--pdf", pdfPath, "--title", "Monthly"})
	if err != nil {
		t.Fatalf("render command failed: %v", err)
	}
	b, err := os.ReadFile(pdfPath)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}

func TestApp_RenderErrors(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(empty, []byte(`{"data": [], "charts": []}`), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		args          []string
		errorContains string
	}{
		{
			name:          "missing request flag",
			args:          []string{"render"},
			errorContains: "request",
		},
		{
			name:          "empty request",
			args:          []string{"render", "--request", empty},
			errorContains: model.ErrMissingInput.Error(),
		},
		{
			name:          "unknown data format",
			args:          []string{"render", "--request", empty, "--data", "rows.parquet"},
			errorContains: "rows.parquet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			app := New().WithOutput(&stdout, &stderr)
			err := app.ExecuteWithArgs(context.Background(), tt.args)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("error %q does not contain %q", err, tt.errorContains)
			}
		})
	}
}

func TestChartFileName(t *testing.T) {
	tests := []struct {
		id       string
		index    int
		expected string
	}{
		{"revenue", 0, "revenue.png"},
		{"../etc/passwd", 0, "___etc_passwd.png"},
		{"", 2, "chart-3.png"},
		{"///", 0, "chart-1.png"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := chartFileName(model.RenderedChart{ID: tt.id}, tt.index)
			if got != tt.expected {
				t.Errorf("chartFileName(%q) = %q, want %q", tt.id, got, tt.expected)
			}
		})
	}
}

func TestPluginFactory(t *testing.T) {
	factory := pluginFactory(config.Default())

	tests := []struct {
		name     string
		jsonData string
		wantErr  bool
	}{
		{name: "no settings"},
		{name: "renderer override", jsonData: `{"renderer": {"max_concurrent_renders": 1}}`},
		{name: "malformed settings", jsonData: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := factory(context.Background(), backend.AppInstanceSettings{JSONData: []byte(tt.jsonData)})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			p, ok := inst.(*pluginInstance)
			if !ok {
				t.Fatalf("instance is %T", inst)
			}
			rec := httptest.NewRecorder()
			p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != http.StatusOK {
				t.Errorf("health status = %d", rec.Code)
			}
		})
	}
}
