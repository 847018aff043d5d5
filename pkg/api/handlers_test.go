package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yourusername/graph-generation-service/pkg/metrics"
	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/render"
)

func newTestHandler(t *testing.T, limits model.Limits) (*Handler, *metrics.Metrics) {
	t.Helper()
	if limits.MaxBodyMB == 0 {
		limits.MaxBodyMB = 1
	}
	m := metrics.New()
	d := render.NewDispatcher(model.RendererConfig{MaxConcurrentRenders: 2}, nil, m)
	return NewHandler(d, m, limits, nil), m
}

const barRequest = `{
	"data": [
		{"region": "north", "revenue": 100},
		{"region": "south", "revenue": 250},
		{"region": "north", "revenue": 50}
	],
	"charts": [
		{"id": "chart-1", "title": "Revenue by Region", "type": "bar",
		 "mapping": {"x": "region", "y": "revenue", "aggregation": "sum"}}
	]
}`

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t, model.Limits{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got model.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if diff := cmp.Diff(model.HealthResponse{Status: "healthy", Service: "graph-generation"}, got); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestGenerateGraphsRoundTrip(t *testing.T) {
	h, m := newTestHandler(t, model.Limits{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate-graphs", strings.NewReader(barRequest)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp model.GenerateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !resp.Success || resp.Total != 1 || len(resp.Charts) != 1 {
		t.Fatalf("unexpected response: success=%v total=%d charts=%d", resp.Success, resp.Total, len(resp.Charts))
	}

	c := resp.Charts[0]
	if c.ID != "chart-1" || c.Title != "Revenue by Region" || c.Type != "bar" {
		t.Errorf("chart echo = {%s %s %s}", c.ID, c.Title, c.Type)
	}
	raw, err := base64.StdEncoding.DecodeString(c.Image)
	if err != nil {
		t.Fatalf("image is not base64: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Errorf("image is not a png: %v", err)
	}

	n, err := testutil.GatherAndCount(m.Registry(), "graphgen_charts_rendered_total")
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	if n != 1 {
		t.Errorf("rendered series = %d, want 1", n)
	}
}

func TestGenerateGraphsPartialSuccess(t *testing.T) {
	h, _ := newTestHandler(t, model.Limits{})
	body := `{
		"data": [{"region": "north", "revenue": 100}],
		"charts": [
			{"id": "ok", "type": "pie", "mapping": {"x": "region", "y": "revenue"}},
			{"id": "unknown", "type": "sankey", "mapping": {"x": "region", "y": "revenue"}},
			{"id": "missing", "type": "bar", "mapping": {"x": "region", "y": "profit"}}
		]
	}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate-graphs", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp model.GenerateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Total != 1 || resp.Charts[0].ID != "ok" {
		t.Errorf("got total %d, want only the pie chart", resp.Total)
	}
	if resp.Charts[0].Title != model.DefaultTitle {
		t.Errorf("title = %q, want %q", resp.Charts[0].Title, model.DefaultTitle)
	}
}

func TestGenerateGraphsSkipsUndecodableSpec(t *testing.T) {
	h, m := newTestHandler(t, model.Limits{})
	body := `{
		"data": [{"region": "north", "revenue": 100}],
		"charts": [
			{"id": "bad", "type": "bar", "mapping": {"x": 5, "y": "revenue"}},
			{"id": "total", "type": "kpi", "mapping": {"y": "revenue"}}
		]
	}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate-graphs", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp model.GenerateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Total != 1 || resp.Charts[0].ID != "total" {
		t.Fatalf("got total %d, want only the kpi chart", resp.Total)
	}

	expected := `
# HELP graphgen_chart_failures_total Charts dropped from a response, by chart type and reason.
# TYPE graphgen_chart_failures_total counter
graphgen_chart_failures_total{reason="error",type="bar"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "graphgen_chart_failures_total"); err != nil {
		t.Error(err)
	}
}

func TestFailureMetricLabelsUnknownTypes(t *testing.T) {
	h, m := newTestHandler(t, model.Limits{})
	body := `{
		"data": [{"region": "north", "revenue": 100}],
		"charts": [
			{"id": "1", "type": "sankey", "mapping": {"x": "region", "y": "revenue"}},
			{"id": "2", "type": "gantt", "mapping": {"x": "region", "y": "revenue"}}
		]
	}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate-graphs", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	count, err := testutil.GatherAndCount(m.Registry(), "graphgen_chart_failures_total")
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if count != 1 {
		t.Errorf("got %d failure series, want 1", count)
	}

	expected := `
# HELP graphgen_chart_failures_total Charts dropped from a response, by chart type and reason.
# TYPE graphgen_chart_failures_total counter
graphgen_chart_failures_total{reason="unsupported_type",type="unknown"} 2
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "graphgen_chart_failures_total"); err != nil {
		t.Error(err)
	}
}

func TestGenerateGraphsErrors(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		body          string
		maxBodyMB     int
		wantStatus    int
		errorContains string
	}{
		{
			name:          "empty data",
			method:        http.MethodPost,
			body:          `{"data": [], "charts": [{"id": "1", "type": "bar"}]}`,
			wantStatus:    http.StatusBadRequest,
			errorContains: "Missing data or chart specifications",
		},
		{
			name:          "missing charts",
			method:        http.MethodPost,
			body:          `{"data": [{"a": 1}]}`,
			wantStatus:    http.StatusBadRequest,
			errorContains: "Missing data or chart specifications",
		},
		{
			name:          "empty object",
			method:        http.MethodPost,
			body:          `{}`,
			wantStatus:    http.StatusBadRequest,
			errorContains: "Missing data or chart specifications",
		},
		{
			name:          "empty data with malformed charts",
			method:        http.MethodPost,
			body:          `{"data": [], "charts": {"id": "1"}}`,
			wantStatus:    http.StatusBadRequest,
			errorContains: "Missing data or chart specifications",
		},
		{
			name:          "empty data with mistyped spec",
			method:        http.MethodPost,
			body:          `{"data": [], "charts": [{"id": 7}]}`,
			wantStatus:    http.StatusBadRequest,
			errorContains: "Missing data or chart specifications",
		},
		{
			name:          "charts is not a list",
			method:        http.MethodPost,
			body:          `{"data": [{"a": 1}], "charts": {"id": "1"}}`,
			wantStatus:    http.StatusInternalServerError,
			errorContains: "charts:",
		},
		{
			name:       "malformed json",
			method:     http.MethodPost,
			body:       `{"data": [`,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:          "record is not an object",
			method:        http.MethodPost,
			body:          `{"data": [1, 2], "charts": [{"id": "1", "type": "bar"}]}`,
			wantStatus:    http.StatusInternalServerError,
			errorContains: "record must be a JSON object",
		},
		{
			name:       "wrong method",
			method:     http.MethodGet,
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, model.Limits{MaxBodyMB: tt.maxBodyMB})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/generate-graphs", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var resp model.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if resp.Success {
				t.Error("success = true on error response")
			}
			if !strings.Contains(resp.Error, tt.errorContains) {
				t.Errorf("error %q does not contain %q", resp.Error, tt.errorContains)
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	h, _ := newTestHandler(t, model.Limits{MaxBodyMB: 1})
	big := `{"data": [{"note": "` + strings.Repeat("x", 2<<20) + `"}], "charts": [{"id": "1", "type": "kpi"}]}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate-graphs", strings.NewReader(big)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestGenerateReport(t *testing.T) {
	h, _ := newTestHandler(t, model.Limits{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate-report?title=Sales", strings.NewReader(barRequest)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q, want application/pdf", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
}

func TestChartTypes(t *testing.T) {
	h, _ := newTestHandler(t, model.Limits{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart-types", nil))

	var resp struct {
		Types []string `json:"types"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(resp.Types) != 20 {
		t.Errorf("got %d types, want 20", len(resp.Types))
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		origin     string
		wantHeader string
	}{
		{"wildcard", []string{"*"}, "http://app.local", "*"},
		{"listed origin", []string{"http://app.local"}, "http://app.local", "http://app.local"},
		{"unlisted origin", []string{"http://app.local"}, "http://evil.local", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, model.Limits{AllowedOrigins: tt.allowed})
			req := httptest.NewRequest(http.MethodOptions, "/generate-graphs", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusNoContent {
				t.Errorf("status = %d, want 204", rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantHeader {
				t.Errorf("allow origin = %q, want %q", got, tt.wantHeader)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, model.Limits{})
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/generate-graphs", strings.NewReader(barRequest)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`graphgen_charts_rendered_total{type="bar"} 1`,
		`graphgen_requests_total{code="200",endpoint="generate-graphs"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
