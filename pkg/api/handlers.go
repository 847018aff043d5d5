package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/grafana/grafana-plugin-sdk-go/backend/resource/httpadapter"

	"github.com/yourusername/graph-generation-service/pkg/metrics"
	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/render"
	"github.com/yourusername/graph-generation-service/pkg/report"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

// ServiceName is reported by the health endpoint
const ServiceName = "graph-generation"

// DefaultReportTitle heads a PDF report when the caller gives no title
const DefaultReportTitle = "Dashboard Report"

// Handler handles HTTP API requests
type Handler struct {
	dispatcher *render.Dispatcher
	metrics    *metrics.Metrics
	logger     log.Logger
	limits     model.Limits
	mux        *http.ServeMux
	now        func() time.Time
}

// NewHandler creates a new API handler
func NewHandler(dispatcher *render.Dispatcher, m *metrics.Metrics, limits model.Limits, logger log.Logger) *Handler {
	if logger == nil {
		logger = log.DefaultLogger
	}
	h := &Handler{
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
		limits:     limits,
		mux:        http.NewServeMux(),
		now:        time.Now,
	}

	h.registerRoutes()
	return h
}

// registerRoutes registers all HTTP routes
func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("/health", h.instrument("health", h.handleHealth))
	h.mux.HandleFunc("/generate-graphs", h.instrument("generate-graphs", h.handleGenerateGraphs))
	h.mux.HandleFunc("/generate-report", h.instrument("generate-report", h.handleGenerateReport))
	h.mux.HandleFunc("/chart-types", h.instrument("chart-types", h.handleChartTypes))
	h.mux.Handle("/metrics", h.metrics.Handler())
}

// ServeHTTP implements http.Handler with CORS applied to every route
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.applyCORS(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.mux.ServeHTTP(w, r)
}

// CallResource implements backend.CallResourceHandler so the same routes are
// served as resources when running as a Grafana app plugin
func (h *Handler) CallResource(ctx context.Context, req *backend.CallResourceRequest, sender backend.CallResourceResponseSender) error {
	adapter := httpadapter.New(h)
	return adapter.CallResource(ctx, req, sender)
}

// handleHealth handles GET /health
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, model.HealthResponse{Status: "healthy", Service: ServiceName})
}

// handleChartTypes handles GET /chart-types
func (h *Handler) handleChartTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"types": h.dispatcher.Types()})
}

// handleGenerateGraphs handles POST /generate-graphs
func (h *Handler) handleGenerateGraphs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	charts, requested, ok := h.renderRequest(w, r)
	if !ok {
		return
	}
	h.logger.Info("Generated charts", "requestId", requestID(w), "requested", requested, "total", len(charts))
	respondJSON(w, http.StatusOK, model.GenerateResponse{
		Success: true,
		Charts:  charts,
		Total:   len(charts),
	})
}

// handleGenerateReport handles POST /generate-report
func (h *Handler) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	charts, requested, ok := h.renderRequest(w, r)
	if !ok {
		return
	}

	title := r.URL.Query().Get("title")
	if title == "" {
		title = DefaultReportTitle
	}
	pdf, err := report.Build(title, charts, h.now())
	if err != nil {
		h.logger.Error("Failed to build report", "requestId", requestID(w), "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("Generated report", "requestId", requestID(w), "requested", requested, "total", len(charts), "bytes", len(pdf))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="report.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// renderRequest decodes a generate request and renders its charts. On a
// request-level failure the error response is written and ok is false.
func (h *Handler) renderRequest(w http.ResponseWriter, r *http.Request) (charts []model.RenderedChart, requested int, ok bool) {
	maxBytes := int64(h.limits.MaxBodyMB) << 20
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	req, skipped, err := model.DecodeRequest(r.Body)
	if errors.Is(err, model.ErrMissingInput) {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, 0, false
	}
	if err != nil {
		h.logger.Warn("Failed to decode request", "requestId", requestID(w), "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return nil, 0, false
	}
	h.dispatcher.Reject(skipped)

	tbl, err := table.FromRecords(req.Data)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build table: %v", err))
		return nil, 0, false
	}

	start := time.Now()
	charts = h.dispatcher.Render(r.Context(), tbl, req.Charts)
	h.logger.Debug("Rendered request", "requestId", requestID(w), "rows", tbl.Rows(), "duration", time.Since(start))
	return charts, len(req.Charts) + len(skipped), true
}

// applyCORS sets the allow-origin headers for configured origins
func (h *Handler) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	for _, allowed := range h.limits.AllowedOrigins {
		if allowed == "*" || (origin != "" && allowed == origin) {
			if allowed == "*" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			return
		}
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument tags the response with a request ID and counts it by endpoint and status
func (h *Handler) instrument(endpoint string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", uuid.NewString())
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r)
		h.metrics.RequestHandled(endpoint, rec.status)
	}
}

func requestID(w http.ResponseWriter) string {
	return w.Header().Get("X-Request-ID")
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, model.ErrorResponse{Success: false, Error: msg})
}
