package render

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/grafana/grafana-plugin-sdk-go/backend/log"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

// DefaultMaxConcurrentRenders bounds the render pool when no limit is configured
const DefaultMaxConcurrentRenders = 4

// unknownType labels the metrics of chart types outside the registry
const unknownType = "unknown"

var errPanic = errors.New("renderer panicked")

// Observer is notified of every chart outcome. *metrics.Metrics implements it.
type Observer interface {
	ChartRendered(chartType string, elapsed time.Duration)
	ChartFailed(chartType, reason string)
}

type nopObserver struct{}

func (nopObserver) ChartRendered(string, time.Duration) {}
func (nopObserver) ChartFailed(string, string)          {}

// Dispatcher renders batches of chart specs against a shared table. The
// worker pool is shared by every request served by the dispatcher.
type Dispatcher struct {
	registry   Registry
	theme      Theme
	logger     log.Logger
	observer   Observer
	workerPool chan struct{}
	timeout    time.Duration
}

// NewDispatcher creates a dispatcher with the dark theme and the full registry.
// A nil logger uses the SDK default logger and a nil observer records nothing.
func NewDispatcher(cfg model.RendererConfig, logger log.Logger, observer Observer) *Dispatcher {
	maxConcurrent := cfg.MaxConcurrentRenders
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRenders
	}
	if logger == nil {
		logger = log.DefaultLogger
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Dispatcher{
		registry:   NewRegistry(),
		theme:      DarkTheme(),
		logger:     logger,
		observer:   observer,
		workerPool: make(chan struct{}, maxConcurrent),
		timeout:    time.Duration(cfg.TimeoutMS) * time.Millisecond,
	}
}

// Types returns the chart types the dispatcher recognizes
func (d *Dispatcher) Types() []string {
	return d.registry.Types()
}

// Render draws every spec and returns the charts that rendered, in spec order.
// Specs with an unknown type or a failing renderer are logged and left out.
// Once ctx is done, specs that have not started are skipped.
func (d *Dispatcher) Render(ctx context.Context, tbl *table.Table, specs []model.ChartSpec) []model.RenderedChart {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	results := make([]*model.RenderedChart, len(specs))
	var wg sync.WaitGroup

dispatch:
	for i, spec := range specs {
		select {
		case d.workerPool <- struct{}{}:
		case <-ctx.Done():
			for _, skipped := range specs[i:] {
				d.observer.ChartFailed(d.typeLabel(skipped.Type), "cancelled")
			}
			d.logger.Warn("Render cancelled", "skipped", len(specs)-i, "error", ctx.Err())
			break dispatch
		}

		wg.Add(1)
		go func(i int, spec model.ChartSpec) {
			defer wg.Done()
			defer func() { <-d.workerPool }()

			if ctx.Err() != nil {
				d.observer.ChartFailed(d.typeLabel(spec.Type), "cancelled")
				return
			}
			chart, err := d.renderOne(tbl, spec)
			if err != nil {
				return
			}
			results[i] = chart
		}(i, spec)
	}
	wg.Wait()

	charts := make([]model.RenderedChart, 0, len(specs))
	for _, c := range results {
		if c != nil {
			charts = append(charts, *c)
		}
	}
	return charts
}

// renderOne runs a single renderer and records the outcome
func (d *Dispatcher) renderOne(tbl *table.Table, spec model.ChartSpec) (*model.RenderedChart, error) {
	spec = spec.WithDefaults()
	start := time.Now()
	img, err := d.RenderChart(tbl, spec)
	elapsed := time.Since(start)
	if err != nil {
		reason := FailureReason(err)
		d.observer.ChartFailed(d.typeLabel(spec.Type), reason)
		if reason == "unsupported_type" {
			d.logger.Debug("Skipping chart", "chartId", spec.ID, "chartType", spec.Type)
		} else {
			d.logger.Error("Failed to render chart", "chartId", spec.ID, "chartType", spec.Type, "error", err)
		}
		return nil, err
	}

	d.observer.ChartRendered(spec.Type, elapsed)
	d.logger.Debug("Rendered chart", "chartId", spec.ID, "chartType", spec.Type, "bytes", len(img), "duration", elapsed)
	return &model.RenderedChart{
		ID:    spec.ID,
		Title: spec.Title,
		Type:  spec.Type,
		Image: base64.StdEncoding.EncodeToString(img),
	}, nil
}

// RenderChart renders one spec to PNG bytes. A panicking renderer is
// reported as an error.
func (d *Dispatcher) RenderChart(tbl *table.Table, spec model.ChartSpec) (img []byte, err error) {
	fn, ok := d.registry.Lookup(spec.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, spec.Type)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Debug("Renderer panic", "chartType", spec.Type, "stack", string(debug.Stack()))
			img, err = nil, fmt.Errorf("%w: %v", errPanic, r)
		}
	}()
	return fn(tbl, spec.WithDefaults(), d.theme)
}

// Reject records specs that never reached a renderer because they could not
// be decoded. They count as failures with reason "error".
func (d *Dispatcher) Reject(specs []model.SpecError) {
	for _, se := range specs {
		d.observer.ChartFailed(d.typeLabel(se.Type), "error")
		d.logger.Error("Failed to decode chart spec", "index", se.Index, "chartType", se.Type, "error", se.Err)
	}
}

// typeLabel returns chartType when it is registered and "unknown" otherwise,
// which keeps the set of metric label values closed.
func (d *Dispatcher) typeLabel(chartType string) string {
	if _, ok := d.registry.Lookup(chartType); ok {
		return chartType
	}
	return unknownType
}

// FailureReason classifies a render error for metrics labels
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, table.ErrColumnNotFound):
		return "column_not_found"
	case errors.Is(err, table.ErrNotNumeric):
		return "not_numeric"
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.Is(err, errPanic):
		return "panic"
	default:
		return "error"
	}
}
