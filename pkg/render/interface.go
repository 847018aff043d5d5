package render

import (
	"errors"
	"sort"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

var (
	// ErrUnsupportedType is returned for chart type tags with no renderer
	ErrUnsupportedType = errors.New("unsupported chart type")
	// ErrNoData is returned when the mapped columns leave nothing to draw
	ErrNoData = errors.New("no data to plot")
)

// Renderer draws one chart from the shared read-only table and returns the
// encoded PNG. The spec has already been through ChartSpec.WithDefaults.
type Renderer func(tbl *table.Table, spec model.ChartSpec, theme Theme) ([]byte, error)

// Registry maps chart type tags to renderers
type Registry map[string]Renderer

// NewRegistry returns the closed set of recognized chart types
func NewRegistry() Registry {
	return Registry{
		"bar":          renderBar,
		"column":       renderBar,
		"line":         renderLine,
		"pie":          renderPie,
		"donut":        renderDonut,
		"histogram":    renderHistogram,
		"scatter":      renderScatter,
		"boxplot":      renderBoxplot,
		"heatmap":      renderHeatmap,
		"kpi":          renderKPI,
		"card":         renderKPI,
		"area":         renderArea,
		"stacked_area": renderStackedArea,
		"bubble":       renderBubble,
		"waterfall":    renderWaterfall,
		"violin":       renderViolin,
		"treemap":      renderTreemap,
		"radar":        renderRadar,
		"funnel":       renderFunnel,
		"gauge":        renderGauge,
	}
}

// Lookup returns the renderer for a chart type tag
func (r Registry) Lookup(chartType string) (Renderer, bool) {
	fn, ok := r[chartType]
	return fn, ok
}

// Types returns the recognized tags, sorted
func (r Registry) Types() []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
