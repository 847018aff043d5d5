package render

import (
	"bytes"
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

const donutLimit = 8

// pieSlices sums y per x, in key order
func pieSlices(tbl *table.Table, m model.Mapping) ([]table.Aggregated, error) {
	slices, err := tbl.Aggregate(m.X, m.Y, model.AggSum, table.SortedKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate pie data: %w", err)
	}
	return slices, nil
}

// donutSlices keeps the eight largest sums, largest first
func donutSlices(tbl *table.Table, m model.Mapping) ([]table.Aggregated, error) {
	slices, err := pieSlices(tbl, m)
	if err != nil {
		return nil, err
	}
	return table.TopN(slices, donutLimit), nil
}

func renderPie(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	slices, err := pieSlices(tbl, spec.Mapping)
	if err != nil {
		return nil, err
	}
	values, err := pieValues(slices, th)
	if err != nil {
		return nil, err
	}

	w, h := th.PixelSize()
	pc := chart.PieChart{
		Title:      spec.Title,
		TitleStyle: titleStyle(th),
		Width:      w,
		Height:     h,
		DPI:        float64(th.DPI),
		Background: chart.Style{FillColor: drawingColor(th.FigureBackground)},
		Canvas:     chart.Style{FillColor: drawingColor(th.FigureBackground)},
		SliceStyle: sliceStyle(th),
		Values:     values,
	}
	return encodeChart(pc.Render)
}

// renderDonut is a pie of the top eight slices with a hole in the middle
func renderDonut(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	slices, err := donutSlices(tbl, spec.Mapping)
	if err != nil {
		return nil, err
	}
	values, err := pieValues(slices, th)
	if err != nil {
		return nil, err
	}

	w, h := th.PixelSize()
	dc := chart.DonutChart{
		Title:      spec.Title,
		TitleStyle: titleStyle(th),
		Width:      w,
		Height:     h,
		DPI:        float64(th.DPI),
		Background: chart.Style{FillColor: drawingColor(th.FigureBackground)},
		Canvas:     chart.Style{FillColor: drawingColor(th.FigureBackground)},
		SliceStyle: sliceStyle(th),
		Values:     values,
	}
	return encodeChart(dc.Render)
}

// pieValues converts slices to chart values labelled with their share of the total
func pieValues(slices []table.Aggregated, th Theme) ([]chart.Value, error) {
	var total float64
	for _, s := range slices {
		if !math.IsNaN(s.Value) {
			total += s.Value
		}
	}
	if len(slices) == 0 || total <= 0 {
		return nil, ErrNoData
	}

	values := make([]chart.Value, 0, len(slices))
	for i, s := range slices {
		if math.IsNaN(s.Value) || s.Value <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: s.Value,
			Label: fmt.Sprintf("%s %.1f%%", s.Key.String(), s.Value/total*100),
			Style: chart.Style{FillColor: drawingColor(th.Color(i))},
		})
	}
	return values, nil
}

func titleStyle(th Theme) chart.Style {
	return chart.Style{
		FontColor: drawingColor(th.Text),
		FontSize:  float64(th.TitleSize),
	}
}

func sliceStyle(th Theme) chart.Style {
	return chart.Style{
		StrokeColor: drawingColor(th.FigureBackground),
		StrokeWidth: 2,
		FontColor:   drawingColor(th.Text),
		FontSize:    float64(th.TickSize),
	}
}

func encodeChart(render func(chart.RendererProvider, io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}
