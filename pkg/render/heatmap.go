package render

import (
	"fmt"
	"math"

	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

// correlationGrid exposes a square matrix as a plotter.GridXYZ with the
// first row at the top.
type correlationGrid struct {
	m [][]float64
}

func (g correlationGrid) Dims() (c, r int)   { return len(g.m), len(g.m) }
func (g correlationGrid) Z(c, r int) float64 { return g.m[len(g.m)-1-r][c] }
func (g correlationGrid) X(c int) float64    { return float64(c) }
func (g correlationGrid) Y(r int) float64    { return float64(r) }

// renderHeatmap draws the correlation matrix of every numeric column in the
// table, annotated with two-decimal coefficients. The x/y mapping is ignored.
func renderHeatmap(tbl *table.Table, spec model.ChartSpec, th Theme) ([]byte, error) {
	names, corr := tbl.CorrelationMatrix()
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no numeric columns", ErrNoData)
	}

	cm := moreland.Kindlmann()
	cm.SetMax(1)
	cm.SetMin(0)
	hm := plotter.NewHeatMap(correlationGrid{m: corr}, cm.Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = th.AxesBackground

	p := newPlot(th, spec.Title)
	p.Add(hm)

	n := len(names)
	var pts plotter.XYs
	var labels []string
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			v := corr[r][c]
			if math.IsNaN(v) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(c), Y: float64(n - 1 - r)})
			labels = append(labels, fmt.Sprintf("%.2f", v))
		}
	}
	if len(pts) > 0 {
		lbl, err := labelsAt(pts, labels, th.TextStyle(th.TickSize, true))
		if err != nil {
			return nil, err
		}
		p.Add(lbl)
	}

	rev := make([]string, n)
	for i, name := range names {
		rev[n-1-i] = name
	}
	p.NominalX(names...)
	p.NominalY(rev...)
	rotateXTicks(p)
	p.X.Min, p.X.Max = -0.5, float64(n)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(n)-0.5
	return renderPlot(p, th)
}
