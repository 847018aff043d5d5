package table

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix computes the Pearson correlation between every pair of
// numeric columns, using only the rows where both columns are non-null.
// Undefined coefficients (constant columns, fewer than two rows) are NaN.
func (t *Table) CorrelationMatrix() ([]string, [][]float64) {
	cols := t.NumericColumns()
	names := make([]string, len(cols))
	matrix := make([][]float64, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		matrix[i] = make([]float64, len(cols))
	}

	for i := range cols {
		for j := i; j < len(cols); j++ {
			r := pairwiseCorrelation(cols[i], cols[j])
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}
	return names, matrix
}

func pairwiseCorrelation(a, b *Column) float64 {
	var xs, ys []float64
	for i := 0; i < a.Len(); i++ {
		x, okX := a.Float(i)
		y, okY := b.Float(i)
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsInf(r, 0) {
		return math.NaN()
	}
	// Rounding can push a perfect correlation just past 1
	return math.Max(-1, math.Min(1, r))
}
