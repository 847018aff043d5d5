package table

import (
	"math"
	"sort"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// KeyOrder controls the order of groups returned by GroupBy
type KeyOrder int

const (
	// SortedKeys orders groups by key, like a sorted group-by
	SortedKeys KeyOrder = iota
	// FirstSeen orders groups by the first row each key appears in
	FirstSeen
)

// Group is the set of rows sharing one x value
type Group struct {
	Key    Value
	Rows   []int
	Values []float64 // non-null y values of the rows
	Count  int       // non-null y cells of the rows, any column type
}

// Aggregated is a group key with its reduced y value
type Aggregated struct {
	Key   Value
	Value float64
}

// GroupBy partitions the rows by the x column and collects the non-null
// values of the numeric y column for each group. Rows with a null x are
// dropped. An empty y name groups rows without collecting values.
func (t *Table) GroupBy(x, y string, order KeyOrder) ([]Group, error) {
	return t.groupBy(x, y, order, true)
}

// groupBy is GroupBy; with numeric unset, y may be a string column, whose
// non-null cells are counted but not collected.
func (t *Table) groupBy(x, y string, order KeyOrder, numeric bool) ([]Group, error) {
	xc, err := t.Column(x)
	if err != nil {
		return nil, err
	}
	var yc *Column
	if y != "" {
		if numeric {
			yc, err = t.NumericColumn(y)
		} else {
			yc, err = t.Column(y)
		}
		if err != nil {
			return nil, err
		}
	}

	index := make(map[Value]int)
	var groups []Group
	for i := 0; i < t.rows; i++ {
		key := xc.Value(i)
		if key.IsNull() {
			continue
		}
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, Group{Key: key})
		}
		g := &groups[gi]
		g.Rows = append(g.Rows, i)
		if yc != nil && !yc.IsNull(i) {
			g.Count++
			if v, ok := yc.Float(i); ok {
				g.Values = append(g.Values, v)
			}
		}
	}

	if order == SortedKeys {
		sort.SliceStable(groups, func(a, b int) bool {
			return groups[a].Key.Less(groups[b].Key)
		})
	}
	return groups, nil
}

// Aggregate groups by x and reduces y with agg, returning one entry per group.
// Count accepts a y column of any type and counts its non-null cells; every
// other aggregation needs a numeric y.
func (t *Table) Aggregate(x, y string, agg model.Aggregation, order KeyOrder) ([]Aggregated, error) {
	groups, err := t.groupBy(x, y, order, agg != model.AggCount)
	if err != nil {
		return nil, err
	}
	out := make([]Aggregated, len(groups))
	for i, g := range groups {
		if agg == model.AggCount {
			out[i] = Aggregated{Key: g.Key, Value: float64(g.Count)}
			continue
		}
		out[i] = Aggregated{Key: g.Key, Value: Reduce(g.Values, agg)}
	}
	return out, nil
}

// Reduce applies an aggregation to non-null values. Sum of nothing is 0,
// count of nothing is 0, and avg/min/max of nothing is NaN.
func Reduce(values []float64, agg model.Aggregation) float64 {
	switch agg {
	case model.AggCount:
		return float64(len(values))
	case model.AggAvg:
		if len(values) == 0 {
			return math.NaN()
		}
		return stat.Mean(values, nil)
	case model.AggMin:
		if len(values) == 0 {
			return math.NaN()
		}
		return floats.Min(values)
	case model.AggMax:
		if len(values) == 0 {
			return math.NaN()
		}
		return floats.Max(values)
	default:
		return floats.Sum(values)
	}
}

// TopN returns the n entries with the largest values in descending order.
// Ties keep their original order and NaN values are dropped; the remainder is
// discarded rather than bucketed.
func TopN(entries []Aggregated, n int) []Aggregated {
	out := make([]Aggregated, 0, len(entries))
	for _, e := range entries {
		if !math.IsNaN(e.Value) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Value > out[b].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// NonNull returns the non-null values of a numeric column
func (c *Column) NonNull() []float64 {
	var out []float64
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Float(i); ok {
			out = append(out, v)
		}
	}
	return out
}
