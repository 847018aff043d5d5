// Package table holds the request's input rows as a typed, column-oriented
// Grafana data frame and provides the grouping, sorting and aggregation
// helpers the chart renderers are built from.
package table

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/grafana/grafana-plugin-sdk-go/data"
	"github.com/yourusername/graph-generation-service/pkg/model"
)

var (
	// ErrColumnNotFound is returned when a mapping references a column the table does not have
	ErrColumnNotFound = errors.New("column not found")
	// ErrNotNumeric is returned when a numeric operation targets a string column
	ErrNotNumeric = errors.New("column is not numeric")
)

// Table is an immutable, column-oriented view of the input records
type Table struct {
	frame   *data.Frame
	columns map[string]*Column
	order   []string
	rows    int
}

// Column is a single named column of a Table
type Column struct {
	Name    string
	field   *data.Field
	numeric bool
}

// FromRecords builds a Table from decoded request records. Columns appear in
// order of first appearance; a record that lacks a column contributes null.
// A column whose non-null values are all numbers becomes a nullable float64
// field, every other column a nullable string field.
func FromRecords(records []model.Record) (*Table, error) {
	var order []string
	seen := make(map[string]bool)
	for _, rec := range records {
		for _, f := range rec {
			if !seen[f.Name] {
				seen[f.Name] = true
				order = append(order, f.Name)
			}
		}
	}

	rows := len(records)
	t := &Table{
		columns: make(map[string]*Column, len(order)),
		order:   order,
		rows:    rows,
	}

	fields := make([]*data.Field, 0, len(order))
	for _, name := range order {
		raw := make([]interface{}, rows)
		numeric := true
		for i, rec := range records {
			v, _ := rec.Get(name)
			raw[i] = v
			if v == nil {
				continue
			}
			if _, ok := v.(float64); !ok {
				numeric = false
			}
		}

		var field *data.Field
		if numeric {
			vals := make([]*float64, rows)
			for i, v := range raw {
				if f, ok := v.(float64); ok {
					f := f
					vals[i] = &f
				}
			}
			field = data.NewField(name, nil, vals)
		} else {
			vals := make([]*string, rows)
			for i, v := range raw {
				if v == nil {
					continue
				}
				s := stringify(v)
				vals[i] = &s
			}
			field = data.NewField(name, nil, vals)
		}

		fields = append(fields, field)
		t.columns[name] = &Column{Name: name, field: field, numeric: numeric}
	}

	t.frame = data.NewFrame("input", fields...)
	return t, nil
}

// Frame exposes the underlying Grafana data frame
func (t *Table) Frame() *data.Frame {
	return t.frame
}

// Rows returns the number of records
func (t *Table) Rows() int {
	return t.rows
}

// ColumnNames returns column names in order of first appearance
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Has reports whether the table has a column called name
func (t *Table) Has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Column looks a column up by name
func (t *Table) Column(name string) (*Column, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: no column mapped", ErrColumnNotFound)
	}
	c, ok := t.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return c, nil
}

// NumericColumn looks a column up by name and requires it to be numeric
func (t *Table) NumericColumn(name string) (*Column, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if !c.numeric {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, name)
	}
	return c, nil
}

// NumericColumns returns every numeric column in table order
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, name := range t.order {
		if c := t.columns[name]; c.numeric {
			out = append(out, c)
		}
	}
	return out
}

// IsNumeric reports whether the column holds numbers
func (c *Column) IsNumeric() bool {
	return c.numeric
}

// Len returns the number of values in the column
func (c *Column) Len() int {
	return c.field.Len()
}

// IsNull reports whether row i is null
func (c *Column) IsNull(i int) bool {
	switch v := c.field.At(i).(type) {
	case *float64:
		return v == nil
	case *string:
		return v == nil
	}
	return true
}

// Float returns the numeric value of row i; ok is false for nulls and string columns
func (c *Column) Float(i int) (float64, bool) {
	if !c.numeric {
		return 0, false
	}
	v, _ := c.field.At(i).(*float64)
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Floats returns every value of a numeric column with nulls as NaN
func (c *Column) Floats() ([]float64, error) {
	if !c.numeric {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, c.Name)
	}
	out := make([]float64, c.Len())
	for i := range out {
		if v, ok := c.Float(i); ok {
			out[i] = v
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

// Value returns row i as a Value
func (c *Column) Value(i int) Value {
	switch v := c.field.At(i).(type) {
	case *float64:
		if v != nil {
			return Value{Kind: KindNumber, Num: *v}
		}
	case *string:
		if v != nil {
			return Value{Kind: KindString, Str: *v}
		}
	}
	return Value{Kind: KindNull}
}

// Label returns row i formatted for display; nulls are empty
func (c *Column) Label(i int) string {
	return c.Value(i).String()
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return formatNumber(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Kind classifies a Value
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
)

// Value is a single cell used as a grouping key
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

// IsNull reports whether the value is null
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// String formats the value for labels
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return formatNumber(v.Num)
	case KindString:
		return v.Str
	}
	return ""
}

// Less orders values: numbers numerically, strings lexically, nulls last
func (v Value) Less(o Value) bool {
	if v.Kind != o.Kind {
		if v.Kind == KindNull {
			return false
		}
		if o.Kind == KindNull {
			return true
		}
		return v.Kind < o.Kind
	}
	switch v.Kind {
	case KindNumber:
		return v.Num < o.Num
	case KindString:
		return v.Str < o.Str
	}
	return false
}

// SortedRows returns row indexes ordered by column name with a stable sort,
// nulls last.
func (t *Table) SortedRows(name string) ([]int, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	idx := make([]int, t.rows)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return c.Value(idx[a]).Less(c.Value(idx[b]))
	})
	return idx, nil
}
