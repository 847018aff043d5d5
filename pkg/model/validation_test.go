package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidateRequest(t *testing.T) {
	row := Record{{Name: "region", Value: "north"}}
	spec := ChartSpec{ID: "c1", Type: "bar"}

	tests := []struct {
		name        string
		req         *GenerateRequest
		skipped     []SpecError
		expectError bool
	}{
		{
			name:        "nil request",
			req:         nil,
			expectError: true,
		},
		{
			name:        "empty data",
			req:         &GenerateRequest{Charts: []ChartSpec{spec}},
			expectError: true,
		},
		{
			name:        "empty charts",
			req:         &GenerateRequest{Data: []Record{row}},
			expectError: true,
		},
		{
			name:        "only undecodable specs",
			req:         &GenerateRequest{Data: []Record{row}},
			skipped:     []SpecError{{Index: 0, Type: "bar", Err: errors.New("bad mapping")}},
			expectError: false,
		},
		{
			name:        "both present",
			req:         &GenerateRequest{Data: []Record{row}, Charts: []ChartSpec{spec}},
			expectError: false,
		},
		{
			name:        "unknown chart type is not a request error",
			req:         &GenerateRequest{Data: []Record{row}, Charts: []ChartSpec{{Type: "sankey"}}},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req, tt.skipped)
			if tt.expectError {
				if !errors.Is(err, ErrMissingInput) {
					t.Errorf("expected ErrMissingInput, got %v", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestParseAggregation(t *testing.T) {
	tests := []struct {
		input    string
		expected Aggregation
	}{
		{"sum", AggSum},
		{"avg", AggAvg},
		{"count", AggCount},
		{"min", AggMin},
		{"max", AggMax},
		{" AVG ", AggAvg},
		{"", AggSum},
		{"median", AggSum},
		{"mean", AggSum},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseAggregation(tt.input); got != tt.expected {
				t.Errorf("ParseAggregation(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAggregationRestrict(t *testing.T) {
	if got := AggCount.Restrict(AggSum, AggAvg, AggCount); got != AggCount {
		t.Errorf("expected count to be kept, got %q", got)
	}
	if got := AggMin.Restrict(AggSum, AggAvg); got != AggSum {
		t.Errorf("expected min to fall back to sum, got %q", got)
	}
}

func TestStringListUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected StringList
		wantErr  bool
	}{
		{name: "single string", input: `"revenue"`, expected: StringList{"revenue"}},
		{name: "list", input: `["a","b"]`, expected: StringList{"a", "b"}},
		{name: "null", input: `null`, expected: nil},
		{name: "number", input: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StringList
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecordUnmarshalKeepsOrder(t *testing.T) {
	var rec Record
	input := `{"zeta": 1, "alpha": "x", "mid": null, "flag": true, "nested": {"a": 1}, "alpha": "y"}`
	if err := json.Unmarshal([]byte(input), &rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := Record{
		{Name: "zeta", Value: 1.0},
		{Name: "alpha", Value: "y"},
		{Name: "mid", Value: nil},
		{Name: "flag", Value: true},
		{Name: "nested", Value: `{"a": 1}`},
	}
	if diff := cmp.Diff(expected, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	if v, ok := rec.Get("zeta"); !ok || v != 1.0 {
		t.Errorf("Get(zeta) = %v, %v", v, ok)
	}
	if _, ok := rec.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}
}

func TestRecordUnmarshalRejectsNonObject(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`[1,2,3]`), &rec); err == nil {
		t.Error("expected error for array record")
	}
}

func TestChartSpecWithDefaults(t *testing.T) {
	spec := ChartSpec{ID: "c1", Type: "radar", Mapping: Mapping{X: "skill", Y: "score"}}.WithDefaults()

	if spec.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", spec.Title, DefaultTitle)
	}
	if diff := cmp.Diff(StringList{"score"}, spec.Mapping.YCols); diff != "" {
		t.Errorf("YCols mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(StringList{"skill"}, spec.Mapping.Categories); diff != "" {
		t.Errorf("Categories mismatch (-want +got):\n%s", diff)
	}
	if spec.Mapping.Size != "score" {
		t.Errorf("Size = %q, want score", spec.Mapping.Size)
	}
	if spec.Mapping.Aggregation != "sum" {
		t.Errorf("Aggregation = %q, want sum", spec.Mapping.Aggregation)
	}
}
