package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Aggregation is the reduction applied to a y-column per x-group
type Aggregation string

const (
	AggSum   Aggregation = "sum"
	AggAvg   Aggregation = "avg"
	AggCount Aggregation = "count"
	AggMin   Aggregation = "min"
	AggMax   Aggregation = "max"
)

// GenerateRequest is the body of POST /generate-graphs and POST /generate-report
type GenerateRequest struct {
	Data   []Record    `json:"data"`
	Charts []ChartSpec `json:"charts"`
}

// ChartSpec describes one requested chart
type ChartSpec struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Type    string  `json:"type"`
	Mapping Mapping `json:"mapping"`
}

// Mapping assigns table columns to chart roles
type Mapping struct {
	X           string     `json:"x,omitempty"`
	Y           string     `json:"y,omitempty"`
	YCols       StringList `json:"y_cols,omitempty"`
	Size        string     `json:"size,omitempty"`
	Categories  StringList `json:"categories,omitempty"`
	Aggregation string     `json:"aggregation,omitempty"`
}

// RenderedChart is one encoded chart in the response
type RenderedChart struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
	Image string `json:"image"` // base64 PNG
}

// GenerateResponse is the success body of POST /generate-graphs
type GenerateResponse struct {
	Success bool            `json:"success"`
	Charts  []RenderedChart `json:"charts"`
	Total   int             `json:"total"`
}

// ErrorResponse is returned for request-level failures
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// DefaultTitle is used when a chart spec has no title
const DefaultTitle = "Untitled Chart"

// WithDefaults fills the optional fields the renderers rely on
func (c ChartSpec) WithDefaults() ChartSpec {
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	m := &c.Mapping
	if len(m.YCols) == 0 && m.Y != "" {
		m.YCols = StringList{m.Y}
	}
	if m.Size == "" {
		m.Size = m.Y
	}
	if len(m.Categories) == 0 && m.X != "" {
		m.Categories = StringList{m.X}
	}
	if m.Aggregation == "" {
		m.Aggregation = string(AggSum)
	}
	return c
}

// StringList accepts either a JSON string or a JSON array of strings
type StringList []string

// UnmarshalJSON implements json.Unmarshaler for StringList
func (s *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = nil
		return nil
	}

	// Single column name
	if b[0] == '"' {
		var one string
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	}

	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*s = many
	return nil
}

// RendererConfig holds renderer configuration
type RendererConfig struct {
	MaxConcurrentRenders int `json:"max_concurrent_renders" yaml:"max_concurrent_renders"` // 1 renders every chart of a request sequentially
	TimeoutMS            int `json:"timeout_ms" yaml:"timeout_ms"`                         // Per-request render budget, 0 disables
}

// Limits holds request limits
type Limits struct {
	MaxBodyMB      int      `json:"max_body_mb" yaml:"max_body_mb"`
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins"` // CORS origins, "*" allows all
}
