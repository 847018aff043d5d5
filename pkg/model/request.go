package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// RawRequest is a generate request whose lists have not been decoded yet
type RawRequest struct {
	Data   json.RawMessage `json:"data"`
	Charts json.RawMessage `json:"charts"`
}

// SpecError is a chart spec that could not be decoded. Type holds the spec's
// type tag when that field alone was readable.
type SpecError struct {
	Index int
	Type  string
	Err   error
}

func (e SpecError) Error() string {
	return fmt.Sprintf("chart %d: %v", e.Index, e.Err)
}

func (e SpecError) Unwrap() error {
	return e.Err
}

// DecodeRequest reads a generate request. Both lists are checked for
// presence before either is decoded, so an empty or absent list yields
// ErrMissingInput whatever the other field holds. Specs that fail to decode
// are returned separately and left out of the request.
func DecodeRequest(r io.Reader) (*GenerateRequest, []SpecError, error) {
	var raw RawRequest
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, nil, err
	}
	if isEmpty(raw.Data) || isEmpty(raw.Charts) {
		return nil, nil, ErrMissingInput
	}
	return raw.Decode()
}

// Decode decodes the data rows and then each chart spec on its own.
// Absent lists decode as empty.
func (raw RawRequest) Decode() (*GenerateRequest, []SpecError, error) {
	req := &GenerateRequest{}
	if !isEmpty(raw.Data) {
		if err := json.Unmarshal(raw.Data, &req.Data); err != nil {
			return nil, nil, fmt.Errorf("data: %w", err)
		}
	}
	if isEmpty(raw.Charts) {
		return req, nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw.Charts, &items); err != nil {
		return nil, nil, fmt.Errorf("charts: %w", err)
	}
	var skipped []SpecError
	req.Charts = make([]ChartSpec, 0, len(items))
	for i, item := range items {
		var spec ChartSpec
		if err := json.Unmarshal(item, &spec); err != nil {
			skipped = append(skipped, SpecError{Index: i, Type: specType(item), Err: err})
			continue
		}
		req.Charts = append(req.Charts, spec)
	}
	return req, skipped, nil
}

// specType reads only the type tag of an undecodable spec
func specType(item json.RawMessage) string {
	var tagged struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(item, &tagged) != nil {
		return ""
	}
	return tagged.Type
}

// isEmpty reports whether a raw value is absent, null, or an empty or zero
// value such as [], {}, "" or false.
func isEmpty(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true
	}
	switch raw[0] {
	case '[':
		var items []json.RawMessage
		return json.Unmarshal(raw, &items) == nil && len(items) == 0
	case '{':
		var fields map[string]json.RawMessage
		return json.Unmarshal(raw, &fields) == nil && len(fields) == 0
	}
	switch string(raw) {
	case "null", "false", "0", `""`:
		return true
	}
	return false
}
