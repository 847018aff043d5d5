package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Field is one column value of a record. Value is nil, float64, string or bool.
type Field struct {
	Name  string
	Value interface{}
}

// Record is a single input row. Field order is preserved so that the table
// keeps columns in the order the caller sent them.
type Record []Field

// Get returns the value stored under name
func (r Record) Get(name string) (interface{}, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// UnmarshalJSON implements json.Unmarshaler for Record
func (r *Record) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}

	rec := make(Record, 0, 8)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		val, err := scalarValue(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}

		// Later duplicates win, like a JSON object decoded into a map
		replaced := false
		for i := range rec {
			if rec[i].Name == key {
				rec[i].Value = val
				replaced = true
				break
			}
		}
		if !replaced {
			rec = append(rec, Field{Name: key, Value: val})
		}
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return err
	}
	*r = rec
	return nil
}

// MarshalJSON implements json.Marshaler for Record
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// scalarValue converts a raw JSON value to nil, float64, string or bool.
// Nested objects and arrays are kept as their JSON text.
func scalarValue(raw json.RawMessage) (interface{}, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case 'n':
		return nil, nil
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return nil, err
		}
		return v, nil
	case '"':
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return nil, err
		}
		return v, nil
	case '{', '[':
		return string(trimmed), nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return nil, err
		}
		f, err := n.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}
