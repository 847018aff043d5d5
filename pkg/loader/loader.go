// Package loader reads chart requests and tabular input files for offline
// rendering from the command line.
package loader

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/graph-generation-service/pkg/model"
)

// ErrUnsupportedFormat is returned for data files with an unknown extension
var ErrUnsupportedFormat = errors.New("unsupported data format")

// LoadRequest reads a generate request from a JSON file. When dataPath is set
// its rows replace the request's data. Chart specs that do not decode are
// returned separately instead of failing the load.
func LoadRequest(requestPath, dataPath string) (*model.GenerateRequest, []model.SpecError, error) {
	f, err := os.Open(requestPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open request: %w", err)
	}
	defer f.Close()

	var raw model.RawRequest
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("failed to decode request %s: %w", requestPath, err)
	}
	if dataPath != "" {
		raw.Data = nil
	}
	req, skipped, err := raw.Decode()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode request %s: %w", requestPath, err)
	}
	if dataPath != "" {
		rows, err := LoadRecords(dataPath)
		if err != nil {
			return nil, nil, err
		}
		req.Data = rows
	}
	return req, skipped, nil
}

// LoadRecords reads rows from a .json, .csv or .xlsx file
func LoadRecords(path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return ReadJSON(f)
	case ".csv":
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		return ReadXLSX(f, "")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// ReadJSON decodes an array of row objects
func ReadJSON(r io.Reader) ([]model.Record, error) {
	var rows []model.Record
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode json rows: %w", err)
	}
	return rows, nil
}

// ReadCSV reads a header row followed by data rows
func ReadCSV(r io.Reader) ([]model.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	lines, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return fromGrid(lines), nil
}

// ReadXLSX reads a header row followed by data rows from a workbook sheet.
// An empty sheet name selects the first sheet.
func ReadXLSX(r io.Reader, sheet string) ([]model.Record, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		sheet = sheets[0]
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return fromGrid(rows), nil
}

// fromGrid turns a header line plus data lines into records. Cells that
// parse as numbers become float64, empty or missing cells become null.
func fromGrid(lines [][]string) []model.Record {
	if len(lines) == 0 {
		return nil
	}
	header := lines[0]
	out := make([]model.Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if isBlank(line) {
			continue
		}
		rec := make(model.Record, len(header))
		for i, name := range header {
			var cell string
			if i < len(line) {
				cell = line[i]
			}
			rec[i] = model.Field{Name: name, Value: cellValue(cell)}
		}
		out = append(out, rec)
	}
	return out
}

func cellValue(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func isBlank(line []string) bool {
	for _, c := range line {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
