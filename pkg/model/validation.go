package model

import (
	"errors"
	"strings"
)

// ErrMissingInput is returned when a request has no data rows or no chart specs
var ErrMissingInput = errors.New("Missing data or chart specifications")

// ValidateRequest checks that both the data and the chart list are present.
// Specs that failed to decode still count as present. Nothing else is
// validated up front: a chart that references a missing column is dropped by
// the dispatcher instead of failing the request.
func ValidateRequest(req *GenerateRequest, skipped []SpecError) error {
	if req == nil || len(req.Data) == 0 || len(req.Charts)+len(skipped) == 0 {
		return ErrMissingInput
	}
	return nil
}

// ParseAggregation maps an aggregation name to an Aggregation.
// Unknown or empty names fall back to sum.
func ParseAggregation(s string) Aggregation {
	switch Aggregation(strings.ToLower(strings.TrimSpace(s))) {
	case AggAvg:
		return AggAvg
	case AggCount:
		return AggCount
	case AggMin:
		return AggMin
	case AggMax:
		return AggMax
	default:
		return AggSum
	}
}

// Restrict limits an aggregation to the set a chart type supports,
// falling back to sum for anything else.
func (a Aggregation) Restrict(allowed ...Aggregation) Aggregation {
	for _, candidate := range allowed {
		if a == candidate {
			return a
		}
	}
	return AggSum
}
