package controller

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/seenimoa/pynvestor/internal/backend"
	"github.com/seenimoa/pynvestor/internal/view"
)

// ValidationError rejects user input before any request is sent.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// BuildScreeningRequest turns raw form state into a request. Only checked rows
// are included, in form order; a repeated field keeps its first position and
// its last bounds.
func BuildScreeningRequest(form view.ScreenerForm) (backend.ScreeningRequest, error) {
	req := backend.ScreeningRequest{
		Period: strings.TrimSpace(form.Period),
		Fields: backend.FieldRanges{},
	}
	if req.Period == "" {
		return req, &ValidationError{Field: "period", Reason: "no period selected"}
	}

	for i, row := range form.Rows {
		if !row.Checked {
			continue
		}
		name := strings.TrimSpace(row.FieldName)
		if name == "" {
			return req, &ValidationError{Field: fmt.Sprintf("row %d", i+1), Reason: "empty field name"}
		}
		lo, err := parseBound(name, "min", row.MinValue)
		if err != nil {
			return req, err
		}
		hi, err := parseBound(name, "max", row.MaxValue)
		if err != nil {
			return req, err
		}
		req.Fields.Set(name, lo, hi)
	}
	return req, nil
}

func parseBound(field, which, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ValidationError{
			Field:  field + " " + which,
			Value:  raw,
			Reason: "not a number",
		}
	}
	return v, nil
}

func validateWeights(weights []float64) error {
	if len(weights) == 0 {
		return &ValidationError{Field: "weights", Reason: "empty weights vector"}
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return &ValidationError{Field: fmt.Sprintf("weights[%d]", i), Reason: "not a finite number"}
		}
	}
	return nil
}
