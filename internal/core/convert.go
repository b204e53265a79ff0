package core

// convert.go turns raw CSV text into typed cell values.
//
// Two entry points exist:
//   - InferValue: used by the parser, guesses number, boolean, or string
//   - CoerceEdit: used by the resolution controller, converts an operator's
//     replacement value into the canonical type of the target column
//
// Numbers must be finite; NaN and infinities stay strings.

import (
	"math"
	"strconv"
	"strings"
)

// parseNumber reports whether s (after trimming) is a finite number.
// Empty input is never a number.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// InferValue applies the cell inference order: number, then true/yes,
// then false/no, then the trimmed string.
func InferValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if f, ok := parseNumber(s); ok {
		return Number(f)
	}
	switch strings.ToLower(s) {
	case "true", "yes":
		return Bool(true)
	case "false", "no":
		return Bool(false)
	}
	return String(s)
}

// CoerceEdit converts an operator-supplied replacement into the canonical
// type for the column's role. Numeric roles reject anything that is not a
// finite number with an *EditRejectedError; nothing is mutated by the caller
// in that case.
func CoerceEdit(schema Schema, column, raw string) (Value, error) {
	switch schema.RoleOf(column) {
	case RoleEngagement:
		return String(strings.ToLower(raw)), nil
	case RoleScore, RoleCost:
		f, ok := parseNumber(raw)
		if !ok {
			return Value{}, &EditRejectedError{Column: column, Value: raw, Reason: "invalid number"}
		}
		return Number(f), nil
	default:
		return String(raw), nil
	}
}
