package core

// validation.go applies the rule table to a dataset.
//
// Validation is a pure function of (dataset, confirmations): running it twice
// with unchanged inputs yields an identical issue list. Issues are ordered by
// row ascending, then by rule table order within a row.
//
// Confirmations suppress confirmable findings only. They are keyed on the
// row's stable id, the column, and the exact cell value, so editing the
// cell to a different value re-exposes it while re-entering the confirmed
// value stays suppressed.

import (
	"sort"
)

// ConfirmKey identifies an operator-accepted cell value.
type ConfirmKey struct {
	RowID  int
	Column string
	Value  Value
}

// ConfirmedSet is the sparse override table of accepted values.
type ConfirmedSet map[ConfirmKey]struct{}

// Has reports whether the exact (row, column, value) was confirmed.
func (c ConfirmedSet) Has(rowID int, column string, v Value) bool {
	_, ok := c[ConfirmKey{RowID: rowID, Column: column, Value: v}]
	return ok
}

// Add records a confirmation.
func (c ConfirmedSet) Add(rowID int, column string, v Value) {
	c[ConfirmKey{RowID: rowID, Column: column, Value: v}] = struct{}{}
}

// DropRow removes every confirmation belonging to a row.
func (c ConfirmedSet) DropRow(rowID int) {
	for k := range c {
		if k.RowID == rowID {
			delete(c, k)
		}
	}
}

// Clone returns an independent copy.
func (c ConfirmedSet) Clone() ConfirmedSet {
	out := make(ConfirmedSet, len(c))
	for k := range c {
		out[k] = struct{}{}
	}
	return out
}

// Validator applies a rule table to datasets laid out by a schema.
type Validator struct {
	schema     Schema
	rules      []Rule
	costMargin float64
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithCostMargin overrides the above-average cost margin.
func WithCostMargin(margin float64) ValidatorOption {
	return func(v *Validator) { v.costMargin = margin }
}

// WithRules replaces the rule table.
func WithRules(rules []Rule) ValidatorOption {
	return func(v *Validator) { v.rules = rules }
}

// NewValidator creates a validator using DefaultRules.
func NewValidator(schema Schema, opts ...ValidatorOption) *Validator {
	v := &Validator{
		schema:     schema,
		rules:      DefaultRules,
		costMargin: DefaultCostMargin,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Schema returns the column layout the validator checks.
func (v *Validator) Schema() Schema { return v.schema }

// Validate runs one full pass and returns every issue.
func (v *Validator) Validate(ds *Dataset, confirmed ConfirmedSet) Report {
	issues := []Issue{}
	if ds.Len() == 0 {
		return Report{Issues: issues, Complete: true}
	}

	pc := PassContext{
		MeanCost:   MeanCost(ds, v.schema.Cost),
		CostMargin: v.costMargin,
	}

	for i := 0; i < ds.Len(); i++ {
		rowID := ds.RowID(i)
		for _, rule := range v.rules {
			col := v.schema.Column(rule.Role)
			val := ds.Value(i, col)
			f := rule.Check(val, pc)
			if f == nil {
				continue
			}
			if f.Confirmable && confirmed.Has(rowID, col, val) {
				continue
			}
			issues = append(issues, Issue{
				RowIndex:    i,
				RowID:       rowID,
				Column:      col,
				Value:       val,
				Reason:      f.Reason,
				Row:         ds.Record(i).Clone(),
				Confirmable: f.Confirmable,
			})
		}
	}

	return Report{Issues: issues, Complete: len(issues) == 0}
}

// MeanCost averages every valid, non-negative cost in the column.
// Returns 0 when there are none.
func MeanCost(ds *Dataset, column string) float64 {
	var sum float64
	var n int
	for i := 0; i < ds.Len(); i++ {
		f, ok := ds.Value(i, column).Float()
		if !ok || f < 0 {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// FilterIssues keeps issues whose column is in columns. An empty filter
// returns every issue.
func FilterIssues(issues []Issue, columns ...string) []Issue {
	if len(columns) == 0 {
		return issues
	}
	want := make(map[string]bool, len(columns))
	for _, c := range columns {
		want[c] = true
	}
	out := make([]Issue, 0, len(issues))
	for _, is := range issues {
		if want[is.Column] {
			out = append(out, is)
		}
	}
	return out
}

// ColumnCount is the number of issues for one column.
type ColumnCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// CountByColumn tallies issues per column, ordered by schema rule order and
// then alphabetically for any other column.
func CountByColumn(schema Schema, issues []Issue) []ColumnCount {
	counts := make(map[string]int)
	for _, is := range issues {
		counts[is.Column]++
	}

	var out []ColumnCount
	for _, col := range schema.Columns() {
		if n, ok := counts[col]; ok {
			out = append(out, ColumnCount{Column: col, Count: n})
			delete(counts, col)
		}
	}
	rest := make([]string, 0, len(counts))
	for col := range counts {
		rest = append(rest, col)
	}
	sort.Strings(rest)
	for _, col := range rest {
		out = append(out, ColumnCount{Column: col, Count: counts[col]})
	}
	return out
}
