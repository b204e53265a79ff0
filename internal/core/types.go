// Package core provides the business logic for service feedback datasets.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind is the inferred type of a cell value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
)

// String returns the kind name used in logs and API payloads.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "string"
	}
}

// Value is a single typed cell. Exactly one of Num, Bool, Str is meaningful,
// selected by Kind. Value is comparable and safe to use in map keys.
type Value struct {
	Kind Kind
	Num  float64
	Bool bool
	Str  string
}

// Number returns a numeric Value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// String returns a string Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Text renders the value the way an operator typed it.
func (v Value) Text() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// String implements fmt.Stringer.
func (v Value) String() string { return v.Text() }

// Float returns the numeric content of v. Only number values qualify;
// booleans are never treated as numbers.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		return parseNumber(v.Str)
	default:
		return 0, false
	}
}

// MarshalJSON encodes the value as the native JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Str)
	}
}

// UnmarshalJSON decodes a JSON number, boolean or string. null decodes to "".
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = String("")
	case float64:
		*v = Number(t)
	case bool:
		*v = Bool(t)
	case string:
		*v = String(t)
	default:
		return fmt.Errorf("unsupported cell value %s", string(data))
	}
	return nil
}

// Record maps column names to cell values.
type Record map[string]Value

// Clone returns a shallow copy; Values are immutable so this is a deep copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is the ordered collection of records plus the header list.
// Each row carries a stable synthetic id assigned when the row enters the
// dataset; ids survive deletes of other rows and are never reused.
type Dataset struct {
	Headers []string
	records []Record
	ids     []int
	nextID  int
}

// NewDataset builds a dataset from headers and records, assigning row ids 1..n.
func NewDataset(headers []string, records []Record) *Dataset {
	ds := &Dataset{
		Headers: append([]string(nil), headers...),
		records: make([]Record, 0, len(records)),
		ids:     make([]int, 0, len(records)),
		nextID:  1,
	}
	for _, r := range records {
		ds.append(r)
	}
	return ds
}

func (d *Dataset) append(r Record) {
	// Every record has a value for every header column.
	for _, h := range d.Headers {
		if _, ok := r[h]; !ok {
			r[h] = String("")
		}
	}
	d.records = append(d.records, r)
	d.ids = append(d.ids, d.nextID)
	d.nextID++
}

// Len returns the number of rows. A nil dataset has zero rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Record returns the row at index i. Callers must not modify it.
func (d *Dataset) Record(i int) Record { return d.records[i] }

// Records returns copies of all rows in order.
func (d *Dataset) Records() []Record {
	if d == nil {
		return nil
	}
	out := make([]Record, len(d.records))
	for i, r := range d.records {
		out[i] = r.Clone()
	}
	return out
}

// RowID returns the stable id of the row at index i.
func (d *Dataset) RowID(i int) int { return d.ids[i] }

// Value returns the cell at (i, column). Missing columns read as "".
func (d *Dataset) Value(i int, column string) Value {
	if v, ok := d.records[i][column]; ok {
		return v
	}
	return String("")
}

// Set overwrites a single cell.
func (d *Dataset) Set(i int, column string, v Value) {
	d.records[i][column] = v
}

// Delete removes row i; later rows shift down by one.
func (d *Dataset) Delete(i int) {
	d.records = append(d.records[:i], d.records[i+1:]...)
	d.ids = append(d.ids[:i], d.ids[i+1:]...)
}

// Clone returns an independent deep copy including row ids.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{
		Headers: append([]string(nil), d.Headers...),
		records: make([]Record, len(d.records)),
		ids:     append([]int(nil), d.ids...),
		nextID:  d.nextID,
	}
	for i, r := range d.records {
		out.records[i] = r.Clone()
	}
	return out
}

// Issue describes one validation failure. Issues are recomputed on every
// validation pass and carry no identity beyond (row, column, value).
type Issue struct {
	RowIndex    int    `json:"rowIndex"`
	RowID       int    `json:"rowId"`
	Column      string `json:"column"`
	Value       Value  `json:"value"`
	Reason      string `json:"issue"`
	Row         Record `json:"original"`
	Confirmable bool   `json:"canConfirm,omitempty"`
}

// DisplayRow is the 1-based row number shown to operators.
func (i Issue) DisplayRow() int { return i.RowIndex + 1 }

// IssueRef addresses an issue in the current issue list.
type IssueRef struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
}

// Report is the output of one validation pass.
type Report struct {
	Issues   []Issue `json:"issues"`
	Complete bool    `json:"complete"`
}
