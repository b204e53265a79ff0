package core

import (
	"errors"
	"testing"
)

// ----------------------------------------------------------------------------
// InferValue Tests
// ----------------------------------------------------------------------------

func TestInferValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		// Numbers
		{name: "integer", input: "50", want: Number(50)},
		{name: "decimal", input: "12.5", want: Number(12.5)},
		{name: "negative", input: "-10", want: Number(-10)},
		{name: "padded number", input: "  9 ", want: Number(9)},
		{name: "exponent", input: "1e3", want: Number(1000)},

		// Booleans
		{name: "yes", input: "Yes", want: Bool(true)},
		{name: "true upper", input: "TRUE", want: Bool(true)},
		{name: "no", input: "no", want: Bool(false)},
		{name: "false padded", input: " False ", want: Bool(false)},

		// Strings
		{name: "empty stays string", input: "", want: String("")},
		{name: "whitespace trims to empty", input: "   ", want: String("")},
		{name: "date", input: "01/15/24", want: String("01/15/24")},
		{name: "trimmed text", input: " Tune-up ", want: String("Tune-up")},
		{name: "NaN is text", input: "NaN", want: String("NaN")},
		{name: "Infinity is text", input: "Infinity", want: String("Infinity")},
		{name: "currency is text", input: "$50", want: String("$50")},
		{name: "y is text", input: "y", want: String("y")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferValue(tt.input)
			if got != tt.want {
				t.Errorf("InferValue(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Value Tests
// ----------------------------------------------------------------------------

func TestValue_Float(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		want   float64
		wantOK bool
	}{
		{name: "number", value: Number(7), want: 7, wantOK: true},
		{name: "numeric string", value: String("8.5"), want: 8.5, wantOK: true},
		{name: "empty string", value: String(""), wantOK: false},
		{name: "text", value: String("abc"), wantOK: false},
		{name: "boolean is not a number", value: Bool(true), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.Float()
			if ok != tt.wantOK {
				t.Fatalf("Float() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Float() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValue_Text(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{Number(50), "50"},
		{Number(12.5), "12.5"},
		{Number(-10), "-10"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{String("Tune-up"), "Tune-up"},
	}

	for _, tt := range tests {
		if got := tt.value.Text(); got != tt.want {
			t.Errorf("Text() = %q, want %q", got, tt.want)
		}
	}
}

func TestValue_JSON(t *testing.T) {
	rec := Record{"cost": Number(50), "engagement": Bool(true), "category": String("Tune-up")}

	tests := []struct {
		column string
		want   string
	}{
		{"cost", "50"},
		{"engagement", "true"},
		{"category", `"Tune-up"`},
	}
	for _, tt := range tests {
		got, err := rec[tt.column].MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON(%s): %v", tt.column, err)
		}
		if string(got) != tt.want {
			t.Errorf("MarshalJSON(%s) = %s, want %s", tt.column, got, tt.want)
		}
	}

	var v Value
	if err := v.UnmarshalJSON([]byte("null")); err != nil {
		t.Fatalf("UnmarshalJSON(null): %v", err)
	}
	if v != String("") {
		t.Errorf("null decoded to %#v, want empty string", v)
	}
	if err := v.UnmarshalJSON([]byte("[1]")); err == nil {
		t.Error("expected error for array value")
	}
}

// ----------------------------------------------------------------------------
// CoerceEdit Tests
// ----------------------------------------------------------------------------

func TestCoerceEdit(t *testing.T) {
	schema := DefaultSchema

	tests := []struct {
		name    string
		column  string
		raw     string
		want    Value
		wantErr bool
	}{
		{name: "engagement lower-cased", column: "digital_engagement", raw: "YES", want: String("yes")},
		{name: "score number", column: "nps_score", raw: "9", want: Number(9)},
		{name: "score padded", column: "nps_score", raw: " 7 ", want: Number(7)},
		{name: "score rejects text", column: "nps_score", raw: "nine", wantErr: true},
		{name: "score rejects empty", column: "nps_score", raw: "", wantErr: true},
		{name: "cost number", column: "cost", raw: "120.50", want: Number(120.5)},
		{name: "cost negative allowed", column: "cost", raw: "-5", want: Number(-5)},
		{name: "cost rejects currency", column: "cost", raw: "$120", wantErr: true},
		{name: "date raw string", column: "service_date", raw: "02/30/24", want: String("02/30/24")},
		{name: "category raw string", column: "service_type", raw: " Repair", want: String(" Repair")},
		{name: "unknown column raw", column: "notes", raw: "42", want: String("42")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceEdit(schema, tt.column, tt.raw)
			if tt.wantErr {
				var rej *EditRejectedError
				if !errors.As(err, &rej) {
					t.Fatalf("expected *EditRejectedError, got %v", err)
				}
				if rej.Column != tt.column {
					t.Errorf("rejected column = %q, want %q", rej.Column, tt.column)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CoerceEdit() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
