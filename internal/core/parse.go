package core

import (
	"strings"
)

// utf8BOM is stripped from the start of the input if present.
const utf8BOM = "\ufeff"

// Parse turns raw CSV text into a Dataset.
//
// The first non-empty line is the header. Every later non-blank line is split
// on commas with no quote handling and zipped against the header; missing
// trailing cells become "" and surplus cells are dropped. Duplicate header
// names are kept as-is, so the right-most column wins for that key.
//
// Parse returns a *ParseError when there is no header or no data rows.
func Parse(text string) (*Dataset, error) {
	text = strings.TrimPrefix(text, utf8BOM)
	lines := strings.Split(text, "\n")

	headerAt := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, &ParseError{Reason: "missing header line"}
	}

	headers := splitLine(lines[headerAt])
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	if strings.Join(headers, "") == "" {
		return nil, &ParseError{Reason: "empty header line"}
	}

	var records []Record
	for _, line := range lines[headerAt+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := splitLine(line)
		rec := make(Record, len(headers))
		for i, h := range headers {
			raw := ""
			if i < len(cells) {
				raw = cells[i]
			}
			rec[h] = InferValue(raw)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, &ParseError{Reason: "no data rows"}
	}

	return NewDataset(headers, records), nil
}

// splitLine splits one physical line on commas after dropping a trailing CR.
func splitLine(line string) []string {
	return strings.Split(strings.TrimSuffix(line, "\r"), ",")
}

// FormatCSV renders a dataset back to the comma-separated form Parse reads.
// Values are written verbatim; cells containing commas will not round-trip.
func FormatCSV(ds *Dataset) string {
	var b strings.Builder
	b.WriteString(strings.Join(ds.Headers, ","))
	b.WriteByte('\n')
	cells := make([]string, len(ds.Headers))
	for i := 0; i < ds.Len(); i++ {
		for j, h := range ds.Headers {
			cells[j] = ds.Value(i, h).Text()
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteByte('\n')
	}
	return b.String()
}
