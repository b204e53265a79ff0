package analytics

import (
	"sort"
	"strings"

	"github.com/JonMunkholm/servicepulse/internal/core"
)

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthlySeries is one category's row count per month, aligned with
// MonthlyBreakdown.Months.
type MonthlySeries struct {
	Category string `json:"name"`
	Counts   []int  `json:"data"`
}

// MonthlyBreakdown counts rows per (category, month).
type MonthlyBreakdown struct {
	Months []int           `json:"months"`
	Labels []string        `json:"labels"`
	Series []MonthlySeries `json:"series"`
}

// leadingMonth returns the integer before the first "/" in a date. Only the
// leading digits count, so "3x/01/24" reads as 3. ok is false when there
// are no leading digits or the month is outside 1-12.
func leadingMonth(date string) (int, bool) {
	head, _, _ := strings.Cut(strings.TrimSpace(date), "/")
	n, digits := 0, 0
	for _, r := range head {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
		if digits > 2 {
			return 0, false
		}
	}
	if digits == 0 || n < 1 || n > 12 {
		return 0, false
	}
	return n, true
}

// Monthly counts rows per category and month. Dates are not re-validated;
// rows whose date has no usable month or whose category is blank are
// skipped. Months are ascending; categories keep first-seen order.
func Monthly(ds *core.Dataset, schema core.Schema) MonthlyBreakdown {
	var order []string
	counts := make(map[string]map[int]int)
	seenMonths := make(map[int]bool)

	for i := 0; i < ds.Len(); i++ {
		month, ok := leadingMonth(ds.Value(i, schema.Date).Text())
		if !ok {
			continue
		}
		name := strings.TrimSpace(ds.Value(i, schema.Category).Text())
		if name == "" {
			continue
		}
		byMonth, ok := counts[name]
		if !ok {
			byMonth = make(map[int]int)
			counts[name] = byMonth
			order = append(order, name)
		}
		byMonth[month]++
		seenMonths[month] = true
	}

	out := MonthlyBreakdown{
		Months: make([]int, 0, len(seenMonths)),
		Labels: make([]string, 0, len(seenMonths)),
		Series: make([]MonthlySeries, 0, len(order)),
	}
	for m := range seenMonths {
		out.Months = append(out.Months, m)
	}
	sort.Ints(out.Months)
	for _, m := range out.Months {
		out.Labels = append(out.Labels, monthLabels[m-1])
	}

	for _, name := range order {
		series := MonthlySeries{Category: name, Counts: make([]int, len(out.Months))}
		for j, m := range out.Months {
			series.Counts[j] = counts[name][m]
		}
		out.Series = append(out.Series, series)
	}
	return out
}
