package core

// rules.go defines the business rule table applied to every row.
//
// Each Rule binds a role to a check function. The validator walks the table
// in order for each row, so the table order is the within-row issue order.
// A check returns at most one finding per row; the cost check folds its
// three sub-rules (invalid, negative, above average) into a single result
// because they are mutually exclusive.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultCostMargin is how far above the mean cost a value may sit before it
// is flagged for confirmation.
const DefaultCostMargin = 200.0

// Finding is the result of a failed check.
type Finding struct {
	Reason      string
	Confirmable bool
}

// PassContext carries values computed once per validation pass.
type PassContext struct {
	MeanCost   float64
	CostMargin float64
}

// CheckFunc inspects a single cell and returns nil when it passes.
type CheckFunc func(v Value, pc PassContext) *Finding

// Rule binds a check to the column playing a role.
type Rule struct {
	Role  Role
	Check CheckFunc
}

// DefaultRules is the rule table in evaluation order.
var DefaultRules = []Rule{
	{Role: RoleEngagement, Check: checkEngagement},
	{Role: RoleScore, Check: checkScore},
	{Role: RoleCost, Check: checkCost},
	{Role: RoleDate, Check: checkDate},
	{Role: RoleCategory, Check: checkCategory},
}

func checkEngagement(v Value, _ PassContext) *Finding {
	switch strings.ToLower(v.Text()) {
	case "yes", "no", "true", "false":
		return nil
	}
	return &Finding{Reason: "Must be 'Yes' or 'No'"}
}

func checkScore(v Value, _ PassContext) *Finding {
	f, ok := v.Float()
	if !ok || f < 0 || f > 10 {
		return &Finding{Reason: "Must be a number between 0-10"}
	}
	return nil
}

func checkCost(v Value, pc PassContext) *Finding {
	f, ok := v.Float()
	switch {
	case !ok:
		return &Finding{Reason: "Must be a valid number"}
	case f < 0:
		return &Finding{Reason: "Cost is negative - confirm or correct", Confirmable: true}
	case pc.MeanCost > 0 && f > pc.MeanCost+pc.CostMargin:
		return &Finding{
			Reason: fmt.Sprintf("$%.2f is more than $%s above average ($%.2f)",
				f, strconv.FormatFloat(pc.CostMargin, 'f', -1, 64), pc.MeanCost),
			Confirmable: true,
		}
	}
	return nil
}

// datePattern is the literal MM/DD/YY shape; ranges are checked separately.
var datePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{1,2})$`)

func checkDate(v Value, _ PassContext) *Finding {
	if !IsValidServiceDate(v.Text()) {
		return &Finding{Reason: "Must be a valid date (MM/DD/YY)"}
	}
	return nil
}

// IsValidServiceDate reports whether s matches MM/DD/YY with month 1-12 and
// day 1-31. There is no per-month day limit.
func IsValidServiceDate(s string) bool {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

func checkCategory(v Value, _ PassContext) *Finding {
	if strings.TrimSpace(v.Text()) == "" {
		return &Finding{Reason: "Cannot be empty"}
	}
	return nil
}
