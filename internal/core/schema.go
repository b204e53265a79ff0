package core

import "strings"

// Role identifies which business rule a column is checked against.
type Role string

const (
	RoleNone       Role = ""
	RoleEngagement Role = "engagement"
	RoleScore      Role = "score"
	RoleCost       Role = "cost"
	RoleDate       Role = "date"
	RoleCategory   Role = "category"
)

// Schema maps rule roles to concrete column names in a dataset.
type Schema struct {
	Engagement string `json:"engagement"`
	Score      string `json:"score"`
	Cost       string `json:"cost"`
	Date       string `json:"date"`
	Category   string `json:"category"`
}

// DefaultSchema is the column layout of the service feedback export.
var DefaultSchema = Schema{
	Engagement: "digital_engagement",
	Score:      "nps_score",
	Cost:       "cost",
	Date:       "service_date",
	Category:   "service_type",
}

// roleAliases lists accepted header names per role, most specific first.
var roleAliases = []struct {
	role    Role
	aliases []string
}{
	{RoleEngagement, []string{"digital_engagement", "engagement", "engagement_flag", "digital"}},
	{RoleScore, []string{"nps_score", "satisfaction_score", "score", "nps", "rating"}},
	{RoleCost, []string{"cost", "price", "service_cost", "amount"}},
	{RoleDate, []string{"service_date", "date"}},
	{RoleCategory, []string{"service_type", "service_category", "category", "type"}},
}

// DetectSchema resolves each role to a header using the alias lists
// (case-insensitive). Roles with no matching header keep the default name,
// so every row is flagged for the missing column.
func DetectSchema(headers []string) Schema {
	idx := make(map[string]string, len(headers))
	for _, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := idx[key]; !seen {
			idx[key] = h
		}
	}

	s := DefaultSchema
	for _, ra := range roleAliases {
		for _, alias := range ra.aliases {
			if h, ok := idx[alias]; ok {
				s.set(ra.role, h)
				break
			}
		}
	}
	return s
}

// Column returns the column name bound to a role.
func (s Schema) Column(r Role) string {
	switch r {
	case RoleEngagement:
		return s.Engagement
	case RoleScore:
		return s.Score
	case RoleCost:
		return s.Cost
	case RoleDate:
		return s.Date
	case RoleCategory:
		return s.Category
	}
	return ""
}

// RoleOf returns the role bound to a column, or RoleNone.
func (s Schema) RoleOf(column string) Role {
	switch column {
	case s.Engagement:
		return RoleEngagement
	case s.Score:
		return RoleScore
	case s.Cost:
		return RoleCost
	case s.Date:
		return RoleDate
	case s.Category:
		return RoleCategory
	}
	return RoleNone
}

// Columns returns the bound column names in rule order.
func (s Schema) Columns() []string {
	return []string{s.Engagement, s.Score, s.Cost, s.Date, s.Category}
}

func (s *Schema) set(r Role, column string) {
	switch r {
	case RoleEngagement:
		s.Engagement = column
	case RoleScore:
		s.Score = column
	case RoleCost:
		s.Cost = column
	case RoleDate:
		s.Date = column
	case RoleCategory:
		s.Category = column
	}
}
