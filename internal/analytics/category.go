package analytics

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/servicepulse/internal/core"
)

// Variability classifies a coefficient of variation.
type Variability string

const (
	VariabilityHigh   Variability = "High"
	VariabilityMedium Variability = "Medium"
	VariabilityLow    Variability = "Low"
)

// ClassifyCV maps a CV percentage to High (>25), Medium (>15) or Low.
func ClassifyCV(cv float64) Variability {
	switch {
	case cv > 25:
		return VariabilityHigh
	case cv > 15:
		return VariabilityMedium
	default:
		return VariabilityLow
	}
}

// CostStats describes the distribution of costs in a group.
type CostStats struct {
	Count    int     `json:"count"`
	Total    float64 `json:"total"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"avg"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"stdDev"`
	CV       float64 `json:"cvPercent"`
}

// DescribeCosts computes population statistics. CV is stdDev/mean*100 and
// 0 when the mean is 0. An empty input yields the zero value.
func DescribeCosts(costs []float64) CostStats {
	if len(costs) == 0 {
		return CostStats{}
	}
	mean, variance := stat.PopMeanVariance(costs, nil)
	cs := CostStats{
		Count:    len(costs),
		Total:    floats.Sum(costs),
		Min:      floats.Min(costs),
		Max:      floats.Max(costs),
		Mean:     mean,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
	}
	if cs.Mean != 0 {
		cs.CV = cs.StdDev / cs.Mean * 100
	}
	return cs
}

// CategoryStats is the per-category breakdown.
type CategoryStats struct {
	Category     string       `json:"type"`
	Rows         int          `json:"rows"`
	Satisfaction Satisfaction `json:"satisfaction"`
	Cost         CostStats    `json:"cost"`
	Variability  Variability  `json:"variability"`

	// Scores split by engagement.
	EngagedScore    int `json:"digitalNps"`
	NotEngagedScore int `json:"nonDigitalNps"`
}

// CategoryBreakdown groups rows by service category.
type CategoryBreakdown struct {
	Categories         []CategoryStats `json:"categories"`
	HighestVariability string          `json:"highestVariance"`
	LowestVariability  string          `json:"lowestVariance"`
	BestScore          string          `json:"bestPerformer"`
	WorstScore         string          `json:"worstPerformer"`
	HighestCost        string          `json:"highestCost"`
	LowestCost         string          `json:"lowestCost"`
	MeanCost           float64         `json:"overallAvg"`
}

type categoryAcc struct {
	rows                int
	scores              []float64
	costs               []float64
	engaged, notEngaged []float64
}

// Categories groups rows by trimmed, non-empty category in first-seen order.
// Rankings use a stable descending sort, so ties resolve to the category
// seen first for "highest" and the one seen last for "lowest". Variability
// and cost rankings consider only categories with at least one valid cost.
func Categories(ds *core.Dataset, schema core.Schema) CategoryBreakdown {
	var order []string
	groups := make(map[string]*categoryAcc)

	for i := 0; i < ds.Len(); i++ {
		name := strings.TrimSpace(ds.Value(i, schema.Category).Text())
		if name == "" {
			continue
		}
		acc, ok := groups[name]
		if !ok {
			acc = &categoryAcc{}
			groups[name] = acc
			order = append(order, name)
		}
		acc.rows++

		if f, ok := ds.Value(i, schema.Score).Float(); ok && f >= 0 && f <= 10 {
			acc.scores = append(acc.scores, f)
			if engaged, ok := segmentOf(ds.Value(i, schema.Engagement)); ok {
				if engaged {
					acc.engaged = append(acc.engaged, f)
				} else {
					acc.notEngaged = append(acc.notEngaged, f)
				}
			}
		}
		if f, ok := ds.Value(i, schema.Cost).Float(); ok && f >= 0 {
			acc.costs = append(acc.costs, f)
		}
	}

	out := CategoryBreakdown{
		Categories: make([]CategoryStats, 0, len(order)),
		MeanCost:   DescribeCosts(Costs(ds, schema.Cost)).Mean,
	}
	for _, name := range order {
		acc := groups[name]
		cost := DescribeCosts(acc.costs)
		out.Categories = append(out.Categories, CategoryStats{
			Category:        name,
			Rows:            acc.rows,
			Satisfaction:    Score(acc.scores),
			Cost:            cost,
			Variability:     ClassifyCV(cost.CV),
			EngagedScore:    Score(acc.engaged).Score,
			NotEngagedScore: Score(acc.notEngaged).Score,
		})
	}

	all := out.Categories
	out.BestScore, out.WorstScore = extremes(all, func(c CategoryStats) float64 {
		return float64(c.Satisfaction.Score)
	})

	var priced []CategoryStats
	for _, c := range all {
		if c.Cost.Count > 0 {
			priced = append(priced, c)
		}
	}
	out.HighestVariability, out.LowestVariability = extremes(priced, func(c CategoryStats) float64 {
		return c.Cost.CV
	})
	out.HighestCost, out.LowestCost = extremes(priced, func(c CategoryStats) float64 {
		return c.Cost.Mean
	})
	return out
}

// extremes sorts stats descending by key (stable) and returns the first and
// last category names.
func extremes(stats []CategoryStats, key func(CategoryStats) float64) (highest, lowest string) {
	if len(stats) == 0 {
		return "", ""
	}
	sorted := append([]CategoryStats(nil), stats...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]) > key(sorted[j])
	})
	return sorted[0].Category, sorted[len(sorted)-1].Category
}
