// Package analytics computes satisfaction, engagement, cost and temporal
// aggregates over a dataset. Every function is pure and tolerant of dirty
// data: values that do not qualify are left out of the aggregate.
package analytics

import (
	"math"

	"github.com/JonMunkholm/servicepulse/internal/core"
)

// Satisfaction is the Net Promoter breakdown of a set of 0-10 ratings.
type Satisfaction struct {
	Score      int     `json:"npsScore"`
	Average    float64 `json:"avgRating"`
	Detractors int     `json:"detractors"`
	Passives   int     `json:"passives"`
	Promoters  int     `json:"promoters"`
	Total      int     `json:"total"`

	raw float64
}

// Raw returns the unrounded score.
func (s Satisfaction) Raw() float64 { return s.raw }

// Score computes the satisfaction breakdown of scores. Detractors rate 0-6,
// passives exactly 7 or 8, promoters 9-10. An empty input yields the zero
// value.
func Score(scores []float64) Satisfaction {
	if len(scores) == 0 {
		return Satisfaction{}
	}

	var s Satisfaction
	var sum float64
	for _, v := range scores {
		sum += v
		switch {
		case v >= 0 && v <= 6:
			s.Detractors++
		case v == 7 || v == 8:
			s.Passives++
		case v >= 9 && v <= 10:
			s.Promoters++
		}
	}

	total := float64(len(scores))
	s.Total = len(scores)
	s.raw = (float64(s.Promoters)/total - float64(s.Detractors)/total) * 100
	s.Score = roundHalfUp(s.raw)
	s.Average = math.Round(sum/total*10) / 10
	return s
}

// Scores extracts the numeric ratings in [0, 10] from column.
func Scores(ds *core.Dataset, column string) []float64 {
	out := make([]float64, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		if f, ok := ds.Value(i, column).Float(); ok && f >= 0 && f <= 10 {
			out = append(out, f)
		}
	}
	return out
}

// Costs extracts the non-negative numeric costs from column.
func Costs(ds *core.Dataset, column string) []float64 {
	out := make([]float64, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		if f, ok := ds.Value(i, column).Float(); ok && f >= 0 {
			out = append(out, f)
		}
	}
	return out
}

// roundHalfUp rounds to the nearest integer with halves going towards +Inf,
// so -12.5 becomes -12.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
