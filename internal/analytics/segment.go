package analytics

import (
	"strings"

	"github.com/JonMunkholm/servicepulse/internal/core"
)

// Engagement counts rows by digital engagement.
type Engagement struct {
	Engaged        int `json:"digital"`
	NotEngaged     int `json:"nonDigital"`
	Total          int `json:"totalCustomers"`
	EngagedPercent int `json:"digitalPercentage"`
}

// Segment is the satisfaction of one engagement group.
type Segment struct {
	Satisfaction
	Rows int `json:"count"`
}

// SegmentComparison compares engaged and not-engaged customers.
type SegmentComparison struct {
	Engaged    Segment `json:"digital"`
	NotEngaged Segment `json:"nonDigital"`
	Difference int     `json:"difference"`
}

// segmentOf classifies an engagement cell. ok is false for anything other
// than yes/true or no/false (any case).
func segmentOf(v core.Value) (engaged, ok bool) {
	if v.Kind == core.KindBool {
		return v.Bool, true
	}
	switch strings.ToLower(v.Text()) {
	case "yes", "true":
		return true, true
	case "no", "false":
		return false, true
	}
	return false, false
}

// EngagementSplit counts engaged and not-engaged rows. Rows with any other
// engagement value are not counted.
func EngagementSplit(ds *core.Dataset, schema core.Schema) Engagement {
	var e Engagement
	for i := 0; i < ds.Len(); i++ {
		engaged, ok := segmentOf(ds.Value(i, schema.Engagement))
		if !ok {
			continue
		}
		if engaged {
			e.Engaged++
		} else {
			e.NotEngaged++
		}
	}
	e.Total = e.Engaged + e.NotEngaged
	if e.Total > 0 {
		e.EngagedPercent = roundHalfUp(float64(e.Engaged) / float64(e.Total) * 100)
	}
	return e
}

// CompareSegments scores each engagement segment independently. Difference
// is computed from the unrounded scores and then rounded.
func CompareSegments(ds *core.Dataset, schema core.Schema) SegmentComparison {
	var engagedScores, otherScores []float64
	var cmp SegmentComparison

	for i := 0; i < ds.Len(); i++ {
		engaged, ok := segmentOf(ds.Value(i, schema.Engagement))
		if !ok {
			continue
		}
		f, valid := ds.Value(i, schema.Score).Float()
		valid = valid && f >= 0 && f <= 10
		if engaged {
			cmp.Engaged.Rows++
			if valid {
				engagedScores = append(engagedScores, f)
			}
		} else {
			cmp.NotEngaged.Rows++
			if valid {
				otherScores = append(otherScores, f)
			}
		}
	}

	cmp.Engaged.Satisfaction = Score(engagedScores)
	cmp.NotEngaged.Satisfaction = Score(otherScores)
	cmp.Difference = roundHalfUp(cmp.Engaged.Raw() - cmp.NotEngaged.Raw())
	return cmp
}
