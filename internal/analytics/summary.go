package analytics

import "github.com/JonMunkholm/servicepulse/internal/core"

// Summary bundles every aggregate for one dataset snapshot.
type Summary struct {
	Rows         int               `json:"rows"`
	Satisfaction Satisfaction      `json:"satisfaction"`
	Engagement   Engagement        `json:"engagement"`
	Segments     SegmentComparison `json:"segments"`
	Categories   CategoryBreakdown `json:"categories"`
	Monthly      MonthlyBreakdown  `json:"monthly"`
}

// Summarize computes all aggregates. A nil dataset yields zero values.
func Summarize(ds *core.Dataset, schema core.Schema) Summary {
	return Summary{
		Rows:         ds.Len(),
		Satisfaction: Score(Scores(ds, schema.Score)),
		Engagement:   EngagementSplit(ds, schema),
		Segments:     CompareSegments(ds, schema),
		Categories:   Categories(ds, schema),
		Monthly:      Monthly(ds, schema),
	}
}
