package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/servicepulse/internal/core"
)

const feedbackCSV = `engagement,score,cost,date,category
Yes,10,100,01/05/24,Tune-up
yes,9,120,01/20/24,Tune-up
TRUE,3,80,02/11/24,Repair
No,7,300,02/15/24,Repair
no,2,500,03/01/24,Repair
maybe,10,50,03/09/24,Wash
false,,60,3/30/24,Wash
`

func loadFeedback(t *testing.T) (*core.Dataset, core.Schema) {
	t.Helper()
	ds, err := core.Parse(feedbackCSV)
	require.NoError(t, err)
	return ds, core.DetectSchema(ds.Headers)
}

func TestScore(t *testing.T) {
	t.Run("boundary scores cancel out", func(t *testing.T) {
		s := Score([]float64{0, 6, 7, 8, 9, 10})
		assert.Equal(t, 2, s.Detractors)
		assert.Equal(t, 2, s.Passives)
		assert.Equal(t, 2, s.Promoters)
		assert.Equal(t, 6, s.Total)
		assert.Equal(t, 0, s.Score)
		assert.Equal(t, 6.7, s.Average)
	})

	t.Run("empty input is zero", func(t *testing.T) {
		assert.Equal(t, Satisfaction{}, Score(nil))
	})

	t.Run("halves round up", func(t *testing.T) {
		assert.Equal(t, 13, Score([]float64{9, 7, 7, 7, 7, 7, 7, 7}).Score)
		assert.Equal(t, -12, Score([]float64{0, 7, 7, 7, 7, 7, 7, 7}).Score)
	})

	t.Run("fractional ratings are counted but unclassified", func(t *testing.T) {
		s := Score([]float64{6.5, 9})
		assert.Equal(t, 2, s.Total)
		assert.Equal(t, 0, s.Detractors)
		assert.Equal(t, 1, s.Promoters)
		assert.Equal(t, 50, s.Score)
	})

	t.Run("all promoters", func(t *testing.T) {
		s := Score([]float64{9, 10, 10})
		assert.Equal(t, 100, s.Score)
		assert.InDelta(t, 100.0, s.Raw(), 1e-9)
	})
}

func TestExtraction(t *testing.T) {
	ds, err := core.Parse("score,cost\n11,-5\n-1,abc\nyes,true\n7,0\n,12.5\n")
	require.NoError(t, err)

	assert.Equal(t, []float64{7}, Scores(ds, "score"))
	assert.Equal(t, []float64{0, 12.5}, Costs(ds, "cost"))
	assert.Empty(t, Scores(nil, "score"))
}

func TestEngagementSplit(t *testing.T) {
	ds, schema := loadFeedback(t)

	assert.Equal(t, Engagement{Engaged: 3, NotEngaged: 3, Total: 6, EngagedPercent: 50}, EngagementSplit(ds, schema))
	assert.Equal(t, Engagement{}, EngagementSplit(nil, schema))
}

func TestCompareSegments(t *testing.T) {
	ds, schema := loadFeedback(t)
	cmp := CompareSegments(ds, schema)

	assert.Equal(t, 3, cmp.Engaged.Rows)
	assert.Equal(t, 3, cmp.Engaged.Total)
	assert.Equal(t, 33, cmp.Engaged.Score)
	assert.Equal(t, 7.3, cmp.Engaged.Average)

	assert.Equal(t, 3, cmp.NotEngaged.Rows)
	assert.Equal(t, 2, cmp.NotEngaged.Total)
	assert.Equal(t, -50, cmp.NotEngaged.Score)
	assert.Equal(t, 4.5, cmp.NotEngaged.Average)

	// 33.33 - (-50) = 83.33, rounded from unrounded inputs.
	assert.Equal(t, 83, cmp.Difference)
}

func TestDescribeCosts(t *testing.T) {
	cs := DescribeCosts([]float64{80, 300, 500})
	assert.Equal(t, 3, cs.Count)
	assert.Equal(t, 880.0, cs.Total)
	assert.Equal(t, 80.0, cs.Min)
	assert.Equal(t, 500.0, cs.Max)
	assert.InDelta(t, 293.333, cs.Mean, 1e-3)
	assert.InDelta(t, 29422.222, cs.Variance, 1e-3)
	assert.InDelta(t, 171.529, cs.StdDev, 1e-3)
	assert.InDelta(t, 58.476, cs.CV, 1e-3)

	assert.Equal(t, CostStats{}, DescribeCosts(nil))
	assert.Equal(t, 0.0, DescribeCosts([]float64{0, 0}).CV)
}

func TestClassifyCV(t *testing.T) {
	tests := []struct {
		cv   float64
		want Variability
	}{
		{0, VariabilityLow},
		{15, VariabilityLow},
		{15.01, VariabilityMedium},
		{25, VariabilityMedium},
		{25.01, VariabilityHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyCV(tt.cv), "cv=%v", tt.cv)
	}
}

func TestCategories(t *testing.T) {
	ds, schema := loadFeedback(t)
	b := Categories(ds, schema)

	require.Len(t, b.Categories, 3)
	names := []string{b.Categories[0].Category, b.Categories[1].Category, b.Categories[2].Category}
	assert.Equal(t, []string{"Tune-up", "Repair", "Wash"}, names)

	tune, repair, wash := b.Categories[0], b.Categories[1], b.Categories[2]

	assert.Equal(t, 2, tune.Rows)
	assert.Equal(t, 100, tune.Satisfaction.Score)
	assert.Equal(t, 110.0, tune.Cost.Mean)
	assert.Equal(t, VariabilityLow, tune.Variability)
	assert.Equal(t, 100, tune.EngagedScore)
	assert.Equal(t, 0, tune.NotEngagedScore)

	assert.Equal(t, 3, repair.Rows)
	assert.Equal(t, -67, repair.Satisfaction.Score)
	assert.Equal(t, VariabilityHigh, repair.Variability)
	assert.Equal(t, -100, repair.EngagedScore)
	assert.Equal(t, -50, repair.NotEngagedScore)

	assert.Equal(t, 2, wash.Rows)
	assert.Equal(t, 1, wash.Satisfaction.Total)
	assert.Equal(t, 55.0, wash.Cost.Mean)

	assert.Equal(t, "Tune-up", b.BestScore)
	assert.Equal(t, "Repair", b.WorstScore)
	assert.Equal(t, "Repair", b.HighestVariability)
	assert.Equal(t, "Wash", b.LowestVariability)
	assert.Equal(t, "Repair", b.HighestCost)
	assert.Equal(t, "Wash", b.LowestCost)
	assert.InDelta(t, 172.857, b.MeanCost, 1e-3)
}

func TestCategories_SkipsBlankAndUnpriced(t *testing.T) {
	ds, err := core.Parse("score,cost,category\n9,abc,Detail\n8,,  \n7,40, Wash \n")
	require.NoError(t, err)
	b := Categories(ds, core.DetectSchema(ds.Headers))

	require.Len(t, b.Categories, 2)
	assert.Equal(t, "Detail", b.Categories[0].Category)
	assert.Equal(t, "Wash", b.Categories[1].Category)
	assert.Equal(t, 0, b.Categories[0].Cost.Count)

	// Only Wash has a cost, so it is both highest and lowest.
	assert.Equal(t, "Wash", b.HighestCost)
	assert.Equal(t, "Wash", b.LowestCost)
	assert.Equal(t, "Detail", b.BestScore)
}

func TestLeadingMonth(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"01/15/24", 1, true},
		{"12/1/23", 12, true},
		{"3", 3, true},
		{"13/01/24", 0, false},
		{"0/01/24", 0, false},
		{"x/01/24", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := leadingMonth(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMonthly(t *testing.T) {
	ds, schema := loadFeedback(t)
	m := Monthly(ds, schema)

	assert.Equal(t, []int{1, 2, 3}, m.Months)
	assert.Equal(t, []string{"Jan", "Feb", "Mar"}, m.Labels)
	assert.Equal(t, []MonthlySeries{
		{Category: "Tune-up", Counts: []int{2, 0, 0}},
		{Category: "Repair", Counts: []int{0, 2, 1}},
		{Category: "Wash", Counts: []int{0, 0, 2}},
	}, m.Series)
}

func TestSummarize(t *testing.T) {
	ds, schema := loadFeedback(t)
	s := Summarize(ds, schema)

	assert.Equal(t, 7, s.Rows)
	assert.Equal(t, 6, s.Satisfaction.Total)
	assert.Equal(t, 17, s.Satisfaction.Score)
	assert.Equal(t, 6.8, s.Satisfaction.Average)
	assert.Len(t, s.Categories.Categories, 3)

	empty := Summarize(nil, core.DefaultSchema)
	assert.Equal(t, 0, empty.Rows)
	assert.Empty(t, empty.Categories.Categories)
	assert.Empty(t, empty.Monthly.Months)
}
