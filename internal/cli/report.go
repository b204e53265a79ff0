package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/servicepulse/internal/analytics"
)

// reportResult is the output of pulse report.
type reportResult struct {
	File string `json:"file"`
	analytics.Summary
}

func (a *app) reportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report FILE",
		Short: "Print satisfaction, engagement, cost and monthly analytics",
		Long: "Print analytics for a CSV file. Values that fail validation are " +
			"left out of each aggregate; run check or resolve first for a clean report.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := a.newSession(nil)
			if _, err := a.ingestFile(cmd, sess, args[0]); err != nil {
				return err
			}
			res := reportResult{
				File:    filepath.Base(args[0]),
				Summary: analytics.Summarize(sess.Snapshot(), sess.Schema()),
			}
			return render(a.out, a.opts.Output, res, res.writeText)
		},
	}
}

func (r reportResult) writeText(w io.Writer) error {
	s := r.Summary
	fmt.Fprintf(w, "%s: %d rows\n\n", r.File, s.Rows)

	sat := s.Satisfaction
	fmt.Fprintf(w, "Satisfaction score  %d  (avg rating %.1f, %d responses)\n", sat.Score, sat.Average, sat.Total)
	fmt.Fprintf(w, "  promoters %d, passives %d, detractors %d\n", sat.Promoters, sat.Passives, sat.Detractors)

	e := s.Engagement
	fmt.Fprintf(w, "Digital engagement  %d%%  (%d of %d)\n", e.EngagedPercent, e.Engaged, e.Total)
	fmt.Fprintf(w, "  engaged score %d, not engaged score %d, difference %+d\n\n",
		s.Segments.Engaged.Score, s.Segments.NotEngaged.Score, s.Segments.Difference)

	c := s.Categories
	if len(c.Categories) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tROWS\tSCORE\tAVG COST\tMIN\tMAX\tCV%\tVARIABILITY")
		for _, cs := range c.Categories {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.1f\t%s\n",
				cs.Category, cs.Rows, cs.Satisfaction.Score,
				cs.Cost.Mean, cs.Cost.Min, cs.Cost.Max, cs.Cost.CV, cs.Variability)
		}
		tw.Flush()
		fmt.Fprintf(w, "\noverall avg cost %.2f\n", c.MeanCost)
		fmt.Fprintf(w, "best %s, worst %s\n", orDash(c.BestScore), orDash(c.WorstScore))
		fmt.Fprintf(w, "most variable %s, least variable %s\n", orDash(c.HighestVariability), orDash(c.LowestVariability))
		fmt.Fprintf(w, "highest cost %s, lowest cost %s\n\n", orDash(c.HighestCost), orDash(c.LowestCost))
	}

	m := s.Monthly
	if len(m.Months) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "MONTH\t%s\n", strings.Join(m.Labels, "\t"))
		for _, series := range m.Series {
			cells := make([]string, len(series.Counts))
			for i, n := range series.Counts {
				cells[i] = fmt.Sprint(n)
			}
			fmt.Fprintf(tw, "%s\t%s\n", series.Category, strings.Join(cells, "\t"))
		}
		tw.Flush()
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
