package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/servicepulse/internal/core"
)

// issueView is the printable form of an issue. Rows are 1-based.
type issueView struct {
	Row         int    `json:"row"`
	Column      string `json:"column"`
	Value       string `json:"value"`
	Issue       string `json:"issue"`
	Confirmable bool   `json:"confirmable"`
}

func viewIssues(issues []core.Issue) []issueView {
	out := make([]issueView, len(issues))
	for i, is := range issues {
		out[i] = issueView{
			Row:         is.DisplayRow(),
			Column:      is.Column,
			Value:       is.Value.Text(),
			Issue:       is.Reason,
			Confirmable: is.Confirmable,
		}
	}
	return out
}

// checkResult is the output of pulse check.
type checkResult struct {
	File     string             `json:"file"`
	Rows     int                `json:"rows"`
	Schema   core.Schema        `json:"schema"`
	Complete bool               `json:"complete"`
	Counts   []core.ColumnCount `json:"counts"`
	Issues   []issueView        `json:"issues"`
}

func (a *app) checkCommand() *cobra.Command {
	var columns []string
	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Parse and validate a CSV file",
		Long:  "Parse and validate a CSV file. Exits with status 2 when issues remain.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := a.newSession(nil)
			rep, err := a.ingestFile(cmd, sess, args[0])
			if err != nil {
				return err
			}

			info := sess.Info()
			res := checkResult{
				File:     filepath.Base(args[0]),
				Rows:     info.Rows,
				Schema:   info.Schema,
				Complete: rep.Complete,
				Counts:   core.CountByColumn(info.Schema, rep.Issues),
				Issues:   viewIssues(core.FilterIssues(rep.Issues, columns...)),
			}
			if res.Counts == nil {
				res.Counts = []core.ColumnCount{}
			}
			if err := render(a.out, a.opts.Output, res, res.writeText); err != nil {
				return err
			}
			if !rep.Complete {
				return errIssuesRemain
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&columns, "column", nil, "only list issues in these columns")
	return cmd
}

// ingestFile reads path and loads it into sess.
func (a *app) ingestFile(cmd *cobra.Command, sess *core.Session, path string) (core.Report, error) {
	st, err := os.Stat(path)
	if err != nil {
		return core.Report{}, err
	}
	if err := sess.CheckFile(filepath.Base(path), st.Size()); err != nil {
		return core.Report{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Report{}, err
	}
	return sess.Ingest(cmd.Context(), filepath.Base(path), data)
}

func (r checkResult) writeText(w io.Writer) error {
	fmt.Fprintf(w, "%s: %d rows\n", r.File, r.Rows)
	if r.Complete {
		fmt.Fprintln(w, "no issues found")
		return nil
	}
	total := 0
	for _, c := range r.Counts {
		total += c.Count
	}
	fmt.Fprintf(w, "%d issues\n", total)
	for _, c := range r.Counts {
		fmt.Fprintf(w, "  %-20s %d\n", c.Column, c.Count)
	}
	fmt.Fprintln(w)
	writeIssueList(w, r.Issues)
	return nil
}

// writeIssueList prints issues numbered from 1, the numbers resolve uses.
func writeIssueList(w io.Writer, issues []issueView) {
	for i, is := range issues {
		mark := ""
		if is.Confirmable {
			mark = " [confirmable]"
		}
		fmt.Fprintf(w, "%3d. row %d, %s = %q: %s%s\n", i+1, is.Row, is.Column, is.Value, is.Issue, mark)
	}
}
