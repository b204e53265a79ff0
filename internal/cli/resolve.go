package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/servicepulse/internal/core"
	"github.com/JonMunkholm/servicepulse/internal/store"
)

const resolveHelp = `commands:
  list [COLUMN...]      show open issues
  edit N VALUE          replace the value of issue N
  delete N              delete the row of issue N
  confirm N             accept the value of issue N as correct
  write                 write the cleaned file now
  quit                  write the cleaned file and exit
`

// pageSize bounds how many issues are printed at once.
const pageSize = 20

func (a *app) resolveCommand() *cobra.Command {
	var outPath string
	var persist bool

	cmd := &cobra.Command{
		Use:   "resolve FILE",
		Short: "Interactively fix, delete or confirm flagged values",
		Long: "Resolve issues one command per line on stdin. The cleaned CSV is " +
			"written on exit; the command exits with status 2 if issues remain.\n\n" + resolveHelp,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ds core.DatasetStore
			if persist {
				kv, err := store.Open(cmd.Context(), a.opts.storeConfig())
				if err != nil {
					return fmt.Errorf("open store: %w", err)
				}
				defer kv.Close()
				ds = store.NewDatasetStore(kv)
			}

			sess := a.newSession(ds)
			if _, err := a.ingestFile(cmd, sess, args[0]); err != nil {
				return err
			}
			if outPath == "" {
				outPath = cleanedPath(args[0])
			}

			r := &resolver{sess: sess, out: a.out, outPath: outPath}
			if err := r.run(cmd.Context(), a.in); err != nil {
				return err
			}
			if err := r.write(); err != nil {
				return err
			}
			if !sess.Complete() {
				return errIssuesRemain
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "cleaned CSV path (default FILE_cleaned.csv)")
	cmd.Flags().BoolVar(&persist, "persist", false, "save every change to the configured store")
	return cmd
}

// cleanedPath places the output next to the input.
func cleanedPath(in string) string {
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + "_cleaned" + ext
}

// resolver runs the command loop over one session.
type resolver struct {
	sess    *core.Session
	out     io.Writer
	outPath string
	filter  []string
}

func (r *resolver) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	r.list()
	for !r.sess.Complete() {
		fmt.Fprint(r.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(r.out)
			return sc.Err()
		}
		quit, err := r.exec(ctx, strings.TrimSpace(sc.Text()))
		if err != nil {
			if !core.IsUserFacing(err) {
				return err
			}
			fmt.Fprintf(r.out, "! %s\n", core.FormatUserError(err))
			continue
		}
		if quit {
			return nil
		}
	}
	fmt.Fprintln(r.out, "all issues resolved")
	return nil
}

// exec runs one command line. quit is true when the loop should stop.
func (r *resolver) exec(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "list", "ls":
		r.filter = fields[1:]
		r.list()
	case "edit", "e":
		if len(fields) < 3 {
			fmt.Fprintln(r.out, "usage: edit N VALUE")
			return false, nil
		}
		ref, ok := r.ref(fields[1])
		if !ok {
			return false, nil
		}
		// The value keeps its inner spacing.
		value := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		value = strings.TrimSpace(strings.TrimPrefix(value, fields[1]))
		if _, err := r.sess.Edit(ctx, ref, value); err != nil {
			return false, err
		}
		r.list()
	case "delete", "d":
		return false, r.simple(ctx, fields, r.sess.Delete)
	case "confirm", "c":
		return false, r.simple(ctx, fields, r.sess.Confirm)
	case "write", "w":
		if err := r.write(); err != nil {
			return false, err
		}
	case "quit", "q", "exit":
		return true, nil
	case "help", "?":
		fmt.Fprint(r.out, resolveHelp)
	default:
		fmt.Fprintf(r.out, "unknown command %q\n%s", fields[0], resolveHelp)
	}
	return false, nil
}

// simple runs a command whose only argument is an issue number.
func (r *resolver) simple(ctx context.Context, fields []string, op func(context.Context, core.IssueRef) (core.Report, error)) error {
	if len(fields) != 2 {
		fmt.Fprintf(r.out, "usage: %s N\n", fields[0])
		return nil
	}
	ref, ok := r.ref(fields[1])
	if !ok {
		return nil
	}
	if _, err := op(ctx, ref); err != nil {
		return err
	}
	r.list()
	return nil
}

// ref maps a listed issue number to a reference into the current list.
func (r *resolver) ref(arg string) (core.IssueRef, bool) {
	issues := r.sess.Issues(r.filter...)
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(issues) {
		fmt.Fprintf(r.out, "no issue %s (1-%d)\n", arg, len(issues))
		return core.IssueRef{}, false
	}
	is := issues[n-1]
	return core.IssueRef{Row: is.RowIndex, Column: is.Column}, true
}

func (r *resolver) list() {
	issues := r.sess.Issues(r.filter...)
	total := len(r.sess.Report().Issues)
	if total == 0 {
		return
	}
	fmt.Fprintf(r.out, "%d open issues", total)
	if len(r.filter) > 0 {
		fmt.Fprintf(r.out, " (%d in %s)", len(issues), strings.Join(r.filter, ", "))
	}
	fmt.Fprintln(r.out)
	shown := issues
	if len(shown) > pageSize {
		shown = shown[:pageSize]
	}
	writeIssueList(r.out, viewIssues(shown))
	if len(issues) > len(shown) {
		fmt.Fprintf(r.out, "  ... %d more\n", len(issues)-len(shown))
	}
}

func (r *resolver) write() error {
	ds := r.sess.Snapshot()
	if ds == nil {
		return core.ErrNoDataset
	}
	if err := os.WriteFile(r.outPath, []byte(core.FormatCSV(ds)), 0o644); err != nil {
		return fmt.Errorf("write cleaned file: %w", err)
	}
	fmt.Fprintf(r.out, "wrote %d rows to %s\n", ds.Len(), r.outPath)
	return nil
}
