// Package cli implements the pulse command-line tool: offline checks,
// analytics reports, interactive resolution and export of the persisted
// dataset.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/servicepulse/internal/core"
	"github.com/JonMunkholm/servicepulse/internal/logging"
)

// Exit codes.
const (
	ExitOK           = 0
	ExitError        = 1
	ExitIssuesRemain = 2
)

// errIssuesRemain makes check and resolve exit non-zero without printing
// an error line; the report already says what is wrong.
var errIssuesRemain = errors.New("issues remain")

// app carries the streams and resolved options for one invocation.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfgFile string
	opts    Options
	logger  *slog.Logger
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	a := &app{in: in, out: out, errOut: errOut}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errIssuesRemain):
		return ExitIssuesRemain
	case core.IsUserFacing(err):
		fmt.Fprintf(errOut, "Error: %s\n  %v\n", core.FormatUserError(err), err)
	default:
		fmt.Fprintf(errOut, "Error: %v\n", err)
	}
	return ExitError
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "pulse",
		Short:         "Validate, resolve and analyse service feedback CSV files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.opts = opts
			a.logger = logging.New(a.errOut, opts.LogLevel, opts.LogFormat)
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default is ~/.servicepulse/pulse.yaml)")
	f.StringP("output", "o", OutputText, "output format: text, json or yaml")
	f.String("log-level", "warn", "log level: debug, info, warn, error")
	f.String("log-format", "text", "log format: text or json")
	f.Int64("max-file-size", core.DefaultMaxFileSize, "largest accepted CSV in bytes")
	f.StringSlice("allowed-extensions", []string{".csv"}, "accepted file extensions")
	f.Float64("cost-margin", core.DefaultCostMargin, "flag costs more than this above the mean")
	f.String("store-driver", "pebble", "store backend: pebble, postgres or memory")
	f.String("store-path", "data/servicepulse", "pebble data directory")
	f.String("database-url", "", "PostgreSQL URL for the postgres driver")

	root.AddCommand(
		a.checkCommand(),
		a.reportCommand(),
		a.resolveCommand(),
		a.exportCommand(),
	)
	return root
}

// newSession builds a session for the current options. store may be nil.
func (a *app) newSession(store core.DatasetStore) *core.Session {
	cfg := a.opts.sessionConfig()
	cfg.Logger = a.logger
	return core.NewSession(store, cfg)
}
