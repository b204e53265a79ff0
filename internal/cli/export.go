package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/servicepulse/internal/core"
	"github.com/JonMunkholm/servicepulse/internal/store"
)

func (a *app) exportCommand() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the persisted dataset as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kv, err := store.Open(cmd.Context(), a.opts.storeConfig())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer kv.Close()

			ds, err := store.NewDatasetStore(kv).LoadDataset(cmd.Context())
			if err != nil {
				return err
			}
			if ds == nil {
				return core.ErrNoDataset
			}

			csv := core.FormatCSV(ds)
			if outPath == "" {
				_, err := fmt.Fprint(a.out, csv)
				return err
			}
			if err := os.WriteFile(outPath, []byte(csv), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			a.logger.Info("dataset exported", "rows", ds.Len(), "path", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write to this file instead of stdout")
	return cmd
}
