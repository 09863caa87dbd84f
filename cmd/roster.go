package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sentiment-proxy/internal/resilience"
	"github.com/sells-group/sentiment-proxy/internal/roster"
)

var rosterCmd = &cobra.Command{
	Use:   "roster <file.yaml> <tab>",
	Short: "Sync a CEO/brand roster file to a sheet tab",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, tab := args[0], args[1]

		r, err := roster.Load(file)
		if err != nil {
			return err
		}
		snap := r.Snapshot()

		client := newSheetsClient()
		err = resilience.Do(cmd.Context(), resilience.DefaultRetryConfig(), "roster sync",
			func(ctx context.Context) error {
				return client.WriteTable(ctx, tab, snap)
			})
		if err != nil {
			return eris.Wrapf(err, "sync roster to %s", tab)
		}

		zap.L().Info("roster synced",
			zap.String("file", file),
			zap.String("tab", tab),
			zap.Int("entities", len(snap.Rows)),
		)
		fmt.Printf("synced %d entities to %s\n", len(snap.Rows), tab)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rosterCmd)
}
