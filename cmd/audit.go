package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/sentiment-proxy/internal/audit"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit [tab]",
	Short: "Show the most recent manual overrides",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := newAuditStore(ctx)
		if err != nil {
			return eris.Wrap(err, "open audit store")
		}
		if store == nil {
			return eris.New("audit trail is disabled (audit.driver is off)")
		}
		defer store.Close()

		filter := audit.Filter{Limit: auditLimit}
		if len(args) == 1 {
			filter.Tab = args[0]
		}

		recs, err := store.List(ctx, filter)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("no overrides recorded")
			return nil
		}

		tw := tablewriter.NewWriter(os.Stdout)
		tw.SetHeader([]string{"When", "Tab", "Key", "Changes"})
		for _, rec := range recs {
			tw.Append([]string{
				rec.AppliedAt.Format("2006-01-02 15:04"),
				rec.Tab,
				rec.Key,
				strings.Join(rec.Changes, "; "),
			})
		}
		tw.Render()
		return nil
	},
}

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "maximum records to show")
	rootCmd.AddCommand(auditCmd)
}
