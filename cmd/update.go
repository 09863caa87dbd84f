package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/sentiment-proxy/internal/override"
	"github.com/sells-group/sentiment-proxy/internal/proxy"
	"github.com/sells-group/sentiment-proxy/internal/table"
)

var updateFlags struct {
	tab        string
	url        string
	date       string
	entity     string
	sentiment  string
	controlled string
	risk       string
	markEdited bool
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Apply one manual override to a sheet row",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := updateKey()
		if err != nil {
			return err
		}

		fields := map[string]string{}
		if updateFlags.sentiment != "" {
			fields["sentiment"] = updateFlags.sentiment
		}
		if updateFlags.controlled != "" {
			fields["controlled"] = updateFlags.controlled
		}
		if updateFlags.risk != "" {
			fields["risk"] = updateFlags.risk
		}

		updates, err := override.ValidateUpdates(fields)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		auditor, err := newAuditStore(ctx)
		if err != nil {
			return eris.Wrap(err, "open audit store")
		}
		if auditor != nil {
			defer auditor.Close()
		}

		client := newSheetsClient()
		svc := proxy.NewService(client, auditor)

		res, err := svc.Upsert(ctx, updateFlags.tab, key, updates, updateFlags.markEdited)
		if err != nil {
			return err
		}

		for _, c := range res.Changes {
			fmt.Println(c)
		}
		fmt.Printf("row %d updated at %s\n", res.RowIndex, res.Timestamp.Format("15:04:05 MST"))

		// Echo what the dashboard will now display for the risk pill.
		if v, ok := fields[cfg.Override.ValueColumn]; ok {
			cache := override.NewCache(override.CacheConfig{
				KeyColumns:  key.Columns,
				ValueColumn: cfg.Override.ValueColumn,
				Separator:   cfg.Override.KeySeparator,
				Sentinel:    cfg.Override.ResetSentinel,
			})
			cacheKey := cache.Key(key.Values...)
			cache.Set(cacheKey, override.FromRaw(v, cfg.Override.ResetSentinel))
			display, overridden := cache.DisplayValue(cacheKey, "(auto)")
			if overridden {
				fmt.Printf("dashboard will show %s=%s (manual override)\n", cfg.Override.ValueColumn, display)
			} else {
				fmt.Printf("dashboard will fall back to the auto-computed %s\n", cfg.Override.ValueColumn)
			}
		}

		return nil
	},
}

func updateKey() (table.Key, error) {
	hasURL := updateFlags.url != ""
	hasDate := updateFlags.date != ""
	hasEntity := updateFlags.entity != ""

	switch {
	case hasURL && (hasDate || hasEntity):
		return table.Key{}, eris.New("provide --url or --date/--entity, not both")
	case hasURL:
		return table.URLKey(updateFlags.url), nil
	case hasDate && hasEntity:
		return table.DateEntityKey(updateFlags.date, updateFlags.entity), nil
	default:
		return table.Key{}, eris.New("provide --url, or --date and --entity")
	}
}

func init() {
	updateCmd.Flags().StringVar(&updateFlags.tab, "tab", "", "sheet tab to update (required)")
	updateCmd.Flags().StringVar(&updateFlags.url, "url", "", "article URL key")
	updateCmd.Flags().StringVar(&updateFlags.date, "date", "", "date key (with --entity)")
	updateCmd.Flags().StringVar(&updateFlags.entity, "entity", "", "entity key (with --date)")
	updateCmd.Flags().StringVar(&updateFlags.sentiment, "sentiment", "", "sentiment: positive, neutral or negative")
	updateCmd.Flags().StringVar(&updateFlags.controlled, "controlled", "", "controlled or uncontrolled")
	updateCmd.Flags().StringVar(&updateFlags.risk, "risk", "", "risk: Low, Medium, High, or Auto to reset")
	updateCmd.Flags().BoolVar(&updateFlags.markEdited, "mark-edited", true, "record edit provenance")
	_ = updateCmd.MarkFlagRequired("tab")
	rootCmd.AddCommand(updateCmd)
}
