package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sentiment-proxy/internal/override"
	"github.com/sells-group/sentiment-proxy/internal/resilience"
)

var cacheCmd = &cobra.Command{
	Use:   "cache [tab...]",
	Short: "Hydrate the override cache and report what it holds",
	Long:  "Loads the manual risk overrides from the given tabs (default: the configured risk tabs) the same way a dashboard session does at startup, then prints how many overrides each session would start with.",
	RunE: func(cmd *cobra.Command, args []string) error {
		tabs := args
		if len(tabs) == 0 {
			tabs = cfg.Override.RiskTabs
		}
		if len(tabs) == 0 {
			return eris.New("no tabs given and override.risk_tabs is empty")
		}

		cache := override.NewCache(override.CacheConfig{
			KeyColumns:  []string{"date", "entity"},
			ValueColumn: cfg.Override.ValueColumn,
			Separator:   cfg.Override.KeySeparator,
			Sentinel:    cfg.Override.ResetSentinel,
		})

		client := newSheetsClient()
		err := resilience.Do(cmd.Context(), resilience.DefaultRetryConfig(), "cache hydrate",
			func(ctx context.Context) error {
				return cache.Load(ctx, client, tabs...)
			})
		if err != nil {
			return eris.Wrap(err, "hydrate override cache")
		}

		zap.L().Info("override cache hydrated",
			zap.Strings("tabs", tabs),
			zap.Int("overrides", cache.Len()),
		)
		fmt.Printf("%d manual overrides across %d tab(s)\n", cache.Len(), len(tabs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
}
