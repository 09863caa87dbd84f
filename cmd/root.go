package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sentiment-proxy/internal/audit"
	"github.com/sells-group/sentiment-proxy/internal/config"
	"github.com/sells-group/sentiment-proxy/pkg/sheets"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sentiment-proxy",
	Short: "Override proxy for the CEO/brand news-sentiment dashboard",
	Long:  "Reads and writes the dashboard's Google Sheets tabs: serves the READ/UPDATE_SENTIMENT protocol, applies one-off overrides, syncs entity rosters, and shows the override audit trail.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newSheetsClient builds the store adapter from config.
func newSheetsClient() sheets.Client {
	return sheets.NewClient(cfg.Sheets.SpreadsheetID, cfg.Sheets.Token,
		sheets.WithBaseURL(cfg.Sheets.BaseURL),
		sheets.WithTimeout(cfg.Sheets.Timeout()),
		sheets.WithRateLimit(cfg.Sheets.RequestsPerSec),
	)
}

// newAuditStore opens the configured audit backend, or returns nil when the
// trail is disabled.
func newAuditStore(ctx context.Context) (audit.Store, error) {
	switch cfg.Audit.Driver {
	case "", "off":
		return nil, nil
	case "sqlite":
		st, err := audit.NewSQLite(cfg.Audit.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, st.Migrate(ctx)
	case "postgres":
		st, err := audit.NewPostgres(ctx, cfg.Audit.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, st.Migrate(ctx)
	default:
		return nil, fmt.Errorf("unknown audit driver %q", cfg.Audit.Driver)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
