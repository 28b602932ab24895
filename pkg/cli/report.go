package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruvnet/agentic-security/internal/cache"
	"github.com/ruvnet/agentic-security/internal/pipeline"
	"github.com/ruvnet/agentic-security/internal/scan"
)

func newReportCmd() *cobra.Command {
	var scanID string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a Markdown report from cached scan results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := pipeline.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			setupLogger(cfg.LogFormat, cfg.LogLevel)

			ctx := cmd.Context()
			store, err := cache.Open(ctx, cfg.CachePath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entry, err := store.Get(ctx, scanID)
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("no cached results for scan id %q", scanID)
			}
			if !scan.ValidateRaw(entry.Results) {
				return fmt.Errorf("cached results for %q are structurally invalid, rescan first", scanID)
			}

			var result scan.Result
			if err := json.Unmarshal(entry.Results, &result); err != nil {
				return fmt.Errorf("decode cached results: %w", err)
			}

			reportPath, err := pipeline.WriteReport(result, nil, cfg.ReportsDir)
			if err != nil {
				return err
			}
			fmt.Printf("Report (scanned %s): %s\n",
				entry.Timestamp.Format(time.RFC3339), reportPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&scanID, "scan-id", "pipeline", "Cache key to report on")
	return cmd
}

func newPruneCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached scan results older than N days",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := pipeline.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			setupLogger(cfg.LogFormat, cfg.LogLevel)

			ctx := cmd.Context()
			store, err := cache.Open(ctx, cfg.CachePath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := store.Prune(ctx, time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Printf("Pruned %d cached scan result(s) older than %d days\n", n, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Age cutoff in days")
	return cmd
}
