package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ruvnet/agentic-security/internal/cache"
	"github.com/ruvnet/agentic-security/internal/pipeline"
	"github.com/ruvnet/agentic-security/internal/scan"
)

func newScanCmd() *cobra.Command {
	var (
		scanID    string
		skipCache bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run security scans only and write a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := pipeline.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogFormat, cfg.LogLevel)

			ctx := cmd.Context()
			store, err := cache.Open(ctx, cfg.CachePath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			orch := scan.NewOrchestrator(store, logger)
			result, runErrs, err := orch.GetOrRun(ctx, scanID, cfg.ScanTargets, skipCache)
			if err != nil {
				return err
			}

			reportPath, err := pipeline.WriteReport(result, runErrs, cfg.ReportsDir)
			if err != nil {
				return err
			}

			fmt.Printf("Scan complete. Report: %s\n", reportPath)
			fmt.Printf("  Web findings:  %d\n", len(result.Web))
			fmt.Printf("  Code findings: %d\n", len(result.Code))
			fmt.Printf("  Max severity:  %.1f (threshold %.1f)\n",
				result.MaxSeverity(), cfg.CriticalThreshold)
			return nil
		},
	}

	cmd.Flags().StringVar(&scanID, "scan-id", "pipeline", "Cache key for scan results")
	cmd.Flags().BoolVar(&skipCache, "skip-cache", false, "Ignore cached scan results")
	return cmd
}
