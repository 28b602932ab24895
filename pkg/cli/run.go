package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/ruvnet/agentic-security/internal/ai"
	"github.com/ruvnet/agentic-security/internal/cache"
	"github.com/ruvnet/agentic-security/internal/pipeline"
	"github.com/ruvnet/agentic-security/internal/progress"
	"github.com/ruvnet/agentic-security/internal/scan"
	"github.com/ruvnet/agentic-security/internal/vcs"
)

func newRunCmd() *cobra.Command {
	var (
		scanID    string
		skipCache bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the complete security pipeline (review, scan, fix, PR)",
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
			backend := ai.NewAider(ai.NewPrompts(cfg.CustomPrompts), logger)
			git := vcs.NewGit(".", logger)
			notifier := pipeline.NewNotifier(cfg.SlackWebhook, logger)

			p := pipeline.New(cfg, orch, backend, git, notifier, logger)
			run := pipeline.NewRun(scanID, skipCache, progress.New(os.Stdout))

			logger.Info("pipeline starting",
				"version", Version,
				"scan_id", scanID,
				"targets", len(cfg.ScanTargets),
				"threshold", cfg.CriticalThreshold,
			)

			// Returning the error lets the deferred store.Close run
			// before Execute exits the process.
			return statusErr(p.Execute(ctx, run))
		},
	}

	cmd.Flags().StringVar(&scanID, "scan-id", "pipeline", "Cache key for scan results")
	cmd.Flags().BoolVar(&skipCache, "skip-cache", false, "Ignore cached scan results")
	return cmd
}

// statusErr maps the terminal pipeline status to the command result.
func statusErr(status pipeline.Status) error {
	if status == pipeline.StatusFailure {
		return errors.New("pipeline failed")
	}
	return nil
}
