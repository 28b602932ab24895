// Package cli builds the agentic-security command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "0.3.0"

var (
	rootCmd *cobra.Command
	cfgFile string
)

func init() {
	rootCmd = &cobra.Command{
		Use:           "agentic-security",
		Short:         "AI-powered security scanning and fixing pipeline",
		Long:          "Agentic Security: scan web and code targets, remediate critical vulnerabilities with an AI code-editing backend, and open a pull request with the fixes.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yml", "Path to configuration file")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newPruneCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("agentic-security %s\n", Version)
		},
	}
}

func setupLogger(format, level string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	// Components without an injected logger fall back to the default, so
	// log.format/log.level apply everywhere.
	slog.SetDefault(logger)
	return logger
}
