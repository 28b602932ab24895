package pipeline

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ruvnet/agentic-security/internal/scan"
)

// Config holds pipeline configuration loaded from the YAML config file.
type Config struct {
	// Security
	CriticalThreshold float64       // severity floor triggering remediation
	MaxFixAttempts    int           // bound on the fix/validate loop
	ScanTargets       []scan.Target // configured web URLs and code paths

	// AI backend
	CustomPrompts map[string]string

	// Storage and output
	CachePath  string
	ReportsDir string

	// Notification
	SlackWebhook string

	// VCS
	BaseBranch string

	// Logging
	LogFormat string // json, text
	LogLevel  string // debug, info, warn, error
}

// LoadConfig reads configuration from the given YAML file. A missing
// config file is a fatal error; so is a negative critical threshold.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("security.critical_threshold", 7.0)
	v.SetDefault("security.max_fix_attempts", 3)
	v.SetDefault("cache.path", ".security_cache/results.db")
	v.SetDefault("reports.dir", "security_reports")
	v.SetDefault("vcs.base_branch", "main")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("AGENTIC_SEC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("configuration file not found or unreadable: %w", err)
	}

	cfg := &Config{
		CriticalThreshold: v.GetFloat64("security.critical_threshold"),
		MaxFixAttempts:    v.GetInt("security.max_fix_attempts"),
		CustomPrompts:     v.GetStringMapString("ai.custom_prompts"),
		CachePath:         v.GetString("cache.path"),
		ReportsDir:        v.GetString("reports.dir"),
		SlackWebhook:      v.GetString("notify.slack_webhook"),
		BaseBranch:        v.GetString("vcs.base_branch"),
		LogFormat:         v.GetString("log.format"),
		LogLevel:          v.GetString("log.level"),
	}

	if err := v.UnmarshalKey("security.scan_targets", &cfg.ScanTargets); err != nil {
		return nil, fmt.Errorf("invalid security.scan_targets: %w", err)
	}

	if cfg.CriticalThreshold < 0 {
		return nil, fmt.Errorf("security.critical_threshold must not be negative, got %v", cfg.CriticalThreshold)
	}
	if cfg.MaxFixAttempts <= 0 {
		return nil, fmt.Errorf("security.max_fix_attempts must be positive, got %d", cfg.MaxFixAttempts)
	}

	return cfg, nil
}
