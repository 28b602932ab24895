package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Notifier posts pipeline outcomes to a Slack-compatible webhook.
// Notification is fire-and-forget: failures are logged, never fatal.
type Notifier struct {
	webhook    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewNotifier(webhook string, logger *slog.Logger) *Notifier {
	return &Notifier{
		webhook: webhook,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Send posts a message. A missing webhook disables notification silently.
func (n *Notifier) Send(ctx context.Context, text string) {
	if n.webhook == "" {
		return
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		n.logger.Error("failed to encode notification", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.webhook, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("failed to build notification request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("notification failed", "error", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		n.logger.Warn("notification rejected", "status", resp.StatusCode)
		return
	}
	n.logger.Debug("notification sent")
}

// Summary builds the standard completion message for a pipeline run.
func Summary(status Status, branch string, maxSeverity float64) string {
	switch status {
	case StatusNoAction:
		return fmt.Sprintf("Security pipeline: no critical vulnerabilities found (max severity %.1f)", maxSeverity)
	case StatusSuccess:
		return fmt.Sprintf("Security pipeline: fixes applied on %s, PR created (max severity %.1f)", branch, maxSeverity)
	default:
		return fmt.Sprintf("Security pipeline: FAILED on %s (max severity %.1f)", branch, maxSeverity)
	}
}
