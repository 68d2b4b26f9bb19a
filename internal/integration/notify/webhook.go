// Package notify delivers provider notifications to the messaging relay.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/estatehub/service-scheduling/internal/dispatch"
	"go.uber.org/zap"
)

// WebhookNotifier posts notifications as JSON to a relay that renders and
// sends the email or SMS.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a WebhookNotifier for url.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: &http.Client{Timeout: timeout}}
}

// Notify posts n. 4xx answers are not retried.
func (w *WebhookNotifier) Notify(ctx context.Context, n dispatch.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %v: %w", err, dispatch.ErrSkipRetry)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %v: %w", err, dispatch.ErrSkipRetry)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("relay rejected notification with %d: %w", resp.StatusCode, dispatch.ErrSkipRetry)
	default:
		return fmt.Errorf("relay answered %d", resp.StatusCode)
	}
}

// LogNotifier only logs notifications. Used when no relay is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n.
func (l *LogNotifier) Notify(_ context.Context, n dispatch.Notification) error {
	l.logger.Info("notification (no relay configured)",
		zap.String("template", n.Template),
		zap.String("booking_number", n.BookingNumber),
		zap.String("provider_id", n.ProviderID.String()),
		zap.String("email", n.Email),
	)
	return nil
}
