package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var errSkipped = errors.New("notify: channel not configured")

// WebhookClient POSTs lead events as JSON.
type WebhookClient struct {
	http *http.Client
}

// NewWebhookClient returns a client whose requests are cut off after timeout.
func NewWebhookClient(timeout time.Duration) *WebhookClient {
	return &WebhookClient{http: &http.Client{Timeout: timeout}}
}

// Post sends ev to url. Any non-2xx answer is an error.
func (w *WebhookClient) Post(ctx context.Context, url string, ev LeadEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal lead event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
