// Package notifiers contains sim.Notifier implementations that push bond
// events out of the process: a webhook POSTer for external services and a
// WebSocket broadcaster for live topology viewers.
package notifiers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mauro3422/lifesim/internal/sim"
)

const webhookTimeout = 5 * time.Second

// WebhookNotifier delivers each bond event as a JSON POST to a fixed URL.
// Delivery failures are returned to the notification manager, which owns
// the retry policy.
type WebhookNotifier struct {
	id      string
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWebhookNotifier creates a webhook notifier posting to url.
func NewWebhookNotifier(id, url string) *WebhookNotifier {
	return &WebhookNotifier{
		id:      id,
		url:     url,
		headers: make(map[string]string),
		client:  &http.Client{Timeout: webhookTimeout},
	}
}

// SetHeader adds a header to every delivery, e.g. an API key.
func (n *WebhookNotifier) SetHeader(key, value string) {
	if n.headers == nil {
		n.headers = make(map[string]string)
	}
	n.headers[key] = value
}

// ID returns the notifier ID
func (n *WebhookNotifier) ID() string {
	return n.id
}

// Type returns the notifier type
func (n *WebhookNotifier) Type() string {
	return "webhook"
}

// Notify posts one bond event. Any non-2xx response counts as a failed
// delivery.
func (n *WebhookNotifier) Notify(ctx context.Context, event sim.BondEvent) error {
	payload, err := event.JSON()
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range n.headers {
		req.Header.Set(key, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver event %s: %w", event.ID, err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d for event %s", resp.StatusCode, event.ID)
	}
	return nil
}

// Close closes the notifier (no-op for webhook)
func (n *WebhookNotifier) Close() error {
	return nil
}
