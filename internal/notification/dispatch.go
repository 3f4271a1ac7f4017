// Package notification delivers run notifications to the configured
// channels. Delivery is best-effort: failures are reported per channel and
// never retried.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Config names the notification endpoints. Empty fields are disabled.
type Config struct {
	WebhookURL      string
	SlackWebhookURL string
}

// Channel is one notification backend.
type Channel interface {
	Send(ctx context.Context, msg string) error
	Name() string
}

// DispatchResult records the outcome of a notification dispatch.
type DispatchResult struct {
	Channel string `json:"channel"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Dispatcher sends a message to every configured channel.
type Dispatcher struct {
	channels []Channel
}

// NewDispatcher builds a dispatcher from cfg. Without any endpoint the
// message only goes to the log.
func NewDispatcher(cfg Config, log *zap.SugaredLogger) *Dispatcher {
	httpClient := &http.Client{Timeout: 10 * time.Second}

	var channels []Channel
	if cfg.WebhookURL != "" {
		channels = append(channels, &Webhook{URL: cfg.WebhookURL, Client: httpClient})
	}
	if cfg.SlackWebhookURL != "" {
		channels = append(channels, &Slack{URL: cfg.SlackWebhookURL, Client: httpClient})
	}
	if len(channels) == 0 {
		channels = append(channels, &Log{Logger: log})
	}
	return &Dispatcher{channels: channels}
}

// NewDispatcherWithChannels creates a dispatcher over explicit channels.
func NewDispatcherWithChannels(channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

// Dispatch sends msg to all channels and reports each outcome. An empty
// message is not sent anywhere.
func (d *Dispatcher) Dispatch(ctx context.Context, msg string) []DispatchResult {
	if msg == "" {
		return nil
	}

	results := make([]DispatchResult, 0, len(d.channels))
	for _, ch := range d.channels {
		result := DispatchResult{Channel: ch.Name(), Success: true}
		if err := ch.Send(ctx, msg); err != nil {
			result.Success = false
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}

// Webhook posts {"msg": <text>} to a generic endpoint.
type Webhook struct {
	URL    string
	Client *http.Client
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, msg string) error {
	data, err := json.Marshal(map[string]string{"msg": msg})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Slack posts the message to a Slack incoming webhook.
type Slack struct {
	URL    string
	Client *http.Client
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Send(ctx context.Context, msg string) error {
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.URL, s.Client, &slack.WebhookMessage{Text: msg}); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

// Log writes the message to the logger instead of sending it anywhere.
type Log struct {
	Logger *zap.SugaredLogger
}

func (l *Log) Name() string { return "log" }

func (l *Log) Send(_ context.Context, msg string) error {
	if l.Logger != nil {
		l.Logger.Infow("notification (no webhook configured)", "msg", msg)
	}
	return nil
}
