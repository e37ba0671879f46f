// Package ticketsink forwards created support tickets to an optional
// external webhook (for example a helpdesk or an ops channel). When no URL is
// configured the sink is a no-op; delivery failures are logged and never
// surfaced to the customer-facing flow.
package ticketsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

type Sink struct {
	url        string
	token      string
	httpClient *http.Client
}

// Payload is what gets posted for each created ticket. It carries the full
// internal draft, including priority; the webhook is an internal consumer.
type Payload struct {
	TicketID    string `json:"ticket_id"`
	UserID      string `json:"user_id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

func New(url, token string) *Sink {
	return &Sink{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: 6 * time.Second},
	}
}

// Enabled reports whether a webhook is configured.
func (s *Sink) Enabled() bool {
	return s != nil && s.url != ""
}

// Post delivers the payload. Errors are returned for logging but callers are
// expected to treat them as non-fatal.
func (s *Sink) Post(ctx context.Context, payload Payload) error {
	if !s.Enabled() {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal ticket payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	res, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post ticket webhook: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("ticket webhook returned status %d", res.StatusCode)
	}

	slog.Debug("ticket forwarded to webhook", "ticket_id", payload.TicketID)
	return nil
}
