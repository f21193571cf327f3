// Package sendgrid implements the transactional email gateway client used
// by the bulk dispatch engine (SendGrid v3 Mail Send API).
package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/josdesi/bulkmail/internal/config"
	"github.com/josdesi/bulkmail/internal/pkg/logger"
)

// Client talks to the SendGrid v3 API. Retry policy deliberately lives in
// the dispatch engine, not here: the engine owns the per-chunk attempt
// budget and must count every attempt it makes.
type Client struct {
	apiKey        string
	baseURL       string
	maxRecipients int
	httpClient    *http.Client
}

// NewClient creates a SendGrid client from configuration.
func NewClient(cfg config.SendGridConfig) *Client {
	maxRecipients := cfg.MaxRecipients
	if maxRecipients <= 0 {
		maxRecipients = DefaultMaxRecipients
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.sendgrid.com/v3"
	}
	return &Client{
		apiKey:        cfg.APIKey,
		baseURL:       baseURL,
		maxRecipients: maxRecipients,
		httpClient:    &http.Client{Timeout: cfg.Timeout()},
	}
}

// MaxRecipients returns the per-request personalization ceiling.
func (c *Client) MaxRecipients() int { return c.maxRecipients }

// Send posts one mail/send request. A Response is returned for every
// completed HTTP exchange, accepted or not; err is non-nil only when the
// request could not be built or transported.
func (c *Client) Send(ctx context.Context, mail *Mail) (*Response, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("sendgrid: API key not configured")
	}
	if len(mail.Personalizations) == 0 {
		return nil, fmt.Errorf("sendgrid: empty personalizations")
	}
	if len(mail.Personalizations) > c.maxRecipients {
		return nil, fmt.Errorf("sendgrid: %d personalizations exceeds ceiling of %d",
			len(mail.Personalizations), c.maxRecipients)
	}

	jsonData, err := json.Marshal(mail)
	if err != nil {
		return nil, fmt.Errorf("sendgrid: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mail/send", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("sendgrid: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sendgrid: send: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	messageID := resp.Header.Get("X-Message-Id")
	if messageID == "" {
		messageID = uuid.New().String()
	}

	logger.Debug("sendgrid mail/send",
		"status", resp.StatusCode,
		"personalizations", len(mail.Personalizations),
		"message_id", messageID,
		"elapsed", time.Since(start).String())

	return &Response{
		StatusCode: resp.StatusCode,
		MessageID:  messageID,
		Body:       string(body),
	}, nil
}
