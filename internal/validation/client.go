// Package validation implements the third-party email verification client.
// The provider classifies deliverability per address; the recipient filter
// turns those verdicts into exclusion records.
package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/josdesi/bulkmail/internal/config"
	"github.com/josdesi/bulkmail/internal/pkg/httpretry"
)

// Verdict is the provider's deliverability classification for one address.
type Verdict string

const (
	VerdictValid    Verdict = "valid"
	VerdictInvalid  Verdict = "invalid"
	VerdictCatchAll Verdict = "catch-all"
	VerdictUnknown  Verdict = "unknown"
)

// Client talks to the verification provider's batch endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a verification client from configuration. Transient
// provider failures are retried by the underlying client; a hard failure
// is fatal for the whole send (the filter never guesses deliverability).
func NewClient(cfg config.ValidationConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

type batchRequest struct {
	Emails []string `json:"emails"`
}

type batchResponse struct {
	Results []struct {
		Email  string `json:"email"`
		Status string `json:"status"`
	} `json:"results"`
}

// VerifyBatch returns the provider verdict for each address it classified.
// Addresses absent from the response carry no verdict and are treated as
// deliverable by the caller. Statuses outside the documented set map to
// VerdictUnknown.
func (c *Client) VerifyBatch(ctx context.Context, emails []string) (map[string]Verdict, error) {
	if len(emails) == 0 {
		return map[string]Verdict{}, nil
	}

	jsonData, err := json.Marshal(batchRequest{Emails: emails})
	if err != nil {
		return nil, fmt.Errorf("validation: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify/batch", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("validation: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validation: request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("validation: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("validation: provider error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed batchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("validation: parse response: %w", err)
	}

	verdicts := make(map[string]Verdict, len(parsed.Results))
	for _, r := range parsed.Results {
		switch Verdict(r.Status) {
		case VerdictValid, VerdictInvalid, VerdictCatchAll:
			verdicts[r.Email] = Verdict(r.Status)
		default:
			verdicts[r.Email] = VerdictUnknown
		}
	}
	return verdicts, nil
}
