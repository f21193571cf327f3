package validation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/josdesi/bulkmail/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verify/batch", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Emails []string `json:"emails"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Emails, 3)

		// The provider only reports the addresses it classified.
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"email": "bad@example.com", "status": "invalid"},
				{"email": "odd@example.com", "status": "greylisted"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(config.ValidationConfig{BaseURL: srv.URL, APIKey: "test-key"})
	verdicts, err := c.VerifyBatch(context.Background(), []string{"bad@example.com", "odd@example.com", "fine@example.com"})
	require.NoError(t, err)

	assert.Equal(t, VerdictInvalid, verdicts["bad@example.com"])
	assert.Equal(t, VerdictUnknown, verdicts["odd@example.com"], "undocumented statuses collapse to unknown")
	_, classified := verdicts["fine@example.com"]
	assert.False(t, classified, "unclassified addresses carry no verdict")
}

func TestVerifyBatchEmptyInput(t *testing.T) {
	c := NewClient(config.ValidationConfig{BaseURL: "http://unreachable.invalid"})
	verdicts, err := c.VerifyBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, verdicts)
}

func TestVerifyBatchProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := NewClient(config.ValidationConfig{BaseURL: srv.URL, APIKey: "test-key"})
	_, err := c.VerifyBatch(context.Background(), []string{"a@example.com"})
	require.Error(t, err, "the filter must never guess deliverability")
}
