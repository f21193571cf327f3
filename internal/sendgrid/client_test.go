package sendgrid

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

func testMail(n int) *Mail {
	personalizations := make([]Personalization, 0, n)
	for i := 0; i < n; i++ {
		personalizations = append(personalizations, Personalization{
			To: []Address{{Email: "r@example.com"}},
		})
	}
	return &Mail{
		Personalizations: personalizations,
		From:             Address{Email: "sender@agency.com", Name: "Sender"},
		Subject:          "Hello",
		Content:          []Content{{Type: "text/html", Value: "<p>hi</p>"}},
	}
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.SendGridConfig{
		APIKey:        "SG.test-key",
		BaseURL:       baseURL,
		MaxRecipients: 5,
	})
}

func TestSendAccepted(t *testing.T) {
	var gotAuth string
	var gotBody Mail
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("X-Message-Id", "abc123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Send(context.Background(), testMail(2))
	require.NoError(t, err)
	assert.True(t, resp.Accepted())
	assert.Equal(t, "abc123", resp.MessageID)
	assert.Equal(t, "Bearer SG.test-key", gotAuth)
	assert.Len(t, gotBody.Personalizations, 2)
	assert.Equal(t, "sender@agency.com", gotBody.From.Email)
}

func TestSendRejectedReturnsResponseNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"message":"invalid email","field":"from.email"}]}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Send(context.Background(), testMail(1))
	require.NoError(t, err, "a completed exchange is not a transport error")
	assert.False(t, resp.Accepted())

	apiErr := resp.APIError()
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "from.email: invalid email", apiErr.Message)
}

func TestSendMessageIDFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Send(context.Background(), testMail(1))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.MessageID, "a message id is generated when the gateway omits one")
}

func TestSendCeilingEnforced(t *testing.T) {
	_, err := newTestClient("http://unreachable.invalid").Send(context.Background(), testMail(6))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ceiling")
}

func TestSendRequiresAPIKey(t *testing.T) {
	c := NewClient(config.SendGridConfig{BaseURL: "http://unreachable.invalid"})
	_, err := c.Send(context.Background(), testMail(1))
	require.Error(t, err)
}

func TestResponseAPIErrorNilForAccepted(t *testing.T) {
	resp := &Response{StatusCode: StatusAccepted, MessageID: "x"}
	assert.Nil(t, resp.APIError())
}
