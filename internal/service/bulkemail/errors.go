package bulkemail

import (
	"errors"
	"fmt"

	"github.com/josdesi/bulkmail/internal/domain"
	"github.com/josdesi/bulkmail/internal/sendgrid"
)

// Sentinel errors for the bulk email service layer.
var (
	ErrAllRecipientsExcluded = errors.New("all recipients were excluded before dispatch")
	ErrEntityNotFound        = errors.New("recipient entity record not found")
	ErrMissingSmartag        = errors.New("missing merge field value")

	// errGatewayUnavailable covers total dispatch failure without a single
	// gateway response, i.e. transport errors on every chunk.
	errGatewayUnavailable = errors.New("email gateway unavailable")
)

// SendError is the typed failure of one Send call. Code is the
// HTTP-equivalent status the caller should relay; client-input failures
// (all recipients excluded) carry the blocked/invalid breakdown so the
// caller can explain why nothing was sent.
type SendError struct {
	Code    int
	Message string
	Blocked []domain.ExclusionRecord
	Invalid []domain.ExclusionRecord
	Err     error
}

func (e *SendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bulk send failed (%d): %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("bulk send failed (%d): %s", e.Code, e.Message)
}

func (e *SendError) Unwrap() error { return e.Err }

// newSendError normalizes a pipeline error. Gateway-reported structured
// errors keep their own status code and message; everything else becomes a
// generic 500-equivalent failure.
func newSendError(err error) *SendError {
	var apiErr *sendgrid.APIError
	if errors.As(err, &apiErr) {
		return &SendError{Code: apiErr.StatusCode, Message: apiErr.Message, Err: err}
	}
	return &SendError{Code: 500, Message: "bulk send failed", Err: err}
}
