package sendgrid

import (
	"encoding/json"
	"fmt"
)

// StatusAccepted is the single status code SendGrid documents for an
// accepted v3 mail/send request.
const StatusAccepted = 202

// DefaultMaxRecipients is the per-request personalization ceiling this
// service imposes, kept a safety margin under SendGrid's hard limit of 1000.
const DefaultMaxRecipients = 950

// Address is an email address with an optional display name.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Content is one MIME part of the message body.
type Content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Personalization is the per-recipient message unit of a mail/send request.
// Only fields SendGrid accepts may appear here; internal bookkeeping lives
// on the service-layer wrapper, never on the wire type.
type Personalization struct {
	To            []Address         `json:"to"`
	Substitutions map[string]string `json:"substitutions,omitempty"`
	CustomArgs    map[string]string `json:"custom_args,omitempty"`
}

// Attachment is an inline base64 attachment.
type Attachment struct {
	Content     string `json:"content"`
	Filename    string `json:"filename"`
	Type        string `json:"type,omitempty"`
	Disposition string `json:"disposition,omitempty"`
}

// ASM references an unsubscribe (suppression) group.
type ASM struct {
	GroupID int `json:"group_id"`
}

// Mail is a complete v3 mail/send request body.
type Mail struct {
	Personalizations []Personalization `json:"personalizations"`
	From             Address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []Content         `json:"content"`
	Attachments      []Attachment      `json:"attachments,omitempty"`
	Categories       []string          `json:"categories,omitempty"`
	CustomArgs       map[string]string `json:"custom_args,omitempty"`
	ASM              *ASM              `json:"asm,omitempty"`
}

// Response is the raw outcome of one mail/send request.
type Response struct {
	StatusCode int    `json:"statusCode"`
	MessageID  string `json:"messageId"`
	Body       string `json:"body,omitempty"`
}

// Accepted reports whether the gateway accepted the request.
func (r *Response) Accepted() bool {
	return r != nil && r.StatusCode == StatusAccepted
}

// APIError is a structured error reported by the gateway itself. It
// preserves SendGrid's own message and status code so callers can surface
// them instead of a generic failure.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sendgrid: status %d: %s", e.StatusCode, e.Message)
}

// APIError parses the response body into a structured gateway error.
// Returns nil for accepted responses.
func (r *Response) APIError() *APIError {
	if r == nil || r.StatusCode < 400 {
		return nil
	}
	apiErr := &APIError{StatusCode: r.StatusCode, Body: r.Body}

	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
			Field   string `json:"field"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(r.Body), &parsed); err == nil && len(parsed.Errors) > 0 {
		apiErr.Message = parsed.Errors[0].Message
		if parsed.Errors[0].Field != "" {
			apiErr.Message = parsed.Errors[0].Field + ": " + apiErr.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("request rejected with status %d", r.StatusCode)
	}
	return apiErr
}
