// Package api exposes the bulk email pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/josdesi/bulkmail/internal/domain"
	"github.com/josdesi/bulkmail/internal/pkg/httputil"
	"github.com/josdesi/bulkmail/internal/pkg/logger"
	"github.com/josdesi/bulkmail/internal/service/bulkemail"
)

// BulkSender is the service surface the handlers need.
type BulkSender interface {
	Send(ctx context.Context, req *domain.BulkSendRequest) (*bulkemail.BulkSendReport, error)
}

// SettingsWriter is the runtime-settings surface the admin handlers need.
type SettingsWriter interface {
	SetSimilarityThreshold(ctx context.Context, threshold float64) error
}

// Handlers contains the HTTP handlers for the bulk email API.
type Handlers struct {
	sender   BulkSender
	settings SettingsWriter
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sender BulkSender, settings SettingsWriter) *Handlers {
	return &Handlers{sender: sender, settings: settings}
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}

// sendRequest is the wire shape of POST /api/bulk-email/send.
type sendRequest struct {
	EmailData struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		HTML       string `json:"html"`
		Text       string `json:"text"`
		Subject    string `json:"subject"`
		Recipients []struct {
			ID         int64  `json:"id"`
			Email      string `json:"email"`
			EntityKind string `json:"entityKind"`
		} `json:"recipients"`
	} `json:"emailData"`
	Attachments    []domain.AttachmentRef `json:"attachments"`
	EmailHistoryID string                 `json:"emailHistoryId"`
	ScopeType      string                 `json:"scopeType"`
	CandidateIDs   []int64                `json:"candidateIds"`
	UserID         int64                  `json:"userId"`
	Config         domain.BlockConfig     `json:"config"`
	ResendBlock    *domain.ResendBlockSet `json:"blockedByResendItems"`
}

func (s *sendRequest) toDomain() (*domain.BulkSendRequest, error) {
	scope, err := domain.ParseScopeType(s.ScopeType)
	if err != nil {
		return nil, err
	}

	recipients := make([]domain.Recipient, 0, len(s.EmailData.Recipients))
	for _, r := range s.EmailData.Recipients {
		kind, err := domain.ParseEntityKind(r.EntityKind)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, domain.Recipient{ID: r.ID, Email: r.Email, Kind: kind})
	}

	return &domain.BulkSendRequest{
		FromName:       s.EmailData.Name,
		FromEmail:      s.EmailData.Email,
		Subject:        s.EmailData.Subject,
		HTML:           s.EmailData.HTML,
		Text:           s.EmailData.Text,
		Recipients:     recipients,
		Attachments:    s.Attachments,
		EmailHistoryID: s.EmailHistoryID,
		Scope:          scope,
		CandidateIDs:   s.CandidateIDs,
		UserID:         s.UserID,
		Block:          s.Config,
		ResendBlock:    s.ResendBlock,
	}, nil
}

// exclusionDetails is the failure payload for fully-excluded sends, so the
// caller can explain to the end user why nothing went out.
type exclusionDetails struct {
	BlockedEmails []domain.ExclusionRecord `json:"blockedEmails"`
	InvalidEmails []domain.ExclusionRecord `json:"invalidEmails"`
}

// BulkSend handles POST /api/bulk-email/send.
func (h *Handlers) BulkSend(w http.ResponseWriter, r *http.Request) {
	var wire sendRequest
	if !httputil.Decode(w, r, &wire) {
		return
	}

	req, err := wire.toDomain()
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	report, err := h.sender.Send(r.Context(), req)
	if err != nil {
		var sendErr *bulkemail.SendError
		if errors.As(err, &sendErr) {
			status := sendErr.Code
			if status < 400 || status > 599 {
				status = http.StatusInternalServerError
			}
			if len(sendErr.Blocked) > 0 || len(sendErr.Invalid) > 0 {
				httputil.FailureWithDetails(w, status, sendErr.Message, exclusionDetails{
					BlockedEmails: sendErr.Blocked,
					InvalidEmails: sendErr.Invalid,
				})
				return
			}
			httputil.Failure(w, status, sendErr.Message)
			return
		}
		logger.Error("bulk send failed", "error", err.Error())
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, report)
}

// UpdateSimilarityThreshold handles PUT /api/settings/similarity-threshold.
// Operators tune the company-name matching cutoff at runtime; the next send
// picks it up without a restart.
func (h *Handlers) UpdateSimilarityThreshold(w http.ResponseWriter, r *http.Request) {
	var wire struct {
		Threshold float64 `json:"threshold"`
	}
	if !httputil.Decode(w, r, &wire) {
		return
	}
	if wire.Threshold <= 0 || wire.Threshold > 1 {
		httputil.BadRequest(w, "threshold must be in (0, 1]")
		return
	}

	if err := h.settings.SetSimilarityThreshold(r.Context(), wire.Threshold); err != nil {
		logger.Error("updating similarity threshold", "error", err.Error())
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]float64{"threshold": wire.Threshold})
}
