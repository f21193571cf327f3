package bulkemail

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"time"

	"github.com/josdesi/bulkmail/internal/domain"
	"github.com/josdesi/bulkmail/internal/pkg/logger"
	"github.com/josdesi/bulkmail/internal/sendgrid"
)

// unsubscribeFooter is appended to every HTML body. The placeholder resolves
// per recipient through the same substitution mechanism as the merge fields.
const unsubscribeFooter = `<br><br><p style="font-size:12px;color:#9b9b9b">If you no longer wish to receive these emails, <a href="{{unsubscribe_url}}">unsubscribe here</a>.</p>`

// BulkSendReport is the caller-facing result of one bulk send.
type BulkSendReport struct {
	BlockedEmails    []domain.ExclusionRecord `json:"blockedEmails"`
	InvalidEmails    []domain.ExclusionRecord `json:"invalidEmails"`
	Recipients       []Personalization        `json:"recipients"`
	Response         *sendgrid.Response       `json:"response"`
	SentRecipients   []domain.Recipient       `json:"sentRecipients"`
	FailedRecipients []domain.Recipient       `json:"failedRecipients"`
	BulkBatchID      string                   `json:"bulkBatchId"`
}

// Options carries the static settings baked into every outgoing mail.
type Options struct {
	UnsubscribeBaseURL string
	UnsubscribeGroupID int
	EnvOrigin          string
}

// Service orchestrates the bulk send pipeline end to end.
type Service struct {
	filter       *Filter
	smartags     *SmartagResolver
	personalizer *Personalizer
	attachments  *AttachmentResolver
	dispatcher   *Dispatcher

	unsubGroupID int
	envOrigin    string
}

// NewService wires the pipeline from its collaborators. verifier may be nil
// when provider verification is disabled.
func NewService(directory Directory, optOuts OptOutStore, verifier EmailVerifier, settings SettingsStore, blobs BlobStore, gateway Gateway, opts Options) *Service {
	return &Service{
		filter:       NewFilter(directory, optOuts, verifier, settings),
		smartags:     NewSmartagResolver(directory),
		personalizer: NewPersonalizer(opts.UnsubscribeBaseURL),
		attachments:  NewAttachmentResolver(blobs),
		dispatcher:   NewDispatcher(gateway),
		unsubGroupID: opts.UnsubscribeGroupID,
		envOrigin:    opts.EnvOrigin,
	}
}

// Send runs one bulk send: normalize, partition, resolve merge fields,
// personalize, inline attachments, dispatch in chunks, report.
//
// The returned error, when non-nil, is always a *SendError. Sends where
// every recipient was excluded fail with a 400-equivalent carrying the
// blocked/invalid breakdown, without the gateway ever being contacted.
// Chunk-level dispatch failures do not fail the call as long as at least one
// chunk was accepted; those recipients are folded into the invalid report
// under their own reason code. When every chunk is rejected the send fails
// with the gateway's own status and message.
func (s *Service) Send(ctx context.Context, req *domain.BulkSendRequest) (*BulkSendReport, error) {
	if err := validateRequest(req); err != nil {
		return nil, &SendError{Code: 400, Message: err.Error(), Err: err}
	}
	req.Recipients = NormalizeRecipients(req.Recipients)

	part, err := s.filter.Partition(ctx, req)
	if err != nil {
		logger.Error("recipient filtering failed", "error", err.Error())
		return nil, newSendError(err)
	}
	if len(part.Eligible) == 0 {
		return nil, &SendError{
			Code:    400,
			Message: ErrAllRecipientsExcluded.Error(),
			Blocked: part.Blocked,
			Invalid: part.Invalid,
			Err:     ErrAllRecipientsExcluded,
		}
	}

	substitutions, err := s.smartags.Resolve(ctx, part.Eligible, req.UserID)
	if err != nil {
		logger.Error("smartag resolution failed", "userId", req.UserID, "error", err.Error())
		return nil, newSendError(err)
	}

	personalizations := s.personalizer.Build(part.Eligible, substitutions, req.EmailHistoryID)
	attachments := s.attachments.Resolve(ctx, req.Attachments)

	batchID := newBatchID(req)
	mail := s.buildMail(req, attachments, batchID)

	outcome := s.dispatcher.Dispatch(ctx, mail, personalizations, batchID)

	invalid := part.Invalid
	now := time.Now().UTC()
	for _, r := range outcome.Failed {
		invalid = append(invalid, domain.ExclusionRecord{Recipient: r, Reason: domain.ReasonDispatchFailed, Timestamp: now})
	}

	// A send where no chunk was accepted delivered nothing; surface the
	// gateway's own error rather than a success report that sent zero mail.
	if len(outcome.Sent) == 0 {
		var cause error = errGatewayUnavailable
		if apiErr := outcome.LastResponse.APIError(); apiErr != nil {
			cause = apiErr
		}
		logger.Error("every chunk rejected", "batchId", batchID, "error", cause.Error())
		sendErr := newSendError(cause)
		sendErr.Blocked = part.Blocked
		sendErr.Invalid = invalid
		return nil, sendErr
	}

	logger.Info("bulk send finished",
		"batchId", batchID,
		"sent", len(outcome.Sent),
		"failed", len(outcome.Failed),
		"blocked", len(part.Blocked),
		"invalid", len(invalid))

	return &BulkSendReport{
		BlockedEmails:    part.Blocked,
		InvalidEmails:    invalid,
		Recipients:       personalizations,
		Response:         outcome.LastResponse,
		SentRecipients:   outcome.Sent,
		FailedRecipients: outcome.Failed,
		BulkBatchID:      batchID,
	}, nil
}

func validateRequest(req *domain.BulkSendRequest) error {
	switch {
	case req == nil:
		return errors.New("missing request body")
	case req.FromEmail == "":
		return errors.New("sender email is required")
	case req.Subject == "":
		return errors.New("subject is required")
	case req.HTML == "":
		return errors.New("html body is required")
	case len(req.Recipients) == 0:
		return errors.New("at least one recipient is required")
	case req.UserID <= 0:
		return errors.New("sending user id is required")
	case req.Scope == domain.ScopeMarketing && len(req.CandidateIDs) == 0:
		return errors.New("candidateIds are required for marketing sends")
	}
	return nil
}

// buildMail assembles the chunk-independent part of the gateway request.
// The dispatcher fills Personalizations per chunk.
func (s *Service) buildMail(req *domain.BulkSendRequest, attachments []domain.AttachmentPayload, batchID string) *sendgrid.Mail {
	var content []sendgrid.Content
	if req.Text != "" {
		content = append(content, sendgrid.Content{Type: "text/plain", Value: req.Text})
	}
	content = append(content, sendgrid.Content{Type: "text/html", Value: req.HTML + unsubscribeFooter})

	categories := []string{"bulk"}
	if req.Scope != domain.ScopeNone {
		categories = append(categories, string(req.Scope))
	}

	mail := &sendgrid.Mail{
		From:       sendgrid.Address{Email: req.FromEmail, Name: req.FromName},
		Subject:    req.Subject,
		Content:    content,
		Categories: categories,
		CustomArgs: map[string]string{
			"bulkBatchId": batchID,
			"envOrigin":   s.envOrigin,
		},
	}
	for _, a := range attachments {
		mail.Attachments = append(mail.Attachments, sendgrid.Attachment{
			Content:     a.Content,
			Filename:    a.Filename,
			Type:        a.Type,
			Disposition: a.Disposition,
		})
	}
	if s.unsubGroupID > 0 {
		mail.ASM = &sendgrid.ASM{GroupID: s.unsubGroupID}
	}
	return mail
}

// newBatchID derives the webhook-correlation id for one logical send. One
// id covers every physical chunk, so gateway events received later map back
// to this send no matter how it was split.
func newBatchID(req *domain.BulkSendRequest) string {
	sum := md5.Sum([]byte(req.FromEmail + "|" + req.Subject + "|" + req.HTML + "|" + time.Now().UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}
