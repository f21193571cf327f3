package bulkemail

import (
	"context"
	"io"

	"github.com/josdesi/bulkmail/internal/domain"
	"github.com/josdesi/bulkmail/internal/sendgrid"
	"github.com/josdesi/bulkmail/internal/validation"
)

// Directory resolves the CRM entities a bulk send references: recipient
// records, employer relations, company classifications and merge fields.
// All lookups are batched; the pipeline never issues one query per
// recipient. Read-only from this subsystem's perspective.
type Directory interface {
	// CandidateEmployers returns the current-employer company per candidate.
	// Candidates with no current-employer relation are absent from the map.
	CandidateEmployers(ctx context.Context, ids []int64) (map[int64]domain.CompanyRef, error)

	// NameEmployers returns the current-employer company per name record.
	NameEmployers(ctx context.Context, ids []int64) (map[int64]domain.CompanyRef, error)

	// HiringAuthorityCompanies returns the company each hiring authority
	// belongs to.
	HiringAuthorityCompanies(ctx context.Context, ids []int64) (map[int64]domain.CompanyRef, error)

	// CandidateStatuses returns the pipeline status per candidate.
	CandidateStatuses(ctx context.Context, ids []int64) (map[int64]domain.CandidateStatus, error)

	// ClientCompanyIDs returns the ids of every signed client/vendor company.
	ClientCompanyIDs(ctx context.Context) (map[int64]struct{}, error)

	// EmployerCompanyIDsForCandidates returns the ids of the companies
	// currently employing any of the given candidates.
	EmployerCompanyIDsForCandidates(ctx context.Context, candidateIDs []int64) (map[int64]struct{}, error)

	// CompaniesSimilarToClients returns ids of non-client companies whose
	// name matches a client/vendor company name exactly (case-insensitive)
	// or above the given trigram similarity threshold.
	CompaniesSimilarToClients(ctx context.Context, threshold float64) (map[int64]struct{}, error)

	// CandidateSmartags, HiringAuthoritySmartags and NameSmartags return the
	// merge-field values per entity id. A nil value means the record holds
	// NULL for that field.
	CandidateSmartags(ctx context.Context, ids []int64) (map[int64]domain.SmartagValues, error)
	HiringAuthoritySmartags(ctx context.Context, ids []int64) (map[int64]domain.SmartagValues, error)
	NameSmartags(ctx context.Context, ids []int64) (map[int64]domain.SmartagValues, error)

	// SenderSmartags returns the sending user's merge-field values.
	SenderSmartags(ctx context.Context, userID int64) (domain.SmartagValues, error)
}

// OptOutStore looks up persisted unsubscribe/opt-out records. Opt-outs are
// entity-level; unsubscribes are email-level records created by recipients
// themselves through the public link.
type OptOutStore interface {
	OptOuts(ctx context.Context, refs []domain.EntityRef) (map[domain.EntityRef]bool, error)
	Unsubscribes(ctx context.Context, emails []string) (map[string]bool, error)
}

// EmailVerifier returns third-party deliverability verdicts per address.
// Addresses absent from the result carry no verdict and pass the check.
type EmailVerifier interface {
	VerifyBatch(ctx context.Context, emails []string) (map[string]validation.Verdict, error)
}

// SettingsStore reads runtime-tunable pipeline settings.
type SettingsStore interface {
	SimilarityThreshold(ctx context.Context) (float64, error)
}

// BlobStore streams stored attachment bytes. KeyFromURL maps the public URL
// persisted on an attachment record back to the store's object key.
type BlobStore interface {
	KeyFromURL(rawURL string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Gateway is the transactional email gateway. Send returns a response for
// every completed exchange, accepted or not; the dispatch engine owns the
// retry policy.
type Gateway interface {
	Send(ctx context.Context, mail *sendgrid.Mail) (*sendgrid.Response, error)
	MaxRecipients() int
}
