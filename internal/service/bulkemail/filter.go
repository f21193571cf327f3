package bulkemail

import (
	"context"
	"fmt"
	"time"

	"github.com/josdesi/bulkmail/internal/domain"
)

// Partition is the filter's three-way split of the recipient list. The sets
// are disjoint: each recipient lands in exactly one of them, matched by full
// (kind, id, email) identity.
type Partition struct {
	Blocked  []domain.ExclusionRecord
	Invalid  []domain.ExclusionRecord
	Eligible []domain.Recipient
}

// Filter partitions a normalized recipient list into blocked, invalid and
// eligible sets by running the exclusion rules over batched reference data.
type Filter struct {
	directory Directory
	optOuts   OptOutStore
	verifier  EmailVerifier
	settings  SettingsStore
}

// NewFilter creates a recipient filter. verifier may be nil when provider
// verification is disabled; provider-verdict checks are then skipped.
func NewFilter(directory Directory, optOuts OptOutStore, verifier EmailVerifier, settings SettingsStore) *Filter {
	return &Filter{
		directory: directory,
		optOuts:   optOuts,
		verifier:  verifier,
		settings:  settings,
	}
}

// Partition applies the exclusion rules to the request's recipients.
//
// The blocked report de-duplicates by email, keeping the first match, while
// exclusion itself works on full recipient identity: two entities sharing an
// address are evaluated independently. Resend-block runs last, over the
// recipients the deliverability checks left standing, because it exists to
// skip real addresses already attempted on a prior send.
//
// Any collaborator failure aborts the whole partition; the pipeline never
// guesses at blocking policy.
func (f *Filter) Partition(ctx context.Context, req *domain.BulkSendRequest) (*Partition, error) {
	data, err := f.fetchRefData(ctx, req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	part := &Partition{}
	blockedEmails := make(map[string]bool)
	var remaining []domain.Recipient

	for _, r := range req.Recipients {
		if validEmail(r.Email) {
			if reason, ok := data.blockedReason(r, req); ok {
				if !blockedEmails[r.Email] {
					blockedEmails[r.Email] = true
					part.Blocked = append(part.Blocked, domain.ExclusionRecord{Recipient: r, Reason: reason, Timestamp: now})
				}
				continue
			}
		}
		if reason, ok := data.invalidReason(r); ok {
			part.Invalid = append(part.Invalid, domain.ExclusionRecord{Recipient: r, Reason: reason, Timestamp: now})
			continue
		}
		remaining = append(remaining, r)
	}

	for _, r := range remaining {
		if req.ResendBlock.Contains(r) {
			part.Invalid = append(part.Invalid, domain.ExclusionRecord{Recipient: r, Reason: domain.ReasonResendBlock, Timestamp: now})
			continue
		}
		part.Eligible = append(part.Eligible, r)
	}

	return part, nil
}

// fetchRefData issues the batched reference lookups the rules need. Lookups
// whose rule cannot fire for this request are skipped entirely.
func (f *Filter) fetchRefData(ctx context.Context, req *domain.BulkSendRequest) (*refData, error) {
	var (
		refs                         []domain.EntityRef
		emails                       []string
		candidateIDs, haIDs, nameIDs []int64
	)
	seenEmail := make(map[string]bool)
	for _, r := range req.Recipients {
		refs = append(refs, r.Ref())
		if r.Email != "" && !seenEmail[r.Email] {
			seenEmail[r.Email] = true
			emails = append(emails, r.Email)
		}
		switch r.Kind {
		case domain.KindCandidate:
			candidateIDs = append(candidateIDs, r.ID)
		case domain.KindHiringAuthority:
			haIDs = append(haIDs, r.ID)
		default:
			nameIDs = append(nameIDs, r.ID)
		}
	}

	data := &refData{}
	var err error

	if data.optOuts, err = f.optOuts.OptOuts(ctx, refs); err != nil {
		return nil, fmt.Errorf("opt-out lookup: %w", err)
	}
	if data.unsubscribes, err = f.optOuts.Unsubscribes(ctx, emails); err != nil {
		return nil, fmt.Errorf("unsubscribe lookup: %w", err)
	}

	if len(candidateIDs) > 0 {
		if data.candidateEmployers, err = f.directory.CandidateEmployers(ctx, candidateIDs); err != nil {
			return nil, fmt.Errorf("candidate employer lookup: %w", err)
		}
		if req.Scope == domain.ScopeRecruiting {
			if data.candidateStatuses, err = f.directory.CandidateStatuses(ctx, candidateIDs); err != nil {
				return nil, fmt.Errorf("candidate status lookup: %w", err)
			}
		}
	}
	if len(nameIDs) > 0 {
		if data.nameEmployers, err = f.directory.NameEmployers(ctx, nameIDs); err != nil {
			return nil, fmt.Errorf("name employer lookup: %w", err)
		}
	}
	if len(haIDs) > 0 {
		if data.haCompanies, err = f.directory.HiringAuthorityCompanies(ctx, haIDs); err != nil {
			return nil, fmt.Errorf("hiring authority company lookup: %w", err)
		}
	}

	if req.Scope == domain.ScopeMarketing && len(req.CandidateIDs) > 0 {
		if data.marketedCompanyIDs, err = f.directory.EmployerCompanyIDsForCandidates(ctx, req.CandidateIDs); err != nil {
			return nil, fmt.Errorf("marketed company lookup: %w", err)
		}
	}
	if req.Scope == domain.ScopeRecruiting || req.Block.BlockClientCompanies {
		if data.clientCompanyIDs, err = f.directory.ClientCompanyIDs(ctx); err != nil {
			return nil, fmt.Errorf("client company lookup: %w", err)
		}
	}
	if req.Block.BlockSimilarCompanies {
		threshold, err := f.settings.SimilarityThreshold(ctx)
		if err != nil {
			return nil, fmt.Errorf("similarity threshold lookup: %w", err)
		}
		if data.similarCompanyIDs, err = f.directory.CompaniesSimilarToClients(ctx, threshold); err != nil {
			return nil, fmt.Errorf("similar company lookup: %w", err)
		}
	}

	if f.verifier != nil && len(emails) > 0 {
		if data.verdicts, err = f.verifier.VerifyBatch(ctx, emails); err != nil {
			return nil, fmt.Errorf("email verification: %w", err)
		}
	}

	return data, nil
}
