package bulkemail

import (
	"strings"

	"github.com/josdesi/bulkmail/internal/domain"
	"github.com/josdesi/bulkmail/internal/validation"
)

// refData holds every reference set the exclusion rules consult, fetched in
// a bounded number of batched lookups before any recipient is evaluated.
// The rules themselves are pure functions over this snapshot.
type refData struct {
	optOuts      map[domain.EntityRef]bool
	unsubscribes map[string]bool

	candidateEmployers map[int64]domain.CompanyRef
	nameEmployers      map[int64]domain.CompanyRef
	haCompanies        map[int64]domain.CompanyRef
	candidateStatuses  map[int64]domain.CandidateStatus

	// marketedCompanyIDs are the employers of the send's target candidates;
	// hiring authorities at those companies are off limits for marketing.
	marketedCompanyIDs map[int64]struct{}
	clientCompanyIDs   map[int64]struct{}
	similarCompanyIDs  map[int64]struct{}

	verdicts map[string]validation.Verdict
}

// companyFor returns the recipient's own company, routed by entity kind.
// Name-backed recipients resolve through the names employer relation no
// matter which flow they are emailed through.
func (d *refData) companyFor(r domain.Recipient) (domain.CompanyRef, bool) {
	switch r.Kind {
	case domain.KindCandidate:
		c, ok := d.candidateEmployers[r.ID]
		return c, ok
	case domain.KindHiringAuthority:
		c, ok := d.haCompanies[r.ID]
		return c, ok
	default:
		c, ok := d.nameEmployers[r.ID]
		return c, ok
	}
}

// blockedReason evaluates the policy rules in a fixed order and returns the
// first match. Opt-outs win over everything; scope rules apply only to the
// kinds their policy targets; the company-block extensions run last and only
// when the caller opted in.
func (d *refData) blockedReason(r domain.Recipient, req *domain.BulkSendRequest) (domain.ReasonCode, bool) {
	if d.optOuts[r.Ref()] {
		return domain.ReasonOptOut, true
	}
	if d.unsubscribes[r.Email] {
		return domain.ReasonUnsubscribe, true
	}

	switch req.Scope {
	case domain.ScopeMarketing:
		// Never market to the hiring authorities of a company that employs
		// one of the candidates being marketed.
		if r.Kind.IsHiringAuthorityKind() {
			if c, ok := d.companyFor(r); ok {
				if _, hit := d.marketedCompanyIDs[c.ID]; hit {
					return domain.ReasonMarketingScope, true
				}
			}
		}
	case domain.ScopeRecruiting:
		// Never recruit staff out of a signed client or vendor.
		if r.Kind.IsHiringAuthorityKind() {
			if c, ok := d.companyFor(r); ok {
				if _, hit := d.clientCompanyIDs[c.ID]; hit {
					return domain.ReasonRecruitingScope, true
				}
			}
		}
		if r.Kind == domain.KindCandidate {
			if status, ok := d.candidateStatuses[r.ID]; ok && status.Blocked() {
				return domain.ReasonCandidateStatus, true
			}
		}
	}

	if req.Block.BlockSimilarCompanies && r.Kind.IsHiringAuthorityKind() {
		if c, ok := d.companyFor(r); ok {
			if _, hit := d.similarCompanyIDs[c.ID]; hit {
				return domain.ReasonSimilarCompany, true
			}
		}
	}
	if req.Block.BlockClientCompanies && r.Kind.IsHiringAuthorityKind() {
		if c, ok := d.companyFor(r); ok {
			if _, hit := d.clientCompanyIDs[c.ID]; hit {
				return domain.ReasonClientSignedCompany, true
			}
		}
	}

	return "", false
}

// invalidReason evaluates the deliverability and integrity checks. The
// resend-block rule is deliberately absent: it runs afterwards, over the
// recipients these checks left standing.
func (d *refData) invalidReason(r domain.Recipient) (domain.ReasonCode, bool) {
	if !validEmail(r.Email) {
		return domain.ReasonEmptyAddress, true
	}

	switch d.verdicts[r.Email] {
	case validation.VerdictInvalid:
		return domain.ReasonProviderInvalid, true
	case validation.VerdictCatchAll:
		return domain.ReasonProviderAcceptAll, true
	case validation.VerdictUnknown:
		return domain.ReasonProviderUnknown, true
	}

	// Candidates and names without a current employer cannot be attributed
	// to any company context. Hiring authority records always belong to a
	// company, so the check only guards the other kinds.
	if r.Kind != domain.KindHiringAuthority {
		if _, ok := d.companyFor(r); !ok {
			return domain.ReasonMissingEmployer, true
		}
	}

	return "", false
}

// validEmail is a minimal structural check. Real deliverability verdicts
// come from the verification provider; this only weeds out addresses that
// could never be one.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}
	domainPart := email[at+1:]
	if domainPart == "" || strings.Contains(email, " ") {
		return false
	}
	dot := strings.Index(domainPart, ".")
	return dot > 0 && dot < len(domainPart)-1
}
