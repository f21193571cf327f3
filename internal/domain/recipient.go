package domain

import "fmt"

// EntityKind identifies which CRM entity a recipient belongs to. The kind
// decides which smartag source and which scope-exclusion rule applies to the
// recipient; it is never inferred from the email address.
type EntityKind string

const (
	KindCandidate             EntityKind = "candidate"
	KindHiringAuthority       EntityKind = "hiringAuthority"
	KindName                  EntityKind = "name"
	KindNameAsCandidate       EntityKind = "nameAsCandidate"
	KindNameAsHiringAuthority EntityKind = "nameAsHiringAuthority"
)

// ParseEntityKind converts a wire string into an EntityKind.
func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case KindCandidate, KindHiringAuthority, KindName, KindNameAsCandidate, KindNameAsHiringAuthority:
		return EntityKind(s), nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// IsCandidateKind reports whether the recipient is addressed through the
// candidate flow (real candidates plus names emailed as candidates).
func (k EntityKind) IsCandidateKind() bool {
	return k == KindCandidate || k == KindNameAsCandidate
}

// IsHiringAuthorityKind reports whether the recipient is addressed through
// the hiring authority flow.
func (k EntityKind) IsHiringAuthorityKind() bool {
	return k == KindHiringAuthority || k == KindNameAsHiringAuthority
}

// SmartagSource identifies which batched lookup feeds a recipient's merge
// fields. Name-backed recipients always resolve from the names table, no
// matter which flow they are emailed through.
type SmartagSource string

const (
	SourceCandidate       SmartagSource = "candidate"
	SourceHiringAuthority SmartagSource = "hiringAuthority"
	SourceName            SmartagSource = "name"
)

// SmartagSource returns the lookup family for this kind.
func (k EntityKind) SmartagSource() SmartagSource {
	switch k {
	case KindCandidate:
		return SourceCandidate
	case KindHiringAuthority:
		return SourceHiringAuthority
	default:
		return SourceName
	}
}

// Recipient is one entry of a bulk send's target list. ID is scoped to the
// entity kind: candidate 12 and name 12 are different people.
type Recipient struct {
	ID    int64      `json:"id"`
	Email string     `json:"email"`
	Kind  EntityKind `json:"entityKind"`
}

// Ref returns the (kind, id) identity of the recipient.
func (r Recipient) Ref() EntityRef { return EntityRef{Kind: r.Kind, ID: r.ID} }

// EntityRef is a (kind, id) pair used for entity-level lookups such as
// opt-out records.
type EntityRef struct {
	Kind EntityKind
	ID   int64
}

// ScopeType selects which exclusion policy family applies to a bulk send.
// Marketing sends target company contacts; recruiting sends target
// candidates and names. Unscoped sends skip scope-based blocking entirely.
type ScopeType string

const (
	ScopeNone       ScopeType = ""
	ScopeMarketing  ScopeType = "marketing"
	ScopeRecruiting ScopeType = "recruiting"
)

// ParseScopeType converts a wire string into a ScopeType.
func ParseScopeType(s string) (ScopeType, error) {
	switch ScopeType(s) {
	case ScopeNone, ScopeMarketing, ScopeRecruiting:
		return ScopeType(s), nil
	}
	return "", fmt.Errorf("unknown scope type %q", s)
}

// CandidateStatus is a candidate's current pipeline status. Placed and
// inactive candidates are blocked from recruiting sends.
type CandidateStatus string

const (
	StatusOngoing  CandidateStatus = "ongoing"
	StatusPlaced   CandidateStatus = "placed"
	StatusInactive CandidateStatus = "inactive"
)

// Blocked reports whether the status forbids bulk emailing the candidate.
func (s CandidateStatus) Blocked() bool {
	return s == StatusPlaced || s == StatusInactive
}

// BlockConfig holds the caller's opt-in company blocking switches.
type BlockConfig struct {
	BlockSimilarCompanies bool `json:"blockSimilarCompanies"`
	BlockClientCompanies  bool `json:"blockClientCompanies"`
}

// ResendBlockSet lists entity ids to exclude when re-sending a previously
// failed batch. Ids are scoped per kind, mirroring Recipient identity.
type ResendBlockSet struct {
	CandidateIDs       []int64 `json:"candidateIds"`
	HiringAuthorityIDs []int64 `json:"hiringAuthorityIds"`
	NameIDs            []int64 `json:"nameIds"`
}

// Contains reports whether the recipient's id appears in the set for its kind.
func (s *ResendBlockSet) Contains(r Recipient) bool {
	if s == nil {
		return false
	}
	var ids []int64
	switch {
	case r.Kind == KindCandidate:
		ids = s.CandidateIDs
	case r.Kind == KindHiringAuthority:
		ids = s.HiringAuthorityIDs
	default:
		ids = s.NameIDs
	}
	for _, id := range ids {
		if id == r.ID {
			return true
		}
	}
	return false
}

// Empty reports whether the set holds no ids at all.
func (s *ResendBlockSet) Empty() bool {
	return s == nil || len(s.CandidateIDs)+len(s.HiringAuthorityIDs)+len(s.NameIDs) == 0
}

// CompanyRef is a current-employer relation resolved by the directory.
type CompanyRef struct {
	ID   int64
	Name string
}
