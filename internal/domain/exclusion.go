package domain

import "time"

// ReasonCode is the closed taxonomy of exclusion reasons. Blocked-family
// codes come from policy rules; invalid-family codes come from
// deliverability and dispatch outcomes.
type ReasonCode string

const (
	// Blocked family.
	ReasonOptOut              ReasonCode = "opt-out"
	ReasonUnsubscribe         ReasonCode = "unsubscribe"
	ReasonMarketingScope      ReasonCode = "marketing-scope-mismatch"
	ReasonRecruitingScope     ReasonCode = "recruiting-scope-mismatch"
	ReasonSimilarCompany      ReasonCode = "similar-company"
	ReasonClientSignedCompany ReasonCode = "client-signed-company"
	ReasonCandidateStatus     ReasonCode = "candidate-status-blocked"

	// Invalid family.
	ReasonProviderInvalid   ReasonCode = "provider-invalid"
	ReasonProviderAcceptAll ReasonCode = "provider-accept-all"
	ReasonProviderUnknown   ReasonCode = "provider-unknown"
	ReasonEmptyAddress      ReasonCode = "empty-address"
	ReasonMissingEmployer   ReasonCode = "missing-employer"
	ReasonResendBlock       ReasonCode = "resend-block"
	ReasonDispatchFailed    ReasonCode = "dispatch-failed"
)

// ExclusionRecord marks one recipient as blocked or invalid for a reason.
type ExclusionRecord struct {
	Recipient Recipient  `json:"recipient"`
	Reason    ReasonCode `json:"reason"`
	Timestamp time.Time  `json:"timestamp"`
}
