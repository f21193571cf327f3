package bulkemail

import (
	"net/url"

	"github.com/josdesi/bulkmail/internal/domain"
)

// Personalization pairs one eligible recipient with its finished
// substitution map. The Recipient field is internal bookkeeping for failure
// reporting; the dispatcher strips it before anything goes on the wire.
type Personalization struct {
	Recipient     domain.Recipient  `json:"recipient"`
	Substitutions map[string]string `json:"substitutions"`
}

// Personalizer finishes substitution maps with the per-recipient
// unsubscribe link.
type Personalizer struct {
	unsubscribeBaseURL string
}

// NewPersonalizer creates a personalizer rooted at the public unsubscribe
// portal URL.
func NewPersonalizer(unsubscribeBaseURL string) *Personalizer {
	return &Personalizer{unsubscribeBaseURL: unsubscribeBaseURL}
}

// Build merges each recipient's substitutions with its unsubscribe URL.
// substitutions must be parallel to recipients, as produced by the smartag
// resolver.
func (p *Personalizer) Build(recipients []domain.Recipient, substitutions []map[string]string, emailHistoryID string) []Personalization {
	out := make([]Personalization, 0, len(recipients))
	for i, r := range recipients {
		subs := substitutions[i]
		subs[domain.TagUnsubscribeURL.Placeholder()] = p.unsubscribeURL(r.Email, emailHistoryID)
		out = append(out, Personalization{Recipient: r, Substitutions: subs})
	}
	return out
}

func (p *Personalizer) unsubscribeURL(email, emailHistoryID string) string {
	u := p.unsubscribeBaseURL + "?email=" + url.QueryEscape(email)
	if emailHistoryID != "" {
		u += "&emailHistoryId=" + url.QueryEscape(emailHistoryID)
	}
	return u
}
