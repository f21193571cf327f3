package bulkemail

import (
	"strings"

	"github.com/josdesi/bulkmail/internal/domain"
)

// NormalizeRecipients returns a copy of the recipient list with every email
// trimmed and lower-cased, so all later comparisons work on canonical
// addresses. Empty emails pass through unchanged; the filter tags those
// invalid instead of failing here.
func NormalizeRecipients(recipients []domain.Recipient) []domain.Recipient {
	out := make([]domain.Recipient, len(recipients))
	for i, r := range recipients {
		r.Email = strings.ToLower(strings.TrimSpace(r.Email))
		out[i] = r
	}
	return out
}
