package bulkemail

import (
	"reflect"
	"testing"

	"github.com/josdesi/bulkmail/internal/domain"
)

func TestNormalizeRecipients(t *testing.T) {
	in := []domain.Recipient{
		{ID: 1, Email: " Jane.Doe@Example.COM ", Kind: domain.KindCandidate},
		{ID: 2, Email: "already@example.com", Kind: domain.KindName},
		{ID: 3, Email: "", Kind: domain.KindHiringAuthority},
	}

	got := NormalizeRecipients(in)
	if len(got) != len(in) {
		t.Fatalf("expected %d recipients, got %d", len(in), len(got))
	}
	if got[0].Email != "jane.doe@example.com" {
		t.Fatalf("expected lower-cased email, got %q", got[0].Email)
	}
	if got[2].Email != "" {
		t.Fatalf("empty email should pass through, got %q", got[2].Email)
	}
	if in[0].Email != " Jane.Doe@Example.COM " {
		t.Fatal("input slice must not be mutated")
	}
}

func TestNormalizeRecipientsIdempotent(t *testing.T) {
	in := []domain.Recipient{
		{ID: 1, Email: "a@example.com", Kind: domain.KindCandidate},
		{ID: 2, Email: "b@example.com", Kind: domain.KindHiringAuthority},
	}

	once := NormalizeRecipients(in)
	twice := NormalizeRecipients(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalization is not idempotent: %v vs %v", once, twice)
	}
	if !reflect.DeepEqual(in, once) {
		t.Fatalf("already-normal list should be unchanged: %v vs %v", in, once)
	}
}
