package bulkemail

import (
	"context"
	"fmt"
	"sync"

	"github.com/josdesi/bulkmail/internal/domain"
)

// SmartagResolver builds per-recipient substitution maps from entity and
// sender merge fields. Lookups are batched per entity family, so resolving
// any number of recipients costs at most three directory round-trips plus
// one for the sender.
type SmartagResolver struct {
	directory Directory
}

// NewSmartagResolver creates a merge-field resolver.
func NewSmartagResolver(directory Directory) *SmartagResolver {
	return &SmartagResolver{directory: directory}
}

// Resolve returns one substitution map per recipient, parallel to the input
// slice, keyed by placeholder token. The three entity-family lookups touch
// disjoint id sets and run concurrently.
//
// Resolution is all or nothing: a recipient whose record cannot be found, or
// whose record holds NULL for any recognized merge field, fails the whole
// call. A half-personalized bulk email is worse than no email. Empty strings
// are valid values; only NULL/absent counts as missing.
func (s *SmartagResolver) Resolve(ctx context.Context, recipients []domain.Recipient, userID int64) ([]map[string]string, error) {
	var candidateIDs, haIDs, nameIDs []int64
	for _, r := range recipients {
		switch r.Kind.SmartagSource() {
		case domain.SourceCandidate:
			candidateIDs = append(candidateIDs, r.ID)
		case domain.SourceHiringAuthority:
			haIDs = append(haIDs, r.ID)
		case domain.SourceName:
			nameIDs = append(nameIDs, r.ID)
		}
	}

	var (
		wg                              sync.WaitGroup
		candidateVals, haVals, nameVals map[int64]domain.SmartagValues
		candidateErr, haErr, nameErr    error
	)
	if len(candidateIDs) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			candidateVals, candidateErr = s.directory.CandidateSmartags(ctx, candidateIDs)
		}()
	}
	if len(haIDs) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			haVals, haErr = s.directory.HiringAuthoritySmartags(ctx, haIDs)
		}()
	}
	if len(nameIDs) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			nameVals, nameErr = s.directory.NameSmartags(ctx, nameIDs)
		}()
	}
	senderVals, senderErr := s.directory.SenderSmartags(ctx, userID)
	wg.Wait()

	for _, err := range []error{candidateErr, haErr, nameErr} {
		if err != nil {
			return nil, fmt.Errorf("smartag lookup: %w", err)
		}
	}
	if senderErr != nil {
		return nil, fmt.Errorf("sender smartag lookup: %w", senderErr)
	}
	if senderVals == nil {
		return nil, fmt.Errorf("%w: user %d", ErrEntityNotFound, userID)
	}

	senderSubs := make(map[string]string, len(domain.SenderSmartags()))
	for _, tag := range domain.SenderSmartags() {
		v := senderVals[tag]
		if v == nil {
			return nil, fmt.Errorf("%w: %s for user %d", ErrMissingSmartag, tag, userID)
		}
		senderSubs[tag.Placeholder()] = *v
	}

	out := make([]map[string]string, len(recipients))
	for i, r := range recipients {
		var vals domain.SmartagValues
		var ok bool
		switch r.Kind.SmartagSource() {
		case domain.SourceCandidate:
			vals, ok = candidateVals[r.ID]
		case domain.SourceHiringAuthority:
			vals, ok = haVals[r.ID]
		case domain.SourceName:
			vals, ok = nameVals[r.ID]
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s %d", ErrEntityNotFound, r.Kind, r.ID)
		}

		subs := make(map[string]string, len(domain.RecipientSmartags())+len(senderSubs)+1)
		for _, tag := range domain.RecipientSmartags() {
			v := vals[tag]
			if v == nil {
				return nil, fmt.Errorf("%w: %s for %s %d", ErrMissingSmartag, tag, r.Kind, r.ID)
			}
			subs[tag.Placeholder()] = *v
		}
		for k, v := range senderSubs {
			subs[k] = v
		}
		out[i] = subs
	}
	return out, nil
}
