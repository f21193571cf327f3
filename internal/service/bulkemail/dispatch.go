package bulkemail

import (
	"context"
	"math/rand"
	"time"

	"github.com/josdesi/bulkmail/internal/domain"
	"github.com/josdesi/bulkmail/internal/pkg/logger"
	"github.com/josdesi/bulkmail/internal/sendgrid"
)

const (
	// dispatchAttempts bounds the send attempts per chunk.
	dispatchAttempts = 3
	// jitterCeiling caps the random delay between attempts of one chunk.
	jitterCeiling = 1000 * time.Millisecond
	// chunkCooldown is the fixed pause between consecutive chunks, a
	// self-imposed rate limit independent of the gateway's own limits.
	chunkCooldown = 1000 * time.Millisecond
)

// DispatchOutcome aggregates what happened to every recipient across all
// chunks of one logical send. Sent and Failed preserve chunk order, and
// personalization order within a chunk.
type DispatchOutcome struct {
	Sent         []domain.Recipient
	Failed       []domain.Recipient
	LastResponse *sendgrid.Response
	BatchID      string
}

// Dispatcher sends personalizations to the gateway in ceiling-sized chunks,
// strictly sequentially, with bounded per-chunk retry.
type Dispatcher struct {
	gateway Gateway

	// Retry policy, fixed in production; tests shrink the delays.
	attempts  int
	jitterMax time.Duration
	cooldown  time.Duration
}

// NewDispatcher creates a dispatcher with the production retry policy.
func NewDispatcher(gateway Gateway) *Dispatcher {
	return &Dispatcher{
		gateway:   gateway,
		attempts:  dispatchAttempts,
		jitterMax: jitterCeiling,
		cooldown:  chunkCooldown,
	}
}

// Dispatch splits the personalizations into chunks no larger than the
// gateway ceiling and sends them one at a time. A failing chunk never
// aborts the remaining chunks; its recipients are recorded failed and the
// loop moves on after the cooldown. batchID rides on the mail's custom args
// and is the same for every physical request of this send.
func (d *Dispatcher) Dispatch(ctx context.Context, base *sendgrid.Mail, personalizations []Personalization, batchID string) *DispatchOutcome {
	out := &DispatchOutcome{BatchID: batchID}

	ceiling := d.gateway.MaxRecipients()
	if ceiling <= 0 {
		ceiling = sendgrid.DefaultMaxRecipients
	}
	chunks := chunkPersonalizations(personalizations, ceiling)

	for i, chunk := range chunks {
		resp, accepted := d.sendChunk(ctx, base, chunk, batchID)
		if resp != nil {
			out.LastResponse = resp
		}
		if accepted {
			out.Sent = append(out.Sent, recipientsOf(chunk)...)
		} else {
			out.Failed = append(out.Failed, recipientsOf(chunk)...)
		}
		if i < len(chunks)-1 {
			sleepCtx(ctx, d.cooldown)
		}
	}
	return out
}

// sendChunk runs the per-chunk retry loop. A transport error fails the
// chunk immediately; a completed-but-rejected exchange is retried after a
// jittered delay until the attempt bound is spent.
func (d *Dispatcher) sendChunk(ctx context.Context, base *sendgrid.Mail, chunk []Personalization, batchID string) (*sendgrid.Response, bool) {
	mail := *base
	mail.Personalizations = wirePersonalizations(chunk)

	var last *sendgrid.Response
	for attempt := 1; attempt <= d.attempts; attempt++ {
		resp, err := d.gateway.Send(ctx, &mail)
		if err != nil {
			logger.Error("chunk send failed",
				"batchId", batchID, "attempt", attempt, "recipients", len(chunk), "error", err.Error())
			return last, false
		}
		last = resp
		if resp.Accepted() {
			return resp, true
		}
		if apiErr := resp.APIError(); apiErr != nil {
			logger.Warn("chunk rejected by gateway",
				"batchId", batchID, "attempt", attempt, "status", resp.StatusCode, "message", apiErr.Message)
		} else {
			logger.Warn("chunk rejected by gateway",
				"batchId", batchID, "attempt", attempt, "status", resp.StatusCode)
		}
		if attempt < d.attempts {
			sleepCtx(ctx, d.jitter())
		}
	}
	return last, false
}

func (d *Dispatcher) jitter() time.Duration {
	if d.jitterMax <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d.jitterMax) + 1))
}

// chunkPersonalizations slices the list into runs of at most size, in order.
func chunkPersonalizations(personalizations []Personalization, size int) [][]Personalization {
	var chunks [][]Personalization
	for start := 0; start < len(personalizations); start += size {
		end := start + size
		if end > len(personalizations) {
			end = len(personalizations)
		}
		chunks = append(chunks, personalizations[start:end])
	}
	return chunks
}

// wirePersonalizations converts the service-layer units into the gateway's
// wire shape, dropping the internal Recipient bookkeeping the gateway does
// not accept.
func wirePersonalizations(chunk []Personalization) []sendgrid.Personalization {
	wire := make([]sendgrid.Personalization, 0, len(chunk))
	for _, p := range chunk {
		wire = append(wire, sendgrid.Personalization{
			To:            []sendgrid.Address{{Email: p.Recipient.Email}},
			Substitutions: p.Substitutions,
		})
	}
	return wire
}

func recipientsOf(chunk []Personalization) []domain.Recipient {
	recipients := make([]domain.Recipient, 0, len(chunk))
	for _, p := range chunk {
		recipients = append(recipients, p.Recipient)
	}
	return recipients
}

// sleepCtx waits for the duration or the context, whichever ends first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
