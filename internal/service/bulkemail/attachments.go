package bulkemail

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/josdesi/bulkmail/internal/domain"
	"github.com/josdesi/bulkmail/internal/pkg/logger"
)

// AttachmentResolver turns stored attachment references into inline base64
// payloads for the gateway.
type AttachmentResolver struct {
	store BlobStore
}

// NewAttachmentResolver creates an attachment resolver over the blob store.
func NewAttachmentResolver(store BlobStore) *AttachmentResolver {
	return &AttachmentResolver{store: store}
}

// Resolve streams and encodes each referenced blob. Resolution is best
// effort: a reference that cannot be read, typically because the blob was
// deleted since the attachment record was written, is logged and skipped
// rather than failing the send.
func (a *AttachmentResolver) Resolve(ctx context.Context, refs []domain.AttachmentRef) []domain.AttachmentPayload {
	var payloads []domain.AttachmentPayload
	for _, ref := range refs {
		payload, err := a.resolveOne(ctx, ref)
		if err != nil {
			logger.Warn("skipping attachment", "name", ref.Name, "error", err.Error())
			continue
		}
		payloads = append(payloads, payload)
	}
	return payloads
}

func (a *AttachmentResolver) resolveOne(ctx context.Context, ref domain.AttachmentRef) (domain.AttachmentPayload, error) {
	key, err := a.store.KeyFromURL(ref.URL)
	if err != nil {
		return domain.AttachmentPayload{}, err
	}

	exists, err := a.store.Exists(ctx, key)
	if err != nil {
		return domain.AttachmentPayload{}, err
	}
	if !exists {
		return domain.AttachmentPayload{}, fmt.Errorf("attachment %s no longer exists", key)
	}

	rc, err := a.store.Open(ctx, key)
	if err != nil {
		return domain.AttachmentPayload{}, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return domain.AttachmentPayload{}, fmt.Errorf("reading attachment %s: %w", key, err)
	}

	return domain.AttachmentPayload{
		Content:     base64.StdEncoding.EncodeToString(raw),
		Filename:    ref.Name,
		Type:        mimeTypeFor(ref.Name),
		Disposition: "attachment",
	}, nil
}

// mimeTypeFor infers a MIME type from the filename extension, defaulting to
// a generic binary type. Charset parameters are dropped; the gateway wants
// the bare media type.
func mimeTypeFor(filename string) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if t == "" {
		return "application/octet-stream"
	}
	if i := strings.Index(t, ";"); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}
