package bulkemail

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/josdesi/bulkmail/internal/domain"
)

func TestAttachmentResolve(t *testing.T) {
	store := newMemBlobStore()
	store.blobs["attachments/resume.pdf"] = []byte("%PDF-1.4 fake")

	refs := []domain.AttachmentRef{
		{URL: "https://files.example.com/attachments/resume.pdf", Name: "resume.pdf"},
	}

	payloads := NewAttachmentResolver(store).Resolve(context.Background(), refs)
	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}
	p := payloads[0]
	if p.Filename != "resume.pdf" {
		t.Fatalf("filename: %q", p.Filename)
	}
	if p.Type != "application/pdf" {
		t.Fatalf("mime type: %q", p.Type)
	}
	if p.Disposition != "attachment" {
		t.Fatalf("disposition: %q", p.Disposition)
	}
	raw, err := base64.StdEncoding.DecodeString(p.Content)
	if err != nil || string(raw) != "%PDF-1.4 fake" {
		t.Fatalf("content round-trip failed: %q %v", raw, err)
	}
}

func TestAttachmentResolveMissingSkipped(t *testing.T) {
	store := newMemBlobStore()
	store.blobs["attachments/kept.txt"] = []byte("hello")

	refs := []domain.AttachmentRef{
		{URL: "https://files.example.com/attachments/deleted.pdf", Name: "deleted.pdf"},
		{URL: "https://files.example.com/attachments/kept.txt", Name: "kept.txt"},
	}

	payloads := NewAttachmentResolver(store).Resolve(context.Background(), refs)
	if len(payloads) != 1 {
		t.Fatalf("missing blob must be skipped, not fatal: got %d payloads", len(payloads))
	}
	if payloads[0].Filename != "kept.txt" {
		t.Fatalf("wrong attachment kept: %q", payloads[0].Filename)
	}
}

func TestMimeTypeFallback(t *testing.T) {
	if got := mimeTypeFor("data.bin.weirdext"); got != "application/octet-stream" {
		t.Fatalf("unknown extension should default to octet-stream, got %q", got)
	}
	if got := mimeTypeFor("notes.txt"); got != "text/plain" {
		t.Fatalf("expected bare media type without charset, got %q", got)
	}
}
