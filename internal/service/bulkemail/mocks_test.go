package bulkemail

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/josdesi/bulkmail/internal/domain"
	"github.com/josdesi/bulkmail/internal/sendgrid"
	"github.com/josdesi/bulkmail/internal/validation"
)

// memDirectory is an in-memory Directory for unit testing.
type memDirectory struct {
	candidateEmployers map[int64]domain.CompanyRef
	nameEmployers      map[int64]domain.CompanyRef
	haCompanies        map[int64]domain.CompanyRef
	candidateStatuses  map[int64]domain.CandidateStatus
	clientCompanies    map[int64]struct{}
	similarCompanies   map[int64]struct{}

	candidateTags map[int64]domain.SmartagValues
	haTags        map[int64]domain.SmartagValues
	nameTags      map[int64]domain.SmartagValues
	senderTags    map[int64]domain.SmartagValues

	gotThreshold float64
	err          error
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		candidateEmployers: make(map[int64]domain.CompanyRef),
		nameEmployers:      make(map[int64]domain.CompanyRef),
		haCompanies:        make(map[int64]domain.CompanyRef),
		candidateStatuses:  make(map[int64]domain.CandidateStatus),
		clientCompanies:    make(map[int64]struct{}),
		similarCompanies:   make(map[int64]struct{}),
		candidateTags:      make(map[int64]domain.SmartagValues),
		haTags:             make(map[int64]domain.SmartagValues),
		nameTags:           make(map[int64]domain.SmartagValues),
		senderTags:         make(map[int64]domain.SmartagValues),
	}
}

func (m *memDirectory) CandidateEmployers(_ context.Context, ids []int64) (map[int64]domain.CompanyRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	return pick(m.candidateEmployers, ids), nil
}

func (m *memDirectory) NameEmployers(_ context.Context, ids []int64) (map[int64]domain.CompanyRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	return pick(m.nameEmployers, ids), nil
}

func (m *memDirectory) HiringAuthorityCompanies(_ context.Context, ids []int64) (map[int64]domain.CompanyRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	return pick(m.haCompanies, ids), nil
}

func (m *memDirectory) CandidateStatuses(_ context.Context, ids []int64) (map[int64]domain.CandidateStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	return pick(m.candidateStatuses, ids), nil
}

func (m *memDirectory) ClientCompanyIDs(_ context.Context) (map[int64]struct{}, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.clientCompanies, nil
}

func (m *memDirectory) EmployerCompanyIDsForCandidates(_ context.Context, candidateIDs []int64) (map[int64]struct{}, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[int64]struct{})
	for _, id := range candidateIDs {
		if c, ok := m.candidateEmployers[id]; ok {
			out[c.ID] = struct{}{}
		}
	}
	return out, nil
}

func (m *memDirectory) CompaniesSimilarToClients(_ context.Context, threshold float64) (map[int64]struct{}, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.gotThreshold = threshold
	return m.similarCompanies, nil
}

func (m *memDirectory) CandidateSmartags(_ context.Context, ids []int64) (map[int64]domain.SmartagValues, error) {
	if m.err != nil {
		return nil, m.err
	}
	return pick(m.candidateTags, ids), nil
}

func (m *memDirectory) HiringAuthoritySmartags(_ context.Context, ids []int64) (map[int64]domain.SmartagValues, error) {
	if m.err != nil {
		return nil, m.err
	}
	return pick(m.haTags, ids), nil
}

func (m *memDirectory) NameSmartags(_ context.Context, ids []int64) (map[int64]domain.SmartagValues, error) {
	if m.err != nil {
		return nil, m.err
	}
	return pick(m.nameTags, ids), nil
}

func (m *memDirectory) SenderSmartags(_ context.Context, userID int64) (domain.SmartagValues, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.senderTags[userID], nil
}

func pick[V any](src map[int64]V, ids []int64) map[int64]V {
	out := make(map[int64]V, len(ids))
	for _, id := range ids {
		if v, ok := src[id]; ok {
			out[id] = v
		}
	}
	return out
}

// memOptOuts is an in-memory OptOutStore.
type memOptOuts struct {
	optOuts      map[domain.EntityRef]bool
	unsubscribes map[string]bool
	err          error
}

func newMemOptOuts() *memOptOuts {
	return &memOptOuts{
		optOuts:      make(map[domain.EntityRef]bool),
		unsubscribes: make(map[string]bool),
	}
}

func (m *memOptOuts) OptOuts(_ context.Context, refs []domain.EntityRef) (map[domain.EntityRef]bool, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[domain.EntityRef]bool)
	for _, ref := range refs {
		if m.optOuts[ref] {
			out[ref] = true
		}
	}
	return out, nil
}

func (m *memOptOuts) Unsubscribes(_ context.Context, emails []string) (map[string]bool, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]bool)
	for _, e := range emails {
		if m.unsubscribes[e] {
			out[e] = true
		}
	}
	return out, nil
}

// memVerifier is an in-memory EmailVerifier.
type memVerifier struct {
	verdicts map[string]validation.Verdict
	calls    int
	err      error
}

func (m *memVerifier) VerifyBatch(_ context.Context, _ []string) (map[string]validation.Verdict, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.verdicts, nil
}

// memSettings is an in-memory SettingsStore.
type memSettings struct {
	threshold float64
	err       error
}

func (m *memSettings) SimilarityThreshold(_ context.Context) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.threshold == 0 {
		return 0.45, nil
	}
	return m.threshold, nil
}

// memBlobStore is an in-memory BlobStore keyed by object key.
type memBlobStore struct {
	blobs map[string][]byte
	err   error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (m *memBlobStore) KeyFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(u.Path, "/"), nil
}

func (m *memBlobStore) Exists(_ context.Context, key string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.blobs[key]
	return ok, nil
}

func (m *memBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if m.err != nil {
		return nil, m.err
	}
	b, ok := m.blobs[key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

// memGateway captures every send and replays a scripted status sequence.
// With no script, every call is accepted. errorBody rides on every rejected
// response so structured gateway errors can be exercised.
type memGateway struct {
	ceiling      int
	statuses     []int
	errorBody    string
	transportErr error

	mu    sync.Mutex
	calls []*sendgrid.Mail
}

func (g *memGateway) MaxRecipients() int {
	if g.ceiling > 0 {
		return g.ceiling
	}
	return sendgrid.DefaultMaxRecipients
}

func (g *memGateway) Send(_ context.Context, m *sendgrid.Mail) (*sendgrid.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := *m
	g.calls = append(g.calls, &cp)
	if g.transportErr != nil {
		return nil, g.transportErr
	}
	status := sendgrid.StatusAccepted
	if len(g.statuses) > 0 {
		status = g.statuses[0]
		g.statuses = g.statuses[1:]
	}
	resp := &sendgrid.Response{StatusCode: status, MessageID: "msg-1"}
	if status != sendgrid.StatusAccepted {
		resp.Body = g.errorBody
	}
	return resp, nil
}

func (g *memGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func strptr(s string) *string { return &s }

// fullRecipientTags returns a complete recipient merge-field set.
func fullRecipientTags(first, last, company, title string) domain.SmartagValues {
	return domain.SmartagValues{
		domain.TagFirstName:   strptr(first),
		domain.TagLastName:    strptr(last),
		domain.TagFullName:    strptr(first + " " + last),
		domain.TagCompanyName: strptr(company),
		domain.TagTitle:       strptr(title),
	}
}

// fullSenderTags returns a complete sender merge-field set.
func fullSenderTags(name, email string) domain.SmartagValues {
	first := name
	if i := strings.Index(name, " "); i > 0 {
		first = name[:i]
	}
	return domain.SmartagValues{
		domain.TagSenderName:      strptr(name),
		domain.TagSenderFirstName: strptr(first),
		domain.TagSenderEmail:     strptr(email),
		domain.TagSenderPhone:     strptr("555-0100"),
	}
}
