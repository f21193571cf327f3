package httpretry

import (
	"net/http"
	"testing"
)

// scriptedDoer returns canned responses in order.
type scriptedDoer struct {
	statuses []int
	calls    int
}

func (d *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	status := http.StatusOK
	if d.calls < len(d.statuses) {
		status = d.statuses[d.calls]
	}
	d.calls++
	return &http.Response{StatusCode: status, Body: http.NoBody}, nil
}

func TestDoRetriesRetryableStatuses(t *testing.T) {
	doer := &scriptedDoer{statuses: []int{503, 503, 200}}
	rc := NewRetryClient(doer, 3)
	rc.baseDelay = 0
	rc.maxDelay = 0

	req, _ := http.NewRequest(http.MethodGet, "http://api.test/x", nil)
	resp, err := rc.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if doer.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", doer.calls)
	}
}

func TestDoClientErrorNotRetried(t *testing.T) {
	doer := &scriptedDoer{statuses: []int{404}}
	rc := NewRetryClient(doer, 3)

	req, _ := http.NewRequest(http.MethodGet, "http://api.test/x", nil)
	resp, err := rc.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if resp.StatusCode != 404 || doer.calls != 1 {
		t.Fatalf("4xx must return immediately: status=%d calls=%d", resp.StatusCode, doer.calls)
	}
}

func TestDoFinalAttemptReturnsResponse(t *testing.T) {
	doer := &scriptedDoer{statuses: []int{500, 500, 500}}
	rc := NewRetryClient(doer, 2)
	rc.baseDelay = 0
	rc.maxDelay = 0

	req, _ := http.NewRequest(http.MethodGet, "http://api.test/x", nil)
	resp, err := rc.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("the exhausted response must be returned for inspection, got %d", resp.StatusCode)
	}
	if doer.calls != 3 {
		t.Fatalf("maxRetries=2 means 3 attempts, got %d", doer.calls)
	}
}
