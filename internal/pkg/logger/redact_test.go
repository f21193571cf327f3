package logger

import "testing"

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"john.doe@example.com", "jo***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"a@example.com", "***@example.com"},
		{"not-an-email", "***@***"},
		{"two@ats@bad", "***@***"},
	}
	for _, tt := range tests {
		if got := RedactEmail(tt.in); got != tt.want {
			t.Errorf("RedactEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactPIIValue(t *testing.T) {
	if got := redactPIIValue("recipientEmail", "jane.doe@example.com"); got != "ja***@example.com" {
		t.Errorf("keyed redaction: %q", got)
	}
	if got := redactPIIValue("message", "contact jane.doe@example.com today"); got != "contact ja***@example.com today" {
		t.Errorf("inline redaction: %q", got)
	}
	if got := redactPIIValue("count", "42"); got != "42" {
		t.Errorf("non-PII value must pass through: %q", got)
	}
}
