package storage

import "testing"

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"plain", "https://files.example.com/attachments/1/resume.pdf", "attachments/1/resume.pdf", false},
		{"escaped", "https://files.example.com/attachments/My%20Resume.pdf", "attachments/My Resume.pdf", false},
		{"nested", "https://bucket.s3.us-east-1.amazonaws.com/a/b/c.txt", "a/b/c.txt", false},
		{"no path", "https://files.example.com/", "", true},
		{"garbage", "://not-a-url", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KeyFromURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("key: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
