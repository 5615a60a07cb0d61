package scraper

import (
	"errors"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare domain gets https", input: "example.com", want: "https://example.com"},
		{name: "https kept", input: "https://example.com", want: "https://example.com"},
		{name: "http kept", input: "http://example.com/path?q=1", want: "http://example.com/path?q=1"},
		{name: "uppercase scheme kept", input: "HTTPS://Example.com", want: "HTTPS://Example.com"},
		{name: "surrounding whitespace trimmed", input: "  example.com/about  ", want: "https://example.com/about"},
		{name: "localhost with port", input: "localhost:8080", want: "https://localhost:8080"},
		{name: "ip literal", input: "127.0.0.1:3000", want: "https://127.0.0.1:3000"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   \t", wantErr: true},
		{name: "single word", input: "not-a-url", wantErr: true},
		{name: "empty label", input: "example..com", wantErr: true},
		{name: "ftp scheme", input: "ftp://example.com", wantErr: true},
		{name: "no host", input: "https://", wantErr: true},
		{name: "invalid escape", input: "https://example.com/%zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got %q", tt.input, got)
				}
				if !errors.Is(err, ErrInvalidURL) {
					t.Errorf("Expected ErrInvalidURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
