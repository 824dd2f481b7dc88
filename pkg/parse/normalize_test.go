package parse

import (
	"net/url"
	"testing"
)

func TestNormalizeURL_NilInput(t *testing.T) {
	result := NormalizeURL(nil)
	if result != "" {
		t.Errorf("NormalizeURL(nil) = %q, want empty string", result)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"UppercaseSchemeAndHost", "HTTPS://ExRx.NET/Lists", "https://exrx.net/Lists"},
		{"HTTPSPort443Removed", "https://exrx.net:443/Lists", "https://exrx.net/Lists"},
		{"HTTPPort80Removed", "http://exrx.net:80", "http://exrx.net"},
		{"HTTPSPort8443Kept", "https://exrx.net:8443", "https://exrx.net:8443"},
		{"RootSlashRemoved", "https://exrx.net/", "https://exrx.net"},
		{"DeepTrailingSlashRemoved", "https://exrx.net/Lists/", "https://exrx.net/Lists"},
		{"FragmentAndQueryRemoved", "https://exrx.net/Lists/Directory?x=1#top", "https://exrx.net/Lists/Directory"},
		{"PathCasePreserved", "https://exrx.net/WeightExercises", "https://exrx.net/WeightExercises"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := url.Parse(tt.input)
			if err != nil {
				t.Fatalf("url.Parse(%q) failed: %v", tt.input, err)
			}
			result := NormalizeURL(parsed)
			if result != tt.expected {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeURL_DoesNotModifyInput(t *testing.T) {
	input := "HTTPS://EXRX.NET:443/Lists/?q=1#frag"
	parsed, _ := url.Parse(input)
	originalString := parsed.String()

	_ = NormalizeURL(parsed)

	if parsed.String() != originalString {
		t.Errorf("NormalizeURL modified input: got %q, want %q", parsed.String(), originalString)
	}
}

func TestParseAndNormalize(t *testing.T) {
	normalized, parsed, err := ParseAndNormalize("https://EXRX.net/Lists/")
	if err != nil {
		t.Fatalf("ParseAndNormalize() unexpected error: %v", err)
	}
	if normalized != "https://exrx.net/Lists" {
		t.Errorf("ParseAndNormalize() normalized = %q, want %q", normalized, "https://exrx.net/Lists")
	}
	if parsed == nil || parsed.Host != "EXRX.net" {
		t.Errorf("ParseAndNormalize() should return the unmodified parsed URL, got %v", parsed)
	}
}

func TestParseAndNormalize_InvalidURLs(t *testing.T) {
	for _, input := range []string{"", "exrx.net", "://missing-scheme"} {
		t.Run(input, func(t *testing.T) {
			_, _, err := ParseAndNormalize(input)
			if err == nil {
				t.Errorf("ParseAndNormalize(%q) expected error, got nil", input)
			}
		})
	}
}
