package parse

import (
	"net"
	"net/url"
	"strings"
)

// NormalizeURL standardizes a configured URL so it can be used as a prefix for joined paths.
// It lowercases the scheme and host, removes default ports (80 for http, 443 for https),
// removes fragments and query strings and drops any trailing slash, including the root "/".
// Does not modify the input *url.URL
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	normalized := *u

	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)

	if host, port, err := net.SplitHostPort(normalized.Host); err == nil {
		if (normalized.Scheme == "http" && port == "80") ||
			(normalized.Scheme == "https" && port == "443") {
			normalized.Host = host
		}
	}

	normalized.Path = strings.TrimRight(normalized.Path, "/")
	normalized.RawPath = ""
	normalized.Fragment = ""
	normalized.RawQuery = ""
	normalized.ForceQuery = false

	return normalized.String()
}

// ParseAndNormalize parses a URL string using the stricter url.ParseRequestURI (requiring a scheme) and then normalizes it using NormalizeURL
// Returns the normalized string, the parsed URL object, and any parse error
func ParseAndNormalize(urlStr string) (string, *url.URL, error) {
	parsed, err := url.ParseRequestURI(urlStr)
	if err != nil {
		return "", nil, err
	}
	return NormalizeURL(parsed), parsed, nil
}
