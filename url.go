package scraper

import (
	"net"
	"net/url"
	"strings"
)

// NormalizeURL turns user input into an absolute http(s) URL.
// Input without an http:// or https:// prefix gets https:// prepended.
// The host must be localhost, an IP literal or a dotted domain name.
func NormalizeURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", invalidURLError(nil)
	}

	lower := strings.ToLower(candidate)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		candidate = "https://" + candidate
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", invalidURLError(err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", invalidURLError(nil)
	}
	if parsed.Host == "" || !validHost(parsed.Hostname()) {
		return "", invalidURLError(nil)
	}

	return candidate, nil
}

func validHost(host string) bool {
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	if net.ParseIP(host) != nil {
		return true
	}
	if !strings.Contains(host, ".") {
		return false
	}
	for _, label := range strings.Split(strings.TrimSuffix(host, "."), ".") {
		if label == "" {
			return false
		}
	}
	return true
}
