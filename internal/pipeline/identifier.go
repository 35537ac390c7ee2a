package pipeline

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// NormalizeIdentifier turns user-entered URL text into the stable identifier
// used for fetching and for annotation keys: surrounding space is trimmed,
// a missing scheme defaults to https, scheme and host are lower-cased and
// the fragment is dropped.
func NormalizeIdentifier(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.New("URL is empty")
	}
	if !hasScheme(s) {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL %q has no host", raw)
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// hasScheme reports whether s starts with "<scheme>://". "host:port/path"
// and URLs embedded in a query do not count.
func hasScheme(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(u.Scheme)+"://")
}
