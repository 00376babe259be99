package crawler

import (
	"net/url"
	"strings"
)

// NormalizedURL is the canonical comparison key for a crawled page:
// scheme://host/path with query, fragment and trailing slashes removed
type NormalizedURL string

// InvalidURL is returned by Normalize for input that cannot be turned into a key
const InvalidURL NormalizedURL = ""

// Valid reports whether u is a usable key
func (u NormalizedURL) Valid() bool {
	return u != InvalidURL
}

// String returns the key as a plain string
func (u NormalizedURL) String() string {
	return string(u)
}

// Normalize resolves rawURL against baseURL (if given) and reduces it to a NormalizedURL.
// Returns InvalidURL when either URL fails to parse or the result has no scheme or host.
func Normalize(rawURL, baseURL string) NormalizedURL {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" && baseURL == "" {
		return InvalidURL
	}

	ref, err := url.Parse(rawURL)
	if err != nil {
		return InvalidURL
	}

	if baseURL != "" && !ref.IsAbs() {
		base, err := url.Parse(baseURL)
		if err != nil {
			return InvalidURL
		}
		ref = base.ResolveReference(ref)
	}

	scheme := strings.ToLower(ref.Scheme)
	host := stripWWW(strings.ToLower(ref.Host))
	if scheme == "" || host == "" {
		return InvalidURL
	}

	path := strings.TrimRight(ref.EscapedPath(), "/")

	return NormalizedURL(scheme + "://" + host + path)
}

// stripWWW removes leading "www." labels from a host.
// All of them go so that Normalize stays idempotent on hosts like www.www.example.com.
func stripWWW(host string) string {
	for strings.HasPrefix(host, "www.") {
		host = host[len("www."):]
	}
	return host
}
