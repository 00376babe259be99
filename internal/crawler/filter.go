package crawler

import (
	"net"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Blocked extensions (documents, images, scripts, styles, media)
var blockedExtPattern = regexp.MustCompile(`(?i)\.(pdf|jpe?g|png|gif|css|js|svg|ico|mp4|webp)$`)

// Page-like suffixes; a path without any extension also counts
var pageExtPattern = regexp.MustCompile(`(?i)\.html?$`)

// Scope restricts a crawl to a single domain over http(s)
type Scope struct {
	Domain string
}

// NewScope builds a Scope from a bare domain, lower-casing it and stripping "www." and any port
func NewScope(domain string) Scope {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if host, _, err := net.SplitHostPort(domain); err == nil {
		domain = host
	}
	return Scope{Domain: stripWWW(domain)}
}

// IsEligible reports whether u may be fetched within this scope
func (s Scope) IsEligible(u NormalizedURL) bool {
	if !u.Valid() {
		return false
	}

	parsed, err := url.Parse(string(u))
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	if stripWWW(strings.ToLower(parsed.Hostname())) != s.Domain {
		return false
	}

	return !blockedExtPattern.MatchString(parsed.Path)
}

// IsPageLike reports whether u looks like an HTML document.
// Only page-like targets are recorded as edges.
func IsPageLike(u NormalizedURL) bool {
	if !u.Valid() {
		return false
	}

	parsed, err := url.Parse(string(u))
	if err != nil {
		return false
	}

	p := parsed.Path
	if p == "" || strings.HasSuffix(p, "/") {
		return true
	}

	if pageExtPattern.MatchString(p) {
		return true
	}

	// No extension segment at all
	return path.Ext(path.Base(p)) == ""
}

// ExtractDomain extracts the lower-cased hostname from a URL string
func ExtractDomain(urlStr string) (string, error) {
	// Handle protocol-relative URLs
	if strings.HasPrefix(urlStr, "//") {
		urlStr = "https:" + urlStr
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	return strings.ToLower(parsed.Hostname()), nil
}
