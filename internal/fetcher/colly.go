// Package fetcher retrieves pages over HTTP with colly and reports their links.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alvmarrod/page-weaver/internal/crawler"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

// ErrStatus is wrapped when the server answers with a non-2xx status
var ErrStatus = errors.New("unexpected HTTP status")

// Config holds configuration for the colly fetcher
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// CollyFetcher fetches one URL per call with a fresh colly collector.
// It implements crawler.Fetcher.
type CollyFetcher struct {
	config Config
}

// New creates a colly fetcher, filling unset fields with defaults
func New(cfg Config) *CollyFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &CollyFetcher{config: cfg}
}

// Fetch retrieves targetURL and collects every a[href] in it when the response is HTML
func (f *CollyFetcher) Fetch(ctx context.Context, targetURL string) (*crawler.FetchResult, error) {
	result := &crawler.FetchResult{URL: targetURL}

	c := colly.NewCollector(
		colly.UserAgent(f.config.UserAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(f.config.Timeout)

	var fetchErr error

	// Handle successful response
	c.OnResponse(func(r *colly.Response) {
		result.URL = r.Request.URL.String()
		result.StatusCode = r.StatusCode
		result.ContentType = r.Headers.Get("Content-Type")
		result.IsHTML = IsHTMLContentType(result.ContentType)

		logrus.Debugf("Fetched %s (status=%d, content-type=%q, %d bytes)",
			result.URL, r.StatusCode, result.ContentType, len(r.Body))
	})

	// Extract links
	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" {
			return
		}
		result.Links = append(result.Links, link)
	})

	// Handle errors
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			result.StatusCode = r.StatusCode
			fetchErr = fmt.Errorf("%w %d: %v", ErrStatus, r.StatusCode, err)
			return
		}
		fetchErr = fmt.Errorf("fetch error: %w", err)
	})

	err := c.Visit(targetURL)
	if fetchErr != nil {
		return result, fetchErr
	}
	if err != nil {
		return result, fmt.Errorf("failed to visit %s: %w", targetURL, err)
	}

	return result, nil
}

// IsHTMLContentType reports whether a Content-Type header names an HTML document
func IsHTMLContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}
