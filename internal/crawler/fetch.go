package crawler

import "context"

// FetchResult is what a Fetcher reports for one URL
type FetchResult struct {
	// URL is the final URL after redirects, empty if unknown
	URL         string
	StatusCode  int
	ContentType string
	IsHTML      bool
	// Links holds the raw href values found in the page
	Links []string
}

// Fetcher retrieves one page and extracts its links.
// Network errors, timeouts and non-2xx statuses are returned as errors.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, url string) (*FetchResult, error)

// Fetch calls f
func (f FetcherFunc) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	return f(ctx, url)
}
