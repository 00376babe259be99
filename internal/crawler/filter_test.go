package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewScope(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.com", NewScope("WWW.Example.com").Domain)
	assert.Equal(t, "example.com", NewScope(" example.com ").Domain)
	assert.Equal(t, "127.0.0.1", NewScope("127.0.0.1:8080").Domain)
}

func TestScope_IsEligible(t *testing.T) {
	t.Parallel()

	scope := NewScope("www.example.com")

	tests := []struct {
		url  NormalizedURL
		want bool
	}{
		{"http://example.com", true},
		{"https://example.com/a", true},
		{"https://example.com/a.html", true},
		{"http://www.example.com/a", true},
		{"http://example.com:8080/x", true},
		{"http://example.com/data.json", true},
		{"http://example.com/file.pdf", false},
		{"http://example.com/file.PDF", false},
		{"http://example.com/img.JpEg", false},
		{"http://example.com/a/b.png", false},
		{"http://example.com/style.css", false},
		{"http://example.com/app.js", false},
		{"http://example.com/movie.mp4", false},
		{"http://example.com/icon.webp", false},
		{"ftp://example.com/a", false},
		{"http://other.com/a", false},
		{"http://sub.example.com/a", false},
		{InvalidURL, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, scope.IsEligible(tt.url), "url %q", tt.url)
	}
}

func TestIsPageLike(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  NormalizedURL
		want bool
	}{
		{"http://example.com", true},
		{"http://example.com/about", true},
		{"http://example.com/dir/", true},
		{"http://example.com/index.html", true},
		{"http://example.com/INDEX.HTM", true},
		{"http://example.com/v1.2/page", true},
		{"http://example.com/a.php", false},
		{"http://example.com/file.pdf", false},
		{"http://example.com/feed.xml", false},
		{InvalidURL, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPageLike(tt.url), "url %q", tt.url)
	}
}

func TestExtractDomain(t *testing.T) {
	t.Parallel()

	domain, err := ExtractDomain("https://WWW.Example.com:443/a")
	assert.NoError(t, err)
	assert.Equal(t, "www.example.com", domain)

	domain, err = ExtractDomain("//cdn.example.com/x")
	assert.NoError(t, err)
	assert.Equal(t, "cdn.example.com", domain)

	_, err = ExtractDomain("http://[::1")
	assert.Error(t, err)
}
