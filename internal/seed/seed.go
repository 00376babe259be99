// Package seed loads the crawl budget, domain and seed URLs from a seed file.
//
// The file is line based:
//
//	<max nodes>
//	<domain, optionally with a scheme>
//	<seed url>
//	<seed url>
//	...
//
// Blank lines are ignored and every line is trimmed.
package seed

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrInvalidSeedConfig is wrapped by every load failure
var ErrInvalidSeedConfig = errors.New("invalid seed configuration")

// Config is the immutable input of a crawl
type Config struct {
	MaxNodes int
	Domain   string
	Seeds    []string
}

// Load reads and parses a seed file
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open seed file: %v", ErrInvalidSeedConfig, err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a seed configuration from r
func Parse(r io.Reader) (*Config, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read seed file: %v", ErrInvalidSeedConfig, err)
	}

	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: expected max nodes and domain lines, got %d lines", ErrInvalidSeedConfig, len(lines))
	}

	maxNodes, err := strconv.Atoi(lines[0])
	if err != nil {
		return nil, fmt.Errorf("%w: max nodes %q is not an integer", ErrInvalidSeedConfig, lines[0])
	}
	if maxNodes < 1 {
		return nil, fmt.Errorf("%w: max nodes must be >= 1, got %d", ErrInvalidSeedConfig, maxNodes)
	}

	domain := CleanDomain(lines[1])
	if domain == "" {
		return nil, fmt.Errorf("%w: domain %q is empty after cleaning", ErrInvalidSeedConfig, lines[1])
	}

	seeds := lines[2:]
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: no seed URLs", ErrInvalidSeedConfig)
	}

	return &Config{
		MaxNodes: maxNodes,
		Domain:   domain,
		Seeds:    seeds,
	}, nil
}

// CleanDomain strips a scheme, any path and a leading "www." from a domain line
func CleanDomain(raw string) string {
	domain := strings.ToLower(strings.TrimSpace(raw))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.SplitN(domain, "/", 2)[0]
	return strings.TrimPrefix(domain, "www.")
}
