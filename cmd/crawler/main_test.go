package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alvmarrod/page-weaver/internal/storage"
	"github.com/alvmarrod/page-weaver/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"/":      `<a href="/a">a</a> <a href="/b/">b</a> <a href="/logo.png">logo</a> <a href="https://elsewhere.org/">x</a>`,
		"/a":     `<a href="/">home</a> <a href="/c">c</a>`,
		"/b":     `<a href="/a">a</a>`,
		"/c":     `no links`,
		"/b/":    `<a href="/a">a</a>`,
		"/files": `<a href="/report.pdf">report</a>`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "<html><body>%s</body></html>", body)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"crawl", "export", "version"})
	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "weaver v"+version.Version+"\n", out)
}

func TestCrawlCmd_RequiresSeeds(t *testing.T) {
	_, err := execute(t, "crawl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seeds")
}

func TestCrawlCmd_InvalidSeedFile(t *testing.T) {
	dir := t.TempDir()
	seeds := writeFile(t, dir, "seeds.txt", "zero\nexample.com\n")

	_, err := execute(t, "crawl", "--seeds", seeds, "--db", filepath.Join(dir, "crawler.db"))
	assert.Error(t, err)
}

func TestCrawlCmd_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	seeds := writeFile(t, dir, "seeds.txt", "5\nexample.com\nhttp://example.com\n")

	_, err := execute(t, "crawl", "--seeds", seeds, "--workers", "-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestExportCmd_MissingRun(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "crawler.db")
	out := filepath.Join(dir, "out.gml")

	_, err := execute(t, "export", "--db", db, "--run", "does-not-exist", "--out", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = execute(t, "export", "--db", db, "--out", out)
	assert.Error(t, err)
	assert.NoFileExists(t, out)
}

func TestCrawlAndExport(t *testing.T) {
	server := newSite(t)
	dir := t.TempDir()

	seeds := writeFile(t, dir, "seeds.txt", fmt.Sprintf("10\n%s\n%s/\n", server.URL, server.URL))
	cfgPath := writeFile(t, dir, "config.json", `{"download_delay_ms": 0, "request_timeout_ms": 5000, "concurrent_workers": 3}`)
	db := filepath.Join(dir, "crawler.db")
	graph := filepath.Join(dir, "crawl.gml")
	metricsPath := filepath.Join(dir, "metrics.json")

	_, err := execute(t, "crawl",
		"--seeds", seeds,
		"--config", cfgPath,
		"--db", db,
		"--graph", graph,
		"--metrics", metricsPath,
	)
	require.NoError(t, err)

	gml, err := os.ReadFile(graph)
	require.NoError(t, err)
	for _, p := range []string{"", "/a", "/b", "/c"} {
		assert.Contains(t, string(gml), fmt.Sprintf("label %q", server.URL+p))
	}
	assert.NotContains(t, string(gml), "logo.png")
	assert.NotContains(t, string(gml), "elsewhere.org")
	assert.Equal(t, 4, strings.Count(string(gml), "visited 1"))

	raw, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	var m storage.Metrics
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, 4, m.NodesVisited)
	assert.Equal(t, "frontier_empty", m.TerminationReason)
	assert.NotEmpty(t, m.RunID)

	store, err := storage.NewStorage(db)
	require.NoError(t, err)
	run, err := store.GetRun(m.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 4, run.NodesVisited)
	assert.Equal(t, "frontier_empty", run.TerminationReason)
	require.NoError(t, store.Close())

	exported := filepath.Join(dir, "export.gml")
	_, err = execute(t, "export", "--db", db, "--run", m.RunID, "--out", exported)
	require.NoError(t, err)

	again, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Equal(t, string(gml), string(again))
}
