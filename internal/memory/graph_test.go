package memory

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/alvmarrod/page-weaver/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkGraph_UpsertNode(t *testing.T) {
	g := NewLinkGraph()

	id := g.UpsertNode("http://example.com")
	assert.Equal(t, id, g.UpsertNode("http://example.com"))
	assert.NotEqual(t, id, g.UpsertNode("http://example.com/a"))

	node := g.GetNode("http://example.com")
	require.NotNil(t, node)
	assert.False(t, node.Visited)

	// GetNode hands out copies
	node.Visited = true
	assert.False(t, g.GetNode("http://example.com").Visited)

	assert.Nil(t, g.GetNode("http://example.com/missing"))
}

func TestLinkGraph_MarkVisited(t *testing.T) {
	g := NewLinkGraph()

	id := g.UpsertNode("http://example.com")
	assert.Equal(t, id, g.MarkVisited("http://example.com"))
	assert.True(t, g.GetNode("http://example.com").Visited)

	g.MarkVisited("http://example.com/new")
	assert.True(t, g.GetNode("http://example.com/new").Visited)
}

func TestLinkGraph_UpsertEdge(t *testing.T) {
	g := NewLinkGraph()

	assert.True(t, g.UpsertEdge("http://example.com", "http://example.com/a"))
	assert.False(t, g.UpsertEdge("http://example.com", "http://example.com/a"))
	assert.True(t, g.UpsertEdge("http://example.com/a", "http://example.com"))

	assert.Equal(t, 2, g.EdgeWeight("http://example.com", "http://example.com/a"))
	assert.Equal(t, 1, g.EdgeWeight("http://example.com/a", "http://example.com"))
	assert.Zero(t, g.EdgeWeight("http://example.com", "http://example.com/b"))
	assert.False(t, g.HasEdge("http://example.com/b", "http://example.com"))

	nodes, edges := g.GetStats()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 2, edges)
}

func TestLinkGraph_Snapshot(t *testing.T) {
	g := NewLinkGraph()
	g.MarkVisited("http://example.com")
	g.UpsertEdge("http://example.com", "http://example.com/z")
	g.UpsertEdge("http://example.com", "http://example.com/b")
	g.MarkVisited("http://example.com/b")
	g.UpsertEdge("http://example.com/b", "http://example.com")

	snap := g.Snapshot()

	assert.Equal(t, []string{
		"http://example.com",
		"http://example.com/b",
		"http://example.com/z",
	}, snap.Nodes)
	assert.Equal(t, []string{"http://example.com", "http://example.com/b"}, snap.Visited)
	assert.Equal(t, []Edge{
		{Source: "http://example.com", Target: "http://example.com/b"},
		{Source: "http://example.com", Target: "http://example.com/z"},
		{Source: "http://example.com/b", Target: "http://example.com"},
	}, snap.Edges)
}

func TestLinkGraph_FlushAndLoad(t *testing.T) {
	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.CreateRun(storage.Run{
		RunID:     "run-1",
		Domain:    "example.com",
		MaxNodes:  5,
		StartedAt: time.Now(),
	}))

	g := NewLinkGraph()
	g.MarkVisited("http://example.com")
	g.UpsertEdge("http://example.com", "http://example.com/a")
	g.UpsertEdge("http://example.com", "http://example.com/a")
	g.UpsertEdge("http://example.com", "http://example.com/b")

	require.NoError(t, g.Flush(store, "run-1"))

	loaded, err := LoadFromStorage(store, "run-1")
	require.NoError(t, err)

	assert.Equal(t, g.Snapshot(), loaded.Snapshot())
	assert.Equal(t, 2, loaded.EdgeWeight("http://example.com", "http://example.com/a"))

	// New nodes after a reload do not collide with stored IDs
	before, _ := loaded.GetStats()
	loaded.UpsertNode("http://example.com/c")
	after, _ := loaded.GetStats()
	assert.Equal(t, before+1, after)
}

func TestLinkGraph_FlushUnknownRun(t *testing.T) {
	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	defer store.Close()

	g := NewLinkGraph()
	g.UpsertEdge("http://example.com", "http://example.com/a")

	// Foreign keys reject every node; all failures are reported together
	err = g.Flush(store, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors occurred")
}
