package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alvmarrod/page-weaver/internal/storage"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

type edgeKey struct {
	from int
	to   int
}

// LinkGraph is the directed page graph built during a crawl.
// Nodes are keyed by normalized URL; edge weights count repeated links.
type LinkGraph struct {
	nodes       map[string]*storage.Node // url -> node
	nodesByID   map[int]*storage.Node    // nodeID -> node
	edges       map[edgeKey]int          // edge -> weight
	nodeCounter int                      // auto-increment for node IDs
	mu          sync.RWMutex
}

// Edge is a source/target pair in a Snapshot
type Edge struct {
	Source string
	Target string
}

// Snapshot is a read-only copy of the graph, sorted for stable output
type Snapshot struct {
	Nodes   []string
	Visited []string
	Edges   []Edge
}

// NewLinkGraph creates an empty graph
func NewLinkGraph() *LinkGraph {
	return &LinkGraph{
		nodes:     make(map[string]*storage.Node),
		nodesByID: make(map[int]*storage.Node),
		edges:     make(map[edgeKey]int),
	}
}

// upsertNodeLocked returns the node for url, creating it when missing. Caller holds mu.
func (g *LinkGraph) upsertNodeLocked(url string) *storage.Node {
	if node, exists := g.nodes[url]; exists {
		return node
	}

	g.nodeCounter++
	node := &storage.Node{
		NodeID:    g.nodeCounter,
		URL:       url,
		CreatedAt: time.Now(),
	}

	g.nodes[url] = node
	g.nodesByID[node.NodeID] = node
	return node
}

// UpsertNode inserts a node if missing and returns its ID
func (g *LinkGraph) UpsertNode(url string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.upsertNodeLocked(url).NodeID
}

// MarkVisited inserts the node if missing and flags it as visited
func (g *LinkGraph) MarkVisited(url string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	node := g.upsertNodeLocked(url)
	node.Visited = true
	return node.NodeID
}

// UpsertEdge records a link from -> to, creating missing endpoints.
// Returns true if the edge is new.
func (g *LinkGraph) UpsertEdge(from, to string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := edgeKey{
		from: g.upsertNodeLocked(from).NodeID,
		to:   g.upsertNodeLocked(to).NodeID,
	}
	g.edges[key]++
	return g.edges[key] == 1
}

// GetNode retrieves a node by URL, nil if not found
func (g *LinkGraph) GetNode(url string) *storage.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, exists := g.nodes[url]; exists {
		// Return a copy to prevent external modifications
		nodeCopy := *node
		return &nodeCopy
	}
	return nil
}

// HasEdge reports whether from -> to has been recorded
func (g *LinkGraph) HasEdge(from, to string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	src, ok := g.nodes[from]
	if !ok {
		return false
	}
	dst, ok := g.nodes[to]
	if !ok {
		return false
	}
	return g.edges[edgeKey{from: src.NodeID, to: dst.NodeID}] > 0
}

// EdgeWeight returns how many times from -> to was seen
func (g *LinkGraph) EdgeWeight(from, to string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	src, ok := g.nodes[from]
	if !ok {
		return 0
	}
	dst, ok := g.nodes[to]
	if !ok {
		return 0
	}
	return g.edges[edgeKey{from: src.NodeID, to: dst.NodeID}]
}

// GetStats returns current graph statistics
func (g *LinkGraph) GetStats() (nodeCount, edgeCount int) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes), len(g.edges)
}

// Snapshot copies the graph into sorted slices
func (g *LinkGraph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := Snapshot{
		Nodes: make([]string, 0, len(g.nodes)),
		Edges: make([]Edge, 0, len(g.edges)),
	}

	for url, node := range g.nodes {
		snap.Nodes = append(snap.Nodes, url)
		if node.Visited {
			snap.Visited = append(snap.Visited, url)
		}
	}

	for key := range g.edges {
		snap.Edges = append(snap.Edges, Edge{
			Source: g.nodesByID[key.from].URL,
			Target: g.nodesByID[key.to].URL,
		})
	}

	sort.Strings(snap.Nodes)
	sort.Strings(snap.Visited)
	sort.Slice(snap.Edges, func(i, j int) bool {
		if snap.Edges[i].Source != snap.Edges[j].Source {
			return snap.Edges[i].Source < snap.Edges[j].Source
		}
		return snap.Edges[i].Target < snap.Edges[j].Target
	})

	return snap
}

// Flush writes all in-memory data for a run to SQLite storage.
// Every failed write is collected; the flush keeps going past individual errors.
func (g *LinkGraph) Flush(store *storage.Storage, runID string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	startTime := time.Now()
	logrus.Info("Starting flush to database...")

	nodesWritten := 0
	edgesWritten := 0
	var result *multierror.Error

	// Flush nodes, mapping memory ID -> DB ID as we go
	idMap := make(map[int]int, len(g.nodes))
	for _, node := range g.nodes {
		dbID, err := store.UpsertNode(runID, node.URL, node.Visited)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("node %s: %w", node.URL, err))
			logrus.Warnf("Failed to flush node %s: %v", node.URL, err)
			continue
		}
		idMap[node.NodeID] = dbID
		nodesWritten++
	}

	// Write edges with mapped IDs
	for key, weight := range g.edges {
		dbFromID, fromExists := idMap[key.from]
		dbToID, toExists := idMap[key.to]

		if !fromExists || !toExists {
			logrus.Warnf("Skipping edge %d->%d: node ID mapping not found", key.from, key.to)
			continue
		}

		if err := store.UpsertEdge(runID, dbFromID, dbToID, weight); err != nil {
			result = multierror.Append(result, fmt.Errorf("edge %d->%d: %w", dbFromID, dbToID, err))
			logrus.Warnf("Failed to flush edge %d->%d: %v", dbFromID, dbToID, err)
			continue
		}

		edgesWritten++
	}

	duration := time.Since(startTime)
	logrus.Infof("Flush complete: %d nodes, %d edges written in %v", nodesWritten, edgesWritten, duration)

	return result.ErrorOrNil()
}

// LoadFromStorage rebuilds the graph of a stored run
func LoadFromStorage(store *storage.Storage, runID string) (*LinkGraph, error) {
	logrus.Infof("Loading run %s from database into memory...", runID)

	nodes, err := store.LoadNodes(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load nodes: %w", err)
	}

	edges, err := store.LoadEdges(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load edges: %w", err)
	}

	g := NewLinkGraph()
	for _, node := range nodes {
		// Use DB node ID directly
		g.nodes[node.URL] = node
		g.nodesByID[node.NodeID] = node

		// Update counter to avoid ID conflicts
		if node.NodeID > g.nodeCounter {
			g.nodeCounter = node.NodeID
		}
	}

	for _, edge := range edges {
		if g.nodesByID[edge.FromNodeID] == nil || g.nodesByID[edge.ToNodeID] == nil {
			return nil, fmt.Errorf("edge %d references unknown node", edge.EdgeID)
		}
		g.edges[edgeKey{from: edge.FromNodeID, to: edge.ToNodeID}] += edge.Weight
	}

	logrus.Infof("Loaded %d nodes and %d edges into memory", len(nodes), len(edges))
	return g, nil
}
