package crawler

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alvmarrod/page-weaver/internal/memory"
	"github.com/sirupsen/logrus"
)

// Entry is a frontier URL together with its link depth from the seeds
type Entry struct {
	URL   NormalizedURL
	Depth int
}

// ClaimStatus tells the controller what to do after a Claim
type ClaimStatus int

const (
	// Claimed means an entry was handed out and is now in flight
	Claimed ClaimStatus = iota
	// Wait means every frontier entry is in flight
	Wait
	// Done means the frontier is empty and the crawl is over
	Done
)

// State is the single authority over frontier, visited set, dropped set and link graph.
// One mutex serializes every mutation.
type State struct {
	mu       sync.Mutex
	maxNodes int
	scope    Scope

	frontier map[NormalizedURL]int // url -> depth
	pending  []NormalizedURL       // FIFO of frontier URLs not yet claimed
	inFlight map[NormalizedURL]bool
	visited  map[NormalizedURL]bool
	dropped  map[NormalizedURL]bool

	graph *memory.LinkGraph
}

// VisitStats summarizes what a single Visit changed
type VisitStats struct {
	Visited  bool
	Admitted int
	Edges    int
}

// NewState creates an empty crawl state with a fixed budget and scope
func NewState(maxNodes int, scope Scope) *State {
	return &State{
		maxNodes: maxNodes,
		scope:    scope,
		frontier: make(map[NormalizedURL]int),
		inFlight: make(map[NormalizedURL]bool),
		visited:  make(map[NormalizedURL]bool),
		dropped:  make(map[NormalizedURL]bool),
		graph:    memory.NewLinkGraph(),
	}
}

// TryAdmitToFrontier adds url to the frontier at the given depth.
// Returns false if the url is known, out of scope or the budget is used up.
func (s *State) TryAdmitToFrontier(url NormalizedURL, depth int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tryAdmitLocked(url, depth)
}

// MarkVisited moves url from the frontier into the visited set and the graph.
// Returns false (or panics in crawldebug builds) when url is not in the frontier.
func (s *State) MarkVisited(url NormalizedURL) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markVisitedLocked(url)
}

// RecordEdge adds source -> target to the graph when target is page-like
func (s *State) RecordEdge(source, target NormalizedURL) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordEdgeLocked(source, target)
}

// Drop removes a fetched url that failed or was not HTML.
// It can never be admitted again and its budget slot is not given back.
func (s *State) Drop(url NormalizedURL) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.frontier[url]; !ok {
		logrus.Warnf("Drop called for %s which is not in the frontier", url)
		return
	}

	delete(s.frontier, url)
	delete(s.inFlight, url)
	s.dropped[url] = true
}

// Visit absorbs one fetched page: marks it visited, then admits and records its links.
// Everything happens under a single lock hold so admissions from concurrent pages
// cannot interleave. links must already be normalized and in scope.
func (s *State) Visit(current Entry, links []NormalizedURL, admit bool) VisitStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats VisitStats
	if !s.markVisitedLocked(current.URL) {
		return stats
	}
	stats.Visited = true

	for _, link := range links {
		if admit && s.tryAdmitLocked(link, current.Depth+1) {
			stats.Admitted++
		}
		if s.recordEdgeLocked(current.URL, link) {
			stats.Edges++
		}
	}

	return stats
}

// Claim hands out the oldest unclaimed frontier entry
func (s *State) Claim() (Entry, ClaimStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frontier) == 0 || len(s.visited) >= s.maxNodes {
		return Entry{}, Done
	}

	for len(s.pending) > 0 {
		url := s.pending[0]
		s.pending = s.pending[1:]

		depth, ok := s.frontier[url]
		if !ok || s.inFlight[url] {
			continue
		}

		s.inFlight[url] = true
		return Entry{URL: url, Depth: depth}, Claimed
	}

	return Entry{}, Wait
}

func (s *State) tryAdmitLocked(url NormalizedURL, depth int) bool {
	if !s.scope.IsEligible(url) {
		return false
	}
	if s.visited[url] || s.dropped[url] {
		return false
	}
	if _, queued := s.frontier[url]; queued {
		return false
	}
	if len(s.visited)+len(s.frontier)+len(s.dropped) >= s.maxNodes {
		return false
	}

	s.frontier[url] = depth
	s.pending = append(s.pending, url)
	return true
}

func (s *State) markVisitedLocked(url NormalizedURL) bool {
	if _, ok := s.frontier[url]; !ok {
		preconditionFailed(fmt.Sprintf("markVisited: %s is not in the frontier", url))
		return false
	}
	if len(s.visited) >= s.maxNodes {
		preconditionFailed(fmt.Sprintf("markVisited: budget of %d already used", s.maxNodes))
		return false
	}

	delete(s.frontier, url)
	delete(s.inFlight, url)
	s.visited[url] = true
	s.graph.MarkVisited(string(url))
	return true
}

func (s *State) recordEdgeLocked(source, target NormalizedURL) bool {
	if !source.Valid() || !IsPageLike(target) {
		return false
	}
	s.graph.UpsertEdge(string(source), string(target))
	return true
}

// Visited returns the visited URLs, sorted
func (s *State) Visited() []NormalizedURL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.visited)
}

// Frontier returns the URLs still waiting in the frontier, sorted
func (s *State) Frontier() []NormalizedURL {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls := make([]NormalizedURL, 0, len(s.frontier))
	for url := range s.frontier {
		urls = append(urls, url)
	}
	sort.Slice(urls, func(i, j int) bool { return urls[i] < urls[j] })
	return urls
}

// Dropped returns the URLs that were fetched but discarded, sorted
func (s *State) Dropped() []NormalizedURL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.dropped)
}

// Counts returns the sizes of the visited set, frontier and dropped set
func (s *State) Counts() (visited, frontier, dropped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visited), len(s.frontier), len(s.dropped)
}

// InFlight returns how many claimed entries have not been resolved yet
func (s *State) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// MaxNodes returns the crawl budget
func (s *State) MaxNodes() int {
	return s.maxNodes
}

// Graph returns the link graph. Read it only after the crawl has finished.
func (s *State) Graph() *memory.LinkGraph {
	return s.graph
}

func sortedKeys(set map[NormalizedURL]bool) []NormalizedURL {
	urls := make([]NormalizedURL, 0, len(set))
	for url := range set {
		urls = append(urls, url)
	}
	sort.Slice(urls, func(i, j int) bool { return urls[i] < urls[j] })
	return urls
}
