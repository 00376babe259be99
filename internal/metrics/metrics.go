package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/alvmarrod/page-weaver/internal/storage"
)

// Tracker holds and manages crawl metrics
type Tracker struct {
	mu               sync.Mutex
	data             storage.Metrics
	totalFetchTimeMs int64
	fetchCount       int
}

// NewTracker creates a new metrics tracker
func NewTracker(runID string) *Tracker {
	return &Tracker{
		data: storage.Metrics{
			RunID:     runID,
			StartTime: time.Now(),
		},
	}
}

// IncrementNodesVisited increments the visited nodes counter
func (t *Tracker) IncrementNodesVisited() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.NodesVisited++
}

// AddLinksAdmitted adds to the frontier admissions counter
func (t *Tracker) AddLinksAdmitted(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.LinksAdmitted += n
}

// AddEdgesRecorded adds to the edges counter
func (t *Tracker) AddEdgesRecorded(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.EdgesRecorded += n
}

// IncrementPagesFetched increments the successful fetch counter
func (t *Tracker) IncrementPagesFetched() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.PagesFetched++
}

// IncrementPagesFailed increments the failed fetch counter
func (t *Tracker) IncrementPagesFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.PagesFailed++
}

// IncrementPagesNotHTML counts fetches dropped for their content type
func (t *Tracker) IncrementPagesNotHTML() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.PagesNotHTML++
}

// RecordFetchTime records a page fetch duration
func (t *Tracker) RecordFetchTime(duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalFetchTimeMs += duration.Milliseconds()
	t.fetchCount++
}

// GetSnapshot returns a copy of current metrics
func (t *Tracker) GetSnapshot() storage.Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := t.data
	snapshot.TotalFetchTimeMs = t.totalFetchTimeMs

	// Calculate average fetch time
	if t.fetchCount > 0 {
		snapshot.AvgFetchTimeMs = t.totalFetchTimeMs / int64(t.fetchCount)
	}

	return snapshot
}

// WriteToFile exports metrics to a JSON file
func (t *Tracker) WriteToFile(path, reason string) error {
	t.mu.Lock()
	t.data.EndTime = time.Now()
	t.data.TerminationReason = reason
	t.mu.Unlock()

	jsonData, err := json.MarshalIndent(t.GetSnapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}

	return nil
}

// LogProgress formats current metrics for periodic console updates
func (t *Tracker) LogProgress() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return fmt.Sprintf("Nodes: %d visited, %d admitted | Edges: %d | Pages: %d fetched, %d failed, %d non-HTML",
		t.data.NodesVisited,
		t.data.LinksAdmitted,
		t.data.EdgesRecorded,
		t.data.PagesFetched,
		t.data.PagesFailed,
		t.data.PagesNotHTML,
	)
}
