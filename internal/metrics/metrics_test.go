package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alvmarrod/page-weaver/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Counters(t *testing.T) {
	tracker := NewTracker("run-1")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.IncrementNodesVisited()
			tracker.AddLinksAdmitted(3)
			tracker.AddEdgesRecorded(2)
			tracker.IncrementPagesFetched()
		}()
	}
	wg.Wait()

	tracker.IncrementPagesFailed()
	tracker.IncrementPagesNotHTML()
	tracker.RecordFetchTime(100 * time.Millisecond)
	tracker.RecordFetchTime(300 * time.Millisecond)

	snap := tracker.GetSnapshot()
	assert.Equal(t, "run-1", snap.RunID)
	assert.Equal(t, 10, snap.NodesVisited)
	assert.Equal(t, 30, snap.LinksAdmitted)
	assert.Equal(t, 20, snap.EdgesRecorded)
	assert.Equal(t, 10, snap.PagesFetched)
	assert.Equal(t, 1, snap.PagesFailed)
	assert.Equal(t, 1, snap.PagesNotHTML)
	assert.Equal(t, int64(400), snap.TotalFetchTimeMs)
	assert.Equal(t, int64(200), snap.AvgFetchTimeMs)

	assert.Contains(t, tracker.LogProgress(), "Nodes: 10 visited, 30 admitted")
}

func TestTracker_WriteToFile(t *testing.T) {
	tracker := NewTracker("run-1")
	tracker.IncrementNodesVisited()

	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, tracker.WriteToFile(path, "budget_reached"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got storage.Metrics
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 1, got.NodesVisited)
	assert.Equal(t, "budget_reached", got.TerminationReason)
	assert.False(t, got.EndTime.Before(got.StartTime))
	assert.Contains(t, string(data), `"pages_not_html": 0`)

	assert.Error(t, tracker.WriteToFile(filepath.Join(t.TempDir(), "no", "such", "dir.json"), "x"))
}
