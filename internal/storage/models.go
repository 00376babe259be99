package storage

import "time"

// Node represents a page in the crawl graph
type Node struct {
	NodeID    int
	URL       string
	Visited   bool
	CreatedAt time.Time
}

// Edge represents a directed link between two nodes
type Edge struct {
	EdgeID     int
	FromNodeID int
	ToNodeID   int
	Weight     int
}

// Run describes one crawl and owns its nodes and edges
type Run struct {
	RunID             string
	Domain            string
	MaxNodes          int
	StartedAt         time.Time
	FinishedAt        time.Time
	NodesVisited      int
	TerminationReason string
}

// Metrics tracks crawl statistics for export on exit
type Metrics struct {
	RunID             string    `json:"run_id"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	NodesVisited      int       `json:"nodes_visited"`
	LinksAdmitted     int       `json:"links_admitted"`
	EdgesRecorded     int       `json:"edges_recorded"`
	PagesFetched      int       `json:"pages_fetched"`
	PagesFailed       int       `json:"pages_failed"`
	PagesNotHTML      int       `json:"pages_not_html"`
	TotalFetchTimeMs  int64     `json:"total_fetch_time_ms"`
	AvgFetchTimeMs    int64     `json:"avg_fetch_time_ms"`
	TerminationReason string    `json:"termination_reason"`
}
