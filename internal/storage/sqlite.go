package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Storage handles all database operations
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new Storage instance, opening/creating the DB and initializing schema
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storage := &Storage{db: db}

	// Initialize schema
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates tables and indices if they don't exist
func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		max_nodes INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		nodes_visited INTEGER DEFAULT 0,
		termination_reason TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS nodes (
		node_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		url TEXT NOT NULL,
		visited INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (run_id) REFERENCES runs(run_id),
		UNIQUE(run_id, url)
	);

	CREATE TABLE IF NOT EXISTS edges (
		edge_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		from_node_id INTEGER NOT NULL,
		to_node_id INTEGER NOT NULL,
		weight INTEGER DEFAULT 1,
		FOREIGN KEY (run_id) REFERENCES runs(run_id),
		FOREIGN KEY (from_node_id) REFERENCES nodes(node_id),
		FOREIGN KEY (to_node_id) REFERENCES nodes(node_id),
		UNIQUE(run_id, from_node_id, to_node_id)
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_run ON nodes(run_id);
	CREATE INDEX IF NOT EXISTS idx_edges_run ON edges(run_id);
	CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_node_id);
	CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_node_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun registers a new crawl run
func (s *Storage) CreateRun(run Run) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, domain, max_nodes, started_at)
		VALUES (?, ?, ?, ?)
	`, run.RunID, run.Domain, run.MaxNodes, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a crawl run
func (s *Storage) FinishRun(run Run) error {
	res, err := s.db.Exec(`
		UPDATE runs SET finished_at = ?, nodes_visited = ?, termination_reason = ?
		WHERE run_id = ?
	`, run.FinishedAt, run.NodesVisited, run.TerminationReason, run.RunID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to finish run: run %s not found", run.RunID)
	}
	return nil
}

// GetRun retrieves a run by ID, returns nil if not found
func (s *Storage) GetRun(runID string) (*Run, error) {
	var run Run
	var finishedAt sql.NullTime
	err := s.db.QueryRow(`
		SELECT run_id, domain, max_nodes, started_at, finished_at, nodes_visited, termination_reason
		FROM runs
		WHERE run_id = ?
	`, runID).Scan(&run.RunID, &run.Domain, &run.MaxNodes, &run.StartedAt, &finishedAt,
		&run.NodesVisited, &run.TerminationReason)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return &run, nil
}

// LatestRun returns the most recently started run, nil if there is none
func (s *Storage) LatestRun() (*Run, error) {
	var runID string
	err := s.db.QueryRow("SELECT run_id FROM runs ORDER BY started_at DESC LIMIT 1").Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return s.GetRun(runID)
}

// UpsertNode inserts a node for the run, or raises its visited flag if it exists.
// Returns the node_id of the inserted/existing node
func (s *Storage) UpsertNode(runID, url string, visited bool) (int, error) {
	_, err := s.db.Exec(`
		INSERT INTO nodes (run_id, url, visited)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id, url) DO UPDATE SET
			visited = MAX(nodes.visited, EXCLUDED.visited)
	`, runID, url, visited)

	if err != nil {
		return 0, fmt.Errorf("failed to upsert node: %w", err)
	}

	// Get the node_id
	var nodeID int
	err = s.db.QueryRow("SELECT node_id FROM nodes WHERE run_id = ? AND url = ?", runID, url).Scan(&nodeID)
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve node_id: %w", err)
	}

	return nodeID, nil
}

// UpsertEdge inserts a new edge or adds weight to an existing one
func (s *Storage) UpsertEdge(runID string, fromID, toID, weight int) error {
	_, err := s.db.Exec(`
		INSERT INTO edges (run_id, from_node_id, to_node_id, weight)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, from_node_id, to_node_id) DO UPDATE SET
			weight = weight + EXCLUDED.weight
	`, runID, fromID, toID, weight)

	if err != nil {
		return fmt.Errorf("failed to upsert edge: %w", err)
	}
	return nil
}

// LoadNodes returns every node stored for a run
func (s *Storage) LoadNodes(runID string) ([]*Node, error) {
	rows, err := s.db.Query(`
		SELECT node_id, url, visited, created_at
		FROM nodes
		WHERE run_id = ?
		ORDER BY node_id ASC
	`, runID)

	if err != nil {
		return nil, fmt.Errorf("failed to load nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		var node Node
		if err := rows.Scan(&node.NodeID, &node.URL, &node.Visited, &node.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, &node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	return nodes, nil
}

// LoadEdges returns every edge stored for a run
func (s *Storage) LoadEdges(runID string) ([]*Edge, error) {
	rows, err := s.db.Query(`
		SELECT edge_id, from_node_id, to_node_id, weight
		FROM edges
		WHERE run_id = ?
		ORDER BY edge_id ASC
	`, runID)

	if err != nil {
		return nil, fmt.Errorf("failed to load edges: %w", err)
	}
	defer rows.Close()

	var edges []*Edge
	for rows.Next() {
		var edge Edge
		if err := rows.Scan(&edge.EdgeID, &edge.FromNodeID, &edge.ToNodeID, &edge.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, &edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	return edges, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
