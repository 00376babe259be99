// Package export writes crawled link graphs in interchange formats.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alvmarrod/page-weaver/internal/memory"
)

// WriteGML writes snap as a directed GML graph. Each node is labelled with its URL;
// node ids follow the order of snap.Nodes.
func WriteGML(w io.Writer, snap memory.Snapshot) error {
	bw := bufio.NewWriter(w)

	ids := make(map[string]int, len(snap.Nodes))
	visited := make(map[string]bool, len(snap.Visited))
	for _, url := range snap.Visited {
		visited[url] = true
	}

	fmt.Fprintln(bw, "graph [")
	fmt.Fprintln(bw, "  directed 1")

	for i, url := range snap.Nodes {
		ids[url] = i
		fmt.Fprintln(bw, "  node [")
		fmt.Fprintf(bw, "    id %d\n", i)
		fmt.Fprintf(bw, "    label %s\n", quoteGML(url))
		fmt.Fprintf(bw, "    visited %d\n", boolToInt(visited[url]))
		fmt.Fprintln(bw, "  ]")
	}

	for _, edge := range snap.Edges {
		src, ok := ids[edge.Source]
		if !ok {
			return fmt.Errorf("edge source %s is not a node", edge.Source)
		}
		dst, ok := ids[edge.Target]
		if !ok {
			return fmt.Errorf("edge target %s is not a node", edge.Target)
		}
		fmt.Fprintln(bw, "  edge [")
		fmt.Fprintf(bw, "    source %d\n", src)
		fmt.Fprintf(bw, "    target %d\n", dst)
		fmt.Fprintln(bw, "  ]")
	}

	fmt.Fprintln(bw, "]")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write GML: %w", err)
	}
	return nil
}

// WriteGMLFile writes snap to path, replacing any existing file
func WriteGMLFile(path string, snap memory.Snapshot) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create graph file: %w", err)
	}

	if err := WriteGML(file, snap); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// GML strings cannot contain raw quotes or ampersands; both become character entities
func quoteGML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return `"` + s + `"`
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
