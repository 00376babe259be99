// Package main provides the entry point for the Page Weaver CLI.
//
// Page Weaver crawls a bounded part of one domain from a seed file and
// records the link graph between its pages.
//
// Usage:
//
//	weaver crawl --seeds seeds.txt [--config config.json] [--graph out.gml]
//	weaver export --db crawler.db --run <run-id> --out graph.gml
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
