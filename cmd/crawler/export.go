package main

import (
	"fmt"

	"github.com/alvmarrod/page-weaver/internal/export"
	"github.com/alvmarrod/page-weaver/internal/memory"
	"github.com/alvmarrod/page-weaver/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	dbPath  string
	runID   string
	outPath string
}

// NewExportCmd creates the export subcommand
func NewExportCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a stored crawl run as a GML graph",
		Long: `Export reloads the nodes and edges of a finished crawl run from the SQLite
database and writes them as a directed GML graph.

Examples:
  weaver export --db crawler.db --out crawl.gml
  weaver export --db crawler.db --run 6f1c... --out crawl.gml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			setupLogging("info", verbose)
			return runExport(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.dbPath, "db", "crawler.db", "SQLite database path")
	flags.StringVar(&opts.runID, "run", "", "Run ID printed at the end of a crawl (default: latest run)")
	flags.StringVarP(&opts.outPath, "out", "o", "", "GML output file")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runExport(opts *exportOptions) error {
	store, err := storage.NewStorage(opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	var run *storage.Run
	if opts.runID == "" {
		run, err = store.LatestRun()
	} else {
		run, err = store.GetRun(opts.runID)
	}
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %q not found in %s", opts.runID, opts.dbPath)
	}

	graph, err := memory.LoadFromStorage(store, run.RunID)
	if err != nil {
		return err
	}

	if err := export.WriteGMLFile(opts.outPath, graph.Snapshot()); err != nil {
		return err
	}

	nodes, edges := graph.GetStats()
	logrus.Infof("Run %s (%s, %s): %d nodes, %d edges written to %s",
		run.RunID, run.Domain, run.TerminationReason, nodes, edges, opts.outPath)
	return nil
}
