package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alvmarrod/page-weaver/internal/config"
	"github.com/alvmarrod/page-weaver/internal/crawler"
	"github.com/alvmarrod/page-weaver/internal/export"
	"github.com/alvmarrod/page-weaver/internal/fetcher"
	"github.com/alvmarrod/page-weaver/internal/metrics"
	"github.com/alvmarrod/page-weaver/internal/seed"
	"github.com/alvmarrod/page-weaver/internal/storage"
	"github.com/alvmarrod/page-weaver/internal/version"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type crawlOptions struct {
	seedPath   string
	configPath string
}

// NewCrawlCmd creates the crawl subcommand
func NewCrawlCmd() *cobra.Command {
	opts := &crawlOptions{}
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl a domain from a seed file",
		Long: `Crawl reads a seed file (max nodes, domain, seed URLs), crawls the domain
until the node budget is spent or no pages are left, then stores the link
graph in SQLite under a fresh run ID.

Examples:
  weaver crawl --seeds seeds.txt
  weaver crawl --seeds seeds.txt --config config.json --graph crawl.gml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			return runCrawl(cmd.Context(), opts, v, verbose)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.seedPath, "seeds", "s", "", "Seed file (max nodes, domain, seed URLs)")
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file (JSON, YAML or TOML)")
	flags.StringP("graph", "g", "", "Write the crawled graph as GML to this file")
	flags.String("db", "", "SQLite database path")
	flags.String("metrics", "", "Metrics JSON output path")
	flags.Int("depth", 0, "Maximum link depth from the seeds (0 = unlimited)")
	flags.Int("workers", 0, "Concurrent fetches")
	_ = cmd.MarkFlagRequired("seeds")

	bindFlag(v, "graph_path", flags.Lookup("graph"))
	bindFlag(v, "db_path", flags.Lookup("db"))
	bindFlag(v, "metrics_path", flags.Lookup("metrics"))
	bindFlag(v, "max_depth", flags.Lookup("depth"))
	bindFlag(v, "concurrent_workers", flags.Lookup("workers"))

	return cmd
}

func runCrawl(ctx context.Context, opts *crawlOptions, v *viper.Viper, verbose bool) error {
	cfg, err := config.Load(v, opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLogging(cfg.LogLevel, verbose)

	logrus.Infof("Page Weaver v%s starting...", version.Version)

	sc, err := seed.Load(opts.seedPath)
	if err != nil {
		return err
	}

	logrus.Infof("Configuration loaded: domain=%s, max_nodes=%d, seeds=%d, depth=%d, workers=%d",
		sc.Domain, sc.MaxNodes, len(sc.Seeds), cfg.MaxDepth, cfg.ConcurrentWorkers)

	// Initialize storage
	store, err := storage.NewStorage(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	logrus.Infof("Database initialized: %s", cfg.DBPath)

	run := storage.Run{
		RunID:     uuid.NewString(),
		Domain:    sc.Domain,
		MaxNodes:  sc.MaxNodes,
		StartedAt: time.Now(),
	}
	if err := store.CreateRun(run); err != nil {
		return err
	}

	tracker := metrics.NewTracker(run.RunID)
	f := fetcher.New(fetcher.Config{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.RequestTimeout(),
	})
	c := crawler.NewCrawler(cfg, f, tracker)

	// SIGINT/SIGTERM stop dispatching; the partial graph is still saved
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start progress logger
	stopProgress := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				logrus.Info(tracker.LogProgress())
			case <-stopProgress:
				return
			}
		}
	}()

	result, runErr := c.Run(ctx, sc)
	close(stopProgress)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logrus.Warnf("Crawl stopped early: %v", runErr)
	}

	logrus.Info("Step 1/4: Flushing in-memory graph to database...")
	if err := result.Graph.Flush(store, run.RunID); err != nil {
		logrus.Errorf("Failed to flush memory graph: %v", err)
	} else {
		logrus.Info("Memory graph flushed successfully")
	}

	logrus.Info("Step 2/4: Recording run outcome...")
	run.FinishedAt = time.Now()
	run.NodesVisited = len(result.Visited)
	run.TerminationReason = result.Reason
	if err := store.FinishRun(run); err != nil {
		logrus.Errorf("Failed to record run: %v", err)
	}

	logrus.Info("Step 3/4: Exporting graph...")
	if cfg.GraphPath != "" {
		if err := export.WriteGMLFile(cfg.GraphPath, result.Snapshot()); err != nil {
			logrus.Errorf("Failed to write graph: %v", err)
		} else {
			logrus.Infof("Graph saved to %s", cfg.GraphPath)
		}
	}

	logrus.Info("Step 4/4: Writing final metrics...")
	logrus.Info("Final stats: " + tracker.LogProgress())
	if cfg.MetricsPath != "" {
		if err := tracker.WriteToFile(cfg.MetricsPath, result.Reason); err != nil {
			logrus.Errorf("Failed to write metrics: %v", err)
		} else {
			logrus.Infof("Metrics written to %s", cfg.MetricsPath)
		}
	}

	logrus.Infof("Crawl complete. Run ID: %s", run.RunID)
	return nil
}

// bindFlag ties a flag to a config key; flags only win when set explicitly
func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		logrus.Warnf("Failed to bind flag for %s: %v", key, err)
	}
}
