package main

import (
	"github.com/alvmarrod/page-weaver/internal/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for Page Weaver
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weaver",
		Short: "Bounded single-domain crawler that records a page link graph",
		Long: `Page Weaver crawls one domain starting from the seed pages of a seed file.
It stops once the node budget of the seed file is used up and stores the
directed link graph it found in SQLite, optionally also as GML.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// setupLogging configures logrus the same way for every subcommand
func setupLogging(level string, verbose bool) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if verbose {
		lvl = logrus.DebugLevel
	}
	logrus.SetLevel(lvl)
}
