package main

import (
	"fmt"

	"github.com/alvmarrod/page-weaver/internal/version"
	"github.com/spf13/cobra"
)

// NewVersionCmd prints the build version
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "weaver v%s\n", version.Version)
		},
	}
}
