package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for outcmp
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outcmp",
		Short: "Compare compiler output directories against golden directories",
		Long: `outcmp checks a compiler's output directory against an expected (golden)
directory.

Both trees are printed with a CRC-32 checksum per file. Files whose bytes
differ are rendered, class files as a bytecode listing plus a dump of their
Kotlin metadata, so failures show what changed. Mismatches produce a report
and every run is kept in a local history.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewCompareCommand())
	cmd.AddCommand(NewTreeCommand())
	cmd.AddCommand(NewRenderCommand())
	cmd.AddCommand(NewAcceptCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewWatchCommand())

	return cmd
}
