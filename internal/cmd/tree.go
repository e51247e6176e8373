package cmd

import (
	"fmt"

	"github.com/harrison/outcmp/internal/config"
	"github.com/harrison/outcmp/internal/tree"
	"github.com/spf13/cobra"
)

// NewTreeCommand creates the tree subcommand
func NewTreeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <dir> [paths...]",
		Short: "Print a directory tree with checksums",
		Long: `Print the listing compared by 'outcmp compare': directories first, then
files with their CRC-32 checksum, followed by the rendered content of each
path given after the directory (relative, "/" separated).`,
		Args: cobra.MinimumNArgs(1),
		RunE: runTree,
	}

	cmd.Flags().StringSlice("exclude", nil, "Directory names to skip")
	cmd.Flags().Bool("raw", false, "Print file content without decoding class files")

	return cmd
}

func runTree(cmd *cobra.Command, args []string) error {
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	env, err := loadEnvironment(cmd.ErrOrStderr(), config.FlagOverrides{ExcludeDirs: exclude})
	if err != nil {
		return err
	}
	defer env.Close()

	printer := &tree.Printer{ExcludeDirs: env.cfg.ExcludeDirs}
	if raw, _ := cmd.Flags().GetBool("raw"); !raw {
		renderer, err := newRenderer(env.cfg)
		if err != nil {
			return err
		}
		printer.Renderer = renderer
	}

	out, err := printer.Print(cmd.Context(), args[0], args[1:])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
