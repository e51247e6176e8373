package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/outcmp/internal/config"
	"github.com/harrison/outcmp/internal/fileutil"
	"github.com/spf13/cobra"
)

// NewRenderCommand creates the render subcommand
func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <file-or-directory>",
		Short: "Render a class file as it appears in comparison listings",
		Long: `Print the bytecode listing and Kotlin metadata dump of a class file.
Given a directory, every class file below it is rendered under a
"================ path ================" header. Other files are printed as is.`,
		Args: cobra.ExactArgs(1),
		RunE: runRender,
	}

	cmd.Flags().String("disassembler", "", "Class listing backend (builtin, javap)")
	cmd.Flags().String("pattern", "", "Only render class files whose name (without extension) matches this regex")

	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	var overrides config.FlagOverrides
	if cmd.Flags().Changed("disassembler") {
		v, _ := cmd.Flags().GetString("disassembler")
		overrides.Disassembler = &v
	}
	env, err := loadEnvironment(cmd.ErrOrStderr(), overrides)
	if err != nil {
		return err
	}
	defer env.Close()

	renderer, err := newRenderer(env.cfg)
	if err != nil {
		return err
	}
	output := cmd.OutOrStdout()

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to access path: %w", err)
	}
	if !info.IsDir() {
		content, err := renderer.Render(cmd.Context(), path)
		if err != nil {
			return err
		}
		fmt.Fprint(output, content)
		return nil
	}

	pattern, _ := cmd.Flags().GetString("pattern")
	result, err := fileutil.ScanDirectory(path, fileutil.ScanOptions{
		Pattern:       pattern,
		Extensions:    env.cfg.ClassExtensions,
		Recursive:     true,
		ExcludeDirs:   env.cfg.ExcludeDirs,
		IncludeHidden: true,
	})
	if err != nil {
		return err
	}
	for _, scanErr := range result.Errors {
		env.log.LogWarn(scanErr.Error())
	}

	for _, file := range result.Files {
		rel, err := filepath.Rel(result.Root, file)
		if err != nil {
			return err
		}
		content, err := renderer.Render(cmd.Context(), file)
		if err != nil {
			return err
		}
		fmt.Fprintf(output, "================ %s ================\n%s\n\n", filepath.ToSlash(rel), content)
	}
	env.log.LogDebug(fmt.Sprintf("Rendered %d class file(s) under %s", len(result.Files), path))
	return nil
}
