package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/harrison/outcmp/internal/config"
	"github.com/harrison/outcmp/internal/dircmp"
	"github.com/harrison/outcmp/internal/history"
	"github.com/harrison/outcmp/internal/logger"
	"github.com/harrison/outcmp/internal/report"
	"github.com/spf13/cobra"
)

// NewCompareCommand creates the compare subcommand
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <expected-dir> <actual-dir>",
		Short: "Compare a build output directory against a golden directory",
		Long: `Print both directory trees with CRC-32 checksums, render the files whose
bytes differ and compare the two listings.

Class files are rendered as a bytecode listing followed by a dump of their
Kotlin metadata, so a failure shows what changed rather than which bytes.

On failure a report (expected.txt, actual.txt, diff.patch, summary.md,
summary.html) is written under the configured report directory and the
command exits with code 1. Every run is recorded in the history database.

Configuration is loaded from .outcmp/config.yaml if present.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := newCompareRun(cmd)
			if err != nil {
				return err
			}
			defer run.env.Close()
			return run.compare(cmd.Context(), args[0], args[1])
		},
	}

	addCompareFlags(cmd)
	return cmd
}

// addCompareFlags registers the flags shared by compare and watch.
func addCompareFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("forgive-extra", false, "Accept extra files in the actual directory when no common file changed")
	cmd.Flags().Bool("full-dump", false, "Render every file instead of only the changed ones")
	cmd.Flags().StringArray("normalize", nil, "Regex replacement applied to both listings before the last check (pattern=replace, repeatable)")
	cmd.Flags().StringSlice("exclude", nil, "Directory names skipped in both trees")
	cmd.Flags().String("report", "", "Directory for mismatch reports")
	cmd.Flags().Bool("no-report", false, "Do not write a report on mismatch")
	cmd.Flags().Bool("no-history", false, "Do not record the run in the history database")
	cmd.Flags().String("disassembler", "", "Class listing backend (builtin, javap)")
	cmd.Flags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
}

// compareOverrides collects the flags the user set.
func compareOverrides(cmd *cobra.Command) (config.FlagOverrides, error) {
	var o config.FlagOverrides
	flags := cmd.Flags()

	if flags.Changed("forgive-extra") {
		v, _ := flags.GetBool("forgive-extra")
		o.ForgiveExtraFiles = &v
	}
	if flags.Changed("full-dump") {
		v, _ := flags.GetBool("full-dump")
		o.FullDump = &v
	}
	if flags.Changed("report") {
		v, _ := flags.GetString("report")
		o.ReportDir = &v
	}
	if flags.Changed("disassembler") {
		v, _ := flags.GetString("disassembler")
		o.Disassembler = &v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		o.LogLevel = &v
	}
	o.ExcludeDirs, _ = flags.GetStringSlice("exclude")

	values, _ := flags.GetStringArray("normalize")
	rules, err := parseNormalizeRules(values)
	if err != nil {
		return o, err
	}
	o.Normalize = rules
	return o, nil
}

// compareRun holds everything needed to compare directories repeatedly.
type compareRun struct {
	env       *environment
	opts      dircmp.Options
	output    io.Writer
	reports   bool
	recordRun bool
}

func newCompareRun(cmd *cobra.Command) (*compareRun, error) {
	overrides, err := compareOverrides(cmd)
	if err != nil {
		return nil, err
	}
	output := cmd.OutOrStdout()
	env, err := loadEnvironment(output, overrides)
	if err != nil {
		return nil, err
	}

	renderer, err := newRenderer(env.cfg)
	if err != nil {
		env.Close()
		return nil, err
	}
	transform, err := env.cfg.NormalizeTransform()
	if err != nil {
		env.Close()
		return nil, err
	}

	noReport, _ := cmd.Flags().GetBool("no-report")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	return &compareRun{
		env: env,
		opts: dircmp.Options{
			ForgiveExtraFiles: env.cfg.ForgiveExtraFiles,
			Transform:         transform,
			FullDump:          env.cfg.FullDump,
			ExcludeDirs:       env.cfg.ExcludeDirs,
			Renderer:          renderer,
			Logger:            env.log,
		},
		output:    output,
		reports:   !noReport && env.cfg.ReportDir != "",
		recordRun: !noHistory && env.cfg.HistoryDB != "",
	}, nil
}

// compare runs one comparison, logging its outcome, writing a report on
// mismatch and recording it in the history. A mismatch is returned as an
// error wrapping *dircmp.MismatchError.
func (r *compareRun) compare(ctx context.Context, expected, actual string) error {
	log := r.env.log
	log.LogCompareStart(expected, actual)

	start := time.Now()
	result, err := dircmp.Compare(ctx, expected, actual, r.opts)
	duration := time.Since(start)

	var mismatch *dircmp.MismatchError
	if err != nil && !errors.As(err, &mismatch) {
		log.LogError(err.Error())
		return err
	}

	comparison := logger.Comparison{
		Expected: expected,
		Actual:   actual,
		Duration: duration,
	}
	if mismatch != nil {
		comparison.ChangedPaths = mismatch.ChangedPaths
		if r.reports {
			rep, err := report.NewWriter(r.env.path(r.env.cfg.ReportDir)).Write(report.Input{
				ExpectedDir: expected,
				ActualDir:   actual,
				Mismatch:    mismatch,
				Duration:    duration,
			})
			if err != nil {
				log.LogWarn(fmt.Sprintf("Failed to write report: %v", err))
			} else {
				comparison.ReportDir = rep.Dir
			}
		}
		printDiff(r.output, mismatch)
	} else {
		comparison.Passed = true
		comparison.ChangedPaths = result.ChangedPaths
		comparison.Forgiven = result.Forgiven
		comparison.Transformed = result.Transformed
	}

	log.LogComparison(comparison)

	if r.recordRun {
		if err := r.record(ctx, comparison); err != nil {
			log.LogWarn(fmt.Sprintf("Failed to record history: %v", err))
		}
	}

	if mismatch != nil {
		return fmt.Errorf("%s does not match %s: %w", actual, expected, mismatch)
	}
	return nil
}

func printDiff(w io.Writer, mismatch *dircmp.MismatchError) {
	if diff := mismatch.Diff(); diff != "" {
		fmt.Fprintln(w, diff)
	}
}

func (r *compareRun) record(ctx context.Context, c logger.Comparison) error {
	store, err := history.NewStore(r.env.path(r.env.cfg.HistoryDB))
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Record(ctx, &history.Run{
		Expected:     c.Expected,
		Actual:       c.Actual,
		Passed:       c.Passed,
		Forgiven:     c.Forgiven,
		Transformed:  c.Transformed,
		ChangedPaths: c.ChangedPaths,
		ReportDir:    c.ReportDir,
		Duration:     c.Duration,
	})
}
