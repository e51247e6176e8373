package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harrison/outcmp/internal/dircmp"
	"github.com/harrison/outcmp/internal/logger"
	"github.com/harrison/outcmp/internal/watch"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch subcommand
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <expected-dir> <actual-dir>",
		Short: "Compare again every time the actual directory changes",
		Long: `Run 'outcmp compare' once and then again after each burst of changes
below the actual directory, until interrupted. Mismatches are reported
(and recorded) but do not stop the watch.`,
		Args: cobra.ExactArgs(2),
		RunE: runWatch,
	}

	addCompareFlags(cmd)
	cmd.Flags().Duration("debounce", watch.DefaultDebounceDelay, "Quiet period before comparing again")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	expected, actual := args[0], args[1]

	run, err := newCompareRun(cmd)
	if err != nil {
		return err
	}
	defer run.env.Close()

	w, err := watch.New([]string{actual}, run.env.cfg.ExcludeDirs)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", actual, err)
	}
	defer w.Close()
	if delay, _ := cmd.Flags().GetDuration("debounce"); delay > 0 {
		w.SetDebounceDelay(delay)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchLoop(ctx, w, run.env.log, func() error {
		return run.compare(ctx, expected, actual)
	})
}

// watchLoop runs compare once and again for every batch until ctx is done.
// Mismatches are logged; any other comparison error ends the loop.
func watchLoop(ctx context.Context, w *watch.Watcher, log logger.Logger, compare func() error) error {
	check := func() error {
		err := compare()
		if err == nil || dircmp.IsMismatch(err) {
			return nil
		}
		return err
	}

	if err := check(); err != nil {
		return err
	}
	log.LogInfo(fmt.Sprintf("Watching %v for changes", w.Roots()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.Errors():
			log.LogWarn(fmt.Sprintf("Watch error: %v", err))
		case batch := <-w.Batches():
			log.LogDebug(fmt.Sprintf("%d path(s) changed", len(batch.Paths)))
			if err := check(); err != nil {
				return err
			}
		}
	}
}
