package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/harrison/outcmp/internal/config"
	"github.com/harrison/outcmp/internal/history"
	"github.com/harrison/outcmp/internal/logger"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history subcommand
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [expected-dir]",
		Short: "List recent comparison runs",
		Long: `List the comparison runs recorded by 'outcmp compare', most recent first.
Given a directory, only runs against that golden directory are listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", history.DefaultLimit, "Maximum number of runs to list")
	cmd.Flags().Int("prune", 0, "Delete runs older than this many days before listing")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()
	env, err := loadEnvironment(cmd.ErrOrStderr(), config.FlagOverrides{})
	if err != nil {
		return err
	}
	defer env.Close()

	dbPath := env.path(env.cfg.HistoryDB)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintln(output, "No comparison history found")
		fmt.Fprintf(output, "Database path: %s\n", dbPath)
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if days, _ := cmd.Flags().GetInt("prune"); days > 0 {
		deleted, err := store.Prune(ctx, days)
		if err != nil {
			return err
		}
		env.log.LogInfo(fmt.Sprintf("Pruned %d run(s) older than %d days", deleted, days))
	}

	limit, _ := cmd.Flags().GetInt("limit")
	var runs []*history.Run
	if len(args) == 1 {
		runs, err = store.RecentFor(ctx, args[0], limit)
	} else {
		runs, err = store.Recent(ctx, limit)
	}
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(output, "No comparison history found")
		return nil
	}
	printRuns(output, runs)
	return nil
}

func printRuns(w io.Writer, runs []*history.Run) {
	for _, run := range runs {
		summary := logger.FormatSummary(logger.Comparison{
			Expected:     run.Expected,
			Actual:       run.Actual,
			Passed:       run.Passed,
			ChangedPaths: run.ChangedPaths,
			Forgiven:     run.Forgiven,
			Transformed:  run.Transformed,
			Duration:     run.Duration,
		})
		fmt.Fprintf(w, "%4d  %s  %s vs %s\n", run.ID, run.Timestamp.Local().Format("2006-01-02 15:04:05"), summary, run.Expected)
		if run.ReportDir != "" {
			fmt.Fprintf(w, "      report: %s\n", run.ReportDir)
		}
	}
}
