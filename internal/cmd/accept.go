package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/harrison/outcmp/internal/config"
	"github.com/harrison/outcmp/internal/filelock"
	"github.com/spf13/cobra"
)

// NewAcceptCommand creates the accept subcommand
func NewAcceptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accept <expected-dir> <actual-dir>",
		Short: "Replace a golden directory with the actual output",
		Long: `Copy the actual directory over the expected (golden) one.

The golden directory is swapped in one step while holding an exclusive lock
(.<name>.lock next to it), so concurrent accepts and comparisons never see
a half-written tree.`,
		Args: cobra.ExactArgs(2),
		RunE: runAccept,
	}

	cmd.Flags().Duration("timeout", 0, "Maximum time to wait for the lock (0 = wait forever)")

	return cmd
}

// acceptLockPath returns the lock file guarding the golden directory.
func acceptLockPath(expected string) string {
	clean := filepath.Clean(expected)
	return filepath.Join(filepath.Dir(clean), "."+filepath.Base(clean)+".lock")
}

func runAccept(cmd *cobra.Command, args []string) error {
	expected, actual := args[0], args[1]

	env, err := loadEnvironment(cmd.OutOrStdout(), config.FlagOverrides{})
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	lockPath := acceptLockPath(expected)
	env.log.LogDebug(fmt.Sprintf("Waiting for lock %s", lockPath))
	err = filelock.WithLock(ctx, lockPath, func() error {
		return filelock.ReplaceDir(ctx, actual, expected)
	})
	if err != nil {
		env.log.LogError(fmt.Sprintf("Failed to accept %s: %v", actual, err))
		return err
	}

	env.log.LogInfo(fmt.Sprintf("Accepted %s as %s", actual, expected))
	return nil
}
