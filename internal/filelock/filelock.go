// Package filelock provides file locking, atomic file writes and atomic
// directory replacement for golden output directories shared between
// processes.
package filelock

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// RetryDelay is the polling interval used by LockContext.
const RetryDelay = 50 * time.Millisecond

// FileLock wraps a flock file lock for coordinating access to files.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a new file lock for the given path.
// The lock file will be created at the specified path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Path returns the lock file path.
func (fl *FileLock) Path() string {
	return fl.path
}

// Lock acquires an exclusive lock on the file, blocking until the lock is available.
func (fl *FileLock) Lock() error {
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// LockContext acquires an exclusive lock, polling until ctx is done.
func (fl *FileLock) LockContext(ctx context.Context) error {
	locked, err := fl.flock.TryLockContext(ctx, RetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock on %s", fl.path)
	}
	return nil
}

// TryLock attempts to acquire an exclusive lock on the file without blocking.
// Returns true if the lock was acquired, false if the lock is held elsewhere.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// WithLock runs fn while holding the lock at lockPath. The lock file is
// left in place so every waiter locks the same inode.
func WithLock(ctx context.Context, lockPath string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", lockPath, err)
	}
	lock := NewFileLock(lockPath)
	if err := lock.LockContext(ctx); err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}

// AtomicWrite writes data to a file atomically using a temp file and rename strategy.
// Readers never see partial writes; on failure the original file is unchanged.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Same directory keeps the rename on one filesystem
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}

// ReplaceDir replaces the contents of dst with a copy of src. The copy is
// staged next to dst and swapped in with renames, so dst is either the old
// tree or the new one. dst need not exist.
func ReplaceDir(ctx context.Context, src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to access %s: %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", src)
	}

	parent := filepath.Dir(dst)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", parent, err)
	}

	staged, err := os.MkdirTemp(parent, ".stage-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staged)
	if err := os.Chmod(staged, 0755); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := copyTree(ctx, src, staged); err != nil {
		return err
	}

	backup := ""
	if _, err := os.Lstat(dst); err == nil {
		backup = staged + ".old"
		if err := os.Rename(dst, backup); err != nil {
			return fmt.Errorf("failed to move %s aside: %w", dst, err)
		}
	}
	if err := os.Rename(staged, dst); err != nil {
		if backup != "" {
			os.Rename(backup, dst)
		}
		return fmt.Errorf("failed to move new tree into %s: %w", dst, err)
	}
	if backup != "" {
		if err := os.RemoveAll(backup); err != nil {
			return fmt.Errorf("failed to remove old tree: %w", err)
		}
	}
	return nil
}

func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0755)
		case d.Type().IsRegular():
			return copyFile(path, target)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("failed to read link %s: %w", path, err)
			}
			return os.Symlink(link, target)
		default:
			return fmt.Errorf("cannot copy %s: unsupported file type %s", path, d.Type())
		}
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
