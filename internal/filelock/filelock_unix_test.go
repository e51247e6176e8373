//go:build unix

package filelock

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
)

func TestReplaceDirRejectsSpecialFiles(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "actual")
	dst := filepath.Join(base, "golden")
	writeFiles(t, src, map[string]string{"a.txt": "x"})
	if err := syscall.Mkfifo(filepath.Join(src, "pipe"), 0644); err != nil {
		t.Skipf("mkfifo: %v", err)
	}

	err := ReplaceDir(context.Background(), src, dst)
	if err == nil || !strings.Contains(err.Error(), "pipe") {
		t.Errorf("ReplaceDir() error = %v, want unsupported file error", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("destination must not be created after a failed copy")
	}
}
