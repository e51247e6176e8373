package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const waitTimeout = 5 * time.Second

func newWatcher(t *testing.T, roots []string, exclude ...string) *Watcher {
	t.Helper()
	w, err := New(roots, exclude)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w.SetDebounceDelay(50 * time.Millisecond)
	t.Cleanup(func() { w.Close() })
	return w
}

func waitBatch(t *testing.T, w *Watcher) Batch {
	t.Helper()
	select {
	case b := <-w.Batches():
		return b
	case err := <-w.Errors():
		t.Fatalf("watch error: %v", err)
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a batch")
	}
	return Batch{}
}

func contains(paths []string, want string) bool {
	for _, p := range paths {
		if p == want {
			return true
		}
	}
	return false
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	w := newWatcher(t, []string{dir + string(filepath.Separator)})

	roots := w.Roots()
	if len(roots) != 1 || roots[0] != dir {
		t.Errorf("Roots() = %v, want [%s]", roots, dir)
	}
}

func TestNew_MissingRoot(t *testing.T) {
	if _, err := New([]string{filepath.Join(t.TempDir(), "missing")}, nil); err == nil {
		t.Error("expected error for a missing root")
	}
}

func TestBatchCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	w := newWatcher(t, []string{dir})

	a := filepath.Join(dir, "A.class")
	b := filepath.Join(dir, "B.class")
	writeFile(t, a, "1")
	writeFile(t, b, "1")
	writeFile(t, a, "2")

	batch := waitBatch(t, w)
	if !contains(batch.Paths, a) || !contains(batch.Paths, b) {
		t.Errorf("batch %v should hold both files", batch.Paths)
	}
	for i := 1; i < len(batch.Paths); i++ {
		if batch.Paths[i-1] >= batch.Paths[i] {
			t.Errorf("paths not sorted and unique: %v", batch.Paths)
		}
	}
	if batch.Time.IsZero() {
		t.Error("batch time not set")
	}
}

func TestNewDirectoriesAreWatched(t *testing.T) {
	dir := t.TempDir()
	w := newWatcher(t, []string{dir})

	sub := filepath.Join(dir, "demo")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	waitBatch(t, w)

	nested := filepath.Join(sub, "Nested.class")
	writeFile(t, nested, "x")

	deadline := time.After(waitTimeout)
	for {
		select {
		case batch := <-w.Batches():
			if contains(batch.Paths, nested) {
				return
			}
		case <-deadline:
			t.Fatal("write in a new directory was not reported")
		}
	}
}

func TestExcludedDirectories(t *testing.T) {
	dir := t.TempDir()
	tmp := filepath.Join(dir, "tmp")
	if err := os.Mkdir(tmp, 0755); err != nil {
		t.Fatal(err)
	}
	w := newWatcher(t, []string{dir}, "tmp")

	writeFile(t, filepath.Join(tmp, "scratch"), "x")
	kept := filepath.Join(dir, "kept.txt")
	writeFile(t, kept, "x")

	batch := waitBatch(t, w)
	for _, p := range batch.Paths {
		if filepath.Dir(p) == tmp {
			t.Errorf("excluded path reported: %s", p)
		}
	}
	if !contains(batch.Paths, kept) {
		t.Errorf("batch %v should hold %s", batch.Paths, kept)
	}
}

func TestExcluded(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "out")
	w := &Watcher{roots: []string{root}, exclude: map[string]bool{"tmp": true}}

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "a.txt"), false},
		{filepath.Join(root, "tmp", "a.txt"), true},
		{filepath.Join(root, "demo", "tmp", "a.txt"), true},
		{filepath.Join(root, "tmp"), false},
		{filepath.Join(string(filepath.Separator), "elsewhere", "tmp", "a.txt"), false},
	}
	for _, tt := range tests {
		if got := w.excluded(tt.path); got != tt.want {
			t.Errorf("excluded(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestClose(t *testing.T) {
	w, err := New([]string{t.TempDir()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	// no-op after close
	w.schedule("x")
}
