package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/outcmp/internal/dircmp"
)

func testInput() Input {
	return Input{
		ExpectedDir: "testData/golden",
		ActualDir:   "build/out",
		Mismatch: &dircmp.MismatchError{
			Expected:     ".\n    a.txt 1\n",
			Actual:       ".\n    a.txt 2\n",
			ChangedPaths: []string{"a.txt"},
		},
		Duration: 12 * time.Millisecond,
	}
}

func fixedWriter(base string) *Writer {
	w := NewWriter(base)
	w.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC) }
	w.newID = func() string { return "id-1" }
	return w
}

func TestWrite(t *testing.T) {
	base := filepath.Join(t.TempDir(), "reports")
	w := fixedWriter(base)
	assert.Equal(t, base, w.BaseDir())

	rep, err := w.Write(testInput())
	require.NoError(t, err)
	assert.Equal(t, "id-1", rep.ID)
	assert.Equal(t, filepath.Join(base, "20240309-140506-id-1"), rep.Dir)

	read := func(name string) string {
		data, err := os.ReadFile(filepath.Join(rep.Dir, name))
		require.NoError(t, err)
		return string(data)
	}

	assert.Equal(t, ".\n    a.txt 1\n", read(ExpectedFile))
	assert.Equal(t, ".\n    a.txt 2\n", read(ActualFile))

	diff := read(DiffFile)
	assert.Contains(t, diff, "--- expected")
	assert.Contains(t, diff, "+++ actual")
	assert.Contains(t, diff, "-    a.txt 1")
	assert.Contains(t, diff, "+    a.txt 2")

	summary := read(SummaryFile)
	assert.Contains(t, summary, "# Directory comparison failed")
	assert.Contains(t, summary, "- **Expected:** `testData/golden`")
	assert.Contains(t, summary, "- `a.txt`")
	assert.Contains(t, summary, "```diff\n")

	page := read(HTMLFile)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>20240309-140506-id-1</title>")
	assert.Contains(t, page, "<h1>Directory comparison failed</h1>")
	assert.Contains(t, page, `<code class="language-diff">`)

	target, err := os.Readlink(filepath.Join(base, LatestLink))
	require.NoError(t, err)
	assert.Equal(t, "20240309-140506-id-1", target)
}

func TestWriteUpdatesLatest(t *testing.T) {
	base := t.TempDir()
	w := NewWriter(base)

	first, err := w.Write(testInput())
	require.NoError(t, err)
	second, err := w.Write(testInput())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	target, err := os.Readlink(filepath.Join(base, LatestLink))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(second.Dir), target)

	_, err = os.Stat(filepath.Join(first.Dir, SummaryFile))
	assert.NoError(t, err, "older reports are kept")
	_, err = os.Lstat(filepath.Join(base, LatestLink+".tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteRequiresMismatch(t *testing.T) {
	_, err := NewWriter(t.TempDir()).Write(Input{ExpectedDir: "a", ActualDir: "b"})
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	in := testInput()
	in.Mismatch.ChangedPaths = nil
	in.Duration = 0

	got := Summary(in, "")
	assert.Contains(t, got, "No common file changed")
	assert.NotContains(t, got, "Duration")
	assert.NotContains(t, got, "## Diff")

	got = Summary(testInput(), "@@ -1 +1 @@")
	assert.Contains(t, got, "- **Duration:** 12ms")
	assert.True(t, strings.HasSuffix(got, "@@ -1 +1 @@\n```\n"))
}
