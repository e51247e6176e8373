// Package report writes the artifacts of a failed comparison to disk so the
// expected and actual renders can be inspected after the run.
package report

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/harrison/outcmp/internal/dircmp"
	"github.com/harrison/outcmp/internal/filelock"
)

// Names of the files written into a report directory.
const (
	ExpectedFile = "expected.txt"
	ActualFile   = "actual.txt"
	DiffFile     = "diff.patch"
	SummaryFile  = "summary.md"
	HTMLFile     = "summary.html"

	// LatestLink points at the most recent report directory.
	LatestLink = "latest"
)

// Input describes a failed comparison.
type Input struct {
	ExpectedDir string
	ActualDir   string
	Mismatch    *dircmp.MismatchError
	Duration    time.Duration
}

// Report is a written report.
type Report struct {
	ID  string
	Dir string
}

// Writer writes reports under a base directory.
type Writer struct {
	baseDir  string
	markdown goldmark.Markdown
	now      func() time.Time
	newID    func() string
}

// NewWriter creates a Writer rooted at baseDir.
func NewWriter(baseDir string) *Writer {
	return &Writer{
		baseDir:  baseDir,
		markdown: goldmark.New(),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// BaseDir returns the directory reports are written under.
func (w *Writer) BaseDir() string {
	return w.baseDir
}

// Write creates <base>/<timestamp>-<id>/ holding both renders, their diff
// and a summary, then points the latest link at it.
func (w *Writer) Write(in Input) (*Report, error) {
	if in.Mismatch == nil {
		return nil, fmt.Errorf("report requires a mismatch")
	}

	id := w.newID()
	name := fmt.Sprintf("%s-%s", w.now().Format("20060102-150405"), id)
	dir := filepath.Join(w.baseDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	diff := in.Mismatch.Diff()
	summary := Summary(in, diff)

	var page bytes.Buffer
	if err := w.markdown.Convert([]byte(summary), &page); err != nil {
		return nil, fmt.Errorf("failed to render summary: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{ExpectedFile, []byte(in.Mismatch.Expected)},
		{ActualFile, []byte(in.Mismatch.Actual)},
		{DiffFile, []byte(diff)},
		{SummaryFile, []byte(summary)},
		{HTMLFile, wrapHTML(name, page.Bytes())},
	}
	for _, f := range files {
		if err := filelock.AtomicWrite(filepath.Join(dir, f.name), f.data); err != nil {
			return nil, err
		}
	}

	if err := updateLatest(w.baseDir, name); err != nil {
		return nil, err
	}
	return &Report{ID: id, Dir: dir}, nil
}

// Summary renders the markdown summary of a failed comparison.
func Summary(in Input, diff string) string {
	var b strings.Builder
	b.WriteString("# Directory comparison failed\n\n")
	fmt.Fprintf(&b, "- **Expected:** `%s`\n", in.ExpectedDir)
	fmt.Fprintf(&b, "- **Actual:** `%s`\n", in.ActualDir)
	if in.Duration > 0 {
		fmt.Fprintf(&b, "- **Duration:** %s\n", in.Duration.Round(time.Millisecond))
	}
	b.WriteString("\n## Changed paths\n\n")
	if len(in.Mismatch.ChangedPaths) == 0 {
		b.WriteString("No common file changed; the trees differ in their listings.\n")
	}
	for _, p := range in.Mismatch.ChangedPaths {
		fmt.Fprintf(&b, "- `%s`\n", p)
	}
	if diff != "" {
		b.WriteString("\n## Diff\n\n```diff\n")
		b.WriteString(diff)
		if !strings.HasSuffix(diff, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n")
	}
	return b.String()
}

func wrapHTML(title string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("</head>\n<body>\n")
	b.Write(body)
	b.WriteString("</body>\n</html>\n")
	return b.Bytes()
}

// updateLatest swaps the latest symlink to target via a temporary link.
func updateLatest(baseDir, target string) error {
	link := filepath.Join(baseDir, LatestLink)
	tmp := link + ".tmp"
	os.Remove(tmp)
	if err := os.Symlink(target, tmp); err != nil {
		return fmt.Errorf("failed to create symlink: %w", err)
	}
	if err := os.Rename(tmp, link); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to update %s: %w", link, err)
	}
	return nil
}
