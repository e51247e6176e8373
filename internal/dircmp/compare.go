// Package dircmp compares two build output directories through their printed
// trees.
package dircmp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harrison/outcmp/internal/fileutil"
	"github.com/harrison/outcmp/internal/render"
	"github.com/harrison/outcmp/internal/tree"
)

// Transform rewrites both renders before the last comparison.
type Transform func(expected, actual string) (string, string)

// Logger is the subset of the console logger used during a comparison.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
}

// Options control a comparison.
type Options struct {
	// ForgiveExtraFiles accepts an actual tree holding extra files as long
	// as no common file changed.
	ForgiveExtraFiles bool

	// Transform, when set, is applied to both renders if they differ.
	Transform Transform

	// FullDump renders every file instead of only changed ones. The
	// OUTCMP_DEBUG environment variable turns it on as well.
	FullDump bool

	// ExcludeDirs are directory names skipped in both trees.
	ExcludeDirs []string

	// Renderer renders file content. Defaults to render.NewRenderer().
	Renderer tree.ContentRenderer

	Logger Logger
}

// Result describes a finished comparison.
type Result struct {
	Expected     string
	Actual       string
	ChangedPaths []string

	// Forgiven is set when extra files in actual were tolerated.
	Forgiven bool

	// Transformed is set when the renders only matched after Transform.
	Transformed bool
}

// Comparator compares directories with fixed options.
type Comparator struct {
	opts Options
}

// NewComparator creates a Comparator.
func NewComparator(opts Options) *Comparator {
	if opts.Renderer == nil {
		opts.Renderer = render.NewRenderer()
	}
	return &Comparator{opts: opts}
}

// Compare is shorthand for NewComparator(opts).Compare.
func Compare(ctx context.Context, expected, actual string, opts Options) (*Result, error) {
	return NewComparator(opts).Compare(ctx, expected, actual)
}

// Compare renders both trees and checks them for equality. A mismatch is
// returned as a *MismatchError together with the Result.
func (c *Comparator) Compare(ctx context.Context, expected, actual string) (*Result, error) {
	expectedPaths, err := fileutil.CollectRelativePaths(expected, c.opts.ExcludeDirs...)
	if err != nil {
		return nil, fmt.Errorf("expected: %w", err)
	}
	actualPaths, err := fileutil.CollectRelativePaths(actual, c.opts.ExcludeDirs...)
	if err != nil {
		return nil, fmt.Errorf("actual: %w", err)
	}

	changed, err := changedPaths(expected, actual, expectedPaths, actualPaths)
	if err != nil {
		return nil, err
	}
	for _, p := range changed {
		c.debugf("changed: %s", p)
	}

	fullDump := c.opts.FullDump || DebugEnabled()
	printer := &tree.Printer{Renderer: c.opts.Renderer, ExcludeDirs: c.opts.ExcludeDirs}

	interesting := changed
	if fullDump {
		interesting = expectedPaths
	}
	expectedText, err := printer.Print(ctx, expected, interesting)
	if err != nil {
		return nil, fmt.Errorf("expected: %w", err)
	}
	if fullDump {
		interesting = actualPaths
	}
	actualText, err := printer.Print(ctx, actual, interesting)
	if err != nil {
		return nil, fmt.Errorf("actual: %w", err)
	}

	result := &Result{Expected: expectedText, Actual: actualText, ChangedPaths: changed}

	if c.opts.ForgiveExtraFiles && len(changed) == 0 && containsAllLines(actualText, expectedText) {
		result.Forgiven = expectedText != actualText
		c.infof("%s matches %s (extra files forgiven: %t)", actual, expected, result.Forgiven)
		return result, nil
	}

	if expectedText == actualText {
		c.infof("%s matches %s", actual, expected)
		return result, nil
	}

	if c.opts.Transform != nil {
		result.Expected, result.Actual = c.opts.Transform(expectedText, actualText)
		if result.Expected == result.Actual {
			result.Transformed = true
			c.infof("%s matches %s after transform", actual, expected)
			return result, nil
		}
	}

	c.infof("%s differs from %s: %d changed path(s)", actual, expected, len(changed))
	return result, &MismatchError{
		Expected:     result.Expected,
		Actual:       result.Actual,
		ChangedPaths: changed,
	}
}

// changedPaths returns the sorted paths present in both trees whose bytes
// differ.
func changedPaths(expectedRoot, actualRoot string, expectedPaths, actualPaths []string) ([]string, error) {
	inActual := make(map[string]bool, len(actualPaths))
	for _, p := range actualPaths {
		inActual[p] = true
	}

	changed := make([]string, 0)
	for _, p := range expectedPaths {
		if !inActual[p] {
			continue
		}
		same, err := sameContent(filepath.Join(expectedRoot, filepath.FromSlash(p)), filepath.Join(actualRoot, filepath.FromSlash(p)))
		if err != nil {
			return nil, err
		}
		if !same {
			changed = append(changed, p)
		}
	}
	sort.Strings(changed)
	return changed, nil
}

func sameContent(a, b string) (bool, error) {
	ia, err := os.Stat(a)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", a, err)
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", b, err)
	}
	if ia.Size() != ib.Size() {
		return false, nil
	}
	da, err := os.ReadFile(a)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", a, err)
	}
	db, err := os.ReadFile(b)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", b, err)
	}
	return bytes.Equal(da, db), nil
}

// containsAllLines reports whether every line of sub occurs somewhere in text.
func containsAllLines(text, sub string) bool {
	lines := make(map[string]struct{})
	for _, l := range strings.Split(text, "\n") {
		lines[l] = struct{}{}
	}
	for _, l := range strings.Split(sub, "\n") {
		if _, ok := lines[l]; !ok {
			return false
		}
	}
	return true
}

// IsMismatch reports whether err is a render mismatch.
func IsMismatch(err error) bool {
	return errors.Is(err, ErrMismatch)
}

func (c *Comparator) debugf(format string, args ...interface{}) {
	if c.opts.Logger != nil {
		c.opts.Logger.LogDebug(fmt.Sprintf(format, args...))
	}
}

func (c *Comparator) infof(format string, args ...interface{}) {
	if c.opts.Logger != nil {
		c.opts.Logger.LogInfo(fmt.Sprintf(format, args...))
	}
}
