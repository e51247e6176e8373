package dircmp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ErrMismatch is matched by every *MismatchError.
var ErrMismatch = errors.New("directory trees differ")

// MismatchError carries both renders of a failed comparison. When a
// transform ran, Expected and Actual hold the transformed text.
type MismatchError struct {
	Expected     string
	Actual       string
	ChangedPaths []string
}

func (e *MismatchError) Error() string {
	if len(e.ChangedPaths) == 0 {
		return ErrMismatch.Error()
	}
	return fmt.Sprintf("%s: changed %s", ErrMismatch, strings.Join(e.ChangedPaths, ", "))
}

// Is reports whether target is ErrMismatch.
func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}

// Diff returns a unified diff from Expected to Actual.
func (e *MismatchError) Diff() string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(e.Expected),
		B:        difflib.SplitLines(e.Actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
