package dircmp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Option adjusts the Options used by AssertEqualDirectories.
type Option func(*Options)

// WithTransform sets Options.Transform.
func WithTransform(fn Transform) Option {
	return func(o *Options) { o.Transform = fn }
}

// WithFullDump sets Options.FullDump.
func WithFullDump() Option {
	return func(o *Options) { o.FullDump = true }
}

// WithExcludeDirs sets Options.ExcludeDirs.
func WithExcludeDirs(dirs ...string) Option {
	return func(o *Options) { o.ExcludeDirs = dirs }
}

// AssertEqualDirectories fails t unless expected and actual render to the
// same tree. Mismatches are reported with assert.Equal so the two renders
// show up as a diff. It returns whether the directories matched.
func AssertEqualDirectories(t testing.TB, expected, actual string, forgiveExtraFiles bool, opts ...Option) bool {
	t.Helper()

	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	o.ForgiveExtraFiles = forgiveExtraFiles

	_, err := Compare(context.Background(), expected, actual, o)
	if err == nil {
		return true
	}
	var mismatch *MismatchError
	if errors.As(err, &mismatch) {
		return assert.Equal(t, mismatch.Expected, mismatch.Actual, "changed paths: %v", mismatch.ChangedPaths)
	}
	return assert.NoError(t, err, "comparing %s with %s", expected, actual)
}
