package tree

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, uint32(0), Checksum(nil))
	assert.Equal(t, uint32(2363233923), Checksum([]byte("x")))
	assert.Equal(t, uint32(909783072), Checksum([]byte("hello\n")))
}

func TestPrint_Listing(t *testing.T) {
	root := writeTree(t, map[string]string{
		"z.txt":       "x",
		"a.txt":       "y",
		"b/c.txt":     "z",
		"b/a/d.txt":   "x",
		"Z/empty.txt": "",
	})

	got, err := Print(context.Background(), root, nil, nil)
	require.NoError(t, err)

	want := `.
    Z
        empty.txt 0
    b
        a
            d.txt 2363233923
        c.txt 1657960367
    a.txt 4225443349
    z.txt 2363233923
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Print() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrint_DirectoriesBeforeFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt":   "x",
		"b/x.txt": "x",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "c"), 0755))

	got, err := Print(context.Background(), root, nil, nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	assert.Equal(t, []string{".", "    b", "        x.txt 2363233923", "    c", "    a.txt 2363233923"}, lines)
}

func TestPrint_InterestingPaths(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt":   "alpha",
		"b/c.txt": "gamma",
	})
	upper := RendererFunc(func(_ context.Context, path string) (string, error) {
		data, err := os.ReadFile(path)
		return strings.ToUpper(string(data)), err
	})

	got, err := Print(context.Background(), root, []string{"b/c.txt", "a.txt"}, upper)
	require.NoError(t, err)

	idx := strings.Index(got, "================")
	require.Greater(t, idx, 0)
	assert.Equal(t,
		"================ b/c.txt ================\nGAMMA\n\n"+
			"================ a.txt ================\nALPHA\n\n",
		got[idx:])
}

func TestPrint_DefaultRendererReadsText(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "plain"})

	got, err := Print(context.Background(), root, []string{"a.txt"}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "================ a.txt ================\nplain\n\n"))
}

func TestPrint_RenderError(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "x"})
	boom := errors.New("boom")
	failing := RendererFunc(func(context.Context, string) (string, error) { return "", boom })

	_, err := Print(context.Background(), root, []string{"a.txt"}, failing)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "a.txt")
}

func TestPrint_MissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")

	_, err := Print(context.Background(), missing, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing+" does not exist")
}

func TestPrint_ExcludeDirs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt":         "x",
		"tmp/cache.bin": "x",
	})
	p := &Printer{ExcludeDirs: []string{"tmp"}}

	got, err := p.Print(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, ".\n    a.txt 2363233923\n", got)
}

func TestPrint_Cancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Print(ctx, root, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrint_Deterministic(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"k", "c", "x", "a", "m"} {
		files[name+"/"+name+".txt"] = name
		files[name+".bin"] = name
	}
	root := writeTree(t, files)

	first, err := Print(context.Background(), root, nil, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Print(context.Background(), root, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPrint_FollowsSymlinks(t *testing.T) {
	root := writeTree(t, map[string]string{"real/a.txt": "x", "b.txt": "y"})
	require.NoError(t, os.Symlink("real", filepath.Join(root, "link")))
	require.NoError(t, os.Symlink("b.txt", filepath.Join(root, "c.txt")))

	got, err := Print(context.Background(), root, []string{"link/a.txt"}, nil)
	require.NoError(t, err)

	want := `.
    link
        a.txt 2363233923
    real
        a.txt 2363233923
    b.txt 4225443349
    c.txt 4225443349
================ link/a.txt ================
x

`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Print() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrint_SymlinkCycle(t *testing.T) {
	root := writeTree(t, map[string]string{"demo/a.txt": "x"})
	require.NoError(t, os.Symlink("..", filepath.Join(root, "demo", "up")))

	got, err := Print(context.Background(), root, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ".\n    demo\n        up\n        a.txt 2363233923\n", got)
}

func TestPrint_BrokenSymlink(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "x"})
	require.NoError(t, os.Symlink("missing", filepath.Join(root, "dangling")))

	_, err := Print(context.Background(), root, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangling")
}
