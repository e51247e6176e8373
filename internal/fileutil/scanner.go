package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ScanOptions configures the directory scanning behavior
type ScanOptions struct {
	// Pattern is a regex pattern to match filenames (without extension)
	Pattern string
	// Extensions is a list of file extensions to include (e.g., ".class", ".kotlin_module")
	Extensions []string
	// Recursive enables recursive directory scanning
	Recursive bool
	// ExcludeDirs is a list of directory names to exclude (e.g., ".git")
	ExcludeDirs []string
	// MaxDepth limits recursion depth (0 = unlimited, 1 = current dir only)
	MaxDepth int
	// IncludeHidden keeps directories whose name starts with "."
	IncludeHidden bool
}

// ScanResult contains the results of a directory scan
type ScanResult struct {
	// Root is the absolute path of the scanned directory
	Root string
	// Files contains the absolute paths of all matched regular files
	Files []string
	// Errors contains any errors encountered during scanning
	Errors []error
}

// RelativePaths returns Files relative to Root using "/" as separator.
func (r *ScanResult) RelativePaths() []string {
	rel := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		p, err := filepath.Rel(r.Root, f)
		if err != nil {
			continue
		}
		rel = append(rel, filepath.ToSlash(p))
	}
	sort.Strings(rel)
	return rel
}

// ScanDirectory scans a directory for regular files matching the provided options
func ScanDirectory(dir string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", dir, err)
	}

	result := &ScanResult{
		Root:   root,
		Files:  make([]string, 0),
		Errors: make([]error, 0),
	}

	var patternRegex *regexp.Regexp
	if opts.Pattern != "" {
		patternRegex, err = regexp.Compile(opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
	}

	extMap := make(map[string]bool)
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[strings.ToLower(ext)] = true
	}

	excludeMap := make(map[string]bool)
	for _, d := range opts.ExcludeDirs {
		excludeMap[d] = true
	}

	w := &walker{
		opts:    opts,
		pattern: patternRegex,
		exts:    extMap,
		exclude: excludeMap,
		result:  result,
		active:  make(map[string]bool),
	}
	w.walk(root, 0)

	sort.Strings(result.Files)
	return result, nil
}

// walker descends directories the way the tree printer lists them: symbolic
// links are followed and a link back to a directory still being walked is
// not entered again.
type walker struct {
	opts    ScanOptions
	pattern *regexp.Regexp
	exts    map[string]bool
	exclude map[string]bool
	result  *ScanResult
	active  map[string]bool
}

func (w *walker) fail(path string, err error) {
	w.result.Errors = append(w.result.Errors, &ScanError{Path: path, Err: err})
}

func (w *walker) walk(dir string, depth int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.fail(dir, err)
		return
	}
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		w.fail(dir, err)
		return
	}
	w.active[real] = true
	defer delete(w.active, real)

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		mode := e.Type()
		if mode&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				w.fail(path, err)
				continue
			}
			mode = info.Mode().Type()
		}

		switch {
		case mode.IsDir():
			if w.skipDir(e.Name(), depth+1) {
				continue
			}
			if target, err := filepath.EvalSymlinks(path); err == nil && w.active[target] {
				continue
			}
			w.walk(path, depth+1)
		case mode.IsRegular():
			if w.matches(e.Name()) {
				w.result.Files = append(w.result.Files, path)
			}
		}
	}
}

func (w *walker) skipDir(name string, depth int) bool {
	if w.exclude[name] || (!w.opts.IncludeHidden && strings.HasPrefix(name, ".")) {
		return true
	}
	if !w.opts.Recursive {
		return true
	}
	return w.opts.MaxDepth > 0 && depth >= w.opts.MaxDepth
}

func (w *walker) matches(filename string) bool {
	if len(w.exts) > 0 && !w.exts[strings.ToLower(filepath.Ext(filename))] {
		return false
	}
	if w.pattern != nil {
		nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))
		if !w.pattern.MatchString(nameWithoutExt) {
			return false
		}
	}
	return true
}

// ScanError records a path the scanner could not read.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("error accessing %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// CollectRelativePaths returns every regular file below root as a sorted,
// slash-separated path relative to root. Hidden entries are included. Any
// directory that cannot be listed fails the whole collection.
func CollectRelativePaths(root string, excludeDirs ...string) ([]string, error) {
	result, err := ScanDirectory(root, ScanOptions{
		Recursive:     true,
		IncludeHidden: true,
		ExcludeDirs:   excludeDirs,
	})
	if err != nil {
		return nil, fmt.Errorf("%s does not exist: %w", root, err)
	}
	if len(result.Errors) > 0 {
		var scanErr *ScanError
		if errors.As(result.Errors[0], &scanErr) {
			return nil, fmt.Errorf("%s does not exist: %w", scanErr.Path, scanErr.Err)
		}
		return nil, result.Errors[0]
	}
	return result.RelativePaths(), nil
}
