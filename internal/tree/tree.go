// Package tree prints a directory as indented text with a checksum per file,
// followed by rendered content for selected files.
package tree

import (
	"context"
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Indent is added once per nesting level.
const Indent = "    "

// ContentRenderer turns a file into the text appended for interesting paths.
type ContentRenderer interface {
	Render(ctx context.Context, path string) (string, error)
}

// RendererFunc adapts a function to ContentRenderer.
type RendererFunc func(ctx context.Context, path string) (string, error)

// Render implements ContentRenderer.
func (f RendererFunc) Render(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Checksum returns the IEEE CRC-32 of data.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Printer prints directory trees.
type Printer struct {
	Renderer ContentRenderer

	// ExcludeDirs are directory names left out of the listing.
	ExcludeDirs []string
}

// Print is shorthand for a Printer without exclusions.
func Print(ctx context.Context, root string, interesting []string, r ContentRenderer) (string, error) {
	p := &Printer{Renderer: r}
	return p.Print(ctx, root, interesting)
}

// Print lists root and then appends the rendered content of each interesting
// path. Interesting paths are slash-separated and relative to root.
func (p *Printer) Print(ctx context.Context, root string, interesting []string) (string, error) {
	var b strings.Builder
	b.WriteString(".\n")
	if err := p.listDir(ctx, &b, root, Indent, map[string]bool{}); err != nil {
		return "", err
	}

	for _, rel := range interesting {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		content, err := p.render(ctx, filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return "", fmt.Errorf("failed to render %s: %w", rel, err)
		}
		fmt.Fprintf(&b, "================ %s ================\n", rel)
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

func (p *Printer) render(ctx context.Context, file string) (string, error) {
	if p.Renderer == nil {
		data, err := os.ReadFile(file)
		return string(data), err
	}
	return p.Renderer.Render(ctx, file)
}

func (p *Printer) excluded(name string) bool {
	for _, d := range p.ExcludeDirs {
		if d == name {
			return true
		}
	}
	return false
}

// listDir follows symbolic links. A link back to a directory that is still
// being listed is printed but not entered again.
func (p *Printer) listDir(ctx context.Context, b *strings.Builder, dir, indent string, active map[string]bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%s does not exist: %w", dir, err)
	}
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("%s does not exist: %w", dir, err)
	}
	active[real] = true
	defer delete(active, real)

	var dirs, files []string
	for _, e := range entries {
		isDir := e.IsDir()
		if e.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(dir, e.Name()))
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path.Join(filepath.ToSlash(dir), e.Name()), err)
			}
			isDir = info.IsDir()
		}
		if isDir {
			if !p.excluded(e.Name()) {
				dirs = append(dirs, e.Name())
			}
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(dirs)
	sort.Strings(files)

	for _, name := range dirs {
		b.WriteString(indent + name + "\n")
		sub := filepath.Join(dir, name)
		if target, err := filepath.EvalSymlinks(sub); err == nil && active[target] {
			continue
		}
		if err := p.listDir(ctx, b, sub, indent+Indent, active); err != nil {
			return err
		}
	}
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path.Join(filepath.ToSlash(dir), name), err)
		}
		fmt.Fprintf(b, "%s%s %d\n", indent, name, Checksum(data))
	}
	return nil
}
