// Package render turns build output files into text. Class files become a
// disassembly listing followed by a dump of their Kotlin metadata; every
// other file is returned as is.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/harrison/outcmp/internal/classfile"
	"github.com/harrison/outcmp/internal/kotlinmeta"
)

// DefaultClassExtensions lists the suffixes treated as class files.
var DefaultClassExtensions = []string{".class"}

// Renderer renders files for the tree printer.
// Safe for concurrent use once configured.
type Renderer struct {
	// ClassExtensions are the file name suffixes decoded as class files.
	ClassExtensions []string

	// Disassembler produces the class listing.
	Disassembler Disassembler

	// Metadata renders the kotlin.Metadata annotation.
	Metadata *kotlinmeta.Decoder
}

// NewRenderer returns a Renderer using the built-in disassembler and the
// default metadata version.
func NewRenderer() *Renderer {
	return &Renderer{
		ClassExtensions: DefaultClassExtensions,
		Disassembler:    BuiltinDisassembler{},
		Metadata:        kotlinmeta.NewDecoder(kotlinmeta.DefaultVersion),
	}
}

// IsClassFile reports whether name is rendered as a class file.
func (r *Renderer) IsClassFile(name string) bool {
	for _, ext := range r.ClassExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Render implements tree.ContentRenderer.
func (r *Renderer) Render(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !r.IsClassFile(path) {
		return string(data), nil
	}
	return r.renderClass(ctx, path, data)
}

func (r *Renderer) renderClass(ctx context.Context, path string, data []byte) (string, error) {
	cf, err := classfile.Parse(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	dis := r.Disassembler
	if dis == nil {
		dis = BuiltinDisassembler{}
	}
	listing, err := dis.Disassemble(ctx, path, cf)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	header, err := kotlinmeta.ReadHeader(cf)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	meta := r.Metadata
	if meta == nil {
		meta = kotlinmeta.NewDecoder(kotlinmeta.DefaultVersion)
	}
	sections, err := meta.Render(header)
	if errors.Is(err, kotlinmeta.ErrIncompatibleVersion) {
		return "", fmt.Errorf("incompatible class (%s): %s: %w", header, path, err)
	}
	if err != nil {
		return "", fmt.Errorf("class (%s): %s: %w", header, path, err)
	}
	return listing + sections, nil
}
