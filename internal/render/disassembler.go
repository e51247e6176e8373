package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/harrison/outcmp/internal/classfile"
)

// Disassembler produces a listing for a class file.
type Disassembler interface {
	Disassemble(ctx context.Context, path string, cf *classfile.ClassFile) (string, error)
}

// BuiltinDisassembler prints classes with classfile.Textify.
type BuiltinDisassembler struct{}

// Disassemble implements Disassembler.
func (BuiltinDisassembler) Disassemble(_ context.Context, _ string, cf *classfile.ClassFile) (string, error) {
	return classfile.Textify(cf)
}

// JavapDisassembler runs the JDK's javap tool.
type JavapDisassembler struct {
	// Path is the javap binary. Defaults to "javap" (found in PATH).
	Path string

	// Args are passed before the class file path.
	Args []string

	// Timeout bounds one invocation. Zero means no timeout.
	Timeout time.Duration
}

// DefaultJavapArgs prints code, private members and internal signatures.
var DefaultJavapArgs = []string{"-c", "-p", "-s"}

// NewJavapDisassembler creates a JavapDisassembler with default settings.
func NewJavapDisassembler() *JavapDisassembler {
	return &JavapDisassembler{
		Path:    "javap",
		Args:    DefaultJavapArgs,
		Timeout: 30 * time.Second,
	}
}

// Disassemble implements Disassembler.
func (j *JavapDisassembler) Disassemble(ctx context.Context, path string, _ *classfile.ClassFile) (string, error) {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	bin := j.Path
	if bin == "" {
		bin = "javap"
	}
	args := append(append([]string{}, j.Args...), path)
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("javap %s: %w", path, ctx.Err())
		}
		return "", fmt.Errorf("javap %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return stripJavapHeader(stdout.String()), nil
}

// stripJavapHeader drops the lines javap prints about the file itself, which
// differ between two output directories holding the same class.
func stripJavapHeader(out string) string {
	lines := strings.Split(out, "\n")
	kept := lines[:0]
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, "Classfile ") ||
			strings.HasPrefix(trimmed, "Last modified ") ||
			strings.HasPrefix(trimmed, "MD5 checksum ") ||
			strings.HasPrefix(trimmed, "SHA-256 checksum ") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}
