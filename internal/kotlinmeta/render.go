package kotlinmeta

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// DefaultVersion is the newest metadata version the default decoder reads.
var DefaultVersion = Version{Major: 2, Minor: 1, Patch: 0}

// Decoder renders metadata headers.
type Decoder struct {
	// Current is the newest metadata version this decoder supports.
	Current  Version
	Schemas  *Schemas
	Registry *Registry
}

// NewDecoder returns a Decoder with the default schemas and JVM extensions.
func NewDecoder(current Version) *Decoder {
	schemas, reg := DefaultSchemas()
	return &Decoder{Current: current, Schemas: schemas, Registry: reg}
}

// Render returns the sections appended after a class listing. Headers
// without d1 data render as the empty string.
func (d *Decoder) Render(h *Header) (string, error) {
	if h == nil || len(h.Data) == 0 {
		return "", nil
	}

	if h.Kind == KindMultiFileClassFacade {
		if !h.MetadataVersion.IsCompatible(d.Current) {
			return "", d.incompatible(h)
		}
		var b strings.Builder
		b.WriteString("\n------ multi-file facade parts -----\n")
		for _, part := range h.Data {
			b.WriteString(part)
			b.WriteByte('\n')
		}
		return b.String(), nil
	}

	data, err := DecodeBytes(h.Data)
	if err != nil {
		return "", err
	}
	table, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return "", malformed("string table", n)
	}
	rest := data[n:]

	var b strings.Builder
	dump, err := Dump(table, d.Schemas.StringTableTypes, d.Registry)
	if err != nil {
		return "", fmt.Errorf("string table: %w", err)
	}
	b.WriteString("\n------ string table types proto -----\n")
	b.WriteString(dump)

	if !h.MetadataVersion.IsCompatible(d.Current) {
		return "", d.incompatible(h)
	}

	var title string
	var schema *Schema
	switch h.Kind {
	case KindFileFacade:
		title, schema = "file facade proto", d.Schemas.Package
	case KindClass:
		title, schema = "class proto", d.Schemas.Class
	case KindMultiFileClassPart:
		title, schema = "multi-file part proto", d.Schemas.Package
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, h.Kind)
	}
	dump, err = Dump(rest, schema, d.Registry)
	if err != nil {
		return "", fmt.Errorf("%s: %w", title, err)
	}
	b.WriteString("\n------ " + title + " -----\n")
	b.WriteString(dump)
	return b.String(), nil
}

func (d *Decoder) incompatible(h *Header) error {
	return fmt.Errorf("%w: %s, supported up to %s", ErrIncompatibleVersion, h, d.Current)
}
