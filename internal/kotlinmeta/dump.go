package kotlinmeta

import (
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// Dump prints a serialized message in protobuf text format. Fields known to
// s or to reg print by name; others print by number, with length-delimited
// payloads shown as nested messages when they parse as one.
func Dump(data []byte, s *Schema, reg *Registry) (string, error) {
	d := &dumper{reg: reg}
	if err := d.message(data, s, 0); err != nil {
		return "", err
	}
	return d.b.String(), nil
}

type dumper struct {
	b   strings.Builder
	reg *Registry
}

func (d *dumper) line(indent int, format string, args ...interface{}) {
	d.b.WriteString(strings.Repeat("  ", indent))
	fmt.Fprintf(&d.b, format, args...)
	d.b.WriteByte('\n')
}

func malformed(what string, n int) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, what, protowire.ParseError(n))
}

func (d *dumper) message(b []byte, s *Schema, indent int) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return malformed("tag", n)
		}
		b = b[n:]

		f, known := s.field(num)
		if !known {
			f, known = d.reg.lookup(s, num)
		}
		name := f.Name
		if !known {
			name = strconv.Itoa(int(num))
		}

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return malformed(name, n)
			}
			b = b[n:]
			d.scalar(indent, name, f, known, v)
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return malformed(name, n)
			}
			b = b[n:]
			d.line(indent, "%s: 0x%08x", name, v)
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return malformed(name, n)
			}
			b = b[n:]
			d.line(indent, "%s: 0x%016x", name, v)
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return malformed(name, n)
			}
			b = b[n:]
			if err := d.bytesField(indent, name, f, known, v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: field %s has unsupported wire type %d", ErrMalformed, name, typ)
		}
	}
	return nil
}

func (d *dumper) scalar(indent int, name string, f Field, known bool, v uint64) {
	if !known {
		d.line(indent, "%s: %d", name, v)
		return
	}
	switch f.Type {
	case TypeBool:
		d.line(indent, "%s: %t", name, v != 0)
	case TypeEnum:
		if label, ok := f.Enum[int32(v)]; ok {
			d.line(indent, "%s: %s", name, label)
		} else {
			d.line(indent, "%s: %d", name, int32(v))
		}
	default:
		d.line(indent, "%s: %d", name, int32(v))
	}
}

func (d *dumper) bytesField(indent int, name string, f Field, known bool, v []byte) error {
	if known {
		switch f.Type {
		case TypeMessage:
			return d.nested(indent, name, v, f.Message)
		case TypeString:
			d.line(indent, "%s: \"%s\"", name, escapeBytes(v))
			return nil
		case TypePackedInt32:
			for len(v) > 0 {
				x, n := protowire.ConsumeVarint(v)
				if n < 0 {
					return malformed(name, n)
				}
				v = v[n:]
				d.line(indent, "%s: %d", name, int32(x))
			}
			return nil
		}
	}
	if len(v) > 0 && isMessage(v) {
		return d.nested(indent, name, v, nil)
	}
	d.line(indent, "%s: \"%s\"", name, escapeBytes(v))
	return nil
}

func (d *dumper) nested(indent int, name string, v []byte, s *Schema) error {
	d.line(indent, "%s {", name)
	if err := d.message(v, s, indent+1); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	d.line(indent, "}")
	return nil
}

// isMessage reports whether b parses completely as a sequence of fields.
func isMessage(b []byte) bool {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 || num < 1 || typ == protowire.StartGroupType || typ == protowire.EndGroupType {
			return false
		}
		b = b[n:]
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return false
		}
		b = b[m:]
	}
	return true
}

// escapeBytes follows protobuf text format: C escapes for control and quote
// characters, three-digit octal for anything outside printable ASCII.
func escapeBytes(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		switch c {
		case '\a':
			sb.WriteString(`\a`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\v':
			sb.WriteString(`\v`)
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '"':
			sb.WriteString(`\"`)
		default:
			if c >= 0x20 && c < 0x7F {
				sb.WriteByte(c)
			} else {
				fmt.Fprintf(&sb, "\\%03o", c)
			}
		}
	}
	return sb.String()
}
