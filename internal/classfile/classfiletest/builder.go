// Package classfiletest builds small class files for tests.
package classfiletest

import (
	"encoding/binary"
	"fmt"

	"github.com/harrison/outcmp/internal/classfile"
)

// Builder assembles a class file. Constant pool entries are deduplicated.
type Builder struct {
	Major  uint16
	Access uint16

	pool      []byte
	poolCount uint16
	index     map[string]uint16

	this       uint16
	super      uint16
	interfaces []uint16
	fields     [][]byte
	methods    [][]byte
	attrs      [][]byte
}

// New starts a public class named name extending java/lang/Object.
func New(name string) *Builder {
	b := &Builder{
		Major:     52,
		Access:    classfile.AccPublic | classfile.AccSuper,
		poolCount: 1,
		index:     make(map[string]uint16),
	}
	b.this = b.Class(name)
	b.super = b.Class("java/lang/Object")
	return b
}

// Extends sets the superclass.
func (b *Builder) Extends(name string) *Builder {
	b.super = b.Class(name)
	return b
}

// Implements adds an interface.
func (b *Builder) Implements(name string) *Builder {
	b.interfaces = append(b.interfaces, b.Class(name))
	return b
}

func (b *Builder) add(key string, entry []byte, slots uint16) uint16 {
	if idx, ok := b.index[key]; ok {
		return idx
	}
	idx := b.poolCount
	b.pool = append(b.pool, entry...)
	b.poolCount += slots
	b.index[key] = idx
	return idx
}

// Utf8 adds a CONSTANT_Utf8.
func (b *Builder) Utf8(s string) uint16 {
	enc := classfile.EncodeModifiedUTF8(s)
	entry := []byte{classfile.TagUtf8}
	entry = binary.BigEndian.AppendUint16(entry, uint16(len(enc)))
	entry = append(entry, enc...)
	return b.add("utf8:"+s, entry, 1)
}

// Class adds a CONSTANT_Class.
func (b *Builder) Class(name string) uint16 {
	n := b.Utf8(name)
	return b.add("class:"+name, u2Entry(classfile.TagClass, n), 1)
}

// String adds a CONSTANT_String.
func (b *Builder) String(s string) uint16 {
	n := b.Utf8(s)
	return b.add("string:"+s, u2Entry(classfile.TagString, n), 1)
}

// Integer adds a CONSTANT_Integer.
func (b *Builder) Integer(v int32) uint16 {
	entry := binary.BigEndian.AppendUint32([]byte{classfile.TagInteger}, uint32(v))
	return b.add(fmt.Sprintf("int:%d", v), entry, 1)
}

// Long adds a CONSTANT_Long, which takes two pool slots.
func (b *Builder) Long(v int64) uint16 {
	entry := binary.BigEndian.AppendUint64([]byte{classfile.TagLong}, uint64(v))
	return b.add(fmt.Sprintf("long:%d", v), entry, 2)
}

// NameAndType adds a CONSTANT_NameAndType.
func (b *Builder) NameAndType(name, desc string) uint16 {
	n, d := b.Utf8(name), b.Utf8(desc)
	entry := binary.BigEndian.AppendUint16(u2Entry(classfile.TagNameAndType, n), d)
	return b.add("nat:"+name+":"+desc, entry, 1)
}

func (b *Builder) memberRef(tag uint8, owner, name, desc string) uint16 {
	c, nt := b.Class(owner), b.NameAndType(name, desc)
	entry := binary.BigEndian.AppendUint16(u2Entry(tag, c), nt)
	return b.add(fmt.Sprintf("ref%d:%s.%s:%s", tag, owner, name, desc), entry, 1)
}

// Fieldref adds a CONSTANT_Fieldref.
func (b *Builder) Fieldref(owner, name, desc string) uint16 {
	return b.memberRef(classfile.TagFieldref, owner, name, desc)
}

// Methodref adds a CONSTANT_Methodref.
func (b *Builder) Methodref(owner, name, desc string) uint16 {
	return b.memberRef(classfile.TagMethodref, owner, name, desc)
}

func u2Entry(tag uint8, v uint16) []byte {
	return binary.BigEndian.AppendUint16([]byte{tag}, v)
}

func (b *Builder) attribute(name string, body []byte) []byte {
	out := binary.BigEndian.AppendUint16(nil, b.Utf8(name))
	out = binary.BigEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}

func member(access, name, desc uint16, attrs [][]byte) []byte {
	out := binary.BigEndian.AppendUint16(nil, access)
	out = binary.BigEndian.AppendUint16(out, name)
	out = binary.BigEndian.AppendUint16(out, desc)
	out = binary.BigEndian.AppendUint16(out, uint16(len(attrs)))
	for _, a := range attrs {
		out = append(out, a...)
	}
	return out
}

// Field adds a field without attributes.
func (b *Builder) Field(access uint16, name, desc string) *Builder {
	b.fields = append(b.fields, member(access, b.Utf8(name), b.Utf8(desc), nil))
	return b
}

// Method adds a method with a Code attribute. A nil code adds an abstract
// method without one.
func (b *Builder) Method(access uint16, name, desc string, maxStack, maxLocals uint16, code []byte) *Builder {
	var attrs [][]byte
	if code != nil {
		body := binary.BigEndian.AppendUint16(nil, maxStack)
		body = binary.BigEndian.AppendUint16(body, maxLocals)
		body = binary.BigEndian.AppendUint32(body, uint32(len(code)))
		body = append(body, code...)
		body = binary.BigEndian.AppendUint16(body, 0) // exception table
		body = binary.BigEndian.AppendUint16(body, 0) // attributes
		attrs = append(attrs, b.attribute("Code", body))
	}
	b.methods = append(b.methods, member(access, b.Utf8(name), b.Utf8(desc), attrs))
	return b
}

// DefaultConstructor adds "public <init>()V" calling the superclass.
func (b *Builder) DefaultConstructor() *Builder {
	ref := b.Methodref("java/lang/Object", "<init>", "()V")
	code := []byte{0x2a, 0xb7, byte(ref >> 8), byte(ref), 0xb1}
	return b.Method(classfile.AccPublic, "<init>", "()V", 1, 1, code)
}

// SourceFile adds a SourceFile attribute.
func (b *Builder) SourceFile(name string) *Builder {
	body := binary.BigEndian.AppendUint16(nil, b.Utf8(name))
	b.attrs = append(b.attrs, b.attribute("SourceFile", body))
	return b
}

// Metadata describes a kotlin.Metadata annotation.
type Metadata struct {
	Kind    int
	Version []int
	Data    []string
	Strings []string
	Extra   int
}

// KotlinMetadata adds a RuntimeVisibleAnnotations attribute carrying
// kotlin.Metadata.
func (b *Builder) KotlinMetadata(m Metadata) *Builder {
	body := binary.BigEndian.AppendUint16(nil, 1)
	body = binary.BigEndian.AppendUint16(body, b.Utf8("Lkotlin/Metadata;"))

	var pairs [][]byte
	pair := func(name string, value []byte) {
		p := binary.BigEndian.AppendUint16(nil, b.Utf8(name))
		pairs = append(pairs, append(p, value...))
	}
	intValue := func(v int) []byte {
		return binary.BigEndian.AppendUint16([]byte{'I'}, b.Integer(int32(v)))
	}
	pair("k", intValue(m.Kind))
	mv := binary.BigEndian.AppendUint16([]byte{'['}, uint16(len(m.Version)))
	for _, v := range m.Version {
		mv = append(mv, intValue(v)...)
	}
	pair("mv", mv)
	strs := func(ss []string) []byte {
		out := binary.BigEndian.AppendUint16([]byte{'['}, uint16(len(ss)))
		for _, s := range ss {
			out = binary.BigEndian.AppendUint16(append(out, 's'), b.Utf8(s))
		}
		return out
	}
	if m.Data != nil {
		pair("d1", strs(m.Data))
	}
	if m.Strings != nil {
		pair("d2", strs(m.Strings))
	}
	if m.Extra != 0 {
		pair("xi", intValue(m.Extra))
	}

	body = binary.BigEndian.AppendUint16(body, uint16(len(pairs)))
	for _, p := range pairs {
		body = append(body, p...)
	}
	b.attrs = append(b.attrs, b.attribute("RuntimeVisibleAnnotations", body))
	return b
}

// Bytes serializes the class file.
func (b *Builder) Bytes() []byte {
	out := binary.BigEndian.AppendUint32(nil, classfile.Magic)
	out = binary.BigEndian.AppendUint16(out, 0)
	out = binary.BigEndian.AppendUint16(out, b.Major)
	out = binary.BigEndian.AppendUint16(out, b.poolCount)
	out = append(out, b.pool...)
	out = binary.BigEndian.AppendUint16(out, b.Access)
	out = binary.BigEndian.AppendUint16(out, b.this)
	out = binary.BigEndian.AppendUint16(out, b.super)
	out = binary.BigEndian.AppendUint16(out, uint16(len(b.interfaces)))
	for _, i := range b.interfaces {
		out = binary.BigEndian.AppendUint16(out, i)
	}
	for _, group := range [][][]byte{b.fields, b.methods} {
		out = binary.BigEndian.AppendUint16(out, uint16(len(group)))
		for _, m := range group {
			out = append(out, m...)
		}
	}
	out = binary.BigEndian.AppendUint16(out, uint16(len(b.attrs)))
	for _, a := range b.attrs {
		out = append(out, a...)
	}
	return out
}
