// Package classfile reads JVM class files.
//
// The reader covers what outcmp needs to print a class deterministically: the
// constant pool, class header, fields, methods and their attributes. Attribute
// bodies are kept raw and decoded on demand (Code, annotations, SourceFile,
// Signature, Exceptions, InnerClasses).
package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformed is returned for any structurally invalid class file.
var ErrMalformed = errors.New("malformed class file")

// Magic is the class file signature.
const Magic = 0xCAFEBABE

// ClassFile is a parsed class file.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	Pool         ConstantPool
	AccessFlags  uint16
	ThisClass    string
	// SuperClass is empty for java/lang/Object and module-info.
	SuperClass string
	Interfaces []string
	Fields     []Member
	Methods    []Member
	Attributes []Attribute
}

// Member is a field or a method.
type Member struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Attributes  []Attribute
}

// Attribute is a named raw attribute body.
type Attribute struct {
	Name string
	Data []byte
}

// Parse decodes a class file.
func Parse(data []byte) (*ClassFile, error) {
	r := &reader{buf: data}
	if m := r.u4(); r.err == nil && m != Magic {
		return nil, fmt.Errorf("%w: bad magic 0x%08X", ErrMalformed, m)
	}

	cf := &ClassFile{}
	cf.MinorVersion = r.u2()
	cf.MajorVersion = r.u2()
	if r.err != nil {
		return nil, r.err
	}

	pool, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}
	cf.Pool = pool

	cf.AccessFlags = r.u2()
	thisIdx := r.u2()
	superIdx := r.u2()
	if r.err != nil {
		return nil, r.err
	}
	if cf.ThisClass, err = pool.ClassName(thisIdx); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	if superIdx != 0 {
		if cf.SuperClass, err = pool.ClassName(superIdx); err != nil {
			return nil, fmt.Errorf("super_class: %w", err)
		}
	}

	count := int(r.u2())
	for i := 0; i < count && r.err == nil; i++ {
		name, err := pool.ClassName(r.u2())
		if err != nil {
			return nil, fmt.Errorf("interface %d: %w", i, err)
		}
		cf.Interfaces = append(cf.Interfaces, name)
	}

	if cf.Fields, err = readMembers(r, pool); err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}
	if cf.Methods, err = readMembers(r, pool); err != nil {
		return nil, fmt.Errorf("methods: %w", err)
	}
	if cf.Attributes, err = readAttributes(r, pool); err != nil {
		return nil, fmt.Errorf("class attributes: %w", err)
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(r.buf) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(r.buf)-r.off)
	}
	return cf, nil
}

func readMembers(r *reader, pool ConstantPool) ([]Member, error) {
	count := int(r.u2())
	members := make([]Member, 0, count)
	for i := 0; i < count; i++ {
		m := Member{AccessFlags: r.u2()}
		nameIdx, descIdx := r.u2(), r.u2()
		if r.err != nil {
			return nil, r.err
		}
		var err error
		if m.Name, err = pool.Utf8(nameIdx); err != nil {
			return nil, err
		}
		if m.Descriptor, err = pool.Utf8(descIdx); err != nil {
			return nil, err
		}
		if m.Attributes, err = readAttributes(r, pool); err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name, err)
		}
		members = append(members, m)
	}
	return members, r.err
}

func readAttributes(r *reader, pool ConstantPool) ([]Attribute, error) {
	count := int(r.u2())
	var attrs []Attribute
	for i := 0; i < count; i++ {
		nameIdx := r.u2()
		length := r.u4()
		body := r.bytes(int(length))
		if r.err != nil {
			return nil, r.err
		}
		name, err := pool.Utf8(nameIdx)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, Attribute{Name: name, Data: body})
	}
	return attrs, r.err
}

// FindAttribute returns the first attribute with the given name.
func FindAttribute(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// SourceFile returns the SourceFile attribute value, or "" if absent.
func (cf *ClassFile) SourceFile() (string, error) {
	a, ok := FindAttribute(cf.Attributes, "SourceFile")
	if !ok {
		return "", nil
	}
	r := &reader{buf: a.Data}
	idx := r.u2()
	if r.err != nil {
		return "", r.err
	}
	return cf.Pool.Utf8(idx)
}

// Signature returns the generic Signature attribute value, or "" if absent.
func (cf *ClassFile) Signature(attrs []Attribute) (string, error) {
	a, ok := FindAttribute(attrs, "Signature")
	if !ok {
		return "", nil
	}
	r := &reader{buf: a.Data}
	idx := r.u2()
	if r.err != nil {
		return "", r.err
	}
	return cf.Pool.Utf8(idx)
}

// Exceptions returns the checked exceptions declared by a method.
func (cf *ClassFile) Exceptions(attrs []Attribute) ([]string, error) {
	a, ok := FindAttribute(attrs, "Exceptions")
	if !ok {
		return nil, nil
	}
	r := &reader{buf: a.Data}
	n := int(r.u2())
	var out []string
	for i := 0; i < n; i++ {
		name, err := cf.Pool.ClassName(r.u2())
		if r.err != nil {
			return nil, r.err
		}
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

// InnerClass is one InnerClasses attribute entry.
type InnerClass struct {
	Inner       string
	Outer       string
	Name        string
	AccessFlags uint16
}

// InnerClasses decodes the class-level InnerClasses attribute.
func (cf *ClassFile) InnerClasses() ([]InnerClass, error) {
	a, ok := FindAttribute(cf.Attributes, "InnerClasses")
	if !ok {
		return nil, nil
	}
	r := &reader{buf: a.Data}
	n := int(r.u2())
	var out []InnerClass
	for i := 0; i < n; i++ {
		innerIdx, outerIdx, nameIdx, flags := r.u2(), r.u2(), r.u2(), r.u2()
		if r.err != nil {
			return nil, r.err
		}
		ic := InnerClass{AccessFlags: flags}
		var err error
		if ic.Inner, err = cf.Pool.ClassName(innerIdx); err != nil {
			return nil, err
		}
		if outerIdx != 0 {
			if ic.Outer, err = cf.Pool.ClassName(outerIdx); err != nil {
				return nil, err
			}
		}
		if nameIdx != 0 {
			if ic.Name, err = cf.Pool.Utf8(nameIdx); err != nil {
				return nil, err
			}
		}
		out = append(out, ic)
	}
	return out, nil
}

// reader is a bounds-checked big-endian cursor. The first failure sticks and
// every later read returns zero values.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.err = fmt.Errorf("%w: unexpected end of data at offset %d", ErrMalformed, r.off)
		return false
	}
	return true
}

func (r *reader) u1() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) u8() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v
}
