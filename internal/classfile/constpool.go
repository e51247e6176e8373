package classfile

import (
	"fmt"
	"math"
	"strconv"
)

// Constant pool tags.
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// Constant is one constant pool entry. Which fields are meaningful depends on
// Tag: Str for Utf8, Int for Integer and Long, Float for Float and Double,
// Ref1/Ref2 for the reference kinds (class index, name-and-type index,
// descriptor index, bootstrap index), Kind for MethodHandle.
type Constant struct {
	Tag   uint8
	Str   string
	Int   int64
	Float float64
	Ref1  uint16
	Ref2  uint16
	Kind  uint8
}

// ConstantPool is indexed the way the class file indexes it: entry 0 is
// unused and the slot after a Long or Double is empty.
type ConstantPool []Constant

func readConstantPool(r *reader) (ConstantPool, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: empty constant pool", ErrMalformed)
	}
	pool := make(ConstantPool, count)
	for i := 1; i < count; i++ {
		c := Constant{Tag: r.u1()}
		switch c.Tag {
		case TagUtf8:
			n := int(r.u2())
			raw := r.bytes(n)
			if r.err != nil {
				return nil, r.err
			}
			s, err := DecodeModifiedUTF8(raw)
			if err != nil {
				return nil, fmt.Errorf("constant #%d: %w", i, err)
			}
			c.Str = s
		case TagInteger:
			c.Int = int64(int32(r.u4()))
		case TagFloat:
			c.Float = float64(math.Float32frombits(r.u4()))
		case TagLong:
			c.Int = int64(r.u8())
		case TagDouble:
			c.Float = math.Float64frombits(r.u8())
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			c.Ref1 = r.u2()
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			c.Ref1 = r.u2()
			c.Ref2 = r.u2()
		case TagMethodHandle:
			c.Kind = r.u1()
			c.Ref1 = r.u2()
		default:
			if r.err != nil {
				return nil, r.err
			}
			return nil, fmt.Errorf("%w: constant #%d has unknown tag %d", ErrMalformed, i, c.Tag)
		}
		if r.err != nil {
			return nil, r.err
		}
		pool[i] = c
		if c.Tag == TagLong || c.Tag == TagDouble {
			i++
		}
	}
	return pool, nil
}

func (p ConstantPool) entry(idx uint16, tags ...uint8) (Constant, error) {
	if idx == 0 || int(idx) >= len(p) {
		return Constant{}, fmt.Errorf("%w: constant index %d out of range", ErrMalformed, idx)
	}
	c := p[idx]
	for _, t := range tags {
		if c.Tag == t {
			return c, nil
		}
	}
	return Constant{}, fmt.Errorf("%w: constant #%d has tag %d, want %v", ErrMalformed, idx, c.Tag, tags)
}

// Utf8 returns the string of a CONSTANT_Utf8 entry.
func (p ConstantPool) Utf8(idx uint16) (string, error) {
	c, err := p.entry(idx, TagUtf8)
	if err != nil {
		return "", err
	}
	return c.Str, nil
}

// ClassName returns the internal name of a CONSTANT_Class entry.
func (p ConstantPool) ClassName(idx uint16) (string, error) {
	c, err := p.entry(idx, TagClass)
	if err != nil {
		return "", err
	}
	return p.Utf8(c.Ref1)
}

// NameAndType returns the name and descriptor of a CONSTANT_NameAndType entry.
func (p ConstantPool) NameAndType(idx uint16) (name, desc string, err error) {
	c, err := p.entry(idx, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = p.Utf8(c.Ref1); err != nil {
		return "", "", err
	}
	desc, err = p.Utf8(c.Ref2)
	return name, desc, err
}

// MemberRef resolves a field, method or interface method reference.
func (p ConstantPool) MemberRef(idx uint16) (owner, name, desc string, err error) {
	c, err := p.entry(idx, TagFieldref, TagMethodref, TagInterfaceMethodref)
	if err != nil {
		return "", "", "", err
	}
	if owner, err = p.ClassName(c.Ref1); err != nil {
		return "", "", "", err
	}
	name, desc, err = p.NameAndType(c.Ref2)
	return owner, name, desc, err
}

var handleKinds = map[uint8]string{
	1: "getField",
	2: "getStatic",
	3: "putField",
	4: "putStatic",
	5: "invokeVirtual",
	6: "invokeStatic",
	7: "invokeSpecial",
	8: "newInvokeSpecial",
	9: "invokeInterface",
}

// Describe renders a loadable constant or reference as text that does not
// depend on the constant's position in the pool.
func (p ConstantPool) Describe(idx uint16) (string, error) {
	if idx == 0 || int(idx) >= len(p) {
		return "", fmt.Errorf("%w: constant index %d out of range", ErrMalformed, idx)
	}
	c := p[idx]
	switch c.Tag {
	case TagUtf8:
		return strconv.Quote(c.Str), nil
	case TagInteger:
		return "int " + strconv.FormatInt(c.Int, 10), nil
	case TagLong:
		return "long " + strconv.FormatInt(c.Int, 10) + "L", nil
	case TagFloat:
		return "float " + strconv.FormatFloat(c.Float, 'g', -1, 32) + "f", nil
	case TagDouble:
		return "double " + strconv.FormatFloat(c.Float, 'g', -1, 64), nil
	case TagClass:
		name, err := p.Utf8(c.Ref1)
		return "class " + name, err
	case TagString:
		s, err := p.Utf8(c.Ref1)
		return "String " + strconv.Quote(s), err
	case TagMethodType:
		s, err := p.Utf8(c.Ref1)
		return "MethodType " + s, err
	case TagModule:
		s, err := p.Utf8(c.Ref1)
		return "module " + s, err
	case TagPackage:
		s, err := p.Utf8(c.Ref1)
		return "package " + s, err
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		owner, name, desc, err := p.MemberRef(idx)
		if err != nil {
			return "", err
		}
		return owner + "." + name + " " + desc, nil
	case TagNameAndType:
		name, desc, err := p.NameAndType(idx)
		return name + " " + desc, err
	case TagMethodHandle:
		ref, err := p.Describe(c.Ref1)
		if err != nil {
			return "", err
		}
		return "MethodHandle " + handleKinds[c.Kind] + " " + ref, nil
	case TagDynamic, TagInvokeDynamic:
		name, desc, err := p.NameAndType(c.Ref2)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s [bootstrap %d]", name, desc, c.Ref1), nil
	}
	return "", fmt.Errorf("%w: constant #%d is empty", ErrMalformed, idx)
}
