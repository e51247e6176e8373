package classfile

import (
	"fmt"
	"strconv"
	"strings"
)

// Annotation is a decoded annotation structure.
type Annotation struct {
	// Type is the field descriptor of the annotation interface,
	// e.g. "Lkotlin/Metadata;".
	Type     string
	Elements []ElementPair
}

// ElementPair is one name=value pair of an annotation.
type ElementPair struct {
	Name  string
	Value ElementValue
}

// ElementValue is an annotation element value. Tag selects the meaningful
// field, using the class file tag characters:
//
//	B C I S Z J -> Int
//	F D         -> Float
//	s           -> Str
//	e           -> EnumType, Str
//	c           -> Str (return descriptor)
//	@           -> Annotation
//	[           -> Array
type ElementValue struct {
	Tag        byte
	Int        int64
	Float      float64
	Str        string
	EnumType   string
	Annotation *Annotation
	Array      []ElementValue
}

// Element returns the value of the named element.
func (a *Annotation) Element(name string) (ElementValue, bool) {
	for _, e := range a.Elements {
		if e.Name == name {
			return e.Value, true
		}
	}
	return ElementValue{}, false
}

// Strings returns the value as a string slice. A single 's' value is treated
// as a one-element array.
func (v ElementValue) Strings() ([]string, error) {
	switch v.Tag {
	case 's':
		return []string{v.Str}, nil
	case '[':
		out := make([]string, 0, len(v.Array))
		for _, e := range v.Array {
			if e.Tag != 's' {
				return nil, fmt.Errorf("array element has tag %q, want 's'", e.Tag)
			}
			out = append(out, e.Str)
		}
		return out, nil
	}
	return nil, fmt.Errorf("element has tag %q, want string array", v.Tag)
}

// Ints returns the value as an int slice.
func (v ElementValue) Ints() ([]int, error) {
	switch v.Tag {
	case 'B', 'C', 'I', 'S', 'Z', 'J':
		return []int{int(v.Int)}, nil
	case '[':
		out := make([]int, 0, len(v.Array))
		for _, e := range v.Array {
			switch e.Tag {
			case 'B', 'C', 'I', 'S', 'Z', 'J':
				out = append(out, int(e.Int))
			default:
				return nil, fmt.Errorf("array element has tag %q, want int", e.Tag)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("element has tag %q, want int array", v.Tag)
}

// String renders the value in a stable source-like form.
func (v ElementValue) String() string {
	switch v.Tag {
	case 'B', 'I', 'S', 'J':
		return strconv.FormatInt(v.Int, 10)
	case 'Z':
		return strconv.FormatBool(v.Int != 0)
	case 'C':
		return strconv.QuoteRune(rune(v.Int))
	case 'F':
		return strconv.FormatFloat(v.Float, 'g', -1, 32) + "f"
	case 'D':
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case 's':
		return strconv.Quote(v.Str)
	case 'e':
		return v.EnumType + "." + v.Str
	case 'c':
		return v.Str + ".class"
	case '@':
		return v.Annotation.String()
	case '[':
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = e.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "?"
}

// String renders the annotation as "@Type(name=value, ...)".
func (a *Annotation) String() string {
	if a == nil {
		return "@?"
	}
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.Name + "=" + e.Value.String()
	}
	return "@" + a.Type + "(" + strings.Join(parts, ", ") + ")"
}

// Annotations decodes RuntimeVisibleAnnotations (visible) or
// RuntimeInvisibleAnnotations from an attribute list.
func (cf *ClassFile) Annotations(attrs []Attribute, visible bool) ([]Annotation, error) {
	name := "RuntimeInvisibleAnnotations"
	if visible {
		name = "RuntimeVisibleAnnotations"
	}
	a, ok := FindAttribute(attrs, name)
	if !ok {
		return nil, nil
	}
	r := &reader{buf: a.Data}
	n := int(r.u2())
	out := make([]Annotation, 0, n)
	for i := 0; i < n; i++ {
		ann, err := readAnnotation(r, cf.Pool, 0)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		out = append(out, *ann)
	}
	return out, r.err
}

// FindAnnotation returns the class-level annotation with the given type
// descriptor, looking at visible annotations first.
func (cf *ClassFile) FindAnnotation(desc string) (*Annotation, error) {
	for _, visible := range []bool{true, false} {
		anns, err := cf.Annotations(cf.Attributes, visible)
		if err != nil {
			return nil, err
		}
		for i := range anns {
			if anns[i].Type == desc {
				return &anns[i], nil
			}
		}
	}
	return nil, nil
}

const maxAnnotationDepth = 64

func readAnnotation(r *reader, pool ConstantPool, depth int) (*Annotation, error) {
	if depth > maxAnnotationDepth {
		return nil, fmt.Errorf("%w: annotation nesting too deep", ErrMalformed)
	}
	typ, err := pool.Utf8(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	if err != nil {
		return nil, err
	}
	ann := &Annotation{Type: typ}
	n := int(r.u2())
	for i := 0; i < n; i++ {
		name, err := pool.Utf8(r.u2())
		if r.err != nil {
			return nil, r.err
		}
		if err != nil {
			return nil, err
		}
		v, err := readElementValue(r, pool, depth)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", name, err)
		}
		ann.Elements = append(ann.Elements, ElementPair{Name: name, Value: v})
	}
	return ann, r.err
}

func readElementValue(r *reader, pool ConstantPool, depth int) (ElementValue, error) {
	v := ElementValue{Tag: r.u1()}
	if r.err != nil {
		return v, r.err
	}
	switch v.Tag {
	case 'B', 'C', 'I', 'S', 'Z':
		c, err := pool.entry(r.u2(), TagInteger)
		if err != nil {
			return v, err
		}
		v.Int = c.Int
	case 'J':
		c, err := pool.entry(r.u2(), TagLong)
		if err != nil {
			return v, err
		}
		v.Int = c.Int
	case 'F':
		c, err := pool.entry(r.u2(), TagFloat)
		if err != nil {
			return v, err
		}
		v.Float = c.Float
	case 'D':
		c, err := pool.entry(r.u2(), TagDouble)
		if err != nil {
			return v, err
		}
		v.Float = c.Float
	case 's', 'c':
		s, err := pool.Utf8(r.u2())
		if err != nil {
			return v, err
		}
		v.Str = s
	case 'e':
		typ, err := pool.Utf8(r.u2())
		if err != nil {
			return v, err
		}
		name, err := pool.Utf8(r.u2())
		if err != nil {
			return v, err
		}
		v.EnumType, v.Str = typ, name
	case '@':
		ann, err := readAnnotation(r, pool, depth+1)
		if err != nil {
			return v, err
		}
		v.Annotation = ann
	case '[':
		n := int(r.u2())
		for i := 0; i < n && r.err == nil; i++ {
			e, err := readElementValue(r, pool, depth+1)
			if err != nil {
				return v, err
			}
			v.Array = append(v.Array, e)
		}
	default:
		return v, fmt.Errorf("%w: unknown element value tag %q", ErrMalformed, v.Tag)
	}
	return v, r.err
}
