package classfile

import (
	"fmt"
	"strconv"
	"strings"
)

// Access flags.
const (
	AccPublic       = 0x0001
	AccPrivate      = 0x0002
	AccProtected    = 0x0004
	AccStatic       = 0x0008
	AccFinal        = 0x0010
	AccSuper        = 0x0020
	AccSynchronized = 0x0020
	AccVolatile     = 0x0040
	AccBridge       = 0x0040
	AccTransient    = 0x0080
	AccVarargs      = 0x0080
	AccNative       = 0x0100
	AccInterface    = 0x0200
	AccAbstract     = 0x0400
	AccStrict       = 0x0800
	AccSynthetic    = 0x1000
	AccAnnotation   = 0x2000
	AccEnum         = 0x4000
	AccModule       = 0x8000
)

type flagName struct {
	mask uint16
	name string
}

var classFlags = []flagName{
	{AccPublic, "public"}, {AccPrivate, "private"}, {AccProtected, "protected"},
	{AccFinal, "final"}, {AccAbstract, "abstract"}, {AccSynthetic, "synthetic"},
	{AccEnum, "enum"},
}

var fieldFlags = []flagName{
	{AccPublic, "public"}, {AccPrivate, "private"}, {AccProtected, "protected"},
	{AccStatic, "static"}, {AccFinal, "final"}, {AccVolatile, "volatile"},
	{AccTransient, "transient"}, {AccSynthetic, "synthetic"}, {AccEnum, "enum"},
}

var methodFlags = []flagName{
	{AccPublic, "public"}, {AccPrivate, "private"}, {AccProtected, "protected"},
	{AccStatic, "static"}, {AccFinal, "final"}, {AccSynchronized, "synchronized"},
	{AccBridge, "bridge"}, {AccVarargs, "varargs"}, {AccNative, "native"},
	{AccAbstract, "abstract"}, {AccStrict, "strictfp"}, {AccSynthetic, "synthetic"},
}

func modifiers(flags uint16, names []flagName) string {
	var b strings.Builder
	for _, f := range names {
		if flags&f.mask != 0 {
			b.WriteString(f.name)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func classKind(flags uint16) string {
	switch {
	case flags&AccModule != 0:
		return "module "
	case flags&AccAnnotation != 0:
		return "@interface "
	case flags&AccInterface != 0:
		return "interface "
	}
	return "class "
}

// Textify renders a class as a listing. Constant pool operands are resolved
// to their values so that two classes with the same members and code print
// the same regardless of constant pool layout.
func Textify(cf *ClassFile) (string, error) {
	t := &textifier{cf: cf}
	if err := t.class(); err != nil {
		return "", err
	}
	return t.b.String(), nil
}

type textifier struct {
	cf *ClassFile
	b  strings.Builder
}

func (t *textifier) line(indent int, format string, args ...interface{}) {
	t.b.WriteString(strings.Repeat("  ", indent))
	fmt.Fprintf(&t.b, format, args...)
	t.b.WriteByte('\n')
}

func (t *textifier) class() error {
	cf := t.cf
	t.line(0, "// class version %d.%d (%d)", cf.MajorVersion, cf.MinorVersion, cf.MajorVersion)
	t.line(0, "// access flags 0x%X", cf.AccessFlags)

	flags := cf.AccessFlags
	if flags&AccInterface != 0 {
		flags &^= AccAbstract
	}
	header := modifiers(flags, classFlags) + classKind(cf.AccessFlags) + cf.ThisClass
	if cf.SuperClass != "" {
		header += " extends " + cf.SuperClass
	}
	if len(cf.Interfaces) > 0 {
		header += " implements " + strings.Join(cf.Interfaces, ", ")
	}
	t.line(0, "%s {", header)
	t.b.WriteByte('\n')

	src, err := cf.SourceFile()
	if err != nil {
		return err
	}
	if src != "" {
		t.line(1, "// compiled from: %s", src)
	}
	sig, err := cf.Signature(cf.Attributes)
	if err != nil {
		return err
	}
	if sig != "" {
		t.line(1, "// signature %s", sig)
	}
	inner, err := cf.InnerClasses()
	if err != nil {
		return err
	}
	for _, ic := range inner {
		t.line(1, "// access flags 0x%X", ic.AccessFlags)
		t.line(1, "%sINNERCLASS %s %s %s", modifiers(ic.AccessFlags, classFlags), ic.Inner, orNull(ic.Outer), orNull(ic.Name))
	}
	if err := t.annotations(1, cf.Attributes); err != nil {
		return err
	}

	for _, f := range cf.Fields {
		if err := t.field(f); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	for _, m := range cf.Methods {
		if err := t.method(m); err != nil {
			return fmt.Errorf("method %s%s: %w", m.Name, m.Descriptor, err)
		}
	}
	t.line(0, "}")
	return nil
}

func orNull(s string) string {
	if s == "" {
		return "null"
	}
	return s
}

func (t *textifier) annotations(indent int, attrs []Attribute) error {
	for _, visible := range []bool{true, false} {
		anns, err := t.cf.Annotations(attrs, visible)
		if err != nil {
			return err
		}
		for i := range anns {
			suffix := ""
			if !visible {
				suffix = " // invisible"
			}
			t.line(indent, "%s%s", anns[i].String(), suffix)
		}
	}
	return nil
}

func (t *textifier) field(f Member) error {
	t.b.WriteByte('\n')
	t.line(1, "// access flags 0x%X", f.AccessFlags)
	sig, err := t.cf.Signature(f.Attributes)
	if err != nil {
		return err
	}
	if sig != "" {
		t.line(1, "// signature %s", sig)
	}
	decl := modifiers(f.AccessFlags, fieldFlags) + f.Name + " " + f.Descriptor
	if a, ok := FindAttribute(f.Attributes, "ConstantValue"); ok {
		r := &reader{buf: a.Data}
		idx := r.u2()
		if r.err != nil {
			return r.err
		}
		v, err := t.cf.Pool.Describe(idx)
		if err != nil {
			return err
		}
		decl += " = " + v
	}
	t.line(1, "%s", decl)
	return t.annotations(2, f.Attributes)
}

func (t *textifier) method(m Member) error {
	t.b.WriteByte('\n')
	t.line(1, "// access flags 0x%X", m.AccessFlags)
	sig, err := t.cf.Signature(m.Attributes)
	if err != nil {
		return err
	}
	if sig != "" {
		t.line(1, "// signature %s", sig)
	}
	decl := modifiers(m.AccessFlags, methodFlags) + m.Name + m.Descriptor
	exceptions, err := t.cf.Exceptions(m.Attributes)
	if err != nil {
		return err
	}
	if len(exceptions) > 0 {
		decl += " throws " + strings.Join(exceptions, " ")
	}
	t.line(1, "%s", decl)
	if err := t.annotations(2, m.Attributes); err != nil {
		return err
	}

	code, err := t.cf.Code(m)
	if err != nil || code == nil {
		return err
	}
	insns, err := Decode(code.Bytecode)
	if err != nil {
		return err
	}
	for _, in := range insns {
		if err := t.instruction(in); err != nil {
			return fmt.Errorf("offset %d: %w", in.Offset, err)
		}
	}
	for _, h := range code.ExceptionTable {
		t.line(2, "TRYCATCHBLOCK %d %d %d %s", h.StartPC, h.EndPC, h.HandlerPC, orNull(h.CatchType))
	}
	t.line(2, "MAXSTACK = %d", code.MaxStack)
	t.line(2, "MAXLOCALS = %d", code.MaxLocals)
	return nil
}

func (t *textifier) instruction(in Instruction) error {
	name := in.Opcode.String()
	if in.Wide {
		name = "wide " + name
	}
	var operands string
	switch in.Opcode.Operands() {
	case OperandLocal:
		operands = strconv.Itoa(in.Index)
	case OperandByte, OperandShort:
		operands = strconv.Itoa(in.Value)
	case OperandConst1, OperandConst2, OperandDynamic:
		d, err := t.cf.Pool.Describe(uint16(in.Index))
		if err != nil {
			return err
		}
		operands = d
	case OperandIinc:
		operands = strconv.Itoa(in.Index) + " " + strconv.Itoa(in.Value)
	case OperandBranch2, OperandBranch4:
		operands = "L" + strconv.Itoa(in.Branch)
	case OperandInterface:
		d, err := t.cf.Pool.Describe(uint16(in.Index))
		if err != nil {
			return err
		}
		operands = d + " " + strconv.Itoa(in.Value)
	case OperandArrayType:
		typ, ok := arrayTypes[in.Value]
		if !ok {
			return fmt.Errorf("%w: newarray type %d", ErrMalformed, in.Value)
		}
		operands = typ
	case OperandMultiArray:
		d, err := t.cf.Pool.Describe(uint16(in.Index))
		if err != nil {
			return err
		}
		operands = d + " " + strconv.Itoa(in.Value)
	case OperandTableSwitch:
		t.line(2, "L%d: %s %d to %d", in.Offset, name, in.Low, int(in.Low)+len(in.Targets)-1)
		for i, target := range in.Targets {
			t.line(3, "%d: L%d", int(in.Low)+i, target)
		}
		t.line(3, "default: L%d", in.Default)
		return nil
	case OperandLookupSwitch:
		t.line(2, "L%d: %s %d", in.Offset, name, len(in.Keys))
		for i, key := range in.Keys {
			t.line(3, "%d: L%d", key, in.Targets[i])
		}
		t.line(3, "default: L%d", in.Default)
		return nil
	}
	if operands == "" {
		t.line(2, "L%d: %s", in.Offset, name)
	} else {
		t.line(2, "L%d: %s %s", in.Offset, name, operands)
	}
	return nil
}
