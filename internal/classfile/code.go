package classfile

import (
	"fmt"
)

// Code is a decoded Code attribute.
type Code struct {
	MaxStack       uint16
	MaxLocals      uint16
	Bytecode       []byte
	ExceptionTable []ExceptionHandler
	Attributes     []Attribute
}

// ExceptionHandler is one exception table row. CatchType is empty for
// finally blocks.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType string
}

// Code decodes the Code attribute of a method, or returns nil for abstract
// and native methods.
func (cf *ClassFile) Code(m Member) (*Code, error) {
	a, ok := FindAttribute(m.Attributes, "Code")
	if !ok {
		return nil, nil
	}
	r := &reader{buf: a.Data}
	c := &Code{MaxStack: r.u2(), MaxLocals: r.u2()}
	length := r.u4()
	c.Bytecode = r.bytes(int(length))
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		h := ExceptionHandler{StartPC: r.u2(), EndPC: r.u2(), HandlerPC: r.u2()}
		catchIdx := r.u2()
		if r.err != nil {
			break
		}
		if catchIdx != 0 {
			name, err := cf.Pool.ClassName(catchIdx)
			if err != nil {
				return nil, fmt.Errorf("exception table: %w", err)
			}
			h.CatchType = name
		}
		c.ExceptionTable = append(c.ExceptionTable, h)
	}
	if r.err != nil {
		return nil, fmt.Errorf("%s%s Code: %w", m.Name, m.Descriptor, r.err)
	}
	attrs, err := readAttributes(r, cf.Pool)
	if err != nil {
		return nil, fmt.Errorf("%s%s Code: %w", m.Name, m.Descriptor, err)
	}
	c.Attributes = attrs
	return c, nil
}

// Instruction is one decoded bytecode instruction. Offsets in Branch,
// Default and Targets are absolute.
type Instruction struct {
	Offset int
	Opcode Opcode
	Wide   bool
	// Index is a local variable slot or a constant pool index.
	Index int
	// Value is the immediate of bipush, sipush, iinc, newarray,
	// multianewarray and the count of invokeinterface.
	Value   int
	Branch  int
	Default int
	Low     int32
	Keys    []int32
	Targets []int
}

// Decode splits a method body into instructions.
func Decode(code []byte) ([]Instruction, error) {
	r := &reader{buf: code}
	var out []Instruction
	for r.off < len(code) {
		in := Instruction{Offset: r.off, Opcode: Opcode(r.u1())}
		if int(in.Opcode) >= len(mnemonics) {
			return nil, fmt.Errorf("%w: unknown opcode 0x%02x at %d", ErrMalformed, uint8(in.Opcode), in.Offset)
		}
		switch in.Opcode.Operands() {
		case OperandNone:
		case OperandLocal:
			in.Index = int(r.u1())
		case OperandByte:
			in.Value = int(int8(r.u1()))
		case OperandShort:
			in.Value = int(int16(r.u2()))
		case OperandConst1:
			in.Index = int(r.u1())
		case OperandConst2:
			in.Index = int(r.u2())
		case OperandIinc:
			in.Index = int(r.u1())
			in.Value = int(int8(r.u1()))
		case OperandBranch2:
			in.Branch = in.Offset + int(int16(r.u2()))
		case OperandBranch4:
			in.Branch = in.Offset + int(int32(r.u4()))
		case OperandInterface:
			in.Index = int(r.u2())
			in.Value = int(r.u1())
			r.u1()
		case OperandDynamic:
			in.Index = int(r.u2())
			r.u2()
		case OperandArrayType:
			in.Value = int(r.u1())
		case OperandMultiArray:
			in.Index = int(r.u2())
			in.Value = int(r.u1())
		case OperandTableSwitch:
			r.off += (4 - r.off%4) % 4
			in.Default = in.Offset + int(int32(r.u4()))
			low, high := int32(r.u4()), int32(r.u4())
			if r.err == nil && (high < low || int64(high)-int64(low) >= int64(len(code))) {
				return nil, fmt.Errorf("%w: bad tableswitch bounds at %d", ErrMalformed, in.Offset)
			}
			in.Low = low
			for k := int64(low); k <= int64(high) && r.err == nil; k++ {
				in.Targets = append(in.Targets, in.Offset+int(int32(r.u4())))
			}
		case OperandLookupSwitch:
			r.off += (4 - r.off%4) % 4
			in.Default = in.Offset + int(int32(r.u4()))
			n := int32(r.u4())
			if r.err == nil && (n < 0 || int(n) > len(code)) {
				return nil, fmt.Errorf("%w: bad lookupswitch size at %d", ErrMalformed, in.Offset)
			}
			for k := int32(0); k < n && r.err == nil; k++ {
				in.Keys = append(in.Keys, int32(r.u4()))
				in.Targets = append(in.Targets, in.Offset+int(int32(r.u4())))
			}
		case OperandWide:
			in.Wide = true
			in.Opcode = Opcode(r.u1())
			in.Index = int(r.u2())
			if in.Opcode == Iinc {
				in.Value = int(int16(r.u2()))
			} else if r.err == nil && in.Opcode.Operands() != OperandLocal {
				return nil, fmt.Errorf("%w: wide %s at %d", ErrMalformed, in.Opcode, in.Offset)
			}
		}
		if r.err != nil {
			return nil, fmt.Errorf("instruction at %d: %w", in.Offset, r.err)
		}
		out = append(out, in)
	}
	return out, nil
}
