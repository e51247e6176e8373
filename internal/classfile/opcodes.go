package classfile

// Opcode is a JVM instruction opcode.
type Opcode uint8

// Opcodes referenced by name elsewhere in the package.
const (
	Ldc            Opcode = 0x12
	Iinc           Opcode = 0x84
	Tableswitch    Opcode = 0xaa
	Lookupswitch   Opcode = 0xab
	Invokedynamic  Opcode = 0xba
	Newarray       Opcode = 0xbc
	Wide           Opcode = 0xc4
	Multianewarray Opcode = 0xc5
)

// OperandKind describes the immediate operands that follow an opcode.
type OperandKind int

const (
	OperandInvalid OperandKind = iota
	OperandNone
	OperandLocal
	OperandByte
	OperandShort
	OperandConst1
	OperandConst2
	OperandIinc
	OperandBranch2
	OperandBranch4
	OperandInterface
	OperandDynamic
	OperandArrayType
	OperandMultiArray
	OperandTableSwitch
	OperandLookupSwitch
	OperandWide
)

var mnemonics = [...]string{
	"nop", "aconst_null", "iconst_m1", "iconst_0", "iconst_1", "iconst_2", "iconst_3", "iconst_4",
	"iconst_5", "lconst_0", "lconst_1", "fconst_0", "fconst_1", "fconst_2", "dconst_0", "dconst_1",
	"bipush", "sipush", "ldc", "ldc_w", "ldc2_w", "iload", "lload", "fload",
	"dload", "aload", "iload_0", "iload_1", "iload_2", "iload_3", "lload_0", "lload_1",
	"lload_2", "lload_3", "fload_0", "fload_1", "fload_2", "fload_3", "dload_0", "dload_1",
	"dload_2", "dload_3", "aload_0", "aload_1", "aload_2", "aload_3", "iaload", "laload",
	"faload", "daload", "aaload", "baload", "caload", "saload", "istore", "lstore",
	"fstore", "dstore", "astore", "istore_0", "istore_1", "istore_2", "istore_3", "lstore_0",
	"lstore_1", "lstore_2", "lstore_3", "fstore_0", "fstore_1", "fstore_2", "fstore_3", "dstore_0",
	"dstore_1", "dstore_2", "dstore_3", "astore_0", "astore_1", "astore_2", "astore_3", "iastore",
	"lastore", "fastore", "dastore", "aastore", "bastore", "castore", "sastore", "pop",
	"pop2", "dup", "dup_x1", "dup_x2", "dup2", "dup2_x1", "dup2_x2", "swap",
	"iadd", "ladd", "fadd", "dadd", "isub", "lsub", "fsub", "dsub",
	"imul", "lmul", "fmul", "dmul", "idiv", "ldiv", "fdiv", "ddiv",
	"irem", "lrem", "frem", "drem", "ineg", "lneg", "fneg", "dneg",
	"ishl", "lshl", "ishr", "lshr", "iushr", "lushr", "iand", "land",
	"ior", "lor", "ixor", "lxor", "iinc", "i2l", "i2f", "i2d",
	"l2i", "l2f", "l2d", "f2i", "f2l", "f2d", "d2i", "d2l",
	"d2f", "i2b", "i2c", "i2s", "lcmp", "fcmpl", "fcmpg", "dcmpl",
	"dcmpg", "ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle", "if_icmpeq",
	"if_icmpne", "if_icmplt", "if_icmpge", "if_icmpgt", "if_icmple", "if_acmpeq", "if_acmpne", "goto",
	"jsr", "ret", "tableswitch", "lookupswitch", "ireturn", "lreturn", "freturn", "dreturn",
	"areturn", "return", "getstatic", "putstatic", "getfield", "putfield", "invokevirtual", "invokespecial",
	"invokestatic", "invokeinterface", "invokedynamic", "new", "newarray", "anewarray", "arraylength", "athrow",
	"checkcast", "instanceof", "monitorenter", "monitorexit", "wide", "multianewarray", "ifnull", "ifnonnull",
	"goto_w", "jsr_w",
}

// String returns the mnemonic.
func (op Opcode) String() string {
	if int(op) < len(mnemonics) {
		return mnemonics[op]
	}
	return "<invalid>"
}

// Operands returns the operand layout of op.
func (op Opcode) Operands() OperandKind {
	switch {
	case int(op) >= len(mnemonics):
		return OperandInvalid
	case op >= 0x15 && op <= 0x19, op >= 0x36 && op <= 0x3a, op == 0xa9:
		return OperandLocal
	case op == 0x10:
		return OperandByte
	case op == 0x11:
		return OperandShort
	case op == Ldc:
		return OperandConst1
	case op == 0x13, op == 0x14, op >= 0xb2 && op <= 0xb8, op == 0xbb, op == 0xbd, op == 0xc0, op == 0xc1:
		return OperandConst2
	case op == Iinc:
		return OperandIinc
	case op >= 0x99 && op <= 0xa8, op == 0xc6, op == 0xc7:
		return OperandBranch2
	case op == 0xc8, op == 0xc9:
		return OperandBranch4
	case op == 0xb9:
		return OperandInterface
	case op == Invokedynamic:
		return OperandDynamic
	case op == Newarray:
		return OperandArrayType
	case op == Multianewarray:
		return OperandMultiArray
	case op == Tableswitch:
		return OperandTableSwitch
	case op == Lookupswitch:
		return OperandLookupSwitch
	case op == Wide:
		return OperandWide
	}
	return OperandNone
}

var arrayTypes = map[int]string{
	4:  "boolean",
	5:  "char",
	6:  "float",
	7:  "double",
	8:  "byte",
	9:  "short",
	10: "int",
	11: "long",
}
