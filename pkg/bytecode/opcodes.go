package bytecode

import "fmt"

// Opcode is a JVM instruction opcode.
type Opcode uint8

// Format describes the operand layout of an opcode, mirroring the node
// families a bytecode reader produces.
type Format uint8

const (
	FormatInvalid Format = iota
	FormatInsn           // no operand
	FormatInt            // bipush, sipush, newarray
	FormatVar            // xload, xstore, ret
	FormatType           // new, anewarray, checkcast, instanceof
	FormatField          // getstatic, putstatic, getfield, putfield
	FormatMethod         // invokevirtual, invokespecial, invokestatic, invokeinterface
	FormatIndy           // invokedynamic
	FormatJump           // if*, goto, jsr
	FormatLdc            // ldc
	FormatIinc           // iinc
	FormatSwitch         // tableswitch, lookupswitch
	FormatMultiArray     // multianewarray
	FormatAlias          // short forms folded into a canonical opcode by Link
)

const (
	NOP Opcode = iota
	ACONST_NULL
	ICONST_M1
	ICONST_0
	ICONST_1
	ICONST_2
	ICONST_3
	ICONST_4
	ICONST_5
	LCONST_0
	LCONST_1
	FCONST_0
	FCONST_1
	FCONST_2
	DCONST_0
	DCONST_1
	BIPUSH
	SIPUSH
	LDC
	LDC_W
	LDC2_W
	ILOAD
	LLOAD
	FLOAD
	DLOAD
	ALOAD
	ILOAD_0
	ILOAD_1
	ILOAD_2
	ILOAD_3
	LLOAD_0
	LLOAD_1
	LLOAD_2
	LLOAD_3
	FLOAD_0
	FLOAD_1
	FLOAD_2
	FLOAD_3
	DLOAD_0
	DLOAD_1
	DLOAD_2
	DLOAD_3
	ALOAD_0
	ALOAD_1
	ALOAD_2
	ALOAD_3
	IALOAD
	LALOAD
	FALOAD
	DALOAD
	AALOAD
	BALOAD
	CALOAD
	SALOAD
	ISTORE
	LSTORE
	FSTORE
	DSTORE
	ASTORE
	ISTORE_0
	ISTORE_1
	ISTORE_2
	ISTORE_3
	LSTORE_0
	LSTORE_1
	LSTORE_2
	LSTORE_3
	FSTORE_0
	FSTORE_1
	FSTORE_2
	FSTORE_3
	DSTORE_0
	DSTORE_1
	DSTORE_2
	DSTORE_3
	ASTORE_0
	ASTORE_1
	ASTORE_2
	ASTORE_3
	IASTORE
	LASTORE
	FASTORE
	DASTORE
	AASTORE
	BASTORE
	CASTORE
	SASTORE
	POP
	POP2
	DUP
	DUP_X1
	DUP_X2
	DUP2
	DUP2_X1
	DUP2_X2
	SWAP
	IADD
	LADD
	FADD
	DADD
	ISUB
	LSUB
	FSUB
	DSUB
	IMUL
	LMUL
	FMUL
	DMUL
	IDIV
	LDIV
	FDIV
	DDIV
	IREM
	LREM
	FREM
	DREM
	INEG
	LNEG
	FNEG
	DNEG
	ISHL
	LSHL
	ISHR
	LSHR
	IUSHR
	LUSHR
	IAND
	LAND
	IOR
	LOR
	IXOR
	LXOR
	IINC
	I2L
	I2F
	I2D
	L2I
	L2F
	L2D
	F2I
	F2L
	F2D
	D2I
	D2L
	D2F
	I2B
	I2C
	I2S
	LCMP
	FCMPL
	FCMPG
	DCMPL
	DCMPG
	IFEQ
	IFNE
	IFLT
	IFGE
	IFGT
	IFLE
	IF_ICMPEQ
	IF_ICMPNE
	IF_ICMPLT
	IF_ICMPGE
	IF_ICMPGT
	IF_ICMPLE
	IF_ACMPEQ
	IF_ACMPNE
	GOTO
	JSR
	RET
	TABLESWITCH
	LOOKUPSWITCH
	IRETURN
	LRETURN
	FRETURN
	DRETURN
	ARETURN
	RETURN
	GETSTATIC
	PUTSTATIC
	GETFIELD
	PUTFIELD
	INVOKEVIRTUAL
	INVOKESPECIAL
	INVOKESTATIC
	INVOKEINTERFACE
	INVOKEDYNAMIC
	NEW
	NEWARRAY
	ANEWARRAY
	ARRAYLENGTH
	ATHROW
	CHECKCAST
	INSTANCEOF
	MONITORENTER
	MONITOREXIT
	WIDE
	MULTIANEWARRAY
	IFNULL
	IFNONNULL
	GOTO_W
	JSR_W

	opcodeCount
)

// NEWARRAY element type codes.
const (
	T_BOOLEAN = 4
	T_CHAR    = 5
	T_FLOAT   = 6
	T_DOUBLE  = 7
	T_BYTE    = 8
	T_SHORT   = 9
	T_INT     = 10
	T_LONG    = 11
)

type opcodeInfo struct {
	name   string
	format Format
}

var opcodes [256]opcodeInfo

var byName = make(map[string]Opcode, int(opcodeCount))

func init() {
	table := []struct {
		op     Opcode
		name   string
		format Format
	}{
		{NOP, "nop", FormatInsn}, {ACONST_NULL, "aconst_null", FormatInsn},
		{ICONST_M1, "iconst_m1", FormatInsn}, {ICONST_0, "iconst_0", FormatInsn},
		{ICONST_1, "iconst_1", FormatInsn}, {ICONST_2, "iconst_2", FormatInsn},
		{ICONST_3, "iconst_3", FormatInsn}, {ICONST_4, "iconst_4", FormatInsn},
		{ICONST_5, "iconst_5", FormatInsn}, {LCONST_0, "lconst_0", FormatInsn},
		{LCONST_1, "lconst_1", FormatInsn}, {FCONST_0, "fconst_0", FormatInsn},
		{FCONST_1, "fconst_1", FormatInsn}, {FCONST_2, "fconst_2", FormatInsn},
		{DCONST_0, "dconst_0", FormatInsn}, {DCONST_1, "dconst_1", FormatInsn},
		{BIPUSH, "bipush", FormatInt}, {SIPUSH, "sipush", FormatInt},
		{LDC, "ldc", FormatLdc}, {LDC_W, "ldc_w", FormatAlias}, {LDC2_W, "ldc2_w", FormatAlias},
		{ILOAD, "iload", FormatVar}, {LLOAD, "lload", FormatVar}, {FLOAD, "fload", FormatVar},
		{DLOAD, "dload", FormatVar}, {ALOAD, "aload", FormatVar},
		{IALOAD, "iaload", FormatInsn}, {LALOAD, "laload", FormatInsn},
		{FALOAD, "faload", FormatInsn}, {DALOAD, "daload", FormatInsn},
		{AALOAD, "aaload", FormatInsn}, {BALOAD, "baload", FormatInsn},
		{CALOAD, "caload", FormatInsn}, {SALOAD, "saload", FormatInsn},
		{ISTORE, "istore", FormatVar}, {LSTORE, "lstore", FormatVar}, {FSTORE, "fstore", FormatVar},
		{DSTORE, "dstore", FormatVar}, {ASTORE, "astore", FormatVar},
		{IASTORE, "iastore", FormatInsn}, {LASTORE, "lastore", FormatInsn},
		{FASTORE, "fastore", FormatInsn}, {DASTORE, "dastore", FormatInsn},
		{AASTORE, "aastore", FormatInsn}, {BASTORE, "bastore", FormatInsn},
		{CASTORE, "castore", FormatInsn}, {SASTORE, "sastore", FormatInsn},
		{POP, "pop", FormatInsn}, {POP2, "pop2", FormatInsn}, {DUP, "dup", FormatInsn},
		{DUP_X1, "dup_x1", FormatInsn}, {DUP_X2, "dup_x2", FormatInsn}, {DUP2, "dup2", FormatInsn},
		{DUP2_X1, "dup2_x1", FormatInsn}, {DUP2_X2, "dup2_x2", FormatInsn}, {SWAP, "swap", FormatInsn},
		{IINC, "iinc", FormatIinc},
		{IFEQ, "ifeq", FormatJump}, {IFNE, "ifne", FormatJump}, {IFLT, "iflt", FormatJump},
		{IFGE, "ifge", FormatJump}, {IFGT, "ifgt", FormatJump}, {IFLE, "ifle", FormatJump},
		{IF_ICMPEQ, "if_icmpeq", FormatJump}, {IF_ICMPNE, "if_icmpne", FormatJump},
		{IF_ICMPLT, "if_icmplt", FormatJump}, {IF_ICMPGE, "if_icmpge", FormatJump},
		{IF_ICMPGT, "if_icmpgt", FormatJump}, {IF_ICMPLE, "if_icmple", FormatJump},
		{IF_ACMPEQ, "if_acmpeq", FormatJump}, {IF_ACMPNE, "if_acmpne", FormatJump},
		{GOTO, "goto", FormatJump}, {JSR, "jsr", FormatJump}, {RET, "ret", FormatVar},
		{TABLESWITCH, "tableswitch", FormatSwitch}, {LOOKUPSWITCH, "lookupswitch", FormatSwitch},
		{IRETURN, "ireturn", FormatInsn}, {LRETURN, "lreturn", FormatInsn},
		{FRETURN, "freturn", FormatInsn}, {DRETURN, "dreturn", FormatInsn},
		{ARETURN, "areturn", FormatInsn}, {RETURN, "return", FormatInsn},
		{GETSTATIC, "getstatic", FormatField}, {PUTSTATIC, "putstatic", FormatField},
		{GETFIELD, "getfield", FormatField}, {PUTFIELD, "putfield", FormatField},
		{INVOKEVIRTUAL, "invokevirtual", FormatMethod}, {INVOKESPECIAL, "invokespecial", FormatMethod},
		{INVOKESTATIC, "invokestatic", FormatMethod}, {INVOKEINTERFACE, "invokeinterface", FormatMethod},
		{INVOKEDYNAMIC, "invokedynamic", FormatIndy},
		{NEW, "new", FormatType}, {NEWARRAY, "newarray", FormatInt}, {ANEWARRAY, "anewarray", FormatType},
		{ARRAYLENGTH, "arraylength", FormatInsn}, {ATHROW, "athrow", FormatInsn},
		{CHECKCAST, "checkcast", FormatType}, {INSTANCEOF, "instanceof", FormatType},
		{MONITORENTER, "monitorenter", FormatInsn}, {MONITOREXIT, "monitorexit", FormatInsn},
		{WIDE, "wide", FormatAlias}, {MULTIANEWARRAY, "multianewarray", FormatMultiArray},
		{IFNULL, "ifnull", FormatJump}, {IFNONNULL, "ifnonnull", FormatJump},
		{GOTO_W, "goto_w", FormatAlias}, {JSR_W, "jsr_w", FormatAlias},
	}
	for _, e := range table {
		opcodes[e.op] = opcodeInfo{e.name, e.format}
	}

	// Arithmetic, conversions and comparisons are all operand-less.
	arith := []string{
		"iadd", "ladd", "fadd", "dadd", "isub", "lsub", "fsub", "dsub",
		"imul", "lmul", "fmul", "dmul", "idiv", "ldiv", "fdiv", "ddiv",
		"irem", "lrem", "frem", "drem", "ineg", "lneg", "fneg", "dneg",
		"ishl", "lshl", "ishr", "lshr", "iushr", "lushr", "iand", "land",
		"ior", "lor", "ixor", "lxor",
	}
	for i, name := range arith {
		opcodes[IADD+Opcode(i)] = opcodeInfo{name, FormatInsn}
	}
	conv := []string{
		"i2l", "i2f", "i2d", "l2i", "l2f", "l2d", "f2i", "f2l", "f2d",
		"d2i", "d2l", "d2f", "i2b", "i2c", "i2s", "lcmp", "fcmpl", "fcmpg", "dcmpl", "dcmpg",
	}
	for i, name := range conv {
		opcodes[I2L+Opcode(i)] = opcodeInfo{name, FormatInsn}
	}

	// xload_n / xstore_n short forms.
	prefixes := []string{"i", "l", "f", "d", "a"}
	for t, p := range prefixes {
		for n := 0; n < 4; n++ {
			opcodes[ILOAD_0+Opcode(t*4+n)] = opcodeInfo{fmt.Sprintf("%sload_%d", p, n), FormatAlias}
			opcodes[ISTORE_0+Opcode(t*4+n)] = opcodeInfo{fmt.Sprintf("%sstore_%d", p, n), FormatAlias}
		}
	}

	for op := Opcode(0); op < opcodeCount; op++ {
		if opcodes[op].name != "" {
			byName[opcodes[op].name] = op
		}
	}
}

// LookupOpcode resolves a mnemonic such as "iadd" or "iload_0".
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := byName[name]
	return op, ok
}

// String returns the mnemonic of the opcode
func (o Opcode) String() string {
	if n := opcodes[o].name; n != "" {
		return n
	}
	return fmt.Sprintf("op(0x%02x)", uint8(o))
}

// Format returns the operand layout of the opcode
func (o Opcode) Format() Format {
	return opcodes[o].format
}

// Valid reports whether o is a defined JVM opcode
func (o Opcode) Valid() bool {
	return o < opcodeCount && opcodes[o].format != FormatInvalid
}

// Canonical folds short and wide forms into the opcode a tree-based reader
// would produce, returning the implied local index for xload_n/xstore_n (or -1).
func (o Opcode) Canonical() (Opcode, int) {
	switch {
	case o >= ILOAD_0 && o <= ALOAD_3:
		n := int(o - ILOAD_0)
		return ILOAD + Opcode(n/4), n % 4
	case o >= ISTORE_0 && o <= ASTORE_3:
		n := int(o - ISTORE_0)
		return ISTORE + Opcode(n/4), n % 4
	case o == LDC_W || o == LDC2_W:
		return LDC, -1
	case o == GOTO_W:
		return GOTO, -1
	case o == JSR_W:
		return JSR, -1
	}
	return o, -1
}

// IsReturn reports whether o leaves the method normally
func (o Opcode) IsReturn() bool {
	return o >= IRETURN && o <= RETURN
}

// IsConditionalJump reports whether o is a conditional branch
func (o Opcode) IsConditionalJump() bool {
	return (o >= IFEQ && o <= IF_ACMPNE) || o == IFNULL || o == IFNONNULL
}

// ArrayTypeDescriptor maps a NEWARRAY type code to its array descriptor.
func ArrayTypeDescriptor(code int32) (string, bool) {
	switch code {
	case T_BOOLEAN:
		return "[Z", true
	case T_CHAR:
		return "[C", true
	case T_FLOAT:
		return "[F", true
	case T_DOUBLE:
		return "[D", true
	case T_BYTE:
		return "[B", true
	case T_SHORT:
		return "[S", true
	case T_INT:
		return "[I", true
	case T_LONG:
		return "[J", true
	}
	return "", false
}

// ArrayTypeCode maps a primitive element name ("int", "boolean", ...) to a NEWARRAY type code.
func ArrayTypeCode(name string) (int32, bool) {
	codes := map[string]int32{
		"boolean": T_BOOLEAN, "char": T_CHAR, "float": T_FLOAT, "double": T_DOUBLE,
		"byte": T_BYTE, "short": T_SHORT, "int": T_INT, "long": T_LONG,
	}
	c, ok := codes[name]
	return c, ok
}

// ArrayTypeName is the inverse of ArrayTypeCode.
func ArrayTypeName(code int32) string {
	switch code {
	case T_BOOLEAN:
		return "boolean"
	case T_CHAR:
		return "char"
	case T_FLOAT:
		return "float"
	case T_DOUBLE:
		return "double"
	case T_BYTE:
		return "byte"
	case T_SHORT:
		return "short"
	case T_INT:
		return "int"
	case T_LONG:
		return "long"
	}
	return fmt.Sprintf("type(%d)", code)
}
