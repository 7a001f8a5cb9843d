package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind separates real instructions from the pseudo-instructions a tree
// reader interleaves with them.
type Kind uint8

const (
	KindInsn  Kind = iota // a real opcode
	KindLabel             // jump/try-catch target marker
	KindLine              // source line number marker
	KindFrame             // verifier stack map marker
)

// Label marks a position in an instruction list. Index is assigned by Method.Link.
type Label struct {
	Name  string
	Index int
}

func (l *Label) String() string {
	if l == nil {
		return "<nil>"
	}
	return l.Name
}

// Handle is a method-handle constant. The interpreter refuses to load it.
type Handle struct {
	Tag   int
	Owner string
	Name  string
	Desc  string
}

func (h Handle) String() string {
	return fmt.Sprintf("handle(%d %s.%s%s)", h.Tag, h.Owner, h.Name, h.Desc)
}

// Instruction is one node of a method's instruction list.
type Instruction struct {
	Kind Kind
	Op   Opcode

	Operand int32  // bipush/sipush value, newarray type code
	Var     int    // local slot for loads, stores, ret and iinc
	Incr    int32  // iinc increment
	Target  *Label // jump target
	Label   *Label // the label a KindLabel node defines
	Line    int    // KindLine source line
	Const   any    // ldc constant: int32, float32, int64, float64, string, Type or Handle

	Owner     string // field/method owner internal name; type operand for FormatType
	Name      string
	Desc      string
	Interface bool // invokeinterface / interface owner
	Dims      int  // multianewarray dimensions
}

// Insn builds an operand-less instruction.
func Insn(op Opcode) *Instruction {
	return &Instruction{Kind: KindInsn, Op: op}
}

// IntInsn builds bipush, sipush or newarray.
func IntInsn(op Opcode, operand int32) *Instruction {
	return &Instruction{Kind: KindInsn, Op: op, Operand: operand}
}

// VarInsn builds a load, store or ret.
func VarInsn(op Opcode, slot int) *Instruction {
	return &Instruction{Kind: KindInsn, Op: op, Var: slot}
}

// IincInsn builds iinc.
func IincInsn(slot int, incr int32) *Instruction {
	return &Instruction{Kind: KindInsn, Op: IINC, Var: slot, Incr: incr}
}

// JumpInsn builds a branch to target.
func JumpInsn(op Opcode, target *Label) *Instruction {
	return &Instruction{Kind: KindInsn, Op: op, Target: target}
}

// LdcInsn builds ldc with the given constant.
func LdcInsn(cst any) *Instruction {
	return &Instruction{Kind: KindInsn, Op: LDC, Const: cst}
}

// TypeInsn builds new, anewarray, checkcast or instanceof. desc is an internal name.
func TypeInsn(op Opcode, desc string) *Instruction {
	return &Instruction{Kind: KindInsn, Op: op, Owner: desc}
}

// FieldInsn builds getstatic, putstatic, getfield or putfield.
func FieldInsn(op Opcode, owner, name, desc string) *Instruction {
	return &Instruction{Kind: KindInsn, Op: op, Owner: owner, Name: name, Desc: desc}
}

// MethodInsn builds an invoke instruction.
func MethodInsn(op Opcode, owner, name, desc string, itf bool) *Instruction {
	return &Instruction{Kind: KindInsn, Op: op, Owner: owner, Name: name, Desc: desc, Interface: itf || op == INVOKEINTERFACE}
}

// MultiANewArrayInsn builds multianewarray.
func MultiANewArrayInsn(desc string, dims int) *Instruction {
	return &Instruction{Kind: KindInsn, Op: MULTIANEWARRAY, Owner: desc, Dims: dims}
}

// LabelNode places l in the instruction list.
func LabelNode(l *Label) *Instruction {
	return &Instruction{Kind: KindLabel, Label: l}
}

// LineNode records that the following instructions belong to source line n.
func LineNode(n int) *Instruction {
	return &Instruction{Kind: KindLine, Line: n}
}

// FrameNode is a stack map marker; the interpreter skips it.
func FrameNode() *Instruction {
	return &Instruction{Kind: KindFrame}
}

// IsPseudo reports whether the node is a label, line or frame marker
func (in *Instruction) IsPseudo() bool {
	return in.Kind != KindInsn
}

// String renders the node in the assembly syntax accepted by the parser.
func (in *Instruction) String() string {
	switch in.Kind {
	case KindLabel:
		return in.Label.String() + ":"
	case KindLine:
		return fmt.Sprintf(".line %d", in.Line)
	case KindFrame:
		return ".frame"
	}

	op := in.Op.String()
	switch in.Op.Format() {
	case FormatInt:
		if in.Op == NEWARRAY {
			return op + " " + ArrayTypeName(in.Operand)
		}
		return fmt.Sprintf("%s %d", op, in.Operand)
	case FormatVar:
		return fmt.Sprintf("%s %d", op, in.Var)
	case FormatIinc:
		return fmt.Sprintf("%s %d %d", op, in.Var, in.Incr)
	case FormatJump:
		return op + " " + in.Target.String()
	case FormatLdc:
		return op + " " + FormatConstant(in.Const)
	case FormatType:
		return op + " " + in.Owner
	case FormatField:
		return fmt.Sprintf("%s %s.%s %s", op, in.Owner, in.Name, in.Desc)
	case FormatMethod:
		return fmt.Sprintf("%s %s.%s%s", op, in.Owner, in.Name, in.Desc)
	case FormatMultiArray:
		return fmt.Sprintf("%s %s %d", op, in.Owner, in.Dims)
	case FormatIndy:
		return fmt.Sprintf("%s %s%s", op, in.Name, in.Desc)
	}
	return op
}

// FormatConstant renders an ldc constant so that the lexer reads it back
// with the same type.
func FormatConstant(cst any) string {
	switch c := cst.(type) {
	case int32:
		return strconv.FormatInt(int64(c), 10)
	case int64:
		return strconv.FormatInt(c, 10) + "L"
	case float32:
		return floatLiteral(strconv.FormatFloat(float64(c), 'g', -1, 32)) + "F"
	case float64:
		return floatLiteral(strconv.FormatFloat(c, 'g', -1, 64)) + "D"
	case string:
		return strconv.Quote(c)
	case Type:
		return c.InternalName()
	case Handle:
		return c.String()
	}
	return fmt.Sprintf("%v", cst)
}

func floatLiteral(s string) string {
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}
