package codegen

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/lexer"
)

// assemble builds one instruction from its mnemonic and operand tokens.
// Short forms are folded into their canonical opcode. It returns nil after
// recording an error.
func (c *Codegen) assemble(mn lexer.Token, args []lexer.Token) *bytecode.Instruction {
	op, ok := bytecode.LookupOpcode(mn.Lexeme)
	if !ok {
		c.addUnknownInstructionError(mn)
		return nil
	}
	if op == bytecode.WIDE {
		c.addError(mn.Pos, "wide is implied by the operands of the instruction it prefixes")
		return nil
	}

	canon, slot := op.Canonical()
	if slot >= 0 {
		if !c.arity(mn, args, 0) {
			return nil
		}
		return bytecode.VarInsn(canon, slot)
	}

	switch canon.Format() {
	case bytecode.FormatInsn:
		if c.arity(mn, args, 0) {
			return bytecode.Insn(canon)
		}

	case bytecode.FormatInt:
		if !c.arity(mn, args, 1) {
			return nil
		}
		if canon == bytecode.NEWARRAY {
			code, ok := bytecode.ArrayTypeCode(args[0].Lexeme)
			if !ok {
				c.addOperandError(args[0], "unknown array element type %q", args[0].Lexeme)
				return nil
			}
			return bytecode.IntInsn(canon, code)
		}
		if n, ok := c.intOperand(args[0], math.MinInt32, math.MaxInt32); ok {
			return bytecode.IntInsn(canon, int32(n))
		}

	case bytecode.FormatVar:
		if !c.arity(mn, args, 1) {
			return nil
		}
		if n, ok := c.intOperand(args[0], 0, math.MaxUint16); ok {
			return bytecode.VarInsn(canon, int(n))
		}

	case bytecode.FormatIinc:
		if !c.arity(mn, args, 2) {
			return nil
		}
		v, ok1 := c.intOperand(args[0], 0, math.MaxUint16)
		incr, ok2 := c.intOperand(args[1], math.MinInt16, math.MaxInt16)
		if ok1 && ok2 {
			return bytecode.IincInsn(int(v), int32(incr))
		}

	case bytecode.FormatJump:
		if c.arity(mn, args, 1) && c.word(args[0]) {
			return bytecode.JumpInsn(canon, c.label(args[0]))
		}

	case bytecode.FormatLdc:
		if !c.arity(mn, args, 1) {
			return nil
		}
		if cst, ok := c.constant(args[0]); ok {
			return bytecode.LdcInsn(cst)
		}

	case bytecode.FormatType:
		if c.arity(mn, args, 1) && c.word(args[0]) {
			return bytecode.TypeInsn(canon, args[0].Lexeme)
		}

	case bytecode.FormatField:
		if !c.arity(mn, args, 2) || !c.word(args[0]) || !c.word(args[1]) {
			return nil
		}
		owner, name, ok := splitMember(args[0].Lexeme)
		if !ok {
			c.addOperandError(args[0], "expected Owner.name, got %q", args[0].Lexeme)
			return nil
		}
		if c.descriptor(args[1], false) {
			return bytecode.FieldInsn(canon, owner, name, args[1].Lexeme)
		}

	case bytecode.FormatMethod:
		// invokeinterface may carry the legacy argument count
		if canon == bytecode.INVOKEINTERFACE && len(args) == 2 && args[1].Type == lexer.NUM {
			args = args[:1]
		}
		if !c.arity(mn, args, 1) || !c.word(args[0]) {
			return nil
		}
		sig, desc, ok := splitSignature(args[0].Lexeme)
		owner, name, ok2 := splitMember(sig)
		if !ok || !ok2 {
			c.addOperandError(args[0], "expected Owner.name(descriptor), got %q", args[0].Lexeme)
			return nil
		}
		if c.descriptor(lexer.Token{Lexeme: desc, Pos: args[0].Pos}, true) {
			return bytecode.MethodInsn(canon, owner, name, desc, canon == bytecode.INVOKEINTERFACE)
		}

	case bytecode.FormatIndy:
		if !c.arity(mn, args, 1) || !c.word(args[0]) {
			return nil
		}
		name, desc, ok := splitSignature(args[0].Lexeme)
		if !ok {
			c.addOperandError(args[0], "expected name(descriptor), got %q", args[0].Lexeme)
			return nil
		}
		return &bytecode.Instruction{Kind: bytecode.KindInsn, Op: canon, Name: name, Desc: desc}

	case bytecode.FormatMultiArray:
		if !c.arity(mn, args, 2) || !c.word(args[0]) || !c.descriptor(args[0], false) {
			return nil
		}
		if dims, ok := c.intOperand(args[1], 1, 255); ok {
			return bytecode.MultiANewArrayInsn(args[0].Lexeme, int(dims))
		}

	case bytecode.FormatSwitch:
		c.addError(mn.Pos, "%s is not supported", mn.Lexeme)

	default:
		c.addUnknownInstructionError(mn)
	}
	return nil
}

func (c *Codegen) arity(mn lexer.Token, args []lexer.Token, want int) bool {
	if len(args) == want {
		return true
	}
	switch want {
	case 0:
		c.addOperandCountError(mn, "no operands", len(args))
	case 1:
		c.addOperandCountError(mn, "one operand", len(args))
	default:
		c.addOperandCountError(mn, strconv.Itoa(want)+" operands", len(args))
	}
	return false
}

func (c *Codegen) word(tok lexer.Token) bool {
	if tok.Type != lexer.WORD {
		c.addOperandError(tok, "expected a name, got %s", tok.Lexeme)
		return false
	}
	return true
}

func (c *Codegen) descriptor(tok lexer.Token, method bool) bool {
	t := bytecode.TypeOf(tok.Lexeme)
	if err := t.Validate(); err != nil {
		c.addOperandError(tok, "%v", err)
		return false
	}
	if method != (t.Sort() == bytecode.SortMethod) {
		c.addOperandError(tok, "unexpected descriptor %q", tok.Lexeme)
		return false
	}
	return true
}

// intOperand reads a decimal integer within [lo, hi]
func (c *Codegen) intOperand(tok lexer.Token, lo, hi int64) (int64, bool) {
	if tok.Type != lexer.NUM {
		c.addOperandError(tok, "expected a number, got %s", tok.Lexeme)
		return 0, false
	}
	n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
	if err != nil {
		c.addOperandError(tok, "expected an integer, got %s", tok.Lexeme)
		return 0, false
	}
	if n < lo || n > hi {
		c.addOperandError(tok, "%d is out of range [%d, %d]", n, lo, hi)
		return 0, false
	}
	return n, true
}

// constant reads an ldc operand: a number (typed by its suffix), a quoted
// string, or a class or array type.
func (c *Codegen) constant(tok lexer.Token) (any, bool) {
	switch tok.Type {
	case lexer.STRING:
		return tok.Literal, true
	case lexer.WORD:
		if strings.HasPrefix(tok.Lexeme, "[") {
			if !c.descriptor(tok, false) {
				return nil, false
			}
			return bytecode.TypeOf(tok.Lexeme), true
		}
		return bytecode.ObjectType(tok.Lexeme), true
	case lexer.NUM:
		v, err := ParseNumber(tok.Lexeme)
		if err != nil {
			c.addOperandError(tok, "%v", err)
			return nil, false
		}
		return v, true
	}
	c.addOperandError(tok, "expected a constant, got %s", tok.Lexeme)
	return nil, false
}

// ParseNumber converts a numeric literal to int32, int64 (L suffix),
// float32 (F suffix) or float64 (D suffix, or a decimal point or exponent
// without suffix).
func ParseNumber(lit string) (any, error) {
	body, suffix := lit, byte(0)
	if n := len(lit); n > 0 && strings.ContainsRune("LlFfDd", rune(lit[n-1])) && !strings.HasSuffix(lit, "Inf") {
		body, suffix = lit[:n-1], lit[n-1]|0x20
	}

	switch suffix {
	case 'l':
		n, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad long constant %s", lit)
		}
		return n, nil
	case 'f':
		f, err := strconv.ParseFloat(body, 32)
		if err != nil {
			return nil, fmt.Errorf("bad float constant %s", lit)
		}
		return float32(f), nil
	case 'd':
		return strconv.ParseFloat(body, 64)
	}

	if strings.ContainsAny(body, ".eEIN") {
		return strconv.ParseFloat(body, 64)
	}
	n, err := strconv.ParseInt(body, 10, 32)
	if errors.Is(err, strconv.ErrRange) {
		return nil, fmt.Errorf("int constant %s out of range, use the L suffix for a long", lit)
	}
	if err != nil {
		return nil, fmt.Errorf("bad int constant %s", lit)
	}
	return int32(n), nil
}

// splitMember splits "pkg/Owner.name" at the last dot
func splitMember(s string) (owner, name string, ok bool) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// splitSignature splits "name(desc)ret" before the opening parenthesis
func splitSignature(s string) (name, desc string, ok bool) {
	i := strings.IndexByte(s, '(')
	if i <= 0 {
		return "", "", false
	}
	return s[:i], s[i:], true
}
