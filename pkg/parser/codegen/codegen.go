// Package codegen holds the semantic actions of the assembly grammar. The
// parser calls them as it walks the input and they build bytecode classes.
package codegen

import (
	"liveedit/pkg/bytecode"
	"liveedit/pkg/lexer"
	"liveedit/pkg/stack"
)

// labelRef records where a label was first used, for undefined label errors
type labelRef struct {
	name string
	pos  lexer.Position
}

type Codegen struct {
	ss           *stack.Stack[lexer.Token]  // Semantic stack: tokens of the line being assembled
	currentToken lexer.Token                // Last matched token
	flags        bytecode.Access            // Access flags collected for the next declaration
	classes      []*bytecode.Class          // Assembled classes, in source order
	class        *bytecode.Class            // Class being assembled
	field        *bytecode.Field            // Field being declared
	method       *bytecode.Method           // Method being assembled
	methodPos    lexer.Position             // Position of the method signature
	limits       map[string]bool            // .limit kinds given for the current method
	labels       map[string]*bytecode.Label // Labels of the current method
	placed       map[string]bool            // Labels placed in the current method
	refs         []labelRef                 // Label uses in the current method
	errors       []Error                    // List of semantic errors
}

// NewCodegen creates a new Codegen instance
func NewCodegen() *Codegen {
	return &Codegen{
		ss: stack.NewStack[lexer.Token](),
	}
}

// Classes returns the assembled classes
func (c *Codegen) Classes() []*bytecode.Class {
	return c.classes
}

// SetCurrentToken sets the current token being processed
func (c *Codegen) SetCurrentToken(token lexer.Token) {
	c.currentToken = token
}

// take drains the semantic stack, bottom first
func (c *Codegen) take() []lexer.Token {
	toks := append([]lexer.Token(nil), c.ss.Array()...)
	c.ss.Clear()
	return toks
}

// resetMethod clears the per-method label and limit bookkeeping
func (c *Codegen) resetMethod() {
	c.method = nil
	c.limits = make(map[string]bool)
	c.labels = make(map[string]*bytecode.Label)
	c.placed = make(map[string]bool)
	c.refs = nil
}

// label returns the label named by tok, creating it on first use
func (c *Codegen) label(tok lexer.Token) *bytecode.Label {
	l, ok := c.labels[tok.Lexeme]
	if !ok {
		l = &bytecode.Label{Name: tok.Lexeme}
		c.labels[tok.Lexeme] = l
		c.refs = append(c.refs, labelRef{tok.Lexeme, tok.Pos})
	}
	return l
}

// emit appends a node to the current method
func (c *Codegen) emit(in *bytecode.Instruction) {
	if c.method == nil || in == nil {
		return
	}
	c.method.Instructions = append(c.method.Instructions, in)
}

// localsNeeded is the smallest locals size that holds the arguments and
// every slot the code touches.
func localsNeeded(m *bytecode.Method) int {
	n := m.Type().ArgumentsSize()
	if !m.IsStatic() {
		n++
	}
	for _, in := range m.Instructions {
		if in.Kind != bytecode.KindInsn {
			continue
		}
		switch in.Op {
		case bytecode.LLOAD, bytecode.DLOAD, bytecode.LSTORE, bytecode.DSTORE:
			n = max(n, in.Var+2)
		case bytecode.ILOAD, bytecode.FLOAD, bytecode.ALOAD,
			bytecode.ISTORE, bytecode.FSTORE, bytecode.ASTORE,
			bytecode.IINC, bytecode.RET:
			n = max(n, in.Var+1)
		}
	}
	return n
}
