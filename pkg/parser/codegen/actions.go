package codegen

import (
	"github.com/charmbracelet/log"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/lexer"
)

const objectClass = "java/lang/Object"

// classStartAction begins a class declaration
func (c *Codegen) classStartAction() {
	c.flags = 0
	c.class = nil
}

// flagAction collects one access flag for the declaration being parsed
func (c *Codegen) flagAction() {
	if f, ok := bytecode.LookupAccess(c.currentToken.Lexeme); ok {
		c.flags |= f
	}
}

// classNameAction creates the class. Classes extend java/lang/Object unless
// a .super directive follows.
func (c *Codegen) classNameAction() {
	tok := c.currentToken
	for _, other := range c.classes {
		if other.Name == tok.Lexeme {
			c.addRedeclarationError("class", tok.Lexeme, tok.Pos)
		}
	}

	c.class = &bytecode.Class{Name: tok.Lexeme, Access: c.flags}
	if tok.Lexeme != objectClass {
		c.class.Super = objectClass
	}
	c.classes = append(c.classes, c.class)
}

func (c *Codegen) superAction() {
	if c.class != nil {
		c.class.Super = c.currentToken.Lexeme
	}
}

func (c *Codegen) implementsAction() {
	if c.class != nil {
		c.class.Interfaces = append(c.class.Interfaces, c.currentToken.Lexeme)
	}
}

func (c *Codegen) sourceAction() {
	if c.class != nil {
		c.class.Source = c.currentToken.Literal
	}
}

// classEndAction closes the class
func (c *Codegen) classEndAction() {
	if c.class == nil {
		return
	}
	log.Debug("codegen: class", "name", c.class.Name, "fields", len(c.class.Fields), "methods", len(c.class.Methods))
	c.class = nil
}

// fieldStartAction begins a field declaration
func (c *Codegen) fieldStartAction() {
	c.flags = 0
	c.field = nil
}

func (c *Codegen) fieldNameAction() {
	tok := c.currentToken
	if c.class == nil {
		return
	}
	if c.class.Field(tok.Lexeme) != nil {
		c.addRedeclarationError("field", tok.Lexeme, tok.Pos)
	}
	c.field = &bytecode.Field{Name: tok.Lexeme, Access: c.flags}
}

func (c *Codegen) fieldDescAction() {
	tok := c.currentToken
	if c.field == nil || !c.descriptor(tok, false) {
		return
	}
	c.field.Desc = tok.Lexeme
	c.class.Fields = append(c.class.Fields, c.field)
}

// fieldValueAction sets the constant initialiser of a static field
func (c *Codegen) fieldValueAction() {
	tok := c.currentToken
	if c.field == nil || c.field.Desc == "" {
		return
	}
	if !c.field.IsStatic() {
		c.addError(tok.Pos, "only static fields take a constant value")
		return
	}
	if v, ok := c.fieldConstant(tok, c.field.Desc); ok {
		c.field.Value = v
	}
}

// fieldConstant converts tok to the constant type a field of type desc
// stores. Integer literals widen to long, float and double fields.
func (c *Codegen) fieldConstant(tok lexer.Token, desc string) (any, bool) {
	var v any
	switch tok.Type {
	case lexer.NUM:
		n, err := ParseNumber(tok.Lexeme)
		if err != nil {
			c.addOperandError(tok, "%v", err)
			return nil, false
		}
		v = n
	case lexer.STRING:
		v = tok.Literal
	}

	switch desc {
	case "I", "S", "B", "C", "Z":
		if n, ok := v.(int32); ok {
			return n, true
		}
	case "J":
		switch n := v.(type) {
		case int64:
			return n, true
		case int32:
			return int64(n), true
		}
	case "F":
		switch n := v.(type) {
		case float32:
			return n, true
		case float64:
			return float32(n), true
		case int32:
			return float32(n), true
		}
	case "D":
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int32:
			return float64(n), true
		}
	case "Ljava/lang/String;":
		if s, ok := v.(string); ok {
			return s, true
		}
	default:
		c.addError(tok.Pos, "a field of type %s cannot have a constant value", desc)
		return nil, false
	}
	c.addError(tok.Pos, "constant %s does not fit a field of type %s", tok.Lexeme, desc)
	return nil, false
}

// methodStartAction begins a method declaration
func (c *Codegen) methodStartAction() {
	c.flags = 0
	c.resetMethod()
}

// methodSigAction creates the method from "name(desc)ret"
func (c *Codegen) methodSigAction() {
	tok := c.currentToken
	if c.class == nil {
		return
	}
	name, desc, ok := splitSignature(tok.Lexeme)
	if !ok {
		c.addError(tok.Pos, "expected name(descriptor), got %q", tok.Lexeme)
		return
	}
	if !c.descriptor(lexer.Token{Lexeme: desc, Pos: tok.Pos}, true) {
		return
	}
	if c.class.Method(name, desc) != nil {
		c.addRedeclarationError("method", name+desc, tok.Pos)
	}

	c.method = &bytecode.Method{
		Owner:  c.class.Name,
		Name:   name,
		Desc:   desc,
		Source: c.class.Source,
		Access: c.flags,
	}
	c.methodPos = tok.Pos
	c.class.Methods = append(c.class.Methods, c.method)
}

// operandAction pushes the matched token onto the semantic stack
func (c *Codegen) operandAction() {
	c.ss.Push(c.currentToken)
}

// limitAction handles ".limit locals n" and ".limit stack n"
func (c *Codegen) limitAction() {
	toks := c.take()
	if c.method == nil || len(toks) != 2 {
		return
	}
	kind, num := toks[0], toks[1]
	n, ok := c.intOperand(num, 0, 65535)
	if !ok {
		return
	}
	switch kind.Lexeme {
	case "locals":
		c.method.MaxLocals = int(n)
	case "stack":
		c.method.MaxStack = int(n)
	default:
		c.addError(kind.Pos, "unknown limit %q, expected locals or stack", kind.Lexeme)
		return
	}
	c.limits[kind.Lexeme] = true
}

// catchAction handles ".catch Type from Start to End using Handler".
// The type "all" catches every exception.
func (c *Codegen) catchAction() {
	toks := c.take()
	if c.method == nil || len(toks) != 4 {
		return
	}
	typ := toks[0].Lexeme
	if typ == "all" {
		typ = ""
	}
	c.method.TryCatchBlocks = append(c.method.TryCatchBlocks, bytecode.TryCatchBlock{
		Start:   c.label(toks[1]),
		End:     c.label(toks[2]),
		Handler: c.label(toks[3]),
		Type:    typ,
	})
}

func (c *Codegen) lineAction() {
	if n, ok := c.intOperand(c.currentToken, 1, 65535); ok {
		c.emit(bytecode.LineNode(int(n)))
	}
}

func (c *Codegen) frameAction() {
	c.emit(bytecode.FrameNode())
}

// labelAction places the label named by the word on the semantic stack
func (c *Codegen) labelAction() {
	toks := c.take()
	if c.method == nil || len(toks) != 1 {
		return
	}
	tok := toks[0]
	if c.placed[tok.Lexeme] {
		c.addRedeclarationError("label", tok.Lexeme, tok.Pos)
		return
	}
	c.placed[tok.Lexeme] = true
	c.emit(bytecode.LabelNode(c.label(tok)))
}

// insnAction assembles the mnemonic and operands on the semantic stack
func (c *Codegen) insnAction() {
	toks := c.take()
	if c.method == nil || len(toks) == 0 {
		return
	}
	c.emit(c.assemble(toks[0], toks[1:]))
}

// methodEndAction checks ".end method", reports labels that were used but
// never placed, fills in a default locals size and links the method.
func (c *Codegen) methodEndAction() {
	tok := c.currentToken
	if tok.Lexeme != "method" {
		c.addError(tok.Pos, "expected .end method, got .end %s", tok.Lexeme)
	}
	m := c.method
	if m == nil {
		return
	}
	defer c.resetMethod()

	if m.Access.Is(bytecode.AccAbstract) || m.Access.Is(bytecode.AccNative) {
		if len(m.Instructions) > 0 {
			c.addError(c.methodPos, "abstract or native method %s has code", m.Name)
			return
		}
	}

	errs := len(c.errors)
	for _, ref := range c.refs {
		if !c.placed[ref.name] {
			c.addUndefinedLabelError(ref.name, ref.pos)
		}
	}
	if !c.limits["locals"] {
		m.MaxLocals = localsNeeded(m)
	}
	if len(c.errors) > errs {
		return
	}

	if err := m.Link(); err != nil {
		c.addError(c.methodPos, "%v", err)
		return
	}
	log.Debug("codegen: method", "name", m.FullName(), "insns", len(m.Instructions),
		"locals", m.MaxLocals, "stack", m.MaxStack)
}

// ExecuteAction executes the semantic action corresponding to the given action name
func (c *Codegen) ExecuteAction(actionName string) {
	SemanticActions := map[string]func(){
		"@class_start":  c.classStartAction,
		"@flag":         c.flagAction,
		"@class_name":   c.classNameAction,
		"@super":        c.superAction,
		"@implements":   c.implementsAction,
		"@source":       c.sourceAction,
		"@class_end":    c.classEndAction,
		"@field_start":  c.fieldStartAction,
		"@field_name":   c.fieldNameAction,
		"@field_desc":   c.fieldDescAction,
		"@field_value":  c.fieldValueAction,
		"@method_start": c.methodStartAction,
		"@method_sig":   c.methodSigAction,
		"@method_end":   c.methodEndAction,
		"@operand":      c.operandAction,
		"@limit":        c.limitAction,
		"@catch":        c.catchAction,
		"@line":         c.lineAction,
		"@frame":        c.frameAction,
		"@label":        c.labelAction,
		"@insn":         c.insnAction,
	}

	if action, exists := SemanticActions[actionName]; exists {
		action()
	} else {
		log.Error("Unknown semantic action", "action", actionName)
	}
}
