package codegen

import (
	"fmt"

	"liveedit/pkg/color"
	"liveedit/pkg/lexer"
)

// Error is a semantic error at a source position.
type Error struct {
	Pos lexer.Position
	Msg string
}

func (e Error) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

func (c *Codegen) addError(pos lexer.Position, format string, args ...any) {
	c.errors = append(c.errors, Error{pos, fmt.Sprintf(format, args...)})
}

func (c *Codegen) addUnknownInstructionError(tok lexer.Token) {
	c.addError(tok.Pos, "%s `%s`", color.RedText("Unknown instruction"), color.BlueText(tok.Lexeme))
}

func (c *Codegen) addUndefinedLabelError(name string, pos lexer.Position) {
	c.addError(pos, "%s `%s`", color.RedText("Undefined label"), color.BlueText(name))
}

func (c *Codegen) addRedeclarationError(kind, name string, pos lexer.Position) {
	c.addError(pos, "%s `%s`", color.RedText("Redeclaration of "+kind), color.BlueText(name))
}

func (c *Codegen) addOperandCountError(mnemonic lexer.Token, want string, got int) {
	c.addError(mnemonic.Pos, "%s takes %s, got %d", color.BlueText(mnemonic.Lexeme), want, got)
}

func (c *Codegen) addOperandError(tok lexer.Token, format string, args ...any) {
	c.addError(tok.Pos, "%s: %s", color.RedText("Bad operand"), fmt.Sprintf(format, args...))
}

func (c *Codegen) GetErrors() []Error {
	return c.errors
}
