package parser

import (
	"fmt"

	"liveedit/pkg/color"
	"liveedit/pkg/lexer"
)

// syncPoints are the non-terminals parsing resumes at after an error
var syncPoints = map[string]bool{
	"Classes": true,
	"Header":  true,
	"Members": true,
	"Body":    true,
}

// handleTerminalError is called when a terminal on the stack doesn't match current token.
func (p *Parser) handleTerminalError(expected string) {
	p.addContextualError(expected)
}

// handleNonTerminalError is called when there is no production for top non-terminal and current token.
func (p *Parser) handleNonTerminalError(expected string) {
	p.addContextualError(expected)
}

// handleUnexpectedEndOfInput is called when the grammar is done but input remains
func (p *Parser) handleUnexpectedEndOfInput() {
	p.addError(fmt.Sprintf("Unexpected %s after the last class", describe(p.currentToken)))
}

// synchronize drops the rest of the current line and unwinds the stack to
// the nearest point where a new line can start.
func (p *Parser) synchronize() {
	for p.currentToken.Type != lexer.NEWLINE && p.currentToken.Type != lexer.EOF {
		p.nextToken()
	}
	if p.currentToken.Type == lexer.NEWLINE {
		p.nextToken()
	}

	for p.stack.Size() > 1 {
		if top, _ := p.stack.Peek(); syncPoints[top] {
			return
		}
		p.stack.Pop()
	}
}

// addError records a parsing error with location
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, p.format(p.currentToken.Pos, msg))
}

func (p *Parser) format(pos lexer.Position, msg string) string {
	return color.ErrorWithPosition(pos.Line, pos.Column, msg, p.lexer.Line(pos.Line))
}

// Errors returns the list of parsing errors
func (p *Parser) Errors() []string {
	return p.errors
}

// addContextualError generates a contextual error message based on expected and current token
func (p *Parser) addContextualError(expected string) {
	p.addError(p.categorizeError(expected, p.currentToken))
}

// categorizeError provides a specific error message based on expected symbol and current token
func (p *Parser) categorizeError(expected string, current lexer.Token) string {
	atLineEnd := current.Type == lexer.NEWLINE || current.Type == lexer.EOF

	switch expected {
	case "Eol", "nl":
		return fmt.Sprintf("Expected end of line, found %s", describe(current))
	case ".end":
		return "Missing .end method"
	case "from", "to", "using":
		return fmt.Sprintf("Expected '%s' in .catch", expected)
	case ":":
		return "Missing colon after label"
	case "num":
		return fmt.Sprintf("Expected number, found %s", describe(current))
	case "Const":
		return fmt.Sprintf("Expected constant value, found %s", describe(current))
	case "Name":
		return "Expected source file name"
	case "word":
		if atLineEnd {
			return "Missing name"
		}
		if current.Type.GetCategory() == lexer.KEYWORD {
			return fmt.Sprintf("Cannot use keyword %q as a name", current.Lexeme)
		}
		return fmt.Sprintf("Expected name, found %s", describe(current))
	}

	switch expected {
	case "Program", "Sep", "Classes", "Class":
		return fmt.Sprintf("Expected .class directive, found %s", describe(current))
	case "Flags":
		if current.Type.GetCategory() == lexer.KEYWORD {
			return fmt.Sprintf("Cannot use keyword %q as a name", current.Lexeme)
		}
		return "Missing name after access flags"
	case "Header", "Members":
		if current.Type == lexer.WORD || current.Type.GetCategory() == lexer.DIRECTIVE {
			return fmt.Sprintf("%s outside of a method", describe(current))
		}
	case "Body", "Stmt":
		if current.Type == lexer.EOF || current.Type == lexer.METHOD || current.Type == lexer.CLASS || current.Type == lexer.FIELD {
			return "Missing .end method"
		}
		return fmt.Sprintf("Unexpected %s in method body", describe(current))
	case "StmtTail", "Operands", "Operand":
		return fmt.Sprintf("Unexpected %s in instruction operands", describe(current))
	}

	return "Syntax error"
}

func describe(t lexer.Token) string {
	switch t.Type {
	case lexer.EOF:
		return "end of input"
	case lexer.NEWLINE:
		return "end of line"
	}
	return fmt.Sprintf("'%s'", t.Lexeme)
}
