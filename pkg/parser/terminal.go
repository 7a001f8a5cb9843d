package parser

import (
	"strings"

	"liveedit/pkg/lexer"
)

// terminals maps the grammar's terminal symbols to token types
var terminals = func() map[string]lexer.TokenType {
	m := make(map[string]lexer.TokenType)
	for t := lexer.EOF; t < lexer.ILLEGAL; t++ {
		if name, ok := (lexer.Token{Type: t}).TokenToString(); ok {
			m[name] = t
		}
	}
	return m
}()

// isTerminal checks if a symbol is a terminal
func (p *Parser) isTerminal(symbol string) bool {
	// Semantic actions are considered terminals
	if strings.HasPrefix(symbol, "@") {
		return true
	}

	_, ok := terminals[symbol]
	return ok
}

// matchTerminal checks if the current token matches the expected terminal
func (p *Parser) matchTerminal(expected string) bool {
	t, ok := terminals[expected]
	return ok && p.currentToken.Type == t
}
