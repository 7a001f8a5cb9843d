// Package parser is an LL(1) table-driven parser for the bytecode assembly
// format. Semantic actions embedded in the grammar build classes through
// package codegen.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/lexer"
	"liveedit/pkg/parser/codegen"
	"liveedit/pkg/stack"
)

// ErrAssembly wraps the messages of a failed assembly.
var ErrAssembly = errors.New("assembly failed")

type Parser struct {
	stack        *stack.Stack[string] // LL(1) parsing stack
	lexer        *lexer.Lexer         // lexer instance
	cg           *codegen.Codegen     // code generator instance
	currentToken lexer.Token          // current token
	table        ParsingTable         // LL(1) parsing table
	errors       []string             // list of syntax errors
}

// NewParser creates a new parser instance
func NewParser(l *lexer.Lexer) *Parser {
	p := &Parser{
		lexer:  l,
		cg:     codegen.NewCodegen(),
		table:  NewParsingTable(),
		stack:  stack.NewStack("$", "Program"), // Program is start state and $ is bottom of the stack
		errors: []string{},
	}

	// Initialize current token
	p.nextToken()

	return p
}

// Parse runs the parser over the whole input. Semantic actions stop running
// after the first syntax error; parsing continues to report further errors.
func (p *Parser) Parse() {
	for p.stack.Size() > 1 { // While stack is not empty (only $ remains)
		top, _ := p.stack.Pop()

		if p.isTerminal(top) {
			switch {
			case p.isSemanticAction(top):
				if len(p.errors) == 0 {
					p.cg.ExecuteAction(top)
				}
			case p.matchTerminal(top):
				p.cg.SetCurrentToken(p.currentToken)
				p.nextToken()
			default:
				p.handleTerminalError(top)
				p.synchronize()
			}
			continue
		}

		// Non-terminal: pick production from table
		production, ok := p.table[top][p.currentToken.Type]
		if !ok {
			p.handleNonTerminalError(top)
			// retry the same non-terminal on the next line
			if syncPoints[top] && p.currentToken.Type != lexer.EOF {
				p.stack.Push(top)
			}
			p.synchronize()
			continue
		}

		// Push RHS of production onto stack in reverse order (so first symbol is on top)
		for i := len(production.RHS) - 1; i >= 0; i-- {
			if production.RHS[i] != "ε" {
				p.stack.Push(production.RHS[i])
			}
		}
	}

	if p.currentToken.Type != lexer.EOF {
		p.handleUnexpectedEndOfInput()
	}
}

// nextToken advances to the next token from the lexer, reporting and
// skipping illegal characters
func (p *Parser) nextToken() {
	p.currentToken = p.lexer.NextToken()
	for p.currentToken.Type == lexer.ILLEGAL {
		p.addError(fmt.Sprintf("Illegal character %q", p.currentToken.Lexeme))
		p.currentToken = p.lexer.NextToken()
	}
}

// isSemanticAction checks if a symbol is a semantic action
func (p *Parser) isSemanticAction(symbol string) bool {
	return strings.HasPrefix(symbol, "@")
}

// Classes returns the assembled classes
func (p *Parser) Classes() []*bytecode.Class {
	return p.cg.Classes()
}

// GetSemanticErrors returns the list of semantic errors, formatted with
// their source line
func (p *Parser) GetSemanticErrors() []string {
	var out []string
	for _, e := range p.cg.GetErrors() {
		out = append(out, p.format(e.Pos, e.Msg))
	}
	return out
}

// GetCG returns the code generator instance
func (p *Parser) GetCG() *codegen.Codegen {
	return p.cg
}

// Err folds syntax and semantic errors into one error, or returns nil.
func (p *Parser) Err() error {
	all := append(append([]string(nil), p.Errors()...), p.GetSemanticErrors()...)
	if len(all) == 0 {
		return nil
	}
	return fmt.Errorf("%w:\n%s", ErrAssembly, strings.Join(all, "\n"))
}

// Assemble parses src and returns its classes. name is used as the source
// file of classes without a .source directive.
func Assemble(name, src string) ([]*bytecode.Class, error) {
	p := NewParser(lexer.NewLexer(src))
	p.Parse()
	if err := p.Err(); err != nil {
		return nil, err
	}

	classes := p.Classes()
	for _, c := range classes {
		if c.Source == "" {
			c.Source = name
			for _, m := range c.Methods {
				m.Source = name
			}
		}
	}
	log.Debug("parser: assembled", "file", name, "classes", len(classes))
	return classes, nil
}
