// Package lexer splits the textual bytecode assembly format into tokens.
package lexer

import (
	"strconv"
	"strings"
)

type Lexer struct {
	input    string // input string to be tokenized
	length   int    // length of the input string
	position int    // current position in the input string
	line     int    // current line number for error reporting
	column   int    // current column number for error reporting
}

// Create a new lexer instance
func NewLexer(s string) *Lexer {
	return &Lexer{
		input:  s,
		length: len(s),
		line:   1,
		column: 1,
	}
}

// NextToken returns the next token. A run of line breaks, blank lines and
// comment-only lines yields a single NEWLINE.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	// End of input
	if l.position >= l.length {
		return NewToken(EOF, "", "", l.currentPosition())
	}

	if l.input[l.position] == '\n' {
		pos := l.currentPosition()
		for l.position < l.length && l.input[l.position] == '\n' {
			l.advance(1)
			l.skipWhitespace()
		}
		return NewToken(NEWLINE, "\n", "", pos)
	}

	// Regex match the first token it sees from the remaining input
	remaining := l.input[l.position:]
	tokenType, lexeme, matched := MatchToken(remaining)
	pos := l.currentPosition()

	if !matched {
		l.advance(1)
		return NewToken(ILLEGAL, lexeme, "", pos)
	}

	literal := lexeme
	if tokenType == STRING {
		s, err := strconv.Unquote(lexeme)
		if err != nil {
			l.advance(len(lexeme))
			return NewToken(ILLEGAL, lexeme, "", pos)
		}
		literal = s
	}

	l.advance(len(lexeme))
	return NewToken(tokenType, lexeme, literal, pos)
}

// View next token without advancing the position
func (l *Lexer) Peek() Token {
	// save state
	cpos := l.position
	cline := l.line
	ccol := l.column

	token := l.NextToken()

	// restore state
	l.position = cpos
	l.line = cline
	l.column = ccol

	return token
}

// Check if there are more characters to read
func (l *Lexer) HasMore() bool {
	return l.position < l.length
}

// Line returns the text of the given 1-based source line, for error context.
func (l *Lexer) Line(n int) string {
	lines := strings.Split(l.input, "\n")
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[n-1], "\r")
}

// skipWhitespace skips blanks and comments but stops at a line break
func (l *Lexer) skipWhitespace() {
	for l.position < l.length {
		tokenType, lexeme, matched := MatchToken(l.input[l.position:])
		if !matched || tokenType != EOF {
			return
		}
		l.advance(len(lexeme))
	}
}

// Advance the lexer position by n bytes
func (l *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		if l.position >= l.length {
			break
		}

		if l.input[l.position] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}

		l.position++
	}
}

// Get the current position of the lexer
func (l *Lexer) currentPosition() Position {
	return Position{
		Line:   l.line,
		Column: l.column,
		Offset: l.position,
	}
}
