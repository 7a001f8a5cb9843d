package lexer

import (
	"fmt"
)

type TokenType int
type TokenCategory int

type Token struct {
	Type    TokenType // Type of the token
	Lexeme  string    // Actual string from source code
	Literal string    // Decoded value for strings, the lexeme otherwise
	Pos     Position  // Position in source code
}

// Position locates a token in the source. Line and Column are 1-based.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// NewToken creates a new Token instance
func NewToken(tokenType TokenType, lexeme string, literal string, pos Position) Token {
	return Token{
		Type:    tokenType,
		Lexeme:  lexeme,
		Literal: literal,
		Pos:     pos,
	}
}

const (
	NONE TokenCategory = iota
	DIRECTIVE
	KEYWORD
	IDENTIFIER
	LITERAL
	DELIMITER
)

const (
	EOF TokenType = iota // End of file

	CLASS      // .class
	SUPER      // .super
	IMPLEMENTS // .implements
	SOURCE     // .source
	FIELD      // .field
	METHOD     // .method
	LIMIT      // .limit
	CATCH      // .catch
	LINE       // .line
	FRAME      // .frame
	END        // .end

	FROM  // from
	TO    // to
	USING // using
	FLAG  // public, static, ...

	WORD   // names, descriptors, mnemonics and labels
	NUM    // number, optionally suffixed with L, F or D
	STRING // quoted string literal

	COLON   // :
	ASSIGN  // =
	NEWLINE // one or more line breaks

	ILLEGAL // illegal token
)

// Keywords are words with a meaning of their own. Access flags share one
// token type; the parser reads the flag from the lexeme.
var Keywords = map[string]TokenType{
	"from":  FROM,
	"to":    TO,
	"using": USING,

	"public":    FLAG,
	"private":   FLAG,
	"protected": FLAG,
	"static":    FLAG,
	"final":     FLAG,
	"super":     FLAG,
	"native":    FLAG,
	"interface": FLAG,
	"abstract":  FLAG,
}

var tokenNames = map[TokenType]string{
	CLASS:      ".class",
	SUPER:      ".super",
	IMPLEMENTS: ".implements",
	SOURCE:     ".source",
	FIELD:      ".field",
	METHOD:     ".method",
	LIMIT:      ".limit",
	CATCH:      ".catch",
	LINE:       ".line",
	FRAME:      ".frame",
	END:        ".end",
	FROM:       "from",
	TO:         "to",
	USING:      "using",
	FLAG:       "flag",
	WORD:       "word",
	NUM:        "num",
	STRING:     "string",
	COLON:      ":",
	ASSIGN:     "=",
	NEWLINE:    "nl",
	EOF:        "$",
}

// TokenToString converts a TokenType to the grammar symbol the parser uses for it
func (t Token) TokenToString() (string, bool) {
	str, ok := tokenNames[t.Type]
	return str, ok
}

// String returns a string representation of the Token
func (t Token) String() string {
	if t.Literal == "" {
		return fmt.Sprintf("T_{%s, %q, nil, %s}", t.Type, t.Lexeme, t.Pos)
	}

	return fmt.Sprintf("T_{%s, %q, %q, %s}", t.Type, t.Lexeme, t.Literal, t.Pos)
}

// String returns a string representation of the TokenType
func (t TokenType) String() string {
	if str, ok := (Token{Type: t}).TokenToString(); ok {
		return str
	}

	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// GetCategory returns the category of the token
func (t TokenType) GetCategory() TokenCategory {
	switch t {
	case CLASS, SUPER, IMPLEMENTS, SOURCE, FIELD, METHOD, LIMIT, CATCH, LINE, FRAME, END:
		return DIRECTIVE
	case FROM, TO, USING, FLAG:
		return KEYWORD
	case WORD:
		return IDENTIFIER
	case NUM, STRING:
		return LITERAL
	case COLON, ASSIGN, NEWLINE:
		return DELIMITER
	default:
		return NONE
	}
}

// IsKeyword checks if the given word is a keyword and returns its TokenType if it is
func IsKeyword(word string) (TokenType, bool) {
	tokenType, ok := Keywords[word]
	return tokenType, ok
}
