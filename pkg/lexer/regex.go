package lexer

import (
	"regexp"
)

type tokenRegex struct {
	Pattern *regexp.Regexp
	Raw     string
}

func rx(raw string) tokenRegex {
	return tokenRegex{regexp.MustCompile(raw), raw}
}

// Token regex patterns
var tokenRegexes = map[TokenType]tokenRegex{
	CLASS:      rx(`^\.class\b`),
	SUPER:      rx(`^\.super\b`),
	IMPLEMENTS: rx(`^\.implements\b`),
	SOURCE:     rx(`^\.source\b`),
	FIELD:      rx(`^\.field\b`),
	METHOD:     rx(`^\.method\b`),
	LIMIT:      rx(`^\.limit\b`),
	CATCH:      rx(`^\.catch\b`),
	LINE:       rx(`^\.line\b`),
	FRAME:      rx(`^\.frame\b`),
	END:        rx(`^\.end\b`),

	COLON:  rx(`^:`),
	ASSIGN: rx(`^=`),

	NUM:    rx(`^[+-]?(\d+(\.\d+)?([eE][+-]?\d+)?|NaN|Inf)[LlFfDd]?\b`),
	STRING: rx(`^"([^"\\\n]|\\.)*"`),
	// Descriptors end in ';', so a word runs until whitespace, ':', '=' or a quote.
	WORD: rx(`^[A-Za-z_$<\[(][^\s:="]*`),
}

var (
	whitespaceRegex = regexp.MustCompile(`^[ \t\r]+`)
	commentRegex    = regexp.MustCompile(`^(//|;)[^\n]*`)
)

// Token precedence order for matching. Numbers come before words so that
// NaN and Inf read as constants.
var tokenPrecedenceOrder = []TokenType{
	IMPLEMENTS, SOURCE, METHOD, CLASS, SUPER, FIELD, LIMIT, CATCH, FRAME, LINE, END,
	COLON, ASSIGN, NUM, STRING, WORD,
}

// Get the regex pattern for a token type
func (t TokenType) Regex() *regexp.Regexp {
	if regex, ok := tokenRegexes[t]; ok {
		return regex.Pattern
	}

	return nil
}

// Get the raw regex string for a token type
func (t TokenType) RawRegex() string {
	if regex, ok := tokenRegexes[t]; ok {
		return regex.Raw
	}

	return ""
}

// MatchToken matches the first token at the start of s. Whitespace and
// comments are reported as EOF with the skipped text as lexeme.
func MatchToken(s string) (TokenType, string, bool) {
	if s == "" {
		return EOF, "", false
	} else if match := whitespaceRegex.FindString(s); match != "" {
		return EOF, match, true
	} else if match := commentRegex.FindString(s); match != "" {
		return EOF, match, true
	}

	for _, tokenType := range tokenPrecedenceOrder {
		if regex, ok := tokenRegexes[tokenType]; ok {
			if match := regex.Pattern.FindString(s); match != "" {
				if tokenType == WORD {
					if kw, ok := IsKeyword(match); ok {
						return kw, match, true
					}
				}
				return tokenType, match, true
			}
		}
	}

	return ILLEGAL, string(s[0]), false
}
