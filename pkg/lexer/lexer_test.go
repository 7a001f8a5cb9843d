package lexer_test

import (
	"testing"

	"liveedit/pkg/lexer"
)

func collect(t *testing.T, input string) []lexer.Token {
	t.Helper()
	l := lexer.NewLexer(input)
	var toks []lexer.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == lexer.EOF {
			return toks
		}
		if len(toks) > 1000 {
			t.Fatal("lexer does not terminate")
		}
	}
}

func TestTokens(t *testing.T) {
	input := `.class public demo/Calc
.super java/lang/Object
.method public static add(II)I
  .limit stack 2
  .catch java/lang/ArithmeticException from L0 to L1 using L2
L0:
  iload 0
  invokestatic java/lang/String.valueOf(I)Ljava/lang/String;
  ldc "a b"
.end method`

	expected := []lexer.TokenType{
		lexer.CLASS, lexer.FLAG, lexer.WORD, lexer.NEWLINE,
		lexer.SUPER, lexer.WORD, lexer.NEWLINE,
		lexer.METHOD, lexer.FLAG, lexer.FLAG, lexer.WORD, lexer.NEWLINE,
		lexer.LIMIT, lexer.WORD, lexer.NUM, lexer.NEWLINE,
		lexer.CATCH, lexer.WORD, lexer.FROM, lexer.WORD, lexer.TO, lexer.WORD, lexer.USING, lexer.WORD, lexer.NEWLINE,
		lexer.WORD, lexer.COLON, lexer.NEWLINE,
		lexer.WORD, lexer.NUM, lexer.NEWLINE,
		lexer.WORD, lexer.WORD, lexer.NEWLINE,
		lexer.WORD, lexer.STRING, lexer.NEWLINE,
		lexer.END, lexer.WORD,
		lexer.EOF,
	}

	toks := collect(t, input)
	if len(toks) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(toks), toks)
	}
	for i, want := range expected {
		if toks[i].Type != want {
			t.Errorf("Token %d: expected %s, got %s (%q)", i, want, toks[i].Type, toks[i].Lexeme)
		}
	}

	if got := toks[10].Lexeme; got != "add(II)I" {
		t.Errorf("expected method signature as one word, got %q", got)
	}
	if got := toks[32].Lexeme; got != "java/lang/String.valueOf(I)Ljava/lang/String;" {
		t.Errorf("descriptor split at ';': %q", got)
	}
	if got := toks[35].Literal; got != "a b" {
		t.Errorf("expected unquoted literal, got %q", got)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input       string
		description string
	}{
		{"42", "integer"},
		{"-7", "negative integer"},
		{"+3", "explicit sign"},
		{"9223372036854775807L", "long"},
		{"1.5F", "float"},
		{"-0.5D", "double"},
		{"1e+20D", "exponent with sign"},
		{"1e-05F", "exponent with leading zero"},
		{"2.5E10", "upper case exponent"},
		{"NaNF", "not a number"},
		{"+InfD", "positive infinity"},
		{"-InfF", "negative infinity"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			tokenType, lexeme, matched := lexer.MatchToken(tt.input)
			if !matched || tokenType != lexer.NUM {
				t.Fatalf("expected num, got %s (matched %v)", tokenType, matched)
			}
			if lexeme != tt.input {
				t.Errorf("expected lexeme %s, got %s", tt.input, lexeme)
			}
		})
	}

	for _, word := range []string{"NaNcy", "Infinite", "iload_0"} {
		if tokenType, _, _ := lexer.MatchToken(word); tokenType != lexer.WORD {
			t.Errorf("%s: expected word, got %s", word, tokenType)
		}
	}
}

func TestComments(t *testing.T) {
	input := `// header comment

.class Demo ; trailing comment
; a whole line

  // indented comment
.end`

	expected := []lexer.TokenType{
		lexer.NEWLINE,
		lexer.CLASS, lexer.WORD, lexer.NEWLINE,
		lexer.END,
		lexer.EOF,
	}

	toks := collect(t, input)
	if len(toks) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(toks), toks)
	}
	for i, want := range expected {
		if toks[i].Type != want {
			t.Errorf("Token %d: expected %s, got %s", i, want, toks[i].Type)
		}
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"plain"`, "plain"},
		{`"tab\there"`, "tab\there"},
		{`"quote \" inside"`, `quote " inside`},
		{`"été"`, "été"},
		{`""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := lexer.NewLexer(tt.input).NextToken()
			if tok.Type != lexer.STRING {
				t.Fatalf("expected string, got %s", tok.Type)
			}
			if tok.Literal != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tok.Literal)
			}
		})
	}

	if tok := lexer.NewLexer(`"unterminated`).NextToken(); tok.Type != lexer.ILLEGAL {
		t.Errorf("expected illegal token, got %s", tok.Type)
	}
}

func TestPositions(t *testing.T) {
	l := lexer.NewLexer(".class A\n  iadd x")
	want := []lexer.Position{
		{Line: 1, Column: 1, Offset: 0},
		{Line: 1, Column: 8, Offset: 7},
		{Line: 1, Column: 9, Offset: 8},
		{Line: 2, Column: 3, Offset: 11},
		{Line: 2, Column: 8, Offset: 16},
	}
	for i, w := range want {
		if got := l.NextToken().Pos; got != w {
			t.Errorf("token %d: expected %+v, got %+v", i, w, got)
		}
	}

	if peeked, next := l.Peek(), l.NextToken(); peeked != next {
		t.Errorf("peek %v differs from next %v", peeked, next)
	}
	if got := l.Line(2); got != "  iadd x" {
		t.Errorf("unexpected line text %q", got)
	}
}

func TestIllegal(t *testing.T) {
	toks := collect(t, "iadd # 1")
	if toks[1].Type != lexer.ILLEGAL || toks[1].Lexeme != "#" {
		t.Errorf("expected illegal '#', got %v", toks[1])
	}
	if toks[2].Type != lexer.NUM {
		t.Errorf("lexing did not resume after the illegal character: %v", toks[2])
	}
}
