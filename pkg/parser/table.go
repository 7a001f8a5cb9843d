package parser

import "liveedit/pkg/lexer"

type Production struct {
	LHS string
	RHS []string
}

type ParsingTable map[string]map[lexer.TokenType]Production

var grammar = []Production{
	{}, // 0 - empty
	{LHS: "Program", RHS: []string{"Sep", "Classes"}}, // 1

	{LHS: "Sep", RHS: []string{"nl"}}, // 2
	{LHS: "Sep", RHS: []string{"ε"}},  // 3

	{LHS: "Classes", RHS: []string{"Class", "Classes"}}, // 4
	{LHS: "Classes", RHS: []string{"ε"}},                // 5

	{LHS: "Class", RHS: []string{".class", "@class_start", "Flags", "word", "@class_name", "Eol", "Header", "Members", "@class_end"}}, // 6

	{LHS: "Flags", RHS: []string{"flag", "@flag", "Flags"}}, // 7
	{LHS: "Flags", RHS: []string{"ε"}},                      // 8

	{LHS: "Eol", RHS: []string{"nl"}}, // 9
	{LHS: "Eol", RHS: []string{"ε"}},  // 10

	{LHS: "Header", RHS: []string{".super", "word", "@super", "Eol", "Header"}},           // 11
	{LHS: "Header", RHS: []string{".implements", "word", "@implements", "Eol", "Header"}}, // 12
	{LHS: "Header", RHS: []string{".source", "Name", "@source", "Eol", "Header"}},         // 13
	{LHS: "Header", RHS: []string{"ε"}},                                                   // 14

	{LHS: "Name", RHS: []string{"word"}},   // 15
	{LHS: "Name", RHS: []string{"string"}}, // 16

	{LHS: "Members", RHS: []string{"Field", "Members"}},  // 17
	{LHS: "Members", RHS: []string{"Method", "Members"}}, // 18
	{LHS: "Members", RHS: []string{"ε"}},                 // 19

	{LHS: "Field", RHS: []string{".field", "@field_start", "Flags", "word", "@field_name", "word", "@field_desc", "FieldValue", "Eol"}}, // 20

	{LHS: "FieldValue", RHS: []string{"=", "Const", "@field_value"}}, // 21
	{LHS: "FieldValue", RHS: []string{"ε"}},                          // 22

	{LHS: "Const", RHS: []string{"num"}},    // 23
	{LHS: "Const", RHS: []string{"string"}}, // 24
	{LHS: "Const", RHS: []string{"word"}},   // 25

	{LHS: "Method", RHS: []string{".method", "@method_start", "Flags", "word", "@method_sig", "Eol", "Body", ".end", "word", "@method_end", "Eol"}}, // 26

	{LHS: "Body", RHS: []string{"Stmt", "Body"}}, // 27
	{LHS: "Body", RHS: []string{"ε"}},            // 28

	{LHS: "Stmt", RHS: []string{".limit", "word", "@operand", "num", "@operand", "@limit", "Eol"}},                                                                 // 29
	{LHS: "Stmt", RHS: []string{".catch", "word", "@operand", "from", "word", "@operand", "to", "word", "@operand", "using", "word", "@operand", "@catch", "Eol"}}, // 30
	{LHS: "Stmt", RHS: []string{".line", "num", "@line", "Eol"}},                                                                                                   // 31
	{LHS: "Stmt", RHS: []string{".frame", "@frame", "Eol"}},                                                                                                        // 32
	{LHS: "Stmt", RHS: []string{"word", "@operand", "StmtTail"}},                                                                                                   // 33
	{LHS: "Stmt", RHS: []string{"nl"}},                                                                                                                             // 34

	{LHS: "StmtTail", RHS: []string{":", "@label"}},              // 35
	{LHS: "StmtTail", RHS: []string{"Operands", "@insn", "Eol"}}, // 36

	{LHS: "Operands", RHS: []string{"Operand", "Operands"}}, // 37
	{LHS: "Operands", RHS: []string{"ε"}},                   // 38

	{LHS: "Operand", RHS: []string{"word", "@operand"}},   // 39
	{LHS: "Operand", RHS: []string{"num", "@operand"}},    // 40
	{LHS: "Operand", RHS: []string{"string", "@operand"}}, // 41
}

// NewParsingTable creates and returns a new LL(1) parsing table
func NewParsingTable() ParsingTable {
	return ParsingTable{
		"Program": {
			lexer.NEWLINE: grammar[1],
			lexer.CLASS:   grammar[1],
			lexer.EOF:     grammar[1],
		},

		"Sep": {
			lexer.NEWLINE: grammar[2],
			lexer.CLASS:   grammar[3],
			lexer.EOF:     grammar[3],
		},

		"Classes": {
			lexer.CLASS: grammar[4],
			lexer.EOF:   grammar[5],
		},

		"Class": {
			lexer.CLASS: grammar[6],
		},

		"Flags": {
			lexer.FLAG: grammar[7],
			lexer.WORD: grammar[8],
		},

		"Eol": {
			lexer.NEWLINE: grammar[9],
			lexer.EOF:     grammar[10],
		},

		"Header": {
			lexer.SUPER:      grammar[11],
			lexer.IMPLEMENTS: grammar[12],
			lexer.SOURCE:     grammar[13],
			lexer.FIELD:      grammar[14],
			lexer.METHOD:     grammar[14],
			lexer.CLASS:      grammar[14],
			lexer.EOF:        grammar[14],
		},

		"Name": {
			lexer.WORD:   grammar[15],
			lexer.STRING: grammar[16],
		},

		"Members": {
			lexer.FIELD:  grammar[17],
			lexer.METHOD: grammar[18],
			lexer.CLASS:  grammar[19],
			lexer.EOF:    grammar[19],
		},

		"Field": {
			lexer.FIELD: grammar[20],
		},

		"FieldValue": {
			lexer.ASSIGN:  grammar[21],
			lexer.NEWLINE: grammar[22],
			lexer.EOF:     grammar[22],
		},

		"Const": {
			lexer.NUM:    grammar[23],
			lexer.STRING: grammar[24],
			lexer.WORD:   grammar[25],
		},

		"Method": {
			lexer.METHOD: grammar[26],
		},

		"Body": {
			lexer.LIMIT:   grammar[27],
			lexer.CATCH:   grammar[27],
			lexer.LINE:    grammar[27],
			lexer.FRAME:   grammar[27],
			lexer.WORD:    grammar[27],
			lexer.NEWLINE: grammar[27],
			lexer.END:     grammar[28],
		},

		"Stmt": {
			lexer.LIMIT:   grammar[29],
			lexer.CATCH:   grammar[30],
			lexer.LINE:    grammar[31],
			lexer.FRAME:   grammar[32],
			lexer.WORD:    grammar[33],
			lexer.NEWLINE: grammar[34],
		},

		"StmtTail": {
			lexer.COLON:   grammar[35],
			lexer.WORD:    grammar[36],
			lexer.NUM:     grammar[36],
			lexer.STRING:  grammar[36],
			lexer.NEWLINE: grammar[36],
			lexer.EOF:     grammar[36],
		},

		"Operands": {
			lexer.WORD:    grammar[37],
			lexer.NUM:     grammar[37],
			lexer.STRING:  grammar[37],
			lexer.NEWLINE: grammar[38],
			lexer.EOF:     grammar[38],
		},

		"Operand": {
			lexer.WORD:   grammar[39],
			lexer.NUM:    grammar[40],
			lexer.STRING: grammar[41],
		},
	}
}
