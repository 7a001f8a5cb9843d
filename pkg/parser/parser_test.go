package parser_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/color"
	"liveedit/pkg/lexer"
	"liveedit/pkg/parser"
	"liveedit/pkg/parser/codegen/assembly"
)

func TestMain(m *testing.M) {
	color.EnableColor(false)
	os.Exit(m.Run())
}

const calc = `; integer division that survives a zero divisor
.class public demo/Calc
.super java/lang/Object
.implements java/io/Serializable
.source "Calc.java"

.field public static final LIMIT I = 7
.field static RATIO D = 1
.field count J

.method public static safeDiv(II)I
  .limit stack 2
  .catch java/lang/ArithmeticException from Start to End using Handler
  .line 4
Start:
  iload_0
  iload 1
  idiv
  ireturn
End:
Handler: pop
  iconst_0
  ireturn
.end method

.method public static consts()V
  ldc 9223372036854775807L
  ldc -InfD
  ldc "tab\t"
  ldc java/lang/String
  ldc [I
  invokeinterface java/lang/CharSequence.length()I 1
  multianewarray [[I 2
  iinc 3 -1
  newarray int
  bipush -5
  getstatic demo/Calc.LIMIT I
  return
.end method
`

func assemble(t *testing.T, src string) []*bytecode.Class {
	t.Helper()
	classes, err := parser.Assemble("Calc.jasm", src)
	if err != nil {
		t.Fatal(err)
	}
	return classes
}

func code(m *bytecode.Method) []string {
	var out []string
	for _, in := range m.Instructions {
		out = append(out, in.String())
	}
	return out
}

func TestAssemble(t *testing.T) {
	classes := assemble(t, calc)
	if len(classes) != 1 {
		t.Fatalf("expected 1 class, got %d", len(classes))
	}
	c := classes[0]

	if c.Name != "demo/Calc" || c.Super != "java/lang/Object" || c.Source != "Calc.java" {
		t.Errorf("unexpected class header: %+v", c)
	}
	if len(c.Interfaces) != 1 || c.Interfaces[0] != "java/io/Serializable" {
		t.Errorf("unexpected interfaces: %v", c.Interfaces)
	}
	if f := c.Field("LIMIT"); f == nil || f.Value != int32(7) || !f.Access.Is(bytecode.AccStatic|bytecode.AccFinal) {
		t.Errorf("unexpected LIMIT field: %+v", f)
	}
	if f := c.Field("RATIO"); f == nil || f.Value != float64(1) {
		t.Errorf("integer literal did not widen to double: %+v", f)
	}
	if f := c.Field("count"); f == nil || f.Desc != "J" || f.Value != nil {
		t.Errorf("unexpected count field: %+v", f)
	}

	tests := []struct {
		name, desc string
		want       []string
		locals     int
	}{
		{"safeDiv", "(II)I", []string{
			".line 4", "Start:", "iload 0", "iload 1", "idiv", "ireturn",
			"End:", "Handler:", "pop", "iconst_0", "ireturn",
		}, 2},
		{"consts", "()V", []string{
			"ldc 9223372036854775807L", "ldc -InfD", `ldc "tab\t"`, "ldc java/lang/String", "ldc [I",
			"invokeinterface java/lang/CharSequence.length()I", "multianewarray [[I 2", "iinc 3 -1",
			"newarray int", "bipush -5", "getstatic demo/Calc.LIMIT I", "return",
		}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := c.Method(tt.name, tt.desc)
			if m == nil {
				t.Fatalf("method %s%s not found", tt.name, tt.desc)
			}
			if !m.Linked() {
				t.Error("method is not linked")
			}
			if m.Owner != "demo/Calc" || m.Source != "Calc.java" {
				t.Errorf("unexpected owner or source: %s %s", m.Owner, m.Source)
			}
			got := code(m)
			if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("expected\n%s\ngot\n%s", strings.Join(tt.want, "\n"), strings.Join(got, "\n"))
			}
			if m.MaxLocals != tt.locals {
				t.Errorf("expected %d locals, got %d", tt.locals, m.MaxLocals)
			}
		})
	}

	m := c.Method("safeDiv", "(II)I")
	if m.MaxStack != 2 {
		t.Errorf("expected stack limit 2, got %d", m.MaxStack)
	}
	if len(m.TryCatchBlocks) != 1 {
		t.Fatalf("expected 1 try/catch block, got %d", len(m.TryCatchBlocks))
	}
	tc := m.TryCatchBlocks[0]
	if tc.Type != "java/lang/ArithmeticException" || tc.Start.Index != 1 || tc.End.Index != 6 || tc.Handler.Index != 7 {
		t.Errorf("unexpected try/catch block %s %d..%d -> %d", tc.Type, tc.Start.Index, tc.End.Index, tc.Handler.Index)
	}
}

func TestListingRoundTrip(t *testing.T) {
	first := assembly.NewListing(assemble(t, calc), "")
	if err := first.Generate(); err != nil {
		t.Fatal(err)
	}

	second := assembly.NewListing(assemble(t, first.GetCode()), "")
	if err := second.Generate(); err != nil {
		t.Fatal(err)
	}

	if first.GetCode() != second.GetCode() {
		t.Errorf("listing changed after a round trip:\n%s\n---\n%s", first.GetCode(), second.GetCode())
	}
	if !strings.Contains(first.GetCode(), ".catch java/lang/ArithmeticException from Start to End using Handler") {
		t.Errorf("listing lost the try/catch block:\n%s", first.GetCode())
	}
}

func TestListingNamesLabels(t *testing.T) {
	target := &bytecode.Label{}
	m := &bytecode.Method{
		Name: "spin", Desc: "()V", Access: bytecode.AccStatic,
		Instructions: []*bytecode.Instruction{
			bytecode.LabelNode(target),
			bytecode.JumpInsn(bytecode.GOTO, target),
		},
	}
	c := &bytecode.Class{Name: "Spin", Methods: []*bytecode.Method{m}}

	out := assembly.NewListing([]*bytecode.Class{c}, "")
	if err := out.Generate(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.GetCode(), "L0:\n  goto L0\n") {
		t.Errorf("unnamed label was not named:\n%s", out.GetCode())
	}
	assemble(t, out.GetCode())
}

func TestSourceDefaultsToFileName(t *testing.T) {
	src := `.class A
.method static a()V
  return
.end method
.class B
.super A
`
	classes := assemble(t, src)
	if len(classes) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(classes))
	}
	if classes[0].Source != "Calc.jasm" || classes[0].Methods[0].Source != "Calc.jasm" {
		t.Errorf("source not defaulted: %q", classes[0].Source)
	}
	if classes[1].Super != "A" {
		t.Errorf("expected B to extend A, got %q", classes[1].Super)
	}
}

func TestErrors(t *testing.T) {
	method := func(body string) string {
		return ".class A\n.method static m()V\n" + body + "\n.end method\n"
	}

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown instruction", method("  frobnicate"), "Error at 3:3: Unknown instruction `frobnicate`\n  frobnicate"},
		{"undefined label", method("  goto Nowhere"), "Undefined label `Nowhere`"},
		{"label placed twice", method("A:\nA:\n  return"), "Redeclaration of label `A`"},
		{"operand count", method("  iadd 1\n  return"), "iadd takes no operands, got 1"},
		{"bipush range", method("  bipush 300\n  return"), "bipush operand 300 out of range"},
		{"int constant range", method("  ldc 3000000000\n  return"), "use the L suffix"},
		{"switch", method("  tableswitch"), "tableswitch is not supported"},
		{"extra token", method("  .line 5 6\n  return"), "Expected end of line, found '6'"},
		{"illegal character", method("  iconst_0 #\n  return"), `Illegal character "#"`},
		{"bad descriptor", ".class A\n.method static m(Q)V\n  return\n.end method\n", "method descriptor"},
		{"missing end", ".class A\n.method static m()V\n  return\n", "Missing .end method"},
		{"outside method", ".class A\n  iadd\n", "'iadd' outside of a method"},
		{"no class", "  iadd\n", "Expected .class directive"},
		{"instance constant", ".class A\n.field x I = 1\n", "only static fields take a constant value"},
		{"constant type", ".class A\n.field static x I = \"s\"\n", "does not fit a field of type I"},
		{"keyword as name", ".class A\n.field static to I\n", "Cannot use keyword \"to\" as a name"},
		{"no code", method(""), "method has no instructions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Assemble("A.jasm", tt.src)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, parser.ErrAssembly) {
				t.Errorf("expected ErrAssembly, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in\n%v", tt.want, err)
			}
		})
	}
}

func TestRecoveryReportsLaterErrors(t *testing.T) {
	src := ".class A\n.method static m()V\n  iadd 1 2 :\n  return\n.end method\n.method static n()V\n  .line x\n  return\n.end method\n"
	p := parser.NewParser(lexerFor(src))
	p.Parse()
	if got := len(p.Errors()); got != 2 {
		t.Errorf("expected 2 syntax errors, got %d: %v", got, p.Errors())
	}
}

func lexerFor(src string) *lexer.Lexer {
	return lexer.NewLexer(src)
}
