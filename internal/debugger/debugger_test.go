package debugger_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"liveedit/internal/debugger"
	"liveedit/pkg/color"
	"liveedit/pkg/hosteval"
	"liveedit/pkg/interpreter"
	"liveedit/pkg/parser"
)

func TestMain(m *testing.M) {
	color.EnableColor(false)
	os.Exit(m.Run())
}

const calc = `
.class public Calc
.method public static add(II)I
  iload 0
  iload 1
  iadd
  ireturn
.end method

.method public static twice(I)I
  iload 0
  iload 0
  invokestatic Calc.add(II)I
  ireturn
.end method

.method public static fail()I
  iconst_1
  iconst_0
  idiv
  ireturn
.end method
`

// script answers prompts from a fixed list and reports EOF afterwards
type script struct {
	lines   []string
	prompts int
}

func (s *script) Prompt(string) (string, error) {
	s.prompts++
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func run(t *testing.T, d *debugger.Debugger, name, desc string, args ...interpreter.Value) interpreter.Result {
	t.Helper()
	classes, err := parser.Assemble("Calc.jasm", calc)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	rt := hosteval.New(hosteval.WithEventHandler(d))
	if err := rt.Load(classes...); err != nil {
		t.Fatalf("Load: %v", err)
	}
	r, err := rt.Invoke("Calc", name, desc, args...)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	return r
}

func returnedInt(t *testing.T, r interpreter.Result) int32 {
	t.Helper()
	v, ok := r.(*interpreter.ValueReturned)
	if !ok {
		t.Fatalf("result = %v, want a returned value", r)
	}
	return v.Value.Int()
}

func TestStepping(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		prompts int
		output  []string
	}{
		{"eof detaches", nil, 1, []string{"ran Calc.add(II)I @0  iload 0\n"}},
		{"step shows each executed instruction", []string{"s", "", "step"}, 3, []string{"ran Calc.add(II)I @1  iload 1", "ran Calc.add(II)I @2  iadd"}},
		{"continue", []string{"c"}, 1, nil},
		{"stack", []string{"s", "k", "c"}, 3, []string{"stack:\n  0 int 2\n  1 int 3\n"}},
		{"locals", []string{"l", "p 1", "p 9", "c"}, 4, []string{"  0 int 2\n  1 int 3\n", "1 = int 3"}},
		{"list", []string{"x", "c"}, 2, []string{"*    0  iload 0", "     1  iload 1", "     3  ireturn"}},
		{"unknown command", []string{"jump", "c"}, 2, []string{`unknown command "jump"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			in := &script{lines: tt.lines}
			r := run(t, debugger.New(in, &out), "add", "(II)I", interpreter.IntValue(2), interpreter.IntValue(3))

			if got := returnedInt(t, r); got != 5 {
				t.Errorf("add = %d, want 5", got)
			}
			if in.prompts != tt.prompts {
				t.Errorf("prompted %d times, want %d", in.prompts, tt.prompts)
			}
			for _, want := range tt.output {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestQuit(t *testing.T) {
	var out bytes.Buffer
	d := debugger.New(&script{lines: []string{"s", "q"}}, &out)
	r := run(t, d, "add", "(II)I", interpreter.IntValue(2), interpreter.IntValue(3))

	thrown, ok := r.(*interpreter.ExceptionThrown)
	if !ok {
		t.Fatalf("result = %v, want an abort", r)
	}
	if !errors.Is(thrown.Cause, interpreter.ErrAborted) {
		t.Errorf("cause = %v, want ErrAborted", thrown.Cause)
	}
}

func TestBreakpoint(t *testing.T) {
	var out bytes.Buffer
	in := &script{lines: []string{"c", "k", "c"}}
	d := debugger.New(in, &out)
	d.Break("Calc.add")

	r := run(t, d, "twice", "(I)I", interpreter.IntValue(4))
	if got := returnedInt(t, r); got != 8 {
		t.Errorf("twice = %d, want 8", got)
	}
	if in.prompts != 3 {
		t.Errorf("prompted %d times, want 3", in.prompts)
	}
	if !strings.Contains(out.String(), "Calc.add(II)I @0") {
		t.Errorf("did not stop in add:\n%s", out.String())
	}
}

func TestStopsOnException(t *testing.T) {
	var out bytes.Buffer
	in := &script{lines: []string{"c", "c"}}
	r := run(t, debugger.New(in, &out), "fail", "()I")

	if _, ok := r.(*interpreter.ExceptionThrown); !ok {
		t.Fatalf("result = %v, want an exception", r)
	}
	if in.prompts != 2 {
		t.Errorf("prompted %d times, want 2", in.prompts)
	}
	if !strings.Contains(out.String(), "exception java/lang/ArithmeticException") &&
		!strings.Contains(out.String(), "exception java.lang.ArithmeticException") {
		t.Errorf("exception not reported:\n%s", out.String())
	}
}
