package houdini_test

import (
	"strings"
	"testing"

	"liveedit/pkg/houdini"
)

const stub = "liveedit/pkg/hosteval.(*session).stub"

func newContext() *houdini.Context {
	return houdini.NewContext(stub, "liveedit/pkg/interpreter.", "liveedit/pkg/hosteval.")
}

func el(fn string) houdini.Element {
	return houdini.Element{Function: fn, File: "x.go", Line: 1}
}

func functions(trace []houdini.Element) []string {
	out := make([]string, len(trace))
	for i, e := range trace {
		out[i] = e.Function
	}
	return out
}

func TestRewriteCollapsesNestedBlocks(t *testing.T) {
	ctx := newContext()
	popOuter := ctx.Push(&houdini.Frame{Class: "demo/Outer", Method: "run", File: "Outer.java", Line: 7})
	defer popOuter()
	popInner := ctx.Push(&houdini.Frame{Class: "demo/Inner", Method: "fail", File: "Inner.java", Line: 3})
	defer popInner()

	trace := []houdini.Element{
		el("liveedit/pkg/interpreter.NewFault"),
		el("liveedit/pkg/interpreter.(*Interpreter).step"),
		el("liveedit/pkg/interpreter.(*Interpreter).Run"),
		el(stub),
		el("liveedit/pkg/hosteval.(*session).InvokeStaticMethod"),
		el("liveedit/pkg/interpreter.(*Interpreter).Run"),
		el(stub),
		el("liveedit/pkg/hosteval.(*Runtime).Invoke"),
		el("main.main"),
	}

	got := functions(ctx.Rewrite(trace))
	want := []string{"demo.Inner.fail", "demo.Outer.run", "liveedit/pkg/hosteval.(*Runtime).Invoke", "main.main"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("want %v, got %v", want, got)
	}

	rewritten := ctx.Rewrite(trace)
	if rewritten[0].String() != "demo.Inner.fail(Inner.java:3)" {
		t.Errorf("unexpected synthetic element %s", rewritten[0])
	}
}

func TestRewriteWithoutStubIsUnchanged(t *testing.T) {
	ctx := newContext()
	pop := ctx.Push(&houdini.Frame{Class: "demo/A", Method: "m"})
	defer pop()

	trace := []houdini.Element{el("liveedit/pkg/interpreter.(*Interpreter).Run"), el("main.main")}
	got := ctx.Rewrite(trace)
	if strings.Join(functions(got), ",") != strings.Join(functions(trace), ",") {
		t.Errorf("trace changed: %v", functions(got))
	}
}

func TestRewriteIsStableOnceCollapsed(t *testing.T) {
	ctx := newContext()
	pop := ctx.Push(&houdini.Frame{Class: "demo/A", Method: "m", File: "A.java", Line: 2})
	defer pop()

	trace := []houdini.Element{el("liveedit/pkg/interpreter.(*Interpreter).Run"), el(stub), el("main.main")}
	once := ctx.Rewrite(trace)
	twice := ctx.Rewrite(once)
	if strings.Join(functions(once), ",") != strings.Join(functions(twice), ",") {
		t.Errorf("second rewrite changed the trace: %v -> %v", functions(once), functions(twice))
	}
}

func TestPushPop(t *testing.T) {
	ctx := newContext()
	popA := ctx.Push(&houdini.Frame{Method: "a"})
	popB := ctx.Push(&houdini.Frame{Method: "b"})
	if ctx.Depth() != 2 || ctx.Top().Method != "b" {
		t.Fatalf("unexpected top %v depth %d", ctx.Top(), ctx.Depth())
	}
	popB()
	if ctx.Top().Method != "a" {
		t.Errorf("want a on top, got %s", ctx.Top().Method)
	}
	popA()
	if ctx.Depth() != 0 || ctx.Top() != nil {
		t.Errorf("context not empty after pops")
	}
}

type traced struct{ trace []houdini.Element }

func (t *traced) StackTrace() []houdini.Element     { return t.trace }
func (t *traced) SetStackTrace(e []houdini.Element) { t.trace = e }

func TestReconcile(t *testing.T) {
	ctx := newContext()
	pop := ctx.Push(&houdini.Frame{Class: "demo/A", Method: "m"})
	defer pop()

	exc := &traced{trace: []houdini.Element{el("liveedit/pkg/hosteval.(*session).GetField"), el(stub), el("main.main")}}
	ctx.Reconcile(exc)
	if len(exc.trace) != 2 || exc.trace[0].Function != "demo.A.m" {
		t.Errorf("unexpected reconciled trace %v", functions(exc.trace))
	}
}

func TestCapture(t *testing.T) {
	trace := houdini.Capture(0)
	if len(trace) == 0 {
		t.Fatal("empty trace")
	}
	if !strings.HasSuffix(trace[0].Function, "TestCapture") {
		t.Errorf("innermost element should be the caller, got %s", trace[0].Function)
	}
}
