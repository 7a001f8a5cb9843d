package interpreter_test

import (
	"errors"
	"testing"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/interpreter"
)

var errNotMocked = errors.New("not mocked")

type evalCall struct {
	op     string
	field  interpreter.FieldDescription
	method interpreter.MethodDescription
	args   []interpreter.Value
}

// mockEval records every backend call. Behaviour is plugged in per test.
type mockEval struct {
	calls   []evalCall
	statics map[string]interpreter.Value

	invoke     func(d interpreter.MethodDescription, args []interpreter.Value) (interpreter.Value, error)
	instanceOf func(v interpreter.Value, t bytecode.Type) (bool, error)
}

func newMockEval() *mockEval {
	return &mockEval{statics: make(map[string]interpreter.Value)}
}

func (e *mockEval) record(c evalCall) {
	e.calls = append(e.calls, c)
}

func (e *mockEval) LoadClass(t bytecode.Type) (interpreter.Value, error) {
	e.record(evalCall{op: "ldc class"})
	return interpreter.ObjectValue(t, bytecode.ClassType), nil
}

func (e *mockEval) LoadString(s string) (interpreter.Value, error) {
	e.record(evalCall{op: "ldc string"})
	return interpreter.ObjectValue(s, bytecode.StringType), nil
}

func (e *mockEval) NewInstance(t bytecode.Type) (interpreter.Value, error) {
	e.record(evalCall{op: "new"})
	return interpreter.ObjectValue(&struct{ t bytecode.Type }{t}, t), nil
}

func (e *mockEval) NewArray(t bytecode.Type, length int32) (interpreter.Value, error) {
	e.record(evalCall{op: "newarray", args: []interpreter.Value{interpreter.IntValue(length)}})
	return interpreter.ObjectValue(make([]interpreter.Value, length), t), nil
}

func (e *mockEval) NewMultiDimensionalArray(t bytecode.Type, dims []int32) (interpreter.Value, error) {
	args := make([]interpreter.Value, len(dims))
	for i, d := range dims {
		args[i] = interpreter.IntValue(d)
	}
	e.record(evalCall{op: "multianewarray", args: args})
	return interpreter.ObjectValue(&dims, t), nil
}

func (e *mockEval) GetArrayLength(array interpreter.Value) (interpreter.Value, error) {
	return interpreter.NotAValue, errNotMocked
}

func (e *mockEval) GetArrayElement(array, index interpreter.Value) (interpreter.Value, error) {
	return interpreter.NotAValue, errNotMocked
}

func (e *mockEval) SetArrayElement(array, index, value interpreter.Value) error {
	return errNotMocked
}

func (e *mockEval) GetField(owner interpreter.Value, d interpreter.FieldDescription) (interpreter.Value, error) {
	e.record(evalCall{op: "getfield", field: d})
	if owner.IsNull() {
		return interpreter.NotAValue, interpreter.NewFault(interpreter.NullPointerException, "read %s of null", d.Name)
	}
	return interpreter.NotAValue, errNotMocked
}

func (e *mockEval) SetField(owner interpreter.Value, d interpreter.FieldDescription, v interpreter.Value) error {
	e.record(evalCall{op: "putfield", field: d})
	return errNotMocked
}

func (e *mockEval) GetStaticField(d interpreter.FieldDescription) (interpreter.Value, error) {
	e.record(evalCall{op: "getstatic", field: d})
	v, ok := e.statics[d.Owner+"."+d.Name]
	if !ok {
		return interpreter.NotAValue, errNotMocked
	}
	return v, nil
}

func (e *mockEval) SetStaticField(d interpreter.FieldDescription, v interpreter.Value) error {
	e.record(evalCall{op: "putstatic", field: d, args: []interpreter.Value{v}})
	e.statics[d.Owner+"."+d.Name] = v
	return nil
}

func (e *mockEval) InvokeMethod(target interpreter.Value, d interpreter.MethodDescription, args []interpreter.Value, special bool) (interpreter.Value, error) {
	op := "invokevirtual"
	if special {
		op = "invokespecial"
	}
	e.record(evalCall{op: op, method: d, args: append([]interpreter.Value{target}, args...)})
	if e.invoke == nil {
		return interpreter.NotAValue, errNotMocked
	}
	return e.invoke(d, args)
}

func (e *mockEval) InvokeStaticMethod(d interpreter.MethodDescription, args []interpreter.Value) (interpreter.Value, error) {
	e.record(evalCall{op: "invokestatic", method: d, args: args})
	if e.invoke == nil {
		return interpreter.NotAValue, errNotMocked
	}
	return e.invoke(d, args)
}

func (e *mockEval) IsInstanceOf(v interpreter.Value, t bytecode.Type) (bool, error) {
	e.record(evalCall{op: "instanceof"})
	if e.instanceOf == nil {
		return v.Type == t, nil
	}
	return e.instanceOf(v, t)
}

// method builds a linked method from instructions.
func method(t *testing.T, desc string, static bool, insns ...*bytecode.Instruction) *bytecode.Method {
	t.Helper()
	m := &bytecode.Method{
		Owner:        "demo/Test",
		Name:         "run",
		Desc:         desc,
		MaxLocals:    4,
		MaxStack:     8,
		Instructions: insns,
	}
	if static {
		m.Access = bytecode.AccStatic
	}
	return m
}

func run(t *testing.T, m *bytecode.Method, eval interpreter.Eval, args ...interpreter.Value) interpreter.Result {
	t.Helper()
	if err := m.Link(); err != nil {
		t.Fatalf("link: %v", err)
	}
	f, err := interpreter.NewFrameFor(m, args...)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	r, err := interpreter.Run(m, f, eval, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return r
}

func returned(t *testing.T, r interpreter.Result) interpreter.Value {
	t.Helper()
	vr, ok := r.(*interpreter.ValueReturned)
	if !ok {
		t.Fatalf("expected a returned value, got %s", r)
	}
	return vr.Value
}

func threw(t *testing.T, r interpreter.Result) *interpreter.ExceptionThrown {
	t.Helper()
	et, ok := r.(*interpreter.ExceptionThrown)
	if !ok {
		t.Fatalf("expected an exception, got %s", r)
	}
	return et
}

func insn(op bytecode.Opcode) *bytecode.Instruction { return bytecode.Insn(op) }

func iload(n int) *bytecode.Instruction { return bytecode.VarInsn(bytecode.ILOAD, n) }
