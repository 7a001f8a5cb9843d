package interpreter_test

import (
	"errors"
	"testing"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/interpreter"
)

func TestNewFrameForLaysOutSlots(t *testing.T) {
	m := &bytecode.Method{Owner: "demo/T", Name: "f", Desc: "(JIDLjava/lang/String;)V"}
	self := interpreter.ObjectValue(&struct{}{}, bytecode.ObjectType("demo/T"))
	str := interpreter.ObjectValue("s", bytecode.StringType)

	f, err := interpreter.NewFrameFor(m, self, interpreter.LongValue(1), interpreter.IntValue(2), interpreter.DoubleValue(3), str)
	if err != nil {
		t.Fatal(err)
	}

	want := []interpreter.Value{
		self,
		interpreter.LongValue(1), interpreter.NotAValue,
		interpreter.IntValue(2),
		interpreter.DoubleValue(3), interpreter.NotAValue,
		str,
	}
	locals := f.Locals()
	if len(locals) != len(want) {
		t.Fatalf("expected %d locals, got %d", len(want), len(locals))
	}
	for i := range want {
		if !locals[i].Equal(want[i]) {
			t.Errorf("slot %d: expected %s, got %s", i, want[i], locals[i])
		}
	}
}

func TestNewFrameForRejectsBadArguments(t *testing.T) {
	static := &bytecode.Method{Owner: "demo/T", Name: "f", Desc: "(I)V", Access: bytecode.AccStatic}
	if _, err := interpreter.NewFrameFor(static); err == nil {
		t.Errorf("expected an error for a missing argument")
	}

	virtual := &bytecode.Method{Owner: "demo/T", Name: "f", Desc: "()V"}
	if _, err := interpreter.NewFrameFor(virtual, interpreter.IntValue(1)); err == nil {
		t.Errorf("expected an error for a non-object receiver")
	}
}

func TestFrameStackBounds(t *testing.T) {
	f := interpreter.NewFrame(1, 1)

	var broken *interpreter.BrokenCodeError
	if _, err := f.Pop(); !errors.As(err, &broken) || !errors.Is(err, interpreter.ErrStackUnderflow) {
		t.Errorf("expected underflow, got %v", err)
	}
	if err := f.Push(interpreter.IntValue(1)); err != nil {
		t.Fatal(err)
	}
	if err := f.Push(interpreter.IntValue(2)); !errors.Is(err, interpreter.ErrStackOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
	if v, ok := f.Peek(); !ok || v.Int() != 1 {
		t.Errorf("unexpected top %s", v)
	}

	f.ClearStack()
	if f.StackSize() != 0 {
		t.Errorf("stack not cleared: %s", f)
	}
}

func TestSetLocalInvalidatesWideNeighbour(t *testing.T) {
	f := interpreter.NewFrame(3, 0)
	if err := f.SetLocal(0, interpreter.LongValue(5)); err != nil {
		t.Fatal(err)
	}
	if err := f.SetLocal(1, interpreter.IntValue(1)); err != nil {
		t.Fatal(err)
	}
	if v, _ := f.Local(0); v.Kind != interpreter.KindNotAValue {
		t.Errorf("long in slot 0 survived an overwrite of its upper half: %s", v)
	}

	if err := f.SetLocal(2, interpreter.DoubleValue(1)); err == nil {
		t.Errorf("expected an error for a double in the last slot")
	}
	if _, err := f.Local(3); err == nil {
		t.Errorf("expected an error for a local outside the frame")
	}
}
