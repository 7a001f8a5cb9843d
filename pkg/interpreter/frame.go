package interpreter

import (
	"fmt"
	"strings"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/stack"
)

// Frame is the activation of the method being interpreted: the local
// variable array indexed by slot and a bounded operand stack.
type Frame struct {
	locals []Value
	stack  *stack.Stack[Value]
}

// NewFrame creates a frame with every local set to NotAValue. A maxStack of
// zero leaves the operand stack unbounded.
func NewFrame(maxLocals, maxStack int) *Frame {
	locals := make([]Value, maxLocals)
	for i := range locals {
		locals[i] = NotAValue
	}
	return &Frame{locals: locals, stack: stack.NewBounded[Value](maxStack)}
}

// NewFrameFor lays out args (receiver first for instance methods) in the
// locals of a fresh frame for m. Long and double arguments take two slots;
// the second one holds NotAValue.
func NewFrameFor(m *bytecode.Method, args ...Value) (*Frame, error) {
	params := m.Type().ArgumentTypes()
	want := len(params)
	if !m.IsStatic() {
		want++
	}
	if len(args) != want {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", m.FullName(), want, len(args))
	}

	size := m.Type().ArgumentsSize()
	if !m.IsStatic() {
		size++
	}
	f := NewFrame(max(m.MaxLocals, size), m.MaxStack)

	slot := 0
	if !m.IsStatic() {
		if args[0].Kind != KindObject {
			return nil, fmt.Errorf("%s: receiver is %s", m.FullName(), args[0])
		}
		f.locals[0] = args[0]
		slot, args = 1, args[1:]
	}
	for i, p := range params {
		f.locals[slot] = args[i]
		slot += p.Size()
	}
	return f, nil
}

// Local returns the value in slot i.
func (f *Frame) Local(i int) (Value, error) {
	if i < 0 || i >= len(f.locals) {
		return NotAValue, brokenf("local %d outside %d locals", i, len(f.locals))
	}
	return f.locals[i], nil
}

// SetLocal stores v in slot i. A two-slot value also claims slot i+1, and a
// two-slot value that started at i-1 is invalidated.
func (f *Frame) SetLocal(i int, v Value) error {
	if i < 0 || i+v.Size() > len(f.locals) {
		return brokenf("local %d outside %d locals", i, len(f.locals))
	}
	f.locals[i] = v
	if v.Size() == 2 {
		f.locals[i+1] = NotAValue
	}
	if i > 0 && f.locals[i-1].Size() == 2 {
		f.locals[i-1] = NotAValue
	}
	return nil
}

// Push puts v on top of the operand stack.
func (f *Frame) Push(v Value) error {
	if !f.stack.Push(v) {
		return &BrokenCodeError{Index: -1, Err: ErrStackOverflow}
	}
	return nil
}

// Pop removes the top of the operand stack.
func (f *Frame) Pop() (Value, error) {
	v, ok := f.stack.Pop()
	if !ok {
		return NotAValue, &BrokenCodeError{Index: -1, Err: ErrStackUnderflow}
	}
	return v, nil
}

// Peek returns the top of the operand stack
func (f *Frame) Peek() (Value, bool) {
	return f.stack.Peek()
}

// ClearStack empties the operand stack
func (f *Frame) ClearStack() {
	f.stack.Clear()
}

// StackSize is the number of values on the operand stack
func (f *Frame) StackSize() int {
	return f.stack.Size()
}

// MaxLocals is the number of local slots
func (f *Frame) MaxLocals() int {
	return len(f.locals)
}

// Locals returns a copy of the local variables.
func (f *Frame) Locals() []Value {
	return append([]Value(nil), f.locals...)
}

// Stack returns a copy of the operand stack, bottom first.
func (f *Frame) Stack() []Value {
	return append([]Value(nil), f.stack.Array()...)
}

func (f *Frame) String() string {
	var b strings.Builder
	b.WriteString("locals [")
	for i, v := range f.locals {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteString("] stack [")
	for i, v := range f.stack.Array() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteString("]")
	return b.String()
}
