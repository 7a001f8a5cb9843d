package interpreter

import (
	"liveedit/pkg/bytecode"
)

// handlerTable maps every instruction index to the try/catch blocks covering
// it, in declaration order. It is built once per run and only read afterwards.
type handlerTable [][]*bytecode.TryCatchBlock

func newHandlerTable(m *bytecode.Method) handlerTable {
	t := make(handlerTable, len(m.Instructions))
	for i := range m.TryCatchBlocks {
		tc := &m.TryCatchBlocks[i]
		for idx := tc.Start.Index; idx < tc.End.Index && idx < len(t); idx++ {
			t[idx] = append(t[idx], tc)
		}
	}
	return t
}

func (t handlerTable) at(pc int) []*bytecode.TryCatchBlock {
	if pc < 0 || pc >= len(t) {
		return nil
	}
	return t[pc]
}

// catches reports whether tc accepts the exception. Guest exceptions are
// tested through the backend; faults raised by the interpreter or the backend
// are tested against the host hierarchy, since the guest may not have their
// class loaded.
func (it *Interpreter) catches(tc *bytecode.TryCatchBlock, exc Value, kind ExceptionKind) bool {
	if tc.Type == "" {
		return true
	}
	if kind != FromEvaluatedCode {
		if f, ok := exc.ref.(*Fault); ok {
			return f.InstanceOf(tc.Type)
		}
	}
	ok, err := it.eval.IsInstanceOf(exc, bytecode.ObjectType(tc.Type))
	if err != nil {
		it.debugf("catch type check failed", "type", tc.Type, "err", err)
		return false
	}
	return ok
}

// findHandler returns the index of the first covering handler accepting exc.
func (it *Interpreter) findHandler(table handlerTable, pc int, exc Value, kind ExceptionKind) (int, bool) {
	for _, tc := range table.at(pc) {
		if it.catches(tc, exc, kind) {
			return tc.Handler.Index, true
		}
	}
	return -1, false
}
