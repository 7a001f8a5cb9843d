package interpreter

import (
	"liveedit/pkg/bytecode"
)

// EventHandler lets a host observe a run between instructions. Returning a
// non-nil Result from any method ends the run with that Result.
type EventHandler interface {
	// InstructionProcessed runs after each instruction that did not end the run.
	InstructionProcessed(m *bytecode.Method, pc int, f *Frame) Result
	// ExceptionThrown runs before handlers are searched.
	ExceptionThrown(m *bytecode.Method, pc int, f *Frame, exception Value, kind ExceptionKind) Result
	// ExceptionCaught runs after the stack was reset to the exception, before
	// jumping to handler.
	ExceptionCaught(m *bytecode.Method, pc int, f *Frame, exception Value, handler int) Result
}

// NoopHandler never intervenes.
type NoopHandler struct{}

func (NoopHandler) InstructionProcessed(*bytecode.Method, int, *Frame) Result { return nil }

func (NoopHandler) ExceptionThrown(*bytecode.Method, int, *Frame, Value, ExceptionKind) Result {
	return nil
}

func (NoopHandler) ExceptionCaught(*bytecode.Method, int, *Frame, Value, int) Result { return nil }

// HandlerFuncs adapts plain functions; nil fields are skipped.
type HandlerFuncs struct {
	OnInstruction func(m *bytecode.Method, pc int, f *Frame) Result
	OnThrown      func(m *bytecode.Method, pc int, f *Frame, exception Value, kind ExceptionKind) Result
	OnCaught      func(m *bytecode.Method, pc int, f *Frame, exception Value, handler int) Result
}

func (h HandlerFuncs) InstructionProcessed(m *bytecode.Method, pc int, f *Frame) Result {
	if h.OnInstruction == nil {
		return nil
	}
	return h.OnInstruction(m, pc, f)
}

func (h HandlerFuncs) ExceptionThrown(m *bytecode.Method, pc int, f *Frame, exc Value, kind ExceptionKind) Result {
	if h.OnThrown == nil {
		return nil
	}
	return h.OnThrown(m, pc, f, exc, kind)
}

func (h HandlerFuncs) ExceptionCaught(m *bytecode.Method, pc int, f *Frame, exc Value, handler int) Result {
	if h.OnCaught == nil {
		return nil
	}
	return h.OnCaught(m, pc, f, exc, handler)
}

// Handlers calls each handler in order and stops at the first non-nil Result.
type Handlers []EventHandler

func (hs Handlers) InstructionProcessed(m *bytecode.Method, pc int, f *Frame) Result {
	for _, h := range hs {
		if r := h.InstructionProcessed(m, pc, f); r != nil {
			return r
		}
	}
	return nil
}

func (hs Handlers) ExceptionThrown(m *bytecode.Method, pc int, f *Frame, exc Value, kind ExceptionKind) Result {
	for _, h := range hs {
		if r := h.ExceptionThrown(m, pc, f, exc, kind); r != nil {
			return r
		}
	}
	return nil
}

func (hs Handlers) ExceptionCaught(m *bytecode.Method, pc int, f *Frame, exc Value, handler int) Result {
	for _, h := range hs {
		if r := h.ExceptionCaught(m, pc, f, exc, handler); r != nil {
			return r
		}
	}
	return nil
}

// StepLimit ends a run once Max instructions were processed. The count is
// shared by every run that uses the same StepLimit.
type StepLimit struct {
	NoopHandler
	Max   int
	steps int
}

func NewStepLimit(n int) *StepLimit {
	return &StepLimit{Max: n}
}

// Steps is the number of instructions seen so far
func (s *StepLimit) Steps() int {
	return s.steps
}

func (s *StepLimit) InstructionProcessed(m *bytecode.Method, pc int, f *Frame) Result {
	s.steps++
	if s.Max > 0 && s.steps >= s.Max {
		return abort(ErrMaxStepsExceeded, "maximum steps exceeded in "+m.FullName())
	}
	return nil
}
