package interpreter

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/houdini"
)

// Interpreter runs single method activations against an Eval backend. It
// keeps no state between runs, so nested runs (a backend interpreting a
// callee) can share one Interpreter.
type Interpreter struct {
	eval    Eval
	handler EventHandler
	logger  *log.Logger
	trace   *houdini.Context
	debug   bool
}

type Option func(*Interpreter)

// WithDebug logs every instruction with the operand stack before it runs
func WithDebug(debug bool) Option {
	return func(it *Interpreter) { it.debug = debug }
}

// WithLogger sets the logger used in debug mode (default: the package logger)
func WithLogger(l *log.Logger) Option {
	return func(it *Interpreter) { it.logger = l }
}

// WithEventHandler installs the host hooks, chained after any already set
func WithEventHandler(h EventHandler) Option {
	return func(it *Interpreter) {
		if h == nil {
			return
		}
		if it.handler == nil {
			it.handler = h
			return
		}
		it.handler = Handlers{it.handler, h}
	}
}

// WithMaxSteps ends runs with an aborted result after n instructions (0 = unlimited)
func WithMaxSteps(n int) Option {
	return func(it *Interpreter) {
		if n > 0 {
			WithEventHandler(NewStepLimit(n))(it)
		}
	}
}

// WithTrace registers every run in ctx so that exceptions leaving the run get
// their stack trace reconciled
func WithTrace(ctx *houdini.Context) Option {
	return func(it *Interpreter) { it.trace = ctx }
}

// New creates an Interpreter over eval.
func New(eval Eval, opts ...Option) *Interpreter {
	it := &Interpreter{eval: eval}
	for _, o := range opts {
		o(it)
	}

	if it.handler == nil {
		it.handler = NoopHandler{}
	}

	if it.logger == nil {
		it.logger = log.Default()
	}

	return it
}

// Run interprets method m starting from frame f. A nil handler means NoopHandler.
func Run(m *bytecode.Method, f *Frame, eval Eval, handler EventHandler) (Result, error) {
	return New(eval, WithEventHandler(handler)).Run(m, f)
}

// thrown is an exception raised by one instruction, before catch matching.
type thrown struct {
	exception Value
	kind      ExceptionKind
	cause     error
}

// Run interprets m from its first instruction until it returns, throws an
// uncaught exception or a hook ends it. The returned error is reserved for
// failures that are not guest-visible: a method that does not link or an
// unsupported instruction.
func (it *Interpreter) Run(m *bytecode.Method, f *Frame) (Result, error) {
	if err := m.Link(); err != nil {
		return nil, err
	}
	if len(m.Instructions) == 0 {
		return nil, fmt.Errorf("%s: %w", m.FullName(), bytecode.ErrNoCode)
	}

	table := newHandlerTable(m)
	ops := &opcodeInterpreter{eval: it.eval}

	var tf *houdini.Frame
	if it.trace != nil {
		tf = &houdini.Frame{Class: m.Owner, Method: m.Name, File: m.Source}
		pop := it.trace.Push(tf)
		defer pop()
	}

	pc := 0
	for {
		if pc < 0 || pc >= len(m.Instructions) {
			err := &BrokenCodeError{Method: m.FullName(), Index: pc, Err: ErrFellOffCode}
			return it.finish(&ExceptionThrown{Exception: brokenValue(err), Kind: BrokenCode, Cause: err}), nil
		}
		in := m.Instructions[pc]

		if in.IsPseudo() {
			if in.Kind == bytecode.KindLine && tf != nil {
				tf.Line = in.Line
			}
			if r := it.handler.InstructionProcessed(m, pc, f); r != nil {
				return it.finish(r), nil
			}
			pc++
			continue
		}

		if it.debug {
			it.logger.Debug("exec", "method", m.Name, "pc", pc, "insn", in.String(), "stack", f.StackSize())
		}

		next, result, exc, err := it.step(ops, m, pc, in, f)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return it.finish(result), nil
		}

		if exc != nil {
			if r := it.handler.ExceptionThrown(m, pc, f, exc.exception, exc.kind); r != nil {
				return it.finish(r), nil
			}
			handler, ok := it.findHandler(table, pc, exc.exception, exc.kind)
			if !ok {
				return it.finish(&ExceptionThrown{Exception: exc.exception, Kind: exc.kind, Cause: exc.cause}), nil
			}
			f.ClearStack()
			if err := f.Push(exc.exception); err != nil {
				brk := &BrokenCodeError{Method: m.FullName(), Index: pc, Err: err}
				return it.finish(&ExceptionThrown{Exception: brokenValue(brk), Kind: BrokenCode, Cause: brk}), nil
			}
			if r := it.handler.ExceptionCaught(m, pc, f, exc.exception, handler); r != nil {
				return it.finish(r), nil
			}
			it.debugf("caught", "method", m.Name, "pc", pc, "handler", handler, "exception", exc.exception)
			pc = handler
			continue
		}

		if r := it.handler.InstructionProcessed(m, pc, f); r != nil {
			return it.finish(r), nil
		}
		pc = next
	}
}

// step executes one real instruction. It yields the next pc, a terminal
// result, an exception to dispatch, or an error that aborts the run.
// Variant mismatches surface as panics from the Value accessors and are
// turned into broken-code exceptions here.
func (it *Interpreter) step(ops *opcodeInterpreter, m *bytecode.Method, pc int, in *bytecode.Instruction, f *Frame) (next int, result Result, exc *thrown, err error) {
	defer func() {
		if r := recover(); r != nil {
			var cause error
			switch e := r.(type) {
			case *ValueKindError:
				cause = e
			case *BrokenCodeError:
				cause = e
			default:
				panic(r)
			}
			next, result, err = 0, nil, nil
			exc = it.classify(m, pc, cause)
		}
	}()

	next = pc + 1
	switch op := in.Op; {
	case op == bytecode.GOTO:
		return in.Target.Index, nil, nil, nil

	case op == bytecode.JSR:
		if err := f.Push(LabelValue(pc + 1)); err != nil {
			return 0, nil, it.classify(m, pc, err), nil
		}
		return in.Target.Index, nil, nil, nil

	case op == bytecode.RET:
		v, err := f.Local(in.Var)
		if err != nil {
			return 0, nil, it.classify(m, pc, err), nil
		}
		return v.Target(), nil, nil, nil

	case op.IsConditionalJump():
		taken, err := it.condition(in, f)
		if err != nil {
			return 0, nil, it.classify(m, pc, err), nil
		}
		if taken {
			return in.Target.Index, nil, nil, nil
		}
		return next, nil, nil, nil

	case op == bytecode.RETURN:
		return 0, &ValueReturned{Value: VoidValue}, nil, nil

	case op.IsReturn():
		v, err := f.Pop()
		if err != nil {
			return 0, nil, it.classify(m, pc, err), nil
		}
		return 0, &ValueReturned{Value: ComputeReturn(v, m.ReturnType())}, nil, nil

	case op == bytecode.ATHROW:
		v, err := f.Pop()
		if err != nil {
			return 0, nil, it.classify(m, pc, err), nil
		}
		if v.IsNull() {
			return 0, nil, it.classify(m, pc, NewFault(NullPointerException, "throw with null exception")), nil
		}
		v.expect(KindObject)
		return 0, nil, &thrown{exception: v, kind: FromEvaluatedCode}, nil
	}

	if err := f.execute(ops, in); err != nil {
		var ub *UnsupportedBytecodeError
		if errors.As(err, &ub) {
			return 0, nil, nil, fmt.Errorf("%s at %d: %w", m.FullName(), pc, err)
		}
		return 0, nil, it.classify(m, pc, err), nil
	}
	return next, nil, nil, nil
}

func (it *Interpreter) condition(in *bytecode.Instruction, f *Frame) (bool, error) {
	switch in.Op {
	case bytecode.IFNULL, bytecode.IFNONNULL:
		v, err := f.Pop()
		if err != nil {
			return false, err
		}
		return checkUnaryCondition(in.Op, v)
	}
	if in.Op >= bytecode.IFEQ && in.Op <= bytecode.IFLE {
		v, err := f.Pop()
		if err != nil {
			return false, err
		}
		return checkUnaryCondition(in.Op, v)
	}
	vs, err := f.popN(2)
	if err != nil {
		return false, err
	}
	return checkBinaryCondition(in.Op, vs[0], vs[1])
}

// classify sorts an instruction error into one of the three exception kinds.
func (it *Interpreter) classify(m *bytecode.Method, pc int, err error) *thrown {
	var (
		guest  *GuestException
		broken *BrokenCodeError
		kindE  *ValueKindError
		fault  *Fault
	)
	switch {
	case errors.As(err, &guest):
		return &thrown{exception: guest.Exception, kind: FromEvaluatedCode, cause: err}
	case errors.As(err, &broken):
		if broken.Method == "" {
			broken.Method, broken.Index = m.FullName(), pc
		}
		return &thrown{exception: brokenValue(broken), kind: BrokenCode, cause: broken}
	case errors.As(err, &kindE):
		broken = &BrokenCodeError{Method: m.FullName(), Index: pc, Err: kindE}
		return &thrown{exception: brokenValue(broken), kind: BrokenCode, cause: broken}
	case errors.As(err, &fault):
		return &thrown{exception: fault.Value(), kind: FromEvaluator, cause: fault}
	}
	fault = WrapFault(RuntimeException, err)
	return &thrown{exception: fault.Value(), kind: FromEvaluator, cause: fault}
}

// brokenValue wraps a broken-code error as a VerifyError object so that it can
// travel through catch matching like any other exception.
func brokenValue(err *BrokenCodeError) Value {
	return WrapFault(VerifyError, err).Value()
}

// finish reconciles the stack trace of an exception leaving the run.
func (it *Interpreter) finish(r Result) Result {
	if it.trace == nil {
		return r
	}
	if et, ok := r.(*ExceptionThrown); ok && et.Exception.Kind == KindObject {
		if t, ok := et.Exception.ref.(houdini.Traceable); ok {
			it.trace.Reconcile(t)
		}
	}
	return r
}

func (it *Interpreter) debugf(msg string, keyvals ...any) {
	if it.debug {
		it.logger.Debug(msg, keyvals...)
	}
}
