package interpreter

import "fmt"

// ExceptionKind tells where an uncaught exception came from.
type ExceptionKind int

const (
	FromEvaluatedCode ExceptionKind = iota // thrown by the guest program
	FromEvaluator                          // raised by the interpreter or the Eval backend
	BrokenCode                             // the interpreted code broke an interpreter invariant
)

func (k ExceptionKind) String() string {
	switch k {
	case FromEvaluatedCode:
		return "from evaluated code"
	case FromEvaluator:
		return "from evaluator"
	case BrokenCode:
		return "broken code"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Result is the terminal outcome of one run: *ValueReturned or *ExceptionThrown.
type Result interface {
	isResult()
	String() string
}

type ValueReturned struct {
	Value Value
}

// ExceptionThrown is an exception that no handler of the method caught.
// Cause is the Go error the exception was raised with, if any.
type ExceptionThrown struct {
	Exception Value
	Kind      ExceptionKind
	Cause     error
}

func (*ValueReturned) isResult()   {}
func (*ExceptionThrown) isResult() {}

func (r *ValueReturned) String() string {
	return "returned " + r.Value.String()
}

func (r *ExceptionThrown) String() string {
	if r.Cause != nil {
		return fmt.Sprintf("threw %s (%s): %v", r.Exception.Type.ClassName(), r.Kind, r.Cause)
	}
	return fmt.Sprintf("threw %s (%s)", r.Exception, r.Kind)
}

// Abort builds a terminal result a host hook can return to stop a run.
func Abort(reason string) Result {
	return abort(ErrAborted, reason)
}

func abort(cause error, reason string) Result {
	f := NewFault(IllegalStateException, "%s", reason)
	f.Cause = cause
	return &ExceptionThrown{Exception: f.Value(), Kind: FromEvaluator, Cause: f}
}
