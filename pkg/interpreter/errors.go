package interpreter

import (
	"errors"
	"fmt"
	"strings"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/houdini"
)

var (
	ErrStackUnderflow   = errors.New("operand stack underflow")
	ErrStackOverflow    = errors.New("operand stack overflow")
	ErrFellOffCode      = errors.New("execution fell off the end of the method")
	ErrMaxStepsExceeded = errors.New("maximum steps exceeded")
	ErrAborted          = errors.New("interpretation aborted")
)

// Host exception classes raised by the interpreter and by backends. Each maps
// to its superclass.
const (
	Throwable                      = "java/lang/Throwable"
	Exception                      = "java/lang/Exception"
	RuntimeException               = "java/lang/RuntimeException"
	ArithmeticException            = "java/lang/ArithmeticException"
	ClassCastException             = "java/lang/ClassCastException"
	NullPointerException           = "java/lang/NullPointerException"
	IllegalStateException          = "java/lang/IllegalStateException"
	IllegalArgumentException       = "java/lang/IllegalArgumentException"
	IndexOutOfBoundsException      = "java/lang/IndexOutOfBoundsException"
	ArrayIndexOutOfBoundsException = "java/lang/ArrayIndexOutOfBoundsException"
	NegativeArraySizeException     = "java/lang/NegativeArraySizeException"
	ArrayStoreException            = "java/lang/ArrayStoreException"
	UnsupportedOperationException  = "java/lang/UnsupportedOperationException"
	Error                          = "java/lang/Error"
	LinkageError                   = "java/lang/LinkageError"
	VerifyError                    = "java/lang/VerifyError"
	NoClassDefFoundError           = "java/lang/NoClassDefFoundError"
	IncompatibleClassChangeError   = "java/lang/IncompatibleClassChangeError"
	NoSuchFieldError               = "java/lang/NoSuchFieldError"
	NoSuchMethodError              = "java/lang/NoSuchMethodError"
)

// HostThrowable is one entry of the host exception hierarchy.
type HostThrowable struct {
	Name  string
	Super string
}

// hostThrowables is ordered so that every superclass precedes its subclasses.
var hostThrowables = []HostThrowable{
	{Throwable, "java/lang/Object"},
	{Exception, Throwable},
	{Error, Throwable},
	{RuntimeException, Exception},
	{ArithmeticException, RuntimeException},
	{ClassCastException, RuntimeException},
	{NullPointerException, RuntimeException},
	{IllegalStateException, RuntimeException},
	{IllegalArgumentException, RuntimeException},
	{IndexOutOfBoundsException, RuntimeException},
	{ArrayIndexOutOfBoundsException, IndexOutOfBoundsException},
	{NegativeArraySizeException, RuntimeException},
	{ArrayStoreException, RuntimeException},
	{UnsupportedOperationException, RuntimeException},
	{LinkageError, Error},
	{VerifyError, LinkageError},
	{NoClassDefFoundError, LinkageError},
	{IncompatibleClassChangeError, LinkageError},
	{NoSuchFieldError, IncompatibleClassChangeError},
	{NoSuchMethodError, IncompatibleClassChangeError},
}

var hostSuper = func() map[string]string {
	m := make(map[string]string, len(hostThrowables))
	for _, t := range hostThrowables {
		m[t.Name] = t.Super
	}
	return m
}()

// HostThrowables lists the host exception hierarchy, superclasses first.
func HostThrowables() []HostThrowable {
	return append([]HostThrowable(nil), hostThrowables...)
}

// Fault is an exception raised outside guest code: by the interpreter itself
// (division by zero, failed cast, throwing null) or by an evaluation backend.
// Guest handlers can still catch it; matching walks the host hierarchy.
type Fault struct {
	Class   string // internal name
	Message string
	Cause   error

	trace []houdini.Element
}

// NewFault creates a fault of the given host class and records the current stack.
func NewFault(class, format string, args ...any) *Fault {
	return &Fault{
		Class:   class,
		Message: fmt.Sprintf(format, args...),
		trace:   houdini.Capture(1),
	}
}

// WrapFault creates a fault whose message and cause come from err.
func WrapFault(class string, err error) *Fault {
	f := NewFault(class, "%v", err)
	f.Cause = err
	return f
}

func (f *Fault) Error() string {
	name := strings.ReplaceAll(f.Class, "/", ".")
	if f.Message == "" {
		return name
	}
	return name + ": " + f.Message
}

func (f *Fault) Unwrap() error { return f.Cause }

// InstanceOf reports whether the fault's class is class or one of its host
// superclasses. Classes outside the host hierarchy only match themselves.
func (f *Fault) InstanceOf(class string) bool {
	for c := f.Class; c != ""; c = hostSuper[c] {
		if c == class {
			return true
		}
	}
	return false
}

// Type is the declared type a guest handler sees for the fault.
func (f *Fault) Type() bytecode.Type {
	return bytecode.ObjectType(f.Class)
}

// Value wraps the fault as a guest-visible object.
func (f *Fault) Value() Value {
	return ObjectValue(f, f.Type())
}

func (f *Fault) StackTrace() []houdini.Element     { return f.trace }
func (f *Fault) SetStackTrace(t []houdini.Element) { f.trace = t }

// GuestException carries an exception object thrown by guest code. Backends
// return it when an invoked method completes abruptly.
type GuestException struct {
	Exception Value
}

// Throw wraps a guest exception object as an error.
func Throw(exception Value) error {
	return &GuestException{Exception: exception}
}

func (e *GuestException) Error() string {
	if err, ok := e.Exception.ref.(error); ok {
		return err.Error()
	}
	return "guest exception " + e.Exception.String()
}

// BrokenCodeError reports an invariant violation in the interpreted code:
// a stack underflow or overflow, a slot of the wrong kind, running off the end
// of the method. It indicates a bug rather than guest behaviour.
type BrokenCodeError struct {
	Method string
	Index  int
	Err    error
}

func (e *BrokenCodeError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("broken code: %v", e.Err)
	}
	return fmt.Sprintf("broken code in %s at %d: %v", e.Method, e.Index, e.Err)
}

func (e *BrokenCodeError) Unwrap() error { return e.Err }

func brokenf(format string, args ...any) error {
	return &BrokenCodeError{Index: -1, Err: fmt.Errorf(format, args...)}
}

// UnsupportedBytecodeError aborts interpretation of instructions that are
// deliberately not implemented. It never reaches catch matching.
type UnsupportedBytecodeError struct {
	Op     bytecode.Opcode
	Reason string
}

func (e *UnsupportedBytecodeError) Error() string {
	return fmt.Sprintf("unsupported bytecode %s: %s", e.Op, e.Reason)
}

func unsupported(op bytecode.Opcode, reason string) error {
	return &UnsupportedBytecodeError{Op: op, Reason: reason}
}

// ValueKindError is raised by the Value accessors when a slot holds a
// different variant than the instruction expects.
type ValueKindError struct {
	Want ValueKind
	Got  Value
}

func (e *ValueKindError) Error() string {
	return fmt.Sprintf("%s cannot be cast to %s", e.Got, e.Want)
}
