// Package jni forwards calls to native method bodies.
//
// The interpreter can resolve a super or private call itself only when the
// callee has bytecode. Methods implemented natively are registered in a
// Bridge and reached, for invokespecial, through the typed InvokeSpecial
// entry points, one per return sort. Arguments arrive boxed; a parallel
// slice of unboxing flags tells the bridge which primitive each argument
// must be, so the descriptor is not parsed again on every call. Static and
// virtually dispatched calls use Call, which only looks the body up.
package jni

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"liveedit/pkg/bytecode"
)

// Unboxing flags, one per parameter. A reference parameter has no flag.
const (
	NoUnboxing   int32 = 0
	UnboxBoolean int32 = 1 << 0
	UnboxByte    int32 = 1 << 1
	UnboxChar    int32 = 1 << 2
	UnboxShort   int32 = 1 << 3
	UnboxInt     int32 = 1 << 4
	UnboxLong    int32 = 1 << 5
	UnboxFloat   int32 = 1 << 6
	UnboxDouble  int32 = 1 << 7
)

var (
	ErrNoSuchMethod  = errors.New("no native method registered")
	ErrArgumentCount = errors.New("argument count does not match the unboxing flags")
	ErrReturnSort    = errors.New("entry point does not match the return type")
)

// NativeMethod is a method body implemented by the host. Primitive arguments
// are passed unboxed to their Go types (bool, int8, uint16, int16, int32,
// int64, float32, float64); the result follows the same convention.
type NativeMethod func(receiver any, args []any) (any, error)

// UnboxingError reports an argument that does not hold the primitive its flag asks for.
type UnboxingError struct {
	Index int
	Flag  int32
	Got   any
}

func (e *UnboxingError) Error() string {
	return fmt.Sprintf("argument %d: flag %#x cannot unbox %T", e.Index, e.Flag, e.Got)
}

// ReturnError reports a native result of the wrong Go type.
type ReturnError struct {
	Method string
	Want   bytecode.Sort
	Got    any
}

func (e *ReturnError) Error() string {
	return fmt.Sprintf("%s returned %T for sort %d", e.Method, e.Got, e.Want)
}

type key struct {
	class, name, desc string
}

func (k key) String() string {
	return k.class + "." + k.name + k.desc
}

// Bridge is a registry of native method bodies, safe for concurrent use.
type Bridge struct {
	mu      sync.RWMutex
	methods map[key]NativeMethod

	special atomic.Int64
	plain   atomic.Int64
}

func NewBridge() *Bridge {
	return &Bridge{methods: make(map[key]NativeMethod)}
}

// Register binds fn to class.name desc, replacing any earlier binding.
func (b *Bridge) Register(class, name, desc string, fn NativeMethod) error {
	t := bytecode.TypeOf(desc)
	if t.Sort() != bytecode.SortMethod {
		return fmt.Errorf("jni: %s.%s: %q is not a method descriptor", class, name, desc)
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("jni: %s.%s: %w", class, name, err)
	}
	if fn == nil {
		return fmt.Errorf("jni: %s.%s%s: nil method", class, name, desc)
	}

	b.mu.Lock()
	b.methods[key{class, name, desc}] = fn
	b.mu.Unlock()

	log.Debug("jni: registered", "method", class+"."+name+desc)
	return nil
}

// Lookup reports whether a native body is registered for class.name desc.
func (b *Bridge) Lookup(class, name, desc string) (NativeMethod, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn, ok := b.methods[key{class, name, desc}]
	return fn, ok
}

// Counts reports how many calls went through the InvokeSpecial entry points
// and how many through Call.
func (b *Bridge) Counts() (special, plain int64) {
	return b.special.Load(), b.plain.Load()
}

// Call runs the body registered for a static or virtually dispatched
// method. Arguments and result follow the NativeMethod convention.
func (b *Bridge) Call(receiver any, class, name, desc string, args []any) (any, error) {
	b.plain.Add(1)
	fn, ok := b.Lookup(class, name, desc)
	if !ok {
		return nil, fmt.Errorf("jni: %s: %w", key{class, name, desc}, ErrNoSuchMethod)
	}
	return fn(receiver, args)
}

// UnboxingFlags builds the flags for a parameter list.
func UnboxingFlags(params []bytecode.Type) []int32 {
	flags := make([]int32, len(params))
	for i, p := range params {
		flags[i] = flagFor(p.Sort())
	}
	return flags
}

func flagFor(s bytecode.Sort) int32 {
	switch s {
	case bytecode.SortBoolean:
		return UnboxBoolean
	case bytecode.SortByte:
		return UnboxByte
	case bytecode.SortChar:
		return UnboxChar
	case bytecode.SortShort:
		return UnboxShort
	case bytecode.SortInt:
		return UnboxInt
	case bytecode.SortLong:
		return UnboxLong
	case bytecode.SortFloat:
		return UnboxFloat
	case bytecode.SortDouble:
		return UnboxDouble
	}
	return NoUnboxing
}

func unboxes(flag int32, arg any) bool {
	var ok bool
	switch flag {
	case NoUnboxing:
		return true
	case UnboxBoolean:
		_, ok = arg.(bool)
	case UnboxByte:
		_, ok = arg.(int8)
	case UnboxChar:
		_, ok = arg.(uint16)
	case UnboxShort:
		_, ok = arg.(int16)
	case UnboxInt:
		_, ok = arg.(int32)
	case UnboxLong:
		_, ok = arg.(int64)
	case UnboxFloat:
		_, ok = arg.(float32)
	case UnboxDouble:
		_, ok = arg.(float64)
	}
	return ok
}

// call checks the flags and the entry point, then runs the native body.
func (b *Bridge) call(want bytecode.Sort, receiver any, class, name, desc string, args []any, unbox []int32) (any, error) {
	b.special.Add(1)
	k := key{class, name, desc}
	if got := bytecode.TypeOf(desc).ReturnType().Sort(); got != want && !(want == bytecode.SortObject && got == bytecode.SortArray) {
		return nil, fmt.Errorf("jni: %s: %w", k, ErrReturnSort)
	}
	if len(args) != len(unbox) {
		return nil, fmt.Errorf("jni: %s: %w (%d args, %d flags)", k, ErrArgumentCount, len(args), len(unbox))
	}
	for i, arg := range args {
		if !unboxes(unbox[i], arg) {
			return nil, fmt.Errorf("jni: %s: %w", k, &UnboxingError{Index: i, Flag: unbox[i], Got: arg})
		}
	}

	fn, ok := b.Lookup(class, name, desc)
	if !ok {
		return nil, fmt.Errorf("jni: %s: %w", k, ErrNoSuchMethod)
	}
	return fn(receiver, args)
}

func result[T any](b *Bridge, want bytecode.Sort, receiver any, class, name, desc string, args []any, unbox []int32) (T, error) {
	var zero T
	r, err := b.call(want, receiver, class, name, desc, args, unbox)
	if err != nil {
		return zero, err
	}
	v, ok := r.(T)
	if !ok {
		return zero, &ReturnError{Method: key{class, name, desc}.String(), Want: want, Got: r}
	}
	return v, nil
}

// InvokeSpecial calls a void native method.
func (b *Bridge) InvokeSpecial(receiver any, class, name, desc string, args []any, unbox []int32) error {
	_, err := b.call(bytecode.SortVoid, receiver, class, name, desc, args, unbox)
	return err
}

func (b *Bridge) InvokeSpecialZ(receiver any, class, name, desc string, args []any, unbox []int32) (bool, error) {
	return result[bool](b, bytecode.SortBoolean, receiver, class, name, desc, args, unbox)
}

func (b *Bridge) InvokeSpecialB(receiver any, class, name, desc string, args []any, unbox []int32) (int8, error) {
	return result[int8](b, bytecode.SortByte, receiver, class, name, desc, args, unbox)
}

func (b *Bridge) InvokeSpecialC(receiver any, class, name, desc string, args []any, unbox []int32) (uint16, error) {
	return result[uint16](b, bytecode.SortChar, receiver, class, name, desc, args, unbox)
}

func (b *Bridge) InvokeSpecialS(receiver any, class, name, desc string, args []any, unbox []int32) (int16, error) {
	return result[int16](b, bytecode.SortShort, receiver, class, name, desc, args, unbox)
}

func (b *Bridge) InvokeSpecialI(receiver any, class, name, desc string, args []any, unbox []int32) (int32, error) {
	return result[int32](b, bytecode.SortInt, receiver, class, name, desc, args, unbox)
}

func (b *Bridge) InvokeSpecialJ(receiver any, class, name, desc string, args []any, unbox []int32) (int64, error) {
	return result[int64](b, bytecode.SortLong, receiver, class, name, desc, args, unbox)
}

func (b *Bridge) InvokeSpecialF(receiver any, class, name, desc string, args []any, unbox []int32) (float32, error) {
	return result[float32](b, bytecode.SortFloat, receiver, class, name, desc, args, unbox)
}

func (b *Bridge) InvokeSpecialD(receiver any, class, name, desc string, args []any, unbox []int32) (float64, error) {
	return result[float64](b, bytecode.SortDouble, receiver, class, name, desc, args, unbox)
}

// InvokeSpecialL calls a native method returning a reference; nil is null.
func (b *Bridge) InvokeSpecialL(receiver any, class, name, desc string, args []any, unbox []int32) (any, error) {
	return b.call(bytecode.SortObject, receiver, class, name, desc, args, unbox)
}
