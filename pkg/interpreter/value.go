package interpreter

import (
	"fmt"
	"math"
	"reflect"

	"liveedit/pkg/bytecode"
)

type ValueKind int

const (
	KindNotAValue ValueKind = iota
	KindVoid
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindObject
	KindLabel
	KindNotInitialized
)

func (k ValueKind) String() string {
	switch k {
	case KindNotAValue:
		return "not-a-value"
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindObject:
		return "object"
	case KindLabel:
		return "label"
	case KindNotInitialized:
		return "not-initialized"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is the content of one operand stack entry or local variable slot.
// Values are immutable; instructions replace them rather than mutate them.
//
// Int-family values (boolean, byte, char, short, int) share KindInt and are
// told apart by Type.
type Value struct {
	Kind  ValueKind
	Type  bytecode.Type
	Valid bool

	bits int64   // int, long, label target
	fp   float64 // float, double
	ref  any     // object reference, nil for null
}

var (
	// NotAValue fills slots that hold nothing, such as the upper half of a long local.
	NotAValue = Value{Kind: KindNotAValue}
	// VoidValue is the result of a void method.
	VoidValue = Value{Kind: KindVoid, Type: bytecode.VoidType, Valid: true}
	// NullValue is the null reference.
	NullValue = Value{Kind: KindObject, Type: bytecode.ObjectTypeRoot, Valid: true}
)

// IntValue creates an int.
func IntValue(v int32) Value {
	return Value{Kind: KindInt, Type: bytecode.IntType, Valid: true, bits: int64(v)}
}

// IntValueOf creates an int-family value tagged with t (Z, B, C, S or I).
func IntValueOf(v int32, t bytecode.Type) Value {
	if !t.IsIntLike() {
		t = bytecode.IntType
	}
	return Value{Kind: KindInt, Type: t, Valid: true, bits: int64(v)}
}

// BoolValue creates a boolean, carried as an int of 0 or 1.
func BoolValue(b bool) Value {
	if b {
		return IntValueOf(1, bytecode.BooleanType)
	}
	return IntValueOf(0, bytecode.BooleanType)
}

// LongValue creates a long.
func LongValue(v int64) Value {
	return Value{Kind: KindLong, Type: bytecode.LongType, Valid: true, bits: v}
}

// FloatValue creates a float.
func FloatValue(v float32) Value {
	return Value{Kind: KindFloat, Type: bytecode.FloatType, Valid: true, fp: float64(v)}
}

// DoubleValue creates a double.
func DoubleValue(v float64) Value {
	return Value{Kind: KindDouble, Type: bytecode.DoubleType, Valid: true, fp: v}
}

// ObjectValue wraps a host reference with its declared type. A nil ref is null.
func ObjectValue(ref any, t bytecode.Type) Value {
	if t.IsZero() {
		t = bytecode.ObjectTypeRoot
	}
	return Value{Kind: KindObject, Type: t, Valid: true, ref: ref}
}

// LabelValue holds a return address pushed by jsr.
func LabelValue(target int) Value {
	return Value{Kind: KindLabel, Valid: true, bits: int64(target)}
}

// NotInitialized marks a slot whose declared type is known but which was never assigned.
func NotInitialized(t bytecode.Type) Value {
	return Value{Kind: KindNotInitialized, Type: t}
}

func (v Value) expect(k ValueKind) {
	if v.Kind != k {
		panic(&ValueKindError{Want: k, Got: v})
	}
}

// Int returns the payload of an int-family value.
func (v Value) Int() int32 {
	v.expect(KindInt)
	return int32(v.bits)
}

// Bool returns true for a non-zero int-family value.
func (v Value) Bool() bool {
	v.expect(KindInt)
	return v.bits != 0
}

func (v Value) Long() int64 {
	v.expect(KindLong)
	return v.bits
}

func (v Value) Float() float32 {
	v.expect(KindFloat)
	return float32(v.fp)
}

func (v Value) Double() float64 {
	v.expect(KindDouble)
	return v.fp
}

// Ref returns the host reference of an object value.
func (v Value) Ref() any {
	v.expect(KindObject)
	return v.ref
}

// Target returns the instruction index of a label value.
func (v Value) Target() int {
	v.expect(KindLabel)
	return int(v.bits)
}

// IsNull reports whether v is a null reference
func (v Value) IsNull() bool {
	return v.Kind == KindObject && v.ref == nil
}

// Size is the number of slots the value occupies.
func (v Value) Size() int {
	switch v.Kind {
	case KindLong, KindDouble:
		return 2
	case KindVoid:
		return 0
	case KindNotInitialized:
		if s := v.Type.Size(); s > 0 {
			return s
		}
	}
	return 1
}

// Obj boxes the value for the host using its own declared type.
func (v Value) Obj() any {
	return v.BoxAs(v.Type)
}

// BoxAs boxes the value for a parameter or field of type t: int-family values
// narrow to bool, int8, uint16, int16 or int32, the others map to int64,
// float32, float64 or the object reference.
func (v Value) BoxAs(t bytecode.Type) any {
	switch v.Kind {
	case KindInt:
		i := int32(v.bits)
		switch t.Sort() {
		case bytecode.SortBoolean:
			return i&1 != 0
		case bytecode.SortByte:
			return int8(i)
		case bytecode.SortChar:
			return uint16(i)
		case bytecode.SortShort:
			return int16(i)
		}
		return i
	case KindLong:
		return v.bits
	case KindFloat:
		return float32(v.fp)
	case KindDouble:
		return v.fp
	case KindObject:
		return v.ref
	case KindLabel:
		return int(v.bits)
	}
	return nil
}

// Equal compares variant, payload and declared type. Object references are
// compared by identity.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind || v.Type != o.Type || v.Valid != o.Valid {
		return false
	}
	switch v.Kind {
	case KindFloat, KindDouble:
		return math.Float64bits(v.fp) == math.Float64bits(o.fp)
	case KindObject:
		return SameObject(v.ref, o.ref)
	}
	return v.bits == o.bits
}

// SameObject reports reference identity the way if_acmpeq sees it. Pointers
// compare by address. Guest strings are Go strings, so two strings with the
// same content are the same object, as if every string were interned.
func SameObject(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		switch v.Type.Sort() {
		case bytecode.SortBoolean:
			return fmt.Sprintf("boolean %t", v.bits != 0)
		case bytecode.SortChar:
			return fmt.Sprintf("char %q", rune(uint16(v.bits)))
		}
		return fmt.Sprintf("%s %d", v.Type.ClassName(), int32(v.bits))
	case KindLong:
		return fmt.Sprintf("long %d", v.bits)
	case KindFloat:
		return fmt.Sprintf("float %g", float32(v.fp))
	case KindDouble:
		return fmt.Sprintf("double %g", v.fp)
	case KindObject:
		if v.ref == nil {
			return v.Type.ClassName() + " null"
		}
		if s, ok := v.ref.(string); ok {
			return fmt.Sprintf("%s %q", v.Type.ClassName(), s)
		}
		return fmt.Sprintf("%s %v", v.Type.ClassName(), v.ref)
	case KindLabel:
		return fmt.Sprintf("label @%d", v.bits)
	case KindNotInitialized:
		return "uninitialized " + v.Type.ClassName()
	case KindVoid:
		return "void"
	}
	return "<not a value>"
}

// MakeValue converts a boxed host result to a Value of type t, the inverse of BoxAs.
func MakeValue(obj any, t bytecode.Type) (Value, error) {
	switch t.Sort() {
	case bytecode.SortVoid:
		return VoidValue, nil
	case bytecode.SortBoolean:
		if b, ok := obj.(bool); ok {
			return BoolValue(b), nil
		}
	case bytecode.SortByte, bytecode.SortChar, bytecode.SortShort, bytecode.SortInt:
		if i, ok := hostInt(obj); ok {
			return IntValueOf(i, t), nil
		}
	case bytecode.SortLong:
		switch x := obj.(type) {
		case int64:
			return LongValue(x), nil
		case int:
			return LongValue(int64(x)), nil
		}
	case bytecode.SortFloat:
		if f, ok := obj.(float32); ok {
			return FloatValue(f), nil
		}
	case bytecode.SortDouble:
		if d, ok := obj.(float64); ok {
			return DoubleValue(d), nil
		}
	case bytecode.SortObject, bytecode.SortArray:
		return ObjectValue(obj, t), nil
	}
	return NotAValue, fmt.Errorf("cannot make %s from host %T", t.ClassName(), obj)
}

func hostInt(obj any) (int32, bool) {
	switch x := obj.(type) {
	case int32:
		return x, true
	case int:
		return int32(x), true
	case int8:
		return int32(x), true
	case int16:
		return int32(x), true
	case uint16:
		return int32(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
