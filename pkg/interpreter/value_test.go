package interpreter_test

import (
	"errors"
	"math"
	"testing"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/interpreter"
)

func TestValueAccessorsPanicOnWrongKind(t *testing.T) {
	tests := []struct {
		name string
		get  func()
	}{
		{"Int of long", func() { interpreter.LongValue(1).Int() }},
		{"Long of int", func() { interpreter.IntValue(1).Long() }},
		{"Float of double", func() { interpreter.DoubleValue(1).Float() }},
		{"Ref of int", func() { interpreter.IntValue(0).Ref() }},
		{"Target of object", func() { interpreter.NullValue.Target() }},
		{"Int of not-a-value", func() { interpreter.NotAValue.Int() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				var kindErr *interpreter.ValueKindError
				if !ok || !errors.As(err, &kindErr) {
					t.Errorf("expected a *ValueKindError panic, got %v", r)
				}
			}()
			tt.get()
		})
	}
}

func TestValueSize(t *testing.T) {
	tests := []struct {
		v    interpreter.Value
		want int
	}{
		{interpreter.IntValue(1), 1},
		{interpreter.LongValue(1), 2},
		{interpreter.DoubleValue(1), 2},
		{interpreter.FloatValue(1), 1},
		{interpreter.NullValue, 1},
		{interpreter.VoidValue, 0},
		{interpreter.NotInitialized(bytecode.LongType), 2},
	}
	for _, tt := range tests {
		if got := tt.v.Size(); got != tt.want {
			t.Errorf("%s: expected size %d, got %d", tt.v, tt.want, got)
		}
	}
}

func TestBoxAs(t *testing.T) {
	tests := []struct {
		name string
		v    interpreter.Value
		t    bytecode.Type
		want any
	}{
		{"boolean", interpreter.IntValue(1), bytecode.BooleanType, true},
		{"byte", interpreter.IntValue(-1), bytecode.ByteType, int8(-1)},
		{"char", interpreter.IntValue('a'), bytecode.CharType, uint16('a')},
		{"short", interpreter.IntValue(300), bytecode.ShortType, int16(300)},
		{"int", interpreter.IntValue(7), bytecode.IntType, int32(7)},
		{"long", interpreter.LongValue(7), bytecode.LongType, int64(7)},
		{"float", interpreter.FloatValue(1.5), bytecode.FloatType, float32(1.5)},
		{"double", interpreter.DoubleValue(1.5), bytecode.DoubleType, 1.5},
		{"string", interpreter.ObjectValue("s", bytecode.StringType), bytecode.StringType, "s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.BoxAs(tt.t); got != tt.want {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}

	if got := interpreter.NullValue.Obj(); got != nil {
		t.Errorf("null boxes to %#v", got)
	}
}

func TestMakeValue(t *testing.T) {
	tests := []struct {
		name string
		obj  any
		t    bytecode.Type
		want interpreter.Value
	}{
		{"void", nil, bytecode.VoidType, interpreter.VoidValue},
		{"boolean", true, bytecode.BooleanType, interpreter.BoolValue(true)},
		{"char", uint16('x'), bytecode.CharType, interpreter.IntValueOf('x', bytecode.CharType)},
		{"int from go int", 12, bytecode.IntType, interpreter.IntValue(12)},
		{"long", int64(-3), bytecode.LongType, interpreter.LongValue(-3)},
		{"float", float32(0.25), bytecode.FloatType, interpreter.FloatValue(0.25)},
		{"double", 0.5, bytecode.DoubleType, interpreter.DoubleValue(0.5)},
		{"null", nil, bytecode.StringType, interpreter.ObjectValue(nil, bytecode.StringType)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := interpreter.MakeValue(tt.obj, tt.t)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	if _, err := interpreter.MakeValue("not a number", bytecode.IntType); err == nil {
		t.Errorf("expected an error for a string made into an int")
	}
}

func TestValueEqual(t *testing.T) {
	type node struct{ n int }
	a, b := &node{1}, &node{1}

	tests := []struct {
		name string
		x, y interpreter.Value
		want bool
	}{
		{"same int", interpreter.IntValue(3), interpreter.IntValue(3), true},
		{"int and byte differ by type", interpreter.IntValue(3), interpreter.IntValueOf(3, bytecode.ByteType), false},
		{"NaN equals itself bitwise", interpreter.DoubleValue(math.NaN()), interpreter.DoubleValue(math.NaN()), true},
		{"signed zeros differ", interpreter.FloatValue(0), interpreter.FloatValue(float32(math.Copysign(0, -1))), false},
		{"same reference", interpreter.ObjectValue(a, bytecode.ObjectTypeRoot), interpreter.ObjectValue(a, bytecode.ObjectTypeRoot), true},
		{"distinct references", interpreter.ObjectValue(a, bytecode.ObjectTypeRoot), interpreter.ObjectValue(b, bytecode.ObjectTypeRoot), false},
		{"slices are never identical", interpreter.ObjectValue([]int{1}, bytecode.ObjectTypeRoot), interpreter.ObjectValue([]int{1}, bytecode.ObjectTypeRoot), false},
		{"long and int", interpreter.LongValue(1), interpreter.IntValue(1), false},
		{"strings are identical by content", interpreter.ObjectValue("ab", bytecode.ObjectType("java/lang/String")), interpreter.ObjectValue(string([]byte{'a', 'b'}), bytecode.ObjectType("java/lang/String")), true},
		{"different strings", interpreter.ObjectValue("ab", bytecode.ObjectType("java/lang/String")), interpreter.ObjectValue("ba", bytecode.ObjectType("java/lang/String")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.x.Equal(tt.y); got != tt.want {
				t.Errorf("%s == %s: expected %t", tt.x, tt.y, tt.want)
			}
		})
	}
}

func TestComputeReturn(t *testing.T) {
	v := interpreter.ComputeReturn(interpreter.IntValueOf(5, bytecode.ShortType), bytecode.IntType)
	if v.Type != bytecode.IntType || v.Int() != 5 {
		t.Errorf("short returned as int: got %s", v)
	}

	long := interpreter.LongValue(9)
	if got := interpreter.ComputeReturn(long, bytecode.LongType); !got.Equal(long) {
		t.Errorf("long changed to %s", got)
	}
}

func TestFaultHierarchy(t *testing.T) {
	f := interpreter.NewFault(interpreter.ArrayIndexOutOfBoundsException, "index %d", 3)

	for _, class := range []string{
		interpreter.ArrayIndexOutOfBoundsException,
		interpreter.IndexOutOfBoundsException,
		interpreter.RuntimeException,
		interpreter.Exception,
		interpreter.Throwable,
	} {
		if !f.InstanceOf(class) {
			t.Errorf("expected fault to be a %s", class)
		}
	}
	if f.InstanceOf(interpreter.Error) || f.InstanceOf(interpreter.NullPointerException) {
		t.Errorf("fault matched an unrelated class")
	}
	if got := f.Error(); got != "java.lang.ArrayIndexOutOfBoundsException: index 3" {
		t.Errorf("unexpected message %q", got)
	}
	if len(f.StackTrace()) == 0 {
		t.Errorf("fault has no stack trace")
	}

	for _, ht := range interpreter.HostThrowables() {
		if ht.Name == interpreter.Throwable {
			continue
		}
		if !interpreter.NewFault(ht.Name, "").InstanceOf(interpreter.Throwable) {
			t.Errorf("%s is not a Throwable", ht.Name)
		}
	}
}
