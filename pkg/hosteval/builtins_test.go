package hosteval_test

import (
	"io"
	"math"
	"testing"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/hosteval"
	"liveedit/pkg/interpreter"
)

func TestBuiltins(t *testing.T) {
	rt := hosteval.New(hosteval.WithOutput(io.Discard))

	tests := []struct {
		name              string
		owner, meth, desc string
		args              []interpreter.Value
		want              any
	}{
		{"length counts UTF-16 units", "java/lang/String", "length", "()I", []interpreter.Value{str("a😀")}, int32(3)},
		{"charAt", "java/lang/String", "charAt", "(I)C", []interpreter.Value{str("abc"), interpreter.IntValue(1)}, int32('b')},
		{"hashCode", "java/lang/String", "hashCode", "()I", []interpreter.Value{str("hello")}, int32(99162322)},
		{"substring", "java/lang/String", "substring", "(II)Ljava/lang/String;",
			[]interpreter.Value{str("live edit"), interpreter.IntValue(5), interpreter.IntValue(9)}, "edit"},
		{"indexOf", "java/lang/String", "indexOf", "(Ljava/lang/String;)I", []interpreter.Value{str("a😀b"), str("b")}, int32(3)},
		{"equals", "java/lang/String", "equals", "(Ljava/lang/Object;)Z", []interpreter.Value{str("x"), str("x")}, int32(1)},
		{"valueOf int", "java/lang/String", "valueOf", "(I)Ljava/lang/String;", []interpreter.Value{interpreter.IntValue(-7)}, "-7"},
		{"valueOf whole double", "java/lang/String", "valueOf", "(D)Ljava/lang/String;", []interpreter.Value{interpreter.DoubleValue(3)}, "3.0"},
		{"valueOf large double", "java/lang/String", "valueOf", "(D)Ljava/lang/String;", []interpreter.Value{interpreter.DoubleValue(1e20)}, "1.0E20"},
		{"valueOf small double", "java/lang/String", "valueOf", "(D)Ljava/lang/String;", []interpreter.Value{interpreter.DoubleValue(1e-5)}, "1.0E-5"},
		{"valueOf NaN", "java/lang/String", "valueOf", "(D)Ljava/lang/String;", []interpreter.Value{interpreter.DoubleValue(math.NaN())}, "NaN"},
		{"valueOf float", "java/lang/String", "valueOf", "(F)Ljava/lang/String;", []interpreter.Value{interpreter.FloatValue(0.1)}, "0.1"},
		{"valueOf null", "java/lang/String", "valueOf", "(Ljava/lang/Object;)Ljava/lang/String;", []interpreter.Value{interpreter.NullValue}, "null"},
		{"parseInt", "java/lang/Integer", "parseInt", "(Ljava/lang/String;)I", []interpreter.Value{str("-42")}, int32(-42)},
		{"max", "java/lang/Math", "max", "(II)I", []interpreter.Value{interpreter.IntValue(3), interpreter.IntValue(7)}, int32(7)},
		{"floorMod", "java/lang/Math", "floorMod", "(II)I", []interpreter.Value{interpreter.IntValue(-7), interpreter.IntValue(3)}, int32(2)},
		{"abs long", "java/lang/Math", "abs", "(J)J", []interpreter.Value{interpreter.LongValue(-5)}, int64(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := returned(t)(rt.Invoke(tt.owner, tt.meth, tt.desc, tt.args...))
			var got any
			switch v.Kind {
			case interpreter.KindInt:
				got = v.Int()
			case interpreter.KindLong:
				got = v.Long()
			default:
				got = v.Ref()
			}
			if got != tt.want {
				t.Errorf("expected %v (%T), got %v (%T)", tt.want, tt.want, got, got)
			}
		})
	}
}

func TestBuiltinExceptions(t *testing.T) {
	rt := hosteval.New(hosteval.WithOutput(io.Discard))

	tests := []struct {
		name              string
		owner, meth, desc string
		args              []interpreter.Value
		class, msg        string
	}{
		{"charAt out of range", "java/lang/String", "charAt", "(I)C",
			[]interpreter.Value{str("abc"), interpreter.IntValue(3)},
			"java/lang/StringIndexOutOfBoundsException", "Index 3 out of bounds for length 3"},
		{"parseInt garbage", "java/lang/Integer", "parseInt", "(Ljava/lang/String;)I",
			[]interpreter.Value{str("12x")},
			"java/lang/NumberFormatException", `For input string: "12x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			et := threw(t)(rt.Invoke(tt.owner, tt.meth, tt.desc, tt.args...))
			obj, ok := et.Exception.Ref().(*hosteval.Object)
			if !ok {
				t.Fatalf("expected a guest exception object, got %T", et.Exception.Ref())
			}
			if obj.Class.Name() != tt.class {
				t.Errorf("expected %s, got %s", tt.class, obj.Class.Name())
			}
			if obj.Message() != tt.msg {
				t.Errorf("expected message %q, got %q", tt.msg, obj.Message())
			}
			if et.Kind != interpreter.FromEvaluatedCode {
				t.Errorf("expected an exception from evaluated code, got %s", et.Kind)
			}
		})
	}
}

func TestExceptionHierarchyIsLoaded(t *testing.T) {
	rt := hosteval.New(hosteval.WithOutput(io.Discard))
	throwable, ok := rt.Class(interpreter.Throwable)
	if !ok {
		t.Fatal("Throwable is not loaded")
	}
	for _, ht := range interpreter.HostThrowables() {
		c, ok := rt.Class(ht.Name)
		if !ok {
			t.Errorf("%s is not loaded", ht.Name)
			continue
		}
		if !c.IsSubclassOf(throwable) {
			t.Errorf("%s does not extend Throwable", ht.Name)
		}
	}
	nfe, _ := rt.Class("java/lang/NumberFormatException")
	iae, _ := rt.Class(interpreter.IllegalArgumentException)
	if !nfe.IsSubclassOf(iae) {
		t.Error("NumberFormatException does not extend IllegalArgumentException")
	}
}

func TestClassObjects(t *testing.T) {
	rt := hosteval.New(hosteval.WithOutput(io.Discard))
	demo := class("pkg/Demo", "",
		method("name", "()Ljava/lang/String;", static,
			bytecode.LdcInsn(bytecode.ObjectType("pkg/Demo")),
			invoke(bytecode.INVOKEVIRTUAL, "java/lang/Class", "getName", "()Ljava/lang/String;"),
			insn(bytecode.ARETURN),
		),
		method("simple", "()Ljava/lang/String;", static,
			bytecode.LdcInsn(bytecode.ObjectType("pkg/Demo")),
			invoke(bytecode.INVOKEVIRTUAL, "java/lang/Class", "getSimpleName", "()Ljava/lang/String;"),
			insn(bytecode.ARETURN),
		),
	)
	if err := rt.Load(demo); err != nil {
		t.Fatal(err)
	}

	for name, want := range map[string]string{"name": "pkg.Demo", "simple": "Demo"} {
		v := returned(t)(rt.Invoke("pkg/Demo", name, "()Ljava/lang/String;"))
		if v.Ref() != want {
			t.Errorf("%s: expected %q, got %s", name, want, v)
		}
	}
}
