package jni_test

import (
	"errors"
	"testing"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/jni"
)

func TestUnboxingFlags(t *testing.T) {
	params := bytecode.TypeOf("(ZBCSIJFDLjava/lang/String;[I)V").ArgumentTypes()
	want := []int32{
		jni.UnboxBoolean, jni.UnboxByte, jni.UnboxChar, jni.UnboxShort,
		jni.UnboxInt, jni.UnboxLong, jni.UnboxFloat, jni.UnboxDouble,
		jni.NoUnboxing, jni.NoUnboxing,
	}

	got := jni.UnboxingFlags(params)
	if len(got) != len(want) {
		t.Fatalf("expected %d flags, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("flag %d: expected %#x, got %#x", i, want[i], got[i])
		}
	}
	if jni.UnboxBoolean != 1 || jni.UnboxDouble != 128 {
		t.Errorf("flag values changed")
	}
}

func newBridge(t *testing.T) *jni.Bridge {
	t.Helper()
	b := jni.NewBridge()
	register := func(name, desc string, fn jni.NativeMethod) {
		if err := b.Register("demo/Base", name, desc, fn); err != nil {
			t.Fatal(err)
		}
	}

	register("add", "(IJ)J", func(_ any, args []any) (any, error) {
		return int64(args[0].(int32)) + args[1].(int64), nil
	})
	register("negate", "(Z)Z", func(_ any, args []any) (any, error) {
		return !args[0].(bool), nil
	})
	register("name", "()Ljava/lang/String;", func(recv any, _ []any) (any, error) {
		return recv.(string), nil
	})
	register("half", "(D)D", func(_ any, args []any) (any, error) {
		return args[0].(float64) / 2, nil
	})
	register("broken", "()I", func(any, []any) (any, error) {
		return "not an int", nil
	})
	register("touch", "(C)V", func(any, []any) (any, error) {
		return nil, nil
	})
	return b
}

func TestTypedEntryPoints(t *testing.T) {
	b := newBridge(t)

	j, err := b.InvokeSpecialJ(nil, "demo/Base", "add", "(IJ)J", []any{int32(2), int64(40)}, []int32{jni.UnboxInt, jni.UnboxLong})
	if err != nil || j != 42 {
		t.Errorf("add: expected 42, got %d (%v)", j, err)
	}

	z, err := b.InvokeSpecialZ(nil, "demo/Base", "negate", "(Z)Z", []any{false}, []int32{jni.UnboxBoolean})
	if err != nil || !z {
		t.Errorf("negate: expected true, got %t (%v)", z, err)
	}

	l, err := b.InvokeSpecialL("self", "demo/Base", "name", "()Ljava/lang/String;", nil, nil)
	if err != nil || l != "self" {
		t.Errorf("name: expected receiver back, got %v (%v)", l, err)
	}

	d, err := b.InvokeSpecialD(nil, "demo/Base", "half", "(D)D", []any{3.0}, []int32{jni.UnboxDouble})
	if err != nil || d != 1.5 {
		t.Errorf("half: expected 1.5, got %v (%v)", d, err)
	}

	if err := b.InvokeSpecial(nil, "demo/Base", "touch", "(C)V", []any{uint16('x')}, []int32{jni.UnboxChar}); err != nil {
		t.Errorf("touch: %v", err)
	}
}

func TestCallSkipsEntryPoints(t *testing.T) {
	b := newBridge(t)

	r, err := b.Call(nil, "demo/Base", "add", "(IJ)J", []any{int32(2), int64(40)})
	if err != nil || r != int64(42) {
		t.Errorf("add: expected 42, got %v (%v)", r, err)
	}
	if _, err := b.Call(nil, "demo/Base", "missing", "()V", nil); !errors.Is(err, jni.ErrNoSuchMethod) {
		t.Errorf("missing: expected ErrNoSuchMethod, got %v", err)
	}

	if special, plain := b.Counts(); special != 0 || plain != 2 {
		t.Errorf("expected 0 special and 2 plain calls, got %d and %d", special, plain)
	}
	if _, err := b.InvokeSpecialJ(nil, "demo/Base", "add", "(IJ)J", []any{int32(1), int64(1)}, []int32{jni.UnboxInt, jni.UnboxLong}); err != nil {
		t.Fatal(err)
	}
	if special, _ := b.Counts(); special != 1 {
		t.Errorf("expected 1 special call, got %d", special)
	}
}

func TestBridgeErrors(t *testing.T) {
	b := newBridge(t)

	t.Run("flag mismatch", func(t *testing.T) {
		_, err := b.InvokeSpecialJ(nil, "demo/Base", "add", "(IJ)J", []any{int64(2), int64(40)}, []int32{jni.UnboxInt, jni.UnboxLong})
		var ue *jni.UnboxingError
		if !errors.As(err, &ue) || ue.Index != 0 {
			t.Errorf("expected an unboxing error on argument 0, got %v", err)
		}
	})

	t.Run("argument count", func(t *testing.T) {
		_, err := b.InvokeSpecialJ(nil, "demo/Base", "add", "(IJ)J", []any{int32(2)}, []int32{jni.UnboxInt, jni.UnboxLong})
		if !errors.Is(err, jni.ErrArgumentCount) {
			t.Errorf("expected ErrArgumentCount, got %v", err)
		}
	})

	t.Run("wrong entry point", func(t *testing.T) {
		_, err := b.InvokeSpecialI(nil, "demo/Base", "add", "(IJ)J", []any{int32(2), int64(40)}, []int32{jni.UnboxInt, jni.UnboxLong})
		if !errors.Is(err, jni.ErrReturnSort) {
			t.Errorf("expected ErrReturnSort, got %v", err)
		}
	})

	t.Run("unregistered", func(t *testing.T) {
		_, err := b.InvokeSpecialI(nil, "demo/Base", "missing", "()I", nil, nil)
		if !errors.Is(err, jni.ErrNoSuchMethod) {
			t.Errorf("expected ErrNoSuchMethod, got %v", err)
		}
	})

	t.Run("wrong result type", func(t *testing.T) {
		_, err := b.InvokeSpecialI(nil, "demo/Base", "broken", "()I", nil, nil)
		var re *jni.ReturnError
		if !errors.As(err, &re) {
			t.Errorf("expected a return error, got %v", err)
		}
	})

	t.Run("native failure", func(t *testing.T) {
		boom := errors.New("boom")
		if err := b.Register("demo/Base", "fail", "()V", func(any, []any) (any, error) { return nil, boom }); err != nil {
			t.Fatal(err)
		}
		if err := b.InvokeSpecial(nil, "demo/Base", "fail", "()V", nil, nil); !errors.Is(err, boom) {
			t.Errorf("expected the native error, got %v", err)
		}
	})
}

func TestRegisterValidates(t *testing.T) {
	b := jni.NewBridge()
	noop := func(any, []any) (any, error) { return nil, nil }

	if err := b.Register("demo/Base", "f", "I", noop); err == nil {
		t.Errorf("expected an error for a field descriptor")
	}
	if err := b.Register("demo/Base", "f", "(Q)V", noop); err == nil {
		t.Errorf("expected an error for a bad descriptor")
	}
	if err := b.Register("demo/Base", "f", "()V", nil); err == nil {
		t.Errorf("expected an error for a nil method")
	}
	if _, ok := b.Lookup("demo/Base", "f", "()V"); ok {
		t.Errorf("failed registrations must not bind")
	}
}
