package hosteval

import (
	"errors"
	"fmt"
	"strings"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/houdini"
	"liveedit/pkg/interpreter"
	"liveedit/pkg/jni"
)

// stubFunction is the Go function every interpreted activation is entered
// through; stack traces are collapsed from the interpreter up to it.
const stubFunction = "liveedit/pkg/hosteval.(*session).stub"

var internalPrefixes = []string{
	"liveedit/pkg/interpreter.",
	"liveedit/pkg/hosteval.",
	"liveedit/pkg/jni.",
}

// session is one host call chain. It implements interpreter.Eval; nested
// interpreted calls reuse its interpreter, so a step limit covers the whole
// chain.
type session struct {
	rt     *Runtime
	trace  *houdini.Context
	interp *interpreter.Interpreter
}

func (r *Runtime) newSession() *session {
	s := &session{rt: r}
	opts := []interpreter.Option{
		interpreter.WithLogger(r.logger),
		interpreter.WithDebug(r.debug),
		interpreter.WithMaxSteps(r.maxSteps),
		interpreter.WithEventHandler(r.handler),
	}
	if r.collapse {
		s.trace = houdini.NewContext(stubFunction, internalPrefixes...)
		opts = append(opts, interpreter.WithTrace(s.trace))
	}
	s.interp = interpreter.New(s, opts...)
	return s
}

// stub enters the interpreter. It must stay a real call frame.
//
//go:noinline
func (s *session) stub(m *bytecode.Method, f *interpreter.Frame) (interpreter.Result, error) {
	return s.interp.Run(m, f)
}

func (s *session) invokeTop(owner, name, desc string, args []interpreter.Value) (interpreter.Result, error) {
	c, ok := s.rt.Class(owner)
	if !ok {
		return nil, fmt.Errorf("hosteval: %s: %w", owner, ErrUnknownClass)
	}
	m := c.findMethod(name, desc)
	if m == nil {
		return nil, fmt.Errorf("hosteval: %s.%s%s: %w", owner, name, desc, ErrUnknownMethod)
	}
	if err := s.initialize(c); err != nil {
		return resultOf(err)
	}

	if len(m.Instructions) == 0 {
		recv := interpreter.NotAValue
		if !m.IsStatic() {
			if len(args) == 0 {
				return nil, fmt.Errorf("hosteval: %s needs a receiver", m.FullName())
			}
			recv, args = args[0], args[1:]
		}
		v, err := s.callNative(m, recv, args, false)
		if err != nil {
			return resultOf(err)
		}
		return &interpreter.ValueReturned{Value: v}, nil
	}

	f, err := interpreter.NewFrameFor(m, args...)
	if err != nil {
		return nil, fmt.Errorf("hosteval: %w", err)
	}
	return s.stub(m, f)
}

// resultOf turns an error from a native body or class initialization into
// the result the interpreter would have produced for it.
func resultOf(err error) (interpreter.Result, error) {
	var (
		guest  *interpreter.GuestException
		broken *interpreter.BrokenCodeError
		fault  *interpreter.Fault
	)
	switch {
	case errors.As(err, &guest):
		return &interpreter.ExceptionThrown{Exception: guest.Exception, Kind: interpreter.FromEvaluatedCode, Cause: err}, nil
	case errors.As(err, &broken):
		return &interpreter.ExceptionThrown{
			Exception: interpreter.WrapFault(interpreter.VerifyError, broken).Value(),
			Kind:      interpreter.BrokenCode,
			Cause:     broken,
		}, nil
	case errors.As(err, &fault):
		return &interpreter.ExceptionThrown{Exception: fault.Value(), Kind: interpreter.FromEvaluator, Cause: fault}, nil
	}
	return nil, err
}

// call runs m with an interpreted body nested in this session, or through
// the bridge when m is native. recv is NotAValue for static methods; special
// marks an invokespecial call.
func (s *session) call(m *bytecode.Method, recv interpreter.Value, args []interpreter.Value, special bool) (interpreter.Value, error) {
	if len(m.Instructions) == 0 {
		return s.callNative(m, recv, args, special)
	}

	all := args
	if !m.IsStatic() {
		all = append([]interpreter.Value{recv}, args...)
	}
	f, err := interpreter.NewFrameFor(m, all...)
	if err != nil {
		return interpreter.NotAValue, interpreter.WrapFault(interpreter.IllegalArgumentException, err)
	}

	r, err := s.stub(m, f)
	if err != nil {
		return interpreter.NotAValue, err
	}
	switch r := r.(type) {
	case *interpreter.ValueReturned:
		return r.Value, nil
	case *interpreter.ExceptionThrown:
		return interpreter.NotAValue, propagate(r)
	}
	return interpreter.NotAValue, fmt.Errorf("hosteval: unexpected result %s", r)
}

// propagate rethrows an exception that left a nested run so that the caller's
// run classifies it the same way.
func propagate(et *interpreter.ExceptionThrown) error {
	if et.Kind != interpreter.FromEvaluatedCode {
		if et.Cause != nil {
			return et.Cause
		}
		if f, ok := et.Exception.Obj().(*interpreter.Fault); ok {
			return f
		}
	}
	return interpreter.Throw(et.Exception)
}

// callNative runs the native body of m. An invokespecial call goes through
// the bridge entry point of its return sort; every other call looks the
// body up directly.
func (s *session) callNative(m *bytecode.Method, recv interpreter.Value, args []interpreter.Value, special bool) (interpreter.Value, error) {
	params := m.Type().ArgumentTypes()
	if len(args) != len(params) {
		return interpreter.NotAValue, interpreter.NewFault(interpreter.IllegalArgumentException,
			"%s takes %d arguments, got %d", m.FullName(), len(params), len(args))
	}
	boxed := make([]any, len(args))
	for i, a := range args {
		boxed[i] = a.BoxAs(params[i])
	}
	unbox := jni.UnboxingFlags(params)

	var receiver any
	if recv.Kind == interpreter.KindObject {
		receiver = recv.Ref()
	}

	b := s.rt.bridge
	ret := m.ReturnType()
	var (
		obj any
		err error
	)
	if !special {
		obj, err = b.Call(receiver, m.Owner, m.Name, m.Desc, boxed)
		if err != nil {
			return interpreter.NotAValue, bridgeError(err)
		}
		return nativeResult(obj, ret)
	}
	switch ret.Sort() {
	case bytecode.SortVoid:
		err = b.InvokeSpecial(receiver, m.Owner, m.Name, m.Desc, boxed, unbox)
	case bytecode.SortBoolean:
		obj, err = b.InvokeSpecialZ(receiver, m.Owner, m.Name, m.Desc, boxed, unbox)
	case bytecode.SortByte:
		obj, err = b.InvokeSpecialB(receiver, m.Owner, m.Name, m.Desc, boxed, unbox)
	case bytecode.SortChar:
		obj, err = b.InvokeSpecialC(receiver, m.Owner, m.Name, m.Desc, boxed, unbox)
	case bytecode.SortShort:
		obj, err = b.InvokeSpecialS(receiver, m.Owner, m.Name, m.Desc, boxed, unbox)
	case bytecode.SortInt:
		obj, err = b.InvokeSpecialI(receiver, m.Owner, m.Name, m.Desc, boxed, unbox)
	case bytecode.SortLong:
		obj, err = b.InvokeSpecialJ(receiver, m.Owner, m.Name, m.Desc, boxed, unbox)
	case bytecode.SortFloat:
		obj, err = b.InvokeSpecialF(receiver, m.Owner, m.Name, m.Desc, boxed, unbox)
	case bytecode.SortDouble:
		obj, err = b.InvokeSpecialD(receiver, m.Owner, m.Name, m.Desc, boxed, unbox)
	case bytecode.SortObject, bytecode.SortArray:
		obj, err = b.InvokeSpecialL(receiver, m.Owner, m.Name, m.Desc, boxed, unbox)
	default:
		return interpreter.NotAValue, interpreter.NewFault(interpreter.IllegalStateException,
			"invokespecial error: missing case for return type %s", ret)
	}
	if err != nil {
		return interpreter.NotAValue, bridgeError(err)
	}
	return nativeResult(obj, ret)
}

func nativeResult(obj any, ret bytecode.Type) (interpreter.Value, error) {
	v, err := interpreter.MakeValue(obj, ret)
	if err != nil {
		return interpreter.NotAValue, interpreter.WrapFault(interpreter.IllegalStateException, err)
	}
	return v, nil
}

// bridgeError maps bridge failures to host faults; errors raised by the
// native body itself pass through.
func bridgeError(err error) error {
	var (
		ue *jni.UnboxingError
		re *jni.ReturnError
	)
	switch {
	case errors.Is(err, jni.ErrNoSuchMethod):
		return interpreter.WrapFault(interpreter.LinkageError, err)
	case errors.Is(err, jni.ErrArgumentCount), errors.Is(err, jni.ErrReturnSort),
		errors.As(err, &ue), errors.As(err, &re):
		return interpreter.WrapFault(interpreter.IllegalStateException, err)
	}
	return err
}

// initialize runs static initializers, superclass first, on first active use.
// A class whose initializer failed stays unusable.
func (s *session) initialize(c *Class) error {
	switch c.state {
	case initialized, initializing:
		return nil
	case erroneous:
		return interpreter.NewFault(interpreter.NoClassDefFoundError, "Could not initialize class %s", c.JavaName())
	}

	c.state = initializing
	if c.Super != nil {
		if err := s.initialize(c.Super); err != nil {
			c.state = erroneous
			return err
		}
	}
	if m := c.Def.Method("<clinit>", "()V"); m != nil {
		s.rt.logger.Debug("hosteval: initializing", "class", c.Name())
		if _, err := s.call(m, interpreter.NotAValue, nil, false); err != nil {
			c.state = erroneous
			return err
		}
	}
	c.state = initialized
	return nil
}

func (s *session) LoadClass(t bytecode.Type) (interpreter.Value, error) {
	c, err := s.rt.lookup(t.InternalName())
	if err != nil {
		return interpreter.NotAValue, err
	}
	return interpreter.ObjectValue(c, bytecode.ClassType), nil
}

func (s *session) LoadString(str string) (interpreter.Value, error) {
	return interpreter.ObjectValue(str, bytecode.StringType), nil
}

func (s *session) NewInstance(t bytecode.Type) (interpreter.Value, error) {
	c, err := s.rt.lookup(t.InternalName())
	if err != nil {
		return interpreter.NotAValue, err
	}
	switch {
	case c.IsInterface(), c.Def.Access.Is(bytecode.AccAbstract), c.IsArray():
		return interpreter.NotAValue, interpreter.NewFault(interpreter.IncompatibleClassChangeError,
			"cannot instantiate %s", c.JavaName())
	case c.Name() == "java/lang/String" || c.Name() == "java/lang/Class":
		return interpreter.NotAValue, interpreter.NewFault(interpreter.UnsupportedOperationException,
			"new %s", c.JavaName())
	}
	if err := s.initialize(c); err != nil {
		return interpreter.NotAValue, err
	}
	return interpreter.ObjectValue(newObject(c), t), nil
}

func (s *session) NewArray(t bytecode.Type, length int32) (interpreter.Value, error) {
	if length < 0 {
		return interpreter.NotAValue, interpreter.NewFault(interpreter.NegativeArraySizeException, "%d", length)
	}
	return interpreter.ObjectValue(newArray(t, int(length)), t), nil
}

func (s *session) NewMultiDimensionalArray(t bytecode.Type, dims []int32) (interpreter.Value, error) {
	if len(dims) == 0 || len(dims) > t.Dimensions() {
		return interpreter.NotAValue, interpreter.NewFault(interpreter.IllegalArgumentException,
			"%d dimensions for %s", len(dims), t.ClassName())
	}
	for _, d := range dims {
		if d < 0 {
			return interpreter.NotAValue, interpreter.NewFault(interpreter.NegativeArraySizeException, "%d", d)
		}
	}
	return interpreter.ObjectValue(multiArray(t, dims), t), nil
}

func multiArray(t bytecode.Type, dims []int32) *Array {
	a := newArray(t, int(dims[0]))
	if len(dims) > 1 {
		ct := t.ComponentType()
		for i := range a.Elems {
			a.Elems[i] = interpreter.ObjectValue(multiArray(ct, dims[1:]), ct)
		}
	}
	return a
}

func (s *session) array(v interpreter.Value) (*Array, error) {
	if v.IsNull() {
		return nil, interpreter.NewFault(interpreter.NullPointerException, "Cannot load from array because it is null")
	}
	a, ok := v.Ref().(*Array)
	if !ok {
		return nil, &interpreter.BrokenCodeError{Index: -1, Err: fmt.Errorf("%s is not an array", v)}
	}
	return a, nil
}

func (s *session) index(a *Array, i interpreter.Value) (int, error) {
	idx := i.Int()
	if idx < 0 || int(idx) >= len(a.Elems) {
		return 0, interpreter.NewFault(interpreter.ArrayIndexOutOfBoundsException,
			"Index %d out of bounds for length %d", idx, len(a.Elems))
	}
	return int(idx), nil
}

func (s *session) GetArrayLength(array interpreter.Value) (interpreter.Value, error) {
	a, err := s.array(array)
	if err != nil {
		return interpreter.NotAValue, err
	}
	return interpreter.IntValue(int32(len(a.Elems))), nil
}

func (s *session) GetArrayElement(array, index interpreter.Value) (interpreter.Value, error) {
	a, err := s.array(array)
	if err != nil {
		return interpreter.NotAValue, err
	}
	i, err := s.index(a, index)
	if err != nil {
		return interpreter.NotAValue, err
	}
	return a.Elems[i], nil
}

func (s *session) SetArrayElement(array, index, value interpreter.Value) error {
	a, err := s.array(array)
	if err != nil {
		return err
	}
	i, err := s.index(a, index)
	if err != nil {
		return err
	}
	ct := a.Type.ComponentType()
	if ct.IsReference() && !value.IsNull() {
		ok, err := s.IsInstanceOf(value, ct)
		if err != nil {
			return err
		}
		if !ok {
			vt, _ := s.rt.typeOf(value.Ref())
			return interpreter.NewFault(interpreter.ArrayStoreException, "%s", vt.ClassName())
		}
	}
	a.Elems[i] = coerce(value, ct)
	return nil
}

// field resolves a field reference to its declaring class.
func (s *session) field(d interpreter.FieldDescription, static bool) (*Class, *bytecode.Field, error) {
	c, err := s.rt.lookup(d.Owner)
	if err != nil {
		return nil, nil, err
	}
	decl, f := c.findField(d.Name, static)
	if f == nil {
		return nil, nil, interpreter.NewFault(interpreter.NoSuchFieldError, "%s", d.Name)
	}
	if f.Desc != d.Desc {
		return nil, nil, interpreter.NewFault(interpreter.NoSuchFieldError, "%s: %s is declared %s", d.Name, d.Desc, f.Desc)
	}
	return decl, f, nil
}

func (s *session) instanceField(owner interpreter.Value, d interpreter.FieldDescription, verb string) (*Object, string, bytecode.Type, error) {
	if owner.IsNull() {
		return nil, "", bytecode.Type{}, interpreter.NewFault(interpreter.NullPointerException,
			"Cannot %s field %q because value is null", verb, d.Name)
	}
	decl, f, err := s.field(d, false)
	if err != nil {
		return nil, "", bytecode.Type{}, err
	}
	o, ok := owner.Ref().(*Object)
	if !ok || !o.Class.IsSubclassOf(decl) {
		return nil, "", bytecode.Type{}, interpreter.NewFault(interpreter.IncompatibleClassChangeError,
			"%s has no field %s", owner, d)
	}
	return o, fieldKey(decl.Name(), f.Name), bytecode.TypeOf(f.Desc), nil
}

func (s *session) GetField(owner interpreter.Value, d interpreter.FieldDescription) (interpreter.Value, error) {
	o, key, t, err := s.instanceField(owner, d, "read")
	if err != nil {
		return interpreter.NotAValue, err
	}
	v, ok := o.fields[key]
	if !ok {
		// field added by a redefinition after o was created
		v = zeroValue(t)
	}
	return coerce(v, t), nil
}

func (s *session) SetField(owner interpreter.Value, d interpreter.FieldDescription, value interpreter.Value) error {
	o, key, t, err := s.instanceField(owner, d, "assign")
	if err != nil {
		return err
	}
	o.fields[key] = coerce(value, t)
	return nil
}

func (s *session) staticField(d interpreter.FieldDescription) (*Class, error) {
	decl, _, err := s.field(d, true)
	if err != nil {
		return nil, err
	}
	if err := s.initialize(decl); err != nil {
		return nil, err
	}
	return decl, nil
}

func (s *session) GetStaticField(d interpreter.FieldDescription) (interpreter.Value, error) {
	c, err := s.staticField(d)
	if err != nil {
		return interpreter.NotAValue, err
	}
	return c.statics[d.Name], nil
}

func (s *session) SetStaticField(d interpreter.FieldDescription, value interpreter.Value) error {
	c, err := s.staticField(d)
	if err != nil {
		return err
	}
	c.statics[d.Name] = coerce(value, d.Type())
	return nil
}

func noSuchMethod(d interpreter.MethodDescription) error {
	return interpreter.NewFault(interpreter.NoSuchMethodError, "%s.%s%s",
		strings.ReplaceAll(d.Owner, "/", "."), d.Name, d.Desc)
}

func (s *session) InvokeMethod(target interpreter.Value, d interpreter.MethodDescription, args []interpreter.Value, isInvokeSpecial bool) (interpreter.Value, error) {
	if target.IsNull() {
		return interpreter.NotAValue, interpreter.NewFault(interpreter.NullPointerException,
			"Cannot invoke \"%s.%s()\" because value is null", strings.ReplaceAll(d.Owner, "/", "."), d.Name)
	}
	rc, err := s.rt.classOf(target.Ref())
	if err != nil {
		return interpreter.NotAValue, err
	}

	if isInvokeSpecial {
		c, err := s.rt.lookup(d.Owner)
		if err != nil {
			return interpreter.NotAValue, err
		}
		var m *bytecode.Method
		if d.Name == "<init>" {
			m = c.Def.Method(d.Name, d.Desc)
		} else {
			m = c.findMethod(d.Name, d.Desc)
		}
		if m == nil {
			return interpreter.NotAValue, noSuchMethod(d)
		}
		if !rc.IsSubclassOf(c) {
			return interpreter.NotAValue, interpreter.NewFault(interpreter.IllegalStateException,
				"Cannot invokespecial '%s' on a '%s'", d, rc.JavaName())
		}
		return s.call(m, target, args, true)
	}

	m := rc.findMethod(d.Name, d.Desc)
	switch {
	case m == nil:
		return interpreter.NotAValue, noSuchMethod(d)
	case m.IsStatic():
		return interpreter.NotAValue, interpreter.NewFault(interpreter.IncompatibleClassChangeError,
			"expected non-static method %s", m.FullName())
	case m.Access.Is(bytecode.AccAbstract):
		return interpreter.NotAValue, interpreter.NewFault(interpreter.IncompatibleClassChangeError,
			"abstract method %s in %s", m.FullName(), rc.JavaName())
	}
	return s.call(m, target, args, false)
}

func (s *session) InvokeStaticMethod(d interpreter.MethodDescription, args []interpreter.Value) (interpreter.Value, error) {
	c, err := s.rt.lookup(d.Owner)
	if err != nil {
		return interpreter.NotAValue, err
	}
	m := c.findMethod(d.Name, d.Desc)
	if m == nil {
		return interpreter.NotAValue, noSuchMethod(d)
	}
	if !m.IsStatic() {
		return interpreter.NotAValue, interpreter.NewFault(interpreter.IncompatibleClassChangeError,
			"expected static method %s", m.FullName())
	}
	decl, err := s.rt.lookup(m.Owner)
	if err != nil {
		return interpreter.NotAValue, err
	}
	if err := s.initialize(decl); err != nil {
		return interpreter.NotAValue, err
	}
	return s.call(m, interpreter.NotAValue, args, false)
}

func (s *session) IsInstanceOf(v interpreter.Value, t bytecode.Type) (bool, error) {
	if v.IsNull() {
		return false, nil
	}
	from, err := s.rt.typeOf(v.Ref())
	if err != nil {
		return false, err
	}
	return s.rt.assignable(from, t)
}

// typeOf is the runtime type of a reference.
func (r *Runtime) typeOf(ref any) (bytecode.Type, error) {
	switch x := ref.(type) {
	case string:
		return bytecode.StringType, nil
	case *Object:
		return x.Class.Type(), nil
	case *Array:
		return x.Type, nil
	case *Class:
		return bytecode.ClassType, nil
	case *interpreter.Fault:
		return x.Type(), nil
	}
	return bytecode.Type{}, &interpreter.BrokenCodeError{Index: -1, Err: fmt.Errorf("%T is not a guest reference", ref)}
}

func (r *Runtime) classOf(ref any) (*Class, error) {
	t, err := r.typeOf(ref)
	if err != nil {
		return nil, err
	}
	return r.lookup(t.InternalName())
}

// lookup resolves a class or array type by internal name.
func (r *Runtime) lookup(name string) (*Class, error) {
	if strings.HasPrefix(name, "[") {
		return r.arrayClass(bytecode.TypeOf(name)), nil
	}
	if c, ok := r.Class(name); ok {
		return c, nil
	}
	return nil, interpreter.NewFault(interpreter.NoClassDefFoundError, "%s", name)
}

// assignable reports whether a reference of runtime type from can be stored
// in a slot of type to.
func (r *Runtime) assignable(from, to bytecode.Type) (bool, error) {
	if from == to {
		return true, nil
	}
	if to.Sort() == bytecode.SortArray {
		if from.Sort() != bytecode.SortArray {
			return false, nil
		}
		fc, tc := from.ComponentType(), to.ComponentType()
		if fc.IsReference() && tc.IsReference() {
			return r.assignable(fc, tc)
		}
		return false, nil
	}

	fc, err := r.lookup(from.InternalName())
	if err != nil {
		return false, err
	}
	tc, err := r.lookup(to.InternalName())
	if err != nil {
		return false, err
	}
	return fc.IsSubclassOf(tc), nil
}
