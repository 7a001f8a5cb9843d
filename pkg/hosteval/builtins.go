package hosteval

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/houdini"
	"liveedit/pkg/interpreter"
	"liveedit/pkg/jni"
)

const (
	objectClass       = "java/lang/Object"
	stringClass       = "java/lang/String"
	integerClass      = "java/lang/Integer"
	printStreamClass  = "java/io/PrintStream"
	numberFormatClass = "java/lang/NumberFormatException"
	stringIndexClass  = "java/lang/StringIndexOutOfBoundsException"
)

// native is a builtin method body. Static natives get a nil receiver.
type native struct {
	name, desc string
	static     bool
	fn         jni.NativeMethod
}

type builtin struct {
	name, super string
	interfaces  []string
	access      bytecode.Access
	fields      []*bytecode.Field
	methods     []native
}

func (b builtin) class() *bytecode.Class {
	c := &bytecode.Class{
		Name:       b.name,
		Super:      b.super,
		Interfaces: b.interfaces,
		Access:     bytecode.AccPublic | b.access,
		Fields:     b.fields,
	}
	for _, n := range b.methods {
		acc := bytecode.AccPublic | bytecode.AccNative
		if n.static {
			acc |= bytecode.AccStatic
		}
		if n.fn == nil {
			acc = bytecode.AccPublic | bytecode.AccAbstract
		}
		c.Methods = append(c.Methods, &bytecode.Method{Owner: b.name, Name: n.name, Desc: n.desc, Access: acc})
	}
	return c
}

func staticField(name, desc string, value any) *bytecode.Field {
	return &bytecode.Field{Name: name, Desc: desc, Access: bytecode.AccPublic | bytecode.AccStatic | bytecode.AccFinal, Value: value}
}

func (r *Runtime) loadBuiltins() error {
	builtins := []builtin{
		r.objectBuiltin(),
		{name: "java/lang/Cloneable", access: bytecode.AccInterface | bytecode.AccAbstract},
		{name: "java/io/Serializable", access: bytecode.AccInterface | bytecode.AccAbstract},
		{name: "java/lang/CharSequence", access: bytecode.AccInterface | bytecode.AccAbstract, methods: []native{
			{name: "length", desc: "()I"},
			{name: "charAt", desc: "(I)C"},
		}},
		r.stringBuiltin(),
		r.stringBuilderBuiltin(),
		r.classBuiltin(),
		r.integerBuiltin(),
		r.mathBuiltin(),
		r.printStreamBuiltin(),
		r.systemBuiltin(),
	}
	builtins = append(builtins, r.throwableBuiltins()...)

	defs := make([]*bytecode.Class, 0, len(builtins))
	for _, b := range builtins {
		for _, n := range b.methods {
			if n.fn == nil {
				continue
			}
			if err := r.bridge.Register(b.name, n.name, n.desc, n.fn); err != nil {
				return err
			}
		}
		defs = append(defs, b.class())
	}
	if err := r.Load(defs...); err != nil {
		return err
	}

	for _, d := range defs {
		c, _ := r.Class(d.Name)
		c.state = initialized
	}

	system, _ := r.Class("java/lang/System")
	ps, _ := r.Class(printStreamClass)
	out := newObject(ps)
	out.state = r.out
	system.statics["out"] = interpreter.ObjectValue(out, ps.Type())
	return nil
}

// throwNew creates a guest throwable of a builtin class.
func (r *Runtime) throwNew(class, format string, args ...any) error {
	c, ok := r.Class(class)
	if !ok {
		return interpreter.NewFault(class, format, args...)
	}
	o := newObject(c)
	o.throwable().message = fmt.Sprintf(format, args...)
	o.trace = houdini.Capture(1)
	return interpreter.Throw(interpreter.ObjectValue(o, c.Type()))
}

// stringOf renders a reference the way String.valueOf(Object) does, running
// an interpreted toString override if the class has one.
func (r *Runtime) stringOf(ref any) (string, error) {
	switch x := ref.(type) {
	case nil:
		return "null", nil
	case string:
		return x, nil
	}
	t, err := r.typeOf(ref)
	if err != nil {
		return "", err
	}
	s := r.newSession()
	v, err := s.InvokeMethod(interpreter.ObjectValue(ref, t),
		interpreter.MethodDescription{Owner: objectClass, Name: "toString", Desc: "()Ljava/lang/String;"}, nil, false)
	if err != nil {
		return "", err
	}
	str, _ := v.Ref().(string)
	return str, nil
}

func (r *Runtime) className(ref any) string {
	c, err := r.classOf(ref)
	if err != nil {
		return fmt.Sprintf("%T", ref)
	}
	return c.JavaName()
}

func (r *Runtime) objectBuiltin() builtin {
	return builtin{name: objectClass, methods: []native{
		{name: "<init>", desc: "()V", fn: func(any, []any) (any, error) { return nil, nil }},
		{name: "hashCode", desc: "()I", fn: func(recv any, _ []any) (any, error) {
			return r.identityHash(recv), nil
		}},
		{name: "equals", desc: "(Ljava/lang/Object;)Z", fn: func(recv any, args []any) (any, error) {
			return interpreter.SameObject(recv, args[0]), nil
		}},
		{name: "toString", desc: "()Ljava/lang/String;", fn: func(recv any, _ []any) (any, error) {
			return fmt.Sprintf("%s@%x", r.className(recv), uint32(r.identityHash(recv))), nil
		}},
		{name: "getClass", desc: "()Ljava/lang/Class;", fn: func(recv any, _ []any) (any, error) {
			return r.classOf(recv)
		}},
	}}
}

// Java strings are UTF-16; indices count code units.
func utf16Of(s string) []uint16 { return utf16.Encode([]rune(s)) }

func stringOfUnits(u []uint16) string { return string(utf16.Decode(u)) }

func javaHash(s string) int32 {
	var h int32
	for _, c := range utf16Of(s) {
		h = 31*h + int32(c)
	}
	return h
}

// formatDouble follows Double.toString for the common cases.
func formatDouble(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	if a := math.Abs(f); a >= 1e-3 && a < 1e7 {
		s := strconv.FormatFloat(f, 'f', -1, bits)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(f, 'E', -1, bits)
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	exp = strings.TrimPrefix(exp, "+")
	neg := strings.HasPrefix(exp, "-")
	exp = strings.TrimLeft(strings.TrimPrefix(exp, "-"), "0")
	if neg {
		exp = "-" + exp
	}
	return mant + "E" + exp
}

// formatPrimitive renders a boxed primitive the way String.valueOf does.
func formatPrimitive(v any) (string, bool) {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x), true
	case uint16:
		return stringOfUnits([]uint16{x}), true
	case int8:
		return strconv.Itoa(int(x)), true
	case int16:
		return strconv.Itoa(int(x)), true
	case int32:
		return strconv.Itoa(int(x)), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float32:
		return formatDouble(float64(x), 32), true
	case float64:
		return formatDouble(x, 64), true
	}
	return "", false
}

// valueOf renders any boxed argument.
func (r *Runtime) valueOf(v any) (string, error) {
	if s, ok := formatPrimitive(v); ok {
		return s, nil
	}
	return r.stringOf(v)
}

func (r *Runtime) stringBuiltin() builtin {
	units := func(recv any) []uint16 { return utf16Of(recv.(string)) }
	substring := func(s string, begin, end int32) (any, error) {
		u := utf16Of(s)
		if begin < 0 || end > int32(len(u)) || begin > end {
			return nil, r.throwNew(stringIndexClass, "begin %d, end %d, length %d", begin, end, len(u))
		}
		return stringOfUnits(u[begin:end]), nil
	}
	valueOf := func(_ any, args []any) (any, error) { return r.valueOf(args[0]) }

	return builtin{
		name:       stringClass,
		super:      objectClass,
		interfaces: []string{"java/lang/CharSequence", "java/io/Serializable"},
		access:     bytecode.AccFinal,
		methods: []native{
			{name: "length", desc: "()I", fn: func(recv any, _ []any) (any, error) {
				return int32(len(units(recv))), nil
			}},
			{name: "isEmpty", desc: "()Z", fn: func(recv any, _ []any) (any, error) {
				return recv.(string) == "", nil
			}},
			{name: "charAt", desc: "(I)C", fn: func(recv any, args []any) (any, error) {
				u, i := units(recv), args[0].(int32)
				if i < 0 || int(i) >= len(u) {
					return nil, r.throwNew(stringIndexClass, "Index %d out of bounds for length %d", i, len(u))
				}
				return u[i], nil
			}},
			{name: "equals", desc: "(Ljava/lang/Object;)Z", fn: func(recv any, args []any) (any, error) {
				o, ok := args[0].(string)
				return ok && o == recv.(string), nil
			}},
			{name: "hashCode", desc: "()I", fn: func(recv any, _ []any) (any, error) {
				return javaHash(recv.(string)), nil
			}},
			{name: "toString", desc: "()Ljava/lang/String;", fn: func(recv any, _ []any) (any, error) {
				return recv, nil
			}},
			{name: "concat", desc: "(Ljava/lang/String;)Ljava/lang/String;", fn: func(recv any, args []any) (any, error) {
				o, ok := args[0].(string)
				if !ok {
					return nil, interpreter.NewFault(interpreter.NullPointerException, "concat with null")
				}
				return recv.(string) + o, nil
			}},
			{name: "substring", desc: "(I)Ljava/lang/String;", fn: func(recv any, args []any) (any, error) {
				s := recv.(string)
				return substring(s, args[0].(int32), int32(len(utf16Of(s))))
			}},
			{name: "substring", desc: "(II)Ljava/lang/String;", fn: func(recv any, args []any) (any, error) {
				return substring(recv.(string), args[0].(int32), args[1].(int32))
			}},
			{name: "indexOf", desc: "(Ljava/lang/String;)I", fn: func(recv any, args []any) (any, error) {
				o, ok := args[0].(string)
				if !ok {
					return nil, interpreter.NewFault(interpreter.NullPointerException, "indexOf null")
				}
				i := strings.Index(recv.(string), o)
				if i < 0 {
					return int32(-1), nil
				}
				return int32(len(utf16Of(recv.(string)[:i]))), nil
			}},
			{name: "toUpperCase", desc: "()Ljava/lang/String;", fn: func(recv any, _ []any) (any, error) {
				return strings.ToUpper(recv.(string)), nil
			}},
			{name: "toLowerCase", desc: "()Ljava/lang/String;", fn: func(recv any, _ []any) (any, error) {
				return strings.ToLower(recv.(string)), nil
			}},
			{name: "valueOf", desc: "(I)Ljava/lang/String;", static: true, fn: valueOf},
			{name: "valueOf", desc: "(J)Ljava/lang/String;", static: true, fn: valueOf},
			{name: "valueOf", desc: "(Z)Ljava/lang/String;", static: true, fn: valueOf},
			{name: "valueOf", desc: "(C)Ljava/lang/String;", static: true, fn: valueOf},
			{name: "valueOf", desc: "(D)Ljava/lang/String;", static: true, fn: valueOf},
			{name: "valueOf", desc: "(F)Ljava/lang/String;", static: true, fn: valueOf},
			{name: "valueOf", desc: "(Ljava/lang/Object;)Ljava/lang/String;", static: true, fn: valueOf},
		},
	}
}

func (r *Runtime) stringBuilderBuiltin() builtin {
	const name = "java/lang/StringBuilder"
	text := func(recv any) *strings.Builder {
		o := recv.(*Object)
		b, ok := o.state.(*strings.Builder)
		if !ok {
			b = &strings.Builder{}
			o.state = b
		}
		return b
	}
	appendValue := func(recv any, args []any) (any, error) {
		s, err := r.valueOf(args[0])
		if err != nil {
			return nil, err
		}
		text(recv).WriteString(s)
		return recv, nil
	}

	methods := []native{
		{name: "<init>", desc: "()V", fn: func(recv any, _ []any) (any, error) {
			text(recv)
			return nil, nil
		}},
		{name: "<init>", desc: "(Ljava/lang/String;)V", fn: func(recv any, args []any) (any, error) {
			s, ok := args[0].(string)
			if !ok {
				return nil, interpreter.NewFault(interpreter.NullPointerException, "StringBuilder of null")
			}
			text(recv).WriteString(s)
			return nil, nil
		}},
		{name: "toString", desc: "()Ljava/lang/String;", fn: func(recv any, _ []any) (any, error) {
			return text(recv).String(), nil
		}},
		{name: "length", desc: "()I", fn: func(recv any, _ []any) (any, error) {
			return int32(len(utf16Of(text(recv).String()))), nil
		}},
		{name: "charAt", desc: "(I)C", fn: func(recv any, args []any) (any, error) {
			u, i := utf16Of(text(recv).String()), args[0].(int32)
			if i < 0 || int(i) >= len(u) {
				return nil, r.throwNew(stringIndexClass, "index %d,length %d", i, len(u))
			}
			return u[i], nil
		}},
	}
	for _, p := range []string{"Ljava/lang/String;", "Ljava/lang/Object;", "I", "J", "C", "Z", "D", "F"} {
		methods = append(methods, native{name: "append", desc: "(" + p + ")Ljava/lang/StringBuilder;", fn: appendValue})
	}
	return builtin{
		name:       name,
		super:      objectClass,
		interfaces: []string{"java/lang/CharSequence", "java/io/Serializable"},
		access:     bytecode.AccFinal,
		methods:    methods,
	}
}

func (r *Runtime) classBuiltin() builtin {
	return builtin{name: "java/lang/Class", super: objectClass, access: bytecode.AccFinal, methods: []native{
		{name: "getName", desc: "()Ljava/lang/String;", fn: func(recv any, _ []any) (any, error) {
			return recv.(*Class).JavaName(), nil
		}},
		{name: "getSimpleName", desc: "()Ljava/lang/String;", fn: func(recv any, _ []any) (any, error) {
			c := recv.(*Class)
			if c.IsArray() {
				return bytecode.TypeOf(c.Name()).ClassName(), nil
			}
			name := c.Name()
			return name[strings.LastIndexAny(name, "/$")+1:], nil
		}},
		{name: "toString", desc: "()Ljava/lang/String;", fn: func(recv any, _ []any) (any, error) {
			c := recv.(*Class)
			if c.IsInterface() {
				return "interface " + c.JavaName(), nil
			}
			return "class " + c.JavaName(), nil
		}},
		{name: "isInterface", desc: "()Z", fn: func(recv any, _ []any) (any, error) {
			return recv.(*Class).IsInterface(), nil
		}},
		{name: "isArray", desc: "()Z", fn: func(recv any, _ []any) (any, error) {
			return recv.(*Class).IsArray(), nil
		}},
		{name: "isInstance", desc: "(Ljava/lang/Object;)Z", fn: func(recv any, args []any) (any, error) {
			if args[0] == nil {
				return false, nil
			}
			from, err := r.typeOf(args[0])
			if err != nil {
				return nil, err
			}
			return r.assignable(from, recv.(*Class).Type())
		}},
	}}
}

func (r *Runtime) newInteger(i int32) (*Object, error) {
	c, err := r.lookup(integerClass)
	if err != nil {
		return nil, err
	}
	o := newObject(c)
	o.state = i
	return o, nil
}

func (r *Runtime) integerBuiltin() builtin {
	value := func(recv any) int32 {
		i, _ := recv.(*Object).state.(int32)
		return i
	}
	return builtin{
		name:   integerClass,
		super:  objectClass,
		access: bytecode.AccFinal,
		fields: []*bytecode.Field{
			staticField("MAX_VALUE", "I", int32(math.MaxInt32)),
			staticField("MIN_VALUE", "I", int32(math.MinInt32)),
		},
		methods: []native{
			{name: "<init>", desc: "(I)V", fn: func(recv any, args []any) (any, error) {
				recv.(*Object).state = args[0].(int32)
				return nil, nil
			}},
			{name: "valueOf", desc: "(I)Ljava/lang/Integer;", static: true, fn: func(_ any, args []any) (any, error) {
				return r.newInteger(args[0].(int32))
			}},
			{name: "parseInt", desc: "(Ljava/lang/String;)I", static: true, fn: func(_ any, args []any) (any, error) {
				s, _ := args[0].(string)
				i, err := strconv.ParseInt(s, 10, 32)
				if err != nil {
					return nil, r.throwNew(numberFormatClass, "For input string: %q", s)
				}
				return int32(i), nil
			}},
			{name: "toString", desc: "(I)Ljava/lang/String;", static: true, fn: func(_ any, args []any) (any, error) {
				return strconv.Itoa(int(args[0].(int32))), nil
			}},
			{name: "intValue", desc: "()I", fn: func(recv any, _ []any) (any, error) {
				return value(recv), nil
			}},
			{name: "toString", desc: "()Ljava/lang/String;", fn: func(recv any, _ []any) (any, error) {
				return strconv.Itoa(int(value(recv))), nil
			}},
			{name: "hashCode", desc: "()I", fn: func(recv any, _ []any) (any, error) {
				return value(recv), nil
			}},
			{name: "equals", desc: "(Ljava/lang/Object;)Z", fn: func(recv any, args []any) (any, error) {
				o, ok := args[0].(*Object)
				return ok && o.Class.Name() == integerClass && value(o) == value(recv), nil
			}},
		},
	}
}

func (r *Runtime) mathBuiltin() builtin {
	return builtin{
		name:   "java/lang/Math",
		super:  objectClass,
		access: bytecode.AccFinal,
		fields: []*bytecode.Field{
			staticField("PI", "D", math.Pi),
			staticField("E", "D", math.E),
		},
		methods: []native{
			{name: "abs", desc: "(I)I", static: true, fn: func(_ any, a []any) (any, error) {
				if x := a[0].(int32); x < 0 {
					return -x, nil
				}
				return a[0], nil
			}},
			{name: "abs", desc: "(J)J", static: true, fn: func(_ any, a []any) (any, error) {
				if x := a[0].(int64); x < 0 {
					return -x, nil
				}
				return a[0], nil
			}},
			{name: "abs", desc: "(D)D", static: true, fn: func(_ any, a []any) (any, error) {
				return math.Abs(a[0].(float64)), nil
			}},
			{name: "max", desc: "(II)I", static: true, fn: func(_ any, a []any) (any, error) {
				return max(a[0].(int32), a[1].(int32)), nil
			}},
			{name: "max", desc: "(JJ)J", static: true, fn: func(_ any, a []any) (any, error) {
				return max(a[0].(int64), a[1].(int64)), nil
			}},
			{name: "max", desc: "(DD)D", static: true, fn: func(_ any, a []any) (any, error) {
				return math.Max(a[0].(float64), a[1].(float64)), nil
			}},
			{name: "min", desc: "(II)I", static: true, fn: func(_ any, a []any) (any, error) {
				return min(a[0].(int32), a[1].(int32)), nil
			}},
			{name: "min", desc: "(JJ)J", static: true, fn: func(_ any, a []any) (any, error) {
				return min(a[0].(int64), a[1].(int64)), nil
			}},
			{name: "min", desc: "(DD)D", static: true, fn: func(_ any, a []any) (any, error) {
				return math.Min(a[0].(float64), a[1].(float64)), nil
			}},
			{name: "sqrt", desc: "(D)D", static: true, fn: func(_ any, a []any) (any, error) {
				return math.Sqrt(a[0].(float64)), nil
			}},
			{name: "pow", desc: "(DD)D", static: true, fn: func(_ any, a []any) (any, error) {
				return math.Pow(a[0].(float64), a[1].(float64)), nil
			}},
			{name: "floorMod", desc: "(II)I", static: true, fn: func(_ any, a []any) (any, error) {
				x, y := a[0].(int32), a[1].(int32)
				if y == 0 {
					return nil, interpreter.NewFault(interpreter.ArithmeticException, "/ by zero")
				}
				m := x % y
				if m != 0 && (m < 0) != (y < 0) {
					m += y
				}
				return m, nil
			}},
		},
	}
}

func (r *Runtime) printStreamBuiltin() builtin {
	write := func(recv any, s string) error {
		w, ok := recv.(*Object).state.(io.Writer)
		if !ok {
			return interpreter.NewFault(interpreter.IllegalStateException, "print stream is not open")
		}
		_, err := io.WriteString(w, s)
		return err
	}
	printer := func(newline string) jni.NativeMethod {
		return func(recv any, args []any) (any, error) {
			s := ""
			if len(args) > 0 {
				var err error
				if s, err = r.valueOf(args[0]); err != nil {
					return nil, err
				}
			}
			return nil, write(recv, s+newline)
		}
	}

	var methods []native
	for _, p := range []string{"Ljava/lang/String;", "Ljava/lang/Object;", "I", "J", "C", "Z", "D", "F"} {
		methods = append(methods,
			native{name: "println", desc: "(" + p + ")V", fn: printer("\n")},
			native{name: "print", desc: "(" + p + ")V", fn: printer("")})
	}
	methods = append(methods, native{name: "println", desc: "()V", fn: printer("\n")})
	return builtin{name: printStreamClass, super: objectClass, methods: methods}
}

func (r *Runtime) systemBuiltin() builtin {
	return builtin{
		name:   "java/lang/System",
		super:  objectClass,
		access: bytecode.AccFinal,
		fields: []*bytecode.Field{
			{Name: "out", Desc: "Ljava/io/PrintStream;", Access: bytecode.AccPublic | bytecode.AccStatic | bytecode.AccFinal},
		},
		methods: []native{
			{name: "identityHashCode", desc: "(Ljava/lang/Object;)I", static: true, fn: func(_ any, args []any) (any, error) {
				if args[0] == nil {
					return int32(0), nil
				}
				return r.identityHash(args[0]), nil
			}},
			{name: "arraycopy", desc: "(Ljava/lang/Object;ILjava/lang/Object;II)V", static: true, fn: r.arraycopy},
		},
	}
}

func (r *Runtime) arraycopy(_ any, args []any) (any, error) {
	if args[0] == nil || args[2] == nil {
		return nil, interpreter.NewFault(interpreter.NullPointerException, "arraycopy of null")
	}
	src, ok1 := args[0].(*Array)
	dst, ok2 := args[2].(*Array)
	if !ok1 || !ok2 {
		return nil, interpreter.NewFault(interpreter.ArrayStoreException, "arraycopy: argument is not an array")
	}
	sp, dp, n := args[1].(int32), args[3].(int32), args[4].(int32)
	if sp < 0 || dp < 0 || n < 0 || int(sp+n) > len(src.Elems) || int(dp+n) > len(dst.Elems) {
		return nil, interpreter.NewFault(interpreter.ArrayIndexOutOfBoundsException,
			"arraycopy: last source index %d out of bounds for length %d", sp+n, len(src.Elems))
	}
	st, dt := src.Type.ComponentType(), dst.Type.ComponentType()
	if st.IsReference() != dt.IsReference() || (!st.IsReference() && st != dt) {
		return nil, interpreter.NewFault(interpreter.ArrayStoreException,
			"arraycopy: type mismatch: can not copy %s into %s", src.Type.ClassName(), dst.Type.ClassName())
	}
	if dt.IsReference() {
		for _, e := range src.Elems[sp : sp+n] {
			if e.IsNull() {
				continue
			}
			from, err := r.typeOf(e.Ref())
			if err != nil {
				return nil, err
			}
			if ok, err := r.assignable(from, dt); err != nil || !ok {
				return nil, interpreter.NewFault(interpreter.ArrayStoreException,
					"arraycopy: element type mismatch: %s into %s", from.ClassName(), dt.ClassName())
			}
		}
	}
	copy(dst.Elems[dp:dp+n], src.Elems[sp:sp+n])
	return nil, nil
}

// throwableBuiltins builds java/lang/Throwable and the exceptions raised by
// the interpreter and this runtime. Constructors are not inherited, so every
// class gets its own.
func (r *Runtime) throwableBuiltins() []builtin {
	state := func(recv any) *throwable { return recv.(*Object).throwable() }
	capture := func(recv any) { recv.(*Object).trace = houdini.Capture(2) }

	inits := []native{
		{name: "<init>", desc: "()V", fn: func(recv any, _ []any) (any, error) {
			state(recv)
			capture(recv)
			return nil, nil
		}},
		{name: "<init>", desc: "(Ljava/lang/String;)V", fn: func(recv any, args []any) (any, error) {
			state(recv).message = args[0]
			capture(recv)
			return nil, nil
		}},
		{name: "<init>", desc: "(Ljava/lang/String;Ljava/lang/Throwable;)V", fn: func(recv any, args []any) (any, error) {
			t := state(recv)
			t.message, t.cause = args[0], args[1]
			capture(recv)
			return nil, nil
		}},
		{name: "<init>", desc: "(Ljava/lang/Throwable;)V", fn: func(recv any, args []any) (any, error) {
			t := state(recv)
			t.cause = args[0]
			if args[0] != nil {
				s, err := r.stringOf(args[0])
				if err != nil {
					return nil, err
				}
				t.message = s
			}
			capture(recv)
			return nil, nil
		}},
	}

	message := func(recv any) any {
		switch x := recv.(type) {
		case *interpreter.Fault:
			return x.Message
		case *Object:
			return x.throwable().message
		}
		return nil
	}
	methods := append([]native{
		{name: "getMessage", desc: "()Ljava/lang/String;", fn: func(recv any, _ []any) (any, error) {
			return message(recv), nil
		}},
		{name: "getCause", desc: "()Ljava/lang/Throwable;", fn: func(recv any, _ []any) (any, error) {
			switch x := recv.(type) {
			case *interpreter.Fault:
				if f, ok := x.Cause.(*interpreter.Fault); ok {
					return f, nil
				}
				if g, ok := x.Cause.(*interpreter.GuestException); ok {
					return g.Exception.Obj(), nil
				}
			case *Object:
				return x.throwable().cause, nil
			}
			return nil, nil
		}},
		{name: "toString", desc: "()Ljava/lang/String;", fn: func(recv any, _ []any) (any, error) {
			name := r.className(recv)
			if m, ok := message(recv).(string); ok && m != "" {
				return name + ": " + m, nil
			}
			return name, nil
		}},
	}, inits...)

	out := []builtin{{name: interpreter.Throwable, super: objectClass, interfaces: []string{"java/io/Serializable"}, methods: methods}}
	extra := []interpreter.HostThrowable{
		{Name: numberFormatClass, Super: interpreter.IllegalArgumentException},
		{Name: stringIndexClass, Super: interpreter.IndexOutOfBoundsException},
	}
	for _, ht := range append(interpreter.HostThrowables(), extra...) {
		if ht.Name == interpreter.Throwable {
			continue
		}
		out = append(out, builtin{name: ht.Name, super: ht.Super, methods: inits})
	}
	return out
}
