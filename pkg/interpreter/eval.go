package interpreter

import "liveedit/pkg/bytecode"

// FieldDescription names a field the way the instruction refers to it. The
// interpreter never resolves it; it is handed to the Eval backend as is.
type FieldDescription struct {
	Owner  string // internal name
	Name   string
	Desc   string
	Static bool
}

func (d FieldDescription) IsStatic() bool      { return d.Static }
func (d FieldDescription) Type() bytecode.Type { return bytecode.TypeOf(d.Desc) }

func (d FieldDescription) String() string {
	return d.Owner + "." + d.Name + ":" + d.Desc
}

func fieldDescription(in *bytecode.Instruction) FieldDescription {
	return FieldDescription{
		Owner:  in.Owner,
		Name:   in.Name,
		Desc:   in.Desc,
		Static: in.Op == bytecode.GETSTATIC || in.Op == bytecode.PUTSTATIC,
	}
}

// MethodDescription names a method the way the invoke instruction refers to it.
type MethodDescription struct {
	Owner     string // internal name
	Name      string
	Desc      string
	Static    bool
	Interface bool
}

func (d MethodDescription) IsStatic() bool { return d.Static }

func (d MethodDescription) ArgumentTypes() []bytecode.Type {
	return bytecode.TypeOf(d.Desc).ArgumentTypes()
}

func (d MethodDescription) ReturnType() bytecode.Type {
	return bytecode.TypeOf(d.Desc).ReturnType()
}

func (d MethodDescription) String() string {
	return d.Owner + "." + d.Name + d.Desc
}

func methodDescription(in *bytecode.Instruction) MethodDescription {
	return MethodDescription{
		Owner:     in.Owner,
		Name:      in.Name,
		Desc:      in.Desc,
		Static:    in.Op == bytecode.INVOKESTATIC,
		Interface: in.Interface,
	}
}

// Eval performs every operation that needs the real object model. Errors
// returned by Eval are classified by the interpreter: a *GuestException is an
// exception thrown by guest code, anything else is a backend fault.
type Eval interface {
	LoadClass(t bytecode.Type) (Value, error)
	LoadString(s string) (Value, error)

	NewInstance(t bytecode.Type) (Value, error)
	NewArray(t bytecode.Type, length int32) (Value, error)
	NewMultiDimensionalArray(t bytecode.Type, dimensions []int32) (Value, error)

	GetArrayLength(array Value) (Value, error)
	GetArrayElement(array, index Value) (Value, error)
	SetArrayElement(array, index, value Value) error

	GetField(owner Value, d FieldDescription) (Value, error)
	SetField(owner Value, d FieldDescription, value Value) error
	GetStaticField(d FieldDescription) (Value, error)
	SetStaticField(d FieldDescription, value Value) error

	// InvokeMethod serves invokevirtual, invokeinterface and invokespecial;
	// isInvokeSpecial asks for non-virtual dispatch.
	InvokeMethod(target Value, d MethodDescription, args []Value, isInvokeSpecial bool) (Value, error)
	InvokeStaticMethod(d MethodDescription, args []Value) (Value, error)

	IsInstanceOf(v Value, t bytecode.Type) (bool, error)
}
