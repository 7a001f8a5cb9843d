package hosteval

import (
	"fmt"
	"strings"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/houdini"
	"liveedit/pkg/interpreter"
)

// Object is an instance of a loaded or builtin class. Fields are keyed by
// declaring class and name so that shadowed fields stay apart.
type Object struct {
	Class  *Class
	fields map[string]interpreter.Value

	// builtin state: the text of a StringBuilder, the boxed int of an Integer
	state any
	// stack trace of a throwable, captured at construction
	trace []houdini.Element
}

func fieldKey(owner, name string) string {
	return owner + "." + name
}

func newObject(c *Class) *Object {
	o := &Object{Class: c, fields: make(map[string]interpreter.Value)}
	for k := c; k != nil; k = k.Super {
		for _, f := range k.Def.Fields {
			if !f.IsStatic() {
				o.fields[fieldKey(k.Name(), f.Name)] = zeroValue(bytecode.TypeOf(f.Desc))
			}
		}
	}
	return o
}

// Field returns a field by declaring class and name.
func (o *Object) Field(owner, name string) (interpreter.Value, bool) {
	v, ok := o.fields[fieldKey(owner, name)]
	return v, ok
}

func (o *Object) String() string {
	return o.Class.JavaName()
}

func (o *Object) StackTrace() []houdini.Element     { return o.trace }
func (o *Object) SetStackTrace(t []houdini.Element) { o.trace = t }

// throwable is the builtin state of a java/lang/Throwable instance.
type throwable struct {
	message any // string or nil
	cause   any
}

func (o *Object) throwable() *throwable {
	t, ok := o.state.(*throwable)
	if !ok {
		t = &throwable{}
		o.state = t
	}
	return t
}

// Message returns the detail message of a throwable object.
func (o *Object) Message() string {
	if s, ok := o.throwable().message.(string); ok {
		return s
	}
	return ""
}

// Error lets guest throwables travel as Go errors.
func (o *Object) Error() string {
	if msg := o.Message(); msg != "" {
		return o.Class.JavaName() + ": " + msg
	}
	return o.Class.JavaName()
}

// Array is a guest array. Elements carry the component type.
type Array struct {
	Type  bytecode.Type
	Elems []interpreter.Value
}

func newArray(t bytecode.Type, length int) *Array {
	a := &Array{Type: t, Elems: make([]interpreter.Value, length)}
	zero := zeroValue(t.ComponentType())
	for i := range a.Elems {
		a.Elems[i] = zero
	}
	return a
}

func (a *Array) Len() int { return len(a.Elems) }

func (a *Array) String() string {
	parts := make([]string, len(a.Elems))
	for i, e := range a.Elems {
		parts[i] = fmt.Sprint(e.Obj())
	}
	return a.Type.ClassName() + "{" + strings.Join(parts, ", ") + "}"
}
