package hosteval

import (
	"strings"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/interpreter"
)

type initState int

const (
	uninitialized initState = iota
	initializing
	initialized
	erroneous
)

// Class is a loaded class: its definition plus the runtime state that
// survives redefinition (static fields and initialization state).
type Class struct {
	Def        *bytecode.Class
	Super      *Class
	Interfaces []*Class

	statics map[string]interpreter.Value
	state   initState
}

// Name is the internal name
func (c *Class) Name() string { return c.Def.Name }

// Type is the reference type of instances.
func (c *Class) Type() bytecode.Type { return bytecode.ObjectType(c.Def.Name) }

func (c *Class) IsInterface() bool { return c.Def.Access.Is(bytecode.AccInterface) }

func (c *Class) IsArray() bool { return strings.HasPrefix(c.Def.Name, "[") }

// JavaName is the name Class.getName reports.
func (c *Class) JavaName() string {
	return strings.ReplaceAll(c.Def.Name, "/", ".")
}

func (c *Class) String() string { return c.JavaName() }

// IsSubclassOf reports whether c is o, extends it or implements it.
func (c *Class) IsSubclassOf(o *Class) bool {
	if c == nil || o == nil {
		return false
	}
	if c == o || c.Def.Name == o.Def.Name {
		return true
	}
	if c.Super != nil && c.Super.IsSubclassOf(o) {
		return true
	}
	for _, i := range c.Interfaces {
		if i.IsSubclassOf(o) {
			return true
		}
	}
	return false
}

// findMethod resolves name+desc in c, its superclasses and then its
// interfaces, returning the declaring method.
func (c *Class) findMethod(name, desc string) *bytecode.Method {
	for k := c; k != nil; k = k.Super {
		if m := k.Def.Method(name, desc); m != nil {
			return m
		}
	}
	return c.findInterfaceMethod(name, desc)
}

// findInterfaceMethod prefers a default method over an abstract one.
func (c *Class) findInterfaceMethod(name, desc string) *bytecode.Method {
	var abstract *bytecode.Method
	for k := c; k != nil; k = k.Super {
		for _, i := range k.Interfaces {
			if m := i.Def.Method(name, desc); m != nil {
				if !m.Access.Is(bytecode.AccAbstract) {
					return m
				}
				abstract = m
			}
			if m := i.findInterfaceMethod(name, desc); m != nil {
				if !m.Access.Is(bytecode.AccAbstract) {
					return m
				}
				abstract = m
			}
		}
	}
	return abstract
}

// findField resolves a field by name, returning its declaring class.
func (c *Class) findField(name string, static bool) (*Class, *bytecode.Field) {
	for k := c; k != nil; k = k.Super {
		if f := k.Def.Field(name); f != nil && f.IsStatic() == static {
			return k, f
		}
		if static {
			for _, i := range k.Interfaces {
				if owner, f := i.findField(name, true); f != nil {
					return owner, f
				}
			}
		}
	}
	return nil, nil
}

// prepare sets every static field to its constant initialiser or default.
func (c *Class) prepare() {
	if c.statics == nil {
		c.statics = make(map[string]interpreter.Value)
	}
	for _, f := range c.Def.Fields {
		if !f.IsStatic() {
			continue
		}
		if _, ok := c.statics[f.Name]; ok {
			continue
		}
		t := bytecode.TypeOf(f.Desc)
		if f.Value != nil {
			if v, err := constantValue(f.Value, t); err == nil {
				c.statics[f.Name] = v
				continue
			}
		}
		c.statics[f.Name] = zeroValue(t)
	}
}

// constantValue converts a ConstantValue initialiser.
func constantValue(cst any, t bytecode.Type) (interpreter.Value, error) {
	if s, ok := cst.(string); ok {
		return interpreter.ObjectValue(s, bytecode.StringType), nil
	}
	return interpreter.MakeValue(cst, t)
}

// zeroValue is the default value of a field or array element of type t.
func zeroValue(t bytecode.Type) interpreter.Value {
	switch t.Sort() {
	case bytecode.SortBoolean, bytecode.SortByte, bytecode.SortChar, bytecode.SortShort, bytecode.SortInt:
		return interpreter.IntValueOf(0, t)
	case bytecode.SortLong:
		return interpreter.LongValue(0)
	case bytecode.SortFloat:
		return interpreter.FloatValue(0)
	case bytecode.SortDouble:
		return interpreter.DoubleValue(0)
	}
	return interpreter.ObjectValue(nil, t)
}

// coerce stores v into a slot declared as t: int-family values narrow,
// references take the declared type.
func coerce(v interpreter.Value, t bytecode.Type) interpreter.Value {
	switch {
	case t.IsIntLike() && v.Kind == interpreter.KindInt,
		t.IsReference() && v.Kind == interpreter.KindObject:
		return interpreter.ComputeReturn(v, t)
	}
	return v
}
