package bytecode

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// Access flags shared by classes, fields and methods.
type Access uint16

const (
	AccPublic    Access = 0x0001
	AccPrivate   Access = 0x0002
	AccProtected Access = 0x0004
	AccStatic    Access = 0x0008
	AccFinal     Access = 0x0010
	AccSuper     Access = 0x0020
	AccNative    Access = 0x0100
	AccInterface Access = 0x0200
	AccAbstract  Access = 0x0400
)

var accessNames = []struct {
	flag Access
	name string
}{
	{AccPublic, "public"}, {AccPrivate, "private"}, {AccProtected, "protected"},
	{AccStatic, "static"}, {AccFinal, "final"}, {AccSuper, "super"},
	{AccNative, "native"}, {AccInterface, "interface"}, {AccAbstract, "abstract"},
}

// LookupAccess resolves a modifier keyword.
func LookupAccess(name string) (Access, bool) {
	for _, a := range accessNames {
		if a.name == name {
			return a.flag, true
		}
	}
	return 0, false
}

// Is reports whether all flags in f are set
func (a Access) Is(f Access) bool {
	return a&f == f
}

func (a Access) String() string {
	var parts []string
	for _, n := range accessNames {
		if a&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " ")
}

// TryCatchBlock covers [Start, End) and transfers to Handler. An empty Type
// catches everything.
type TryCatchBlock struct {
	Start   *Label
	End     *Label
	Handler *Label
	Type    string
}

var (
	ErrNotLinked    = errors.New("method is not linked")
	ErrNoCode       = errors.New("method has no instructions")
	ErrUnboundLabel = errors.New("label is not placed in the instruction list")
)

// LinkError reports a malformed instruction found while linking.
type LinkError struct {
	Method string
	Index  int
	Err    error
}

func (e *LinkError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("link %s: %v", e.Method, e.Err)
	}
	return fmt.Sprintf("link %s at %d: %v", e.Method, e.Index, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

// Method is one method body in tree form.
type Method struct {
	Owner  string // declaring class internal name
	Name   string
	Desc   string
	Source string
	Access Access

	MaxLocals int
	MaxStack  int

	Instructions   []*Instruction
	TryCatchBlocks []TryCatchBlock

	linkMu sync.Mutex
	linked atomic.Bool
}

// IsStatic reports whether the method has no receiver
func (m *Method) IsStatic() bool {
	return m.Access.Is(AccStatic)
}

// Type returns the method descriptor as a Type
func (m *Method) Type() Type {
	return TypeOf(m.Desc)
}

// ReturnType is the declared return type
func (m *Method) ReturnType() Type {
	return m.Type().ReturnType()
}

// Linked reports whether Link succeeded
func (m *Method) Linked() bool {
	return m.linked.Load()
}

// FullName renders Owner.Name+Desc
func (m *Method) FullName() string {
	return m.Owner + "." + m.Name + m.Desc
}

// IndexOf returns the instruction index a label resolves to.
func (m *Method) IndexOf(l *Label) (int, error) {
	if !m.linked.Load() {
		return -1, ErrNotLinked
	}
	if l == nil || l.Index < 0 || l.Index >= len(m.Instructions) {
		return -1, fmt.Errorf("%w: %s", ErrUnboundLabel, l)
	}
	return l.Index, nil
}

// Link resolves every label to its instruction index, folds short opcode forms
// into their canonical opcode and checks that each instruction carries the
// operands its format needs. It runs once; later calls are no-ops. Link is
// safe to call from several goroutines, and a failed link may be retried.
func (m *Method) Link() error {
	if m.linked.Load() {
		return nil
	}
	m.linkMu.Lock()
	defer m.linkMu.Unlock()
	if m.linked.Load() {
		return nil
	}
	return m.link()
}

func (m *Method) link() error {
	name := m.FullName()
	if err := m.Type().Validate(); err != nil {
		return &LinkError{name, -1, err}
	}
	if len(m.Instructions) == 0 {
		if m.Access.Is(AccNative) || m.Access.Is(AccAbstract) {
			m.linked.Store(true)
			return nil
		}
		return &LinkError{name, -1, ErrNoCode}
	}

	placed := make(map[*Label]bool)
	for i, in := range m.Instructions {
		if in == nil {
			return &LinkError{name, i, errors.New("nil instruction")}
		}
		if in.Kind == KindLabel {
			if in.Label == nil {
				return &LinkError{name, i, errors.New("label node without label")}
			}
			if placed[in.Label] {
				return &LinkError{name, i, fmt.Errorf("label %s placed twice", in.Label)}
			}
			placed[in.Label] = true
			in.Label.Index = i
		}
	}

	for i, in := range m.Instructions {
		if in.Kind != KindInsn {
			continue
		}
		if err := normalize(in); err != nil {
			return &LinkError{name, i, err}
		}
		if in.Op.Format() == FormatJump && !placed[in.Target] {
			return &LinkError{name, i, fmt.Errorf("%w: %s", ErrUnboundLabel, in.Target)}
		}
	}

	for _, tc := range m.TryCatchBlocks {
		for _, l := range []*Label{tc.Start, tc.End, tc.Handler} {
			if !placed[l] {
				return &LinkError{name, -1, fmt.Errorf("try/catch %w: %s", ErrUnboundLabel, l)}
			}
		}
		if tc.Start.Index > tc.End.Index {
			return &LinkError{name, -1, fmt.Errorf("try/catch range %s..%s is reversed", tc.Start, tc.End)}
		}
	}

	m.linked.Store(true)
	return nil
}

// normalize folds alias opcodes and validates operands for the format.
func normalize(in *Instruction) error {
	if !in.Op.Valid() {
		return fmt.Errorf("invalid opcode %s", in.Op)
	}
	if in.Op.Format() == FormatAlias {
		if in.Op == WIDE {
			return errors.New("wide must be expanded into the instruction it prefixes")
		}
		op, slot := in.Op.Canonical()
		in.Op = op
		if slot >= 0 {
			in.Var = slot
		}
	}

	switch in.Op.Format() {
	case FormatInt:
		switch in.Op {
		case BIPUSH:
			if in.Operand < -128 || in.Operand > 127 {
				return fmt.Errorf("bipush operand %d out of range", in.Operand)
			}
		case SIPUSH:
			if in.Operand < -32768 || in.Operand > 32767 {
				return fmt.Errorf("sipush operand %d out of range", in.Operand)
			}
		case NEWARRAY:
			if _, ok := ArrayTypeDescriptor(in.Operand); !ok {
				return fmt.Errorf("newarray type code %d", in.Operand)
			}
		}
	case FormatVar, FormatIinc:
		if in.Var < 0 {
			return fmt.Errorf("negative local index %d", in.Var)
		}
	case FormatJump:
		if in.Target == nil {
			return fmt.Errorf("%s without target", in.Op)
		}
	case FormatLdc:
		switch in.Const.(type) {
		case int32, float32, int64, float64, string, Type, Handle:
		default:
			return fmt.Errorf("ldc constant of type %T", in.Const)
		}
	case FormatType:
		if in.Owner == "" {
			return fmt.Errorf("%s without type operand", in.Op)
		}
	case FormatField:
		if in.Owner == "" || in.Name == "" {
			return fmt.Errorf("%s without owner or name", in.Op)
		}
		if err := TypeOf(in.Desc).Validate(); err != nil {
			return err
		}
	case FormatMethod:
		if in.Owner == "" || in.Name == "" {
			return fmt.Errorf("%s without owner or name", in.Op)
		}
		if TypeOf(in.Desc).Sort() != SortMethod {
			return fmt.Errorf("%s with non-method descriptor %q", in.Op, in.Desc)
		}
		if err := TypeOf(in.Desc).Validate(); err != nil {
			return err
		}
	case FormatMultiArray:
		t := ObjectType(in.Owner)
		if in.Dims < 1 || t.Dimensions() < in.Dims {
			return fmt.Errorf("multianewarray %s with %d dimensions", in.Owner, in.Dims)
		}
	}
	return nil
}

// Field is a field declaration. Value is the ConstantValue initialiser of a
// static field, if any.
type Field struct {
	Name   string
	Desc   string
	Access Access
	Value  any
}

// IsStatic reports whether the field belongs to the class
func (f *Field) IsStatic() bool {
	return f.Access.Is(AccStatic)
}

// Class groups fields and methods under an internal name.
type Class struct {
	Name       string
	Super      string
	Interfaces []string
	Source     string
	Access     Access
	Fields     []*Field
	Methods    []*Method
}

// Method finds a declared method by name and descriptor.
func (c *Class) Method(name, desc string) *Method {
	for _, m := range c.Methods {
		if m.Name == name && m.Desc == desc {
			return m
		}
	}
	return nil
}

// Field finds a declared field by name.
func (c *Class) Field(name string) *Field {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Link links every method of the class.
func (c *Class) Link() error {
	for _, m := range c.Methods {
		if m.Owner == "" {
			m.Owner = c.Name
		}
		if m.Source == "" {
			m.Source = c.Source
		}
		if err := m.Link(); err != nil {
			return err
		}
	}
	return nil
}
