// Package image stores assembled classes as canonical CBOR so that a program
// can be run again without going through the assembler.
package image

import (
	"errors"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"

	"liveedit/pkg/bytecode"
)

const (
	Magic   = "liveedit"
	Version = 1
)

var (
	ErrBadMagic  = errors.New("not a liveedit image")
	ErrVersion   = errors.New("unsupported image version")
	ErrEmpty     = errors.New("image holds no classes")
	ErrBadLabel  = errors.New("label reference out of range")
	ErrBadConst  = errors.New("bad constant")
	ErrBadOpcode = errors.New("bad opcode")
	ErrBadKind   = errors.New("bad instruction kind")
	ErrNilMember = errors.New("nil class member")
)

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

type Image struct {
	Magic   string  `cbor:"1,keyasint"`
	Version int     `cbor:"2,keyasint"`
	Classes []Class `cbor:"3,keyasint"`
}

type Class struct {
	Name       string   `cbor:"1,keyasint"`
	Super      string   `cbor:"2,keyasint,omitempty"`
	Interfaces []string `cbor:"3,keyasint,omitempty"`
	Source     string   `cbor:"4,keyasint,omitempty"`
	Access     uint16   `cbor:"5,keyasint"`
	Fields     []Field  `cbor:"6,keyasint,omitempty"`
	Methods    []Method `cbor:"7,keyasint,omitempty"`
}

type Field struct {
	Name   string    `cbor:"1,keyasint"`
	Desc   string    `cbor:"2,keyasint"`
	Access uint16    `cbor:"3,keyasint"`
	Value  *Constant `cbor:"4,keyasint,omitempty"`
}

// Method keeps labels in a table; instructions and catch blocks refer to
// them by 1-based index so that 0 means none.
type Method struct {
	Name      string   `cbor:"1,keyasint"`
	Desc      string   `cbor:"2,keyasint"`
	Access    uint16   `cbor:"3,keyasint"`
	MaxLocals int      `cbor:"4,keyasint"`
	MaxStack  int      `cbor:"5,keyasint"`
	Labels    []string `cbor:"6,keyasint,omitempty"`
	Code      []Insn   `cbor:"7,keyasint,omitempty"`
	Catches   []Catch  `cbor:"8,keyasint,omitempty"`
}

type Insn struct {
	Kind      uint8     `cbor:"1,keyasint,omitempty"`
	Op        uint8     `cbor:"2,keyasint,omitempty"`
	Operand   int32     `cbor:"3,keyasint,omitempty"`
	Var       int       `cbor:"4,keyasint,omitempty"`
	Incr      int32     `cbor:"5,keyasint,omitempty"`
	Target    int       `cbor:"6,keyasint,omitempty"`
	Label     int       `cbor:"7,keyasint,omitempty"`
	Line      int       `cbor:"8,keyasint,omitempty"`
	Const     *Constant `cbor:"9,keyasint,omitempty"`
	Owner     string    `cbor:"10,keyasint,omitempty"`
	Name      string    `cbor:"11,keyasint,omitempty"`
	Desc      string    `cbor:"12,keyasint,omitempty"`
	Interface bool      `cbor:"13,keyasint,omitempty"`
	Dims      int       `cbor:"14,keyasint,omitempty"`
}

type Catch struct {
	Start   int    `cbor:"1,keyasint"`
	End     int    `cbor:"2,keyasint"`
	Handler int    `cbor:"3,keyasint"`
	Type    string `cbor:"4,keyasint,omitempty"`
}

type ConstTag uint8

const (
	ConstInt ConstTag = iota + 1
	ConstFloat
	ConstLong
	ConstDouble
	ConstString
	ConstType
	ConstHandle
)

// Constant is an ldc operand or a ConstantValue. Floats travel as raw bits.
type Constant struct {
	Tag   ConstTag `cbor:"1,keyasint"`
	Int   int64    `cbor:"2,keyasint,omitempty"`
	Bits  uint64   `cbor:"3,keyasint,omitempty"`
	Str   string   `cbor:"4,keyasint,omitempty"`
	Owner string   `cbor:"5,keyasint,omitempty"`
	Name  string   `cbor:"6,keyasint,omitempty"`
	Desc  string   `cbor:"7,keyasint,omitempty"`
}

// Marshal encodes classes. The encoding is canonical: equal classes give
// equal bytes.
func Marshal(classes ...*bytecode.Class) ([]byte, error) {
	img := Image{Magic: Magic, Version: Version}
	for _, c := range classes {
		ic, err := fromClass(c)
		if err != nil {
			return nil, fmt.Errorf("image: %s: %w", c.Name, err)
		}
		img.Classes = append(img.Classes, ic)
	}
	return encMode.Marshal(&img)
}

// Unmarshal decodes an image into unlinked classes.
func Unmarshal(data []byte) ([]*bytecode.Class, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("image: unmarshal: %w", err)
	}
	if img.Magic != Magic {
		return nil, ErrBadMagic
	}
	if img.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, img.Version)
	}
	if len(img.Classes) == 0 {
		return nil, ErrEmpty
	}

	out := make([]*bytecode.Class, 0, len(img.Classes))
	for _, ic := range img.Classes {
		c, err := ic.toClass()
		if err != nil {
			return nil, fmt.Errorf("image: %s: %w", ic.Name, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func fromClass(c *bytecode.Class) (Class, error) {
	ic := Class{
		Name:       c.Name,
		Super:      c.Super,
		Interfaces: c.Interfaces,
		Source:     c.Source,
		Access:     uint16(c.Access),
	}
	for _, f := range c.Fields {
		if f == nil {
			return ic, ErrNilMember
		}
		fd := Field{Name: f.Name, Desc: f.Desc, Access: uint16(f.Access)}
		if f.Value != nil {
			cst, err := fromConstant(f.Value)
			if err != nil {
				return ic, fmt.Errorf("field %s: %w", f.Name, err)
			}
			fd.Value = cst
		}
		ic.Fields = append(ic.Fields, fd)
	}
	for _, m := range c.Methods {
		if m == nil {
			return ic, ErrNilMember
		}
		im, err := fromMethod(m)
		if err != nil {
			return ic, fmt.Errorf("method %s%s: %w", m.Name, m.Desc, err)
		}
		ic.Methods = append(ic.Methods, im)
	}
	return ic, nil
}

func fromMethod(m *bytecode.Method) (Method, error) {
	im := Method{
		Name:      m.Name,
		Desc:      m.Desc,
		Access:    uint16(m.Access),
		MaxLocals: m.MaxLocals,
		MaxStack:  m.MaxStack,
	}

	ids := make(map[*bytecode.Label]int)
	ref := func(l *bytecode.Label) int {
		if l == nil {
			return 0
		}
		if id, ok := ids[l]; ok {
			return id
		}
		im.Labels = append(im.Labels, l.Name)
		ids[l] = len(im.Labels)
		return ids[l]
	}

	for _, in := range m.Instructions {
		if in == nil {
			return im, ErrNilMember
		}
		ii := Insn{
			Kind:      uint8(in.Kind),
			Op:        uint8(in.Op),
			Operand:   in.Operand,
			Var:       in.Var,
			Incr:      in.Incr,
			Target:    ref(in.Target),
			Label:     ref(in.Label),
			Line:      in.Line,
			Owner:     in.Owner,
			Name:      in.Name,
			Desc:      in.Desc,
			Interface: in.Interface,
			Dims:      in.Dims,
		}
		if in.Const != nil {
			cst, err := fromConstant(in.Const)
			if err != nil {
				return im, err
			}
			ii.Const = cst
		}
		im.Code = append(im.Code, ii)
	}
	for _, tc := range m.TryCatchBlocks {
		im.Catches = append(im.Catches, Catch{Start: ref(tc.Start), End: ref(tc.End), Handler: ref(tc.Handler), Type: tc.Type})
	}
	return im, nil
}

func fromConstant(v any) (*Constant, error) {
	switch c := v.(type) {
	case int32:
		return &Constant{Tag: ConstInt, Int: int64(c)}, nil
	case float32:
		return &Constant{Tag: ConstFloat, Bits: uint64(math.Float32bits(c))}, nil
	case int64:
		return &Constant{Tag: ConstLong, Int: c}, nil
	case float64:
		return &Constant{Tag: ConstDouble, Bits: math.Float64bits(c)}, nil
	case string:
		return &Constant{Tag: ConstString, Str: c}, nil
	case bytecode.Type:
		return &Constant{Tag: ConstType, Str: c.Descriptor()}, nil
	case bytecode.Handle:
		return &Constant{Tag: ConstHandle, Int: int64(c.Tag), Owner: c.Owner, Name: c.Name, Desc: c.Desc}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrBadConst, v)
}

func (c *Constant) value() (any, error) {
	switch c.Tag {
	case ConstInt:
		return int32(c.Int), nil
	case ConstFloat:
		return math.Float32frombits(uint32(c.Bits)), nil
	case ConstLong:
		return c.Int, nil
	case ConstDouble:
		return math.Float64frombits(c.Bits), nil
	case ConstString:
		return c.Str, nil
	case ConstType:
		return bytecode.TypeOf(c.Str), nil
	case ConstHandle:
		return bytecode.Handle{Tag: int(c.Int), Owner: c.Owner, Name: c.Name, Desc: c.Desc}, nil
	}
	return nil, fmt.Errorf("%w: tag %d", ErrBadConst, c.Tag)
}

func (ic Class) toClass() (*bytecode.Class, error) {
	c := &bytecode.Class{
		Name:       ic.Name,
		Super:      ic.Super,
		Interfaces: ic.Interfaces,
		Source:     ic.Source,
		Access:     bytecode.Access(ic.Access),
	}
	for _, f := range ic.Fields {
		fd := &bytecode.Field{Name: f.Name, Desc: f.Desc, Access: bytecode.Access(f.Access)}
		if f.Value != nil {
			v, err := f.Value.value()
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			fd.Value = v
		}
		c.Fields = append(c.Fields, fd)
	}
	for _, im := range ic.Methods {
		m, err := im.toMethod(ic.Name, ic.Source)
		if err != nil {
			return nil, fmt.Errorf("method %s%s: %w", im.Name, im.Desc, err)
		}
		c.Methods = append(c.Methods, m)
	}
	return c, nil
}

func (im Method) toMethod(owner, source string) (*bytecode.Method, error) {
	m := &bytecode.Method{
		Owner:     owner,
		Name:      im.Name,
		Desc:      im.Desc,
		Source:    source,
		Access:    bytecode.Access(im.Access),
		MaxLocals: im.MaxLocals,
		MaxStack:  im.MaxStack,
	}

	labels := make([]*bytecode.Label, len(im.Labels))
	for i, name := range im.Labels {
		labels[i] = &bytecode.Label{Name: name, Index: -1}
	}
	label := func(id int) (*bytecode.Label, error) {
		switch {
		case id == 0:
			return nil, nil
		case id < 0 || id > len(labels):
			return nil, fmt.Errorf("%w: %d", ErrBadLabel, id)
		}
		return labels[id-1], nil
	}

	for i, ii := range im.Code {
		if bytecode.Kind(ii.Kind) > bytecode.KindFrame {
			return nil, fmt.Errorf("%w: %d at %d", ErrBadKind, ii.Kind, i)
		}
		if bytecode.Kind(ii.Kind) == bytecode.KindInsn && !bytecode.Opcode(ii.Op).Valid() {
			return nil, fmt.Errorf("%w: %d at %d", ErrBadOpcode, ii.Op, i)
		}
		in := &bytecode.Instruction{
			Kind:      bytecode.Kind(ii.Kind),
			Op:        bytecode.Opcode(ii.Op),
			Operand:   ii.Operand,
			Var:       ii.Var,
			Incr:      ii.Incr,
			Line:      ii.Line,
			Owner:     ii.Owner,
			Name:      ii.Name,
			Desc:      ii.Desc,
			Interface: ii.Interface,
			Dims:      ii.Dims,
		}
		var err error
		if in.Target, err = label(ii.Target); err != nil {
			return nil, err
		}
		if in.Label, err = label(ii.Label); err != nil {
			return nil, err
		}
		if ii.Const != nil {
			if in.Const, err = ii.Const.value(); err != nil {
				return nil, err
			}
		}
		m.Instructions = append(m.Instructions, in)
	}

	for _, ic := range im.Catches {
		var (
			tc  = bytecode.TryCatchBlock{Type: ic.Type}
			err error
		)
		if tc.Start, err = label(ic.Start); err != nil {
			return nil, err
		}
		if tc.End, err = label(ic.End); err != nil {
			return nil, err
		}
		if tc.Handler, err = label(ic.Handler); err != nil {
			return nil, err
		}
		m.TryCatchBlocks = append(m.TryCatchBlocks, tc)
	}
	return m, nil
}
