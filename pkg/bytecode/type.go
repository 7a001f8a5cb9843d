package bytecode

import (
	"fmt"
	"strings"
)

// Sort classifies a Type.
type Sort int

const (
	SortVoid Sort = iota
	SortBoolean
	SortChar
	SortByte
	SortShort
	SortInt
	SortFloat
	SortLong
	SortDouble
	SortArray
	SortObject
	SortMethod
	SortInvalid
)

// Type is a JVM type descriptor such as "I", "[Ljava/lang/String;" or "(IJ)V".
// The zero Type has no descriptor and is used for "unknown".
type Type struct {
	desc string
}

var (
	VoidType    = Type{"V"}
	BooleanType = Type{"Z"}
	CharType    = Type{"C"}
	ByteType    = Type{"B"}
	ShortType   = Type{"S"}
	IntType     = Type{"I"}
	FloatType   = Type{"F"}
	LongType    = Type{"J"}
	DoubleType  = Type{"D"}

	ObjectTypeRoot = Type{"Ljava/lang/Object;"}
	StringType     = Type{"Ljava/lang/String;"}
	ClassType      = Type{"Ljava/lang/Class;"}
	ThrowableType  = Type{"Ljava/lang/Throwable;"}
)

// TypeOf wraps a field or method descriptor.
func TypeOf(desc string) Type {
	return Type{desc}
}

// ObjectType builds a type from an internal name ("java/lang/String").
// Internal names of arrays are already descriptors and are kept as is.
func ObjectType(internalName string) Type {
	if strings.HasPrefix(internalName, "[") {
		return Type{internalName}
	}
	return Type{"L" + internalName + ";"}
}

// MethodTypeOf builds a method descriptor from parameter and return types.
func MethodTypeOf(ret Type, params ...Type) Type {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range params {
		b.WriteString(p.desc)
	}
	b.WriteByte(')')
	b.WriteString(ret.desc)
	return Type{b.String()}
}

// ArrayOf returns the one-dimensional array type whose elements are t.
func ArrayOf(t Type) Type {
	return Type{"[" + t.desc}
}

// IsZero reports whether t carries no descriptor
func (t Type) IsZero() bool {
	return t.desc == ""
}

// Descriptor returns the raw descriptor
func (t Type) Descriptor() string {
	return t.desc
}

// Sort classifies the descriptor
func (t Type) Sort() Sort {
	if t.desc == "" {
		return SortInvalid
	}
	switch t.desc[0] {
	case 'V':
		return SortVoid
	case 'Z':
		return SortBoolean
	case 'C':
		return SortChar
	case 'B':
		return SortByte
	case 'S':
		return SortShort
	case 'I':
		return SortInt
	case 'F':
		return SortFloat
	case 'J':
		return SortLong
	case 'D':
		return SortDouble
	case '[':
		return SortArray
	case 'L':
		return SortObject
	case '(':
		return SortMethod
	}
	return SortInvalid
}

// IsReference reports whether values of t live in an object slot
func (t Type) IsReference() bool {
	s := t.Sort()
	return s == SortArray || s == SortObject
}

// IsIntLike reports whether values of t are carried as ints on the operand stack
func (t Type) IsIntLike() bool {
	switch t.Sort() {
	case SortBoolean, SortChar, SortByte, SortShort, SortInt:
		return true
	}
	return false
}

// Size is the number of slots a value of t occupies (0 for void).
func (t Type) Size() int {
	switch t.Sort() {
	case SortVoid:
		return 0
	case SortLong, SortDouble:
		return 2
	}
	return 1
}

// InternalName returns "java/lang/String" for "Ljava/lang/String;" and the
// descriptor itself for arrays.
func (t Type) InternalName() string {
	switch t.Sort() {
	case SortObject:
		return t.desc[1 : len(t.desc)-1]
	}
	return t.desc
}

// ClassName returns the Java source name ("java.lang.String", "int[]").
func (t Type) ClassName() string {
	switch t.Sort() {
	case SortVoid:
		return "void"
	case SortBoolean:
		return "boolean"
	case SortChar:
		return "char"
	case SortByte:
		return "byte"
	case SortShort:
		return "short"
	case SortInt:
		return "int"
	case SortFloat:
		return "float"
	case SortLong:
		return "long"
	case SortDouble:
		return "double"
	case SortArray:
		return t.ElementType().ClassName() + strings.Repeat("[]", t.Dimensions())
	case SortObject:
		return strings.ReplaceAll(t.InternalName(), "/", ".")
	}
	return t.desc
}

// Dimensions returns the number of array dimensions
func (t Type) Dimensions() int {
	n := 0
	for n < len(t.desc) && t.desc[n] == '[' {
		n++
	}
	return n
}

// ElementType returns the innermost element type of an array type.
func (t Type) ElementType() Type {
	return Type{t.desc[t.Dimensions():]}
}

// ComponentType strips one array dimension ("[[I" -> "[I").
func (t Type) ComponentType() Type {
	if t.Sort() != SortArray {
		return Type{}
	}
	return Type{t.desc[1:]}
}

// ArgumentTypes returns the parameter types of a method descriptor.
func (t Type) ArgumentTypes() []Type {
	if t.Sort() != SortMethod {
		return nil
	}
	var args []Type
	i := 1
	for i < len(t.desc) && t.desc[i] != ')' {
		end := fieldEnd(t.desc, i)
		if end < 0 {
			return args
		}
		args = append(args, Type{t.desc[i:end]})
		i = end
	}
	return args
}

// ReturnType returns the return type of a method descriptor.
func (t Type) ReturnType() Type {
	if t.Sort() != SortMethod {
		return Type{}
	}
	i := strings.IndexByte(t.desc, ')')
	if i < 0 {
		return Type{}
	}
	return Type{t.desc[i+1:]}
}

// ArgumentsSize returns the number of local slots the parameters of a method
// descriptor occupy, not counting a receiver.
func (t Type) ArgumentsSize() int {
	n := 0
	for _, a := range t.ArgumentTypes() {
		n += a.Size()
	}
	return n
}

// Validate reports malformed descriptors.
func (t Type) Validate() error {
	if t.Sort() == SortMethod {
		rparen := strings.IndexByte(t.desc, ')')
		if rparen < 0 {
			return fmt.Errorf("method descriptor %q has no ')'", t.desc)
		}
		for i := 1; i < rparen; {
			end := fieldEnd(t.desc, i)
			if end < 0 || end > rparen {
				return fmt.Errorf("bad parameter in method descriptor %q", t.desc)
			}
			i = end
		}
		ret := t.desc[rparen+1:]
		if ret != "V" && fieldEnd(ret, 0) != len(ret) {
			return fmt.Errorf("bad return type in method descriptor %q", t.desc)
		}
		return nil
	}
	if t.desc == "" || fieldEnd(t.desc, 0) != len(t.desc) {
		return fmt.Errorf("bad field descriptor %q", t.desc)
	}
	return nil
}

func (t Type) String() string {
	return t.desc
}

// fieldEnd returns the index just past the field descriptor starting at i, or -1.
func fieldEnd(desc string, i int) int {
	for i < len(desc) && desc[i] == '[' {
		i++
	}
	if i >= len(desc) {
		return -1
	}
	switch desc[i] {
	case 'Z', 'C', 'B', 'S', 'I', 'F', 'J', 'D':
		return i + 1
	case 'L':
		semi := strings.IndexByte(desc[i:], ';')
		if semi < 2 {
			return -1
		}
		return i + semi + 1
	}
	return -1
}
