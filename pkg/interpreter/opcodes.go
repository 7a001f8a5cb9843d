package interpreter

import (
	"math"

	"liveedit/pkg/bytecode"
)

// opcodeInterpreter turns one instruction and its operands into a result
// value. It owns no state besides the backend; control flow belongs to the
// driver, so conditional jumps come back as NotAValue.
type opcodeInterpreter struct {
	eval Eval
}

// newOperation handles instructions that take no operand from the stack.
func (o *opcodeInterpreter) newOperation(in *bytecode.Instruction) (Value, error) {
	switch in.Op {
	case bytecode.ACONST_NULL:
		return NullValue, nil
	case bytecode.ICONST_M1, bytecode.ICONST_0, bytecode.ICONST_1, bytecode.ICONST_2,
		bytecode.ICONST_3, bytecode.ICONST_4, bytecode.ICONST_5:
		return IntValue(int32(in.Op) - int32(bytecode.ICONST_0)), nil
	case bytecode.LCONST_0, bytecode.LCONST_1:
		return LongValue(int64(in.Op - bytecode.LCONST_0)), nil
	case bytecode.FCONST_0, bytecode.FCONST_1, bytecode.FCONST_2:
		return FloatValue(float32(in.Op - bytecode.FCONST_0)), nil
	case bytecode.DCONST_0, bytecode.DCONST_1:
		return DoubleValue(float64(in.Op - bytecode.DCONST_0)), nil
	case bytecode.BIPUSH, bytecode.SIPUSH:
		return IntValue(in.Operand), nil
	case bytecode.LDC:
		return o.ldc(in)
	case bytecode.GETSTATIC:
		return o.eval.GetStaticField(fieldDescription(in))
	case bytecode.NEW:
		return o.eval.NewInstance(bytecode.ObjectType(in.Owner))
	}
	return NotAValue, unsupported(in.Op, "not a constant-producing instruction")
}

func (o *opcodeInterpreter) ldc(in *bytecode.Instruction) (Value, error) {
	switch c := in.Const.(type) {
	case int32:
		return IntValue(c), nil
	case float32:
		return FloatValue(c), nil
	case int64:
		return LongValue(c), nil
	case float64:
		return DoubleValue(c), nil
	case string:
		return o.eval.LoadString(c)
	case bytecode.Type:
		switch c.Sort() {
		case bytecode.SortObject, bytecode.SortArray:
			return o.eval.LoadClass(c)
		case bytecode.SortMethod:
			return NotAValue, unsupported(in.Op, "method type constants are not supported")
		}
		return NotAValue, unsupported(in.Op, "illegal ldc constant "+c.Descriptor())
	case bytecode.Handle:
		return NotAValue, unsupported(in.Op, "method handles are not supported")
	}
	return NotAValue, unsupported(in.Op, "illegal ldc constant")
}

// unaryOperation handles instructions consuming one value.
func (o *opcodeInterpreter) unaryOperation(in *bytecode.Instruction, v Value) (Value, error) {
	switch in.Op {
	case bytecode.INEG:
		return IntValue(-v.Int()), nil
	case bytecode.IINC:
		return IntValue(v.Int() + in.Incr), nil
	case bytecode.L2I:
		return IntValue(int32(v.Long())), nil
	case bytecode.F2I:
		return IntValue(f2i(float64(v.Float()))), nil
	case bytecode.D2I:
		return IntValue(f2i(v.Double())), nil
	case bytecode.I2B:
		return IntValueOf(int32(int8(v.Int())), bytecode.ByteType), nil
	case bytecode.I2C:
		return IntValueOf(int32(uint16(v.Int())), bytecode.CharType), nil
	case bytecode.I2S:
		return IntValueOf(int32(int16(v.Int())), bytecode.ShortType), nil

	case bytecode.FNEG:
		return FloatValue(-v.Float()), nil
	case bytecode.I2F:
		return FloatValue(float32(v.Int())), nil
	case bytecode.L2F:
		return FloatValue(float32(v.Long())), nil
	case bytecode.D2F:
		return FloatValue(float32(v.Double())), nil

	case bytecode.LNEG:
		return LongValue(-v.Long()), nil
	case bytecode.I2L:
		return LongValue(int64(v.Int())), nil
	case bytecode.F2L:
		return LongValue(f2l(float64(v.Float()))), nil
	case bytecode.D2L:
		return LongValue(f2l(v.Double())), nil

	case bytecode.DNEG:
		return DoubleValue(-v.Double()), nil
	case bytecode.I2D:
		return DoubleValue(float64(v.Int())), nil
	case bytecode.L2D:
		return DoubleValue(float64(v.Long())), nil
	case bytecode.F2D:
		return DoubleValue(float64(v.Float())), nil

	case bytecode.IFEQ, bytecode.IFNE, bytecode.IFLT, bytecode.IFGE, bytecode.IFGT, bytecode.IFLE,
		bytecode.IFNULL, bytecode.IFNONNULL:
		// see checkUnaryCondition
		return NotAValue, nil

	case bytecode.TABLESWITCH, bytecode.LOOKUPSWITCH:
		return NotAValue, unsupported(in.Op, "switch instructions are not supported")

	case bytecode.PUTSTATIC:
		return NotAValue, o.eval.SetStaticField(fieldDescription(in), v)
	case bytecode.GETFIELD:
		return o.eval.GetField(v, fieldDescription(in))

	case bytecode.NEWARRAY:
		desc, ok := bytecode.ArrayTypeDescriptor(in.Operand)
		if !ok {
			return NotAValue, brokenf("invalid newarray type %d", in.Operand)
		}
		return o.eval.NewArray(bytecode.TypeOf(desc), v.Int())
	case bytecode.ANEWARRAY:
		return o.eval.NewArray(bytecode.ArrayOf(bytecode.ObjectType(in.Owner)), v.Int())
	case bytecode.ARRAYLENGTH:
		return o.eval.GetArrayLength(v)

	case bytecode.CHECKCAST:
		target := bytecode.ObjectType(in.Owner)
		if v.IsNull() {
			return v, nil
		}
		ok, err := o.eval.IsInstanceOf(v, target)
		if err != nil {
			return NotAValue, err
		}
		if !ok {
			return NotAValue, NewFault(ClassCastException, "%s cannot be cast to %s",
				v.Type.ClassName(), target.ClassName())
		}
		return ObjectValue(v.Ref(), target), nil
	case bytecode.INSTANCEOF:
		if v.IsNull() {
			return IntValue(0), nil
		}
		ok, err := o.eval.IsInstanceOf(v, bytecode.ObjectType(in.Owner))
		if err != nil {
			return NotAValue, err
		}
		if ok {
			return IntValue(1), nil
		}
		return IntValue(0), nil

	case bytecode.MONITORENTER, bytecode.MONITOREXIT:
		return NotAValue, unsupported(in.Op, "monitors are not supported")
	}
	return NotAValue, unsupported(in.Op, "not a unary instruction")
}

// binaryOperation handles instructions consuming two values; v1 was pushed first.
func (o *opcodeInterpreter) binaryOperation(in *bytecode.Instruction, v1, v2 Value) (Value, error) {
	switch in.Op {
	case bytecode.IALOAD, bytecode.BALOAD, bytecode.CALOAD, bytecode.SALOAD,
		bytecode.FALOAD, bytecode.LALOAD, bytecode.DALOAD, bytecode.AALOAD:
		return o.eval.GetArrayElement(v1, v2)

	case bytecode.IADD:
		return IntValue(v1.Int() + v2.Int()), nil
	case bytecode.ISUB:
		return IntValue(v1.Int() - v2.Int()), nil
	case bytecode.IMUL:
		return IntValue(v1.Int() * v2.Int()), nil
	case bytecode.IDIV:
		d := v2.Int()
		if d == 0 {
			return NotAValue, divisionByZero()
		}
		return IntValue(v1.Int() / d), nil
	case bytecode.IREM:
		d := v2.Int()
		if d == 0 {
			return NotAValue, divisionByZero()
		}
		return IntValue(v1.Int() % d), nil
	case bytecode.ISHL:
		return IntValue(v1.Int() << (v2.Int() & 31)), nil
	case bytecode.ISHR:
		return IntValue(v1.Int() >> (v2.Int() & 31)), nil
	case bytecode.IUSHR:
		return IntValue(int32(uint32(v1.Int()) >> (v2.Int() & 31))), nil
	case bytecode.IAND:
		return IntValue(v1.Int() & v2.Int()), nil
	case bytecode.IOR:
		return IntValue(v1.Int() | v2.Int()), nil
	case bytecode.IXOR:
		return IntValue(v1.Int() ^ v2.Int()), nil

	case bytecode.LADD:
		return LongValue(v1.Long() + v2.Long()), nil
	case bytecode.LSUB:
		return LongValue(v1.Long() - v2.Long()), nil
	case bytecode.LMUL:
		return LongValue(v1.Long() * v2.Long()), nil
	case bytecode.LDIV:
		d := v2.Long()
		if d == 0 {
			return NotAValue, divisionByZero()
		}
		return LongValue(v1.Long() / d), nil
	case bytecode.LREM:
		d := v2.Long()
		if d == 0 {
			return NotAValue, divisionByZero()
		}
		return LongValue(v1.Long() % d), nil
	case bytecode.LSHL:
		return LongValue(v1.Long() << (v2.Int() & 63)), nil
	case bytecode.LSHR:
		return LongValue(v1.Long() >> (v2.Int() & 63)), nil
	case bytecode.LUSHR:
		return LongValue(int64(uint64(v1.Long()) >> (v2.Int() & 63))), nil
	case bytecode.LAND:
		return LongValue(v1.Long() & v2.Long()), nil
	case bytecode.LOR:
		return LongValue(v1.Long() | v2.Long()), nil
	case bytecode.LXOR:
		return LongValue(v1.Long() ^ v2.Long()), nil

	// Float and double arithmetic follows IEEE-754: dividing by zero yields
	// an infinity or NaN and never faults.
	case bytecode.FADD:
		return FloatValue(v1.Float() + v2.Float()), nil
	case bytecode.FSUB:
		return FloatValue(v1.Float() - v2.Float()), nil
	case bytecode.FMUL:
		return FloatValue(v1.Float() * v2.Float()), nil
	case bytecode.FDIV:
		return FloatValue(v1.Float() / v2.Float()), nil
	case bytecode.FREM:
		return FloatValue(float32(math.Mod(float64(v1.Float()), float64(v2.Float())))), nil

	case bytecode.DADD:
		return DoubleValue(v1.Double() + v2.Double()), nil
	case bytecode.DSUB:
		return DoubleValue(v1.Double() - v2.Double()), nil
	case bytecode.DMUL:
		return DoubleValue(v1.Double() * v2.Double()), nil
	case bytecode.DDIV:
		return DoubleValue(v1.Double() / v2.Double()), nil
	case bytecode.DREM:
		return DoubleValue(math.Mod(v1.Double(), v2.Double())), nil

	case bytecode.LCMP:
		a, b := v1.Long(), v2.Long()
		switch {
		case a > b:
			return IntValue(1), nil
		case a == b:
			return IntValue(0), nil
		}
		return IntValue(-1), nil
	case bytecode.FCMPL, bytecode.FCMPG:
		return IntValue(compareFloats(float64(v1.Float()), float64(v2.Float()), in.Op == bytecode.FCMPG)), nil
	case bytecode.DCMPL, bytecode.DCMPG:
		return IntValue(compareFloats(v1.Double(), v2.Double(), in.Op == bytecode.DCMPG)), nil

	case bytecode.IF_ICMPEQ, bytecode.IF_ICMPNE, bytecode.IF_ICMPLT, bytecode.IF_ICMPGE,
		bytecode.IF_ICMPGT, bytecode.IF_ICMPLE, bytecode.IF_ACMPEQ, bytecode.IF_ACMPNE:
		// see checkBinaryCondition
		return NotAValue, nil

	case bytecode.PUTFIELD:
		return NotAValue, o.eval.SetField(v1, fieldDescription(in), v2)
	}
	return NotAValue, unsupported(in.Op, "not a binary instruction")
}

// ternaryOperation handles the array stores: array, index, value.
func (o *opcodeInterpreter) ternaryOperation(in *bytecode.Instruction, v1, v2, v3 Value) (Value, error) {
	switch in.Op {
	case bytecode.IASTORE, bytecode.LASTORE, bytecode.FASTORE, bytecode.DASTORE,
		bytecode.AASTORE, bytecode.BASTORE, bytecode.CASTORE, bytecode.SASTORE:
		return NotAValue, o.eval.SetArrayElement(v1, v2, v3)
	}
	return NotAValue, unsupported(in.Op, "not a ternary instruction")
}

// naryOperation handles invocations and multianewarray. For instance
// invocations values[0] is the receiver.
func (o *opcodeInterpreter) naryOperation(in *bytecode.Instruction, values []Value) (Value, error) {
	switch in.Op {
	case bytecode.MULTIANEWARRAY:
		dims := make([]int32, len(values))
		for i, v := range values {
			dims[i] = v.Int()
		}
		return o.eval.NewMultiDimensionalArray(bytecode.ObjectType(in.Owner), dims)

	case bytecode.INVOKEVIRTUAL, bytecode.INVOKESPECIAL, bytecode.INVOKEINTERFACE:
		return o.eval.InvokeMethod(values[0], methodDescription(in), values[1:], in.Op == bytecode.INVOKESPECIAL)
	case bytecode.INVOKESTATIC:
		return o.eval.InvokeStaticMethod(methodDescription(in), values)
	case bytecode.INVOKEDYNAMIC:
		return NotAValue, unsupported(in.Op, "invokedynamic is not supported")
	}
	return NotAValue, unsupported(in.Op, "not an n-ary instruction")
}

func checkUnaryCondition(op bytecode.Opcode, v Value) (bool, error) {
	switch op {
	case bytecode.IFEQ:
		return v.Int() == 0, nil
	case bytecode.IFNE:
		return v.Int() != 0, nil
	case bytecode.IFLT:
		return v.Int() < 0, nil
	case bytecode.IFGT:
		return v.Int() > 0, nil
	case bytecode.IFLE:
		return v.Int() <= 0, nil
	case bytecode.IFGE:
		return v.Int() >= 0, nil
	case bytecode.IFNULL:
		return v.Ref() == nil, nil
	case bytecode.IFNONNULL:
		return v.Ref() != nil, nil
	}
	return false, unsupported(op, "not a unary condition")
}

func checkBinaryCondition(op bytecode.Opcode, v1, v2 Value) (bool, error) {
	switch op {
	case bytecode.IF_ICMPEQ:
		return v1.Int() == v2.Int(), nil
	case bytecode.IF_ICMPNE:
		return v1.Int() != v2.Int(), nil
	case bytecode.IF_ICMPLT:
		return v1.Int() < v2.Int(), nil
	case bytecode.IF_ICMPGT:
		return v1.Int() > v2.Int(), nil
	case bytecode.IF_ICMPLE:
		return v1.Int() <= v2.Int(), nil
	case bytecode.IF_ICMPGE:
		return v1.Int() >= v2.Int(), nil
	case bytecode.IF_ACMPEQ:
		return SameObject(v1.Ref(), v2.Ref()), nil
	case bytecode.IF_ACMPNE:
		return !SameObject(v1.Ref(), v2.Ref()), nil
	}
	return false, unsupported(op, "not a binary condition")
}

// ComputeReturn coerces v to the declared return type t: int-family returns
// narrow the way the verifier expects, references are re-tagged only when the
// declared type differs.
func ComputeReturn(v Value, t bytecode.Type) Value {
	switch t.Sort() {
	case bytecode.SortBoolean:
		return IntValueOf(v.Int()&1, bytecode.BooleanType)
	case bytecode.SortByte:
		return IntValueOf(int32(int8(v.Int())), bytecode.ByteType)
	case bytecode.SortChar:
		return IntValueOf(int32(uint16(v.Int())), bytecode.CharType)
	case bytecode.SortShort:
		return IntValueOf(int32(int16(v.Int())), bytecode.ShortType)
	case bytecode.SortInt:
		if v.Type == bytecode.IntType {
			return v
		}
		return IntValue(v.Int())
	case bytecode.SortObject, bytecode.SortArray:
		if v.Type == t {
			return v
		}
		return ObjectValue(v.Ref(), t)
	}
	return v
}

func compareFloats(a, b float64, nanIsGreater bool) int32 {
	switch {
	case a > b:
		return 1
	case a == b:
		return 0
	case a < b:
		return -1
	}
	if nanIsGreater {
		return 1
	}
	return -1
}

// f2i converts like the JVM: NaN is 0, out of range values saturate.
func f2i(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

func f2l(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func divisionByZero() error {
	return NewFault(ArithmeticException, "/ by zero")
}
