package interpreter

import (
	"liveedit/pkg/bytecode"
)

// execute applies the stack effect of one non-control instruction: it pops
// the operands, hands them to the opcode interpreter and pushes the result.
// Jumps, returns and athrow are the driver's business.
func (f *Frame) execute(o *opcodeInterpreter, in *bytecode.Instruction) error {
	op := in.Op
	switch {
	case op == bytecode.NOP:
		return nil

	case op >= bytecode.ACONST_NULL && op <= bytecode.LDC,
		op == bytecode.GETSTATIC, op == bytecode.NEW:
		return f.push(o.newOperation(in))

	case op >= bytecode.ILOAD && op <= bytecode.ALOAD:
		v, err := f.Local(in.Var)
		if err != nil {
			return err
		}
		if v.Kind == KindNotAValue || v.Kind == KindNotInitialized {
			return brokenf("%s reads unassigned local %d", op, in.Var)
		}
		return f.Push(v)

	case op >= bytecode.ISTORE && op <= bytecode.ASTORE:
		v, err := f.Pop()
		if err != nil {
			return err
		}
		return f.SetLocal(in.Var, v)

	case op >= bytecode.IALOAD && op <= bytecode.SALOAD:
		vs, err := f.popN(2)
		if err != nil {
			return err
		}
		return f.push(o.binaryOperation(in, vs[0], vs[1]))

	case op >= bytecode.IASTORE && op <= bytecode.SASTORE:
		vs, err := f.popN(3)
		if err != nil {
			return err
		}
		_, err = o.ternaryOperation(in, vs[0], vs[1], vs[2])
		return err

	case op >= bytecode.POP && op <= bytecode.SWAP:
		return f.shuffle(op)

	case op == bytecode.INEG || op == bytecode.LNEG || op == bytecode.FNEG || op == bytecode.DNEG,
		op >= bytecode.I2L && op <= bytecode.I2S:
		v, err := f.Pop()
		if err != nil {
			return err
		}
		return f.push(o.unaryOperation(in, v))

	case op >= bytecode.IADD && op <= bytecode.LXOR,
		op >= bytecode.LCMP && op <= bytecode.DCMPG:
		vs, err := f.popN(2)
		if err != nil {
			return err
		}
		return f.push(o.binaryOperation(in, vs[0], vs[1]))

	case op == bytecode.IINC:
		v, err := f.Local(in.Var)
		if err != nil {
			return err
		}
		r, err := o.unaryOperation(in, v)
		if err != nil {
			return err
		}
		return f.SetLocal(in.Var, r)

	case op == bytecode.TABLESWITCH || op == bytecode.LOOKUPSWITCH:
		return unsupported(op, "switch instructions are not supported")

	case op == bytecode.PUTSTATIC:
		v, err := f.Pop()
		if err != nil {
			return err
		}
		_, err = o.unaryOperation(in, v)
		return err

	case op == bytecode.GETFIELD, op == bytecode.NEWARRAY, op == bytecode.ANEWARRAY,
		op == bytecode.ARRAYLENGTH, op == bytecode.CHECKCAST, op == bytecode.INSTANCEOF:
		v, err := f.Pop()
		if err != nil {
			return err
		}
		return f.push(o.unaryOperation(in, v))

	case op == bytecode.PUTFIELD:
		vs, err := f.popN(2)
		if err != nil {
			return err
		}
		_, err = o.binaryOperation(in, vs[0], vs[1])
		return err

	case op >= bytecode.INVOKEVIRTUAL && op <= bytecode.INVOKEINTERFACE:
		n := len(bytecode.TypeOf(in.Desc).ArgumentTypes())
		if op != bytecode.INVOKESTATIC {
			n++
		}
		vs, err := f.popN(n)
		if err != nil {
			return err
		}
		r, err := o.naryOperation(in, vs)
		if err != nil {
			return err
		}
		if bytecode.TypeOf(in.Desc).ReturnType().Sort() == bytecode.SortVoid {
			return nil
		}
		return f.Push(r)

	case op == bytecode.INVOKEDYNAMIC:
		return unsupported(op, "invokedynamic is not supported")

	case op == bytecode.MONITORENTER || op == bytecode.MONITOREXIT:
		return unsupported(op, "monitors are not supported")

	case op == bytecode.MULTIANEWARRAY:
		vs, err := f.popN(in.Dims)
		if err != nil {
			return err
		}
		return f.push(o.naryOperation(in, vs))
	}
	return brokenf("%s cannot be executed on the operand stack", op)
}

func (f *Frame) push(v Value, err error) error {
	if err != nil {
		return err
	}
	return f.Push(v)
}

// popN pops n values and returns them in push order.
func (f *Frame) popN(n int) ([]Value, error) {
	vs := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := f.Pop()
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

// pop1 pops a category 1 value
func (f *Frame) pop1() (Value, error) {
	v, err := f.Pop()
	if err == nil && v.Size() != 1 {
		err = brokenf("expected a one-slot value, got %s", v)
	}
	return v, err
}

func (f *Frame) pushAll(vs ...Value) error {
	for _, v := range vs {
		if err := f.Push(v); err != nil {
			return err
		}
	}
	return nil
}

// shuffle implements pop, dup and swap. Two-slot values count as one entry
// holding both slots, which is how the form of each dup2 variant is chosen.
func (f *Frame) shuffle(op bytecode.Opcode) error {
	switch op {
	case bytecode.POP:
		_, err := f.pop1()
		return err

	case bytecode.POP2:
		v, err := f.Pop()
		if err != nil || v.Size() == 2 {
			return err
		}
		_, err = f.pop1()
		return err

	case bytecode.DUP:
		v, err := f.pop1()
		if err != nil {
			return err
		}
		return f.pushAll(v, v)

	case bytecode.DUP_X1:
		v1, err := f.pop1()
		if err != nil {
			return err
		}
		v2, err := f.pop1()
		if err != nil {
			return err
		}
		return f.pushAll(v1, v2, v1)

	case bytecode.DUP_X2:
		v1, err := f.pop1()
		if err != nil {
			return err
		}
		v2, err := f.Pop()
		if err != nil {
			return err
		}
		if v2.Size() == 2 {
			return f.pushAll(v1, v2, v1)
		}
		v3, err := f.pop1()
		if err != nil {
			return err
		}
		return f.pushAll(v1, v3, v2, v1)

	case bytecode.DUP2:
		v1, err := f.Pop()
		if err != nil {
			return err
		}
		if v1.Size() == 2 {
			return f.pushAll(v1, v1)
		}
		v2, err := f.pop1()
		if err != nil {
			return err
		}
		return f.pushAll(v2, v1, v2, v1)

	case bytecode.DUP2_X1:
		v1, err := f.Pop()
		if err != nil {
			return err
		}
		if v1.Size() == 2 {
			v2, err := f.pop1()
			if err != nil {
				return err
			}
			return f.pushAll(v1, v2, v1)
		}
		v2, err := f.pop1()
		if err != nil {
			return err
		}
		v3, err := f.pop1()
		if err != nil {
			return err
		}
		return f.pushAll(v2, v1, v3, v2, v1)

	case bytecode.DUP2_X2:
		v1, err := f.Pop()
		if err != nil {
			return err
		}
		if v1.Size() == 2 {
			v2, err := f.Pop()
			if err != nil {
				return err
			}
			if v2.Size() == 2 {
				return f.pushAll(v1, v2, v1)
			}
			v3, err := f.pop1()
			if err != nil {
				return err
			}
			return f.pushAll(v1, v3, v2, v1)
		}
		v2, err := f.pop1()
		if err != nil {
			return err
		}
		v3, err := f.Pop()
		if err != nil {
			return err
		}
		if v3.Size() == 2 {
			return f.pushAll(v2, v1, v3, v2, v1)
		}
		v4, err := f.pop1()
		if err != nil {
			return err
		}
		return f.pushAll(v2, v1, v4, v3, v2, v1)

	case bytecode.SWAP:
		v2, err := f.pop1()
		if err != nil {
			return err
		}
		v1, err := f.pop1()
		if err != nil {
			return err
		}
		return f.pushAll(v2, v1)
	}
	return brokenf("%s is not a stack instruction", op)
}
