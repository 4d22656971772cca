package vm

import "github.com/novus-lang/novus/internal/novus/novasm"

// opArithInt implements AddInt/SubInt/MulInt/DivInt/RemInt (spec
// §4.4): divide/remainder by zero transitions to DivByZero.
func (e *Executor) opArithInt(op novasm.Opcode) error {
	rhs, err := e.pop()
	if err != nil {
		return err
	}
	lhs, err := e.pop()
	if err != nil {
		return err
	}
	a, _ := lhs.ToInt32()
	b, _ := rhs.ToInt32()

	switch op {
	case novasm.OpAddInt:
		return e.push(Int32(a + b))
	case novasm.OpSubInt:
		return e.push(Int32(a - b))
	case novasm.OpMulInt:
		return e.push(Int32(a * b))
	case novasm.OpDivInt:
		if b == 0 {
			e.handle.SetState(ExecDivByZero)
			return errTerminal
		}
		return e.push(Int32(a / b))
	case novasm.OpRemInt:
		if b == 0 {
			e.handle.SetState(ExecDivByZero)
			return errTerminal
		}
		return e.push(Int32(a % b))
	}
	return nil
}

// opArithLong implements the int64 family. Operands may be inline or
// LongRef; results that are negative are re-boxed via Int64.
func (e *Executor) opArithLong(op novasm.Opcode) error {
	rhs, err := e.pop()
	if err != nil {
		return err
	}
	lhs, err := e.pop()
	if err != nil {
		return err
	}
	a, _ := lhs.ToLong()
	b, _ := rhs.ToLong()

	var result int64
	switch op {
	case novasm.OpAddLong:
		result = a + b
	case novasm.OpSubLong:
		result = a - b
	case novasm.OpMulLong:
		result = a * b
	case novasm.OpDivLong:
		if b == 0 {
			e.handle.SetState(ExecDivByZero)
			return errTerminal
		}
		result = a / b
	case novasm.OpRemLong:
		if b == 0 {
			e.handle.SetState(ExecDivByZero)
			return errTerminal
		}
		result = a % b
	}
	v, verr := Int64(e.alloc, result)
	if verr != nil {
		e.handle.SetState(ExecAllocFailed)
		return errTerminal
	}
	return e.push(v)
}

// opArithFloat implements the float32 family. Division by zero
// produces IEEE-754 infinity/NaN and never fails (spec §4.4).
func (e *Executor) opArithFloat(op novasm.Opcode) error {
	rhs, err := e.pop()
	if err != nil {
		return err
	}
	lhs, err := e.pop()
	if err != nil {
		return err
	}
	a, _ := lhs.ToFloat32()
	b, _ := rhs.ToFloat32()

	switch op {
	case novasm.OpAddFloat:
		return e.push(Float32(a + b))
	case novasm.OpSubFloat:
		return e.push(Float32(a - b))
	case novasm.OpMulFloat:
		return e.push(Float32(a * b))
	case novasm.OpDivFloat:
		return e.push(Float32(a / b))
	}
	return nil
}
