package vm

import "github.com/novus-lang/novus/internal/novus/novasm"

func boolValue(b bool) Value {
	if b {
		return Int32(1)
	}
	return Int32(0)
}

func (e *Executor) opCompareInt(op novasm.Opcode) error {
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
	case novasm.OpCheckEqInt:
		return e.push(boolValue(a == b))
	case novasm.OpCheckGtInt:
		return e.push(boolValue(a > b))
	case novasm.OpCheckLtInt:
		return e.push(boolValue(a < b))
	}
	return nil
}

func (e *Executor) opCompareLong(op novasm.Opcode) error {
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
	switch op {
	case novasm.OpCheckEqLong:
		return e.push(boolValue(a == b))
	case novasm.OpCheckGtLong:
		return e.push(boolValue(a > b))
	case novasm.OpCheckLtLong:
		return e.push(boolValue(a < b))
	}
	return nil
}

func (e *Executor) opCompareFloat(op novasm.Opcode) error {
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
	case novasm.OpCheckEqFloat:
		return e.push(boolValue(a == b))
	case novasm.OpCheckGtFloat:
		return e.push(boolValue(a > b))
	case novasm.OpCheckLtFloat:
		return e.push(boolValue(a < b))
	}
	return nil
}

func (e *Executor) opCheckEqString() error {
	rhs, err := e.pop()
	if err != nil {
		return err
	}
	lhs, err := e.pop()
	if err != nil {
		return err
	}
	a, _ := e.stringOf(lhs)
	b, _ := e.stringOf(rhs)
	return e.push(boolValue(a == b))
}

func (e *Executor) opCheckEqChar() error {
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
	return e.push(boolValue(byte(a) == byte(b)))
}

// opCheckEqCallDynTgt compares two call targets: if either operand is
// a closure struct, its last field (the IP) is used; raw-IP uints
// compare directly (spec §4.4).
func (e *Executor) opCheckEqCallDynTgt() error {
	rhs, err := e.pop()
	if err != nil {
		return err
	}
	lhs, err := e.pop()
	if err != nil {
		return err
	}
	a, aok := lhs.ToIP()
	b, bok := rhs.ToIP()
	return e.push(boolValue(aok && bok && a == b))
}
