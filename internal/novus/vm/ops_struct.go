package vm

import "fmt"

// opMakeStruct pops n fields (field 0 is first pushed, so fields are
// popped in reverse and re-ordered) and allocates a Struct (spec §4.4).
func (e *Executor) opMakeStruct(n int) error {
	fields := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := e.pop()
		if err != nil {
			return err
		}
		fields[i] = v
	}
	ref, err := e.alloc.AllocStruct(fields)
	if err != nil {
		e.handle.SetState(ExecAllocFailed)
		return errTerminal
	}
	return e.push(RefValue(ref))
}

func (e *Executor) structOf(v Value) (*Ref, bool) {
	if v.Kind != VKRef || v.Ref == nil || v.Ref.Kind != RefKindStruct {
		return nil, false
	}
	return v.Ref, true
}

func (e *Executor) opStructLoadField(index int) error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	s, ok := e.structOf(v)
	if !ok || index < 0 || index >= len(s.Fields) {
		e.handle.SetState(ExecFailed)
		return fmt.Errorf("vm: struct field load %d out of range", index)
	}
	return e.push(s.Fields[index])
}

func (e *Executor) opStructStoreField(index int) error {
	val, err := e.pop()
	if err != nil {
		return err
	}
	structVal, err := e.pop()
	if err != nil {
		return err
	}
	s, ok := e.structOf(structVal)
	if !ok || index < 0 || index >= len(s.Fields) {
		e.handle.SetState(ExecFailed)
		return fmt.Errorf("vm: struct field store %d out of range", index)
	}
	s.Fields[index] = val
	return nil
}
