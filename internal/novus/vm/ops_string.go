package vm

import "fmt"

// opAddString never actually concatenates; it pushes a new StringLink
// lazily (spec §4.4). CombineChar/AppendChar route through the same
// constructor (spec §9 design note).
func (e *Executor) opAddString() error {
	rhs, err := e.pop()
	if err != nil {
		return err
	}
	lhs, err := e.pop()
	if err != nil {
		return err
	}
	var prev *Ref
	if lhs.Kind == VKRef {
		prev = lhs.Ref
	} else if c, ok := lhs.ToInt32(); ok {
		// CombineChar: the first char becomes a one-byte String.
		first, ferr := e.alloc.AllocString([]byte{byte(c)})
		if ferr != nil {
			e.handle.SetState(ExecAllocFailed)
			return errTerminal
		}
		prev = first
	}
	link, aerr := e.alloc.AllocStringLink(prev, rhs)
	if aerr != nil {
		e.handle.SetState(ExecAllocFailed)
		return errTerminal
	}
	return e.push(RefValue(link))
}

func (e *Executor) opLengthString() error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	s, _ := e.stringOf(v)
	return e.push(Int32(int32(len(s))))
}

func (e *Executor) opIndexString() error {
	idxVal, err := e.pop()
	if err != nil {
		return err
	}
	strVal, err := e.pop()
	if err != nil {
		return err
	}
	s, _ := e.stringOf(strVal)
	idx, _ := idxVal.ToInt32()
	if idx < 0 || int(idx) >= len(s) {
		e.handle.SetState(ExecFailed)
		return fmt.Errorf("vm: string index %d out of range (len %d)", idx, len(s))
	}
	return e.push(Int32(int32(s[idx])))
}

func (e *Executor) opSliceString() error {
	endVal, err := e.pop()
	if err != nil {
		return err
	}
	startVal, err := e.pop()
	if err != nil {
		return err
	}
	strVal, err := e.pop()
	if err != nil {
		return err
	}
	s, _ := e.stringOf(strVal)
	start, _ := startVal.ToInt32()
	end, _ := endVal.ToInt32()
	if start < 0 || end > int32(len(s)) || start > end {
		e.handle.SetState(ExecFailed)
		return fmt.Errorf("vm: string slice [%d:%d] out of range (len %d)", start, end, len(s))
	}
	ref, aerr := e.alloc.AllocString([]byte(s[start:end]))
	if aerr != nil {
		e.handle.SetState(ExecAllocFailed)
		return errTerminal
	}
	return e.push(RefValue(ref))
}
