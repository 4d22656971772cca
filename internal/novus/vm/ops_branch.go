package vm

// opJumpIf pops an int and branches when non-zero (spec §4.4).
func (e *Executor) opJumpIf() error {
	target := e.readLabel()
	v, err := e.pop()
	if err != nil {
		return err
	}
	n, _ := v.ToInt32()
	if n != 0 {
		e.ip = int(target)
	}
	return nil
}

func (e *Executor) opDup() error {
	v, err := e.stack.Peek(0)
	if err != nil {
		e.handle.SetState(ExecStackOverflow)
		return errTerminal
	}
	return e.push(v)
}

func (e *Executor) opSwap() error {
	a, err := e.pop()
	if err != nil {
		return err
	}
	b, err := e.pop()
	if err != nil {
		return err
	}
	if err := e.push(a); err != nil {
		return err
	}
	return e.push(b)
}
