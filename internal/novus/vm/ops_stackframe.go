package vm

// opStackAlloc, opStackStore, opStackLoad implement the stack-frame
// opcodes (spec §4.4).

func (e *Executor) opStackAlloc(n int) error {
	if err := e.stack.Alloc(n); err != nil {
		e.handle.SetState(ExecStackOverflow)
		return errTerminal
	}
	return nil
}

func (e *Executor) opStackStore(slot int) error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	if serr := e.stack.StoreAt(slot, v); serr != nil {
		e.handle.SetState(ExecStackOverflow)
		return errTerminal
	}
	return nil
}

func (e *Executor) opStackLoad(slot int) error {
	v, err := e.stack.LoadAt(slot)
	if err != nil {
		e.handle.SetState(ExecStackOverflow)
		return errTerminal
	}
	return e.push(v)
}
