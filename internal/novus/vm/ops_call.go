package vm

import "context"

// popArgs pops n values off the top of the stack, returning them in
// original push order (arg0 first).
func (e *Executor) popArgs(n int) ([]Value, error) {
	out := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := e.pop()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// enterCall builds (or, for a tail call, rewrites in place) the callee
// frame described by spec §3's "Stack frame layout": two hidden Values
// (return IP, return stack-home) sit immediately below the callee's
// stack home, with arguments starting at the stack home.
func (e *Executor) enterCall(tail bool, targetIP uint32, args []Value) error {
	if tail {
		if err := e.stack.RewindToNext(e.stack.Bottom()); err != nil {
			e.handle.SetState(ExecStackOverflow)
			return errTerminal
		}
		for _, a := range args {
			if err := e.push(a); err != nil {
				return err
			}
		}
		e.ip = int(targetIP)
		return e.trap()
	}

	retIP := uint32(e.ip)
	retHome := uint32(e.stack.Bottom())
	if err := e.push(IP(retIP)); err != nil {
		return err
	}
	if err := e.push(IP(retHome)); err != nil {
		return err
	}
	newHome := e.stack.Next()
	for _, a := range args {
		if err := e.push(a); err != nil {
			return err
		}
	}
	e.stack.SetBottom(newHome)
	e.ip = int(targetIP)
	return nil
}

func (e *Executor) opCall(tail bool) error {
	argCount := int(e.readByte())
	target := e.readLabel()
	args, err := e.popArgs(argCount)
	if err != nil {
		return err
	}
	return e.enterCall(tail, target, args)
}

// unpackDynTarget resolves a dynamic call target: either a raw IP, or a
// closure struct whose bound args (every field but the last) are
// unpacked ahead of the call's own arguments (spec §4.4).
func (e *Executor) unpackDynTarget(v Value) (ip uint32, bound []Value, ok bool) {
	switch v.Kind {
	case VKIp, VKRawPtr:
		off, _ := v.ToIP()
		return off, nil, true
	case VKRef:
		if v.Ref != nil && v.Ref.Kind == RefKindStruct && len(v.Ref.Fields) > 0 {
			last := v.Ref.Fields[len(v.Ref.Fields)-1]
			off, lok := last.ToIP()
			if !lok {
				return 0, nil, false
			}
			bound := make([]Value, len(v.Ref.Fields)-1)
			copy(bound, v.Ref.Fields[:len(v.Ref.Fields)-1])
			return off, bound, true
		}
	}
	return 0, nil, false
}

func (e *Executor) opCallDyn(tail bool) error {
	argCount := int(e.readByte())
	targetVal, err := e.pop()
	if err != nil {
		return err
	}
	args, err := e.popArgs(argCount)
	if err != nil {
		return err
	}
	ip, bound, ok := e.unpackDynTarget(targetVal)
	if !ok {
		e.handle.SetState(ExecInvalidAssembly)
		return errTerminal
	}
	return e.enterCall(tail, ip, append(bound, args...))
}

// opRet pops the return value, rewinds the stack past the hidden
// frame cells, restores the caller's IP and stack-home, pushes the
// return value, and traps. Returning from the root stack-home sets
// Success (spec §4.4).
func (e *Executor) opRet() error {
	retVal, err := e.pop()
	if err != nil {
		return err
	}
	sh := e.stack.Bottom()
	// A forked executor's root stack-home is 1: its promise ref occupies
	// the slot below it (see RunForkedEntry).
	rootHome := 0
	if e.future != nil {
		rootHome = 1
	}
	if sh == rootHome {
		if err := e.push(retVal); err != nil {
			return err
		}
		e.handle.SetState(ExecSuccess)
		return errTerminal
	}

	retIPVal, err := e.stack.AbsoluteAt(sh - 2)
	if err != nil {
		e.handle.SetState(ExecStackOverflow)
		return errTerminal
	}
	retHomeVal, err := e.stack.AbsoluteAt(sh - 1)
	if err != nil {
		e.handle.SetState(ExecStackOverflow)
		return errTerminal
	}
	retIP, _ := retIPVal.ToIP()
	retHome, _ := retHomeVal.ToIP()

	if err := e.stack.RewindToNext(sh - 2); err != nil {
		e.handle.SetState(ExecStackOverflow)
		return errTerminal
	}
	e.stack.SetBottom(int(retHome))
	if err := e.push(retVal); err != nil {
		return err
	}
	e.ip = int(retIP)
	return e.trap()
}

// opCallForked and opCallDynForked implement the fork opcodes (spec
// §4.4 "Fork detail"): a Future is allocated first, a child executor
// is spawned to run the target routine, and the parent waits on the
// future's started handshake before continuing — by that point the
// child has already copied the arguments, so the parent may safely
// stop touching them.
func (e *Executor) opCallForked() error {
	argCount := int(e.readByte())
	target := e.readLabel()
	args, err := e.popArgs(argCount)
	if err != nil {
		return err
	}
	return e.spawnForked(target, args)
}

func (e *Executor) opCallDynForked() error {
	argCount := int(e.readByte())
	targetVal, err := e.pop()
	if err != nil {
		return err
	}
	args, err := e.popArgs(argCount)
	if err != nil {
		return err
	}
	ip, bound, ok := e.unpackDynTarget(targetVal)
	if !ok {
		e.handle.SetState(ExecInvalidAssembly)
		return errTerminal
	}
	return e.spawnForked(ip, append(bound, args...))
}

func (e *Executor) spawnForked(target uint32, args []Value) error {
	future, err := e.alloc.AllocFuture()
	if err != nil {
		e.handle.SetState(ExecAllocFailed)
		return errTerminal
	}
	if err := e.forkSem.Acquire(context.Background(), 1); err != nil {
		e.handle.SetState(ExecAllocFailed)
		return errTerminal
	}
	go func() {
		defer e.forkSem.Release(1)
		RunForkedEntry(e.exe, e.platform, e.registry, e.alloc, e.cfg, e.forkSem, target, args, future)
	}()
	future.WaitStarted()
	return e.push(RefValue(future))
}
