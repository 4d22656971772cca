package vm

import "runtime"

// opAllocAtomic pops an int32 initial value and pushes a fresh Atomic
// ref wrapping it (spec §3 Ref kinds, "Atomic (i32)").
func (e *Executor) opAllocAtomic() error {
	initVal, err := e.pop()
	if err != nil {
		return err
	}
	init, _ := initVal.ToInt32()
	ref, aerr := e.alloc.AllocAtomic(init)
	if aerr != nil {
		e.handle.SetState(ExecAllocFailed)
		return errTerminal
	}
	return e.push(RefValue(ref))
}

func (e *Executor) atomicOf(v Value) (*Ref, bool) {
	if v.Kind != VKRef || v.Ref == nil || v.Ref.Kind != RefKindAtomic {
		return nil, false
	}
	return v.Ref, true
}

// opAtomicLoad pops an Atomic ref and pushes its current int32 value.
func (e *Executor) opAtomicLoad() error {
	refVal, err := e.pop()
	if err != nil {
		return err
	}
	ref, ok := e.atomicOf(refVal)
	if !ok {
		e.handle.SetState(ExecInvalidAssembly)
		return errTerminal
	}
	return e.push(Int32(ref.AtomicLoad()))
}

// opAtomicStore pops (ref, newVal) top-first and stores newVal.
func (e *Executor) opAtomicStore() error {
	newValVal, err := e.pop()
	if err != nil {
		return err
	}
	refVal, err := e.pop()
	if err != nil {
		return err
	}
	ref, ok := e.atomicOf(refVal)
	if !ok {
		e.handle.SetState(ExecInvalidAssembly)
		return errTerminal
	}
	newVal, _ := newValVal.ToInt32()
	ref.AtomicStore(newVal)
	return nil
}

// opAtomicCAS pops (ref, expected, newVal) top-first — newVal is pushed
// last — and pushes whether the compare-and-swap took effect (spec
// §5's sequentially-consistent load/compareAndSwap guarantee).
func (e *Executor) opAtomicCAS() error {
	newValVal, err := e.pop()
	if err != nil {
		return err
	}
	expectedVal, err := e.pop()
	if err != nil {
		return err
	}
	refVal, err := e.pop()
	if err != nil {
		return err
	}
	ref, ok := e.atomicOf(refVal)
	if !ok {
		e.handle.SetState(ExecInvalidAssembly)
		return errTerminal
	}
	expected, _ := expectedVal.ToInt32()
	newVal, _ := newValVal.ToInt32()
	return e.push(boolValue(ref.AtomicCAS(expected, newVal)))
}

// opAtomicBlock pops (ref, expected) top-first and spin-yields until the
// atomic's value equals expected (spec §5: "Atomic.block(expected) is a
// spin-yield that repeatedly loads and returns only when the observed
// value equals expected"). Bracketed with Paused/Running and a trap
// check like every other suspension point, so an abort request can
// still interrupt a stuck spin.
func (e *Executor) opAtomicBlock() error {
	expectedVal, err := e.pop()
	if err != nil {
		return err
	}
	refVal, err := e.pop()
	if err != nil {
		return err
	}
	ref, ok := e.atomicOf(refVal)
	if !ok {
		e.handle.SetState(ExecInvalidAssembly)
		return errTerminal
	}
	expected, _ := expectedVal.ToInt32()

	e.handle.SetState(ExecPaused)
	for ref.AtomicLoad() != expected {
		if e.handle.Request() == ReqAbort {
			e.handle.SetState(ExecAborted)
			return errTerminal
		}
		runtime.Gosched()
	}
	e.handle.SetState(ExecRunning)
	if !e.handle.Trap() {
		return errAborted
	}
	return nil
}
