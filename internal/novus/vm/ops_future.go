package vm

import "time"

// pollFutureWithDeadline blocks on future's resolution up to nanos,
// returning whether it resolved in time. sync.Cond has no deadline
// form, so the wait is driven from a helper goroutine that signals
// back over a channel; the goroutine still completes (and exits) even
// past the deadline once the future eventually resolves.
func pollFutureWithDeadline(future *Ref, nanos int64) bool {
	done := make(chan struct{})
	go func() {
		future.Block()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(time.Duration(nanos)):
		_, resolved := future.Poll()
		return resolved
	}
}

// opFutureWaitNano implements WaitFuture (spec §4.4): it reads the
// timeout from its int64 immediate and pops the future. A non-positive
// timeout polls without blocking; a positive timeout blocks up to that
// many nanoseconds. Either way it pushes a bool reporting whether the
// future had resolved.
func (e *Executor) opFutureWaitNano() error {
	nanos := e.readInt64()
	futureVal, err := e.pop()
	if err != nil {
		return err
	}
	future, ok := e.futureOf(futureVal)
	if !ok {
		e.handle.SetState(ExecInvalidAssembly)
		return errTerminal
	}

	if nanos <= 0 {
		_, resolved := future.Poll()
		return e.push(boolValue(resolved))
	}

	if err := e.trap(); err != nil {
		return err
	}
	e.handle.SetState(ExecPaused)
	resolved := pollFutureWithDeadline(future, nanos)
	e.handle.SetState(ExecRunning)
	if err := e.trap(); err != nil {
		return err
	}
	return e.push(boolValue(resolved))
}

// opFutureBlock implements BlockFuture (spec §4.4): blocks until the
// future resolves, then pushes its result. A failed child state is
// adopted by the parent and ends the loop, per spec §5 propagation.
func (e *Executor) opFutureBlock() error {
	futureVal, err := e.pop()
	if err != nil {
		return err
	}
	future, ok := e.futureOf(futureVal)
	if !ok {
		e.handle.SetState(ExecInvalidAssembly)
		return errTerminal
	}

	if err := e.trap(); err != nil {
		return err
	}
	e.handle.SetState(ExecPaused)
	state, result := future.Block()
	e.handle.SetState(ExecRunning)
	if err := e.trap(); err != nil {
		return err
	}

	if !state.IsTerminal() || state == ExecSuccess {
		return e.push(result)
	}
	e.handle.SetState(state)
	return errTerminal
}

func (e *Executor) futureOf(v Value) (*Ref, bool) {
	if v.Kind != VKRef || v.Ref == nil || v.Ref.Kind != RefKindFuture {
		return nil, false
	}
	return v.Ref, true
}
