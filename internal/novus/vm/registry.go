package vm

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ExecutorHandle is a per-executor record living on the executor
// thread's own native stack (spec §3 "Executable handle"): atomic
// state and request fields, plus prev/next links in the Registry's
// doubly-linked list.
type ExecutorHandle struct {
	ID uuid.UUID

	state   atomic.Int32 // ExecState
	request atomic.Int32 // RequestType

	stack *Stack

	prev *ExecutorHandle
	next *ExecutorHandle
}

// NewExecutorHandle returns a handle in the Running state, not yet
// registered.
func NewExecutorHandle(stack *Stack) *ExecutorHandle {
	h := &ExecutorHandle{ID: uuid.New(), stack: stack}
	h.state.Store(int32(ExecRunning))
	h.request.Store(int32(ReqNone))
	return h
}

// State returns the handle's current ExecState.
func (h *ExecutorHandle) State() ExecState { return ExecState(h.state.Load()) }

// SetState transitions the handle to s.
func (h *ExecutorHandle) SetState(s ExecState) { h.state.Store(int32(s)) }

// Request returns the outstanding RequestType.
func (h *ExecutorHandle) Request() RequestType { return RequestType(h.request.Load()) }

// SetRequest records an out-of-band request from the Registry.
func (h *ExecutorHandle) SetRequest(r RequestType) { h.request.Store(int32(r)) }

// Trap is the per-instruction poll of the Abort/Pause request bit
// (spec §4.4 "Trap", §5). Any tail call, return, and blocking pcall
// calls this exactly once on resume. Returns false if the caller must
// exit (Aborted).
func (h *ExecutorHandle) Trap() bool {
	switch h.Request() {
	case ReqAbort:
		h.SetState(ExecAborted)
		return false
	case ReqPause:
		h.SetState(ExecPaused)
		for h.Request() == ReqPause {
			time.Sleep(0)
		}
		if h.Request() == ReqAbort {
			h.SetState(ExecAborted)
			return false
		}
		h.SetState(ExecRunning)
	}
	return true
}

// Registry is the process-wide doubly-linked list of live executors
// (spec §4.8), protected by a mutex.
type Registry struct {
	mu   sync.Mutex
	head *ExecutorHandle
	tail *ExecutorHandle
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

// Register links h into the list. Called at the start of execute.
func (reg *Registry) Register(h *ExecutorHandle) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.tail == nil {
		reg.head, reg.tail = h, h
		return
	}
	h.prev = reg.tail
	reg.tail.next = h
	reg.tail = h
}

// Unregister unlinks h. Called when execute ends in any state other
// than Aborted; an aborted executor never calls this (spec §4.8).
func (reg *Registry) Unregister(h *ExecutorHandle) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if h.prev != nil {
		h.prev.next = h.next
	} else if reg.head == h {
		reg.head = h.next
	}
	if h.next != nil {
		h.next.prev = h.prev
	} else if reg.tail == h {
		reg.tail = h.prev
	}
	h.prev, h.next = nil, nil
}

// snapshot returns every currently-registered handle.
func (reg *Registry) snapshot() []*ExecutorHandle {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	var out []*ExecutorHandle
	for h := reg.head; h != nil; h = h.next {
		out = append(out, h)
	}
	return out
}

// Listing is one entry of Registry.List: an executor's identity and
// the state it reported at snapshot time.
type Listing struct {
	ID    uuid.UUID
	State ExecState
}

// List returns every registered executor's identity and state, keyed
// by the same UUID a forked executor's Future carries in OwnerID
// (spec §4.8 registry listings).
func (reg *Registry) List() []Listing {
	handles := reg.snapshot()
	out := make([]Listing, 0, len(handles))
	for _, h := range handles {
		out = append(out, Listing{ID: h.ID, State: h.State()})
	}
	return out
}

// PauseExecutors requests Pause on every handle and spins until each
// reports a non-Running state (spec §4.6 step 1, §4.8). Handles already
// inside a blocking pcall will already be Paused.
func (reg *Registry) PauseExecutors() {
	handles := reg.snapshot()
	for _, h := range handles {
		h.SetRequest(ReqPause)
	}
	for _, h := range handles {
		for h.State() == ExecRunning {
			time.Sleep(0)
		}
	}
}

// ResumeExecutors clears every handle's request (spec §4.6 step 4).
func (reg *Registry) ResumeExecutors() {
	for _, h := range reg.snapshot() {
		h.SetRequest(ReqNone)
	}
}

// AbortExecutors pauses every executor, then requests Abort on all of
// them and clears the list — aborted executors do not unregister
// themselves (spec §4.8, §5 Cancellation semantics).
func (reg *Registry) AbortExecutors() {
	reg.PauseExecutors()
	handles := reg.snapshot()
	for _, h := range handles {
		h.SetRequest(ReqAbort)
	}
	reg.mu.Lock()
	reg.head, reg.tail = nil, nil
	reg.mu.Unlock()
}

// Stacks returns every registered executor's Stack, for the GC's
// mark phase (spec §4.6 step 2).
func (reg *Registry) Stacks() []*Stack {
	handles := reg.snapshot()
	out := make([]*Stack, 0, len(handles))
	for _, h := range handles {
		out = append(out, h.stack)
	}
	return out
}
