package vm

import (
	"sync"

	"github.com/google/uuid"
)

// RefKind discriminates the concrete heap object kinds (spec §3 Ref).
type RefKind uint8

const (
	RefKindString RefKind = iota
	RefKindStringLink
	RefKindLong
	RefKindStruct
	RefKindFuture
	RefKindAtomic
	RefKindStream
	RefKindProcess
	RefKindIOWatcher
)

// Ref is the common heap-object header threaded into the allocator's
// singly-linked global allocation list. Concrete payload fields below
// are populated according to Kind; unused fields for a given kind are
// left zero.
type Ref struct {
	Kind   RefKind
	Next   *Ref // allocator's global list link, CAS-appended
	Marked bool // GC mark bit; valid only during a collection cycle

	// RefKindString
	Bytes []byte

	// RefKindStringLink: a lazy concatenation node. Prev may itself be a
	// StringLink or a flat String; Value is the suffix appended at this
	// link. Collapsed caches the flattened result once computed.
	Prev      *Ref
	LinkValue Value
	Collapsed *Ref

	// RefKindLong
	Long int64

	// RefKindStruct
	Fields []Value

	// RefKindFuture
	futureMu    sync.Mutex
	futureCond  *sync.Cond
	Started     bool
	State       ExecState
	Result      Value
	OwnerID     uuid.UUID // forked executor's registry identity (spec §4.8)

	// RefKindAtomic
	atomicVal int32
	atomicMu  sync.Mutex

	// RefKindStream / RefKindProcess / RefKindIOWatcher: opaque payload
	// owned by internal/novus/platform, stored behind an interface so
	// this package has no platform import cycle.
	Platform interface{}
}

// NewFuture returns an unstarted Future ref. Its condition variable is
// created here, bound to futureMu.
func NewFuture() *Ref {
	r := &Ref{Kind: RefKindFuture, State: ExecRunning}
	r.futureCond = sync.NewCond(&r.futureMu)
	return r
}

// Owner returns the registry ID of the executor driving this future,
// valid once MarkStarted has been called. Lets a caller cross-reference
// Registry.List to find whether the executor backing a pending future
// is still alive.
func (r *Ref) Owner() uuid.UUID {
	r.futureMu.Lock()
	defer r.futureMu.Unlock()
	return r.OwnerID
}

// MarkStarted sets the parent-child handshake flag (spec §5 ordering
// guarantee (a)): the parent may safely stop touching arguments once
// this returns.
func (r *Ref) MarkStarted() {
	r.futureMu.Lock()
	r.Started = true
	r.futureMu.Unlock()
}

// WaitStarted blocks until MarkStarted has been called.
func (r *Ref) WaitStarted() {
	r.futureMu.Lock()
	for !r.Started {
		r.futureCond.Wait()
	}
	r.futureMu.Unlock()
}

// Resolve publishes result and state, then wakes every waiter (spec §5
// ordering guarantee (b): result is published before the state leaves
// Running).
func (r *Ref) Resolve(state ExecState, result Value) {
	r.futureMu.Lock()
	r.Result = result
	r.State = state
	r.futureMu.Unlock()
	r.futureCond.Broadcast()
}

// Poll reports the future's terminal state without blocking, or
// (Running, false) if not yet resolved.
func (r *Ref) Poll() (ExecState, bool) {
	r.futureMu.Lock()
	defer r.futureMu.Unlock()
	if r.State == ExecRunning {
		return ExecRunning, false
	}
	return r.State, true
}

// Block waits until the future resolves and returns its terminal state
// and result.
func (r *Ref) Block() (ExecState, Value) {
	r.futureMu.Lock()
	defer r.futureMu.Unlock()
	for r.State == ExecRunning {
		r.futureCond.Wait()
	}
	return r.State, r.Result
}

// AtomicLoad reads the atomic's int32 value.
func (r *Ref) AtomicLoad() int32 {
	r.atomicMu.Lock()
	defer r.atomicMu.Unlock()
	return r.atomicVal
}

// AtomicStore sets the atomic's int32 value.
func (r *Ref) AtomicStore(v int32) {
	r.atomicMu.Lock()
	r.atomicVal = v
	r.atomicMu.Unlock()
}

// AtomicCAS performs compare-and-swap, returning whether it took effect.
func (r *Ref) AtomicCAS(expected, newVal int32) bool {
	r.atomicMu.Lock()
	defer r.atomicMu.Unlock()
	if r.atomicVal != expected {
		return false
	}
	r.atomicVal = newVal
	return true
}

// Collapse flattens a StringLink chain into a single contiguous byte
// slice, per spec §4.4's "transparently collapse any StringLink chain"
// requirement for LengthString/IndexString/SliceString. It does not
// mutate the allocation list; the GC's mark phase is what may later
// rewrite chain pointers to the cached Collapsed ref (spec §4.6 step 6).
func (r *Ref) Collapse() []byte {
	switch r.Kind {
	case RefKindString:
		return r.Bytes
	case RefKindStringLink:
		if r.Collapsed != nil {
			return r.Collapsed.Bytes
		}
		var prevBytes []byte
		if r.Prev != nil {
			prevBytes = r.Prev.Collapse()
		}
		suffix, _ := valueAsStringBytes(r.LinkValue)
		out := make([]byte, 0, len(prevBytes)+len(suffix))
		out = append(out, prevBytes...)
		out = append(out, suffix...)
		return out
	default:
		return nil
	}
}

func valueAsStringBytes(v Value) ([]byte, bool) {
	if c, ok := v.ToInt32(); ok {
		// A char suffix, linked by AppendChar/CombineChar.
		return []byte{byte(c)}, true
	}
	if v.Kind != VKRef || v.Ref == nil {
		return nil, false
	}
	switch v.Ref.Kind {
	case RefKindString:
		return v.Ref.Bytes, true
	case RefKindStringLink:
		return v.Ref.Collapse(), true
	}
	return nil, false
}

// outgoingRefs returns every Ref directly reachable from r, for the
// GC's mark phase (spec §4.6 step 5).
func (r *Ref) outgoingRefs() []*Ref {
	switch r.Kind {
	case RefKindStruct:
		out := make([]*Ref, 0, len(r.Fields))
		for _, f := range r.Fields {
			if f.Kind == VKRef && f.Ref != nil {
				out = append(out, f.Ref)
			}
		}
		return out
	case RefKindFuture:
		r.futureMu.Lock()
		result := r.Result
		r.futureMu.Unlock()
		if result.Kind == VKRef && result.Ref != nil {
			return []*Ref{result.Ref}
		}
		return nil
	case RefKindStringLink:
		out := make([]*Ref, 0, 2)
		if r.Prev != nil {
			out = append(out, r.Prev)
		}
		if r.LinkValue.Kind == VKRef && r.LinkValue.Ref != nil {
			out = append(out, r.LinkValue.Ref)
		}
		if r.Collapsed != nil {
			out = append(out, r.Collapsed)
		}
		return out
	default:
		// Long, Atomic, String, stream/process/io-watcher: no outgoing refs.
		return nil
	}
}
