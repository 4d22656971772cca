package vm

import (
	"fmt"
	"sync/atomic"
)

// ErrAllocFailed is the error for an allocation that cannot be
// satisfied. No RefAllocator method returns it: the Go runtime's
// allocator does not fail the way a fixed-arena allocator can, and this
// allocator imposes no artificial memory ceiling of its own.
var ErrAllocFailed = fmt.Errorf("allocation failed")

// AllocObserver is notified with the byte size of every allocation; the
// GC subscribes to drive collection pacing (spec §4.5).
type AllocObserver func(size int)

// RefAllocator owns the singly-linked list of live heap objects,
// appended atomically via CAS so mutators on multiple executor threads
// may allocate concurrently (spec §4.5).
type RefAllocator struct {
	head      atomic.Pointer[Ref]
	observers []AllocObserver
	liveCount atomic.Int64
}

// NewRefAllocator returns an empty allocator. A sentinel head node
// (never freed, per spec §4.6 step 7 "the head allocation is never
// freed") anchors the list so Sweep always has a stable starting node.
func NewRefAllocator() *RefAllocator {
	a := &RefAllocator{}
	sentinel := &Ref{Kind: RefKindAtomic}
	a.head.Store(sentinel)
	return a
}

// Subscribe registers an observer notified on every allocation.
func (a *RefAllocator) Subscribe(obs AllocObserver) {
	a.observers = append(a.observers, obs)
}

// Head returns the current head of the allocation list (acquire read,
// spec §5 ordering guarantee (c)).
func (a *RefAllocator) Head() *Ref { return a.head.Load() }

// LiveCount reports the number of currently-allocated refs, used by
// the concurrency-safety test property (spec §8).
func (a *RefAllocator) LiveCount() int64 { return a.liveCount.Load() }

// prepend atomically pushes r onto the global allocation list via a CAS
// retry loop, notifies observers, and returns r.
func (a *RefAllocator) prepend(r *Ref, payloadSize int) *Ref {
	for {
		old := a.head.Load()
		r.Next = old
		if a.head.CompareAndSwap(old, r) {
			break
		}
	}
	a.liveCount.Add(1)
	headerSize := 24
	for _, obs := range a.observers {
		obs(headerSize + payloadSize)
	}
	return r
}

// AllocString allocates a String ref holding its own copy of s, so the
// caller's slice may be reused.
func (a *RefAllocator) AllocString(s []byte) (*Ref, error) {
	bytes := make([]byte, len(s))
	copy(bytes, s)
	r := &Ref{Kind: RefKindString, Bytes: bytes}
	return a.prepend(r, len(bytes)), nil
}

// AllocStringUnowned allocates a String ref wrapping bytes directly,
// without copying. Used only for literal loads, where bytes is owned
// by the executable image for the whole run and is never mutated.
func (a *RefAllocator) AllocStringUnowned(bytes []byte) (*Ref, error) {
	r := &Ref{Kind: RefKindString, Bytes: bytes}
	return a.prepend(r, len(bytes)), nil
}

// AllocStringLink allocates a lazy concatenation node.
func (a *RefAllocator) AllocStringLink(prev *Ref, value Value) (*Ref, error) {
	r := &Ref{Kind: RefKindStringLink, Prev: prev, LinkValue: value}
	return a.prepend(r, 0), nil
}

// AllocLong allocates a LongRef holding a negative int64 (invariant (a)).
func (a *RefAllocator) AllocLong(v int64) (*Ref, error) {
	r := &Ref{Kind: RefKindLong, Long: v}
	return a.prepend(r, 8), nil
}

// AllocStruct allocates a Struct ref with the given field values (field
// 0 is first-pushed, per MakeStruct's pop order).
func (a *RefAllocator) AllocStruct(fields []Value) (*Ref, error) {
	r := &Ref{Kind: RefKindStruct, Fields: fields}
	return a.prepend(r, len(fields)*16), nil
}

// AllocFuture allocates an unstarted Future ref.
func (a *RefAllocator) AllocFuture() (*Ref, error) {
	r := NewFuture()
	return a.prepend(r, 0), nil
}

// AllocAtomic allocates an Atomic ref initialized to v.
func (a *RefAllocator) AllocAtomic(v int32) (*Ref, error) {
	r := &Ref{Kind: RefKindAtomic}
	r.atomicVal = v
	return a.prepend(r, 4), nil
}

// AllocPlatform allocates a stream/process/io-watcher ref wrapping an
// opaque platform-owned payload.
func (a *RefAllocator) AllocPlatform(kind RefKind, payload interface{}) (*Ref, error) {
	r := &Ref{Kind: kind, Platform: payload}
	return a.prepend(r, 0), nil
}

// destroy releases r. Called only by the GC thread during sweep (spec
// §4.5 "allocations are never destructed on the mutator thread").
func (a *RefAllocator) destroy(r *Ref) {
	a.liveCount.Add(-1)
	switch r.Kind {
	case RefKindStream, RefKindProcess, RefKindIOWatcher:
		if closer, ok := r.Platform.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
}
