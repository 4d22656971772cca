package vm

import (
	"sync"
	"time"
)

// GCConfig tunes collection pacing (spec §4.6: "byte counter... drops
// below zero (interval target, e.g. 64 MiB)... periodic timer (every N
// seconds, e.g. 5)").
type GCConfig struct {
	IntervalBytes   int64
	IntervalSeconds int
}

// DefaultGCConfig matches the spec's example pacing numbers.
func DefaultGCConfig() GCConfig {
	return GCConfig{IntervalBytes: 64 << 20, IntervalSeconds: 5}
}

// GC is a dedicated goroutine running concurrent mark-and-sweep over a
// RefAllocator's allocation list, coordinated with the Registry's
// pause/resume protocol (spec §4.6).
type GC struct {
	cfg      GCConfig
	alloc    *RefAllocator
	registry *Registry

	mu       sync.Mutex
	cond     *sync.Cond
	pending  bool
	budget   int64
	stopCh   chan struct{}
	stopped  chan struct{}
	cycles   int
}

// NewGC wires a GC to alloc and registry, subscribing to the allocator's
// byte-size notifications to drive the interval-bytes trigger.
func NewGC(alloc *RefAllocator, registry *Registry, cfg GCConfig) *GC {
	g := &GC{
		cfg:      cfg,
		alloc:    alloc,
		registry: registry,
		budget:   cfg.IntervalBytes,
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	g.cond = sync.NewCond(&g.mu)
	alloc.Subscribe(func(size int) {
		g.mu.Lock()
		g.budget -= int64(size)
		if g.budget <= 0 {
			g.pending = true
			g.cond.Signal()
		}
		g.mu.Unlock()
	})
	return g
}

// Run drives the GC's request-and-collect loop until Stop is called.
// It owns one condition variable + mutex for request signaling, woken
// either by the byte-counter subscriber above or the periodic timer.
func (g *GC) Run() {
	defer close(g.stopped)
	timer := time.NewTicker(time.Duration(g.cfg.IntervalSeconds) * time.Second)
	defer timer.Stop()

	wake := make(chan struct{}, 1)
	go func() {
		for {
			g.mu.Lock()
			for !g.pending {
				select {
				case <-g.stopCh:
					g.mu.Unlock()
					return
				default:
				}
				g.cond.Wait()
			}
			g.pending = false
			g.mu.Unlock()
			select {
			case wake <- struct{}{}:
			case <-g.stopCh:
				return
			}
		}
	}()

	for {
		select {
		case <-g.stopCh:
			return
		case <-timer.C:
			g.Collect()
		case <-wake:
			g.Collect()
		}
	}
}

// Stop signals Run's loop to exit and waits for it to finish.
func (g *GC) Stop() {
	close(g.stopCh)
	g.mu.Lock()
	g.cond.Broadcast()
	g.mu.Unlock()
	<-g.stopped
}

// Collect runs one mark-and-sweep cycle synchronously, implementing
// spec §4.6's numbered steps.
func (g *GC) Collect() {
	// 1. Pause all executors.
	g.registry.PauseExecutors()

	// 2. Walk each paused executor's stack, seed the mark queue.
	var queue []*Ref
	for _, stack := range g.registry.Stacks() {
		stack.WalkValues(func(v Value) {
			if v.Kind == VKRef && v.Ref != nil {
				queue = append(queue, v.Ref)
			}
		})
	}

	// 3. Snapshot the sweep cursor: the current head. The head itself is
	// never swept (it may change concurrently once resumed).
	sweepFrom := g.alloc.Head()

	// 4. Resume executors.
	g.registry.ResumeExecutors()

	// 5. Drain the mark queue concurrently with mutators.
	seen := make(map[*Ref]bool, len(queue))
	for len(queue) > 0 {
		r := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if seen[r] {
			continue
		}
		seen[r] = true
		r.Marked = true

		// 6. StringLink collapse-cache optimization: flatten once, cache
		// the result as a plain String ref, then drop the chain pointers.
		// Collapse() checks Collapsed first, so later callers skip the
		// walk entirely. The chain pointers are only safe to drop once no
		// mutator can still be mid-read of them, which the pause/resume
		// already performed above guarantees for anything reached here.
		if r.Kind == RefKindStringLink && r.Collapsed == nil {
			flat := r.Collapse()
			if cached, cerr := g.alloc.AllocStringUnowned(flat); cerr == nil {
				r.Collapsed = cached
				r.Prev = nil
				r.LinkValue = Value{}
			}
		}

		queue = append(queue, r.outgoingRefs()...)
	}

	// 7. Sweep from the cursor. prev trails r so an unreachable node can
	// be unlinked in place; mutators only ever prepend at the true head,
	// never touch anything past the snapshot cursor, so this single
	// sequential pass is safe without extra locking.
	prev := sweepFrom
	for r := sweepFrom.Next; r != nil; {
		next := r.Next
		if seen[r] {
			r.Marked = false
			prev = r
		} else {
			g.alloc.destroy(r)
			prev.Next = next
		}
		r = next
	}

	g.cycles++
	g.mu.Lock()
	g.budget = g.cfg.IntervalBytes
	g.mu.Unlock()
}

// Cycles returns the number of completed collection cycles, for tests.
func (g *GC) Cycles() int { return g.cycles }
