package vm

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/sync/semaphore"

	"github.com/novus-lang/novus/internal/novus/novasm"
)

// errAborted and errTerminal are internal sentinels: the main loop
// checks for them after an op handler to know the loop should exit
// without wrapping the error further (the ExecState already records
// why).
var errAborted = fmt.Errorf("executor aborted")
var errTerminal = fmt.Errorf("executor reached a terminal state")

// LaunchConfig tunes a single executor run (spec §4.4 pre-loop, §4.6
// pacing).
type LaunchConfig struct {
	StackCapacity     int
	GCIntervalBytes   int64
	GCIntervalSeconds int
	SocketsEnabled    bool
	ForkThreadLimit   int
}

// DefaultLaunchConfig mirrors the teacher's DefaultConfig()/With*
// builder idiom (see utils/config.go).
func DefaultLaunchConfig() LaunchConfig {
	return LaunchConfig{
		StackCapacity:     64 * 1024,
		GCIntervalBytes:   64 << 20,
		GCIntervalSeconds: 5,
		ForkThreadLimit:   256,
	}
}

func (c LaunchConfig) WithStackCapacity(n int) LaunchConfig { c.StackCapacity = n; return c }
func (c LaunchConfig) WithSocketsEnabled(v bool) LaunchConfig { c.SocketsEnabled = v; return c }

// Validate reports a config error, matching the teacher's config.go
// Validate() idiom.
func (c LaunchConfig) Validate() error {
	if c.StackCapacity <= 0 {
		return fmt.Errorf("vm: StackCapacity must be positive")
	}
	if c.ForkThreadLimit <= 0 {
		return fmt.Errorf("vm: ForkThreadLimit must be positive")
	}
	return nil
}

// Executor is one logical thread of bytecode execution (spec §4.4),
// invoked once per OS goroutine; one per executor.
type Executor struct {
	exe      *novasm.Executable
	platform *PlatformInterface
	registry *Registry
	alloc    *RefAllocator

	stack  *Stack
	handle *ExecutorHandle
	ip     int
	cfg    LaunchConfig

	// forkSem bounds the number of concurrently live forked executors
	// across an entire call tree to cfg.ForkThreadLimit (spec §5
	// resource model); shared with every executor spawned from this one.
	forkSem *semaphore.Weighted

	// future is non-nil when this executor is driving a forked call's
	// promise (spec §4.4 pre-loop).
	future *Ref
}

// NewExecutor wires an executor over exe, ready to run from entrypoint.
func NewExecutor(exe *novasm.Executable, platform *PlatformInterface, registry *Registry, alloc *RefAllocator, cfg LaunchConfig) *Executor {
	stack := NewStack(cfg.StackCapacity)
	handle := NewExecutorHandle(stack)
	return &Executor{
		exe:      exe,
		platform: platform,
		registry: registry,
		alloc:    alloc,
		stack:    stack,
		handle:   handle,
		ip:       int(exe.Entrypoint),
		cfg:      cfg,
		forkSem:  semaphore.NewWeighted(int64(cfg.ForkThreadLimit)),
	}
}

// Run drives the executor from its entrypoint to a terminal ExecState
// (spec §4.4 pre-loop + main loop).
func (e *Executor) Run() ExecState {
	e.registry.Register(e.handle)
	defer func() {
		if e.handle.State() != ExecAborted {
			e.registry.Unregister(e.handle)
		}
	}()

	for {
		state := e.handle.State()
		if state.IsTerminal() {
			return state
		}
		if err := e.step(); err != nil {
			if e.handle.State() == ExecRunning {
				e.handle.SetState(ExecFailed)
			}
			return e.handle.State()
		}
	}
}

// RunForkedEntry prepares an executor for a forked call: copies args
// onto a fresh stack, signals the future as started, then runs to
// completion and publishes the result. forkSem is shared with the
// parent so the whole call tree respects one fork-thread budget.
func RunForkedEntry(exe *novasm.Executable, platform *PlatformInterface, registry *Registry, alloc *RefAllocator, cfg LaunchConfig, forkSem *semaphore.Weighted, entrypoint uint32, args []Value, future *Ref) {
	stack := NewStack(cfg.StackCapacity)
	handle := NewExecutorHandle(stack)
	ex := &Executor{
		exe:      exe,
		platform: platform,
		registry: registry,
		alloc:    alloc,
		stack:    stack,
		handle:   handle,
		ip:       int(entrypoint),
		cfg:      cfg,
		forkSem:  forkSem,
		future:   future,
	}

	// Push the promise ref itself below the frame's stack home (spec
	// §4.4 pre-loop): WalkValues scans from absolute index 0, so the GC's
	// mark phase reaches it through the child's own stack, but SetBottom
	// below hides it from frame-relative StackLoad/StackStore, so user
	// code can never address it. Without this the future is reachable
	// only via the parent's stack and can be swept out from under the
	// child once the parent drops its reference.
	_ = stack.Push(RefValue(future))
	stack.SetBottom(stack.Next())

	for _, a := range args {
		_ = stack.Push(a)
	}
	future.OwnerID = handle.ID
	future.MarkStarted()
	state := ex.Run()
	result, _ := stack.Peek(0)
	future.Resolve(state, result)
}

// step fetches, checks stack effects are implicit in the handler, and
// dispatches one opcode.
func (e *Executor) step() error {
	if e.ip < 0 || e.ip >= len(e.exe.Code) {
		e.handle.SetState(ExecInvalidAssembly)
		return errTerminal
	}
	op := novasm.Opcode(e.exe.Code[e.ip])
	e.ip++
	return e.dispatch(op)
}

// --- immediate readers ---

func (e *Executor) readByte() byte {
	b := e.exe.Code[e.ip]
	e.ip++
	return b
}

func (e *Executor) readUint16() uint16 {
	v := binary.LittleEndian.Uint16(e.exe.Code[e.ip:])
	e.ip += 2
	return v
}

func (e *Executor) readInt32() int32 {
	v := binary.LittleEndian.Uint32(e.exe.Code[e.ip:])
	e.ip += 4
	return int32(v)
}

func (e *Executor) readUint32() uint32 {
	v := binary.LittleEndian.Uint32(e.exe.Code[e.ip:])
	e.ip += 4
	return v
}

func (e *Executor) readInt64() int64 {
	v := binary.LittleEndian.Uint64(e.exe.Code[e.ip:])
	e.ip += 8
	return int64(v)
}

func (e *Executor) readFloat32() float32 {
	return math.Float32frombits(e.readUint32())
}

func (e *Executor) readLabel() uint32 { return e.readUint32() }

// --- stack helpers ---

func (e *Executor) push(v Value) error {
	if err := e.stack.Push(v); err != nil {
		e.handle.SetState(ExecStackOverflow)
		return errTerminal
	}
	return nil
}

func (e *Executor) pop() (Value, error) {
	v, err := e.stack.Pop()
	if err != nil {
		e.handle.SetState(ExecStackOverflow)
		return Value{}, errTerminal
	}
	return v, nil
}

func (e *Executor) stringOf(v Value) (string, bool) {
	if v.Kind != VKRef || v.Ref == nil {
		return "", false
	}
	switch v.Ref.Kind {
	case RefKindString:
		return string(v.Ref.Bytes), true
	case RefKindStringLink:
		return string(v.Ref.Collapse()), true
	}
	return "", false
}

// trap polls the registry's request bit; returns errAborted if the
// executor must exit (spec §4.4 "Trap").
func (e *Executor) trap() error {
	if !e.handle.Trap() {
		return errAborted
	}
	return nil
}
