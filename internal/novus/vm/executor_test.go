package vm

import (
	"testing"
	"time"

	"github.com/novus-lang/novus/internal/novus/novasm"
)

func newTestExecutor(t *testing.T, exe *novasm.Executable) *Executor {
	t.Helper()
	alloc := NewRefAllocator()
	registry := NewRegistry()
	platform := &PlatformInterface{}
	cfg := DefaultLaunchConfig().WithStackCapacity(256)
	return NewExecutor(exe, platform, registry, alloc, cfg)
}

func assembleOrFatal(t *testing.T, build func(a *novasm.Assembler)) *novasm.Executable {
	t.Helper()
	a := novasm.New()
	build(a)
	exe, err := a.Close()
	if err != nil {
		t.Fatalf("assembling program: %v", err)
	}
	return exe
}

func topInt32(t *testing.T, e *Executor) int32 {
	t.Helper()
	v, err := e.stack.Peek(0)
	if err != nil {
		t.Fatalf("Peek(0): %v", err)
	}
	n, ok := v.ToInt32()
	if !ok {
		t.Fatalf("top of stack is not an int32: %+v", v)
	}
	return n
}

func TestExecutorSimpleArithmeticReturn(t *testing.T) {
	exe := assembleOrFatal(t, func(a *novasm.Assembler) {
		a.Label("main")
		a.SetEntrypoint("main")
		a.AddLoadLitInt(2)
		a.AddLoadLitInt(3)
		a.AddAddInt()
		a.AddRet()
	})
	e := newTestExecutor(t, exe)
	state := e.Run()
	if state != ExecSuccess {
		t.Fatalf("Run() = %v, want Success", state)
	}
	if n := topInt32(t, e); n != 5 {
		t.Fatalf("result = %d, want 5", n)
	}
}

func TestExecutorDivByZeroTransitionsState(t *testing.T) {
	exe := assembleOrFatal(t, func(a *novasm.Assembler) {
		a.Label("main")
		a.SetEntrypoint("main")
		a.AddLoadLitInt(1)
		a.AddLoadLitInt(0)
		a.AddDivInt()
		a.AddRet()
	})
	e := newTestExecutor(t, exe)
	if state := e.Run(); state != ExecDivByZero {
		t.Fatalf("Run() = %v, want DivByZero", state)
	}
}

func TestExecutorCallAndReturn(t *testing.T) {
	exe := assembleOrFatal(t, func(a *novasm.Assembler) {
		a.Label("add")
		a.AddStackLoadSmall(0)
		a.AddStackLoadSmall(1)
		a.AddAddInt()
		a.AddRet()

		a.Label("main")
		a.SetEntrypoint("main")
		a.AddLoadLitInt(2)
		a.AddLoadLitInt(3)
		a.AddCall(2, "add")
		a.AddRet()
	})
	e := newTestExecutor(t, exe)
	state := e.Run()
	if state != ExecSuccess {
		t.Fatalf("Run() = %v, want Success", state)
	}
	if n := topInt32(t, e); n != 5 {
		t.Fatalf("result = %d, want 5", n)
	}
}

func TestExecutorTailCallReusesFrame(t *testing.T) {
	// countdown(n): if n == 0 return 0; else countdown_tail(n-1) via
	// CallTail, which must not grow the stack across iterations.
	exe := assembleOrFatal(t, func(a *novasm.Assembler) {
		a.Label("countdown")
		a.AddStackLoadSmall(0)
		a.AddLoadLitInt(0)
		a.AddCheckEqInt()
		a.AddJumpIf("base")
		a.AddStackLoadSmall(0)
		a.AddLoadLitInt(1)
		a.AddSubInt()
		a.AddCallTail(1, "countdown")
		a.Label("base")
		a.AddLoadLitInt(0)
		a.AddRet()

		a.Label("main")
		a.SetEntrypoint("main")
		a.AddLoadLitInt(50)
		a.AddCall(1, "countdown")
		a.AddRet()
	})
	e := newTestExecutor(t, exe)
	state := e.Run()
	if state != ExecSuccess {
		t.Fatalf("Run() = %v, want Success", state)
	}
	if n := topInt32(t, e); n != 0 {
		t.Fatalf("result = %d, want 0", n)
	}
}

func TestExecutorJumpIfBranches(t *testing.T) {
	exe := assembleOrFatal(t, func(a *novasm.Assembler) {
		a.Label("main")
		a.SetEntrypoint("main")
		a.AddLoadLitInt(1)
		a.AddJumpIf("ok")
		a.AddLoadLitInt(0)
		a.AddRet()
		a.Label("ok")
		a.AddLoadLitInt(42)
		a.AddRet()
	})
	e := newTestExecutor(t, exe)
	state := e.Run()
	if state != ExecSuccess {
		t.Fatalf("Run() = %v, want Success", state)
	}
	if n := topInt32(t, e); n != 42 {
		t.Fatalf("result = %d, want 42", n)
	}
}

func TestExecutorClosureCallDyn(t *testing.T) {
	// A closure struct whose last field is the target IP and whose
	// earlier fields are bound args (spec §4.4 CallDyn unpacking).
	exe := assembleOrFatal(t, func(a *novasm.Assembler) {
		a.Label("addN")
		a.AddStackLoadSmall(0) // bound arg
		a.AddStackLoadSmall(1) // explicit arg
		a.AddAddInt()
		a.AddRet()

		a.Label("main")
		a.SetEntrypoint("main")
		a.AddLoadLitInt(100) // bound arg value
		a.AddLoadLitIp("addN")
		a.AddMakeStruct(2) // {bound=100, target=addN}
		a.AddLoadLitInt(5) // explicit arg
		a.AddSwap()
		a.AddCallDyn(1)
		a.AddRet()
	})
	e := newTestExecutor(t, exe)
	state := e.Run()
	if state != ExecSuccess {
		t.Fatalf("Run() = %v, want Success", state)
	}
	if n := topInt32(t, e); n != 105 {
		t.Fatalf("result = %d, want 105", n)
	}
}

func TestExecutorForkAndBlockOnFuture(t *testing.T) {
	exe := assembleOrFatal(t, func(a *novasm.Assembler) {
		a.Label("main")
		a.SetEntrypoint("main")
		a.AddLoadLitInt(7)
		a.AddCallForked(1, "double")
		a.AddFutureBlock()
		a.AddRet()

		a.Label("double")
		a.AddStackLoadSmall(0)
		a.AddStackLoadSmall(0)
		a.AddAddInt()
		a.AddRet()
	})
	e := newTestExecutor(t, exe)

	done := make(chan ExecState, 1)
	go func() { done <- e.Run() }()

	select {
	case state := <-done:
		if state != ExecSuccess {
			t.Fatalf("Run() = %v, want Success", state)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("forked execution did not complete in time")
	}
	if n := topInt32(t, e); n != 14 {
		t.Fatalf("result = %d, want 14", n)
	}
}

func TestExecutorForkZeroArgEntryStackHomeUnaffectedByFutureSlot(t *testing.T) {
	exe := assembleOrFatal(t, func(a *novasm.Assembler) {
		a.Label("main")
		a.SetEntrypoint("main")
		a.AddCallForked(0, "constant")
		a.AddFutureBlock()
		a.AddRet()

		a.Label("constant")
		a.AddLoadLitInt(42)
		a.AddRet()
	})
	e := newTestExecutor(t, exe)

	done := make(chan ExecState, 1)
	go func() { done <- e.Run() }()

	select {
	case state := <-done:
		if state != ExecSuccess {
			t.Fatalf("Run() = %v, want Success", state)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("forked execution did not complete in time")
	}
	if n := topInt32(t, e); n != 42 {
		t.Fatalf("result = %d, want 42", n)
	}
}

func TestExecutorFutureWaitNanoNonBlockingPoll(t *testing.T) {
	exe := assembleOrFatal(t, func(a *novasm.Assembler) {
		a.Label("main")
		a.SetEntrypoint("main")
		a.AddLoadLitInt(1)
		a.AddCallForked(1, "identity")
		a.AddFutureWaitNano(0)
		a.AddRet()

		a.Label("identity")
		a.AddStackLoadSmall(0)
		a.AddRet()
	})
	e := newTestExecutor(t, exe)
	state := e.Run()
	if state != ExecSuccess {
		t.Fatalf("Run() = %v, want Success", state)
	}
	// Result is a bool (0 or 1 as int32) reporting whether the future had
	// already resolved; either outcome is a valid poll, so just check the
	// program ran to completion without getting stuck.
	_ = topInt32(t, e)
}
