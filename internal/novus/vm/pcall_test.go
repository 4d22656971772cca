package vm

import (
	"testing"

	"github.com/novus-lang/novus/internal/novus/novasm"
)

func newTestExecutorWithPlatform(t *testing.T, exe *novasm.Executable, platform *PlatformInterface) *Executor {
	t.Helper()
	alloc := NewRefAllocator()
	registry := NewRegistry()
	cfg := DefaultLaunchConfig().WithStackCapacity(256)
	return NewExecutor(exe, platform, registry, alloc, cfg)
}

func assembleTCPOpenConnection(t *testing.T) *novasm.Executable {
	t.Helper()
	return assembleOrFatal(t, func(a *novasm.Assembler) {
		a.Label("main")
		a.SetEntrypoint("main")
		a.AddPCall(byte(PCallTCPOpenConnection))
		a.AddRet()
	})
}

func TestPcallSocketsDisabledGateReturnsNull(t *testing.T) {
	exe := assembleTCPOpenConnection(t)
	e := newTestExecutorWithPlatform(t, exe, &PlatformInterface{SocketsEnabled: false})

	state := e.Run()
	if state != ExecSuccess {
		t.Fatalf("Run() = %v, want Success", state)
	}
	v, err := e.stack.Peek(0)
	if err != nil {
		t.Fatalf("Peek(0): %v", err)
	}
	if v.Kind != VKNullRef {
		t.Fatalf("result = %+v, want NullRef", v)
	}
}

func TestPcallSocketsEnabledGateFailsDistinctlyFromDisabled(t *testing.T) {
	exe := assembleTCPOpenConnection(t)
	e := newTestExecutorWithPlatform(t, exe, &PlatformInterface{SocketsEnabled: true})

	state := e.Run()
	if state != ExecFailed {
		t.Fatalf("Run() = %v, want Failed (enabled gate must not masquerade as a disabled-gate null)", state)
	}
}
