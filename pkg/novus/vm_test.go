package novus

import (
	"testing"

	"github.com/novus-lang/novus/internal/novus/novasm"
)

func assembleReturningLiteral(t *testing.T, v int32) *Executable {
	t.Helper()
	asm := novasm.New()
	asm.Label("main")
	asm.SetEntrypoint("main")
	asm.AddLoadLitInt(v)
	asm.AddRet()
	exe, err := asm.Close()
	if err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	return exe
}

func TestRunReturnsSuccessState(t *testing.T) {
	exe := assembleReturningLiteral(t, 42)

	state, err := Run(exe, DefaultPlatform(nil), DefaultConfig())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if state.ExitCode() != 0 {
		t.Fatalf("ExitCode() = %d, want 0", state.ExitCode())
	}
}

func TestRunDivByZeroReachesFailureExitCode(t *testing.T) {
	asm := novasm.New()
	asm.Label("main")
	asm.SetEntrypoint("main")
	asm.AddLoadLitInt(1)
	asm.AddLoadLitInt0()
	asm.AddDivInt()
	asm.AddRet()
	exe, err := asm.Close()
	if err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	state, runErr := Run(exe, DefaultPlatform(nil), DefaultConfig())
	if runErr == nil {
		t.Fatal("Run() should return an error for a DivByZero terminal state")
	}
	var novusErr *NovusError
	if !asNovusError(runErr, &novusErr) {
		t.Fatalf("Run() error is not *NovusError: %v", runErr)
	}
	if novusErr.Code != ErrExecution {
		t.Fatalf("Code = %v, want ErrExecution", novusErr.Code)
	}
	if state.ExitCode() == 0 {
		t.Fatalf("ExitCode() = 0, want nonzero for DivByZero")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	exe := assembleReturningLiteral(t, 1)
	cfg := DefaultConfig()
	cfg.StackCapacity = 0

	_, err := Run(exe, DefaultPlatform(nil), cfg)
	if err == nil {
		t.Fatalf("Run() with StackCapacity=0 should error")
	}
	var novusErr *NovusError
	if !asNovusError(err, &novusErr) {
		t.Fatalf("Run() error is not *NovusError: %v", err)
	}
	if novusErr.Code != ErrInvalidConfig {
		t.Fatalf("Code = %v, want ErrInvalidConfig", novusErr.Code)
	}
}

func asNovusError(err error, target **NovusError) bool {
	e, ok := err.(*NovusError)
	if !ok {
		return false
	}
	*target = e
	return true
}

func TestDefaultPlatformCarriesArgs(t *testing.T) {
	p := DefaultPlatform([]string{"a", "b"})
	if len(p.Args) != 2 || p.Args[0] != "a" || p.Args[1] != "b" {
		t.Fatalf("DefaultPlatform args = %v, want [a b]", p.Args)
	}
	if p.SocketsEnabled {
		t.Fatalf("DefaultPlatform SocketsEnabled = true, want false")
	}
}
