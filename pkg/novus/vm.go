package novus

import (
	"os"

	"github.com/novus-lang/novus/internal/novus/platform"
	"github.com/novus-lang/novus/internal/novus/vm"
)

// Run loads exe onto a fresh executor wired to platform, drives a
// background GC, and runs the program to a terminal ExecState. Standard
// streams are always the process's own stdin/stdout/stderr; platform
// only supplies program identity, arguments, and the socket gate.
func Run(exe *Executable, plat *Platform, cfg RunConfig) (ExecState, error) {
	if plat == nil {
		plat = DefaultPlatform(nil)
	}
	internalCfg := cfg.toInternal(plat.SocketsEnabled)
	if err := internalCfg.Validate(); err != nil {
		return 0, &NovusError{Code: ErrInvalidConfig, Message: "invalid run configuration", Cause: err}
	}

	iface := &vm.PlatformInterface{
		ProgramPath:    plat.ProgramPath,
		EnvArgs:        plat.Args,
		Stdin:          platform.OpenConsole(os.Stdin),
		Stdout:         platform.OpenConsole(os.Stdout),
		Stderr:         platform.OpenConsole(os.Stderr),
		SocketsEnabled: plat.SocketsEnabled,
	}

	registry := vm.NewRegistry()
	alloc := vm.NewRefAllocator()
	// Non-positive pacing fields keep the vm.DefaultGCConfig values.
	gcCfg := vm.DefaultGCConfig()
	if cfg.GCIntervalBytes > 0 {
		gcCfg.IntervalBytes = cfg.GCIntervalBytes
	}
	if cfg.GCIntervalSeconds > 0 {
		gcCfg.IntervalSeconds = cfg.GCIntervalSeconds
	}
	gc := vm.NewGC(alloc, registry, gcCfg)
	go gc.Run()
	defer gc.Stop()

	executor := vm.NewExecutor(exe, iface, registry, alloc, internalCfg)
	state := executor.Run()
	if state != vm.ExecSuccess {
		return state, &NovusError{Code: ErrExecution, Message: "executor reached a failure state: " + state.String()}
	}
	return state, nil
}
