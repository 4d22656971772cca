package novus

import (
	"github.com/novus-lang/novus/internal/novus/novasm"
	"github.com/novus-lang/novus/internal/novus/vm"
)

// Executable is an assembled Novus program, produced by
// internal/novus/novasm and loadable from the bit-exact NOVA format.
type Executable = novasm.Executable

// ExecState is an executor's terminal-or-running state.
type ExecState = vm.ExecState

// Platform describes the host resources a run is given: program
// identity/arguments and whether the socket pcall family is enabled.
// Standard streams are always wired to the process's own stdin/stdout/
// stderr; Run builds the internal console handles itself.
type Platform struct {
	ProgramPath    string
	Args           []string
	SocketsEnabled bool
}

// DefaultPlatform returns a Platform carrying args as the program's
// environment arguments, with sockets disabled.
func DefaultPlatform(args []string) *Platform {
	return &Platform{Args: args}
}

// RunConfig tunes a single Run call (stack capacity, GC pacing, fork
// concurrency ceiling). The fields mirror internal/novus/vm.LaunchConfig
// but are kept as a distinct public type so internal tuning knobs can
// change shape without breaking this API.
type RunConfig struct {
	StackCapacity     int
	GCIntervalBytes   int64
	GCIntervalSeconds int
	ForkThreadLimit   int
}

// DefaultConfig returns the recommended RunConfig for embedding.
func DefaultConfig() RunConfig {
	d := vm.DefaultLaunchConfig()
	return RunConfig{
		StackCapacity:     d.StackCapacity,
		GCIntervalBytes:   d.GCIntervalBytes,
		GCIntervalSeconds: d.GCIntervalSeconds,
		ForkThreadLimit:   d.ForkThreadLimit,
	}
}

func (c RunConfig) toInternal(socketsEnabled bool) vm.LaunchConfig {
	return vm.LaunchConfig{
		StackCapacity:     c.StackCapacity,
		GCIntervalBytes:   c.GCIntervalBytes,
		GCIntervalSeconds: c.GCIntervalSeconds,
		SocketsEnabled:    socketsEnabled,
		ForkThreadLimit:   c.ForkThreadLimit,
	}
}
