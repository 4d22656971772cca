package vm

import "github.com/novus-lang/novus/internal/novus/platform"

// PlatformInterface is the host environment the executor is run against
// (spec §6): program identity, environment arguments, and the three
// standard streams.
type PlatformInterface struct {
	ProgramPath string
	EnvArgs     []string
	Stdin       *platform.Stream
	Stdout      *platform.Stream
	Stderr      *platform.Stream

	SocketsEnabled bool
}
