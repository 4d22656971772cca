// Package novus provides the public API for the Novus bytecode virtual
// machine: an embeddable interpreter for a single assembled Novus
// executable.
//
// # Quick Start
//
// Assemble a program and run it:
//
//	asm := novasm.New()
//	asm.Label("main")
//	asm.SetEntrypoint("main")
//	asm.AddLoadLitInt(42)
//	asm.AddRet()
//	exe, err := asm.Close()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	platform := novus.DefaultPlatform(os.Args[1:])
//	result, err := novus.Run(exe, platform, novus.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	os.Exit(result.ExitCode())
//
// # Architecture
//
// Novus uses a hybrid public/private architecture:
//
//   - pkg/novus/: public API (this package)
//   - internal/novus/: private implementation (not importable)
//
// The public API provides stable interfaces for wiring a platform
// (program identity and arguments, socket gate) and running an
// assembled executable to a terminal state. Implementation
// details in internal/ can be refactored without breaking this surface.
//
// # License
//
// See LICENSE file in the repository root.
package novus
