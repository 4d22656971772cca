// Command novrt loads a serialized Novus executable and runs it.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/novus-lang/novus/internal/novus/novasm"
	"github.com/novus-lang/novus/pkg/novus"
)

func main() {
	args := os.Args[1:]
	data, rest, err := readProgram(args)
	if err != nil {
		fatal(err)
	}

	exe, err := novasm.Deserialize(data)
	if err != nil {
		fatal(fmt.Errorf("loading executable: %w", err))
	}

	logStderr(fmt.Sprintf("loaded executable, fingerprint %s", novasm.Fingerprint(exe)))

	platform := novus.DefaultPlatform(rest)
	if len(args) > 0 {
		platform.ProgramPath = args[0]
	}

	state, err := novus.Run(exe, platform, novus.DefaultConfig())
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "novrt: terminated: %s\n", state)
	}
	os.Exit(state.ExitCode())
}

// readProgram reads the executable image from args[0] (a path, or "-"
// for stdin) and returns the remaining args as the program's own
// environment arguments.
func readProgram(args []string) ([]byte, []string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, nil, fmt.Errorf("reading program from stdin: %w", err)
		}
		if len(args) > 0 {
			return data, args[1:], nil
		}
		return data, nil, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reading program %q: %w", args[0], err)
	}
	return data, args[1:], nil
}

func logStderr(msg string) {
	fmt.Fprintln(os.Stderr, "novrt:", msg)
}

func fatal(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "novrt: error: %v\n", err)
	os.Exit(1)
}
