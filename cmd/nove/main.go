// Command nove lexes and parses Novus source, reprinting the resulting
// parse tree one top-level statement per line. It does not lower source
// to bytecode: semantic analysis and bytecode generation sit outside
// this toolchain's implemented core (see the VM/front-end component
// table), so a source program reaches the executor only after being
// assembled with novasm or loaded as a serialized image via novrt.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/novus-lang/novus/internal/novus/lex"
	"github.com/novus-lang/novus/internal/novus/parse"
)

func main() {
	args := os.Args[1:]
	src, err := readSource(args)
	if err != nil {
		fatal(err)
	}

	l := lex.New(src)
	p := parse.New(l)
	stmts := p.ParseProgram()

	hadError := false
	for _, stmt := range stmts {
		if stmt.Kind() == parse.KindError {
			hadError = true
			errNode, _ := stmt.(*parse.NodeError)
			reportParseError(errNode)
			continue
		}
		fmt.Println(stmt.String())
	}

	if hadError {
		os.Exit(1)
	}
}

// readSource reads the program from args[0] (a path, or "-"/absent for
// stdin).
func readSource(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading source from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading source %q: %w", args[0], err)
	}
	return data, nil
}

func reportParseError(n *parse.NodeError) {
	color.New(color.FgRed).Fprintf(os.Stderr, "nove: parse error at %s: %s\n", n.Span(), n.Message)
}

func fatal(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "nove: error: %v\n", err)
	os.Exit(1)
}
