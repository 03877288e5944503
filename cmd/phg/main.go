// Command phg is the thin CLI entry point: subcommand dispatch only,
// matching the small Handler/Multi dispatch idiom the teacher uses in
// cmd.go, minus its dependency on the Arvados cluster SDK (see
// DESIGN.md for why that dependency is dropped rather than adapted).
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Handler is one subcommand's entry point, identical in shape to the
// teacher's cmd.Handler interface.
type Handler interface {
	RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int
}

// multi dispatches to a named Handler by its first argument, the same
// behavior as the teacher's cmd.Multi but self-contained.
type multi map[string]Handler

func (m multi) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintf(stderr, "usage: %s <subcommand> [options]\n", prog)
		m.listSubcommands(stderr)
		return 2
	}
	h, ok := m[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "%s: unknown subcommand %q\n", prog, args[0])
		m.listSubcommands(stderr)
		return 2
	}
	return h.RunCommand(prog+" "+args[0], args[1:], stdin, stdout, stderr)
}

func (m multi) listSubcommands(w io.Writer) {
	fmt.Fprintln(w, "subcommands:")
	for name := range m {
		fmt.Fprintf(w, "  %s\n", name)
	}
}

var handler = multi{
	"index-build":   &indexBuildCmd{},
	"map-reads":     &mapReadsCmd{},
	"impute":        &imputeCmd{},
	"export-matrix": &exportMatrixCmd{},
}

func main() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		logrus.StandardLogger().Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	}
	os.Exit(handler.RunCommand(os.Args[0], os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
