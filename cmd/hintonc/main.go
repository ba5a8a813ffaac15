// Command hintonc is the Hinton CLI: compile-and-run, disassemble, or a
// REPL, each a subcommand registered with google/subcommands the way the
// teacher's main.go wired its own commands (informatter-nilan's subcommand
// files existed but were never registered from main — this wires them up).
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&emitCmd{}, "")
	subcommands.Register(&replCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
