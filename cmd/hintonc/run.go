package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"hinton/driver"
	"hinton/object"
	"hinton/render"
	"hinton/vm"
)

// runCmd executes a Hinton source file end to end: lex, parse, analyze,
// compile, run. Grounded on the teacher's runCompiledCmd, generalized to
// the driver package's multi-phase Result instead of inlining each phase.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "compile and execute a Hinton source file" }
func (*runCmd) Usage() string {
	return "run <file.hin>\n  Execute Hinton source code.\n"
}
func (*runCmd) SetFlags(f *flag.FlagSet) {}

func (*runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 file not provided")
		return subcommands.ExitUsageError
	}

	heap := object.NewHeap()
	res, err := driver.CompileFile(heap, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}
	if res.Errors != nil && !res.Errors.Empty() {
		source, _ := os.ReadFile(args[0])
		fmt.Fprint(os.Stderr, render.Batch(string(source), res.Errors))
		return subcommands.ExitFailure
	}

	machine := vm.New(heap)
	if _, err := machine.Run(res.Func); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
