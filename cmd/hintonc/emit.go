package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"hinton/compiler"
	"hinton/driver"
	"hinton/object"
	"hinton/render"
)

// emitCmd disassembles a compiled source file's bytecode to stdout.
// Grounded on the teacher's emitBytecodeCmd, minus its file-dump flags
// (DumpBytecode/hex-to-.nic): this module has no on-disk bytecode format to
// round-trip, only the in-memory Chunk spec.md §3 defines, so there is
// nothing to persist beyond the human-readable disassembly.
type emitCmd struct{}

func (*emitCmd) Name() string     { return "emit" }
func (*emitCmd) Synopsis() string { return "print the disassembled bytecode for a source file" }
func (*emitCmd) Usage() string {
	return "emit <file.hin>\n  Compile a file and print its disassembled bytecode.\n"
}
func (*emitCmd) SetFlags(f *flag.FlagSet) {}

func (*emitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	fmt.Print(compiler.Disassemble(res.Func, heap))
	return subcommands.ExitSuccess
}
