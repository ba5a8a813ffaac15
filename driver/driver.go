// Package driver wires the lexer, parser, symbol analyzer and compiler into
// the single entry point spec.md §6 names: source text in, a runnable
// FuncObject or a batch of structured errors out. Each phase only runs once
// the previous phase's batch came back empty (spec.md §7).
package driver

import (
	"os"

	"hinton/compiler"
	"hinton/errs"
	"hinton/lexer"
	"hinton/object"
	"hinton/parser"
	"hinton/symbols"
	"hinton/token"
)

// Result is the outcome of one compile: exactly one of Func or Errors is
// populated, matching spec.md §6's compile(source) -> Result<FuncObject,
// []ErrorReport>.
type Result struct {
	Func    *object.FuncObject
	Errors  *errs.Batch
	Tokens  []token.Token
	Heap    *object.Heap
	Symbols *symbols.Analyzer
}

// Compile runs the full pipeline over already-scanned tokens, producing the
// top-level FuncObject the vm package can hand to New/Run. A caller that
// only has source text should scan it with lexer.Scan first and pass the
// result through; this split exists because the lexer is its own phase with
// its own error batch, and a driver juggling several files may want to
// scan all of them before compiling any of them.
func Compile(heap *object.Heap, toks []token.Token) Result {
	arena, errBatch := parser.Parse(toks)
	if !errBatch.Empty() {
		return Result{Errors: errBatch, Tokens: toks}
	}

	an, errBatch := symbols.Analyze(arena)
	if !errBatch.Empty() {
		return Result{Errors: errBatch, Tokens: toks}
	}

	fn, errBatch := compiler.Compile(arena, an, heap)
	if !errBatch.Empty() {
		return Result{Errors: errBatch, Tokens: toks, Symbols: an}
	}

	return Result{Func: fn, Tokens: toks, Heap: heap, Symbols: an}
}

// CompileSource scans source text and runs it through Compile, surfacing a
// lexer-phase batch directly rather than entering the rest of the pipeline.
func CompileSource(heap *object.Heap, source string) Result {
	toks, errBatch := lexer.Scan(source)
	if !errBatch.Empty() {
		return Result{Errors: errBatch}
	}
	return Compile(heap, toks)
}

// CompileFile reads sourcePath and runs CompileSource over its contents,
// for cmd/hintonc's run/emit subcommands.
func CompileFile(heap *object.Heap, sourcePath string) (Result, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return Result{}, err
	}
	return CompileSource(heap, string(data)), nil
}
