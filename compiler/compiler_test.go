package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hinton/bytecode"
	"hinton/lexer"
	"hinton/object"
	"hinton/parser"
	"hinton/symbols"
)

func compile(t *testing.T, source string) (*object.FuncObject, *object.Heap) {
	t.Helper()
	toks, errBatch := lexer.Scan(source)
	require.True(t, errBatch.Empty(), "lexer: %s", errBatch.Error())
	arena, errBatch := parser.Parse(toks)
	require.True(t, errBatch.Empty(), "parser: %s", errBatch.Error())
	an, errBatch := symbols.Analyze(arena)
	require.True(t, errBatch.Empty(), "analyzer: %s", errBatch.Error())
	heap := object.NewHeap()
	fn, errBatch := Compile(arena, an, heap)
	require.True(t, errBatch.Empty(), "compiler: %s", errBatch.Error())
	return fn, heap
}

func hasOpcode(code []byte, target bytecode.Opcode) bool {
	offset := 0
	for offset < len(code) {
		op := bytecode.Opcode(code[offset])
		def, err := bytecode.Def(op)
		if err != nil {
			return false
		}
		if op == target {
			return true
		}
		width := 1
		for _, w := range def.OperandWidths {
			width += w
		}
		offset += width
	}
	return false
}

func TestCompileArithmeticEmitsAddAndMul(t *testing.T) {
	fn, _ := compile(t, `let x = 3 + 4 * 2;`)
	assert.True(t, hasOpcode(fn.Chunk.Code, bytecode.OpAdd))
	assert.True(t, hasOpcode(fn.Chunk.Code, bytecode.OpMul))
}

func TestCompileArrayComprehensionEmitsArrayPush(t *testing.T) {
	fn, _ := compile(t, `let a = [for (i in 1..=3) i * i];`)
	assert.True(t, hasOpcode(fn.Chunk.Code, bytecode.OpArrayPush))
}

func TestCompileTupleComprehensionEmitsFreezeTuple(t *testing.T) {
	fn, _ := compile(t, `let t = (for (i in 1..=3) i);`)
	assert.True(t, hasOpcode(fn.Chunk.Code, bytecode.OpFreezeTuple))
}

func TestCompileDictComprehensionEmitsDictSet(t *testing.T) {
	fn, _ := compile(t, `let d = {for (i in 1..=3) i: i * i};`)
	assert.True(t, hasOpcode(fn.Chunk.Code, bytecode.OpDictSet))
}

func TestCompileReservedFormReportsError(t *testing.T) {
	toks, errBatch := lexer.Scan(`obj.field;`)
	require.True(t, errBatch.Empty())
	arena, errBatch := parser.Parse(toks)
	require.True(t, errBatch.Empty())
	an, errBatch := symbols.Analyze(arena)
	require.True(t, errBatch.Empty())
	heap := object.NewHeap()

	_, errBatch = Compile(arena, an, heap)
	assert.False(t, errBatch.Empty())
}

func TestDisassembleIncludesFunctionNameAndOpcodeNames(t *testing.T) {
	fn, heap := compile(t, `func f(a, b:=10) { return a + b; } let x = f(5);`)
	out := Disassemble(fn, heap)
	assert.True(t, strings.Contains(out, "<module>"))
	assert.True(t, strings.Contains(out, "f (arity"))
	assert.True(t, strings.Contains(out, "Add"))
}
