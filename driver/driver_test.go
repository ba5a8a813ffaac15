package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hinton/lexer"
	"hinton/object"
)

func TestCompileSourceProducesARunnableFuncObject(t *testing.T) {
	heap := object.NewHeap()
	res := CompileSource(heap, `let x = 3 + 4 * 2;`)

	require.Nil(t, res.Errors)
	require.NotNil(t, res.Func)
	assert.Equal(t, heap, res.Heap)
}

func TestCompileSourceStopsAtTheFirstFailingPhase(t *testing.T) {
	heap := object.NewHeap()
	res := CompileSource(heap, `let x = ;`)

	require.NotNil(t, res.Errors)
	assert.False(t, res.Errors.Empty())
	assert.Nil(t, res.Func)
}

func TestCompileSkipsAnalysisAndCompilationOnAParseFailure(t *testing.T) {
	heap := object.NewHeap()
	toks, errBatch := lexer.Scan(`let x = ;`)
	require.True(t, errBatch.Empty())

	res := Compile(heap, toks)

	require.NotNil(t, res.Errors)
	assert.Nil(t, res.Symbols)
}

func TestCompileFileSurfacesAReadError(t *testing.T) {
	heap := object.NewHeap()
	_, err := CompileFile(heap, "/nonexistent/path/does/not/exist.hin")
	assert.Error(t, err)
}
