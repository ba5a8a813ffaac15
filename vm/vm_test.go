package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hinton/compiler"
	"hinton/errs"
	"hinton/lexer"
	"hinton/object"
	"hinton/parser"
	"hinton/symbols"
)

// compileAndRun drives every phase end to end, the way driver.Compile will,
// failing the test immediately if any phase reports errors.
func compileAndRun(t *testing.T, source string) (object.Value, *VM, *symbols.Analyzer) {
	t.Helper()
	toks, errBatch := lexer.Scan(source)
	require.True(t, errBatch.Empty(), "lexer: %s", errBatch.Error())

	arena, errBatch := parser.Parse(toks)
	require.True(t, errBatch.Empty(), "parser: %s", errBatch.Error())

	an, errBatch := symbols.Analyze(arena)
	require.True(t, errBatch.Empty(), "analyzer: %s", errBatch.Error())

	heap := object.NewHeap()
	fn, errBatch := compiler.Compile(arena, an, heap)
	require.True(t, errBatch.Empty(), "compiler: %s", errBatch.Error())

	vm := New(heap)
	v, err := vm.Run(fn)
	require.NoError(t, err)
	return v, vm, an
}

func globalIndex(t *testing.T, an *symbols.Analyzer, name string) int32 {
	t.Helper()
	for i, n := range an.GlobalNames {
		if n == name {
			return int32(i)
		}
	}
	t.Fatalf("global %q was never declared", name)
	return -1
}

func TestScenarioArithmeticPrecedence(t *testing.T) {
	_, vm, an := compileAndRun(t, `let x = 3 + 4 * 2;`)
	x := vm.Global(globalIndex(t, an, "x"))
	require.True(t, x.IsInt())
	assert.Equal(t, int64(11), x.AsInt())
}

func TestScenarioStringRepeat(t *testing.T) {
	_, vm, an := compileAndRun(t, `let s = "ab" * 3;`)
	s := vm.Global(globalIndex(t, an, "s"))
	assert.Equal(t, "ababab", s.String(vm.Heap()))
}

func TestScenarioArrayComprehensionOverRange(t *testing.T) {
	_, vm, an := compileAndRun(t, `let r = 1..=3; let a = [for (i in r) i * i];`)
	a := vm.Global(globalIndex(t, an, "a"))
	require.True(t, a.IsObj())
	obj := vm.Heap().Get(a.AsObj())
	require.Equal(t, object.OArray, obj.Kind)
	require.Len(t, obj.Arr, 3)
	assert.Equal(t, int64(1), obj.Arr[0].AsInt())
	assert.Equal(t, int64(4), obj.Arr[1].AsInt())
	assert.Equal(t, int64(9), obj.Arr[2].AsInt())
}

func TestScenarioDefaultParameterBinding(t *testing.T) {
	_, vm, an := compileAndRun(t, `func f(a, b:=10) { return a + b; } let x = f(5);`)
	x := vm.Global(globalIndex(t, an, "x"))
	require.True(t, x.IsInt())
	assert.Equal(t, int64(15), x.AsInt())
}

func TestScenarioBreakFromWhile(t *testing.T) {
	_, vm, an := compileAndRun(t, `let i = 0; while (i < 3) { if (i == 1) { break; } i = i + 1; }`)
	i := vm.Global(globalIndex(t, an, "i"))
	require.True(t, i.IsInt())
	assert.Equal(t, int64(1), i.AsInt())
}

func TestScenarioBlockScopedShadowing(t *testing.T) {
	_, vm, an := compileAndRun(t, `let x = 1; { let x = 2; } x;`)
	x := vm.Global(globalIndex(t, an, "x"))
	require.True(t, x.IsInt())
	assert.Equal(t, int64(1), x.AsInt())
}

func TestScenarioDivisionByZeroRaisesZeroDivision(t *testing.T) {
	toks, errBatch := lexer.Scan(`1 / 0;`)
	require.True(t, errBatch.Empty())
	arena, errBatch := parser.Parse(toks)
	require.True(t, errBatch.Empty())
	an, errBatch := symbols.Analyze(arena)
	require.True(t, errBatch.Empty())
	heap := object.NewHeap()
	fn, errBatch := compiler.Compile(arena, an, heap)
	require.True(t, errBatch.Empty())

	_, err := New(heap).Run(fn)
	require.Error(t, err)
	report, ok := err.(*errs.Report)
	require.True(t, ok)
	assert.Equal(t, errs.KindZeroDivision, report.Kind)
}

func TestTupleComprehensionFreezesToTuple(t *testing.T) {
	_, vm, an := compileAndRun(t, `let t = (for (i in 1..=3) i);`)
	v := vm.Global(globalIndex(t, an, "t"))
	require.True(t, v.IsObj())
	obj := vm.Heap().Get(v.AsObj())
	assert.Equal(t, object.OTuple, obj.Kind)
	require.Len(t, obj.Arr, 3)
}

func TestDictComprehensionBuildsEntries(t *testing.T) {
	_, vm, an := compileAndRun(t, `let d = {for (i in 1..=3) i: i * i};`)
	v := vm.Global(globalIndex(t, an, "d"))
	require.True(t, v.IsObj())
	obj := vm.Heap().Get(v.AsObj())
	require.Equal(t, object.ODict, obj.Kind)
	assert.Len(t, obj.Dict, 3)
	assert.Equal(t, int64(4), obj.Dict[object.Int(2)].AsInt())
}

func TestNestedComprehensionClausesSeeEarlierTargets(t *testing.T) {
	_, vm, an := compileAndRun(t, `let m = [[1, 2], [3]]; let flat = [for (row in m) for (x in row) x];`)
	v := vm.Global(globalIndex(t, an, "flat"))
	require.True(t, v.IsObj())
	obj := vm.Heap().Get(v.AsObj())
	require.Equal(t, object.OArray, obj.Kind)
	require.Len(t, obj.Arr, 3)
	assert.Equal(t, int64(1), obj.Arr[0].AsInt())
	assert.Equal(t, int64(2), obj.Arr[1].AsInt())
	assert.Equal(t, int64(3), obj.Arr[2].AsInt())
}

func TestClosureCapturesCountAtCreationTime(t *testing.T) {
	_, vm, an := compileAndRun(t, `
		func counter() {
			let n = 0;
			func bump() { n = n + 1; return n; }
			return bump;
		}
		let f = counter();
		let a = f();
		let b = f();
	`)
	b := vm.Global(globalIndex(t, an, "b"))
	require.True(t, b.IsInt())
	assert.Equal(t, int64(2), b.AsInt())
}

func TestComprehensionIfFilterClause(t *testing.T) {
	_, vm, an := compileAndRun(t, `let evens = [for (i in 1..=5) if (i % 2 == 0) i];`)
	v := vm.Global(globalIndex(t, an, "evens"))
	require.True(t, v.IsObj())
	obj := vm.Heap().Get(v.AsObj())
	require.Equal(t, object.OArray, obj.Kind)
	require.Len(t, obj.Arr, 2)
	assert.Equal(t, int64(2), obj.Arr[0].AsInt())
	assert.Equal(t, int64(4), obj.Arr[1].AsInt())
}
