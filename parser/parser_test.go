package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hinton/ast"
	"hinton/lexer"
)

func parse(t *testing.T, source string) *ast.Arena {
	t.Helper()
	toks, errBatch := lexer.Scan(source)
	require.True(t, errBatch.Empty(), "lexer: %s", errBatch.Error())
	arena, errBatch := Parse(toks)
	require.True(t, errBatch.Empty(), "parser: %s", errBatch.Error())
	return arena
}

func TestParseArithmeticPrecedence(t *testing.T) {
	arena := parse(t, `3 + 4 * 2;`)
	stmts := arena.Module().Stmts
	require.Len(t, stmts, 1)

	expr := arena.Get(arena.Get(stmts[0]).Data.(ast.ExprStmtData).Expr)
	require.Equal(t, ast.KBinary, expr.Kind)
	add := expr.Data.(ast.BinaryData)
	assert.Equal(t, ast.BAdd, add.Op)

	right := arena.Get(add.Right)
	require.Equal(t, ast.KBinary, right.Kind)
	assert.Equal(t, ast.BMul, right.Data.(ast.BinaryData).Op)
}

func TestParseLetDeclaration(t *testing.T) {
	arena := parse(t, `let x = 3 + 4 * 2;`)
	stmts := arena.Module().Stmts
	require.Len(t, stmts, 1)
	assert.Equal(t, ast.KVarDecl, arena.Get(stmts[0]).Kind)
}

func TestParseIfElse(t *testing.T) {
	arena := parse(t, `if (x > 0) { 1; } else { 2; }`)
	stmts := arena.Module().Stmts
	require.Len(t, stmts, 1)
	n := arena.Get(stmts[0])
	require.Equal(t, ast.KIf, n.Kind)
	d := n.Data.(ast.IfData)
	assert.NotEqual(t, ast.NoNode, d.Cond)
	assert.NotEqual(t, ast.NoNode, d.Then)
	assert.NotEqual(t, ast.NoNode, d.Else)
}

func TestParseArrayComprehensionClauseShape(t *testing.T) {
	arena := parse(t, `[for (i in 1..=3) if (i % 2 == 0) i];`)
	stmts := arena.Module().Stmts
	require.Len(t, stmts, 1)
	expr := arena.Get(arena.Get(stmts[0]).Data.(ast.ExprStmtData).Expr)
	require.Equal(t, ast.KCompactArray, expr.Kind)

	d := expr.Data.(ast.CompactArrayData)
	require.Len(t, d.Clauses, 2)
	assert.NotEqual(t, ast.NoNode, d.Clauses[0].Target)
	assert.Equal(t, ast.NoNode, d.Clauses[0].Cond)

	assert.Equal(t, ast.NoNode, d.Clauses[1].Target)
	assert.Equal(t, ast.NoNode, d.Clauses[1].Iterable)
	assert.NotEqual(t, ast.NoNode, d.Clauses[1].Cond)
}

func TestParseFuncDeclWithDefaultParam(t *testing.T) {
	arena := parse(t, `func f(a, b:=10) { return a + b; }`)
	stmts := arena.Module().Stmts
	require.Len(t, stmts, 1)
	n := arena.Get(stmts[0])
	require.Equal(t, ast.KFuncDecl, n.Kind)
	d := n.Data.(ast.FuncDeclData)
	require.Len(t, d.Params, 2)
	assert.Equal(t, ast.NoNode, d.Params[0].Default)
	assert.NotEqual(t, ast.NoNode, d.Params[1].Default)
}

func TestParseRecoversFromSyntaxErrorAndResyncs(t *testing.T) {
	toks, errBatch := lexer.Scan(`let x = ; let y = 1;`)
	require.True(t, errBatch.Empty())

	arena, errBatch := Parse(toks)
	require.False(t, errBatch.Empty())

	stmts := arena.Module().Stmts
	var found bool
	for _, id := range stmts {
		n := arena.Get(id)
		if n.Kind == ast.KVarDecl {
			found = true
		}
	}
	assert.True(t, found, "parser should resync and still parse the second declaration")
}
