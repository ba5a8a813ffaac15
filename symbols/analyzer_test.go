package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hinton/ast"
	"hinton/token"
)

func ident(name string) token.Token {
	return token.New(token.IDENTIFIER, name, 1, 1, int32(1+len(name)))
}

// TestGlobalDeclarationGetsGlobalLocation builds `let x = 1;` at module top
// level and checks x lands in the global pool, not a stack slot.
func TestGlobalDeclarationGetsGlobalLocation(t *testing.T) {
	a := ast.NewArena()
	one := a.Push(ast.Node{Kind: ast.KIntLit, Data: ast.IntLitData{Value: 1}})
	x := a.Push(ast.Node{Kind: ast.KIdent, Tok: ident("x")})
	decl := a.Push(ast.Node{Kind: ast.KVarDecl, Data: ast.VarDeclData{Target: x, Init: one}})
	a.SetModule([]ast.NodeId{decl}, nil)

	an, batch := Analyze(a)
	require.True(t, batch.Empty())
	require.Len(t, an.Tables, 1)
	sym, ok := an.Tables[0].findLocal("x")
	require.True(t, ok)
	assert.Equal(t, LocGlobal, sym.Location.Kind)
	assert.Equal(t, []string{"x"}, an.GlobalNames)
}

// TestBlockLocalDoesNotLeak mirrors spec.md §8 scenario 6: a block-scoped
// declaration must not resolve outside its block, and the outer `x`
// reference must resolve to the *global* x, not the inner one.
func TestBlockLocalDoesNotLeak(t *testing.T) {
	a := ast.NewArena()

	outerInit := a.Push(ast.Node{Kind: ast.KIntLit, Data: ast.IntLitData{Value: 1}})
	outerX := a.Push(ast.Node{Kind: ast.KIdent, Tok: ident("x")})
	outerDecl := a.Push(ast.Node{Kind: ast.KVarDecl, Data: ast.VarDeclData{Target: outerX, Init: outerInit}})

	innerInit := a.Push(ast.Node{Kind: ast.KIntLit, Data: ast.IntLitData{Value: 2}})
	innerX := a.Push(ast.Node{Kind: ast.KIdent, Tok: ident("x")})
	innerDecl := a.Push(ast.Node{Kind: ast.KVarDecl, Data: ast.VarDeclData{Target: innerX, Init: innerInit}})
	block := a.Push(ast.Node{Kind: ast.KBlock, Data: ast.BlockData{Stmts: []ast.NodeId{innerDecl}}})

	ref := a.Push(ast.Node{Kind: ast.KIdent, Tok: ident("x")})
	refStmt := a.Push(ast.Node{Kind: ast.KExprStmt, Data: ast.ExprStmtData{Expr: ref}})

	a.SetModule([]ast.NodeId{outerDecl, block, refStmt}, nil)

	an, batch := Analyze(a)
	require.True(t, batch.Empty())
	res := an.Resolutions[ref]
	assert.Equal(t, ResGlobal, res.Kind)
}

// TestUseBeforeInitIsAnError checks that `let x = x;` is rejected: the
// initializer is walked before x is declared, so the reference finds no x.
func TestUseBeforeInitIsAnError(t *testing.T) {
	a := ast.NewArena()
	ref := a.Push(ast.Node{Kind: ast.KIdent, Tok: ident("x")})
	target := a.Push(ast.Node{Kind: ast.KIdent, Tok: ident("x")})
	decl := a.Push(ast.Node{Kind: ast.KVarDecl, Data: ast.VarDeclData{Target: target, Init: ref}})
	a.SetModule([]ast.NodeId{decl}, nil)

	_, batch := Analyze(a)
	require.False(t, batch.Empty())
	assert.Contains(t, batch.Reports[0].Error(), "cannot find 'x'")
}

// TestBreakOutsideLoopIsAnError checks control-flow validation independent
// of any loop.
func TestBreakOutsideLoopIsAnError(t *testing.T) {
	a := ast.NewArena()
	brk := a.Push(ast.Node{Kind: ast.KBreak, Data: ast.BreakData{Cond: ast.NoNode}})
	a.SetModule([]ast.NodeId{brk}, nil)

	_, batch := Analyze(a)
	require.False(t, batch.Empty())
	assert.Contains(t, batch.Reports[0].Error(), "break")
}

// TestClosureCapturesEnclosingLocalAsUpvalue builds:
//
//	func outer() {
//	  let x = 1;
//	  func inner() { return x; }
//	}
//
// and checks inner's table records an upvalue capturing outer's local x.
func TestClosureCapturesEnclosingLocalAsUpvalue(t *testing.T) {
	a := ast.NewArena()

	one := a.Push(ast.Node{Kind: ast.KIntLit, Data: ast.IntLitData{Value: 1}})
	xTarget := a.Push(ast.Node{Kind: ast.KIdent, Tok: ident("x")})
	xDecl := a.Push(ast.Node{Kind: ast.KVarDecl, Data: ast.VarDeclData{Target: xTarget, Init: one}})

	xRef := a.Push(ast.Node{Kind: ast.KIdent, Tok: ident("x")})
	ret := a.Push(ast.Node{Kind: ast.KReturn, Data: ast.ReturnData{Value: xRef}})
	innerBody := a.Push(ast.Node{Kind: ast.KBlock, Data: ast.BlockData{Stmts: []ast.NodeId{ret}}})
	innerDecl := a.Push(ast.Node{Kind: ast.KFuncDecl, Tok: ident("inner"), Data: ast.FuncDeclData{
		Name: ident("inner"), Body: innerBody,
	}})

	outerBody := a.Push(ast.Node{Kind: ast.KBlock, Data: ast.BlockData{Stmts: []ast.NodeId{xDecl, innerDecl}}})
	outerDecl := a.Push(ast.Node{Kind: ast.KFuncDecl, Tok: ident("outer"), Data: ast.FuncDeclData{
		Name: ident("outer"), Body: outerBody,
	}})

	a.SetModule([]ast.NodeId{outerDecl}, nil)

	an, batch := Analyze(a)
	require.True(t, batch.Empty())

	res := an.Resolutions[xRef]
	assert.Equal(t, ResUpvalue, res.Kind)

	innerTable := an.Tables[len(an.Tables)-1]
	require.Len(t, innerTable.Upvalues, 1)
	assert.Equal(t, "x", innerTable.Upvalues[0].Name)
	assert.True(t, innerTable.Upvalues[0].IsLocal)
}

func TestNativeResolution(t *testing.T) {
	a := ast.NewArena()
	callee := a.Push(ast.Node{Kind: ast.KIdent, Tok: ident("print")})
	call := a.Push(ast.Node{Kind: ast.KCall, Data: ast.CallData{Callee: callee}})
	stmt := a.Push(ast.Node{Kind: ast.KExprStmt, Data: ast.ExprStmtData{Expr: call}})
	a.SetModule([]ast.NodeId{stmt}, nil)

	an, batch := Analyze(a)
	require.True(t, batch.Empty())
	res := an.Resolutions[callee]
	assert.Equal(t, ResNative, res.Kind)
}
