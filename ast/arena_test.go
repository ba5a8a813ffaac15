package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleRootIsAlwaysZero(t *testing.T) {
	a := NewArena()
	assert.Equal(t, NodeId(0), ModuleRoot)
	assert.Equal(t, KModule, a.Get(ModuleRoot).Kind)
}

// TestChildIndicesPrecedeParent verifies spec.md §8's acyclicity invariant:
// every child id is strictly less than its parent's id, except for the
// module root (node 0), whose children are necessarily pushed before it is
// finalized by SetModule.
func TestChildIndicesPrecedeParent(t *testing.T) {
	a := buildSample(t)

	for id := NodeId(1); id < NodeId(a.Len()); id++ {
		for _, child := range children(a, id) {
			assert.Lessf(t, int32(child), int32(id), "node %d's child %d must precede it", id, child)
		}
	}

	// The root is the sole, documented exception.
	root := children(a, ModuleRoot)
	require.NotEmpty(t, root)
	for _, child := range root {
		assert.Greater(t, int32(child), int32(ModuleRoot))
	}
}

func TestDumpProducesNonEmptyTree(t *testing.T) {
	a := buildSample(t)
	out := Dump(a, ModuleRoot)
	assert.Contains(t, out, "Module")
	assert.Contains(t, out, "Binary")
}

// buildSample hand-assembles the arena for `let x = 3 + 4 * 2;` the way the
// parser would, bottom-up.
func buildSample(t *testing.T) *Arena {
	t.Helper()
	a := NewArena()

	three := a.Push(Node{Kind: KIntLit, Data: IntLitData{Value: 3}})
	four := a.Push(Node{Kind: KIntLit, Data: IntLitData{Value: 4}})
	two := a.Push(Node{Kind: KIntLit, Data: IntLitData{Value: 2}})
	mul := a.Push(Node{Kind: KBinary, Data: BinaryData{Op: BMul, Left: four, Right: two}})
	add := a.Push(Node{Kind: KBinary, Data: BinaryData{Op: BAdd, Left: three, Right: mul}})
	ident := a.Push(Node{Kind: KIdent})
	decl := a.Push(Node{Kind: KVarDecl, Data: VarDeclData{Target: ident, Init: add}})

	a.SetModule([]NodeId{decl}, nil)
	return a
}
