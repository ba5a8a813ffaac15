// Package ast is the arena-allocated abstract syntax tree the parser
// populates and the symbol analyzer / compiler walk read-only afterwards.
//
// Nodes are addressed by small integer NodeIds instead of pointers so that
// (a) the arena is a single contiguous, append-only allocation and (b) a
// node can never outlive or dangle relative to its children: a child is
// always pushed into the arena before the parent that references it, so
// child id < parent id for every node except the module root, which is
// reserved as node 0 before any of its statements are parsed and is filled
// in by SetModule once the whole file has been walked.
package ast

import "hinton/token"

// NodeId indexes into an Arena. It is stable for the arena's lifetime.
type NodeId int32

// NoNode is the sentinel used for optional child slots (e.g. an `if`
// without an `else`, a `return` without a value).
const NoNode NodeId = -1

// ModuleRoot is always node 0.
const ModuleRoot NodeId = 0

// ClassId indexes into Arena.Classes. Class declarations are large
// (name, extends, impls, params, init body, members) so they live in a
// side table and the main Node variant only carries the ClassId, keeping
// every other Node the same small size.
type ClassId int32

// Node is one arena slot. Kind tags which of the payload types in Data is
// valid; Tok is the node's primary token, used for error spans and for
// node kinds whose only content IS a token (identifiers, `self`, literals).
type Node struct {
	Kind Kind
	Tok  token.Token
	Data any
}

// Arena is the append-only AST store. It is populated exclusively by the
// parser; the analyzer and compiler only read it.
type Arena struct {
	Nodes   []Node
	Classes []ClassDecl
}

// NewArena reserves node 0 for the module root and returns the arena ready
// for the parser to push statements into.
func NewArena() *Arena {
	a := &Arena{Nodes: make([]Node, 1, 64)}
	a.Nodes[0] = Node{Kind: KModule}
	return a
}

// Push appends a node and returns its id. Callers must ensure every NodeId
// referenced by n.Data was returned by an earlier Push (see package doc).
func (a *Arena) Push(n Node) NodeId {
	a.Nodes = append(a.Nodes, n)
	return NodeId(len(a.Nodes) - 1)
}

// PushClass appends a class declaration to the side table and returns a
// KClassDecl node wrapping it.
func (a *Arena) PushClass(tok token.Token, c ClassDecl) NodeId {
	id := ClassId(len(a.Classes))
	a.Classes = append(a.Classes, c)
	return a.Push(Node{Kind: KClassDecl, Tok: tok, Data: id})
}

// Get returns a pointer to the node at id so callers can read (or, for the
// parser finishing the module node, write) its payload in place.
func (a *Arena) Get(id NodeId) *Node {
	return &a.Nodes[id]
}

// Class resolves a KClassDecl node's ClassId into the declaration.
func (a *Arena) Class(id ClassId) *ClassDecl {
	return &a.Classes[id]
}

// SetModule fills in node 0 once the whole file has been parsed. It is the
// one place a node legitimately references ids that can be larger than its
// own (0): every top-level statement was necessarily pushed, and so has an
// id >= 1, before the module can be closed off.
func (a *Arena) SetModule(stmts []NodeId, public []NodeId) {
	a.Nodes[0].Data = ModuleData{Stmts: stmts, Public: public}
}

// Len reports how many nodes are in the arena, including the module root.
func (a *Arena) Len() int { return len(a.Nodes) }

// Module returns node 0's payload. Panics if SetModule was never called,
// since that means the parser never finished (a programmer error, not a
// user-facing one).
func (a *Arena) Module() ModuleData {
	return a.Nodes[0].Data.(ModuleData)
}
