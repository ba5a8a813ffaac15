package ast

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Dump renders the arena as an indented tree starting at id, for debugging
// and golden-file style tests. It replaces the teacher's JSON AST printer
// with the tree-print library the rest of this retrieval pack's bytecode
// languages use for the same purpose.
func Dump(a *Arena, id NodeId) string {
	tree := treeprint.New()
	dumpInto(a, id, tree)
	return tree.String()
}

func dumpInto(a *Arena, id NodeId, tree treeprint.Tree) {
	if id == NoNode {
		tree.AddNode("<none>")
		return
	}
	n := a.Get(id)
	label := fmt.Sprintf("%s", n.Kind)
	if n.Tok.Lexeme != "" {
		label += fmt.Sprintf(" %q", n.Tok.Lexeme)
	}

	branch := tree.AddBranch(label)
	for _, child := range children(a, id) {
		dumpInto(a, child, branch)
	}
}

// children returns the direct child NodeIds of id, in evaluation order,
// used by Dump and by invariant tests that walk the whole arena.
func children(a *Arena, id NodeId) []NodeId {
	n := a.Get(id)
	switch d := n.Data.(type) {
	case ModuleData:
		return d.Stmts
	case BlockData:
		return d.Stmts
	case ExprStmtData:
		return []NodeId{d.Expr}
	case IfData:
		return compact(d.Cond, d.Then, d.Else)
	case WhileData:
		return compact(d.Cond, d.Body)
	case ForData:
		return compact(d.Target, d.Iterable, d.Body)
	case LoopData:
		return compact(d.Body)
	case BreakData:
		return compact(d.Cond)
	case ContinueData:
		return compact(d.Cond)
	case ReturnData:
		return compact(d.Value)
	case YieldData:
		return compact(d.Value)
	case ThrowData:
		return compact(d.Value)
	case DelData:
		return compact(d.Target)
	case TryCatchData:
		return compact(d.Try, d.Catch, d.Finally)
	case WithData:
		return compact(d.Resource, d.Body)
	case VarDeclData:
		return compact(d.Target, d.Init)
	case FuncDeclData:
		ids := append([]NodeId{}, d.Decorators...)
		for _, p := range d.Params {
			if p.Default != NoNode {
				ids = append(ids, p.Default)
			}
		}
		return append(ids, d.Body)
	case ExportData:
		return compact(d.Item)
	case UnaryData:
		return compact(d.Operand)
	case BinaryData:
		return compact(d.Left, d.Right)
	case TernaryData:
		return compact(d.Cond, d.Then, d.Else)
	case AssignData:
		return compact(d.Target, d.Value)
	case CallData:
		ids := []NodeId{d.Callee}
		for _, arg := range d.Args {
			ids = append(ids, arg.Value)
		}
		return ids
	case MemberData:
		return compact(d.Target)
	case IndexData:
		return append([]NodeId{d.Target}, d.Indexers...)
	case SliceData:
		return compact(d.Target, d.Start, d.End, d.Step)
	case ArrayLitData:
		return d.Elems
	case TupleLitData:
		return d.Elems
	case DictLitData:
		return append(append([]NodeId{}, d.Keys...), d.Values...)
	case RepeatLitData:
		return compact(d.Value, d.Count)
	case InterpolationData:
		ids := []NodeId{}
		for _, p := range d.Parts {
			if p.Expr != NoNode {
				ids = append(ids, p.Expr)
			}
		}
		return ids
	case CompactArrayData:
		return compactClauses(d.Value, NoNode, d.Clauses)
	case CompactTupleData:
		return compactClauses(d.Value, NoNode, d.Clauses)
	case CompactDictData:
		return compactClauses(d.Key, d.Value, d.Clauses)
	case ClassId:
		c := a.Class(d)
		ids := compact(c.Extends)
		ids = append(ids, c.Impls...)
		ids = append(ids, c.Decorators...)
		if c.InitBody != NoNode {
			ids = append(ids, c.InitBody)
		}
		return append(ids, c.Members...)
	default:
		return nil
	}
}

func compact(ids ...NodeId) []NodeId {
	out := make([]NodeId, 0, len(ids))
	for _, id := range ids {
		if id != NoNode {
			out = append(out, id)
		}
	}
	return out
}

func compactClauses(value, key NodeId, clauses []CompClause) []NodeId {
	ids := compact(key, value)
	for _, c := range clauses {
		ids = append(ids, compact(c.Target, c.Iterable, c.Cond)...)
	}
	return ids
}
