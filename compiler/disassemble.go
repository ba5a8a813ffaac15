package compiler

import (
	"fmt"

	"github.com/xlab/treeprint"

	"hinton/bytecode"
	"hinton/object"
)

// Disassemble renders a compiled function's chunk (and, recursively, every
// nested FuncObject constant it closes over) as an indented tree: one branch
// per function, one leaf per instruction, replacing the teacher's
// string-builder DiassembleBytecode with the tree-print library the rest of
// this pack's bytecode languages use for the same job. heap resolves the
// FuncObject constants OpMakeClosure points at so nested functions get their
// own branch.
func Disassemble(fn *object.FuncObject, heap *object.Heap) string {
	tree := treeprint.New()
	disassembleInto(fn, heap, tree)
	return tree.String()
}

func disassembleInto(fn *object.FuncObject, heap *object.Heap, tree treeprint.Tree) {
	branch := tree.AddBranch(fmt.Sprintf("%s (arity %d..%d)", funcLabel(fn), fn.MinArity, fn.MaxArity))
	chunk := fn.Chunk
	offset := 0
	for offset < len(chunk.Code) {
		op := bytecode.Opcode(chunk.Code[offset])
		def, err := bytecode.Def(op)
		if err != nil {
			branch.AddNode(fmt.Sprintf("%04d ???", offset))
			offset++
			continue
		}
		line := instrLabel(offset, def, chunk)
		branch.AddNode(line)
		width := 1
		for _, w := range def.OperandWidths {
			width += w
		}
		if op == bytecode.OpLoadConstant || op == bytecode.OpLoadConstantLong || op == bytecode.OpMakeClosure {
			idx := bytecode.ReadOperand(chunk.Code, offset+1, def.OperandWidths[0])
			if idx < len(chunk.Constants) {
				c := chunk.Constants[idx]
				if c.IsObj() {
					obj := heap.Get(c.AsObj())
					if obj.Func != nil {
						disassembleInto(obj.Func, heap, branch)
					}
				}
			}
		}
		offset += width
	}
}

func instrLabel(offset int, def bytecode.OpDef, chunk *object.Chunk) string {
	out := fmt.Sprintf("%04d %s", offset, def.Name)
	pos := offset + 1
	for _, w := range def.OperandWidths {
		out += fmt.Sprintf(" %d", bytecode.ReadOperand(chunk.Code, pos, w))
		pos += w
	}
	return out
}

func funcLabel(fn *object.FuncObject) string {
	if fn.Name == "" {
		return "<script>"
	}
	return fn.Name
}
