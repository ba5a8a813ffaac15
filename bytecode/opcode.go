// Package bytecode defines Hinton's instruction set and its operand
// encoding, per spec.md §3/§4.3. The per-function Chunk (instructions +
// source locations + constant pool) and the FuncObject tree the compiler
// emits into live in package object.
package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Opcode is a single bytecode instruction tag. The enumeration and operand
// widths below are fixed: two implementations sharing compiled artifacts
// must agree on them byte for byte (spec.md §6).
type Opcode byte

const (
	// literals and immediates
	OpLoadImmNone Opcode = iota
	OpLoadImmTrue
	OpLoadImmFalse
	OpLoadImm0I
	OpLoadImm1I
	OpLoadImmN     // byte operand, int in [2,256)
	OpLoadImmNLong // short operand, int in [256,65536)
	OpLoadImm0F
	OpLoadImm1F
	OpLoadConstant     // byte operand: constant pool index
	OpLoadConstantLong // short operand

	// variables
	OpDefineGlobal
	OpDefineGlobalLong
	OpGetGlobal
	OpGetGlobalLong
	OpSetGlobal
	OpSetGlobalLong
	OpGetLocal
	OpGetLocalLong
	OpSetLocal
	OpSetLocalLong
	OpGetUpvalue
	OpGetUpvalueLong
	OpSetUpvalue
	OpSetUpvalueLong
	OpGetNative
	OpGetPrimitive

	// unpack declarations: operands are (headCount, tailCount) for Ignore
	// and Assign forms, or (count) for plain Seq. Widths switch at 256.
	OpUnpackSeq
	OpUnpackSeqLong
	OpUnpackIgnore
	OpUnpackIgnoreLong
	OpUnpackAssign
	OpUnpackAssignLong

	// stack management
	OpPopStackTop
	OpPopStackTopN // byte operand: pop N values (block-exit batch pop)
	OpDup

	// arithmetic / comparison / bitwise
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpFloorMod
	OpPow
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpEq
	OpNotEq
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpIn
	OpInstOf
	OpNonish
	OpMakeRange
	OpMakeRangeInclusive

	// unary
	OpNegate
	OpNot
	OpBitNotOp

	// control flow
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpJumpIfFalseOrPop
	OpJumpIfTrueOrPop
	OpLoopJump
	OpLoopJumpLong

	// collections
	OpMakeArray
	OpMakeArrayLong
	OpMakeTuple
	OpMakeTupleLong
	OpMakeDict
	OpMakeDictLong
	OpMakeRepeatArray
	OpMakeRepeatTuple
	OpBuildStr
	OpBuildStrLong

	// comprehension accumulation: ArrayPush/DictSet mutate the accumulator
	// in place (it stays in its hidden stack slot throughout the loop
	// nest), FreezeTuple relabels a built-as-array accumulator to a Tuple
	// once every clause has finished.
	OpArrayPush
	OpDictSet
	OpFreezeTuple

	// indexing / slicing
	OpGetIndex
	OpSetIndex
	OpGetSlice

	// functions
	OpMakeClosure // byte const-pool index; captures come from the FuncObject's Upvalues
	OpFuncCall    // byte operand: argument count
	OpReturn

	// reserved: member access, classes, exceptions, resource blocks,
	// generators, deletion, spread, await. The opcode slots exist so the
	// format is stable, but the compiler only emits them once those AST
	// forms are fully designed (see spec.md §9); until then compiling one
	// of the corresponding nodes is a compile-time error.
	OpGetMember
	OpSetMember
	OpMakeClass
	OpThrow
	OpPushTry
	OpPopTry
	OpWithEnter
	OpWithExit
	OpYield
	OpDel
	OpSpreadArg
	OpAwait
)

// OpDef describes one opcode's name and the byte width of each operand it
// expects, in order.
type OpDef struct {
	Name          string
	OperandWidths []int
}

var defs = map[Opcode]OpDef{
	OpLoadImmNone:      {"LoadImmNone", nil},
	OpLoadImmTrue:      {"LoadImmTrue", nil},
	OpLoadImmFalse:     {"LoadImmFalse", nil},
	OpLoadImm0I:        {"LoadImm0I", nil},
	OpLoadImm1I:        {"LoadImm1I", nil},
	OpLoadImmN:         {"LoadImmN", []int{1}},
	OpLoadImmNLong:     {"LoadImmNLong", []int{2}},
	OpLoadImm0F:        {"LoadImm0F", nil},
	OpLoadImm1F:        {"LoadImm1F", nil},
	OpLoadConstant:     {"LoadConstant", []int{1}},
	OpLoadConstantLong: {"LoadConstantLong", []int{2}},

	OpDefineGlobal:     {"DefineGlobal", []int{1}},
	OpDefineGlobalLong: {"DefineGlobalLong", []int{2}},
	OpGetGlobal:        {"GetGlobal", []int{1}},
	OpGetGlobalLong:    {"GetGlobalLong", []int{2}},
	OpSetGlobal:        {"SetGlobal", []int{1}},
	OpSetGlobalLong:    {"SetGlobalLong", []int{2}},
	OpGetLocal:         {"GetLocal", []int{1}},
	OpGetLocalLong:     {"GetLocalLong", []int{2}},
	OpSetLocal:         {"SetLocal", []int{1}},
	OpSetLocalLong:     {"SetLocalLong", []int{2}},
	OpGetUpvalue:       {"GetUpvalue", []int{1}},
	OpGetUpvalueLong:   {"GetUpvalueLong", []int{2}},
	OpSetUpvalue:       {"SetUpvalue", []int{1}},
	OpSetUpvalueLong:   {"SetUpvalueLong", []int{2}},
	OpGetNative:        {"GetNative", []int{1}},
	OpGetPrimitive:     {"GetPrimitive", []int{1}},

	OpUnpackSeq:         {"UnpackSeq", []int{1}},
	OpUnpackSeqLong:     {"UnpackSeqLong", []int{2}},
	OpUnpackIgnore:      {"UnpackIgnore", []int{1, 1}},
	OpUnpackIgnoreLong:  {"UnpackIgnoreLong", []int{2, 2}},
	OpUnpackAssign:      {"UnpackAssign", []int{1, 1}},
	OpUnpackAssignLong:  {"UnpackAssignLong", []int{2, 2}},

	OpPopStackTop:  {"PopStackTop", nil},
	OpPopStackTopN: {"PopStackTopN", []int{1}},
	OpDup:          {"Dup", nil},

	OpAdd: {"Add", nil}, OpSub: {"Sub", nil}, OpMul: {"Mul", nil}, OpDiv: {"Div", nil},
	OpMod: {"Mod", nil}, OpFloorMod: {"FloorMod", nil}, OpPow: {"Pow", nil},
	OpBitAnd: {"BitAnd", nil}, OpBitOr: {"BitOr", nil}, OpBitXor: {"BitXor", nil},
	OpShl: {"Shl", nil}, OpShr: {"Shr", nil},
	OpEq: {"Eq", nil}, OpNotEq: {"NotEq", nil}, OpLess: {"Less", nil}, OpLessEq: {"LessEq", nil},
	OpGreater: {"Greater", nil}, OpGreaterEq: {"GreaterEq", nil},
	OpIn: {"In", nil}, OpInstOf: {"InstOf", nil}, OpNonish: {"Nonish", nil},
	OpMakeRange: {"MakeRange", nil}, OpMakeRangeInclusive: {"MakeRangeInclusive", nil},

	OpNegate: {"Negate", nil}, OpNot: {"Not", nil}, OpBitNotOp: {"BitNot", nil},

	OpJump:              {"Jump", []int{2}},
	OpJumpIfFalse:       {"JumpIfFalse", []int{2}},
	OpJumpIfTrue:        {"JumpIfTrue", []int{2}},
	OpJumpIfFalseOrPop:  {"JumpIfFalseOrPop", []int{2}},
	OpJumpIfTrueOrPop:   {"JumpIfTrueOrPop", []int{2}},
	OpLoopJump:          {"LoopJump", []int{1}},
	OpLoopJumpLong:      {"LoopJumpLong", []int{2}},

	OpMakeArray: {"MakeArray", []int{1}}, OpMakeArrayLong: {"MakeArrayLong", []int{2}},
	OpMakeTuple: {"MakeTuple", []int{1}}, OpMakeTupleLong: {"MakeTupleLong", []int{2}},
	OpMakeDict: {"MakeDict", []int{1}}, OpMakeDictLong: {"MakeDictLong", []int{2}},
	OpMakeRepeatArray: {"MakeRepeatArray", nil}, OpMakeRepeatTuple: {"MakeRepeatTuple", nil},
	OpBuildStr: {"BuildStr", []int{1}}, OpBuildStrLong: {"BuildStrLong", []int{2}},

	OpArrayPush: {"ArrayPush", nil}, OpDictSet: {"DictSet", nil}, OpFreezeTuple: {"FreezeTuple", nil},

	OpGetIndex: {"GetIndex", nil}, OpSetIndex: {"SetIndex", nil}, OpGetSlice: {"GetSlice", nil},

	OpMakeClosure: {"MakeClosure", []int{1}},
	OpFuncCall:    {"FuncCall", []int{1}},
	OpReturn:      {"Return", nil},

	OpGetMember: {"GetMember", []int{1}}, OpSetMember: {"SetMember", []int{1}},
	OpMakeClass: {"MakeClass", []int{1}}, OpThrow: {"Throw", nil},
	OpPushTry: {"PushTry", []int{2}}, OpPopTry: {"PopTry", nil},
	OpWithEnter: {"WithEnter", nil}, OpWithExit: {"WithExit", nil},
	OpYield: {"Yield", nil}, OpDel: {"Del", nil}, OpSpreadArg: {"SpreadArg", nil},
	OpAwait: {"Await", nil},
}

// Def looks up an opcode's definition.
func Def(op Opcode) (OpDef, error) {
	d, ok := defs[op]
	if !ok {
		return OpDef{}, fmt.Errorf("bytecode: opcode %d undefined", op)
	}
	return d, nil
}

// Make encodes one instruction: the opcode byte followed by its operands
// in big-endian order, each at the width Def(op) declares.
func Make(op Opcode, operands ...int) []byte {
	def, err := Def(op)
	if err != nil {
		return nil
	}
	size := 1
	for _, w := range def.OperandWidths {
		size += w
	}
	out := make([]byte, size)
	out[0] = byte(op)
	offset := 1
	for i, width := range def.OperandWidths {
		v := 0
		if i < len(operands) {
			v = operands[i]
		}
		switch width {
		case 1:
			out[offset] = byte(v)
		case 2:
			binary.BigEndian.PutUint16(out[offset:], uint16(v))
		}
		offset += width
	}
	return out
}

// ReadOperand reads a big-endian operand of the given width starting at
// offset in code.
func ReadOperand(code []byte, offset, width int) int {
	switch width {
	case 1:
		return int(code[offset])
	case 2:
		return int(binary.BigEndian.Uint16(code[offset:]))
	}
	return 0
}
