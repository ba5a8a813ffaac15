package object

import (
	"math"

	"hinton/bytecode"
)

// Loc is one instruction's source position, kept in a table parallel to
// Chunk.Code (spec.md §3's "(line, column) source locations").
type Loc struct {
	Line, Col int32
}

const maxConstants = 1 << 16

// constKey makes Int/Float/Bool/Obj constants structurally comparable so
// AddConstant can dedup without an O(n) scan, per spec.md §3's
// constant-pool dedup requirement and the supplemental (TypeTag, bits)
// scheme original_source/src/chunk.rs uses.
type constKey struct {
	kind Kind
	bits uint64
}

func keyOf(v Value) constKey {
	switch v.kind {
	case KInt:
		return constKey{KInt, uint64(v.i)}
	case KFloat:
		return constKey{KFloat, math.Float64bits(v.f)}
	case KBool:
		b := uint64(0)
		if v.b {
			b = 1
		}
		return constKey{KBool, b}
	case KObj:
		return constKey{KObj, uint64(v.o)}
	default:
		return constKey{KNone, 0}
	}
}

// Chunk is one function's compiled bytecode: instruction bytes, a
// parallel location table, and a deduplicated constant pool.
type Chunk struct {
	Code      []byte
	Locs      []Loc
	Constants []Value

	index map[constKey]int32
}

func NewChunk() *Chunk {
	return &Chunk{index: make(map[constKey]int32)}
}

// Emit appends one instruction and returns the byte offset of its opcode,
// for later jump patching.
func (c *Chunk) Emit(op bytecode.Opcode, line, col int32, operands ...int) int {
	pos := len(c.Code)
	instr := bytecode.Make(op, operands...)
	for range instr {
		c.Locs = append(c.Locs, Loc{line, col})
	}
	c.Code = append(c.Code, instr...)
	return pos
}

// AddConstant interns v into the pool, reusing an existing slot for an
// equal value. ok is false once the pool has reached its 2^16 cap.
func (c *Chunk) AddConstant(v Value) (idx int32, ok bool) {
	k := keyOf(v)
	if idx, found := c.index[k]; found {
		return idx, true
	}
	if len(c.Constants) >= maxConstants {
		return 0, false
	}
	idx = int32(len(c.Constants))
	c.Constants = append(c.Constants, v)
	c.index[k] = idx
	return idx, true
}

// PatchJump backfills the two-byte placeholder operand at pos+1 with the
// forward distance to the current end of the chunk. ok is false if that
// distance overflows a uint16 (spec.md §4.3's MaxCapacity case).
func (c *Chunk) PatchJump(pos int) (ok bool) {
	dist := len(c.Code) - (pos + 3)
	if dist < 0 || dist > 0xFFFF {
		return false
	}
	c.Code[pos+1] = byte(dist >> 8)
	c.Code[pos+2] = byte(dist)
	return true
}

// EmitLoop emits a backward jump to start, choosing the short or long
// opcode form depending on the distance. ok is false on overflow.
func (c *Chunk) EmitLoop(start int, line, col int32) (ok bool) {
	// tentative distance assuming the short form; recomputed if long.
	shortLen := 2
	dist := len(c.Code) + shortLen - start
	if dist <= 0xFF {
		c.Emit(bytecode.OpLoopJump, line, col, dist)
		return true
	}
	longLen := 3
	dist = len(c.Code) + longLen - start
	if dist > 0xFFFF {
		return false
	}
	c.Emit(bytecode.OpLoopJumpLong, line, col, dist)
	return true
}

// UpvalueDesc mirrors symbols.Upvalue: whether this slot captures the
// immediately enclosing function's local stack slot, or chains through
// that function's own upvalue list.
type UpvalueDesc struct {
	IsLocal bool
	Index   int32
}

// FuncObject is a compiled function: its Chunk plus the metadata the VM
// needs to set up a call frame (spec.md §3).
type FuncObject struct {
	Name      string
	MinArity  byte
	MaxArity  byte
	Defaults  []Value
	Upvalues  []UpvalueDesc
	Chunk     *Chunk
}

func NewFuncObject(name string) *FuncObject {
	return &FuncObject{Name: name, Chunk: NewChunk()}
}
