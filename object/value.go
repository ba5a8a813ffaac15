// Package object is Hinton's runtime value space: the tagged Value union,
// the garbage-collected heap backing Str/Array/Tuple/Range/Func/Native
// objects, and the operator semantics the compiled bytecode invokes.
// Grounded on the stack-of-values idiom in vm/stack.go and the arithmetic
// dispatch in interpreter/interpreter.go, tightened from their untyped
// `any` into the fixed tagged variant spec.md §3 requires.
package object

import "fmt"

// Kind tags which field of a Value is meaningful.
type Kind uint8

const (
	KNone Kind = iota
	KInt
	KFloat
	KBool
	KObj
)

// Value is Hinton's tagged runtime value: None, Int, Float, Bool, or a
// handle into the Heap for everything else.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	o    GcId
}

var None = Value{kind: KNone}

func Int(i int64) Value     { return Value{kind: KInt, i: i} }
func Float(f float64) Value { return Value{kind: KFloat, f: f} }
func Bool(b bool) Value     { return Value{kind: KBool, b: b} }
func Obj(id GcId) Value     { return Value{kind: KObj, o: id} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNone() bool { return v.kind == KNone }
func (v Value) IsInt() bool  { return v.kind == KInt }
func (v Value) IsFloat() bool{ return v.kind == KFloat }
func (v Value) IsBool() bool { return v.kind == KBool }
func (v Value) IsObj() bool  { return v.kind == KObj }
func (v Value) IsNumber() bool { return v.kind == KInt || v.kind == KFloat }

func (v Value) AsInt() int64   { return v.i }
func (v Value) AsFloat() float64 { return v.f }
func (v Value) AsBool() bool   { return v.b }
func (v Value) AsObj() GcId    { return v.o }

// Num widens an Int or Float value to float64; callers must check
// IsNumber first.
func (v Value) Num() float64 {
	if v.kind == KInt {
		return float64(v.i)
	}
	return v.f
}

// Truthy implements spec.md §4.4's truth table: None and false are falsy,
// the zero values of Int/Float are falsy, empty strings/arrays/tuples are
// falsy, everything else is truthy.
func Truthy(v Value, h *Heap) bool {
	switch v.kind {
	case KNone:
		return false
	case KBool:
		return v.b
	case KInt:
		return v.i != 0
	case KFloat:
		return v.f != 0
	case KObj:
		obj := h.Get(v.o)
		switch obj.Kind {
		case OStr:
			return obj.Str != ""
		case OArray:
			return len(obj.Arr) != 0
		case OTuple:
			return len(obj.Arr) != 0
		case ODict:
			return len(obj.Dict) != 0
		default:
			return true
		}
	}
	return true
}

func (v Value) String(h *Heap) string {
	switch v.kind {
	case KNone:
		return "none"
	case KBool:
		if v.b {
			return "true"
		}
		return "false"
	case KInt:
		return fmt.Sprintf("%d", v.i)
	case KFloat:
		return fmt.Sprintf("%g", v.f)
	case KObj:
		return h.Get(v.o).String(h)
	}
	return "?"
}

// TypeName reports the Hinton-level type name used by `typeof` and error
// messages.
func (v Value) TypeName(h *Heap) string {
	switch v.kind {
	case KNone:
		return "None"
	case KBool:
		return "Bool"
	case KInt:
		return "Int"
	case KFloat:
		return "Float"
	case KObj:
		switch h.Get(v.o).Kind {
		case OStr:
			return "String"
		case OArray:
			return "Array"
		case OTuple:
			return "Tuple"
		case ORange:
			return "Range"
		case OFunc, OClosure:
			return "Function"
		case ONative:
			return "Function"
		case ODict:
			return "Dict"
		}
	}
	return "?"
}
