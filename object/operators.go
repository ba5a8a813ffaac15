package object

import (
	"math"
	"strings"

	"hinton/ast"
	"hinton/errs"
)

// BinaryOp implements spec.md §4.4's operator truth table for every
// BinOp the compiler can emit as a single opcode (short-circuit `&&`/`||`
// are compiled as jumps, not opcodes, and never reach here).
func BinaryOp(h *Heap, op ast.BinOp, a, b Value) (Value, error) {
	switch op {
	case ast.BAdd:
		return arithOrConcat(h, a, b)
	case ast.BSub:
		return arith(a, b, func(x, y int64) int64 { return x - y }, func(x, y float64) float64 { return x - y })
	case ast.BMul:
		if v, handled, err := mulOrRepeat(h, a, b); handled {
			return v, err
		}
		return arith(a, b, func(x, y int64) int64 { return x * y }, func(x, y float64) float64 { return x * y })
	case ast.BDiv:
		return divide(a, b)
	case ast.BMod:
		return modulo(a, b, false)
	case ast.BFloorMod:
		return modulo(a, b, true)
	case ast.BPow:
		return power(a, b)
	case ast.BBitAnd:
		return bitwise(a, b, func(x, y int64) int64 { return x & y })
	case ast.BBitOr:
		return bitwise(a, b, func(x, y int64) int64 { return x | y })
	case ast.BBitXor:
		return bitwise(a, b, func(x, y int64) int64 { return x ^ y })
	case ast.BShl:
		return bitwise(a, b, func(x, y int64) int64 { return x << uint(y) })
	case ast.BShr:
		return bitwise(a, b, func(x, y int64) int64 { return x >> uint(y) })
	case ast.BEq:
		return Bool(Equals(h, a, b)), nil
	case ast.BNotEq:
		return Bool(!Equals(h, a, b)), nil
	case ast.BLess:
		return compare(a, b, func(c int) bool { return c < 0 })
	case ast.BLessEq:
		return compare(a, b, func(c int) bool { return c <= 0 })
	case ast.BGreater:
		return compare(a, b, func(c int) bool { return c > 0 })
	case ast.BGreaterEq:
		return compare(a, b, func(c int) bool { return c >= 0 })
	case ast.BIn:
		return membership(h, a, b)
	case ast.BInstOf:
		return Bool(a.TypeName(h) == stringValue(h, b)), nil
	case ast.BNonish:
		if a.IsNone() {
			return b, nil
		}
		return a, nil
	}
	return None, errs.New(errs.KindType, 0, 0, 0, "unsupported binary operator")
}

// UnaryOp implements the prefix operator set. `new`, `typeof`, `await`
// are compiler-level/reserved forms handled before reaching here.
func UnaryOp(h *Heap, op ast.UnaryOp, a Value) (Value, error) {
	switch op {
	case ast.UNeg:
		switch a.kind {
		case KInt:
			return Int(-a.i), nil
		case KFloat:
			return Float(-a.f), nil
		}
		return None, typeErr(h, "unary -", a)
	case ast.UNot:
		return Bool(!Truthy(a, h)), nil
	case ast.UBitNot:
		if a.kind != KInt {
			return None, typeErr(h, "unary ~", a)
		}
		return Int(^a.i), nil
	}
	return None, errs.New(errs.KindType, 0, 0, 0, "unsupported unary operator")
}

func typeErr(h *Heap, op string, a Value) error {
	return errs.New(errs.KindType, 0, 0, 0, "%s is not defined for '%s'", op, a.TypeName(h))
}

func arithOrConcat(h *Heap, a, b Value) (Value, error) {
	if a.IsObj() && b.IsObj() {
		ao, bo := h.Get(a.AsObj()), h.Get(b.AsObj())
		if ao.Kind == OStr && bo.Kind == OStr {
			return Obj(h.InternString(ao.Str + bo.Str)), nil
		}
		if ao.Kind == OArray && bo.Kind == OArray {
			out := append(append([]Value{}, ao.Arr...), bo.Arr...)
			return Obj(h.NewArray(out)), nil
		}
	}
	return arith(a, b, func(x, y int64) int64 { return x + y }, func(x, y float64) float64 { return x + y })
}

// mulOrRepeat implements `"ab" * 3` / `3 * "ab"` string-repeat, the one
// cross-type overload of `*` spec.md §4.4's table allows. handled is false
// when neither operand is a (String, Int) pair, so the caller falls through
// to plain numeric multiplication.
func mulOrRepeat(h *Heap, a, b Value) (Value, bool, error) {
	str, n, ok := stringRepeatOperands(h, a, b)
	if !ok {
		return None, false, nil
	}
	if n < 0 {
		return None, true, errs.New(errs.KindArgument, 0, 0, 0, "repeat count must be non-negative")
	}
	return Obj(h.InternString(strings.Repeat(str, int(n)))), true, nil
}

func stringRepeatOperands(h *Heap, a, b Value) (string, int64, bool) {
	if a.IsObj() && b.kind == KInt {
		if obj := h.Get(a.AsObj()); obj.Kind == OStr {
			return obj.Str, b.i, true
		}
	}
	if b.IsObj() && a.kind == KInt {
		if obj := h.Get(b.AsObj()); obj.Kind == OStr {
			return obj.Str, a.i, true
		}
	}
	return "", 0, false
}

func arith(a, b Value, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) (Value, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return None, errs.New(errs.KindType, 0, 0, 0, "arithmetic requires numeric operands")
	}
	if a.kind == KInt && b.kind == KInt {
		return Int(intOp(a.i, b.i)), nil
	}
	return Float(floatOp(a.Num(), b.Num())), nil
}

func divide(a, b Value) (Value, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return None, errs.New(errs.KindType, 0, 0, 0, "'/' requires numeric operands")
	}
	if a.kind == KInt && b.kind == KInt {
		if b.i == 0 {
			return None, errs.New(errs.KindZeroDivision, 0, 0, 0, "division by zero")
		}
		return Int(a.i / b.i), nil
	}
	if b.Num() == 0 {
		return None, errs.New(errs.KindZeroDivision, 0, 0, 0, "division by zero")
	}
	return Float(a.Num() / b.Num()), nil
}

func modulo(a, b Value, floor bool) (Value, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return None, errs.New(errs.KindType, 0, 0, 0, "'mod' requires numeric operands")
	}
	if a.kind == KInt && b.kind == KInt {
		if b.i == 0 {
			return None, errs.New(errs.KindZeroDivision, 0, 0, 0, "division by zero")
		}
		r := a.i % b.i
		if floor && r != 0 && (r < 0) != (b.i < 0) {
			r += b.i
		}
		return Int(r), nil
	}
	if b.Num() == 0 {
		return None, errs.New(errs.KindZeroDivision, 0, 0, 0, "division by zero")
	}
	r := modFloat(a.Num(), b.Num())
	if floor && r != 0 && (r < 0) != (b.Num() < 0) {
		r += b.Num()
	}
	return Float(r), nil
}

func modFloat(a, b float64) float64 {
	q := a - b*float64(int64(a/b))
	return q
}

func power(a, b Value) (Value, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return None, errs.New(errs.KindType, 0, 0, 0, "'**' requires numeric operands")
	}
	if a.kind == KInt && b.kind == KInt && b.i >= 0 {
		var result int64 = 1
		base := a.i
		exp := b.i
		for exp > 0 {
			if exp&1 == 1 {
				result *= base
			}
			base *= base
			exp >>= 1
		}
		return Int(result), nil
	}
	return Float(math.Pow(a.Num(), b.Num())), nil
}

func bitwise(a, b Value, op func(int64, int64) int64) (Value, error) {
	if a.kind != KInt || b.kind != KInt {
		return None, errs.New(errs.KindType, 0, 0, 0, "bitwise operators require Int operands")
	}
	return Int(op(a.i, b.i)), nil
}

// Equals implements structural equality: numbers compare across Int/Float,
// heap strings/arrays/tuples compare by contents.
func Equals(h *Heap, a, b Value) bool {
	if a.kind != b.kind {
		if a.IsNumber() && b.IsNumber() {
			return a.Num() == b.Num()
		}
		return false
	}
	switch a.kind {
	case KNone:
		return true
	case KBool:
		return a.b == b.b
	case KInt:
		return a.i == b.i
	case KFloat:
		return a.f == b.f
	case KObj:
		if a.o == b.o {
			return true
		}
		ao, bo := h.Get(a.o), h.Get(b.o)
		if ao.Kind != bo.Kind {
			return false
		}
		switch ao.Kind {
		case OStr:
			return ao.Str == bo.Str
		case OArray, OTuple:
			if len(ao.Arr) != len(bo.Arr) {
				return false
			}
			for i := range ao.Arr {
				if !Equals(h, ao.Arr[i], bo.Arr[i]) {
					return false
				}
			}
			return true
		case ODict:
			if len(ao.Dict) != len(bo.Dict) {
				return false
			}
			for k, v := range ao.Dict {
				bv, ok := bo.Dict[k]
				if !ok || !Equals(h, v, bv) {
					return false
				}
			}
			return true
		}
	}
	return false
}

func compare(a, b Value, pred func(int) bool) (Value, error) {
	if a.IsNumber() && b.IsNumber() {
		switch {
		case a.Num() < b.Num():
			return Bool(pred(-1)), nil
		case a.Num() > b.Num():
			return Bool(pred(1)), nil
		default:
			return Bool(pred(0)), nil
		}
	}
	return None, errs.New(errs.KindType, 0, 0, 0, "comparison requires numeric operands")
}

func membership(h *Heap, needle, haystack Value) (Value, error) {
	if !haystack.IsObj() {
		return None, errs.New(errs.KindType, 0, 0, 0, "'in' requires a String, Array, or Tuple right-hand side")
	}
	obj := h.Get(haystack.AsObj())
	switch obj.Kind {
	case OStr:
		if !needle.IsObj() || h.Get(needle.AsObj()).Kind != OStr {
			return None, errs.New(errs.KindType, 0, 0, 0, "'in' on a String requires a String left-hand side")
		}
		return Bool(strings.Contains(obj.Str, h.Get(needle.AsObj()).Str)), nil
	case OArray, OTuple:
		for _, v := range obj.Arr {
			if Equals(h, needle, v) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case ORange:
		return Bool(inRange(needle, obj.Range)), nil
	case ODict:
		_, ok := obj.Dict[needle]
		return Bool(ok), nil
	}
	return None, errs.New(errs.KindType, 0, 0, 0, "'in' is not defined for '%s'", haystack.TypeName(h))
}

func inRange(v Value, r Range) bool {
	if !v.IsNumber() {
		return false
	}
	n := v.Num()
	if n < r.Min.Num() {
		return false
	}
	if r.Closed {
		return n <= r.Max.Num()
	}
	return n < r.Max.Num()
}

func stringValue(h *Heap, v Value) string {
	if v.IsObj() && h.Get(v.AsObj()).Kind == OStr {
		return h.Get(v.AsObj()).Str
	}
	return v.String(h)
}

// GetIndex implements `target[index]` for Dict, Array, Tuple, String, and
// Range.
func GetIndex(h *Heap, target, index Value) (Value, error) {
	if !target.IsObj() {
		return None, errs.New(errs.KindType, 0, 0, 0, "'%s' is not indexable", target.TypeName(h))
	}
	obj := h.Get(target.AsObj())
	if obj.Kind == ODict {
		v, ok := obj.Dict[index]
		if !ok {
			return None, errs.New(errs.KindKey, 0, 0, 0, "key %s not found", index.String(h))
		}
		return v, nil
	}
	if index.kind != KInt {
		return None, errs.New(errs.KindType, 0, 0, 0, "index must be an Int")
	}
	i := index.i
	switch obj.Kind {
	case OArray, OTuple:
		if i < 0 {
			i += int64(len(obj.Arr))
		}
		if i < 0 || i >= int64(len(obj.Arr)) {
			return None, errs.New(errs.KindIndex, 0, 0, 0, "index %d out of range", index.i)
		}
		return obj.Arr[i], nil
	case OStr:
		r := []rune(obj.Str)
		if i < 0 {
			i += int64(len(r))
		}
		if i < 0 || i >= int64(len(r)) {
			return None, errs.New(errs.KindIndex, 0, 0, 0, "index %d out of range", index.i)
		}
		return Obj(h.InternString(string(r[i]))), nil
	case ORange:
		lo, hi, step := obj.Range.Min.AsInt(), obj.Range.Max.AsInt(), int64(1)
		n := hi - lo
		if lo > hi {
			n, step = lo-hi, -1
		}
		if obj.Range.Closed {
			n++
		}
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return None, errs.New(errs.KindIndex, 0, 0, 0, "index %d out of range", index.i)
		}
		return Int(lo + i*step), nil
	}
	return None, errs.New(errs.KindType, 0, 0, 0, "'%s' is not indexable", target.TypeName(h))
}

// SetIndex implements `target[index] = value` for Array.
func SetIndex(h *Heap, target, index, value Value) error {
	if !target.IsObj() {
		return errs.New(errs.KindType, 0, 0, 0, "'%s' does not support index assignment", target.TypeName(h))
	}
	obj := h.Get(target.AsObj())
	if obj.Kind == ODict {
		obj.Dict[index] = value
		return nil
	}
	if obj.Kind != OArray {
		return errs.New(errs.KindType, 0, 0, 0, "'%s' does not support index assignment", target.TypeName(h))
	}
	if index.kind != KInt {
		return errs.New(errs.KindType, 0, 0, 0, "index must be an Int")
	}
	i := index.i
	if i < 0 {
		i += int64(len(obj.Arr))
	}
	if i < 0 || i >= int64(len(obj.Arr)) {
		return errs.New(errs.KindIndex, 0, 0, 0, "index %d out of range", index.i)
	}
	obj.Arr[i] = value
	return nil
}

// GetSlice implements `target[start:end:step]` for Array and String,
// Python-style, with step defaulting to 1 and omitted bounds clamped.
func GetSlice(h *Heap, target, start, end, step Value) (Value, error) {
	if !target.IsObj() {
		return None, errs.New(errs.KindType, 0, 0, 0, "'%s' is not sliceable", target.TypeName(h))
	}
	obj := h.Get(target.AsObj())

	stepN := int64(1)
	if !step.IsNone() {
		stepN = step.i
	}
	if stepN == 0 {
		return None, errs.New(errs.KindArgument, 0, 0, 0, "slice step cannot be zero")
	}

	switch obj.Kind {
	case OArray, OTuple:
		lo, hi := sliceBounds(start, end, int64(len(obj.Arr)), stepN)
		out := sliceValues(obj.Arr, lo, hi, stepN)
		if obj.Kind == OTuple {
			return Obj(h.NewTuple(out)), nil
		}
		return Obj(h.NewArray(out)), nil
	case OStr:
		r := []rune(obj.Str)
		lo, hi := sliceBounds(start, end, int64(len(r)), stepN)
		var sb strings.Builder
		for i := lo; (stepN > 0 && i < hi) || (stepN < 0 && i > hi); i += stepN {
			sb.WriteRune(r[i])
		}
		return Obj(h.InternString(sb.String())), nil
	}
	return None, errs.New(errs.KindType, 0, 0, 0, "'%s' is not sliceable", target.TypeName(h))
}

func sliceBounds(start, end Value, length, step int64) (int64, int64) {
	lo, hi := int64(0), length
	if step < 0 {
		lo, hi = length-1, -1
	}
	if !start.IsNone() {
		lo = start.i
		if lo < 0 {
			lo += length
		}
	}
	if !end.IsNone() {
		hi = end.i
		if hi < 0 {
			hi += length
		}
	}
	return lo, hi
}

func sliceValues(vs []Value, lo, hi, step int64) []Value {
	out := []Value{}
	if step > 0 {
		for i := lo; i < hi && i < int64(len(vs)); i += step {
			if i >= 0 {
				out = append(out, vs[i])
			}
		}
	} else {
		for i := lo; i > hi && i >= 0; i += step {
			if i < int64(len(vs)) {
				out = append(out, vs[i])
			}
		}
	}
	return out
}

