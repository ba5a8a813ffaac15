package object

import (
	"fmt"

	"hinton/errs"
)

// Native is one built-in function: its call arity and Go implementation.
// Index in Natives is the operand OpGetNative/symbols.resolveName agree
// on, so this slice's order must never change without also bumping every
// compiled artifact that depends on it.
type Native struct {
	Name  string
	Arity int
	Fn    func(h *Heap, args []Value) (Value, error)
}

// Natives is the concrete, callable native table. NativeNames is its name
// projection, consulted by the symbol analyzer during identifier
// resolution (spec.md §4.2 step 4) without pulling the analyzer into a
// dependency on the Fn implementations themselves.
var Natives = []Native{
	{Name: "print", Arity: -1, Fn: nativePrint},
	{Name: "len", Arity: 1, Fn: nativeLen},
	{Name: "type_of", Arity: 1, Fn: nativeTypeOf},
	{Name: "assert", Arity: -1, Fn: nativeAssert},
}

var NativeNames = nativeNames()

func nativeNames() []string {
	names := make([]string, len(Natives))
	for i, n := range Natives {
		names[i] = n.Name
	}
	return names
}

func nativePrint(h *Heap, args []Value) (Value, error) {
	for i, a := range args {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(a.String(h))
	}
	fmt.Println()
	return None, nil
}

func nativeLen(h *Heap, args []Value) (Value, error) {
	if len(args) != 1 || !args[0].IsObj() {
		return None, errs.New(errs.KindArgument, 0, 0, 0, "len() expects a single String, Array, Tuple, or Range argument")
	}
	obj := h.Get(args[0].AsObj())
	switch obj.Kind {
	case OStr:
		return Int(int64(len(obj.Str))), nil
	case OArray, OTuple:
		return Int(int64(len(obj.Arr))), nil
	case ORange:
		if !obj.Range.Min.IsInt() || !obj.Range.Max.IsInt() {
			return None, errs.New(errs.KindType, 0, 0, 0, "len() of a Range needs Int bounds")
		}
		lo, hi := obj.Range.Min.AsInt(), obj.Range.Max.AsInt()
		n := hi - lo
		if lo > hi {
			n = lo - hi
		}
		if obj.Range.Closed {
			n++
		}
		return Int(n), nil
	default:
		return None, errs.New(errs.KindType, 0, 0, 0, "'%s' has no length", args[0].TypeName(h))
	}
}

func nativeTypeOf(h *Heap, args []Value) (Value, error) {
	if len(args) != 1 {
		return None, errs.New(errs.KindArgument, 0, 0, 0, "type_of() expects exactly one argument")
	}
	return Obj(h.InternString(args[0].TypeName(h))), nil
}

func nativeAssert(h *Heap, args []Value) (Value, error) {
	if len(args) == 0 {
		return None, errs.New(errs.KindArgument, 0, 0, 0, "assert() expects at least a condition argument")
	}
	if !Truthy(args[0], h) {
		msg := "assertion failed"
		if len(args) > 1 {
			msg = args[1].String(h)
		}
		return None, errs.New(errs.KindAssertion, 0, 0, 0, "%s", msg)
	}
	return None, nil
}

// PrimitiveNames is the resolution-order table of built-in primitive
// methods (e.g. `"abc".len()`), consulted last in the analyzer's
// algorithm. Implementations live in CallPrimitive below, since invoking
// one means dispatching on the receiver's runtime type, the same kind of
// switch GetIndex/Truthy use.
var PrimitiveNames = []string{"len", "to_str", "to_int", "to_float", "push", "pop", "keys", "values"}

// CallPrimitive dispatches a primitive-method call by name against a
// receiver value. Member-access syntax to reach this call site is still
// reserved (spec.md §4.3's "member access... lowering is declared a work
// in progress"); this table and dispatcher exist so the resolution
// algorithm and runtime contract are complete ahead of that lowering.
func CallPrimitive(h *Heap, name string, recv Value, args []Value) (Value, error) {
	switch name {
	case "len":
		return nativeLen(h, []Value{recv})
	case "to_str":
		return Obj(h.InternString(recv.String(h))), nil
	case "to_int":
		return toInt(recv)
	case "to_float":
		return toFloat(recv)
	case "push":
		return primitivePush(h, recv, args)
	case "pop":
		return primitivePop(h, recv)
	case "keys", "values":
		return None, errs.New(errs.KindType, 0, 0, 0, "'%s' is not supported on '%s' yet", name, recv.TypeName(h))
	}
	return None, errs.New(errs.KindReference, 0, 0, 0, "no primitive method named '%s'", name)
}

func toInt(v Value) (Value, error) {
	switch v.kind {
	case KInt:
		return v, nil
	case KFloat:
		return Int(int64(v.f)), nil
	case KBool:
		if v.b {
			return Int(1), nil
		}
		return Int(0), nil
	}
	return None, errs.New(errs.KindType, 0, 0, 0, "cannot convert to Int")
}

func toFloat(v Value) (Value, error) {
	switch v.kind {
	case KFloat:
		return v, nil
	case KInt:
		return Float(float64(v.i)), nil
	}
	return None, errs.New(errs.KindType, 0, 0, 0, "cannot convert to Float")
}

func primitivePush(h *Heap, recv Value, args []Value) (Value, error) {
	if !recv.IsObj() || h.Get(recv.AsObj()).Kind != OArray {
		return None, errs.New(errs.KindType, 0, 0, 0, "push() expects an Array receiver")
	}
	obj := h.Get(recv.AsObj())
	obj.Arr = append(obj.Arr, args...)
	return recv, nil
}

func primitivePop(h *Heap, recv Value) (Value, error) {
	if !recv.IsObj() || h.Get(recv.AsObj()).Kind != OArray {
		return None, errs.New(errs.KindType, 0, 0, 0, "pop() expects an Array receiver")
	}
	obj := h.Get(recv.AsObj())
	if len(obj.Arr) == 0 {
		return None, errs.New(errs.KindIndex, 0, 0, 0, "pop() from an empty Array")
	}
	last := obj.Arr[len(obj.Arr)-1]
	obj.Arr = obj.Arr[:len(obj.Arr)-1]
	return last, nil
}
