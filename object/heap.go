package object

import "fmt"

// GcId is an opaque handle into a Heap. Strings and Ranges with equal
// contents share a handle; every other object gets a unique one, per
// spec.md §5's retention contract.
type GcId uint32

// ObjKind tags the payload a HeapObj carries.
type ObjKind uint8

const (
	OStr ObjKind = iota
	OArray
	OTuple
	ORange
	OFunc
	ONative
	ODict
	OClosure
)

// Range is the Range(min,max,closed) heap payload. Min/Max are themselves
// Values so ranges can be built over ints or floats.
type Range struct {
	Min, Max Value
	Closed   bool
}

// HeapObj is one allocated object. Only the field matching Kind is valid.
type HeapObj struct {
	Kind   ObjKind
	Str    string
	Arr    []Value // Array and Tuple both use Arr
	Range  Range
	Func   *FuncObject
	Native uint16
	Dict   map[Value]Value
	Upvals []Value // OClosure only; Func is the shared compiled template
}

func (o *HeapObj) String(h *Heap) string {
	switch o.Kind {
	case OStr:
		return o.Str
	case OArray:
		return joinValues(o.Arr, h, "[", "]")
	case OTuple:
		return joinValues(o.Arr, h, "(", ")")
	case ORange:
		op := ".."
		if o.Range.Closed {
			op = "..="
		}
		return fmt.Sprintf("%s%s%s", o.Range.Min.String(h), op, o.Range.Max.String(h))
	case OFunc, OClosure:
		return fmt.Sprintf("<func %s>", o.Func.Name)
	case ONative:
		return fmt.Sprintf("<native #%d>", o.Native)
	case ODict:
		s := "{"
		first := true
		for k, v := range o.Dict {
			if !first {
				s += ", "
			}
			first = false
			s += k.String(h) + ": " + v.String(h)
		}
		return s + "}"
	}
	return "?"
}

func joinValues(vs []Value, h *Heap, open, close string) string {
	s := open
	for i, v := range vs {
		if i > 0 {
			s += ", "
		}
		s += v.String(h)
	}
	return s + close
}

type rangeKey struct {
	min, max Value
	closed   bool
}

// Heap is the GC-lite object store: push-only, never collects (spec.md §5
// leaves the algorithm unspecified; this core never frees, which trivially
// satisfies "reachable objects remain valid").
type Heap struct {
	objects []*HeapObj
	strings map[string]GcId
	ranges  map[rangeKey]GcId
}

func NewHeap() *Heap {
	return &Heap{strings: make(map[string]GcId), ranges: make(map[rangeKey]GcId)}
}

func (h *Heap) push(o *HeapObj) GcId {
	h.objects = append(h.objects, o)
	return GcId(len(h.objects) - 1)
}

func (h *Heap) Get(id GcId) *HeapObj { return h.objects[id] }

// InternString canonicalizes s: repeated calls with equal contents return
// the same handle.
func (h *Heap) InternString(s string) GcId {
	if id, ok := h.strings[s]; ok {
		return id
	}
	id := h.push(&HeapObj{Kind: OStr, Str: s})
	h.strings[s] = id
	return id
}

// InternRange canonicalizes a Range(min,max,closed) triple.
func (h *Heap) InternRange(min, max Value, closed bool) GcId {
	key := rangeKey{min, max, closed}
	if id, ok := h.ranges[key]; ok {
		return id
	}
	id := h.push(&HeapObj{Kind: ORange, Range: Range{min, max, closed}})
	h.ranges[key] = id
	return id
}

func (h *Heap) NewArray(elems []Value) GcId {
	return h.push(&HeapObj{Kind: OArray, Arr: elems})
}

func (h *Heap) NewTuple(elems []Value) GcId {
	return h.push(&HeapObj{Kind: OTuple, Arr: elems})
}

func (h *Heap) NewFunc(f *FuncObject) GcId {
	return h.push(&HeapObj{Kind: OFunc, Func: f})
}

func (h *Heap) NewNative(idx uint16) GcId {
	return h.push(&HeapObj{Kind: ONative, Native: idx})
}

// NewDict builds a Dict from parallel key/value slices of equal length.
// Value is plain and comparable, so it serves directly as the map key
// without a separate hashing scheme.
func (h *Heap) NewDict(keys, values []Value) GcId {
	m := make(map[Value]Value, len(keys))
	for i, k := range keys {
		m[k] = values[i]
	}
	return h.push(&HeapObj{Kind: ODict, Dict: m})
}

// NewClosure instantiates fn with its captured upvalue cells. fn itself is
// the shared compiled template living in some chunk's constant pool;
// every call to the enclosing MakeClosure instruction gets its own
// HeapObj so sibling instantiations (e.g. one per loop iteration) don't
// clobber each other's captures.
func (h *Heap) NewClosure(fn *FuncObject, upvals []Value) GcId {
	return h.push(&HeapObj{Kind: OClosure, Func: fn, Upvals: upvals})
}
