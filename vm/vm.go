// Package vm is Hinton's bytecode interpreter: a direct, unoptimized
// fetch-decode-execute loop over the FuncObject tree package compiler
// produces, per spec.md §2.8. Grounded on the teacher's vm/vm.go dispatch
// loop (the same switch-on-opcode-then-advance-ip shape, the same
// encoding/binary operand decode vm/vm.go already used for OP_CONSTANT)
// and vm/stack.go's push/pop vocabulary, generalized from a single
// opcode to the full set and from a flat instruction stream to call
// frames. Arithmetic, comparisons, and indexing are never reimplemented
// here: every opcode that needs them calls straight into
// object.BinaryOp/UnaryOp/GetIndex/SetIndex/GetSlice, the same functions
// a future tree-walking evaluator would call.
package vm

import (
	"strings"

	"hinton/ast"
	"hinton/bytecode"
	"hinton/errs"
	"hinton/object"
)

// maxFrames bounds call depth; exceeding it is a Recursion error rather
// than a Go stack overflow.
const maxFrames = 1024

// frame is one activation record: the FuncObject being executed, its
// captured upvalue cells, the instruction pointer into its Chunk, and
// the stack index its local slot 0 lives at.
type frame struct {
	fn     *object.FuncObject
	upvals []object.Value
	ip     int
	base   int
}

// VM is a single Hinton execution context: one value stack, one global
// table, and the natives precomputed once so OpGetNative never touches
// the heap on the hot path (a for-loop body re-executes it every pass).
type VM struct {
	heap       *object.Heap
	stack      []object.Value
	frames     []*frame
	globals    []object.Value
	nativeVals []object.Value
}

// New builds a VM over heap. Reuse the same VM across several Run calls
// (e.g. one per REPL line) to keep global state: globals persists across
// calls, only the value stack and call frames reset each run.
func New(heap *object.Heap) *VM {
	vm := &VM{heap: heap, nativeVals: make([]object.Value, len(object.Natives))}
	for i := range object.Natives {
		vm.nativeVals[i] = object.Obj(heap.NewNative(uint16(i)))
	}
	return vm
}

// Heap exposes the VM's backing heap, e.g. so a caller can render a
// returned Value with Value.String.
func (vm *VM) Heap() *object.Heap { return vm.heap }

// Global reads a global slot by the index symbols.Analyzer assigned it.
// Reading past what's been defined yields None rather than panicking,
// since a REPL session may query a name before its declaration runs.
func (vm *VM) Global(idx int32) object.Value {
	if int(idx) >= len(vm.globals) {
		return object.None
	}
	return vm.globals[idx]
}

func (vm *VM) ensureGlobal(idx int) {
	for len(vm.globals) <= idx {
		vm.globals = append(vm.globals, object.None)
	}
}

func (vm *VM) push(v object.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() object.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek(dist int) object.Value { return vm.stack[len(vm.stack)-1-dist] }

// Run executes fn to completion from a fresh stack and returns its final
// value: the operand to the implicit or explicit top-level `return`.
func (vm *VM) Run(fn *object.FuncObject) (object.Value, error) {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]

	closureId := vm.heap.NewClosure(fn, nil)
	vm.push(object.Obj(closureId))
	vm.frames = append(vm.frames, &frame{fn: fn, base: len(vm.stack)})
	return vm.loop()
}

func (vm *VM) loop() (object.Value, error) {
	for {
		fr := vm.frames[len(vm.frames)-1]
		code := fr.fn.Chunk.Code
		opStart := fr.ip
		op := bytecode.Opcode(code[opStart])
		def, err := bytecode.Def(op)
		if err != nil {
			return object.None, errs.New(errs.KindInternal, 0, 0, 0, "%s", err.Error())
		}

		operands := make([]int, len(def.OperandWidths))
		offset := opStart + 1
		for i, w := range def.OperandWidths {
			operands[i] = bytecode.ReadOperand(code, offset, w)
			offset += w
		}
		fr.ip = offset

		loc := fr.fn.Chunk.Locs[opStart]
		result, err := vm.exec(op, operands, fr, loc)
		if err != nil {
			return object.None, attachPos(err, loc)
		}
		if result.done {
			return result.value, nil
		}
	}
}

// stepResult lets exec signal "the whole program is finished" (the
// outermost frame returned) without the loop needing to inspect
// vm.frames' length after every single opcode.
type stepResult struct {
	done  bool
	value object.Value
}

func attachPos(err error, loc object.Loc) error {
	if r, ok := err.(*errs.Report); ok && r.Line == 0 && r.Column == 0 {
		r.Line, r.Column = loc.Line, loc.Col
	}
	return err
}

var binOpcodes = map[bytecode.Opcode]ast.BinOp{
	bytecode.OpAdd: ast.BAdd, bytecode.OpSub: ast.BSub, bytecode.OpMul: ast.BMul,
	bytecode.OpDiv: ast.BDiv, bytecode.OpMod: ast.BMod, bytecode.OpFloorMod: ast.BFloorMod,
	bytecode.OpPow: ast.BPow, bytecode.OpBitAnd: ast.BBitAnd, bytecode.OpBitOr: ast.BBitOr,
	bytecode.OpBitXor: ast.BBitXor, bytecode.OpShl: ast.BShl, bytecode.OpShr: ast.BShr,
	bytecode.OpEq: ast.BEq, bytecode.OpNotEq: ast.BNotEq, bytecode.OpLess: ast.BLess,
	bytecode.OpLessEq: ast.BLessEq, bytecode.OpGreater: ast.BGreater, bytecode.OpGreaterEq: ast.BGreaterEq,
	bytecode.OpIn: ast.BIn, bytecode.OpInstOf: ast.BInstOf, bytecode.OpNonish: ast.BNonish,
}

var unaryOpcodes = map[bytecode.Opcode]ast.UnaryOp{
	bytecode.OpNegate: ast.UNeg, bytecode.OpNot: ast.UNot, bytecode.OpBitNotOp: ast.UBitNot,
}

func (vm *VM) exec(op bytecode.Opcode, operands []int, fr *frame, loc object.Loc) (stepResult, error) {
	switch op {
	case bytecode.OpLoadImmNone:
		vm.push(object.None)
	case bytecode.OpLoadImmTrue:
		vm.push(object.Bool(true))
	case bytecode.OpLoadImmFalse:
		vm.push(object.Bool(false))
	case bytecode.OpLoadImm0I:
		vm.push(object.Int(0))
	case bytecode.OpLoadImm1I:
		vm.push(object.Int(1))
	case bytecode.OpLoadImmN, bytecode.OpLoadImmNLong:
		vm.push(object.Int(int64(operands[0])))
	case bytecode.OpLoadImm0F:
		vm.push(object.Float(0))
	case bytecode.OpLoadImm1F:
		vm.push(object.Float(1))
	case bytecode.OpLoadConstant, bytecode.OpLoadConstantLong:
		vm.push(fr.fn.Chunk.Constants[operands[0]])

	case bytecode.OpDefineGlobal, bytecode.OpDefineGlobalLong:
		idx := operands[0]
		vm.ensureGlobal(idx)
		vm.globals[idx] = vm.pop()
	case bytecode.OpGetGlobal, bytecode.OpGetGlobalLong:
		idx := operands[0]
		vm.ensureGlobal(idx)
		vm.push(vm.globals[idx])
	case bytecode.OpSetGlobal, bytecode.OpSetGlobalLong:
		idx := operands[0]
		vm.ensureGlobal(idx)
		vm.globals[idx] = vm.peek(0)
	case bytecode.OpGetLocal, bytecode.OpGetLocalLong:
		vm.push(vm.stack[fr.base+operands[0]])
	case bytecode.OpSetLocal, bytecode.OpSetLocalLong:
		vm.stack[fr.base+operands[0]] = vm.peek(0)
	case bytecode.OpGetUpvalue, bytecode.OpGetUpvalueLong:
		vm.push(fr.upvals[operands[0]])
	case bytecode.OpSetUpvalue, bytecode.OpSetUpvalueLong:
		fr.upvals[operands[0]] = vm.peek(0)
	case bytecode.OpGetNative:
		vm.push(vm.nativeVals[operands[0]])
	case bytecode.OpGetPrimitive:
		// Unreachable until member-call lowering exists (spec.md §9);
		// the resolution path that would produce this opcode cannot be
		// reached from any expression the parser currently accepts.
		vm.push(object.None)

	case bytecode.OpUnpackSeq, bytecode.OpUnpackSeqLong:
		if err := vm.unpackSeq(operands[0]); err != nil {
			return stepResult{}, err
		}
	case bytecode.OpUnpackIgnore, bytecode.OpUnpackIgnoreLong:
		if err := vm.unpackSplit(operands[0], operands[1], false); err != nil {
			return stepResult{}, err
		}
	case bytecode.OpUnpackAssign, bytecode.OpUnpackAssignLong:
		if err := vm.unpackSplit(operands[0], operands[1], true); err != nil {
			return stepResult{}, err
		}

	case bytecode.OpPopStackTop:
		vm.pop()
	case bytecode.OpPopStackTopN:
		vm.stack = vm.stack[:len(vm.stack)-operands[0]]
	case bytecode.OpDup:
		vm.push(vm.peek(0))

	case bytecode.OpMakeRange, bytecode.OpMakeRangeInclusive:
		max := vm.pop()
		min := vm.pop()
		vm.push(object.Obj(vm.heap.InternRange(min, max, op == bytecode.OpMakeRangeInclusive)))

	case bytecode.OpNegate, bytecode.OpNot, bytecode.OpBitNotOp:
		a := vm.pop()
		v, err := object.UnaryOp(vm.heap, unaryOpcodes[op], a)
		if err != nil {
			return stepResult{}, err
		}
		vm.push(v)

	case bytecode.OpJump:
		fr.ip += operands[0]
	case bytecode.OpJumpIfFalse:
		if !object.Truthy(vm.peek(0), vm.heap) {
			fr.ip += operands[0]
		}
	case bytecode.OpJumpIfTrue:
		if object.Truthy(vm.peek(0), vm.heap) {
			fr.ip += operands[0]
		}
	case bytecode.OpJumpIfFalseOrPop:
		if !object.Truthy(vm.peek(0), vm.heap) {
			fr.ip += operands[0]
		} else {
			vm.pop()
		}
	case bytecode.OpJumpIfTrueOrPop:
		if object.Truthy(vm.peek(0), vm.heap) {
			fr.ip += operands[0]
		} else {
			vm.pop()
		}
	case bytecode.OpLoopJump, bytecode.OpLoopJumpLong:
		fr.ip -= operands[0]

	case bytecode.OpMakeArray, bytecode.OpMakeArrayLong:
		vm.push(object.Obj(vm.heap.NewArray(vm.popN(operands[0]))))
	case bytecode.OpMakeTuple, bytecode.OpMakeTupleLong:
		vm.push(object.Obj(vm.heap.NewTuple(vm.popN(operands[0]))))
	case bytecode.OpMakeDict, bytecode.OpMakeDictLong:
		n := operands[0]
		keys := make([]object.Value, n)
		values := make([]object.Value, n)
		for i := n - 1; i >= 0; i-- {
			values[i] = vm.pop()
			keys[i] = vm.pop()
		}
		vm.push(object.Obj(vm.heap.NewDict(keys, values)))
	case bytecode.OpMakeRepeatArray, bytecode.OpMakeRepeatTuple:
		count := vm.pop()
		if !count.IsInt() || count.AsInt() < 0 {
			return stepResult{}, errs.New(errs.KindArgument, 0, 0, 0, "repeat count must be a non-negative Int")
		}
		value := vm.pop()
		elems := make([]object.Value, count.AsInt())
		for i := range elems {
			elems[i] = value
		}
		if op == bytecode.OpMakeRepeatTuple {
			vm.push(object.Obj(vm.heap.NewTuple(elems)))
		} else {
			vm.push(object.Obj(vm.heap.NewArray(elems)))
		}
	case bytecode.OpBuildStr, bytecode.OpBuildStrLong:
		parts := vm.popN(operands[0])
		var sb strings.Builder
		for _, p := range parts {
			sb.WriteString(p.String(vm.heap))
		}
		vm.push(object.Obj(vm.heap.InternString(sb.String())))

	case bytecode.OpArrayPush:
		value := vm.pop()
		arr := vm.pop()
		obj := vm.heap.Get(arr.AsObj())
		obj.Arr = append(obj.Arr, value)
	case bytecode.OpDictSet:
		value := vm.pop()
		key := vm.pop()
		dict := vm.pop()
		obj := vm.heap.Get(dict.AsObj())
		obj.Dict[key] = value
	case bytecode.OpFreezeTuple:
		v := vm.pop()
		vm.heap.Get(v.AsObj()).Kind = object.OTuple

	case bytecode.OpGetIndex:
		index := vm.pop()
		target := vm.pop()
		v, err := object.GetIndex(vm.heap, target, index)
		if err != nil {
			return stepResult{}, err
		}
		vm.push(v)
	case bytecode.OpSetIndex:
		value := vm.pop()
		index := vm.pop()
		target := vm.pop()
		if err := object.SetIndex(vm.heap, target, index, value); err != nil {
			return stepResult{}, err
		}
		vm.push(value)
	case bytecode.OpGetSlice:
		step := vm.pop()
		end := vm.pop()
		start := vm.pop()
		target := vm.pop()
		v, err := object.GetSlice(vm.heap, target, start, end, step)
		if err != nil {
			return stepResult{}, err
		}
		vm.push(v)

	case bytecode.OpMakeClosure:
		tmpl := vm.heap.Get(fr.fn.Chunk.Constants[operands[0]].AsObj())
		fn := tmpl.Func
		upvals := make([]object.Value, len(fn.Upvalues))
		for i, uv := range fn.Upvalues {
			if uv.IsLocal {
				upvals[i] = vm.stack[fr.base+int(uv.Index)]
			} else {
				upvals[i] = fr.upvals[uv.Index]
			}
		}
		vm.push(object.Obj(vm.heap.NewClosure(fn, upvals)))
	case bytecode.OpFuncCall:
		if err := vm.call(operands[0]); err != nil {
			return stepResult{}, err
		}
	case bytecode.OpReturn:
		ret := vm.pop()
		calleeSlot := fr.base - 1
		vm.stack = vm.stack[:calleeSlot]
		vm.frames = vm.frames[:len(vm.frames)-1]
		if len(vm.frames) == 0 {
			return stepResult{done: true, value: ret}, nil
		}
		vm.push(ret)

	default:
		if binOp, ok := binOpcodes[op]; ok {
			b := vm.pop()
			a := vm.pop()
			v, err := object.BinaryOp(vm.heap, binOp, a, b)
			if err != nil {
				return stepResult{}, err
			}
			vm.push(v)
			break
		}
		return stepResult{}, errs.New(errs.KindInternal, loc.Line, loc.Col, 0, "opcode %d is not executable yet", op)
	}
	return stepResult{}, nil
}

func (vm *VM) popN(n int) []object.Value {
	out := make([]object.Value, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = vm.pop()
	}
	return out
}

func (vm *VM) unpackSeq(count int) error {
	seq := vm.pop()
	elems, err := sequenceElems(vm.heap, seq)
	if err != nil {
		return err
	}
	if len(elems) != count {
		return errs.New(errs.KindIndex, 0, 0, 0, "expected %d values to unpack, got %d", count, len(elems))
	}
	for _, e := range elems {
		vm.push(e)
	}
	return nil
}

func (vm *VM) unpackSplit(head, tail int, bindRest bool) error {
	seq := vm.pop()
	elems, err := sequenceElems(vm.heap, seq)
	if err != nil {
		return err
	}
	if len(elems) < head+tail {
		return errs.New(errs.KindIndex, 0, 0, 0, "not enough values to unpack: need at least %d, got %d", head+tail, len(elems))
	}
	for _, e := range elems[:head] {
		vm.push(e)
	}
	if bindRest {
		rest := append([]object.Value{}, elems[head:len(elems)-tail]...)
		vm.push(object.Obj(vm.heap.NewArray(rest)))
	}
	for _, e := range elems[len(elems)-tail:] {
		vm.push(e)
	}
	return nil
}

func sequenceElems(h *object.Heap, v object.Value) ([]object.Value, error) {
	if !v.IsObj() {
		return nil, errs.New(errs.KindType, 0, 0, 0, "'%s' cannot be unpacked", v.TypeName(h))
	}
	obj := h.Get(v.AsObj())
	switch obj.Kind {
	case object.OArray, object.OTuple:
		return obj.Arr, nil
	}
	return nil, errs.New(errs.KindType, 0, 0, 0, "'%s' cannot be unpacked", v.TypeName(h))
}

// call pops an argument count and a callee off vm.stack, then either
// pushes a new frame (a Closure) or executes a Native synchronously.
// spec.md §4.3's default-parameter binding is realized here: a
// short call pads the missing trailing arguments from the FuncObject's
// Defaults, which the compiler populated in declaration order for every
// parameter that has one.
func (vm *VM) call(argCount int) error {
	calleeSlot := len(vm.stack) - argCount - 1
	callee := vm.stack[calleeSlot]
	if !callee.IsObj() {
		return errs.New(errs.KindType, 0, 0, 0, "'%s' is not callable", callee.TypeName(vm.heap))
	}
	obj := vm.heap.Get(callee.AsObj())
	switch obj.Kind {
	case object.OClosure:
		fn := obj.Func
		min, max := int(fn.MinArity), int(fn.MaxArity)
		if argCount < min || argCount > max {
			return errs.New(errs.KindArgument, 0, 0, 0, "%s() expects between %d and %d argument(s), got %d", fn.Name, min, max, argCount)
		}
		if missing := max - argCount; missing > 0 {
			if missing > len(fn.Defaults) {
				return errs.New(errs.KindArgument, 0, 0, 0, "%s() is missing required argument(s)", fn.Name)
			}
			for _, d := range fn.Defaults[len(fn.Defaults)-missing:] {
				vm.push(d)
			}
		}
		if len(vm.frames) >= maxFrames {
			return errs.New(errs.KindRecursion, 0, 0, 0, "stack overflow: call depth exceeded %d", maxFrames)
		}
		vm.frames = append(vm.frames, &frame{fn: fn, upvals: obj.Upvals, base: calleeSlot + 1})
		return nil
	case object.ONative:
		n := object.Natives[obj.Native]
		if n.Arity >= 0 && argCount != n.Arity {
			return errs.New(errs.KindArgument, 0, 0, 0, "%s() expects exactly %d argument(s), got %d", n.Name, n.Arity, argCount)
		}
		args := append([]object.Value{}, vm.stack[calleeSlot+1:]...)
		result, err := n.Fn(vm.heap, args)
		vm.stack = vm.stack[:calleeSlot]
		if err != nil {
			return err
		}
		vm.push(result)
		return nil
	default:
		return errs.New(errs.KindType, 0, 0, 0, "'%s' is not callable", callee.TypeName(vm.heap))
	}
}
