package symbols

import (
	"hinton/ast"
	"hinton/errs"
	"hinton/object"
	"hinton/token"
)

func nativeIndex(name string) (int32, bool) {
	for i, n := range object.NativeNames {
		if n == name {
			return int32(i), true
		}
	}
	return 0, false
}

func primitiveIndex(name string) (int32, bool) {
	for i, n := range object.PrimitiveNames {
		if n == name {
			return int32(i), true
		}
	}
	return 0, false
}

// Analyzer walks an *ast.Arena once, building one Table per function
// (Tables[0] is always the module's implicit table) and a Resolutions map
// from every KIdent reference node to where it resolves.
type Analyzer struct {
	arena       *ast.Arena
	Tables      []*Table
	Resolutions map[ast.NodeId]Resolution
	GlobalNames []string

	// FuncTables maps a KFuncDecl node id to the Table built for its body,
	// and ClassInitTables maps a ClassId to the Table built for its init
	// block, so the compiler can find the right table by node id instead
	// of relying on visiting nodes in the same order the analyzer did.
	FuncTables      map[ast.NodeId]*Table
	ClassInitTables map[ast.ClassId]*Table

	// Locations records where a single-identifier declaration (var, func,
	// class) landed, keyed by the declaring node's id, so the compiler
	// knows whether to emit DefineGlobal or leave the value on the stack
	// without re-deriving scope rules a second time.
	Locations map[ast.NodeId]Location
	// UnpackLocations does the same for a KVarDecl/KFor/comprehension
	// target that is a KUnpackPattern, keyed by the pattern node's id, one
	// Location per non-wildcard member in declaration order.
	UnpackLocations map[ast.NodeId][]Location
	// ImportLocations holds one Location per imported item, keyed by the
	// KImport node's id, in the same order as ImportData.Items.
	ImportLocations map[ast.NodeId][]Location

	// ForIterSlots/ForIndexSlots hold the hidden stack slots a KFor node's
	// lowering needs for the evaluated iterable and its cursor. They are
	// never reachable by name (bindTarget only ever declares the loop
	// target itself), but still consume real stack positions, so the
	// analyzer reserves them the same way it reserves named locals.
	ForIterSlots  map[ast.NodeId]Location
	ForIndexSlots map[ast.NodeId]Location

	// CompAccSlots holds the hidden slot a comprehension's accumulator
	// (the array/tuple/dict being built) lives in, keyed by the
	// KCompactArray/Tuple/Dict node id. CompIterSlots/CompIndexSlots are
	// the same idea as ForIterSlots/ForIndexSlots but one pair per clause,
	// keyed by that clause's Iterable node id (unique per clause).
	CompAccSlots   map[ast.NodeId]Location
	CompIterSlots  map[ast.NodeId]Location
	CompIndexSlots map[ast.NodeId]Location

	globalIndex map[string]int32
	errors      *errs.Batch
	cur         *Table
}

// Analyze runs the analyzer over a whole module arena.
func Analyze(a *ast.Arena) (*Analyzer, *errs.Batch) {
	an := &Analyzer{
		arena:           a,
		Resolutions:     make(map[ast.NodeId]Resolution),
		globalIndex:     make(map[string]int32),
		errors:          errs.NewBatch(),
		FuncTables:      make(map[ast.NodeId]*Table),
		ClassInitTables: make(map[ast.ClassId]*Table),
		Locations:       make(map[ast.NodeId]Location),
		UnpackLocations: make(map[ast.NodeId][]Location),
		ImportLocations: make(map[ast.NodeId][]Location),
		ForIterSlots:    make(map[ast.NodeId]Location),
		ForIndexSlots:   make(map[ast.NodeId]Location),
		CompAccSlots:    make(map[ast.NodeId]Location),
		CompIterSlots:   make(map[ast.NodeId]Location),
		CompIndexSlots:  make(map[ast.NodeId]Location),
	}
	module := newTable(nil, true)
	an.Tables = append(an.Tables, module)
	an.cur = module

	mod := a.Module()
	for _, id := range mod.Stmts {
		an.hoistTopLevel(id)
	}
	for _, id := range mod.Stmts {
		an.stmt(id)
	}
	return an, an.errors
}

func (an *Analyzer) internGlobalName(name string) int32 {
	if idx, ok := an.globalIndex[name]; ok {
		return idx
	}
	idx := int32(len(an.GlobalNames))
	an.GlobalNames = append(an.GlobalNames, name)
	an.globalIndex[name] = idx
	return idx
}

// hoistTopLevel pre-declares top-level function and class names so mutual
// recursion and forward references resolve, mirroring the teacher's
// two-pass module handling.
func (an *Analyzer) hoistTopLevel(id ast.NodeId) {
	n := an.arena.Get(id)
	switch n.Kind {
	case ast.KFuncDecl:
		d := n.Data.(ast.FuncDeclData)
		if !d.IsLambda {
			an.declare(d.Name, KindFunction)
		}
	case ast.KClassDecl:
		cid := n.Data.(ast.ClassId)
		c := an.arena.Class(cid)
		an.declare(c.Name, KindClass)
	}
}

func (an *Analyzer) declare(tok token.Token, kind Kind) *Symbol {
	name := tok.Lexeme
	tbl := an.cur
	scope := tbl.currentScope()
	for i := range tbl.Symbols {
		s := &tbl.Symbols[i]
		if s.Name == name && s.ScopeId == scope && !s.OutOfScope {
			an.errors.Add(errs.New(errs.KindDuplication, tok.Line, tok.ColumnStart, int32(len(tok.Lexeme)),
				"'%s' is already declared in this scope", name))
			return s
		}
	}
	sym := Symbol{Name: name, Kind: kind, ScopeId: scope, Depth: tbl.Depth, Tok: tok}
	if tbl.isGlobalScope() {
		sym.Location = Location{LocGlobal, an.internGlobalName(name)}
	} else {
		sym.Location = Location{LocStack, tbl.StackLen}
		tbl.StackLen++
	}
	tbl.Symbols = append(tbl.Symbols, sym)
	return &tbl.Symbols[len(tbl.Symbols)-1]
}

// reserveHiddenSlot claims the next stack slot in the current table without
// registering a named Symbol, for compiler-only temporaries (a for-loop's
// evaluated iterable and cursor) that must still occupy a real position so
// later declarations in the same function don't collide with them.
func (an *Analyzer) reserveHiddenSlot() Location {
	loc := Location{LocStack, an.cur.StackLen}
	an.cur.StackLen++
	return loc
}

func (an *Analyzer) resolveName(tok token.Token) Resolution {
	name := tok.Lexeme
	if sym, ok := an.cur.findLocal(name); ok {
		return an.useSymbol(sym, tok)
	}
	if res, ok := an.resolveUpvalue(an.cur, name); ok {
		return res
	}
	if idx, ok := nativeIndex(name); ok {
		return Resolution{ResNative, idx}
	}
	if idx, ok := primitiveIndex(name); ok {
		return Resolution{ResPrimitive, idx}
	}
	an.errors.Add(errs.New(errs.KindReference, tok.Line, tok.ColumnStart, int32(len(tok.Lexeme)),
		"cannot find '%s' in this scope", name))
	return Resolution{ResNone, 0}
}

func (an *Analyzer) useSymbol(sym *Symbol, tok token.Token) Resolution {
	if !sym.Initialized {
		an.errors.Add(errs.New(errs.KindReference, tok.Line, tok.ColumnStart, int32(len(tok.Lexeme)),
			"'%s' is used before it is initialized", sym.Name))
		return Resolution{ResNone, 0}
	}
	sym.Used = true
	if sym.Location.Kind == LocGlobal {
		return Resolution{ResGlobal, sym.Location.Index}
	}
	return Resolution{ResStack, sym.Location.Index}
}

// resolveUpvalue walks the table chain above start looking for name,
// chaining an Upvalue through every intervening function. A match that
// turns out to live in the global pool short-circuits the chain: globals
// need no capture, however many function boundaries sit in between.
func (an *Analyzer) resolveUpvalue(start *Table, name string) (Resolution, bool) {
	return an.resolveUpvalueFrom(start, name)
}

func (an *Analyzer) resolveUpvalueFrom(tbl *Table, name string) (Resolution, bool) {
	parent := tbl.Parent
	if parent == nil {
		return Resolution{}, false
	}
	if sym, ok := parent.findLocal(name); ok {
		if sym.Location.Kind == LocGlobal {
			sym.Used = true
			return Resolution{ResGlobal, sym.Location.Index}, true
		}
		if !sym.Initialized {
			return Resolution{}, false
		}
		sym.Used = true
		sym.Captured = true
		idx := tbl.addUpvalue(name, true, sym.Location.Index)
		return Resolution{ResUpvalue, idx}, true
	}
	if up, ok := an.resolveUpvalueFrom(parent, name); ok {
		if up.Kind == ResGlobal {
			return up, true
		}
		idx := tbl.addUpvalue(name, false, up.Index)
		return Resolution{ResUpvalue, idx}, true
	}
	return Resolution{}, false
}

// --- statements --------------------------------------------------------

func (an *Analyzer) block(id ast.NodeId) {
	n := an.arena.Get(id)
	d := n.Data.(ast.BlockData)
	scope := an.cur.openBlock()
	for _, s := range d.Stmts {
		an.stmt(s)
	}
	an.cur.closeBlock(scope)
}

func (an *Analyzer) stmt(id ast.NodeId) {
	if id == ast.NoNode {
		return
	}
	n := an.arena.Get(id)
	switch n.Kind {
	case ast.KBlock:
		an.block(id)
	case ast.KExprStmt:
		an.expr(n.Data.(ast.ExprStmtData).Expr)
	case ast.KIf:
		d := n.Data.(ast.IfData)
		an.expr(d.Cond)
		an.stmt(d.Then)
		an.stmt(d.Else)
	case ast.KWhile:
		d := n.Data.(ast.WhileData)
		an.expr(d.Cond)
		prev := an.cur.LoopCtx
		an.cur.LoopCtx = LoopWhile
		an.stmt(d.Body)
		an.cur.LoopCtx = prev
	case ast.KFor:
		d := n.Data.(ast.ForData)
		an.expr(d.Iterable)
		an.ForIterSlots[id] = an.reserveHiddenSlot()
		an.ForIndexSlots[id] = an.reserveHiddenSlot()
		scope := an.cur.openBlock()
		an.bindTarget(d.Target, KindVariable)
		prev := an.cur.LoopCtx
		an.cur.LoopCtx = LoopFor
		an.stmt(d.Body)
		an.cur.LoopCtx = prev
		an.cur.closeBlock(scope)
		an.cur.StackLen -= 2
	case ast.KLoop:
		d := n.Data.(ast.LoopData)
		prev := an.cur.LoopCtx
		an.cur.LoopCtx = LoopLoop
		an.stmt(d.Body)
		an.cur.LoopCtx = prev
	case ast.KBreak:
		d := n.Data.(ast.BreakData)
		an.expr(d.Cond)
		if an.cur.LoopCtx == LoopNone {
			an.errors.Add(errs.New(errs.KindSyntax, n.Tok.Line, n.Tok.ColumnStart, int32(len(n.Tok.Lexeme)),
				"'break' outside of a loop"))
		}
	case ast.KContinue:
		d := n.Data.(ast.ContinueData)
		an.expr(d.Cond)
		if an.cur.LoopCtx == LoopNone {
			an.errors.Add(errs.New(errs.KindSyntax, n.Tok.Line, n.Tok.ColumnStart, int32(len(n.Tok.Lexeme)),
				"'continue' outside of a loop"))
		}
	case ast.KReturn:
		d := n.Data.(ast.ReturnData)
		an.expr(d.Value)
		if !an.cur.IsFuncCtx {
			an.errors.Add(errs.New(errs.KindSyntax, n.Tok.Line, n.Tok.ColumnStart, int32(len(n.Tok.Lexeme)),
				"'return' outside of a function"))
		}
	case ast.KYield:
		an.expr(n.Data.(ast.YieldData).Value)
	case ast.KThrow:
		an.expr(n.Data.(ast.ThrowData).Value)
	case ast.KDel:
		an.expr(n.Data.(ast.DelData).Target)
	case ast.KTryCatch:
		d := n.Data.(ast.TryCatchData)
		an.stmt(d.Try)
		if d.Catch != ast.NoNode {
			scope := an.cur.openBlock()
			if d.CatchName != nil {
				an.declare(*d.CatchName, KindVariable)
				an.cur.Symbols[len(an.cur.Symbols)-1].Initialized = true
			}
			an.stmt(d.Catch)
			an.cur.closeBlock(scope)
		}
		an.stmt(d.Finally)
	case ast.KWith:
		d := n.Data.(ast.WithData)
		an.expr(d.Resource)
		scope := an.cur.openBlock()
		an.declare(d.Name, KindVariable)
		an.cur.Symbols[len(an.cur.Symbols)-1].Initialized = true
		an.stmt(d.Body)
		an.cur.closeBlock(scope)
	case ast.KVarDecl:
		d := n.Data.(ast.VarDeclData)
		an.expr(d.Init)
		kind := KindVariable
		if d.IsConst {
			kind = KindConstant
		}
		an.bindTarget(d.Target, kind)
	case ast.KFuncDecl:
		an.funcDecl(id, false)
	case ast.KClassDecl:
		an.classDecl(id)
	case ast.KImport:
		d := n.Data.(ast.ImportData)
		for _, item := range d.Items {
			an.declare(item, KindVariable)
			an.cur.Symbols[len(an.cur.Symbols)-1].Initialized = true
		}
	case ast.KExport:
		an.stmt(n.Data.(ast.ExportData).Item)
	}
}

// bindTarget declares every name in a KIdent or KUnpackPattern target and
// marks it initialized (the initializer, if any, was already walked).
func (an *Analyzer) bindTarget(id ast.NodeId, kind Kind) {
	n := an.arena.Get(id)
	switch n.Kind {
	case ast.KIdent:
		sym := an.declare(n.Tok, kind)
		sym.Initialized = true
		an.Locations[id] = sym.Location
	case ast.KUnpackPattern:
		d := n.Data.(ast.UnpackPatternData)
		var locs []Location
		for _, m := range d.Members {
			if m.Kind == ast.MemberEmptyWildcard {
				continue
			}
			sym := an.declare(m.Name, kind)
			sym.Initialized = true
			locs = append(locs, sym.Location)
		}
		an.UnpackLocations[id] = locs
	}
}

func (an *Analyzer) funcDecl(id ast.NodeId, inClass bool) {
	n := an.arena.Get(id)
	d := n.Data.(ast.FuncDeclData)
	if !d.IsLambda && !inClass {
		var sym *Symbol
		if s, ok := an.cur.findLocal(d.Name.Lexeme); ok && s.ScopeId == an.cur.currentScope() {
			sym = s
			sym.Initialized = true
		} else {
			sym = an.declare(d.Name, KindFunction)
			sym.Initialized = true
		}
		an.Locations[id] = sym.Location
	}
	for _, dec := range d.Decorators {
		an.expr(dec)
	}
	child := newTable(an.cur, false)
	child.IsClassCtx = inClass
	an.Tables = append(an.Tables, child)
	an.FuncTables[id] = child
	prev := an.cur
	an.cur = child

	for _, p := range d.Params {
		if p.Default != ast.NoNode {
			an.expr(p.Default)
		}
		an.declare(p.Name, KindParameter)
		an.cur.Symbols[len(an.cur.Symbols)-1].Initialized = true
	}
	an.stmt(d.Body)

	an.cur = prev
}

func (an *Analyzer) classDecl(id ast.NodeId) {
	n := an.arena.Get(id)
	cid := n.Data.(ast.ClassId)
	c := an.arena.Class(cid)

	var sym *Symbol
	if s, ok := an.cur.findLocal(c.Name.Lexeme); ok && s.ScopeId == an.cur.currentScope() {
		sym = s
		sym.Initialized = true
	} else {
		sym = an.declare(c.Name, KindClass)
		sym.Initialized = true
	}
	an.Locations[id] = sym.Location

	an.expr(c.Extends)
	for _, impl := range c.Impls {
		an.expr(impl)
	}
	for _, dec := range c.Decorators {
		an.expr(dec)
	}

	if c.InitBody != ast.NoNode {
		initTable := newTable(an.cur, false)
		initTable.IsClassCtx = true
		an.Tables = append(an.Tables, initTable)
		an.ClassInitTables[cid] = initTable
		prev := an.cur
		an.cur = initTable
		for _, p := range c.Params {
			if p.Default != ast.NoNode {
				an.expr(p.Default)
			}
			an.declare(p.Name, KindParameter)
			an.cur.Symbols[len(an.cur.Symbols)-1].Initialized = true
		}
		an.stmt(c.InitBody)
		an.cur = prev
	}

	for _, m := range c.Members {
		mn := an.arena.Get(m)
		if mn.Kind == ast.KFuncDecl {
			an.funcDecl(m, true)
		}
	}
}

// --- expressions ---------------------------------------------------------

func (an *Analyzer) expr(id ast.NodeId) {
	if id == ast.NoNode {
		return
	}
	n := an.arena.Get(id)
	switch n.Kind {
	case ast.KIdent:
		an.Resolutions[id] = an.resolveName(n.Tok)
	case ast.KSelf, ast.KSuper:
		if !an.cur.IsClassCtx {
			an.errors.Add(errs.New(errs.KindSyntax, n.Tok.Line, n.Tok.ColumnStart, int32(len(n.Tok.Lexeme)),
				"'%s' outside of a class", n.Tok.Lexeme))
		}
	case ast.KIntLit, ast.KFloatLit, ast.KStringLit, ast.KTrue, ast.KFalse, ast.KNone:
		// literals resolve nothing
	case ast.KUnary:
		an.expr(n.Data.(ast.UnaryData).Operand)
	case ast.KBinary:
		d := n.Data.(ast.BinaryData)
		an.expr(d.Left)
		an.expr(d.Right)
	case ast.KTernary:
		d := n.Data.(ast.TernaryData)
		an.expr(d.Cond)
		an.expr(d.Then)
		an.expr(d.Else)
	case ast.KAssign:
		d := n.Data.(ast.AssignData)
		an.expr(d.Value)
		an.assignTarget(d.Target)
	case ast.KCall:
		d := n.Data.(ast.CallData)
		an.expr(d.Callee)
		for _, a := range d.Args {
			an.expr(a.Value)
		}
	case ast.KMember:
		an.expr(n.Data.(ast.MemberData).Target)
	case ast.KIndex:
		d := n.Data.(ast.IndexData)
		an.expr(d.Target)
		for _, ix := range d.Indexers {
			an.expr(ix)
		}
	case ast.KSlice:
		d := n.Data.(ast.SliceData)
		an.expr(d.Target)
		an.expr(d.Start)
		an.expr(d.End)
		an.expr(d.Step)
	case ast.KArrayLit:
		for _, e := range n.Data.(ast.ArrayLitData).Elems {
			an.expr(e)
		}
	case ast.KTupleLit:
		for _, e := range n.Data.(ast.TupleLitData).Elems {
			an.expr(e)
		}
	case ast.KDictLit:
		d := n.Data.(ast.DictLitData)
		for _, k := range d.Keys {
			an.expr(k)
		}
		for _, v := range d.Values {
			an.expr(v)
		}
	case ast.KRepeatLit:
		d := n.Data.(ast.RepeatLitData)
		an.expr(d.Value)
		an.expr(d.Count)
	case ast.KInterpolation:
		for _, p := range n.Data.(ast.InterpolationData).Parts {
			an.expr(p.Expr)
		}
	case ast.KCompactArray:
		d := n.Data.(ast.CompactArrayData)
		an.CompAccSlots[id] = an.reserveHiddenSlot()
		an.compClauses(d.Clauses, func() { an.expr(d.Value) })
		an.cur.StackLen--
	case ast.KCompactTuple:
		d := n.Data.(ast.CompactTupleData)
		an.CompAccSlots[id] = an.reserveHiddenSlot()
		an.compClauses(d.Clauses, func() { an.expr(d.Value) })
		an.cur.StackLen--
	case ast.KCompactDict:
		d := n.Data.(ast.CompactDictData)
		an.CompAccSlots[id] = an.reserveHiddenSlot()
		an.compClauses(d.Clauses, func() { an.expr(d.Key); an.expr(d.Value) })
		an.cur.StackLen--
	case ast.KFuncDecl:
		an.funcDecl(id, false)
	}
}

// compClauses walks a comprehension's clause list left to right. A `for`
// clause (Target set) nests inside the last so a later clause's
// Iterable/Cond can see an earlier clause's target, mirroring KFor's own
// hidden-slot handling with one iterable/cursor pair per clause. A
// trailing `if` is its own pseudo-clause (Target/Iterable NoNode, only
// Cond set — see forClauseHeader/compactBody) and needs no slot at all.
func (an *Analyzer) compClauses(clauses []ast.CompClause, body func()) {
	if len(clauses) == 0 {
		body()
		return
	}
	c := clauses[0]
	if c.Target == ast.NoNode {
		an.expr(c.Cond)
		an.compClauses(clauses[1:], body)
		return
	}
	an.expr(c.Iterable)
	an.CompIterSlots[c.Iterable] = an.reserveHiddenSlot()
	an.CompIndexSlots[c.Iterable] = an.reserveHiddenSlot()
	scope := an.cur.openBlock()
	an.bindTarget(c.Target, KindVariable)
	an.compClauses(clauses[1:], body)
	an.cur.closeBlock(scope)
	an.cur.StackLen -= 2
}

// assignTarget validates and resolves a reassignment target: identifier,
// member, or index expression (spec.md §4.1's reassignment-target rule).
func (an *Analyzer) assignTarget(id ast.NodeId) {
	n := an.arena.Get(id)
	switch n.Kind {
	case ast.KIdent:
		res := an.resolveName(n.Tok)
		an.Resolutions[id] = res
		if sym, ok := an.cur.findLocal(n.Tok.Lexeme); ok && sym.Kind == KindConstant {
			an.errors.Add(errs.New(errs.KindReassignment, n.Tok.Line, n.Tok.ColumnStart, int32(len(n.Tok.Lexeme)),
				"cannot assign to constant '%s'", n.Tok.Lexeme))
		}
	case ast.KMember:
		an.expr(n.Data.(ast.MemberData).Target)
	case ast.KIndex:
		d := n.Data.(ast.IndexData)
		an.expr(d.Target)
		for _, ix := range d.Indexers {
			an.expr(ix)
		}
	default:
		an.expr(id)
	}
}
