// Package symbols implements the Hinton symbol analyzer: the AST walk that
// assigns every declaration a storage location and resolves every
// identifier reference, per spec.md §4.2.
package symbols

import "hinton/token"

// Kind classifies what a Symbol names.
type Kind uint8

const (
	KindVariable Kind = iota
	KindConstant
	KindParameter
	KindFunction
	KindClass
)

// LocKind says whether a Symbol lives in the global constant pool or on
// the enclosing function's stack frame.
type LocKind uint8

const (
	LocStack LocKind = iota
	LocGlobal
)

// Location is where a declared name's value lives at runtime.
type Location struct {
	Kind  LocKind
	Index int32
}

// Symbol is one declaration record: name, kind, scope, flags, location.
type Symbol struct {
	Name        string
	Kind        Kind
	ScopeId     int32
	Depth       int32
	Tok         token.Token
	Initialized bool
	Used        bool
	Captured    bool
	OutOfScope  bool
	Location    Location
}

// LoopCtx tracks what kind of loop (if any) the analyzer is currently
// inside, for break/continue validation.
type LoopCtx uint8

const (
	LoopNone LoopCtx = iota
	LoopFor
	LoopWhile
	LoopLoop
)

// ResKind is the storage-location family a resolved identifier reference
// maps to.
type ResKind uint8

const (
	ResStack ResKind = iota
	ResGlobal
	ResUpvalue
	ResNative
	ResPrimitive
	ResNone // unresolved; an error was already recorded
)

// Resolution is what an identifier-reference token resolves to.
type Resolution struct {
	Kind  ResKind
	Index int32
}

// Upvalue describes one captured-variable slot of a function table. When
// IsLocal is true, Index is a stack slot in the *immediately* enclosing
// function's frame; when false, Index is an upvalue index into that
// enclosing function's own Upvalues list (the capture chains through
// intermediate functions, per spec.md §9's "Upvalues and closures" note).
type Upvalue struct {
	Name    string
	IsLocal bool
	Index   int32
}

// Table is the per-function symbol table the analyzer builds while
// walking the AST. The module has an implicit table (IsModule==true) whose
// depth-0 declarations are globals rather than stack slots.
type Table struct {
	Symbols     []Symbol
	StackLen    int32
	Upvalues    []Upvalue
	LoopCtx     LoopCtx
	IsFuncCtx   bool
	IsClassCtx  bool
	IsModule    bool
	Parent      *Table
	Depth       int32
	scopeStack  []int32
	nextScopeId int32
	maxScopeId  int32
}

func newTable(parent *Table, isModule bool) *Table {
	return &Table{Parent: parent, IsModule: isModule, IsFuncCtx: !isModule}
}

// currentScope returns the block-scope id declarations should be tagged
// with right now: 0 at function top level, or the innermost open block's
// id otherwise.
func (t *Table) currentScope() int32 {
	if len(t.scopeStack) == 0 {
		return 0
	}
	return t.scopeStack[len(t.scopeStack)-1]
}

// openBlock allocates a fresh scope id (spec.md §3: "monotonically
// increasing id per function table") and enters it.
func (t *Table) openBlock() int32 {
	t.nextScopeId++
	id := t.nextScopeId
	if id > t.maxScopeId {
		t.maxScopeId = id
	}
	t.scopeStack = append(t.scopeStack, id)
	t.Depth++
	return id
}

// closeBlock marks every symbol declared in the block just closed as
// out-of-scope (retained, not deleted, so the compiler can still consult
// it for diagnostics), releases the stack slots they held, and leaves the
// block. Releasing slots lets a later sibling block reuse them, matching
// the real pops the compiler emits for a block exit (spec.md §4.3).
func (t *Table) closeBlock(id int32) {
	released := int32(0)
	for i := range t.Symbols {
		if t.Symbols[i].ScopeId == id {
			t.Symbols[i].OutOfScope = true
			if t.Symbols[i].Location.Kind == LocStack {
				released++
			}
		}
	}
	t.StackLen -= released
	t.scopeStack = t.scopeStack[:len(t.scopeStack)-1]
	t.Depth--
}

// findLocal scans this table's symbols back-to-front, skipping
// out-of-scope entries, returning the most recent in-scope match.
func (t *Table) findLocal(name string) (*Symbol, bool) {
	for i := len(t.Symbols) - 1; i >= 0; i-- {
		s := &t.Symbols[i]
		if s.Name == name && !s.OutOfScope {
			return s, true
		}
	}
	return nil, false
}

// addUpvalue registers (or reuses) a capture slot on t.
func (t *Table) addUpvalue(name string, isLocal bool, index int32) int32 {
	for i, u := range t.Upvalues {
		if u.Name == name && u.IsLocal == isLocal && u.Index == index {
			return int32(i)
		}
	}
	t.Upvalues = append(t.Upvalues, Upvalue{Name: name, IsLocal: isLocal, Index: index})
	return int32(len(t.Upvalues) - 1)
}

// isGlobalScope reports whether a declaration made right now belongs in
// the global constant pool: the module's implicit function, at its own
// top level (depth 0, no open blocks).
func (t *Table) isGlobalScope() bool {
	return t.IsModule && t.Depth == 0
}
