package ast

// Kind tags which variant of the AST sum type a Node is.
type Kind uint8

const (
	KModule Kind = iota

	// statements
	KBlock
	KExprStmt
	KIf
	KWhile
	KFor
	KLoop
	KBreak
	KContinue
	KReturn
	KYield
	KThrow
	KDel
	KTryCatch
	KWith
	KVarDecl
	KFuncDecl
	KClassDecl
	KImport
	KExport

	// expressions: literals
	KIntLit
	KFloatLit
	KStringLit
	KTrue
	KFalse
	KNone
	KIdent
	KSelf
	KSuper

	// expressions: operators
	KUnary
	KBinary
	KTernary
	KAssign

	// expressions: postfix / collection forms
	KCall
	KMember
	KIndex
	KSlice
	KArrayLit
	KTupleLit
	KDictLit
	KRepeatLit
	KInterpolation
	KLambda
	KCompactArray
	KCompactTuple
	KCompactDict

	// destructuring
	KUnpackPattern

	// error recovery placeholder
	KError
)

var kindNames = [...]string{
	KModule: "Module", KBlock: "Block", KExprStmt: "ExprStmt", KIf: "If", KWhile: "While",
	KFor: "For", KLoop: "Loop", KBreak: "Break", KContinue: "Continue", KReturn: "Return",
	KYield: "Yield", KThrow: "Throw", KDel: "Del", KTryCatch: "TryCatch", KWith: "With",
	KVarDecl: "VarDecl", KFuncDecl: "FuncDecl", KClassDecl: "ClassDecl", KImport: "Import",
	KExport: "Export", KIntLit: "IntLit", KFloatLit: "FloatLit", KStringLit: "StringLit",
	KTrue: "True", KFalse: "False", KNone: "None", KIdent: "Ident", KSelf: "Self",
	KSuper: "Super", KUnary: "Unary", KBinary: "Binary", KTernary: "Ternary", KAssign: "Assign",
	KCall: "Call", KMember: "Member", KIndex: "Index", KSlice: "Slice", KArrayLit: "ArrayLit",
	KTupleLit: "TupleLit", KDictLit: "DictLit", KRepeatLit: "RepeatLit",
	KInterpolation: "Interpolation", KLambda: "Lambda", KCompactArray: "CompactArray",
	KCompactTuple: "CompactTuple", KCompactDict: "CompactDict", KUnpackPattern: "UnpackPattern",
	KError: "Error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}

// BinOp enumerates the fixed binary operator set referenced throughout
// spec.md §4.1/§4.3/§4.4.
type BinOp uint8

const (
	BAdd BinOp = iota
	BSub
	BMul
	BDiv
	BMod
	BFloorMod // `mod` keyword operator
	BPow
	BPipe // |>

	BBitAnd
	BBitOr
	BBitXor
	BShl
	BShr

	BEq
	BNotEq
	BLess
	BLessEq
	BGreater
	BGreaterEq

	BIn
	BInstOf

	BRange
	BRangeInclusive

	BLogicAnd
	BLogicOr
	BNonish // ??
)

// UnaryOp enumerates the prefix operator set.
type UnaryOp uint8

const (
	UNeg UnaryOp = iota
	UNot
	UBitNot
	UNew
	UTypeof
	UAwait
)

// AssignOp enumerates plain `=` plus every compound-assignment spelling.
type AssignOp uint8

const (
	AAssign AssignOp = iota
	AAdd
	ASub
	AMul
	ADiv
	APow
	AMod
	AShl
	AShr
	ABitAnd
	ABitOr
	ABitXor
	ALogicAnd
	ALogicOr
	ANonish
	AMatMul // @=
)

// WildcardKind classifies an unpack pattern's single allowed wildcard.
type WildcardKind uint8

const (
	WildcardNone WildcardKind = iota
	WildcardIgnoreRange       // `...`  (no binding)
	WildcardNamedRange        // `...rest`
)

// MemberKind classifies one slot of an unpack pattern.
type MemberKind uint8

const (
	MemberPlain MemberKind = iota
	MemberNamedWildcard
	MemberEmptyWildcard
)
