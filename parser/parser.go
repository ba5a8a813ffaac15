// Package parser implements Hinton's hand-written recursive-descent parser:
// it consumes the lexer's token slice and populates an ast.Arena, collecting errors
// instead of aborting on the first one (spec.md §4.1).
//
// Grounded on the teacher's parser/parser.go: the same peek/previous/advance/
// checkType/isMatch/consume helper shape, generalized from a four-level
// (equality/comparison/term/factor) precedence chain to the full ladder
// spec.md §4.1 specifies, and from "stop on first error" to batch-collected
// errors with statement-level resynchronization.
package parser

import (
	"hinton/ast"
	"hinton/errs"
	"hinton/token"
)

// statementStarters is the resync set spec.md §4.1 names: after a parse
// error, the parser advances until one of these (or `;`/`}`) is seen.
var statementStarters = map[token.Kind]bool{
	token.KW_PUB: true, token.KW_WHILE: true, token.KW_FOR: true, token.KW_BREAK: true,
	token.KW_CONTINUE: true, token.KW_RETURN: true, token.KW_YIELD: true, token.KW_WITH: true,
	token.KW_TRY: true, token.KW_THROW: true, token.KW_DEL: true, token.KW_IF: true,
	token.KW_MATCH: true, token.KW_LET: true, token.KW_CONST: true, token.KW_IMPORT: true,
	token.KW_EXPORT: true, token.KW_FUNC: true, token.KW_ASYNC: true, token.KW_CLASS: true,
	token.KW_ABSTRACT: true,
}

// Parser walks a flat token slice and builds an ast.Arena. It never panics;
// malformed input yields KError placeholder nodes plus an errs.Report.
type Parser struct {
	toks []token.Token
	pos  int
	a    *ast.Arena
	errs *errs.Batch
}

// Parse is the package's public entry point: spec.md §4.1's
// `parse(tokens) -> (ASTArena, []ErrorReport)`.
func Parse(toks []token.Token) (*ast.Arena, *errs.Batch) {
	p := &Parser{toks: toks, a: ast.NewArena(), errs: errs.NewBatch()}
	var stmts, public []ast.NodeId
	for !p.atEnd() {
		id, pub := p.topLevelDecl()
		if id == ast.NoNode {
			continue
		}
		stmts = append(stmts, id)
		if pub {
			public = append(public, id)
		}
	}
	p.a.SetModule(stmts, public)
	return p.a, p.errs
}

// --- token cursor helpers, named to match the teacher's vocabulary --------

func (p *Parser) peek() token.Token { return p.toks[p.pos] }

func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) previous() token.Token { return p.toks[p.pos-1] }

func (p *Parser) atEnd() bool { return p.peek().Kind == token.EOF }

func (p *Parser) advance() token.Token {
	if !p.atEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) check(k token.Kind) bool {
	return !p.atEnd() && p.peek().Kind == k
}

// isMatch advances and reports true if the current token is one of kinds.
func (p *Parser) isMatch(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

// consume advances past an expected kind or records a syntax error at the
// current token's position.
func (p *Parser) consume(k token.Kind, format string, args ...any) (token.Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	tok := p.peek()
	p.errs.Add(errs.New(errs.KindSyntax, tok.Line, tok.ColumnStart, tok.ColumnEnd-tok.ColumnStart, format, args...))
	return tok, false
}

// errNode records a syntax error at tok and pushes a KError recovery node so
// the caller can keep building a (partially broken) tree around it.
func (p *Parser) errNode(tok token.Token, format string, args ...any) ast.NodeId {
	p.errs.Add(errs.New(errs.KindSyntax, tok.Line, tok.ColumnStart, tok.ColumnEnd-tok.ColumnStart, format, args...))
	return p.a.Push(ast.Node{Kind: ast.KError, Tok: tok, Data: ast.ErrorData{Reason: tok.Lexeme}})
}

// synchronize discards tokens until a likely statement boundary, per
// spec.md §4.1's resync rule.
func (p *Parser) synchronize() {
	for !p.atEnd() {
		if p.previous().Kind == token.SEMICOLON || p.previous().Kind == token.RBRACE {
			return
		}
		if statementStarters[p.peek().Kind] {
			return
		}
		p.advance()
	}
}

func (p *Parser) skipSemis() {
	for p.check(token.SEMICOLON) {
		p.advance()
	}
}

// --- top level / statements ------------------------------------------------

// topLevelDecl parses one module-level statement, handling the `pub`
// modifier (valid only here, and only before func/class/const).
func (p *Parser) topLevelDecl() (ast.NodeId, bool) {
	p.skipSemis()
	if p.atEnd() {
		return ast.NoNode, false
	}
	pub := false
	var pubTok token.Token
	if p.check(token.KW_PUB) {
		pubTok = p.peek()
		p.advance()
		pub = true
	}
	id, ok := p.declaration(pub)
	if !ok {
		p.synchronize()
	}
	if pub {
		switch p.a.Get(id).Kind {
		case ast.KFuncDecl, ast.KClassDecl, ast.KVarDecl:
		default:
			p.errs.Add(errs.New(errs.KindSyntax, pubTok.Line, pubTok.ColumnStart, 3,
				"'pub' is only valid before func, class, or const declarations"))
		}
	}
	return id, pub
}

// declaration dispatches decorator-bearing (func/class) and var
// declarations before falling through to plain statements.
func (p *Parser) declaration(pub bool) (ast.NodeId, bool) {
	decorators := p.decorators()
	switch {
	case p.check(token.KW_LET), p.check(token.KW_CONST):
		return p.varDecl(pub)
	case p.check(token.KW_ASYNC), p.check(token.KW_FUNC):
		return p.funcDecl(pub, decorators)
	case p.check(token.KW_ABSTRACT), p.check(token.KW_CLASS):
		return p.classDecl(pub, decorators)
	case len(decorators) > 0:
		tok := p.peek()
		return p.errNode(tok, "decorators may only precede 'func' or 'class'"), false
	case p.check(token.KW_IMPORT):
		return p.importDecl()
	case p.check(token.KW_EXPORT):
		return p.exportDecl()
	default:
		return p.statement()
	}
}

// decorators parses zero or more `#ident`/`#[call(...)]` prefixes.
func (p *Parser) decorators() []ast.NodeId {
	var out []ast.NodeId
	for p.check(token.HASH) {
		p.advance()
		bracketed := p.isMatch(token.LBRACKET)
		expr, ok := p.callOrIdentDecorator()
		if ok {
			out = append(out, expr)
		}
		if bracketed {
			p.consume(token.RBRACKET, "expected ']' to close decorator")
		}
	}
	return out
}

func (p *Parser) callOrIdentDecorator() (ast.NodeId, bool) {
	tok, ok := p.consume(token.IDENTIFIER, "expected decorator name")
	if !ok {
		return p.errNode(tok, "expected decorator name"), false
	}
	expr := p.a.Push(ast.Node{Kind: ast.KIdent, Tok: tok})
	if p.check(token.LPAREN) {
		return p.finishCall(expr, tok), true
	}
	return expr, true
}

func (p *Parser) statement() (ast.NodeId, bool) {
	switch {
	case p.isMatch(token.LBRACE):
		return p.block()
	case p.isMatch(token.KW_IF):
		return p.ifStmt()
	case p.isMatch(token.KW_WHILE):
		return p.whileStmt()
	case p.isMatch(token.KW_FOR):
		return p.forStmt()
	case p.isMatch(token.KW_LOOP):
		return p.loopStmt()
	case p.isMatch(token.KW_BREAK):
		return p.breakStmt()
	case p.isMatch(token.KW_CONTINUE):
		return p.continueStmt()
	case p.isMatch(token.KW_RETURN):
		return p.returnStmt()
	case p.isMatch(token.KW_YIELD):
		return p.yieldStmt()
	case p.isMatch(token.KW_THROW):
		return p.throwStmt()
	case p.isMatch(token.KW_DEL):
		return p.delStmt()
	case p.isMatch(token.KW_TRY):
		return p.tryStmt()
	case p.isMatch(token.KW_WITH):
		return p.withStmt()
	case p.check(token.KW_LET), p.check(token.KW_CONST):
		return p.varDecl(false)
	case p.check(token.KW_ASYNC), p.check(token.KW_FUNC):
		return p.funcDecl(false, nil)
	case p.check(token.KW_ABSTRACT), p.check(token.KW_CLASS):
		return p.classDecl(false, nil)
	default:
		return p.exprStmt()
	}
}

func (p *Parser) block() (ast.NodeId, bool) {
	startTok := p.previous()
	var stmts []ast.NodeId
	ok := true
	for !p.check(token.RBRACE) && !p.atEnd() {
		p.skipSemis()
		if p.check(token.RBRACE) || p.atEnd() {
			break
		}
		id, stmtOk := p.declaration(false)
		if !stmtOk {
			p.synchronize()
			ok = false
		}
		stmts = append(stmts, id)
		p.skipSemis()
	}
	if _, closed := p.consume(token.RBRACE, "expected '}' to close block"); !closed {
		ok = false
	}
	return p.a.Push(ast.Node{Kind: ast.KBlock, Tok: startTok, Data: ast.BlockData{Stmts: stmts}}), ok
}

func (p *Parser) exprStmt() (ast.NodeId, bool) {
	expr, ok := p.expression()
	p.skipSemis()
	return p.a.Push(ast.Node{Kind: ast.KExprStmt, Tok: p.toks[p.pos-1], Data: ast.ExprStmtData{Expr: expr}}), ok
}

func (p *Parser) ifStmt() (ast.NodeId, bool) {
	tok := p.previous()
	cond, ok := p.expression()
	then, thenOk := p.statement()
	ok = ok && thenOk
	elseId := ast.NoNode
	if p.isMatch(token.KW_ELSE) {
		var elseOk bool
		elseId, elseOk = p.statement()
		ok = ok && elseOk
	}
	return p.a.Push(ast.Node{Kind: ast.KIf, Tok: tok, Data: ast.IfData{Cond: cond, Then: then, Else: elseId}}), ok
}

// whileStmt parses both `while cond { body }` and `while cond let id = cond
// { body }` (the latter rebinds cond's result so the body can use it).
func (p *Parser) whileStmt() (ast.NodeId, bool) {
	tok := p.previous()
	cond, ok := p.expression()
	var letName *token.Token
	if p.isMatch(token.KW_LET) {
		nameTok, idOk := p.consume(token.IDENTIFIER, "expected identifier after 'let'")
		ok = ok && idOk
		letName = &nameTok
		if _, eqOk := p.consume(token.ASSIGN, "expected '=' in while-let binding"); !eqOk {
			ok = false
		}
		rebind, rebindOk := p.expression()
		cond = rebind
		ok = ok && rebindOk
	}
	body, bodyOk := p.statement()
	ok = ok && bodyOk
	return p.a.Push(ast.Node{Kind: ast.KWhile, Tok: tok, Data: ast.WhileData{Cond: cond, LetName: letName, Body: body}}), ok
}

func (p *Parser) forStmt() (ast.NodeId, bool) {
	tok := p.previous()
	ok := true
	if _, lp := p.consume(token.LPAREN, "expected '(' after 'for'"); !lp {
		ok = false
	}
	target, targetOk := p.forTarget()
	ok = ok && targetOk
	if _, inOk := p.consume(token.KW_IN, "expected 'in' in for-loop header"); !inOk {
		ok = false
	}
	iterable, iterOk := p.expression()
	ok = ok && iterOk
	if _, rp := p.consume(token.RPAREN, "expected ')' after for-loop header"); !rp {
		ok = false
	}
	body, bodyOk := p.statement()
	ok = ok && bodyOk
	return p.a.Push(ast.Node{Kind: ast.KFor, Tok: tok, Data: ast.ForData{Target: target, Iterable: iterable, Body: body}}), ok
}

func (p *Parser) forTarget() (ast.NodeId, bool) {
	if p.check(token.LPAREN) {
		return p.unpackPattern()
	}
	nameTok, ok := p.consume(token.IDENTIFIER, "expected identifier in for-loop target")
	return p.a.Push(ast.Node{Kind: ast.KIdent, Tok: nameTok}), ok
}

func (p *Parser) loopStmt() (ast.NodeId, bool) {
	tok := p.previous()
	body, ok := p.statement()
	return p.a.Push(ast.Node{Kind: ast.KLoop, Tok: tok, Data: ast.LoopData{Body: body}}), ok
}

func (p *Parser) breakStmt() (ast.NodeId, bool) {
	tok := p.previous()
	cond := ast.NoNode
	ok := true
	if p.isMatch(token.KW_IF) {
		var condOk bool
		cond, condOk = p.expression()
		ok = condOk
	}
	p.skipSemis()
	return p.a.Push(ast.Node{Kind: ast.KBreak, Tok: tok, Data: ast.BreakData{Cond: cond}}), ok
}

func (p *Parser) continueStmt() (ast.NodeId, bool) {
	tok := p.previous()
	cond := ast.NoNode
	ok := true
	if p.isMatch(token.KW_IF) {
		var condOk bool
		cond, condOk = p.expression()
		ok = condOk
	}
	p.skipSemis()
	return p.a.Push(ast.Node{Kind: ast.KContinue, Tok: tok, Data: ast.ContinueData{Cond: cond}}), ok
}

func (p *Parser) returnStmt() (ast.NodeId, bool) {
	tok := p.previous()
	value := ast.NoNode
	ok := true
	if !p.check(token.SEMICOLON) && !p.check(token.RBRACE) && !p.atEnd() {
		value, ok = p.expression()
	}
	p.skipSemis()
	return p.a.Push(ast.Node{Kind: ast.KReturn, Tok: tok, Data: ast.ReturnData{Value: value}}), ok
}

func (p *Parser) yieldStmt() (ast.NodeId, bool) {
	tok := p.previous()
	value, ok := p.expression()
	p.skipSemis()
	return p.a.Push(ast.Node{Kind: ast.KYield, Tok: tok, Data: ast.YieldData{Value: value}}), ok
}

func (p *Parser) throwStmt() (ast.NodeId, bool) {
	tok := p.previous()
	value, ok := p.expression()
	p.skipSemis()
	return p.a.Push(ast.Node{Kind: ast.KThrow, Tok: tok, Data: ast.ThrowData{Value: value}}), ok
}

// delStmt accepts only identifier, index, or member-access targets per
// spec.md §4.1.
func (p *Parser) delStmt() (ast.NodeId, bool) {
	tok := p.previous()
	target, ok := p.unary()
	if ok {
		switch p.a.Get(target).Kind {
		case ast.KIdent, ast.KIndex, ast.KMember:
		default:
			p.errs.Add(errs.New(errs.KindSyntax, tok.Line, tok.ColumnStart, 3, "'del' target must be an identifier, index, or member access"))
			ok = false
		}
	}
	p.skipSemis()
	return p.a.Push(ast.Node{Kind: ast.KDel, Tok: tok, Data: ast.DelData{Target: target}}), ok
}

func (p *Parser) tryStmt() (ast.NodeId, bool) {
	tok := p.previous()
	ok := true
	if _, lb := p.consume(token.LBRACE, "expected '{' after 'try'"); !lb {
		ok = false
	}
	tryBlock, tryOk := p.block()
	ok = ok && tryOk

	var catchName *token.Token
	catchId := ast.NoNode
	if p.isMatch(token.KW_CATCH) {
		if p.isMatch(token.LPAREN) {
			nameTok, nameOk := p.consume(token.IDENTIFIER, "expected identifier in catch clause")
			ok = ok && nameOk
			catchName = &nameTok
			if _, rp := p.consume(token.RPAREN, "expected ')' after catch binding"); !rp {
				ok = false
			}
		}
		if _, lb := p.consume(token.LBRACE, "expected '{' after 'catch'"); !lb {
			ok = false
		}
		var catchOk bool
		catchId, catchOk = p.block()
		ok = ok && catchOk
	}

	finallyId := ast.NoNode
	if p.isMatch(token.KW_FINALLY) {
		if _, lb := p.consume(token.LBRACE, "expected '{' after 'finally'"); !lb {
			ok = false
		}
		var finOk bool
		finallyId, finOk = p.block()
		ok = ok && finOk
	}

	return p.a.Push(ast.Node{Kind: ast.KTryCatch, Tok: tok, Data: ast.TryCatchData{
		Try: tryBlock, CatchName: catchName, Catch: catchId, Finally: finallyId,
	}}), ok
}

func (p *Parser) withStmt() (ast.NodeId, bool) {
	tok := p.previous()
	resource, ok := p.expression()
	var nameTok token.Token
	if _, asOk := p.consume(token.KW_LET, "expected 'let' binding after 'with' resource"); asOk {
		t, idOk := p.consume(token.IDENTIFIER, "expected identifier in 'with' binding")
		nameTok = t
		ok = ok && idOk
	} else {
		ok = false
	}
	body, bodyOk := p.statement()
	ok = ok && bodyOk
	return p.a.Push(ast.Node{Kind: ast.KWith, Tok: tok, Data: ast.WithData{Resource: resource, Name: nameTok, Body: body}}), ok
}

// varDecl parses `let`/`const` declarations, scalar or destructured.
func (p *Parser) varDecl(pub bool) (ast.NodeId, bool) {
	tok := p.advance() // KW_LET or KW_CONST
	isConst := tok.Kind == token.KW_CONST
	ok := true

	var target ast.NodeId
	if p.check(token.LPAREN) {
		var targetOk bool
		target, targetOk = p.unpackPattern()
		ok = ok && targetOk
	} else {
		nameTok, nameOk := p.consume(token.IDENTIFIER, "expected identifier after '%s'", tok.Lexeme)
		ok = ok && nameOk
		target = p.a.Push(ast.Node{Kind: ast.KIdent, Tok: nameTok})
	}

	init := ast.NoNode
	if p.isMatch(token.ASSIGN) {
		var initOk bool
		init, initOk = p.expression()
		ok = ok && initOk
	} else if isConst {
		p.errs.Add(errs.New(errs.KindSyntax, tok.Line, tok.ColumnStart, 5, "'const' declaration requires an initializer"))
		ok = false
	}
	p.skipSemis()
	return p.a.Push(ast.Node{Kind: ast.KVarDecl, Tok: tok, Data: ast.VarDeclData{
		Target: target, Init: init, IsConst: isConst, Pub: pub,
	}}), ok
}

// unpackPattern parses `(a, b, ...rest)` / `(a, ..., b)` destructuring
// targets, allowing at most one wildcard (head, middle, or tail).
func (p *Parser) unpackPattern() (ast.NodeId, bool) {
	tok, _ := p.consume(token.LPAREN, "expected '(' to start destructuring pattern")
	ok := true
	var members []ast.UnpackMember
	wildcard := ast.WildcardNone
	sawWildcard := false

	for !p.check(token.RPAREN) && !p.atEnd() {
		if p.isMatch(token.ELLIPSIS) {
			if sawWildcard {
				p.errs.Add(errs.New(errs.KindSyntax, p.previous().Line, p.previous().ColumnStart, 3, "destructuring pattern allows at most one wildcard"))
				ok = false
			}
			sawWildcard = true
			if p.check(token.IDENTIFIER) {
				nameTok := p.advance()
				members = append(members, ast.UnpackMember{Name: nameTok, Kind: ast.MemberNamedWildcard})
				wildcard = ast.WildcardNamedRange
			} else {
				members = append(members, ast.UnpackMember{Kind: ast.MemberEmptyWildcard})
				wildcard = ast.WildcardIgnoreRange
			}
		} else {
			nameTok, nameOk := p.consume(token.IDENTIFIER, "expected identifier in destructuring pattern")
			ok = ok && nameOk
			members = append(members, ast.UnpackMember{Name: nameTok, Kind: ast.MemberPlain})
		}
		if !p.isMatch(token.COMMA) {
			break
		}
	}
	if _, rp := p.consume(token.RPAREN, "expected ')' to close destructuring pattern"); !rp {
		ok = false
	}
	return p.a.Push(ast.Node{Kind: ast.KUnpackPattern, Tok: tok, Data: ast.UnpackPatternData{Members: members, Wildcard: wildcard}}), ok
}

func (p *Parser) importDecl() (ast.NodeId, bool) {
	tok := p.advance() // KW_IMPORT
	ok := true
	pathTok, pathOk := p.consume(token.STRING, "expected module path string after 'import'")
	ok = ok && pathOk
	var items []token.Token
	if p.isMatch(token.LBRACE) {
		for !p.check(token.RBRACE) && !p.atEnd() {
			itemTok, itemOk := p.consume(token.IDENTIFIER, "expected identifier in import list")
			ok = ok && itemOk
			items = append(items, itemTok)
			if !p.isMatch(token.COMMA) {
				break
			}
		}
		if _, rb := p.consume(token.RBRACE, "expected '}' to close import list"); !rb {
			ok = false
		}
	}
	p.skipSemis()
	return p.a.Push(ast.Node{Kind: ast.KImport, Tok: tok, Data: ast.ImportData{Path: pathTok, Items: items}}), ok
}

func (p *Parser) exportDecl() (ast.NodeId, bool) {
	tok := p.advance() // KW_EXPORT
	item, ok := p.declaration(true)
	return p.a.Push(ast.Node{Kind: ast.KExport, Tok: tok, Data: ast.ExportData{Item: item}}), ok
}

// funcDecl parses `[async] func name(params) { body }`, also reachable
// (without a name) from primary() for lambda expressions.
func (p *Parser) funcDecl(pub bool, decorators []ast.NodeId) (ast.NodeId, bool) {
	isAsync := p.isMatch(token.KW_ASYNC)
	tok, ok := p.consume(token.KW_FUNC, "expected 'func'")
	var nameTok token.Token
	if p.check(token.IDENTIFIER) {
		nameTok = p.advance()
	}
	params, paramsOk := p.paramList()
	ok = ok && paramsOk
	body, bodyOk := p.funcBody()
	ok = ok && bodyOk
	return p.a.Push(ast.Node{Kind: ast.KFuncDecl, Tok: tok, Data: ast.FuncDeclData{
		Name: nameTok, IsLambda: nameTok.Kind != token.IDENTIFIER, IsAsync: isAsync,
		Params: params, Body: body, Decorators: decorators, Pub: pub,
	}}), ok
}

// funcBody accepts a `{ block }` or an arrow-style single expression body
// `-> expr`.
func (p *Parser) funcBody() (ast.NodeId, bool) {
	if p.isMatch(token.ARROW) {
		return p.expression()
	}
	if _, ok := p.consume(token.LBRACE, "expected '{' to start function body"); !ok {
		return p.errNode(p.peek(), "expected function body"), false
	}
	return p.block()
}

// paramList parses `(a, b:=default, ...rest, named:)`-style parameter
// lists. Default-value expressions are parsed here but evaluated (in the
// outer scope) by the symbol analyzer, per spec.md §4.2 step 6.
func (p *Parser) paramList() ([]ast.Param, bool) {
	ok := true
	if _, lp := p.consume(token.LPAREN, "expected '(' to start parameter list"); !lp {
		ok = false
	}
	var params []ast.Param
	for !p.check(token.RPAREN) && !p.atEnd() {
		rest := p.isMatch(token.ELLIPSIS)
		nameTok, nameOk := p.consume(token.IDENTIFIER, "expected parameter name")
		ok = ok && nameOk
		named := false
		def := ast.NoNode
		if p.isMatch(token.COLON) {
			named = true
		}
		if p.isMatch(token.ASSIGN) {
			var defOk bool
			def, defOk = p.expression()
			ok = ok && defOk
		}
		params = append(params, ast.Param{Name: nameTok, Default: def, Rest: rest, Named: named})
		if !p.isMatch(token.COMMA) {
			break
		}
	}
	if _, rp := p.consume(token.RPAREN, "expected ')' to close parameter list"); !rp {
		ok = false
	}
	return params, ok
}

// classDecl parses `[abstract] class Name [extends Base] [impls I, ...]
// { [init(params) {...}] members... }`.
func (p *Parser) classDecl(pub bool, decorators []ast.NodeId) (ast.NodeId, bool) {
	abstract := p.isMatch(token.KW_ABSTRACT)
	tok, ok := p.consume(token.KW_CLASS, "expected 'class'")
	nameTok, nameOk := p.consume(token.IDENTIFIER, "expected class name")
	ok = ok && nameOk

	extends := ast.NoNode
	if p.isMatch(token.KW_EXTENDS) {
		var exOk bool
		extends, exOk = p.unary()
		ok = ok && exOk
	}
	var impls []ast.NodeId
	if p.isMatch(token.KW_IMPLS) {
		for {
			iface, ifOk := p.unary()
			ok = ok && ifOk
			impls = append(impls, iface)
			if !p.isMatch(token.COMMA) {
				break
			}
		}
	}

	if _, lb := p.consume(token.LBRACE, "expected '{' to start class body"); !lb {
		ok = false
	}
	var params []ast.Param
	initBody := ast.NoNode
	var members []ast.NodeId
	for !p.check(token.RBRACE) && !p.atEnd() {
		p.skipSemis()
		if p.check(token.RBRACE) || p.atEnd() {
			break
		}
		if p.isMatch(token.KW_INIT) {
			var plOk, bodyOk bool
			params, plOk = p.paramList()
			initBody, bodyOk = p.funcBody()
			ok = ok && plOk && bodyOk
			continue
		}
		memberDecorators := p.decorators()
		memberPub := p.isMatch(token.KW_PUB)
		member, memberOk := p.funcDecl(memberPub, memberDecorators)
		ok = ok && memberOk
		members = append(members, member)
		p.skipSemis()
	}
	if _, rb := p.consume(token.RBRACE, "expected '}' to close class body"); !rb {
		ok = false
	}

	return p.a.PushClass(tok, ast.ClassDecl{
		Name: nameTok, Extends: extends, Impls: impls, Params: params,
		InitBody: initBody, Members: members, Abstract: abstract, Pub: pub, Decorators: decorators,
	}), ok
}
