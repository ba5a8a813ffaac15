package parser

import (
	"hinton/ast"
	"hinton/token"
)

// expression is the entry point for the precedence ladder, spec.md §4.1.
func (p *Parser) expression() (ast.NodeId, bool) {
	return p.assignment()
}

var assignOps = map[token.Kind]ast.AssignOp{
	token.ASSIGN: ast.AAssign, token.PLUS_EQ: ast.AAdd, token.MINUS_EQ: ast.ASub,
	token.STAR_EQ: ast.AMul, token.SLASH_EQ: ast.ADiv, token.POW_EQ: ast.APow,
	token.PERCENT_EQ: ast.AMod, token.SHL_EQ: ast.AShl, token.SHR_EQ: ast.AShr,
	token.AMP_EQ: ast.ABitAnd, token.PIPE_EQ: ast.ABitOr, token.CARET_EQ: ast.ABitXor,
	token.AND_EQ: ast.ALogicAnd, token.OR_EQ: ast.ALogicOr, token.NONISH_EQ: ast.ANonish,
	token.AT_EQ: ast.AMatMul,
}

// assignment is right-associative and validates its left-hand side is a
// legal reassignment target (identifier, member, or index), per spec.md
// §4.1's "Reassignment validates..." rule.
func (p *Parser) assignment() (ast.NodeId, bool) {
	lhs, ok := p.ternary()
	tok := p.peek()
	op, isAssign := assignOps[tok.Kind]
	if !isAssign {
		return lhs, ok
	}
	p.advance()
	switch p.a.Get(lhs).Kind {
	case ast.KIdent, ast.KMember, ast.KIndex, ast.KSlice:
	default:
		return p.errNode(tok, "invalid assignment target"), false
	}
	value, valOk := p.assignment()
	return p.a.Push(ast.Node{Kind: ast.KAssign, Tok: tok, Data: ast.AssignData{Target: lhs, Op: op, Value: value}}), ok && valOk
}

// ternary is right-associative: `cond ? then : else`.
func (p *Parser) ternary() (ast.NodeId, bool) {
	cond, ok := p.nonish()
	if !p.isMatch(token.QUESTION) {
		return cond, ok
	}
	tok := p.previous()
	then, thenOk := p.expression()
	if _, colonOk := p.consume(token.COLON, "expected ':' in ternary expression"); !colonOk {
		ok = false
	}
	elseE, elseOk := p.ternary()
	return p.a.Push(ast.Node{Kind: ast.KTernary, Tok: tok, Data: ast.TernaryData{Cond: cond, Then: then, Else: elseE}}), ok && thenOk && elseOk
}

func (p *Parser) nonish() (ast.NodeId, bool) {
	left, ok := p.logicOr()
	for p.isMatch(token.NONISH) {
		tok := p.previous()
		right, rOk := p.logicOr()
		ok = ok && rOk
		left = p.a.Push(ast.Node{Kind: ast.KBinary, Tok: tok, Data: ast.BinaryData{Op: ast.BNonish, Left: left, Right: right}})
	}
	return left, ok
}

func (p *Parser) logicOr() (ast.NodeId, bool) {
	left, ok := p.logicAnd()
	for p.isMatch(token.OR_OR, token.KW_OR) {
		tok := p.previous()
		right, rOk := p.logicAnd()
		ok = ok && rOk
		left = p.a.Push(ast.Node{Kind: ast.KBinary, Tok: tok, Data: ast.BinaryData{Op: ast.BLogicOr, Left: left, Right: right}})
	}
	return left, ok
}

func (p *Parser) logicAnd() (ast.NodeId, bool) {
	left, ok := p.bitwise()
	for p.isMatch(token.AND_AND, token.KW_AND) {
		tok := p.previous()
		right, rOk := p.bitwise()
		ok = ok && rOk
		left = p.a.Push(ast.Node{Kind: ast.KBinary, Tok: tok, Data: ast.BinaryData{Op: ast.BLogicAnd, Left: left, Right: right}})
	}
	return left, ok
}

var bitwiseOps = map[token.Kind]ast.BinOp{token.PIPE: ast.BBitOr, token.CARET: ast.BBitXor, token.AMP: ast.BBitAnd}

// bitwise handles `|`, `^`, `&` at a single shared precedence level, per
// spec.md §4.1's "bit or / xor / and" row.
func (p *Parser) bitwise() (ast.NodeId, bool) {
	left, ok := p.equality()
	for {
		tok := p.peek()
		op, isOp := bitwiseOps[tok.Kind]
		if !isOp {
			return left, ok
		}
		p.advance()
		right, rOk := p.equality()
		ok = ok && rOk
		left = p.a.Push(ast.Node{Kind: ast.KBinary, Tok: tok, Data: ast.BinaryData{Op: op, Left: left, Right: right}})
	}
}

func (p *Parser) equality() (ast.NodeId, bool) {
	left, ok := p.relational()
	for p.check(token.EQUAL_EQUAL) || p.check(token.NOT_EQUAL) {
		tok := p.advance()
		op := ast.BEq
		if tok.Kind == token.NOT_EQUAL {
			op = ast.BNotEq
		}
		right, rOk := p.relational()
		ok = ok && rOk
		left = p.a.Push(ast.Node{Kind: ast.KBinary, Tok: tok, Data: ast.BinaryData{Op: op, Left: left, Right: right}})
	}
	return left, ok
}

var relationalOps = map[token.Kind]ast.BinOp{
	token.LESS: ast.BLess, token.LESS_EQUAL: ast.BLessEq,
	token.GREATER: ast.BGreater, token.GREATER_EQUAL: ast.BGreaterEq,
	token.KW_IN: ast.BIn, token.KW_INSTOF: ast.BInstOf,
}

func (p *Parser) relational() (ast.NodeId, bool) {
	left, ok := p.shift()
	for {
		tok := p.peek()
		op, isOp := relationalOps[tok.Kind]
		if !isOp {
			return left, ok
		}
		p.advance()
		right, rOk := p.shift()
		ok = ok && rOk
		left = p.a.Push(ast.Node{Kind: ast.KBinary, Tok: tok, Data: ast.BinaryData{Op: op, Left: left, Right: right}})
	}
}

func (p *Parser) shift() (ast.NodeId, bool) {
	left, ok := p.rangeExpr()
	for p.check(token.SHL) || p.check(token.SHR) {
		tok := p.advance()
		op := ast.BShl
		if tok.Kind == token.SHR {
			op = ast.BShr
		}
		right, rOk := p.rangeExpr()
		ok = ok && rOk
		left = p.a.Push(ast.Node{Kind: ast.KBinary, Tok: tok, Data: ast.BinaryData{Op: op, Left: left, Right: right}})
	}
	return left, ok
}

func (p *Parser) rangeExpr() (ast.NodeId, bool) {
	left, ok := p.term()
	for p.check(token.RANGE) || p.check(token.RANGE_INCLUSIVE) {
		tok := p.advance()
		op := ast.BRange
		if tok.Kind == token.RANGE_INCLUSIVE {
			op = ast.BRangeInclusive
		}
		right, rOk := p.term()
		ok = ok && rOk
		left = p.a.Push(ast.Node{Kind: ast.KBinary, Tok: tok, Data: ast.BinaryData{Op: op, Left: left, Right: right}})
	}
	return left, ok
}

func (p *Parser) term() (ast.NodeId, bool) {
	left, ok := p.factor()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		tok := p.advance()
		op := ast.BAdd
		if tok.Kind == token.MINUS {
			op = ast.BSub
		}
		right, rOk := p.factor()
		ok = ok && rOk
		left = p.a.Push(ast.Node{Kind: ast.KBinary, Tok: tok, Data: ast.BinaryData{Op: op, Left: left, Right: right}})
	}
	return left, ok
}

func (p *Parser) factor() (ast.NodeId, bool) {
	left, ok := p.power()
	for {
		tok := p.peek()
		var op ast.BinOp
		switch tok.Kind {
		case token.STAR:
			op = ast.BMul
		case token.SLASH:
			op = ast.BDiv
		case token.PERCENT:
			op = ast.BMod
		case token.KW_MOD:
			op = ast.BFloorMod
		default:
			return left, ok
		}
		p.advance()
		right, rOk := p.power()
		ok = ok && rOk
		left = p.a.Push(ast.Node{Kind: ast.KBinary, Tok: tok, Data: ast.BinaryData{Op: op, Left: left, Right: right}})
	}
}

func (p *Parser) power() (ast.NodeId, bool) {
	left, ok := p.pipeExpr()
	for p.isMatch(token.POW) {
		tok := p.previous()
		right, rOk := p.pipeExpr()
		ok = ok && rOk
		left = p.a.Push(ast.Node{Kind: ast.KBinary, Tok: tok, Data: ast.BinaryData{Op: ast.BPow, Left: left, Right: right}})
	}
	return left, ok
}

func (p *Parser) pipeExpr() (ast.NodeId, bool) {
	left, ok := p.unary()
	for p.isMatch(token.PIPE_OP) {
		tok := p.previous()
		right, rOk := p.unary()
		ok = ok && rOk
		left = p.a.Push(ast.Node{Kind: ast.KBinary, Tok: tok, Data: ast.BinaryData{Op: ast.BPipe, Left: left, Right: right}})
	}
	return left, ok
}

var unaryOps = map[token.Kind]ast.UnaryOp{
	token.BANG: ast.UNot, token.TILDE: ast.UBitNot, token.MINUS: ast.UNeg,
	token.KW_NEW: ast.UNew, token.KW_TYPEOF: ast.UTypeof, token.KW_AWAIT: ast.UAwait,
}

func (p *Parser) unary() (ast.NodeId, bool) {
	tok := p.peek()
	if op, isUnary := unaryOps[tok.Kind]; isUnary {
		p.advance()
		operand, ok := p.unary()
		return p.a.Push(ast.Node{Kind: ast.KUnary, Tok: tok, Data: ast.UnaryData{Op: op, Operand: operand}}), ok
	}
	return p.callOrPrimary()
}

// callOrPrimary parses a primary expression then the postfix chain of
// member access, indexing, slicing, and calls.
func (p *Parser) callOrPrimary() (ast.NodeId, bool) {
	startTok := p.peek()
	expr, ok := p.primary()
	for {
		switch {
		case p.isMatch(token.DOT):
			nameTok, nameOk := p.consume(token.IDENTIFIER, "expected member name after '.'")
			ok = ok && nameOk
			expr = p.a.Push(ast.Node{Kind: ast.KMember, Tok: nameTok, Data: ast.MemberData{Target: expr, Name: nameTok, Safe: false}})
		case p.isMatch(token.SAFE_DOT):
			nameTok, nameOk := p.consume(token.IDENTIFIER, "expected member name after '?.'")
			ok = ok && nameOk
			expr = p.a.Push(ast.Node{Kind: ast.KMember, Tok: nameTok, Data: ast.MemberData{Target: expr, Name: nameTok, Safe: true}})
		case p.isMatch(token.LPAREN):
			expr = p.finishCall(expr, startTok)
		case p.isMatch(token.LBRACKET):
			var idxOk bool
			expr, idxOk = p.finishIndex(expr, startTok)
			ok = ok && idxOk
		default:
			return expr, ok
		}
	}
}

func (p *Parser) finishCall(callee ast.NodeId, tok token.Token) ast.NodeId {
	var args []ast.Arg
	for !p.check(token.RPAREN) && !p.atEnd() {
		spread := p.isMatch(token.ELLIPSIS)
		var name *token.Token
		if p.check(token.IDENTIFIER) && p.peekAt(1).Kind == token.COLON {
			nameTok := p.advance()
			p.advance() // ':'
			name = &nameTok
		}
		value, _ := p.expression()
		args = append(args, ast.Arg{Value: value, Name: name, Spread: spread})
		if !p.isMatch(token.COMMA) {
			break
		}
	}
	p.consume(token.RPAREN, "expected ')' to close call arguments")
	return p.a.Push(ast.Node{Kind: ast.KCall, Tok: tok, Data: ast.CallData{Callee: callee, Args: args}})
}

// finishIndex parses everything after a consumed '[': either one-or-more
// comma-separated indexers, or a `start:end:step` slice (any part
// omittable).
func (p *Parser) finishIndex(target ast.NodeId, tok token.Token) (ast.NodeId, bool) {
	ok := true
	start := ast.NoNode
	if !p.check(token.COLON) {
		var sOk bool
		start, sOk = p.expression()
		ok = ok && sOk
		if !p.check(token.COLON) {
			indexers := []ast.NodeId{start}
			for p.isMatch(token.COMMA) {
				idx, idxOk := p.expression()
				ok = ok && idxOk
				indexers = append(indexers, idx)
			}
			if _, rb := p.consume(token.RBRACKET, "expected ']' to close index"); !rb {
				ok = false
			}
			return p.a.Push(ast.Node{Kind: ast.KIndex, Tok: tok, Data: ast.IndexData{Target: target, Indexers: indexers}}), ok
		}
	}
	p.advance() // ':'
	end := ast.NoNode
	if !p.check(token.COLON) && !p.check(token.RBRACKET) {
		var eOk bool
		end, eOk = p.expression()
		ok = ok && eOk
	}
	step := ast.NoNode
	if p.isMatch(token.COLON) && !p.check(token.RBRACKET) {
		var stOk bool
		step, stOk = p.expression()
		ok = ok && stOk
	}
	if _, rb := p.consume(token.RBRACKET, "expected ']' to close slice"); !rb {
		ok = false
	}
	return p.a.Push(ast.Node{Kind: ast.KSlice, Tok: tok, Data: ast.SliceData{Target: target, Start: start, End: end, Step: step}}), ok
}

// primary parses literals, grouping, collection literals/comprehensions,
// and lambda expressions.
func (p *Parser) primary() (ast.NodeId, bool) {
	tok := p.peek()
	switch tok.Kind {
	case token.KW_TRUE:
		p.advance()
		return p.a.Push(ast.Node{Kind: ast.KTrue, Tok: tok}), true
	case token.KW_FALSE:
		p.advance()
		return p.a.Push(ast.Node{Kind: ast.KFalse, Tok: tok}), true
	case token.KW_NONE:
		p.advance()
		return p.a.Push(ast.Node{Kind: ast.KNone, Tok: tok}), true
	case token.KW_SELF:
		p.advance()
		return p.a.Push(ast.Node{Kind: ast.KSelf, Tok: tok}), true
	case token.KW_SUPER:
		p.advance()
		return p.a.Push(ast.Node{Kind: ast.KSuper, Tok: tok}), true
	case token.INT:
		p.advance()
		v, _ := tok.Literal.(int64)
		return p.a.Push(ast.Node{Kind: ast.KIntLit, Tok: tok, Data: ast.IntLitData{Value: v}}), true
	case token.FLOAT:
		p.advance()
		v, _ := tok.Literal.(float64)
		return p.a.Push(ast.Node{Kind: ast.KFloatLit, Tok: tok, Data: ast.FloatLitData{Value: v}}), true
	case token.STRING:
		p.advance()
		return p.a.Push(ast.Node{Kind: ast.KStringLit, Tok: tok}), true
	case token.START_INTERPOL_STR:
		p.advance()
		return p.interpolatedString()
	case token.IDENTIFIER:
		p.advance()
		return p.a.Push(ast.Node{Kind: ast.KIdent, Tok: tok}), true
	case token.LPAREN:
		p.advance()
		return p.parenOrTuple(tok)
	case token.LBRACKET:
		p.advance()
		return p.arrayForm(tok)
	case token.LBRACE:
		p.advance()
		return p.dictForm(tok)
	case token.KW_FUNC, token.KW_ASYNC:
		return p.funcDecl(false, nil)
	default:
		p.advance()
		return p.errNode(tok, "unexpected token '%s'", tok.Lexeme), false
	}
}

// interpolatedString rebuilds an InterpolationData node from the lexer's
// START_INTERPOL_STR/START_INTERPOL_EXPR/END_INTERPOL_EXPR/END_INTERPOL_STR
// framing (spec.md §6).
func (p *Parser) interpolatedString() (ast.NodeId, bool) {
	tok := p.previous()
	ok := true
	var parts []ast.InterpolationPart
	for {
		strTok, strOk := p.consume(token.STRING, "expected string chunk in interpolation")
		ok = ok && strOk
		parts = append(parts, ast.InterpolationPart{Text: strTok.Lexeme, Expr: ast.NoNode})
		if p.isMatch(token.END_INTERPOL_STR) {
			break
		}
		if _, eOk := p.consume(token.START_INTERPOL_EXPR, "expected interpolated expression"); !eOk {
			ok = false
			break
		}
		expr, exprOk := p.expression()
		ok = ok && exprOk
		parts = append(parts, ast.InterpolationPart{Expr: expr})
		if _, endOk := p.consume(token.END_INTERPOL_EXPR, "expected '}' to close interpolated expression"); !endOk {
			ok = false
		}
	}
	return p.a.Push(ast.Node{Kind: ast.KInterpolation, Tok: tok, Data: ast.InterpolationData{Parts: parts}}), ok
}

// parenOrTuple disambiguates `(expr)` grouping from `()`/`(a, b)` tuple
// literals and `(v; n)` tuple-repeat, per spec.md §4.1.
func (p *Parser) parenOrTuple(tok token.Token) (ast.NodeId, bool) {
	if p.isMatch(token.RPAREN) {
		return p.a.Push(ast.Node{Kind: ast.KTupleLit, Tok: tok, Data: ast.TupleLitData{}}), true
	}
	if p.isMatch(token.KW_FOR) {
		clauses, value, ok := p.compactBody()
		if _, rp := p.consume(token.RPAREN, "expected ')' to close comprehension"); !rp {
			ok = false
		}
		return p.a.Push(ast.Node{Kind: ast.KCompactTuple, Tok: tok, Data: ast.CompactTupleData{Value: value, Clauses: clauses}}), ok
	}
	first, ok := p.expression()
	switch {
	case p.isMatch(token.SEMICOLON):
		count, countOk := p.expression()
		ok = ok && countOk
		if _, rp := p.consume(token.RPAREN, "expected ')' to close repeat literal"); !rp {
			ok = false
		}
		return p.a.Push(ast.Node{Kind: ast.KRepeatLit, Tok: tok, Data: ast.RepeatLitData{Value: first, Count: count, IsTuple: true}}), ok
	case p.check(token.COMMA):
		elems := []ast.NodeId{first}
		for p.isMatch(token.COMMA) {
			if p.check(token.RPAREN) {
				break
			}
			elem, elemOk := p.expression()
			ok = ok && elemOk
			elems = append(elems, elem)
		}
		if _, rp := p.consume(token.RPAREN, "expected ')' to close tuple literal"); !rp {
			ok = false
		}
		return p.a.Push(ast.Node{Kind: ast.KTupleLit, Tok: tok, Data: ast.TupleLitData{Elems: elems}}), ok
	default:
		if _, rp := p.consume(token.RPAREN, "expected ')' to close grouping"); !rp {
			ok = false
		}
		return first, ok
	}
}

// arrayForm disambiguates `[...]` array literal, `[v; n]` repeat, and
// `[for (x in y) ...]` comprehension.
func (p *Parser) arrayForm(tok token.Token) (ast.NodeId, bool) {
	if p.isMatch(token.RBRACKET) {
		return p.a.Push(ast.Node{Kind: ast.KArrayLit, Tok: tok, Data: ast.ArrayLitData{}}), true
	}
	if p.isMatch(token.KW_FOR) {
		clauses, value, ok := p.compactBody()
		if _, rb := p.consume(token.RBRACKET, "expected ']' to close comprehension"); !rb {
			ok = false
		}
		return p.a.Push(ast.Node{Kind: ast.KCompactArray, Tok: tok, Data: ast.CompactArrayData{Value: value, Clauses: clauses}}), ok
	}
	first, ok := p.expression()
	if p.isMatch(token.SEMICOLON) {
		count, countOk := p.expression()
		ok = ok && countOk
		if _, rb := p.consume(token.RBRACKET, "expected ']' to close repeat literal"); !rb {
			ok = false
		}
		return p.a.Push(ast.Node{Kind: ast.KRepeatLit, Tok: tok, Data: ast.RepeatLitData{Value: first, Count: count, IsTuple: false}}), ok
	}
	elems := []ast.NodeId{first}
	for p.isMatch(token.COMMA) {
		if p.check(token.RBRACKET) {
			break
		}
		elem, elemOk := p.expression()
		ok = ok && elemOk
		elems = append(elems, elem)
	}
	if _, rb := p.consume(token.RBRACKET, "expected ']' to close array literal"); !rb {
		ok = false
	}
	return p.a.Push(ast.Node{Kind: ast.KArrayLit, Tok: tok, Data: ast.ArrayLitData{Elems: elems}}), ok
}

// dictForm parses `{}`, `{k: v, ...}`, and `{for (x in y) k: v}`.
func (p *Parser) dictForm(tok token.Token) (ast.NodeId, bool) {
	if p.isMatch(token.RBRACE) {
		return p.a.Push(ast.Node{Kind: ast.KDictLit, Tok: tok, Data: ast.DictLitData{}}), true
	}
	if p.isMatch(token.KW_FOR) {
		clauses, key, value, ok := p.compactDictBody()
		if _, rb := p.consume(token.RBRACE, "expected '}' to close comprehension"); !rb {
			ok = false
		}
		return p.a.Push(ast.Node{Kind: ast.KCompactDict, Tok: tok, Data: ast.CompactDictData{Key: key, Value: value, Clauses: clauses}}), ok
	}
	var keys, values []ast.NodeId
	ok := true
	for {
		key, keyOk := p.expression()
		ok = ok && keyOk
		if _, colonOk := p.consume(token.COLON, "expected ':' in dict literal"); !colonOk {
			ok = false
		}
		value, valOk := p.expression()
		ok = ok && valOk
		keys = append(keys, key)
		values = append(values, value)
		if !p.isMatch(token.COMMA) || p.check(token.RBRACE) {
			break
		}
	}
	if _, rb := p.consume(token.RBRACE, "expected '}' to close dict literal"); !rb {
		ok = false
	}
	return p.a.Push(ast.Node{Kind: ast.KDictLit, Tok: tok, Data: ast.DictLitData{Keys: keys, Values: values}}), ok
}

// compactBody parses the `for (target in iterable) [for (...)|if cond]*
// valueExpr` comprehension tail shared by array/tuple comprehensions (the
// leading 'for' keyword is already consumed by the caller), grounded on
// spec.md §8 scenario 3: `[for (i in r) i * i]`.
func (p *Parser) compactBody() ([]ast.CompClause, ast.NodeId, bool) {
	ok := true
	clause, cOk := p.forClauseHeader()
	ok = ok && cOk
	clauses := []ast.CompClause{clause}
	for {
		switch {
		case p.isMatch(token.KW_IF):
			cond, condOk := p.expression()
			ok = ok && condOk
			clauses = append(clauses, ast.CompClause{Target: ast.NoNode, Iterable: ast.NoNode, Cond: cond})
		case p.isMatch(token.KW_FOR):
			c2, c2Ok := p.forClauseHeader()
			ok = ok && c2Ok
			clauses = append(clauses, c2)
		default:
			value, valOk := p.expression()
			return clauses, value, ok && valOk
		}
	}
}

// compactDictBody is compactBody's sibling for `{for (...) key: value}`.
func (p *Parser) compactDictBody() ([]ast.CompClause, ast.NodeId, ast.NodeId, bool) {
	ok := true
	clause, cOk := p.forClauseHeader()
	ok = ok && cOk
	clauses := []ast.CompClause{clause}
	for {
		switch {
		case p.isMatch(token.KW_IF):
			cond, condOk := p.expression()
			ok = ok && condOk
			clauses = append(clauses, ast.CompClause{Target: ast.NoNode, Iterable: ast.NoNode, Cond: cond})
		case p.isMatch(token.KW_FOR):
			c2, c2Ok := p.forClauseHeader()
			ok = ok && c2Ok
			clauses = append(clauses, c2)
		default:
			key, keyOk := p.expression()
			ok = ok && keyOk
			if _, colonOk := p.consume(token.COLON, "expected ':' in dict comprehension"); !colonOk {
				ok = false
			}
			value, valOk := p.expression()
			return clauses, key, value, ok && valOk
		}
	}
}

func (p *Parser) forClauseHeader() (ast.CompClause, bool) {
	ok := true
	if _, lp := p.consume(token.LPAREN, "expected '(' after 'for'"); !lp {
		ok = false
	}
	target, tOk := p.forTarget()
	ok = ok && tOk
	if _, inOk := p.consume(token.KW_IN, "expected 'in' in comprehension clause"); !inOk {
		ok = false
	}
	iterable, iOk := p.expression()
	ok = ok && iOk
	if _, rp := p.consume(token.RPAREN, "expected ')' after comprehension clause"); !rp {
		ok = false
	}
	return ast.CompClause{Target: target, Iterable: iterable, Cond: ast.NoNode}, ok
}
