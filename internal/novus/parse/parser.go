package parse

import (
	"github.com/novus-lang/novus/internal/novus/lex"
)

// maxExprRecursionDepth bounds nextExpr's recursion so a pathological or
// adversarial input cannot blow the Go call stack; exceeding it yields
// errMaxExprRecursionDepthReached instead of panicking.
const maxExprRecursionDepth = 250

// Parser is a recursive-descent, precedence-climbing parser over a
// bounded look-ahead token buffer (spec §4.2).
type Parser struct {
	buf   *tokenBuffer
	depth int
}

// New returns a Parser reading tokens from l.
func New(l *lex.Lexer) *Parser {
	return &Parser{buf: newTokenBuffer(l)}
}

// ParseProgram produces statements until end-of-stream, per the
// top-level loop in spec §4.2.
func (p *Parser) ParseProgram() []Node {
	var stmts []Node
	for !p.buf.at(lex.KindEOF) {
		stmts = append(stmts, p.nextStatement())
	}
	return stmts
}

// nextStatement dispatches on the first token's kind/keyword.
func (p *Parser) nextStatement() Node {
	tok := p.buf.peek(0)

	if tok.Kind == lex.KindComment {
		p.buf.advance()
		text, _ := tok.Payload.(string)
		return &NodeComment{SpanVal: tok.Span, Text: text}
	}

	if kw, ok := tok.KeywordID(); ok {
		switch kw {
		case lex.KwImport:
			return p.parseImport()
		case lex.KwFun, lex.KwAct:
			return p.parseFuncDecl()
		case lex.KwStruct:
			return p.parseStructDecl()
		case lex.KwUnion:
			return p.parseUnionDecl()
		case lex.KwEnum:
			return p.parseEnumDecl()
		}
	}

	return p.parseExecStmt()
}

func (p *Parser) parseImport() Node {
	start := p.buf.advance() // `import`
	strTok := p.buf.peek(0)
	if strTok.Kind != lex.KindLitString {
		consumed := []lex.Token{start, strTok}
		return errInvalidStmt("import must be followed by a string path", consumed)
	}
	p.buf.advance()
	path, _ := strTok.Payload.(string)
	return &NodeImport{SpanVal: start.Span.Combine(strTok.Span), Path: path}
}

func (p *Parser) expectIdentifier(context string) (lex.Token, string, bool) {
	tok := p.buf.peek(0)
	name, ok := tok.Identifier()
	if !ok {
		return tok, "", false
	}
	p.buf.advance()
	return tok, name, true
}

// parseTypeSubstitutionList parses an optional declaration-site `{T,U}`.
func (p *Parser) parseTypeSubstitutionList() ([]string, bool) {
	if !p.buf.at(lex.KindBraceOpen) {
		return nil, true
	}
	p.buf.advance()
	var names []string
	for {
		_, name, ok := p.expectIdentifier("type substitution")
		if !ok {
			return names, false
		}
		names = append(names, name)
		if p.buf.at(lex.KindComma) {
			p.buf.advance()
			continue
		}
		break
	}
	if !p.buf.at(lex.KindBraceClose) {
		return names, false
	}
	p.buf.advance()
	return names, true
}

// parseType parses `id[{params}]`.
func (p *Parser) parseType() (ParsedType, bool) {
	idTok := p.buf.peek(0)
	if _, ok := idTok.Identifier(); !ok {
		return ParsedType{}, false
	}
	p.buf.advance()

	if !p.buf.at(lex.KindBraceOpen) {
		return ParsedType{ID: idTok}, true
	}
	p.buf.advance()

	var types []ParsedType
	for {
		t, ok := p.parseType()
		if !ok {
			return ParsedType{}, false
		}
		types = append(types, t)
		if p.buf.at(lex.KindComma) {
			p.buf.advance()
			continue
		}
		break
	}
	if !p.buf.at(lex.KindBraceClose) {
		return ParsedType{}, false
	}
	p.buf.advance()
	return ParsedType{ID: idTok, Params: &TypeParamList{Types: types}}, true
}

// parseArgList parses `(type id, type id, ...)`.
func (p *Parser) parseArgList() ([]ArgDecl, bool) {
	if !p.buf.at(lex.KindParenOpen) {
		return nil, false
	}
	p.buf.advance()

	var args []ArgDecl
	if p.buf.at(lex.KindParenClose) {
		p.buf.advance()
		return args, true
	}
	for {
		typ, ok := p.parseType()
		if !ok {
			return args, false
		}
		_, name, ok := p.expectIdentifier("argument name")
		if !ok {
			return args, false
		}
		args = append(args, ArgDecl{Type: typ, Name: name})
		if p.buf.at(lex.KindComma) {
			p.buf.advance()
			continue
		}
		break
	}
	if !p.buf.at(lex.KindParenClose) {
		return args, false
	}
	p.buf.advance()
	return args, true
}

func (p *Parser) parseFuncDecl() Node {
	start := p.buf.advance() // `fun` or `act`

	_, name, ok := p.expectIdentifier("function name")
	if !ok {
		return errInvalidStmt("function declaration missing a name", []lex.Token{start})
	}

	typeSubs, ok := p.parseTypeSubstitutionList()
	if !ok {
		return errInvalidStmt("malformed type substitution list", []lex.Token{start})
	}

	args, ok := p.parseArgList()
	if !ok {
		return errInvalidStmt("malformed argument list", []lex.Token{start})
	}

	var retType *ParsedType
	if p.buf.at(lex.KindArrow) {
		p.buf.advance()
		t, ok := p.parseType()
		if !ok {
			return errInvalidStmt("malformed return type", []lex.Token{start})
		}
		retType = &t
	}

	body := p.nextExpr(0)
	return &NodeFuncDecl{
		SpanVal:  start.Span.Combine(body.Span()),
		Name:     name,
		TypeSubs: typeSubs,
		Args:     args,
		RetType:  retType,
		Body:     body,
	}
}

func (p *Parser) parseStructDecl() Node {
	start := p.buf.advance() // `struct`
	_, name, ok := p.expectIdentifier("struct name")
	if !ok {
		return errInvalidStmt("struct declaration missing a name", []lex.Token{start})
	}
	typeSubs, ok := p.parseTypeSubstitutionList()
	if !ok {
		return errInvalidStmt("malformed type substitution list", []lex.Token{start})
	}
	if !p.consumeEq() {
		return errInvalidStmt("struct declaration missing '='", []lex.Token{start})
	}

	var fields []StructField
	if !p.atStructEnd() {
		for {
			typ, ok := p.parseType()
			if !ok {
				return errInvalidStmt("malformed struct field type", []lex.Token{start})
			}
			_, fname, ok := p.expectIdentifier("field name")
			if !ok {
				return errInvalidStmt("malformed struct field name", []lex.Token{start})
			}
			fields = append(fields, StructField{Type: typ, Name: fname})
			if p.buf.at(lex.KindComma) {
				p.buf.advance()
				continue
			}
			break
		}
	}
	return &NodeStructDecl{SpanVal: start.Span, Name: name, TypeSubs: typeSubs, Fields: fields}
}

// consumeEq consumes the `=` separator used by struct/union/enum
// declarations.
func (p *Parser) consumeEq() bool {
	if !p.buf.at(lex.KindEquals) {
		return false
	}
	p.buf.advance()
	return true
}

func (p *Parser) atStructEnd() bool {
	return p.buf.at(lex.KindEOF) || p.buf.peek(0).Kind == lex.KindKeyword
}

func (p *Parser) parseUnionDecl() Node {
	start := p.buf.advance() // `union`
	_, name, ok := p.expectIdentifier("union name")
	if !ok {
		return errInvalidStmt("union declaration missing a name", []lex.Token{start})
	}
	typeSubs, ok := p.parseTypeSubstitutionList()
	if !ok {
		return errInvalidStmt("malformed type substitution list", []lex.Token{start})
	}
	if !p.consumeEq() {
		return errInvalidStmt("union declaration missing '='", []lex.Token{start})
	}

	var variants []ParsedType
	for {
		t, ok := p.parseType()
		if !ok {
			return errInvalidStmt("malformed union variant", []lex.Token{start})
		}
		variants = append(variants, t)
		if p.buf.at(lex.KindComma) {
			p.buf.advance()
			continue
		}
		break
	}
	return &NodeUnionDecl{SpanVal: start.Span, Name: name, TypeSubs: typeSubs, Variants: variants}
}

func (p *Parser) parseEnumDecl() Node {
	start := p.buf.advance() // `enum`
	_, name, ok := p.expectIdentifier("enum name")
	if !ok {
		return errInvalidStmt("enum declaration missing a name", []lex.Token{start})
	}
	if !p.consumeEq() {
		return errInvalidStmt("enum declaration missing '='", []lex.Token{start})
	}

	var entries []EnumEntry
	for {
		_, ename, ok := p.expectIdentifier("enum entry name")
		if !ok {
			return errInvalidStmt("malformed enum entry", []lex.Token{start})
		}
		entry := EnumEntry{Name: ename}
		if p.buf.at(lex.KindColon) {
			p.buf.advance()
			negative := false
			if p.buf.at(lex.KindMinus) {
				negative = true
				p.buf.advance()
			}
			valTok := p.buf.peek(0)
			if valTok.Kind != lex.KindLitInt && valTok.Kind != lex.KindLitLong {
				return errInvalidStmt("enum entry value must be an integer", []lex.Token{start})
			}
			p.buf.advance()
			var v int64
			switch x := valTok.Payload.(type) {
			case int32:
				v = int64(x)
			case int64:
				v = x
			}
			if negative {
				v = -v
			}
			entry.Value = &v
		}
		entries = append(entries, entry)
		if p.buf.at(lex.KindComma) {
			p.buf.advance()
			continue
		}
		break
	}
	return &NodeEnumDecl{SpanVal: start.Span, Name: name, Entries: entries}
}

// parseExecStmt consumes a top-level side-effecting call `id(args,...)`.
func (p *Parser) parseExecStmt() Node {
	start := p.buf.peek(0)
	expr := p.nextExpr(0)
	call, ok := expr.(*NodeCall)
	if !ok {
		if errNode, isErr := expr.(*NodeError); isErr {
			return errNode
		}
		return errInvalidStmt("expected a call expression at statement level", []lex.Token{start}, expr)
	}
	return &NodeExecStmt{SpanVal: call.Span(), Call: call}
}

// nextExpr is the expression-parsing entry point: after parsing a primary LHS, it
// repeatedly checks whether the next token continues the expression at
// a precedence greater than minPrecedence (or equal, for
// right-associative operators).
func (p *Parser) nextExpr(minPrecedence int) Node {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxExprRecursionDepth {
		return errMaxExprRecursionDepthReached([]lex.Token{p.buf.peek(0)})
	}

	left := p.nextUnary()

	for {
		next, cont := p.tryContinuation(left, minPrecedence)
		if !cont {
			return left
		}
		left = next
	}
}

// tryContinuation inspects the next token and, if it continues the
// expression at a high-enough precedence, consumes it and returns the
// new left-hand side.
func (p *Parser) tryContinuation(left Node, minPrecedence int) (Node, bool) {
	tok := p.buf.peek(0)

	if kw, ok := tok.KeywordID(); ok && (kw == lex.KwIs || kw == lex.KwAs) {
		if precTypeTest <= minPrecedence {
			return left, false
		}
		return p.parseIsAs(left, kw), true
	}

	switch tok.Kind {
	case lex.KindSemicolon:
		if precGrouping <= minPrecedence {
			return left, false
		}
		return p.parseGroup(left), true
	case lex.KindQuestion:
		if precConditional <= minPrecedence {
			return left, false
		}
		return p.parseConditional(left), true
	case lex.KindDot:
		if precField <= minPrecedence {
			return left, false
		}
		return p.parseField(left), true
	case lex.KindBracketOpen:
		if precCallIndex <= minPrecedence {
			return left, false
		}
		return p.parseIndex(left), true
	case lex.KindParenOpen:
		if precCallIndex <= minPrecedence {
			return left, false
		}
		return p.parseCall(left, nil, ModNone), true
	}

	info, ok := continuationPrecedence(tok.Kind)
	if !ok {
		return left, false
	}
	if info.rightAssoc {
		if info.precedence < minPrecedence {
			return left, false
		}
	} else if info.precedence <= minPrecedence {
		return left, false
	}

	p.buf.advance()
	// Passing info.precedence itself (not +1) as the recursive floor is
	// what makes right-associative operators chain inside the recursive
	// call while left-associative ones stop and let the outer loop here
	// pick up the next same-precedence sibling.
	right := p.nextExpr(info.precedence)
	return &NodeBinary{
		SpanVal:  left.Span().Combine(right.Span()),
		Operator: tok.Kind,
		Left:     left,
		Right:    right,
	}, true
}

func (p *Parser) parseGroup(first Node) Node {
	subs := []Node{first}
	for p.buf.at(lex.KindSemicolon) {
		p.buf.advance()
		subs = append(subs, p.nextExpr(precGrouping))
	}
	span := subs[0].Span()
	for _, s := range subs[1:] {
		span = span.Combine(s.Span())
	}
	return &NodeGroup{SpanVal: span, Subexprs: subs}
}

func (p *Parser) parseConditional(cond Node) Node {
	p.buf.advance() // `?`
	then := p.nextExpr(precConditional)
	if !p.buf.at(lex.KindColon) {
		return errInvalidExpr("conditional expression missing ':'", []lex.Token{p.buf.peek(0)}, cond, then)
	}
	p.buf.advance()
	elseExpr := p.nextExpr(precConditional)
	return &NodeConditional{
		SpanVal:   cond.Span().Combine(elseExpr.Span()),
		Condition: cond,
		Then:      then,
		Else:      elseExpr,
	}
}

func (p *Parser) parseField(target Node) Node {
	dot := p.buf.advance()
	nameTok, name, ok := p.expectIdentifier("field name")
	if !ok {
		return errInvalidExpr("field access missing a name", []lex.Token{dot}, target)
	}
	return &NodeField{SpanVal: target.Span().Combine(nameTok.Span), Target: target, Name: name}
}

func (p *Parser) parseIndex(target Node) Node {
	open := p.buf.advance() // `[`
	idx := p.nextExpr(0)
	if !p.buf.at(lex.KindBracketClose) {
		return errInvalidExpr("index expression missing ']'", []lex.Token{open}, target, idx)
	}
	close := p.buf.advance()
	return &NodeIndex{SpanVal: target.Span().Combine(close.Span), Target: target, Index: idx}
}

func (p *Parser) parseCallArgs() ([]Node, bool) {
	if !p.buf.at(lex.KindParenOpen) {
		return nil, false
	}
	p.buf.advance()
	var args []Node
	if p.buf.at(lex.KindParenClose) {
		p.buf.advance()
		return args, true
	}
	for {
		args = append(args, p.nextExpr(precGrouping))
		if p.buf.at(lex.KindComma) {
			p.buf.advance()
			continue
		}
		break
	}
	if !p.buf.at(lex.KindParenClose) {
		return args, false
	}
	p.buf.advance()
	return args, true
}

func (p *Parser) parseCall(callee Node, typeArgs []ParsedType, mods CallModifier) Node {
	start := p.buf.peek(0)
	args, ok := p.parseCallArgs()
	if !ok {
		return errInvalidCall("malformed call argument list", []lex.Token{start}, callee)
	}
	return &NodeCall{
		SpanVal:   callee.Span(),
		Callee:    callee,
		TypeArgs:  typeArgs,
		Args:      args,
		Modifiers: mods,
	}
}

func (p *Parser) parseIsAs(operand Node, kw lex.Keyword) Node {
	kwTok := p.buf.advance()
	typ, ok := p.parseType()
	if !ok {
		return errInvalidExpr("is/as test missing a type", []lex.Token{kwTok}, operand)
	}
	return &NodeIsAs{
		SpanVal: operand.Span(),
		IsTest:  kw == lex.KwIs,
		Operand: operand,
		Type:    typ,
	}
}

// nextUnary parses a unary-prefixed primary, or a bare primary if the
// next token is not one of the legal prefixes (+ - ! ~ ?).
func (p *Parser) nextUnary() Node {
	tok := p.buf.peek(0)
	if prefixKinds[tok.Kind] {
		p.buf.advance()
		operand := p.nextExpr(precUnary)
		return &NodeUnary{SpanVal: tok.Span.Combine(operand.Span()), Operator: tok.Kind, Operand: operand}
	}
	return p.nextPrimary()
}

// nextPrimary parses literals, identifiers (optionally followed by
// type-argument braces -> call), `intrinsic{name}[{T}]`, parenthesized
// expressions, anonymous functions, and if/else switch expressions.
func (p *Parser) nextPrimary() Node {
	tok := p.buf.peek(0)

	switch tok.Kind {
	case lex.KindLitInt, lex.KindLitLong, lex.KindLitFloat, lex.KindLitBool, lex.KindLitChar, lex.KindLitString:
		return p.parseLiteral()
	case lex.KindParenOpen:
		return p.parseParen()
	case lex.KindIdentifier:
		return p.parseIdentifierPrimary()
	}

	if kw, ok := tok.KeywordID(); ok {
		switch kw {
		case lex.KwIntrinsic:
			return p.parseIntrinsic()
		case lex.KwLambda:
			return p.parseLambda()
		case lex.KwIf:
			return p.parseSwitch()
		case lex.KwImpure, lex.KwFork, lex.KwLazy:
			return p.parseModifiedCall()
		case lex.KwSelf:
			p.buf.advance()
			return &NodeIdentifier{SpanVal: tok.Span, Name: "self"}
		}
	}

	p.buf.advance()
	return errInvalidExpr("expected an expression", []lex.Token{tok})
}

func (p *Parser) parseLiteral() Node {
	tok := p.buf.advance()
	var kind LiteralValueKind
	switch tok.Kind {
	case lex.KindLitInt:
		kind = LitInt32
	case lex.KindLitLong:
		kind = LitInt64
	case lex.KindLitFloat:
		kind = LitFloat32
	case lex.KindLitBool:
		kind = LitBool
	case lex.KindLitChar:
		kind = LitChar
	case lex.KindLitString:
		kind = LitString
	}
	return &NodeLiteral{SpanVal: tok.Span, ValueKind: kind, Value: tok.Payload}
}

func (p *Parser) parseParen() Node {
	open := p.buf.advance()
	inner := p.nextExpr(0)
	if !p.buf.at(lex.KindParenClose) {
		return errInvalidExpr("parenthesized expression missing ')'", []lex.Token{open}, inner)
	}
	close := p.buf.advance()
	return &NodeParen{SpanVal: open.Span.Combine(close.Span), Inner: inner}
}

func (p *Parser) parseIdentifierPrimary() Node {
	tok := p.buf.advance()
	name, _ := tok.Identifier()
	id := &NodeIdentifier{SpanVal: tok.Span, Name: name}

	var typeArgs []ParsedType
	if p.buf.at(lex.KindBraceOpen) {
		mark := p.buf.mark()
		p.buf.advance()
		args, ok := p.parseTypeArgList()
		if ok && p.buf.at(lex.KindParenOpen) {
			typeArgs = args
		} else {
			p.buf.restore(mark)
		}
	}

	if p.buf.at(lex.KindParenOpen) {
		return p.parseCall(id, typeArgs, ModNone)
	}
	return id
}

func (p *Parser) parseTypeArgList() ([]ParsedType, bool) {
	var types []ParsedType
	for {
		t, ok := p.parseType()
		if !ok {
			return nil, false
		}
		types = append(types, t)
		if p.buf.at(lex.KindComma) {
			p.buf.advance()
			continue
		}
		break
	}
	if !p.buf.at(lex.KindBraceClose) {
		return nil, false
	}
	p.buf.advance()
	return types, true
}

func (p *Parser) parseIntrinsic() Node {
	start := p.buf.advance() // `intrinsic`
	if !p.buf.at(lex.KindBraceOpen) {
		return errInvalidExpr("intrinsic reference missing '{name}'", []lex.Token{start})
	}
	p.buf.advance()
	_, name, ok := p.expectIdentifier("intrinsic name")
	if !ok {
		return errInvalidExpr("intrinsic reference missing a name", []lex.Token{start})
	}
	if !p.buf.at(lex.KindBraceClose) {
		return errInvalidExpr("intrinsic reference missing '}'", []lex.Token{start})
	}
	closeBrace := p.buf.advance()

	var typeArgs []ParsedType
	if p.buf.at(lex.KindBraceOpen) {
		p.buf.advance()
		args, ok := p.parseTypeArgList()
		if !ok {
			return errInvalidExpr("malformed intrinsic type arguments", []lex.Token{start})
		}
		typeArgs = args
	}
	return &NodeIntrinsic{SpanVal: start.Span.Combine(closeBrace.Span), Name: name, TypeArgs: typeArgs}
}

func (p *Parser) parseLambda() Node {
	start := p.buf.advance() // `lambda`

	mods := ModNone
	for {
		if kw, ok := p.buf.peek(0).KeywordID(); ok {
			switch kw {
			case lex.KwImpure:
				mods |= ModImpure
				p.buf.advance()
				continue
			case lex.KwFork:
				mods |= ModFork
				p.buf.advance()
				continue
			case lex.KwLazy:
				mods |= ModLazy
				p.buf.advance()
				continue
			}
		}
		break
	}

	args, ok := p.parseArgList()
	if !ok {
		return errInvalidExpr("anonymous function missing an argument list", []lex.Token{start})
	}

	var retType *ParsedType
	if p.buf.at(lex.KindArrow) {
		p.buf.advance()
		t, ok := p.parseType()
		if !ok {
			return errInvalidExpr("anonymous function missing a return type", []lex.Token{start})
		}
		retType = &t
	}

	body := p.nextExpr(0)
	return &NodeAnonFunc{
		SpanVal:   start.Span.Combine(body.Span()),
		Modifiers: mods,
		Args:      args,
		RetType:   retType,
		Body:      body,
	}
}

// parseModifiedCall parses `impure|fork|lazy id(args,...)`.
func (p *Parser) parseModifiedCall() Node {
	mods := ModNone
	start := p.buf.peek(0)
loop:
	for {
		kw, ok := p.buf.peek(0).KeywordID()
		if !ok {
			break
		}
		switch kw {
		case lex.KwImpure:
			mods |= ModImpure
		case lex.KwFork:
			mods |= ModFork
		case lex.KwLazy:
			mods |= ModLazy
		default:
			break loop
		}
		p.buf.advance()
	}
	callee := p.nextUnary()
	call, ok := callee.(*NodeCall)
	if !ok {
		return errInvalidCall("call modifier must be followed by a call expression", []lex.Token{start}, callee)
	}
	call.Modifiers |= mods
	return call
}

// parseSwitch parses `if cond -> then (if cond -> then)* [else -> expr]`.
func (p *Parser) parseSwitch() Node {
	start := p.buf.peek(0)
	var clauses []SwitchClause
	for p.buf.atKeyword(lex.KwIf) {
		p.buf.advance()
		cond := p.nextExpr(0)
		if !p.buf.at(lex.KindArrow) {
			return errInvalidExpr("switch clause missing '->'", []lex.Token{start}, cond)
		}
		p.buf.advance()
		result := p.nextExpr(0)
		clauses = append(clauses, SwitchClause{Condition: cond, Result: result})
	}
	if len(clauses) == 0 {
		return errInvalidExpr("switch expression has no if-clauses", []lex.Token{start})
	}

	var elseExpr Node
	if p.buf.atKeyword(lex.KwElse) {
		p.buf.advance()
		if !p.buf.at(lex.KindArrow) {
			return errInvalidExpr("else clause missing '->'", []lex.Token{start})
		}
		p.buf.advance()
		elseExpr = p.nextExpr(0)
	}

	span := start.Span
	for _, c := range clauses {
		span = span.Combine(c.Result.Span())
	}
	if elseExpr != nil {
		span = span.Combine(elseExpr.Span())
	}
	return &NodeSwitch{SpanVal: span, Clauses: clauses, Else: elseExpr}
}
