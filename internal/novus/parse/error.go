package parse

import "github.com/novus-lang/novus/internal/novus/lex"

// Every construct that can fail to parse has an errInvalid* factory that
// builds a *NodeError carrying the tokens consumed and any partial child
// nodes, per spec §4.2. The parser never panics on invalid input; it
// consumes a best-effort span, records an Error node in place, and
// resumes at the next plausible statement boundary.

func errInvalidExpr(message string, tokens []lex.Token, partial ...Node) *NodeError {
	return newErrorNode(message, tokens, partial)
}

func errInvalidCall(message string, tokens []lex.Token, partial ...Node) *NodeError {
	return newErrorNode(message, tokens, partial)
}

func errInvalidType(message string, tokens []lex.Token) *NodeError {
	return newErrorNode(message, tokens, nil)
}

func errInvalidStmt(message string, tokens []lex.Token, partial ...Node) *NodeError {
	return newErrorNode(message, tokens, partial)
}

func errMaxExprRecursionDepthReached(tokens []lex.Token) *NodeError {
	return newErrorNode("maximum expression recursion depth reached", tokens, nil)
}

func newErrorNode(message string, tokens []lex.Token, partial []Node) *NodeError {
	span := lex.Span{}
	if len(tokens) > 0 {
		span = tokens[0].Span
		for _, tok := range tokens[1:] {
			span = span.Combine(tok.Span)
		}
	}
	for _, p := range partial {
		if p != nil {
			span = span.Combine(p.Span())
		}
	}
	return &NodeError{SpanVal: span, Message: message, Tokens: tokens, Partial: partial}
}
