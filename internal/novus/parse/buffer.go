package parse

import "github.com/novus-lang/novus/internal/novus/lex"

// tokenBuffer is a bounded look-ahead deque over a Lexer. peek(k) fills
// missing slots from the upstream lexer on demand, so the parser never
// has to pre-tokenize the whole input. Consumed tokens stay in queued
// (advance only moves pos forward) so a parse attempt can save its
// position and backtrack without re-lexing or losing tokens.
type tokenBuffer struct {
	lexer  *lex.Lexer
	queued []lex.Token
	pos    int
}

func newTokenBuffer(l *lex.Lexer) *tokenBuffer {
	return &tokenBuffer{lexer: l}
}

// peek returns the token k positions ahead of the current position
// (peek(0) is the next unconsumed token), filling the queue as needed.
func (b *tokenBuffer) peek(k int) lex.Token {
	for len(b.queued) <= b.pos+k {
		b.queued = append(b.queued, b.lexer.Next())
	}
	return b.queued[b.pos+k]
}

// advance consumes and returns the next token.
func (b *tokenBuffer) advance() lex.Token {
	tok := b.peek(0)
	b.pos++
	return tok
}

// at reports whether the next token has the given lexical kind.
func (b *tokenBuffer) at(kind lex.Kind) bool {
	return b.peek(0).Kind == kind
}

// atKeyword reports whether the next token is the given keyword.
func (b *tokenBuffer) atKeyword(kw lex.Keyword) bool {
	tok := b.peek(0)
	id, ok := tok.KeywordID()
	return ok && id == kw
}

// mark returns a position that restore can rewind to, for speculative
// look-ahead that may need to backtrack.
func (b *tokenBuffer) mark() int {
	return b.pos
}

// restore rewinds to a position previously returned by mark.
func (b *tokenBuffer) restore(mark int) {
	b.pos = mark
}
