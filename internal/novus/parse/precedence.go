package parse

import "github.com/novus-lang/novus/internal/novus/lex"

// Precedence levels, ascending, from spec §4.2. Grouping and unary are
// listed for documentation; grouping never appears as a normal infix
// binary operator (it is a dedicated `;` continuation) and unary never
// appears on the right of an infix lookup (it is handled by nextUnary).
const (
	precGrouping       = 1
	precConditional    = 3
	precBang           = 4
	precOr             = 5
	precXor            = 6
	precAnd            = 7
	precEquality       = 8
	precRelational     = 9
	precShift          = 10
	precAdditive       = 11
	precMultiplicative = 12
	precDoubleQQ       = 13
	precTypeTest       = 14
	precField          = 15
	precCallIndex      = 16
	precUnary          = 17
)

// opInfo describes one entry of the infix-operator precedence table.
type opInfo struct {
	precedence int
	rightAssoc bool
}

// infixPrecedence is the precedence table of spec §4.2, keyed by the
// lexical kind that introduces the continuation. `;`, `?`, `.`, `[` and
// call-parens are listed here too, but tryContinuation dispatches them
// to dedicated parsers before it consults this table. `is`/`as` are
// keywords, not lex.Kind values, so they are not in the table;
// tryContinuation checks them directly at precTypeTest.
var infixPrecedence = map[lex.Kind]opInfo{
	lex.KindSemicolon:  {precGrouping, false},
	lex.KindQuestion:   {precConditional, false},
	lex.KindBang:       {precBang, false},
	lex.KindOrOr:       {precOr, false},
	lex.KindOr:         {precOr, false},
	lex.KindXor:        {precXor, false},
	lex.KindAndAnd:     {precAnd, false},
	lex.KindAnd:        {precAnd, false},
	lex.KindEqEq:       {precEquality, false},
	lex.KindNotEq:      {precEquality, false},
	lex.KindLess:       {precRelational, false},
	lex.KindLessEq:     {precRelational, false},
	lex.KindGreater:    {precRelational, false},
	lex.KindGreaterEq:  {precRelational, false},
	lex.KindShl:        {precShift, false},
	lex.KindShr:        {precShift, false},
	lex.KindPlus:       {precAdditive, false},
	lex.KindMinus:      {precAdditive, false},
	lex.KindConcat:     {precAdditive, true}, // `::` is right-associative
	lex.KindTilde:      {precAdditive, false},
	lex.KindStar:       {precMultiplicative, false},
	lex.KindSlash:      {precMultiplicative, false},
	lex.KindPercent:    {precMultiplicative, false},
	lex.KindQQ:         {precDoubleQQ, false},
	lex.KindDot:        {precField, false},
	lex.KindBracketOpen: {precCallIndex, false},
	lex.KindParenOpen:  {precCallIndex, false},
}

// prefixKinds are the legal unary-prefix operators.
var prefixKinds = map[lex.Kind]bool{
	lex.KindPlus:     true,
	lex.KindMinus:    true,
	lex.KindBang:     true,
	lex.KindTilde:    true,
	lex.KindQuestion: true,
}

// continuationPrecedence reports the precedence of the binary/postfix
// continuation `kind` would introduce, and whether the continuation is
// right-associative. A keyword token (is/as) is looked up by callers
// directly at precTypeTest since keywords are not lex.Kind values.
func continuationPrecedence(kind lex.Kind) (opInfo, bool) {
	info, ok := infixPrecedence[kind]
	return info, ok
}
