package parse

import (
	"testing"

	"github.com/novus-lang/novus/internal/novus/lex"
)

func parseExpr(t *testing.T, src string) Node {
	t.Helper()
	p := New(lex.New([]byte(src)))
	return p.nextExpr(0)
}

func TestPrecedenceMultiplicativeBindsTighterThanAdditive(t *testing.T) {
	n := parseExpr(t, "1 + 2 * 3")
	bin, ok := n.(*NodeBinary)
	if !ok || bin.Operator != lex.KindPlus {
		t.Fatalf("expected top-level +, got %#v", n)
	}
	right, ok := bin.Right.(*NodeBinary)
	if !ok || right.Operator != lex.KindStar {
		t.Fatalf("expected right child to be *, got %#v", bin.Right)
	}
}

func TestPrecedenceLeftAssociativeAdditive(t *testing.T) {
	n := parseExpr(t, "1 - 2 - 3")
	top, ok := n.(*NodeBinary)
	if !ok || top.Operator != lex.KindMinus {
		t.Fatalf("expected top-level -, got %#v", n)
	}
	left, ok := top.Left.(*NodeBinary)
	if !ok || left.Operator != lex.KindMinus {
		t.Fatalf("expected left-leaning tree for left-associative -, got %#v", top.Left)
	}
	if _, isLit := top.Right.(*NodeLiteral); !isLit {
		t.Fatalf("expected right child to be a bare literal, got %#v", top.Right)
	}
}

func TestPrecedenceConcatIsRightAssociative(t *testing.T) {
	n := parseExpr(t, `"a" :: "b" :: "c"`)
	top, ok := n.(*NodeBinary)
	if !ok || top.Operator != lex.KindConcat {
		t.Fatalf("expected top-level ::, got %#v", n)
	}
	if _, isLit := top.Left.(*NodeLiteral); !isLit {
		t.Fatalf("expected left child to be a bare literal for right-associative ::, got %#v", top.Left)
	}
	right, ok := top.Right.(*NodeBinary)
	if !ok || right.Operator != lex.KindConcat {
		t.Fatalf("expected right-leaning tree for right-associative ::, got %#v", top.Right)
	}
}

func TestPrecedenceConditionalLowerThanEquality(t *testing.T) {
	n := parseExpr(t, "1 == 1 ? 2 : 3")
	cond, ok := n.(*NodeConditional)
	if !ok {
		t.Fatalf("expected conditional, got %#v", n)
	}
	if _, ok := cond.Condition.(*NodeBinary); !ok {
		t.Fatalf("expected condition to be a binary ==, got %#v", cond.Condition)
	}
}

func TestFieldBindsTighterThanTypeTest(t *testing.T) {
	n := parseExpr(t, "x.y is int")
	isas, ok := n.(*NodeIsAs)
	if !ok || !isas.IsTest {
		t.Fatalf("expected top-level is-test, got %#v", n)
	}
	if _, ok := isas.Operand.(*NodeField); !ok {
		t.Fatalf("expected operand to be a field access, got %#v", isas.Operand)
	}
}

func TestCallBindsTighterThanUnary(t *testing.T) {
	n := parseExpr(t, "-f(1)")
	unary, ok := n.(*NodeUnary)
	if !ok || unary.Operator != lex.KindMinus {
		t.Fatalf("expected top-level unary -, got %#v", n)
	}
	if _, ok := unary.Operand.(*NodeCall); !ok {
		t.Fatalf("expected operand to be a call, got %#v", unary.Operand)
	}
}

func TestFuncDeclReprintMatchesCompactForm(t *testing.T) {
	p := New(lex.New([]byte("fun a(int x, int y) -> int x * y")))
	stmts := p.ParseProgram()
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d: %#v", len(stmts), stmts)
	}
	decl, ok := stmts[0].(*NodeFuncDecl)
	if !ok {
		t.Fatalf("expected NodeFuncDecl, got %#v", stmts[0])
	}
	const want = "fun-a(int-x,int-y)->int"
	if got := decl.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if !decl.Validate() {
		t.Fatalf("expected a valid func decl")
	}
}

func TestStructDeclParsesFields(t *testing.T) {
	p := New(lex.New([]byte("struct Point = int x, int y")))
	stmts := p.ParseProgram()
	decl, ok := stmts[0].(*NodeStructDecl)
	if !ok {
		t.Fatalf("expected NodeStructDecl, got %#v", stmts[0])
	}
	if decl.Name != "Point" || len(decl.Fields) != 2 {
		t.Fatalf("unexpected struct decl: %#v", decl)
	}
	if decl.Fields[0].Name != "x" || decl.Fields[1].Name != "y" {
		t.Fatalf("unexpected field order: %#v", decl.Fields)
	}
}

func TestUnionDeclParsesVariants(t *testing.T) {
	p := New(lex.New([]byte("union Shape = Circle, Square")))
	stmts := p.ParseProgram()
	decl, ok := stmts[0].(*NodeUnionDecl)
	if !ok {
		t.Fatalf("expected NodeUnionDecl, got %#v", stmts[0])
	}
	if len(decl.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %#v", decl.Variants)
	}
}

func TestEnumDeclParsesExplicitAndAutoValues(t *testing.T) {
	p := New(lex.New([]byte("enum Color = Red: 0, Green, Blue: -5")))
	stmts := p.ParseProgram()
	decl, ok := stmts[0].(*NodeEnumDecl)
	if !ok {
		t.Fatalf("expected NodeEnumDecl, got %#v", stmts[0])
	}
	if len(decl.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %#v", decl.Entries)
	}
	if decl.Entries[0].Value == nil || *decl.Entries[0].Value != 0 {
		t.Fatalf("expected Red: 0, got %#v", decl.Entries[0])
	}
	if decl.Entries[1].Value != nil {
		t.Fatalf("expected Green to have an auto (nil) value, got %#v", decl.Entries[1])
	}
	if decl.Entries[2].Value == nil || *decl.Entries[2].Value != -5 {
		t.Fatalf("expected Blue: -5, got %#v", decl.Entries[2])
	}
}

func TestImportParsesPath(t *testing.T) {
	p := New(lex.New([]byte(`import "std/io"`)))
	stmts := p.ParseProgram()
	imp, ok := stmts[0].(*NodeImport)
	if !ok || imp.Path != "std/io" {
		t.Fatalf("expected import of std/io, got %#v", stmts[0])
	}
}

func TestExecStmtWrapsTopLevelCall(t *testing.T) {
	p := New(lex.New([]byte("print(1)")))
	stmts := p.ParseProgram()
	stmt, ok := stmts[0].(*NodeExecStmt)
	if !ok {
		t.Fatalf("expected NodeExecStmt, got %#v", stmts[0])
	}
	if stmt.Call.Callee.String() != "print" {
		t.Fatalf("unexpected callee: %#v", stmt.Call.Callee)
	}
}

func TestModifiedCallRecordsModifierFlags(t *testing.T) {
	n := parseExpr(t, "fork impure compute(1)")
	call, ok := n.(*NodeCall)
	if !ok {
		t.Fatalf("expected NodeCall, got %#v", n)
	}
	if call.Modifiers&ModFork == 0 || call.Modifiers&ModImpure == 0 {
		t.Fatalf("expected fork|impure modifiers, got %v", call.Modifiers)
	}
}

func TestSwitchExpressionParsesClausesAndElse(t *testing.T) {
	n := parseExpr(t, "if x == 1 -> 10 if x == 2 -> 20 else -> 0")
	sw, ok := n.(*NodeSwitch)
	if !ok {
		t.Fatalf("expected NodeSwitch, got %#v", n)
	}
	if len(sw.Clauses) != 2 || sw.Else == nil {
		t.Fatalf("unexpected switch shape: %#v", sw)
	}
}

func TestIntrinsicReferenceParsesNameAndTypeArgs(t *testing.T) {
	n := parseExpr(t, "intrinsic{add}{int}")
	in, ok := n.(*NodeIntrinsic)
	if !ok || in.Name != "add" || len(in.TypeArgs) != 1 {
		t.Fatalf("unexpected intrinsic node: %#v", n)
	}
}

func TestIdentifierFollowedByBraceWithoutCallIsNotTreatedAsTypeArgs(t *testing.T) {
	// `x{T}` with no trailing call parens must not consume the brace as a
	// speculative type-argument list; the buffer must rewind to exactly
	// where it was, not lose the over-fetched tokens on backtrack.
	p := New(lex.New([]byte("x{T}")))
	n := p.nextExpr(0)
	id, ok := n.(*NodeIdentifier)
	if !ok || id.Name != "x" {
		t.Fatalf("expected bare identifier, got %#v", n)
	}
	if p.buf.peek(0).Kind != lex.KindBraceOpen {
		t.Fatalf("expected '{' still pending after backtrack, got %v", p.buf.peek(0))
	}
	if name, ok := p.buf.peek(1).Identifier(); !ok || name != "T" {
		t.Fatalf("expected 'T' still pending after backtrack, got %v", p.buf.peek(1))
	}
	if p.buf.peek(2).Kind != lex.KindBraceClose {
		t.Fatalf("expected '}' still pending after backtrack, got %v", p.buf.peek(2))
	}
}

func TestGenericCallParsesTypeArgsBeforeParens(t *testing.T) {
	n := parseExpr(t, "map{int,string}(xs)")
	call, ok := n.(*NodeCall)
	if !ok {
		t.Fatalf("expected NodeCall, got %#v", n)
	}
	if len(call.TypeArgs) != 2 {
		t.Fatalf("expected 2 type args, got %#v", call.TypeArgs)
	}
}

func TestErrorNodeOnUnterminatedParen(t *testing.T) {
	n := parseExpr(t, "(1 + 2")
	errNode, ok := n.(*NodeError)
	if !ok {
		t.Fatalf("expected NodeError, got %#v", n)
	}
	if errNode.Validate() {
		t.Fatalf("error nodes must never validate")
	}
}

func TestMaxExpressionRecursionDepthGuardsRunaway(t *testing.T) {
	// Deeply nested parens/unary prefixes wrap the eventual depth-guard
	// NodeError in layers of valid-shaped outer nodes, so drive the guard
	// directly rather than asserting on the shape of a huge input's result.
	p := New(lex.New([]byte("1")))
	p.depth = maxExprRecursionDepth + 1
	n := p.nextExpr(0)
	errNode, ok := n.(*NodeError)
	if !ok {
		t.Fatalf("expected recursion-depth NodeError, got %T", n)
	}
	if errNode.Message != "maximum expression recursion depth reached" {
		t.Fatalf("unexpected message: %q", errNode.Message)
	}

	// And confirm a pathologically deep input is bounded: it never panics
	// and the guard message appears somewhere in the resulting tree.
	src := ""
	for i := 0; i < maxExprRecursionDepth+50; i++ {
		src += "-"
	}
	src += "1"
	deep := parseExpr(t, src)
	if !containsRecursionGuardMessage(deep) {
		t.Fatalf("expected the recursion-depth guard message somewhere in the tree")
	}
}

func containsRecursionGuardMessage(n Node) bool {
	if n == nil {
		return false
	}
	if errNode, ok := n.(*NodeError); ok && errNode.Message == "maximum expression recursion depth reached" {
		return true
	}
	for _, c := range n.Children() {
		if containsRecursionGuardMessage(c) {
			return true
		}
	}
	return false
}

func TestLambdaParsesModifiersArgsAndReturnType(t *testing.T) {
	n := parseExpr(t, "lambda impure (int x) -> int x + 1")
	fn, ok := n.(*NodeAnonFunc)
	if !ok {
		t.Fatalf("expected NodeAnonFunc, got %#v", n)
	}
	if fn.Modifiers&ModImpure == 0 {
		t.Fatalf("expected impure modifier, got %v", fn.Modifiers)
	}
	if len(fn.Args) != 1 || fn.Args[0].Name != "x" {
		t.Fatalf("unexpected args: %#v", fn.Args)
	}
	if fn.RetType == nil {
		t.Fatalf("expected a return type")
	}
}

func TestCommentStatementIsPreserved(t *testing.T) {
	p := New(lex.New([]byte("// hello\nfun a() -> int 1")))
	stmts := p.ParseProgram()
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	comment, ok := stmts[0].(*NodeComment)
	if !ok || comment.Text != " hello" {
		t.Fatalf("unexpected comment node: %#v", stmts[0])
	}
}
