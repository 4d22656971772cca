// Package parse implements recursive-descent, precedence-climbing parsing
// of a Novus token stream into a parse tree (spec §4.2).
package parse

import (
	"fmt"
	"strings"

	"github.com/novus-lang/novus/internal/novus/lex"
)

// NodeKind discriminates the parse-tree sum type. Per the redesign note
// in spec §9 ("class hierarchy of parse-node variants with virtual
// dispatch... replace with a tagged sum type + match on kind"), every
// concrete Node implementation also reports a NodeKind so callers can
// dispatch without a type switch when they only need the tag.
type NodeKind int

const (
	KindLiteral NodeKind = iota
	KindIdentifier
	KindConstDecl
	KindUnary
	KindBinary
	KindConditional
	KindCall
	KindIndex
	KindField
	KindParen
	KindGroup
	KindAnonFunc
	KindIsAs
	KindSwitch
	KindIntrinsic
	KindExecStmt
	KindFuncDecl
	KindStructDecl
	KindUnionDecl
	KindEnumDecl
	KindImport
	KindComment
	KindError
)

var nodeKindNames = map[NodeKind]string{
	KindLiteral:     "literal",
	KindIdentifier:  "identifier",
	KindConstDecl:   "const-decl",
	KindUnary:       "unary",
	KindBinary:      "binary",
	KindConditional: "conditional",
	KindCall:        "call",
	KindIndex:       "index",
	KindField:       "field",
	KindParen:       "paren",
	KindGroup:       "group",
	KindAnonFunc:    "anon-func",
	KindIsAs:        "is-as",
	KindSwitch:      "switch",
	KindIntrinsic:   "intrinsic",
	KindExecStmt:    "exec-stmt",
	KindFuncDecl:    "func-decl",
	KindStructDecl:  "struct-decl",
	KindUnionDecl:   "union-decl",
	KindEnumDecl:    "enum-decl",
	KindImport:      "import",
	KindComment:     "comment",
	KindError:       "error",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("nodekind(%d)", int(k))
}

// Node is the parse-tree sum type. Every variant owns its children
// exclusively; equality is structural and every node reports its source
// span. Concrete variants are the Node*-suffixed structs below.
type Node interface {
	Kind() NodeKind
	Span() lex.Span
	Children() []Node
	Validate() bool
	Equal(other Node) bool
	String() string
}

// childrenEqual compares two nodes' children: same count and pairwise
// recursively equal. It does not compare the nodes' own kinds; those and
// the variant-specific scalar fields are compared by the variant's own
// Equal override before delegating here.
func childrenEqual(a, b Node) bool {
	ac, bc := a.Children(), b.Children()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if ac[i] == nil || bc[i] == nil {
			if ac[i] != bc[i] {
				return false
			}
			continue
		}
		if !ac[i].Equal(bc[i]) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------
// Literal

type LiteralValueKind int

const (
	LitInt32 LiteralValueKind = iota
	LitInt64
	LitFloat32
	LitBool
	LitChar
	LitString
)

type NodeLiteral struct {
	SpanVal   lex.Span
	ValueKind LiteralValueKind
	Value     any
}

func (n *NodeLiteral) Kind() NodeKind    { return KindLiteral }
func (n *NodeLiteral) Span() lex.Span    { return n.SpanVal }
func (n *NodeLiteral) Children() []Node  { return nil }
func (n *NodeLiteral) Validate() bool    { return n != nil }
func (n *NodeLiteral) String() string    { return fmt.Sprintf("%v", n.Value) }
func (n *NodeLiteral) Equal(o Node) bool {
	other, ok := o.(*NodeLiteral)
	return ok && other.ValueKind == n.ValueKind && other.Value == n.Value
}

// ---------------------------------------------------------------------
// Identifier

type NodeIdentifier struct {
	SpanVal lex.Span
	Name    string
}

func (n *NodeIdentifier) Kind() NodeKind   { return KindIdentifier }
func (n *NodeIdentifier) Span() lex.Span   { return n.SpanVal }
func (n *NodeIdentifier) Children() []Node { return nil }
func (n *NodeIdentifier) Validate() bool   { return n.Name != "" }
func (n *NodeIdentifier) String() string   { return n.Name }
func (n *NodeIdentifier) Equal(o Node) bool {
	other, ok := o.(*NodeIdentifier)
	return ok && other.Name == n.Name
}

// ---------------------------------------------------------------------
// ConstDecl: "id = expr" inside a group/switch/lambda prelude

type NodeConstDecl struct {
	SpanVal lex.Span
	Name    string
	Value   Node
}

func (n *NodeConstDecl) Kind() NodeKind   { return KindConstDecl }
func (n *NodeConstDecl) Span() lex.Span   { return n.SpanVal }
func (n *NodeConstDecl) Children() []Node { return []Node{n.Value} }
func (n *NodeConstDecl) Validate() bool   { return n.Name != "" && n.Value != nil && n.Value.Validate() }
func (n *NodeConstDecl) String() string   { return fmt.Sprintf("%s=%s", n.Name, n.Value) }
func (n *NodeConstDecl) Equal(o Node) bool {
	other, ok := o.(*NodeConstDecl)
	return ok && other.Name == n.Name && childrenEqual(n, o)
}

// ---------------------------------------------------------------------
// Unary: prefix + - ! ~ ?

type NodeUnary struct {
	SpanVal  lex.Span
	Operator lex.Kind
	Operand  Node
}

func (n *NodeUnary) Kind() NodeKind   { return KindUnary }
func (n *NodeUnary) Span() lex.Span   { return n.SpanVal }
func (n *NodeUnary) Children() []Node { return []Node{n.Operand} }
func (n *NodeUnary) Validate() bool   { return n.Operand != nil && n.Operand.Validate() }
func (n *NodeUnary) String() string   { return fmt.Sprintf("%s%s", n.Operator, n.Operand) }
func (n *NodeUnary) Equal(o Node) bool {
	other, ok := o.(*NodeUnary)
	return ok && other.Operator == n.Operator && childrenEqual(n, o)
}

// ---------------------------------------------------------------------
// Binary

type NodeBinary struct {
	SpanVal  lex.Span
	Operator lex.Kind
	Left     Node
	Right    Node
}

func (n *NodeBinary) Kind() NodeKind   { return KindBinary }
func (n *NodeBinary) Span() lex.Span   { return n.SpanVal }
func (n *NodeBinary) Children() []Node { return []Node{n.Left, n.Right} }
func (n *NodeBinary) Validate() bool {
	return n.Left != nil && n.Right != nil && n.Left.Validate() && n.Right.Validate()
}
func (n *NodeBinary) String() string {
	return fmt.Sprintf("%s-%s-%s", n.Left, n.Operator, n.Right)
}
func (n *NodeBinary) Equal(o Node) bool {
	other, ok := o.(*NodeBinary)
	return ok && other.Operator == n.Operator && childrenEqual(n, o)
}

// ---------------------------------------------------------------------
// Conditional: cond ? then : else

type NodeConditional struct {
	SpanVal   lex.Span
	Condition Node
	Then      Node
	Else      Node
}

func (n *NodeConditional) Kind() NodeKind { return KindConditional }
func (n *NodeConditional) Span() lex.Span { return n.SpanVal }
func (n *NodeConditional) Children() []Node {
	return []Node{n.Condition, n.Then, n.Else}
}
func (n *NodeConditional) Validate() bool {
	return n.Condition != nil && n.Then != nil && n.Else != nil &&
		n.Condition.Validate() && n.Then.Validate() && n.Else.Validate()
}
func (n *NodeConditional) String() string {
	return fmt.Sprintf("%s?%s:%s", n.Condition, n.Then, n.Else)
}
func (n *NodeConditional) Equal(o Node) bool {
	_, ok := o.(*NodeConditional)
	return ok && childrenEqual(n, o)
}

// ---------------------------------------------------------------------
// Call: id[{T,U}](args) with an optional modifier set (impure / fork / lazy)

type CallModifier int

const (
	ModNone CallModifier = 0
	ModImpure CallModifier = 1 << iota
	ModFork
	ModLazy
)

type NodeCall struct {
	SpanVal    lex.Span
	Callee     Node
	TypeArgs   []ParsedType
	Args       []Node
	Modifiers  CallModifier
}

func (n *NodeCall) Kind() NodeKind { return KindCall }
func (n *NodeCall) Span() lex.Span { return n.SpanVal }
func (n *NodeCall) Children() []Node {
	children := make([]Node, 0, len(n.Args)+1)
	children = append(children, n.Callee)
	children = append(children, n.Args...)
	return children
}
func (n *NodeCall) Validate() bool {
	if n.Callee == nil || !n.Callee.Validate() {
		return false
	}
	for _, a := range n.Args {
		if a == nil || !a.Validate() {
			return false
		}
	}
	return true
}
func (n *NodeCall) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", n.Callee, strings.Join(args, ","))
}
func (n *NodeCall) Equal(o Node) bool {
	other, ok := o.(*NodeCall)
	if !ok || other.Modifiers != n.Modifiers || len(other.TypeArgs) != len(n.TypeArgs) {
		return false
	}
	for i := range n.TypeArgs {
		if !n.TypeArgs[i].Equal(other.TypeArgs[i]) {
			return false
		}
	}
	return childrenEqual(n, o)
}

// ---------------------------------------------------------------------
// Index: expr[index]

type NodeIndex struct {
	SpanVal lex.Span
	Target  Node
	Index   Node
}

func (n *NodeIndex) Kind() NodeKind   { return KindIndex }
func (n *NodeIndex) Span() lex.Span   { return n.SpanVal }
func (n *NodeIndex) Children() []Node { return []Node{n.Target, n.Index} }
func (n *NodeIndex) Validate() bool {
	return n.Target != nil && n.Index != nil && n.Target.Validate() && n.Index.Validate()
}
func (n *NodeIndex) String() string { return fmt.Sprintf("%s[%s]", n.Target, n.Index) }
func (n *NodeIndex) Equal(o Node) bool {
	_, ok := o.(*NodeIndex)
	return ok && childrenEqual(n, o)
}

// ---------------------------------------------------------------------
// Field: expr.name

type NodeField struct {
	SpanVal lex.Span
	Target  Node
	Name    string
}

func (n *NodeField) Kind() NodeKind   { return KindField }
func (n *NodeField) Span() lex.Span   { return n.SpanVal }
func (n *NodeField) Children() []Node { return []Node{n.Target} }
func (n *NodeField) Validate() bool   { return n.Target != nil && n.Target.Validate() && n.Name != "" }
func (n *NodeField) String() string   { return fmt.Sprintf("%s.%s", n.Target, n.Name) }
func (n *NodeField) Equal(o Node) bool {
	other, ok := o.(*NodeField)
	return ok && other.Name == n.Name && childrenEqual(n, o)
}

// ---------------------------------------------------------------------
// Paren: (expr)

type NodeParen struct {
	SpanVal lex.Span
	Inner   Node
}

func (n *NodeParen) Kind() NodeKind   { return KindParen }
func (n *NodeParen) Span() lex.Span   { return n.SpanVal }
func (n *NodeParen) Children() []Node { return []Node{n.Inner} }
func (n *NodeParen) Validate() bool   { return n.Inner != nil && n.Inner.Validate() }
func (n *NodeParen) String() string   { return fmt.Sprintf("(%s)", n.Inner) }
func (n *NodeParen) Equal(o Node) bool {
	_, ok := o.(*NodeParen)
	return ok && childrenEqual(n, o)
}

// ---------------------------------------------------------------------
// Group: N `;`-joined subexpressions

type NodeGroup struct {
	SpanVal      lex.Span
	Subexprs []Node
}

func (n *NodeGroup) Kind() NodeKind   { return KindGroup }
func (n *NodeGroup) Span() lex.Span   { return n.SpanVal }
func (n *NodeGroup) Children() []Node { return n.Subexprs }
func (n *NodeGroup) Validate() bool {
	if len(n.Subexprs) == 0 {
		return false
	}
	for _, s := range n.Subexprs {
		if s == nil || !s.Validate() {
			return false
		}
	}
	return true
}
func (n *NodeGroup) String() string {
	parts := make([]string, len(n.Subexprs))
	for i, s := range n.Subexprs {
		parts[i] = s.String()
	}
	return strings.Join(parts, ";")
}
func (n *NodeGroup) Equal(o Node) bool {
	_, ok := o.(*NodeGroup)
	return ok && childrenEqual(n, o)
}

// ---------------------------------------------------------------------
// AnonFunc: lambda [modifiers] (args) [-> type] body

type ArgDecl struct {
	Type ParsedType
	Name string
}

type NodeAnonFunc struct {
	SpanVal    lex.Span
	Modifiers  CallModifier
	Args       []ArgDecl
	RetType    *ParsedType
	Body       Node
}

func (n *NodeAnonFunc) Kind() NodeKind   { return KindAnonFunc }
func (n *NodeAnonFunc) Span() lex.Span   { return n.SpanVal }
func (n *NodeAnonFunc) Children() []Node { return []Node{n.Body} }
func (n *NodeAnonFunc) Validate() bool   { return n.Body != nil && n.Body.Validate() }
func (n *NodeAnonFunc) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = fmt.Sprintf("%s-%s", a.Type.ID.Payload, a.Name)
	}
	return fmt.Sprintf("lambda(%s)->%s", strings.Join(args, ","), n.Body)
}
func (n *NodeAnonFunc) Equal(o Node) bool {
	other, ok := o.(*NodeAnonFunc)
	return ok && other.Modifiers == n.Modifiers && len(other.Args) == len(n.Args) && childrenEqual(n, o)
}

// ---------------------------------------------------------------------
// IsAs: expr is Type / expr as Type

type NodeIsAs struct {
	SpanVal lex.Span
	IsTest  bool // true for `is`, false for `as`
	Operand Node
	Type    ParsedType
}

func (n *NodeIsAs) Kind() NodeKind   { return KindIsAs }
func (n *NodeIsAs) Span() lex.Span   { return n.SpanVal }
func (n *NodeIsAs) Children() []Node { return []Node{n.Operand} }
func (n *NodeIsAs) Validate() bool   { return n.Operand != nil && n.Operand.Validate() }
func (n *NodeIsAs) String() string {
	op := "is"
	if !n.IsTest {
		op = "as"
	}
	return fmt.Sprintf("%s-%s-%v", n.Operand, op, n.Type.ID.Payload)
}
func (n *NodeIsAs) Equal(o Node) bool {
	other, ok := o.(*NodeIsAs)
	return ok && other.IsTest == n.IsTest && n.Type.Equal(other.Type) && childrenEqual(n, o)
}

// ---------------------------------------------------------------------
// Switch: if cond -> then (if cond -> then)* [else -> expr]

type SwitchClause struct {
	Condition Node
	Result    Node
}

type NodeSwitch struct {
	SpanVal lex.Span
	Clauses []SwitchClause
	Else    Node // nil if absent
}

func (n *NodeSwitch) Kind() NodeKind { return KindSwitch }
func (n *NodeSwitch) Span() lex.Span { return n.SpanVal }
func (n *NodeSwitch) Children() []Node {
	children := make([]Node, 0, len(n.Clauses)*2+1)
	for _, c := range n.Clauses {
		children = append(children, c.Condition, c.Result)
	}
	if n.Else != nil {
		children = append(children, n.Else)
	}
	return children
}
func (n *NodeSwitch) Validate() bool {
	if len(n.Clauses) == 0 {
		return false
	}
	for _, c := range n.Clauses {
		if c.Condition == nil || c.Result == nil || !c.Condition.Validate() || !c.Result.Validate() {
			return false
		}
	}
	if n.Else != nil && !n.Else.Validate() {
		return false
	}
	return true
}
func (n *NodeSwitch) String() string {
	parts := make([]string, len(n.Clauses))
	for i, c := range n.Clauses {
		parts[i] = fmt.Sprintf("if-%s->%s", c.Condition, c.Result)
	}
	s := strings.Join(parts, " ")
	if n.Else != nil {
		s += fmt.Sprintf(" else->%s", n.Else)
	}
	return s
}
func (n *NodeSwitch) Equal(o Node) bool {
	other, ok := o.(*NodeSwitch)
	return ok && len(other.Clauses) == len(n.Clauses) && (n.Else == nil) == (other.Else == nil) && childrenEqual(n, o)
}

// ---------------------------------------------------------------------
// Intrinsic: intrinsic{name}[{T}]

type NodeIntrinsic struct {
	SpanVal  lex.Span
	Name     string
	TypeArgs []ParsedType
}

func (n *NodeIntrinsic) Kind() NodeKind   { return KindIntrinsic }
func (n *NodeIntrinsic) Span() lex.Span   { return n.SpanVal }
func (n *NodeIntrinsic) Children() []Node { return nil }
func (n *NodeIntrinsic) Validate() bool   { return n.Name != "" }
func (n *NodeIntrinsic) String() string   { return fmt.Sprintf("intrinsic{%s}", n.Name) }
func (n *NodeIntrinsic) Equal(o Node) bool {
	other, ok := o.(*NodeIntrinsic)
	return ok && other.Name == n.Name
}

// ---------------------------------------------------------------------
// ExecStmt: top-level side-effecting call

type NodeExecStmt struct {
	SpanVal lex.Span
	Call    *NodeCall
}

func (n *NodeExecStmt) Kind() NodeKind   { return KindExecStmt }
func (n *NodeExecStmt) Span() lex.Span   { return n.SpanVal }
func (n *NodeExecStmt) Children() []Node { return []Node{n.Call} }
func (n *NodeExecStmt) Validate() bool   { return n.Call != nil && n.Call.Validate() }
func (n *NodeExecStmt) String() string   { return n.Call.String() }
func (n *NodeExecStmt) Equal(o Node) bool {
	_, ok := o.(*NodeExecStmt)
	return ok && childrenEqual(n, o)
}

// ---------------------------------------------------------------------
// FuncDecl: fun id[{T,U}](args) [-> type] body

type NodeFuncDecl struct {
	SpanVal   lex.Span
	Name      string
	TypeSubs  []string
	Args      []ArgDecl
	RetType   *ParsedType
	Body      Node
}

func (n *NodeFuncDecl) Kind() NodeKind   { return KindFuncDecl }
func (n *NodeFuncDecl) Span() lex.Span   { return n.SpanVal }
func (n *NodeFuncDecl) Children() []Node { return []Node{n.Body} }
func (n *NodeFuncDecl) Validate() bool   { return n.Name != "" && n.Body != nil && n.Body.Validate() }
func (n *NodeFuncDecl) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = fmt.Sprintf("%v-%s", a.Type.ID.Payload, a.Name)
	}
	s := fmt.Sprintf("fun-%s(%s)", n.Name, strings.Join(args, ","))
	if n.RetType != nil {
		s += fmt.Sprintf("->%v", n.RetType.ID.Payload)
	}
	return s
}
func (n *NodeFuncDecl) Equal(o Node) bool {
	other, ok := o.(*NodeFuncDecl)
	return ok && other.Name == n.Name && len(other.Args) == len(n.Args) && childrenEqual(n, o)
}

// ---------------------------------------------------------------------
// StructDecl: struct id[{T}] = type id, ...

type StructField struct {
	Type ParsedType
	Name string
}

type NodeStructDecl struct {
	SpanVal  lex.Span
	Name     string
	TypeSubs []string
	Fields   []StructField
}

func (n *NodeStructDecl) Kind() NodeKind   { return KindStructDecl }
func (n *NodeStructDecl) Span() lex.Span   { return n.SpanVal }
func (n *NodeStructDecl) Children() []Node { return nil }
func (n *NodeStructDecl) Validate() bool   { return n.Name != "" }
func (n *NodeStructDecl) String() string   { return fmt.Sprintf("struct-%s", n.Name) }
func (n *NodeStructDecl) Equal(o Node) bool {
	other, ok := o.(*NodeStructDecl)
	return ok && other.Name == n.Name && len(other.Fields) == len(n.Fields)
}

// ---------------------------------------------------------------------
// UnionDecl: union id[{T}] = type, type, ...

type NodeUnionDecl struct {
	SpanVal  lex.Span
	Name     string
	TypeSubs []string
	Variants []ParsedType
}

func (n *NodeUnionDecl) Kind() NodeKind   { return KindUnionDecl }
func (n *NodeUnionDecl) Span() lex.Span   { return n.SpanVal }
func (n *NodeUnionDecl) Children() []Node { return nil }
func (n *NodeUnionDecl) Validate() bool   { return n.Name != "" && len(n.Variants) > 0 }
func (n *NodeUnionDecl) String() string   { return fmt.Sprintf("union-%s", n.Name) }
func (n *NodeUnionDecl) Equal(o Node) bool {
	other, ok := o.(*NodeUnionDecl)
	return ok && other.Name == n.Name && len(other.Variants) == len(n.Variants)
}

// ---------------------------------------------------------------------
// EnumDecl: enum id = ident [: [-]int], ...

type EnumEntry struct {
	Name  string
	Value *int64 // nil means "auto" (previous + 1, or 0 for the first entry)
}

type NodeEnumDecl struct {
	SpanVal lex.Span
	Name    string
	Entries []EnumEntry
}

func (n *NodeEnumDecl) Kind() NodeKind   { return KindEnumDecl }
func (n *NodeEnumDecl) Span() lex.Span   { return n.SpanVal }
func (n *NodeEnumDecl) Children() []Node { return nil }
func (n *NodeEnumDecl) Validate() bool   { return n.Name != "" && len(n.Entries) > 0 }
func (n *NodeEnumDecl) String() string   { return fmt.Sprintf("enum-%s", n.Name) }
func (n *NodeEnumDecl) Equal(o Node) bool {
	other, ok := o.(*NodeEnumDecl)
	return ok && other.Name == n.Name && len(other.Entries) == len(n.Entries)
}

// ---------------------------------------------------------------------
// Import: import "<path>"

type NodeImport struct {
	SpanVal lex.Span
	Path    string
}

func (n *NodeImport) Kind() NodeKind   { return KindImport }
func (n *NodeImport) Span() lex.Span   { return n.SpanVal }
func (n *NodeImport) Children() []Node { return nil }
func (n *NodeImport) Validate() bool   { return n.Path != "" }
func (n *NodeImport) String() string   { return fmt.Sprintf("import-%q", n.Path) }
func (n *NodeImport) Equal(o Node) bool {
	other, ok := o.(*NodeImport)
	return ok && other.Path == n.Path
}

// ---------------------------------------------------------------------
// Comment

type NodeComment struct {
	SpanVal lex.Span
	Text    string
}

func (n *NodeComment) Kind() NodeKind   { return KindComment }
func (n *NodeComment) Span() lex.Span   { return n.SpanVal }
func (n *NodeComment) Children() []Node { return nil }
func (n *NodeComment) Validate() bool   { return true }
func (n *NodeComment) String() string   { return "//" + n.Text }
func (n *NodeComment) Equal(o Node) bool {
	other, ok := o.(*NodeComment)
	return ok && other.Text == n.Text
}

// ---------------------------------------------------------------------
// Error: best-effort span + partial children, never thrown

type NodeError struct {
	SpanVal  lex.Span
	Message  string
	Tokens   []lex.Token
	Partial  []Node
}

func (n *NodeError) Kind() NodeKind   { return KindError }
func (n *NodeError) Span() lex.Span   { return n.SpanVal }
func (n *NodeError) Children() []Node { return n.Partial }
func (n *NodeError) Validate() bool   { return false }
func (n *NodeError) String() string   { return fmt.Sprintf("error(%s)", n.Message) }
func (n *NodeError) Equal(o Node) bool {
	other, ok := o.(*NodeError)
	return ok && other.Message == n.Message
}
