package lang

import (
	"context"
	"io"
	"iter"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the variant of an [Expr].
type Kind int

const (
	// KindLiteral is a number or string constant.
	KindLiteral Kind = iota

	// KindIdentifier is a bare name.
	KindIdentifier

	// KindAccess is a member access: object.property.
	KindAccess

	// KindIndex is an element access: object[index].
	KindIndex

	// KindCall is a function call: callee(args...).
	KindCall

	// KindUnary is a prefix operation: !x or -x.
	KindUnary

	// KindInfix is a binary operation.
	KindInfix

	// KindConditional is a ternary: cond ? then : else.
	KindConditional

	// KindCoalesce is a null-coalescing operation: left ?? right.
	KindCoalesce

	// KindAssignment stores a value: target = value.
	KindAssignment

	// KindSequence is a list of expressions separated by semicolons.
	KindSequence
)

// String returns a string representation of the node kind.
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "Literal"

	case KindIdentifier:
		return "Identifier"

	case KindAccess:
		return "Access"

	case KindIndex:
		return "Index"

	case KindCall:
		return "Call"

	case KindUnary:
		return "Unary"

	case KindInfix:
		return "Infix"

	case KindConditional:
		return "Conditional"

	case KindCoalesce:
		return "Coalesce"

	case KindAssignment:
		return "Assignment"

	case KindSequence:
		return "Sequence"

	default:
		return "Unknown"
	}
}

// Operator identifies a unary or infix operation.
type Operator int

const (
	OpAdd Operator = iota + 1 // +
	OpSub                     // -
	OpMul                     // *
	OpDiv                     // /
	OpEq                      // ==
	OpNe                      // !=
	OpLt                      // <
	OpLe                      // <=
	OpGt                      // >
	OpGe                      // >=
	OpAnd                     // &&
	OpOr                      // ||
	OpNot                     // ! (unary)
	OpNeg                     // - (unary)
)

var operatorText = map[Operator]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpAnd: "&&", OpOr: "||", OpNot: "!", OpNeg: "-",
}

var infixOperators = map[string]Operator{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv,
	"==": OpEq, "!=": OpNe, "<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe,
	"&&": OpAnd, "||": OpOr,
}

// String returns the source spelling of the operator.
func (op Operator) String() string {
	if s, ok := operatorText[op]; ok {
		return s
	}

	return "Operator(" + strconv.Itoa(int(op)) + ")"
}

// IsUnary reports whether op is a prefix operator.
func (op Operator) IsUnary() bool { return op == OpNot || op == OpNeg }

// Precedence returns the binding strength of op; higher binds tighter.
func (op Operator) Precedence() int {
	switch op {
	case OpOr:
		return precOr
	case OpAnd:
		return precAnd
	case OpEq, OpNe:
		return precEquality
	case OpLt, OpLe, OpGt, OpGe:
		return precRelational
	case OpAdd, OpSub:
		return precAdditive
	case OpMul, OpDiv:
		return precMultiplicative
	case OpNot, OpNeg:
		return precUnary
	default:
		return 0
	}
}

// Binding strengths, lowest first.
const (
	precAssign = iota + 1
	precConditional
	precCoalesce
	precOr
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
	precPrimary
)

// Expr is a node of an immutable expression tree. The set of node types is
// closed; switch on [Expr.Kind] or the concrete type to inspect a tree.
type Expr interface {
	// Kind returns the node variant.
	Kind() Kind
	// Pos returns the byte offset in the source where the node begins.
	Pos() int

	expr()
}

// Literal is a constant number or string.
type Literal struct {
	value Value
	pos   int
}

// Identifier is a bare name such as "x" or "variable".
type Identifier struct {
	name string
	pos  int
}

// Access is a named member of an object.
type Access struct {
	object   Expr
	property string
	pos      int
}

// Index is an element of an object selected by a computed index.
type Index struct {
	object Expr
	index  Expr
	pos    int
}

// Call invokes a callee with arguments.
type Call struct {
	callee Expr
	args   []Expr
	pos    int
}

// Unary is a prefix operation.
type Unary struct {
	operand Expr
	op      Operator
	pos     int
}

// Infix is a binary arithmetic, comparison, or logical operation.
type Infix struct {
	left  Expr
	right Expr
	op    Operator
	pos   int
}

// Conditional selects one of two branches.
type Conditional struct {
	cond Expr
	then Expr
	els  Expr
	pos  int
}

// Coalesce yields left unless it is absent or NaN, otherwise right.
type Coalesce struct {
	left  Expr
	right Expr
	pos   int
}

// Assignment stores value into target.
type Assignment struct {
	target Expr
	value  Expr
	pos    int
}

// Sequence evaluates each expression in order and yields the last.
type Sequence struct {
	exprs []Expr
	pos   int
}

func (*Literal) Kind() Kind     { return KindLiteral }
func (*Identifier) Kind() Kind  { return KindIdentifier }
func (*Access) Kind() Kind      { return KindAccess }
func (*Index) Kind() Kind       { return KindIndex }
func (*Call) Kind() Kind        { return KindCall }
func (*Unary) Kind() Kind       { return KindUnary }
func (*Infix) Kind() Kind       { return KindInfix }
func (*Conditional) Kind() Kind { return KindConditional }
func (*Coalesce) Kind() Kind    { return KindCoalesce }
func (*Assignment) Kind() Kind  { return KindAssignment }
func (*Sequence) Kind() Kind    { return KindSequence }

func (e *Literal) Pos() int     { return e.pos }
func (e *Identifier) Pos() int  { return e.pos }
func (e *Access) Pos() int      { return e.pos }
func (e *Index) Pos() int       { return e.pos }
func (e *Call) Pos() int        { return e.pos }
func (e *Unary) Pos() int       { return e.pos }
func (e *Infix) Pos() int       { return e.pos }
func (e *Conditional) Pos() int { return e.pos }
func (e *Coalesce) Pos() int    { return e.pos }
func (e *Assignment) Pos() int  { return e.pos }
func (e *Sequence) Pos() int    { return e.pos }

func (*Literal) expr()     {}
func (*Identifier) expr()  {}
func (*Access) expr()      {}
func (*Index) expr()       {}
func (*Call) expr()        {}
func (*Unary) expr()       {}
func (*Infix) expr()       {}
func (*Conditional) expr() {}
func (*Coalesce) expr()    {}
func (*Assignment) expr()  {}
func (*Sequence) expr()    {}

// Value returns the constant.
func (e *Literal) Value() Value { return e.value }

// Name returns the identifier name.
func (e *Identifier) Name() string { return e.name }

// Object returns the expression whose member is accessed.
func (e *Access) Object() Expr { return e.object }

// Property returns the member name.
func (e *Access) Property() string { return e.property }

// Object returns the expression whose element is accessed.
func (e *Index) Object() Expr { return e.object }

// Index returns the index expression.
func (e *Index) Index() Expr { return e.index }

// Callee returns the expression naming the function.
func (e *Call) Callee() Expr { return e.callee }

// Args returns a copy of the argument expressions.
func (e *Call) Args() []Expr { return slices.Clone(e.args) }

// Name returns the callee spelled as a dotted path, or "" if the callee is
// not a plain identifier or member chain.
func (e *Call) Name() string { return pathOf(e.callee) }

// Op returns the operator.
func (e *Unary) Op() Operator { return e.op }

// Operand returns the operand.
func (e *Unary) Operand() Expr { return e.operand }

// Op returns the operator.
func (e *Infix) Op() Operator { return e.op }

// Left returns the left operand.
func (e *Infix) Left() Expr { return e.left }

// Right returns the right operand.
func (e *Infix) Right() Expr { return e.right }

// Cond returns the condition.
func (e *Conditional) Cond() Expr { return e.cond }

// Then returns the branch taken when the condition holds.
func (e *Conditional) Then() Expr { return e.then }

// Else returns the branch taken when the condition does not hold.
func (e *Conditional) Else() Expr { return e.els }

// Left returns the preferred operand.
func (e *Coalesce) Left() Expr { return e.left }

// Right returns the fallback operand.
func (e *Coalesce) Right() Expr { return e.right }

// Target returns the assignment target: an [*Identifier], [*Access], or
// [*Index].
func (e *Assignment) Target() Expr { return e.target }

// Value returns the assigned expression.
func (e *Assignment) Value() Expr { return e.value }

// Exprs returns a copy of the sequence members.
func (e *Sequence) Exprs() []Expr { return slices.Clone(e.exprs) }

// Len returns the number of sequence members.
func (e *Sequence) Len() int { return len(e.exprs) }

// pathOf renders identifier and member chains such as "math.sin".
func pathOf(e Expr) string {
	switch e := e.(type) {
	case *Identifier:
		return e.name

	case *Access:
		if p := pathOf(e.object); p != "" {
			return p + "." + e.property
		}
	}

	return ""
}

// isTarget reports whether e can be assigned to.
func isTarget(e Expr) bool {
	switch e.(type) {
	case *Identifier, *Access, *Index:
		return true

	default:
		return false
	}
}

// Children returns the direct subexpressions of e in evaluation order.
func Children(e Expr) []Expr {
	switch e := e.(type) {
	case *Access:
		return []Expr{e.object}

	case *Index:
		return []Expr{e.object, e.index}

	case *Call:
		return append([]Expr{e.callee}, e.args...)

	case *Unary:
		return []Expr{e.operand}

	case *Infix:
		return []Expr{e.left, e.right}

	case *Conditional:
		return []Expr{e.cond, e.then, e.els}

	case *Coalesce:
		return []Expr{e.left, e.right}

	case *Assignment:
		return []Expr{e.target, e.value}

	case *Sequence:
		return slices.Clone(e.exprs)

	default:
		return nil
	}
}

// All returns an iterator over e and all of its descendants in depth-first
// pre-order.
func All(e Expr) iter.Seq[Expr] {
	return func(yield func(Expr) bool) {
		walk(e, yield)
	}
}

func walk(e Expr, yield func(Expr) bool) bool {
	if e == nil {
		return true
	}

	if !yield(e) {
		return false
	}

	for _, c := range Children(e) {
		if !walk(c, yield) {
			return false
		}
	}

	return true
}

// Equal reports whether a and b are structurally identical trees. Source
// offsets are ignored.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if a.Kind() != b.Kind() {
		return false
	}

	switch a := a.(type) {
	case *Literal:
		bl, _ := b.(*Literal)

		return a.value.Equal(bl.value)

	case *Identifier:
		bi, _ := b.(*Identifier)

		return a.name == bi.name

	case *Access:
		ba, _ := b.(*Access)

		return a.property == ba.property && Equal(a.object, ba.object)

	case *Unary:
		bu, _ := b.(*Unary)

		return a.op == bu.op && Equal(a.operand, bu.operand)

	case *Infix:
		bi, _ := b.(*Infix)

		return a.op == bi.op && Equal(a.left, bi.left) && Equal(a.right, bi.right)
	}

	ac, bc := Children(a), Children(b)

	return slices.EqualFunc(ac, bc, Equal)
}

func writer(w io.Writer) func(eol string, item ...string) {
	return func(eol string, item ...string) {
		_, err := io.WriteString(w, strings.Join(item, ": ")+eol)
		if err != nil {
			panic(err)
		}
	}
}

// Print writes an indented debug representation of the tree rooted at e.
func Print(ctx context.Context, w io.Writer, e Expr) {
	printExpr(ctx, w, e, 0)
}

func printExpr(ctx context.Context, w io.Writer, e Expr, indent int) {
	prefix := strings.Repeat("  ", indent)
	put := writer(w)

	switch e := e.(type) {
	case nil:
		put("\n", prefix+"(nil)")

	case *Literal:
		if s, ok := e.value.Text(); ok {
			put("\n", prefix+"String", quoteString(s))
		} else {
			put("\n", prefix+"Number", e.value.String())
		}

	case *Identifier:
		put("\n", prefix+"Identifier", e.name)

	case *Access:
		put("\n", prefix+"Access", e.property)
		printExpr(ctx, w, e.object, indent+1)

	case *Unary:
		put("\n", prefix+"Unary", e.op.String())
		printExpr(ctx, w, e.operand, indent+1)

	case *Infix:
		put("\n", prefix+"Infix", e.op.String())
		printExpr(ctx, w, e.left, indent+1)
		printExpr(ctx, w, e.right, indent+1)

	case *Call:
		put("\n", prefix+"Call", strconv.Itoa(len(e.args))+" args")
		printExpr(ctx, w, e.callee, indent+1)

		for _, a := range e.args {
			printExpr(ctx, w, a, indent+1)
		}

	default:
		put("\n", prefix+e.Kind().String())

		for _, c := range Children(e) {
			printExpr(ctx, w, c, indent+1)
		}
	}
}
