package lang

import "slices"

// ErrInvalidTarget is returned by [Builder.Assign] when the target cannot be
// assigned to.
var ErrInvalidTarget = NewError("invalid assignment target")

// Builder provides a programmatic API for constructing expression trees
// without parsing source text. Nodes built this way report offset 0.
//
// Example:
//
//	b := lang.NewBuilder()
//	e := b.Infix(lang.OpAdd,
//	    b.Access(b.Ident("variable"), "x"),
//	    b.Number(1),
//	)
type Builder struct{}

// NewBuilder creates a new expression builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Number creates a numeric [*Literal].
func (b *Builder) Number(f float32) *Literal {
	return &Literal{value: Number(f)}
}

// String creates a string [*Literal].
func (b *Builder) String(s string) *Literal {
	return &Literal{value: String(s)}
}

// Bool creates the numeric [*Literal] 1 or 0.
func (b *Builder) Bool(v bool) *Literal {
	return &Literal{value: Bool(v)}
}

// Ident creates an [*Identifier].
func (b *Builder) Ident(name string) *Identifier {
	return &Identifier{name: name}
}

// Path creates an identifier followed by a chain of member accesses, e.g.
// Path("query", "position", "x").
func (b *Builder) Path(root string, members ...string) Expr {
	var e Expr = b.Ident(root)
	for _, m := range members {
		e = b.Access(e, m)
	}

	return e
}

// Access creates an [*Access].
func (b *Builder) Access(object Expr, property string) *Access {
	return &Access{object: object, property: property}
}

// Index creates an [*Index].
func (b *Builder) Index(object, index Expr) *Index {
	return &Index{object: object, index: index}
}

// Call creates a [*Call]. The argument slice is copied.
func (b *Builder) Call(callee Expr, args ...Expr) *Call {
	return &Call{callee: callee, args: slices.Clone(args)}
}

// Unary creates a [*Unary]. The operator must be [OpNot] or [OpNeg].
func (b *Builder) Unary(op Operator, operand Expr) *Unary {
	return &Unary{op: op, operand: operand}
}

// Infix creates an [*Infix].
func (b *Builder) Infix(op Operator, left, right Expr) *Infix {
	return &Infix{op: op, left: left, right: right}
}

// Cond creates a [*Conditional].
func (b *Builder) Cond(cond, then, els Expr) *Conditional {
	return &Conditional{cond: cond, then: then, els: els}
}

// Coalesce creates a [*Coalesce].
func (b *Builder) Coalesce(left, right Expr) *Coalesce {
	return &Coalesce{left: left, right: right}
}

// Assign creates an [*Assignment]. The target must be an [*Identifier],
// [*Access], or [*Index].
func (b *Builder) Assign(target, value Expr) (*Assignment, error) {
	if !isTarget(target) {
		return nil, ErrInvalidTarget
	}

	return &Assignment{target: target, value: value}, nil
}

// Sequence creates a [*Sequence]. The slice is copied.
func (b *Builder) Sequence(exprs ...Expr) *Sequence {
	return &Sequence{exprs: slices.Clone(exprs)}
}
