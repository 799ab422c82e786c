package lang

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/molang/log"
)

// Compiler turns an expression tree into a runnable artifact.
type Compiler interface {
	Compile(e Expr, name string) (Artifact, error)
}

// Artifact is a compiled expression. Artifacts are immutable and may be run
// concurrently against distinct environments.
type Artifact interface {
	Name() string
	Run(ctx context.Context, env *Env) (Value, error)
}

// SlotAllocator hands out scratch slot numbers for compiled programs. A
// single allocator may be shared by compilers on different goroutines.
type SlotAllocator struct {
	next atomic.Int64
}

// NewSlotAllocator returns an allocator starting at slot 0.
func NewSlotAllocator() *SlotAllocator {
	return &SlotAllocator{}
}

// Next returns a slot number not returned before by this allocator.
func (a *SlotAllocator) Next() int {
	return int(a.next.Add(1) - 1)
}

// Len returns the number of slots allocated so far.
func (a *SlotAllocator) Len() int {
	return int(a.next.Load())
}

// ExprCompiler lowers expression trees to expr-lang programs. The compiled
// programs call back into the evaluator's operations through a bridge
// environment, so they agree with [Evaluate] on every input.
type ExprCompiler struct {
	alloc  *SlotAllocator
	logger log.Logger
}

// CompilerOption configures an [ExprCompiler].
type CompilerOption func(*ExprCompiler)

// WithCompilerLogger sets the structured logger used while compiling.
func WithCompilerLogger(logger log.Logger) CompilerOption {
	return func(c *ExprCompiler) {
		c.logger = logger
	}
}

// NewExprCompiler returns a compiler drawing coalesce slots from alloc. A nil
// alloc gets a private allocator.
func NewExprCompiler(alloc *SlotAllocator, opts ...CompilerOption) *ExprCompiler {
	if alloc == nil {
		alloc = NewSlotAllocator()
	}

	c := &ExprCompiler{alloc: alloc}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compile implements [Compiler].
func (c *ExprCompiler) Compile(e Expr, name string) (Artifact, error) {
	if e == nil {
		return nil, ErrNilExpr
	}

	g := &generator{alloc: c.alloc}
	g.emit(e, false)

	source := g.buf.String()

	c.logger.Trace(
		"compile",
		slog.String("name", name),
		slog.Int("constants", len(g.consts)),
		slog.Int("source_length", len(source)),
	)

	program, err := expr.Compile(source, expr.Env(bridge{}))
	if err != nil {
		return nil, ErrCompile.Wrap(err).With(
			slog.String("name", name),
			slog.String("source", source),
		)
	}

	return &compiled{
		name:    name,
		source:  source,
		program: program,
		consts:  g.consts,
	}, nil
}

// compiled is the [Artifact] produced by [ExprCompiler].
type compiled struct {
	program *vm.Program
	name    string
	source  string
	consts  []Value
}

// Name implements [Artifact].
func (a *compiled) Name() string { return a.name }

// Source returns the generated expr-lang source, for diagnostics.
func (a *compiled) Source() string { return a.source }

// Run implements [Artifact]. It follows the same top-level rules as
// [Evaluate]: temp is cleared first and an undefined result becomes the
// env's default value.
func (a *compiled) Run(ctx context.Context, env *Env) (Value, error) {
	if env == nil {
		env = NewEnv()
	}

	env.temp.Clear()

	env.logger.TraceContext(ctx, "run start", slog.String("name", a.name))

	st := &runState{
		ev:     &evalContext{env: env},
		consts: a.consts,
		slots:  map[int]Value{},
	}

	out, err := vm.Run(a.program, bridge{st: st})

	switch {
	case st.err != nil:
		err = st.err

	case err != nil:
		err = ErrRun.Wrap(err).With(slog.String("name", a.name))
	}

	if err != nil {
		env.logger.TraceContext(ctx, "run failed", slog.Any("error", err))

		return Value{}, err
	}

	v, _ := out.(Value)
	v = st.ev.defined(v)

	env.logger.TraceContext(
		ctx,
		"run done",
		slog.String("name", a.name),
		slog.String("value", v.String()),
	)

	return v, nil
}

// runState is the mutable state of one program run. Once an error is
// recorded, every bridge operation becomes a no-op so that no further side
// effects occur.
type runState struct {
	ev     *evalContext
	slots  map[int]Value
	err    error
	consts []Value
}

func (st *runState) fail(err error) {
	if st.err == nil {
		st.err = err
	}
}

// result records err, if any, and returns v as an expr-lang value.
func (st *runState) result(v Value, err error) any {
	if err != nil {
		st.fail(err)

		return Value{}
	}

	return v
}

// lenient runs fn with missing bindings tolerated when on is set.
func (st *runState) lenient(on bool, fn func() (Value, error)) (Value, error) {
	if on {
		st.ev.lenient++
		defer func() { st.ev.lenient-- }()
	}

	return fn()
}

func val(x any) Value {
	v, _ := x.(Value)

	return v
}

// bridge is the expr-lang environment of compiled programs. Its exported
// methods are the only operations generated code calls.
type bridge struct {
	st *runState
}

func (b bridge) Const(i int) any {
	if b.st.err != nil {
		return Value{}
	}

	return b.st.consts[i]
}

func (b bridge) Ident(name string, pos int, lenient bool) any {
	if b.st.err != nil {
		return Value{}
	}

	return b.st.result(b.st.lenient(lenient, func() (Value, error) {
		return b.st.ev.ident(name, pos)
	}))
}

func (b bridge) Member(obj any, name string, pos int, lenient bool) any {
	if b.st.err != nil {
		return Value{}
	}

	return b.st.result(b.st.lenient(lenient, func() (Value, error) {
		return b.st.ev.member(val(obj), name, pos)
	}))
}

func (b bridge) Elem(obj, idx any, pos int, lenient bool) any {
	if b.st.err != nil {
		return Value{}
	}

	return b.st.result(b.st.lenient(lenient, func() (Value, error) {
		return b.st.ev.element(val(obj), val(idx), pos)
	}))
}

func (b bridge) Invoke(callee any, name string, pos int, args []any) any {
	if b.st.err != nil {
		return Value{}
	}

	vals := make([]Value, len(args))
	for i, a := range args {
		vals[i] = val(a)
	}

	return b.st.result(b.st.ev.invoke(val(callee), name, vals, pos))
}

func (b bridge) Unary(op int, x any, pos int) any {
	if b.st.err != nil {
		return Value{}
	}

	return b.st.result(b.st.ev.unary(Operator(op), val(x), pos))
}

func (b bridge) Binary(op int, l, r any, pos int) any {
	if b.st.err != nil {
		return Value{}
	}

	return b.st.result(b.st.ev.binary(Operator(op), val(l), val(r), pos))
}

func (b bridge) Truth(x any, pos int) bool {
	if b.st.err != nil {
		return false
	}

	t, err := b.st.ev.truth(val(x), pos)
	if err != nil {
		b.st.fail(err)
	}

	return t
}

func (b bridge) Bool(t bool) any { return Bool(t) }

// Keep stores x in a scratch slot and reports whether it is present, i.e.
// usable as the left side of ??. After an error it reports true so that the
// fallback is not evaluated.
func (b bridge) Keep(slot int, x any) bool {
	if b.st.err != nil {
		return true
	}

	v := val(x)
	b.st.slots[slot] = v

	return present(v)
}

func (b bridge) Kept(slot int) any { return b.st.slots[slot] }

func (b bridge) Assign(v any, name string, pos int) any {
	if b.st.err != nil {
		return Value{}
	}

	return b.st.result(b.st.ev.assignIdent(name, val(v), pos))
}

func (b bridge) SetMember(v, obj any, path, name string, pos int) any {
	if b.st.err != nil {
		return Value{}
	}

	return b.st.result(b.st.ev.assignMember(val(obj), path, name, val(v), pos))
}

func (b bridge) SetElem(v, obj, idx any, path string, pos int) any {
	if b.st.err != nil {
		return Value{}
	}

	return b.st.result(b.st.ev.assignElement(val(obj), path, val(idx), val(v), pos))
}

func (b bridge) Last(xs []any) any {
	if len(xs) == 0 {
		return Value{}
	}

	return xs[len(xs)-1]
}

// generator writes expr-lang source for a tree.
type generator struct {
	alloc  *SlotAllocator
	buf    strings.Builder
	consts []Value
}

func (g *generator) str(s string) { g.buf.WriteString(s) }

func (g *generator) quote(s string) { g.buf.WriteString(strconv.Quote(s)) }

func (g *generator) num(i int) { g.buf.WriteString(strconv.Itoa(i)) }

func (g *generator) flag(b bool) { g.buf.WriteString(strconv.FormatBool(b)) }

// emit writes the source for e. When lenient is set, missing bindings in e
// are tolerated, matching the left side of ??.
func (g *generator) emit(e Expr, lenient bool) {
	switch e := e.(type) {
	case *Literal:
		g.str("Const(")
		g.num(len(g.consts))
		g.str(")")

		g.consts = append(g.consts, e.value)

	case *Identifier:
		g.str("Ident(")
		g.quote(e.name)
		g.str(", ")
		g.num(e.pos)
		g.str(", ")
		g.flag(lenient)
		g.str(")")

	case *Access:
		g.str("Member(")
		g.emit(e.object, lenient)
		g.str(", ")
		g.quote(e.property)
		g.str(", ")
		g.num(e.pos)
		g.str(", ")
		g.flag(lenient)
		g.str(")")

	case *Index:
		g.str("Elem(")
		g.emit(e.object, lenient)
		g.str(", ")
		g.emit(e.index, lenient)
		g.str(", ")
		g.num(e.pos)
		g.str(", ")
		g.flag(lenient)
		g.str(")")

	case *Call:
		name := e.Name()
		if name == "" {
			name = Source(e.callee)
		}

		g.str("Invoke(")
		g.emit(e.callee, true)
		g.str(", ")
		g.quote(name)
		g.str(", ")
		g.num(e.pos)
		g.str(", [")
		g.list(e.args, lenient)
		g.str("])")

	case *Unary:
		g.str("Unary(")
		g.num(int(e.op))
		g.str(", ")
		g.emit(e.operand, lenient)
		g.str(", ")
		g.num(e.pos)
		g.str(")")

	case *Infix:
		g.emitInfix(e, lenient)

	case *Conditional:
		g.truth(e.cond, lenient)
		g.str(" ? (")
		g.emit(e.then, lenient)
		g.str(") : (")
		g.emit(e.els, lenient)
		g.str(")")

	case *Coalesce:
		slot := g.alloc.Next()

		g.str("(Keep(")
		g.num(slot)
		g.str(", ")
		g.emit(e.left, true)
		g.str(") ? Kept(")
		g.num(slot)
		g.str(") : (")
		g.emit(e.right, lenient)
		g.str("))")

	case *Assignment:
		g.emitAssignment(e, lenient)

	case *Sequence:
		g.str("Last([")
		g.list(e.exprs, lenient)
		g.str("])")
	}
}

func (g *generator) emitInfix(e *Infix, lenient bool) {
	switch e.op {
	case OpAnd, OpOr:
		join := " && "
		if e.op == OpOr {
			join = " || "
		}

		g.str("Bool(")
		g.truth(e.left, lenient)
		g.str(join)
		g.truth(e.right, lenient)
		g.str(")")

	default:
		g.str("Binary(")
		g.num(int(e.op))
		g.str(", ")
		g.emit(e.left, lenient)
		g.str(", ")
		g.emit(e.right, lenient)
		g.str(", ")
		g.num(e.pos)
		g.str(")")
	}
}

func (g *generator) emitAssignment(e *Assignment, lenient bool) {
	switch t := e.target.(type) {
	case *Identifier:
		g.str("Assign(")
		g.emit(e.value, lenient)
		g.str(", ")
		g.quote(t.name)
		g.str(", ")
		g.num(t.pos)
		g.str(")")

	case *Access:
		g.str("SetMember(")
		g.emit(e.value, lenient)
		g.str(", ")
		g.emit(t.object, true)
		g.str(", ")
		g.quote(pathOf(t.object))
		g.str(", ")
		g.quote(t.property)
		g.str(", ")
		g.num(t.pos)
		g.str(")")

	case *Index:
		g.str("SetElem(")
		g.emit(e.value, lenient)
		g.str(", ")
		g.emit(t.object, true)
		g.str(", ")
		g.emit(t.index, lenient)
		g.str(", ")
		g.quote(pathOf(t.object))
		g.str(", ")
		g.num(t.pos)
		g.str(")")
	}
}

func (g *generator) truth(e Expr, lenient bool) {
	g.str("Truth(")
	g.emit(e, lenient)
	g.str(", ")
	g.num(e.Pos())
	g.str(")")
}

func (g *generator) list(exprs []Expr, lenient bool) {
	for i, x := range exprs {
		if i > 0 {
			g.str(", ")
		}

		g.emit(x, lenient)
	}
}
