package lang

import (
	"context"
	"log/slog"
	"strconv"
)

// ErrUnsupportedExpr is returned when evaluation meets a node of unknown kind.
var ErrUnsupportedExpr = NewError("unsupported expression")

// Evaluate computes the value of e against env. A nil env is replaced by a
// fresh [NewEnv]. The temp namespace is cleared first, and an undefined
// result is replaced by the env's default value.
//
// The context is used only for trace logging; evaluation is not cancelable.
func Evaluate(ctx context.Context, e Expr, env *Env) (Value, error) {
	if e == nil {
		return Value{}, ErrNilExpr
	}

	if env == nil {
		env = NewEnv()
	}

	env.temp.Clear()

	env.logger.TraceContext(
		ctx,
		"evaluate start",
		slog.String("kind", e.Kind().String()),
		slog.Bool("strict", env.strict),
	)

	ev := &evalContext{env: env}

	v, err := ev.eval(e)
	if err != nil {
		env.logger.TraceContext(ctx, "evaluate failed", slog.Any("error", err))

		return Value{}, err
	}

	v = ev.defined(v)

	env.logger.TraceContext(
		ctx,
		"evaluate done",
		slog.String("type", v.Type().String()),
		slog.String("value", v.String()),
	)

	return v, nil
}

// evalContext holds the state for recursive evaluation.
type evalContext struct {
	env *Env
	// lenient counts enclosing scopes (such as the left side of ??) where
	// missing bindings are never errors.
	lenient int
}

// eval recursively evaluates e.
func (ev *evalContext) eval(e Expr) (Value, error) {
	switch e := e.(type) {
	case *Literal:
		return e.value, nil

	case *Identifier:
		return ev.ident(e.name, e.pos)

	case *Access:
		obj, err := ev.eval(e.object)
		if err != nil {
			return Value{}, err
		}

		return ev.member(obj, e.property, e.pos)

	case *Index:
		obj, err := ev.eval(e.object)
		if err != nil {
			return Value{}, err
		}

		idx, err := ev.eval(e.index)
		if err != nil {
			return Value{}, err
		}

		return ev.element(obj, idx, e.pos)

	case *Call:
		return ev.evaluateCall(e)

	case *Unary:
		x, err := ev.eval(e.operand)
		if err != nil {
			return Value{}, err
		}

		return ev.unary(e.op, x, e.pos)

	case *Infix:
		return ev.evaluateInfix(e)

	case *Conditional:
		c, err := ev.eval(e.cond)
		if err != nil {
			return Value{}, err
		}

		ok, err := ev.truth(c, e.cond.Pos())
		if err != nil {
			return Value{}, err
		}

		if ok {
			return ev.eval(e.then)
		}

		return ev.eval(e.els)

	case *Coalesce:
		ev.lenient++
		left, err := ev.eval(e.left)
		ev.lenient--

		if err != nil {
			return Value{}, err
		}

		if present(left) {
			return left, nil
		}

		return ev.eval(e.right)

	case *Assignment:
		return ev.evaluateAssignment(e)

	case *Sequence:
		var last Value

		for _, x := range e.exprs {
			v, err := ev.eval(x)
			if err != nil {
				return Value{}, err
			}

			last = v
		}

		return last, nil

	default:
		return Value{}, ErrUnsupportedExpr.With(
			slog.String("kind", e.Kind().String()),
		)
	}
}

// evaluateCall evaluates the callee, then each argument left to right, then
// invokes the function.
func (ev *evalContext) evaluateCall(e *Call) (Value, error) {
	ev.lenient++
	callee, err := ev.eval(e.callee)
	ev.lenient--

	if err != nil {
		return Value{}, err
	}

	args := make([]Value, len(e.args))

	for i, a := range e.args {
		v, err := ev.eval(a)
		if err != nil {
			return Value{}, err
		}

		args[i] = v
	}

	name := e.Name()
	if name == "" {
		name = Source(e.callee)
	}

	return ev.invoke(callee, name, args, e.pos)
}

// evaluateInfix evaluates both operands of an arithmetic or comparison
// operator, or short-circuits a logical one.
func (ev *evalContext) evaluateInfix(e *Infix) (Value, error) {
	left, err := ev.eval(e.left)
	if err != nil {
		return Value{}, err
	}

	if e.op == OpAnd || e.op == OpOr {
		l, err := ev.truth(left, e.left.Pos())
		if err != nil {
			return Value{}, err
		}

		if l == (e.op == OpOr) {
			return Bool(l), nil
		}

		right, err := ev.eval(e.right)
		if err != nil {
			return Value{}, err
		}

		r, err := ev.truth(right, e.right.Pos())
		if err != nil {
			return Value{}, err
		}

		return Bool(r), nil
	}

	right, err := ev.eval(e.right)
	if err != nil {
		return Value{}, err
	}

	return ev.binary(e.op, left, right, e.pos)
}

// evaluateAssignment evaluates the value, then the target's subexpressions,
// then stores.
func (ev *evalContext) evaluateAssignment(e *Assignment) (Value, error) {
	v, err := ev.eval(e.value)
	if err != nil {
		return Value{}, err
	}

	switch t := e.target.(type) {
	case *Identifier:
		return ev.assignIdent(t.name, v, t.pos)

	case *Access:
		ev.lenient++
		obj, err := ev.eval(t.object)
		ev.lenient--

		if err != nil {
			return Value{}, err
		}

		return ev.assignMember(obj, pathOf(t.object), t.property, v, t.pos)

	case *Index:
		ev.lenient++
		obj, err := ev.eval(t.object)
		ev.lenient--

		if err != nil {
			return Value{}, err
		}

		idx, err := ev.eval(t.index)
		if err != nil {
			return Value{}, err
		}

		return ev.assignElement(obj, pathOf(t.object), idx, v, t.pos)

	default:
		return Value{}, ErrInvalidTarget.With(
			slog.String("kind", e.target.Kind().String()),
		)
	}
}

// present reports whether v is usable as the left side of ??.
func present(v Value) bool {
	return !v.IsUndefined() && !v.IsNaN()
}

// defined replaces an undefined value with the env default.
func (ev *evalContext) defined(v Value) Value {
	if v.IsUndefined() {
		return ev.env.def
	}

	return v
}

// missing applies the missing-binding policy to name.
func (ev *evalContext) missing(name string, pos int) (Value, error) {
	if ev.env.strict && ev.lenient == 0 {
		return Value{}, &ExpressionError{
			Reason: UnknownProperty,
			Name:   name,
			Offset: pos,
		}
	}

	return Value{}, nil
}

func (ev *evalContext) ident(name string, pos int) (Value, error) {
	if v, ok := ev.env.Lookup(name); ok {
		return v, nil
	}

	return ev.missing(name, pos)
}

func (ev *evalContext) member(obj Value, name string, pos int) (Value, error) {
	if o, ok := obj.Object(); ok {
		if v, ok := o.Property(name); ok {
			return v, nil
		}
	}

	return ev.missing(name, pos)
}

func (ev *evalContext) element(obj, idx Value, pos int) (Value, error) {
	if ix, ok := obj.ref.(Indexable); ok && obj.typ == TypeObject {
		if v, ok := ix.Element(idx); ok {
			return v, nil
		}
	}

	return ev.missing("["+idx.String()+"]", pos)
}

func (ev *evalContext) invoke(
	callee Value,
	name string,
	args []Value,
	pos int,
) (Value, error) {
	fn, ok := callee.Function()
	if !ok {
		return Value{}, &FunctionError{
			Name:   name,
			Offset: pos,
			Err: &ExpressionError{
				Reason: UnknownFunction,
				Name:   name,
				Offset: pos,
			},
		}
	}

	if !fn.Accepts(len(args)) {
		return Value{}, &FunctionError{
			Name:   fn.Name(),
			Offset: pos,
			Err: &ExpressionError{
				Reason: WrongArity,
				Name:   fn.Name(),
				Detail: "want " + fn.arityDetail() + " arguments, got " +
					strconv.Itoa(len(args)),
				Offset: pos,
			},
		}
	}

	for i, a := range args {
		args[i] = ev.defined(a)
	}

	v, err := fn.call(args)
	if err != nil {
		return Value{}, &FunctionError{Name: fn.Name(), Offset: pos, Err: err}
	}

	return v, nil
}

// number coerces v to a number. Undefined values take the env default.
func (ev *evalContext) number(v Value, pos int) (float32, error) {
	v = ev.defined(v)

	if f, ok := v.Float(); ok {
		return f, nil
	}

	return 0, &ExpressionError{
		Reason: TypeCoercionFailure,
		Detail: "cannot use " + v.Type().String() + " as Number",
		Offset: pos,
	}
}

// truth coerces v to a condition: any non-zero number is true.
func (ev *evalContext) truth(v Value, pos int) (bool, error) {
	f, err := ev.number(v, pos)

	return f != 0, err
}

func (ev *evalContext) unary(op Operator, x Value, pos int) (Value, error) {
	switch op {
	case OpNot:
		t, err := ev.truth(x, pos)
		if err != nil {
			return Value{}, err
		}

		return Bool(!t), nil

	case OpNeg:
		f, err := ev.number(x, pos)
		if err != nil {
			return Value{}, err
		}

		return Number(-f), nil

	default:
		return Value{}, ErrUnsupportedExpr.With(slog.String("op", op.String()))
	}
}

// binary applies an arithmetic or comparison operator to evaluated operands.
func (ev *evalContext) binary(op Operator, l, r Value, pos int) (Value, error) {
	l, r = ev.defined(l), ev.defined(r)

	switch op {
	case OpEq:
		eq, err := ev.equal(l, r, pos)

		return Bool(eq), err

	case OpNe:
		eq, err := ev.equal(l, r, pos)

		return Bool(!eq), err

	}

	a, err := ev.number(l, pos)
	if err != nil {
		return Value{}, err
	}

	b, err := ev.number(r, pos)
	if err != nil {
		return Value{}, err
	}

	switch op {
	case OpAdd:
		return Number(a + b), nil

	case OpSub:
		return Number(a - b), nil

	case OpMul:
		return Number(a * b), nil

	case OpDiv:
		if b == 0 {
			return Number(0), nil
		}

		return Number(a / b), nil

	case OpLt:
		return Bool(a < b), nil

	case OpLe:
		return Bool(a <= b), nil

	case OpGt:
		return Bool(a > b), nil

	case OpGe:
		return Bool(a >= b), nil

	default:
		return Value{}, ErrUnsupportedExpr.With(slog.String("op", op.String()))
	}
}

// equal compares operands: strings by content, a string and a non-string are
// unequal, objects and functions by identity, and everything else
// numerically.
func (ev *evalContext) equal(l, r Value, pos int) (bool, error) {
	switch {
	case l.typ == TypeString || r.typ == TypeString:
		return l.typ == r.typ && l.str == r.str, nil

	case l.typ == TypeObject || l.typ == TypeFunction ||
		r.typ == TypeObject || r.typ == TypeFunction:
		return l.Equal(r), nil
	}

	a, err := ev.number(l, pos)
	if err != nil {
		return false, err
	}

	b, err := ev.number(r, pos)

	return a == b, err
}

func (ev *evalContext) assignIdent(name string, v Value, pos int) (Value, error) {
	if IsNamespace(name) {
		return Value{}, &ExpressionError{Reason: ReadOnly, Name: name, Offset: pos}
	}

	v = ev.defined(v)
	ev.env.globals.SetProperty(name, v)

	return v, nil
}

func (ev *evalContext) assignMember(
	obj Value,
	objName, name string,
	v Value,
	pos int,
) (Value, error) {
	if obj.IsUndefined() {
		return Value{}, &ExpressionError{
			Reason: UnknownProperty,
			Name:   objName,
			Offset: pos,
		}
	}

	v = ev.defined(v)

	mo, ok := obj.ref.(MutableObject)
	if !ok || obj.typ != TypeObject || !mo.SetProperty(name, v) {
		return Value{}, &ExpressionError{Reason: ReadOnly, Name: name, Offset: pos}
	}

	return v, nil
}

func (ev *evalContext) assignElement(
	obj Value,
	objName string,
	idx, v Value,
	pos int,
) (Value, error) {
	if obj.IsUndefined() {
		return Value{}, &ExpressionError{
			Reason: UnknownProperty,
			Name:   objName,
			Offset: pos,
		}
	}

	v = ev.defined(v)

	mi, ok := obj.ref.(MutableIndexable)
	if !ok || obj.typ != TypeObject || !mi.SetElement(idx, v) {
		return Value{}, &ExpressionError{
			Reason: ReadOnly,
			Name:   objName + "[" + idx.String() + "]",
			Offset: pos,
		}
	}

	return v, nil
}
