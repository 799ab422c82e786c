package lang

import (
	"errors"
	"math"
	"testing"
)

// testEnv returns an environment with a few bindings and host functions.
func testEnv(opts ...EnvOption) *Env {
	env := NewEnv(opts...)

	_ = env.Set("b", Number(5))
	_ = env.Set("name", String("steve"))
	_ = env.Set("nan", Number(float32(math.NaN())))
	_ = env.Set("list", ObjectValue(List{Number(10), Number(20), Number(30)}))
	_ = env.Set("obj", ObjectValue(Map{"x": Number(7), "1": String("one")}))
	_ = env.Define("math.add", NewFunction("add", 2, func(args []Value) (Value, error) {
		a, _ := args[0].Float()
		b, _ := args[1].Float()

		return Number(a + b), nil
	}))
	_ = env.Define("math.sum", NewVariadic("sum", 0, func(args []Value) (Value, error) {
		var s float32

		for _, a := range args {
			f, _ := a.Float()
			s += f
		}

		return Number(s), nil
	}))
	_ = env.Define("fail", NewFunction("fail", 0, func([]Value) (Value, error) {
		return Value{}, errors.New("host failure")
	}))

	return env
}

func TestEvaluate_Values(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Value
	}{
		{"1+2", Number(3)},
		{"10/0", Number(0)},
		{"0/0", Number(0)},
		{"7 - 2 * 3", Number(1)},
		{"(7 - 2) * 3", Number(15)},
		{"9 / 2", Number(4.5)},
		{"-b", Number(-5)},
		{"--b", Number(5)},
		{"1==1", Number(1)},
		{"1==2", Number(0)},
		{"1!=2", Number(1)},
		{"2 < 3", Number(1)},
		{"3 <= 3", Number(1)},
		{"2 > 3", Number(0)},
		{"3 >= 4", Number(0)},
		{"!0", Number(1)},
		{"!5", Number(0)},
		{"true && false", Number(0)},
		{"true || false", Number(1)},
		{"2 && 3", Number(1)},
		{"0 || 0", Number(0)},
		{"1 ? 10 : 20", Number(10)},
		{"0 ? 10 : 20", Number(20)},
		{"b > 4 ? 'big' : 'small'", String("big")},
		{"'abc'", String("abc")},
		{"name == 'steve'", Number(1)},
		{"name != 'alex'", Number(1)},
		{"name == 5", Number(0)},
		{"'5' == 5", Number(0)},
		{"name != 5", Number(1)},
		{"missing", Number(0)},
		{"missing + 1", Number(1)},
		{"missing.deeper.still", Number(0)},
		{"a ?? b", Number(5)},
		{"b ?? 9", Number(5)},
		{"nan ?? 4", Number(4)},
		{"obj.x ?? 4", Number(7)},
		{"obj.y ?? 4", Number(4)},
		{"list[1]", Number(20)},
		{"list[2.9]", Number(30)},
		{"list[3]", Number(0)},
		{"list[-1]", Number(0)},
		{"list.length", Number(3)},
		{"obj['x']", Number(7)},
		{"obj[1]", String("one")},
		{"math.add(2, 3)", Number(5)},
		{"math.sum()", Number(0)},
		{"math.sum(1, 2, 3, 4)", Number(10)},
		{"math.add(missing, 1)", Number(1)},
		{"x = 3; x + 1", Number(4)},
		{"v.speed = 2; v.speed * 3", Number(6)},
		{"t.a = 1; temp.a + 1", Number(2)},
		{"(1; 2; 3)", Number(3)},
		{"q.anything", Number(0)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := Eval(t.Context(), tt.input, testEnv())
			if err != nil {
				t.Fatalf("evaluate error: %v", err)
			}

			if !got.Equal(tt.want) {
				t.Errorf("Eval(%q) = %v (%s), want %v (%s)",
					tt.input, got, got.Type(), tt.want, tt.want.Type())
			}
		})
	}
}

func TestEvaluate_Assignment(t *testing.T) {
	t.Parallel()

	env := NewEnv()

	v, err := Eval(t.Context(), "x = 3; x + 1", env)
	if err != nil {
		t.Fatal(err)
	}

	if f, _ := v.Float(); f != 4 {
		t.Errorf("result: got %v, want 4", v)
	}

	x, ok := env.Lookup("x")
	if !ok || !x.Equal(Number(3)) {
		t.Errorf("env x: got %v (%v), want 3", x, ok)
	}
}

func TestEvaluate_AssignUndefinedStoresDefault(t *testing.T) {
	t.Parallel()

	env := NewEnv(WithDefault(-1))

	if _, err := Eval(t.Context(), "v.a = missing", env); err != nil {
		t.Fatal(err)
	}

	a, _ := env.Get("variable.a")
	if !a.Equal(Number(-1)) {
		t.Errorf("got %v, want -1", a)
	}
}

func TestEvaluate_IndependentEnvs(t *testing.T) {
	t.Parallel()

	e := MustParse("a * 2")

	env1, env2 := NewEnv(), NewEnv()
	_ = env1.Set("a", Number(1))
	_ = env2.Set("a", Number(10))

	v1, err := Evaluate(t.Context(), e, env1)
	if err != nil {
		t.Fatal(err)
	}

	v2, err := Evaluate(t.Context(), e, env2)
	if err != nil {
		t.Fatal(err)
	}

	if !v1.Equal(Number(2)) || !v2.Equal(Number(20)) {
		t.Errorf("got %v and %v, want 2 and 20", v1, v2)
	}
}

func TestEvaluate_Repeatable(t *testing.T) {
	t.Parallel()

	e := MustParse("obj.x * list[0] + math.add(b, 1)")
	env := testEnv()

	first, err := Evaluate(t.Context(), e, env)
	if err != nil {
		t.Fatal(err)
	}

	second, err := Evaluate(t.Context(), e, env)
	if err != nil {
		t.Fatal(err)
	}

	if !first.Equal(second) {
		t.Errorf("got %v then %v", first, second)
	}
}

func TestEvaluate_NilEnv(t *testing.T) {
	t.Parallel()

	v, err := Evaluate(t.Context(), MustParse("unbound + 2"), nil)
	if err != nil {
		t.Fatal(err)
	}

	if !v.Equal(Number(2)) {
		t.Errorf("got %v, want 2", v)
	}

	if _, err := Evaluate(t.Context(), nil, nil); !errors.Is(err, ErrNilExpr) {
		t.Errorf("nil expression: got %v, want ErrNilExpr", err)
	}
}

func TestEvaluate_Strict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		name  string
	}{
		{"missing", "missing"},
		{"obj.y", "y"},
		{"missing.y", "missing"},
		{"list[5]", "[5]"},
		{"1 + v.nothing", "nothing"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			lenient, err := Eval(t.Context(), tt.input, testEnv())
			if err != nil {
				t.Fatalf("lenient: %v", err)
			}

			if f, ok := lenient.Float(); !ok || (f != 0 && f != 1) {
				t.Errorf("lenient: got %v, want default-derived number", lenient)
			}

			_, err = Eval(t.Context(), tt.input, testEnv(WithStrict(true)))

			var ee *ExpressionError
			if !errors.As(err, &ee) {
				t.Fatalf("strict: expected *ExpressionError, got %T: %v", err, err)
			}

			if ee.Reason != UnknownProperty || ee.Name != tt.name {
				t.Errorf("strict: got %s %q, want %s %q",
					ee.Reason, ee.Name, UnknownProperty, tt.name)
			}
		})
	}
}

func TestEvaluate_StrictCoalesce(t *testing.T) {
	t.Parallel()

	env := testEnv(WithStrict(true))

	tests := []struct {
		input string
		want  float32
	}{
		{"a ?? b", 5},
		{"obj.y ?? 2", 2},
		{"missing.deep.path ?? 3", 3},
		{"list[9] ?? 4", 4},
		{"math.add(gone, 1) ?? 6", 1},
	}

	for _, tt := range tests {
		v, err := Eval(t.Context(), tt.input, env)
		if err != nil {
			t.Errorf("%s: %v", tt.input, err)

			continue
		}

		if !v.Equal(Number(tt.want)) {
			t.Errorf("%s: got %v, want %v", tt.input, v, tt.want)
		}
	}

	// The right side is not lenient.
	if _, err := Eval(t.Context(), "a ?? c", env); !IsReason(err, UnknownProperty) {
		t.Errorf("a ?? c: got %v, want UnknownProperty", err)
	}
}

func TestEvaluate_Default(t *testing.T) {
	t.Parallel()

	env := NewEnv(WithDefault(7))

	v, err := Eval(t.Context(), "missing", env)
	if err != nil {
		t.Fatal(err)
	}

	if !v.Equal(Number(7)) {
		t.Errorf("got %v, want 7", v)
	}

	// Coalesce tests presence, not the default.
	v, err = Eval(t.Context(), "missing ?? 1", env)
	if err != nil {
		t.Fatal(err)
	}

	if !v.Equal(Number(1)) {
		t.Errorf("coalesce: got %v, want 1", v)
	}
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		touched bool
	}{
		{"0 && (v.hit = 1)", false},
		{"1 || (v.hit = 1)", false},
		{"1 && (v.hit = 1)", true},
		{"0 || (v.hit = 1)", true},
		{"1 ? 2 : (v.hit = 1)", false},
		{"0 ? (v.hit = 1) : 2", false},
		{"b ?? (v.hit = 1)", false},
		{"a ?? (v.hit = 1)", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			env := testEnv()

			if _, err := Eval(t.Context(), tt.input, env); err != nil {
				t.Fatal(err)
			}

			_, touched := env.Get("variable.hit")
			if touched != tt.touched {
				t.Errorf("right side evaluated = %v, want %v", touched, tt.touched)
			}
		})
	}
}

func TestEvaluate_TempAndVariableLifetimes(t *testing.T) {
	t.Parallel()

	env := NewEnv()

	if _, err := Eval(t.Context(), "t.x = 1; v.y = 2", env); err != nil {
		t.Fatal(err)
	}

	if env.Temps().Len() != 1 {
		t.Errorf("temp after first run: got %d members, want 1", env.Temps().Len())
	}

	v, err := Eval(t.Context(), "t.x ?? 100 + v.y", env)
	if err != nil {
		t.Fatal(err)
	}

	// t.x was cleared, so the coalesce falls through.
	if !v.Equal(Number(102)) {
		t.Errorf("second run: got %v, want 102", v)
	}

	if y, _ := env.Get("v.y"); !y.Equal(Number(2)) {
		t.Errorf("variable.y: got %v, want 2", y)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		reason Reason
		fnErr  bool
	}{
		{"string arithmetic", "name + 1", TypeCoercionFailure, false},
		{"string relational", "'a' < 'b'", TypeCoercionFailure, false},
		{"object arithmetic", "obj * 2", TypeCoercionFailure, false},
		{"string negation", "-name", TypeCoercionFailure, false},
		{"string condition", "name ? 1 : 2", TypeCoercionFailure, false},
		{"unknown function", "nope(1)", UnknownFunction, true},
		{"not a function", "b(1)", UnknownFunction, true},
		{"wrong arity", "math.add(1)", WrongArity, true},
		{"too many", "math.add(1, 2, 3)", WrongArity, true},
		{"assign namespace", "variable = 1", ReadOnly, false},
		{"assign alias", "q = 1", ReadOnly, false},
		{"assign query", "q.x = 1", ReadOnly, false},
		{"assign number member", "b.x = 1", ReadOnly, false},
		{"assign undefined object", "nothing.x = 1", UnknownProperty, false},
		{"assign list out of range", "list[7] = 1", ReadOnly, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := Eval(t.Context(), tt.input, testEnv())
			if err == nil {
				t.Fatalf("expected error, got %v", v)
			}

			if !IsReason(err, tt.reason) {
				t.Errorf("got %v, want reason %s", err, tt.reason)
			}

			var fe *FunctionError
			if errors.As(err, &fe) != tt.fnErr {
				t.Errorf("FunctionError = %v, want %v (%v)", !tt.fnErr, tt.fnErr, err)
			}
		})
	}
}

func TestEvaluate_HostError(t *testing.T) {
	t.Parallel()

	_, err := Eval(t.Context(), "1 + fail()", testEnv())

	var fe *FunctionError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FunctionError, got %T: %v", err, err)
	}

	if fe.Name != "fail" || fe.Offset != 4 {
		t.Errorf("got name=%q offset=%d, want fail at 4", fe.Name, fe.Offset)
	}

	if fe.Err == nil || fe.Err.Error() != "host failure" {
		t.Errorf("cause: got %v", fe.Err)
	}
}

func TestEvaluate_NamespaceCreation(t *testing.T) {
	t.Parallel()

	env := NewEnv(WithNamespaceCreation(false))
	_ = env.Set("variable.known", Number(1))

	if _, err := Eval(t.Context(), "v.known = 5", env); err != nil {
		t.Errorf("existing member: %v", err)
	}

	if _, err := Eval(t.Context(), "v.unknown = 5", env); !IsReason(err, ReadOnly) {
		t.Errorf("new member: got %v, want ReadOnly", err)
	}
}

func TestEvaluate_Receiver(t *testing.T) {
	t.Parallel()

	env := NewEnv(WithReceiver(Map{"health": Number(20), "is_baby": Bool(true)}))

	v, err := Eval(t.Context(), "query.is_baby ? q.health / 2 : q.health", env)
	if err != nil {
		t.Fatal(err)
	}

	if !v.Equal(Number(10)) {
		t.Errorf("got %v, want 10", v)
	}
}

func TestEvaluate_Resolver(t *testing.T) {
	t.Parallel()

	var asked []string

	pi := float32(3.14)

	env := NewEnv(WithResolver(func(name string) (Value, bool) {
		asked = append(asked, name)
		if name == "pi" {
			return Number(pi), true
		}

		return Value{}, false
	}))
	_ = env.Set("bound", Number(1))

	v, err := Eval(t.Context(), "bound + pi + other", env)
	if err != nil {
		t.Fatal(err)
	}

	if !v.Equal(Number(1 + pi)) {
		t.Errorf("got %v, want 4.14", v)
	}

	if len(asked) != 2 || asked[0] != "pi" || asked[1] != "other" {
		t.Errorf("resolver consulted for %v, want [pi other]", asked)
	}
}

func TestEvaluate_ListAssignment(t *testing.T) {
	t.Parallel()

	env := testEnv()

	if _, err := Eval(t.Context(), "list[0] = list[1] + 1", env); err != nil {
		t.Fatal(err)
	}

	v, _ := env.Get("list")
	l, _ := v.Object()

	if got, _ := l.(List).Element(Number(0)); !got.Equal(Number(21)) {
		t.Errorf("list[0]: got %v, want 21", got)
	}
}

func TestEvaluate_MixedCaseBindings(t *testing.T) {
	t.Parallel()

	setup := func(strict bool) *Env {
		env := NewEnv(
			WithStrict(strict),
			WithReceiver(Map{"IsOnGround": Number(1)}),
		)

		_ = env.Set("Speed", Number(3))
		_ = env.Set("obj", ObjectValue(Map{"Width": Number(7)}))
		_ = env.Set("Variable.Health", Number(20))
		_ = env.Define("Math.Twice", NewFunction("twice", 1,
			func(args []Value) (Value, error) {
				f, _ := args[0].Float()

				return Number(2 * f), nil
			}))

		return env
	}

	tests := []struct {
		src  string
		want float32
	}{
		{"Speed", 3},
		{"speed", 3},
		{"obj.Width", 7},
		{"Speed ?? 9", 3},
		{"v.health", 20},
		{"query.isOnGround", 1},
		{"math.twice(Speed)", 6},
	}

	for _, strict := range []bool{false, true} {
		for _, tt := range tests {
			v, err := Eval(t.Context(), tt.src, setup(strict))
			if err != nil {
				t.Errorf("strict=%v %q: %v", strict, tt.src, err)

				continue
			}

			if !v.Equal(Number(tt.want)) {
				t.Errorf("strict=%v %q = %v, want %v", strict, tt.src, v, tt.want)
			}
		}
	}
}

func TestEvaluate_MixedCaseAssignment(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	_ = env.Set("Speed", Number(3))
	_ = env.Set("v.Health", Number(20))

	if _, err := Eval(t.Context(), "Speed = 4; v.health = 5", env); err != nil {
		t.Fatal(err)
	}

	if v, ok := env.globals["Speed"]; !ok || !v.Equal(Number(4)) || len(env.globals) != 1 {
		t.Errorf("globals = %v, want only Speed = 4", env.globals)
	}

	if env.Variables().Len() != 1 {
		t.Errorf("variable namespace has %d members, want 1", env.Variables().Len())
	}

	if v, _ := env.Get("variable.Health"); !v.Equal(Number(5)) {
		t.Errorf("variable.Health = %v, want 5", v)
	}
}
