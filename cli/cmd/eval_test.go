package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/molang/lang"
)

func TestEvalRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "step.molang", "v.x = 2; v.x * q.scale")
	world := writeFile(t, dir, "world.yaml", strings.Join([]string{
		"gravity: 9.5",
		"pos: {x: 1, y: 2}",
		"variable:",
		"  hp: 3",
		"query:",
		"  scale: 5",
	}, "\n"))
	override := writeFile(t, dir, "override.json", `{"gravity": 1}`)
	aliases := writeFile(t, dir, "aliases.yaml", strings.Join([]string{
		"v: {hp: 4}",
		"Q: {scale: 2}",
		"variable: {mp: 1, hp: 0}",
		"Width: 3",
	}, "\n"))

	tests := []struct {
		name string
		eval Eval
		in   string
		want string
	}{
		{
			name: "args",
			eval: Eval{Expr: []string{"1", "+", "2 * 3"}},
			want: "7",
		},
		{
			name: "stdin",
			eval: Eval{},
			in:   "2 * 2",
			want: "4",
		},
		{
			name: "stdin file",
			eval: Eval{File: "-"},
			in:   "3 - 1",
			want: "2",
		},
		{
			name: "search path script",
			eval: Eval{File: "step.molang", Bindings: Bindings{Bind: []string{world}}},
			want: "10",
		},
		{
			name: "bindings",
			eval: Eval{Expr: []string{"v.hp + gravity"}, Bindings: Bindings{Bind: []string{world}}},
			want: "12.5",
		},
		{
			name: "later file overrides",
			eval: Eval{Expr: []string{"gravity"}, Bindings: Bindings{Bind: []string{world, override}}},
			want: "1",
		},
		{
			name: "duplicate file",
			eval: Eval{Expr: []string{"v.hp"}, Bindings: Bindings{Bind: []string{world, world}}},
			want: "3",
		},
		{
			name: "object result",
			eval: Eval{Expr: []string{"pos"}, Bindings: Bindings{Bind: []string{world}}},
			want: "{x: 1, y: 2}",
		},
		{
			name: "var number",
			eval: Eval{Expr: []string{"speed * 2"}, Bindings: Bindings{Var: []string{"speed=4"}}},
			want: "8",
		},
		{
			name: "var string",
			eval: Eval{Expr: []string{"name == 'steve'"}, Bindings: Bindings{Var: []string{"name=steve"}}},
			want: "1",
		},
		{
			name: "namespace aliases",
			eval: Eval{Expr: []string{"v.hp * q.scale + v.mp"}, Bindings: Bindings{Bind: []string{aliases}}},
			want: "9",
		},
		{
			name: "mixed-case bindings",
			eval: Eval{Expr: []string{"width * speed"}, Bindings: Bindings{Bind: []string{aliases}, Var: []string{"Speed=4"}}},
			want: "12",
		},
		{
			name: "var overrides file",
			eval: Eval{Expr: []string{"gravity"}, Bindings: Bindings{Bind: []string{world}, Var: []string{"gravity=2"}}},
			want: "2",
		},
		{
			name: "default",
			eval: Eval{Expr: []string{"missing"}, Bindings: Bindings{Default: 7}},
			want: "7",
		},
		{
			name: "compiled",
			eval: Eval{Expr: []string{"1 + 2 * 3"}, Compile: true},
			want: "7",
		},
		{
			name: "compiled with bindings",
			eval: Eval{Expr: []string{"x * x"}, Compile: true, Bindings: Bindings{Var: []string{"x=3"}}},
			want: "9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer

			e := tt.eval
			e.out = &out

			if tt.in != "" {
				e.in = strings.NewReader(tt.in)
			}

			ctx := WithSearchPath(t.Context(), []string{dir})

			if err := e.Run(ctx); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if got := strings.TrimSuffix(out.String(), "\n"); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}

}

func TestEvalRun_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	temp := writeFile(t, dir, "temp.yaml", "temp: {a: 1}")
	tempAlias := writeFile(t, dir, "talias.yaml", "t: {a: 1}")
	list := writeFile(t, dir, "list.yaml", "- 1\n- 2")
	badVar := writeFile(t, dir, "badvar.yaml", "variable: 3")

	tests := []struct {
		name  string
		eval  Eval
		check func(error) bool
	}{
		{
			name:  "strict missing",
			eval:  Eval{Expr: []string{"missing"}, Bindings: Bindings{Strict: true}},
			check: func(err error) bool { return lang.IsReason(err, lang.UnknownProperty) },
		},
		{
			name: "parse error",
			eval: Eval{Expr: []string{"1 +"}},
			check: func(err error) bool {
				var pe *lang.ParseError

				return errors.As(err, &pe)
			},
		},
		{
			name:  "temp binding",
			eval:  Eval{Expr: []string{"1"}, Bindings: Bindings{Bind: []string{temp}}},
			check: func(err error) bool { return errors.Is(err, ErrBindings) },
		},
		{
			name:  "temp alias binding",
			eval:  Eval{Expr: []string{"1"}, Bindings: Bindings{Bind: []string{tempAlias}}},
			check: func(err error) bool { return errors.Is(err, ErrBindings) },
		},
		{
			name:  "bindings not a map",
			eval:  Eval{Expr: []string{"1"}, Bindings: Bindings{Bind: []string{list}}},
			check: func(err error) bool { return errors.Is(err, ErrBindings) },
		},
		{
			name:  "variable not a map",
			eval:  Eval{Expr: []string{"1"}, Bindings: Bindings{Bind: []string{badVar}}},
			check: func(err error) bool { return errors.Is(err, ErrBindings) },
		},
		{
			name:  "missing bindings file",
			eval:  Eval{Expr: []string{"1"}, Bindings: Bindings{Bind: []string{"absent.yaml"}}},
			check: func(err error) bool { return errors.Is(err, ErrBindings) },
		},
		{
			name:  "malformed var",
			eval:  Eval{Expr: []string{"1"}, Bindings: Bindings{Var: []string{"novalue"}}},
			check: func(err error) bool { return errors.Is(err, ErrBindVar) },
		},
		{
			name:  "read-only var",
			eval:  Eval{Expr: []string{"1"}, Bindings: Bindings{Var: []string{"query=1"}}},
			check: func(err error) bool { return errors.Is(err, lang.ErrReadOnly) },
		},
		{
			name:  "missing script",
			eval:  Eval{File: "absent.molang"},
			check: func(err error) bool { return errors.Is(err, ErrOpenSource) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer

			e := tt.eval
			e.out = &out

			err := e.Run(WithSearchPath(t.Context(), []string{dir}))
			if err == nil {
				t.Fatalf("Run() succeeded with output %q", out.String())
			}

			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}

			if out.Len() != 0 {
				t.Errorf("unexpected output %q", out.String())
			}
		})
	}
}

func TestParseScalar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want lang.Value
	}{
		{"1.5", lang.Number(1.5)},
		{" 2 ", lang.Number(2)},
		{"true", lang.Bool(true)},
		{"FALSE", lang.Bool(false)},
		{"steve", lang.String("steve")},
		{"", lang.String("")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := parseScalar(tt.in); !got.Equal(tt.want) {
				t.Errorf("parseScalar(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
