package repl

import (
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/molang/lang"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		cursor     int
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{"no function call", "speed", 5, "", 0, false},
		{"closed call", "add(1, 2)", 9, "", 0, false},
		{"simple function first arg", "add(", 4, "add", 0, true},
		{"simple function with first arg", "add(1", 5, "add", 0, true},
		{"simple function second arg", "add(1,", 6, "add", 1, true},
		{"simple function second arg with value", "add(1, 2", 8, "add", 1, true},
		{"dotted function", "math.clamp(", 11, "math.clamp", 0, true},
		{"dotted function third arg", "math.clamp(v.x, 0, ", 19, "math.clamp", 2, true},
		{"after operator", "1 + max(", 8, "max", 0, true},
		{"nested parens", "add(mul(2, 3),", 14, "add", 1, true},
		{"cursor inside nested call", "add(mul(2, 3), 4)", 8, "mul", 0, true},
		{"comma inside index", "f(a[1, 2], ", 11, "f", 1, true},
		{"string args", "concat('a', 'b', 'c'", 20, "concat", 2, true},
		{"grouping paren", "(1 + ", 5, "", 0, false},
		{"cursor past end", "sin(", 99, "sin", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := detectFunctionCall(tt.input, tt.cursor)

			if got.name != tt.wantName {
				t.Errorf("name = %q, want %q", got.name, tt.wantName)
			}

			if got.argIndex != tt.wantIndex {
				t.Errorf("argIndex = %d, want %d", got.argIndex, tt.wantIndex)
			}

			if got.inCall != tt.wantInCall {
				t.Errorf("inCall = %v, want %v", got.inCall, tt.wantInCall)
			}
		})
	}
}

func signatureEnv(t testing.TB) *lang.Env {
	t.Helper()

	env := lang.NewEnv()

	ident := func(args []lang.Value) (lang.Value, error) { return args[0], nil }

	for path, fn := range map[string]*lang.Function{
		"now":        lang.NewFunction("now", 0, ident),
		"add":        lang.NewFunction("add", 2, ident),
		"max":        lang.NewVariadic("max", 2, ident),
		"math.clamp": lang.NewFunction("clamp", 3, ident),
	} {
		if err := env.Define(path, fn); err != nil {
			t.Fatalf("Define(%q): %v", path, err)
		}
	}

	if err := env.Set("speed", lang.Number(3)); err != nil {
		t.Fatal(err)
	}

	return env
}

func TestGetSignature(t *testing.T) {
	env := signatureEnv(t)

	tests := []struct {
		name          string
		funcName      string
		wantSignature string
		wantParams    []string
	}{
		{"no params", "now", "now()", nil},
		{"fixed params", "add", "add(a, b)", []string{"a", "b"}},
		{"variadic", "max", "max(a, b, ...)", []string{"a", "b", "..."}},
		{"dotted path", "math.clamp", "math.clamp(a, b, c)", []string{"a", "b", "c"}},
		{"not a function", "speed", "", nil},
		{"unbound", "doesnotexist", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSig, gotParams := getSignature(env, tt.funcName)

			if gotSig != tt.wantSignature {
				t.Errorf("signature = %q, want %q", gotSig, tt.wantSignature)
			}

			if !slices.Equal(gotParams, tt.wantParams) {
				t.Errorf("params = %q, want %q", gotParams, tt.wantParams)
			}
		})
	}

	if sig, _ := getSignature(nil, "add"); sig != "" {
		t.Errorf("nil env signature = %q", sig)
	}
}

func TestRenderSignatureHint(t *testing.T) {
	tests := []struct {
		name       string
		signature  string
		params     []string
		currentArg int
		want       []string
	}{
		{"empty", "", nil, 0, nil},
		{"no params", "now()", nil, 0, []string{"now", "()"}},
		{"first param", "add(a, b)", []string{"a", "b"}, 0, []string{"add", "a", "b"}},
		{"second param", "add(a, b)", []string{"a", "b"}, 1, []string{"add", "a", "b"}},
		{"variadic tail", "max(a, b, ...)", []string{"a", "b", "..."}, 5, []string{"max", "..."}},
		{"malformed", "broken", nil, 0, []string{"broken"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := renderSignatureHint(tt.signature, tt.params, tt.currentArg)

			if tt.signature == "" && got != "" {
				t.Errorf("expected empty hint, got %q", got)
			}

			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("hint %q does not contain %q", got, w)
				}
			}
		})
	}
}
