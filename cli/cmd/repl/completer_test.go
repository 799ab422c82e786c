package repl

import (
	"slices"
	"testing"

	"github.com/ardnew/molang/lang"
)

func TestWordBounds_Operators(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "bar.baz", 7, "baz", 4, 7},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_minus", "a-fo", 4, "fo", 2, 4},
		{"after_paren", "double(fo", 9, "fo", 7, 9},
		{"after_comma", "add(a, fo", 9, "fo", 7, 9},
		{"in_ternary", "x ? fo", 6, "fo", 4, 6},
		{"after_coalesce", "a ?? fo", 7, "fo", 5, 7},
		{"after_comparison", "a > fo", 6, "fo", 4, 6},
		{"after_semicolon", "t.a = 1; fo", 11, "fo", 9, 11},
		{"in_block", "{fo", 3, "fo", 1, 3},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"underscore", "move_speed", 10, "move_speed", 0, 10},
		{"empty_after_dot", "variable.", 9, "", 9, 9},
		{"cursor_past_end", "foo", 10, "foo", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath_WithOperators(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"simple_chain", "bar.baz.", 8, "bar.baz"},
		{"after_operator", "foo + bar.baz.", 14, "bar.baz"},
		{"after_paren", "(bar.baz.", 9, "bar.baz"},
		{"no_chain", "a + ", 4, ""},
		{"not_after_dot", "a.b c", 4, ""},
		{"deep_chain", "a.b.c.", 6, "a.b.c"},
		{"after_assign", "v.x = q.pos.", 12, "q.pos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := parentPath(tt.input, tt.wordStart); got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func completionEnv(t *testing.T) *lang.Env {
	t.Helper()

	env := lang.NewEnv(lang.WithReceiver(lang.Map{
		"health": lang.Number(20),
	}))

	for path, v := range map[string]lang.Value{
		"speed":          lang.Number(1),
		"pos.x":          lang.Number(2),
		"pos.y":          lang.Number(3),
		"variable.ticks": lang.Number(4),
	} {
		if err := env.Set(path, v); err != nil {
			t.Fatalf("Set(%q): %v", path, err)
		}
	}

	ident := func(args []lang.Value) (lang.Value, error) { return args[0], nil }
	if err := env.Define("math.abs", lang.NewFunction("abs", 1, ident)); err != nil {
		t.Fatal(err)
	}

	return env
}

func TestChildCandidates(t *testing.T) {
	env := completionEnv(t)

	tests := []struct {
		name   string
		parent string
		want   []string
	}{
		{"root", "", []string{"math", "pos", "q", "query", "speed", "t", "temp", "v", "variable"}},
		{"map", "pos", []string{"x", "y"}},
		{"namespace", "variable", []string{"ticks"}},
		{"alias", "v", []string{"ticks"}},
		{"receiver", "q", []string{"health"}},
		{"functions", "math", []string{"abs"}},
		{"scalar", "speed", nil},
		{"unbound", "nope", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := childCandidates(env, tt.parent)
			slices.Sort(got)

			if !slices.Equal(got, tt.want) {
				t.Errorf("childCandidates(%q) = %q, want %q", tt.parent, got, tt.want)
			}
		})
	}

	if got := childCandidates(nil, ""); got != nil {
		t.Errorf("nil env candidates = %q", got)
	}
}

func TestFormatPreview(t *testing.T) {
	ident := func(args []lang.Value) (lang.Value, error) { return args[0], nil }

	tests := []struct {
		name string
		v    lang.Value
		want string
	}{
		{"number", lang.Number(1.5), "1.5"},
		{"string", lang.String("hi"), "hi"},
		{"function", lang.FunctionValue(lang.NewVariadic("max", 1, ident)), "max(a, ...)"},
		{"long", lang.String("abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"),
			"abcdefghijklmnopqrstuvwxyzabcdefghijk..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := formatPreview(tt.v); got != tt.want {
				t.Errorf("formatPreview() = %q, want %q", got, tt.want)
			}
		})
	}
}
