package lang

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
)

func TestSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"1+2*3", "1 + 2 * 3"},
		{"(1 + 2) * 3", "(1 + 2) * 3"},
		{"((a))", "a"},
		{"a - (b - c)", "a - (b - c)"},
		{"(a - b) - c", "a - b - c"},
		{"(-a).b", "(-a).b"},
		{"-(a.b)", "-a.b"},
		{"(1).x", "(1).x"},
		{"!(a && b)", "!(a && b)"},
		{"a ?? (b ?? c)", "a ?? (b ?? c)"},
		{"(a ? b : c) ? d : e", "(a ? b : c) ? d : e"},
		{"a ? b : (c ? d : e)", "a ? b : c ? d : e"},
		{"(a = 1) + 2", "(a = 1) + 2"},
		{"a = (b = 2)", "a = b = 2"},
		{"(a; b) + 1", "(a; b) + 1"},
		{"a;b;", "a; b"},
		{"f((a; b), c)", "f((a; b), c)"},
		{"T.X['K']", "t.x['K']"},
		{`'it\'s'`, `'it\'s'`},
		{"true && false", "1 && 0"},
		{"q.f(1)(2)[3]", "q.f(1)(2)[3]"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			e := MustParse(tt.input)

			got := Source(e)
			if got != tt.want {
				t.Errorf("Source() = %q, want %q", got, tt.want)
			}

			again, err := Parse(t.Context(), got)
			if err != nil {
				t.Fatalf("re-parse: %v", err)
			}

			if !Equal(e, again) {
				t.Errorf("round trip changed tree: %s vs %s", sexp(e), sexp(again))
			}
		})
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	var buf strings.Builder

	if err := Format(&buf, MustParse("x=1")); err != nil {
		t.Fatal(err)
	}

	if buf.String() != "x = 1\n" {
		t.Errorf("Format() = %q", buf.String())
	}
}

func TestFormatJSON(t *testing.T) {
	t.Parallel()

	var buf strings.Builder

	if err := FormatJSON(t.Context(), &buf, MustParse("a + 0.1"), 0); err != nil {
		t.Fatal(err)
	}

	want := `{"kind":"Infix","left":{"kind":"Identifier","name":"a","pos":0},` +
		`"op":"+","pos":0,"right":{"kind":"Literal","pos":4,"type":"Number","value":0.1}}` +
		"\n"

	if buf.String() != want {
		t.Errorf("FormatJSON() =\n%s\nwant\n%s", buf.String(), want)
	}

	buf.Reset()

	if err := FormatJSON(t.Context(), &buf, MustParse("f('s')"), 2); err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(buf.String()), &got); err != nil {
		t.Fatalf("indented output is not JSON: %v", err)
	}

	if !strings.Contains(buf.String(), "\n  \"args\": [") {
		t.Errorf("expected two-space indentation:\n%s", buf.String())
	}
}

func TestFormatYAML(t *testing.T) {
	t.Parallel()

	e := MustParse("v.x ?? 2")

	for _, indent := range []int{0, 4} {
		var buf strings.Builder

		if err := FormatYAML(t.Context(), &buf, e, indent); err != nil {
			t.Fatal(err)
		}

		var got map[string]any
		if err := yaml.Unmarshal([]byte(buf.String()), &got); err != nil {
			t.Fatalf("indent %d: output is not YAML: %v\n%s", indent, err, buf.String())
		}

		if got["kind"] != "Coalesce" {
			t.Errorf("indent %d: kind = %v", indent, got["kind"])
		}

		flow := strings.HasPrefix(buf.String(), "{")
		if flow != (indent == 0) {
			t.Errorf("indent %d: flow style = %v\n%s", indent, flow, buf.String())
		}
	}
}

func TestToMap(t *testing.T) {
	t.Parallel()

	got := ToMap(MustParse("l[0] = -f('a')"))

	want := map[string]any{
		"kind": "Assignment",
		"pos":  0,
		"target": map[string]any{
			"kind": "Index",
			"pos":  0,
			"object": map[string]any{
				"kind": "Identifier", "pos": 0, "name": "l",
			},
			"index": map[string]any{
				"kind": "Literal", "pos": 2, "type": "Number", "value": float64(0),
			},
		},
		"value": map[string]any{
			"kind": "Unary",
			"pos":  7,
			"op":   "-",
			"operand": map[string]any{
				"kind": "Call",
				"pos":  8,
				"callee": map[string]any{
					"kind": "Identifier", "pos": 8, "name": "f",
				},
				"args": []any{
					map[string]any{
						"kind": "Literal", "pos": 10, "type": "String", "value": "a",
					},
				},
			},
		},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToMap() =\n%#v\nwant\n%#v", got, want)
	}

	if ToMap(nil) != nil {
		t.Error("ToMap(nil) != nil")
	}
}

func TestFormatResult(t *testing.T) {
	t.Parallel()

	ns := NewNamespace("variable")
	ns.Set("hp", Number(20))

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"number", Number(1.5), "1.5"},
		{"whole", Number(3), "3"},
		{"string", String("hi"), "hi"},
		{"undefined", Value{}, "<undefined>"},
		{"list", ObjectValue(List{Number(1), Number(2)}), "[1, 2]"},
		{
			"map",
			ObjectValue(Map{"b": ObjectValue(List{Number(1)}), "a": String("x")}),
			"{a: x, b: [1]}",
		},
		{"namespace", ObjectValue(ns), "{hp: 20}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FormatResult(tt.v); got != tt.want {
				t.Errorf("FormatResult() = %q, want %q", got, tt.want)
			}
		})
	}
}
