package lang

import (
	"math"
	"reflect"
	"slices"
	"testing"
)

func TestValue_Equal(t *testing.T) {
	t.Parallel()

	m := Map{}
	fn := NewFunction("f", 0, nil)

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"numbers", Number(1), Number(1), true},
		{"bool is number", Bool(true), Number(1), true},
		{"different numbers", Number(1), Number(2), false},
		{"strings", String("a"), String("a"), true},
		{"number vs string", Number(1), String("1"), false},
		{"same object", ObjectValue(m), ObjectValue(m), true},
		{"distinct objects", ObjectValue(Map{}), ObjectValue(Map{}), false},
		{"same function", FunctionValue(fn), FunctionValue(fn), true},
		{"undefined", Value{}, Value{}, true},
		{"nan", Number(float32(math.NaN())), Number(float32(math.NaN())), false},
	}

	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%s: Equal = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValue_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v    Value
		want string
	}{
		{Number(0.1), "0.1"},
		{Number(1e10), "10000000000"},
		{Number(-2.5), "-2.5"},
		{String("hi"), "hi"},
		{ObjectValue(Map{}), "<object>"},
		{FunctionValue(NewFunction("sin", 1, nil)), "<function sin>"},
		{Value{}, "<undefined>"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestValueOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want Value
	}{
		{float32(1.5), Number(1.5)},
		{2.5, Number(2.5)},
		{3, Number(3)},
		{int64(4), Number(4)},
		{true, Number(1)},
		{"s", String("s")},
		{nil, Value{}},
		{struct{}{}, Value{}},
		{Number(7), Number(7)},
	}

	for _, tt := range tests {
		if got := ValueOf(tt.in); !got.Equal(tt.want) {
			t.Errorf("ValueOf(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	v := ValueOf(map[string]any{"a": 1, "l": []any{"x", 2}})

	want := map[string]any{"a": float64(1), "l": []any{"x", float64(2)}}
	if got := v.Native(); !reflect.DeepEqual(got, want) {
		t.Errorf("Native() = %#v, want %#v", got, want)
	}
}

func TestMap(t *testing.T) {
	t.Parallel()

	m := Map{"b": Number(2), "1": String("one")}

	if v, ok := m.Element(Number(1)); !ok || !v.Equal(String("one")) {
		t.Errorf("numeric element = %v, %v", v, ok)
	}

	if v, ok := m.Element(String("b")); !ok || !v.Equal(Number(2)) {
		t.Errorf("string element = %v, %v", v, ok)
	}

	if _, ok := m.Element(ObjectValue(m)); ok {
		t.Error("object index succeeded")
	}

	if !m.SetElement(Number(0.5), Number(3)) {
		t.Error("SetElement failed")
	}

	if got := slices.Collect(m.Keys()); !slices.Equal(got, []string{"0.5", "1", "b"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	l := List{Number(10), Number(20)}

	tests := []struct {
		idx  Value
		want Value
		ok   bool
	}{
		{Number(0), Number(10), true},
		{Number(1.9), Number(20), true},
		{Number(2), Value{}, false},
		{Number(-0.5), Value{}, false},
		{String("0"), Value{}, false},
		{Number(float32(math.NaN())), Value{}, false},
	}

	for _, tt := range tests {
		got, ok := l.Element(tt.idx)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("Element(%v) = %v, %v; want %v, %v", tt.idx, got, ok, tt.want, tt.ok)
		}
	}

	if v, _ := l.Property("length"); !v.Equal(Number(2)) {
		t.Errorf("length = %v, want 2", v)
	}

	if l.SetElement(Number(2), Number(0)) {
		t.Error("SetElement out of range succeeded")
	}
}

func TestMap_FoldedKeys(t *testing.T) {
	t.Parallel()

	m := Map{"Width": Number(7), "HEIGHT": Number(1), "height": Number(2)}

	tests := []struct {
		name string
		want Value
	}{
		{"Width", Number(7)},
		{"width", Number(7)},
		{"WIDTH", Number(7)},
		{"height", Number(2)},
		{"Height", Number(1)},
	}

	for _, tt := range tests {
		if v, ok := m.Property(tt.name); !ok || !v.Equal(tt.want) {
			t.Errorf("Property(%q) = %v, %v; want %v", tt.name, v, ok, tt.want)
		}
	}

	if _, ok := m.Property("depth"); ok {
		t.Error("Property of missing member succeeded")
	}

	m.SetProperty("width", Number(8))

	if v := m["Width"]; !v.Equal(Number(8)) || len(m) != 3 {
		t.Errorf("SetProperty did not keep the existing key: %v", m)
	}
}

func TestNamespace(t *testing.T) {
	t.Parallel()

	ns := NewNamespace("variable")
	ns.create = false
	ns.Set("a", Number(1))

	if !ns.SetProperty("a", Number(2)) {
		t.Error("overwrite refused")
	}

	if ns.SetProperty("b", Number(3)) {
		t.Error("creation allowed with create disabled")
	}

	ns.Set("Speed", Number(1))

	if !ns.SetProperty("speed", Number(5)) {
		t.Error("folded overwrite refused with create disabled")
	}

	if v, _ := ns.Property("Speed"); !v.Equal(Number(5)) {
		t.Errorf("Speed = %v, want 5", v)
	}

	ns.Delete("Speed")

	ns.Set("c", Number(4))

	var keys []string
	for k := range ns.All() {
		keys = append(keys, k)
	}

	if !slices.Equal(keys, []string{"a", "c"}) {
		t.Errorf("All() keys = %v", keys)
	}

	ns.Clear()

	if ns.Len() != 0 {
		t.Errorf("Len() after Clear = %d", ns.Len())
	}
}

func TestFunction_Signature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fn     *Function
		want   string
		accept []int
		reject []int
	}{
		{NewFunction("pi", 0, nil), "pi()", []int{0}, []int{1}},
		{NewFunction("sin", 1, nil), "sin(a)", []int{1}, []int{0, 2}},
		{NewVariadic("max", 2, nil), "max(a, b, ...)", []int{2, 5}, []int{1}},
		{NewVariadic("all", 0, nil), "all(...)", []int{0, 9}, nil},
	}

	for _, tt := range tests {
		if got := tt.fn.Signature(); got != tt.want {
			t.Errorf("Signature() = %q, want %q", got, tt.want)
		}

		for _, n := range tt.accept {
			if !tt.fn.Accepts(n) {
				t.Errorf("%s should accept %d arguments", tt.want, n)
			}
		}

		for _, n := range tt.reject {
			if tt.fn.Accepts(n) {
				t.Errorf("%s should reject %d arguments", tt.want, n)
			}
		}
	}
}
