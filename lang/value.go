package lang

import (
	"iter"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Type indicates the kind of a [Value].
type Type int

const (
	// TypeUndefined marks the absence of a binding. It is never returned
	// from a top-level evaluation.
	TypeUndefined Type = iota

	// TypeNumber is the canonical numeric kind (float32).
	TypeNumber

	// TypeString is a string value.
	TypeString

	// TypeObject is a host object exposing named members or elements.
	TypeObject

	// TypeFunction is a callable host function.
	TypeFunction
)

// String returns a string representation of the value type.
func (t Type) String() string {
	switch t {
	case TypeUndefined:
		return "Undefined"

	case TypeNumber:
		return "Number"

	case TypeString:
		return "String"

	case TypeObject:
		return "Object"

	case TypeFunction:
		return "Function"

	default:
		return "Unknown"
	}
}

// Value is a MoLang runtime value. The zero Value is undefined.
type Value struct {
	ref any // Object or *Function
	str string
	num float32
	typ Type
}

// Number returns a numeric value.
func Number(f float32) Value { return Value{typ: TypeNumber, num: f} }

// Bool returns 1.0 for true and 0.0 for false.
func Bool(b bool) Value {
	if b {
		return Number(1)
	}

	return Number(0)
}

// String returns a string value.
func String(s string) Value { return Value{typ: TypeString, str: s} }

// ObjectValue wraps a host object. A nil object yields an undefined value.
func ObjectValue(o Object) Value {
	if o == nil {
		return Value{}
	}

	return Value{typ: TypeObject, ref: o}
}

// FunctionValue wraps a host function.
func FunctionValue(fn *Function) Value {
	if fn == nil {
		return Value{}
	}

	return Value{typ: TypeFunction, ref: fn}
}

// Type returns the kind of v.
func (v Value) Type() Type { return v.typ }

// IsUndefined reports whether v is the undefined value.
func (v Value) IsUndefined() bool { return v.typ == TypeUndefined }

// IsNaN reports whether v is a NaN number.
func (v Value) IsNaN() bool {
	return v.typ == TypeNumber && math.IsNaN(float64(v.num))
}

// Float returns the numeric value of v and whether v is a number.
func (v Value) Float() (float32, bool) {
	return v.num, v.typ == TypeNumber
}

// Text returns the string value of v and whether v is a string.
func (v Value) Text() (string, bool) {
	return v.str, v.typ == TypeString
}

// Object returns the host object held by v, if any.
func (v Value) Object() (Object, bool) {
	o, ok := v.ref.(Object)

	return o, ok && v.typ == TypeObject
}

// Function returns the function held by v, if any.
func (v Value) Function() (*Function, bool) {
	f, ok := v.ref.(*Function)

	return f, ok && v.typ == TypeFunction
}

// Equal reports whether v and w hold the same value. Objects and functions
// compare by identity.
func (v Value) Equal(w Value) bool {
	if v.typ != w.typ {
		return false
	}

	switch v.typ {
	case TypeNumber:
		return v.num == w.num

	case TypeString:
		return v.str == w.str

	case TypeObject, TypeFunction:
		return v.ref == w.ref

	default:
		return true
	}
}

// String formats v for display.
func (v Value) String() string {
	switch v.typ {
	case TypeNumber:
		return FormatNumber(v.num)

	case TypeString:
		return v.str

	case TypeObject:
		return "<object>"

	case TypeFunction:
		f, _ := v.Function()

		return "<function " + f.Name() + ">"

	default:
		return "<undefined>"
	}
}

// Native converts v to a plain Go value: float64, string, map[string]any,
// []any, or nil. Objects that are neither [Map] nor [List] become nil.
func (v Value) Native() any {
	switch v.typ {
	case TypeNumber:
		return float64(v.num)

	case TypeString:
		return v.str

	case TypeObject:
		switch o := v.ref.(type) {
		case Map:
			return o.native()

		case *Namespace:
			return o.values.native()

		case List:
			out := make([]any, len(o))
			for i, e := range o {
				out[i] = e.Native()
			}

			return out
		}

		return nil

	case TypeFunction:
		f, _ := v.Function()

		return "<function " + f.Name() + ">"

	default:
		return nil
	}
}

// FormatNumber formats f in plain decimal notation that the lexer accepts.
func FormatNumber(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

// ValueOf converts a plain Go value into a [Value]. Numbers of any width,
// booleans, strings, maps with string keys, slices of any, Objects,
// Functions and Values are supported. Other values, including nil, yield an
// undefined value.
func ValueOf(x any) Value {
	switch x := x.(type) {
	case Value:
		return x
	case float32:
		return Number(x)
	case float64:
		return Number(float32(x))
	case int:
		return Number(float32(x))
	case int64:
		return Number(float32(x))
	case uint64:
		return Number(float32(x))
	case int32:
		return Number(float32(x))
	case uint32:
		return Number(float32(x))
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case *Function:
		return FunctionValue(x)
	case Object:
		return ObjectValue(x)
	case map[string]any:
		m := make(Map, len(x))
		for k, e := range x {
			m[k] = ValueOf(e)
		}

		return ObjectValue(m)
	case []any:
		l := make(List, len(x))
		for i, e := range x {
			l[i] = ValueOf(e)
		}

		return ObjectValue(l)
	default:
		return Value{}
	}
}

// Object is a host value exposing named members to Access expressions.
type Object interface {
	Property(name string) (Value, bool)
}

// MutableObject is an [Object] accepting assignment to its members.
// SetProperty returns false if the write is not permitted.
type MutableObject interface {
	Object
	SetProperty(name string, v Value) bool
}

// Indexable is a host value exposing elements to Index expressions.
type Indexable interface {
	Element(index Value) (Value, bool)
}

// MutableIndexable is an [Indexable] accepting assignment to its elements.
// SetElement returns false if the write is not permitted.
type MutableIndexable interface {
	Indexable
	SetElement(index Value, v Value) bool
}

// Map is a mutable string-keyed object. A member name matches its key
// exactly or, when no key matches exactly, without regard to case, since
// expressions fold identifiers to lower case by default.
type Map map[string]Value

// Property implements [Object].
func (m Map) Property(name string) (Value, bool) {
	if k, ok := m.key(name); ok {
		return m[k], true
	}

	return Value{}, false
}

// SetProperty implements [MutableObject]. An existing member matched
// without regard to case keeps its key.
func (m Map) SetProperty(name string, v Value) bool {
	k, _ := m.key(name)
	m[k] = v

	return true
}

// key returns the key matching name. Among several keys that differ only in
// case, the least one wins so the choice does not depend on map order.
func (m Map) key(name string) (string, bool) {
	if _, ok := m[name]; ok {
		return name, true
	}

	found, ok := "", false

	for k := range m {
		if strings.EqualFold(k, name) && (!ok || k < found) {
			found, ok = k, true
		}
	}

	if !ok {
		return name, false
	}

	return found, true
}

// Element implements [Indexable]. String indexes select members by name and
// numeric indexes select members by their decimal spelling.
func (m Map) Element(index Value) (Value, bool) {
	key, ok := mapKey(index)
	if !ok {
		return Value{}, false
	}

	return m.Property(key)
}

// SetElement implements [MutableIndexable].
func (m Map) SetElement(index Value, v Value) bool {
	key, ok := mapKey(index)
	if !ok {
		return false
	}

	return m.SetProperty(key, v)
}

// Keys returns an iterator over the member names in sorted order.
func (m Map) Keys() iter.Seq[string] {
	return slices.Values(slices.Sorted(maps.Keys(m)))
}

func (m Map) native() map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v.Native()
	}

	return out
}

func mapKey(index Value) (string, bool) {
	switch index.typ {
	case TypeString:
		return index.str, true

	case TypeNumber:
		return FormatNumber(index.num), true

	default:
		return "", false
	}
}

// List is an object indexed by number. Indexes are truncated toward negative
// infinity. Assignment is permitted only within range.
type List []Value

// Property implements [Object]; a List exposes only its length.
func (l List) Property(name string) (Value, bool) {
	if name == "length" {
		return Number(float32(len(l))), true
	}

	return Value{}, false
}

// Element implements [Indexable].
func (l List) Element(index Value) (Value, bool) {
	i, ok := l.offset(index)
	if !ok {
		return Value{}, false
	}

	return l[i], true
}

// SetElement implements [MutableIndexable].
func (l List) SetElement(index Value, v Value) bool {
	i, ok := l.offset(index)
	if !ok {
		return false
	}

	l[i] = v

	return true
}

func (l List) offset(index Value) (int, bool) {
	f, ok := index.Float()
	if !ok || math.IsNaN(float64(f)) {
		return 0, false
	}

	i := int(math.Floor(float64(f)))
	if i < 0 || i >= len(l) {
		return 0, false
	}

	return i, true
}

// Namespace is a named [Map] with a creation policy. When creation is
// disabled, assignment may only overwrite members that already exist.
type Namespace struct {
	values Map
	name   string
	create bool
}

// NewNamespace returns an empty namespace that permits creating members.
func NewNamespace(name string) *Namespace {
	return &Namespace{name: name, values: Map{}, create: true}
}

// Name returns the namespace name.
func (n *Namespace) Name() string { return n.name }

// Property implements [Object].
func (n *Namespace) Property(name string) (Value, bool) {
	return n.values.Property(name)
}

// SetProperty implements [MutableObject].
func (n *Namespace) SetProperty(name string, v Value) bool {
	k, ok := n.values.key(name)
	if !ok && !n.create {
		return false
	}

	n.values[k] = v

	return true
}

// Set stores a member regardless of the creation policy.
func (n *Namespace) Set(name string, v Value) { n.values[name] = v }

// Delete removes a member.
func (n *Namespace) Delete(name string) { delete(n.values, name) }

// Len returns the number of members.
func (n *Namespace) Len() int { return len(n.values) }

// Keys returns an iterator over member names in sorted order.
func (n *Namespace) Keys() iter.Seq[string] { return n.values.Keys() }

// All returns an iterator over members in name order.
func (n *Namespace) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for k := range n.values.Keys() {
			if !yield(k, n.values[k]) {
				return
			}
		}
	}
}

// Clear removes every member.
func (n *Namespace) Clear() { clear(n.values) }

func (n *Namespace) clone() *Namespace {
	c := *n
	c.values = cloneMap(n.values)

	return &c
}

// Function is a host function callable from expressions.
type Function struct {
	call    func(args []Value) (Value, error)
	name    string
	minArgs int
	maxArgs int // Negative for variadic
}

// NewFunction returns a function taking exactly arity arguments.
func NewFunction(
	name string,
	arity int,
	call func(args []Value) (Value, error),
) *Function {
	return &Function{name: name, minArgs: arity, maxArgs: arity, call: call}
}

// NewVariadic returns a function taking at least minArgs arguments.
func NewVariadic(
	name string,
	minArgs int,
	call func(args []Value) (Value, error),
) *Function {
	return &Function{name: name, minArgs: minArgs, maxArgs: -1, call: call}
}

// Name returns the function name.
func (f *Function) Name() string { return f.name }

// Arity returns the accepted argument counts. A negative max means the
// function is variadic.
func (f *Function) Arity() (minArgs, maxArgs int) { return f.minArgs, f.maxArgs }

// Accepts reports whether n arguments satisfy the function's arity.
func (f *Function) Accepts(n int) bool {
	return n >= f.minArgs && (f.maxArgs < 0 || n <= f.maxArgs)
}

// Signature describes the arity for hints and diagnostics, e.g. "sin(a)" or
// "max(a, b, ...)".
func (f *Function) Signature() string {
	params := make([]string, 0, f.minArgs+1)

	for i := range f.minArgs {
		params = append(params, paramName(i))
	}

	for i := f.minArgs; i < f.maxArgs; i++ {
		params = append(params, "["+paramName(i)+"]")
	}

	if f.maxArgs < 0 {
		params = append(params, "...")
	}

	return f.name + "(" + strings.Join(params, ", ") + ")"
}

func (f *Function) arityDetail() string {
	switch {
	case f.maxArgs < 0:
		return "at least " + strconv.Itoa(f.minArgs)

	case f.minArgs == f.maxArgs:
		return "exactly " + strconv.Itoa(f.minArgs)

	default:
		return strconv.Itoa(f.minArgs) + " to " + strconv.Itoa(f.maxArgs)
	}
}

func paramName(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}

	return "p" + strconv.Itoa(i)
}
