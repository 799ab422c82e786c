package lang

import (
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/molang/log"
)

// Names of the built-in namespaces.
const (
	NamespaceTemp     = "temp"
	NamespaceVariable = "variable"
	NamespaceQuery    = "query"
)

// Short aliases of the built-in namespaces.
var namespaceAliases = map[string]string{
	"t": NamespaceTemp,
	"v": NamespaceVariable,
	"q": NamespaceQuery,
}

// Predefined errors returned by [Env] binding methods.
var (
	ErrInvalidPath = NewError("invalid binding path")
	ErrReadOnly    = NewError("binding is read-only")
)

// Resolver is consulted for root identifiers that have no binding.
type Resolver func(name string) (Value, bool)

// Env is the evaluation environment: root bindings, the temp, variable, and
// query namespaces, and the policy applied to missing bindings.
//
// An Env is not safe for concurrent mutation; use [Env.Clone] to give each
// goroutine its own copy.
type Env struct {
	globals  Map
	temp     *Namespace
	variable *Namespace
	query    Object
	resolver Resolver
	logger   log.Logger
	def      Value
	strict   bool
}

// EnvOption configures an [Env].
type EnvOption func(*Env)

// WithStrict makes unresolved identifiers, members, and elements fail with
// [UnknownProperty] instead of yielding the default value.
func WithStrict(strict bool) EnvOption {
	return func(e *Env) {
		e.strict = strict
	}
}

// WithDefault sets the value substituted for missing bindings in lenient
// mode. The default is 0.
func WithDefault(f float32) EnvOption {
	return func(e *Env) {
		e.def = Number(f)
	}
}

// WithReceiver sets the object exposed as the query namespace. The receiver
// is read-only from expressions.
func WithReceiver(obj Object) EnvOption {
	return func(e *Env) {
		e.query = obj
	}
}

// WithResolver sets the fallback consulted for unbound root identifiers.
func WithResolver(r Resolver) EnvOption {
	return func(e *Env) {
		e.resolver = r
	}
}

// WithEnvLogger sets the structured logger used during evaluation.
func WithEnvLogger(logger log.Logger) EnvOption {
	return func(e *Env) {
		e.logger = logger
	}
}

// WithNamespaceCreation controls whether expressions may create new members
// of the variable namespace. When disabled, only members the host has
// already set can be assigned.
func WithNamespaceCreation(create bool) EnvOption {
	return func(e *Env) {
		e.variable.create = create
	}
}

// NewEnv returns an empty lenient environment.
func NewEnv(opts ...EnvOption) *Env {
	e := &Env{
		globals:  Map{},
		temp:     NewNamespace(NamespaceTemp),
		variable: NewNamespace(NamespaceVariable),
		def:      Number(0),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Strict reports whether missing bindings are errors.
func (e *Env) Strict() bool { return e.strict }

// Default returns the value substituted for missing bindings.
func (e *Env) Default() Value { return e.def }

// Logger returns the environment's logger.
func (e *Env) Logger() log.Logger { return e.logger }

// Variables returns the variable namespace, which persists for the lifetime
// of the Env.
func (e *Env) Variables() *Namespace { return e.variable }

// Temps returns the temp namespace, which is cleared at the start of every
// top-level evaluation.
func (e *Env) Temps() *Namespace { return e.temp }

// Receiver returns the query object, or nil if none was supplied.
func (e *Env) Receiver() Object { return e.query }

// Set binds a value at a dotted path. A single name binds a root value.
// Intermediate names create nested [Map]s as needed, and a path beginning
// with temp or variable (or an alias) writes into that namespace.
func (e *Env) Set(path string, v Value) error {
	segs := strings.Split(path, ".")
	if slices.Contains(segs, "") {
		return ErrInvalidPath.With(slog.String("path", path))
	}

	var obj MutableObject = e.globals

	if ns, ok := e.namespaceFor(segs[0]); ok {
		if len(segs) == 1 || ns == nil {
			return ErrReadOnly.With(slog.String("path", path))
		}

		obj, segs = ns, segs[1:]
	}

	for _, seg := range segs[:len(segs)-1] {
		next, ok := obj.Property(seg)
		if !ok {
			m := Map{}
			if !store(obj, seg, ObjectValue(m)) {
				return ErrReadOnly.With(slog.String("path", path))
			}

			obj = m

			continue
		}

		mo, ok := next.ref.(MutableObject)
		if !ok || next.typ != TypeObject {
			return ErrInvalidPath.With(
				slog.String("path", path),
				slog.String("segment", seg),
			)
		}

		obj = mo
	}

	if !store(obj, segs[len(segs)-1], v) {
		return ErrReadOnly.With(slog.String("path", path))
	}

	return nil
}

// store writes a member on behalf of the host, bypassing the creation
// policy of namespaces.
func store(obj MutableObject, name string, v Value) bool {
	if ns, ok := obj.(*Namespace); ok {
		ns.Set(name, v)

		return true
	}

	return obj.SetProperty(name, v)
}

// Define binds a host function at a dotted path such as "math.sin".
func (e *Env) Define(path string, fn *Function) error {
	return e.Set(path, FunctionValue(fn))
}

// Lookup resolves a single root identifier the way an expression would:
// namespaces and their aliases first, then root bindings, then the resolver.
func (e *Env) Lookup(name string) (Value, bool) {
	if _, ok := e.namespaceFor(name); ok {
		return e.namespaceValue(name), true
	}

	if v, ok := e.globals.Property(name); ok {
		return v, true
	}

	if e.resolver != nil {
		return e.resolver(name)
	}

	return Value{}, false
}

// Get resolves a dotted path, e.g. "variable.speed" or "math.sin".
func (e *Env) Get(path string) (Value, bool) {
	segs := strings.Split(path, ".")

	v, ok := e.Lookup(segs[0])

	for _, seg := range segs[1:] {
		if !ok {
			break
		}

		o, isObj := v.Object()
		if !isObj {
			return Value{}, false
		}

		v, ok = o.Property(seg)
	}

	return v, ok
}

// Delete removes a root binding, or a member of a nested map or namespace
// when the path is qualified, e.g. "variable.speed".
func (e *Env) Delete(path string) {
	segs := strings.Split(path, ".")
	last := segs[len(segs)-1]

	if len(segs) == 1 {
		if k, ok := e.globals.key(path); ok && !IsNamespace(path) {
			delete(e.globals, k)
		}

		return
	}

	parent, ok := e.Get(strings.Join(segs[:len(segs)-1], "."))
	if !ok {
		return
	}

	switch o := parent.ref.(type) {
	case Map:
		if k, ok := o.key(last); ok {
			delete(o, k)
		}

	case *Namespace:
		if k, ok := o.values.key(last); ok {
			o.Delete(k)
		}
	}
}

// Names returns an iterator over every name reachable from the root, in
// sorted order: namespaces, aliases, root bindings, and the members of
// nested maps and namespaces as dotted paths.
func (e *Env) Names() iter.Seq[string] {
	names := []string{NamespaceTemp, NamespaceVariable, NamespaceQuery}
	names = slices.AppendSeq(names, maps.Keys(namespaceAliases))

	for name, v := range e.globals {
		names = appendNames(names, name, v, 0)
	}

	for k, v := range e.variable.values {
		names = appendNames(names, NamespaceVariable+"."+k, v, 0)
	}

	for k, v := range e.temp.values {
		names = appendNames(names, NamespaceTemp+"."+k, v, 0)
	}

	if k, ok := e.query.(interface{ Keys() iter.Seq[string] }); ok {
		for name := range k.Keys() {
			names = append(names, NamespaceQuery+"."+name)
		}
	}

	slices.Sort(names)

	return slices.Values(slices.Compact(names))
}

const maxNameDepth = 8

func appendNames(names []string, prefix string, v Value, depth int) []string {
	names = append(names, prefix)

	m, ok := v.ref.(Map)
	if !ok || depth >= maxNameDepth {
		return names
	}

	for k, sub := range m {
		names = appendNames(names, prefix+"."+k, sub, depth+1)
	}

	return names
}

// Clone returns an independent copy of e. Root bindings, maps, lists, and
// the temp and variable namespaces are copied; the query receiver, the
// resolver, and host functions are shared.
func (e *Env) Clone() *Env {
	c := *e
	c.globals = cloneMap(e.globals)
	c.temp = e.temp.clone()
	c.variable = e.variable.clone()

	return &c
}

func cloneMap(m Map) Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneValue(v Value) Value {
	switch o := v.ref.(type) {
	case Map:
		return ObjectValue(cloneMap(o))

	case List:
		l := make(List, len(o))
		for i, e := range o {
			l[i] = cloneValue(e)
		}

		return ObjectValue(l)

	default:
		return v
	}
}

// namespaceFor reports whether name (or its alias) is a built-in namespace,
// and returns it if it is writable from the host.
func (e *Env) namespaceFor(name string) (*Namespace, bool) {
	name = strings.ToLower(name)
	if full, ok := namespaceAliases[name]; ok {
		name = full
	}

	switch name {
	case NamespaceTemp:
		return e.temp, true

	case NamespaceVariable:
		return e.variable, true

	case NamespaceQuery:
		return nil, true

	default:
		return nil, false
	}
}

func (e *Env) namespaceValue(name string) Value {
	name = strings.ToLower(name)
	if full, ok := namespaceAliases[name]; ok {
		name = full
	}

	switch name {
	case NamespaceTemp:
		return ObjectValue(e.temp)

	case NamespaceVariable:
		return ObjectValue(e.variable)

	default:
		return ObjectValue(receiver{e.query})
	}
}

// IsNamespace reports whether name is a built-in namespace or alias, in
// any letter case.
func IsNamespace(name string) bool {
	_, ok := NamespaceName(name)

	return ok
}

// NamespaceName returns the full name of the built-in namespace called name
// or aliased by it, in any letter case, e.g. "V" yields "variable".
func NamespaceName(name string) (string, bool) {
	name = strings.ToLower(name)
	if full, ok := namespaceAliases[name]; ok {
		return full, true
	}

	switch name {
	case NamespaceTemp, NamespaceVariable, NamespaceQuery:
		return name, true
	}

	return "", false
}

// receiver exposes the query object read-only. A nil object has no members.
// Members of a receiver that lists its keys also match without regard to
// case.
type receiver struct{ obj Object }

func (r receiver) Property(name string) (Value, bool) {
	if r.obj == nil {
		return Value{}, false
	}

	if v, ok := r.obj.Property(name); ok {
		return v, true
	}

	k, ok := r.obj.(interface{ Keys() iter.Seq[string] })
	if !ok {
		return Value{}, false
	}

	for key := range k.Keys() {
		if strings.EqualFold(key, name) {
			return r.obj.Property(key)
		}
	}

	return Value{}, false
}

func (r receiver) Element(index Value) (Value, bool) {
	if ix, ok := r.obj.(Indexable); ok {
		return ix.Element(index)
	}

	return Value{}, false
}
