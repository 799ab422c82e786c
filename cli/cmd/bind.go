package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/molang/lang"
	"github.com/ardnew/molang/log"
)

// Bindings are the flags that populate the evaluation environment. It is
// embedded by every command that evaluates expressions.
type Bindings struct {
	Bind    []string `help:"YAML or JSON bindings file(s) or '-' for stdin" placeholder:"FILE" sep:"none"     short:"b"`
	Var     []string `help:"Bind NAME=VALUE (numbers where possible)"      placeholder:"NAME=VALUE" sep:"none"`
	Default float32  `help:"Value of missing bindings in lenient mode"     default:"0"`
	Strict  bool     `help:"Fail on missing bindings instead of using the default"`
}

// document is one decoded bindings file.
type document struct {
	name string
	data map[string]any
}

// Env builds an evaluation environment from the bindings flags.
//
// Each bindings file is a map. Its "variable" (or "v") key fills the
// variable namespace, and the "query" maps of all files are merged into the query
// receiver. Every other key is bound at the root, so "math: {pi: 3.14}"
// makes "math.pi" available. Later files and --var flags override earlier
// bindings.
func (b *Bindings) Env(ctx context.Context, logger log.Logger) (*lang.Env, error) {
	docs, err := b.load(ctx)
	if err != nil {
		return nil, err
	}

	opts := []lang.EnvOption{
		lang.WithStrict(b.Strict),
		lang.WithDefault(b.Default),
		lang.WithEnvLogger(logger),
	}

	query := lang.Map{}

	for _, doc := range docs {
		q, ok := doc.data[lang.NamespaceQuery]
		if !ok {
			continue
		}

		m, ok := q.(map[string]any)
		if !ok {
			return nil, ErrBindings.
				With(slog.String("file", doc.name), slog.String("key", lang.NamespaceQuery)).
				Wrap(errNotMap)
		}

		for k, v := range m {
			query[k] = lang.ValueOf(v)
		}
	}

	if len(query) > 0 {
		opts = append(opts, lang.WithReceiver(query))
	}

	env := lang.NewEnv(opts...)

	for _, doc := range docs {
		if err := bindDocument(env, doc); err != nil {
			return nil, err
		}
	}

	for _, v := range b.Var {
		name, value, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, ErrBindVar.With(slog.String("var", v))
		}

		if err := env.Set(strings.TrimSpace(name), parseScalar(value)); err != nil {
			return nil, ErrBindVar.With(slog.String("var", v)).Wrap(err)
		}
	}

	logger.DebugContext(ctx, "bindings loaded",
		slog.Int("files", len(docs)),
		slog.Int("vars", len(b.Var)),
		slog.Int("query", len(query)),
		slog.Bool("strict", b.Strict),
	)

	return env, nil
}

var errNotMap = NewError("value is not a map")

// load decodes every bindings file. Files are deduplicated by identity.
func (b *Bindings) load(ctx context.Context) ([]document, error) {
	srcs, err := openUnique(ctx, b.Bind)
	if err != nil {
		return nil, ErrBindings.Wrap(err)
	}

	docs := make([]document, 0, len(srcs))

	for _, src := range srcs {
		var data map[string]any

		err := yaml.NewDecoder(src).DecodeContext(ctx, &data)
		src.Close()

		if err != nil && !errors.Is(err, io.EOF) {
			return nil, ErrBindings.
				With(slog.String("file", src.name)).
				Wrap(err)
		}

		docs = append(docs, document{name: src.name, data: fullNamespaces(data)})
	}

	return docs, nil
}

// fullNamespaces renames namespace aliases such as "v" to their full names.
// Maps given under both spellings are merged, the alias taking precedence.
func fullNamespaces(data map[string]any) map[string]any {
	for _, key := range slices.Sorted(maps.Keys(data)) {
		full, ok := lang.NamespaceName(key)
		if !ok || full == key {
			continue
		}

		val := data[key]
		delete(data, key)

		prev, had := data[full].(map[string]any)
		next, isMap := val.(map[string]any)

		if had && isMap {
			maps.Copy(prev, next)

			continue
		}

		data[full] = val
	}

	return data
}

func bindDocument(env *lang.Env, doc document) error {
	fail := func(key string, err error) error {
		return ErrBindings.
			With(slog.String("file", doc.name), slog.String("key", key)).
			Wrap(err)
	}

	// Sorted for deterministic errors.
	for _, key := range slices.Sorted(maps.Keys(doc.data)) {
		val := doc.data[key]

		switch key {
		case lang.NamespaceQuery:
			// Merged into the receiver.

		case lang.NamespaceTemp:
			return fail(key, errTempBinding)

		case lang.NamespaceVariable:
			m, ok := val.(map[string]any)
			if !ok {
				return fail(key, errNotMap)
			}

			for _, name := range slices.Sorted(maps.Keys(m)) {
				err := env.Set(lang.NamespaceVariable+"."+name, lang.ValueOf(m[name]))
				if err != nil {
					return fail(key+"."+name, err)
				}
			}

		default:
			if err := env.Set(key, lang.ValueOf(val)); err != nil {
				return fail(key, err)
			}
		}
	}

	return nil
}

var errTempBinding = NewError("temp is cleared by every evaluation and cannot be bound")

// parseScalar returns s as a number if it parses as one, or else as a
// string.
func parseScalar(s string) lang.Value {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err == nil {
		return lang.Number(float32(f))
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return lang.Bool(true)
	case "false":
		return lang.Bool(false)
	}

	return lang.String(s)
}
