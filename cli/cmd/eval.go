package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/ardnew/molang/lang"
	"github.com/ardnew/molang/log"
)

// Eval evaluates an expression or script against the bound environment and
// prints the result.
type Eval struct {
	Bindings `embed:""`

	File    string   `help:"Read the expression from a script file or '-' for stdin" placeholder:"FILE" short:"f"`
	Compile bool     `help:"Evaluate through the compiled expr-lang backend"`
	Expr    []string `arg:"" help:"Expression to evaluate; arguments are joined with spaces" optional:""`

	out io.Writer `kong:"-"`
	in  io.Reader `kong:"-"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger := log.Default().With(slog.String("command", "eval"))

	src, err := e.source(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	expr, err := lang.ParseReader(ctx, src, lang.WithLogger(logger))
	if err != nil {
		return lang.WrapError(err).
			With(
				slog.String("command", "eval"),
				slog.String("source", src.name),
			)
	}

	env, err := e.Env(ctx, logger)
	if err != nil {
		return err
	}

	var result lang.Value

	if e.Compile {
		result, err = e.runCompiled(ctx, expr, src.name, env, logger)
	} else {
		result, err = lang.Evaluate(ctx, expr, env)
	}

	if err != nil {
		return lang.WrapError(err).
			With(
				slog.String("command", "eval"),
				slog.String("source", src.name),
				slog.Bool("compiled", e.Compile),
			)
	}

	_, err = fmt.Fprintln(e.writer(), lang.FormatResult(result))

	return err
}

func (e *Eval) runCompiled(
	ctx context.Context,
	expr lang.Expr,
	name string,
	env *lang.Env,
	logger log.Logger,
) (lang.Value, error) {
	compiler := lang.NewExprCompiler(
		lang.NewSlotAllocator(),
		lang.WithCompilerLogger(logger),
	)

	artifact, err := compiler.Compile(expr, name)
	if err != nil {
		return lang.Value{}, err
	}

	return artifact.Run(ctx, env)
}

// source returns the expression input: the script file if given, otherwise
// the joined arguments, otherwise stdin when it is not a terminal.
func (e *Eval) source(ctx context.Context) (source, error) {
	switch {
	case e.File != "":
		if e.File == stdinSource && e.in != nil {
			return source{ReadCloser: io.NopCloser(e.in), name: stdinSource}, nil
		}

		return openSource(ctx, e.File)

	case len(e.Expr) > 0:
		return source{
			ReadCloser: io.NopCloser(strings.NewReader(strings.Join(e.Expr, " "))),
			name:       "args",
		}, nil

	case e.in != nil:
		return source{ReadCloser: io.NopCloser(e.in), name: stdinSource}, nil

	case !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()):
		return openSource(ctx, stdinSource)
	}

	return source{}, ErrNoInput
}

func (e *Eval) writer() io.Writer {
	if e.out == nil {
		return os.Stdout
	}

	return e.out
}
