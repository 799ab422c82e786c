package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/molang/lang"
	"github.com/ardnew/molang/log"
)

// Fmt parses an expression file and writes it in the chosen format.
type Fmt struct {
	Source Source `cmd:"" default:"withargs" help:"Format as canonical MoLang source (default)."`
	JSON   JSON   `cmd:""                    help:"Format the tree as JSON."`
	YAML   YAML   `cmd:""                    help:"Format the tree as YAML."`
	AST    AST    `cmd:""                    help:"Format as an indented syntax tree."`
}

// Input is the expression source shared by the fmt subcommands.
type Input struct {
	Path string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`

	out io.Writer `kong:"-"`
}

// parse reads and parses the input.
func (in *Input) parse(ctx context.Context, format string) (lang.Expr, error) {
	src, err := openSource(ctx, in.Path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	expr, err := lang.ParseReader(ctx, src,
		lang.WithLogger(log.Default().With(slog.String("command", "fmt"))),
	)
	if err != nil {
		return nil, lang.WrapError(err).
			With(
				slog.String("format", format),
				slog.String("source", src.name),
			)
	}

	return expr, nil
}

func (in *Input) writer() io.Writer {
	if in.out == nil {
		return os.Stdout
	}

	return in.out
}

// Source formats input as canonical MoLang source.
type Source struct {
	Input `embed:""`
}

// Run executes the source command.
func (s *Source) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	expr, err := s.parse(ctx, "source")
	if err != nil {
		return err
	}

	return lang.Format(s.writer(), expr)
}

// JSON formats the tree as JSON.
type JSON struct {
	Input `embed:""`

	Indent int `default:"2" help:"Indent width for JSON output; 0 for compact" short:"i"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	expr, err := j.parse(ctx, "json")
	if err != nil {
		return err
	}

	return lang.FormatJSON(ctx, j.writer(), expr, j.Indent)
}

// YAML formats the tree as YAML.
type YAML struct {
	Input `embed:""`

	Indent int `default:"2" help:"Indent width for YAML output; 0 for flow style" short:"i"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	expr, err := y.parse(ctx, "yaml")
	if err != nil {
		return err
	}

	return lang.FormatYAML(ctx, y.writer(), expr, y.Indent)
}

// AST formats input as an indented syntax tree.
type AST struct {
	Input `embed:""`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	expr, err := a.parse(ctx, "ast")
	if err != nil {
		return err
	}

	lang.Print(ctx, a.writer(), expr)

	return nil
}
