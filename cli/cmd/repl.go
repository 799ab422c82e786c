package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/molang/cli/cmd/repl"
	"github.com/ardnew/molang/log"
)

// Repl starts the interactive evaluator over the bound environment.
type Repl struct {
	Bindings `embed:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger := log.Default().With(slog.String("command", "repl"))

	env, err := r.Env(ctx, logger)
	if err != nil {
		return err
	}

	return repl.Run(ctx, env, kongVar(ctx, CacheIdentifier), logger)
}
