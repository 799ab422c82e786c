// Package lang implements MoLang, a small expression language for numeric
// and behavioral scripting such as animation curves and queries against host
// state.
//
// Source text flows one way: text is tokenized by a [Lexer], parsed into an
// immutable [Expr] tree by [Parse], and evaluated against an [Env] by
// [Evaluate]. The tree knows nothing of the host; the environment is
// supplied only at evaluation time, so one tree can be evaluated any number
// of times against different environments.
//
// # Grammar
//
// Informal EBNF, lowest precedence first:
//
//	Program     → Statement (';' Statement)* ';'?
//	Statement   → Assignment
//	Assignment  → Conditional ('=' Assignment)?
//	Conditional → Coalesce ('?' Assignment ':' Conditional)?
//	Coalesce    → Or ('??' Or)*
//	Or          → And ('||' And)*
//	And         → Equality ('&&' Equality)*
//	Equality    → Relational (('==' | '!=') Relational)*
//	Relational  → Additive (('<' | '<=' | '>' | '>=') Additive)*
//	Additive    → Term (('+' | '-') Term)*
//	Term        → Unary (('*' | '/') Unary)*
//	Unary       → ('!' | '-') Unary | Postfix
//	Postfix     → Primary ('.' Name | '(' Args? ')' | '[' Assignment ']')*
//	Primary     → Number | String | 'true' | 'false' | Name | '(' Program ')'
//
// Strings are single-quoted, with '\' escaping the next character.
// Identifiers are case-insensitive unless [WithFoldCase] disables folding.
//
// # Evaluation
//
// Every value is a number (float32), a string, a host object, or a host
// function. Booleans are the numbers 1 and 0. Division by zero yields 0.
//
// Names resolve through the temp, variable, and query namespaces (aliased t,
// v, and q), then root bindings, then an optional [Resolver]. In the default
// lenient mode a missing binding yields the environment's default value; with
// [WithStrict] it is an [*ExpressionError]. The left side of '??' is always
// evaluated leniently:
//
//	env := lang.NewEnv(lang.WithStrict(true))
//	v, err := lang.Eval(ctx, "v.speed ?? 1.5", env) // 1.5, nil
//
// # Compilation
//
// [ExprCompiler] lowers trees to expr-lang programs whose results agree with
// [Evaluate]. The tree-walking evaluator never depends on it.
package lang
