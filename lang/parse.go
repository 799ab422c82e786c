package lang

import (
	"context"
	"log/slog"
	"slices"
	"strconv"

	"github.com/ardnew/molang/log"
)

// DefaultMaxDepth is the default limit on expression nesting.
// Users may modify this before parsing to change the default.
var DefaultMaxDepth = 256

// optionsKey holds the parse options that affect the resulting tree.
// It is hashed into the cache key.
type optionsKey struct {
	maxDepth int
	foldCase bool
}

// config holds the effective configuration of a single parse.
type config struct {
	logger log.Logger // Outside optionsKey, doesn't affect cache
	opts   optionsKey
	cache  bool
}

// Option configures parsing behavior.
type Option func(*config)

// WithMaxDepth sets the maximum nesting depth of the parsed tree.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.opts.maxDepth = depth
	}
}

// WithFoldCase controls whether identifiers are lowercased. Folding is
// enabled by default since MoLang names are case-insensitive.
func WithFoldCase(fold bool) Option {
	return func(c *config) {
		c.opts.foldCase = fold
	}
}

// WithCache controls whether parsed trees are memoized by source and
// options. Caching is enabled by default.
func WithCache(cache bool) Option {
	return func(c *config) {
		c.cache = cache
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func makeConfig(opts ...Option) config {
	c := config{
		opts:  optionsKey{maxDepth: DefaultMaxDepth, foldCase: true},
		cache: true,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// Parse parses MoLang source text into an expression tree.
//
// A source made of several semicolon-separated statements yields a
// [*Sequence]; a single statement yields that statement's node. No partial
// tree is returned on error.
func Parse(ctx context.Context, src string, opts ...Option) (Expr, error) {
	cfg := makeConfig(opts...)

	cfg.logger.TraceContext(
		ctx,
		"parse start",
		slog.Int("source_length", len(src)),
		slog.Bool("cache", cfg.cache),
	)

	if cfg.cache {
		return parseCached(ctx, src, cfg)
	}

	return parse(ctx, src, cfg)
}

// MustParse is like [Parse] with default options but panics on error.
// It simplifies initialization of trees held in global variables.
func MustParse(src string) Expr {
	e, err := Parse(context.Background(), src)
	if err != nil {
		panic(err)
	}

	return e
}

// Eval parses src and evaluates it against env.
func Eval(ctx context.Context, src string, env *Env, opts ...Option) (Value, error) {
	e, err := Parse(ctx, src, opts...)
	if err != nil {
		return Value{}, err
	}

	return Evaluate(ctx, e, env)
}

// parse is the internal parsing implementation, bypassing the cache.
func parse(ctx context.Context, src string, cfg config) (Expr, error) {
	p := &parser{
		lex:      NewLexer(src, cfg.opts.foldCase),
		src:      src,
		maxDepth: cfg.opts.maxDepth,
	}

	e, err := p.parseProgram()
	if err != nil {
		cfg.logger.TraceContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	cfg.logger.TraceContext(
		ctx,
		"parse done",
		slog.String("kind", e.Kind().String()),
	)

	return e, nil
}

// parser is a recursive-descent parser with one token of lookahead.
type parser struct {
	lex      *Lexer
	src      string
	tok      Token
	depth    int
	maxDepth int
}

// Token sets accepted at the start of an operand.
var operandStart = []string{
	"number", "string", "identifier", "(", "!", "-",
}

func (p *parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}

	p.tok = tok

	return nil
}

func (p *parser) fail(msg string, expected ...string) error {
	return &ParseError{
		Msg:      msg,
		Offset:   p.tok.Offset,
		Expected: expected,
		Found:    p.tok.String(),
		Source:   p.src,
	}
}

func (p *parser) expect(s string) error {
	if !p.tok.Is(s) {
		return p.fail("unexpected token", s)
	}

	return p.advance()
}

func (p *parser) enter() error {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return p.fail("maximum nesting depth " + strconv.Itoa(p.maxDepth) +
			" exceeded")
	}

	return nil
}

func (p *parser) leave() { p.depth-- }

// parseProgram parses a top-level statement list.
func (p *parser) parseProgram() (Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	exprs, err := p.parseStatements(TokenEOF, "")
	if err != nil {
		return nil, err
	}

	return sequenceOf(exprs), nil
}

// parseStatements parses semicolon-separated expressions until the closing
// token, which is left unconsumed. At least one expression is required.
func (p *parser) parseStatements(end TokenKind, closer string) ([]Expr, error) {
	var exprs []Expr

	done := func() bool {
		if closer != "" {
			return p.tok.Is(closer)
		}

		return p.tok.Kind == end
	}

	for !done() {
		if p.tok.Is(";") {
			if err := p.advance(); err != nil {
				return nil, err
			}

			continue
		}

		e, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}

		exprs = append(exprs, e)

		if done() {
			break
		}

		if !p.tok.Is(";") {
			if closer != "" {
				return nil, p.fail("unexpected token", ";", closer, "operator")
			}

			return nil, p.fail("unexpected token", ";", "EOF", "operator")
		}
	}

	if len(exprs) == 0 {
		return nil, p.fail("expected an expression", operandStart...)
	}

	return exprs, nil
}

func sequenceOf(exprs []Expr) Expr {
	if len(exprs) == 1 {
		return exprs[0]
	}

	return &Sequence{exprs: exprs, pos: exprs[0].Pos()}
}

// parseAssignment parses target = value, right-associative.
func (p *parser) parseAssignment() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}

	if !p.tok.Is("=") {
		return left, nil
	}

	if !isTarget(left) {
		return nil, p.fail("invalid assignment target")
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}

	return &Assignment{target: left, value: value, pos: left.Pos()}, nil
}

// parseConditional parses cond ? then : else, right-associative.
func (p *parser) parseConditional() (Expr, error) {
	cond, err := p.parseCoalesce()
	if err != nil {
		return nil, err
	}

	if !p.tok.Is("?") {
		return cond, nil
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	then, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}

	if err := p.expect(":"); err != nil {
		return nil, err
	}

	els, err := p.parseConditional()
	if err != nil {
		return nil, err
	}

	return &Conditional{cond: cond, then: then, els: els, pos: cond.Pos()}, nil
}

// parseCoalesce parses left ?? right, left-associative.
func (p *parser) parseCoalesce() (Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	for p.tok.Is("??") {
		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		left = &Coalesce{left: left, right: right, pos: left.Pos()}
	}

	return left, nil
}

func (p *parser) parseOr() (Expr, error) {
	return p.parseInfix(p.parseAnd, "||")
}

func (p *parser) parseAnd() (Expr, error) {
	return p.parseInfix(p.parseEquality, "&&")
}

func (p *parser) parseEquality() (Expr, error) {
	return p.parseInfix(p.parseRelational, "==", "!=")
}

func (p *parser) parseRelational() (Expr, error) {
	return p.parseInfix(p.parseAdditive, "<", "<=", ">", ">=")
}

func (p *parser) parseAdditive() (Expr, error) {
	return p.parseInfix(p.parseMultiplicative, "+", "-")
}

func (p *parser) parseMultiplicative() (Expr, error) {
	return p.parseInfix(p.parseUnary, "*", "/")
}

// parseInfix parses a left-associative chain of the given operators.
func (p *parser) parseInfix(
	operand func() (Expr, error),
	ops ...string,
) (Expr, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}

	for p.tok.Kind == TokenOperator && slices.Contains(ops, p.tok.Text) {
		op := infixOperators[p.tok.Text]

		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := operand()
		if err != nil {
			return nil, err
		}

		left = &Infix{op: op, left: left, right: right, pos: left.Pos()}
	}

	return left, nil
}

// parseUnary parses prefix ! and -.
func (p *parser) parseUnary() (Expr, error) {
	var op Operator

	switch {
	case p.tok.Is("!"):
		op = OpNot

	case p.tok.Is("-"):
		op = OpNeg

	default:
		return p.parsePostfix()
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	pos := p.tok.Offset

	if err := p.advance(); err != nil {
		return nil, err
	}

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return &Unary{op: op, operand: operand, pos: pos}, nil
}

// parsePostfix parses a primary followed by any number of member accesses,
// calls, and index operations.
func (p *parser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.tok.Is("."):
			if err := p.advance(); err != nil {
				return nil, err
			}

			if p.tok.Kind != TokenIdent {
				return nil, p.fail("expected member name", "identifier")
			}

			e = &Access{object: e, property: p.tok.Text, pos: e.Pos()}

			if err := p.advance(); err != nil {
				return nil, err
			}

		case p.tok.Is("("):
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}

			e = &Call{callee: e, args: args, pos: e.Pos()}

		case p.tok.Is("["):
			if err := p.advance(); err != nil {
				return nil, err
			}

			index, err := p.parseAssignment()
			if err != nil {
				return nil, err
			}

			if err := p.expect("]"); err != nil {
				return nil, err
			}

			e = &Index{object: e, index: index, pos: e.Pos()}

		default:
			return e, nil
		}
	}
}

// parseArgs parses a parenthesized, comma-separated argument list.
func (p *parser) parseArgs() ([]Expr, error) {
	if err := p.advance(); err != nil { // (
		return nil, err
	}

	var args []Expr

	for !p.tok.Is(")") {
		arg, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		if p.tok.Is(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}

			continue
		}

		if !p.tok.Is(")") {
			return nil, p.fail("unexpected token", ",", ")", "operator")
		}
	}

	return args, p.advance()
}

// parsePrimary parses literals, identifiers, and parenthesized groups.
func (p *parser) parsePrimary() (Expr, error) {
	tok := p.tok

	switch tok.Kind {
	case TokenNumber:
		return &Literal{value: Number(tok.Number), pos: tok.Offset}, p.advance()

	case TokenString:
		return &Literal{value: String(tok.Value), pos: tok.Offset}, p.advance()

	case TokenIdent:
		switch tok.Text {
		case "true":
			return &Literal{value: Bool(true), pos: tok.Offset}, p.advance()

		case "false":
			return &Literal{value: Bool(false), pos: tok.Offset}, p.advance()
		}

		return &Identifier{name: tok.Text, pos: tok.Offset}, p.advance()
	}

	if !tok.Is("(") {
		return nil, p.fail("expected an expression", operandStart...)
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	exprs, err := p.parseStatements(TokenPunct, ")")
	if err != nil {
		return nil, err
	}

	if err := p.advance(); err != nil { // )
		return nil, err
	}

	if len(exprs) == 1 {
		return exprs[0], nil
	}

	return &Sequence{exprs: exprs, pos: tok.Offset}, nil
}
