package lang

import (
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrReadInput = NewError("failed to read input")
	ErrNilExpr   = NewError("nil expression")
	ErrCompile   = NewError("expression compilation failed")
	ErrRun       = NewError("compiled expression failed")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the same sentinel, so that wrapped copies made
// with [Error.Wrap] or [Error.With] still match their origin.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.msg != "" && t.msg == e.msg && t.err == nil
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.Any("cause", e.err))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// LexError reports a character that starts no valid token.
type LexError struct {
	Offset int
	Char   rune
}

// Error implements the error interface.
func (e *LexError) Error() string {
	return "unexpected character " + strconv.QuoteRune(e.Char) +
		" at offset " + strconv.Itoa(e.Offset)
}

// LogValue implements slog.LogValuer.
func (e *LexError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", "lex error"),
		slog.Int("offset", e.Offset),
		slog.String("char", string(e.Char)),
	)
}

// ParseError reports malformed input. Offset is the byte offset of the
// offending token, Expected lists what would have been accepted there, and
// Found describes what was seen instead.
type ParseError struct {
	Msg      string
	Offset   int
	Expected []string
	Found    string
	Source   string // The original source input, if known
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var buf strings.Builder

	line, col := e.Position()

	buf.WriteString("parse error at line ")
	buf.WriteString(strconv.Itoa(line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(col))

	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}

	if snippet := e.snippet(line, col); snippet != "" {
		buf.WriteString(":\n")
		buf.WriteString(snippet)
	}

	if len(e.Expected) > 0 {
		if !strings.HasSuffix(buf.String(), "\n") {
			buf.WriteByte('\n')
		}

		buf.WriteString("\texpected: ")
		buf.WriteString(strings.Join(e.expected(), ", "))
	}

	if e.Found != "" {
		buf.WriteString("; found: ")
		buf.WriteString(e.Found)
	}

	return buf.String()
}

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	line, col := e.Position()

	attrs := []slog.Attr{
		slog.String("error", "parse error"),
		slog.Int("offset", e.Offset),
		slog.Int("line", line),
		slog.Int("column", col),
	}

	if e.Msg != "" {
		attrs = append(attrs, slog.String("reason", e.Msg))
	}

	if len(e.Expected) > 0 {
		attrs = append(attrs, slog.Any("expected", e.expected()))
	}

	if e.Found != "" {
		attrs = append(attrs, slog.String("found", e.Found))
	}

	return slog.GroupValue(attrs...)
}

// Position returns the 1-based line and column of Offset within Source.
// Without a source, the position is reported as line 1 at Offset+1.
func (e *ParseError) Position() (line, col int) {
	line, col = 1, 1

	for i, r := range e.Source {
		if i >= e.Offset {
			break
		}

		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	if e.Source == "" {
		col = e.Offset + 1
	}

	return line, col
}

// snippet renders the offending line followed by a caret marker.
func (e *ParseError) snippet(line, col int) string {
	lines := strings.Split(e.Source, "\n")
	if e.Source == "" || line > len(lines) {
		return ""
	}

	var src strings.Builder

	// Print the line with line number
	src.WriteString("  ")
	src.WriteString(strconv.Itoa(line))
	src.WriteString(" | ")
	src.WriteString(lines[line-1])
	src.WriteRune('\n')

	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	padding := strings.Repeat(" ", len(strconv.Itoa(line))+5)

	if col > 0 {
		padding += strings.Repeat(" ", col-1)
	}

	src.WriteString(padding + "^\n")

	return src.String()
}

func (e *ParseError) expected() []string {
	exp := make([]string, 0, len(e.Expected))
	for _, s := range e.Expected {
		exp = append(exp, strconv.Quote(s))
	}

	slices.Sort(exp)

	return slices.Compact(exp)
}

// Reason classifies an [ExpressionError].
type Reason int

const (
	// UnknownProperty means an identifier, member, or element did not
	// resolve and the environment is strict.
	UnknownProperty Reason = iota + 1

	// UnknownFunction means a call target did not resolve to a function.
	UnknownFunction

	// WrongArity means a function received an unsupported argument count.
	WrongArity

	// TypeCoercionFailure means a value could not be used as required by
	// an operator, such as a string operand to arithmetic.
	TypeCoercionFailure

	// ReadOnly means an assignment targeted a binding that does not accept
	// writes.
	ReadOnly
)

// String returns the name of the reason.
func (r Reason) String() string {
	switch r {
	case UnknownProperty:
		return "unknown property"

	case UnknownFunction:
		return "unknown function"

	case WrongArity:
		return "wrong arity"

	case TypeCoercionFailure:
		return "type coercion failure"

	case ReadOnly:
		return "read-only binding"

	default:
		return "unknown"
	}
}

// ExpressionError reports an evaluation-time failure that is not raised by a
// host function.
type ExpressionError struct {
	Reason Reason
	Name   string // Identifier, property, or function involved
	Detail string // Optional detail, e.g. expected arity
	Offset int
}

// Error implements the error interface.
func (e *ExpressionError) Error() string {
	var buf strings.Builder

	buf.WriteString(e.Reason.String())

	if e.Name != "" {
		buf.WriteString(" ")
		buf.WriteString(strconv.Quote(e.Name))
	}

	if e.Detail != "" {
		buf.WriteString(" (")
		buf.WriteString(e.Detail)
		buf.WriteString(")")
	}

	buf.WriteString(" at offset ")
	buf.WriteString(strconv.Itoa(e.Offset))

	return buf.String()
}

// LogValue implements slog.LogValuer.
func (e *ExpressionError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("error", e.Reason.String()),
		slog.Int("offset", e.Offset),
	}

	if e.Name != "" {
		attrs = append(attrs, slog.String("name", e.Name))
	}

	if e.Detail != "" {
		attrs = append(attrs, slog.String("detail", e.Detail))
	}

	return slog.GroupValue(attrs...)
}

// FunctionError reports a failed call. Err is either the error returned by
// the host function or an [*ExpressionError] describing why the call could
// not be made.
type FunctionError struct {
	Name   string
	Offset int
	Err    error
}

// Error implements the error interface.
func (e *FunctionError) Error() string {
	msg := "function " + strconv.Quote(e.Name)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FunctionError) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *FunctionError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("error", "function error"),
		slog.String("function", e.Name),
		slog.Int("offset", e.Offset),
	}

	if e.Err != nil {
		attrs = append(attrs, slog.Any("cause", e.Err))
	}

	return slog.GroupValue(attrs...)
}

// IsReason reports whether err carries an [*ExpressionError] with reason r.
func IsReason(err error, r Reason) bool {
	var ee *ExpressionError

	return errors.As(err, &ee) && ee.Reason == r
}
