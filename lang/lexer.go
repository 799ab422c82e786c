package lang

import (
	"iter"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Operators and punctuation, longest first within each group.
var (
	doubleOperators = []string{"&&", "||", "??", "==", "!=", "<=", ">="}
	singleOperators = "+-*/<>=!?:"
	punctuation     = "()[],.;"
)

const (
	quote  = '\''
	escape = '\\'
)

// Lexer produces tokens from MoLang source text in a single forward pass.
// A Lexer cannot be rewound; once an error is returned, every later call
// returns the same error.
type Lexer struct {
	src      string
	pos      int
	err      error
	foldCase bool
}

// NewLexer returns a lexer over src. When foldCase is true, identifiers are
// lowercased.
func NewLexer(src string, foldCase bool) *Lexer {
	return &Lexer{src: src, foldCase: foldCase}
}

// Next returns the next token. At the end of input it returns a [TokenEOF]
// token, repeatedly.
func (l *Lexer) Next() (Token, error) {
	if l.err != nil {
		return Token{}, l.err
	}

	l.skipWhitespace()

	if l.pos >= len(l.src) {
		return Token{Kind: TokenEOF, Offset: len(l.src)}, nil
	}

	tok, err := l.scan()
	if err != nil {
		l.err = err

		return Token{}, err
	}

	return tok, nil
}

// Tokens returns an iterator over the remaining tokens, ending after EOF or
// the first error.
func (l *Lexer) Tokens() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			tok, err := l.Next()
			if !yield(tok, err) || err != nil || tok.Kind == TokenEOF {
				return
			}
		}
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\n':
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) scan() (Token, error) {
	start := l.pos
	c := l.src[l.pos]

	switch {
	case isDigit(c):
		return l.scanNumber()

	case isIdentStart(c):
		return l.scanIdent(), nil

	case c == quote:
		return l.scanString()
	}

	for _, op := range doubleOperators {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.pos += len(op)

			return Token{Kind: TokenOperator, Text: op, Offset: start}, nil
		}
	}

	if strings.IndexByte(singleOperators, c) >= 0 {
		l.pos++

		return Token{Kind: TokenOperator, Text: string(c), Offset: start}, nil
	}

	if strings.IndexByte(punctuation, c) >= 0 {
		l.pos++

		return Token{Kind: TokenPunct, Text: string(c), Offset: start}, nil
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])

	return Token{}, &LexError{Offset: start, Char: r}
}

func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos
	point := false

	for l.pos < len(l.src) {
		c := l.src[l.pos]

		if c == '.' {
			if point {
				return Token{}, &ParseError{
					Msg:    "numbers can't have multiple floating points",
					Offset: l.pos,
					Found:  `"."`,
					Source: l.src,
				}
			}

			point = true
		} else if !isDigit(c) {
			break
		}

		l.pos++
	}

	text := l.src[start:l.pos]

	f, err := strconv.ParseFloat(text, 32)
	if err != nil {
		// Only range errors are possible for digit strings; keep the
		// saturated value ParseFloat returns.
		f = float64(float32(f))
	}

	return Token{
		Kind:   TokenNumber,
		Text:   text,
		Number: float32(f),
		Offset: start,
	}, nil
}

func (l *Lexer) scanIdent() Token {
	start := l.pos

	for l.pos < len(l.src) && isIdentContinue(l.src[l.pos]) {
		l.pos++
	}

	text := l.src[start:l.pos]
	if l.foldCase {
		text = strings.ToLower(text)
	}

	return Token{Kind: TokenIdent, Text: text, Offset: start}
}

func (l *Lexer) scanString() (Token, error) {
	start := l.pos
	l.pos++ // opening quote

	var val strings.Builder

	for l.pos < len(l.src) {
		c := l.src[l.pos]

		switch c {
		case quote:
			l.pos++

			return Token{
				Kind:   TokenString,
				Text:   l.src[start:l.pos],
				Value:  val.String(),
				Offset: start,
			}, nil

		case escape:
			l.pos++
			if l.pos >= len(l.src) {
				continue
			}

			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			val.WriteRune(r)
			l.pos += size

		default:
			val.WriteByte(c)
			l.pos++
		}
	}

	return Token{}, &ParseError{
		Msg:      "unterminated string",
		Offset:   len(l.src),
		Expected: []string{string(quote)},
		Found:    "EOF",
		Source:   l.src,
	}
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentStart(c byte) bool { return isLetter(c) || c == '_' }

func isIdentContinue(c byte) bool { return isIdentStart(c) || isDigit(c) }

// IsIdentifier reports whether s is a valid MoLang identifier.
func IsIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}

	for i := 1; i < len(s); i++ {
		if !isIdentContinue(s[i]) {
			return false
		}
	}

	return true
}
