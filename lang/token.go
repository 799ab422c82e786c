package lang

import "strconv"

// TokenKind classifies a [Token].
type TokenKind int

const (
	// TokenEOF marks the end of input.
	TokenEOF TokenKind = iota

	// TokenNumber is a numeric literal.
	TokenNumber

	// TokenString is a single-quoted string literal.
	TokenString

	// TokenIdent is an identifier.
	TokenIdent

	// TokenOperator is an arithmetic, comparison, logical, or assignment
	// operator, including the '?' and ':' of a conditional.
	TokenOperator

	// TokenPunct is one of ( ) [ ] , . ;
	TokenPunct
)

// String returns a string representation of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"

	case TokenNumber:
		return "Number"

	case TokenString:
		return "String"

	case TokenIdent:
		return "Identifier"

	case TokenOperator:
		return "Operator"

	case TokenPunct:
		return "Punctuation"

	default:
		return "Unknown"
	}
}

// Token is a single lexical unit. Text holds the raw source text, except for
// identifiers under case folding, where it holds the folded name.
type Token struct {
	Text   string
	Value  string  // Decoded contents of a string literal
	Offset int     // Byte offset of the first character
	Number float32 // Decoded value of a numeric literal
	Kind   TokenKind
}

// Is reports whether t is an operator or punctuation token spelled s.
func (t Token) Is(s string) bool {
	return (t.Kind == TokenOperator || t.Kind == TokenPunct) && t.Text == s
}

// String describes the token for diagnostics.
func (t Token) String() string {
	switch t.Kind {
	case TokenEOF:
		return "EOF"

	case TokenString:
		return "string " + strconv.Quote(t.Value)

	case TokenNumber:
		return "number " + t.Text

	case TokenIdent:
		return "identifier " + strconv.Quote(t.Text)

	default:
		return strconv.Quote(t.Text)
	}
}
