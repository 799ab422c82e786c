package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/goccy/go-yaml"
)

// Source returns canonical MoLang source for e, using the fewest parentheses
// that preserve the tree's structure. Parsing the result yields a tree
// [Equal] to e.
func Source(e Expr) string {
	var buf strings.Builder

	writeExpr(&buf, e, 0)

	return buf.String()
}

// Format writes the canonical source of e to w, followed by a newline.
func Format(w io.Writer, e Expr) error {
	_, err := fmt.Fprintln(w, Source(e))

	return err
}

// FormatJSON writes the tree rooted at e as JSON to the writer.
func FormatJSON(_ context.Context, w io.Writer, e Expr, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(ToMap(e), "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(ToMap(e))
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the tree rooted at e as YAML to the writer.
func FormatYAML(ctx context.Context, w io.Writer, e Expr, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, ToMap(e), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// FormatResult renders an evaluation result for display. Scalars use
// [Value.String]; maps, lists, and namespaces are rendered as flow-style
// YAML with sorted keys.
func FormatResult(v Value) string {
	if v.Type() != TypeObject {
		return v.String()
	}

	native := displayNative(v, 0)
	if _, ok := native.(string); ok {
		return v.String()
	}

	out, err := yaml.MarshalWithOptions(native, yaml.Flow(true))
	if err != nil {
		return v.String()
	}

	return strings.TrimSpace(string(out))
}

// displayNative is like [Value.Native] but keeps whole numbers integral and
// other numbers at their shortest decimal spelling.
func displayNative(v Value, depth int) any {
	if depth > maxNameDepth {
		return "..."
	}

	switch v.Type() {
	case TypeNumber:
		f, _ := v.Float()
		if f == float32(math.Trunc(float64(f))) && math.Abs(float64(f)) < 1<<53 {
			return int64(f)
		}

		return literalNative(v)

	case TypeObject:
		switch o := v.ref.(type) {
		case Map:
			m := make(map[string]any, len(o))
			for k, e := range o {
				m[k] = displayNative(e, depth+1)
			}

			return m

		case *Namespace:
			m := make(map[string]any, o.Len())
			for k, e := range o.All() {
				m[k] = displayNative(e, depth+1)
			}

			return m

		case List:
			l := make([]any, len(o))
			for i, e := range o {
				l[i] = displayNative(e, depth+1)
			}

			return l
		}
	}

	return v.String()
}

// precedence returns the binding strength of the node at the root of e.
// Sequences bind loosest of all and are parenthesized anywhere but the top.
func precedence(e Expr) int {
	switch e := e.(type) {
	case *Literal, *Identifier:
		return precPrimary

	case *Access, *Index, *Call:
		return precPostfix

	case *Unary:
		return precUnary

	case *Infix:
		return e.op.Precedence()

	case *Conditional:
		return precConditional

	case *Coalesce:
		return precCoalesce

	case *Assignment:
		return precAssign

	default:
		return 0
	}
}

// writeExpr writes e, parenthesized if it binds looser than minPrec.
func writeExpr(buf *strings.Builder, e Expr, minPrec int) {
	if e == nil {
		return
	}

	if precedence(e) < minPrec {
		buf.WriteByte('(')
		writeExpr(buf, e, 0)
		buf.WriteByte(')')

		return
	}

	switch e := e.(type) {
	case *Literal:
		if s, ok := e.value.Text(); ok {
			buf.WriteString(quoteString(s))
		} else {
			buf.WriteString(e.value.String())
		}

	case *Identifier:
		buf.WriteString(e.name)

	case *Access:
		writeReceiver(buf, e.object)
		buf.WriteByte('.')
		buf.WriteString(e.property)

	case *Index:
		writeReceiver(buf, e.object)
		buf.WriteByte('[')
		writeExpr(buf, e.index, precAssign)
		buf.WriteByte(']')

	case *Call:
		writeReceiver(buf, e.callee)
		buf.WriteByte('(')

		for i, a := range e.args {
			if i > 0 {
				buf.WriteString(", ")
			}

			writeExpr(buf, a, precAssign)
		}

		buf.WriteByte(')')

	case *Unary:
		buf.WriteString(e.op.String())
		writeExpr(buf, e.operand, precUnary)

	case *Infix:
		p := e.op.Precedence()
		writeExpr(buf, e.left, p)
		buf.WriteString(" " + e.op.String() + " ")
		writeExpr(buf, e.right, p+1)

	case *Conditional:
		writeExpr(buf, e.cond, precCoalesce)
		buf.WriteString(" ? ")
		writeExpr(buf, e.then, precAssign)
		buf.WriteString(" : ")
		writeExpr(buf, e.els, precConditional)

	case *Coalesce:
		writeExpr(buf, e.left, precCoalesce)
		buf.WriteString(" ?? ")
		writeExpr(buf, e.right, precOr)

	case *Assignment:
		writeExpr(buf, e.target, precPostfix)
		buf.WriteString(" = ")
		writeExpr(buf, e.value, precAssign)

	case *Sequence:
		for i, x := range e.exprs {
			if i > 0 {
				buf.WriteString("; ")
			}

			writeExpr(buf, x, precAssign)
		}
	}
}

// writeReceiver writes the object of a postfix operation. Number literals
// are parenthesized so that a following '.' is not read as a decimal point.
func writeReceiver(buf *strings.Builder, e Expr) {
	if lit, ok := e.(*Literal); ok && lit.value.Type() == TypeNumber {
		buf.WriteByte('(')
		writeExpr(buf, e, 0)
		buf.WriteByte(')')

		return
	}

	writeExpr(buf, e, precPostfix)
}

// quoteString returns s as a single-quoted MoLang string literal.
func quoteString(s string) string {
	var buf strings.Builder

	buf.WriteByte(quote)

	for _, r := range s {
		if r == quote || r == escape {
			buf.WriteByte(escape)
		}

		buf.WriteRune(r)
	}

	buf.WriteByte(quote)

	return buf.String()
}
