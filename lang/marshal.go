package lang

import (
	"strconv"
)

// ToMap converts the tree rooted at e to a native Go map structure suitable
// for JSON or YAML encoding. The conversion is one-way; there is no reader
// for the result.
func ToMap(e Expr) map[string]any {
	if e == nil {
		return nil
	}

	m := map[string]any{
		"kind": e.Kind().String(),
		"pos":  e.Pos(),
	}

	switch e := e.(type) {
	case *Literal:
		m["type"] = e.value.Type().String()
		m["value"] = literalNative(e.value)

	case *Identifier:
		m["name"] = e.name

	case *Access:
		m["object"] = ToMap(e.object)
		m["property"] = e.property

	case *Index:
		m["object"] = ToMap(e.object)
		m["index"] = ToMap(e.index)

	case *Call:
		m["callee"] = ToMap(e.callee)
		m["args"] = toMaps(e.args)

	case *Unary:
		m["op"] = e.op.String()
		m["operand"] = ToMap(e.operand)

	case *Infix:
		m["op"] = e.op.String()
		m["left"] = ToMap(e.left)
		m["right"] = ToMap(e.right)

	case *Conditional:
		m["cond"] = ToMap(e.cond)
		m["then"] = ToMap(e.then)
		m["else"] = ToMap(e.els)

	case *Coalesce:
		m["left"] = ToMap(e.left)
		m["right"] = ToMap(e.right)

	case *Assignment:
		m["target"] = ToMap(e.target)
		m["value"] = ToMap(e.value)

	case *Sequence:
		m["exprs"] = toMaps(e.exprs)
	}

	return m
}

func toMaps(exprs []Expr) []any {
	out := make([]any, len(exprs))
	for i, x := range exprs {
		out[i] = ToMap(x)
	}

	return out
}

// literalNative converts a literal value to its native Go type. Numbers are
// widened through their shortest decimal spelling so that 0.1 stays 0.1.
func literalNative(v Value) any {
	if f, ok := v.Float(); ok {
		if d, err := strconv.ParseFloat(FormatNumber(f), 64); err == nil {
			return d
		}
	}

	return v.Native()
}
