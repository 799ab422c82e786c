package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/molang/lang"
)

// Parameter hint styles.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // call path as typed, e.g. "math.clamp"
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

func isNameByte(c byte) bool {
	return c == '.' || c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// detectFunctionCall reports whether the cursor is inside the argument list
// of a call, and if so the callee path and the index of the argument under
// the cursor. Parentheses and commas are ASCII, so scanning bytes never
// splits a multi-byte rune that matters.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	open, depth := -1, 0

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')':
			depth++

		case '(':
			if depth == 0 {
				open = i
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 && isNameByte(input[start-1]) {
		start--
	}

	name := strings.Trim(input[start:open], ".")
	if name == "" {
		return functionCall{}
	}

	argIndex := 0
	depth = 0

	for i := open + 1; i < cursor; i++ {
		switch input[i] {
		case '(', '[', '{':
			depth++

		case ')', ']', '}':
			depth--

		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// getSignature returns the call signature of the function bound at name and
// its parameter names, or an empty signature if name is not a function.
func getSignature(env *lang.Env, name string) (signature string, params []string) {
	if env == nil {
		return "", nil
	}

	v, ok := env.Get(name)
	if !ok {
		return "", nil
	}

	fn, ok := v.Function()
	if !ok {
		return "", nil
	}

	// Show the path the user typed rather than the registered name.
	sig := fn.Signature()
	if i := strings.IndexByte(sig, '('); i >= 0 {
		sig = name + sig[i:]
	}

	return sig, signatureParams(sig)
}

// signatureParams extracts the parameter list of a signature such as
// "clamp(a, b, [c])" or "max(a, ...)".
func signatureParams(signature string) []string {
	open := strings.IndexByte(signature, '(')
	end := strings.LastIndexByte(signature, ')')

	if open < 0 || end <= open+1 {
		return nil
	}

	return strings.Split(signature[open+1:end], ", ")
}

// renderSignatureHint renders the function signature with the parameter at
// currentArgIdx highlighted. A trailing "..." absorbs every index past the
// fixed parameters.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	if signature == "" {
		return ""
	}

	openParen := strings.Index(signature, "(")
	if openParen == -1 || !strings.HasSuffix(signature, ")") {
		return signatureStyle.Render(signature)
	}

	funcName := signature[:openParen]

	if len(params) == 0 {
		return signatureNameStyle.Render(funcName) + signatureStyle.Render("()")
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(funcName))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")

		if (variadic && currentArgIdx >= i) || (!variadic && currentArgIdx == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
