package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// renderAnnotation converts a type-annotation node into its canonical string
// form: subscripted generics become "Base[inner]" recursively, tuple-shaped
// subscripts join their elements with ", ", string annotations (forward
// references) lose their quotes.
func renderAnnotation(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "type":
		// A `type` node wraps the actual annotation expression.
		if node.NamedChildCount() > 0 {
			return renderAnnotation(node.NamedChild(0), src)
		}
		return textOf(node, src)
	case "subscript":
		value := node.ChildByFieldName("value")
		base := renderAnnotation(value, src)
		var inner []string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if value != nil && child.StartByte() == value.StartByte() && child.EndByte() == value.EndByte() {
				continue
			}
			inner = append(inner, renderAnnotation(child, src))
		}
		return base + "[" + strings.Join(inner, ", ") + "]"
	case "tuple":
		var parts []string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			parts = append(parts, renderAnnotation(node.NamedChild(i), src))
		}
		return strings.Join(parts, ", ")
	case "string":
		return stripQuotes(textOf(node, src))
	default:
		return textOf(node, src)
	}
}

// simpleName resolves an expression to a dotted identifier, or "" when the
// expression has no simple name (lambdas, subscripts, literals...).
func simpleName(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "identifier", "attribute", "dotted_name":
		return textOf(node, src)
	default:
		return ""
	}
}

// decoratorName extracts the name of a decorator expression. Calls resolve to
// their callee, so "@app.route(...)" yields "app.route".
func decoratorName(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	if node.Type() == "call" {
		return decoratorName(node.ChildByFieldName("function"), src)
	}
	return simpleName(node, src)
}

func textOf(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	return node.Content(src)
}

func stripQuotes(s string) string {
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
