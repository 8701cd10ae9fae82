package pyast

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// stringPrefix returns the prefix letters (r, b, u, f in any case) of a literal.
func stringPrefix(lit string) string {
	i := strings.IndexAny(lit, `'"`)
	if i < 0 {
		return ""
	}
	return lit[:i]
}

// StringValue decodes a string or concatenated_string literal. It reports
// false for f-strings and anything that is not a string literal.
func StringValue(n *sitter.Node, src []byte) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "string":
		return decodeString(n.Content(src))
	case "concatenated_string":
		var b strings.Builder
		for i := 0; i < int(n.NamedChildCount()); i++ {
			part, ok := StringValue(n.NamedChild(i), src)
			if !ok {
				return "", false
			}
			b.WriteString(part)
		}
		return b.String(), true
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return StringValue(n.NamedChild(0), src)
		}
	}
	return "", false
}

func decodeString(lit string) (string, bool) {
	prefix := strings.ToLower(stringPrefix(lit))
	if strings.Contains(prefix, "f") {
		return "", false
	}
	body := lit[len(prefix):]
	var quote string
	switch {
	case strings.HasPrefix(body, `"""`), strings.HasPrefix(body, `'''`):
		quote = body[:3]
	case len(body) > 0:
		quote = body[:1]
	default:
		return "", false
	}
	if len(body) < 2*len(quote) || !strings.HasSuffix(body, quote) {
		return "", false
	}
	body = body[len(quote) : len(body)-len(quote)]
	if strings.Contains(prefix, "r") {
		return body, true
	}
	return unescape(body, strings.Contains(prefix, "b")), true
}

// unescape applies Python escape sequences. Unknown escapes are kept
// verbatim, matching the interpreter.
func unescape(s string, bytesLit bool) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case 'x':
			if v, ok := hexRune(s, i+1, 2); ok {
				if bytesLit {
					b.WriteByte(byte(v))
				} else {
					b.WriteRune(v)
				}
				i += 2
			} else {
				b.WriteString(`\x`)
			}
		case 'u', 'U':
			width := 4
			if e == 'U' {
				width = 8
			}
			if v, ok := hexRune(s, i+1, width); ok && !bytesLit && utf8.ValidRune(v) {
				b.WriteRune(v)
				i += width
			} else {
				b.WriteByte('\\')
				b.WriteByte(e)
			}
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			if bytesLit {
				b.WriteByte(byte(v))
			} else {
				b.WriteRune(rune(v))
			}
			i = j - 1
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String()
}

func hexRune(s string, at, width int) (rune, bool) {
	if at+width > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[at:at+width], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

// Literal renders a constant expression the way rules compare against it:
// True/False/None as their names, identifiers as their text, numbers as
// int64 or float64, strings decoded, and containers recursively. Anything
// else yields nil.
func Literal(n *sitter.Node, src []byte) any {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "true":
		return "True"
	case "false":
		return "False"
	case "none":
		return "None"
	case "identifier":
		return n.Content(src)
	case "integer":
		text := strings.ToLower(n.Content(src))
		text = strings.TrimSuffix(strings.TrimSuffix(text, "l"), "j")
		if v, err := strconv.ParseInt(text, 0, 64); err == nil {
			return v
		}
		if v, err := strconv.ParseFloat(text, 64); err == nil {
			return v
		}
		return nil
	case "float":
		text := strings.TrimSuffix(strings.ToLower(n.Content(src)), "j")
		if v, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64); err == nil {
			return v
		}
		return nil
	case "string", "concatenated_string":
		if s, ok := StringValue(n, src); ok {
			return s
		}
		return nil
	case "unary_operator":
		arg := Literal(n.ChildByFieldName("argument"), src)
		if op := n.ChildByFieldName("operator"); op != nil && op.Content(src) == "-" {
			switch v := arg.(type) {
			case int64:
				return -v
			case float64:
				return -v
			}
		}
		return arg
	case "list", "tuple", "set":
		out := make([]any, 0, n.NamedChildCount())
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c.Type() != "comment" {
				out = append(out, Literal(c, src))
			}
		}
		return out
	case "dictionary":
		out := make(map[string]any, n.NamedChildCount())
		for i := 0; i < int(n.NamedChildCount()); i++ {
			pair := n.NamedChild(i)
			if pair.Type() != "pair" {
				continue
			}
			key := Literal(pair.ChildByFieldName("key"), src)
			out[fmt.Sprint(key)] = Literal(pair.ChildByFieldName("value"), src)
		}
		return out
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return Literal(n.NamedChild(0), src)
		}
	}
	return nil
}
