package record

import (
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// Lookup resolves a path-key against the nested document it was flattened
// from, the inverse of Flatten for a single leaf. The expression is built
// segment by segment rather than parsed as JSONPath, so dot segments such as
// "$.$ref" resolve as plain keys.
func Lookup(doc any, key string) (any, bool) {
	expr, ok := pathExpr(key)
	if !ok {
		return nil, false
	}
	if len(expr) == 1 {
		return doc, true
	}
	results := expr.Get(doc)
	if len(results) == 0 {
		return nil, false
	}
	return results[0], true
}

// pathExpr converts a path-key into a jp expression: .name and ['name']
// become child fragments, [n] an nth fragment.
func pathExpr(key string) (jp.Expr, bool) {
	if !strings.HasPrefix(key, Root) {
		return nil, false
	}
	expr := jp.R()
	rest := key[len(Root):]
	for rest != "" {
		switch {
		case strings.HasPrefix(rest, "['"):
			name, n, ok := quotedSegment(rest[2:])
			if !ok {
				return nil, false
			}
			expr = expr.C(name)
			rest = rest[2+n:]
		case rest[0] == '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, false
			}
			i, err := strconv.Atoi(rest[1:end])
			if err != nil {
				return nil, false
			}
			expr = expr.N(i)
			rest = rest[end+1:]
		case rest[0] == '.':
			end := strings.IndexAny(rest[1:], ".[")
			if end < 0 {
				end = len(rest) - 1
			}
			name := rest[1 : end+1]
			if name == "" {
				return nil, false
			}
			expr = expr.C(name)
			rest = rest[end+1:]
		default:
			return nil, false
		}
	}
	return expr, true
}

// quotedSegment reads an escaped key up to its closing "']". n counts the
// bytes consumed including the terminator.
func quotedSegment(s string) (name string, n int, ok bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], `\'`):
			b.WriteByte('\'')
			i++
		case strings.HasPrefix(s[i:], "']"):
			return b.String(), i + 2, true
		default:
			b.WriteByte(s[i])
		}
	}
	return "", 0, false
}
