package manifest

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokEquals
	tokColon
	tokComma
	tokAmp
	tokPipe
	tokAt
	tokNewline
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokEquals:
		return "'='"
	case tokColon:
		return "':'"
	case tokComma:
		return "','"
	case tokAmp:
		return "'&'"
	case tokPipe:
		return "'|'"
	case tokAt:
		return "'@'"
	case tokNewline:
		return "newline"
	default:
		return "token"
	}
}

// isIdentChar reports whether r may appear in an identifier: item refs, tag
// and option names, and context type names. Leading '/' (dependency tags)
// and leading/embedded '_' (escape-hatch tags such as `__draft`) are both
// identifier characters here.
func isIdentChar(r byte) bool {
	return r == '-' || r == '_' || r == '.' || r == '/' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func lex(src string) ([]token, error) {
	var toks []token
	line := 1
	i := 0
	n := len(src)

	for i < n {
		c := src[i]
		switch {
		case c == '\n':
			toks = append(toks, token{tokNewline, "\n", line})
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '(':
			toks = append(toks, token{tokLParen, "(", line})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", line})
			i++
		case c == '{':
			toks = append(toks, token{tokLBrace, "{", line})
			i++
		case c == '}':
			toks = append(toks, token{tokRBrace, "}", line})
			i++
		case c == '=':
			toks = append(toks, token{tokEquals, "=", line})
			i++
		case c == ':':
			toks = append(toks, token{tokColon, ":", line})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ",", line})
			i++
		case c == '&':
			toks = append(toks, token{tokAmp, "&", line})
			i++
		case c == '|':
			toks = append(toks, token{tokPipe, "|", line})
			i++
		case c == '@':
			toks = append(toks, token{tokAt, "@", line})
			i++
		case c == '"':
			start := line
			j := i + 1
			var sb strings.Builder
			closed := false
			for j < n {
				if src[j] == '\\' && j+1 < n {
					sb.WriteByte(src[j+1])
					j += 2
					continue
				}
				if src[j] == '"' {
					closed = true
					j++
					break
				}
				if src[j] == '\n' {
					line++
				}
				sb.WriteByte(src[j])
				j++
			}
			if !closed {
				return nil, fmt.Errorf("manifest: unterminated string starting on line %d", start)
			}
			toks = append(toks, token{tokString, sb.String(), start})
			i = j
		case isIdentChar(c):
			j := i
			for j < n && isIdentChar(src[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j], line})
			i = j
		default:
			return nil, fmt.Errorf("manifest: unexpected character %q on line %d", c, line)
		}
	}

	toks = append(toks, token{tokEOF, "", line})
	return toks, nil
}
