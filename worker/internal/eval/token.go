package eval

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokNumber
	tokString
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokComma
	tokSemicolon
	tokOperator
)

type token struct {
	text string
	typ  tokenType
	pos  int
}

func (t token) String() string {
	if t.typ == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

// tokenize splits the expression into tokens. Whitespace separates
// tokens but is otherwise dropped; bracket literals recover it through
// token adjacency.
func tokenize(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '[':
			toks = append(toks, token{typ: tokLBracket, text: "[", pos: i})
			i++
		case r == ']':
			toks = append(toks, token{typ: tokRBracket, text: "]", pos: i})
			i++
		case r == '(':
			toks = append(toks, token{typ: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{typ: tokRParen, text: ")", pos: i})
			i++
		case r == ',':
			toks = append(toks, token{typ: tokComma, text: ",", pos: i})
			i++
		case r == ';':
			toks = append(toks, token{typ: tokSemicolon, text: ";", pos: i})
			i++
		case strings.ContainsRune("+-*/^", r):
			toks = append(toks, token{typ: tokOperator, text: string(r), pos: i})
			i++
		case r == '"':
			text, next, err := scanString(runes, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{typ: tokString, text: text, pos: i})
			i = next
		case r >= '0' && r <= '9' || r == '.':
			start := i
			for i < len(runes) && isNumberRune(runes, i) {
				i++
			}
			toks = append(toks, token{typ: tokNumber, text: string(runes[start:i]), pos: start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_' || runes[i] == '!') {
				i++
			}
			toks = append(toks, token{typ: tokIdent, text: string(runes[start:i]), pos: start})
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", r, i)
		}
	}
	toks = append(toks, token{typ: tokEOF, pos: len(runes)})
	return toks, nil
}

// isNumberRune accepts digits, a decimal point, and exponent notation
// including a sign directly after e or E.
func isNumberRune(runes []rune, i int) bool {
	r := runes[i]
	if r >= '0' && r <= '9' || r == '.' || r == 'e' || r == 'E' {
		return true
	}
	if (r == '+' || r == '-') && i > 0 && (runes[i-1] == 'e' || runes[i-1] == 'E') {
		return true
	}
	return false
}

// scanString consumes a double-quoted string starting at runes[start],
// resolving the escapes the literal encoder produces. Returns the
// unescaped text and the index past the closing quote.
func scanString(runes []rune, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(runes) {
		r := runes[i]
		switch r {
		case '"':
			return b.String(), i + 1, nil
		case '\\':
			if i+1 >= len(runes) {
				return "", 0, fmt.Errorf("unterminated escape at offset %d", i)
			}
			i++
			switch runes[i] {
			case '\\':
				b.WriteRune('\\')
			case '"':
				b.WriteRune('"')
			case 'n':
				b.WriteRune('\n')
			case 'r':
				b.WriteRune('\r')
			case 't':
				b.WriteRune('\t')
			case '$':
				b.WriteRune('$')
			default:
				return "", 0, fmt.Errorf("unknown escape \\%c at offset %d", runes[i], i)
			}
			i++
		default:
			b.WriteRune(r)
			i++
		}
	}
	return "", 0, fmt.Errorf("unterminated string starting at offset %d", start)
}
