package literal

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError describes a syntax error in a Python-literal string. Offset is
// the byte position in the input where the unexpected token starts.
type ParseError struct {
	Offset   int
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("literal: offset %d: expected %s, found %s", e.Offset, e.Expected, e.Found)
}

// Parse is the inverse of Serialize: it reads a CheckMK Python-literal
// string and reconstructs the JSON value model. Tuples and bracket lists
// both come back as []any, mappings as *Map and numbers as json.Number.
//
// Parse cannot tell a genuine two-number tuple from a JSON array that
// happened to contain two numbers; both forms serialize identically, so
// both parse back to a 2-element slice. Callers doing backup/restore must
// accept that boundary.
func Parse(input string) (any, error) {
	p := &parser{lex: newLexer(input)}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokenEOF {
		return nil, &ParseError{Offset: tok.offset, Expected: "end of input", Found: tok.describe()}
	}
	return v, nil
}

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenLeftBrace
	tokenRightBrace
	tokenLeftParen
	tokenRightParen
	tokenLeftBracket
	tokenRightBracket
	tokenComma
	tokenColon
	tokenString
	tokenNumber
	tokenTrue
	tokenFalse
	tokenNone
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

func (t token) describe() string {
	switch t.kind {
	case tokenEOF:
		return "end of input"
	case tokenString:
		return fmt.Sprintf("string %q", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

type lexer struct {
	input  string
	pos    int
	peeked *token
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) peek() (token, error) {
	if l.peeked == nil {
		tok, err := l.scan()
		if err != nil {
			return token{}, err
		}
		l.peeked = &tok
	}
	return *l.peeked, nil
}

func (l *lexer) next() (token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	return l.scan()
}

func (l *lexer) scan() (token, error) {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, offset: l.pos}, nil
	}
	start := l.pos
	c := l.input[l.pos]
	switch {
	case c == '{':
		l.pos++
		return token{tokenLeftBrace, "{", start}, nil
	case c == '}':
		l.pos++
		return token{tokenRightBrace, "}", start}, nil
	case c == '(':
		l.pos++
		return token{tokenLeftParen, "(", start}, nil
	case c == ')':
		l.pos++
		return token{tokenRightParen, ")", start}, nil
	case c == '[':
		l.pos++
		return token{tokenLeftBracket, "[", start}, nil
	case c == ']':
		l.pos++
		return token{tokenRightBracket, "]", start}, nil
	case c == ',':
		l.pos++
		return token{tokenComma, ",", start}, nil
	case c == ':':
		l.pos++
		return token{tokenColon, ":", start}, nil
	case c == '\'' || c == '"':
		return l.scanString(c)
	case c == '-' || c == '+' || isDigit(c):
		return l.scanNumber()
	case isAlpha(c):
		return l.scanKeyword()
	default:
		return token{}, &ParseError{Offset: start, Expected: "a value", Found: fmt.Sprintf("%q", string(c))}
	}
}

func (l *lexer) scanString(quote byte) (token, error) {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch c {
		case quote:
			l.pos++
			return token{tokenString, sb.String(), start}, nil
		case '\\':
			if l.pos+1 >= len(l.input) {
				return token{}, &ParseError{Offset: l.pos, Expected: "escape sequence", Found: "end of input"}
			}
			l.pos++
			switch esc := l.input[l.pos]; esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				// \' \" \\ and anything else pass through literally.
				sb.WriteByte(esc)
			}
			l.pos++
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return token{}, &ParseError{Offset: start, Expected: "closing quote", Found: "end of input"}
}

func (l *lexer) scanNumber() (token, error) {
	start := l.pos
	if c := l.input[l.pos]; c == '-' || c == '+' {
		l.pos++
	}
	digits := 0
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
		digits++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
			digits++
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '-' || l.input[l.pos] == '+') {
			l.pos++
		}
		expDigits := 0
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
			expDigits++
		}
		if expDigits == 0 {
			return token{}, &ParseError{Offset: l.pos, Expected: "exponent digits", Found: remainderAt(l.input, l.pos)}
		}
	}
	if digits == 0 {
		return token{}, &ParseError{Offset: start, Expected: "a number", Found: remainderAt(l.input, start)}
	}
	return token{tokenNumber, l.input[start:l.pos], start}, nil
}

func (l *lexer) scanKeyword() (token, error) {
	start := l.pos
	for l.pos < len(l.input) && isAlpha(l.input[l.pos]) {
		l.pos++
	}
	word := l.input[start:l.pos]
	switch word {
	case "True":
		return token{tokenTrue, word, start}, nil
	case "False":
		return token{tokenFalse, word, start}, nil
	case "None":
		return token{tokenNone, word, start}, nil
	default:
		return token{}, &ParseError{Offset: start, Expected: "True, False or None", Found: fmt.Sprintf("%q", word)}
	}
}

func remainderAt(input string, pos int) string {
	if pos >= len(input) {
		return "end of input"
	}
	rest := input[pos:]
	if len(rest) > 10 {
		rest = rest[:10]
	}
	return fmt.Sprintf("%q", rest)
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

type parser struct {
	lex *lexer
}

func (p *parser) parseValue() (any, error) {
	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokenLeftBrace:
		return p.parseMapping()
	case tokenLeftParen:
		return p.parseSequence(tokenRightParen, ")")
	case tokenLeftBracket:
		return p.parseSequence(tokenRightBracket, "]")
	case tokenString:
		return tok.text, nil
	case tokenNumber:
		return json.Number(tok.text), nil
	case tokenTrue:
		return true, nil
	case tokenFalse:
		return false, nil
	case tokenNone:
		return nil, nil
	default:
		return nil, &ParseError{Offset: tok.offset, Expected: "a value", Found: tok.describe()}
	}
}

// parseMapping consumes '{' ... '}' with the opening brace already read.
func (p *parser) parseMapping() (any, error) {
	m := NewMap()
	for {
		tok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokenRightBrace {
			return m, nil
		}
		if tok.kind != tokenString {
			return nil, &ParseError{Offset: tok.offset, Expected: "a quoted key or \"}\"", Found: tok.describe()}
		}
		key := tok.text
		colon, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		if colon.kind != tokenColon {
			return nil, &ParseError{Offset: colon.offset, Expected: "\":\"", Found: colon.describe()}
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		m.Set(key, val)
		sep, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		switch sep.kind {
		case tokenComma:
			// Allow a trailing comma before the closing brace.
			next, err := p.lex.peek()
			if err != nil {
				return nil, err
			}
			if next.kind == tokenRightBrace {
				p.lex.next()
				return m, nil
			}
		case tokenRightBrace:
			return m, nil
		default:
			return nil, &ParseError{Offset: sep.offset, Expected: "\",\" or \"}\"", Found: sep.describe()}
		}
	}
}

// parseSequence consumes a tuple or list body with the opening delimiter
// already read. The forced trailing comma of a one-tuple collapses back to
// a single-element slice.
func (p *parser) parseSequence(closing tokenKind, closingText string) (any, error) {
	seq := []any{}
	for {
		tok, err := p.lex.peek()
		if err != nil {
			return nil, err
		}
		if tok.kind == closing {
			p.lex.next()
			return seq, nil
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		seq = append(seq, val)
		sep, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		switch sep.kind {
		case tokenComma:
			continue
		case closing:
			return seq, nil
		default:
			return nil, &ParseError{
				Offset:   sep.offset,
				Expected: fmt.Sprintf("\",\" or %q", closingText),
				Found:    sep.describe(),
			}
		}
	}
}
