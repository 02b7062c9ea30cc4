// Package objlit reads and writes JSON and JavaScript object-literal values without
// evaluating them.
//
// Objects keep their source key order and numbers keep their literal text, so a value
// that is parsed and written back only changes where it was actually edited.
package objlit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Mode selects the accepted grammar.
type Mode int

const (
	// Strict accepts RFC 8259 JSON only.
	Strict Mode = iota
	// Lenient accepts JavaScript object-literal syntax: single-quoted and backtick strings
	// (without interpolation), identifier keys, trailing commas, comments and undefined.
	Lenient
)

func (m Mode) String() string {
	if m == Lenient {
		return "lenient"
	}
	return "strict"
}

// Object is an insertion-ordered string-keyed map.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty Object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// Number is a numeric literal kept verbatim.
type Number string

// SyntaxError describes where parsing stopped.
type SyntaxError struct {
	Msg    string
	Offset int
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// Parse reads a single value spanning all of src.
func Parse(src string, mode Mode) (any, error) {
	p := &parser{src: src, mode: mode}

	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q after value", p.peekRune())
	}

	return v, nil
}

// ParseObject reads a value that must be an object.
func ParseObject(src string, mode Mode) (*Object, error) {
	v, err := Parse(src, mode)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %s", TypeName(v))
	}
	return obj, nil
}

// parsePrefix reads one value from the start of src and returns the offset just past it.
func parsePrefix(src string, mode Mode) (any, int, error) {
	p := &parser{src: src, mode: mode}

	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return nil, 0, err
	}
	return v, p.pos, nil
}

// TypeName names the dynamic type of a parsed value.
func TypeName(v any) string {
	switch v.(type) {
	case *Object:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

type parser struct {
	src  string
	pos  int
	mode Mode
}

func (p *parser) lenient() bool {
	return p.mode == Lenient
}

func (p *parser) errorf(format string, args ...any) error {
	line, col := 1, 1
	for _, r := range p.src[:min(p.pos, len(p.src))] {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Offset: p.pos, Line: line, Column: col}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) peekRune() rune {
	if p.eof() {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return r
}

func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case p.lenient() && strings.HasPrefix(p.src[p.pos:], "\ufeff"):
			p.pos += len("\ufeff")
		case p.lenient() && strings.HasPrefix(p.src[p.pos:], "//"):
			end := strings.IndexByte(p.src[p.pos:], '\n')
			if end == -1 {
				p.pos = len(p.src)
			} else {
				p.pos += end + 1
			}
		case p.lenient() && strings.HasPrefix(p.src[p.pos:], "/*"):
			end := strings.Index(p.src[p.pos+2:], "*/")
			if end == -1 {
				p.pos = len(p.src)
			} else {
				p.pos += end + 4
			}
		default:
			return
		}
	}
}

func (p *parser) parseValue() (any, error) {
	if p.eof() {
		return nil, p.errorf("unexpected end of input")
	}

	c := p.peek()
	switch {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		return p.parseString('"')
	case c == '\'' && p.lenient():
		return p.parseString('\'')
	case c == '`' && p.lenient():
		return p.parseTemplate()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case (c == '+' || c == '.') && p.lenient():
		return p.parseNumber()
	}

	word := p.scanIdentifier()
	switch word {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	case "undefined":
		if p.lenient() {
			return nil, nil
		}
	case "":
		return nil, p.errorf("unexpected %q", p.peekRune())
	}

	p.pos -= len(word)
	return nil, p.errorf("unexpected identifier %q", word)
}

func (p *parser) parseObject() (*Object, error) {
	p.pos++ // {
	obj := NewObject()

	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return obj, nil
	}

	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated object")
		}

		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}

		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':' after key %q", key)
		}
		p.pos++

		p.skipSpace()
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		obj.Set(key, value)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == '}' {
				if !p.lenient() {
					return nil, p.errorf("trailing comma in object")
				}
				p.pos++
				return obj, nil
			}
		case '}':
			p.pos++
			return obj, nil
		default:
			if p.eof() {
				return nil, p.errorf("unterminated object")
			}
			return nil, p.errorf("expected ',' or '}' in object, got %q", p.peekRune())
		}
	}
}

func (p *parser) parseKey() (string, error) {
	c := p.peek()
	switch {
	case c == '"':
		return p.parseString('"')
	case c == '\'' && p.lenient():
		return p.parseString('\'')
	case p.lenient() && c >= '0' && c <= '9':
		n, err := p.parseNumber()
		if err != nil {
			return "", err
		}
		return string(n), nil
	case p.lenient():
		if word := p.scanIdentifier(); word != "" {
			return word, nil
		}
	}
	return "", p.errorf("expected object key, got %q", p.peekRune())
}

func (p *parser) parseArray() ([]any, error) {
	p.pos++ // [
	arr := []any{}

	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return arr, nil
	}

	for {
		p.skipSpace()
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, value)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == ']' {
				if !p.lenient() {
					return nil, p.errorf("trailing comma in array")
				}
				p.pos++
				return arr, nil
			}
		case ']':
			p.pos++
			return arr, nil
		default:
			if p.eof() {
				return nil, p.errorf("unterminated array")
			}
			return nil, p.errorf("expected ',' or ']' in array, got %q", p.peekRune())
		}
	}
}

func (p *parser) parseString(quote byte) (string, error) {
	start := p.pos
	p.pos++ // opening quote

	var b strings.Builder
	for {
		if p.eof() {
			p.pos = start
			return "", p.errorf("unterminated string")
		}

		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if err := p.parseEscape(&b); err != nil {
				return "", err
			}
		case c < 0x20:
			if !p.lenient() || c == '\n' {
				return "", p.errorf("invalid control character in string")
			}
			b.WriteByte(c)
			p.pos++
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
}

// parseTemplate reads a backtick string. Interpolation is rejected since it would need
// evaluation.
func (p *parser) parseTemplate() (string, error) {
	p.pos++ // `

	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated template literal")
		}

		c := p.src[p.pos]
		switch {
		case c == '`':
			p.pos++
			return b.String(), nil
		case c == '$' && strings.HasPrefix(p.src[p.pos:], "${"):
			return "", p.errorf("template interpolation is not supported")
		case c == '\\':
			if err := p.parseEscape(&b); err != nil {
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
}

func (p *parser) parseEscape(b *strings.Builder) error {
	p.pos++ // backslash
	if p.eof() {
		return p.errorf("unterminated escape sequence")
	}

	c := p.src[p.pos]
	p.pos++
	switch c {
	case '"', '\\', '/':
		b.WriteByte(c)
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
	case 'u':
		r, err := p.parseUnicodeEscape()
		if err != nil {
			return err
		}
		b.WriteRune(r)
	default:
		if !p.lenient() {
			p.pos--
			return p.errorf("invalid escape sequence \\%c", c)
		}
		switch c {
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case 'x':
			if p.pos+2 > len(p.src) {
				return p.errorf("short \\x escape")
			}
			n, err := strconv.ParseUint(p.src[p.pos:p.pos+2], 16, 8)
			if err != nil {
				return p.errorf("invalid \\x escape")
			}
			b.WriteRune(rune(n))
			p.pos += 2
		case '\n':
			// line continuation
		case '\r':
			if p.peek() == '\n' {
				p.pos++
			}
		default:
			// Unknown escapes stand for the character itself, as in JavaScript.
			p.pos--
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
	return nil
}

func (p *parser) parseUnicodeEscape() (rune, error) {
	r1, err := p.readHex4()
	if err != nil {
		return 0, err
	}
	if !utf16.IsSurrogate(r1) {
		return r1, nil
	}
	if !strings.HasPrefix(p.src[p.pos:], `\u`) {
		return utf8.RuneError, nil
	}
	p.pos += 2
	r2, err := p.readHex4()
	if err != nil {
		return 0, err
	}
	return utf16.DecodeRune(r1, r2), nil
}

func (p *parser) readHex4() (rune, error) {
	if p.pos+4 > len(p.src) {
		return 0, p.errorf("short unicode escape")
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 32)
	if err != nil {
		return 0, p.errorf("invalid unicode escape")
	}
	p.pos += 4
	return rune(n), nil
}

var (
	jsonNumberRe    = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?(?:[eE][+-]?\d+)?`)
	lenientNumberRe = regexp.MustCompile(`^[+-]?(?:0[xX][0-9a-fA-F]+|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)
)

func (p *parser) parseNumber() (Number, error) {
	rest := p.src[p.pos:]

	if m := jsonNumberRe.FindString(rest); m != "" && !p.continuesNumber(len(m)) {
		p.pos += len(m)
		return Number(m), nil
	}
	if !p.lenient() {
		return "", p.errorf("invalid number")
	}

	m := lenientNumberRe.FindString(rest)
	if m == "" {
		return "", p.errorf("invalid number")
	}
	p.pos += len(m)
	return normalizeNumber(m)
}

// continuesNumber reports whether the JSON match is only the head of a longer lenient
// literal such as "0x1F" or "1." that must not be split.
func (p *parser) continuesNumber(n int) bool {
	if p.pos+n >= len(p.src) {
		return false
	}
	next := p.src[p.pos+n]
	return next == 'x' || next == 'X' || next == '.' || unicode.IsLetter(rune(next)) || (next >= '0' && next <= '9')
}

// normalizeNumber rewrites JavaScript-only numeric literals into JSON form.
func normalizeNumber(lit string) (Number, error) {
	sign := ""
	body := lit
	switch {
	case strings.HasPrefix(body, "+"):
		body = body[1:]
	case strings.HasPrefix(body, "-"):
		sign, body = "-", body[1:]
	}

	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		n, err := strconv.ParseUint(body[2:], 16, 64)
		if err != nil {
			return "", fmt.Errorf("invalid hex literal %q", lit)
		}
		return Number(sign + strconv.FormatUint(n, 10)), nil
	}

	f, err := strconv.ParseFloat(sign+body, 64)
	if err != nil {
		return "", fmt.Errorf("invalid number literal %q", lit)
	}
	return Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

func (p *parser) scanIdentifier() string {
	start := p.pos
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if r == '_' || r == '$' || unicode.IsLetter(r) || (p.pos > start && unicode.IsDigit(r)) {
			p.pos += size
			continue
		}
		break
	}
	return p.src[start:p.pos]
}
