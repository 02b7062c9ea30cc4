package objlit

import (
	"errors"
	"strings"
)

// ErrEmptyFragment is returned for fragments holding nothing but whitespace.
var ErrEmptyFragment = errors.New("empty fragment")

// Fragment records the layout of a piece of an object literal cut out of a larger
// document, so that a replacement can be written back in the same shape.
type Fragment struct {
	// Wrapped is set when the fragment was a complete `{...}` object rather than a bare
	// list of `key: value` members.
	Wrapped bool
	// TrailingComma is set when the fragment ended with a comma separating it from
	// members that follow outside of it.
	TrailingComma bool
	// Indent is the leading whitespace of the fragment's first line.
	Indent string
	// Unit is one level of nesting, detected from deeper lines.
	Unit string
	// CRLF is set when the fragment's lines end in "\r\n".
	CRLF bool
}

// ParseFragment parses text as either a complete object or a bare member list. One
// trailing comma is accepted in either form and recorded in the returned layout.
func ParseFragment(text string, mode Mode) (*Object, Fragment, error) {
	indent := leadingIndent(text)
	f := Fragment{
		Indent: indent,
		Unit:   detectUnit(text, indent),
		CRLF:   strings.Contains(text+"\n", "\r\n"),
	}

	body := strings.TrimSpace(text)
	if body == "" {
		return nil, f, ErrEmptyFragment
	}

	p := &parser{src: body, mode: mode}
	p.skipSpace()

	if p.peek() == '{' {
		if obj, trailing, err := p.parseWrapped(); err == nil {
			f.Wrapped = true
			f.TrailingComma = trailing
			return obj, f, nil
		}
		p.pos = 0
	}

	obj, trailing, err := p.parseMembers()
	if err != nil {
		return nil, f, err
	}
	f.TrailingComma = trailing
	return obj, f, nil
}

// parseWrapped reads a complete object followed by at most one comma.
func (p *parser) parseWrapped() (*Object, bool, error) {
	p.skipSpace()
	obj, err := p.parseObject()
	if err != nil {
		return nil, false, err
	}

	p.skipSpace()
	trailing := false
	if p.peek() == ',' {
		p.pos++
		trailing = true
		p.skipSpace()
	}
	if !p.eof() {
		return nil, false, p.errorf("unexpected %q after object", p.peekRune())
	}
	return obj, trailing, nil
}

// parseMembers reads `key: value` pairs up to the end of input.
func (p *parser) parseMembers() (*Object, bool, error) {
	obj := NewObject()
	trailing := false

	for {
		p.skipSpace()
		if p.eof() {
			break
		}

		key, err := p.parseKey()
		if err != nil {
			return nil, false, err
		}

		p.skipSpace()
		if p.peek() != ':' {
			return nil, false, p.errorf("expected ':' after key %q", key)
		}
		p.pos++

		p.skipSpace()
		value, err := p.parseValue()
		if err != nil {
			return nil, false, err
		}
		obj.Set(key, value)

		p.skipSpace()
		trailing = false
		if p.peek() == ',' {
			p.pos++
			trailing = true
			continue
		}
		if !p.eof() {
			return nil, false, p.errorf("expected ',' between members, got %q", p.peekRune())
		}
	}

	if obj.Len() == 0 {
		return nil, false, ErrEmptyFragment
	}
	return obj, trailing, nil
}

// Render writes obj in the layout the fragment was read with. CRLF output keeps the
// final "\r" since the fragment's last line ends before its "\n".
func (f Fragment) Render(obj *Object) string {
	enc := Encoder{Indent: f.Indent, Unit: f.Unit}

	var out string
	switch {
	case f.Wrapped:
		out = f.Indent + enc.Encode(obj)
	case obj.Len() == 0:
		return ""
	default:
		out = enc.EncodeEntries(obj)
	}

	if f.TrailingComma {
		out += ","
	}
	if f.CRLF {
		out = strings.ReplaceAll(out, "\n", "\r\n") + "\r"
	}
	return out
}

func leadingIndent(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed == "" || isCommentLine(trimmed) {
			continue
		}
		return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	}
	return ""
}

// detectUnit finds the smallest indentation step below base. Tabs win when any deeper
// line is tab indented.
func detectUnit(text, base string) string {
	unit := ""
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" || !strings.HasPrefix(line, base) {
			continue
		}
		rest := line[len(base):]
		ws := rest[:len(rest)-len(strings.TrimLeft(rest, " \t"))]
		if ws == "" {
			continue
		}
		if strings.HasPrefix(ws, "\t") {
			return "\t"
		}
		if unit == "" || len(ws) < len(unit) {
			unit = ws
		}
	}
	if unit == "" {
		return DefaultEncoder.Unit
	}
	return unit
}

func isCommentLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*")
}
