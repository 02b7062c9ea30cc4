package objlit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Encoder writes parsed values back out as indented JSON.
//
// Indent is prepended to every line after the first and Unit is added once per nesting
// level, so an encoded value can be dropped into an existing document at any depth.
type Encoder struct {
	Indent string
	Unit   string
}

// DefaultEncoder writes two-space indented JSON with no outer indentation.
var DefaultEncoder = Encoder{Unit: "  "}

// Encode renders v. Objects keep their key order.
func (e Encoder) Encode(v any) string {
	var b strings.Builder
	e.writeValue(&b, v, 0)
	return b.String()
}

// EncodeEntries renders the members of obj as bare `"key": value` lines, each starting
// with Indent, without the surrounding braces and without a trailing comma.
func (e Encoder) EncodeEntries(obj *Object) string {
	var b strings.Builder
	first := true
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			b.WriteString(",\n")
		}
		first = false

		b.WriteString(e.Indent)
		b.WriteString(Quote(pair.Key))
		b.WriteString(": ")
		e.writeValue(&b, pair.Value, 0)
	}
	return b.String()
}

func (e Encoder) newline(b *strings.Builder, depth int) {
	b.WriteByte('\n')
	b.WriteString(e.Indent)
	b.WriteString(strings.Repeat(e.Unit, depth))
}

func (e Encoder) writeValue(b *strings.Builder, v any, depth int) {
	switch val := v.(type) {
	case *Object:
		if val == nil || val.Len() == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteByte('{')
		first := true
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				b.WriteByte(',')
			}
			first = false
			e.newline(b, depth+1)
			b.WriteString(Quote(pair.Key))
			b.WriteString(": ")
			e.writeValue(b, pair.Value, depth+1)
		}
		e.newline(b, depth)
		b.WriteByte('}')
	case map[string]any:
		obj := NewObject()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			obj.Set(k, val[k])
		}
		e.writeValue(b, obj, depth)
	case []any:
		if len(val) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			e.newline(b, depth+1)
			e.writeValue(b, item, depth+1)
		}
		e.newline(b, depth)
		b.WriteByte(']')
	case string:
		b.WriteString(Quote(val))
	case Number:
		b.WriteString(string(val))
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case nil:
		b.WriteString("null")
	case int:
		b.WriteString(strconv.Itoa(val))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	default:
		b.WriteString(Quote(fmt.Sprint(val)))
	}
}

// Quote returns s as a JSON string literal. HTML characters are left unescaped.
func Quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
