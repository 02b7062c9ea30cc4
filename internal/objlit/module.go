package objlit

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	importRe      = regexp.MustCompile(`^import\s[^;\n]*;?`)
	useStrictRe   = regexp.MustCompile(`^(?:"use strict"|'use strict');?`)
	exportHeadRe  = regexp.MustCompile(`^(?:export\s+default\s+|module\.exports\s*=\s*|(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*)`)
	typeSuffixRe  = regexp.MustCompile(`^(?:as\s+const\b|satisfies\s+[\w$.]+(?:<[^;\n]*>)?(?:\[\])*)`)
	exportNameRe  = regexp.MustCompile(`^export\s+default\s+([A-Za-z_$][\w$]*)\s*;?`)
	exportBraceRe = regexp.MustCompile(`^export\s*\{\s*([A-Za-z_$][\w$]*)\s+as\s+default\s*\}\s*;?`)
)

// StripModuleWrapper returns the object-literal expression a JavaScript or TypeScript
// module default-exports. It accepts `export default {...}`, `module.exports = {...}` and
// `const x = {...}; export default x`, each optionally followed by `as const`,
// `satisfies T` and a semicolon. Source without any wrapper is returned trimmed.
func StripModuleWrapper(src string) (string, error) {
	_, expr, err := splitModule(src)
	return expr, err
}

// ParseModule strips the module wrapper from src and parses the exported expression
// leniently.
func ParseModule(src string) (any, error) {
	v, _, err := splitModule(src)
	return v, err
}

func splitModule(src string) (any, string, error) {
	rest := skipPreamble(src)

	head := exportHeadRe.FindStringSubmatch(rest)
	binding := ""
	if head != nil {
		rest = rest[len(head[0]):]
		binding = head[1]
	}

	v, end, err := parsePrefix(rest, Lenient)
	if err != nil {
		return nil, "", err
	}
	expr := strings.TrimSpace(rest[:end])

	if err := checkModuleTail(rest[end:], binding); err != nil {
		return nil, "", err
	}

	return v, expr, nil
}

// skipPreamble drops leading whitespace, comments, imports and directives.
func skipPreamble(src string) string {
	rest := strings.TrimPrefix(src, "\ufeff")
	for {
		rest = skipTrivia(rest)
		if m := importRe.FindString(rest); m != "" {
			rest = rest[len(m):]
			continue
		}
		if m := useStrictRe.FindString(rest); m != "" {
			rest = rest[len(m):]
			continue
		}
		return rest
	}
}

// checkModuleTail verifies that nothing but type assertions, semicolons, comments and a
// re-export of binding follow the exported expression.
func checkModuleTail(tail, binding string) error {
	rest := skipTrivia(tail)
	for rest != "" {
		switch {
		case strings.HasPrefix(rest, ";"):
			rest = rest[1:]
		case typeSuffixRe.MatchString(rest):
			rest = rest[len(typeSuffixRe.FindString(rest)):]
		case binding != "" && exportNameRe.MatchString(rest):
			m := exportNameRe.FindStringSubmatch(rest)
			if m[1] != binding {
				return fmt.Errorf("module exports %q but declares %q", m[1], binding)
			}
			rest = rest[len(m[0]):]
		case binding != "" && exportBraceRe.MatchString(rest):
			m := exportBraceRe.FindStringSubmatch(rest)
			if m[1] != binding {
				return fmt.Errorf("module exports %q but declares %q", m[1], binding)
			}
			rest = rest[len(m[0]):]
		default:
			return fmt.Errorf("unexpected content after exported value: %q", preview(rest))
		}
		rest = skipTrivia(rest)
	}
	return nil
}

func skipTrivia(s string) string {
	p := &parser{src: s, mode: Lenient}
	p.skipSpace()
	return s[p.pos:]
}

func preview(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	if len(line) > 40 {
		return line[:40] + "..."
	}
	return line
}
