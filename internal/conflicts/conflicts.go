// Package conflicts detects and rewrites git conflict-marker regions in plain text.
//
// A region looks like:
//
//	<<<<<<< label
//	...ours...
//	||||||| label      (optional, diff3 base)
//	...base...
//	=======
//	...theirs...
//	>>>>>>> label
//
// Marker lines are matched as whole lines. Anything that does not form a complete
// start/middle/end triple is left alone.
package conflicts

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AlekSi/pointer"
)

const (
	StartToken  = "<<<<<<<"
	BaseToken   = "|||||||"
	MiddleToken = "======="
	EndToken    = ">>>>>>>"
)

var (
	startRe  = regexp.MustCompile(`^<{7} (.+)$`)
	baseRe   = regexp.MustCompile(`^\|{7} (.+)$`)
	middleRe = regexp.MustCompile(`^={7}$`)
	endRe    = regexp.MustCompile(`^>{7} (.+)$`)
)

// Section is one conflict region.
type Section struct {
	Ours   string
	Theirs string
	// Base is nil unless the region carried a diff3 base block.
	Base *string

	OursLabel   string
	BaseLabel   string
	TheirsLabel string

	startLine int
	endLine   int
}

// HasBase reports whether the section carries a diff3 base block.
func (s Section) HasBase() bool {
	return s.Base != nil
}

// Lines returns the number of document lines the section spans, markers included.
func (s Section) Lines() int {
	return s.endLine - s.startLine + 1
}

// ResolveFunc produces the replacement text for a single section.
type ResolveFunc func(section Section) (string, error)

// ContainsMarkerTokens is a cheap substring check. It does not validate structure and
// should only be used to prefilter candidates.
func ContainsMarkerTokens(text string) bool {
	return strings.Contains(text, StartToken) &&
		strings.Contains(text, MiddleToken) &&
		strings.Contains(text, EndToken)
}

// ContainsMarkerLines reports whether any line is a start or end marker, well-formed
// region or not.
func ContainsMarkerLines(text string) bool {
	for _, line := range splitLines(text) {
		if isStart(line) || isEnd(line) {
			return true
		}
	}
	return false
}

// HasMarkers reports whether text contains at least one well-formed conflict region and
// the number of start markers equals the number of end markers.
func HasMarkers(text string) bool {
	lines := splitLines(text)

	starts, ends := 0, 0
	for _, line := range lines {
		switch {
		case isStart(line):
			starts++
		case isEnd(line):
			ends++
		}
	}
	if starts == 0 || starts != ends {
		return false
	}

	return len(parseLines(lines)) > 0
}

// Parse extracts every well-formed conflict section in document order. Malformed
// candidates are skipped; Parse never fails.
func Parse(text string) []Section {
	return parseLines(splitLines(text))
}

// Resolve replaces every conflict section in text with the output of fn. Sections are
// spliced from last to first so that earlier line indices stay valid. If fn returns an
// error nothing is rewritten and the error is returned.
func Resolve(text string, fn ResolveFunc) (string, error) {
	lines := splitLines(text)
	sections := parseLines(lines)
	if len(sections) == 0 {
		return text, nil
	}

	replacements := make([][]string, len(sections))
	for i, section := range sections {
		resolved, err := fn(section)
		if err != nil {
			return "", fmt.Errorf("conflict at line %d: %w", section.startLine+1, err)
		}
		replacements[i] = replacementLines(resolved)
	}

	for i := len(sections) - 1; i >= 0; i-- {
		section := sections[i]

		tail := lines[section.endLine+1:]
		spliced := make([]string, 0, section.startLine+len(replacements[i])+len(tail))
		spliced = append(spliced, lines[:section.startLine]...)
		spliced = append(spliced, replacements[i]...)
		spliced = append(spliced, tail...)
		lines = spliced
	}

	return strings.Join(lines, "\n"), nil
}

func parseLines(lines []string) []Section {
	var sections []Section

	i := 0
	for i < len(lines) {
		if !isStart(lines[i]) {
			i++
			continue
		}

		section, ok := scanSection(lines, i)
		if !ok {
			// Resume right after the malformed start marker.
			i++
			continue
		}

		sections = append(sections, section)
		i = section.endLine + 1
	}

	return sections
}

// scanSection tries to read a complete section whose start marker is at lines[start].
func scanSection(lines []string, start int) (Section, bool) {
	baseLine, middleLine, endLine := -1, -1, -1

	for j := start + 1; j < len(lines); j++ {
		line := lines[j]
		if isStart(line) {
			return Section{}, false
		}
		if baseLine == -1 && isBase(line) {
			baseLine = j
			continue
		}
		if isMiddle(line) {
			middleLine = j
			break
		}
	}
	if middleLine == -1 {
		return Section{}, false
	}

	for k := middleLine + 1; k < len(lines); k++ {
		line := lines[k]
		if isStart(line) {
			return Section{}, false
		}
		if isEnd(line) {
			endLine = k
			break
		}
	}
	if endLine == -1 {
		return Section{}, false
	}

	oursEnd := middleLine
	if baseLine != -1 {
		oursEnd = baseLine
	}

	section := Section{
		Ours:        strings.Join(lines[start+1:oursEnd], "\n"),
		Theirs:      strings.Join(lines[middleLine+1:endLine], "\n"),
		OursLabel:   label(startRe, lines[start]),
		TheirsLabel: label(endRe, lines[endLine]),
		startLine:   start,
		endLine:     endLine,
	}
	if baseLine != -1 {
		section.Base = pointer.ToString(strings.Join(lines[baseLine+1:middleLine], "\n"))
		section.BaseLabel = label(baseRe, lines[baseLine])
	}

	return section, true
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

// replacementLines splits resolved text into lines. Empty text removes the region.
func replacementLines(resolved string) []string {
	if resolved == "" {
		return nil
	}
	return strings.Split(resolved, "\n")
}

func trimCR(line string) string {
	return strings.TrimSuffix(line, "\r")
}

func isStart(line string) bool  { return startRe.MatchString(trimCR(line)) }
func isBase(line string) bool   { return baseRe.MatchString(trimCR(line)) }
func isMiddle(line string) bool { return middleRe.MatchString(trimCR(line)) }
func isEnd(line string) bool    { return endRe.MatchString(trimCR(line)) }

func label(re *regexp.Regexp, line string) string {
	m := re.FindStringSubmatch(trimCR(line))
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
