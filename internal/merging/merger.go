package merging

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/epiclabs-io/diff3"

	"github.com/i18nmerge/i18nmerge/internal/conflicts"
)

const (
	oursLabel   = "ours"
	theirsLabel = "theirs"
)

// TextMerger implements a line-based 3-way merge using the diff3 algorithm.
// Non-overlapping changes are combined and overlapping ones are left as git-style
// conflict markers labelled "ours" and "theirs".
type TextMerger struct{}

func NewTextMerger() *TextMerger {
	return &TextMerger{}
}

var _ Merger = (*TextMerger)(nil)

// Merge performs a 3-way merge of current and other against their common ancestor base.
func (m *TextMerger) Merge(base, current, other []byte) (*MergeResult, error) {
	res := &MergeResult{
		Status: MergeStatusClean,
	}

	switch {
	case bytes.Equal(current, other):
		res.Content = current
		res.Status = MergeStatusFastForward
		return res, nil
	case len(base) == 0:
		// Without an ancestor every line differs. Fall back to a two-way merge against
		// an empty base so both sides end up in markers.
		res.Status = MergeStatusCreated
	case bytes.Equal(current, base):
		res.Content = other
		res.Status = MergeStatusFastForward
		return res, nil
	case bytes.Equal(other, base):
		res.Content = current
		return res, nil
	}

	result, err := diff3.Merge(
		bytes.NewReader(current),
		bytes.NewReader(base),
		bytes.NewReader(other),
		true,
		oursLabel,
		theirsLabel,
	)
	if err != nil {
		return nil, fmt.Errorf("diff3 merge failed: %w", err)
	}

	merged, err := io.ReadAll(result.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to read merge result: %w", err)
	}
	res.Content = merged

	if result.Conflicts {
		res.Status = MergeStatusConflict
		res.HasConflicts = true
		res.Conflicts = locateConflicts(string(merged))
	}

	return res, nil
}

// locateConflicts reports the 1-indexed line span of each conflict region in merged.
func locateConflicts(merged string) []Conflict {
	var out []Conflict

	start := -1
	for i, line := range strings.Split(merged, "\n") {
		switch {
		case strings.HasPrefix(line, conflicts.StartToken+" "):
			start = i + 1
		case strings.HasPrefix(line, conflicts.EndToken+" ") && start != -1:
			out = append(out, Conflict{StartLine: start, EndLine: i + 1})
			start = -1
		}
	}

	return out
}
