package merging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i18nmerge/i18nmerge/internal/objlit"
)

func TestTextMerger_Merge_CleanMerge(t *testing.T) {
	t.Parallel()

	// Ours changed line 2, theirs changed line 4
	base := []byte("line 1\nline 2\nline 3\nline 4\n")
	current := []byte("line 1\nline 2 changed on ours\nline 3\nline 4\n")
	other := []byte("line 1\nline 2\nline 3\nline 4 changed on theirs\n")

	result, err := NewTextMerger().Merge(base, current, other)
	require.NoError(t, err)

	assert.Equal(t, MergeStatusClean, result.Status)
	assert.False(t, result.HasConflicts)
	assert.Contains(t, string(result.Content), "line 2 changed on ours")
	assert.Contains(t, string(result.Content), "line 4 changed on theirs")
}

func TestTextMerger_Merge_ConflictMarkers(t *testing.T) {
	t.Parallel()

	base := []byte("line 1\nline 2\nline 3\n")
	current := []byte("line 1\nline 2 changed on ours\nline 3\n")
	other := []byte("line 1\nline 2 changed on theirs\nline 3\n")

	result, err := NewTextMerger().Merge(base, current, other)
	require.NoError(t, err)

	assert.Equal(t, MergeStatusConflict, result.Status)
	assert.True(t, result.HasConflicts)

	content := string(result.Content)
	assert.Contains(t, content, "<<<<<<< ours")
	assert.Contains(t, content, "=======")
	assert.Contains(t, content, ">>>>>>> theirs")
	assert.Contains(t, content, "changed on ours")
	assert.Contains(t, content, "changed on theirs")
	assert.NotEmpty(t, result.Conflicts)
}

func TestTextMerger_Merge_FastPaths(t *testing.T) {
	t.Parallel()

	base := []byte("line 1\nline 2\n")
	grown := []byte("line 1\nline 2\nline 3\n")

	tests := []struct {
		name    string
		base    []byte
		current []byte
		other   []byte
		status  MergeStatus
		want    []byte
	}{
		{name: "identical sides", base: base, current: grown, other: grown, status: MergeStatusFastForward, want: grown},
		{name: "ours unchanged", base: base, current: base, other: grown, status: MergeStatusFastForward, want: grown},
		{name: "theirs unchanged", base: base, current: grown, other: base, status: MergeStatusClean, want: grown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result, err := NewTextMerger().Merge(tt.base, tt.current, tt.other)
			require.NoError(t, err)
			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, string(tt.want), string(result.Content))
		})
	}
}

func TestTextMerger_Merge_NoBaseKeepsBothSides(t *testing.T) {
	t.Parallel()

	result, err := NewTextMerger().Merge(nil, []byte("ours created this\n"), []byte("theirs created this\n"))
	require.NoError(t, err)

	assert.True(t, result.HasConflicts)
	assert.Contains(t, string(result.Content), "ours created this")
	assert.Contains(t, string(result.Content), "theirs created this")
}

func TestTextMerger_Merge_MultipleConflicts(t *testing.T) {
	t.Parallel()

	base := []byte("line 1\nline 2\nline 3\nline 4\n")
	current := []byte("line 1 ours\nline 2\nline 3 ours\nline 4\n")
	other := []byte("line 1 theirs\nline 2\nline 3 theirs\nline 4\n")

	result, err := NewTextMerger().Merge(base, current, other)
	require.NoError(t, err)

	assert.Equal(t, MergeStatusConflict, result.Status)
	assert.GreaterOrEqual(t, len(result.Conflicts), 2)
}

func TestTextMerger_ThenResolveDictionary(t *testing.T) {
	t.Parallel()

	module := func(greeting string) []byte {
		return []byte(strings.Join([]string{
			"export default {",
			"  version: 1,",
			"  files: {",
			"    'app.tsx': {",
			"      entries: {",
			"        " + greeting,
			"        farewell: { content: { en: 'Bye' }, hash: 'b' },",
			"      },",
			"    },",
			"  },",
			"};",
			"",
		}, "\n"))
	}

	base := module("greeting: { content: { en: 'Hi' }, hash: 'a' },")
	current := module("greeting: { content: { en: 'Hi', es: 'Hola' }, hash: 'a' },")
	other := module("greeting: { content: { en: 'Hello there', fr: 'Bonjour' }, hash: 'a' },")

	merged, err := NewTextMerger().Merge(base, current, other)
	require.NoError(t, err)
	require.True(t, merged.HasConflicts)

	res := Resolve(string(merged.Content), "src/dictionary.ts", Config{})
	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, 1, res.ConflictsResolved)

	v, err := objlit.ParseModule(res.Content)
	require.NoError(t, err)

	files, _ := v.(*objlit.Object).Get("files")
	app, _ := files.(*objlit.Object).Get("app.tsx")
	entries, _ := app.(*objlit.Object).Get("entries")
	assert.Equal(t, []string{"greeting", "farewell"}, keys(entries.(*objlit.Object)))

	greeting, _ := entries.(*objlit.Object).Get("greeting")
	content, _ := greeting.(*objlit.Object).Get("content")
	assert.Equal(t, []string{"en", "es", "fr"}, keys(content.(*objlit.Object)))
}

func TestLocateConflicts(t *testing.T) {
	t.Parallel()

	content := `line 1
<<<<<<< ours
ours version
=======
theirs version
>>>>>>> theirs
line 2
<<<<<<< ours
another ours change
=======
another theirs change
>>>>>>> theirs
line 3`

	assert.Equal(t, []Conflict{{StartLine: 2, EndLine: 6}, {StartLine: 8, EndLine: 12}}, locateConflicts(content))
	assert.Empty(t, locateConflicts("line 1\nline 2\nline 3\n"))
}
