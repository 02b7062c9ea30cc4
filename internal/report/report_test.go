package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/i18nmerge/i18nmerge/internal/merging"
)

func sampleResults() []*merging.Result {
	return []*merging.Result{
		{Path: "locales/meta.json", Kind: merging.KindMetadata, Success: true, ConflictsResolved: 2, Written: true, BackupPath: "locales/meta.json.20260101000000-abcd1234.bak"},
		{Path: "src/dictionary.ts", Kind: merging.KindDictionary, Success: true, ConflictsResolved: 1, Fallbacks: 1, Notes: []string{"conflict 1 (HEAD vs main) could not be parsed, kept HEAD"}},
		{Path: "clean/meta.json", Kind: merging.KindMetadata, Success: true},
		{Path: "broken/meta.json", Kind: merging.KindMetadata, Err: errors.Wrap(merging.ErrInvalidMarkers, "unbalanced")},
	}
}

func TestNew_Tallies(t *testing.T) {
	t.Parallel()

	rep := New(sampleResults(), merging.Config{DryRun: true})

	assert.False(t, rep.Success)
	assert.True(t, rep.DryRun)
	assert.Equal(t, "smart", rep.Strategy)
	assert.Equal(t, 4, rep.FilesProcessed)
	assert.Equal(t, 1, rep.FilesFailed)
	assert.Equal(t, 3, rep.ConflictsResolved)
	assert.Equal(t, "unbalanced: invalid conflict markers", rep.Files[3].Error)

	require.Len(t, rep.Failed(), 1)
	assert.Equal(t, "broken/meta.json", rep.Failed()[0].Path)
	assert.Len(t, rep.Resolved(), 2)

	rep.MarkStaged("locales/meta.json")
	assert.True(t, rep.Files[0].Staged)
	assert.False(t, rep.Files[1].Staged)

	assert.True(t, New(sampleResults()[:3], merging.Config{}).Success)
}

func TestWrite_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, New(sampleResults(), merging.Config{Strategy: merging.StrategyTheirs}), FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "theirs", decoded["strategy"])
	assert.Equal(t, float64(1), decoded["files_failed"])
	assert.Equal(t, false, decoded["success"])

	files := decoded["files"].([]any)
	require.Len(t, files, 4)
	first := files[0].(map[string]any)
	assert.Equal(t, "locales/meta.json", first["path"])
	assert.NotContains(t, first, "error")
}

func TestWrite_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, New(sampleResults(), merging.Config{}), FormatYAML))

	var decoded Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 3, decoded.ConflictsResolved)
	require.Len(t, decoded.Files, 4)
	assert.Equal(t, []string{"conflict 1 (HEAD vs main) could not be parsed, kept HEAD"}, decoded.Files[1].Notes)
	assert.Contains(t, buf.String(), "files_processed: 4")
}

func TestWrite_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, New(sampleResults(), merging.Config{}), FormatText))

	out := buf.String()
	assert.Contains(t, out, "locales/meta.json (2 conflicts resolved)")
	assert.Contains(t, out, "src/dictionary.ts (1 conflict resolved)")
	assert.Contains(t, out, "1 kept ours")
	assert.Contains(t, out, "clean/meta.json (no conflicts)")
	assert.Contains(t, out, "backup: locales/meta.json.20260101000000-abcd1234.bak")
	assert.Contains(t, out, "Resolved 3 conflicts across 4 files (1 failed, smart strategy)")

	assert.Error(t, Write(&buf, &Report{}, Format("xml")))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.ErrorContains(t, err, "text, json, yaml")
}

func TestMarkdown(t *testing.T) {
	t.Parallel()

	md := New(sampleResults(), merging.Config{}).Markdown()

	assert.True(t, strings.HasPrefix(md, "# Localization Conflict Summary\n\n:x: Resolved 3 conflicts"))
	assert.Contains(t, md, "| File ")
	assert.Contains(t, md, "resolved, 1 kept ours")
	assert.Contains(t, md, "failed: unbalanced: invalid conflict markers")
}

func TestCreateTable(t *testing.T) {
	t.Parallel()

	got := createTable([][]string{
		{"Name", "Value"},
		{"a|b", "1"},
		{"long name"},
	})

	want := strings.Join([]string{
		"| Name      | Value |",
		"| --------- | ----- |",
		"| a\\|b      | 1     |",
		"| long name |       |",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestCreateTable_WideCharacters(t *testing.T) {
	t.Parallel()

	got := createTable([][]string{
		{"Key", "Value"},
		{"キー", "翻訳"},
	})

	want := strings.Join([]string{
		"| Key  | Value |",
		"| ---- | ----- |",
		"| キー | 翻訳  |",
	}, "\n")
	assert.Equal(t, want, got)
}
