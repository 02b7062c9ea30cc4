package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/i18nmerge/i18nmerge/internal/merging"
)

func writeYAML(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	require.NoError(t, load(t.TempDir(), t.TempDir()))

	strategy, err := GetStrategy()
	require.NoError(t, err)
	assert.Equal(t, merging.StrategySmart, strategy)
	assert.Equal(t, merging.DefaultMaxFileSize, GetMaxFileSize())
	assert.Equal(t, merging.DefaultConcurrency, GetConcurrency())
	assert.Equal(t, []string{"meta.json", "dictionary.*"}, GetInclude())
	assert.Empty(t, GetExclude())
	assert.False(t, GetBackup())
	assert.Equal(t, "text", GetOutput())
}

func TestLoad_ProjectOverridesUser(t *testing.T) {
	home, wd := t.TempDir(), t.TempDir()
	writeYAML(t, filepath.Join(home, ".i18nmerge", "config.yaml"), "strategy: ours\nbackup: true\nconcurrency: 2\n")
	writeYAML(t, filepath.Join(wd, ".i18nmerge.yaml"), "strategy: theirs\nexclude:\n  - legacy/**\n")

	require.NoError(t, load(home, wd))

	strategy, err := GetStrategy()
	require.NoError(t, err)
	assert.Equal(t, merging.StrategyTheirs, strategy)
	assert.True(t, GetBackup())
	assert.Equal(t, 2, GetConcurrency())
	assert.Equal(t, []string{"legacy/**"}, GetExclude())
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	home, wd := t.TempDir(), t.TempDir()
	writeYAML(t, filepath.Join(wd, ".i18nmerge.yaml"), "max_file_size: 1024\n")
	t.Setenv("I18NMERGE_MAX_FILE_SIZE", "2048")
	t.Setenv("I18NMERGE_STRATEGY", "union")

	require.NoError(t, load(home, wd))

	assert.Equal(t, int64(2048), GetMaxFileSize())
	_, err := GetStrategy()
	assert.Error(t, err)
}

func TestLoad_InvalidProjectFile(t *testing.T) {
	wd := t.TempDir()
	writeYAML(t, filepath.Join(wd, ".i18nmerge.yaml"), "strategy: [unclosed\n")

	assert.Error(t, load(t.TempDir(), wd))
}

func TestSet_PersistsUserConfigOnly(t *testing.T) {
	home, wd := t.TempDir(), t.TempDir()
	writeYAML(t, filepath.Join(wd, ".i18nmerge.yaml"), "exclude:\n  - legacy/**\n")
	require.NoError(t, load(home, wd))

	require.NoError(t, Set(StrategyKey, "theirs"))
	require.NoError(t, Set(IncludeKey, "meta.json, i18n/*.json"))
	require.NoError(t, Set(BackupKey, "yes"))

	strategy, err := GetStrategy()
	require.NoError(t, err)
	assert.Equal(t, merging.StrategyTheirs, strategy)
	assert.Equal(t, []string{"meta.json", "i18n/*.json"}, GetInclude())

	data, err := os.ReadFile(filepath.Join(home, ".i18nmerge", "config.yaml"))
	require.NoError(t, err)

	var saved map[string]any
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, "theirs", saved["strategy"])
	assert.Equal(t, true, saved["backup"])
	assert.NotContains(t, saved, "exclude")
}

func TestSet_Validation(t *testing.T) {
	require.NoError(t, load(t.TempDir(), t.TempDir()))

	assert.Error(t, Set(StrategyKey, "union"))
	assert.Error(t, Set(ConcurrencyKey, "-1"))
	assert.Error(t, Set(MaxFileSizeKey, "big"))
	assert.Error(t, Set(BackupKey, "maybe"))
	assert.Error(t, Set(OutputKey, "xml"))
	assert.ErrorContains(t, Set("color", "red"), "unknown config key")
}
