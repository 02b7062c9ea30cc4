package merging

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/i18nmerge/i18nmerge/internal/fs"
)

func newTestFS(t *testing.T, files map[string]string) *fs.FileSystem {
	t.Helper()

	fsys := fs.NewMemFileSystem()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fsys.Afero(), path, []byte(content), 0o644))
	}
	return fsys
}

func readFile(t *testing.T, fsys *fs.FileSystem, path string) string {
	t.Helper()
	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestEngine_ProcessBatch(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, map[string]string{
		"/repo/locales/meta.json":     conflictedMeta,
		"/repo/src/dictionary.ts":     conflictedDictionary,
		"/repo/clean/meta.json":       `{"version": 1, "files": {}}`,
		"/repo/broken/meta.json":      "<<<<<<< HEAD\n{}\n",
		"/repo/invalid/meta.json":     "{\n<<<<<<< HEAD\n  \"a\":\n=======\n  \"a\" 1\n>>>>>>> x\n}",
		"/repo/other/dictionary.json": "{\n<<<<<<< HEAD\n  a: 1\n=======\n  b: 2\n>>>>>>> x\n}",
	})

	paths := []string{
		"/repo/locales/meta.json",
		"/repo/src/dictionary.ts",
		"/repo/clean/meta.json",
		"/repo/broken/meta.json",
		"/repo/missing/meta.json",
		"/repo/invalid/meta.json",
		"/repo/other/dictionary.json",
	}

	var seen atomic.Int32
	engine := NewEngine(fsys, Config{}, WithConcurrency(3), WithProgress(func(*Result) { seen.Add(1) }))

	results, err := engine.ProcessBatch(context.Background(), paths)
	require.Error(t, err)
	require.Len(t, results, len(paths))
	assert.Equal(t, int32(len(paths)), seen.Load())

	for i, res := range results {
		assert.Equal(t, paths[i], res.Path, "results keep input order")
	}

	assert.True(t, results[0].Written)
	assert.True(t, gjson.Valid(readFile(t, fsys, paths[0])))

	assert.True(t, results[1].Written)
	assert.NotContains(t, readFile(t, fsys, paths[1]), "<<<<<<<")

	assert.True(t, results[2].Success)
	assert.False(t, results[2].Written, "clean files are not rewritten")

	assert.ErrorIs(t, results[3].Err, ErrInvalidMarkers)
	assert.ErrorIs(t, results[4].Err, ErrIO)
	assert.ErrorIs(t, results[5].Err, ErrInvalidSyntax)
	assert.Contains(t, readFile(t, fsys, paths[5]), "<<<<<<< HEAD", "failed files are left untouched")

	assert.True(t, results[6].Written)

	msg := err.Error()
	assert.Contains(t, msg, "3 errors occurred")
	assert.Contains(t, msg, "/repo/broken/meta.json")
}

func TestEngine_DryRunNeverWrites(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, map[string]string{"/meta.json": conflictedMeta})
	engine := NewEngine(fsys, Config{DryRun: true, Backup: true})

	results, err := engine.ProcessBatch(context.Background(), []string{"/meta.json"})
	require.NoError(t, err)

	res := results[0]
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.ConflictsResolved)
	assert.False(t, res.Written)
	assert.Empty(t, res.BackupPath)
	assert.NotEmpty(t, res.Content)
	assert.Equal(t, conflictedMeta, readFile(t, fsys, "/meta.json"))

	entries, err := afero.ReadDir(fsys.Afero(), "/")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEngine_Backup(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, map[string]string{"/l/meta.json": conflictedMeta})
	engine := NewEngine(fsys, Config{Backup: true})

	res := engine.ProcessFile(context.Background(), "/l/meta.json")
	require.True(t, res.Success, res.ErrorMessage())
	require.NotEmpty(t, res.BackupPath)

	assert.True(t, strings.HasPrefix(res.BackupPath, "/l/meta.json."))
	assert.True(t, strings.HasSuffix(res.BackupPath, ".bak"))
	assert.Equal(t, conflictedMeta, readFile(t, fsys, res.BackupPath))
	assert.NotEqual(t, conflictedMeta, readFile(t, fsys, "/l/meta.json"))
}

func TestEngine_OversizedFileIsNotRead(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, map[string]string{"/meta.json": strings.Repeat(" ", 4096)})
	engine := NewEngine(fsys, Config{MaxFileSize: 1024})

	res := engine.ProcessFile(context.Background(), "/meta.json")
	assert.ErrorIs(t, res.Err, ErrFileTooLarge)
	assert.Equal(t, KindMetadata, res.Kind)
}

func TestEngine_CancelledContext(t *testing.T) {
	t.Parallel()

	files := map[string]string{}
	var paths []string
	for i := 0; i < 5; i++ {
		p := fmt.Sprintf("/%d/meta.json", i)
		files[p] = conflictedMeta
		paths = append(paths, p)
	}
	fsys := newTestFS(t, files)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := NewEngine(fsys, Config{}).ProcessBatch(ctx, paths)
	require.Error(t, err)
	for _, res := range results {
		assert.ErrorIs(t, res.Err, context.Canceled)
		assert.False(t, res.Written)
	}
}

func TestEngine_StrategyOurs(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, map[string]string{"/x/meta.json": conflictedMeta})
	engine := NewEngine(fsys, Config{Strategy: StrategyOurs}, WithConcurrency(0))
	assert.Equal(t, DefaultConcurrency, engine.concurrency)

	res := engine.ProcessFile(context.Background(), "/x/meta.json")
	require.True(t, res.Success)
	out := readFile(t, fsys, "/x/meta.json")
	assert.Contains(t, out, `"B": {"type": "text", "hash": "hb", "content": "ours only"}`)
	assert.NotContains(t, out, "theirs only")
}
