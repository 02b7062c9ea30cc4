package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/i18nmerge/i18nmerge/internal/fs"
	"github.com/i18nmerge/i18nmerge/internal/git"
	"github.com/i18nmerge/i18nmerge/internal/interactivity"
	"github.com/i18nmerge/i18nmerge/internal/merging"
	"github.com/i18nmerge/i18nmerge/internal/model"
)

const conflictedMeta = `{
  "version": 1,
  "scopes": {
<<<<<<< ours
    "home": {"type": "text", "hash": "h1", "content": "Welcome"}
=======
    "about": {"type": "text", "hash": "h2", "content": "About us"}
>>>>>>> theirs
  }
}
`

const cleanMeta = `{
  "version": 1,
  "scopes": {}
}
`

func TestResolveFlags_MergeConfig(t *testing.T) {
	t.Parallel()

	cfg, err := ResolveFlags{Strategy: "theirs", DryRun: true, MaxSize: 2048}.mergeConfig()
	require.NoError(t, err)
	assert.Equal(t, merging.Config{Strategy: merging.StrategyTheirs, DryRun: true, MaxFileSize: 2048}, cfg)

	cfg, err = ResolveFlags{}.mergeConfig()
	require.NoError(t, err)
	assert.Equal(t, merging.StrategySmart, cfg.Strategy)

	_, err = ResolveFlags{Strategy: "newest"}.mergeConfig()
	assert.Error(t, err)
}

func TestFindTargets(t *testing.T) {
	t.Parallel()

	fsys := fs.NewMemFileSystem()
	files := map[string]string{
		"/proj/a/meta.json":                conflictedMeta,
		"/proj/b/meta.json":                cleanMeta,
		"/proj/node_modules/pkg/meta.json": conflictedMeta,
		"/proj/src/dictionary.ts":          "<<<<<<< ours\na\n=======\nb\n>>>>>>> theirs\n",
		"/proj/src/readme.md":              "<<<<<<< ours\na\n=======\nb\n>>>>>>> theirs\n",
		"/proj/generated/dictionary.json":  "<<<<<<< ours\na\n=======\nb\n>>>>>>> theirs\n",
	}
	for path, content := range files {
		require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, fsys.WriteFile(path, []byte(content), 0o644))
	}

	tests := []struct {
		name  string
		flags ResolveFlags
		args  []string
		want  []string
	}{
		{
			name: "scans directories for conflicted files",
			args: []string{"/proj"},
			want: []string{"/proj/a/meta.json", "/proj/generated/dictionary.json", "/proj/src/dictionary.ts"},
		},
		{
			name:  "exclude patterns",
			flags: ResolveFlags{Exclude: []string{"generated/**"}},
			args:  []string{"/proj"},
			want:  []string{"/proj/a/meta.json", "/proj/src/dictionary.ts"},
		},
		{
			name: "explicit files are taken as given",
			args: []string{"/proj/b/meta.json", "/proj/a"},
			want: []string{"/proj/b/meta.json", "/proj/a/meta.json"},
		},
		{
			name: "duplicates are dropped",
			args: []string{"/proj/a", "/proj/a/meta.json"},
			want: []string{"/proj/a/meta.json"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := findTargets(context.Background(), fsys, nil, tt.flags, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := findTargets(context.Background(), fsys, nil, ResolveFlags{}, []string{"/missing"})
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	t.Parallel()

	fsys := fs.NewMemFileSystem()
	require.NoError(t, fsys.MkdirAll("/p/clean", 0o755))
	require.NoError(t, fsys.WriteFile("/p/meta.json", []byte(conflictedMeta), 0o644))
	require.NoError(t, fsys.WriteFile("/p/clean/meta.json", []byte(cleanMeta), 0o644))
	require.NoError(t, fsys.WriteFile("/p/dictionary.ts", []byte("<<<<<<< ours\na\n=======\nb\n"), 0o644))

	checked, err := inspect(fsys, []string{"/p/meta.json", "/p/clean/meta.json", "/p/dictionary.ts"})
	require.NoError(t, err)
	assert.Equal(t, []checkedFile{
		{Path: "/p/meta.json", Kind: "metadata", Conflicts: 1},
		{Path: "/p/dictionary.ts", Kind: "dictionary", Malformed: true},
	}, checked)

	_, err = inspect(fsys, []string{"/p/missing.json"})
	assert.Error(t, err)
}

func TestStageResolved(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo, err := git.InitLocalRepository(dir)
	require.NoError(t, err)
	require.NoError(t, repo.SetConflictState("locales/meta.json", []byte("{}"), []byte(`{"a":1}`), []byte(`{"b":2}`), false))

	res := &merging.Result{Path: filepath.Join(dir, "locales", "meta.json"), Success: true, Content: `{"a":1,"b":2}`}
	require.NoError(t, stageResolved(repo, res))

	unmerged, err := repo.UnmergedPaths()
	require.NoError(t, err)
	assert.Empty(t, unmerged)

	err = stageResolved(repo, &merging.Result{Path: filepath.Join(filepath.Dir(dir), "meta.json")})
	assert.Error(t, err)
}

func TestResolve_WritesAndReportsFailures(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("I18NMERGE_CONCURRENCY_LOCK_DISABLED", "true")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "locales"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "locales", "meta.json"), []byte(conflictedMeta), 0o644))

	flags := ResolveFlags{Strategy: "smart", Output: "json", Concurrency: 2}
	require.NoError(t, runResolve(context.Background(), flags, nil))

	resolved, err := os.ReadFile(filepath.Join(dir, "locales", "meta.json"))
	require.NoError(t, err)
	assert.True(t, gjson.ValidBytes(resolved), string(resolved))
	assert.Equal(t, "Welcome", gjson.GetBytes(resolved, "scopes.home.content").String())
	assert.Equal(t, "About us", gjson.GetBytes(resolved, "scopes.about.content").String())

	// Unbalanced markers fail the run with exit code 1
	broken := filepath.Join(dir, "locales", "dictionary.ts")
	require.NoError(t, os.WriteFile(broken, []byte("<<<<<<< ours\na\n"), 0o644))

	err = runResolve(context.Background(), flags, []string{broken})
	require.Error(t, err)
	assert.Equal(t, 1, model.ExitCode(err))
}

func TestResolve_DryRunLeavesFiles(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("I18NMERGE_CONCURRENCY_LOCK_DISABLED", "true")

	path := filepath.Join(dir, "meta.json")
	require.NoError(t, os.WriteFile(path, []byte(conflictedMeta), 0o644))

	require.NoError(t, runResolve(context.Background(), ResolveFlags{DryRun: true, Output: "yaml"}, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, conflictedMeta, string(data))
}

func TestRetryFailed_PromptOutcomes(t *testing.T) {
	results := []*merging.Result{
		{Path: "/p/meta.json", Success: true},
		{Path: "/p/dictionary.ts", Err: merging.ErrInvalidSyntax},
	}
	promptErr := errors.New("no tty")

	tests := []struct {
		name     string
		strategy merging.Strategy
		err      error
		wantErr  error
	}{
		{name: "prompt failure is returned", err: promptErr, wantErr: promptErr},
		{name: "aborted prompt leaves results", err: interactivity.ErrAborted},
		{name: "leave unresolved choice", strategy: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var asked int
			prev := selectRetryStrategy
			t.Cleanup(func() { selectRetryStrategy = prev })
			selectRetryStrategy = func(failed int) (merging.Strategy, error) {
				asked = failed
				return tt.strategy, tt.err
			}

			got, err := retryFailed(context.Background(), fs.NewMemFileSystem(), merging.Config{}, 1, results)
			assert.Equal(t, 1, asked)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, results, got)
		})
	}
}
