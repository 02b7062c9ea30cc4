package git

import (
	"os"
	"path/filepath"
	"testing"

	gitc "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo creates a temporary git repository with an initial commit on "main".
func initTestRepo(t *testing.T) (*Repository, string) {
	t.Helper()

	dir := t.TempDir()

	repo, err := gitc.PlainInitWithOptions(dir, &gitc.PlainInitOptions{
		InitOptions: gitc.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName("main"),
		},
	})
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test"), 0o644))

	_, err = wt.Add("README.md")
	require.NoError(t, err)

	_, err = wt.Commit("initial commit", &gitc.CommitOptions{
		Author: &object.Signature{
			Name:  "test",
			Email: "test@test.com",
		},
	})
	require.NoError(t, err)

	return &Repository{repo: repo}, dir
}

func stagesOf(t *testing.T, r *Repository, path string) []index.Stage {
	t.Helper()

	idx, err := r.repo.Storer.Index()
	require.NoError(t, err)

	var stages []index.Stage
	for _, e := range idx.Entries {
		if e.Name == path {
			stages = append(stages, e.Stage)
		}
	}
	return stages
}

func TestNewLocalRepository_NotARepo(t *testing.T) {
	t.Parallel()

	r, err := NewLocalRepository(t.TempDir())
	require.NoError(t, err)
	assert.True(t, r.IsNil())
	assert.Empty(t, r.Root())

	hash, err := r.HeadHash()
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestNilRepository_Operations(t *testing.T) {
	t.Parallel()

	r := &Repository{}

	_, err := r.UnmergedPaths()
	assert.ErrorIs(t, err, errNotInitialized)

	err = r.MarkResolved("meta.json", []byte("{}"))
	assert.ErrorIs(t, err, errNotInitialized)

	err = r.SetConflictState("meta.json", nil, []byte("a"), []byte("b"), false)
	assert.ErrorIs(t, err, errNotInitialized)

	_, err = r.RelPath("meta.json")
	assert.ErrorIs(t, err, errNotInitialized)
}

func TestNewLocalRepository_DetectsParent(t *testing.T) {
	t.Parallel()

	_, dir := initTestRepo(t)
	sub := filepath.Join(dir, "locales", "en")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	r, err := NewLocalRepository(sub)
	require.NoError(t, err)
	require.False(t, r.IsNil())

	rel, err := r.RelPath(filepath.Join(sub, "meta.json"))
	require.NoError(t, err)
	assert.Equal(t, "locales/en/meta.json", rel)

	_, err = r.RelPath(filepath.Join(filepath.Dir(dir), "elsewhere", "meta.json"))
	assert.Error(t, err)
}

func TestBlobRoundTrip(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)

	hash, err := r.WriteBlob([]byte(`{"version": 1}`))
	require.NoError(t, err)
	assert.Len(t, hash, 40)

	content, err := r.GetBlob("sha1:" + hash)
	require.NoError(t, err)
	assert.Equal(t, `{"version": 1}`, string(content))

	_, err = r.GetBlob("0000000000000000000000000000000000000000")
	assert.Error(t, err)
}

func TestConflictState_UnmergedAndResolved(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)

	require.NoError(t, r.SetConflictState("locales/meta.json", []byte("base"), []byte("ours"), []byte("theirs"), false))
	require.NoError(t, r.SetConflictState("src/dictionary.ts", nil, []byte("ours"), []byte("theirs"), false))

	paths, err := r.UnmergedPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"locales/meta.json", "src/dictionary.ts"}, paths)

	assert.Equal(t, []index.Stage{index.AncestorMode, index.OurMode, index.TheirMode}, stagesOf(t, r, "locales/meta.json"))
	assert.Equal(t, []index.Stage{index.OurMode, index.TheirMode}, stagesOf(t, r, "src/dictionary.ts"))

	stages, err := r.ReadConflictStages("locales/meta.json")
	require.NoError(t, err)
	assert.Equal(t, "base", string(stages.Base))
	assert.Equal(t, "ours", string(stages.Ours))
	assert.Equal(t, "theirs", string(stages.Theirs))

	stages, err = r.ReadConflictStages("src/dictionary.ts")
	require.NoError(t, err)
	assert.Nil(t, stages.Base)

	require.NoError(t, r.MarkResolved("locales/meta.json", []byte("resolved")))
	assert.Equal(t, []index.Stage{index.Merged}, stagesOf(t, r, "locales/meta.json"))

	paths, err = r.UnmergedPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"src/dictionary.ts"}, paths)

	_, err = r.ReadConflictStages("locales/meta.json")
	assert.Error(t, err)

	// Untouched entries survive the rewrite.
	assert.Equal(t, []index.Stage{index.Merged}, stagesOf(t, r, "README.md"))
}

func TestMarkResolved_KeepsExecutableMode(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)
	require.NoError(t, r.SetConflictState("bin/dictionary.js", nil, []byte("a"), []byte("b"), true))
	require.NoError(t, r.MarkResolved("bin/dictionary.js", []byte("c")))

	idx, err := r.repo.Storer.Index()
	require.NoError(t, err)
	entry, err := idx.Entry("bin/dictionary.js")
	require.NoError(t, err)
	assert.Equal(t, filemode.Executable, entry.Mode)
}
