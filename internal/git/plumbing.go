package git

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
)

// WriteBlob writes content to the git object database and returns the SHA-1 hash.
func (r *Repository) WriteBlob(content []byte) (string, error) {
	if r.IsNil() {
		return "", errNotInitialized
	}

	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))

	writer, err := obj.Writer()
	if err != nil {
		return "", fmt.Errorf("failed to create object writer: %w", err)
	}

	if _, err := writer.Write(content); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to write blob content: %w", err)
	}
	writer.Close()

	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}

	return hash.String(), nil
}

// GetBlob retrieves the content of a blob by its SHA-1 hash.
func (r *Repository) GetBlob(hash string) ([]byte, error) {
	if r.IsNil() {
		return nil, errNotInitialized
	}

	hash = strings.TrimPrefix(hash, "sha1:")

	blob, err := r.repo.BlobObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to find blob %s: %w", hash, err)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open blob reader: %w", err)
	}
	defer reader.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, fmt.Errorf("failed to read blob content: %w", err)
	}

	return buf.Bytes(), nil
}

// UnmergedPaths lists the index paths that carry conflict stages, sorted and deduplicated.
func (r *Repository) UnmergedPaths() ([]string, error) {
	if r.IsNil() {
		return nil, errNotInitialized
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	seen := map[string]bool{}
	var paths []string
	for _, e := range idx.Entries {
		if e.Stage == index.Merged || seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		paths = append(paths, e.Name)
	}
	sort.Strings(paths)

	return paths, nil
}

// ConflictStages holds the blobs recorded for an unmerged path. Base is nil when the
// path was added on both sides.
type ConflictStages struct {
	Base   []byte
	Ours   []byte
	Theirs []byte
}

// ReadConflictStages loads the stage 1-3 blobs of an unmerged path.
func (r *Repository) ReadConflictStages(path string) (*ConflictStages, error) {
	if r.IsNil() {
		return nil, errNotInitialized
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	stages := &ConflictStages{}
	found := false
	for _, e := range idx.Entries {
		if e.Name != path || e.Stage == index.Merged {
			continue
		}
		content, err := r.GetBlob(e.Hash.String())
		if err != nil {
			return nil, err
		}
		found = true
		switch e.Stage {
		case index.AncestorMode:
			stages.Base = content
		case index.OurMode:
			stages.Ours = content
		case index.TheirMode:
			stages.Theirs = content
		}
	}
	if !found {
		return nil, fmt.Errorf("%s is not unmerged", path)
	}

	return stages, nil
}

// SetConflictState sets up git's index to show a file as conflicted.
// This writes the base (stage 1), ours (stage 2), and theirs (stage 3) versions
// as index entries, so git status reports "both modified" until the path is resolved.
//
// If base is nil, only stages 2 and 3 are written (new file conflict).
func (r *Repository) SetConflictState(path string, base, ours, theirs []byte, isExecutable bool) error {
	if r.IsNil() {
		return errNotInitialized
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	mode := filemode.Regular
	if isExecutable {
		mode = filemode.Executable
	}

	idx.Entries = withoutPath(idx.Entries, path)

	stages := []struct {
		stage   index.Stage
		content []byte
	}{
		{index.AncestorMode, base},
		{index.OurMode, ours},
		{index.TheirMode, theirs},
	}
	for _, s := range stages {
		if s.content == nil && s.stage == index.AncestorMode {
			continue
		}
		entry, err := r.newEntry(path, s.content, mode, s.stage)
		if err != nil {
			return err
		}
		idx.Entries = append(idx.Entries, entry)
	}

	return r.writeIndex(idx)
}

// MarkResolved replaces the conflict stages of path with a single merged entry holding
// content, the index half of `git add`.
func (r *Repository) MarkResolved(path string, content []byte) error {
	if r.IsNil() {
		return errNotInitialized
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	mode := filemode.Regular
	for _, e := range idx.Entries {
		if e.Name == path && e.Stage == index.OurMode {
			mode = e.Mode
		}
	}

	idx.Entries = withoutPath(idx.Entries, path)

	entry, err := r.newEntry(path, content, mode, index.Merged)
	if err != nil {
		return err
	}
	idx.Entries = append(idx.Entries, entry)

	return r.writeIndex(idx)
}

func (r *Repository) newEntry(path string, content []byte, mode filemode.FileMode, stage index.Stage) (*index.Entry, error) {
	hash, err := r.WriteBlob(content)
	if err != nil {
		return nil, fmt.Errorf("failed to write stage %d blob: %w", stage, err)
	}

	now := time.Now()
	return &index.Entry{
		Name:       path,
		Hash:       plumbing.NewHash(hash),
		Mode:       mode,
		Stage:      stage,
		CreatedAt:  now,
		ModifiedAt: now,
		Size:       uint32(len(content)),
	}, nil
}

func (r *Repository) writeIndex(idx *index.Index) error {
	// git requires entries ordered by (Name, Stage)
	sort.Slice(idx.Entries, func(i, j int) bool {
		if idx.Entries[i].Name != idx.Entries[j].Name {
			return idx.Entries[i].Name < idx.Entries[j].Name
		}
		return idx.Entries[i].Stage < idx.Entries[j].Stage
	})

	if err := r.repo.Storer.SetIndex(idx); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

func withoutPath(entries []*index.Entry, path string) []*index.Entry {
	kept := make([]*index.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Name != path {
			kept = append(kept, e)
		}
	}
	return kept
}
