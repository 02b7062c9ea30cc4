// Package discovery finds the localization files a resolve run should look at, either by
// walking a directory tree or by reading the unmerged paths from the git index.
package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"

	"github.com/i18nmerge/i18nmerge/internal/conflicts"
	ifs "github.com/i18nmerge/i18nmerge/internal/fs"
	"github.com/i18nmerge/i18nmerge/internal/git"
	"github.com/i18nmerge/i18nmerge/internal/log"
)

// DefaultInclude matches the metadata and dictionary files by base name.
var DefaultInclude = []string{"meta.json", "dictionary.*"}

// DefaultMaxFileSize is the largest file the scanner will open (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// ErrInvalidPattern indicates a glob pattern could not be compiled.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// defaultExcludedDirs contains directories that are never descended into.
var defaultExcludedDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"vendor":       {},
	".next":        {},
	".nuxt":        {},
	".turbo":       {},
	"dist":         {},
	"build":        {},
	"out":          {},
	".cache":       {},
	"coverage":     {},
	".idea":        {},
	".vscode":      {},
}

// Matcher decides whether a slash-separated relative path is a candidate. A pattern matches
// either the whole relative path or the base name.
type Matcher struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewMatcher compiles include and exclude patterns. An empty include list means DefaultInclude.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}

	inc, err := compileGlobs(include)
	if err != nil {
		return nil, err
	}
	exc, err := compileGlobs(exclude)
	if err != nil {
		return nil, err
	}

	return &Matcher{include: inc, exclude: exc}, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidPattern, "%q: %s", pattern, err)
		}
		matchers = append(matchers, matcher)
	}
	return matchers, nil
}

// Match reports whether relPath is included and not excluded.
func (m *Matcher) Match(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	base := relPath[strings.LastIndex(relPath, "/")+1:]

	if !anyMatch(m.include, relPath, base) {
		return false
	}
	return !anyMatch(m.exclude, relPath, base)
}

func anyMatch(globs []glob.Glob, relPath, base string) bool {
	for _, g := range globs {
		if g.Match(relPath) || g.Match(base) {
			return true
		}
	}
	return false
}

// ScanConfig holds configuration for the file scanner.
type ScanConfig struct {
	// Root is the directory to scan
	Root string
	// Include and Exclude are glob patterns, see Matcher
	Include []string
	Exclude []string
	// MaxFileSize skips larger files without opening them. Zero means DefaultMaxFileSize.
	MaxFileSize int64
	// All returns every matching file, not only those containing conflict markers
	All bool
}

// Scanner walks a directory tree and returns the files that need resolving.
type Scanner struct {
	fs      *ifs.FileSystem
	config  ScanConfig
	matcher *Matcher
}

// NewScanner compiles the configured patterns and returns a Scanner over fsys.
func NewScanner(fsys *ifs.FileSystem, config ScanConfig) (*Scanner, error) {
	if config.Root == "" {
		config.Root = "."
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = DefaultMaxFileSize
	}

	matcher, err := NewMatcher(config.Include, config.Exclude)
	if err != nil {
		return nil, err
	}

	return &Scanner{fs: fsys, config: config, matcher: matcher}, nil
}

// Scan returns the matching files under the root in lexical order. Unless All is set, only
// files whose content contains conflict marker tokens are returned.
func (s *Scanner) Scan(ctx context.Context) ([]string, error) {
	info, err := s.fs.Stat(s.config.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "scanning %s", s.config.Root)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("scanning %s: not a directory", s.config.Root)
	}

	logger := log.From(ctx)

	var paths []string
	err = s.fs.Walk(s.config.Root, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if os.IsPermission(walkErr) {
				return nil
			}
			return walkErr
		}

		if info.IsDir() {
			if _, excluded := defaultExcludedDirs[info.Name()]; excluded && path != s.config.Root {
				return fs.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(s.config.Root, path)
		if err != nil || !s.matcher.Match(rel) {
			return nil
		}

		if s.config.All {
			paths = append(paths, path)
			return nil
		}

		if info.Size() > s.config.MaxFileSize {
			logger.Warnf("Skipping %s: larger than the size limit", path)
			return nil
		}

		data, err := s.fs.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		if conflicts.ContainsMarkerTokens(string(data)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}

// FromGit lists the unmerged index paths of repo that m matches, as file system paths
// rooted at the working tree.
func FromGit(repo *git.Repository, m *Matcher) ([]string, error) {
	unmerged, err := repo.UnmergedPaths()
	if err != nil {
		return nil, errors.Wrap(err, "listing unmerged paths")
	}

	root := repo.Root()
	var paths []string
	for _, p := range unmerged {
		if m.Match(p) {
			paths = append(paths, filepath.Join(root, filepath.FromSlash(p)))
		}
	}
	sort.Strings(paths)

	return paths, nil
}
