package merging

import (
	"fmt"
	"path"
	"strings"

	"github.com/samber/lo"
)

// DefaultMaxFileSize is the size ceiling applied when Config.MaxFileSize is zero.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Strategy selects how each conflict section is reconciled.
type Strategy string

const (
	StrategySmart  Strategy = "smart"  // Format-aware merge, falls back to ours
	StrategyOurs   Strategy = "ours"   // Keep the current branch's side
	StrategyTheirs Strategy = "theirs" // Keep the incoming branch's side
)

var strategies = []Strategy{StrategySmart, StrategyOurs, StrategyTheirs}

// Strategies lists the accepted strategy names.
func Strategies() []string {
	return lo.Map(strategies, func(s Strategy, _ int) string { return string(s) })
}

// ParseStrategy converts a user-supplied name. An empty name selects StrategySmart.
func ParseStrategy(name string) (Strategy, error) {
	if name == "" {
		return StrategySmart, nil
	}
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if !lo.Contains(strategies, s) {
		return "", fmt.Errorf("unknown strategy %q, expected one of %s", name, strings.Join(Strategies(), ", "))
	}
	return s, nil
}

// Config is the immutable resolver configuration.
type Config struct {
	Strategy Strategy
	// Verbose populates Result.Details and Result.Notes.
	Verbose bool
	// DryRun computes results without persisting them.
	DryRun bool
	// Backup snapshots the original file before it is overwritten.
	Backup bool
	// MaxFileSize is the largest accepted input in bytes. Zero means DefaultMaxFileSize.
	MaxFileSize int64
}

func (c Config) withDefaults() Config {
	if c.Strategy == "" {
		c.Strategy = StrategySmart
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	return c
}

// FileKind is the structured format a file is recognised as.
type FileKind string

const (
	KindUnknown    FileKind = "unknown"
	KindMetadata   FileKind = "metadata"
	KindDictionary FileKind = "dictionary"
)

const (
	metadataFileName = "meta.json"
	dictionaryPrefix = "dictionary."
)

// KindOf classifies a file by its base name: `meta.json` is metadata and any name
// starting with `dictionary.` is a dictionary module.
func KindOf(fileID string) FileKind {
	base := path.Base(strings.ReplaceAll(fileID, `\`, "/"))
	switch {
	case base == metadataFileName:
		return KindMetadata
	case strings.HasPrefix(base, dictionaryPrefix):
		return KindDictionary
	default:
		return KindUnknown
	}
}

// Result is the outcome of resolving a single file.
type Result struct {
	Path     string
	Kind     FileKind
	Strategy Strategy

	Success           bool
	ConflictsResolved int
	// Fallbacks counts smart merges that degraded to the ours side.
	Fallbacks int
	// Content is the resolved text. It is only set on success.
	Content string
	Err     error
	// Details is a one-line summary, set when verbose and successful.
	Details string
	// Notes carries per-conflict remarks, set when verbose.
	Notes []string

	// BackupPath is where the original was copied, if a backup was made.
	BackupPath string
	// Written reports whether the resolved content was persisted.
	Written bool
}

// ErrorMessage returns the failure cause, or "" on success.
func (r *Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// MergeStatus represents the outcome of a three-way text merge.
type MergeStatus string

const (
	MergeStatusClean       MergeStatus = "CLEAN"
	MergeStatusConflict    MergeStatus = "CONFLICT"
	MergeStatusFastForward MergeStatus = "FAST_FORWARD" // Used when one side equals base
	MergeStatusCreated     MergeStatus = "CREATED"      // No base available
)

// MergeResult holds the result of a three-way text merge.
type MergeResult struct {
	Content      []byte
	Status       MergeStatus
	HasConflicts bool
	Conflicts    []Conflict
}

// Conflict locates a conflict region left in merged text. Lines are 1-indexed.
type Conflict struct {
	StartLine int
	EndLine   int
}

// Merger abstracts the algorithm for 3-way merging.
type Merger interface {
	Merge(base, current, other []byte) (*MergeResult, error)
}
