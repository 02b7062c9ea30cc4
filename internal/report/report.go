// Package report aggregates per-file resolution results and renders them for people and
// for machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/i18nmerge/i18nmerge/internal/charm/styles"
	"github.com/i18nmerge/i18nmerge/internal/merging"
	"github.com/i18nmerge/i18nmerge/internal/utils"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var formats = []Format{FormatText, FormatJSON, FormatYAML}

// Formats lists the accepted output format names.
func Formats() []string {
	return lo.Map(formats, func(f Format, _ int) string { return string(f) })
}

func ParseFormat(name string) (Format, error) {
	if name == "" {
		return FormatText, nil
	}
	f := Format(strings.ToLower(name))
	if !lo.Contains(formats, f) {
		return "", fmt.Errorf("unknown output format %q, expected one of %s", name, strings.Join(Formats(), ", "))
	}
	return f, nil
}

// FileReport is the serialisable outcome for one file.
type FileReport struct {
	Path              string   `json:"path" yaml:"path"`
	Kind              string   `json:"kind" yaml:"kind"`
	Success           bool     `json:"success" yaml:"success"`
	ConflictsResolved int      `json:"conflicts_resolved" yaml:"conflicts_resolved"`
	Fallbacks         int      `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty"`
	Written           bool     `json:"written" yaml:"written"`
	Staged            bool     `json:"staged,omitempty" yaml:"staged,omitempty"`
	BackupPath        string   `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`
	Error             string   `json:"error,omitempty" yaml:"error,omitempty"`
	Details           string   `json:"details,omitempty" yaml:"details,omitempty"`
	Notes             []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Report is the aggregate outcome of a batch run.
type Report struct {
	Success           bool         `json:"success" yaml:"success"`
	DryRun            bool         `json:"dry_run" yaml:"dry_run"`
	Strategy          string       `json:"strategy" yaml:"strategy"`
	FilesProcessed    int          `json:"files_processed" yaml:"files_processed"`
	FilesFailed       int          `json:"files_failed" yaml:"files_failed"`
	ConflictsResolved int          `json:"conflicts_resolved" yaml:"conflicts_resolved"`
	Files             []FileReport `json:"files" yaml:"files"`
}

// New builds a Report from engine results, in the order given.
func New(results []*merging.Result, cfg merging.Config) *Report {
	files := lo.Map(results, func(r *merging.Result, _ int) FileReport {
		return FileReport{
			Path:              r.Path,
			Kind:              string(r.Kind),
			Success:           r.Success,
			ConflictsResolved: r.ConflictsResolved,
			Fallbacks:         r.Fallbacks,
			Written:           r.Written,
			BackupPath:        r.BackupPath,
			Error:             r.ErrorMessage(),
			Details:           r.Details,
			Notes:             r.Notes,
		}
	})

	strategy := cfg.Strategy
	if strategy == "" {
		strategy = merging.StrategySmart
	}

	rep := &Report{
		DryRun:   cfg.DryRun,
		Strategy: string(strategy),
		Files:    files,
	}
	rep.tally()
	return rep
}

func (r *Report) tally() {
	r.FilesProcessed = len(r.Files)
	r.FilesFailed = lo.CountBy(r.Files, func(f FileReport) bool { return !f.Success })
	r.ConflictsResolved = lo.SumBy(r.Files, func(f FileReport) int { return f.ConflictsResolved })
	r.Success = r.FilesFailed == 0
}

// MarkStaged records that path was marked resolved in the git index.
func (r *Report) MarkStaged(path string) {
	for i := range r.Files {
		if r.Files[i].Path == path {
			r.Files[i].Staged = true
		}
	}
}

// Failed returns the files that could not be resolved.
func (r *Report) Failed() []FileReport {
	return lo.Filter(r.Files, func(f FileReport, _ int) bool { return !f.Success })
}

// Resolved returns the files where at least one conflict was resolved.
func (r *Report) Resolved() []FileReport {
	return lo.Filter(r.Files, func(f FileReport, _ int) bool { return f.Success && f.ConflictsResolved > 0 })
}

// Write renders the report to w in the given format.
func Write(w io.Writer, r *Report, format Format) error {
	if format == FormatText || format == "" {
		_, err := io.WriteString(w, r.Text())
		return err
	}
	return Encode(w, r, format)
}

// Encode writes v as indented JSON or YAML.
func Encode(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Text renders a styled, human-readable summary.
func (r *Report) Text() string {
	var sb strings.Builder

	for _, f := range r.Files {
		switch {
		case !f.Success:
			sb.WriteString(styles.Error.Render("✗ "+f.Path) + styles.Dimmed.Render(" "+f.Error) + "\n")
		case f.ConflictsResolved == 0:
			sb.WriteString(styles.Dimmed.Render("- "+f.Path+" (no conflicts)") + "\n")
		default:
			line := fmt.Sprintf("✓ %s (%d %s resolved)", f.Path, f.ConflictsResolved, utils.Pluralize(f.ConflictsResolved, "conflict", "conflicts"))
			sb.WriteString(styles.Success.Render(line))
			if f.Fallbacks > 0 {
				sb.WriteString(styles.Warning.Render(fmt.Sprintf(" %d kept ours", f.Fallbacks)))
			}
			sb.WriteString("\n")
		}
		if f.Details != "" {
			sb.WriteString(styles.DimmedItalic.Render("    "+f.Details) + "\n")
		}
		for _, note := range f.Notes {
			sb.WriteString(styles.DimmedItalic.Render("    "+note) + "\n")
		}
		if f.BackupPath != "" {
			sb.WriteString(styles.Dimmed.Render("    backup: "+f.BackupPath) + "\n")
		}
	}

	summary := r.summaryLine()
	if r.Success {
		sb.WriteString(styles.RenderSuccessMessage(summary))
	} else {
		sb.WriteString(styles.RenderErrorMessage(summary, lo.Map(r.Failed(), func(f FileReport, _ int) string {
			return f.Path + ": " + f.Error
		})...))
	}
	sb.WriteString("\n")

	return sb.String()
}

func (r *Report) summaryLine() string {
	prefix := ""
	if r.DryRun {
		prefix = "[dry run] "
	}
	return fmt.Sprintf("%sResolved %d %s across %d %s (%d failed, %s strategy)",
		prefix,
		r.ConflictsResolved, utils.Pluralize(r.ConflictsResolved, "conflict", "conflicts"),
		r.FilesProcessed, utils.Pluralize(r.FilesProcessed, "file", "files"),
		r.FilesFailed, r.Strategy)
}
