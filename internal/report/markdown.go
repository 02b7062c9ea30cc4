package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/sethvargo/go-githubactions"

	"github.com/i18nmerge/i18nmerge/internal/env"
)

// Markdown renders the report as a heading, a status line and a per-file table.
func (r *Report) Markdown() string {
	rows := [][]string{{"File", "Kind", "Resolved", "Status"}}
	for _, f := range r.Files {
		status := "resolved"
		switch {
		case !f.Success:
			status = "failed: " + f.Error
		case f.ConflictsResolved == 0:
			status = "clean"
		case f.Fallbacks > 0:
			status = fmt.Sprintf("resolved, %d kept ours", f.Fallbacks)
		}
		rows = append(rows, []string{f.Path, f.Kind, strconv.Itoa(f.ConflictsResolved), status})
	}

	icon := ":white_check_mark:"
	if !r.Success {
		icon = ":x:"
	}

	return fmt.Sprintf("# Localization Conflict Summary\n\n%s %s\n\n%s", icon, r.summaryLine(), createTable(rows))
}

// createTable renders rows as a markdown table. The first row is the header and every
// column is padded to the display width of its widest cell.
func createTable(rows [][]string) string {
	columns := 0
	for _, row := range rows {
		columns = max(columns, len(row))
	}

	widths := make([]int, columns)
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(escapeCell(cell)), 3)
		}
	}

	var sb strings.Builder
	writeRow := func(row []string) {
		for i := 0; i < columns; i++ {
			cell := ""
			if i < len(row) {
				cell = escapeCell(row[i])
			}
			sb.WriteString("| " + cell + strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)) + " ")
		}
		sb.WriteString("|\n")
	}

	for i, row := range rows {
		writeRow(row)
		if i == 0 {
			for _, w := range widths {
				sb.WriteString("| " + strings.Repeat("-", w) + " ")
			}
			sb.WriteString("|\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// WriteStepSummary appends the markdown report to the GitHub Actions step summary. It is a
// no-op outside of GitHub Actions.
func WriteStepSummary(r *Report) {
	defer func() {
		if rec := recover(); rec != nil {
			if env.IsGithubDebugMode() {
				fmt.Printf("::debug::%v\n", rec)
			}
		}
	}()

	if !env.IsGithubAction() {
		return
	}

	githubactions.AddStepSummary(r.Markdown())
}
