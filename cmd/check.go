package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/i18nmerge/i18nmerge/internal/charm/styles"
	"github.com/i18nmerge/i18nmerge/internal/config"
	"github.com/i18nmerge/i18nmerge/internal/conflicts"
	"github.com/i18nmerge/i18nmerge/internal/fs"
	"github.com/i18nmerge/i18nmerge/internal/log"
	"github.com/i18nmerge/i18nmerge/internal/merging"
	"github.com/i18nmerge/i18nmerge/internal/model"
	"github.com/i18nmerge/i18nmerge/internal/model/flag"
	"github.com/i18nmerge/i18nmerge/internal/report"
	"github.com/i18nmerge/i18nmerge/internal/utils"
)

type CheckFlags struct {
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
	MaxSize int64    `json:"max-size"`
	Output  string   `json:"output"`
}

// checkedFile describes a file that still needs attention.
type checkedFile struct {
	Path      string `json:"path" yaml:"path"`
	Kind      string `json:"kind" yaml:"kind"`
	Conflicts int    `json:"conflicts" yaml:"conflicts"`
	Malformed bool   `json:"malformed" yaml:"malformed"`
}

func checkCmd() model.Command {
	return &model.ExecutableCommand[CheckFlags]{
		Usage: "check [paths...]",
		Short: "List localization files that still contain conflict markers",
		Long:  "Scan for meta.json and dictionary.* files with conflict markers, exiting non-zero when any are found. Nothing is modified.",
		Args:  cobra.ArbitraryArgs,
		Run:   runCheck,
		Flags: []flag.Flag{
			flag.StringSliceFlag{
				Common:       flag.Common{Name: "include", Description: "glob patterns of files to check"},
				DefaultValue: config.GetInclude(),
			},
			flag.StringSliceFlag{
				Common:       flag.Common{Name: "exclude", Description: "glob patterns of files to skip"},
				DefaultValue: config.GetExclude(),
			},
			flag.SizeFlag{
				Common:       flag.Common{Name: "max-size", Description: "largest file to read"},
				DefaultValue: humanize.IBytes(uint64(config.GetMaxFileSize())),
			},
			flag.EnumFlag{
				Common:        flag.Common{Name: "output", Shorthand: "o", Description: "report format"},
				DefaultValue:  config.GetOutput(),
				AllowedValues: report.Formats(),
			},
		},
	}
}

func runCheck(ctx context.Context, flags CheckFlags, args []string) error {
	format, err := report.ParseFormat(flags.Output)
	if err != nil {
		return err
	}

	fsys := fs.NewFileSystem()
	paths, err := findTargets(ctx, fsys, nil, ResolveFlags{
		Include: flags.Include,
		Exclude: flags.Exclude,
		MaxSize: flags.MaxSize,
	}, args)
	if err != nil {
		return err
	}

	checked, err := inspect(fsys, paths)
	if err != nil {
		return err
	}

	if format == report.FormatText {
		writeCheckText(ctx, os.Stdout, checked)
	} else if err := report.Encode(os.Stdout, checked, format); err != nil {
		return err
	}

	if len(checked) > 0 {
		return &model.ExitError{Code: 1}
	}
	return nil
}

// inspect reports the paths that hold conflict sections or stray marker lines.
func inspect(fsys *fs.FileSystem, paths []string) ([]checkedFile, error) {
	checked := []checkedFile{}
	for _, path := range paths {
		data, err := fsys.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		text := string(data)

		entry := checkedFile{Path: path, Kind: string(merging.KindOf(path))}
		switch {
		case conflicts.HasMarkers(text):
			entry.Conflicts = len(conflicts.Parse(text))
		case conflicts.ContainsMarkerLines(text):
			entry.Malformed = true
		default:
			continue
		}
		checked = append(checked, entry)
	}
	return checked, nil
}

func writeCheckText(ctx context.Context, w io.Writer, checked []checkedFile) {
	if len(checked) == 0 {
		log.From(ctx).Success("No conflict markers found")
		return
	}

	for _, c := range checked {
		status := fmt.Sprintf("%d %s", c.Conflicts, utils.Pluralize(c.Conflicts, "conflict", "conflicts"))
		if c.Malformed {
			status = styles.Error.Render("malformed markers")
		}
		fmt.Fprintf(w, "%s %s %s\n", styles.Warning.Render("!"), c.Path, styles.Dimmed.Render("("+status+")"))
	}
}
