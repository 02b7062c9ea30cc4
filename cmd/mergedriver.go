package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/i18nmerge/i18nmerge/internal/config"
	"github.com/i18nmerge/i18nmerge/internal/discovery"
	"github.com/i18nmerge/i18nmerge/internal/fs"
	"github.com/i18nmerge/i18nmerge/internal/git"
	"github.com/i18nmerge/i18nmerge/internal/log"
	"github.com/i18nmerge/i18nmerge/internal/merging"
	"github.com/i18nmerge/i18nmerge/internal/model"
	"github.com/i18nmerge/i18nmerge/internal/model/flag"
)

const (
	driverName        = "i18nmerge"
	driverDescription = "i18nmerge localization conflict resolver"
	gitattributesFile = ".gitattributes"
)

type MergeDriverFlags struct {
	Strategy string `json:"strategy"`
}

func mergeDriverCmd() model.Command {
	strategy, err := config.GetStrategy()
	if err != nil {
		strategy = merging.StrategySmart
	}

	return &model.ExecutableCommand[MergeDriverFlags]{
		Usage: "merge-driver <base> <current> <other> [path]",
		Short: "Git merge driver entry point (%O %A %B %P)",
		Long: `Three-way merge a localization file and resolve the remaining conflicts.

The result is written to <current>. The command exits 0 when the merge is clean and 1 when conflict markers remain,
as git expects from a merge driver. Register it with "i18nmerge install-driver".`,
		Args:   cobra.RangeArgs(3, 4),
		Run:    runMergeDriver,
		Hidden: true,
		Flags: []flag.Flag{
			flag.EnumFlag{
				Common:        flag.Common{Name: "strategy", Shorthand: "s", Description: "how to resolve each conflict"},
				DefaultValue:  string(strategy),
				AllowedValues: merging.Strategies(),
			},
		},
	}
}

func runMergeDriver(ctx context.Context, flags MergeDriverFlags, args []string) error {
	strategy, err := merging.ParseStrategy(flags.Strategy)
	if err != nil {
		return err
	}

	basePath, currentPath, otherPath := args[0], args[1], args[2]
	fileID := currentPath
	if len(args) == 4 && args[3] != "" {
		fileID = args[3]
	}

	cfg := merging.Config{Strategy: strategy, MaxFileSize: config.GetMaxFileSize()}
	clean, err := mergeFiles(fs.NewFileSystem(), cfg, basePath, currentPath, otherPath, fileID)
	if err != nil {
		return err
	}
	if !clean {
		log.From(ctx).WithAssociatedFile(fileID).Warnf("Conflicts in %s could not be resolved automatically", fileID)
		return &model.ExitError{Code: 1}
	}
	return nil
}

// mergeFiles three-way merges the files, resolves what conflicts it can as fileID and writes
// the outcome to currentPath. It reports whether the written content is free of conflicts.
func mergeFiles(fsys *fs.FileSystem, cfg merging.Config, basePath, currentPath, otherPath, fileID string) (bool, error) {
	base, err := fsys.ReadFile(basePath)
	if err != nil {
		return false, errors.Wrap(err, "reading base")
	}
	current, err := fsys.ReadFile(currentPath)
	if err != nil {
		return false, errors.Wrap(err, "reading current")
	}
	other, err := fsys.ReadFile(otherPath)
	if err != nil {
		return false, errors.Wrap(err, "reading other")
	}

	info, err := fsys.Stat(currentPath)
	if err != nil {
		return false, err
	}

	merged, err := merging.NewTextMerger().Merge(base, current, other)
	if err != nil {
		return false, err
	}

	content := merged.Content
	clean := !merged.HasConflicts
	if merged.HasConflicts {
		if res := merging.Resolve(string(merged.Content), fileID, cfg); res.Success {
			content = []byte(res.Content)
			clean = true
		}
	}

	if err := fsys.WriteFile(currentPath, content, info.Mode().Perm()); err != nil {
		return false, err
	}
	return clean, nil
}

type InstallDriverFlags struct {
	Include []string `json:"include"`
	Command string   `json:"command"`
}

func installDriverCmd() model.Command {
	return &model.ExecutableCommand[InstallDriverFlags]{
		Usage: "install-driver",
		Short: "Register i18nmerge as the git merge driver for localization files",
		Long:  "Add merge=i18nmerge attributes to the repository's .gitattributes and configure the driver in .git/config.",
		Args:  cobra.NoArgs,
		Run:   runInstallDriver,
		Flags: []flag.Flag{
			flag.StringSliceFlag{
				Common:       flag.Common{Name: "include", Description: "gitattributes patterns routed to the driver"},
				DefaultValue: discovery.DefaultInclude,
			},
			flag.StringFlag{
				Common:       flag.Common{Name: "command", Description: "executable git invokes for the driver"},
				DefaultValue: driverName,
			},
		},
	}
}

func runInstallDriver(ctx context.Context, flags InstallDriverFlags, _ []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	repo, err := git.NewLocalRepository(wd)
	if err != nil {
		return err
	}
	if repo.IsNil() {
		return fmt.Errorf("no git repository found at %s", wd)
	}

	attributesPath := filepath.Join(repo.Root(), gitattributesFile)
	added, err := updateGitattributes(fs.NewFileSystem(), attributesPath, driverName, flags.Include)
	if err != nil {
		return err
	}

	command := fmt.Sprintf("%s merge-driver %%O %%A %%B %%P", flags.Command)
	if err := repo.InstallMergeDriver(driverName, driverDescription, command); err != nil {
		return err
	}

	logger := log.From(ctx)
	for _, line := range added {
		logger.Infof("Added %q to %s", line, gitattributesFile)
	}
	logger.Successf("Merge driver %s installed", driverName)
	return nil
}

// updateGitattributes appends a "<pattern> merge=<driver>" line for each pattern not already
// routed to driver. It returns the lines added.
func updateGitattributes(fsys *fs.FileSystem, path, driver string, patterns []string) ([]string, error) {
	var existing string
	if fsys.Exists(path) {
		data, err := fsys.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		existing = string(data)
	}

	present := map[string]bool{}
	for _, line := range strings.Split(existing, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		for _, attr := range fields[1:] {
			if attr == "merge="+driver {
				present[fields[0]] = true
			}
		}
	}

	var added []string
	for _, pattern := range patterns {
		if present[pattern] {
			continue
		}
		present[pattern] = true
		added = append(added, fmt.Sprintf("%s merge=%s", pattern, driver))
	}
	if len(added) == 0 {
		return nil, nil
	}

	content := existing
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += strings.Join(added, "\n") + "\n"

	if err := fsys.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, errors.Wrapf(err, "writing %s", path)
	}
	return added, nil
}
