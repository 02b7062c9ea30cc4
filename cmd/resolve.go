package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/i18nmerge/i18nmerge/internal/charm/styles"
	"github.com/i18nmerge/i18nmerge/internal/config"
	"github.com/i18nmerge/i18nmerge/internal/discovery"
	"github.com/i18nmerge/i18nmerge/internal/fs"
	"github.com/i18nmerge/i18nmerge/internal/git"
	"github.com/i18nmerge/i18nmerge/internal/interactivity"
	"github.com/i18nmerge/i18nmerge/internal/locks"
	"github.com/i18nmerge/i18nmerge/internal/log"
	"github.com/i18nmerge/i18nmerge/internal/merging"
	"github.com/i18nmerge/i18nmerge/internal/model"
	"github.com/i18nmerge/i18nmerge/internal/model/flag"
	"github.com/i18nmerge/i18nmerge/internal/report"
	"github.com/i18nmerge/i18nmerge/internal/utils"
)

const (
	lockRetryDelay = 500 * time.Millisecond
	lockTimeout    = 2 * time.Minute
)

type ResolveFlags struct {
	Strategy    string   `json:"strategy"`
	Verbose     bool     `json:"verbose"`
	DryRun      bool     `json:"dry-run"`
	Backup      bool     `json:"backup"`
	Git         bool     `json:"git"`
	Stage       bool     `json:"stage"`
	Include     []string `json:"include"`
	Exclude     []string `json:"exclude"`
	MaxSize     int64    `json:"max-size"`
	Concurrency int      `json:"concurrency"`
	Output      string   `json:"output"`
	Yes         bool     `json:"yes"`
}

func (f ResolveFlags) mergeConfig() (merging.Config, error) {
	strategy, err := merging.ParseStrategy(f.Strategy)
	if err != nil {
		return merging.Config{}, err
	}
	return merging.Config{
		Strategy:    strategy,
		Verbose:     f.Verbose,
		DryRun:      f.DryRun,
		Backup:      f.Backup,
		MaxFileSize: f.MaxSize,
	}, nil
}

func resolveCmd() model.Command {
	strategy, err := config.GetStrategy()
	if err != nil {
		l.Warnf("Ignoring configured strategy: %s", err)
		strategy = merging.StrategySmart
	}

	return &model.ExecutableCommand[ResolveFlags]{
		Usage: "resolve [paths...]",
		Short: "Resolve conflict markers in localization files",
		Long: `Resolve conflict markers in meta.json and dictionary.* files.

Paths may be files or directories. Directories are scanned for matching files that contain conflict markers.
With no paths the working directory is scanned, and with --git the unmerged paths of the git index are used.`,
		Args:           cobra.ArbitraryArgs,
		Run:            runResolve,
		RunInteractive: runResolveInteractive,
		Flags: []flag.Flag{
			flag.EnumFlag{
				Common:        flag.Common{Name: "strategy", Shorthand: "s", Description: "how to resolve each conflict"},
				DefaultValue:  string(strategy),
				AllowedValues: merging.Strategies(),
			},
			flag.BooleanFlag{
				Common: flag.Common{Name: "verbose", Shorthand: "v", Description: "include per-file details and notes in the report"},
			},
			flag.BooleanFlag{
				Common: flag.Common{Name: "dry-run", Description: "resolve without writing any files"},
			},
			flag.BooleanFlag{
				Common:       flag.Common{Name: "backup", Description: "copy each file to a timestamped .bak before rewriting it"},
				DefaultValue: config.GetBackup(),
			},
			flag.BooleanFlag{
				Common: flag.Common{Name: "git", Description: "resolve the unmerged paths of the current git repository"},
			},
			flag.BooleanFlag{
				Common: flag.Common{Name: "stage", Description: "mark resolved files as resolved in the git index"},
			},
			flag.StringSliceFlag{
				Common:       flag.Common{Name: "include", Description: "glob patterns of files to resolve"},
				DefaultValue: config.GetInclude(),
			},
			flag.StringSliceFlag{
				Common:       flag.Common{Name: "exclude", Description: "glob patterns of files to skip"},
				DefaultValue: config.GetExclude(),
			},
			flag.SizeFlag{
				Common:       flag.Common{Name: "max-size", Description: "largest file to process, e.g. 10MiB"},
				DefaultValue: humanize.IBytes(uint64(config.GetMaxFileSize())),
			},
			flag.IntFlag{
				Common:       flag.Common{Name: "concurrency", Description: "number of files resolved in parallel"},
				DefaultValue: config.GetConcurrency(),
				Min:          1,
			},
			flag.EnumFlag{
				Common:        flag.Common{Name: "output", Shorthand: "o", Description: "report format"},
				DefaultValue:  config.GetOutput(),
				AllowedValues: report.Formats(),
			},
			flag.BooleanFlag{
				Common: flag.Common{Name: "yes", Shorthand: "y", Description: "skip the confirmation prompt"},
			},
		},
	}
}

func runResolve(ctx context.Context, flags ResolveFlags, args []string) error {
	return resolve(ctx, flags, args, false)
}

func runResolveInteractive(ctx context.Context, flags ResolveFlags, args []string) error {
	return resolve(ctx, flags, args, true)
}

func resolve(ctx context.Context, flags ResolveFlags, args []string, interactive bool) error {
	logger := log.From(ctx)

	cfg, err := flags.mergeConfig()
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(flags.Output)
	if err != nil {
		return err
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	var repo *git.Repository
	if flags.Git || flags.Stage {
		repo, err = git.NewLocalRepository(wd)
		if err != nil {
			return err
		}
		if repo.IsNil() {
			return fmt.Errorf("--git and --stage require a git repository, none found at %s", wd)
		}
	}

	lockRoot := wd
	if repo != nil {
		lockRoot = repo.Root()
	}
	release, err := acquireTreeLock(ctx, lockRoot)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warnf("Failed to release lock: %s", err)
		}
	}()

	fsys := fs.NewFileSystem()

	paths, err := findTargets(ctx, fsys, repo, flags, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		if format != report.FormatText {
			return report.Write(os.Stdout, report.New(nil, cfg), format)
		}
		logger.Success("No conflicted localization files found")
		return nil
	}

	if interactive && !flags.Yes && !cfg.DryRun {
		proceed, err := confirmWrite(ctx, fsys, cfg, flags.Concurrency, paths)
		if err != nil {
			return err
		}
		if !proceed {
			logger.Info("No files were changed")
			return nil
		}
	}

	// Per-file failures are carried by the results and rendered in the report
	results, _ := runEngine(ctx, fsys, cfg, flags.Concurrency, paths, interactive)

	if interactive && !cfg.DryRun && cfg.Strategy == merging.StrategySmart {
		results, err = retryFailed(ctx, fsys, cfg, flags.Concurrency, results)
		if err != nil {
			return err
		}
	}

	rep := report.New(results, cfg)

	if flags.Stage && !cfg.DryRun {
		for _, res := range results {
			if !res.Success {
				continue
			}
			if err := stageResolved(repo, res); err != nil {
				logger.WithAssociatedFile(res.Path).Errorf("Failed to stage: %s", err)
				continue
			}
			rep.MarkStaged(res.Path)
		}
	}

	if err := report.Write(os.Stdout, rep, format); err != nil {
		return err
	}
	report.WriteStepSummary(rep)

	if !rep.Success {
		return &model.ExitError{Code: 1}
	}
	return nil
}

func acquireTreeLock(ctx context.Context, root string) (func() error, error) {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	release, err := locks.ForTree(root).Acquire(lockCtx, lockRetryDelay, func(attempt int) {
		if attempt == 0 {
			log.From(ctx).Warnf("Waiting for another i18nmerge run on %s to finish", root)
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "locking %s", root)
	}
	return release, nil
}

// findTargets lists the files to resolve. Directory arguments are scanned for conflicted
// files while file arguments are taken as given.
func findTargets(ctx context.Context, fsys *fs.FileSystem, repo *git.Repository, flags ResolveFlags, args []string) ([]string, error) {
	if flags.Git {
		matcher, err := discovery.NewMatcher(flags.Include, flags.Exclude)
		if err != nil {
			return nil, err
		}
		return discovery.FromGit(repo, matcher)
	}

	if len(args) == 0 {
		args = []string{"."}
	}

	var paths []string
	for _, arg := range args {
		info, err := fsys.Stat(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", arg)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		scanner, err := discovery.NewScanner(fsys, discovery.ScanConfig{
			Root:        arg,
			Include:     flags.Include,
			Exclude:     flags.Exclude,
			MaxFileSize: flags.MaxSize,
		})
		if err != nil {
			return nil, err
		}
		found, err := scanner.Scan(ctx)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}

	return lo.Uniq(paths), nil
}

func runEngine(ctx context.Context, fsys *fs.FileSystem, cfg merging.Config, concurrency int, paths []string, interactive bool) ([]*merging.Result, error) {
	opts := []merging.EngineOption{merging.WithConcurrency(concurrency)}

	if interactive {
		verb := "Resolving"
		if cfg.DryRun {
			verb = "Checking"
		}
		spinner := interactivity.StartSpinner(fmt.Sprintf("%s %s", verb, pluralFiles(len(paths))), len(paths))
		defer spinner.Stop()

		var done atomic.Int32
		opts = append(opts, merging.WithProgress(func(*merging.Result) {
			spinner.Progress(int(done.Add(1)))
		}))
	}

	return merging.NewEngine(fsys, cfg, opts...).ProcessBatch(ctx, paths)
}

// confirmWrite previews the run without writing and asks whether to apply it.
func confirmWrite(ctx context.Context, fsys *fs.FileSystem, cfg merging.Config, concurrency int, paths []string) (bool, error) {
	preview := cfg
	preview.DryRun = true

	results, _ := runEngine(ctx, fsys, preview, concurrency, paths, true)
	rep := report.New(results, preview)

	description := fmt.Sprintf("%d resolvable, %d failing", len(rep.Resolved()), rep.FilesFailed)
	if failed := rep.Failed(); len(failed) > 0 {
		lines := lo.Map(failed, func(f report.FileReport, _ int) string {
			return styles.Error.Render("✗ ") + f.Path + ": " + f.Error
		})
		description += "\n" + strings.Join(lines, "\n")
	}

	return interactivity.Confirm(
		fmt.Sprintf("Resolve %d conflicts in %s with the %s strategy?", rep.ConflictsResolved, pluralFiles(len(paths)), cfg.Strategy),
		description,
	)
}

var selectRetryStrategy = interactivity.SelectRetryStrategy

// retryFailed offers an ours/theirs fallback for files the smart strategy could not resolve
// and replaces their results with the retried ones.
func retryFailed(ctx context.Context, fsys *fs.FileSystem, cfg merging.Config, concurrency int, results []*merging.Result) ([]*merging.Result, error) {
	var failedIdx []int
	for i, res := range results {
		if !res.Success && !errors.Is(res.Err, merging.ErrFileTooLarge) && !errors.Is(res.Err, merging.ErrIO) {
			failedIdx = append(failedIdx, i)
		}
	}
	if len(failedIdx) == 0 {
		return results, nil
	}

	strategy, err := selectRetryStrategy(len(failedIdx))
	if err != nil {
		if errors.Is(err, interactivity.ErrAborted) {
			return results, nil
		}
		return nil, err
	}
	if strategy == "" {
		return results, nil
	}

	retry := cfg
	retry.Strategy = strategy
	paths := lo.Map(failedIdx, func(i int, _ int) string { return results[i].Path })

	retried, _ := runEngine(ctx, fsys, retry, concurrency, paths, true)
	for j, i := range failedIdx {
		results[i] = retried[j]
	}
	return results, nil
}

func stageResolved(repo *git.Repository, res *merging.Result) error {
	rel, err := repo.RelPath(res.Path)
	if err != nil {
		return err
	}
	return repo.MarkResolved(rel, []byte(res.Content))
}

func pluralFiles(n int) string {
	return fmt.Sprintf("%d %s", n, utils.Pluralize(n, "file", "files"))
}
