package merging

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/i18nmerge/i18nmerge/internal/fs"
	"github.com/i18nmerge/i18nmerge/internal/log"
)

// DefaultConcurrency bounds how many files are resolved at once.
const DefaultConcurrency = 8

// Engine resolves batches of files on a file system.
type Engine struct {
	fs          *fs.FileSystem
	cfg         Config
	concurrency int
	onResult    func(*Result)
}

type EngineOption func(*Engine)

// WithConcurrency sets the number of files resolved in parallel. Values below one are
// ignored.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithProgress registers a callback invoked as each file finishes. It may be called from
// several goroutines at once.
func WithProgress(fn func(*Result)) EngineOption {
	return func(e *Engine) {
		e.onResult = fn
	}
}

func NewEngine(fsys *fs.FileSystem, cfg Config, opts ...EngineOption) *Engine {
	e := &Engine{
		fs:          fsys,
		cfg:         cfg.withDefaults(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// ProcessBatch resolves every path and returns one result per path in input order. A
// failing file never stops the others; all failures are aggregated into the returned
// error. Once ctx is done no further files are started.
func (e *Engine) ProcessBatch(ctx context.Context, paths []string) ([]*Result, error) {
	results := make([]*Result, len(paths))

	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)

	for i, path := range paths {
		i, path := i, path
		if err := ctx.Err(); err != nil {
			results[i] = &Result{Path: path, Kind: KindOf(path), Strategy: e.cfg.Strategy, Err: errors.Wrap(err, "not started")}
			continue
		}

		g.Go(func() error {
			res := e.ProcessFile(ctx, path)
			results[i] = res
			if e.onResult != nil {
				e.onResult(res)
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs *multierror.Error
	for _, res := range results {
		if res.Err != nil {
			errs = multierror.Append(errs, errors.Wrap(res.Err, res.Path))
		}
	}

	return results, errs.ErrorOrNil()
}

// ProcessFile resolves a single file. The file is only rewritten when conflicts were
// resolved, the result validated and the engine is not in dry-run mode.
func (e *Engine) ProcessFile(ctx context.Context, path string) *Result {
	logger := log.From(ctx).WithAssociatedFile(path)

	failed := func(err error) *Result {
		return &Result{Path: path, Kind: KindOf(path), Strategy: e.cfg.Strategy, Err: err}
	}

	info, err := e.fs.Stat(path)
	if err != nil {
		return failed(errors.Wrapf(ErrIO, "stat: %s", err))
	}
	if info.IsDir() {
		return failed(errors.Wrap(ErrIO, "path is a directory"))
	}
	if info.Size() > e.cfg.MaxFileSize {
		return failed(errors.Wrapf(ErrFileTooLarge, "%s exceeds the %s limit",
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(e.cfg.MaxFileSize))))
	}

	original, err := e.fs.ReadFile(path)
	if err != nil {
		return failed(errors.Wrapf(ErrIO, "read: %s", err))
	}

	res := Resolve(string(original), path, e.cfg)
	if !res.Success || res.ConflictsResolved == 0 || e.cfg.DryRun {
		return res
	}

	if e.cfg.Backup {
		backupPath, err := e.fs.Backup(path, original, info.Mode().Perm())
		if err != nil {
			return e.writeFailed(res, errors.Wrapf(ErrIO, "backup: %s", err))
		}
		res.BackupPath = backupPath
	}

	if err := e.fs.WriteFile(path, []byte(res.Content), info.Mode().Perm()); err != nil {
		return e.writeFailed(res, errors.Wrapf(ErrIO, "write: %s", err))
	}
	res.Written = true

	for _, note := range res.Notes {
		logger.Warn(note)
	}

	return res
}

func (e *Engine) writeFailed(res *Result, err error) *Result {
	res.Success = false
	res.Content = ""
	res.Details = ""
	res.Err = err
	return res
}
