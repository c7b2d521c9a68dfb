package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	stdsync "sync"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"

	"github.com/g5becks/lex/internal/config"
	"github.com/g5becks/lex/internal/lockfile"
	"github.com/g5becks/lex/internal/parser"
	"github.com/g5becks/lex/internal/source"
)

const defaultMaxParallel = 3

type Options struct {
	SourceNames []string
	Force       bool
	DryRun      bool
	MaxParallel int
	Clean       bool
	Parse       parser.Options
	// OnEvent is called from worker goroutines; implementations must be safe
	// for concurrent use.
	OnEvent  func(Event)
	Progress progress.Writer
	Logger   zerolog.Logger
}

type EventKind int

const (
	EventSourceStart EventKind = iota
	EventSourceDone
	EventSourcePruned
)

type Event struct {
	Kind   EventKind
	Source string
	Result *source.SyncResult
	Err    error
}

type RunResult struct {
	Sources    int
	Downloaded int
	Deleted    int
	Skipped    int
	Errors     int
}

type runState struct {
	result *source.SyncResult
	err    error
}

// Run downloads the configured sources into the output directory and records
// their state in the lock file.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*RunResult, error) {
	if cfg == nil {
		return nil, oops.
			Code("CONFIG_INVALID").
			Errorf("config is required")
	}

	emit := opts.OnEvent
	if emit == nil {
		emit = func(Event) {}
	}

	outputDir := resolveOutputRoot(cfg)
	if opts.Clean && !opts.DryRun {
		if err := os.RemoveAll(cfg.SourcesDir()); err != nil {
			return nil, oops.
				Code("WRITE_FAILED").
				With("path", cfg.SourcesDir()).
				Wrapf(err, "cleaning sources directory")
		}
	}

	lock, err := lockfile.Load(outputDir)
	if err != nil {
		return nil, err
	}

	if opts.Clean {
		lock.Sources = map[string]*lockfile.LockEntry{}
	}

	sourceNames, err := resolveSourceNames(cfg.Sources, opts.SourceNames)
	if err != nil {
		return nil, err
	}

	maxParallel := opts.MaxParallel
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}

	results := make(map[string]runState, len(sourceNames))
	var resultsMu stdsync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxParallel)

	for _, sourceName := range sourceNames {
		sourceCfg := cfg.Sources[sourceName]
		destinationDir := cfg.SourceDir(sourceCfg)
		previousLock := lock.GetEntry(sourceName)

		group.Go(func() error {
			emit(Event{Kind: EventSourceStart, Source: sourceName})
			tracker := newTracker(opts.Progress, sourceName)

			state := runState{}
			src, err := source.New(sourceName, sourceCfg, opts.Parse)
			if err != nil {
				state.err = err
			} else {
				state.result, state.err = src.Sync(
					groupCtx,
					destinationDir,
					previousLock,
					source.SyncOptions{
						Force:  opts.Force,
						DryRun: opts.DryRun,
					},
					tracker,
				)
			}

			finishTracker(tracker, state.err)
			opts.Logger.Debug().
				Str("source", sourceName).
				Err(state.err).
				Msg("source synced")

			resultsMu.Lock()
			results[sourceName] = state
			resultsMu.Unlock()

			emit(Event{Kind: EventSourceDone, Source: sourceName, Result: state.result, Err: state.err})
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, oops.Wrapf(err, "waiting for source sync workers")
	}

	runResult := &RunResult{Sources: len(sourceNames)}

	for _, sourceName := range sourceNames {
		state := results[sourceName]
		if state.err != nil {
			runResult.Errors++
			continue
		}

		if state.result == nil {
			continue
		}

		runResult.Downloaded += state.result.Downloaded
		runResult.Deleted += state.result.Deleted
		if state.result.Skipped {
			runResult.Skipped++
		}

		if !opts.DryRun && state.result.LockEntry != nil {
			state.result.LockEntry.Dir = cfg.Sources[sourceName].Out
			lock.SetEntry(sourceName, state.result.LockEntry)
		}
	}

	if len(opts.SourceNames) == 0 {
		pruned, pruneErr := prune(cfg, lock, opts.DryRun)
		if pruneErr != nil {
			return nil, pruneErr
		}
		for _, name := range pruned {
			emit(Event{Kind: EventSourcePruned, Source: name})
		}
		runResult.Deleted += len(pruned)
	}

	if !opts.DryRun {
		if err := lock.Save(outputDir); err != nil {
			return nil, err
		}
	}

	if runResult.Errors > 0 {
		return runResult, oops.
			Code("DOWNLOAD_FAILED").
			With("failed_sources", runResult.Errors).
			Errorf("%d source(s) failed during sync", runResult.Errors)
	}

	return runResult, nil
}

// prune removes downloads of sources that are no longer configured.
func prune(cfg *config.Config, lock *lockfile.LockFile, dryRun bool) ([]string, error) {
	var removed []string

	for name, entry := range lock.Sources {
		if _, ok := cfg.Sources[name]; ok {
			continue
		}

		if !dryRun && entry != nil && entry.File != "" {
			path := filepath.Join(cfg.SourcesDir(), entry.Dir, entry.File)
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, oops.
					Code("WRITE_FAILED").
					With("source", name).
					With("path", path).
					Wrapf(err, "removing unconfigured source")
			}
		}

		removed = append(removed, name)
	}

	slices.Sort(removed)
	if !dryRun {
		for _, name := range removed {
			lock.RemoveEntry(name)
		}
	}

	return removed, nil
}

func newTracker(pw progress.Writer, name string) *progress.Tracker {
	if pw == nil {
		return nil
	}

	tracker := &progress.Tracker{Message: name, Units: progress.UnitsBytes}
	pw.AppendTracker(tracker)
	return tracker
}

func finishTracker(tracker *progress.Tracker, err error) {
	if tracker == nil {
		return
	}

	if err != nil {
		tracker.MarkAsErrored()
		return
	}

	tracker.MarkAsDone()
}

func resolveSourceNames(
	sourceConfigs map[string]config.Source,
	requestedNames []string,
) ([]string, error) {
	if len(requestedNames) == 0 {
		sourceNames := make([]string, 0, len(sourceConfigs))
		for sourceName := range sourceConfigs {
			sourceNames = append(sourceNames, sourceName)
		}

		slices.Sort(sourceNames)
		return sourceNames, nil
	}

	sourceNames := make([]string, 0, len(requestedNames))
	seen := make(map[string]struct{}, len(requestedNames))

	for _, sourceName := range requestedNames {
		if _, ok := sourceConfigs[sourceName]; !ok {
			return nil, oops.
				Code("SOURCE_NOT_FOUND").
				With("source", sourceName).
				Hint("Run 'lex sources' to see configured sources").
				Errorf("source %q not found in config", sourceName)
		}

		if _, exists := seen[sourceName]; exists {
			continue
		}

		seen[sourceName] = struct{}{}
		sourceNames = append(sourceNames, sourceName)
	}

	return sourceNames, nil
}

func resolveOutputRoot(cfg *config.Config) string {
	if filepath.IsAbs(cfg.Output) {
		return cfg.Output
	}

	return filepath.Join(cfg.ConfigDir, cfg.Output)
}
