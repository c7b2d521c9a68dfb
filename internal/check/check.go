// Package check runs the parser and the round-trip oracle over many documents
// in parallel, skipping files whose content already passed with the same
// options.
package check

import (
	"context"
	"os"
	"path/filepath"
	stdsync "sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"

	"github.com/g5becks/lex/internal/lockfile"
	"github.com/g5becks/lex/internal/parser"
)

const defaultParallel = 4

type Status string

const (
	StatusOK     Status = "ok"
	StatusCached Status = "cached"
	StatusFailed Status = "failed"
)

type Options struct {
	Parse    parser.Options
	Parallel int
	// Force ignores cached results.
	Force bool
	// Fingerprint salts the content hash so changing parse options
	// invalidates cached results.
	Fingerprint string
	Logger      zerolog.Logger
}

type Result struct {
	Path            string        `json:"path"`
	Status          Status        `json:"status"`
	Err             error         `json:"-"`
	Error           string        `json:"error,omitempty"`
	Lines           int           `json:"lines"`
	Inconsistencies int           `json:"inconsistencies"`
	Dropped         int           `json:"dropped"`
	Duration        time.Duration `json:"duration_ns"`
}

type Report struct {
	Results []Result `json:"results"`
	Passed  int      `json:"passed"`
	Cached  int      `json:"cached"`
	Failed  int      `json:"failed"`
}

// OK reports whether every document passed.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Run checks files, which are absolute or relative to root. lock may be nil
// to disable caching; otherwise it is updated with the new results and the
// caller saves it.
func Run(ctx context.Context, root string, files []string, lock *lockfile.LockFile, opts Options) (*Report, error) {
	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = defaultParallel
	}

	results := make([]Result, len(files))
	var lockMu stdsync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallel)

	for i, rel := range files {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			path := rel
			if !filepath.IsAbs(path) {
				path = filepath.Join(root, filepath.FromSlash(rel))
			}

			content, err := os.ReadFile(path)
			if err != nil {
				results[i] = failed(rel, oops.
					Code("READ_FAILED").
					With("path", rel).
					Wrapf(err, "reading %s", rel))
				return nil
			}

			hash := lockfile.Hash(content, opts.Fingerprint)

			lockMu.Lock()
			cached := lock != nil && !opts.Force && lock.Passed(rel, hash)
			lockMu.Unlock()

			if cached {
				results[i] = Result{Path: rel, Status: StatusCached}
				return nil
			}

			results[i] = Document(rel, content, opts)

			if lock != nil {
				lockMu.Lock()
				if results[i].Status == StatusOK {
					lock.MarkPassed(rel, hash)
				} else {
					lock.Forget(rel)
				}
				lockMu.Unlock()
			}

			opts.Logger.Debug().
				Str("path", rel).
				Str("status", string(results[i].Status)).
				Dur("took", results[i].Duration).
				Msg("checked")
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, oops.
			Code("CHECK_CANCELLED").
			Wrapf(err, "checking documents")
	}

	report := &Report{Results: results}
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			report.Passed++
		case StatusCached:
			report.Cached++
		case StatusFailed:
			report.Failed++
		}
	}

	return report, nil
}

// Document parses content and verifies that formatting it reproduces the
// same tokens.
func Document(name string, content []byte, opts Options) Result {
	start := time.Now()

	doc, err := parser.Parse(name, content, opts.Parse)
	if err != nil {
		r := failed(name, err)
		r.Duration = time.Since(start)
		return r
	}

	if err := doc.Verify(); err != nil {
		r := failed(name, err)
		r.Duration = time.Since(start)
		return r
	}

	return Result{
		Path:            name,
		Status:          StatusOK,
		Lines:           doc.Lines(),
		Inconsistencies: len(doc.Inconsistencies),
		Dropped:         len(doc.Dropped),
		Duration:        time.Since(start),
	}
}

func failed(path string, err error) Result {
	return Result{
		Path:   path,
		Status: StatusFailed,
		Err:    err,
		Error:  err.Error(),
	}
}
