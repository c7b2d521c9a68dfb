package source

import (
	"context"

	"github.com/jedib0t/go-pretty/v6/progress"

	"github.com/g5becks/lex/internal/config"
	"github.com/g5becks/lex/internal/lockfile"
	"github.com/g5becks/lex/internal/parser"
)

// SyncResult reports what happened during a sync.
type SyncResult struct {
	Downloaded int
	Deleted    int
	Skipped    bool
	Path       string
	LockEntry  *lockfile.LockEntry
}

// SyncOptions controls behavior for source sync operations.
type SyncOptions struct {
	Force  bool
	DryRun bool
}

// Source defines a remote lex document that can be synced.
type Source interface {
	Sync(
		ctx context.Context,
		destDir string,
		prevLock *lockfile.LockEntry,
		opts SyncOptions,
		tracker *progress.Tracker,
	) (*SyncResult, error)
}

// New creates a Source from config. Downloads are parsed with opts before
// they are written so a malformed document never replaces a good one.
func New(name string, cfg config.Source, opts parser.Options) (Source, error) {
	return NewURL(name, cfg, opts)
}
