package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	lexsync "github.com/g5becks/lex/internal/sync"
)

// SyncPrinter writes one line per sync event. It is safe to use as
// sync.Options.OnEvent, which is called from worker goroutines.
type SyncPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	dryRun bool
	s      styles
}

func NewSyncPrinter(w io.Writer, dryRun bool) *SyncPrinter {
	return &SyncPrinter{w: w, dryRun: dryRun, s: newStyles()}
}

func (p *SyncPrinter) HandleEvent(e lexsync.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := p.s.bold.Sprint(e.Source)

	switch e.Kind {
	case lexsync.EventSourceStart:
		_, _ = fmt.Fprintf(p.w, "%s syncing %s...\n", p.s.dim.Sprint("⟳"), name)

	case lexsync.EventSourcePruned:
		_, _ = fmt.Fprintf(p.w, "%s %s %s\n",
			p.s.yellow.Sprint("-"), name,
			p.s.dim.Sprintf("(%s, no longer configured)", p.verb("removed", "would remove")))

	case lexsync.EventSourceDone:
		switch {
		case e.Err != nil:
			_, _ = fmt.Fprintf(p.w, "%s %s: %s\n", p.s.red.Sprint("✗"), name, e.Err)
		case e.Result == nil:
		case e.Result.Skipped:
			_, _ = fmt.Fprintf(p.w, "%s %s %s\n", p.s.dim.Sprint("—"), name, p.s.dim.Sprint("(up to date)"))
		default:
			_, _ = fmt.Fprintf(p.w, "%s %s %s\n", p.s.green.Sprint("✓"), name, p.s.dim.Sprint(p.detail(e)))
		}
	}
}

// detail names the written document and any download it replaced.
func (p *SyncPrinter) detail(e lexsync.Event) string {
	parts := []string{p.verb("wrote ", "would write ") + filepath.Base(e.Result.Path)}
	if e.Result.Deleted > 0 {
		parts = append(parts, p.verb("removed previous file", "would remove previous file"))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (p *SyncPrinter) verb(done string, planned string) string {
	if p.dryRun {
		return planned
	}
	return done
}

// PrintSummary writes the closing totals. A nil result prints nothing.
func (p *SyncPrinter) PrintSummary(r *lexsync.RunResult) {
	if r == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	label := "sync complete"
	if p.dryRun {
		label = p.s.yellow.Sprint("dry-run complete")
	}

	line := fmt.Sprintf("%s: %d source(s), %d downloaded, %d up to date, %d removed",
		label, r.Sources, r.Downloaded, r.Skipped, r.Deleted)
	if r.Errors > 0 {
		line += ", " + p.s.red.Sprintf("%d failed", r.Errors)
	}

	_, _ = fmt.Fprintf(p.w, "\n%s\n", line)
	if p.dryRun {
		_, _ = fmt.Fprintln(p.w, p.s.dim.Sprint("no files were written or removed"))
	}
}
