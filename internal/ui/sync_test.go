package ui_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/g5becks/lex/internal/source"
	"github.com/g5becks/lex/internal/sync"
	"github.com/g5becks/lex/internal/ui"
)

func TestSyncPrinterHandleEvent(t *testing.T) {
	tests := []struct {
		name   string
		dryRun bool
		event  sync.Event
		want   []string
	}{
		{
			name:  "start",
			event: sync.Event{Kind: sync.EventSourceStart, Source: "manual"},
			want:  []string{"syncing manual"},
		},
		{
			name: "downloaded",
			event: sync.Event{
				Kind:   sync.EventSourceDone,
				Source: "manual",
				Result: &source.SyncResult{Downloaded: 1, Path: "/out/sources/manual.lex"},
			},
			want: []string{"manual", "(wrote manual.lex)"},
		},
		{
			name: "renamed",
			event: sync.Event{
				Kind:   sync.EventSourceDone,
				Source: "manual",
				Result: &source.SyncResult{Downloaded: 1, Deleted: 1, Path: "/out/sources/guide.lex"},
			},
			want: []string{"(wrote guide.lex, removed previous file)"},
		},
		{
			name:   "dry run download",
			dryRun: true,
			event: sync.Event{
				Kind:   sync.EventSourceDone,
				Source: "manual",
				Result: &source.SyncResult{Downloaded: 1, Path: "/out/sources/manual.lex"},
			},
			want: []string{"(would write manual.lex)"},
		},
		{
			name: "up to date",
			event: sync.Event{
				Kind:   sync.EventSourceDone,
				Source: "manual",
				Result: &source.SyncResult{Skipped: true},
			},
			want: []string{"manual", "(up to date)"},
		},
		{
			name: "failed",
			event: sync.Event{
				Kind:   sync.EventSourceDone,
				Source: "manual",
				Err:    errors.New("not a lex document"),
			},
			want: []string{"manual: not a lex document"},
		},
		{
			name:  "pruned",
			event: sync.Event{Kind: sync.EventSourcePruned, Source: "old-manual"},
			want:  []string{"old-manual", "(removed, no longer configured)"},
		},
		{
			name:   "pruned dry run",
			dryRun: true,
			event:  sync.Event{Kind: sync.EventSourcePruned, Source: "old-manual"},
			want:   []string{"(would remove, no longer configured)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ui.NewSyncPrinter(&buf, tt.dryRun).HandleEvent(tt.event)

			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Fatalf("HandleEvent() output = %q, want %q", out, want)
				}
			}
		})
	}
}

func TestSyncPrinterIgnoresEmptyResult(t *testing.T) {
	var buf bytes.Buffer
	ui.NewSyncPrinter(&buf, false).HandleEvent(sync.Event{Kind: sync.EventSourceDone, Source: "manual"})

	if buf.Len() != 0 {
		t.Fatalf("HandleEvent() output = %q, want nothing", buf.String())
	}
}

func TestSyncPrinterPrintSummary(t *testing.T) {
	tests := []struct {
		name    string
		dryRun  bool
		result  *sync.RunResult
		want    []string
		notWant string
	}{
		{
			name:    "success",
			result:  &sync.RunResult{Sources: 3, Downloaded: 2, Skipped: 1},
			want:    []string{"sync complete: 3 source(s), 2 downloaded, 1 up to date, 0 removed"},
			notWant: "failed",
		},
		{
			name:   "failures",
			result: &sync.RunResult{Sources: 3, Errors: 2},
			want:   []string{"2 failed"},
		},
		{
			name:   "dry run",
			dryRun: true,
			result: &sync.RunResult{Sources: 2, Downloaded: 2, Deleted: 1},
			want:   []string{"dry-run complete", "1 removed", "no files were written or removed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ui.NewSyncPrinter(&buf, tt.dryRun).PrintSummary(tt.result)

			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Fatalf("PrintSummary() output = %q, want %q", out, want)
				}
			}
			if tt.notWant != "" && strings.Contains(out, tt.notWant) {
				t.Fatalf("PrintSummary() output = %q, should not contain %q", out, tt.notWant)
			}
		})
	}
}

func TestSyncPrinterNilSummary(t *testing.T) {
	var buf bytes.Buffer
	ui.NewSyncPrinter(&buf, false).PrintSummary(nil)

	if buf.Len() != 0 {
		t.Fatalf("PrintSummary(nil) output = %q, want nothing", buf.String())
	}
}
