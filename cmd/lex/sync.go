package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/g5becks/lex/internal/lockfile"
	"github.com/g5becks/lex/internal/parser"
	lexsync "github.com/g5becks/lex/internal/sync"
	"github.com/g5becks/lex/internal/ui"
)

const defaultParallel = 3

func newSyncCommand() *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Download configured remote documents",
		ArgsUsage: "[source-name...]",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Download even when the server reports no change"},
			&cli.BoolFlag{Name: "clean", Usage: "Delete downloaded sources before syncing"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Show planned changes without writing files"},
			&cli.BoolFlag{Name: "progress", Usage: "Show download progress bars"},
			&cli.IntFlag{Name: "parallel", Aliases: []string{"p"}, Usage: "Maximum parallel source syncs", Value: defaultParallel},
		},
		Action: syncAction,
	}
}

func syncAction(ctx context.Context, cmd *cli.Command) error {
	e, err := loadEnvStrict(cmd)
	if err != nil {
		return err
	}

	dryRun := cmd.Bool("dry-run")
	printer := ui.NewSyncPrinter(stderr(cmd), dryRun)

	opts := lexsync.Options{
		SourceNames: cmd.Args().Slice(),
		Force:       cmd.Bool("force"),
		DryRun:      dryRun,
		MaxParallel: cmd.Int("parallel"),
		Clean:       cmd.Bool("clean"),
		Parse:       e.parse,
		Logger:      e.logger,
	}

	if cmd.Bool("progress") && isatty.IsTerminal(os.Stderr.Fd()) {
		pw := ui.NewProgressWriter(stderr(cmd))
		opts.Progress = pw
		go pw.Render()
		defer waitForProgress(pw)
	} else {
		opts.OnEvent = printer.HandleEvent
	}

	result, err := lexsync.Run(ctx, e.cfg, opts)
	printer.PrintSummary(result)
	return err
}

// waitForProgress lets the auto-stopping renderer draw the final state.
func waitForProgress(pw interface{ IsRenderInProgress() bool }) {
	for pw.IsRenderInProgress() {
		time.Sleep(50 * time.Millisecond)
	}
}

func newSourcesCommand() *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "List configured remote documents and their sync state",
		Flags: []cli.Flag{
			configFlag(),
			jsonFlag(),
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Show ETag, sync time and output directory"},
			&cli.BoolFlag{Name: "lines", Usage: "Include line counts of downloaded documents"},
		},
		Action: sourcesAction,
	}
}

func sourcesAction(_ context.Context, cmd *cli.Command) error {
	e, err := loadEnvStrict(cmd)
	if err != nil {
		return err
	}

	lock, err := lockfile.Load(e.cfg.Output)
	if err != nil {
		return err
	}

	names := e.cfg.SourceNames()
	sources := make([]ui.SourceStatus, 0, len(names))
	for _, name := range names {
		sourceCfg := e.cfg.Sources[name]
		status := ui.SourceStatus{
			Name:      name,
			URL:       sourceCfg.URL,
			File:      sourceCfg.Filename,
			OutputDir: e.cfg.SourceDir(sourceCfg),
			Status:    "pending",
		}

		if entry := lock.GetEntry(name); entry != nil && entry.File != "" {
			status.File = entry.File
			status.ETag = entry.ETag
			status.SyncedAt = entry.SyncedAt
			status.Status = "synced"

			content, readErr := os.ReadFile(filepath.Join(status.OutputDir, entry.File))
			switch {
			case readErr != nil:
				status.Status = "missing"
			case cmd.Bool("lines"):
				status.Lines = parser.CountLines(content)
			}
		}

		sources = append(sources, status)
	}

	return ui.RenderSourceList(stdout(cmd), sources, ui.ListOptions{
		JSON:    cmd.Bool("json"),
		Verbose: cmd.Bool("verbose"),
		Lines:   cmd.Bool("lines"),
	})
}
