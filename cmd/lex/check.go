package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
	"github.com/urfave/cli/v3"

	"github.com/g5becks/lex/internal/check"
	"github.com/g5becks/lex/internal/config"
	"github.com/g5becks/lex/internal/discover"
	"github.com/g5becks/lex/internal/lockfile"
	"github.com/g5becks/lex/internal/ui"
)

func newCheckCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Parse documents and verify that formatting reproduces their tokens",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			configFlag(),
			jsonFlag(),
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Re-check documents that already passed"},
			&cli.BoolFlag{Name: "no-cache", Usage: "Neither read nor update the check cache"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "List every document, not only problems"},
			&cli.IntFlag{Name: "parallel", Aliases: []string{"p"}, Usage: "Maximum documents checked at once (0 = config)"},
		},
		Action: checkAction,
	}
}

func checkAction(ctx context.Context, cmd *cli.Command) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	files, err := checkTargets(e.cfg, cmd.Args().Slice())
	if err != nil {
		return err
	}

	var lock *lockfile.LockFile
	if !cmd.Bool("no-cache") {
		lock, err = lockfile.Load(e.cfg.Output)
		if err != nil {
			return err
		}
	}

	parallel := e.cfg.Parallel
	if cmd.Int("parallel") > 0 {
		parallel = cmd.Int("parallel")
	}

	report, err := check.Run(ctx, e.cfg.ConfigDir, files, lock, check.Options{
		Parse:       e.parse,
		Parallel:    parallel,
		Force:       cmd.Bool("force"),
		Fingerprint: e.cfg.Fingerprint(),
		Logger:      e.logger,
	})
	if err != nil {
		return err
	}

	if lock != nil {
		if err := lock.Save(e.cfg.Output); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		if err := writeJSON(stdout(cmd), report); err != nil {
			return err
		}
	} else {
		ui.NewCheckPrinter(stdout(cmd), cmd.Bool("verbose")).PrintReport(report)
	}

	if !report.OK() {
		return oops.
			Code("CHECK_FAILED").
			With("failed", report.Failed).
			Errorf("%d document(s) failed", report.Failed)
	}

	return nil
}

// checkTargets returns the documents to check. Without arguments it uses the
// config patterns under the config directory; directories are expanded with
// the same patterns. Paths inside the config directory are made relative to
// it so the check cache is keyed the same way either way.
func checkTargets(cfg *config.Config, args []string) ([]string, error) {
	if len(args) == 0 {
		return discover.Files(cfg.ConfigDir, cfg.Patterns, cfg.Exclude)
	}

	var files []string
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, oops.Code("INVALID_ARGS").With("path", arg).Wrapf(err, "resolving path")
		}

		stat, err := os.Stat(abs)
		if err != nil {
			return nil, oops.
				Code("READ_FAILED").
				With("path", arg).
				Hint("Pass existing files or directories").
				Wrapf(err, "checking %s", arg)
		}

		if !stat.IsDir() {
			files = append(files, relativeTo(cfg.ConfigDir, abs))
			continue
		}

		found, err := discover.Files(abs, cfg.Patterns, cfg.Exclude)
		if err != nil {
			return nil, err
		}
		for _, rel := range found {
			files = append(files, relativeTo(cfg.ConfigDir, filepath.Join(abs, filepath.FromSlash(rel))))
		}
	}

	return files, nil
}

func relativeTo(root string, abs string) string {
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return filepath.ToSlash(rel)
}
