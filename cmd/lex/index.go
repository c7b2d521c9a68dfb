package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/g5becks/lex/internal/lockfile"
	"github.com/g5becks/lex/internal/manifest"
	"github.com/g5becks/lex/internal/parser"
)

func newIndexCommand() *cli.Command {
	return &cli.Command{
		Name:   "index",
		Usage:  "Index the outlines of local and synced documents",
		Flags:  []cli.Flag{configFlag(), jsonFlag()},
		Action: indexAction,
	}
}

func indexAction(ctx context.Context, cmd *cli.Command) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	lock, err := lockfile.Load(e.cfg.Output)
	if err != nil {
		return err
	}

	m, err := manifest.Generate(ctx, e.cfg, lock, parser.NewLexParser(e.parse))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return writeJSON(stdout(cmd), collectionSummaries(m))
	}

	w := stdout(cmd)
	for _, name := range m.CollectionNames() {
		c := m.Collections[name]
		line := fmt.Sprintf("%s: %d document(s)", name, c.FileCount)
		if c.Failed > 0 {
			line += fmt.Sprintf(", %d failed to parse", c.Failed)
		}
		if c.Skipped > 0 {
			line += fmt.Sprintf(", %d skipped", c.Skipped)
		}
		_, _ = fmt.Fprintln(w, line)
	}
	_, _ = fmt.Fprintf(w, "wrote %s\n", manifest.Path(e.cfg.Output))

	return nil
}
