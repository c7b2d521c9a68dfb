package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/urfave/cli/v3"

	"github.com/g5becks/lex/internal/manifest"
	"github.com/g5becks/lex/internal/search"
	"github.com/g5becks/lex/internal/ui"
)

func newSearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search indexed outlines or document lines",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "collection",
				Usage: "Search only within one collection",
			},
			&cli.BoolFlag{
				Name:  "content",
				Usage: "Search document lines instead of outlines",
			},
			&cli.BoolFlag{
				Name:  "regex",
				Usage: "Treat query as regex (requires --content)",
			},
			jsonFlag(),
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: table, json, csv",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Max results (0 = unlimited)",
			},
			&cli.IntFlag{
				Name:  "desc-length",
				Usage: "Max table text length (0 = use config default)",
			},
		},
		Action: searchAction,
	}
}

func searchAction(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return oops.
			Code("INVALID_ARGS").
			Hint("Usage: lex search <query>").
			Errorf("expected 1 argument, got %d", cmd.Args().Len())
	}

	query := strings.TrimSpace(cmd.Args().First())
	if query == "" {
		return oops.
			Code("INVALID_ARGS").
			Hint("Provide a non-empty search query").
			Errorf("search query cannot be empty")
	}

	if cmd.Bool("regex") && !cmd.Bool("content") {
		return oops.
			Code("INVALID_ARGS").
			Hint("--regex requires --content flag").
			Errorf("--regex can only be used with --content")
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	m, err := manifest.Load(e.cfg.Output)
	if err != nil {
		return err
	}

	format := resolveFormat(cmd, e.cfg)
	limit := resolveLimit(cmd, e.cfg)
	descLength := resolveDescLength(cmd, e.cfg)

	if cmd.Bool("content") {
		return runContentSearch(m, e.cfg.Output, cmd, query, format, limit, descLength)
	}

	return runMetadataSearch(m, cmd, query, format, limit, descLength)
}

func runMetadataSearch(
	m *manifest.Manifest,
	cmd *cli.Command,
	query, format string,
	limit, descLength int,
) error {
	results, err := search.Metadata(m, search.MetadataOptions{
		Query:      query,
		Collection: cmd.String("collection"),
		Limit:      limit,
	})
	if err != nil {
		return err
	}

	if format == formatJSON {
		return writeJSON(stdout(cmd), results)
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		value := r.MatchValue
		if format != formatCSV {
			value = ui.Truncate(value, descLength)
		}
		rows = append(rows, []string{
			r.Collection, r.Path, lineCell(r.Line), r.MatchField, value, strconv.Itoa(r.Score),
		})
	}

	return ui.RenderRecords(stdout(cmd), format,
		[]string{"collection", "path", "line", "match", "value", "score"}, rows)
}

func runContentSearch(
	m *manifest.Manifest,
	outputDir string,
	cmd *cli.Command,
	query, format string,
	limit, descLength int,
) error {
	results, err := search.Content(m, search.ContentOptions{
		OutputDir:  outputDir,
		Query:      query,
		Collection: cmd.String("collection"),
		UseRegex:   cmd.Bool("regex"),
		Limit:      limit,
	})
	if err != nil {
		return err
	}

	if format == formatJSON {
		return writeJSON(stdout(cmd), results)
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		text := r.Text
		if format != formatCSV {
			text = ui.Truncate(strings.TrimSpace(text), descLength)
		}
		rows = append(rows, []string{r.Collection, r.Path, strconv.Itoa(r.Line), text})
	}

	return ui.RenderRecords(stdout(cmd), format, []string{"collection", "path", "line", "text"}, rows)
}

// lineCell leaves the line column empty for matches on a path or
// description.
func lineCell(line int) string {
	if line == 0 {
		return ""
	}
	return strconv.Itoa(line)
}
