package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/urfave/cli/v3"

	"github.com/g5becks/lex/internal/config"
	"github.com/g5becks/lex/internal/manifest"
	"github.com/g5becks/lex/internal/ui"
)

func newFilesCommand() *cli.Command {
	return &cli.Command{
		Name:      "files",
		Usage:     "List indexed documents of a collection",
		ArgsUsage: "[collection]",
		Flags: []cli.Flag{
			configFlag(),
			jsonFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Show first N files (0 = use config default)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Show all files (no limit)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: table, json, csv",
			},
			&cli.StringFlag{
				Name:  "fields",
				Usage: "Comma-separated fields: path,lines,size,headings,description,modified,warning",
			},
			&cli.IntFlag{
				Name:  "desc-length",
				Usage: "Max description length (0 = use config default)",
			},
		},
		Action: filesAction,
	}
}

func filesAction(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() > 1 {
		return oops.
			Code("INVALID_ARGS").
			Hint("Usage: lex files [collection]").
			Errorf("expected at most 1 argument, got %d", cmd.Args().Len())
	}

	collectionName := cmd.Args().First()
	if collectionName == "" {
		collectionName = manifest.CollectionLocal
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	m, err := manifest.Load(e.cfg.Output)
	if err != nil {
		return err
	}

	collection, ok := m.Collections[collectionName]
	if !ok {
		return oops.
			Code("COLLECTION_NOT_FOUND").
			With("collection", collectionName).
			Hint("Run 'lex collections' to see available collections").
			Errorf("collection %q not found", collectionName)
	}

	limit := resolveLimit(cmd, e.cfg)
	format := resolveFormat(cmd, e.cfg)
	fields := resolveFields(cmd, e.cfg)
	descLength := resolveDescLength(cmd, e.cfg)

	files := collection.Files
	totalFiles := len(files)
	limited := false

	if limit > 0 && len(files) > limit {
		files = files[:limit]
		limited = true
	}

	w := stdout(cmd)
	if format == formatJSON {
		return writeJSON(w, files)
	}

	rows := make([][]string, 0, len(files))
	for _, file := range files {
		row := make([]string, len(fields))
		for i, field := range fields {
			row[i] = fieldValue(file, field, descLength)
		}
		rows = append(rows, row)
	}

	if err := ui.RenderRecords(w, format, fields, rows); err != nil {
		return err
	}
	if limited && format != formatCSV {
		_, _ = fmt.Fprintf(w, "\n(showing %d of %d files, use --all to show all)\n", len(files), totalFiles)
	}

	return nil
}

func resolveLimit(cmd *cli.Command, cfg *config.Config) int {
	if cmd.Bool("all") {
		return 0
	}
	if cmd.IsSet("limit") {
		return cmd.Int("limit")
	}
	return cfg.Display.DefaultLimit
}

func resolveFormat(cmd *cli.Command, cfg *config.Config) string {
	if cmd.Bool("json") {
		return formatJSON
	}
	if cmd.IsSet("format") {
		return cmd.String("format")
	}
	return cfg.Display.Format
}

func resolveFields(cmd *cli.Command, cfg *config.Config) []string {
	if cmd.IsSet("fields") {
		fields := strings.Split(cmd.String("fields"), ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		return fields
	}
	return cfg.Display.ListFields
}

func resolveDescLength(cmd *cli.Command, cfg *config.Config) int {
	if cmd.IsSet("desc-length") {
		return cmd.Int("desc-length")
	}
	return cfg.Display.DescriptionLength
}

func fieldValue(file manifest.FileInfo, field string, descLength int) string {
	switch field {
	case "path":
		return file.Path
	case "lines":
		return strconv.Itoa(file.Lines)
	case "size":
		return ui.FormatSize(file.Size)
	case "headings":
		if file.Outline == nil {
			return "0"
		}
		return strconv.Itoa(len(file.Outline.Headings))
	case "description":
		return ui.Truncate(file.Description, descLength)
	case "modified":
		return ui.FormatTime(file.Modified)
	case "warning":
		return file.Warning
	default:
		return ""
	}
}
