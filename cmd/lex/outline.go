package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/urfave/cli/v3"

	"github.com/g5becks/lex/internal/manifest"
	"github.com/g5becks/lex/internal/parser"
	"github.com/g5becks/lex/internal/source"
	"github.com/g5becks/lex/internal/ui"
)

func newOutlineCommand() *cli.Command {
	return &cli.Command{
		Name:      "outline",
		Usage:     "Show the sessions, definitions, annotations and verbatim blocks of a document",
		ArgsUsage: "<doc> | <collection> <file>",
		Flags:     []cli.Flag{configFlag(), jsonFlag()},
		Action:    outlineAction,
	}
}

func outlineAction(ctx context.Context, cmd *cli.Command) error {
	switch cmd.Args().Len() {
	case 1:
		return outlineDocument(ctx, cmd)
	case 2:
		return outlineIndexed(cmd)
	default:
		return oops.
			Code("INVALID_ARGS").
			Hint("Usage: lex outline <doc> or lex outline <collection> <file>").
			Errorf("expected 1 or 2 arguments, got %d", cmd.Args().Len())
	}
}

func outlineDocument(ctx context.Context, cmd *cli.Command) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	name, content, err := source.Read(ctx, cmd.Args().First(), stdin(cmd))
	if err != nil {
		return err
	}

	doc, err := parser.Parse(name, content, e.parse)
	if err != nil {
		return err
	}

	return ui.RenderOutline(stdout(cmd), doc.Name, doc.Lines(), parser.ExtractOutline(doc.Root), cmd.Bool("json"))
}

func outlineIndexed(cmd *cli.Command) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	m, err := manifest.Load(e.cfg.Output)
	if err != nil {
		return err
	}

	_, fileInfo, err := findIndexed(m, cmd.Args().Get(0), cmd.Args().Get(1))
	if err != nil {
		return err
	}

	if fileInfo.Warning == manifest.WarningParseError {
		return oops.
			Code("PARSE_FAILED").
			With("file", fileInfo.Path).
			Hint("Run 'lex check' for details").
			Errorf("%s", fileInfo.Error)
	}

	return ui.RenderOutline(stdout(cmd), fileInfo.Path, fileInfo.Lines, fileInfo.Outline, cmd.Bool("json"))
}
