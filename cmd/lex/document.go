package main

import (
	"context"
	"io"
	"os"

	"github.com/samber/oops"
	"github.com/urfave/cli/v3"

	"github.com/g5becks/lex/internal/parser"
	"github.com/g5becks/lex/internal/source"
	"github.com/g5becks/lex/internal/ui"
)

func newTokensCommand() *cli.Command {
	return &cli.Command{
		Name:      "tokens",
		Usage:     "Print the token stream of a document",
		ArgsUsage: "<doc>",
		Flags:     []cli.Flag{configFlag(), jsonFlag()},
		Action:    tokensAction,
	}
}

func newTreeCommand() *cli.Command {
	return &cli.Command{
		Name:      "tree",
		Usage:     "Print the block tree of a document",
		ArgsUsage: "<doc>",
		Flags:     []cli.Flag{configFlag(), jsonFlag()},
		Action:    treeAction,
	}
}

func newFmtCommand() *cli.Command {
	return &cli.Command{
		Name:      "fmt",
		Usage:     "Print a document with normalized indentation",
		ArgsUsage: "<doc>",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{Name: "write", Aliases: []string{"w"}, Usage: "Write the result back to the file"},
			&cli.BoolFlag{Name: "check", Usage: "Fail if the document is not already formatted"},
		},
		Action: fmtAction,
	}
}

func tokensAction(ctx context.Context, cmd *cli.Command) error {
	e, ref, err := documentArgs(cmd)
	if err != nil {
		return err
	}

	name, content, err := source.Read(ctx, ref, stdin(cmd))
	if err != nil {
		return err
	}

	toks, err := parser.Tokenize(name, content, e.parse)
	if err != nil {
		return err
	}

	return ui.RenderTokens(stdout(cmd), toks, cmd.Bool("json"))
}

func treeAction(ctx context.Context, cmd *cli.Command) error {
	doc, err := parseDocument(ctx, cmd)
	if err != nil {
		return err
	}

	return ui.RenderBlockTree(stdout(cmd), doc.Root, cmd.Bool("json"))
}

func fmtAction(ctx context.Context, cmd *cli.Command) error {
	doc, err := parseDocument(ctx, cmd)
	if err != nil {
		return err
	}

	text, err := doc.Format()
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("check"):
		if text != doc.Source {
			return oops.
				Code("NOT_FORMATTED").
				With("doc", doc.Name).
				Hint("Run 'lex fmt --write " + doc.Name + "'").
				Errorf("%s is not formatted", doc.Name)
		}
		return nil

	case cmd.Bool("write"):
		if doc.Name == source.StdinName || source.IsRemote(doc.Name) {
			return oops.
				Code("INVALID_ARGS").
				Hint("--write needs a local file").
				Errorf("cannot write formatted output back to %s", doc.Name)
		}
		if text == doc.Source {
			return nil
		}
		if doc.HasBOM {
			text = bom + text
		}
		return writeFormatted(doc.Name, text)

	default:
		_, err := io.WriteString(stdout(cmd), text)
		return err
	}
}

const bom = "\ufeff"

func writeFormatted(path string, text string) error {
	stat, err := os.Stat(path)
	if err != nil {
		return oops.Code("WRITE_FAILED").With("path", path).Wrapf(err, "reading file mode")
	}

	if err := os.WriteFile(path, []byte(text), stat.Mode().Perm()); err != nil {
		return oops.Code("WRITE_FAILED").With("path", path).Wrapf(err, "writing formatted document")
	}

	return nil
}

func documentArgs(cmd *cli.Command) (*env, string, error) {
	if cmd.Args().Len() != 1 {
		return nil, "", oops.
			Code("INVALID_ARGS").
			Hint("Usage: lex " + cmd.Name + " <doc> (a path, - for stdin, or an http(s) URL)").
			Errorf("expected 1 argument, got %d", cmd.Args().Len())
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return nil, "", err
	}

	return e, cmd.Args().First(), nil
}

func parseDocument(ctx context.Context, cmd *cli.Command) (*parser.Document, error) {
	e, ref, err := documentArgs(cmd)
	if err != nil {
		return nil, err
	}

	name, content, err := source.Read(ctx, ref, stdin(cmd))
	if err != nil {
		return nil, err
	}

	return parser.Parse(name, content, e.parse)
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stdin(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}

func stderr(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
