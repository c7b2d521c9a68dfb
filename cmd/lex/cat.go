package main

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/urfave/cli/v3"

	"github.com/g5becks/lex/internal/manifest"
	"github.com/g5becks/lex/internal/parser"
)

func newCatCommand() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "Print an indexed document",
		ArgsUsage: "<collection> <file>",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON with metadata",
			},
			&cli.BoolFlag{
				Name:  "no-line-numbers",
				Usage: "Don't show line numbers",
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Start at line N (0-based)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Show N lines (0 = all)",
			},
		},
		Action: catAction,
	}
}

type catOutput struct {
	Collection string `json:"collection"`
	Path       string `json:"path"`
	Lines      int    `json:"lines"`
	Size       int64  `json:"size"`
	Content    string `json:"content"`
	Offset     int    `json:"offset"`
	Limit      int    `json:"limit"`
}

func catAction(_ context.Context, cmd *cli.Command) error {
	const requiredArgs = 2
	if cmd.Args().Len() != requiredArgs {
		return oops.
			Code("INVALID_ARGS").
			Hint("Usage: lex cat <collection> <file>").
			Errorf("expected %d arguments, got %d", requiredArgs, cmd.Args().Len())
	}

	collectionName := cmd.Args().Get(0)
	filePath := cmd.Args().Get(1)

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	m, err := manifest.Load(e.cfg.Output)
	if err != nil {
		return err
	}

	collection, fileInfo, err := findIndexed(m, collectionName, filePath)
	if err != nil {
		return err
	}

	fullPath := collection.AbsPath(fileInfo)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return oops.
			Code("FILE_READ_ERROR").
			With("path", fullPath).
			Hint("Run 'lex index' to refresh the index").
			Wrapf(err, "reading file")
	}

	lines := strings.Split(strings.TrimSuffix(string(parser.StripBOM(content)), "\n"), "\n")
	offset := max(cmd.Int("offset"), 0)
	limit := cmd.Int("limit")

	if offset >= len(lines) {
		lines = []string{}
	} else {
		lines = lines[offset:]
		if limit > 0 && len(lines) > limit {
			lines = lines[:limit]
		}
	}

	if cmd.Bool("json") {
		return writeJSON(stdout(cmd), catOutput{
			Collection: collectionName,
			Path:       fileInfo.Path,
			Lines:      fileInfo.Lines,
			Size:       fileInfo.Size,
			Content:    strings.Join(lines, "\n"),
			Offset:     offset,
			Limit:      limit,
		})
	}

	outputCatText(stdout(cmd), lines, offset, !cmd.Bool("no-line-numbers"))
	return nil
}

// findIndexed looks up a file in the manifest with the errors every
// manifest-reading command reports.
func findIndexed(m *manifest.Manifest, collectionName, filePath string) (*manifest.Collection, *manifest.FileInfo, error) {
	if _, ok := m.Collections[collectionName]; !ok {
		return nil, nil, oops.
			Code("COLLECTION_NOT_FOUND").
			With("collection", collectionName).
			Hint("Run 'lex collections' to see available collections").
			Errorf("collection %q not found", collectionName)
	}

	collection, fileInfo := m.Find(collectionName, filePath)
	if fileInfo == nil {
		return nil, nil, oops.
			Code("FILE_NOT_FOUND").
			With("file", filePath).
			With("collection", collectionName).
			Hint("Run 'lex files " + collectionName + "' to see available files").
			Errorf("file %q not found in collection %q", filePath, collectionName)
	}

	return collection, fileInfo, nil
}

func outputCatText(w io.Writer, lines []string, offset int, showLineNumbers bool) {
	for i, line := range lines {
		if showLineNumbers {
			_, _ = io.WriteString(w, formatWithLineNumber(offset+i+1, line))
		} else {
			_, _ = io.WriteString(w, line+"\n")
		}
	}
}

func formatWithLineNumber(lineNum int, content string) string {
	const lineNumWidth = 6
	const spacing = "  "
	return padLeft(lineNum, lineNumWidth) + spacing + content + "\n"
}

func padLeft(num, width int) string {
	s := strconv.Itoa(num)
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
