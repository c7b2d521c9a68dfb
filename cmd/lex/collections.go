package main

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/samber/oops"
	"github.com/urfave/cli/v3"

	"github.com/g5becks/lex/internal/manifest"
	"github.com/g5becks/lex/internal/ui"
)

func newCollectionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "collections",
		Usage: "List the indexed document collections",
		Flags: []cli.Flag{
			configFlag(),
			jsonFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Limit number of results (0 = all)",
			},
		},
		Action: collectionsAction,
	}
}

type collectionOutput struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Source   string    `json:"source"`
	Dir      string    `json:"dir"`
	Files    int       `json:"files"`
	Failed   int       `json:"failed,omitempty"`
	Size     int64     `json:"size"`
	LastSync time.Time `json:"last_sync"`
}

func collectionsAction(_ context.Context, cmd *cli.Command) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	m, err := manifest.Load(e.cfg.Output)
	if err != nil {
		return err
	}

	collections := collectionSummaries(m)

	limit := cmd.Int("limit")
	if limit > 0 && len(collections) > limit {
		collections = collections[:limit]
	}

	if cmd.Bool("json") {
		return writeJSON(stdout(cmd), collections)
	}

	return outputCollectionsTable(stdout(cmd), collections)
}

func collectionSummaries(m *manifest.Manifest) []collectionOutput {
	names := m.CollectionNames()
	collections := make([]collectionOutput, 0, len(names))
	for _, name := range names {
		coll := m.Collections[name]
		collections = append(collections, collectionOutput{
			Name:     coll.Name,
			Type:     coll.Type,
			Source:   coll.Source,
			Dir:      coll.Dir,
			Files:    coll.FileCount,
			Failed:   coll.Failed,
			Size:     coll.TotalSize,
			LastSync: coll.LastSync,
		})
	}
	return collections
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return oops.
			Code("JSON_ERROR").
			Wrapf(err, "encoding output")
	}

	return nil
}

func outputCollectionsTable(w io.Writer, collections []collectionOutput) error {
	rows := make([][]string, 0, len(collections))
	for _, coll := range collections {
		lastSync := "-"
		if coll.Type == manifest.CollectionURL {
			lastSync = ui.FormatTime(coll.LastSync)
		}
		rows = append(rows, []string{
			coll.Name,
			coll.Type,
			strconv.Itoa(coll.Files),
			strconv.Itoa(coll.Failed),
			ui.FormatSize(coll.Size),
			lastSync,
		})
	}

	return ui.RenderRecords(w, "table", []string{"name", "type", "files", "failed", "size", "last sync"}, rows)
}
