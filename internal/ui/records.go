package ui

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/oops"
)

// RenderRecords writes rows as CSV when format is "csv" and as a table
// otherwise. Table headers are upper-cased.
func RenderRecords(w io.Writer, format string, header []string, rows [][]string) error {
	if format == "csv" {
		return writeCSV(w, header, rows)
	}

	t := newTable(w)
	t.AppendHeader(toRow(header, strings.ToUpper))
	for _, row := range rows {
		t.AppendRow(toRow(row, nil))
	}
	t.Render()

	return nil
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return oops.Code("CSV_ERROR").Wrapf(err, "writing CSV header")
	}
	if err := cw.WriteAll(rows); err != nil {
		return oops.Code("CSV_ERROR").Wrapf(err, "writing CSV rows")
	}

	return nil
}

func toRow(cells []string, transform func(string) string) table.Row {
	row := make(table.Row, len(cells))
	for i, cell := range cells {
		if transform != nil {
			cell = transform(cell)
		}
		row[i] = cell
	}
	return row
}
