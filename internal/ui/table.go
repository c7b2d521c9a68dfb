package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

type SourceStatus struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	File      string    `json:"file,omitempty"`
	OutputDir string    `json:"output_dir"`
	Status    string    `json:"status"`
	ETag      string    `json:"etag,omitempty"`
	Lines     int       `json:"lines,omitempty"`
	SyncedAt  time.Time `json:"synced_at,omitempty"`
}

type ListOptions struct {
	JSON    bool
	Verbose bool
	Lines   bool
}

func RenderSourceList(w io.Writer, sources []SourceStatus, opts ListOptions) error {
	if opts.JSON {
		return renderJSON(w, sources)
	}

	renderSourceListTable(w, sources, opts)
	return nil
}

func renderJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func newTable(w io.Writer) table.Writer {
	writer := table.NewWriter()
	writer.SetOutputMirror(w)
	writer.SetStyle(table.StyleRounded)
	return writer
}

func renderSourceListTable(w io.Writer, sources []SourceStatus, opts ListOptions) {
	writer := newTable(w)

	if opts.Verbose {
		writer.AppendHeader(table.Row{"SOURCE", "LOCATION", "STATUS", "ETAG", "SYNCED", "OUTPUT DIR"})
	} else {
		writer.AppendHeader(table.Row{"SOURCE", "LOCATION", "STATUS"})
	}

	for _, source := range sources {
		location := renderLocation(source)
		status := renderStatus(source, opts.Lines)

		if opts.Verbose {
			writer.AppendRow(table.Row{
				source.Name,
				location,
				status,
				source.ETag,
				FormatTime(source.SyncedAt),
				source.OutputDir,
			})
			continue
		}

		writer.AppendRow(table.Row{
			source.Name,
			location,
			status,
		})
	}

	writer.Render()
}

// renderLocation shows the URL, followed by the local filename when it was
// renamed from the URL's last path element.
func renderLocation(source SourceStatus) string {
	if source.File == "" || pathBase(source.URL) == source.File {
		return source.URL
	}

	return source.URL + " -> " + source.File
}

func pathBase(rawURL string) string {
	for i := len(rawURL) - 1; i >= 0; i-- {
		switch rawURL[i] {
		case '/':
			return rawURL[i+1:]
		case '?', '#':
			rawURL = rawURL[:i]
		}
	}

	return rawURL
}

func renderStatus(source SourceStatus, includeLines bool) string {
	if includeLines && source.Lines > 0 {
		return fmt.Sprintf("%s (%d lines)", source.Status, source.Lines)
	}

	return source.Status
}

// FormatTime renders t in local time, or "never" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	return t.Local().Format("2006-01-02 15:04")
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// Truncate shortens s to at most maxLen bytes, ending with an ellipsis.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	const ellipsis = "..."
	if maxLen <= len(ellipsis) {
		return ellipsis
	}
	return s[:maxLen-len(ellipsis)] + ellipsis
}
