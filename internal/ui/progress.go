package ui

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// NewProgressWriter returns a tracker writer for source downloads. The caller
// starts it with go pw.Render() and it stops once every tracker is done.
func NewProgressWriter(w io.Writer) progress.Writer {
	writer := progress.NewWriter()
	writer.SetOutputWriter(w)
	writer.SetAutoStop(true)
	writer.SetTrackerLength(30)
	writer.SetStyle(progress.StyleBlocks)
	writer.Style().Visibility.ETA = true
	writer.Style().Visibility.Speed = true
	writer.Style().Visibility.Value = true

	return writer
}
