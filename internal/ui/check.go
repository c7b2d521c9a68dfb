package ui

import (
	"fmt"
	"io"

	"github.com/g5becks/lex/internal/check"
)

// CheckPrinter renders a check report, one line per document.
type CheckPrinter struct {
	w       io.Writer
	verbose bool
	s       styles
}

// NewCheckPrinter creates a CheckPrinter. Cached and passing documents are
// only listed when verbose is set.
func NewCheckPrinter(w io.Writer, verbose bool) *CheckPrinter {
	return &CheckPrinter{
		w:       w,
		verbose: verbose,
		s:       newStyles(),
	}
}

func (p *CheckPrinter) PrintReport(r *check.Report) {
	if r == nil {
		return
	}

	for _, res := range r.Results {
		p.printResult(res)
	}

	summary := fmt.Sprintf("%d document(s): %d passed, %d cached",
		len(r.Results), r.Passed, r.Cached)
	if r.Failed > 0 {
		summary += ", " + p.s.red.Sprintf("%d failed", r.Failed)
	}

	if len(r.Results) > 0 {
		fmt.Fprintln(p.w)
	}
	fmt.Fprintln(p.w, summary)
}

func (p *CheckPrinter) printResult(res check.Result) {
	switch res.Status {
	case check.StatusFailed:
		fmt.Fprintf(p.w, "%s %s: %s\n",
			p.s.red.Sprint("✗"),
			p.s.bold.Sprint(res.Path),
			res.Error,
		)

	case check.StatusCached:
		if p.verbose {
			fmt.Fprintf(p.w, "%s %s %s\n",
				p.s.dim.Sprint("—"),
				res.Path,
				p.s.dim.Sprint("(cached)"),
			)
		}

	case check.StatusOK:
		if !p.verbose && res.Dropped == 0 && res.Inconsistencies == 0 {
			return
		}
		fmt.Fprintf(p.w, "%s %s %s\n",
			p.s.green.Sprint("✓"),
			res.Path,
			p.s.dim.Sprint(formatCheckDetail(res)),
		)
	}
}

func formatCheckDetail(res check.Result) string {
	detail := fmt.Sprintf("(%d lines", res.Lines)
	if res.Inconsistencies > 0 {
		detail += fmt.Sprintf(", %d list inconsistencies", res.Inconsistencies)
	}
	if res.Dropped > 0 {
		detail += fmt.Sprintf(", %d dropped", res.Dropped)
	}
	return detail + ")"
}
