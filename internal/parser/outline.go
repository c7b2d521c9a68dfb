package parser

import "github.com/g5becks/lex/internal/block"

// ExtractOutline lists the sessions, definitions, annotations and verbatim
// blocks of a document in source order.
func ExtractOutline(root *block.Block) *Outline {
	var headings []Heading

	var visit func(b *block.Block, level int)
	visit = func(b *block.Block, level int) {
		childLevel := level
		switch typ := b.Type.(type) {
		case block.Session:
			headings = append(headings, Heading{Kind: HeadingSession, Level: level, Text: typ.TitleText(), Line: lineOf(b)})
			childLevel++
		case block.Definition:
			headings = append(headings, Heading{Kind: HeadingDefinition, Level: level, Text: typ.TermText(), Line: lineOf(b)})
		case block.Annotation:
			headings = append(headings, Heading{Kind: HeadingAnnotation, Level: level, Text: typ.Text(), Label: typ.Label, Line: lineOf(b)})
		case block.Verbatim:
			headings = append(headings, Heading{Kind: HeadingVerbatim, Level: level, Text: typ.Title, Label: typ.Label, Line: lineOf(b)})
		case block.List:
			for _, item := range typ.Items {
				visit(item, level)
			}
		}
		for _, c := range b.Children() {
			visit(c, childLevel)
		}
	}
	visit(root, 1)

	if len(headings) == 0 {
		return &Outline{Type: OutlineTypeNone}
	}
	return &Outline{Type: OutlineTypeHeadings, Headings: headings}
}

// Describe returns the text of the first paragraph, or the first session
// title when the document has no paragraph.
func Describe(root *block.Block) string {
	var para, title string
	block.Walk(root, func(b *block.Block, _ int) bool {
		if para != "" {
			return false
		}
		switch typ := b.Type.(type) {
		case block.Paragraph:
			para = typ.Text()
		case block.Session:
			if title == "" {
				title = typ.TitleText()
			}
		}
		return true
	})
	if para != "" {
		return para
	}
	return title
}

func lineOf(b *block.Block) int {
	if toks := b.Type.Tokens(); len(toks) > 0 {
		return toks[0].Span.Start.Line + 1
	}
	if b.Lines != nil {
		return b.Lines.First + 1
	}
	return 0
}
