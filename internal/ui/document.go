package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/g5becks/lex/internal/block"
	"github.com/g5becks/lex/internal/parser"
	"github.com/g5becks/lex/internal/token"
)

const summaryLength = 60

// RenderTokens writes one table row per token. Structural tokens are listed
// too so the table shows exactly what later stages consume.
func RenderTokens(w io.Writer, toks []token.Token, jsonOut bool) error {
	if jsonOut {
		return renderJSON(w, toks)
	}

	writer := newTable(w)
	writer.AppendHeader(table.Row{"#", "POS", "KIND", "TEXT"})

	for i, t := range toks {
		writer.AppendRow(table.Row{i, t.Span.Start.String(), t.Kind.String(), tokenText(t)})
	}

	writer.Render()
	return nil
}

func tokenText(t token.Token) string {
	switch {
	case t.Param != nil:
		return fmt.Sprintf("%s=%q", t.Param.Key, t.Param.Value)
	case t.Seq != nil:
		return fmt.Sprintf("%s (%s)", t.Text, t.Seq.Style)
	default:
		return fmt.Sprintf("%q", t.Text)
	}
}

// BlockNode is the JSON form of an assembled block.
type BlockNode struct {
	Kind     string            `json:"kind"`
	Line     int               `json:"line,omitempty"`
	Text     string            `json:"text,omitempty"`
	Label    string            `json:"label,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	Children []BlockNode       `json:"children,omitempty"`
}

// NewBlockNode converts b and its descendants. List items become the list's
// children.
func NewBlockNode(b *block.Block) BlockNode {
	node := BlockNode{Kind: b.Kind().String(), Line: blockLine(b)}
	node.Text, node.Label, node.Params = describeBlock(b)

	if l, ok := b.Type.(block.List); ok {
		for _, item := range l.Items {
			node.Children = append(node.Children, NewBlockNode(item))
		}
	}
	for _, c := range b.Children() {
		node.Children = append(node.Children, NewBlockNode(c))
	}

	return node
}

func describeBlock(b *block.Block) (string, string, map[string]string) {
	switch typ := b.Type.(type) {
	case block.Session:
		return typ.TitleText(), "", nil
	case block.Definition:
		return typ.TermText(), "", nil
	case block.Paragraph:
		return typ.Text(), "", nil
	case block.ListItem:
		return strings.TrimSpace(typ.MarkerText() + " " + typ.Text()), "", nil
	case block.Annotation:
		return typ.Text(), typ.Label, typ.Metadata()
	case block.Verbatim:
		return typ.Title, typ.Label, typ.Metadata()
	default:
		return "", "", nil
	}
}

func blockLine(b *block.Block) int {
	if toks := b.Type.Tokens(); len(toks) > 0 {
		return toks[0].Span.Start.Line + 1
	}
	if b.Lines != nil {
		return b.Lines.First + 1
	}
	return 0
}

// RenderBlockTree writes the assembled tree as indented text, or JSON.
func RenderBlockTree(w io.Writer, root *block.Block, jsonOut bool) error {
	node := NewBlockNode(root)
	if jsonOut {
		return renderJSON(w, node)
	}

	s := newStyles()
	var write func(n BlockNode, depth int)
	write = func(n BlockNode, depth int) {
		line := strings.Repeat("  ", depth) + kindColor(s, n.Kind).Sprint(n.Kind)
		if n.Line > 0 {
			line += s.dim.Sprintf(" @%d", n.Line)
		}
		if n.Label != "" {
			line += " [" + n.Label + "]"
		}
		if n.Text != "" {
			line += " " + Truncate(n.Text, summaryLength)
		}
		fmt.Fprintln(w, line)

		for _, c := range n.Children {
			write(c, depth+1)
		}
	}
	write(node, 0)

	return nil
}

func kindColor(s styles, kind string) *color.Color {
	switch kind {
	case block.KindSession.String():
		return s.bold
	case block.KindAnnotation.String(), block.KindVerbatim.String():
		return s.yellow
	case block.KindDefinition.String():
		return s.green
	default:
		return s.dim
	}
}

// RenderOutline lists the outline of one document with its line numbers.
func RenderOutline(w io.Writer, name string, lines int, outline *parser.Outline, jsonOut bool) error {
	if jsonOut {
		return renderJSON(w, outline)
	}

	fmt.Fprintf(w, "%s (%d lines)\n\n", name, lines)

	if outline == nil || outline.Type == parser.OutlineTypeNone {
		fmt.Fprintln(w, "No sessions, definitions or annotations.")
		return nil
	}

	fmt.Fprintln(w, "STRUCTURE:")
	for _, h := range outline.Headings {
		indent := strings.Repeat("  ", max(h.Level-1, 0))
		fmt.Fprintf(w, "%4d  %s%s\n", h.Line, indent, headingText(h))
	}

	return nil
}

func headingText(h parser.Heading) string {
	switch h.Kind {
	case parser.HeadingSession:
		return h.Text
	case parser.HeadingDefinition:
		return h.Text + ":"
	case parser.HeadingAnnotation:
		if h.Text == "" {
			return ":: " + h.Label + " ::"
		}
		return ":: " + h.Label + " :: " + h.Text
	case parser.HeadingVerbatim:
		if h.Label == "" {
			return h.Text + ":"
		}
		return h.Text + ": (" + h.Label + ")"
	default:
		return h.Text
	}
}
