package tree_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/g5becks/lex/internal/lexer"
	"github.com/g5becks/lex/internal/token"
	"github.com/g5becks/lex/internal/tree"
)

func build(t *testing.T, src string) *tree.Tree {
	t.Helper()
	toks, err := lexer.Tokenize(src, lexer.Options{})
	if err != nil {
		t.Fatalf("Tokenize(%q) error = %v", src, err)
	}
	tr, err := tree.Build(toks)
	if err != nil {
		t.Fatalf("Build(%q) error = %v", src, err)
	}
	return tr
}

// render prints a block as its joined text followed by its children in
// braces; blank segments render as "_".
func render(tr *tree.Tree, idx int) string {
	b := tr.Block(idx)
	var sb strings.Builder
	if b.IsBlank() {
		sb.WriteString("_")
	} else {
		sb.WriteString(token.JoinText(b.Tokens))
	}
	if len(b.Children) > 0 {
		parts := make([]string, 0, len(b.Children))
		for _, c := range b.Children {
			parts = append(parts, render(tr, c))
		}
		sb.WriteString("{" + strings.Join(parts, "|") + "}")
	}
	return sb.String()
}

func TestBuildSegments(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"single paragraph", "Hello world\n", "{Hello world}"},
		{"multi-line paragraph", "a\nb\n", "{a b}"},
		{"blank line splits", "a\nb\n\nc\n", "{a b|_|c}"},
		{"list lines split", "- a\n- b\n", "{- a|- b}"},
		{"session", "Title\n\n    Body\n", "{Title{Body}}"},
		{"title without blank", "Title\n    Body\n", "{Title{Body}}"},
		{"children then sibling", "A\n    b\n\nC\n", "{A{b|_}|C}"},
		{"nested", "A\n\n    B\n\n        c\n", "{A{B{c}}}"},
		{"verbatim is its own segment", "Intro\nCode:\n    x\nDone\n", "{Intro|Code x|Done}"},
		{"list item children", "- a\n    more\n- b\n", "{- a{more}|- b}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := build(t, tt.src)
			if got := render(tr, tr.Root); got != tt.want {
				t.Fatalf("Build(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestBuildBlankBefore(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"Title\n\n    Body\n", true},
		{"Title\n    Body\n", false},
		{"Title\n\n\n    Body\n", true},
	}

	for _, tt := range tests {
		tr := build(t, tt.src)
		root := tr.RootBlock()
		if len(root.Children) != 1 {
			t.Fatalf("Build(%q) root has %d children, want 1", tt.src, len(root.Children))
		}
		owner := tr.Block(root.Children[0])
		if owner.BlankBefore != tt.want {
			t.Fatalf("Build(%q) BlankBefore = %v, want %v", tt.src, owner.BlankBefore, tt.want)
		}
	}
}

func TestBuildLineRanges(t *testing.T) {
	tr := build(t, "a\nb\n\nc\n")
	root := tr.RootBlock()

	first := tr.Block(root.Children[0])
	if first.Lines == nil || first.Lines.First != 0 || first.Lines.Last != 1 {
		t.Fatalf("first segment lines = %+v, want 0..1", first.Lines)
	}
	last := tr.Block(root.Children[2])
	if last.Lines == nil || !last.Lines.Contains(3) {
		t.Fatalf("last segment lines = %+v, want to contain 3", last.Lines)
	}
}

func TestBuildIndentedStart(t *testing.T) {
	tr := build(t, "    x\n")
	root := tr.RootBlock()
	if len(root.Children) != 1 {
		t.Fatalf("root has %d children, want 1", len(root.Children))
	}

	anon := tr.Block(root.Children[0])
	if len(anon.Tokens) != 0 {
		t.Fatalf("anonymous block has %d tokens, want 0", len(anon.Tokens))
	}
	if len(anon.Children) != 1 {
		t.Fatalf("anonymous block has %d children, want 1", len(anon.Children))
	}
}

func TestNestErrors(t *testing.T) {
	tests := []struct {
		name string
		toks []token.Token
		want lexer.StructuralErrorKind
	}{
		{
			name: "unmatched dedent",
			toks: []token.Token{{Kind: token.Text, Text: "a"}, {Kind: token.Dedent}, {Kind: token.EOF}},
			want: lexer.UnmatchedDedent,
		},
		{
			name: "unclosed indent",
			toks: []token.Token{{Kind: token.Indent}, {Kind: token.Text, Text: "a"}, {Kind: token.EOF}},
			want: lexer.UnclosedIndent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tree.Build(tt.toks)
			var se *lexer.StructuralError
			if !errors.As(err, &se) {
				t.Fatalf("Build() error = %v, want *StructuralError", err)
			}
			if se.Kind != tt.want {
				t.Fatalf("Build() kind = %v, want %v", se.Kind, tt.want)
			}
		})
	}
}

func TestNestMirrorsIndentation(t *testing.T) {
	toks, err := lexer.Tokenize("a\n    b\n        c\n    d\ne\n", lexer.Options{})
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	tr, err := tree.Nest(toks)
	if err != nil {
		t.Fatalf("Nest() error = %v", err)
	}

	root := tr.RootBlock()
	if len(root.Children) != 1 {
		t.Fatalf("root has %d nested levels, want 1", len(root.Children))
	}
	level1 := tr.Block(root.Children[0])
	if level1.Level != 1 || len(level1.Children) != 1 {
		t.Fatalf("level1 = level %d with %d children, want level 1 with 1", level1.Level, len(level1.Children))
	}
	if got := token.JoinText(level1.Tokens); got != "b d" {
		t.Fatalf("level1 text = %q, want %q", got, "b d")
	}
	level2 := tr.Block(level1.Children[0])
	if level2.Level != 2 {
		t.Fatalf("level2.Level = %d, want 2", level2.Level)
	}
}
