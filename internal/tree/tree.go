// Package tree groups a flat token sequence into nested token blocks: Indent
// and Dedent give the nesting, blank lines give the sibling boundaries.
package tree

import (
	"github.com/g5becks/lex/internal/lexer"
	"github.com/g5becks/lex/internal/token"
)

// LineRange is an inclusive range of source lines.
type LineRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

func (r LineRange) Contains(line int) bool {
	return line >= r.First && line <= r.Last
}

// TokenBlock is one group of tokens at a single nesting level. Children are
// indices into the owning Tree's arena.
type TokenBlock struct {
	Tokens   []token.Token
	Children []int
	Level    int
	Lines    *LineRange

	// BlankBefore is set when blank lines separate the block's own lines
	// from its first child. Those BlankLine tokens end Tokens.
	BlankBefore bool
}

// FirstContent returns the first token that is not a Wall, or false.
func (b *TokenBlock) FirstContent() (token.Token, bool) {
	for _, t := range b.Tokens {
		if t.Kind != token.Wall {
			return t, true
		}
	}
	return token.Token{}, false
}

// IsBlank reports whether the block is a single blank line.
func (b *TokenBlock) IsBlank() bool {
	return len(b.Tokens) == 1 && b.Tokens[0].Kind == token.BlankLine && len(b.Children) == 0
}

// Tree owns every TokenBlock produced for one document.
type Tree struct {
	Blocks []TokenBlock
	Root   int
}

func (t *Tree) Block(i int) *TokenBlock {
	return &t.Blocks[i]
}

func (t *Tree) RootBlock() *TokenBlock {
	return &t.Blocks[t.Root]
}

func (t *Tree) add(b TokenBlock) int {
	t.Blocks = append(t.Blocks, b)
	return len(t.Blocks) - 1
}

// Build runs both stages: nesting from Indent/Dedent, then sibling
// segmentation. Tokens after EOF are ignored.
func Build(toks []token.Token) (*Tree, error) {
	t, err := Nest(toks)
	if err != nil {
		return nil, err
	}
	t.Segment()
	return t, nil
}

// Nest is stage A. It walks the tokens with an explicit stack of open levels;
// the result mirrors Indent/Dedent pairing exactly.
func Nest(toks []token.Token) (*Tree, error) {
	t := &Tree{}
	t.Root = t.add(TokenBlock{})
	open := []int{t.Root}

	var last token.Position
	for _, tok := range toks {
		last = tok.Span.End
		if tok.Kind == token.EOF {
			break
		}
		top := open[len(open)-1]
		switch tok.Kind {
		case token.Indent:
			child := t.add(TokenBlock{Level: len(open)})
			t.Blocks[top].Children = append(t.Blocks[top].Children, child)
			open = append(open, child)
		case token.Dedent:
			if len(open) == 1 {
				return nil, &lexer.StructuralError{
					Kind: lexer.UnmatchedDedent,
					Pos:  tok.Span.Start,
					Msg:  "dedent without a matching indent",
				}
			}
			open = open[:len(open)-1]
		default:
			t.Blocks[top].Tokens = append(t.Blocks[top].Tokens, tok)
		}
	}

	if len(open) > 1 {
		return nil, &lexer.StructuralError{
			Kind: lexer.UnclosedIndent,
			Pos:  last,
			Msg:  "input ended with open indentation levels",
		}
	}

	for i := range t.Blocks {
		t.Blocks[i].Lines = lineRange(t.Blocks[i].Tokens)
	}
	return t, nil
}

func lineRange(toks []token.Token) *LineRange {
	if len(toks) == 0 {
		return nil
	}
	r := &LineRange{First: toks[0].Span.Start.Line, Last: toks[0].Span.Start.Line}
	for _, tok := range toks[1:] {
		if tok.Span.Empty() {
			continue
		}
		if l := tok.Span.Start.Line; l > r.Last {
			r.Last = l
		}
	}
	return r
}
