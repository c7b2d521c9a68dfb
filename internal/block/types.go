// Package block classifies token blocks into the fixed set of block kinds and
// assembles them into a tree of containers.
package block

import (
	"strings"

	"github.com/g5becks/lex/internal/params"
	"github.com/g5becks/lex/internal/token"
	"github.com/g5becks/lex/internal/tree"
)

type Kind int

const (
	KindRoot Kind = iota
	KindBlankLine
	KindAnnotation
	KindDefinition
	KindVerbatim
	KindListItem
	KindList
	KindSession
	KindParagraph
)

var kindNames = map[Kind]string{
	KindRoot:       "Root",
	KindBlankLine:  "BlankLine",
	KindAnnotation: "Annotation",
	KindDefinition: "Definition",
	KindVerbatim:   "Verbatim",
	KindListItem:   "ListItem",
	KindList:       "List",
	KindSession:    "Session",
	KindParagraph:  "Paragraph",
}

func (k Kind) String() string {
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// BlockType is a closed sum over the block kinds. Tokens returns exactly the
// tokens of the block's own lines, enough to reconstruct its text.
type BlockType interface {
	Kind() Kind
	Tokens() []token.Token
	isBlockType()
}

type Root struct{}

type BlankLine struct {
	Token token.Token
}

type Annotation struct {
	Label   string
	Params  []token.Token
	Content []token.Token
	Toks    []token.Token
}

type Definition struct {
	Term   []token.Token
	Marker token.Token
	Toks   []token.Token
}

type Verbatim struct {
	Title   string
	Start   token.Token
	Lines   []token.Token
	End     token.Token
	Label   string
	Params  []token.Token
	Toks    []token.Token
}

type ListItem struct {
	Marker  token.Token
	Content []token.Token
	Toks    []token.Token
}

// List is produced by assembly from a run of sibling ListItem blocks.
type List struct {
	Items []*Block
}

type Session struct {
	Title []token.Token
	Toks  []token.Token
}

type Paragraph struct {
	Toks []token.Token
}

func (Root) Kind() Kind       { return KindRoot }
func (BlankLine) Kind() Kind  { return KindBlankLine }
func (Annotation) Kind() Kind { return KindAnnotation }
func (Definition) Kind() Kind { return KindDefinition }
func (Verbatim) Kind() Kind   { return KindVerbatim }
func (ListItem) Kind() Kind   { return KindListItem }
func (List) Kind() Kind       { return KindList }
func (Session) Kind() Kind    { return KindSession }
func (Paragraph) Kind() Kind  { return KindParagraph }

func (Root) Tokens() []token.Token         { return nil }
func (b BlankLine) Tokens() []token.Token  { return []token.Token{b.Token} }
func (a Annotation) Tokens() []token.Token { return a.Toks }
func (d Definition) Tokens() []token.Token { return d.Toks }
func (v Verbatim) Tokens() []token.Token   { return v.Toks }
func (li ListItem) Tokens() []token.Token  { return li.Toks }
func (p Paragraph) Tokens() []token.Token  { return p.Toks }
func (s Session) Tokens() []token.Token    { return s.Toks }

// Tokens of a List are those of its items' own lines, without their children.
func (l List) Tokens() []token.Token {
	var out []token.Token
	for _, item := range l.Items {
		out = append(out, item.Type.Tokens()...)
	}
	return out
}

func (Root) isBlockType()       {}
func (BlankLine) isBlockType()  {}
func (Annotation) isBlockType() {}
func (Definition) isBlockType() {}
func (Verbatim) isBlockType()   {}
func (ListItem) isBlockType()   {}
func (List) isBlockType()       {}
func (Session) isBlockType()    {}
func (Paragraph) isBlockType()  {}

func (d Definition) TermText() string {
	return token.JoinText(d.Term)
}

func (s Session) TitleText() string {
	return token.JoinText(s.Title)
}

func (p Paragraph) Text() string {
	return token.JoinText(p.Toks)
}

func (li ListItem) MarkerText() string {
	return li.Marker.Text
}

func (li ListItem) Text() string {
	return strings.TrimLeft(token.JoinText(li.Content), " \t")
}

func (a Annotation) Metadata() map[string]string {
	return params.Map(a.Params)
}

func (a Annotation) Text() string {
	return strings.TrimLeft(token.JoinText(a.Content), " \t")
}

func (v Verbatim) Metadata() map[string]string {
	return params.Map(v.Params)
}

// Content returns the verbatim payload, one line per VerbatimContent token.
func (v Verbatim) Content() string {
	lines := make([]string, 0, len(v.Lines))
	for _, t := range v.Lines {
		lines = append(lines, t.Text)
	}
	return strings.Join(lines, "\n")
}

// Block pairs a BlockType with its children. Container is nil for blocks
// without indented content.
type Block struct {
	Type      BlockType
	Container Container
	Lines     *tree.LineRange
	Level     int
}

func (b *Block) Kind() Kind {
	return b.Type.Kind()
}

// Children returns the container's blocks, or nil.
func (b *Block) Children() []*Block {
	if b.Container == nil {
		return nil
	}
	return b.Container.Children()
}

// Walk visits b and its descendants depth first, including List items. fn
// returning false skips the block's descendants.
func Walk(b *Block, fn func(*Block, int) bool) {
	type frame struct {
		b     *Block
		depth int
	}
	stack := []frame{{b, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.b, f.depth) {
			continue
		}
		var next []*Block
		if l, ok := f.b.Type.(List); ok {
			next = append(next, l.Items...)
		}
		next = append(next, f.b.Children()...)
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, frame{next[i], f.depth + 1})
		}
	}
}
