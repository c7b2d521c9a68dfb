package block

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"github.com/g5becks/lex/internal/token"
	"github.com/g5becks/lex/internal/tree"
)

// Policy decides what happens to a Session found inside a ContentContainer.
type Policy int

const (
	// PolicyError aborts assembly with a ContainerInvariantError.
	PolicyError Policy = iota
	// PolicyDrop discards the offending Session and logs a warning.
	PolicyDrop
)

func (p Policy) String() string {
	if p == PolicyDrop {
		return "drop"
	}
	return "error"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return PolicyError, nil
	case "drop":
		return PolicyDrop, nil
	default:
		return PolicyError, oops.
			Code("CONFIG_INVALID").
			With("session_in_content", s).
			Hint("Use \"error\" or \"drop\"").
			Errorf("unknown session policy %q", s)
	}
}

type Options struct {
	SessionInContent Policy
	Logger           zerolog.Logger
}

// Inconsistency is a non-fatal oddity noticed while merging list items.
type Inconsistency struct {
	Kind string         `json:"kind"`
	Pos  token.Position `json:"pos"`
	Msg  string         `json:"msg"`
}

const (
	MixedMarkers  = "mixed-markers"
	SkippedNumber = "skipped-number"
)

type Result struct {
	Root            *Block
	Dropped         []*Block
	Inconsistencies []Inconsistency
}

type assembler struct {
	tree  *tree.Tree
	opts  Options
	built []*Block
	res   *Result
}

// Assemble classifies every token block of t bottom-up, merges list items
// into lists and places children into containers.
func Assemble(t *tree.Tree, opts Options) (*Result, error) {
	a := &assembler{
		tree:  t,
		opts:  opts,
		built: make([]*Block, len(t.Blocks)),
		res:   &Result{},
	}

	type frame struct {
		idx     int
		visited bool
	}
	stack := []frame{{idx: t.Root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.visited {
			if err := a.build(f.idx); err != nil {
				return nil, err
			}
			continue
		}
		stack = append(stack, frame{idx: f.idx, visited: true})
		kids := t.Blocks[f.idx].Children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{idx: kids[i]})
		}
	}

	a.res.Root = a.built[t.Root]
	return a.res, nil
}

func (a *assembler) build(idx int) error {
	tb := a.tree.Block(idx)
	kids := make([]*Block, 0, len(tb.Children))
	for _, c := range tb.Children {
		kids = append(kids, a.built[c])
	}
	kids = a.mergeLists(kids)

	typ := Classify(tb, idx == a.tree.Root, kids)
	b := &Block{Type: typ, Lines: tb.Lines, Level: tb.Level}

	if len(kids) > 0 || typ.Kind() == KindRoot {
		b.Container = newContainer(typ.Kind())
		for _, k := range kids {
			if err := a.add(b.Container, k); err != nil {
				return err
			}
		}
	}
	a.built[idx] = b
	return nil
}

func (a *assembler) add(c Container, b *Block) error {
	err := c.AddChild(b)
	var cie *ContainerInvariantError
	if err == nil || !errors.As(err, &cie) || a.opts.SessionInContent != PolicyDrop {
		return err
	}
	a.opts.Logger.Warn().
		Str("pos", cie.Pos.String()).
		Str("parent", cie.Parent.String()).
		Str("title", b.Type.(Session).TitleText()).
		Msg("dropped session nested in content")
	a.res.Dropped = append(a.res.Dropped, b)
	return nil
}

// mergeLists replaces every run of consecutive ListItem siblings with one
// List block.
func (a *assembler) mergeLists(kids []*Block) []*Block {
	var out []*Block
	var run []*Block

	flush := func() {
		if len(run) == 0 {
			return
		}
		out = append(out, a.list(run))
		run = nil
	}

	for _, k := range kids {
		if k.Kind() == KindListItem {
			run = append(run, k)
			continue
		}
		flush()
		out = append(out, k)
	}
	flush()
	return out
}

func (a *assembler) list(items []*Block) *Block {
	a.checkSequence(items)

	b := &Block{
		Type:  List{Items: items},
		Level: items[0].Level,
	}
	first, last := items[0].Lines, items[len(items)-1].Lines
	if first != nil && last != nil {
		b.Lines = &tree.LineRange{First: first.First, Last: last.Last}
	}
	return b
}

func (a *assembler) checkSequence(items []*Block) {
	var prev *token.SeqForm
	var prevText string
	for _, it := range items {
		marker := it.Type.(ListItem).Marker
		form := marker.Seq
		if form == nil {
			continue
		}
		if prev != nil {
			switch {
			case form.Style != prev.Style || form.Close != prev.Close || form.Upper != prev.Upper,
				form.Style == token.SeqUnordered && marker.Text != prevText:
				a.inconsistent(MixedMarkers, marker, fmt.Sprintf("marker %q does not match the list's %s style", marker.Text, prev.Style))
			case form.Style != token.SeqUnordered && form.Value != prev.Value+1:
				a.inconsistent(SkippedNumber, marker, fmt.Sprintf("marker %q follows %d", marker.Text, prev.Value))
			}
		}
		prev, prevText = form, marker.Text
	}
}

func (a *assembler) inconsistent(kind string, at token.Token, msg string) {
	a.res.Inconsistencies = append(a.res.Inconsistencies, Inconsistency{
		Kind: kind,
		Pos:  at.Span.Start,
		Msg:  msg,
	})
	a.opts.Logger.Debug().Str("kind", kind).Str("pos", at.Span.Start.String()).Msg(msg)
}
