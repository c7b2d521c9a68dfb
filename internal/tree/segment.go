package tree

import "github.com/g5becks/lex/internal/token"

// row is one logical line of a level: a content line with its Newline, a
// single BlankLine, or a whole verbatim block.
type row struct {
	toks  []token.Token
	lines LineRange
}

func (r row) blank() bool {
	return len(r.toks) == 1 && r.toks[0].Kind == token.BlankLine
}

func (r row) verbatim() bool {
	for _, t := range r.toks {
		if t.Kind == token.VerbatimStart {
			return true
		}
	}
	return false
}

func (r row) startsWithMarker() bool {
	for _, t := range r.toks {
		if t.Kind == token.Wall {
			continue
		}
		return t.Kind == token.SequenceMarker
	}
	return false
}

func splitRows(toks []token.Token) []row {
	var rows []row
	var cur []token.Token
	inVerbatim := false

	flush := func() {
		if len(cur) > 0 {
			rows = append(rows, row{toks: cur, lines: *lineRange(cur)})
			cur = nil
		}
	}

	for _, t := range toks {
		switch {
		case t.Kind == token.BlankLine && !inVerbatim:
			flush()
			cur = append(cur, t)
			flush()
			continue
		case t.Kind == token.VerbatimStart:
			inVerbatim = true
		case t.Kind == token.VerbatimEnd:
			inVerbatim = false
			if t.Text == "" {
				cur = append(cur, t)
				flush()
				continue
			}
		}
		cur = append(cur, t)
		if t.Kind == token.Newline && !inVerbatim {
			flush()
		}
	}
	flush()
	return rows
}

// Segment is stage B. Every level is split into sibling blocks at blank
// lines, around verbatim blocks and at list-marker lines, and each nested
// level is re-homed under the nearest preceding non-blank sibling. Levels
// are processed deepest first so a level's children are already segmented
// when it is visited.
func (t *Tree) Segment() {
	levels := len(t.Blocks)
	siblings := make([][]int, levels)
	for i := levels - 1; i >= 0; i-- {
		siblings[i] = t.segmentLevel(i, siblings)
	}
	root := &t.Blocks[t.Root]
	root.Tokens = nil
	root.Children = siblings[t.Root]
	root.Lines = nil
}

func (t *Tree) segmentLevel(idx int, siblings [][]int) []int {
	level := t.Blocks[idx]
	rows := splitRows(level.Tokens)

	var segs []int
	open := -1
	ci := 0

	attach := func(child int) {
		t.attach(&segs, siblings[child], level.Level)
		open = -1
	}

	for _, r := range rows {
		for ci < len(level.Children) && t.firstLine(level.Children[ci]) < r.lines.First {
			attach(level.Children[ci])
			ci++
		}

		switch {
		case r.blank():
			segs = append(segs, t.add(TokenBlock{
				Tokens: r.toks,
				Level:  level.Level,
				Lines:  &LineRange{First: r.lines.First, Last: r.lines.First},
			}))
			open = -1
		case r.verbatim():
			lines := r.lines
			segs = append(segs, t.add(TokenBlock{
				Tokens: r.toks,
				Level:  level.Level,
				Lines:  &lines,
			}))
			open = -1
		case open >= 0 && !(r.startsWithMarker() && t.startsWithMarker(open)):
			b := &t.Blocks[open]
			b.Tokens = append(b.Tokens, r.toks...)
			b.Lines.Last = r.lines.Last
		default:
			lines := r.lines
			open = t.add(TokenBlock{
				Tokens: append([]token.Token(nil), r.toks...),
				Level:  level.Level,
				Lines:  &lines,
			})
			segs = append(segs, open)
		}
	}
	for ; ci < len(level.Children); ci++ {
		attach(level.Children[ci])
	}
	return segs
}

// attach re-homes the sibling list of one nested level under the last
// non-blank segment. Blank segments between that owner and the child move
// into the owner so that source order is preserved.
func (t *Tree) attach(segs *[]int, child []int, level int) {
	owner := -1
	for i := len(*segs) - 1; i >= 0; i-- {
		if !t.Blocks[(*segs)[i]].IsBlank() {
			owner = i
			break
		}
	}

	if owner < 0 || len(t.Blocks[(*segs)[owner]].Children) > 0 {
		anon := t.add(TokenBlock{Level: level, Children: child})
		*segs = append(*segs, anon)
		return
	}

	b := &t.Blocks[(*segs)[owner]]
	for _, blank := range (*segs)[owner+1:] {
		bl := t.Blocks[blank]
		b.Tokens = append(b.Tokens, bl.Tokens...)
		b.BlankBefore = true
	}
	*segs = (*segs)[:owner+1]
	b.Children = child
}

func (t *Tree) firstLine(levelIdx int) int {
	if r := t.Blocks[levelIdx].Lines; r != nil {
		return r.First
	}
	if kids := t.Blocks[levelIdx].Children; len(kids) > 0 {
		return t.firstLine(kids[0])
	}
	return 0
}

func (t *Tree) startsWithMarker(idx int) bool {
	tok, ok := t.Blocks[idx].FirstContent()
	return ok && tok.Kind == token.SequenceMarker
}
