package block

import (
	"strings"

	"github.com/g5becks/lex/internal/token"
	"github.com/g5becks/lex/internal/tree"
)

// Classify assigns a kind to one token block. children are the block's
// already assembled children; only their presence matters here. Rules are
// tried in order and the first match wins:
//
//  1. empty root block: Root
//  2. a single BlankLine token: BlankLine
//  3. opens with "::": Annotation
//  4. contains a definition "::": Definition
//  5. contains a verbatim start: Verbatim
//  6. opens with a sequence marker: ListItem
//  7. a one-line title with children and a blank line before them: Session
//  8. otherwise: Paragraph
func Classify(tb *tree.TokenBlock, isRoot bool, children []*Block) BlockType {
	toks := tb.Tokens
	if len(toks) == 0 && isRoot {
		return Root{}
	}
	if len(toks) == 1 && toks[0].Kind == token.BlankLine {
		return BlankLine{Token: toks[0]}
	}

	first, ok := tb.FirstContent()
	if ok && first.Kind == token.AnnotationMarker {
		return annotation(toks)
	}
	for i, t := range toks {
		if t.Kind == token.DefinitionMarker {
			return definition(toks, i)
		}
	}
	for i, t := range toks {
		if t.Kind == token.VerbatimStart {
			return verbatim(toks, i)
		}
	}
	if ok && first.Kind == token.SequenceMarker {
		return listItem(toks)
	}
	if len(children) > 0 && tb.BlankBefore && lineCount(toks) == 1 {
		return Session{Title: firstLine(toks), Toks: toks}
	}
	return Paragraph{Toks: toks}
}

func annotation(toks []token.Token) Annotation {
	a := Annotation{Toks: toks}
	markers := 0
	for i, t := range toks {
		if markers == 2 {
			a.Content = toks[i:]
			break
		}
		switch t.Kind {
		case token.AnnotationMarker:
			markers++
		case token.Identifier:
			if markers == 1 {
				a.Label += t.Text
			}
		case token.Parameter:
			if markers == 1 {
				a.Params = append(a.Params, t)
			}
		}
	}
	return a
}

func definition(toks []token.Token, marker int) Definition {
	d := Definition{Marker: toks[marker], Toks: toks}
	for _, t := range toks[:marker] {
		if t.Kind != token.Wall {
			d.Term = append(d.Term, t)
		}
	}
	return d
}

func verbatim(toks []token.Token, start int) Verbatim {
	v := Verbatim{Start: toks[start], Title: strings.TrimRight(toks[start].Text, " \t"), Toks: toks}
	ended := false
	for _, t := range toks[start+1:] {
		switch t.Kind {
		case token.VerbatimContent:
			v.Lines = append(v.Lines, t)
		case token.VerbatimEnd:
			v.End = t
			v.Label = t.Text
			ended = true
		case token.Parameter:
			if ended {
				v.Params = append(v.Params, t)
			}
		}
	}
	return v
}

func listItem(toks []token.Token) ListItem {
	li := ListItem{Toks: toks}
	for i, t := range toks {
		if t.Kind == token.SequenceMarker {
			li.Marker = t
			li.Content = toks[i+1:]
			break
		}
	}
	return li
}

func lineCount(toks []token.Token) int {
	n := 0
	for _, t := range toks {
		if t.Kind == token.Newline {
			n++
		}
	}
	return n
}

// firstLine returns the tokens of the first source line, without the Wall and
// the terminating Newline.
func firstLine(toks []token.Token) []token.Token {
	var out []token.Token
	for _, t := range toks {
		if t.Kind == token.Newline || t.Kind == token.BlankLine {
			break
		}
		if t.Kind != token.Wall {
			out = append(out, t)
		}
	}
	return out
}
