// Package detok turns token sequences and block trees back into source text.
// Re-lexing the output yields the same tokens, ignoring spans.
package detok

import (
	"fmt"
	"strings"

	"github.com/g5becks/lex/internal/block"
	"github.com/g5becks/lex/internal/lexer"
	"github.com/g5becks/lex/internal/params"
	"github.com/g5becks/lex/internal/token"
)

const DefaultIndentWidth = 4

type Options struct {
	// IndentWidth is the number of spaces written per nesting level.
	IndentWidth int
}

func (o Options) indent() int {
	if o.IndentWidth <= 0 {
		return DefaultIndentWidth
	}
	return o.IndentWidth
}

// ReconstructionError reports a token sequence that no source text could
// have produced.
type ReconstructionError struct {
	Index int
	Tok   token.Token
	Msg   string
}

func (e *ReconstructionError) Error() string {
	return fmt.Sprintf("token %d (%s at %s): %s", e.Index, e.Tok.Kind, e.Tok.Span.Start, e.Msg)
}

// Detokenize writes the source text for toks.
func Detokenize(toks []token.Token, opts Options) (string, error) {
	var b strings.Builder
	width := opts.indent()
	depth := 0
	inVerbatim := false

	for i, t := range toks {
		switch t.Kind {
		case token.EOF:
			return b.String(), nil
		case token.Indent:
			depth++
		case token.Dedent:
			if depth == 0 {
				return "", &ReconstructionError{Index: i, Tok: t, Msg: "dedent below depth zero"}
			}
			depth--
		case token.Wall:
			d := depth
			if inVerbatim && i+1 < len(toks) && toks[i+1].Kind == token.VerbatimContent {
				d++
			}
			b.WriteString(strings.Repeat(" ", d*width))
		case token.VerbatimStart:
			inVerbatim = true
			b.WriteString(t.Text)
			b.WriteByte(':')
		case token.VerbatimContent:
			if !inVerbatim {
				return "", &ReconstructionError{Index: i, Tok: t, Msg: "verbatim content outside a verbatim block"}
			}
			b.WriteString(t.Text)
		case token.VerbatimEnd:
			inVerbatim = false
			if t.Text != "" {
				b.WriteString(":: ")
				b.WriteString(t.Text)
			}
		case token.Parameter:
			if t.Param == nil || t.Param.Key == "" {
				return "", &ReconstructionError{Index: i, Tok: t, Msg: "parameter without a key"}
			}
			b.WriteString(params.Format(*t.Param))
		case token.Text, token.Whitespace, token.Identifier, token.SequenceMarker:
			b.WriteString(t.Text)
		default:
			b.WriteString(t.Kind.Literal())
		}
	}
	return b.String(), nil
}

// DetokenizeBlock flattens a block tree back into tokens and detokenizes
// them.
func DetokenizeBlock(b *block.Block, opts Options) (string, error) {
	return Detokenize(Flatten(b), opts)
}

// Flatten returns the tokens of b and its descendants in source order, with
// Indent and Dedent around every container.
func Flatten(b *block.Block) []token.Token {
	var out []token.Token
	flatten(b, &out)
	return out
}

func flatten(b *block.Block, out *[]token.Token) {
	if l, ok := b.Type.(block.List); ok {
		for _, item := range l.Items {
			flatten(item, out)
		}
		return
	}
	*out = append(*out, b.Type.Tokens()...)

	kids := b.Children()
	if len(kids) == 0 {
		return
	}
	nested := b.Kind() != block.KindRoot
	if nested {
		*out = append(*out, token.Token{Kind: token.Indent})
	}
	for _, k := range kids {
		flatten(k, out)
	}
	if nested {
		*out = append(*out, token.Token{Kind: token.Dedent})
	}
}

// Equal reports whether a and b carry the same kinds and payloads. EOF
// tokens and spans are ignored.
func Equal(a, b []token.Token) bool {
	return token.Mismatch(trimEOF(a), trimEOF(b)) < 0
}

func trimEOF(toks []token.Token) []token.Token {
	if n := len(toks); n > 0 && toks[n-1].Kind == token.EOF {
		return toks[:n-1]
	}
	return toks
}

// MismatchError describes where a round trip diverged.
type MismatchError struct {
	Index int
	Want  token.Token
	Got   token.Token
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("round trip diverged at token %d: want %s, got %s", e.Index, e.Want, e.Got)
}

// Verify lexes src, detokenizes the result and lexes that again. It returns
// the reconstructed text, or an error when the two token sequences differ.
func Verify(src string, lexOpts lexer.Options, opts Options) (string, error) {
	first, err := lexer.Tokenize(src, lexOpts)
	if err != nil {
		return "", err
	}
	text, err := Detokenize(first, opts)
	if err != nil {
		return "", err
	}
	return text, Check(first, text, lexOpts)
}

// Check lexes text and compares the result with want. It returns a
// *MismatchError at the first divergence.
func Check(want []token.Token, text string, lexOpts lexer.Options) error {
	got, err := lexer.Tokenize(text, lexOpts)
	if err != nil {
		return err
	}

	a, b := trimEOF(want), trimEOF(got)
	if i := token.Mismatch(a, b); i >= 0 {
		e := &MismatchError{Index: i}
		if i < len(a) {
			e.Want = a[i]
		}
		if i < len(b) {
			e.Got = b[i]
		}
		return e
	}
	return nil
}
