package lexer_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/g5becks/lex/internal/lexer"
	"github.com/g5becks/lex/internal/token"
)

const (
	eof   = token.EOF
	ind   = token.Indent
	ded   = token.Dedent
	nl    = token.Newline
	blank = token.BlankLine
	wall  = token.Wall
	am    = token.AnnotationMarker
	dm    = token.DefinitionMarker
	txt   = token.Text
	ws    = token.Whitespace
	id    = token.Identifier
	seq   = token.SequenceMarker
	param = token.Parameter
	vs    = token.VerbatimStart
	vc    = token.VerbatimContent
	ve    = token.VerbatimEnd
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Kind)
	}
	return out
}

func TestTokenizeKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{"paragraph", "Hello world", []token.Kind{txt, ws, txt, eof}},
		{"paragraph newline", "Hello world\n", []token.Kind{txt, ws, txt, nl, eof}},
		{"annotation", ":: title ::\n", []token.Kind{am, ws, id, ws, am, nl, eof}},
		{"annotation params", ":: note author=\"J D\", v=2 :: body\n",
			[]token.Kind{am, ws, id, ws, param, token.Comma, ws, param, ws, am, ws, txt, nl, eof}},
		{"annotation without label", ":: k=v ::\n", []token.Kind{am, ws, param, ws, am, nl, eof}},
		{"definition", "Parser ::\n", []token.Kind{txt, ws, dm, nl, eof}},
		{"list", "- a\n- b\n", []token.Kind{seq, ws, txt, nl, seq, ws, txt, nl, eof}},
		{"session", "Title\n\n    Body\n", []token.Kind{txt, nl, blank, ind, wall, txt, nl, ded, eof}},
		{"tab indent", "a\n\tb\n", []token.Kind{txt, nl, ind, wall, txt, nl, ded, eof}},
		{"crlf", "a\r\nb\r\n", []token.Kind{txt, nl, txt, nl, eof}},
		{"colon", "Note:\nx\n", []token.Kind{txt, token.Colon, nl, txt, nl, eof}},
		{"brackets", "[1]", []token.Kind{token.LBracket, txt, token.RBracket, eof}},
		{"bold", "*bold*", []token.Kind{token.Bold, txt, token.Bold, eof}},
		{"intraword", "snake_case", []token.Kind{txt, eof}},
		{"escape", `a\*b`, []token.Kind{txt, txt, txt, eof}},
		{"whitespace line", "a\n   \nb\n", []token.Kind{txt, nl, blank, txt, nl, eof}},
		{"nested dedents", "a\n    b\n        c\nd\n",
			[]token.Kind{txt, nl, ind, wall, txt, nl, ind, wall, txt, nl, ded, ded, txt, nl, eof}},
		{"dedent at end", "a\n    b", []token.Kind{txt, nl, ind, wall, txt, ded, eof}},
		{"verbatim", "Code:\n    x = 1\n\n    y\nDone\n",
			[]token.Kind{vs, nl, wall, vc, nl, vc, nl, wall, vc, nl, ve, txt, nl, eof}},
		{"verbatim closing label", "Code:\n    x\n:: go ::\n",
			[]token.Kind{vs, nl, wall, vc, nl, ve, ws, am, nl, eof}},
		{"verbatim closing params", "Code:\n    x\n:: go lines=2 ::\n",
			[]token.Kind{vs, nl, wall, vc, nl, ve, ws, param, ws, am, nl, eof}},
		{"colon not verbatim when next is blank", "Code:\n\n    x\n",
			[]token.Kind{txt, token.Colon, nl, blank, ind, wall, txt, nl, ded, eof}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := lexer.Tokenize(tt.src, lexer.Options{})
			if err != nil {
				t.Fatalf("Tokenize(%q) error = %v", tt.src, err)
			}
			if got := kinds(toks); !slices.Equal(got, tt.want) {
				t.Fatalf("Tokenize(%q) kinds =\n  %v\nwant\n  %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestTokenizePayloads(t *testing.T) {
	toks, err := lexer.Tokenize("Code:\n    x = 1\n      y\n:: go ::\n", lexer.Options{})
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}

	if toks[0].Kind != vs || toks[0].Text != "Code" {
		t.Fatalf("toks[0] = %v, want VerbatimStart(\"Code\")", toks[0])
	}

	var content []string
	var label string
	for _, tok := range toks {
		switch tok.Kind {
		case vc:
			content = append(content, tok.Text)
		case ve:
			label = tok.Text
		}
	}

	if want := []string{"x = 1", "  y"}; !slices.Equal(content, want) {
		t.Fatalf("verbatim content = %q, want %q", content, want)
	}
	if label != "go" {
		t.Fatalf("closing label = %q, want %q", label, "go")
	}
}

func TestTokenizeSequenceMarker(t *testing.T) {
	toks, err := lexer.Tokenize("3) third\n", lexer.Options{})
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}

	m := toks[0]
	if m.Kind != seq || m.Text != "3)" {
		t.Fatalf("toks[0] = %v, want SequenceMarker(\"3)\")", m)
	}
	if m.Seq == nil || m.Seq.Style != token.SeqNumeric || m.Seq.Value != 3 {
		t.Fatalf("toks[0].Seq = %+v, want numeric 3", m.Seq)
	}
}

func TestTokenizeAnnotationParams(t *testing.T) {
	toks, err := lexer.Tokenize(":: note author=\"J D\", v=2 ::\n", lexer.Options{})
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}

	var got []token.Param
	for _, tok := range toks {
		if tok.Kind == param {
			got = append(got, *tok.Param)
		}
	}
	want := []token.Param{
		{Key: "author", Value: "J D", Quoted: true},
		{Key: "v", Value: "2"},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("params = %+v, want %+v", got, want)
	}
}

func TestTokenizeVerbatimTitleKeepsBlanks(t *testing.T) {
	tests := map[string]string{
		"Ratio 1: :\n    x\nend\n":  "Ratio 1: ",
		"Path C:\\ :\n    x\nend\n": `Path C:\ `,
		"Code:\n    x\nend\n":       "Code",
	}

	for src, want := range tests {
		toks, err := lexer.Tokenize(src, lexer.Options{})
		if err != nil {
			t.Fatalf("Tokenize(%q) error = %v", src, err)
		}
		if toks[0].Kind != vs || toks[0].Text != want {
			t.Fatalf("Tokenize(%q)[0] = %v, want VerbatimStart(%q)", src, toks[0], want)
		}
	}
}

func TestTokenizeCarriageReturnRun(t *testing.T) {
	toks, err := lexer.Tokenize("one\r\r\ntwo\n\r\n", lexer.Options{})
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}

	want := []token.Kind{txt, nl, txt, nl, blank, eof}
	if got := kinds(toks); !slices.Equal(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if toks[0].Text != "one" {
		t.Fatalf("toks[0].Text = %q, want %q", toks[0].Text, "one")
	}
	if toks[1].Span.Start.Offset != 3 || toks[1].Span.End.Offset != 6 {
		t.Fatalf("newline span = %d..%d, want 3..6", toks[1].Span.Start.Offset, toks[1].Span.End.Offset)
	}
}

func TestTokenizeWallIsNotContent(t *testing.T) {
	toks, err := lexer.Tokenize("a\n    b c\n", lexer.Options{})
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}

	for _, tok := range toks {
		if tok.Kind == txt && (tok.Text[0] == ' ' || tok.Text[0] == '\t') {
			t.Fatalf("content token %v starts with indentation", tok)
		}
	}
}

func TestTokenizePositions(t *testing.T) {
	toks, err := lexer.Tokenize("ab\n  cd", lexer.Options{})
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}

	var cd token.Token
	for _, tok := range toks {
		if tok.Kind == txt && tok.Text == "cd" {
			cd = tok
		}
	}
	want := token.Position{Line: 1, Column: 2, Offset: 5}
	if cd.Span.Start != want {
		t.Fatalf("cd start = %+v, want %+v", cd.Span.Start, want)
	}
	if cd.Span.End.Offset != 7 {
		t.Fatalf("cd end offset = %d, want 7", cd.Span.End.Offset)
	}
}

func TestTokenizeBalance(t *testing.T) {
	srcs := []string{
		"a\n    b\n        c\n",
		"a\n    b\n\n    c\nd\n",
		"Code:\n    x\n  y\nz\n",
		"- a\n    - b\n        - c\n",
	}

	for _, src := range srcs {
		toks, err := lexer.Tokenize(src, lexer.Options{})
		if err != nil {
			t.Fatalf("Tokenize(%q) error = %v", src, err)
		}
		depth := 0
		for _, tok := range toks {
			switch tok.Kind {
			case ind:
				depth++
			case ded:
				depth--
			}
			if depth < 0 {
				t.Fatalf("Tokenize(%q) depth went negative", src)
			}
		}
		if depth != 0 {
			t.Fatalf("Tokenize(%q) ended at depth %d", src, depth)
		}
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		lexKind    lexer.LexErrorKind
		structural bool
	}{
		{"unterminated verbatim", "Code:\n    x\n", lexer.UnterminatedVerbatim, false},
		{"trailing backslash", `a\`, lexer.InvalidEscape, false},
		{"invalid utf8", "a\xffb", lexer.InvalidEncoding, false},
		{"inconsistent dedent", "a\n    b\n  c\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lexer.Tokenize(tt.src, lexer.Options{})
			if err == nil {
				t.Fatalf("Tokenize(%q) error = nil, want error", tt.src)
			}

			if tt.structural {
				var se *lexer.StructuralError
				if !errors.As(err, &se) || se.Kind != lexer.InconsistentDedent {
					t.Fatalf("Tokenize(%q) error = %v, want InconsistentDedent", tt.src, err)
				}
				return
			}

			var le *lexer.LexError
			if !errors.As(err, &le) {
				t.Fatalf("Tokenize(%q) error = %T, want *LexError", tt.src, err)
			}
			if le.Kind != tt.lexKind {
				t.Fatalf("Tokenize(%q) kind = %v, want %v", tt.src, le.Kind, tt.lexKind)
			}
		})
	}
}

func TestUnterminatedVerbatimPosition(t *testing.T) {
	_, err := lexer.Tokenize("intro\n\n  Code:\n      x\n", lexer.Options{})
	var le *lexer.LexError
	if !errors.As(err, &le) {
		t.Fatalf("Tokenize() error = %v, want *LexError", err)
	}
	if le.Pos.Line != 2 {
		t.Fatalf("error line = %d, want 2", le.Pos.Line)
	}
}

func TestNewStartsNormal(t *testing.T) {
	if got := lexer.New("a", lexer.Options{}).State(); got != lexer.Normal {
		t.Fatalf("State() = %v, want %v", got, lexer.Normal)
	}
}
