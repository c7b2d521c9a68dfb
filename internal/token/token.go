// Package token defines the position-tagged tokens produced by the lexer and
// consumed by every later stage of the pipeline.
package token

import "fmt"

// Position is a zero-indexed location in source text. Column counts bytes.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}

// Span is a half-open range [Start, End).
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

func (s Span) Empty() bool {
	return s.Len() == 0
}

func (s Span) String() string {
	return s.Start.String() + "-" + s.End.String()
}

type Kind int

const (
	EOF Kind = iota

	// Structural, span only.
	Indent
	Dedent
	Newline
	BlankLine
	Wall

	// Markers, span only.
	AnnotationMarker
	DefinitionMarker
	Colon
	Comma
	Bold
	Italic
	Code
	Math
	LBracket
	RBracket

	// Payload carrying.
	Text
	Whitespace
	Identifier
	SequenceMarker
	Parameter
	VerbatimStart
	VerbatimContent
	VerbatimEnd
)

var kindNames = map[Kind]string{
	EOF:              "EOF",
	Indent:           "Indent",
	Dedent:           "Dedent",
	Newline:          "Newline",
	BlankLine:        "BlankLine",
	Wall:             "Wall",
	AnnotationMarker: "AnnotationMarker",
	DefinitionMarker: "DefinitionMarker",
	Colon:            "Colon",
	Comma:            "Comma",
	Bold:             "Bold",
	Italic:           "Italic",
	Code:             "Code",
	Math:             "Math",
	LBracket:         "LBracket",
	RBracket:         "RBracket",
	Text:             "Text",
	Whitespace:       "Whitespace",
	Identifier:       "Identifier",
	SequenceMarker:   "SequenceMarker",
	Parameter:        "Parameter",
	VerbatimStart:    "VerbatimStart",
	VerbatimContent:  "VerbatimContent",
	VerbatimEnd:      "VerbatimEnd",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText lets kinds render by name in JSON dumps.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Literal returns the fixed source text of a marker kind, or "" for kinds
// whose text depends on payload or context.
func (k Kind) Literal() string {
	switch k {
	case AnnotationMarker, DefinitionMarker:
		return "::"
	case Colon:
		return ":"
	case Comma:
		return ","
	case Bold:
		return "*"
	case Italic:
		return "_"
	case Code:
		return "`"
	case Math:
		return "#"
	case LBracket:
		return "["
	case RBracket:
		return "]"
	case Newline, BlankLine:
		return "\n"
	default:
		return ""
	}
}

// IsStructural reports whether the kind carries no content of its own.
func (k Kind) IsStructural() bool {
	switch k {
	case Indent, Dedent, Newline, BlankLine, Wall, EOF:
		return true
	default:
		return false
	}
}

// Param is the payload of a Parameter token.
type Param struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Quoted bool   `json:"quoted,omitempty"`
}

// Token is one lexical unit. Text holds the literal payload for Text,
// Whitespace, Identifier, SequenceMarker and the verbatim kinds; Seq and Param
// are set only for SequenceMarker and Parameter respectively.
type Token struct {
	Kind  Kind     `json:"kind"`
	Span  Span     `json:"span"`
	Text  string   `json:"text,omitempty"`
	Seq   *SeqForm `json:"seq,omitempty"`
	Param *Param   `json:"param,omitempty"`
}

func (t Token) String() string {
	switch {
	case t.Param != nil:
		return fmt.Sprintf("%s(%s=%q)", t.Kind, t.Param.Key, t.Param.Value)
	case t.Text != "":
		return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
	default:
		return t.Kind.String()
	}
}

// ContentEqual compares two tokens ignoring spans.
func ContentEqual(a, b Token) bool {
	if a.Kind != b.Kind || a.Text != b.Text {
		return false
	}
	if (a.Seq == nil) != (b.Seq == nil) || (a.Param == nil) != (b.Param == nil) {
		return false
	}
	if a.Seq != nil && *a.Seq != *b.Seq {
		return false
	}
	if a.Param != nil && *a.Param != *b.Param {
		return false
	}
	return true
}

// Mismatch returns the index of the first position where a and b differ by
// content, or -1 when the sequences are content-equal.
func Mismatch(a, b []Token) int {
	n := min(len(a), len(b))
	for i := range n {
		if !ContentEqual(a[i], b[i]) {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}

// Lines groups tokens by the source line their span starts on, preserving order.
func Lines(toks []Token) [][]Token {
	var lines [][]Token
	var cur []Token
	line := -1
	for _, t := range toks {
		if t.Kind == Indent || t.Kind == Dedent {
			continue
		}
		if line != -1 && t.Span.Start.Line != line {
			lines = append(lines, cur)
			cur = nil
		}
		line = t.Span.Start.Line
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// JoinText concatenates the literal text of content tokens, collapsing
// newlines into single spaces. Structural tokens contribute nothing.
func JoinText(toks []Token) string {
	var out []byte
	for _, t := range toks {
		switch t.Kind {
		case Newline, BlankLine:
			if len(out) > 0 && out[len(out)-1] != ' ' {
				out = append(out, ' ')
			}
		case Parameter:
			if t.Param != nil {
				out = append(out, t.Param.Key...)
				out = append(out, '=')
				out = append(out, t.Param.Value...)
			}
		case Indent, Dedent, Wall, EOF:
		default:
			if t.Text != "" {
				out = append(out, t.Text...)
			} else {
				out = append(out, t.Kind.Literal()...)
			}
		}
	}
	for len(out) > 0 && (out[len(out)-1] == ' ' || out[len(out)-1] == '\t') {
		out = out[:len(out)-1]
	}
	return string(out)
}
