// Package params scans the key=value parameter lists found in annotations and
// verbatim closing labels, e.g. `lang=go, title="a, b"`.
package params

import (
	"fmt"
	"strings"

	"github.com/g5becks/lex/internal/token"
)

type ItemKind int

const (
	ItemKey ItemKind = iota
	ItemEquals
	ItemValue
	ItemComma
	ItemSpace
)

func (k ItemKind) String() string {
	switch k {
	case ItemKey:
		return "Key"
	case ItemEquals:
		return "Equals"
	case ItemValue:
		return "Value"
	case ItemComma:
		return "Comma"
	case ItemSpace:
		return "Space"
	default:
		return "Unknown"
	}
}

// Item is a low-level parameter token. Raw is the exact source text; Value is
// the unescaped value for ItemValue.
type Item struct {
	Kind   ItemKind
	Raw    string
	Value  string
	Quoted bool
	Span   token.Span
}

type ScanError struct {
	Pos token.Position
	Msg string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

type scanner struct {
	src   string
	pos   int
	start token.Position
	items []Item
}

// Scan tokenizes src, whose first byte sits at start. src must not contain a
// newline. An empty or all-blank src yields only space items.
func Scan(src string, start token.Position) ([]Item, error) {
	s := &scanner{src: src, start: start}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.items, nil
}

func (s *scanner) at(off int) token.Position {
	return token.Position{
		Line:   s.start.Line,
		Column: s.start.Column + off,
		Offset: s.start.Offset + off,
	}
}

func (s *scanner) emit(kind ItemKind, from int, value string, quoted bool) {
	s.items = append(s.items, Item{
		Kind:   kind,
		Raw:    s.src[from:s.pos],
		Value:  value,
		Quoted: quoted,
		Span:   token.Span{Start: s.at(from), End: s.at(s.pos)},
	})
}

func (s *scanner) fail(off int, format string, args ...any) error {
	return &ScanError{Pos: s.at(off), Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) space() {
	from := s.pos
	for s.pos < len(s.src) && isBlank(s.src[s.pos]) {
		s.pos++
	}
	if s.pos > from {
		s.emit(ItemSpace, from, "", false)
	}
}

func (s *scanner) run() error {
	s.space()
	if s.pos == len(s.src) {
		return nil
	}
	for {
		if err := s.pair(); err != nil {
			return err
		}
		s.space()
		if s.pos == len(s.src) {
			return nil
		}
		if s.src[s.pos] != ',' {
			return s.fail(s.pos, "expected ',' between parameters, found %q", s.src[s.pos])
		}
		s.pos++
		s.emit(ItemComma, s.pos-1, "", false)
		s.space()
		if s.pos == len(s.src) {
			return s.fail(s.pos, "trailing ',' in parameter list")
		}
	}
}

func (s *scanner) pair() error {
	from := s.pos
	for s.pos < len(s.src) && IsKeyByte(s.src[s.pos]) {
		s.pos++
	}
	if s.pos == from {
		return s.fail(from, "expected parameter key")
	}
	s.emit(ItemKey, from, "", false)

	s.space()
	if s.pos == len(s.src) || s.src[s.pos] != '=' {
		return s.fail(s.pos, "expected '=' after key %q", s.src[from:s.pos])
	}
	s.pos++
	s.emit(ItemEquals, s.pos-1, "", false)
	s.space()

	if s.pos < len(s.src) && s.src[s.pos] == '"' {
		return s.quoted()
	}

	from = s.pos
	for s.pos < len(s.src) && !isBlank(s.src[s.pos]) && !strings.ContainsRune(`,"=\`, rune(s.src[s.pos])) {
		s.pos++
	}
	if s.pos == from {
		return s.fail(from, "expected parameter value")
	}
	s.emit(ItemValue, from, s.src[from:s.pos], false)
	return nil
}

func (s *scanner) quoted() error {
	from := s.pos
	s.pos++
	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\\' && s.pos+1 < len(s.src) && (s.src[s.pos+1] == '"' || s.src[s.pos+1] == '\\'):
			b.WriteByte(s.src[s.pos+1])
			s.pos += 2
		case c == '"':
			s.pos++
			s.emit(ItemValue, from, b.String(), true)
			return nil
		default:
			b.WriteByte(c)
			s.pos++
		}
	}
	return s.fail(from, "unterminated quoted value")
}

// IsKeyByte reports whether c may appear in a parameter key or annotation label.
func IsKeyByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c == '.'
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

// NeedsQuote reports whether value cannot be written bare.
func NeedsQuote(value string) bool {
	return value == "" || strings.ContainsAny(value, " \t,\"=\\") || strings.Contains(value, "::")
}

// Quote renders value as a quoted parameter value.
func Quote(value string) string {
	var b strings.Builder
	b.Grow(len(value) + 2)
	b.WriteByte('"')
	for i := 0; i < len(value); i++ {
		if value[i] == '"' || value[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(value[i])
	}
	b.WriteByte('"')
	return b.String()
}

// Format renders a parameter the way Scan reads it back.
func Format(p token.Param) string {
	if p.Quoted || NeedsQuote(p.Value) {
		return p.Key + "=" + Quote(p.Value)
	}
	return p.Key + "=" + p.Value
}

// Params folds scanned items into Parameter, Comma and Whitespace tokens.
// Each Parameter span runs from its key through its value.
func Params(items []Item) []token.Token {
	var out []token.Token
	for i := 0; i < len(items); i++ {
		it := items[i]
		switch it.Kind {
		case ItemSpace:
			out = append(out, token.Token{Kind: token.Whitespace, Span: it.Span, Text: it.Raw})
		case ItemComma:
			out = append(out, token.Token{Kind: token.Comma, Span: it.Span})
		case ItemKey:
			j := i
			for j < len(items) && items[j].Kind != ItemValue {
				j++
			}
			if j == len(items) {
				return out
			}
			val := items[j]
			out = append(out, token.Token{
				Kind:  token.Parameter,
				Span:  token.Span{Start: it.Span.Start, End: val.Span.End},
				Param: &token.Param{Key: it.Raw, Value: val.Value, Quoted: val.Quoted},
			})
			i = j
		}
	}
	return out
}

// Map collects parameter tokens into key/value pairs; later keys win.
func Map(toks []token.Token) map[string]string {
	m := make(map[string]string)
	for _, t := range toks {
		if t.Kind == token.Parameter && t.Param != nil {
			m[t.Param.Key] = t.Param.Value
		}
	}
	return m
}
