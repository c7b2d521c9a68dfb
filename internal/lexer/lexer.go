// Package lexer turns lex source text into a flat, position-tagged token
// sequence. Indentation is reconciled against an explicit width stack and
// verbatim regions are gated by a two-state cursor.
package lexer

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/g5becks/lex/internal/params"
	"github.com/g5becks/lex/internal/token"
)

const DefaultTabWidth = 4

// State is the lexer's markup mode.
type State int

const (
	Normal State = iota
	InVerbatim
)

func (s State) String() string {
	if s == InVerbatim {
		return "InVerbatim"
	}
	return "Normal"
}

type Options struct {
	TabWidth int
}

type line struct {
	start int // first byte
	end   int // end of content, excluding "\n" and any "\r" run before it
	next  int // start of the following line
}

func (ln line) hasNewline() bool {
	return ln.next > ln.end
}

// verbatim describes the region opened by a VerbatimStart token.
type verbatim struct {
	open      int // opening line index
	openWidth int
	wall      int
	regionEnd int // first line index past the content region
	closing   bool
}

type Lexer struct {
	src   string
	opts  Options
	lines []line
	stack []int
	state State
	vb    verbatim
	cur   int
	toks  []token.Token
}

// Tokenize lexes src into a token sequence terminated by EOF.
func Tokenize(src string, opts Options) ([]token.Token, error) {
	return New(src, opts).Run()
}

func New(src string, opts Options) *Lexer {
	if opts.TabWidth <= 0 {
		opts.TabWidth = DefaultTabWidth
	}
	return &Lexer{
		src:   src,
		opts:  opts,
		lines: splitLines(src),
		stack: []int{0},
	}
}

func splitLines(src string) []line {
	var lines []line
	start := 0
	for start < len(src) {
		nl := strings.IndexByte(src[start:], '\n')
		if nl < 0 {
			lines = append(lines, line{start: start, end: len(src), next: len(src)})
			break
		}
		end := start + nl
		next := end + 1
		for end > start && src[end-1] == '\r' {
			end--
		}
		lines = append(lines, line{start: start, end: end, next: next})
		start = next
	}
	return lines
}

// State reports the current markup mode.
func (l *Lexer) State() State {
	return l.state
}

// Run lexes the whole input. It may be called once.
func (l *Lexer) Run() ([]token.Token, error) {
	if err := l.checkEncoding(); err != nil {
		return nil, err
	}

	for l.cur < len(l.lines) {
		var err error
		switch l.state {
		case Normal:
			err = l.normalLine()
		case InVerbatim:
			err = l.verbatimLine()
		}
		if err != nil {
			return nil, err
		}
	}

	if l.state == InVerbatim {
		return nil, &LexError{
			Kind: UnterminatedVerbatim,
			Pos:  l.pos(l.lines[l.vb.open].start),
			Msg:  "input ended before a line at the opening indentation or a closing label",
		}
	}

	end := l.pos(len(l.src))
	for len(l.stack) > 1 {
		l.stack = l.stack[:len(l.stack)-1]
		l.emit(token.Dedent, len(l.src), len(l.src), "")
	}
	l.toks = append(l.toks, token.Token{Kind: token.EOF, Span: token.Span{Start: end, End: end}})
	return l.toks, nil
}

func (l *Lexer) checkEncoding() error {
	if utf8.ValidString(l.src) {
		return nil
	}
	for off := 0; off < len(l.src); {
		r, size := utf8.DecodeRuneInString(l.src[off:])
		if r == utf8.RuneError && size <= 1 {
			return &LexError{
				Kind: InvalidEncoding,
				Pos:  l.pos(off),
				Msg:  "input is not valid UTF-8",
			}
		}
		off += size
	}
	return nil
}

func (l *Lexer) pos(off int) token.Position {
	idx := sort.Search(len(l.lines), func(i int) bool {
		return l.lines[i].start > off
	}) - 1
	if idx < 0 {
		return token.Position{Offset: off, Column: off}
	}
	ln := l.lines[idx]
	if off >= ln.next && ln.hasNewline() {
		return token.Position{Line: idx + 1, Column: off - ln.next, Offset: off}
	}
	return token.Position{Line: idx, Column: off - ln.start, Offset: off}
}

func (l *Lexer) emit(kind token.Kind, from, to int, text string) {
	l.toks = append(l.toks, token.Token{
		Kind: kind,
		Span: token.Span{Start: l.pos(from), End: l.pos(to)},
		Text: text,
	})
}

func (l *Lexer) emitNewline(ln line) {
	if ln.hasNewline() {
		l.emit(token.Newline, ln.end, ln.next, "")
	}
}

func (l *Lexer) isBlank(ln line) bool {
	for i := ln.start; i < ln.end; i++ {
		if !isBlankByte(l.src[i]) {
			return false
		}
	}
	return true
}

// measure returns the indentation width of ln and the offset of its first
// non-blank byte.
func (l *Lexer) measure(ln line) (int, int) {
	width := 0
	i := ln.start
	for ; i < ln.end; i++ {
		switch l.src[i] {
		case ' ':
			width++
		case '\t':
			width += l.opts.TabWidth - width%l.opts.TabWidth
		default:
			return width, i
		}
	}
	return width, i
}

// wallOffset returns the offset where indentation width reaches wall.
func (l *Lexer) wallOffset(ln line, wall int) int {
	width := 0
	i := ln.start
	for ; i < ln.end && width < wall; i++ {
		switch l.src[i] {
		case ' ':
			width++
		case '\t':
			width += l.opts.TabWidth - width%l.opts.TabWidth
		default:
			return i
		}
	}
	return i
}

// reconcile emits the Indent or Dedent tokens that bring the width stack to
// width.
func (l *Lexer) reconcile(width, at int) error {
	top := l.stack[len(l.stack)-1]
	if width > top {
		l.stack = append(l.stack, width)
		l.emit(token.Indent, at, at, "")
		return nil
	}
	for width < top {
		l.stack = l.stack[:len(l.stack)-1]
		l.emit(token.Dedent, at, at, "")
		top = l.stack[len(l.stack)-1]
	}
	if width != top {
		return &StructuralError{
			Kind: InconsistentDedent,
			Pos:  l.pos(at),
			Msg:  "indentation does not match any enclosing level",
		}
	}
	return nil
}

func (l *Lexer) normalLine() error {
	ln := l.lines[l.cur]
	if l.isBlank(ln) {
		l.emit(token.BlankLine, ln.start, ln.next, "")
		l.cur++
		return nil
	}

	width, from := l.measure(ln)
	if err := l.reconcile(width, ln.start); err != nil {
		return err
	}
	if from > ln.start {
		l.emit(token.Wall, ln.start, from, "")
	}

	isAnnotation, err := l.annotationLine(from, ln.end)
	if err != nil {
		return err
	}
	if isAnnotation {
		l.emitNewline(ln)
		l.cur++
		return nil
	}

	if colon, ok := l.opensVerbatim(width, from, ln); ok {
		l.startVerbatim(width, from, colon, ln)
		return nil
	}

	if err := l.inline(from, ln.end, true, false); err != nil {
		return err
	}
	l.emitNewline(ln)
	l.cur++
	return nil
}

// annotationLine lexes `:: label params :: rest` and reports whether the line
// had that shape.
func (l *Lexer) annotationLine(from, end int) (bool, error) {
	closeAt, ok := l.annotationClose(from, end)
	if !ok {
		return false, nil
	}
	l.emit(token.AnnotationMarker, from, from+2, "")
	if err := l.annotationBody(from+2, closeAt); err != nil {
		return true, err
	}
	l.emit(token.AnnotationMarker, closeAt, closeAt+2, "")
	return true, l.inline(closeAt+2, end, false, true)
}

// annotationClose finds the closing marker of an annotation opening at from.
func (l *Lexer) annotationClose(from, end int) (int, bool) {
	if !strings.HasPrefix(l.src[from:end], "::") {
		return 0, false
	}
	after := from + 2
	if after < end && !isBlankByte(l.src[after]) {
		return 0, false
	}
	inQuote := false
	for j := after; j+1 < end; j++ {
		c := l.src[j]
		switch {
		case c == '\\' && inQuote:
			j++
		case c == '"':
			inQuote = !inQuote
		case c == ':' && l.src[j+1] == ':' && !inQuote:
			return j, true
		}
	}
	return 0, false
}

// annotationBody lexes the label and parameters between the two markers.
func (l *Lexer) annotationBody(from, to int) error {
	p := from
	for p < to && isBlankByte(l.src[p]) {
		p++
	}
	if p > from {
		l.emit(token.Whitespace, from, p, l.src[from:p])
	}

	labelEnd := p
	for labelEnd < to && params.IsKeyByte(l.src[labelEnd]) {
		labelEnd++
	}
	q := labelEnd
	for q < to && isBlankByte(l.src[q]) {
		q++
	}
	if labelEnd > p && (labelEnd == to || isBlankByte(l.src[labelEnd])) && (q == to || l.src[q] != '=') {
		l.emit(token.Identifier, p, labelEnd, l.src[p:labelEnd])
		p = labelEnd
	}

	return l.parameters(p, to)
}

// parameters lexes a parameter list, falling back to plain inline tokens when
// the scanner rejects it.
func (l *Lexer) parameters(from, to int) error {
	if from >= to {
		return nil
	}
	items, err := params.Scan(l.src[from:to], l.pos(from))
	if err != nil {
		return l.inline(from, to, false, true)
	}
	l.toks = append(l.toks, params.Params(items)...)
	return nil
}

// opensVerbatim reports whether the line ending at ln.end has the verbatim
// opening shape and returns the offset of its colon.
func (l *Lexer) opensVerbatim(width, from int, ln line) (int, bool) {
	end := ln.end
	for end > from && isBlankByte(l.src[end-1]) {
		end--
	}
	if end == from || l.src[end-1] != ':' {
		return 0, false
	}
	colon := end - 1
	if colon > from && l.src[colon-1] == ':' {
		return 0, false
	}
	if escaped(l.src, from, colon) {
		return 0, false
	}
	if l.cur+1 >= len(l.lines) {
		return 0, false
	}
	next := l.lines[l.cur+1]
	if l.isBlank(next) {
		return 0, false
	}
	w, _ := l.measure(next)
	return colon, w > width
}

// escaped reports whether the byte at i is preceded by an odd run of
// backslashes starting no earlier than from.
func escaped(src string, from, i int) bool {
	n := 0
	for j := i - 1; j >= from && src[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// startVerbatim emits the opening line. The token text is the raw title,
// blanks before the colon included.
func (l *Lexer) startVerbatim(width, from, colon int, ln line) {
	l.emit(token.VerbatimStart, from, colon+1, l.src[from:colon])
	if colon+1 < ln.end {
		l.emit(token.Whitespace, colon+1, ln.end, l.src[colon+1:ln.end])
	}
	l.emitNewline(ln)

	vb := verbatim{open: l.cur, openWidth: width, wall: -1}
	last := l.cur
	j := l.cur + 1
	for ; j < len(l.lines); j++ {
		next := l.lines[j]
		if l.isBlank(next) {
			continue
		}
		w, _ := l.measure(next)
		if w <= width {
			break
		}
		last = j
		if vb.wall < 0 || w < vb.wall {
			vb.wall = w
		}
	}

	switch {
	case j == len(l.lines):
		vb.regionEnd = len(l.lines)
	case l.closingLabel(j, width):
		vb.regionEnd = j
		vb.closing = true
	default:
		vb.regionEnd = last + 1
	}

	l.vb = vb
	l.state = InVerbatim
	l.cur++
}

// closingLabel reports whether line idx is a `:: label params ::` line at the
// opening width with nothing after the closing marker.
func (l *Lexer) closingLabel(idx, width int) bool {
	ln := l.lines[idx]
	w, from := l.measure(ln)
	if w != width {
		return false
	}
	closeAt, ok := l.annotationClose(from, ln.end)
	if !ok {
		return false
	}
	for i := closeAt + 2; i < ln.end; i++ {
		if !isBlankByte(l.src[i]) {
			return false
		}
	}
	p := from + 2
	for p < closeAt && isBlankByte(l.src[p]) {
		p++
	}
	labelEnd := p
	for labelEnd < closeAt && params.IsKeyByte(l.src[labelEnd]) {
		labelEnd++
	}
	if labelEnd == p || labelEnd < closeAt && !isBlankByte(l.src[labelEnd]) {
		return false
	}
	q := labelEnd
	for q < closeAt && isBlankByte(l.src[q]) {
		q++
	}
	if q < closeAt && l.src[q] == '=' {
		return false
	}
	if q < closeAt {
		if _, err := params.Scan(l.src[labelEnd:closeAt], l.pos(labelEnd)); err != nil {
			return false
		}
	}
	return true
}

// verbatimLine emits one line of a verbatim region, or the region's end.
// Markup is not interpreted here: escapes and delimiters stay in the content
// text exactly as written.
func (l *Lexer) verbatimLine() error {
	if l.cur >= l.vb.regionEnd {
		return l.endVerbatim()
	}
	ln := l.lines[l.cur]
	if l.isBlank(ln) {
		l.emit(token.VerbatimContent, ln.start, ln.end, "")
	} else {
		wallEnd := l.wallOffset(ln, l.vb.wall)
		l.emit(token.Wall, ln.start, wallEnd, "")
		l.emit(token.VerbatimContent, wallEnd, ln.end, l.src[wallEnd:ln.end])
	}
	l.emitNewline(ln)
	l.cur++
	return nil
}

func (l *Lexer) endVerbatim() error {
	l.state = Normal
	if !l.vb.closing {
		at := l.lines[l.cur].start
		l.emit(token.VerbatimEnd, at, at, "")
		return nil
	}

	ln := l.lines[l.cur]
	_, from := l.measure(ln)
	if from > ln.start {
		l.emit(token.Wall, ln.start, from, "")
	}
	closeAt, _ := l.annotationClose(from, ln.end)

	p := from + 2
	for p < closeAt && isBlankByte(l.src[p]) {
		p++
	}
	labelEnd := p
	for labelEnd < closeAt && params.IsKeyByte(l.src[labelEnd]) {
		labelEnd++
	}
	l.emit(token.VerbatimEnd, from, labelEnd, l.src[p:labelEnd])
	if err := l.parameters(labelEnd, closeAt); err != nil {
		return err
	}
	l.emit(token.AnnotationMarker, closeAt, closeAt+2, "")
	if closeAt+2 < ln.end {
		l.emit(token.Whitespace, closeAt+2, ln.end, l.src[closeAt+2:ln.end])
	}
	l.emitNewline(ln)
	l.cur++
	return nil
}

// inline lexes the content bytes [from, to) of one line. lineStart enables
// sequence-marker recognition; noDef suppresses definition markers on lines
// that open with an annotation marker.
func (l *Lexer) inline(from, to int, lineStart, noDef bool) error {
	p := from
	if lineStart {
		if strings.HasPrefix(l.src[from:to], "::") {
			noDef = true
		}
		p = l.sequenceMarker(from, to)
	}

	textStart := -1
	flush := func(at int) {
		if textStart >= 0 {
			l.emit(token.Text, textStart, at, l.src[textStart:at])
			textStart = -1
		}
	}

	for p < to {
		c := l.src[p]
		switch {
		case c == '\\':
			if p+1 == len(l.src) {
				return &LexError{Kind: InvalidEscape, Pos: l.pos(p), Msg: "backslash at end of input"}
			}
			if p+1 < to && isEscapable(l.src[p+1]) {
				flush(p)
				l.emit(token.Text, p, p+2, l.src[p:p+2])
				p += 2
				continue
			}
			if textStart < 0 {
				textStart = p
			}
			p++

		case isBlankByte(c):
			flush(p)
			q := p
			for q < to && isBlankByte(l.src[q]) {
				q++
			}
			l.emit(token.Whitespace, p, q, l.src[p:q])
			p = q

		case c == ':':
			flush(p)
			if p+1 < to && l.src[p+1] == ':' {
				kind := token.AnnotationMarker
				if !noDef && l.onlyBlanks(p+2, to) {
					kind = token.DefinitionMarker
				}
				l.emit(kind, p, p+2, "")
				p += 2
				continue
			}
			l.emit(token.Colon, p, p+1, "")
			p++

		case c == '[' || c == ']':
			flush(p)
			kind := token.LBracket
			if c == ']' {
				kind = token.RBracket
			}
			l.emit(kind, p, p+1, "")
			p++

		case isDelimiter(c) && !l.intraword(p, from, to):
			flush(p)
			l.emit(delimiterKind(c), p, p+1, "")
			p++

		default:
			if textStart < 0 {
				textStart = p
			}
			p++
		}
	}
	flush(to)
	return nil
}

// sequenceMarker lexes a leading list marker and returns the offset where
// inline lexing continues.
func (l *Lexer) sequenceMarker(from, to int) int {
	q := from
	for q < to && !isBlankByte(l.src[q]) {
		q++
	}
	if q == from || q == to {
		return from
	}
	text := l.src[from:q]
	form, ok := token.ParseSeqMarker(text)
	if !ok {
		return from
	}
	l.toks = append(l.toks, token.Token{
		Kind: token.SequenceMarker,
		Span: token.Span{Start: l.pos(from), End: l.pos(q)},
		Text: text,
		Seq:  &form,
	})
	return q
}

func (l *Lexer) onlyBlanks(from, to int) bool {
	for i := from; i < to; i++ {
		if !isBlankByte(l.src[i]) {
			return false
		}
	}
	return true
}

// intraword reports whether the delimiter at p sits between two word
// characters of the same line, in which case it is ordinary text.
func (l *Lexer) intraword(p, from, to int) bool {
	return p > from && p+1 < to && isWordByte(l.src[p-1]) && isWordByte(l.src[p+1])
}

func isBlankByte(c byte) bool {
	return c == ' ' || c == '\t'
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c >= utf8.RuneSelf
}

func isEscapable(c byte) bool {
	return strings.IndexByte("\\*_`#:[]-=,\"().", c) >= 0
}

func isDelimiter(c byte) bool {
	return c == '*' || c == '_' || c == '`' || c == '#'
}

func delimiterKind(c byte) token.Kind {
	switch c {
	case '*':
		return token.Bold
	case '_':
		return token.Italic
	case '`':
		return token.Code
	default:
		return token.Math
	}
}
