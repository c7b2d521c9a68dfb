package lexer

import (
	"fmt"

	"github.com/g5becks/lex/internal/token"
)

type LexErrorKind int

const (
	UnterminatedVerbatim LexErrorKind = iota
	InvalidEscape
	InvalidEncoding
)

func (k LexErrorKind) String() string {
	switch k {
	case UnterminatedVerbatim:
		return "unterminated verbatim block"
	case InvalidEscape:
		return "invalid escape"
	case InvalidEncoding:
		return "invalid encoding"
	default:
		return "lex error"
	}
}

// LexError is fatal: no token sequence is produced for the document.
type LexError struct {
	Kind LexErrorKind
	Pos  token.Position
	Msg  string
}

func (e *LexError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
}

type StructuralErrorKind int

const (
	InconsistentDedent StructuralErrorKind = iota
	UnmatchedDedent
	UnclosedIndent
)

func (k StructuralErrorKind) String() string {
	switch k {
	case InconsistentDedent:
		return "inconsistent dedent"
	case UnmatchedDedent:
		return "unmatched dedent"
	case UnclosedIndent:
		return "unclosed indentation"
	default:
		return "structural error"
	}
}

// StructuralError reports broken indentation nesting. The lexer raises
// InconsistentDedent; the tree builder raises the other kinds when handed an
// unbalanced token sequence.
type StructuralError struct {
	Kind StructuralErrorKind
	Pos  token.Position
	Msg  string
}

func (e *StructuralError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
}
