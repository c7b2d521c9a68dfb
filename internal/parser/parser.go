package parser

// Parser extracts a description and an outline from file content.
type Parser interface {
	Parse(path string, content []byte) (*ParseResult, error)
	CanParse(path string) bool
}

type ParseResult struct {
	Description     string
	Outline         *Outline
	Lines           int
	Inconsistencies int
	Dropped         int
}

type Outline struct {
	Type     OutlineType `json:"type"`
	Headings []Heading   `json:"headings,omitempty"`
}

type OutlineType string

const (
	OutlineTypeHeadings OutlineType = "headings"
	OutlineTypeNone     OutlineType = "none"
)

type HeadingKind string

const (
	HeadingSession    HeadingKind = "session"
	HeadingDefinition HeadingKind = "definition"
	HeadingAnnotation HeadingKind = "annotation"
	HeadingVerbatim   HeadingKind = "verbatim"
)

// Heading is one outline entry. Level is the session nesting depth, starting
// at 1 for top-level entries. Line is 1-based.
type Heading struct {
	Kind  HeadingKind `json:"kind"`
	Level int         `json:"level"`
	Text  string      `json:"text"`
	Label string      `json:"label,omitempty"`
	Line  int         `json:"line"`
}
