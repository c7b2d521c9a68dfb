package block

import (
	"fmt"

	"github.com/g5becks/lex/internal/token"
)

// Container holds a block's children. The two implementations differ only in
// which kinds they accept.
type Container interface {
	Children() []*Block
	AddChild(*Block) error
	Len() int
	isContainer()
}

// SessionContainer accepts every kind. Root and Session own one.
type SessionContainer struct {
	children []*Block
}

// ContentContainer accepts every kind except Session.
type ContentContainer struct {
	owner    Kind
	children []*Block
}

// ContainerInvariantError is returned when a Session is added to a
// ContentContainer.
type ContainerInvariantError struct {
	Parent Kind
	Child  Kind
	Pos    token.Position
}

func (e *ContainerInvariantError) Error() string {
	return fmt.Sprintf("%s: %s cannot contain a %s", e.Pos, e.Parent, e.Child)
}

func (c *SessionContainer) Children() []*Block { return c.children }
func (c *SessionContainer) Len() int           { return len(c.children) }
func (c *SessionContainer) isContainer()       {}

func (c *SessionContainer) AddChild(b *Block) error {
	c.children = append(c.children, b)
	return nil
}

func (c *ContentContainer) Children() []*Block { return c.children }
func (c *ContentContainer) Len() int           { return len(c.children) }
func (c *ContentContainer) isContainer()       {}

func (c *ContentContainer) AddChild(b *Block) error {
	if b.Kind() == KindSession {
		return &ContainerInvariantError{Parent: c.owner, Child: KindSession, Pos: startOf(b)}
	}
	c.children = append(c.children, b)
	return nil
}

func NewSessionContainer() *SessionContainer {
	return &SessionContainer{}
}

// NewContentContainer returns an empty container for a parent of kind owner.
func NewContentContainer(owner Kind) *ContentContainer {
	return &ContentContainer{owner: owner}
}

// newContainer picks the container kind a parent of kind k owns.
func newContainer(k Kind) Container {
	if k == KindRoot || k == KindSession {
		return &SessionContainer{}
	}
	return &ContentContainer{owner: k}
}

func startOf(b *Block) token.Position {
	toks := b.Type.Tokens()
	if len(toks) > 0 {
		return toks[0].Span.Start
	}
	if b.Lines != nil {
		return token.Position{Line: b.Lines.First}
	}
	return token.Position{}
}
