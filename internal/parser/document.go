package parser

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"github.com/g5becks/lex/internal/block"
	"github.com/g5becks/lex/internal/detok"
	"github.com/g5becks/lex/internal/lexer"
	"github.com/g5becks/lex/internal/token"
	"github.com/g5becks/lex/internal/tree"
)

type Options struct {
	TabWidth         int
	IndentWidth      int
	SessionInContent block.Policy
	// Logger receives stage timings at debug level and dropped blocks at
	// warn level. Nil disables logging.
	Logger *zerolog.Logger
}

func (o Options) logger() zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return *o.Logger
}

func (o Options) lexOptions() lexer.Options {
	return lexer.Options{TabWidth: o.TabWidth}
}

func (o Options) detokOptions() detok.Options {
	return detok.Options{IndentWidth: o.IndentWidth}
}

// Document is the result of parsing one source.
type Document struct {
	Name            string
	Source          string
	// HasBOM is set when the input started with a UTF-8 byte order mark.
	// Source never includes it.
	HasBOM          bool
	Tokens          []token.Token
	Root            *block.Block
	Dropped         []*block.Block
	Inconsistencies []block.Inconsistency

	opts Options
}

// Tokenize runs only the lexer. A leading BOM is stripped first.
func Tokenize(name string, content []byte, opts Options) ([]token.Token, error) {
	toks, err := lexer.Tokenize(string(StripBOM(content)), opts.lexOptions())
	if err != nil {
		return nil, wrapError(name, err)
	}
	return toks, nil
}

// Parse runs the whole pipeline. Errors carry an oops code naming the stage
// that failed and wrap the typed stage error.
func Parse(name string, content []byte, opts Options) (*Document, error) {
	log := opts.logger().With().Str("doc", name).Logger()
	src := string(StripBOM(content))

	start := time.Now()
	toks, err := lexer.Tokenize(src, opts.lexOptions())
	if err != nil {
		return nil, wrapError(name, err)
	}
	log.Debug().Int("tokens", len(toks)).Dur("took", time.Since(start)).Msg("lexed")

	start = time.Now()
	t, err := tree.Build(toks)
	if err != nil {
		return nil, wrapError(name, err)
	}
	log.Debug().Int("blocks", len(t.Blocks)).Dur("took", time.Since(start)).Msg("built tree")

	start = time.Now()
	res, err := block.Assemble(t, block.Options{
		SessionInContent: opts.SessionInContent,
		Logger:           log,
	})
	if err != nil {
		return nil, wrapError(name, err)
	}
	log.Debug().
		Int("dropped", len(res.Dropped)).
		Int("inconsistencies", len(res.Inconsistencies)).
		Dur("took", time.Since(start)).
		Msg("assembled")

	return &Document{
		Name:            name,
		Source:          src,
		HasBOM:          len(src) < len(content),
		Tokens:          toks,
		Root:            res.Root,
		Dropped:         res.Dropped,
		Inconsistencies: res.Inconsistencies,
		opts:            opts,
	}, nil
}

// Lines returns the number of physical source lines.
func (d *Document) Lines() int {
	return CountLines([]byte(d.Source))
}

// Format reconstructs the document text from its tokens with normalized
// indentation. It fails when the text would not lex back to the same tokens.
func (d *Document) Format() (string, error) {
	text, err := detok.Detokenize(d.Tokens, d.opts.detokOptions())
	if err != nil {
		return "", wrapError(d.Name, err)
	}
	if err := detok.Check(d.Tokens, text, d.opts.lexOptions()); err != nil {
		return "", wrapError(d.Name, err)
	}
	return text, nil
}

// Verify runs the round-trip oracle: the formatted text must lex to the same
// tokens as the source.
func (d *Document) Verify() error {
	if _, err := detok.Verify(d.Source, d.opts.lexOptions(), d.opts.detokOptions()); err != nil {
		return wrapError(d.Name, err)
	}
	return nil
}

func wrapError(name string, err error) error {
	var (
		lexErr         *lexer.LexError
		structErr      *lexer.StructuralError
		invariantErr   *block.ContainerInvariantError
		reconstructErr *detok.ReconstructionError
		mismatchErr    *detok.MismatchError
	)

	switch {
	case errors.As(err, &lexErr):
		return oops.
			Code("LEX_ERROR").
			With("source", name).
			With("position", lexErr.Pos.String()).
			Hint(lexHint(lexErr.Kind)).
			Wrapf(err, "%s", name)
	case errors.As(err, &structErr):
		return oops.
			Code("STRUCTURAL_ERROR").
			With("source", name).
			With("position", structErr.Pos.String()).
			Hint("Indent nested lines deeper than their parent and dedent back to an earlier level").
			Wrapf(err, "%s", name)
	case errors.As(err, &invariantErr):
		return oops.
			Code("CONTAINER_INVARIANT").
			With("source", name).
			With("position", invariantErr.Pos.String()).
			Hint("Sessions cannot nest inside paragraphs, lists, definitions or annotations; remove the blank line before the nested content or set session_in_content = \"drop\"").
			Wrapf(err, "%s", name)
	case errors.As(err, &reconstructErr):
		return oops.
			Code("RECONSTRUCTION_ERROR").
			With("source", name).
			With("index", reconstructErr.Index).
			Wrapf(err, "%s", name)
	case errors.As(err, &mismatchErr):
		return oops.
			Code("ROUND_TRIP_MISMATCH").
			With("source", name).
			With("index", mismatchErr.Index).
			Wrapf(err, "%s", name)
	default:
		return oops.With("source", name).Wrapf(err, "%s", name)
	}
}

func lexHint(kind lexer.LexErrorKind) string {
	switch kind {
	case lexer.UnterminatedVerbatim:
		return "Close the verbatim block with a line at the opening indentation or a ':: label ::' line"
	case lexer.InvalidEscape:
		return "Remove the trailing backslash or escape it as \\\\"
	default:
		return "Save the document as UTF-8"
	}
}
