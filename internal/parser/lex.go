package parser

// LexParser adapts the pipeline to the Parser interface used by the index.
type LexParser struct {
	opts Options
}

func NewLexParser(opts Options) *LexParser {
	return &LexParser{opts: opts}
}

func (p *LexParser) CanParse(path string) bool {
	return DetectFileType(path) == "lex"
}

func (p *LexParser) Parse(path string, content []byte) (*ParseResult, error) {
	doc, err := Parse(path, content, p.opts)
	if err != nil {
		return nil, err
	}

	return &ParseResult{
		Description:     Describe(doc.Root),
		Outline:         ExtractOutline(doc.Root),
		Lines:           doc.Lines(),
		Inconsistencies: len(doc.Inconsistencies),
		Dropped:         len(doc.Dropped),
	}, nil
}
