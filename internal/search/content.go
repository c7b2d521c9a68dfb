package search

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/samber/oops"

	"github.com/g5becks/lex/internal/manifest"
	"github.com/g5becks/lex/internal/parser"
)

const maxContentSize = 50 * 1024 * 1024

// ContentResult represents a single match from content search.
type ContentResult struct {
	Collection string `json:"collection"`
	Path       string `json:"path"`
	Line       int    `json:"line"`
	Text       string `json:"text"`
}

// ContentOptions configures content search behavior.
type ContentOptions struct {
	// OutputDir resolves collections whose Dir is relative.
	OutputDir  string
	Query      string
	Collection string
	UseRegex   bool
	Limit      int
}

// Content performs a case-insensitive literal or regex search across the
// indexed documents. Line numbers are 1-based.
func Content(m *manifest.Manifest, opts ContentOptions) ([]ContentResult, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, oops.
			Code("INVALID_ARGS").
			Hint("Provide a non-empty search query").
			Errorf("search query cannot be empty")
	}

	if err := requireCollection(m, opts.Collection); err != nil {
		return nil, err
	}

	match, err := matcher(opts.Query, opts.UseRegex)
	if err != nil {
		return nil, err
	}

	var results []ContentResult
	for _, name := range m.CollectionNames() {
		if opts.Collection != "" && name != opts.Collection {
			continue
		}

		coll := m.Collections[name]
		dir := coll.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(opts.OutputDir, dir)
		}

		for _, file := range coll.Files {
			found := scanFile(filepath.Join(dir, filepath.FromSlash(file.Path)), match)
			for _, hit := range found {
				results = append(results, ContentResult{
					Collection: name,
					Path:       file.Path,
					Line:       hit.line,
					Text:       hit.text,
				})
				if opts.Limit > 0 && len(results) >= opts.Limit {
					return results, nil
				}
			}
		}
	}

	return results, nil
}

func matcher(query string, useRegex bool) (func(string) bool, error) {
	if useRegex {
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			return nil, oops.
				Code("INVALID_ARGS").
				With("pattern", query).
				Hint("Check the regular expression syntax").
				Wrapf(err, "compiling search pattern")
		}
		return re.MatchString, nil
	}

	needle := strings.ToLower(query)
	return func(line string) bool {
		return strings.Contains(strings.ToLower(line), needle)
	}, nil
}

type hit struct {
	line int
	text string
}

// scanFile returns matching lines. Missing, oversized and binary files yield
// nothing.
func scanFile(path string, match func(string) bool) []hit {
	stat, err := os.Stat(path)
	if err != nil || stat.Size() > maxContentSize {
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil || parser.IsBinary(content) {
		return nil
	}

	var hits []hit
	scanner := bufio.NewScanner(bytes.NewReader(parser.StripBOM(content)))
	scanner.Buffer(make([]byte, 0, 64*1024), len(content)+1)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimRight(scanner.Text(), "\r")
		if match(text) {
			hits = append(hits, hit{line: lineNo, text: text})
		}
	}

	return hits
}
