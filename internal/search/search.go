package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/oops"

	"github.com/g5becks/lex/internal/manifest"
	"github.com/g5becks/lex/internal/parser"
)

// Match fields for results that do not come from an outline entry. Outline
// matches use the heading kind (session, definition, annotation, verbatim).
const (
	FieldPath        = "path"
	FieldDescription = "description"
)

// MetadataResult represents a single match from metadata search.
type MetadataResult struct {
	Collection  string `json:"collection"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	MatchField  string `json:"match_field"`
	MatchValue  string `json:"match_value"`
	Line        int    `json:"line,omitempty"`
	Score       int    `json:"score"`
}

// MetadataOptions configures metadata search behavior.
type MetadataOptions struct {
	Query      string
	Collection string
	Limit      int
}

// candidates is the fuzzy.Source over every searchable value of the index.
type candidates []MetadataResult

func (c candidates) String(i int) string { return c[i].MatchValue }
func (c candidates) Len() int            { return len(c) }

// Metadata fuzzy-matches the query against document paths, descriptions and
// outline entries. Each document appears once, with its best-scoring match.
func Metadata(m *manifest.Manifest, opts MetadataOptions) ([]MetadataResult, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return nil, oops.
			Code("INVALID_ARGS").
			Hint("Provide a non-empty search query").
			Errorf("search query cannot be empty")
	}

	if err := requireCollection(m, opts.Collection); err != nil {
		return nil, err
	}

	pool := collect(m, opts.Collection)

	best := make(map[string]int)
	var results []MetadataResult
	for _, match := range fuzzy.FindFrom(query, pool) {
		if match.Score < 0 {
			continue
		}

		hit := pool[match.Index]
		hit.Score = match.Score

		key := hit.Collection + "\x00" + hit.Path
		if i, seen := best[key]; seen {
			if hit.Score > results[i].Score {
				results[i] = hit
			}
			continue
		}
		best[key] = len(results)
		results = append(results, hit)
	}

	slices.SortFunc(results, func(a, b MetadataResult) int {
		return cmp.Or(
			cmp.Compare(b.Score, a.Score),
			cmp.Compare(a.Collection, b.Collection),
			cmp.Compare(a.Path, b.Path),
		)
	})

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	return results, nil
}

func requireCollection(m *manifest.Manifest, name string) error {
	if name == "" {
		return nil
	}
	if _, ok := m.Collections[name]; ok {
		return nil
	}

	return oops.
		Code("COLLECTION_NOT_FOUND").
		With("collection", name).
		Hint("Run 'lex collections' to see available collections").
		Errorf("collection %q not found", name)
}

func collect(m *manifest.Manifest, only string) candidates {
	var pool candidates
	for _, name := range m.CollectionNames() {
		if only != "" && name != only {
			continue
		}

		for _, file := range m.Collections[name].Files {
			base := MetadataResult{Collection: name, Path: file.Path, Description: file.Description}

			pool = append(pool, with(base, FieldPath, file.Path, 0))
			if file.Description != "" {
				pool = append(pool, with(base, FieldDescription, file.Description, 0))
			}
			if file.Outline == nil {
				continue
			}
			for _, h := range file.Outline.Headings {
				pool = append(pool, with(base, string(h.Kind), headingValue(h), h.Line))
			}
		}
	}

	return pool
}

func with(base MetadataResult, field string, value string, line int) MetadataResult {
	base.MatchField = field
	base.MatchValue = value
	base.Line = line
	return base
}

// headingValue is the searchable text of an outline entry. Annotations have
// no title, so their label stands in.
func headingValue(h parser.Heading) string {
	switch {
	case h.Text == "":
		return h.Label
	case h.Label != "":
		return h.Text + " " + h.Label
	default:
		return h.Text
	}
}
