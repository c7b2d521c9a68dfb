// Package discover finds lex documents under a directory using doublestar
// include and exclude globs.
package discover

import (
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/oops"
)

// Files walks root and returns the slash-separated paths, relative to root,
// that match a pattern and no exclude. The result is sorted.
func Files(root string, patterns []string, exclude []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			excluded, matchErr := matchesAny(exclude, rel)
			if matchErr != nil {
				return matchErr
			}
			if excluded {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		include, matchErr := ShouldInclude(rel, patterns, exclude)
		if matchErr != nil {
			return matchErr
		}
		if include {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, oops.
			Code("DISCOVERY_FAILED").
			With("root", root).
			Wrapf(err, "walking %s", root)
	}

	slices.Sort(files)
	return files, nil
}

// ShouldInclude reports whether a slash-separated relative path matches one
// of patterns and none of exclude.
func ShouldInclude(relativePath string, patterns []string, exclude []string) (bool, error) {
	included, err := matchesAny(patterns, relativePath)
	if err != nil || !included {
		return false, err
	}

	excluded, err := matchesAny(exclude, relativePath)
	if err != nil {
		return false, err
	}

	return !excluded, nil
}

func matchesAny(patterns []string, candidate string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, candidate)
		if err != nil {
			return false, oops.
				Code("CONFIG_INVALID").
				With("pattern", pattern).
				With("path", candidate).
				Wrapf(err, "invalid glob pattern")
		}

		if matched {
			return true, nil
		}
	}

	return false, nil
}
