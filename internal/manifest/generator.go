package manifest

import (
	"context"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"

	"github.com/g5becks/lex/internal/config"
	"github.com/g5becks/lex/internal/discover"
	"github.com/g5becks/lex/internal/lockfile"
	"github.com/g5becks/lex/internal/parser"
)

const (
	maxParseSize = 50 * 1024 * 1024 // 50MB
)

const (
	WarningTooLarge   = "file_too_large"
	WarningParseError = "parse_error"
)

// Generate indexes the project's documents and every synced source, writes
// the manifest into the output directory and returns it.
func Generate(ctx context.Context, cfg *config.Config, lock *lockfile.LockFile, p parser.Parser) (*Manifest, error) {
	m := New()

	localFiles, err := discover.Files(cfg.ConfigDir, cfg.Patterns, cfg.Exclude)
	if err != nil {
		return nil, err
	}

	local := &Collection{
		Name:   CollectionLocal,
		Dir:    cfg.ConfigDir,
		Type:   CollectionLocal,
		Source: cfg.ConfigDir,
	}
	if err := fill(ctx, local, localFiles, p, cfg.Parallel); err != nil {
		return nil, err
	}
	m.Collections[local.Name] = local

	for _, sourceName := range cfg.SourceNames() {
		entry := lock.GetEntry(sourceName)
		if entry == nil || entry.File == "" {
			continue
		}

		sourceCfg := cfg.Sources[sourceName]
		sourceDir := cfg.SourceDir(sourceCfg)
		if _, statErr := os.Stat(filepath.Join(sourceDir, entry.File)); statErr != nil {
			continue
		}

		collection := &Collection{
			Name:     sourceName,
			Dir:      sourceDir,
			Type:     CollectionURL,
			Source:   sourceCfg.URL,
			LastSync: entry.SyncedAt,
		}
		if err := fill(ctx, collection, []string{entry.File}, p, cfg.Parallel); err != nil {
			return nil, err
		}
		m.Collections[sourceName] = collection
	}

	if err := m.Save(cfg.Output); err != nil {
		return nil, err
	}

	return m, nil
}

func fill(ctx context.Context, c *Collection, files []string, p parser.Parser, parallel int) error {
	infos := make([]*FileInfo, len(files))

	group, groupCtx := errgroup.WithContext(ctx)
	if parallel > 0 {
		group.SetLimit(parallel)
	}

	for i, rel := range files {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			info, parseErr := parseFile(filepath.Join(c.Dir, filepath.FromSlash(rel)), rel, p)
			if parseErr != nil {
				return nil //nolint:nilerr // unreadable and binary files are counted as skipped
			}
			infos[i] = info
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return oops.
			Code("MANIFEST_GENERATION_ERROR").
			With("collection", c.Name).
			Wrapf(err, "indexing collection")
	}

	for _, info := range infos {
		if info == nil {
			c.Skipped++
			continue
		}
		if info.Warning == WarningParseError {
			c.Failed++
		}
		c.Files = append(c.Files, *info)
		c.TotalSize += info.Size
	}
	c.FileCount = len(c.Files)

	return nil
}

func parseFile(absPath string, relPath string, p parser.Parser) (*FileInfo, error) {
	stat, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}

	fileInfo := &FileInfo{
		Path:     relPath,
		Size:     stat.Size(),
		Modified: stat.ModTime(),
	}

	if stat.Size() > maxParseSize {
		fileInfo.Warning = WarningTooLarge
		return fileInfo, nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}

	if parser.IsBinary(content) {
		return nil, oops.Errorf("binary file")
	}

	fileInfo.Lines = parser.CountLines(content)

	result, err := p.Parse(relPath, content)
	if err != nil {
		fileInfo.Warning = WarningParseError
		fileInfo.Error = err.Error()
		return fileInfo, nil
	}

	fileInfo.Lines = result.Lines
	fileInfo.Description = result.Description
	fileInfo.Inconsistencies = result.Inconsistencies
	fileInfo.Dropped = result.Dropped
	fileInfo.Outline = result.Outline

	return fileInfo, nil
}

