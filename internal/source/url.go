package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	neturl "net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/samber/oops"
	"resty.dev/v3"

	"github.com/g5becks/lex/internal/config"
	"github.com/g5becks/lex/internal/lockfile"
	"github.com/g5becks/lex/internal/parser"
)

type urlSource struct {
	name     string
	source   config.Source
	filename string
	client   *resty.Client
	parse    parser.Options
}

func NewURL(name string, cfg config.Source, opts parser.Options) (Source, error) {
	filename := cfg.Filename
	if filename == "" {
		filename = filenameFromURL(name, cfg.URL)
	}

	return &urlSource{
		name:     name,
		source:   cfg,
		filename: filename,
		client:   resty.New(),
		parse:    opts,
	}, nil
}

func (s *urlSource) Sync(
	ctx context.Context,
	destDir string,
	prevLock *lockfile.LockEntry,
	opts SyncOptions,
	tracker *progress.Tracker,
) (*SyncResult, error) {
	filePath := filepath.Join(destDir, s.filename)
	onDisk := fileExists(filePath)

	request := s.client.R().SetContext(ctx)
	if !opts.Force && prevLock != nil && onDisk {
		if prevLock.ETag != "" {
			request.SetHeader("If-None-Match", prevLock.ETag)
		}
		if prevLock.LastMod != "" {
			request.SetHeader("If-Modified-Since", prevLock.LastMod)
		}
	}

	response, err := request.Get(s.source.URL)
	if err != nil {
		return nil, oops.
			Code("DOWNLOAD_FAILED").
			With("source", s.name).
			With("url", s.source.URL).
			Wrapf(err, "downloading url source")
	}

	if response.StatusCode() == http.StatusNotModified {
		return &SyncResult{
			Skipped:   true,
			Path:      filePath,
			LockEntry: s.refreshLock(prevLock),
		}, nil
	}

	if response.StatusCode() < http.StatusOK || response.StatusCode() >= http.StatusMultipleChoices {
		return nil, oops.
			Code("DOWNLOAD_FAILED").
			With("source", s.name).
			With("url", s.source.URL).
			With("status", response.StatusCode()).
			Errorf("url source returned non-success status %d", response.StatusCode())
	}

	content, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, oops.
			Code("DOWNLOAD_FAILED").
			With("source", s.name).
			With("url", s.source.URL).
			Wrapf(err, "reading response body")
	}

	if tracker != nil {
		tracker.UpdateTotal(int64(len(content)))
		tracker.SetValue(int64(len(content)))
	}

	if _, parseErr := parser.Parse(s.filename, content, s.parse); parseErr != nil {
		return nil, oops.
			Code("INVALID_DOCUMENT").
			With("source", s.name).
			With("url", s.source.URL).
			Hint("The download is not a well-formed lex document; the previous copy was kept").
			Wrapf(parseErr, "validating url source")
	}

	hash := lockfile.Hash(content, "")
	entry := &lockfile.LockEntry{
		URL:      s.source.URL,
		File:     s.filename,
		ETag:     response.Header().Get("ETag"),
		LastMod:  response.Header().Get("Last-Modified"),
		Hash:     hash,
		SyncedAt: time.Now().UTC(),
	}

	if !opts.Force && onDisk && prevLock != nil && prevLock.Hash == hash {
		return &SyncResult{
			Skipped:   true,
			Path:      filePath,
			LockEntry: entry,
		}, nil
	}

	if !opts.DryRun {
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return nil, oops.
				Code("WRITE_FAILED").
				With("source", s.name).
				With("path", destDir).
				Wrapf(err, "creating destination directory")
		}

		if err := writeFileAtomic(filePath, content); err != nil {
			return nil, err
		}
	}

	result := &SyncResult{
		Downloaded: 1,
		Path:       filePath,
		LockEntry:  entry,
	}

	// A renamed file leaves the old download behind.
	if prevLock != nil && prevLock.File != "" && prevLock.File != s.filename {
		stale := filepath.Join(destDir, prevLock.File)
		if !opts.DryRun {
			if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, oops.
					Code("WRITE_FAILED").
					With("source", s.name).
					With("path", stale).
					Wrapf(err, "removing previous download")
			}
		}
		result.Deleted = 1
	}

	return result, nil
}

func (s *urlSource) refreshLock(prev *lockfile.LockEntry) *lockfile.LockEntry {
	lock := cloneLockEntry(prev)
	if lock == nil {
		lock = &lockfile.LockEntry{}
	}

	lock.URL = s.source.URL
	lock.File = s.filename
	lock.SyncedAt = time.Now().UTC()

	return lock
}

func filenameFromURL(sourceName string, rawURL string) string {
	parsed, err := neturl.Parse(rawURL)
	if err == nil {
		baseName := path.Base(parsed.Path)
		if baseName != "" && baseName != "." && baseName != "/" {
			return baseName
		}
	}

	return sourceName + parser.FileExt
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, ".lex-url-*.tmp")
	if err != nil {
		return oops.
			Code("WRITE_FAILED").
			With("path", path).
			Wrapf(err, "creating temporary file")
	}

	tempPath := tempFile.Name()
	defer func() {
		_ = os.Remove(tempPath)
	}()

	if _, err := tempFile.Write(content); err != nil {
		_ = tempFile.Close()
		return oops.
			Code("WRITE_FAILED").
			With("path", path).
			Wrapf(err, "writing temporary file")
	}

	if err := tempFile.Close(); err != nil {
		return oops.
			Code("WRITE_FAILED").
			With("path", path).
			Wrapf(err, "closing temporary file")
	}

	if err := os.Rename(tempPath, path); err != nil {
		return oops.
			Code("WRITE_FAILED").
			With("path", path).
			Wrapf(err, "replacing destination file")
	}

	return nil
}

func cloneLockEntry(entry *lockfile.LockEntry) *lockfile.LockEntry {
	if entry == nil {
		return nil
	}

	cloned := *entry
	return &cloned
}
