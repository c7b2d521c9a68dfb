package source_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/g5becks/lex/internal/config"
	"github.com/g5becks/lex/internal/lockfile"
	"github.com/g5becks/lex/internal/source"
)

const validDoc = "Title\n\n    Body text.\n"

func TestFilenameFromURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		sourceURL string
		sourceKey string
		want      string
	}{
		{name: "path basename", sourceURL: "https://example.com/manual.lex", sourceKey: "manual", want: "manual.lex"},
		{
			name: "query only path", sourceURL: "https://example.com/docs/guide.lex?lang=en",
			sourceKey: "docs", want: "guide.lex",
		},
		{name: "trailing slash", sourceURL: "https://example.com/docs/", sourceKey: "docs", want: "docs"},
		{name: "invalid url", sourceURL: ":// bad", sourceKey: "docs", want: "docs.lex"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := source.FilenameFromURL(tc.sourceKey, tc.sourceURL)
			if got != tc.want {
				t.Fatalf("FilenameFromURL(%q, %q) = %q, want %q", tc.sourceKey, tc.sourceURL, got, tc.want)
			}
		})
	}
}

func TestURLSyncDownloadsFileAndUpdatesLock(t *testing.T) {
	t.Parallel()

	src, setClient := source.NewTestURL(t, "manual", config.Source{
		URL: "https://example.test/manual.lex",
	})

	setClient(source.StubClient(func(req *http.Request) *http.Response {
		headers := http.Header{}
		headers.Set("ETag", `"abc123"`)
		headers.Set("Last-Modified", "Tue, 15 Jan 2024 10:30:00 GMT")

		return source.Reply(req, http.StatusOK, validDoc, headers)
	}))

	destDir := t.TempDir()

	result, err := src.Sync(context.Background(), destDir, nil, source.SyncOptions{}, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if result.Downloaded != 1 {
		t.Fatalf("Downloaded = %d, want 1", result.Downloaded)
	}

	if result.LockEntry == nil {
		t.Fatalf("LockEntry = nil, want non-nil")
	}

	if result.LockEntry.ETag != `"abc123"` {
		t.Fatalf("LockEntry.ETag = %q, want %q", result.LockEntry.ETag, `"abc123"`)
	}

	if result.LockEntry.File != "manual.lex" || result.LockEntry.URL != "https://example.test/manual.lex" {
		t.Fatalf("LockEntry = %+v, want manual.lex from example.test", result.LockEntry)
	}

	if result.LockEntry.Hash != lockfile.Hash([]byte(validDoc), "") {
		t.Fatalf("LockEntry.Hash = %q, want content hash", result.LockEntry.Hash)
	}

	content, err := os.ReadFile(filepath.Join(destDir, "manual.lex"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if string(content) != validDoc {
		t.Fatalf("file content = %q, want %q", string(content), validDoc)
	}
}

func TestURLSyncSendsConditionalHeadersAndSkips304(t *testing.T) {
	t.Parallel()

	src, setClient := source.NewTestURL(t, "manual", config.Source{
		URL: "https://example.test/manual.lex",
	})

	var ifNoneMatch string
	var ifModifiedSince string

	setClient(source.StubClient(func(req *http.Request) *http.Response {
		ifNoneMatch = req.Header.Get("If-None-Match")
		ifModifiedSince = req.Header.Get("If-Modified-Since")

		return source.Reply(req, http.StatusNotModified, "", nil)
	}))

	destDir := t.TempDir()
	writeFile(t, filepath.Join(destDir, "manual.lex"), validDoc)

	prevLock := &lockfile.LockEntry{
		URL:      "https://example.test/manual.lex",
		File:     "manual.lex",
		ETag:     `"etag-prev"`,
		LastMod:  "Wed, 16 Jan 2024 10:30:00 GMT",
		SyncedAt: time.Now().UTC(),
	}

	result, err := src.Sync(context.Background(), destDir, prevLock, source.SyncOptions{}, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if !result.Skipped {
		t.Fatalf("Skipped = %v, want true", result.Skipped)
	}

	if result.LockEntry.ETag != `"etag-prev"` {
		t.Fatalf("LockEntry.ETag = %q, want previous etag kept", result.LockEntry.ETag)
	}

	if ifNoneMatch != `"etag-prev"` {
		t.Fatalf("If-None-Match = %q, want %q", ifNoneMatch, `"etag-prev"`)
	}

	if ifModifiedSince != "Wed, 16 Jan 2024 10:30:00 GMT" {
		t.Fatalf("If-Modified-Since = %q, want expected value", ifModifiedSince)
	}
}

func TestURLSyncOmitsConditionalHeadersWhenFileMissing(t *testing.T) {
	t.Parallel()

	src, setClient := source.NewTestURL(t, "manual", config.Source{
		URL: "https://example.test/manual.lex",
	})

	var ifNoneMatch string
	setClient(source.StubClient(func(req *http.Request) *http.Response {
		ifNoneMatch = req.Header.Get("If-None-Match")
		return source.Reply(req, http.StatusOK, validDoc, nil)
	}))

	prevLock := &lockfile.LockEntry{File: "manual.lex", ETag: `"etag-prev"`}

	result, err := src.Sync(context.Background(), t.TempDir(), prevLock, source.SyncOptions{}, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if ifNoneMatch != "" {
		t.Fatalf("If-None-Match = %q, want empty", ifNoneMatch)
	}

	if result.Downloaded != 1 {
		t.Fatalf("Downloaded = %d, want 1", result.Downloaded)
	}
}

func TestURLSyncSkipsUnchangedContent(t *testing.T) {
	t.Parallel()

	src, setClient := source.NewTestURL(t, "manual", config.Source{
		URL: "https://example.test/manual.lex",
	})

	setClient(source.StubClient(func(req *http.Request) *http.Response {
		return source.Reply(req, http.StatusOK, validDoc, nil)
	}))

	destDir := t.TempDir()
	writeFile(t, filepath.Join(destDir, "manual.lex"), validDoc)

	prevLock := &lockfile.LockEntry{File: "manual.lex", Hash: lockfile.Hash([]byte(validDoc), "")}

	result, err := src.Sync(context.Background(), destDir, prevLock, source.SyncOptions{}, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if !result.Skipped || result.Downloaded != 0 {
		t.Fatalf("result = %+v, want skipped without download", result)
	}
}

func TestURLSyncRejectsMalformedDocument(t *testing.T) {
	t.Parallel()

	src, setClient := source.NewTestURL(t, "manual", config.Source{
		URL: "https://example.test/manual.lex",
	})

	setClient(source.StubClient(func(req *http.Request) *http.Response {
		return source.Reply(req, http.StatusOK, "Code:\n    x\n", nil)
	}))

	destDir := t.TempDir()

	_, err := src.Sync(context.Background(), destDir, nil, source.SyncOptions{}, nil)
	if err == nil {
		t.Fatalf("Sync() error = nil, want validation error")
	}

	if !strings.Contains(err.Error(), "validating url source") {
		t.Fatalf("Sync() error = %q, expected validation message", err.Error())
	}

	if _, statErr := os.Stat(filepath.Join(destDir, "manual.lex")); !os.IsNotExist(statErr) {
		t.Fatalf("malformed document was written")
	}
}

func TestURLSyncRemovesRenamedFile(t *testing.T) {
	t.Parallel()

	src, setClient := source.NewTestURL(t, "manual", config.Source{
		URL:      "https://example.test/manual.lex",
		Filename: "renamed.lex",
	})

	setClient(source.StubClient(func(req *http.Request) *http.Response {
		return source.Reply(req, http.StatusOK, validDoc, nil)
	}))

	destDir := t.TempDir()
	writeFile(t, filepath.Join(destDir, "manual.lex"), validDoc)

	result, err := src.Sync(
		context.Background(),
		destDir,
		&lockfile.LockEntry{File: "manual.lex"},
		source.SyncOptions{},
		nil,
	)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if result.Deleted != 1 {
		t.Fatalf("Deleted = %d, want 1", result.Deleted)
	}

	if _, statErr := os.Stat(filepath.Join(destDir, "manual.lex")); !os.IsNotExist(statErr) {
		t.Fatalf("old file still present after rename")
	}

	if _, statErr := os.Stat(filepath.Join(destDir, "renamed.lex")); statErr != nil {
		t.Fatalf("renamed file missing: %v", statErr)
	}
}

func TestURLSyncDryRunDoesNotWriteFile(t *testing.T) {
	t.Parallel()

	src, setClient := source.NewTestURL(t, "manual", config.Source{
		URL: "https://example.test/manual.lex",
	})

	setClient(source.StubClient(func(req *http.Request) *http.Response {
		return source.Reply(req, http.StatusOK, validDoc, nil)
	}))

	destDir := t.TempDir()

	result, err := src.Sync(context.Background(), destDir, nil, source.SyncOptions{DryRun: true}, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if result.Downloaded != 1 {
		t.Fatalf("Downloaded = %d, want 1", result.Downloaded)
	}

	if _, statErr := os.Stat(filepath.Join(destDir, "manual.lex")); !os.IsNotExist(statErr) {
		t.Fatalf("expected no file to be written in dry-run mode")
	}
}

func TestURLSyncReturnsErrorOnFailureStatus(t *testing.T) {
	t.Parallel()

	src, setClient := source.NewTestURL(t, "manual", config.Source{
		URL: "https://example.test/manual.lex",
	})

	setClient(source.StubClient(func(req *http.Request) *http.Response {
		return source.Reply(req, http.StatusBadGateway, "gateway error", nil)
	}))

	_, err := src.Sync(context.Background(), t.TempDir(), nil, source.SyncOptions{}, nil)
	if err == nil {
		t.Fatalf("Sync() error = nil, want non-nil")
	}

	if !strings.Contains(err.Error(), "non-success status") {
		t.Fatalf("Sync() error = %q, expected status error", err.Error())
	}
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}
