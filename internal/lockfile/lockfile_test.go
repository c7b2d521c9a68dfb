package lockfile_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/g5becks/lex/internal/lockfile"
)

func TestLoadReturnsEmptyLockWhenFileMissing(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()

	lock, err := lockfile.Load(outputDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if lock.Version != 1 {
		t.Fatalf("Version = %d, want 1", lock.Version)
	}

	if len(lock.Sources) != 0 {
		t.Fatalf("Sources len = %d, want 0", len(lock.Sources))
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	now := time.Now().UTC().Truncate(time.Second)

	lock := lockfile.New()
	lock.SetEntry("manual", &lockfile.LockEntry{
		URL:      "https://example.com/manual.lex",
		File:     "manual.lex",
		ETag:     `"etag"`,
		LastMod:  "Tue, 15 Jan 2024 10:30:00 GMT",
		Hash:     "abc123",
		SyncedAt: now,
	})
	lock.MarkPassed("/docs/guide.lex", "h1")

	if err := lock.Save(outputDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := lockfile.Load(outputDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.Version != 1 {
		t.Fatalf("Version = %d, want 1", loaded.Version)
	}

	entry := loaded.GetEntry("manual")
	if entry == nil {
		t.Fatalf("GetEntry(manual) = nil, want non-nil")
	}

	if entry.ETag != `"etag"` {
		t.Fatalf("ETag = %q, want %q", entry.ETag, `"etag"`)
	}

	if !entry.SyncedAt.Equal(now) {
		t.Fatalf("SyncedAt = %v, want %v", entry.SyncedAt, now)
	}

	if !loaded.Passed("/docs/guide.lex", "h1") {
		t.Fatalf("Passed(guide.lex) = false, want true")
	}
}

func TestSaveWritesAtomicallyWithoutTempFilesLeft(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	lock := lockfile.New()
	lock.SetEntry("docs", &lockfile.LockEntry{
		URL:      "https://example.com/docs.lex",
		SyncedAt: time.Now().UTC(),
	})

	if err := lock.Save(outputDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	tempMatches, err := filepath.Glob(filepath.Join(outputDir, ".lex.lock.*.tmp"))
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}

	if len(tempMatches) != 0 {
		t.Fatalf("temporary files left behind: %v", tempMatches)
	}

	lockPath := filepath.Join(outputDir, ".lex.lock")
	if _, statErr := os.Stat(lockPath); statErr != nil {
		t.Fatalf("expected lock file at %q: %v", lockPath, statErr)
	}
}

func TestLoadInvalidJSONReturnsError(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	lockPath := filepath.Join(outputDir, ".lex.lock")
	if err := os.WriteFile(lockPath, []byte("{invalid"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := lockfile.Load(outputDir)
	if err == nil {
		t.Fatalf("Load() error = nil, want non-nil")
	}

	if !strings.Contains(err.Error(), "parsing lock file") {
		t.Fatalf("Load() error = %q, expected parsing message", err.Error())
	}
}

func TestEntryCRUD(t *testing.T) {
	t.Parallel()

	lock := lockfile.New()
	if entry := lock.GetEntry("missing"); entry != nil {
		t.Fatalf("GetEntry(missing) = %v, want nil", entry)
	}

	entry := &lockfile.LockEntry{
		URL:      "https://example.com/manual.lex",
		SyncedAt: time.Now().UTC(),
	}
	lock.SetEntry("manual", entry)

	got := lock.GetEntry("manual")
	if got == nil {
		t.Fatalf("GetEntry(manual) = nil, want non-nil")
	}

	if got.URL != "https://example.com/manual.lex" {
		t.Fatalf("URL = %q, want %q", got.URL, "https://example.com/manual.lex")
	}

	lock.RemoveEntry("manual")
	if lock.GetEntry("manual") != nil {
		t.Fatalf("GetEntry(manual) after RemoveEntry() = non-nil, want nil")
	}
}

func TestSaveOnNilLockReturnsError(t *testing.T) {
	t.Parallel()

	var lock *lockfile.LockFile

	err := lock.Save(t.TempDir())
	if err == nil {
		t.Fatalf("Save() error = nil, want non-nil")
	}

	if !strings.Contains(err.Error(), "cannot save nil lock file") {
		t.Fatalf("Save() error = %q, expected nil-lock message", err.Error())
	}
}

func TestCheckCache(t *testing.T) {
	t.Parallel()

	lock := lockfile.New()
	hash := lockfile.Hash([]byte("Hello\n"), "tab=4")

	if lock.Passed("a.lex", hash) {
		t.Fatalf("Passed() on empty cache = true, want false")
	}

	lock.MarkPassed("a.lex", hash)
	if !lock.Passed("a.lex", hash) {
		t.Fatalf("Passed() after MarkPassed() = false, want true")
	}

	if lock.Passed("a.lex", lockfile.Hash([]byte("Hello\n"), "tab=8")) {
		t.Fatalf("Passed() with different salt = true, want false")
	}

	lock.Forget("a.lex")
	if lock.Passed("a.lex", hash) {
		t.Fatalf("Passed() after Forget() = true, want false")
	}
}

func TestHashIsStable(t *testing.T) {
	t.Parallel()

	a := lockfile.Hash([]byte("content"), "salt")
	b := lockfile.Hash([]byte("content"), "salt")
	if a != b {
		t.Fatalf("Hash() = %q then %q, want equal", a, b)
	}

	if len(a) != 64 {
		t.Fatalf("len(Hash()) = %d, want 64", len(a))
	}

	if a == lockfile.Hash([]byte("other"), "salt") {
		t.Fatalf("Hash() equal for different content")
	}
}
