package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/unikraft-shop/storefront/internal/domain/session"
)

var _ session.Storage = (*FileStorage)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func readSessionFile(t *testing.T, path string) SessionFile {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read session file: %v", err)
	}
	var f SessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("failed to unmarshal session file: %v", err)
	}
	return f
}

// ---------------------------------------------------------------------------
// Read tests
// ---------------------------------------------------------------------------

func TestGetItem_NoFile_ReturnsAbsent(t *testing.T) {
	s := NewFileStorage(filepath.Join(t.TempDir(), "session.json"), testLogger())

	v, ok, err := s.GetItem(context.Background(), session.TokenKey)
	if err != nil {
		t.Fatalf("GetItem() returned unexpected error: %v", err)
	}
	if ok || v != "" {
		t.Errorf("expected absent item, got %q (ok=%v)", v, ok)
	}
	if s.Exists() {
		t.Error("reading must not create the file")
	}
}

func TestGetItem_CorruptFile_ReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	s := NewFileStorage(path, testLogger())
	if _, _, err := s.GetItem(context.Background(), session.TokenKey); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}

func TestGetItem_FileWithoutItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte(`{"version":"1"}`), 0600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	s := NewFileStorage(path, testLogger())
	if _, ok, err := s.GetItem(context.Background(), session.TokenKey); ok || err != nil {
		t.Errorf("GetItem() ok=%v err=%v, want absent", ok, err)
	}
	if err := s.SetItem(context.Background(), session.TokenKey, "abc123"); err != nil {
		t.Fatalf("SetItem() on file without items: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Write tests
// ---------------------------------------------------------------------------

func TestSetItem_CreatesDirectoryAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.json")
	s := NewFileStorage(path, testLogger())

	if err := s.SetItem(context.Background(), session.TokenKey, "abc123"); err != nil {
		t.Fatalf("SetItem() returned unexpected error: %v", err)
	}

	f := readSessionFile(t, path)
	if f.Version != "1" {
		t.Errorf("expected Version '1', got %q", f.Version)
	}
	if f.Items[session.TokenKey] != "abc123" {
		t.Errorf("expected token 'abc123', got %q", f.Items[session.TokenKey])
	}
	if f.UpdatedAt.IsZero() || f.CreatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	data, _ := os.ReadFile(path)
	if !bytes.HasSuffix(data, []byte("\n")) {
		t.Error("expected trailing newline")
	}
}

func TestSetItem_SetsFilePermissions0600(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStorage(path, testLogger())

	if err := s.SetItem(context.Background(), session.TokenKey, "abc123"); err != nil {
		t.Fatalf("SetItem() returned unexpected error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected permissions 0600, got %04o", perm)
	}
}

func TestSetItem_CreatesBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStorage(path, testLogger())
	ctx := context.Background()

	if err := s.SetItem(ctx, session.TokenKey, "original"); err != nil {
		t.Fatalf("first SetItem() failed: %v", err)
	}
	if err := s.SetItem(ctx, session.TokenKey, "updated"); err != nil {
		t.Fatalf("second SetItem() failed: %v", err)
	}

	backup := readSessionFile(t, path+".bak")
	if backup.Items[session.TokenKey] != "original" {
		t.Errorf("expected backup to contain 'original', got %q", backup.Items[session.TokenKey])
	}
	current := readSessionFile(t, path)
	if current.Items[session.TokenKey] != "updated" {
		t.Errorf("expected current to contain 'updated', got %q", current.Items[session.TokenKey])
	}
}

func TestSetItem_NoTmpFileLeftBehind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStorage(path, testLogger())

	if err := s.SetItem(context.Background(), session.TokenKey, "abc123"); err != nil {
		t.Fatalf("SetItem() returned unexpected error: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("expected .tmp file to not exist after write")
	}
}

func TestSetItem_SameValueDoesNotRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStorage(path, testLogger())
	ctx := context.Background()

	_ = s.SetItem(ctx, session.TokenKey, "abc123")
	before := readSessionFile(t, path)

	if err := s.SetItem(ctx, session.TokenKey, "abc123"); err != nil {
		t.Fatalf("SetItem() returned unexpected error: %v", err)
	}
	after := readSessionFile(t, path)
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("expected unchanged value to leave the file untouched")
	}
}

func TestRemoveItem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStorage(path, testLogger())
	ctx := context.Background()

	if err := s.RemoveItem(ctx, session.TokenKey); err != nil {
		t.Fatalf("RemoveItem() without file: %v", err)
	}
	if s.Exists() {
		t.Error("removing a missing key must not create the file")
	}

	_ = s.SetItem(ctx, session.TokenKey, "abc123")
	_ = s.SetItem(ctx, "other", "keep")
	if err := s.RemoveItem(ctx, session.TokenKey); err != nil {
		t.Fatalf("RemoveItem() returned unexpected error: %v", err)
	}

	f := readSessionFile(t, path)
	if _, ok := f.Items[session.TokenKey]; ok {
		t.Error("token still present after RemoveItem()")
	}
	if f.Items["other"] != "keep" {
		t.Error("RemoveItem() dropped an unrelated key")
	}
}

// ---------------------------------------------------------------------------
// Sharing tests
// ---------------------------------------------------------------------------

// Two storages over one path stand in for two processes.
func TestTwoStorages_ShareSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	a := NewFileStorage(path, testLogger())
	b := NewFileStorage(path, testLogger())
	ctx := context.Background()

	if err := a.SetItem(ctx, session.TokenKey, "from-a"); err != nil {
		t.Fatalf("SetItem() failed: %v", err)
	}
	v, ok, err := b.GetItem(ctx, session.TokenKey)
	if err != nil || !ok || v != "from-a" {
		t.Errorf("b.GetItem() = %q, %v, %v", v, ok, err)
	}

	if err := b.RemoveItem(ctx, session.TokenKey); err != nil {
		t.Fatalf("RemoveItem() failed: %v", err)
	}
	if _, ok, _ := a.GetItem(ctx, session.TokenKey); ok {
		t.Error("a still sees the token removed by b")
	}
}

func TestConcurrentWrites_DoNotCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	a := NewFileStorage(path, testLogger())
	b := NewFileStorage(path, testLogger())
	ctx := context.Background()

	const goroutines = 20
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s := a
			if n%2 == 1 {
				s = b
			}
			if err := s.SetItem(ctx, fmt.Sprintf("key-%d", n), "v"); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent SetItem() error: %v", err)
	}

	f := readSessionFile(t, path)
	if len(f.Items) != goroutines {
		t.Errorf("expected %d items after concurrent writes, got %d", goroutines, len(f.Items))
	}
}

// ---------------------------------------------------------------------------
// Permission warnings
// ---------------------------------------------------------------------------

func TestGetItem_TooOpenPermissions_WarnsButSucceeds(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte(`{"version":"1","items":{"token":"abc123"}}`), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if err := os.Chmod(path, 0644); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s := NewFileStorage(path, logger)

	v, ok, err := s.GetItem(context.Background(), session.TokenKey)
	if err != nil || !ok || v != "abc123" {
		t.Fatalf("GetItem() = %q, %v, %v", v, ok, err)
	}
	if !strings.Contains(buf.String(), "too-open permissions") {
		t.Errorf("expected permission warning, got log %q", buf.String())
	}
}

func TestPathAndCompanions(t *testing.T) {
	s := NewFileStorage("/some/path/session.json", testLogger())
	if s.Path() != "/some/path/session.json" {
		t.Errorf("Path() = %q", s.Path())
	}
	want := []string{"/some/path/session.json.bak", "/some/path/session.json.lock", "/some/path/session.json.tmp"}
	got := s.Companions()
	if len(got) != len(want) {
		t.Fatalf("Companions() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Companions()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
