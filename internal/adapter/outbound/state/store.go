package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// FileStorage implements session.Storage on top of a JSON session file.
// It provides atomic writes (write-tmp-then-rename), automatic backups and
// file locking (flock for cross-process, mutex for in-process). Reads take
// no lock: the rename makes every observed file complete.
type FileStorage struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileStorage creates a FileStorage for the given file path. The file and
// its directory are created on first write. A nil logger uses slog.Default().
func NewFileStorage(path string, logger *slog.Logger) *FileStorage {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStorage{
		path:   path,
		logger: logger,
	}
}

// GetItem returns the value stored under key.
func (s *FileStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	f, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := f.Items[key]
	return v, ok, nil
}

// SetItem stores value under key.
func (s *FileStorage) SetItem(_ context.Context, key, value string) error {
	return s.update(func(f *SessionFile) bool {
		if cur, ok := f.Items[key]; ok && cur == value {
			return false
		}
		f.Items[key] = value
		return true
	})
}

// RemoveItem deletes key. Removing a missing key does not touch the file.
func (s *FileStorage) RemoveItem(_ context.Context, key string) error {
	return s.update(func(f *SessionFile) bool {
		if _, ok := f.Items[key]; !ok {
			return false
		}
		delete(f.Items, key)
		return true
	})
}

// load reads and parses the session file. A missing file is an empty
// session. A file with too-open permissions is used but warned about, since
// it holds a bearer token.
func (s *FileStorage) load() (*SessionFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return newSessionFile(), nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	// Skip on Windows where Unix file permission bits are not supported.
	if runtime.GOOS != "windows" {
		if info, statErr := os.Stat(s.path); statErr == nil {
			mode := info.Mode().Perm()
			if mode&0077 != 0 {
				s.logger.Warn("session file has too-open permissions, should be 0600",
					"path", s.path, "current_mode", fmt.Sprintf("%04o", mode))
			}
		}
	}

	var f SessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	if f.Items == nil {
		f.Items = map[string]string{}
	}
	return &f, nil
}

// update runs a read-modify-write cycle under both locks. mutate reports
// whether it changed anything; unchanged files are not rewritten.
//
// The write sequence is:
//  1. Acquire in-process mutex
//  2. Acquire flock on path+".lock"
//  3. Load the current file
//  4. Apply mutate
//  5. Copy current file to path+".bak" (ignored if no current file)
//  6. Write path+".tmp" with 0600 permissions, fsync, rename over path
func (s *FileStorage) update(mutate func(*SessionFile) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	lockFile, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() { _ = lockFile.Close() }()

	if err := flockLock(lockFile.Fd()); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer flockUnlock(lockFile.Fd()) //nolint:errcheck

	f, err := s.load()
	if err != nil {
		return err
	}
	if !mutate(f) {
		return nil
	}
	f.UpdatedAt = time.Now().UTC()

	if currentData, readErr := os.ReadFile(s.path); readErr == nil {
		if writeErr := os.WriteFile(s.path+".bak", currentData, 0600); writeErr != nil {
			s.logger.Warn("failed to create backup", "error", writeErr)
		}
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	data = append(data, '\n')

	if err := s.writeAtomic(data); err != nil {
		return err
	}

	if err := os.Chmod(s.path, 0600); err != nil {
		s.logger.Warn("failed to set permissions on session file", "error", err)
	}

	s.logger.Debug("session file saved", "path", s.path, "items", len(f.Items))
	return nil
}

// writeAtomic writes data to a temp file, fsyncs it, and renames it
// over the target path. On any error the temp file is cleaned up.
func (s *FileStorage) writeAtomic(data []byte) error {
	tmpPath := s.path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp to session file: %w", err)
	}
	return nil
}

// Exists returns true if the session file exists on disk.
func (s *FileStorage) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Path returns the configured file path.
func (s *FileStorage) Path() string {
	return s.path
}

// Companions returns the auxiliary files kept next to the session file.
func (s *FileStorage) Companions() []string {
	return []string{s.path + ".bak", s.path + ".lock", s.path + ".tmp"}
}
