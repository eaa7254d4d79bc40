// Package domainsfile persists the egress allow-list across restarts.
//
// The file is YAML, one hostname per list entry, and is only written by
// the admin API. Writes are atomic (write-tmp-then-rename) with a .bak
// backup of the previous contents, guarded by an in-process mutex and a
// cross-process flock.
package domainsfile

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// fileSchema is the on-disk layout of the domains file.
type fileSchema struct {
	// Version is the schema version for forward compatibility. Currently "1".
	Version string `yaml:"version"`

	// Domains are the allow-listed hostnames, lowercase.
	Domains []string `yaml:"domains"`

	// UpdatedAt is when this file was last written.
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Store reads and writes the persisted allow-list file.
type Store struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// New creates a Store for the given file path.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Load reads and parses the domains file. A missing file is not an
// error: it returns (nil, nil) so the caller falls back to the static
// config list. Warns if the existing file has permissions more open
// than 0600.
func (s *Store) Load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("domains file not found, using configured allow-list", "path", s.path)
			return nil, nil
		}
		return nil, fmt.Errorf("read domains file: %w", err)
	}

	// Unix permission bits do not apply on Windows.
	if runtime.GOOS != "windows" {
		if info, statErr := os.Stat(s.path); statErr == nil {
			mode := info.Mode().Perm()
			if mode&0077 != 0 { // group or other has access
				s.logger.Warn("domains file has too-open permissions, should be 0600",
					"path", s.path, "current_mode", fmt.Sprintf("%04o", mode))
			}
		}
	}

	var file fileSchema
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse domains file: %w", err)
	}

	return file.Domains, nil
}

// Save writes the allow-list to disk atomically.
//
// The write sequence is:
//  1. Acquire in-process mutex
//  2. Acquire flock on path+".lock"
//  3. Copy current file to path+".bak" (skipped if no current file)
//  4. Marshal the list as YAML
//  5. Write to path+".tmp" with 0600 permissions
//  6. Fsync the temp file
//  7. Rename path+".tmp" -> path
//  8. Release flock
//  9. Release mutex
func (s *Store) Save(hosts []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockPath := s.path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() { _ = lockFile.Close() }()

	if err := flockLock(lockFile.Fd()); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer flockUnlock(lockFile.Fd()) //nolint:errcheck

	// Back up the current file (ignore error if it doesn't exist yet).
	if currentData, readErr := os.ReadFile(s.path); readErr == nil {
		bakPath := s.path + ".bak"
		if writeErr := os.WriteFile(bakPath, currentData, 0600); writeErr != nil {
			s.logger.Warn("failed to create backup", "error", writeErr)
		}
	}

	if hosts == nil {
		hosts = []string{}
	}
	data, err := yaml.Marshal(fileSchema{
		Version:   "1",
		Domains:   hosts,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal domains file: %w", err)
	}

	if err := s.writeAtomic(data); err != nil {
		return err
	}

	// Ensure 0600 after the rename regardless of umask.
	if err := os.Chmod(s.path, 0600); err != nil {
		s.logger.Warn("failed to set permissions on domains file", "error", err)
	}

	s.logger.Debug("domains file saved", "path", s.path, "domains", len(hosts))
	return nil
}

// writeAtomic writes data to a temp file, fsyncs it, and renames it
// over the target path. On any error the temp file is cleaned up.
func (s *Store) writeAtomic(data []byte) error {
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
		return fmt.Errorf("rename temp to domains file: %w", err)
	}
	return nil
}

// Exists reports whether the domains file exists on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Path returns the configured file path.
func (s *Store) Path() string {
	return s.path
}
