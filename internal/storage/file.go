package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"evoting/pkg/platform/sentinel"
)

// FileSlotStore keeps one file per slot in a private directory, e.g.
// ~/.evoting/administrator-credential. Files are written 0600 and replaced
// atomically so a reader never sees a truncated credential.
type FileSlotStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileSlotStore creates dir (0700) if needed.
func NewFileSlotStore(dir string) (*FileSlotStore, error) {
	if dir == "" {
		return nil, errors.New("file slot store requires a directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create credential directory: %w", err)
	}
	return &FileSlotStore{dir: dir}, nil
}

// DefaultDir returns ~/.evoting.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".evoting"), nil
}

func (s *FileSlotStore) Get(_ context.Context, key string) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read credential slot: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileSlotStore) Set(_ context.Context, key, value string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+key+".*")
	if err != nil {
		return fmt.Errorf("create credential slot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod credential slot: %w", err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write credential slot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credential slot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace credential slot: %w", err)
	}
	return nil
}

func (s *FileSlotStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete credential slot: %w", err)
	}
	return nil
}

func (s *FileSlotStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid slot key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}
