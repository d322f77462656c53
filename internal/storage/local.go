package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/0xSandiem/peek-api/internal/config"
	"github.com/0xSandiem/peek-api/internal/ids"
)

// LocalStore keeps objects on the filesystem under a configured root
// directory. Writes go through a temp file plus rename so concurrent readers
// never observe a partial object.
type LocalStore struct {
	root          string
	publicBaseURL string
}

func NewLocalStore(cfg config.StorageConfig) (*LocalStore, error) {
	if cfg.LocalDir == "" {
		return nil, fmt.Errorf("local storage: directory not configured")
	}
	if err := os.MkdirAll(cfg.LocalDir, 0o755); err != nil {
		return nil, fmt.Errorf("local storage: create root: %w", err)
	}
	return &LocalStore{
		root:          cfg.LocalDir,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *LocalStore) Save(ctx context.Context, data []byte, suggestedName, contentType string) (string, error) {
	key := buildKey(suggestedName)
	if err := s.SaveAs(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return key, nil
}

func (s *LocalStore) SaveAs(ctx context.Context, key string, data []byte, contentType string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("local storage: mkdir: %w", err)
	}

	tmp := path + ".tmp." + ids.New()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("local storage: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("local storage: rename: %w", err)
	}
	return nil
}

func (s *LocalStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("local storage: read: %w", err)
	}
	return data, nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("local storage: remove: %w", err)
	}
	return nil
}

func (s *LocalStore) PublicURL(key string) string {
	if s.publicBaseURL == "" {
		return ""
	}
	return s.publicBaseURL + "/" + key
}

// resolve maps a key onto the root directory and rejects keys that would
// escape it.
func (s *LocalStore) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("local storage: invalid key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}
