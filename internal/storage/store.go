package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/0xSandiem/peek-api/internal/config"
	"github.com/0xSandiem/peek-api/internal/ids"
)

// ErrNotFound is returned by Fetch and Delete when the key has no object.
var ErrNotFound = errors.New("object not found")

// Store is the uniform blob contract shared by the API layer and the worker.
// Implementations must tolerate concurrent reads of immutable keys and
// concurrent saves of distinct keys without coordination.
type Store interface {
	// Save persists data under a freshly generated key derived from
	// suggestedName's extension and returns that key.
	Save(ctx context.Context, data []byte, suggestedName, contentType string) (string, error)
	// SaveAs persists data under an exact key, used for derived artifacts
	// whose key must be computable from the original's key.
	SaveAs(ctx context.Context, key string, data []byte, contentType string) error
	Fetch(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// PublicURL returns a stable public URL for key, or "" when the backend
	// has none; callers fall back to fetching bytes directly.
	PublicURL(key string) string
}

// New selects a backend from configuration.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocalStore(cfg)
	case "s3":
		return NewObjectStore(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// buildKey generates a collision-free object key, date-prefixed so backends
// shard listings by day.
func buildKey(suggestedName string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(suggestedName), "."))
	if ext == "" {
		ext = "bin"
	}
	datePrefix := time.Now().UTC().Format("2006/01/02")
	return path.Join(datePrefix, fmt.Sprintf("%s.%s", ids.New(), ext))
}

// AnnotatedKey derives the storage key of the annotated copy from the
// original's key.
func AnnotatedKey(originalKey string) string {
	ext := path.Ext(originalKey)
	base := strings.TrimSuffix(originalKey, ext)
	return base + "_annotated" + ext
}
