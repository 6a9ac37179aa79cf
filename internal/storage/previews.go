package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"visualizer/internal/domain"
)

// PreviewStore holds transient preview handles for uploaded images on the
// local filesystem. A handle is valid from Acquire until Release; nothing
// survives Close.
type PreviewStore struct {
	basePath string
	owned    bool

	mu      sync.Mutex
	entries map[string]string
}

// NewPreviewStore initializes a store rooted at basePath. An empty basePath
// creates a private temporary directory that Close removes.
func NewPreviewStore(basePath string) (*PreviewStore, error) {
	basePath = strings.TrimSpace(basePath)
	owned := false
	if basePath == "" {
		dir, err := os.MkdirTemp("", "visualizer-previews-")
		if err != nil {
			return nil, fmt.Errorf("storage: create temp dir: %w", err)
		}
		basePath, owned = dir, true
	} else if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &PreviewStore{basePath: basePath, owned: owned, entries: make(map[string]string)}, nil
}

// BasePath returns the configured root directory.
func (s *PreviewStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Acquire writes data under a fresh key and returns the key as the handle.
func (s *PreviewStore) Acquire(ctx context.Context, data []byte, mediaType string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := uuid.NewString()
	if err := os.WriteFile(s.path(key), data, 0o600); err != nil {
		return "", fmt.Errorf("storage: write preview: %w", err)
	}
	s.mu.Lock()
	s.entries[key] = mediaType
	s.mu.Unlock()
	return key, nil
}

// Read returns the bytes and media type behind a live handle.
func (s *PreviewStore) Read(key string) ([]byte, string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, "", err
	}
	s.mu.Lock()
	mediaType, ok := s.entries[cleanKey]
	s.mu.Unlock()
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	data, err := os.ReadFile(s.path(cleanKey))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("storage: read preview: %w", err)
	}
	return data, mediaType, nil
}

// Release deletes the handle. Releasing an unknown handle is a no-op.
func (s *PreviewStore) Release(key string) error {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	_, ok := s.entries[cleanKey]
	delete(s.entries, cleanKey)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := os.Remove(s.path(cleanKey)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove preview: %w", err)
	}
	return nil
}

// Len reports the number of live handles.
func (s *PreviewStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close releases every live handle and removes the directory if the store created it.
func (s *PreviewStore) Close() error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	s.mu.Unlock()

	var errs []error
	for _, key := range keys {
		if err := s.Release(key); err != nil {
			errs = append(errs, err)
		}
	}
	if s.owned {
		if err := os.RemoveAll(s.basePath); err != nil {
			errs = append(errs, fmt.Errorf("storage: remove temp dir: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *PreviewStore) path(key string) string {
	return filepath.Join(s.basePath, key+".bin")
}

// sanitizeKey only admits keys minted by Acquire, which keeps lookups inside
// the store root.
func sanitizeKey(key string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(key))
	if err != nil {
		return "", fmt.Errorf("storage: invalid key: %w", domain.ErrNotFound)
	}
	return id.String(), nil
}
