package storage

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/wazhop/backend/internal/application/media"
)

var _ media.ObjectStorage = (*MemoryObjectStorage)(nil)

// MemoryObjectStorage keeps object sizes in memory. It backs local runs
// without a bucket and the tests.
type MemoryObjectStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]int64
	deleted []string
}

// NewMemoryObjectStorage creates an empty store serving URLs under baseURL
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	if baseURL == "" {
		baseURL = "http://localhost:8080/uploads"
	}
	return &MemoryObjectStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]int64),
	}
}

// GenerateUploadURL returns a fake upload URL carrying the expiry
func (s *MemoryObjectStorage) GenerateUploadURL(_ context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	expiresAt := time.Now().Add(expiresIn)
	q := url.Values{"expires": {expiresAt.Format(time.RFC3339)}, "content_type": {contentType}}
	return s.BaseURL + "/upload/" + key + "?" + q.Encode(), expiresAt, nil
}

// Put records an object as uploaded
func (s *MemoryObjectStorage) Put(key string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = size
}

// DeleteObject forgets key
func (s *MemoryObjectStorage) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// ObjectSize returns the recorded size of key
func (s *MemoryObjectStorage) ObjectSize(_ context.Context, key string) (int64, error) {
	if key == "" {
		return 0, ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[key], nil
}

// PublicURL returns the read URL of key
func (s *MemoryObjectStorage) PublicURL(key string) string {
	return s.BaseURL + "/" + strings.TrimLeft(key, "/")
}

// Deleted lists deleted keys in order
func (s *MemoryObjectStorage) Deleted() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.deleted...)
}
