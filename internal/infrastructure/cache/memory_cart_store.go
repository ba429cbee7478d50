package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wazhop/backend/internal/domain/cart"
)

type cartEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCartStore keeps carts in a map. Each cart is stored as JSON so
// callers never share the stored value.
type MemoryCartStore struct {
	mu        sync.RWMutex
	ttl       time.Duration
	entries   map[string]cartEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryCartStore creates the store and starts its cleanup goroutine
func NewMemoryCartStore(ttl time.Duration) *MemoryCartStore {
	s := &MemoryCartStore{
		ttl:      ttl,
		entries:  make(map[string]cartEntry),
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	return s
}

// Get returns the owner's cart, or an empty one
func (s *MemoryCartStore) Get(ctx context.Context, owner string) (*cart.Cart, error) {
	s.mu.RLock()
	e, ok := s.entries[owner]
	s.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return cart.New(owner), nil
	}
	var c cart.Cart
	if err := json.Unmarshal(e.data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save stores the cart and restarts its TTL
func (s *MemoryCartStore) Save(ctx context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[c.Owner] = cartEntry{data: data, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

// Delete drops the owner's cart
func (s *MemoryCartStore) Delete(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, owner)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *MemoryCartStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *MemoryCartStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *MemoryCartStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for owner, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, owner)
		}
	}
}

// Size returns the number of stored carts (for testing/monitoring)
func (s *MemoryCartStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ cart.Store = (*MemoryCartStore)(nil)
