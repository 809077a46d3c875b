package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/domain/ports/repository"
	"telegram-ai-relay/internal/infra/metrics"
	"telegram-ai-relay/internal/infra/security"
)

var _ repository.ContextCache = (*ContextCache)(nil)

type entry struct {
	payload   string // base64(nonce || ciphertext)
	createdAt time.Time
	expiresAt time.Time
}

// ContextCache holds one encrypted snapshot per user, in process memory
// only. Serialization and crypto run outside the mutex; the lock guards
// nothing but map access, so requests for different users do not contend.
//
// A nil EncryptionService disables the cache entirely: Put is a no-op and
// Get always misses. That is the degraded mode for a failed key setup.
type ContextCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	enc     *security.EncryptionService
	ttl     time.Duration
}

func NewContextCache(enc *security.EncryptionService, ttl time.Duration) *ContextCache {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &ContextCache{
		entries: make(map[string]entry),
		enc:     enc,
		ttl:     ttl,
	}
}

func (c *ContextCache) Put(ctx context.Context, userID string, snapshot *model.ContextSnapshot) error {
	if c.enc == nil || snapshot == nil {
		return nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	payload, err := c.enc.Encrypt(data)
	if err != nil {
		return err
	}
	now := time.Now()
	c.mu.Lock()
	c.entries[userID] = entry{payload: payload, createdAt: now, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *ContextCache) Get(ctx context.Context, userID string) (*model.ContextSnapshot, error) {
	if c.enc == nil {
		return nil, nil
	}
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		metrics.IncCacheRequest("context", "miss")
		return nil, nil
	}
	if !time.Now().Before(e.expiresAt) {
		// Expired entries are purged, not merely skipped.
		c.remove(userID, e)
		metrics.IncCacheRequest("context", "expired")
		return nil, nil
	}
	data, err := c.enc.Decrypt(e.payload)
	if err != nil {
		// Rotated key or torn payload: drop the entry and report a miss.
		c.remove(userID, e)
		metrics.IncCacheRequest("context", "decrypt_failed")
		return nil, nil
	}
	var snap model.ContextSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.remove(userID, e)
		metrics.IncCacheRequest("context", "decrypt_failed")
		return nil, nil
	}
	metrics.IncCacheRequest("context", "hit")
	return &snap, nil
}

func (c *ContextCache) Evict(ctx context.Context, userID string) error {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
	return nil
}

func (c *ContextCache) Sweep(ctx context.Context) (int, error) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, id)
			n++
		}
	}
	return n, nil
}

func (c *ContextCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// remove deletes the entry only if it is still the one we examined, so a
// racing Put is never clobbered by a stale expiry decision.
func (c *ContextCache) remove(userID string, seen entry) {
	c.mu.Lock()
	if cur, ok := c.entries[userID]; ok && cur.createdAt.Equal(seen.createdAt) {
		delete(c.entries, userID)
	}
	c.mu.Unlock()
}
