package cache

import (
	"context"
	"testing"
	"time"

	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/infra/security"
)

func newTestEnc(t *testing.T) *security.EncryptionService {
	t.Helper()
	enc, err := security.NewEncryptionService([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewEncryptionService: %v", err)
	}
	return enc
}

func snapshot(channelID string) *model.ContextSnapshot {
	return model.NewContextSnapshot(channelID, []model.ContextMessage{
		{Author: "alice", Text: "hello", Timestamp: time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)},
		{Author: "bob", Text: "hi there", Timestamp: time.Date(2026, 3, 14, 15, 1, 0, 0, time.UTC)},
	})
}

func TestCacheRoundTrip(t *testing.T) {
	c := NewContextCache(newTestEnc(t), time.Hour)
	ctx := context.Background()
	in := snapshot("chan-1")

	if err := c.Put(ctx, "u1", in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	out, err := c.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out == nil {
		t.Fatalf("Get returned nil after Put")
	}
	if out.ID != in.ID || out.ChannelID != in.ChannelID {
		t.Fatalf("snapshot identity mismatch: got %s/%s", out.ID, out.ChannelID)
	}
	if len(out.Messages) != len(in.Messages) {
		t.Fatalf("messages = %d, want %d", len(out.Messages), len(in.Messages))
	}
	if out.Messages[0].Author != "alice" || out.Messages[0].Text != "hello" {
		t.Fatalf("message content mismatch: %+v", out.Messages[0])
	}
}

func TestCacheMissForUnknownUser(t *testing.T) {
	c := NewContextCache(newTestEnc(t), time.Hour)

	out, err := c.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil for absent entry, got %+v", out)
	}
}

func TestCacheExpiredEntryMissesWithoutSweep(t *testing.T) {
	c := NewContextCache(newTestEnc(t), time.Millisecond)
	ctx := context.Background()

	if err := c.Put(ctx, "u1", snapshot("chan-1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	out, err := c.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out != nil {
		t.Fatalf("expired entry served: %+v", out)
	}
	// Lazy expiry also purges the slot.
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0 after expired Get", c.Len())
	}
}

func TestCachePutOverwritesSlot(t *testing.T) {
	c := NewContextCache(newTestEnc(t), time.Hour)
	ctx := context.Background()

	first := snapshot("chan-1")
	second := snapshot("chan-2")
	if err := c.Put(ctx, "u1", first); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put(ctx, "u1", second); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want single slot per user", c.Len())
	}
	out, _ := c.Get(ctx, "u1")
	if out.ChannelID != "chan-2" {
		t.Fatalf("slot = %s, want latest snapshot", out.ChannelID)
	}
}

func TestCacheEvictIdempotent(t *testing.T) {
	c := NewContextCache(newTestEnc(t), time.Hour)
	ctx := context.Background()

	if err := c.Put(ctx, "u1", snapshot("chan-1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Evict(ctx, "u1"); err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if out, _ := c.Get(ctx, "u1"); out != nil {
		t.Fatalf("entry survived eviction")
	}
	if err := c.Evict(ctx, "u1"); err != nil {
		t.Fatalf("Evict (repeat): %v", err)
	}
}

func TestCacheKeyRotationReadsAsMiss(t *testing.T) {
	ctx := context.Background()
	c := NewContextCache(newTestEnc(t), time.Hour)
	if err := c.Put(ctx, "u1", snapshot("chan-1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Swap the key under the same entries, simulating a restart with a
	// different key and a warm map.
	rotated, err := security.NewEncryptionService([]byte("fedcba9876543210fedcba9876543210"))
	if err != nil {
		t.Fatalf("NewEncryptionService: %v", err)
	}
	c.enc = rotated

	out, err := c.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out != nil {
		t.Fatalf("undecryptable entry served: %+v", out)
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, undecryptable entry must be dropped", c.Len())
	}
}

func TestCacheDisabledWithoutEncryption(t *testing.T) {
	c := NewContextCache(nil, time.Hour)
	ctx := context.Background()

	if err := c.Put(ctx, "u1", snapshot("chan-1")); err != nil {
		t.Fatalf("Put on disabled cache: %v", err)
	}
	out, err := c.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get on disabled cache: %v", err)
	}
	if out != nil {
		t.Fatalf("disabled cache returned an entry")
	}
	if c.Len() != 0 {
		t.Fatalf("disabled cache stored something, Len = %d", c.Len())
	}
}

func TestCacheSweepDropsOnlyExpired(t *testing.T) {
	enc := newTestEnc(t)
	c := NewContextCache(enc, time.Hour)
	ctx := context.Background()

	if err := c.Put(ctx, "fresh", snapshot("chan-1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put(ctx, "stale", snapshot("chan-2")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// Backdate one entry past its TTL.
	c.mu.Lock()
	e := c.entries["stale"]
	e.expiresAt = time.Now().Add(-time.Minute)
	c.entries["stale"] = e
	c.mu.Unlock()

	n, err := c.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept = %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	if out, _ := c.Get(ctx, "fresh"); out == nil {
		t.Fatalf("fresh entry must survive the sweep")
	}
}
