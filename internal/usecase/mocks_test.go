package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/domain"
	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/domain/ports/adapter"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memPrivacyRepo is a small in-memory implementation used by unit tests.
type memPrivacyRepo struct {
	mu       sync.RWMutex
	store    map[string]*model.PrivacyPreference
	findErr  error // used by tests to simulate storage failures
	saveErr  error
	saveHook func() // runs inside Save, simulating concurrent activity
}

func newMemPrivacyRepo() *memPrivacyRepo {
	return &memPrivacyRepo{store: make(map[string]*model.PrivacyPreference)}
}

func (m *memPrivacyRepo) Find(ctx context.Context, userID string) (*model.PrivacyPreference, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPrivacyRepo) Save(ctx context.Context, pref *model.PrivacyPreference) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saveHook != nil {
		m.saveHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pref
	m.store[pref.UserID] = &cp
	return nil
}

func (m *memPrivacyRepo) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

// memCache is an unencrypted stand-in for the context cache. It records Put
// and Evict calls so tests can assert on cache traffic.
type memCache struct {
	mu     sync.Mutex
	slots  map[string]*model.ContextSnapshot
	puts   int
	evicts int
	getErr error
}

func newMemCache() *memCache {
	return &memCache{slots: make(map[string]*model.ContextSnapshot)}
}

func (m *memCache) Put(ctx context.Context, userID string, snapshot *model.ContextSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.slots[userID] = snapshot
	return nil
}

func (m *memCache) Get(ctx context.Context, userID string) (*model.ContextSnapshot, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[userID], nil
}

func (m *memCache) Evict(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evicts++
	delete(m.slots, userID)
	return nil
}

func (m *memCache) Sweep(ctx context.Context) (int, error) { return 0, nil }

func (m *memCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

func (m *memCache) has(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.slots[userID]
	return ok
}

// fakeSource serves a fixed window per channel and counts fetches.
type fakeSource struct {
	mu       sync.Mutex
	messages map[string][]model.ContextMessage
	fetches  int
	err      error
}

func newFakeSource() *fakeSource {
	return &fakeSource{messages: make(map[string][]model.ContextMessage)}
}

func (f *fakeSource) FetchRecent(ctx context.Context, channelID string, limit int, before time.Time) ([]model.ContextMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	msgs := f.messages[channelID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]model.ContextMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

// fakeAI echoes back and records the messages it was called with.
type fakeAI struct {
	mu       sync.Mutex
	reply    string
	err      error
	lastMsgs []adapter.Message
	calls    int
}

func (f *fakeAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"gpt-4o-mini"}, nil
}

func (f *fakeAI) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{Name: model}, nil
}

func (f *fakeAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return len(messages), nil
}

func (f *fakeAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	s, _, err := f.ChatWithUsage(ctx, model, messages)
	return s, err
}

func (f *fakeAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastMsgs = append([]adapter.Message(nil), messages...)
	if f.err != nil {
		return "", adapter.Usage{}, f.err
	}
	reply := f.reply
	if reply == "" {
		reply = "ok"
	}
	return reply, adapter.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, nil
}
