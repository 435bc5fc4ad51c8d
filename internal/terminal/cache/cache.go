// Package cache holds the terminal API key validation cache. Entries are
// keyed by key hash, never by raw key.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Entry is the cached outcome of a successful key validation.
type Entry struct {
	TerminalID snowflake.ID `json:"terminal_id"`
	AccountID  snowflake.ID `json:"account_id"`
	Label      string       `json:"label"`
}

type Cache interface {
	Get(ctx context.Context, keyHash string) (Entry, bool, error)
	Set(ctx context.Context, keyHash string, entry Entry, ttl time.Duration) error
	Delete(ctx context.Context, keyHash string) error
}

// Memory is a mutex-guarded in-process cache for tests and redis-less
// deployments.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(ctx context.Context, keyHash string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cached, ok := m.entries[keyHash]
	if !ok {
		return Entry{}, false, nil
	}
	if time.Now().After(cached.expiresAt) {
		delete(m.entries, keyHash)
		return Entry{}, false, nil
	}
	return cached.entry, true, nil
}

func (m *Memory) Set(ctx context.Context, keyHash string, entry Entry, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[keyHash] = memoryEntry{entry: entry, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *Memory) Delete(ctx context.Context, keyHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, keyHash)
	return nil
}
