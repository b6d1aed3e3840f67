package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize is the number of chunks kept by NewMemory when size <= 0.
const DefaultMemorySize = 1024

// Compile-time interface compliance check.
var _ Store = (*Memory)(nil)

// Memory is a bounded in-process Store with least-recently-used eviction.
// It is safe for concurrent use.
type Memory struct {
	lru *lru.Cache[string, string]
}

// NewMemory creates a Memory store holding at most size entries.
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}
	return &Memory{lru: c}, nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, key, value string) error {
	m.lru.Add(key, value)
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}

// Close purges the cache.
func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
