package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is an in-process LRU cache with optional TTL.
type Memory struct {
	lru *expirable.LRU[string, []byte]
}

var _ Cache = (*Memory)(nil)

// NewMemory creates a memory cache holding at most size entries (0 = no
// limit) for at most ttl (0 = no expiry).
func NewMemory(size int, ttl time.Duration) *Memory {
	return &Memory{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.lru.Add(key, value)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.lru.Remove(key)
	return nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}
