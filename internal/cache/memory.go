package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps JSON payloads in expiring LRUs, one per TTL class. Each
// class holds at most capacity entries; a key lives in one class at a time.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	classes  map[time.Duration]*expirable.LRU[string, []byte]
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryStore{
		capacity: capacity,
		classes:  make(map[time.Duration]*expirable.LRU[string, []byte]),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string, dst any) (bool, error) {
	for _, lru := range m.all() {
		payload, ok := lru.Get(key)
		if !ok {
			continue
		}
		if err := json.Unmarshal(payload, dst); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	target := m.class(ttl)
	for _, lru := range m.all() {
		if lru != target {
			lru.Remove(key)
		}
	}
	target.Add(key, payload)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, lru := range m.all() {
		for _, key := range keys {
			lru.Remove(key)
		}
	}
	return nil
}

func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	for _, lru := range m.all() {
		for _, key := range lru.Keys() {
			if strings.HasPrefix(key, prefix) {
				lru.Remove(key)
			}
		}
	}
	return nil
}

// Len is the number of live entries across every class.
func (m *MemoryStore) Len() int {
	n := 0
	for _, lru := range m.all() {
		n += len(lru.Keys())
	}
	return n
}

func (m *MemoryStore) class(ttl time.Duration) *expirable.LRU[string, []byte] {
	m.mu.Lock()
	defer m.mu.Unlock()
	lru, ok := m.classes[ttl]
	if !ok {
		lru = expirable.NewLRU[string, []byte](m.capacity, nil, ttl)
		m.classes[ttl] = lru
	}
	return lru
}

func (m *MemoryStore) all() []*expirable.LRU[string, []byte] {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]*expirable.LRU[string, []byte], 0, len(m.classes))
	for _, lru := range m.classes {
		res = append(res, lru)
	}
	return res
}
