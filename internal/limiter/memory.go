// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package limiter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

var errWindowNotStored = errors.New("rate limit window was not stored, the client cache is full")

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryStore keeps the counters in a ristretto cache, each entry expiring with its window.
// It is local to the process, use RedisStore when running more than one instance.
type MemoryStore struct {
	mu    sync.Mutex
	cache *ristretto.Cache
	now   func() time.Time
}

func NewMemoryStore(maxClients int64) (*MemoryStore, error) {
	if maxClients <= 0 {
		maxClients = 100_000
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		// 10x the number of items as recommended
		NumCounters: maxClients * 10,
		// Every window costs 1, MaxCost is then the number of clients tracked
		MaxCost:            maxClients,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}

	return &MemoryStore{cache: cache, now: time.Now}, nil
}

func (m *MemoryStore) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if v, ok := m.cache.Get(key); ok {
		if w := v.(*window); now.Before(w.resetAt) {
			w.count++
			return w.count, nil
		}
	}

	w := &window{count: 1, resetAt: now.Add(ttl)}
	if !m.cache.SetWithTTL(key, w, 1, ttl) {
		return 0, errWindowNotStored
	}
	// Sets are buffered, wait so the next hit of this client sees the new window
	m.cache.Wait()
	// The admission policy can still reject the window once the cache is full
	if _, ok := m.cache.Get(key); !ok {
		return 0, errWindowNotStored
	}
	return w.count, nil
}

func (m *MemoryStore) Close() {
	m.cache.Close()
}
