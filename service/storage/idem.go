package storage

import (
	"context"
	"sync"
	"time"

	redisc "UniChat/service/storage/redis"
)

// ----- storage abstraction -----

// IdemStore answers "has this key been seen before" exactly once per key
// within ttl. Used by the message router for clientId de-duplication.
type IdemStore interface {
	SeenOnce(key string, ttl time.Duration) (seen bool, err error)
}

// ----- in-memory implementation (single process) -----

type memIdem struct {
	mu  sync.Mutex
	m   map[string]int64 // key -> expireUnix
	ttl time.Duration
}

func NewMemIdem(defaultTTL time.Duration) IdemStore {
	mi := &memIdem{m: make(map[string]int64), ttl: defaultTTL}
	// janitor
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for range t.C {
			now := time.Now().Unix()
			mi.mu.Lock()
			for k, exp := range mi.m {
				if exp <= now {
					delete(mi.m, k)
				}
			}
			mi.mu.Unlock()
		}
	}()
	return mi
}

func (mi *memIdem) SeenOnce(key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = mi.ttl
	}
	exp := time.Now().Add(ttl).Unix()
	mi.mu.Lock()
	defer mi.mu.Unlock()
	if old, ok := mi.m[key]; ok && old > time.Now().Unix() {
		return true, nil
	}
	mi.m[key] = exp
	return false, nil
}

// ----- Redis implementation (SETNX + TTL) -----

type redisIdem struct {
	ttl time.Duration
}

func NewRedisIdem(defaultTTL time.Duration) IdemStore {
	return &redisIdem{ttl: defaultTTL}
}

func idemKey(key string) string { return "uc:idem:" + key }

func (ri *redisIdem) SeenOnce(key string, ttl time.Duration) (bool, error) {
	rdb := redisc.GetRedis()
	if rdb == nil {
		// degrade to "not seen"; the mem store is the fallback wiring
		return false, nil
	}
	if ttl <= 0 {
		ttl = ri.ttl
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ok, err := rdb.SetNX(ctx, idemKey(key), "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
