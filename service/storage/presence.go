package storage

import (
	"context"
	"time"

	redisc "UniChat/service/storage/redis"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// PresenceMirror keeps a write-through copy of the session registry in
// Redis so sibling services can answer "is X online" without holding a
// socket. Best-effort: callers log failures and move on.
type PresenceMirror struct {
	nodeID string
	ttl    time.Duration
}

func NewPresenceMirror(nodeID string, ttl time.Duration) *PresenceMirror {
	return &PresenceMirror{nodeID: nodeID, ttl: ttl}
}

// presence key: uc:presence:<user>
// value: node id; TTL bounds the online validity window
func presenceKey(user string) string { return "uc:presence:" + user }

// Online marks the user online (or renews the TTL on heartbeat).
func (p *PresenceMirror) Online(ctx context.Context, user string) error {
	rdb := redisc.GetRedis()
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Set(ctx, presenceKey(user), p.nodeID, p.ttl).Err()
}

// Offline removes the user's presence key.
func (p *PresenceMirror) Offline(ctx context.Context, user string) error {
	rdb := redisc.GetRedis()
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Del(ctx, presenceKey(user)).Err()
}

// Lookup reports whether the user is online and on which node.
func (p *PresenceMirror) Lookup(ctx context.Context, user string) (nodeID string, online bool, err error) {
	rdb := redisc.GetRedis()
	if rdb == nil {
		return "", false, errors.New("redis not initialized")
	}
	val, err := rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
