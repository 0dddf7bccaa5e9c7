package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceStore marks game liveness in Redis. The in-process registry stays
// authoritative; these keys are best-effort markers that let external
// tooling see which games a node is running (and could be extended to route
// cross-instance pub/sub).
type PresenceStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresenceStore(client *redis.Client, ttl time.Duration) *PresenceStore {
	return &PresenceStore{client: client, ttl: ttl}
}

func (s *PresenceStore) MarkActive(gameID string) {
	_ = s.client.Set(context.Background(), s.key(gameID), "1", s.ttl).Err()
}

func (s *PresenceStore) Clear(gameID string) {
	_ = s.client.Del(context.Background(), s.key(gameID)).Err()
}

func (s *PresenceStore) key(gameID string) string {
	return "game:active:" + gameID
}
