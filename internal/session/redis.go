package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/claudel/offrebot/internal/domain"
)

const (
	// keyPrefixSession is the prefix for session keys.
	keyPrefixSession = "offrebot:session:"
	// DefaultSessionTTL bounds how long an idle conversation keeps
	// its place; after expiry the user lands back on the main menu,
	// same as a process restart with the memory store.
	DefaultSessionTTL = 24 * time.Hour
)

// RedisStore persists sessions in Redis as JSON with a sliding TTL.
// Optional backend for deployments that want conversations to survive
// restarts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(user string) string {
	return keyPrefixSession + user
}

func (r *RedisStore) Get(ctx context.Context, user string) (domain.Session, bool, error) {
	data, err := r.client.Get(ctx, sessionKey(user)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, false, nil
		}
		return domain.Session{}, false, fmt.Errorf("failed to get session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Session{}, false, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return s, true, nil
}

func (r *RedisStore) Set(ctx context.Context, user string, s domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(user), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, user string) error {
	if err := r.client.Del(ctx, sessionKey(user)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
