package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore holds the transient pieces of the auth flows: OAuth
// anti-forgery states and resend cooldowns. Both are short-lived and
// self-expiring, so they live in the cache rather than Postgres.
type StateStore interface {
	// SaveOAuthState stores a state under its opaque key with the given TTL.
	SaveOAuthState(ctx context.Context, state string, st *OAuthState, ttl time.Duration) error
	// ConsumeOAuthState fetches and deletes a state in one step, making each
	// state single-use. Returns ErrNotFound when the state is absent, whether
	// it never existed, expired, or was already consumed.
	ConsumeOAuthState(ctx context.Context, state string) (*OAuthState, error)
	// ReserveCooldown sets a cooldown marker if none is active. It reports
	// whether the reservation succeeded; false means the cooldown is still
	// running.
	ReserveCooldown(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// ReleaseCooldown removes a cooldown marker so the action can be retried
	// immediately. Used when the work the reservation guarded has failed.
	ReleaseCooldown(ctx context.Context, key string) error
}

const (
	oauthStatePrefix = "oauth:state:"
	cooldownPrefix   = "cooldown:"
)

// redisStateStore implements StateStore on go-redis.
type redisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore creates a Redis-backed state store.
func NewRedisStateStore(client *redis.Client) StateStore {
	return &redisStateStore{client: client}
}

func (s *redisStateStore) SaveOAuthState(ctx context.Context, state string, st *OAuthState, ttl time.Duration) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal oauth state: %w", err)
	}
	if err := s.client.Set(ctx, oauthStatePrefix+state, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store oauth state: %w", err)
	}
	return nil
}

func (s *redisStateStore) ConsumeOAuthState(ctx context.Context, state string) (*OAuthState, error) {
	// GETDEL makes consumption atomic: of two concurrent callbacks with the
	// same state, only one sees the value.
	payload, err := s.client.GetDel(ctx, oauthStatePrefix+state).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}

	var st OAuthState
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("unmarshal oauth state: %w", err)
	}
	return &st, nil
}

func (s *redisStateStore) ReserveCooldown(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, cooldownPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve cooldown: %w", err)
	}
	return ok, nil
}

func (s *redisStateStore) ReleaseCooldown(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, cooldownPrefix+key).Err(); err != nil {
		return fmt.Errorf("release cooldown: %w", err)
	}
	return nil
}
