package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	apperrors "sjsage522/pspricebot/pkg/errors"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "psbot:session:"

// RedisStore implements Store on Redis with JSON values
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new Redis session store
func NewRedisStore(addr string, db int, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisStore{client: client, ttl: ttl}
}

func key(chatID int64) string {
	return keyPrefix + strconv.FormatInt(chatID, 10)
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get returns the state for a chat
func (s *RedisStore) Get(ctx context.Context, chatID int64) (State, bool, error) {
	raw, err := s.client.Get(ctx, key(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, apperrors.NewCache("session", "redis get failed", err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return State{}, false, apperrors.NewParsing("session", "corrupt session value", err)
	}
	return state, true, nil
}

// Set stores the state for a chat with the store TTL
func (s *RedisStore) Set(ctx context.Context, chatID int64, state State) error {
	state.UpdatedAt = time.Now()
	raw, err := json.Marshal(state)
	if err != nil {
		return apperrors.NewParsing("session", "failed to encode session", err)
	}
	if err := s.client.Set(ctx, key(chatID), raw, s.ttl).Err(); err != nil {
		return apperrors.NewCache("session", "redis set failed", err)
	}
	return nil
}

// Delete clears the state for a chat
func (s *RedisStore) Delete(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, key(chatID)).Err(); err != nil {
		return apperrors.NewCache("session", "redis delete failed", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
