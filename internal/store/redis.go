package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tripforge/trip-planner/internal/model"
)

const redisKeyPrefix = "tripforge:session:"

// RedisStore keeps records as JSON in Redis so several API instances can
// share sessions.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClient parses url, falling back to treating it as a bare address.
func NewRedisClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	return redis.NewClient(opt)
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*model.Record, bool, error) {
	data, err := s.rdb.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return rec, true, nil
}

func (s *RedisStore) Save(ctx context.Context, rec *model.Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+rec.SessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// encodeRecord serialises the full record, signal included; the signal is
// internal state and must survive a round trip.
func encodeRecord(rec *model.Record) ([]byte, error) {
	return json.Marshal(rec)
}

// decodeRecord rejects unknown phases and signals through their UnmarshalText.
func decodeRecord(data []byte) (*model.Record, error) {
	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
