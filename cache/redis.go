// Package cache provides Redis-backed caching for dashboard responses.
// All operations degrade to no-ops when Redis is unavailable so the
// dashboard keeps working without a cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps a Redis connection with JSON value handling.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects to Redis. Returns a client with a nil connection
// when Redis is unreachable; every method on it is a safe no-op.
func NewRedisClient(addr, password string, db int) *RedisClient {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Redis unavailable at %s, caching disabled: %v", addr, err)
		return &RedisClient{client: nil}
	}

	log.Printf("✅ Redis connected at %s", addr)
	return &RedisClient{client: client}
}

// Enabled reports whether a live connection backs this client.
func (r *RedisClient) Enabled() bool {
	return r != nil && r.client != nil
}

// Set stores a JSON-encoded value with a TTL.
func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !r.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// Get loads a JSON-encoded value into dest. Returns false on a miss or
// when caching is disabled.
func (r *RedisClient) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !r.Enabled() {
		return false, nil
	}
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes keys matching a pattern.
func (r *RedisClient) Delete(ctx context.Context, pattern string) error {
	if !r.Enabled() {
		return nil
	}
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close closes the connection.
func (r *RedisClient) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}
