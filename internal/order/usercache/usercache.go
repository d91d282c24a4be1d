// Package usercache keeps a TTL-bound snapshot of user profiles in Redis.
// The snapshots are fed from user lifecycle events and enrich outgoing order
// events with recipient data without a synchronous call to the user service.
package usercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

const keyPrefix = "order-svc:user:"

// ErrProfileNotFound is returned when no cached profile exists for the user.
var ErrProfileNotFound = errors.New("user profile not found in cache")

// Profile is the cached slice of a user record.
type Profile struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Active   bool   `json:"active"`
}

// Cache stores user profiles in Redis with a TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// MustNewCache creates a new user profile cache from REDIS_ADDR and viper
// config, panicking when Redis is unreachable.
func MustNewCache() *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		panic("failed to connect to redis: " + err.Error())
	}

	ttl := viper.GetDuration("usercache.ttl")
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Cache{client: client, ttl: ttl}
}

// NewCache creates a cache over an existing Redis client. Used by tests.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Put stores the profile for the user, refreshing its TTL.
func (c *Cache) Put(ctx context.Context, userID int64, profile Profile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal user profile: %w", err)
	}

	if err := c.client.Set(ctx, key(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store user profile: %w", err)
	}

	return nil
}

// Get returns the cached profile for the user, or ErrProfileNotFound.
func (c *Cache) Get(ctx context.Context, userID int64) (Profile, error) {
	payload, err := c.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to load user profile: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(payload, &profile); err != nil {
		return Profile{}, fmt.Errorf("failed to unmarshal user profile: %w", err)
	}

	return profile, nil
}

// Delete removes the cached profile for the user.
func (c *Cache) Delete(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete user profile: %w", err)
	}

	return nil
}

// Close closes the underlying Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

func key(userID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, userID)
}
