package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache keys for transaction listings
const (
	AllTransactionsKey    = "transactions:all"   // All-transactions listing
	UserTransactionPrefix = "transactions:user:" // Per-user listing, suffixed with the user id
	tokenDenyPrefix       = "tokendeny:"         // Revoked token jti entries
)

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes a key from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err() // Delete key from Redis
}

// DenyToken marks a token jti as revoked until the token's natural expiry.
// An already-expired token needs no entry.
func DenyToken(ctx context.Context, rdb *redis.Client, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt) // Keep the entry only as long as the token lives
	if ttl <= 0 {
		return nil // Token already expired, nothing to deny
	}
	return rdb.Set(ctx, tokenDenyPrefix+jti, "1", ttl).Err() // Store the denylist entry
}

// IsTokenDenied checks whether a token jti has been revoked
func IsTokenDenied(ctx context.Context, rdb *redis.Client, jti string) (bool, error) {
	_, err := rdb.Get(ctx, tokenDenyPrefix+jti).Result() // Look up the denylist entry
	if err == redis.Nil {
		return false, nil // Not revoked
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, nil // Entry present, token is revoked
}
