package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/referralhq/referral-api/internal/core/ports"
)

const tokenCacheTTL = time.Hour

// TokenCache fronts a TokenRepository with a Redis lookaside cache for
// token-to-user resolution, the hot path of every authenticated request.
// Keys hold a hash of the token, never the token itself, and only
// successful resolutions are cached.
type TokenCache struct {
	client *redis.Client
	inner  ports.TokenRepository
	log    zerolog.Logger
}

func NewTokenCache(client *redis.Client, inner ports.TokenRepository, log zerolog.Logger) *TokenCache {
	return &TokenCache{client: client, inner: inner, log: log}
}

// GetOrCreate delegates straight to the store: token creation is rare and
// must see the authoritative binding.
func (c *TokenCache) GetOrCreate(ctx context.Context, userID, candidate string) (string, error) {
	return c.inner.GetOrCreate(ctx, userID, candidate)
}

// UserIDByKey resolves via the cache first. Cache errors degrade to a store
// lookup rather than failing the request.
func (c *TokenCache) UserIDByKey(ctx context.Context, key string) (string, error) {
	cacheKey := c.cacheKey(key)

	userID, err := c.client.Get(ctx, cacheKey).Result()
	if err == nil && userID != "" {
		return userID, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warn().Err(err).Msg("token cache read failed, falling back to store")
	}

	userID, err = c.inner.UserIDByKey(ctx, key)
	if err != nil {
		return "", err
	}

	if serr := c.client.Set(ctx, cacheKey, userID, tokenCacheTTL).Err(); serr != nil {
		c.log.Warn().Err(serr).Msg("token cache write failed")
	}
	return userID, nil
}

func (c *TokenCache) cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "token:" + hex.EncodeToString(sum[:])
}
