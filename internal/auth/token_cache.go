package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// M2MTokenKey is the redis key holding the cached service token
	M2MTokenKey = "booking:m2m_token"
	// TokenExpiryBuffer is how long before expiry a token stops being served
	TokenExpiryBuffer = 60 * time.Second
)

// CachedToken is a token with its absolute expiry time
type CachedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsValid reports whether the token is usable for at least TokenExpiryBuffer more.
func (t *CachedToken) IsValid(now time.Time) bool {
	if t == nil || t.Token == "" {
		return false
	}
	return now.Add(TokenExpiryBuffer).Before(t.ExpiresAt)
}

// TokenCache stores the current service token. Get returns nil, nil on a miss.
type TokenCache interface {
	Get(ctx context.Context) (*CachedToken, error)
	Set(ctx context.Context, token CachedToken) error
}

type MemoryTokenCache struct {
	mu    sync.Mutex
	token *CachedToken
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{}
}

func (c *MemoryTokenCache) Get(ctx context.Context) (*CachedToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == nil {
		return nil, nil
	}
	t := *c.token
	return &t, nil
}

func (c *MemoryTokenCache) Set(ctx context.Context, token CachedToken) error {
	c.mu.Lock()
	c.token = &token
	c.mu.Unlock()
	return nil
}

// RedisTokenCache shares the token between replicas.
type RedisTokenCache struct {
	Client *redis.Client
}

func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{Client: client}
}

func (c *RedisTokenCache) Get(ctx context.Context) (*CachedToken, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	tokenJSON, err := c.Client.Get(ctx, M2MTokenKey).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get token from Redis: %w", err)
	}

	var token CachedToken
	if err := json.Unmarshal([]byte(tokenJSON), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token cache: %w", err)
	}
	return &token, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, token CachedToken) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token cache: %w", err)
	}

	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := c.Client.Set(ctx, M2MTokenKey, tokenJSON, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token in Redis: %w", err)
	}
	return nil
}
