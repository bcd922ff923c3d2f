package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func cleanupTestRedis(mr *miniredis.Miniredis, client *redis.Client) {
	client.Close()
	mr.Close()
}

func newKeycloakStub(t *testing.T, token string, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/realms/evently/protocol/openid-connect/token", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "booking-service", r.PostForm.Get("client_id"))
		assert.Equal(t, "s3cret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.TokenResponse{AccessToken: token, ExpiresIn: 300, TokenType: "Bearer"})
	}))
}

func m2mConfig(url string) models.M2MConfig {
	return models.M2MConfig{
		KeycloakURL:   url,
		KeycloakRealm: "evently",
		ClientID:      "booking-service",
		ClientSecret:  "s3cret",
	}
}

func TestM2MTokenSourceCachesToken(t *testing.T) {
	var calls int32
	token := signHS256(t, jwt.MapClaims{"sub": "booking-service", "exp": time.Now().Add(10 * time.Minute).Unix()})
	server := newKeycloakStub(t, token, &calls)
	defer server.Close()

	source := NewM2MTokenSource(m2mConfig(server.URL), server.Client(), nil, logger.NewNop())

	for i := 0; i < 3; i++ {
		got, err := source.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, token, got)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestM2MTokenSourceRefreshesNearExpiry(t *testing.T) {
	var calls int32
	token := signHS256(t, jwt.MapClaims{"sub": "booking-service", "exp": time.Now().Add(30 * time.Second).Unix()})
	server := newKeycloakStub(t, token, &calls)
	defer server.Close()

	source := NewM2MTokenSource(m2mConfig(server.URL), server.Client(), nil, logger.NewNop())

	_, err := source.Token(context.Background())
	require.NoError(t, err)
	_, err = source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestM2MTokenSourceSharesRedisCache(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer cleanupTestRedis(mr, client)

	var calls int32
	token := signHS256(t, jwt.MapClaims{"sub": "booking-service", "exp": time.Now().Add(10 * time.Minute).Unix()})
	server := newKeycloakStub(t, token, &calls)
	defer server.Close()

	first := NewM2MTokenSource(m2mConfig(server.URL), server.Client(), NewRedisTokenCache(client), logger.NewNop())
	second := NewM2MTokenSource(m2mConfig(server.URL), server.Client(), NewRedisTokenCache(client), logger.NewNop())

	_, err := first.Token(context.Background())
	require.NoError(t, err)
	got, err := second.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, token, got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.True(t, mr.Exists(M2MTokenKey))
	assert.Greater(t, mr.TTL(M2MTokenKey), 5*time.Minute)
}

func TestM2MTokenSourceFallsBackToExpiresIn(t *testing.T) {
	var calls int32
	server := newKeycloakStub(t, "opaque-token", &calls)
	defer server.Close()

	cache := NewMemoryTokenCache()
	source := NewM2MTokenSource(m2mConfig(server.URL), server.Client(), cache, logger.NewNop())

	got, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", got)

	cached, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(300*time.Second), cached.ExpiresAt, 5*time.Second)
}

func TestM2MTokenSourceRejectedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized_client"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	source := NewM2MTokenSource(m2mConfig(server.URL), server.Client(), nil, logger.NewNop())
	_, err := source.Token(context.Background())
	assert.Error(t, err)
}
