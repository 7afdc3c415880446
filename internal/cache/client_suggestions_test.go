package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/config"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClientSuggestionsKey(t *testing.T) {
	key := buildClientSuggestionsKey("Acme", 10)

	assert.True(t, strings.HasPrefix(key, clientSuggestionsKeyPrefix+":"))
	assert.Equal(t, key, buildClientSuggestionsKey("  acme ", 10))
	assert.NotEqual(t, key, buildClientSuggestionsKey("acme", 20))
	assert.NotEqual(t, key, buildClientSuggestionsKey("beta", 10))
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisPassword: "secret", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://cache.internal:6380/1"})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 1, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "http://not-redis"})
	assert.Error(t, err)
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := NewClientSuggestionsCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.SetSuggestions(ctx, "acme", 10, []domain.ClientSuggestion{{Name: "Acme"}}))

	got, ok, err := c.GetSuggestions(ctx, "acme", 10)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, c.InvalidateAll(ctx))
}
