package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/config"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const clientSuggestionsKeyPrefix = "efficiency:clients"

// ClientSuggestionsCache memoizes client name lookups. Computed metrics are
// never cached; only this catalog-like lookup is.
type ClientSuggestionsCache interface {
	GetSuggestions(ctx context.Context, search string, limit int) ([]domain.ClientSuggestion, bool, error)
	SetSuggestions(ctx context.Context, search string, limit int, suggestions []domain.ClientSuggestion) error
	InvalidateAll(ctx context.Context) error
}

type redisClientSuggestionsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopClientSuggestionsCache struct{}

func NewClientSuggestionsCache(cfg config.CacheConfig) (ClientSuggestionsCache, error) {
	if !cfg.Enabled {
		return &noopClientSuggestionsCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisClientSuggestionsCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopClientSuggestionsCache() ClientSuggestionsCache {
	return &noopClientSuggestionsCache{}
}

func (c *redisClientSuggestionsCache) GetSuggestions(ctx context.Context, search string, limit int) ([]domain.ClientSuggestion, bool, error) {
	key := buildClientSuggestionsKey(search, limit)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var suggestions []domain.ClientSuggestion
	if err := json.Unmarshal(payload, &suggestions); err != nil {
		return nil, false, fmt.Errorf("decode client suggestions cache: %w", err)
	}

	return suggestions, true, nil
}

func (c *redisClientSuggestionsCache) SetSuggestions(ctx context.Context, search string, limit int, suggestions []domain.ClientSuggestion) error {
	key := buildClientSuggestionsKey(search, limit)
	payload, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("encode client suggestions cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisClientSuggestionsCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, clientSuggestionsKeyPrefix, scanBatchSize)
}

func (n *noopClientSuggestionsCache) GetSuggestions(ctx context.Context, search string, limit int) ([]domain.ClientSuggestion, bool, error) {
	return nil, false, nil
}

func (n *noopClientSuggestionsCache) SetSuggestions(ctx context.Context, search string, limit int, suggestions []domain.ClientSuggestion) error {
	return nil
}

func (n *noopClientSuggestionsCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildClientSuggestionsKey(search string, limit int) string {
	raw := fmt.Sprintf("q=%s|limit=%d", strings.ToLower(strings.TrimSpace(search)), limit)
	hash := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", clientSuggestionsKeyPrefix, hex.EncodeToString(hash[:]))
}
