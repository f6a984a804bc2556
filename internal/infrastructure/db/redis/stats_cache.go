package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minicrm/crm-api/internal/core/domain"
	"github.com/minicrm/crm-api/internal/core/ports"
)

const (
	defaultStatsTTL = 5 * time.Minute
	versionKey      = "crm:lead_stats:generation"
	keyPrefix       = "crm:lead_stats:v"
)

// LeadStatsCache stores lead stats per scope under a generation number.
// Invalidate bumps the generation, so every scope goes stale at once and old
// entries simply expire.
// Key format: crm:lead_stats:v<generation>:<scope>
type LeadStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.LeadStatsCache = (*LeadStatsCache)(nil)

// NewLeadStatsCache wraps client. A non-positive ttl uses the default.
func NewLeadStatsCache(client *redis.Client, ttl time.Duration) *LeadStatsCache {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &LeadStatsCache{client: client, ttl: ttl}
}

// Get returns the stats cached for scope, nil on a miss. The returned token is
// the key of the generation that was read and stays valid for Set even if
// Invalidate runs in between.
func (c *LeadStatsCache) Get(ctx context.Context, scope string) (*domain.LeadStats, string, error) {
	key, err := c.key(ctx, scope)
	if err != nil {
		return nil, "", err
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, key, nil
	}
	if err != nil {
		return nil, key, fmt.Errorf("stats cache get: %w", err)
	}

	var stats domain.LeadStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, key, fmt.Errorf("stats cache decode: %w", err)
	}
	return &stats, key, nil
}

// Set stores stats under a token returned by Get. A token from a generation
// that has since been invalidated writes an entry nobody reads again.
func (c *LeadStatsCache) Set(ctx context.Context, token string, stats *domain.LeadStats) error {
	if !strings.HasPrefix(token, keyPrefix) {
		return fmt.Errorf("stats cache set: invalid token %q", token)
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("stats cache encode: %w", err)
	}
	if err := c.client.Set(ctx, token, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("stats cache set: %w", err)
	}
	return nil
}

func (c *LeadStatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		return fmt.Errorf("stats cache invalidate: %w", err)
	}
	return nil
}

func (c *LeadStatsCache) key(ctx context.Context, scope string) (string, error) {
	gen, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		gen = 0
	} else if err != nil {
		return "", fmt.Errorf("stats cache version: %w", err)
	}
	return keyPrefix + strconv.FormatInt(gen, 10) + ":" + scope, nil
}
