package registry

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Registry = (*CachedRegistry)(nil)

const (
	clientsKey        = "clients"
	basinsKey         = "basins"
	suggestionsPrefix = "suggestions:"
)

// CachedRegistry keeps registry reads in process memory for a short TTL.
// Writes go straight through; creating a logistic entity drops the cached
// suggestions for its role so the new record is visible immediately.
type CachedRegistry struct {
	next  driven.Registry
	cache *cache.Cache
}

// NewCachedRegistry wraps a registry with a read cache.
func NewCachedRegistry(next driven.Registry, ttl time.Duration) *CachedRegistry {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedRegistry{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func suggestionsKey(role domain.Role, name string) string {
	return suggestionsPrefix + string(role) + ":" + strings.ToLower(strings.TrimSpace(name))
}

func (c *CachedRegistry) Suggestions(ctx context.Context, role domain.Role, name string) ([]domain.Suggestion, error) {
	key := suggestionsKey(role, name)
	if v, ok := c.cache.Get(key); ok {
		return append([]domain.Suggestion(nil), v.([]domain.Suggestion)...), nil
	}

	suggestions, err := c.next.Suggestions(ctx, role, name)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, append([]domain.Suggestion(nil), suggestions...))
	return suggestions, nil
}

func (c *CachedRegistry) ListClients(ctx context.Context) ([]domain.Client, error) {
	if v, ok := c.cache.Get(clientsKey); ok {
		return append([]domain.Client(nil), v.([]domain.Client)...), nil
	}

	clients, err := c.next.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(clientsKey, append([]domain.Client(nil), clients...))
	return clients, nil
}

func (c *CachedRegistry) ListBasins(ctx context.Context) ([]domain.Basin, error) {
	if v, ok := c.cache.Get(basinsKey); ok {
		return append([]domain.Basin(nil), v.([]domain.Basin)...), nil
	}

	basins, err := c.next.ListBasins(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(basinsKey, append([]domain.Basin(nil), basins...))
	return basins, nil
}

func (c *CachedRegistry) CreateLogisticEntity(ctx context.Context, entity domain.NewLogisticEntity) (string, error) {
	id, err := c.next.CreateLogisticEntity(ctx, entity)
	if err != nil {
		return "", err
	}

	prefix := suggestionsPrefix + string(entity.Role) + ":"
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
	return id, nil
}

func (c *CachedRegistry) CreatePickupOrder(ctx context.Context, payload domain.PickupOrderPayload) (*domain.PickupOrder, error) {
	return c.next.CreatePickupOrder(ctx, payload)
}

// Flush drops every cached read.
func (c *CachedRegistry) Flush() {
	c.cache.Flush()
}
