package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
)

const DefaultRouteTTL = 2 * time.Minute

// RouteCache stores resolved routes keyed by origin and destination.
// Key format: route:<lat>,<lon>:<lat>,<lon> with 5 decimals (about a metre),
// so jitter below that resolves to the same entry.
type RouteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRouteCache(client *redis.Client, ttl time.Duration) *RouteCache {
	if ttl <= 0 {
		ttl = DefaultRouteTTL
	}
	return &RouteCache{client: client, ttl: ttl}
}

// Get reports a miss as (nil, false, nil).
func (c *RouteCache) Get(ctx context.Context, origin, destination domain.Coordinate) (*domain.RouteResult, bool, error) {
	raw, err := c.client.Get(ctx, routeKey(origin, destination)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("route cache get: %w", err)
	}

	var route domain.RouteResult
	if err := json.Unmarshal(raw, &route); err != nil {
		return nil, false, fmt.Errorf("route cache decode: %w", err)
	}
	return &route, true, nil
}

func (c *RouteCache) Set(ctx context.Context, origin, destination domain.Coordinate, route *domain.RouteResult) error {
	raw, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("route cache encode: %w", err)
	}
	if err := c.client.Set(ctx, routeKey(origin, destination), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("route cache set: %w", err)
	}
	return nil
}

func routeKey(origin, destination domain.Coordinate) string {
	return fmt.Sprintf("route:%.5f,%.5f:%.5f,%.5f", origin.Lat, origin.Lon, destination.Lat, destination.Lon)
}
