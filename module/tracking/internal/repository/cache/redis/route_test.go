package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
)

func TestRouteKey(t *testing.T) {
	dest := domain.Coordinate{Lat: 10.8, Lon: 106.7}
	tests := []struct {
		name   string
		a, b   domain.Coordinate
		sameAs bool
	}{
		{
			name:   "sub-metre jitter shares a key",
			a:      domain.Coordinate{Lat: 10.980001, Lon: 106.740001},
			b:      domain.Coordinate{Lat: 10.980002, Lon: 106.740002},
			sameAs: true,
		},
		{
			name:   "distinct positions get distinct keys",
			a:      domain.Coordinate{Lat: 10.98, Lon: 106.74},
			b:      domain.Coordinate{Lat: 10.95, Lon: 106.73},
			sameAs: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka, kb := routeKey(tt.a, dest), routeKey(tt.b, dest)
			if (ka == kb) != tt.sameAs {
				t.Errorf("keys %q and %q: expected same=%v", ka, kb, tt.sameAs)
			}
		})
	}

	if got := routeKey(domain.Coordinate{Lat: 10.98, Lon: 106.74}, dest); got != "route:10.98000,106.74000:10.80000,106.70000" {
		t.Errorf("unexpected key format %q", got)
	}
}

func TestRouteCache_DefaultTTL(t *testing.T) {
	c := NewRouteCache(nil, 0)
	if c.ttl != DefaultRouteTTL {
		t.Errorf("expected default ttl, got %v", c.ttl)
	}
}

func TestRouteCache_UnreachableServerIsAnError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = client.Close() }()

	c := NewRouteCache(client, time.Minute)
	origin := domain.Coordinate{Lat: 10.98, Lon: 106.74}
	dest := domain.Coordinate{Lat: 10.8, Lon: 106.7}

	route, ok, err := c.Get(context.Background(), origin, dest)
	if err == nil || ok || route != nil {
		t.Fatalf("expected error and miss, got route=%v ok=%v err=%v", route, ok, err)
	}
	if err := c.Set(context.Background(), origin, dest, &domain.RouteResult{}); err == nil {
		t.Fatal("expected error on set")
	}
}

func newTestCache(t *testing.T, ttl time.Duration) (*RouteCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:            srv.Addr(),
		Protocol:        2,
		DisableIdentity: true,
	})
	t.Cleanup(func() { _ = client.Close() })
	return NewRouteCache(client, ttl), srv
}

func TestRouteCache_MissThenHit(t *testing.T) {
	c, srv := newTestCache(t, time.Minute)
	ctx := context.Background()
	origin := domain.Coordinate{Lat: 10.98, Lon: 106.74}
	dest := domain.Coordinate{Lat: 10.8, Lon: 106.7}

	route, ok, err := c.Get(ctx, origin, dest)
	if err != nil || ok || route != nil {
		t.Fatalf("expected clean miss, got route=%v ok=%v err=%v", route, ok, err)
	}

	want := &domain.RouteResult{
		Coordinates:     []domain.Coordinate{origin, dest},
		DurationSeconds: 600,
		DistanceMeters:  5000,
		Provider:        "osrm",
	}
	if err := c.Set(ctx, origin, dest, want); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	if ttl := srv.TTL(routeKey(origin, dest)); ttl != time.Minute {
		t.Errorf("expected ttl %v, got %v", time.Minute, ttl)
	}

	// jitter below the key precision still hits
	jittered := domain.Coordinate{Lat: 10.980001, Lon: 106.740001}
	got, ok, err := c.Get(ctx, jittered, dest)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.DurationSeconds != 600 || got.DistanceMeters != 5000 || got.Provider != "osrm" {
		t.Errorf("unexpected cached route %+v", got)
	}
	if len(got.Coordinates) != 2 || got.Coordinates[0] != origin || got.Coordinates[1] != dest {
		t.Errorf("unexpected cached coordinates %+v", got.Coordinates)
	}

	srv.FastForward(time.Minute + time.Second)
	if _, ok, err := c.Get(ctx, origin, dest); err != nil || ok {
		t.Errorf("expected miss after expiry, got ok=%v err=%v", ok, err)
	}
}

func TestRouteCache_CorruptEntryIsAnError(t *testing.T) {
	c, srv := newTestCache(t, time.Minute)
	origin := domain.Coordinate{Lat: 10.98, Lon: 106.74}
	dest := domain.Coordinate{Lat: 10.8, Lon: 106.7}

	if err := srv.Set(routeKey(origin, dest), "not json"); err != nil {
		t.Fatal(err)
	}
	route, ok, err := c.Get(context.Background(), origin, dest)
	if err == nil || ok || route != nil {
		t.Fatalf("expected decode error, got route=%v ok=%v err=%v", route, ok, err)
	}
}
