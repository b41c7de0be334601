package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
	"github.com/nandanugg/courier-tracking/module/tracking/internal/repository/router"
	"github.com/nandanugg/courier-tracking/module/tracking/metrics"
)

const DefaultAttemptTimeout = 8 * time.Second

// RouteCache abstracts the route store (Redis). Implementations must treat a
// miss as (nil, false, nil).
type RouteCache interface {
	Get(ctx context.Context, origin, destination domain.Coordinate) (*domain.RouteResult, bool, error)
	Set(ctx context.Context, origin, destination domain.Coordinate, route *domain.RouteResult) error
}

// RouteService resolves a route by trying the primary provider and, only once
// the primary has failed, the secondary one.
type RouteService struct {
	primary        router.Provider
	secondary      router.Provider
	cache          RouteCache
	attemptTimeout time.Duration
	log            zerolog.Logger
}

// NewRouteService wires the provider pair. cache may be nil.
func NewRouteService(primary, secondary router.Provider, cache RouteCache, attemptTimeout time.Duration, log zerolog.Logger) *RouteService {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	return &RouteService{
		primary:        primary,
		secondary:      secondary,
		cache:          cache,
		attemptTimeout: attemptTimeout,
		log:            log,
	}
}

// FindRoute returns a route between origin and destination. When both
// providers fail the error is a *domain.RoutingUnavailableError.
func (s *RouteService) FindRoute(ctx context.Context, origin, destination domain.Coordinate) (*domain.RouteResult, error) {
	if cached := s.lookup(ctx, origin, destination); cached != nil {
		return cached, nil
	}

	route, primaryErr := s.attempt(ctx, s.primary, origin, destination)
	if primaryErr == nil {
		s.store(ctx, origin, destination, route)
		return route, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.log.Warn().Err(primaryErr).
		Str("provider", s.primary.Name()).
		Str("fallback", s.secondary.Name()).
		Msg("primary routing failed, trying fallback")
	metrics.RoutingFallbacksTotal.Inc()

	route, secondaryErr := s.attempt(ctx, s.secondary, origin, destination)
	if secondaryErr != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		metrics.RoutingUnavailableTotal.Inc()
		s.log.Error().
			AnErr("primary", primaryErr).
			AnErr("secondary", secondaryErr).
			Msg("all routing providers failed")
		return nil, &domain.RoutingUnavailableError{Primary: primaryErr, Secondary: secondaryErr}
	}

	s.store(ctx, origin, destination, route)
	return route, nil
}

func (s *RouteService) attempt(ctx context.Context, p router.Provider, origin, destination domain.Coordinate) (*domain.RouteResult, error) {
	actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	start := time.Now()
	route, err := p.Route(actx, origin, destination)
	metrics.RoutingAttemptDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
	metrics.RoutingAttemptsTotal.WithLabelValues(p.Name(), outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, domain.ErrNoRoute
	}

	s.log.Debug().
		Str("provider", p.Name()).
		Int("points", len(route.Coordinates)).
		Float64("duration_s", route.DurationSeconds).
		Float64("distance_m", route.DistanceMeters).
		Msg("route resolved")
	return route, nil
}

func (s *RouteService) lookup(ctx context.Context, origin, destination domain.Coordinate) *domain.RouteResult {
	if s.cache == nil {
		return nil
	}
	route, ok, err := s.cache.Get(ctx, origin, destination)
	switch {
	case err != nil:
		metrics.RouteCacheTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Msg("route cache lookup failed, querying providers")
		return nil
	case !ok:
		metrics.RouteCacheTotal.WithLabelValues("miss").Inc()
		return nil
	default:
		metrics.RouteCacheTotal.WithLabelValues("hit").Inc()
		return route
	}
}

func (s *RouteService) store(ctx context.Context, origin, destination domain.Coordinate, route *domain.RouteResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, origin, destination, route); err != nil {
		s.log.Warn().Err(err).Msg("failed to cache route")
	}
}

func outcome(err error) string {
	var (
		te *domain.TransportError
		se *domain.StatusError
		de *domain.DecodeError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, domain.ErrNoRoute):
		return "no_route"
	case errors.As(err, &de), errors.Is(err, domain.ErrInvalidGeometry):
		return "geometry"
	default:
		return "error"
	}
}
