package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
	"github.com/nandanugg/courier-tracking/module/tracking/metrics"
)

type routeFinder interface {
	FindRoute(ctx context.Context, origin, destination domain.Coordinate) (*domain.RouteResult, error)
}

// SessionObserver receives the outputs a map view reacts to.
type SessionObserver interface {
	FitViewport(ctx context.Context, orderID string, fit domain.ViewportFit)
	StatusChanged(ctx context.Context, state domain.TrackingState)
}

// Event is an input to Session.Dispatch.
type Event interface{ isEvent() }

type LocationReceived struct {
	Update domain.LocationUpdate
}

// RouteResolved and RouteFailed carry the token of the computation that
// produced them. Completions with a token that is no longer current are ignored.
type RouteResolved struct {
	Seq   uint64
	Route *domain.RouteResult
}

type RouteFailed struct {
	Seq uint64
	Err error
}

func (LocationReceived) isEvent() {}
func (RouteResolved) isEvent()    {}
func (RouteFailed) isEvent()      {}

type routeRequest struct {
	seq         uint64
	ctx         context.Context
	origin      domain.Coordinate
	destination domain.Coordinate
}

type effects struct {
	route         *routeRequest
	fit           *domain.ViewportFit
	statusChanged bool
}

// Session is the tracking state machine of one order. At most one route
// computation is in flight. Fixes arriving meanwhile only mark the input as
// changed; the result is still committed when it returns, after which one
// new computation starts from the latest fix.
type Session struct {
	mu     sync.Mutex
	state  domain.TrackingState
	active bool
	ctx    context.Context
	cancel context.CancelFunc

	nextSeq   uint64
	inFlight  uint64 // 0 when idle
	reqCancel context.CancelFunc
	reqInput  uint64
	inputSeq  uint64

	router   routeFinder
	observer SessionObserver
	padding  domain.EdgePadding
	now      func() time.Time
	log      zerolog.Logger
}

// NewSession opens a session in SEARCHING state. observer may be nil.
func NewSession(orderID string, customer domain.Coordinate, router routeFinder, observer SessionObserver, log zerolog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		state: domain.TrackingState{
			OrderID:          orderID,
			CustomerLocation: customer,
			Status:           domain.StatusSearching,
			UpdatedAt:        time.Now(),
		},
		active:   true,
		ctx:      ctx,
		cancel:   cancel,
		router:   router,
		observer: observer,
		padding:  domain.DefaultEdgePadding,
		now:      time.Now,
		log:      log.With().Str("order_id", orderID).Logger(),
	}
}

// Dispatch applies ev and returns the resulting snapshot. After Close it
// returns the last snapshot unchanged.
func (s *Session) Dispatch(ev Event) domain.TrackingState {
	s.mu.Lock()
	if !s.active {
		snap := s.state.Clone()
		s.mu.Unlock()
		return snap
	}

	prev := s.state.Status
	var fx effects
	switch e := ev.(type) {
	case LocationReceived:
		fx = s.onLocation(e.Update)
	case RouteResolved:
		fx = s.onRouteResolved(e)
	case RouteFailed:
		fx = s.onRouteFailed(e)
	}
	fx.statusChanged = prev != s.state.Status
	snap := s.state.Clone()
	s.mu.Unlock()

	s.run(fx, snap)
	return snap
}

func (s *Session) Snapshot() domain.TrackingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Close stops the session. An in-flight computation is cancelled and its
// result, should it still arrive, is dropped. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	s.finishRequest()
	s.state.IsRouteLoading = false
	s.cancel()
}

func (s *Session) onLocation(u domain.LocationUpdate) effects {
	s.state.UpdatedAt = s.now()

	if u.Kind != domain.KindFix {
		// the stale route stays on screen
		s.state.CourierLocation = nil
		s.state.Status = domain.StatusSearching
		s.state.IsRouteLoading = false
		s.finishRequest()
		return effects{}
	}

	c := u.Coordinate
	s.state.CourierLocation = &c
	s.state.Status = domain.StatusEnRoute
	s.inputSeq++
	if s.inFlight != 0 {
		return effects{}
	}
	return effects{route: s.beginRoute(c)}
}

func (s *Session) onRouteResolved(e RouteResolved) effects {
	if !s.isCurrent(e.Seq) {
		metrics.StaleRoutesDiscardedTotal.Inc()
		return effects{}
	}
	s.finishRequest()

	s.state.UpdatedAt = s.now()
	s.state.Route = e.Route.Clone()
	s.state.IsRouteLoading = false
	if s.state.Status == domain.StatusRouteUnavailable {
		s.state.Status = domain.StatusEnRoute
	}

	fit := domain.ViewportFit{
		Coordinates: []domain.Coordinate{*s.state.CourierLocation, s.state.CustomerLocation},
		EdgePadding: s.padding,
		Animated:    true,
	}
	return effects{route: s.restartIfInputChanged(), fit: &fit}
}

func (s *Session) onRouteFailed(e RouteFailed) effects {
	if !s.isCurrent(e.Seq) {
		return effects{}
	}
	s.finishRequest()

	if errors.Is(e.Err, domain.ErrRoutingUnavailable) {
		s.log.Warn().Err(e.Err).Msg("route unavailable, tracking continues without route")
	} else {
		s.log.Error().Err(e.Err).Msg("route computation failed")
	}

	route := s.state.Route.Clone()
	if route == nil {
		route = &domain.RouteResult{}
	}
	route.DurationSeconds = 0
	route.DistanceMeters = 0
	route.Provider = ""

	s.state.UpdatedAt = s.now()
	s.state.Route = route
	s.state.IsRouteLoading = false
	s.state.Status = domain.StatusRouteUnavailable
	return effects{route: s.restartIfInputChanged()}
}

func (s *Session) isCurrent(seq uint64) bool {
	return seq != 0 && seq == s.inFlight
}

func (s *Session) beginRoute(origin domain.Coordinate) *routeRequest {
	s.nextSeq++
	s.inFlight = s.nextSeq
	s.reqInput = s.inputSeq

	ctx, cancel := context.WithCancel(s.ctx)
	s.reqCancel = cancel
	s.state.IsRouteLoading = true

	return &routeRequest{
		seq:         s.inFlight,
		ctx:         ctx,
		origin:      origin,
		destination: s.state.CustomerLocation,
	}
}

// restartIfInputChanged starts one fresh computation from the latest fix when
// fixes arrived while the finished one was running. Call it after the
// finished result has been committed.
func (s *Session) restartIfInputChanged() *routeRequest {
	if s.reqInput == s.inputSeq || s.state.CourierLocation == nil {
		return nil
	}
	s.log.Debug().Msg("courier moved during route computation, recomputing")
	return s.beginRoute(*s.state.CourierLocation)
}

func (s *Session) finishRequest() {
	if s.reqCancel != nil {
		s.reqCancel()
		s.reqCancel = nil
	}
	s.inFlight = 0
}

func (s *Session) run(fx effects, snap domain.TrackingState) {
	if fx.route != nil {
		go s.compute(*fx.route)
	}
	if s.observer == nil {
		return
	}
	if fx.fit != nil {
		s.observer.FitViewport(s.ctx, snap.OrderID, *fx.fit)
	}
	if fx.statusChanged {
		s.observer.StatusChanged(s.ctx, snap)
	}
}

func (s *Session) compute(req routeRequest) {
	route, err := s.router.FindRoute(req.ctx, req.origin, req.destination)
	if err == nil && route == nil {
		err = domain.ErrNoRoute
	}
	if err != nil {
		s.Dispatch(RouteFailed{Seq: req.seq, Err: err})
		return
	}
	s.Dispatch(RouteResolved{Seq: req.seq, Route: route})
}
