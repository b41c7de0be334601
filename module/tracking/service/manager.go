package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
	"github.com/nandanugg/courier-tracking/module/tracking/metrics"
)

const sideEffectTimeout = 5 * time.Second

// Canceler ends a feed subscription. Cancel must be idempotent.
type Canceler interface {
	Cancel()
}

type LocationFeed interface {
	Subscribe(key string, fn func(domain.LocationUpdate)) (Canceler, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, event *domain.TrackingEvent) error
}

type locationSaver interface {
	SaveLocation(ctx context.Context, cl *domain.CourierLocation) error
}

type trackedOrder struct {
	session *Session
	sub     Canceler
}

// SessionManager hosts one Session per open order and connects it to the
// courier feed, the location history and the event bus.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*trackedOrder
	opening  map[string]struct{}
	closed   bool

	feed      LocationFeed
	router    routeFinder
	history   locationSaver
	publisher eventPublisher
	newID     func() string
	log       zerolog.Logger
}

// NewSessionManager wires the collaborators. history and publisher may be nil.
func NewSessionManager(feed LocationFeed, router routeFinder, history locationSaver, publisher eventPublisher, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*trackedOrder),
		opening:   make(map[string]struct{}),
		feed:      feed,
		router:    router,
		history:   history,
		publisher: publisher,
		newID:     uuid.NewString,
		log:       log,
	}
}

// Open starts tracking an order towards the customer's location. The order
// id is reserved while the feed subscription is made, so the manager lock is
// never held across broker I/O.
func (m *SessionManager) Open(orderID string, customer domain.Coordinate) (domain.TrackingState, error) {
	if err := customer.Validate(); err != nil {
		return domain.TrackingState{}, err
	}
	if err := m.reserve(orderID); err != nil {
		return domain.TrackingState{}, err
	}

	session := NewSession(orderID, customer, m.router, &eventObserver{m: m}, m.log)
	sub, err := m.feed.Subscribe(orderID, m.onUpdate(orderID, session))
	if err != nil {
		m.release(orderID)
		session.Close()
		return domain.TrackingState{}, fmt.Errorf("subscribe courier feed: %w", err)
	}

	m.mu.Lock()
	delete(m.opening, orderID)
	if m.closed {
		m.mu.Unlock()
		sub.Cancel()
		session.Close()
		return domain.TrackingState{}, domain.ErrSessionClosed
	}
	m.sessions[orderID] = &trackedOrder{session: session, sub: sub}
	metrics.SessionsActive.Inc()
	m.mu.Unlock()

	m.log.Info().Str("order_id", orderID).Msg("tracking session opened")
	return session.Snapshot(), nil
}

func (m *SessionManager) reserve(orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return domain.ErrSessionClosed
	}
	if _, ok := m.sessions[orderID]; ok {
		return domain.ErrSessionExists
	}
	if _, ok := m.opening[orderID]; ok {
		return domain.ErrSessionExists
	}
	m.opening[orderID] = struct{}{}
	return nil
}

func (m *SessionManager) release(orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.opening, orderID)
}

func (m *SessionManager) Snapshot(orderID string) (domain.TrackingState, error) {
	m.mu.Lock()
	t, ok := m.sessions[orderID]
	m.mu.Unlock()
	if !ok {
		return domain.TrackingState{}, domain.ErrSessionNotFound
	}
	return t.session.Snapshot(), nil
}

// Close unsubscribes the order's feed and tears its session down.
func (m *SessionManager) Close(orderID string) error {
	m.mu.Lock()
	t, ok := m.sessions[orderID]
	if ok {
		delete(m.sessions, orderID)
	}
	m.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}

	m.teardown(orderID, t)
	return nil
}

// CloseAll tears down every session and refuses new ones. Used on shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	m.closed = true
	open := m.sessions
	m.sessions = make(map[string]*trackedOrder)
	m.mu.Unlock()

	for id, t := range open {
		m.teardown(id, t)
	}
}

func (m *SessionManager) teardown(orderID string, t *trackedOrder) {
	t.sub.Cancel()
	t.session.Close()
	metrics.SessionsActive.Dec()
	m.log.Info().Str("order_id", orderID).Msg("tracking session closed")
}

// onUpdate feeds the session first so persistence latency never delays it.
func (m *SessionManager) onUpdate(orderID string, session *Session) func(domain.LocationUpdate) {
	return func(u domain.LocationUpdate) {
		session.Dispatch(LocationReceived{Update: u})

		if u.Kind != domain.KindFix || m.history == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		err := m.history.SaveLocation(ctx, &domain.CourierLocation{
			OrderID:    orderID,
			Coordinate: u.Coordinate,
			ReceivedAt: u.ReceivedAt,
		})
		if err != nil {
			m.log.Warn().Err(err).Str("order_id", orderID).Msg("failed to save courier location")
		}
	}
}

type eventObserver struct {
	m *SessionManager
}

func (o *eventObserver) FitViewport(ctx context.Context, orderID string, fit domain.ViewportFit) {
	o.m.publish(ctx, &domain.TrackingEvent{
		OrderID:  orderID,
		Type:     domain.EventViewportFit,
		Viewport: &fit,
	})
}

func (o *eventObserver) StatusChanged(ctx context.Context, state domain.TrackingState) {
	o.m.publish(ctx, &domain.TrackingEvent{
		OrderID: state.OrderID,
		Type:    domain.EventStatusChanged,
		Status:  state.Status,
	})
}

func (m *SessionManager) publish(ctx context.Context, event *domain.TrackingEvent) {
	if m.publisher == nil {
		return
	}
	event.ID = m.newID()
	event.Timestamp = time.Now().Unix()

	ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
	defer cancel()
	if err := m.publisher.Publish(ctx, event); err != nil {
		metrics.EventPublishFailuresTotal.Inc()
		m.log.Warn().Err(err).
			Str("order_id", event.OrderID).
			Str("event", string(event.Type)).
			Msg("failed to publish tracking event")
	}
}
