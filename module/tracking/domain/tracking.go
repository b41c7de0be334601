package domain

import "time"

type TrackingStatus string

const (
	StatusSearching        TrackingStatus = "SEARCHING"
	StatusEnRoute          TrackingStatus = "EN_ROUTE"
	StatusRouteUnavailable TrackingStatus = "ROUTE_UNAVAILABLE"
)

// TrackingState is an immutable snapshot of a session. Callers get their own
// copy; mutating it has no effect on the session.
type TrackingState struct {
	OrderID          string         `json:"order_id"`
	CourierLocation  *Coordinate    `json:"courier,omitempty"`
	CustomerLocation Coordinate     `json:"customer"`
	Route            *RouteResult   `json:"route,omitempty"`
	Status           TrackingStatus `json:"status"`
	IsRouteLoading   bool           `json:"is_route_loading"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (s TrackingState) Clone() TrackingState {
	out := s
	if s.CourierLocation != nil {
		c := *s.CourierLocation
		out.CourierLocation = &c
	}
	out.Route = s.Route.Clone()
	return out
}

// StraightLineMeters is the haversine distance courier→customer, or 0 when
// there is no courier fix.
func (s TrackingState) StraightLineMeters() float64 {
	if s.CourierLocation == nil {
		return 0
	}
	return s.CourierLocation.DistanceTo(s.CustomerLocation)
}

type TrackingEventType string

const (
	EventViewportFit   TrackingEventType = "viewport_fit"
	EventStatusChanged TrackingEventType = "status_changed"
)

// TrackingEvent is published to downstream map views.
type TrackingEvent struct {
	ID        string            `json:"id"`
	OrderID   string            `json:"order_id"`
	Type      TrackingEventType `json:"type"`
	Status    TrackingStatus    `json:"status,omitempty"`
	Viewport  *ViewportFit      `json:"viewport,omitempty"`
	Timestamp int64             `json:"timestamp"`
}
