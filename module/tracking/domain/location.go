package domain

import (
	"fmt"
	"math"
	"time"
)

const earthRadiusMeters = 6371000

type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Validate reports whether c lies within the WGS84 latitude/longitude ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidCoordinate)
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidCoordinate)
	}
	return nil
}

// DistanceTo returns the great-circle distance in meters.
func (c Coordinate) DistanceTo(o Coordinate) float64 {
	dLat := toRad(o.Lat - c.Lat)
	dLon := toRad(o.Lon - c.Lon)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(c.Lat))*math.Cos(toRad(o.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

type UpdateKind int

const (
	KindNone UpdateKind = iota
	KindFix
)

func (k UpdateKind) String() string {
	if k == KindFix {
		return "fix"
	}
	return "none"
}

// LocationUpdate is what the feed emits for every push. Coordinate is only
// meaningful when Kind is KindFix.
type LocationUpdate struct {
	Kind       UpdateKind
	Coordinate Coordinate
	ReceivedAt time.Time
}

func Fix(c Coordinate, at time.Time) LocationUpdate {
	return LocationUpdate{Kind: KindFix, Coordinate: c, ReceivedAt: at}
}

func NoSignal(at time.Time) LocationUpdate {
	return LocationUpdate{Kind: KindNone, ReceivedAt: at}
}

// CourierLocation is a persisted fix for an order's courier.
type CourierLocation struct {
	OrderID    string     `json:"order_id"`
	Coordinate Coordinate `json:"location"`
	ReceivedAt time.Time  `json:"received_at"`
}

type HistoryQuery struct {
	OrderID string
	Start   time.Time
	End     time.Time
}
