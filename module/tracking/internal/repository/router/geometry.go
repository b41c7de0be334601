package router

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
	"github.com/nandanugg/courier-tracking/module/tracking/polyline"
)

// RoutesResponse is the envelope shared by the OSRM-compatible providers.
type RoutesResponse struct {
	Code    string     `json:"code,omitempty"`
	Message string     `json:"message,omitempty"`
	Routes  []RouteDoc `json:"routes"`
}

type RouteDoc struct {
	Geometry json.RawMessage `json:"geometry"`
	Duration float64         `json:"duration"`
	Distance float64         `json:"distance"`
}

type geoJSONLine struct {
	Coordinates [][]float64 `json:"coordinates"`
}

// DecodeGeometry accepts either an encoded polyline string or a GeoJSON
// LineString whose positions are [lon, lat].
func DecodeGeometry(raw json.RawMessage) ([]domain.Coordinate, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: missing", domain.ErrInvalidGeometry)
	}

	switch raw[0] {
	case '"':
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidGeometry, err)
		}
		return polyline.Decode(encoded)
	case '{':
		var line geoJSONLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidGeometry, err)
		}
		if line.Coordinates == nil {
			return nil, fmt.Errorf("%w: no coordinates", domain.ErrInvalidGeometry)
		}
		coords := make([]domain.Coordinate, 0, len(line.Coordinates))
		for i, pos := range line.Coordinates {
			if len(pos) < 2 {
				return nil, fmt.Errorf("%w: position %d has %d values", domain.ErrInvalidGeometry, i, len(pos))
			}
			coords = append(coords, domain.Coordinate{Lat: pos[1], Lon: pos[0]})
		}
		return coords, nil
	default:
		return nil, fmt.Errorf("%w: unsupported geometry", domain.ErrInvalidGeometry)
	}
}

// FirstRoute decodes the first route of a provider response.
func FirstRoute(provider string, resp *RoutesResponse) (*domain.RouteResult, error) {
	if len(resp.Routes) == 0 {
		return nil, fmt.Errorf("%s: %w", provider, domain.ErrNoRoute)
	}

	doc := resp.Routes[0]
	coords, err := DecodeGeometry(doc.Geometry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", provider, err)
	}

	result := &domain.RouteResult{
		Coordinates:     coords,
		DurationSeconds: doc.Duration,
		DistanceMeters:  doc.Distance,
		Provider:        provider,
	}
	if err := CheckRoute(provider, result); err != nil {
		return nil, err
	}
	return result, nil
}
