package router

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
)

func TestDecodeGeometry_EncodedAndGeoJSONAgree(t *testing.T) {
	encoded, err := DecodeGeometry(json.RawMessage(`"_p~iF~ps|U_ulLnnqC"`))
	if err != nil {
		t.Fatalf("encoded: %v", err)
	}
	geo, err := DecodeGeometry(json.RawMessage(`{"type":"LineString","coordinates":[[-120.2,38.5],[-120.95,40.7]]}`))
	if err != nil {
		t.Fatalf("geojson: %v", err)
	}

	if len(encoded) != len(geo) {
		t.Fatalf("length mismatch: %d vs %d", len(encoded), len(geo))
	}
	for i := range encoded {
		if math.Abs(encoded[i].Lat-geo[i].Lat) > 1e-5 || math.Abs(encoded[i].Lon-geo[i].Lon) > 1e-5 {
			t.Errorf("point %d: %+v vs %+v", i, encoded[i], geo[i])
		}
	}
}

func TestDecodeGeometry_SwapsGeoJSONOrder(t *testing.T) {
	got, err := DecodeGeometry(json.RawMessage(`{"coordinates":[[106.74,10.98],[106.7,10.8]]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Lat != 10.98 || got[0].Lon != 106.74 {
		t.Errorf("expected (10.98,106.74), got %+v", got[0])
	}
}

func TestDecodeGeometry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing", ``},
		{"null", `null`},
		{"number", `42`},
		{"object without coordinates", `{"type":"LineString"}`},
		{"short position", `{"coordinates":[[106.74]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeGeometry(json.RawMessage(tt.raw))
			if !errors.Is(err, domain.ErrInvalidGeometry) {
				t.Errorf("expected ErrInvalidGeometry, got %v", err)
			}
		})
	}
}

func TestDecodeGeometry_TruncatedPolyline(t *testing.T) {
	_, err := DecodeGeometry(json.RawMessage(`"_p~iF~ps|"`))
	var de *domain.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestFirstRoute(t *testing.T) {
	t.Run("no routes", func(t *testing.T) {
		_, err := FirstRoute("p", &RoutesResponse{})
		if !errors.Is(err, domain.ErrNoRoute) {
			t.Errorf("expected ErrNoRoute, got %v", err)
		}
	})

	t.Run("single point geometry", func(t *testing.T) {
		_, err := FirstRoute("p", &RoutesResponse{Routes: []RouteDoc{
			{Geometry: json.RawMessage(`{"coordinates":[[106.74,10.98]]}`), Duration: 1, Distance: 1},
		}})
		if !errors.Is(err, domain.ErrInvalidGeometry) {
			t.Errorf("expected ErrInvalidGeometry, got %v", err)
		}
	})

	t.Run("first route wins", func(t *testing.T) {
		got, err := FirstRoute("p", &RoutesResponse{Routes: []RouteDoc{
			{Geometry: json.RawMessage(`{"coordinates":[[106.74,10.98],[106.7,10.8]]}`), Duration: 600, Distance: 5000},
			{Geometry: json.RawMessage(`{"coordinates":[[0,0],[1,1]]}`), Duration: 1, Distance: 1},
		}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.DurationSeconds != 600 || got.DistanceMeters != 5000 || got.Provider != "p" {
			t.Errorf("unexpected result %+v", got)
		}
	})
}

func TestPathCoordinates(t *testing.T) {
	got := PathCoordinates(domain.Coordinate{Lat: 10.98, Lon: 106.74}, domain.Coordinate{Lat: 10.8, Lon: 106.7})
	if got != "106.74,10.98;106.7,10.8" {
		t.Errorf("unexpected path %q", got)
	}
}
