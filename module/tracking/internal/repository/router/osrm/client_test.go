package osrm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
)

func TestRoute_GeoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/route/v1/driving/106.74,10.98;106.7,10.8" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("overview") != "full" || q.Get("geometries") != "geojson" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Has("key") {
			t.Error("osrm request must not carry an api key")
		}
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"geometry":{"type":"LineString","coordinates":[[106.74,10.98],[106.72,10.9],[106.7,10.8]]},"duration":600,"distance":5000}]}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.Client(), srv.URL).Route(context.Background(),
		domain.Coordinate{Lat: 10.98, Lon: 106.74}, domain.Coordinate{Lat: 10.8, Lon: 106.7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Coordinates) != 3 {
		t.Fatalf("expected 3 coordinates, got %d", len(got.Coordinates))
	}
	if got.Coordinates[1].Lat != 10.9 || got.Coordinates[1].Lon != 106.72 {
		t.Errorf("expected swapped (10.9,106.72), got %+v", got.Coordinates[1])
	}
	if got.DurationSeconds != 600 || got.DistanceMeters != 5000 {
		t.Errorf("unexpected duration/distance %+v", got)
	}
}

func TestRoute_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"bad gateway", http.StatusBadGateway, `upstream`, func(err error) bool {
			var se *domain.StatusError
			return errors.As(err, &se) && se.StatusCode == http.StatusBadGateway
		}},
		{"no routes", http.StatusOK, `{"code":"NoRoute","routes":[]}`, func(err error) bool {
			return errors.Is(err, domain.ErrNoRoute)
		}},
		{"missing geometry", http.StatusOK, `{"routes":[{"duration":1,"distance":1}]}`, func(err error) bool {
			return errors.Is(err, domain.ErrInvalidGeometry)
		}},
		{"not json", http.StatusOK, `<html>`, func(err error) bool { return err != nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.Client(), srv.URL).Route(context.Background(),
				domain.Coordinate{Lat: 1, Lon: 2}, domain.Coordinate{Lat: 3, Lon: 4})
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}
