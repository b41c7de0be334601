package router

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
)

// Provider fetches a driving route between two points from one routing service.
type Provider interface {
	Name() string
	Route(ctx context.Context, origin, destination domain.Coordinate) (*domain.RouteResult, error)
}

const maxErrorBody = 512

// PathCoordinates formats the "lon,lat;lon,lat" path segment both providers expect.
func PathCoordinates(origin, destination domain.Coordinate) string {
	return formatLonLat(origin) + ";" + formatLonLat(destination)
}

func formatLonLat(c domain.Coordinate) string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

// Get performs the request and returns the response for a 2xx status. Every
// other outcome is mapped to *domain.TransportError or *domain.StatusError.
func Get(ctx context.Context, client *http.Client, provider, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", provider, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Provider: provider, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		text := string(body)
		if readErr != nil {
			text = fmt.Sprintf("unable to read body: %v", readErr)
		}
		return nil, &domain.StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: text}
	}
	return resp, nil
}

// CheckRoute rejects routes with fewer than two points, negative totals or
// out-of-range coordinates.
func CheckRoute(provider string, r *domain.RouteResult) error {
	if len(r.Coordinates) < 2 {
		return fmt.Errorf("%s: %w: %d coordinates", provider, domain.ErrInvalidGeometry, len(r.Coordinates))
	}
	if r.DurationSeconds < 0 || r.DistanceMeters < 0 {
		return fmt.Errorf("%s: %w: negative duration or distance", provider, domain.ErrInvalidGeometry)
	}
	for _, c := range r.Coordinates {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%s: %w", provider, err)
		}
	}
	return nil
}
