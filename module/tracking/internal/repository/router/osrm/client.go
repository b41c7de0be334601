package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
	"github.com/nandanugg/courier-tracking/module/tracking/internal/repository/router"
)

var _ router.Provider = (*Client)(nil)

const (
	providerName   = "osrm"
	DefaultBaseURL = "https://router.project-osrm.org"
)

// Client talks to an OSRM route service and asks for GeoJSON geometry.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Client) Name() string { return providerName }

func (c *Client) Route(ctx context.Context, origin, destination domain.Coordinate) (*domain.RouteResult, error) {
	params := url.Values{}
	params.Set("overview", "full")
	params.Set("geometries", "geojson")

	u := fmt.Sprintf("%s/route/v1/driving/%s?%s",
		c.baseURL, router.PathCoordinates(origin, destination), params.Encode())

	resp, err := router.Get(ctx, c.httpClient, providerName, u)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var body router.RoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", providerName, err)
	}
	return router.FirstRoute(providerName, &body)
}
