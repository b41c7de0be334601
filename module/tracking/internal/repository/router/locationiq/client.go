package locationiq

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
	providerName   = "locationiq"
	DefaultBaseURL = "https://us1.locationiq.com"
)

// Client requests driving directions with encoded polyline geometry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(httpClient *http.Client, baseURL, apiKey string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

func (c *Client) Name() string { return providerName }

func (c *Client) Route(ctx context.Context, origin, destination domain.Coordinate) (*domain.RouteResult, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("overview", "full")
	params.Set("steps", "true")
	params.Set("geometries", "polyline")

	u := fmt.Sprintf("%s/v1/directions/driving/%s?%s",
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
