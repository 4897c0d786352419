package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
)

const (
	nominatimBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent   = "BreadFindr/1.0 (https://breadfindr.com)"
	defaultHTTPTimeout = 10 * time.Second
)

// NominatimProvider implements GeocodingProvider against the OpenStreetMap
// Nominatim API. Nominatim rejects anonymous clients, so every request
// carries a User-Agent.
type NominatimProvider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewNominatimProvider creates a provider for the public Nominatim instance.
func NewNominatimProvider(userAgent string) providers.GeocodingProvider {
	return NewNominatimProviderWithOptions(nominatimBaseURL, userAgent, nil)
}

// NewNominatimProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewNominatimProviderWithOptions(baseURL, userAgent string, httpClient *http.Client) providers.GeocodingProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = nominatimBaseURL
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &NominatimProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// Search runs a forward lookup limited to one result.
func (p *NominatimProvider) Search(ctx context.Context, query, countryCodes string) ([]providers.GeocodeMatch, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, fmt.Errorf("query is required")
	}

	params := url.Values{}
	params.Set("q", trimmed)
	params.Set("format", "json")
	params.Set("limit", "1")
	if countryCodes != "" {
		params.Set("countrycodes", countryCodes)
	}

	var payload []nominatimSearchResult
	if err := p.get(ctx, "/search", params, &payload); err != nil {
		return nil, err
	}

	matches := make([]providers.GeocodeMatch, 0, len(payload))
	for _, r := range payload {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude %q in geocode response", r.Lat)
		}
		lng, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude %q in geocode response", r.Lon)
		}
		matches = append(matches, providers.GeocodeMatch{Lat: lat, Lng: lng, DisplayName: r.DisplayName})
	}
	return matches, nil
}

// Reverse returns the address around a point, or nil when Nominatim has
// nothing there.
func (p *NominatimProvider) Reverse(ctx context.Context, lat, lng float64) (*providers.ReverseAddress, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "json")

	var payload nominatimReverseResult
	if err := p.get(ctx, "/reverse", params, &payload); err != nil {
		return nil, err
	}
	if payload.Error != "" || payload.Address == nil {
		return nil, nil
	}

	return &providers.ReverseAddress{
		City:    payload.Address.City,
		Town:    payload.Address.Town,
		Village: payload.Address.Village,
		County:  payload.Address.County,
		State:   payload.Address.State,
	}, nil
}

func (p *NominatimProvider) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := fmt.Sprintf("%s%s?%s", p.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode geocode response: %w", err)
	}
	return nil
}

type nominatimSearchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type nominatimReverseResult struct {
	Error   string            `json:"error,omitempty"`
	Address *nominatimAddress `json:"address,omitempty"`
}

type nominatimAddress struct {
	City    string `json:"city,omitempty"`
	Town    string `json:"town,omitempty"`
	Village string `json:"village,omitempty"`
	County  string `json:"county,omitempty"`
	State   string `json:"state,omitempty"`
}
