package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
)

const (
	googlePlacesBaseURL = "https://maps.googleapis.com/maps/api/place"
	defaultHTTPTimeout  = 10 * time.Second
	detailsFields       = "place_id,name,formatted_address,address_components,geometry,rating,user_ratings_total,types,photos,formatted_phone_number,website,opening_hours,business_status"
)

// GooglePlacesProvider implements PlacesProvider using the Places web service.
type GooglePlacesProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGooglePlacesProvider creates a new Google Places provider.
func NewGooglePlacesProvider(apiKey string) providers.PlacesProvider {
	return NewGooglePlacesProviderWithOptions(apiKey, googlePlacesBaseURL, nil)
}

// NewGooglePlacesProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGooglePlacesProviderWithOptions(apiKey, baseURL string, httpClient *http.Client) providers.PlacesProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googlePlacesBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GooglePlacesProvider{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Configured reports whether an API key is set.
func (g *GooglePlacesProvider) Configured() bool {
	return g.apiKey != ""
}

// NearbySearch runs a nearby search.
func (g *GooglePlacesProvider) NearbySearch(ctx context.Context, req providers.NearbySearchRequest) (*providers.PlacesResponse, error) {
	params := url.Values{}
	params.Set("location", formatLatLng(req.Location))
	params.Set("radius", strconv.Itoa(req.RadiusMeters))
	if req.Type != "" {
		params.Set("type", req.Type)
	}
	if req.Keyword != "" {
		params.Set("keyword", req.Keyword)
	}
	return g.search(ctx, "/nearbysearch/json", params)
}

// TextSearch runs a text search.
func (g *GooglePlacesProvider) TextSearch(ctx context.Context, req providers.TextSearchRequest) (*providers.PlacesResponse, error) {
	return g.search(ctx, "/textsearch/json", textSearchParams(req))
}

// RawTextSearch returns the text search body without interpreting its status.
func (g *GooglePlacesProvider) RawTextSearch(ctx context.Context, req providers.TextSearchRequest) (json.RawMessage, error) {
	body, err := g.do(ctx, "/textsearch/json", textSearchParams(req))
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("places text search returned invalid JSON")
	}
	return json.RawMessage(body), nil
}

// Details fetches a place by id. It returns nil when the id is unknown.
func (g *GooglePlacesProvider) Details(ctx context.Context, placeID string) (*providers.PlaceDetails, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, fmt.Errorf("place id is required")
	}
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailsFields)

	body, err := g.do(ctx, "/details/json", params)
	if err != nil {
		return nil, err
	}

	var payload googleDetailsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode place details response: %w", err)
	}
	switch payload.Status {
	case providers.PlacesStatusOK:
		return payload.Result, nil
	case "NOT_FOUND", providers.PlacesStatusZeroResults:
		return nil, nil
	}
	return nil, statusError("place details", payload.Status, payload.ErrorMessage)
}

// Photo streams the image behind a photo reference. The API key stays on
// this side of the request; callers only ever see the bytes.
func (g *GooglePlacesProvider) Photo(ctx context.Context, reference string, maxWidth int) (*providers.PhotoContent, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, fmt.Errorf("photo reference is required")
	}
	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(maxWidth))
	params.Set("photo_reference", reference)

	resp, err := g.open(ctx, "/photo", params)
	if err != nil {
		return nil, err
	}
	return &providers.PhotoContent{
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}

func (g *GooglePlacesProvider) search(ctx context.Context, path string, params url.Values) (*providers.PlacesResponse, error) {
	body, err := g.do(ctx, path, params)
	if err != nil {
		return nil, err
	}

	var payload providers.PlacesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode places response: %w", err)
	}
	if payload.Status != providers.PlacesStatusOK && payload.Status != providers.PlacesStatusZeroResults {
		return nil, statusError("places search", payload.Status, payload.ErrorMessage)
	}
	return &payload, nil
}

func (g *GooglePlacesProvider) do(ctx context.Context, path string, params url.Values) ([]byte, error) {
	resp, err := g.open(ctx, path, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read places response: %w", err)
	}
	return body, nil
}

// open sends a keyed GET and returns the response with its body unread.
// Errors never include the request URL.
func (g *GooglePlacesProvider) open(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google places api key is required")
	}
	params.Set("key", g.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", g.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build places request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("places request to %s failed: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("places request to %s returned status %d", path, resp.StatusCode)
	}
	return resp, nil
}

func textSearchParams(req providers.TextSearchRequest) url.Values {
	params := url.Values{}
	params.Set("query", req.Query)
	if req.Location != nil {
		params.Set("location", formatLatLng(*req.Location))
		if req.RadiusMeters > 0 {
			params.Set("radius", strconv.Itoa(req.RadiusMeters))
		}
	}
	if req.Type != "" {
		params.Set("type", req.Type)
	}
	return params
}

func formatLatLng(p providers.LatLng) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

func statusError(op, status, message string) error {
	return &providers.StatusError{Op: op, Status: status, Message: message}
}

type googleDetailsResponse struct {
	Status       string                  `json:"status"`
	ErrorMessage string                  `json:"error_message,omitempty"`
	Result       *providers.PlaceDetails `json:"result,omitempty"`
}
