package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/observability"
)

const enrichRadiusMeters = 5000

// EnrichRequest identifies a known bread source to look up.
type EnrichRequest struct {
	Name        string
	Coordinates *entities.Coordinates
	Address     string
}

// EnrichmentResult is the best provider match for an EnrichRequest.
type EnrichmentResult struct {
	Found            bool              `json:"found"`
	PlaceID          string            `json:"place_id,omitempty"`
	Name             string            `json:"name,omitempty"`
	FormattedAddress string            `json:"formatted_address,omitempty"`
	Rating           float64           `json:"rating,omitempty"`
	UserRatingsTotal int               `json:"user_ratings_total,omitempty"`
	PhotoReference   string            `json:"photo_reference,omitempty"`
	PhotoURL         string            `json:"photo_url,omitempty"`
	Location         *providers.LatLng `json:"location,omitempty"`
	Err              error             `json:"-"`
}

// Enrich finds the single best provider match for a name, optionally
// biased by coordinates and an address.
func (s *DiscoveryService) Enrich(ctx context.Context, req EnrichRequest) (EnrichmentResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return EnrichmentResult{}, fmt.Errorf("name is required")
	}
	if !s.Configured() {
		return EnrichmentResult{}, fmt.Errorf("places provider not configured")
	}

	ctx, span := observability.StartSpan(ctx, "discovery.enrich")
	defer span.End()

	search := providers.TextSearchRequest{Query: name}
	if addr := strings.TrimSpace(req.Address); addr != "" {
		search.Query = name + " " + addr
	}
	if req.Coordinates.Valid() {
		search.Location = &providers.LatLng{Lat: req.Coordinates.Lat, Lng: req.Coordinates.Lng}
		search.RadiusMeters = enrichRadiusMeters
		search.Type = discoveryPlaceType
	} else {
		search.Query += " bakery"
	}

	start := time.Now()
	resp, err := s.places.TextSearch(ctx, search)
	observability.RecordProviderCall(ctx, s.metrics, "google_places", "find", err, time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		observability.ComponentLogger(ctx, "discovery").Warn().Err(err).Str("name", name).Msg("enrichment lookup failed")
		// Non-OK statuses read as no match.
		var statusErr *providers.StatusError
		if errors.As(err, &statusErr) {
			return EnrichmentResult{Found: false}, nil
		}
		return EnrichmentResult{}, err
	}
	if resp == nil || len(resp.Results) == 0 {
		return EnrichmentResult{Found: false}, nil
	}

	best := resp.Results[0]
	result := EnrichmentResult{
		Found:            true,
		PlaceID:          best.PlaceID,
		Name:             best.Name,
		FormattedAddress: best.FormattedAddress,
		Rating:           best.Rating,
		UserRatingsTotal: best.UserRatingsTotal,
		PhotoReference:   best.PhotoReference(),
	}
	if result.PhotoReference != "" {
		result.PhotoURL = s.photoLink(result.PhotoReference, photoMaxWidth)
	}
	loc := best.Geometry.Location
	result.Location = &loc
	return result, nil
}

// BatchEnrich runs Enrich over reqs a window at a time, pausing between
// windows. Results line up with reqs; failed items carry Err.
func (s *DiscoveryService) BatchEnrich(ctx context.Context, reqs []EnrichRequest) []EnrichmentResult {
	results := make([]EnrichmentResult, len(reqs))
	logger := observability.ComponentLogger(ctx, "discovery")

	for start := 0; start < len(reqs); start += s.enrichWindow {
		end := min(start+s.enrichWindow, len(reqs))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				res, err := s.Enrich(ctx, reqs[i])
				if err != nil {
					res = EnrichmentResult{Err: err}
				}
				results[i] = res
				return nil
			})
		}
		_ = g.Wait()

		if end == len(reqs) || s.enrichDelay <= 0 {
			continue
		}
		timer := time.NewTimer(s.enrichDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			for i := end; i < len(reqs); i++ {
				results[i] = EnrichmentResult{Err: ctx.Err()}
			}
			logger.Warn().Err(ctx.Err()).Int("skipped", len(reqs)-end).Msg("batch enrichment cancelled")
			return results
		case <-timer.C:
		}
	}
	return results
}
