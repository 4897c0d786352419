package services

import (
	"context"
	"errors"
	"strings"

	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/internal/domain/repositories"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/breadfindr/backend/pkg/errors"
)

var errNoStore = errors.New("no database configured")

// FallbackSource supplies the bundled listings used when the store cannot.
type FallbackSource interface {
	Entities() []*entities.Entity
}

// EntityService reads and writes persisted listings.
type EntityService struct {
	repo     repositories.EntityRepository
	reviews  repositories.ReviewRepository
	fallback FallbackSource
}

// NewEntityService creates an entity service. repo and reviews may be nil
// when no database is configured.
func NewEntityService(repo repositories.EntityRepository, reviews repositories.ReviewRepository, fallback FallbackSource) *EntityService {
	return &EntityService{repo: repo, reviews: reviews, fallback: fallback}
}

// ListApproved returns approved listings, or the bundled dataset when the
// store errors, is absent or is empty. Never fails.
func (s *EntityService) ListApproved(ctx context.Context) []*entities.Entity {
	logger := observability.ComponentLogger(ctx, "repository")

	if s.repo != nil {
		list, err := s.repo.ListApproved(ctx)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("store unavailable, using bundled dataset")
		case len(list) == 0:
			logger.Info().Msg("store returned no approved bakeries, using bundled dataset")
		default:
			return tagManual(list)
		}
	}
	return tagManual(s.fallbackEntities())
}

// SearchByLocation returns approved listings in a city or state.
func (s *EntityService) SearchByLocation(ctx context.Context, city, state string) ([]*entities.Entity, error) {
	city, state = strings.TrimSpace(city), strings.TrimSpace(state)
	if city == "" && state == "" {
		return nil, apperrors.NewValidationError("city or state is required")
	}
	if s.repo == nil {
		return tagManual(filterByLocation(s.fallbackEntities(), city, state)), nil
	}
	list, err := s.repo.SearchByLocation(ctx, city, state)
	if err != nil {
		return nil, err
	}
	return tagManual(list), nil
}

// Submit stores a user submission pending approval.
func (s *EntityService) Submit(ctx context.Context, entity *entities.Entity) (*entities.Entity, error) {
	if entity == nil {
		return nil, apperrors.NewValidationError("bakery is required")
	}
	if s.repo == nil {
		return nil, apperrors.NewInternalError("submissions are unavailable", errNoStore)
	}
	entity.Provenance = entities.ProvenanceUserSubmitted
	entity.ExternalPlaceID = ""
	if err := entity.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	entity.Approved = false
	entity.Verified = false
	entity.Featured = false

	if err := s.repo.Submit(ctx, entity); err != nil {
		return nil, err
	}
	observability.ComponentLogger(ctx, "repository").Info().Str("id", entity.ID).Str("name", entity.Name).Msg("bakery submitted for review")
	return entity, nil
}

// SaveDiscovered stores a discovered listing pending approval. Saving the
// same external place twice is a conflict.
func (s *EntityService) SaveDiscovered(ctx context.Context, entity *entities.Entity) (*entities.Entity, error) {
	if entity == nil || entity.Provenance != entities.ProvenanceDiscovered || entity.ExternalPlaceID == "" {
		return nil, apperrors.NewValidationError("only discovered bakeries with a place id can be saved")
	}
	if err := entity.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if s.repo == nil {
		return nil, apperrors.NewInternalError("saving is unavailable", errNoStore)
	}

	exists, err := s.repo.ExistsByExternalPlaceID(ctx, entity.ExternalPlaceID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflictError(entities.AlreadySavedMessage)
	}

	saved := entity.Clone()
	saved.Distance = nil
	if err := s.repo.SaveDiscovered(ctx, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// ListReviews returns an entity's reviews, newest first.
func (s *EntityService) ListReviews(ctx context.Context, entityID string) ([]*entities.Review, error) {
	if s.reviews == nil {
		return []*entities.Review{}, nil
	}
	return s.reviews.ListByEntity(ctx, entityID)
}

// SubmitReview appends a review.
func (s *EntityService) SubmitReview(ctx context.Context, review *entities.Review) (*entities.Review, error) {
	if review == nil {
		return nil, apperrors.NewValidationError("review is required")
	}
	if err := review.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if s.reviews == nil {
		return nil, apperrors.NewInternalError("reviews are unavailable", errNoStore)
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *EntityService) fallbackEntities() []*entities.Entity {
	if s.fallback == nil {
		return []*entities.Entity{}
	}
	return s.fallback.Entities()
}

func tagManual(list []*entities.Entity) []*entities.Entity {
	for _, e := range list {
		if e.Provenance == "" {
			e.Provenance = entities.ProvenanceManual
		}
	}
	return list
}

func filterByLocation(list []*entities.Entity, city, state string) []*entities.Entity {
	out := make([]*entities.Entity, 0, len(list))
	for _, e := range list {
		cityMatch := city != "" && strings.Contains(strings.ToLower(e.City), strings.ToLower(city))
		stateMatch := state != "" && strings.EqualFold(e.State, state)
		if cityMatch || stateMatch {
			out = append(out, e)
		}
	}
	return out
}
