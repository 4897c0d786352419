package repositories

import (
	"context"

	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
)

// EntityRepository is the backing store for bread source listings.
// Reads only ever return approved rows; writes land as pending.
type EntityRepository interface {
	// ListApproved returns approved entities ordered by featured desc, rating desc
	ListApproved(ctx context.Context) ([]*entities.Entity, error)

	// SearchByLocation returns approved entities whose city or state matches
	SearchByLocation(ctx context.Context, city, state string) ([]*entities.Entity, error)

	// Submit stores a user submission pending approval
	Submit(ctx context.Context, entity *entities.Entity) error

	// SaveDiscovered stores a discovered entity pending approval. A second
	// save of the same external place id returns a conflict AppError.
	SaveDiscovered(ctx context.Context, entity *entities.Entity) error

	// ExistsByExternalPlaceID checks whether a place was already saved
	ExistsByExternalPlaceID(ctx context.Context, placeID string) (bool, error)

	// ListMissingImages returns approved entities without an image URL
	ListMissingImages(ctx context.Context, limit int) ([]*entities.Entity, error)

	// UpdateImageURL sets the image URL of an entity
	UpdateImageURL(ctx context.Context, id, imageURL string) error
}

// EntityImporter loads curated, already moderated entities.
type EntityImporter interface {
	Import(ctx context.Context, entity *entities.Entity) (bool, error)
}

// ReviewRepository stores reviews.
type ReviewRepository interface {
	ListByEntity(ctx context.Context, entityID string) ([]*entities.Review, error)
	Create(ctx context.Context, review *entities.Review) error
}
