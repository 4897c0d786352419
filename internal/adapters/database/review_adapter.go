package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/internal/domain/repositories"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/breadfindr/backend/pkg/errors"
)

// ReviewAdapter implements review persistence in Postgres.
type ReviewAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReviewAdapter creates a new review adapter.
func NewReviewAdapter(client *postgres.Client) repositories.ReviewRepository {
	return &ReviewAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListByEntity returns reviews for an entity, newest first.
func (a *ReviewAdapter) ListByEntity(ctx context.Context, entityID string) ([]*entities.Review, error) {
	query, args, err := a.db.From("reviews").Prepared(true).
		Select("id", "bakery_id", "reviewer_name", "rating", "comment", "created_at").
		Where(goqu.Ex{"bakery_id": entityID}).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list reviews", err)
	}
	defer rows.Close()

	reviews := []*entities.Review{}
	for rows.Next() {
		r := &entities.Review{}
		var comment sql.NullString
		if err := rows.Scan(&r.ID, &r.EntityID, &r.ReviewerName, &r.Rating, &comment, &r.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan review", err)
		}
		r.Comment = comment.String
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to list reviews", err)
	}
	return reviews, nil
}

// Create inserts a review record.
func (a *ReviewAdapter) Create(ctx context.Context, review *entities.Review) error {
	if review == nil {
		return apperrors.NewInternalError("review is nil", fmt.Errorf("review is nil"))
	}
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	record := goqu.Record{
		"id":            review.ID,
		"bakery_id":     review.EntityID,
		"reviewer_name": review.ReviewerName,
		"rating":        review.Rating,
		"comment":       nullString(review.Comment),
		"created_at":    review.CreatedAt,
	}

	query, args, err := a.db.Insert("reviews").Prepared(true).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build review insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create review", err)
	}
	return nil
}
