package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/internal/domain/repositories"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/breadfindr/backend/pkg/errors"
)

const (
	bakeriesTable   = "bakeries"
	uniqueViolation = "23505"
)

var entityColumns = []interface{}{
	"id", "name", "type", "description", "specialties", "rating", "review_count",
	"address", "city", "state", "zip", "latitude", "longitude",
	"phone", "website", "instagram", "hours", "image_url",
	"verified", "featured", "approved", "source", "google_place_id", "created_at",
}

// EntityAdapter implements EntityRepository on the bakeries table.
type EntityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

// NewEntityAdapter creates a new entity adapter
func NewEntityAdapter(client *postgres.Client) repositories.EntityRepository {
	return newEntityAdapter(client)
}

// NewEntityImporter returns the adapter as a bulk importer for seeding.
func NewEntityImporter(client *postgres.Client) repositories.EntityImporter {
	return newEntityAdapter(client)
}

func newEntityAdapter(client *postgres.Client) *EntityAdapter {
	return &EntityAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		now:    time.Now,
	}
}

// ListApproved returns approved rows, featured first, then by rating.
func (a *EntityAdapter) ListApproved(ctx context.Context) ([]*entities.Entity, error) {
	query, args, err := a.db.From(bakeriesTable).Prepared(true).
		Select(entityColumns...).
		Where(goqu.Ex{"approved": true}).
		Order(goqu.I("featured").Desc(), goqu.I("rating").Desc().NullsLast()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryEntities(ctx, "failed to list bakeries", query, args)
}

// SearchByLocation matches city and state case-insensitively.
func (a *EntityAdapter) SearchByLocation(ctx context.Context, city, state string) ([]*entities.Entity, error) {
	city, state = strings.TrimSpace(city), strings.TrimSpace(state)
	if city == "" && state == "" {
		return nil, apperrors.NewValidationError("city or state is required")
	}

	var match []exp.Expression
	if city != "" {
		match = append(match, goqu.I("city").ILike("%"+city+"%"))
	}
	if state != "" {
		match = append(match, goqu.I("state").ILike(state))
	}

	query, args, err := a.db.From(bakeriesTable).Prepared(true).
		Select(entityColumns...).
		Where(goqu.Ex{"approved": true}, goqu.Or(match...)).
		Order(goqu.I("featured").Desc(), goqu.I("rating").Desc().NullsLast()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryEntities(ctx, "failed to search bakeries", query, args)
}

// Submit inserts a user submission pending approval.
func (a *EntityAdapter) Submit(ctx context.Context, entity *entities.Entity) error {
	if entity == nil {
		return apperrors.NewInternalError("entity is nil", fmt.Errorf("entity is nil"))
	}
	entity.Provenance = entities.ProvenanceUserSubmitted
	return a.insert(ctx, entity)
}

// SaveDiscovered inserts a discovered place pending approval.
func (a *EntityAdapter) SaveDiscovered(ctx context.Context, entity *entities.Entity) error {
	if entity == nil || entity.ExternalPlaceID == "" {
		return apperrors.NewValidationError("discovered entity requires an external place id")
	}
	entity.Provenance = entities.ProvenanceDiscovered
	return a.insert(ctx, entity)
}

// ExistsByExternalPlaceID reports whether a place id was already stored.
func (a *EntityAdapter) ExistsByExternalPlaceID(ctx context.Context, placeID string) (bool, error) {
	query, args, err := a.db.From(bakeriesTable).Prepared(true).
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"google_place_id": placeID}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, apperrors.NewInternalError("failed to check saved place", err)
	}
	return count > 0, nil
}

// ListMissingImages returns approved rows without an image, best rated first.
func (a *EntityAdapter) ListMissingImages(ctx context.Context, limit int) ([]*entities.Entity, error) {
	ds := a.db.From(bakeriesTable).Prepared(true).
		Select(entityColumns...).
		Where(
			goqu.Ex{"approved": true},
			goqu.Or(goqu.I("image_url").IsNull(), goqu.I("image_url").Eq("")),
		).
		Order(goqu.I("rating").Desc().NullsLast())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryEntities(ctx, "failed to list bakeries without images", query, args)
}

// UpdateImageURL sets image_url on one row.
func (a *EntityAdapter) UpdateImageURL(ctx context.Context, id, imageURL string) error {
	query, args, err := a.db.Update(bakeriesTable).Prepared(true).
		Set(goqu.Record{"image_url": imageURL}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update image url", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to read affected rows", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("bakery with id %s not found", id))
	}
	return nil
}

// Import upserts a curated entity keeping its moderation flags. Rows whose
// id already exists are left alone; inserted reports whether a row was added.
func (a *EntityAdapter) Import(ctx context.Context, entity *entities.Entity) (bool, error) {
	if entity == nil || entity.ID == "" {
		return false, apperrors.NewValidationError("imported entity requires an id")
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = a.now().UTC()
	}

	query, args, err := a.db.Insert(bakeriesTable).Prepared(true).
		Rows(a.record(entity)).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build bakery import query", err)
	}

	res, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewInternalError("failed to import bakery", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternalError("failed to read import result", err)
	}
	return n > 0, nil
}

func (a *EntityAdapter) insert(ctx context.Context, entity *entities.Entity) error {
	if entity.ID == "" {
		entity.ID = uuid.New().String()
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = a.now().UTC()
	}
	entity.Approved = false
	entity.Verified = false
	entity.Featured = false

	query, args, err := a.db.Insert(bakeriesTable).Prepared(true).Rows(a.record(entity)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build bakery insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.NewConflictError(entities.AlreadySavedMessage)
		}
		return apperrors.NewInternalError("failed to save bakery", err)
	}
	return nil
}

func (a *EntityAdapter) record(entity *entities.Entity) goqu.Record {
	record := goqu.Record{
		"id":              entity.ID,
		"name":            entity.Name,
		"type":            entity.Category.StoreLabel(),
		"description":     nullString(entity.Description),
		"specialties":     pq.StringArray(entity.Specialties),
		"rating":          entity.Rating,
		"review_count":    entity.ReviewCount,
		"address":         nullString(entity.Address),
		"city":            nullString(entity.City),
		"state":           nullString(entity.State),
		"zip":             nullString(entity.PostalCode),
		"latitude":        sql.NullFloat64{},
		"longitude":       sql.NullFloat64{},
		"phone":           nullString(entity.Phone),
		"website":         nullString(entity.Website),
		"instagram":       nullString(entity.SocialHandle),
		"hours":           nullString(entity.Hours),
		"image_url":       nullString(entity.ImageURL),
		"verified":        entity.Verified,
		"featured":        entity.Featured,
		"approved":        entity.Approved,
		"source":          string(entity.Provenance),
		"google_place_id": nullString(entity.ExternalPlaceID),
		"created_at":      entity.CreatedAt,
	}
	if entity.HasCoordinates() {
		record["latitude"] = sql.NullFloat64{Float64: entity.Coordinates.Lat, Valid: true}
		record["longitude"] = sql.NullFloat64{Float64: entity.Coordinates.Lng, Valid: true}
	}
	return record
}

func (a *EntityAdapter) queryEntities(ctx context.Context, failMsg, query string, args []interface{}) ([]*entities.Entity, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError(failMsg, err)
	}
	defer rows.Close()

	var out []*entities.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan bakery", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError(failMsg, err)
	}
	return out, nil
}

// scanEntity maps a row, replacing NULLs with empty values.
func scanEntity(rows *sql.Rows) (*entities.Entity, error) {
	var (
		e                                          entities.Entity
		category                                   string
		description, address, city, state, zip     sql.NullString
		phone, website, instagram, hours, imageURL sql.NullString
		source, placeID                            sql.NullString
		specialties                                pq.StringArray
		rating, lat, lng                           sql.NullFloat64
		reviewCount                                sql.NullInt64
		verified, featured, approved               sql.NullBool
		createdAt                                  sql.NullTime
	)

	err := rows.Scan(
		&e.ID, &e.Name, &category, &description, &specialties, &rating, &reviewCount,
		&address, &city, &state, &zip, &lat, &lng,
		&phone, &website, &instagram, &hours, &imageURL,
		&verified, &featured, &approved, &source, &placeID, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := entities.ParseCategory(category)
	if err != nil || parsed == entities.CategoryAll {
		parsed = entities.CategoryStorefront
	}
	e.Category = parsed
	e.Description = description.String
	e.Specialties = []string(specialties)
	if e.Specialties == nil {
		e.Specialties = []string{}
	}
	e.Rating = rating.Float64
	e.ReviewCount = int(reviewCount.Int64)
	e.Address = address.String
	e.City = city.String
	e.State = state.String
	e.PostalCode = zip.String
	if lat.Valid && lng.Valid {
		e.Coordinates = &entities.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	e.Phone = phone.String
	e.Website = website.String
	e.SocialHandle = instagram.String
	e.Hours = hours.String
	e.ImageURL = imageURL.String
	e.Verified = verified.Bool
	e.Featured = featured.Bool
	e.Approved = approved.Bool
	e.ExternalPlaceID = placeID.String
	e.Provenance = provenanceFromSource(source.String, e.ExternalPlaceID)
	e.CreatedAt = createdAt.Time
	return &e, nil
}

func provenanceFromSource(source, placeID string) entities.Provenance {
	switch strings.ToLower(source) {
	case "user_submitted", "user":
		return entities.ProvenanceUserSubmitted
	case "discovered", "google", "google_places":
		if placeID != "" {
			return entities.ProvenanceDiscovered
		}
	}
	return entities.ProvenanceManual
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
