package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/governx-inc/governx-engine/pkg/apperrors"
	"github.com/governx-inc/governx-engine/pkg/database"
	"github.com/governx-inc/governx-engine/pkg/models"
)

// RecommendationRepository provides data access for the append-only
// recommendation ledger.
type RecommendationRepository interface {
	// Create appends a new pending recommendation. Existing rows for the
	// same (entity, field) are never touched.
	Create(ctx context.Context, rec *models.Recommendation) error

	// ListByEntity retrieves all recommendations for one entity, newest first.
	ListByEntity(ctx context.Context, ref models.EntityRef) ([]*models.Recommendation, error)

	// ListLatest retrieves the newest recommendation per field for one
	// entity, optionally restricted to the given fields. Ties on creation
	// time resolve to the highest id.
	ListLatest(ctx context.Context, ref models.EntityRef, fields []string) ([]*models.Recommendation, error)

	// ListDistinct retrieves recommendations for one entity deduplicated by
	// suggested_value, keeping the newest row for each value.
	ListDistinct(ctx context.Context, ref models.EntityRef, fields []string) ([]*models.Recommendation, error)

	// UpdateStatus transitions a pending recommendation to accepted or
	// rejected. Returns ErrInvalidStatus for any other target status,
	// ErrNotFound for an unknown id, and ErrInvalidTransition when the
	// recommendation has already been reviewed.
	UpdateStatus(ctx context.Context, id int64, status models.RecommendationStatus) (*models.Recommendation, error)
}

type recommendationRepository struct {
	db *database.DB
}

// NewRecommendationRepository creates a new RecommendationRepository.
func NewRecommendationRepository(db *database.DB) RecommendationRepository {
	return &recommendationRepository{db: db}
}

var _ RecommendationRepository = (*recommendationRepository)(nil)

const recommendationColumns = `id, entity_kind, entity_guid, field, suggested_value, confidence, status, created_at`

func (r *recommendationRepository) Create(ctx context.Context, rec *models.Recommendation) error {
	if rec.Status == "" {
		rec.Status = models.RecommendationPending
	}

	query := `
		INSERT INTO engine_recommendations (entity_kind, entity_guid, field, suggested_value, confidence, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		rec.EntityKind, rec.EntityGUID, rec.Field, rec.SuggestedValue, rec.Confidence, rec.Status,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create recommendation: %w", err)
	}
	return nil
}

func (r *recommendationRepository) ListByEntity(ctx context.Context, ref models.EntityRef) ([]*models.Recommendation, error) {
	query := `
		SELECT ` + recommendationColumns + `
		FROM engine_recommendations
		WHERE entity_kind = $1 AND entity_guid = $2
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, ref.Kind, ref.GUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	return scanRecommendations(rows)
}

func (r *recommendationRepository) ListLatest(ctx context.Context, ref models.EntityRef, fields []string) ([]*models.Recommendation, error) {
	query := `
		SELECT DISTINCT ON (field) ` + recommendationColumns + `
		FROM engine_recommendations
		WHERE entity_kind = $1 AND entity_guid = $2
		  AND ($3::text[] IS NULL OR cardinality($3::text[]) = 0 OR field = ANY($3))
		ORDER BY field, created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, ref.Kind, ref.GUID, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest recommendations: %w", err)
	}
	defer rows.Close()

	return scanRecommendations(rows)
}

func (r *recommendationRepository) ListDistinct(ctx context.Context, ref models.EntityRef, fields []string) ([]*models.Recommendation, error) {
	query := `
		SELECT ` + recommendationColumns + ` FROM (
			SELECT DISTINCT ON (suggested_value) ` + recommendationColumns + `
			FROM engine_recommendations
			WHERE entity_kind = $1 AND entity_guid = $2
			  AND ($3::text[] IS NULL OR cardinality($3::text[]) = 0 OR field = ANY($3))
			ORDER BY suggested_value, created_at DESC, id DESC
		) deduped
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, ref.Kind, ref.GUID, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct recommendations: %w", err)
	}
	defer rows.Close()

	return scanRecommendations(rows)
}

func (r *recommendationRepository) UpdateStatus(ctx context.Context, id int64, status models.RecommendationStatus) (*models.Recommendation, error) {
	if !status.Reviewable() {
		return nil, fmt.Errorf("status %q: %w", status, apperrors.ErrInvalidStatus)
	}

	// The status guard in the WHERE clause makes reviews single-shot.
	query := `
		UPDATE engine_recommendations
		SET status = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + recommendationColumns

	rec, err := scanRecommendation(r.db.QueryRow(ctx, query, id, status))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update recommendation status: %w", err)
	}

	// Distinguish a missing row from an already-reviewed one.
	var current models.RecommendationStatus
	err = r.db.QueryRow(ctx,
		`SELECT status FROM engine_recommendations WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("recommendation %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendation: %w", err)
	}
	return nil, fmt.Errorf("recommendation %d is already %s: %w", id, current, apperrors.ErrInvalidTransition)
}

func scanRecommendation(row pgx.Row) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := row.Scan(
		&rec.ID, &rec.EntityKind, &rec.EntityGUID, &rec.Field,
		&rec.SuggestedValue, &rec.Confidence, &rec.Status, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanRecommendations(rows pgx.Rows) ([]*models.Recommendation, error) {
	var recs []*models.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
