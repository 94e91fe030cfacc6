package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/governx-inc/governx-engine/pkg/apperrors"
	"github.com/governx-inc/governx-engine/pkg/models"
	"github.com/governx-inc/governx-engine/pkg/repositories"
)

// Recommendation list views. The ledger is append-only, so readers choose
// how repeated suggestions collapse.
const (
	ViewAll      = "all"      // every row, newest first
	ViewLatest   = "latest"   // newest row per field
	ViewDistinct = "distinct" // newest row per suggested_value
)

// RecommendationService exposes the recommendation ledger for review.
type RecommendationService interface {
	// ListForEntity lists recommendations for the entity behind guid using
	// the requested view, optionally restricted to the given fields.
	ListForEntity(ctx context.Context, guid, view string, fields []string) ([]*models.Recommendation, error)

	// Review transitions a pending recommendation to accepted or rejected.
	Review(ctx context.Context, id int64, status models.RecommendationStatus) (*models.Recommendation, error)
}

type recommendationService struct {
	snapshots repositories.SnapshotRepository
	recs      repositories.RecommendationRepository
	logger    *zap.Logger
}

// NewRecommendationService creates a new RecommendationService.
func NewRecommendationService(
	snapshots repositories.SnapshotRepository,
	recs repositories.RecommendationRepository,
	logger *zap.Logger,
) RecommendationService {
	return &recommendationService{
		snapshots: snapshots,
		recs:      recs,
		logger:    logger.Named("recommendation-service"),
	}
}

var _ RecommendationService = (*recommendationService)(nil)

func (s *recommendationService) ListForEntity(ctx context.Context, guid, view string, fields []string) ([]*models.Recommendation, error) {
	kind, err := s.snapshots.ResolveGUID(ctx, guid)
	if err != nil {
		return nil, err
	}
	ref := models.EntityRef{Kind: kind, GUID: guid}

	switch view {
	case "", ViewAll:
		return s.recs.ListByEntity(ctx, ref)
	case ViewLatest:
		return s.recs.ListLatest(ctx, ref, fields)
	case ViewDistinct:
		return s.recs.ListDistinct(ctx, ref, fields)
	default:
		return nil, fmt.Errorf("view %q: %w", view, apperrors.ErrInvalidStatus)
	}
}

func (s *recommendationService) Review(ctx context.Context, id int64, status models.RecommendationStatus) (*models.Recommendation, error) {
	rec, err := s.recs.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Recommendation reviewed",
		zap.Int64("id", id),
		zap.String("status", string(status)))
	return rec, nil
}
