// Package services contains the business logic orchestrating profiling,
// catalog sync, LLM suggestions, and recommendation review.
package services

import (
	"context"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/governx-inc/governx-engine/pkg/models"
	"github.com/governx-inc/governx-engine/pkg/profiler"
	"github.com/governx-inc/governx-engine/pkg/repositories"
	"github.com/governx-inc/governx-engine/pkg/semantics"
)

// ProfileResult is the outcome of profiling one uploaded dataset.
type ProfileResult struct {
	File   *models.File     `json:"file"`
	Report *profiler.Report `json:"report"`
}

// StoredProfiles is the persisted profiling result for one upload.
type StoredProfiles struct {
	File     *models.File            `json:"file"`
	Profiles []*models.ColumnProfile `json:"profiles"`
}

// ProfileService profiles uploaded CSV datasets and persists the results.
type ProfileService interface {
	// ProfileCSV parses and profiles an uploaded dataset, assigns semantic
	// cluster labels to its text columns, and persists a file record with
	// one profile row per column.
	ProfileCSV(ctx context.Context, name string, r io.Reader) (*ProfileResult, error)

	// GetProfiles retrieves the stored profiling result of a past upload.
	GetProfiles(ctx context.Context, fileID uuid.UUID) (*StoredProfiles, error)
}

type profileService struct {
	profiler  *profiler.Profiler
	clusterer *semantics.Clusterer
	repo      repositories.ProfileRepository
	logger    *zap.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(
	p *profiler.Profiler,
	clusterer *semantics.Clusterer,
	repo repositories.ProfileRepository,
	logger *zap.Logger,
) ProfileService {
	return &profileService{
		profiler:  p,
		clusterer: clusterer,
		repo:      repo,
		logger:    logger.Named("profile-service"),
	}
}

var _ ProfileService = (*profileService)(nil)

func (s *profileService) ProfileCSV(ctx context.Context, name string, r io.Reader) (*ProfileResult, error) {
	columns, err := profiler.ParseCSV(r)
	if err != nil {
		return nil, err
	}

	report, err := s.profiler.ProfileColumns(ctx, columns)
	if err != nil {
		return nil, err
	}

	// Cluster the columns that stayed textual after type inference.
	var textColumns []semantics.TextColumn
	for i := range columns {
		col := &columns[i]
		if report.DataTypes[col.Name] == profiler.TypeString {
			textColumns = append(textColumns, semantics.TextColumn{
				Name:   col.Name,
				Values: col.NonMissing(),
			})
		}
	}
	report.SemanticColumnClusters = s.clusterer.Cluster(textColumns)

	file, err := s.repo.CreateFile(ctx, name)
	if err != nil {
		return nil, err
	}

	profiles := make([]*models.ColumnProfile, 0, len(report.Columns))
	for _, colName := range report.Columns {
		p := &models.ColumnProfile{
			ColumnName:    colName,
			DataType:      report.DataTypes[colName],
			MissingCount:  report.MissingValues[colName],
			SuggestedType: report.SuggestedDataTypes[colName],
			OutlierCount:  report.Outliers[colName],
			Normalization: report.NormalizationSuggestions[colName],
			Patterns:      report.PatternDetection[colName],
			ClusterLabel:  report.SemanticColumnClusters[colName],
		}
		if msg, ok := report.ColumnErrors[colName]; ok {
			p.ProfileError = &msg
		}
		profiles = append(profiles, p)
	}

	if err := s.repo.SaveColumnProfiles(ctx, file.ID, profiles); err != nil {
		return nil, err
	}

	s.logger.Info("Dataset profiled",
		zap.String("file_id", file.ID.String()),
		zap.String("name", name),
		zap.Int("columns", len(report.Columns)),
		zap.Int("duplicates", report.Duplicates))

	return &ProfileResult{File: file, Report: report}, nil
}

func (s *profileService) GetProfiles(ctx context.Context, fileID uuid.UUID) (*StoredProfiles, error) {
	file, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	profiles, err := s.repo.ListByFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if profiles == nil {
		profiles = []*models.ColumnProfile{}
	}
	return &StoredProfiles{File: file, Profiles: profiles}, nil
}
