package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/governx-inc/governx-engine/pkg/apperrors"
	"github.com/governx-inc/governx-engine/pkg/database"
	"github.com/governx-inc/governx-engine/pkg/models"
)

// ProfileRepository provides data access for uploaded files and their
// persisted column profiles.
type ProfileRepository interface {
	// CreateFile records a new upload and returns it with a generated id.
	CreateFile(ctx context.Context, name string) (*models.File, error)

	// GetFile retrieves one upload record.
	GetFile(ctx context.Context, id uuid.UUID) (*models.File, error)

	// SaveColumnProfiles persists the profiling results for one upload.
	// Each (file, column) pair is written exactly once.
	SaveColumnProfiles(ctx context.Context, fileID uuid.UUID, profiles []*models.ColumnProfile) error

	// ListByFile retrieves the column profiles of one upload, ordered by
	// column name.
	ListByFile(ctx context.Context, fileID uuid.UUID) ([]*models.ColumnProfile, error)
}

type profileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *database.DB) ProfileRepository {
	return &profileRepository{db: db}
}

var _ ProfileRepository = (*profileRepository)(nil)

func (r *profileRepository) CreateFile(ctx context.Context, name string) (*models.File, error) {
	file := &models.File{ID: uuid.New(), Name: name}

	err := r.db.QueryRow(ctx, `
		INSERT INTO engine_files (id, name) VALUES ($1, $2)
		RETURNING uploaded_at`,
		file.ID, file.Name,
	).Scan(&file.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}
	return file, nil
}

func (r *profileRepository) GetFile(ctx context.Context, id uuid.UUID) (*models.File, error) {
	var file models.File
	err := r.db.QueryRow(ctx,
		`SELECT id, name, uploaded_at FROM engine_files WHERE id = $1`, id,
	).Scan(&file.ID, &file.Name, &file.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load file record: %w", err)
	}
	return &file, nil
}

func (r *profileRepository) SaveColumnProfiles(ctx context.Context, fileID uuid.UUID, profiles []*models.ColumnProfile) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO engine_column_profiles (
			file_id, column_name, data_type, missing_count, suggested_type,
			outlier_count, normalization, patterns, cluster_label, profile_error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	for _, p := range profiles {
		p.FileID = fileID
		err := tx.QueryRow(ctx, query,
			fileID, p.ColumnName, p.DataType, p.MissingCount, p.SuggestedType,
			p.OutlierCount, p.Normalization, p.Patterns, p.ClusterLabel, p.ProfileError,
		).Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to save column profile %q: %w", p.ColumnName, err)
		}
	}

	return tx.Commit(ctx)
}

func (r *profileRepository) ListByFile(ctx context.Context, fileID uuid.UUID) ([]*models.ColumnProfile, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, file_id, column_name, data_type, missing_count, suggested_type,
		       outlier_count, normalization, patterns, cluster_label, profile_error, created_at
		FROM engine_column_profiles
		WHERE file_id = $1
		ORDER BY column_name`, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query column profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.ColumnProfile
	for rows.Next() {
		var p models.ColumnProfile
		err := rows.Scan(
			&p.ID, &p.FileID, &p.ColumnName, &p.DataType, &p.MissingCount, &p.SuggestedType,
			&p.OutlierCount, &p.Normalization, &p.Patterns, &p.ClusterLabel, &p.ProfileError, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column profile: %w", err)
		}
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}
