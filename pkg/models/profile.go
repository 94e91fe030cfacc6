package models

import (
	"time"

	"github.com/google/uuid"
)

// File records one uploaded dataset. A re-upload of the same data creates
// a new File with its own profile rows; earlier uploads are immutable.
type File struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ColumnProfile is the persisted profiling result for one column of one
// uploaded file. Unique per (file, column).
type ColumnProfile struct {
	ID            int64     `json:"id"`
	FileID        uuid.UUID `json:"file_id"`
	ColumnName    string    `json:"column_name"`
	DataType      string    `json:"data_type"`
	MissingCount  int       `json:"missing_count"`
	SuggestedType string    `json:"suggested_type"`
	OutlierCount  int       `json:"outlier_count"`
	Normalization string    `json:"normalization"`
	Patterns      []string  `json:"patterns"`
	ClusterLabel  string    `json:"cluster_label"`
	ProfileError  *string   `json:"profile_error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
