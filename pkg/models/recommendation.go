package models

import "time"

// RecommendationStatus is the review state of a metadata recommendation.
type RecommendationStatus string

const (
	RecommendationPending  RecommendationStatus = "pending"
	RecommendationAccepted RecommendationStatus = "accepted"
	RecommendationRejected RecommendationStatus = "rejected"
)

// Recommendation is a single suggested value for one field of one catalog
// entity, awaiting human review. The ledger is append-only: repeated
// suggestions for the same (entity, field) accumulate as separate rows.
type Recommendation struct {
	ID             int64                `json:"id"`
	EntityKind     EntityKind           `json:"entity_kind"`
	EntityGUID     string               `json:"entity_guid"`
	Field          string               `json:"field"`
	SuggestedValue string               `json:"suggested_value"`
	Confidence     *float64             `json:"confidence,omitempty"`
	Status         RecommendationStatus `json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
}

// Reviewable reports whether newStatus is a legal review outcome.
// Only accepted and rejected are exposed to reviewers; there is no
// transition back to pending.
func (s RecommendationStatus) Reviewable() bool {
	return s == RecommendationAccepted || s == RecommendationRejected
}
