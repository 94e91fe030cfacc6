package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/governx-inc/governx-engine/pkg/apperrors"
	"github.com/governx-inc/governx-engine/pkg/models"
	"github.com/governx-inc/governx-engine/pkg/services"
)

// RecommendationListResponse for GET /api/entities/{guid}/recommendations.
type RecommendationListResponse struct {
	Recommendations []*models.Recommendation `json:"recommendations"`
	Total           int                      `json:"total"`
}

// ReviewRequest for POST /api/recommendations/{id}/status.
type ReviewRequest struct {
	Status models.RecommendationStatus `json:"status"`
}

// RecommendationHandler handles recommendation review requests.
type RecommendationHandler struct {
	recommendationService services.RecommendationService
	logger                *zap.Logger
}

// NewRecommendationHandler creates a new recommendation handler.
func NewRecommendationHandler(recommendationService services.RecommendationService, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		recommendationService: recommendationService,
		logger:                logger,
	}
}

// RegisterRoutes registers the recommendation handler's routes on the given mux.
func (h *RecommendationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/entities/{guid}/recommendations", h.List)
	mux.HandleFunc("POST /api/recommendations/{id}/status", h.Review)
}

// List handles GET /api/entities/{guid}/recommendations.
// Optional query parameters: view=all|latest|distinct (default all) and
// fields=a,b,c to restrict the fields considered.
func (h *RecommendationHandler) List(w http.ResponseWriter, r *http.Request) {
	guid := r.PathValue("guid")
	view := r.URL.Query().Get("view")

	var fields []string
	if raw := r.URL.Query().Get("fields"); raw != "" {
		fields = strings.Split(raw, ",")
	}

	recs, err := h.recommendationService.ListForEntity(r.Context(), guid, view, fields)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrEntityNotFound):
			ErrorResponse(w, http.StatusNotFound, "entity_not_found", err.Error())
		case errors.Is(err, apperrors.ErrInvalidStatus):
			ErrorResponse(w, http.StatusBadRequest, "invalid_view", err.Error())
		default:
			h.logger.Error("Failed to list recommendations",
				zap.String("guid", guid),
				zap.Error(err))
			ErrorResponse(w, http.StatusInternalServerError, "list_failed", "failed to list recommendations")
		}
		return
	}

	response := RecommendationListResponse{Recommendations: recs, Total: len(recs)}
	if response.Recommendations == nil {
		response.Recommendations = []*models.Recommendation{}
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode recommendation list", zap.Error(err))
	}
}

// Review handles POST /api/recommendations/{id}/status.
func (h *RecommendationHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid_id", "recommendation id must be an integer")
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	rec, err := h.recommendationService.Review(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidStatus):
			ErrorResponse(w, http.StatusBadRequest, "invalid_status", err.Error())
		case errors.Is(err, apperrors.ErrNotFound):
			ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
		case errors.Is(err, apperrors.ErrInvalidTransition):
			ErrorResponse(w, http.StatusConflict, "invalid_transition", err.Error())
		default:
			h.logger.Error("Failed to review recommendation",
				zap.Int64("id", id),
				zap.Error(err))
			ErrorResponse(w, http.StatusInternalServerError, "review_failed", "failed to review recommendation")
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, rec); err != nil {
		h.logger.Error("Failed to encode review response", zap.Error(err))
	}
}
