package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/governx-inc/governx-engine/pkg/apperrors"
	"github.com/governx-inc/governx-engine/pkg/llm"
	"github.com/governx-inc/governx-engine/pkg/models"
	"github.com/governx-inc/governx-engine/pkg/services"
)

// BatchSuggestionRequest for the batch suggestion endpoints.
type BatchSuggestionRequest struct {
	ColumnGUIDs []string `json:"column_guids"`
}

// SuggestionHandler handles LLM-backed metadata suggestion requests.
type SuggestionHandler struct {
	suggestionService services.SuggestionService
	logger            *zap.Logger
}

// NewSuggestionHandler creates a new suggestion handler.
func NewSuggestionHandler(suggestionService services.SuggestionService, logger *zap.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		suggestionService: suggestionService,
		logger:            logger,
	}
}

// RegisterRoutes registers the suggestion handler's routes on the given mux.
func (h *SuggestionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/metadata/{kind}/{guid}/complete", h.Complete)
	mux.HandleFunc("POST /api/suggestions/tags", h.Tags)
	mux.HandleFunc("POST /api/suggestions/classifications", h.Classifications)
}

// Complete handles POST /api/metadata/{kind}/{guid}/complete.
func (h *SuggestionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	kind := models.EntityKind(r.PathValue("kind"))
	if !kind.Valid() {
		ErrorResponse(w, http.StatusBadRequest, "invalid_kind", "kind must be database, table, or column")
		return
	}
	guid := r.PathValue("guid")

	result, err := h.suggestionService.CompleteMetadata(r.Context(), kind, guid)
	if err != nil {
		h.writeSuggestionError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode completion response", zap.Error(err))
	}
}

// Tags handles POST /api/suggestions/tags.
func (h *SuggestionHandler) Tags(w http.ResponseWriter, r *http.Request) {
	guids, ok := h.parseBatchRequest(w, r)
	if !ok {
		return
	}

	result, err := h.suggestionService.SuggestTags(r.Context(), guids)
	if err != nil {
		h.writeSuggestionError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode tag suggestion response", zap.Error(err))
	}
}

// Classifications handles POST /api/suggestions/classifications.
func (h *SuggestionHandler) Classifications(w http.ResponseWriter, r *http.Request) {
	guids, ok := h.parseBatchRequest(w, r)
	if !ok {
		return
	}

	result, err := h.suggestionService.SuggestClassifications(r.Context(), guids)
	if err != nil {
		h.writeSuggestionError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode classification suggestion response", zap.Error(err))
	}
}

func (h *SuggestionHandler) parseBatchRequest(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req BatchSuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return nil, false
	}
	if len(req.ColumnGUIDs) == 0 {
		ErrorResponse(w, http.StatusBadRequest, "invalid_request", "column_guids is required")
		return nil, false
	}
	return req.ColumnGUIDs, true
}

func (h *SuggestionHandler) writeSuggestionError(w http.ResponseWriter, err error) {
	var parseErr *llm.ParseError
	switch {
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrEntityNotFound):
		ErrorResponse(w, http.StatusNotFound, "entity_not_found", err.Error())
	case errors.As(err, &parseErr):
		h.logger.Warn("Unparseable completion response",
			zap.String("raw_response", parseErr.RawResponse))
		ErrorResponse(w, http.StatusBadGateway, "unparseable_response", "completion service returned no usable suggestion")
	default:
		h.logger.Error("Suggestion request failed", zap.Error(err))
		ErrorResponse(w, http.StatusBadGateway, "suggestion_failed", "suggestion request failed")
	}
}
