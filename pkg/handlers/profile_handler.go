package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/governx-inc/governx-engine/pkg/apperrors"
	"github.com/governx-inc/governx-engine/pkg/services"
)

// maxUploadBytes caps CSV uploads at 50 MiB.
const maxUploadBytes = 50 << 20

// ProfileHandler handles dataset upload and profiling requests.
type ProfileHandler struct {
	profileService services.ProfileService
	logger         *zap.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profileService services.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// RegisterRoutes registers the profile handler's routes on the given mux.
func (h *ProfileHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/files/profile", h.Profile)
	mux.HandleFunc("GET /api/files/{id}/profiles", h.Profiles)
}

// Profile handles POST /api/files/profile.
// Expects a multipart form with the dataset under the "file" field.
func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		ErrorResponse(w, http.StatusBadRequest, "missing_file", "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	result, err := h.profileService.ProfileCSV(r.Context(), header.Filename, file)
	if err != nil {
		if errors.Is(err, apperrors.ErrMalformedInput) {
			ErrorResponse(w, http.StatusBadRequest, "malformed_csv", err.Error())
			return
		}
		h.logger.Error("Profiling failed",
			zap.String("filename", header.Filename),
			zap.Error(err))
		ErrorResponse(w, http.StatusInternalServerError, "profiling_failed", "failed to profile dataset")
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode profile response", zap.Error(err))
	}
}

// Profiles handles GET /api/files/{id}/profiles.
func (h *ProfileHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	fileID, ok := ParseFileID(w, r, h.logger)
	if !ok {
		return
	}

	stored, err := h.profileService.GetProfiles(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			ErrorResponse(w, http.StatusNotFound, "file_not_found", err.Error())
			return
		}
		h.logger.Error("Failed to load stored profiles",
			zap.String("file_id", fileID.String()),
			zap.Error(err))
		ErrorResponse(w, http.StatusInternalServerError, "profiles_failed", "failed to load stored profiles")
		return
	}

	if err := WriteJSON(w, http.StatusOK, stored); err != nil {
		h.logger.Error("Failed to encode stored profiles", zap.Error(err))
	}
}
