package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/governx-inc/governx-engine/pkg/apperrors"
	"github.com/governx-inc/governx-engine/pkg/llm"
	"github.com/governx-inc/governx-engine/pkg/models"
	"github.com/governx-inc/governx-engine/pkg/services"
)

type mockSuggestionService struct {
	result *services.SuggestionResult
	err    error

	gotKind  models.EntityKind
	gotGUID  string
	gotGUIDs []string
}

func (m *mockSuggestionService) CompleteMetadata(_ context.Context, kind models.EntityKind, guid string) (*services.SuggestionResult, error) {
	m.gotKind, m.gotGUID = kind, guid
	return m.result, m.err
}

func (m *mockSuggestionService) SuggestTags(_ context.Context, columnGUIDs []string) (*services.SuggestionResult, error) {
	m.gotGUIDs = columnGUIDs
	return m.result, m.err
}

func (m *mockSuggestionService) SuggestClassifications(_ context.Context, columnGUIDs []string) (*services.SuggestionResult, error) {
	m.gotGUIDs = columnGUIDs
	return m.result, m.err
}

func newSuggestionMux(svc *mockSuggestionService) *http.ServeMux {
	mux := http.NewServeMux()
	NewSuggestionHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestComplete_Success(t *testing.T) {
	svc := &mockSuggestionService{result: &services.SuggestionResult{
		Created: []*models.Recommendation{{ID: 1, Field: "description"}},
	}}
	mux := newSuggestionMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/metadata/table/tbl-1/complete", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.EntityKindTable, svc.gotKind)
	assert.Equal(t, "tbl-1", svc.gotGUID)
}

func TestComplete_InvalidKind(t *testing.T) {
	mux := newSuggestionMux(&mockSuggestionService{})

	req := httptest.NewRequest(http.MethodPost, "/api/metadata/schema/tbl-1/complete", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid_kind")
}

func TestComplete_UnknownEntity(t *testing.T) {
	svc := &mockSuggestionService{err: fmt.Errorf("guid tbl-1: %w", apperrors.ErrNotFound)}
	mux := newSuggestionMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/metadata/table/tbl-1/complete", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "entity_not_found")
}

func TestTags_PassesColumnGUIDs(t *testing.T) {
	svc := &mockSuggestionService{result: &services.SuggestionResult{}}
	mux := newSuggestionMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/suggestions/tags",
		strings.NewReader(`{"column_guids": ["col-1", "col-2"]}`))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"col-1", "col-2"}, svc.gotGUIDs)
}

func TestTags_EmptyGUIDs(t *testing.T) {
	mux := newSuggestionMux(&mockSuggestionService{})

	req := httptest.NewRequest(http.MethodPost, "/api/suggestions/tags",
		strings.NewReader(`{"column_guids": []}`))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "column_guids is required")
}

func TestTags_InvalidJSON(t *testing.T) {
	mux := newSuggestionMux(&mockSuggestionService{})

	req := httptest.NewRequest(http.MethodPost, "/api/suggestions/tags",
		strings.NewReader(`not json`))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestClassifications_UnparseableResponseIsBadGateway(t *testing.T) {
	svc := &mockSuggestionService{err: fmt.Errorf("classification batch: %w",
		&llm.ParseError{RawResponse: "no JSON here"})}
	mux := newSuggestionMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/suggestions/classifications",
		strings.NewReader(`{"column_guids": ["col-1"]}`))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "unparseable_response")
}

func TestClassifications_UpstreamFailureIsBadGateway(t *testing.T) {
	svc := &mockSuggestionService{err: fmt.Errorf("completion request failed")}
	mux := newSuggestionMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/suggestions/classifications",
		strings.NewReader(`{"column_guids": ["col-1"]}`))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "suggestion_failed")
}
