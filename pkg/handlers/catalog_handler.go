package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/governx-inc/governx-engine/pkg/models"
	"github.com/governx-inc/governx-engine/pkg/repositories"
	"github.com/governx-inc/governx-engine/pkg/services"
)

// HierarchyDatabase is one database with its synced tables and columns.
type HierarchyDatabase struct {
	Database *models.HiveDatabase `json:"database"`
	Tables   []HierarchyTable     `json:"tables"`
}

// HierarchyTable is one table with its synced columns.
type HierarchyTable struct {
	Table   *models.HiveTable    `json:"table"`
	Columns []*models.HiveColumn `json:"columns"`
}

// GlossaryResponse for GET /api/catalog/glossary.
type GlossaryResponse struct {
	Terms []models.GlossaryTerm `json:"terms"`
	Total int                   `json:"total"`
}

// GlossarySyncResponse for POST /api/catalog/glossary/sync.
type GlossarySyncResponse struct {
	Terms int `json:"terms"`
}

// CatalogHandler handles catalog sync and browsing requests.
type CatalogHandler struct {
	syncService services.SyncService
	snapshots   repositories.SnapshotRepository
	logger      *zap.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(
	syncService services.SyncService,
	snapshots repositories.SnapshotRepository,
	logger *zap.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		syncService: syncService,
		snapshots:   snapshots,
		logger:      logger,
	}
}

// RegisterRoutes registers the catalog handler's routes on the given mux.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/catalog/sync", h.Sync)
	mux.HandleFunc("POST /api/catalog/glossary/sync", h.SyncGlossary)
	mux.HandleFunc("GET /api/catalog/hierarchy", h.Hierarchy)
	mux.HandleFunc("GET /api/catalog/glossary", h.Glossary)
}

// Sync handles POST /api/catalog/sync.
func (h *CatalogHandler) Sync(w http.ResponseWriter, r *http.Request) {
	summary, err := h.syncService.SyncCatalog(r.Context())
	if err != nil {
		h.logger.Error("Catalog sync failed", zap.Error(err))
		ErrorResponse(w, http.StatusBadGateway, "sync_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, summary); err != nil {
		h.logger.Error("Failed to encode sync response", zap.Error(err))
	}
}

// SyncGlossary handles POST /api/catalog/glossary/sync.
func (h *CatalogHandler) SyncGlossary(w http.ResponseWriter, r *http.Request) {
	count, err := h.syncService.SyncGlossary(r.Context())
	if err != nil {
		h.logger.Error("Glossary sync failed", zap.Error(err))
		ErrorResponse(w, http.StatusBadGateway, "glossary_sync_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, GlossarySyncResponse{Terms: count}); err != nil {
		h.logger.Error("Failed to encode glossary sync response", zap.Error(err))
	}
}

// Hierarchy handles GET /api/catalog/hierarchy.
// Returns the full synced database -> table -> column tree.
func (h *CatalogHandler) Hierarchy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	databases, err := h.snapshots.ListDatabases(ctx)
	if err != nil {
		h.logger.Error("Failed to list databases", zap.Error(err))
		ErrorResponse(w, http.StatusInternalServerError, "hierarchy_failed", "failed to load catalog hierarchy")
		return
	}

	hierarchy := make([]HierarchyDatabase, 0, len(databases))
	for _, db := range databases {
		tables, err := h.snapshots.ListTablesByDatabase(ctx, db.GUID)
		if err != nil {
			h.logger.Error("Failed to list tables", zap.String("db_guid", db.GUID), zap.Error(err))
			ErrorResponse(w, http.StatusInternalServerError, "hierarchy_failed", "failed to load catalog hierarchy")
			return
		}

		entry := HierarchyDatabase{Database: db, Tables: make([]HierarchyTable, 0, len(tables))}
		for _, table := range tables {
			columns, err := h.snapshots.ListColumnsByTable(ctx, table.GUID)
			if err != nil {
				h.logger.Error("Failed to list columns", zap.String("table_guid", table.GUID), zap.Error(err))
				ErrorResponse(w, http.StatusInternalServerError, "hierarchy_failed", "failed to load catalog hierarchy")
				return
			}
			entry.Tables = append(entry.Tables, HierarchyTable{Table: table, Columns: columns})
		}
		hierarchy = append(hierarchy, entry)
	}

	if err := WriteJSON(w, http.StatusOK, hierarchy); err != nil {
		h.logger.Error("Failed to encode hierarchy response", zap.Error(err))
	}
}

// Glossary handles GET /api/catalog/glossary.
func (h *CatalogHandler) Glossary(w http.ResponseWriter, r *http.Request) {
	terms, err := h.snapshots.ListGlossaryTerms(r.Context())
	if err != nil {
		h.logger.Error("Failed to list glossary terms", zap.Error(err))
		ErrorResponse(w, http.StatusInternalServerError, "glossary_failed", "failed to load glossary")
		return
	}

	if err := WriteJSON(w, http.StatusOK, GlossaryResponse{Terms: terms, Total: len(terms)}); err != nil {
		h.logger.Error("Failed to encode glossary response", zap.Error(err))
	}
}
