package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/governx-inc/governx-engine/pkg/apperrors"
	"github.com/governx-inc/governx-engine/pkg/atlas"
	"github.com/governx-inc/governx-engine/pkg/models"
	"github.com/governx-inc/governx-engine/pkg/repositories"
)

// memSnapshotRepo is an in-memory SnapshotRepository.
type memSnapshotRepo struct {
	databases map[string]*models.HiveDatabase
	tables    map[string]*models.HiveTable
	columns   map[string]*models.HiveColumn
	registry  map[string]models.EntityKind
	terms     []models.GlossaryTerm
}

func newMemSnapshotRepo() *memSnapshotRepo {
	return &memSnapshotRepo{
		databases: make(map[string]*models.HiveDatabase),
		tables:    make(map[string]*models.HiveTable),
		columns:   make(map[string]*models.HiveColumn),
		registry:  make(map[string]models.EntityKind),
	}
}

var _ repositories.SnapshotRepository = (*memSnapshotRepo)(nil)

func (m *memSnapshotRepo) UpsertDatabase(_ context.Context, db *models.HiveDatabase) error {
	db.SyncedAt = time.Now()
	m.databases[db.GUID] = db
	m.registry[db.GUID] = models.EntityKindDatabase
	return nil
}

func (m *memSnapshotRepo) UpsertTable(_ context.Context, table *models.HiveTable) error {
	table.SyncedAt = time.Now()
	m.tables[table.GUID] = table
	m.registry[table.GUID] = models.EntityKindTable
	return nil
}

func (m *memSnapshotRepo) UpsertColumn(_ context.Context, column *models.HiveColumn) error {
	column.SyncedAt = time.Now()
	m.columns[column.GUID] = column
	m.registry[column.GUID] = models.EntityKindColumn
	return nil
}

func (m *memSnapshotRepo) GetDatabase(_ context.Context, guid string) (*models.HiveDatabase, error) {
	if db, ok := m.databases[guid]; ok {
		return db, nil
	}
	return nil, fmt.Errorf("database snapshot: %w", apperrors.ErrNotFound)
}

func (m *memSnapshotRepo) GetTable(_ context.Context, guid string) (*models.HiveTable, error) {
	if table, ok := m.tables[guid]; ok {
		return table, nil
	}
	return nil, fmt.Errorf("table snapshot: %w", apperrors.ErrNotFound)
}

func (m *memSnapshotRepo) GetColumn(_ context.Context, guid string) (*models.HiveColumn, error) {
	if column, ok := m.columns[guid]; ok {
		return column, nil
	}
	return nil, fmt.Errorf("column snapshot: %w", apperrors.ErrNotFound)
}

func (m *memSnapshotRepo) GetTableByQualifiedName(_ context.Context, qn string) (*models.HiveTable, error) {
	for _, table := range m.tables {
		if table.QualifiedName == qn {
			return table, nil
		}
	}
	return nil, fmt.Errorf("table snapshot: %w", apperrors.ErrNotFound)
}

func (m *memSnapshotRepo) GetTableByName(_ context.Context, name string) (*models.HiveTable, error) {
	for _, table := range m.tables {
		if table.Name == name {
			return table, nil
		}
	}
	return nil, fmt.Errorf("table snapshot: %w", apperrors.ErrNotFound)
}

func (m *memSnapshotRepo) GetColumnByQualifiedName(_ context.Context, qn string) (*models.HiveColumn, error) {
	for _, column := range m.columns {
		if column.QualifiedName == qn {
			return column, nil
		}
	}
	return nil, fmt.Errorf("column snapshot: %w", apperrors.ErrNotFound)
}

func (m *memSnapshotRepo) ResolveGUID(_ context.Context, guid string) (models.EntityKind, error) {
	if kind, ok := m.registry[guid]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("guid %s: %w", guid, apperrors.ErrEntityNotFound)
}

func (m *memSnapshotRepo) ListDatabases(_ context.Context) ([]*models.HiveDatabase, error) {
	out := make([]*models.HiveDatabase, 0, len(m.databases))
	for _, db := range m.databases {
		out = append(out, db)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memSnapshotRepo) ListTablesByDatabase(_ context.Context, dbGUID string) ([]*models.HiveTable, error) {
	var out []*models.HiveTable
	for _, table := range m.tables {
		if table.DBGUID != nil && *table.DBGUID == dbGUID {
			out = append(out, table)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memSnapshotRepo) ListColumnsByTable(_ context.Context, tableGUID string) ([]*models.HiveColumn, error) {
	var out []*models.HiveColumn
	for _, column := range m.columns {
		if column.TableGUID != nil && *column.TableGUID == tableGUID {
			out = append(out, column)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memSnapshotRepo) ReplaceGlossaryTerms(_ context.Context, terms []models.GlossaryTerm) error {
	m.terms = terms
	return nil
}

func (m *memSnapshotRepo) ListGlossaryTerms(_ context.Context) ([]models.GlossaryTerm, error) {
	return m.terms, nil
}

func (m *memSnapshotRepo) rowCount() int {
	return len(m.databases) + len(m.tables) + len(m.columns)
}

// memRecommendationRepo is an in-memory append-only RecommendationRepository.
type memRecommendationRepo struct {
	recs   []*models.Recommendation
	nextID int64

	// lastCall records which list method was used, for dispatch tests.
	lastCall string
}

func newMemRecommendationRepo() *memRecommendationRepo {
	return &memRecommendationRepo{nextID: 1}
}

var _ repositories.RecommendationRepository = (*memRecommendationRepo)(nil)

func (m *memRecommendationRepo) Create(_ context.Context, rec *models.Recommendation) error {
	if rec.Status == "" {
		rec.Status = models.RecommendationPending
	}
	rec.ID = m.nextID
	m.nextID++
	rec.CreatedAt = time.Now()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memRecommendationRepo) ListByEntity(_ context.Context, ref models.EntityRef) ([]*models.Recommendation, error) {
	m.lastCall = "all"
	var out []*models.Recommendation
	for i := len(m.recs) - 1; i >= 0; i-- {
		if m.recs[i].EntityKind == ref.Kind && m.recs[i].EntityGUID == ref.GUID {
			out = append(out, m.recs[i])
		}
	}
	return out, nil
}

func (m *memRecommendationRepo) ListLatest(_ context.Context, ref models.EntityRef, fields []string) ([]*models.Recommendation, error) {
	m.lastCall = "latest"
	wanted := fieldSet(fields)
	latest := make(map[string]*models.Recommendation)
	for _, rec := range m.recs {
		if rec.EntityKind != ref.Kind || rec.EntityGUID != ref.GUID {
			continue
		}
		if wanted != nil && !wanted[rec.Field] {
			continue
		}
		if cur, ok := latest[rec.Field]; !ok || rec.ID > cur.ID {
			latest[rec.Field] = rec
		}
	}
	var out []*models.Recommendation
	for _, rec := range latest {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out, nil
}

func (m *memRecommendationRepo) ListDistinct(_ context.Context, ref models.EntityRef, fields []string) ([]*models.Recommendation, error) {
	m.lastCall = "distinct"
	wanted := fieldSet(fields)
	distinct := make(map[string]*models.Recommendation)
	for _, rec := range m.recs {
		if rec.EntityKind != ref.Kind || rec.EntityGUID != ref.GUID {
			continue
		}
		if wanted != nil && !wanted[rec.Field] {
			continue
		}
		if cur, ok := distinct[rec.SuggestedValue]; !ok || rec.ID > cur.ID {
			distinct[rec.SuggestedValue] = rec
		}
	}
	var out []*models.Recommendation
	for _, rec := range distinct {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memRecommendationRepo) UpdateStatus(_ context.Context, id int64, status models.RecommendationStatus) (*models.Recommendation, error) {
	if !status.Reviewable() {
		return nil, fmt.Errorf("status %q: %w", status, apperrors.ErrInvalidStatus)
	}
	for _, rec := range m.recs {
		if rec.ID != id {
			continue
		}
		if rec.Status != models.RecommendationPending {
			return nil, fmt.Errorf("recommendation %d is already %s: %w", id, rec.Status, apperrors.ErrInvalidTransition)
		}
		rec.Status = status
		return rec, nil
	}
	return nil, fmt.Errorf("recommendation %d: %w", id, apperrors.ErrNotFound)
}

func (m *memRecommendationRepo) byField(field string) []*models.Recommendation {
	var out []*models.Recommendation
	for _, rec := range m.recs {
		if rec.Field == field {
			out = append(out, rec)
		}
	}
	return out
}

func fieldSet(fields []string) map[string]bool {
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// fakeCatalog is a canned CatalogClient.
type fakeCatalog struct {
	searchResults map[string]*atlas.SearchResult
	entities      map[string]*atlas.EntityResponse
	glossaries    []atlas.Glossary

	searchErr  error
	entityErrs map[string]error

	getEntityCalls int
}

var _ CatalogClient = (*fakeCatalog)(nil)

func (f *fakeCatalog) SearchByType(_ context.Context, typeName string) (*atlas.SearchResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if result, ok := f.searchResults[typeName]; ok {
		return result, nil
	}
	return &atlas.SearchResult{}, nil
}

func (f *fakeCatalog) GetEntity(_ context.Context, guid string) (*atlas.EntityResponse, error) {
	f.getEntityCalls++
	if err, ok := f.entityErrs[guid]; ok {
		return nil, err
	}
	if resp, ok := f.entities[guid]; ok {
		return resp, nil
	}
	return nil, &atlas.Error{StatusCode: 404, Message: "not found"}
}

func (f *fakeCatalog) GetGlossaries(_ context.Context) ([]atlas.Glossary, error) {
	return f.glossaries, nil
}

// fakeCompleter returns a canned completion response.
type fakeCompleter struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}
