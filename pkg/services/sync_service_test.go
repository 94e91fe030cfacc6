package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/governx-inc/governx-engine/pkg/atlas"
)

func dbEntity(guid, name string, tableGUIDs ...string) *atlas.EntityResponse {
	refs, _ := json.Marshal(guidRefs(tableGUIDs))
	return &atlas.EntityResponse{
		Entity: &atlas.Entity{
			GUID:     guid,
			TypeName: "hive_db",
			Attributes: map[string]any{
				"name":          name,
				"qualifiedName": name + "@cluster",
			},
			RelationshipAttributes: map[string]json.RawMessage{
				"tables": refs,
			},
		},
		Raw: json.RawMessage(`{"entity": {}}`),
	}
}

func tableEntity(guid, name, dbGUID string, retention *int, columnGUIDs ...string) *atlas.EntityResponse {
	refs, _ := json.Marshal(guidRefs(columnGUIDs))
	attrs := map[string]any{
		"name":          name,
		"qualifiedName": "sales." + name + "@cluster",
	}
	if retention != nil {
		attrs["retention"] = float64(*retention)
	}
	return &atlas.EntityResponse{
		Entity: &atlas.Entity{
			GUID:       guid,
			TypeName:   "hive_table",
			Attributes: attrs,
			RelationshipAttributes: map[string]json.RawMessage{
				"columns": refs,
				"db":      json.RawMessage(`{"guid": "` + dbGUID + `", "displayText": "sales"}`),
			},
			Classifications: []atlas.Classification{{TypeName: "PII"}},
		},
		Raw: json.RawMessage(`{"entity": {}}`),
	}
}

func columnEntity(guid, name, tableGUID string) *atlas.EntityResponse {
	return &atlas.EntityResponse{
		Entity: &atlas.Entity{
			GUID:     guid,
			TypeName: "hive_column",
			Attributes: map[string]any{
				"name":          name,
				"qualifiedName": "sales.orders." + name + "@cluster",
				"type":          "string",
			},
			RelationshipAttributes: map[string]json.RawMessage{
				"table": json.RawMessage(`{"guid": "` + tableGUID + `", "displayText": "orders"}`),
			},
		},
		Raw: json.RawMessage(`{"entity": {}}`),
	}
}

func guidRefs(guids []string) []map[string]string {
	refs := make([]map[string]string, 0, len(guids))
	for _, g := range guids {
		refs = append(refs, map[string]string{"guid": g})
	}
	return refs
}

func newSyncFixture() (*fakeCatalog, *memSnapshotRepo, SyncService) {
	retention := 90
	catalog := &fakeCatalog{
		searchResults: map[string]*atlas.SearchResult{
			"hive_db": {Entities: []atlas.Entity{{GUID: "db-1", TypeName: "hive_db"}}},
		},
		entities: map[string]*atlas.EntityResponse{
			"db-1":  dbEntity("db-1", "sales", "tbl-1", "tbl-2"),
			"tbl-1": tableEntity("tbl-1", "orders", "db-1", &retention, "col-1", "col-2"),
			"tbl-2": tableEntity("tbl-2", "customers", "db-1", nil),
			"col-1": columnEntity("col-1", "id", "tbl-1"),
			"col-2": columnEntity("col-2", "email", "tbl-1"),
		},
	}
	repo := newMemSnapshotRepo()
	return catalog, repo, NewSyncService(catalog, repo, zap.NewNop())
}

func TestSyncCatalog_FullWalk(t *testing.T) {
	_, repo, svc := newSyncFixture()

	summary, err := svc.SyncCatalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Databases)
	assert.Equal(t, 2, summary.Tables)
	assert.Equal(t, 2, summary.Columns)
	assert.Empty(t, summary.Errors)

	table, err := repo.GetTable(context.Background(), "tbl-1")
	require.NoError(t, err)
	require.NotNil(t, table.RetentionPeriod)
	assert.Equal(t, 90, *table.RetentionPeriod)
	assert.Equal(t, []string{"PII"}, table.Classifications)
	require.NotNil(t, table.DBGUID)
	assert.Equal(t, "db-1", *table.DBGUID)

	column, err := repo.GetColumn(context.Background(), "col-2")
	require.NoError(t, err)
	assert.Equal(t, "email", column.Name)
	require.NotNil(t, column.TableGUID)
	assert.Equal(t, "tbl-1", *column.TableGUID)

	kind, err := repo.ResolveGUID(context.Background(), "col-1")
	require.NoError(t, err)
	assert.Equal(t, "column", string(kind))
}

func TestSyncCatalog_DoubleSyncIsStable(t *testing.T) {
	_, repo, svc := newSyncFixture()

	first, err := svc.SyncCatalog(context.Background())
	require.NoError(t, err)
	countAfterFirst := repo.rowCount()

	second, err := svc.SyncCatalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, countAfterFirst, repo.rowCount())
	assert.Equal(t, first.Databases, second.Databases)
	assert.Equal(t, first.Tables, second.Tables)
	assert.Equal(t, first.Columns, second.Columns)
}

func TestSyncCatalog_UnreachableCatalogAbortsWithoutWrites(t *testing.T) {
	catalog, repo, svc := newSyncFixture()
	catalog.searchErr = errors.New("connection refused")

	_, err := svc.SyncCatalog(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, repo.rowCount())
}

func TestSyncCatalog_EntityFailureIsIsolated(t *testing.T) {
	catalog, repo, svc := newSyncFixture()
	catalog.entityErrs = map[string]error{
		"tbl-2": &atlas.Error{StatusCode: 404, Message: "gone"},
	}

	summary, err := svc.SyncCatalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Databases)
	assert.Equal(t, 1, summary.Tables)
	assert.Equal(t, 2, summary.Columns)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "tbl-2")

	_, err = repo.GetTable(context.Background(), "tbl-1")
	assert.NoError(t, err)
}

func TestSyncCatalog_Canceled(t *testing.T) {
	_, _, svc := newSyncFixture()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.SyncCatalog(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSyncGlossary_ReplacesTermSet(t *testing.T) {
	catalog, repo, svc := newSyncFixture()
	catalog.glossaries = []atlas.Glossary{
		{Name: "Business", Terms: []atlas.GlossaryTerm{
			{TermGUID: "t-1", DisplayText: "Revenue"},
			{TermGUID: "t-2", DisplayText: "Churn"},
		}},
	}

	count, err := svc.SyncGlossary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	catalog.glossaries[0].Terms = catalog.glossaries[0].Terms[:1]
	count, err = svc.SyncGlossary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	terms, err := repo.ListGlossaryTerms(context.Background())
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "Revenue", terms[0].DisplayText)
}
