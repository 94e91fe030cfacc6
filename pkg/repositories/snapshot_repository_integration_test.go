package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/governx-inc/governx-engine/pkg/apperrors"
	"github.com/governx-inc/governx-engine/pkg/models"
	"github.com/governx-inc/governx-engine/pkg/testhelpers"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func seedDatabase(guid string) *models.HiveDatabase {
	return &models.HiveDatabase{
		GUID:          guid,
		Name:          "sales",
		QualifiedName: "sales@cluster",
		Owner:         strPtr("warehouse"),
	}
}

func seedTable(guid, dbGUID string) *models.HiveTable {
	return &models.HiveTable{
		GUID:            guid,
		Name:            "orders",
		QualifiedName:   "sales.orders@cluster",
		DBGUID:          &dbGUID,
		DBName:          strPtr("sales"),
		Classifications: []string{"PII"},
		RetentionPeriod: intPtr(90),
	}
}

func seedColumn(guid, tableGUID string) *models.HiveColumn {
	return &models.HiveColumn{
		GUID:          guid,
		Name:          "customer_id",
		QualifiedName: "sales.orders.customer_id@cluster",
		ColumnType:    strPtr("bigint"),
		Position:      intPtr(0),
		TableGUID:     &tableGUID,
		TableName:     strPtr("orders"),
	}
}

func TestSnapshotRepository_UpsertIsIdempotent(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, testDB.DB)
	repo := NewSnapshotRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.UpsertDatabase(ctx, seedDatabase("db-1")))
	require.NoError(t, repo.UpsertTable(ctx, seedTable("tbl-1", "db-1")))
	require.NoError(t, repo.UpsertColumn(ctx, seedColumn("col-1", "tbl-1")))

	firstSync, err := repo.GetTable(ctx, "tbl-1")
	require.NoError(t, err)

	// Re-running the same upserts must not add rows, only refresh them.
	require.NoError(t, repo.UpsertDatabase(ctx, seedDatabase("db-1")))
	require.NoError(t, repo.UpsertTable(ctx, seedTable("tbl-1", "db-1")))
	require.NoError(t, repo.UpsertColumn(ctx, seedColumn("col-1", "tbl-1")))

	var databases, tables, columns int
	require.NoError(t, testDB.DB.QueryRow(ctx, "SELECT count(*) FROM engine_hive_databases").Scan(&databases))
	require.NoError(t, testDB.DB.QueryRow(ctx, "SELECT count(*) FROM engine_hive_tables").Scan(&tables))
	require.NoError(t, testDB.DB.QueryRow(ctx, "SELECT count(*) FROM engine_hive_columns").Scan(&columns))
	assert.Equal(t, 1, databases)
	assert.Equal(t, 1, tables)
	assert.Equal(t, 1, columns)

	secondSync, err := repo.GetTable(ctx, "tbl-1")
	require.NoError(t, err)
	assert.Equal(t, firstSync.QualifiedName, secondSync.QualifiedName)
	assert.Equal(t, firstSync.Classifications, secondSync.Classifications)
	assert.True(t, secondSync.SyncedAt.After(firstSync.SyncedAt) || secondSync.SyncedAt.Equal(firstSync.SyncedAt))
}

func TestSnapshotRepository_GetAndLookups(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, testDB.DB)
	repo := NewSnapshotRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.UpsertDatabase(ctx, seedDatabase("db-1")))
	require.NoError(t, repo.UpsertTable(ctx, seedTable("tbl-1", "db-1")))
	require.NoError(t, repo.UpsertColumn(ctx, seedColumn("col-1", "tbl-1")))

	table, err := repo.GetTableByQualifiedName(ctx, "sales.orders@cluster")
	require.NoError(t, err)
	assert.Equal(t, "tbl-1", table.GUID)
	require.NotNil(t, table.RetentionPeriod)
	assert.Equal(t, 90, *table.RetentionPeriod)
	assert.Equal(t, []string{"PII"}, table.Classifications)

	table, err = repo.GetTableByName(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, "tbl-1", table.GUID)

	column, err := repo.GetColumnByQualifiedName(ctx, "sales.orders.customer_id@cluster")
	require.NoError(t, err)
	assert.Equal(t, "col-1", column.GUID)

	_, err = repo.GetColumn(ctx, "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSnapshotRepository_ResolveGUID(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, testDB.DB)
	repo := NewSnapshotRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.UpsertDatabase(ctx, seedDatabase("db-1")))
	require.NoError(t, repo.UpsertTable(ctx, seedTable("tbl-1", "db-1")))
	require.NoError(t, repo.UpsertColumn(ctx, seedColumn("col-1", "tbl-1")))

	tests := []struct {
		guid string
		want models.EntityKind
	}{
		{"db-1", models.EntityKindDatabase},
		{"tbl-1", models.EntityKindTable},
		{"col-1", models.EntityKindColumn},
	}
	for _, tt := range tests {
		kind, err := repo.ResolveGUID(ctx, tt.guid)
		require.NoError(t, err)
		assert.Equal(t, tt.want, kind)
	}

	_, err := repo.ResolveGUID(ctx, "ghost")
	assert.ErrorIs(t, err, apperrors.ErrEntityNotFound)
}

func TestSnapshotRepository_Hierarchy(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, testDB.DB)
	repo := NewSnapshotRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.UpsertDatabase(ctx, seedDatabase("db-1")))
	require.NoError(t, repo.UpsertTable(ctx, seedTable("tbl-1", "db-1")))

	other := seedTable("tbl-2", "db-1")
	other.Name = "customers"
	other.QualifiedName = "sales.customers@cluster"
	require.NoError(t, repo.UpsertTable(ctx, other))
	require.NoError(t, repo.UpsertColumn(ctx, seedColumn("col-1", "tbl-1")))

	databases, err := repo.ListDatabases(ctx)
	require.NoError(t, err)
	require.Len(t, databases, 1)

	tables, err := repo.ListTablesByDatabase(ctx, "db-1")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "customers", tables[0].Name) // ordered by name

	columns, err := repo.ListColumnsByTable(ctx, "tbl-1")
	require.NoError(t, err)
	require.Len(t, columns, 1)
	assert.Equal(t, "col-1", columns[0].GUID)
}

func TestSnapshotRepository_ReplaceGlossaryTermsPrunesStale(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, testDB.DB)
	repo := NewSnapshotRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceGlossaryTerms(ctx, []models.GlossaryTerm{
		{TermGUID: "t-1", DisplayText: "Revenue"},
		{TermGUID: "t-2", DisplayText: "Churn"},
	}))

	require.NoError(t, repo.ReplaceGlossaryTerms(ctx, []models.GlossaryTerm{
		{TermGUID: "t-1", DisplayText: "Revenue"},
	}))

	terms, err := repo.ListGlossaryTerms(ctx)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "t-1", terms[0].TermGUID)
}
