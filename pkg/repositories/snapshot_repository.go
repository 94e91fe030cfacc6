// Package repositories provides data access for catalog snapshots,
// recommendations, and dataset profiles.
package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/governx-inc/governx-engine/pkg/apperrors"
	"github.com/governx-inc/governx-engine/pkg/database"
	"github.com/governx-inc/governx-engine/pkg/models"
)

// SnapshotRepository provides data access for catalog entity snapshots.
type SnapshotRepository interface {
	// UpsertDatabase creates or updates a database snapshot keyed on guid.
	UpsertDatabase(ctx context.Context, db *models.HiveDatabase) error

	// UpsertTable creates or updates a table snapshot keyed on guid.
	UpsertTable(ctx context.Context, table *models.HiveTable) error

	// UpsertColumn creates or updates a column snapshot keyed on guid.
	UpsertColumn(ctx context.Context, column *models.HiveColumn) error

	// GetDatabase retrieves a database snapshot by guid.
	GetDatabase(ctx context.Context, guid string) (*models.HiveDatabase, error)

	// GetTable retrieves a table snapshot by guid.
	GetTable(ctx context.Context, guid string) (*models.HiveTable, error)

	// GetColumn retrieves a column snapshot by guid.
	GetColumn(ctx context.Context, guid string) (*models.HiveColumn, error)

	// GetTableByQualifiedName retrieves a table snapshot by qualified name.
	GetTableByQualifiedName(ctx context.Context, qualifiedName string) (*models.HiveTable, error)

	// GetTableByName retrieves a table snapshot by display name.
	GetTableByName(ctx context.Context, name string) (*models.HiveTable, error)

	// GetColumnByQualifiedName retrieves a column snapshot by qualified name.
	GetColumnByQualifiedName(ctx context.Context, qualifiedName string) (*models.HiveColumn, error)

	// ResolveGUID returns the entity kind registered for a guid.
	ResolveGUID(ctx context.Context, guid string) (models.EntityKind, error)

	// ListDatabases retrieves all database snapshots ordered by name.
	ListDatabases(ctx context.Context) ([]*models.HiveDatabase, error)

	// ListTablesByDatabase retrieves all table snapshots under one database.
	ListTablesByDatabase(ctx context.Context, dbGUID string) ([]*models.HiveTable, error)

	// ListColumnsByTable retrieves all column snapshots under one table,
	// ordered by position.
	ListColumnsByTable(ctx context.Context, tableGUID string) ([]*models.HiveColumn, error)

	// ReplaceGlossaryTerms replaces the full glossary term set. Terms absent
	// from the new set are pruned.
	ReplaceGlossaryTerms(ctx context.Context, terms []models.GlossaryTerm) error

	// ListGlossaryTerms retrieves all glossary terms ordered by display text.
	ListGlossaryTerms(ctx context.Context) ([]models.GlossaryTerm, error)
}

type snapshotRepository struct {
	db *database.DB
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(db *database.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

var _ SnapshotRepository = (*snapshotRepository)(nil)

func (r *snapshotRepository) UpsertDatabase(ctx context.Context, db *models.HiveDatabase) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO engine_hive_databases (
			guid, name, qualified_name, location, owner, description,
			created_by, updated_by, create_time, update_time, raw_entity, synced_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, '{}'::jsonb), now())
		ON CONFLICT (guid) DO UPDATE SET
			name = EXCLUDED.name,
			qualified_name = EXCLUDED.qualified_name,
			location = EXCLUDED.location,
			owner = EXCLUDED.owner,
			description = EXCLUDED.description,
			created_by = EXCLUDED.created_by,
			updated_by = EXCLUDED.updated_by,
			create_time = EXCLUDED.create_time,
			update_time = EXCLUDED.update_time,
			raw_entity = EXCLUDED.raw_entity,
			synced_at = now()
		RETURNING synced_at`

	err = tx.QueryRow(ctx, query,
		db.GUID, db.Name, db.QualifiedName, db.Location, db.Owner, db.Description,
		db.CreatedBy, db.UpdatedBy, db.CreateTime, db.UpdateTime, db.RawEntity,
	).Scan(&db.SyncedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert database snapshot: %w", err)
	}

	if err := registerEntity(ctx, tx, db.GUID, models.EntityKindDatabase); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *snapshotRepository) UpsertTable(ctx context.Context, table *models.HiveTable) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO engine_hive_tables (
			guid, name, qualified_name, owner, description, temporary, table_type,
			db_guid, db_name, classifications, retention_period,
			created_by, updated_by, create_time, raw_entity, synced_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, COALESCE($15, '{}'::jsonb), now())
		ON CONFLICT (guid) DO UPDATE SET
			name = EXCLUDED.name,
			qualified_name = EXCLUDED.qualified_name,
			owner = EXCLUDED.owner,
			description = EXCLUDED.description,
			temporary = EXCLUDED.temporary,
			table_type = EXCLUDED.table_type,
			db_guid = EXCLUDED.db_guid,
			db_name = EXCLUDED.db_name,
			classifications = EXCLUDED.classifications,
			retention_period = EXCLUDED.retention_period,
			created_by = EXCLUDED.created_by,
			updated_by = EXCLUDED.updated_by,
			create_time = EXCLUDED.create_time,
			raw_entity = EXCLUDED.raw_entity,
			synced_at = now()
		RETURNING synced_at`

	err = tx.QueryRow(ctx, query,
		table.GUID, table.Name, table.QualifiedName, table.Owner, table.Description,
		table.Temporary, table.TableType, table.DBGUID, table.DBName,
		table.Classifications, table.RetentionPeriod,
		table.CreatedBy, table.UpdatedBy, table.CreateTime, table.RawEntity,
	).Scan(&table.SyncedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert table snapshot: %w", err)
	}

	if err := registerEntity(ctx, tx, table.GUID, models.EntityKindTable); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *snapshotRepository) UpsertColumn(ctx context.Context, column *models.HiveColumn) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO engine_hive_columns (
			guid, name, qualified_name, column_type, position, owner, description,
			table_guid, table_name, classifications,
			created_by, updated_by, create_time, update_time, raw_entity, synced_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, COALESCE($15, '{}'::jsonb), now())
		ON CONFLICT (guid) DO UPDATE SET
			name = EXCLUDED.name,
			qualified_name = EXCLUDED.qualified_name,
			column_type = EXCLUDED.column_type,
			position = EXCLUDED.position,
			owner = EXCLUDED.owner,
			description = EXCLUDED.description,
			table_guid = EXCLUDED.table_guid,
			table_name = EXCLUDED.table_name,
			classifications = EXCLUDED.classifications,
			created_by = EXCLUDED.created_by,
			updated_by = EXCLUDED.updated_by,
			create_time = EXCLUDED.create_time,
			update_time = EXCLUDED.update_time,
			raw_entity = EXCLUDED.raw_entity,
			synced_at = now()
		RETURNING synced_at`

	err = tx.QueryRow(ctx, query,
		column.GUID, column.Name, column.QualifiedName, column.ColumnType, column.Position,
		column.Owner, column.Description, column.TableGUID, column.TableName,
		column.Classifications,
		column.CreatedBy, column.UpdatedBy, column.CreateTime, column.UpdateTime, column.RawEntity,
	).Scan(&column.SyncedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert column snapshot: %w", err)
	}

	if err := registerEntity(ctx, tx, column.GUID, models.EntityKindColumn); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// registerEntity records the guid -> kind mapping used by ResolveGUID.
func registerEntity(ctx context.Context, tx pgx.Tx, guid string, kind models.EntityKind) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO engine_catalog_entities (guid, kind) VALUES ($1, $2)
		ON CONFLICT (guid) DO UPDATE SET kind = EXCLUDED.kind`,
		guid, kind)
	if err != nil {
		return fmt.Errorf("failed to register catalog entity: %w", err)
	}
	return nil
}

const databaseColumns = `guid, name, qualified_name, location, owner, description,
	created_by, updated_by, create_time, update_time, raw_entity, synced_at`

const tableColumns = `guid, name, qualified_name, owner, description, temporary, table_type,
	db_guid, db_name, classifications, retention_period,
	created_by, updated_by, create_time, raw_entity, synced_at`

const columnColumns = `guid, name, qualified_name, column_type, position, owner, description,
	table_guid, table_name, classifications,
	created_by, updated_by, create_time, update_time, raw_entity, synced_at`

func (r *snapshotRepository) GetDatabase(ctx context.Context, guid string) (*models.HiveDatabase, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+databaseColumns+` FROM engine_hive_databases WHERE guid = $1`, guid)
	return scanDatabase(row)
}

func (r *snapshotRepository) GetTable(ctx context.Context, guid string) (*models.HiveTable, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+tableColumns+` FROM engine_hive_tables WHERE guid = $1`, guid)
	return scanTable(row)
}

func (r *snapshotRepository) GetColumn(ctx context.Context, guid string) (*models.HiveColumn, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+columnColumns+` FROM engine_hive_columns WHERE guid = $1`, guid)
	return scanColumn(row)
}

func (r *snapshotRepository) GetTableByQualifiedName(ctx context.Context, qualifiedName string) (*models.HiveTable, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+tableColumns+` FROM engine_hive_tables WHERE qualified_name = $1`, qualifiedName)
	return scanTable(row)
}

func (r *snapshotRepository) GetTableByName(ctx context.Context, name string) (*models.HiveTable, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+tableColumns+` FROM engine_hive_tables WHERE name = $1 ORDER BY synced_at DESC LIMIT 1`, name)
	return scanTable(row)
}

func (r *snapshotRepository) GetColumnByQualifiedName(ctx context.Context, qualifiedName string) (*models.HiveColumn, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+columnColumns+` FROM engine_hive_columns WHERE qualified_name = $1`, qualifiedName)
	return scanColumn(row)
}

func (r *snapshotRepository) ResolveGUID(ctx context.Context, guid string) (models.EntityKind, error) {
	var kind models.EntityKind
	err := r.db.QueryRow(ctx,
		`SELECT kind FROM engine_catalog_entities WHERE guid = $1`, guid).Scan(&kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("guid %s: %w", guid, apperrors.ErrEntityNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve guid: %w", err)
	}
	return kind, nil
}

func (r *snapshotRepository) ListDatabases(ctx context.Context) ([]*models.HiveDatabase, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+databaseColumns+` FROM engine_hive_databases ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query database snapshots: %w", err)
	}
	defer rows.Close()

	var dbs []*models.HiveDatabase
	for rows.Next() {
		db, err := scanDatabase(rows)
		if err != nil {
			return nil, err
		}
		dbs = append(dbs, db)
	}
	return dbs, rows.Err()
}

func (r *snapshotRepository) ListTablesByDatabase(ctx context.Context, dbGUID string) ([]*models.HiveTable, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+tableColumns+` FROM engine_hive_tables WHERE db_guid = $1 ORDER BY name`, dbGUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query table snapshots: %w", err)
	}
	defer rows.Close()

	var tables []*models.HiveTable
	for rows.Next() {
		table, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, rows.Err()
}

func (r *snapshotRepository) ListColumnsByTable(ctx context.Context, tableGUID string) ([]*models.HiveColumn, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+columnColumns+` FROM engine_hive_columns WHERE table_guid = $1 ORDER BY position NULLS LAST, name`, tableGUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query column snapshots: %w", err)
	}
	defer rows.Close()

	var columns []*models.HiveColumn
	for rows.Next() {
		column, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		columns = append(columns, column)
	}
	return columns, rows.Err()
}

func (r *snapshotRepository) ReplaceGlossaryTerms(ctx context.Context, terms []models.GlossaryTerm) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM engine_glossary_terms`); err != nil {
		return fmt.Errorf("failed to clear glossary terms: %w", err)
	}

	for _, term := range terms {
		_, err := tx.Exec(ctx, `
			INSERT INTO engine_glossary_terms (term_guid, display_text, synced_at)
			VALUES ($1, $2, now())
			ON CONFLICT (term_guid) DO UPDATE SET display_text = EXCLUDED.display_text, synced_at = now()`,
			term.TermGUID, term.DisplayText)
		if err != nil {
			return fmt.Errorf("failed to insert glossary term: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *snapshotRepository) ListGlossaryTerms(ctx context.Context) ([]models.GlossaryTerm, error) {
	rows, err := r.db.Query(ctx,
		`SELECT term_guid, display_text FROM engine_glossary_terms ORDER BY display_text`)
	if err != nil {
		return nil, fmt.Errorf("failed to query glossary terms: %w", err)
	}
	defer rows.Close()

	var terms []models.GlossaryTerm
	for rows.Next() {
		var term models.GlossaryTerm
		if err := rows.Scan(&term.TermGUID, &term.DisplayText); err != nil {
			return nil, fmt.Errorf("failed to scan glossary term: %w", err)
		}
		terms = append(terms, term)
	}
	return terms, rows.Err()
}

func scanDatabase(row pgx.Row) (*models.HiveDatabase, error) {
	var db models.HiveDatabase
	err := row.Scan(
		&db.GUID, &db.Name, &db.QualifiedName, &db.Location, &db.Owner, &db.Description,
		&db.CreatedBy, &db.UpdatedBy, &db.CreateTime, &db.UpdateTime, &db.RawEntity, &db.SyncedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("database snapshot: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan database snapshot: %w", err)
	}
	return &db, nil
}

func scanTable(row pgx.Row) (*models.HiveTable, error) {
	var table models.HiveTable
	err := row.Scan(
		&table.GUID, &table.Name, &table.QualifiedName, &table.Owner, &table.Description,
		&table.Temporary, &table.TableType, &table.DBGUID, &table.DBName,
		&table.Classifications, &table.RetentionPeriod,
		&table.CreatedBy, &table.UpdatedBy, &table.CreateTime, &table.RawEntity, &table.SyncedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("table snapshot: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan table snapshot: %w", err)
	}
	return &table, nil
}

func scanColumn(row pgx.Row) (*models.HiveColumn, error) {
	var column models.HiveColumn
	err := row.Scan(
		&column.GUID, &column.Name, &column.QualifiedName, &column.ColumnType, &column.Position,
		&column.Owner, &column.Description, &column.TableGUID, &column.TableName,
		&column.Classifications,
		&column.CreatedBy, &column.UpdatedBy, &column.CreateTime, &column.UpdateTime,
		&column.RawEntity, &column.SyncedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("column snapshot: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan column snapshot: %w", err)
	}
	return &column, nil
}
