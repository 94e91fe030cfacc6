package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/governx-inc/governx-engine/pkg/atlas"
	"github.com/governx-inc/governx-engine/pkg/models"
	"github.com/governx-inc/governx-engine/pkg/repositories"
	"github.com/governx-inc/governx-engine/pkg/retry"
)

// CatalogClient is the subset of the catalog API consumed by sync.
type CatalogClient interface {
	SearchByType(ctx context.Context, typeName string) (*atlas.SearchResult, error)
	GetEntity(ctx context.Context, guid string) (*atlas.EntityResponse, error)
	GetGlossaries(ctx context.Context) ([]atlas.Glossary, error)
}

// SyncSummary reports the outcome of one catalog sync run.
type SyncSummary struct {
	Databases int      `json:"databases"`
	Tables    int      `json:"tables"`
	Columns   int      `json:"columns"`
	Errors    []string `json:"errors,omitempty"`
	Duration  string   `json:"duration"`
}

// SyncService mirrors the remote catalog into local snapshots.
type SyncService interface {
	// SyncCatalog walks every database in the catalog, upserting snapshots
	// for the database, its tables, and their columns. Individual entity
	// failures are recorded and skipped; an unreachable catalog aborts the
	// run before any writes.
	SyncCatalog(ctx context.Context) (*SyncSummary, error)

	// SyncGlossary replaces the local glossary term set with the catalog's
	// current terms and returns the new term count.
	SyncGlossary(ctx context.Context) (int, error)
}

type syncService struct {
	catalog  CatalogClient
	repo     repositories.SnapshotRepository
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewSyncService creates a new SyncService.
func NewSyncService(catalog CatalogClient, repo repositories.SnapshotRepository, logger *zap.Logger) SyncService {
	return &syncService{
		catalog:  catalog,
		repo:     repo,
		retryCfg: retry.DefaultConfig(),
		logger:   logger.Named("sync-service"),
	}
}

var _ SyncService = (*syncService)(nil)

func (s *syncService) SyncCatalog(ctx context.Context) (*SyncSummary, error) {
	start := time.Now()
	summary := &SyncSummary{}

	var search *atlas.SearchResult
	err := retry.Do(ctx, s.retryCfg, func() error {
		var err error
		search, err = s.catalog.SearchByType(ctx, "hive_db")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("catalog database search failed: %w", err)
	}

	for _, dbEntity := range search.Entities {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sync canceled: %w", err)
		}

		if err := s.syncDatabase(ctx, dbEntity.GUID, summary); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("database %s: %v", dbEntity.GUID, err))
			s.logger.Warn("Database sync failed",
				zap.String("guid", dbEntity.GUID),
				zap.Error(err))
		}
	}

	summary.Duration = time.Since(start).Round(time.Millisecond).String()
	s.logger.Info("Catalog sync completed",
		zap.Int("databases", summary.Databases),
		zap.Int("tables", summary.Tables),
		zap.Int("columns", summary.Columns),
		zap.Int("errors", len(summary.Errors)),
		zap.String("duration", summary.Duration))
	return summary, nil
}

func (s *syncService) syncDatabase(ctx context.Context, guid string, summary *SyncSummary) error {
	resp, err := s.fetchEntity(ctx, guid)
	if err != nil {
		return err
	}

	db := entityToDatabase(resp)
	if err := s.repo.UpsertDatabase(ctx, db); err != nil {
		return err
	}
	summary.Databases++

	for _, tableGUID := range resp.Entity.RelatedGUIDs("tables") {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sync canceled: %w", err)
		}
		if err := s.syncTable(ctx, tableGUID, summary); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("table %s: %v", tableGUID, err))
			s.logger.Warn("Table sync failed",
				zap.String("guid", tableGUID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *syncService) syncTable(ctx context.Context, guid string, summary *SyncSummary) error {
	resp, err := s.fetchEntity(ctx, guid)
	if err != nil {
		return err
	}

	table := entityToTable(resp)
	if err := s.repo.UpsertTable(ctx, table); err != nil {
		return err
	}
	summary.Tables++

	for _, colGUID := range resp.Entity.RelatedGUIDs("columns") {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sync canceled: %w", err)
		}
		if err := s.syncColumn(ctx, colGUID, summary); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("column %s: %v", colGUID, err))
			s.logger.Warn("Column sync failed",
				zap.String("guid", colGUID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *syncService) syncColumn(ctx context.Context, guid string, summary *SyncSummary) error {
	resp, err := s.fetchEntity(ctx, guid)
	if err != nil {
		return err
	}

	column := entityToColumn(resp)
	if err := s.repo.UpsertColumn(ctx, column); err != nil {
		return err
	}
	summary.Columns++
	return nil
}

func (s *syncService) fetchEntity(ctx context.Context, guid string) (*atlas.EntityResponse, error) {
	var resp *atlas.EntityResponse
	err := retry.Do(ctx, s.retryCfg, func() error {
		var err error
		resp, err = s.catalog.GetEntity(ctx, guid)
		return err
	})
	return resp, err
}

func (s *syncService) SyncGlossary(ctx context.Context) (int, error) {
	var glossaries []atlas.Glossary
	err := retry.Do(ctx, s.retryCfg, func() error {
		var err error
		glossaries, err = s.catalog.GetGlossaries(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("glossary fetch failed: %w", err)
	}

	var terms []models.GlossaryTerm
	for _, g := range glossaries {
		for _, t := range g.Terms {
			terms = append(terms, models.GlossaryTerm{
				TermGUID:    t.TermGUID,
				DisplayText: t.DisplayText,
			})
		}
	}

	if err := s.repo.ReplaceGlossaryTerms(ctx, terms); err != nil {
		return 0, err
	}

	s.logger.Info("Glossary synced", zap.Int("terms", len(terms)))
	return len(terms), nil
}

func entityToDatabase(resp *atlas.EntityResponse) *models.HiveDatabase {
	e := resp.Entity
	return &models.HiveDatabase{
		GUID:          e.GUID,
		Name:          e.StringAttr("name"),
		QualifiedName: e.StringAttr("qualifiedName"),
		Location:      optionalAttr(e, "location"),
		Owner:         optionalAttr(e, "owner"),
		Description:   optionalAttr(e, "description"),
		CreatedBy:     optionalString(e.CreatedBy),
		UpdatedBy:     optionalString(e.UpdatedBy),
		CreateTime:    optionalInt64(e.CreateTime),
		UpdateTime:    optionalInt64(e.UpdateTime),
		RawEntity:     rawEntity(resp),
	}
}

func entityToTable(resp *atlas.EntityResponse) *models.HiveTable {
	e := resp.Entity
	table := &models.HiveTable{
		GUID:            e.GUID,
		Name:            e.StringAttr("name"),
		QualifiedName:   e.StringAttr("qualifiedName"),
		Owner:           optionalAttr(e, "owner"),
		Description:     optionalAttr(e, "description"),
		Temporary:       e.BoolAttr("temporary"),
		TableType:       optionalAttr(e, "tableType"),
		Classifications: e.ClassificationNames(),
		RetentionPeriod: e.IntAttr("retention"),
		CreatedBy:       optionalString(e.CreatedBy),
		UpdatedBy:       optionalString(e.UpdatedBy),
		CreateTime:      optionalInt64(e.CreateTime),
		RawEntity:       rawEntity(resp),
	}
	if guid := parentGUID(e, "db"); guid != "" {
		table.DBGUID = &guid
	}
	if name := e.RelatedDisplayText("db"); name != "" {
		table.DBName = &name
	}
	return table
}

func entityToColumn(resp *atlas.EntityResponse) *models.HiveColumn {
	e := resp.Entity
	column := &models.HiveColumn{
		GUID:            e.GUID,
		Name:            e.StringAttr("name"),
		QualifiedName:   e.StringAttr("qualifiedName"),
		ColumnType:      optionalAttr(e, "type"),
		Position:        e.IntAttr("position"),
		Owner:           optionalAttr(e, "owner"),
		Description:     optionalAttr(e, "description"),
		Classifications: e.ClassificationNames(),
		CreatedBy:       optionalString(e.CreatedBy),
		UpdatedBy:       optionalString(e.UpdatedBy),
		CreateTime:      optionalInt64(e.CreateTime),
		UpdateTime:      optionalInt64(e.UpdateTime),
		RawEntity:       rawEntity(resp),
	}
	if guid := parentGUID(e, "table"); guid != "" {
		column.TableGUID = &guid
	}
	if name := e.RelatedDisplayText("table"); name != "" {
		column.TableName = &name
	}
	return column
}

// parentGUID resolves a parent reference that catalogs place either in the
// typed attributes or in the relationship attributes.
func parentGUID(e *atlas.Entity, name string) string {
	if guid := e.AttrRefGUID(name); guid != "" {
		return guid
	}
	return e.RelatedGUID(name)
}

func rawEntity(resp *atlas.EntityResponse) json.RawMessage {
	if len(resp.Raw) == 0 {
		return nil
	}
	return resp.Raw
}

func optionalAttr(e *atlas.Entity, name string) *string {
	return optionalString(e.StringAttr(name))
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func optionalInt64(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
