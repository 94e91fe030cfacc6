package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/governx-inc/governx-engine/pkg/apperrors"
	"github.com/governx-inc/governx-engine/pkg/jsonutil"
	"github.com/governx-inc/governx-engine/pkg/llm"
	"github.com/governx-inc/governx-engine/pkg/models"
	"github.com/governx-inc/governx-engine/pkg/prompts"
	"github.com/governx-inc/governx-engine/pkg/repositories"
	"github.com/governx-inc/governx-engine/pkg/retry"
)

// SuggestionResult reports the recommendations created by one suggestion
// run, plus any per-item issues that were skipped over.
type SuggestionResult struct {
	Created []*models.Recommendation `json:"created"`
	Skipped []string                 `json:"skipped,omitempty"`
}

// tagRelationshipResponse is the expected JSON shape of the tag/relationship
// batch completion.
type tagRelationshipResponse struct {
	Tags          map[string][]string      `json:"tags"`
	Relationships []relationshipSuggestion `json:"relationships"`
}

type relationshipSuggestion struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// classificationRetentionResponse is the expected JSON shape of the
// classification/retention batch completion. Retention values stay raw
// because models return both 90 and "90 days".
type classificationRetentionResponse struct {
	Classifications map[string]string          `json:"classifications"`
	Retention       map[string]json.RawMessage `json:"retention"`
}

// SuggestionService orchestrates LLM-backed metadata suggestions. Every
// accepted suggestion lands as a pending recommendation; nothing is applied
// to snapshots directly.
type SuggestionService interface {
	// CompleteMetadata suggests values for the unset metadata attributes of
	// one entity, creating one pending recommendation per suggested field.
	CompleteMetadata(ctx context.Context, kind models.EntityKind, guid string) (*SuggestionResult, error)

	// SuggestTags suggests governance tags and inter-column relationships
	// for a batch of columns. Each relationship creates two directional
	// recommendations, one on each endpoint.
	SuggestTags(ctx context.Context, columnGUIDs []string) (*SuggestionResult, error)

	// SuggestClassifications suggests sensitivity classifications for the
	// columns and retention periods for their parent tables. Retention is
	// only suggested for tables with no retention period set.
	SuggestClassifications(ctx context.Context, columnGUIDs []string) (*SuggestionResult, error)
}

type suggestionService struct {
	snapshots repositories.SnapshotRepository
	recs      repositories.RecommendationRepository
	completer llm.CompletionClient
	retryCfg  *retry.Config
	logger    *zap.Logger
}

// NewSuggestionService creates a new SuggestionService.
func NewSuggestionService(
	snapshots repositories.SnapshotRepository,
	recs repositories.RecommendationRepository,
	completer llm.CompletionClient,
	logger *zap.Logger,
) SuggestionService {
	return &suggestionService{
		snapshots: snapshots,
		recs:      recs,
		completer: completer,
		retryCfg:  retry.DefaultConfig(),
		logger:    logger.Named("suggestion-service"),
	}
}

var _ SuggestionService = (*suggestionService)(nil)

// completableFields are the attributes the completion mode may fill in,
// per entity kind.
var completableFields = map[models.EntityKind][]string{
	models.EntityKindDatabase: {"description", "owner", "location"},
	models.EntityKindTable:    {"description", "owner"},
	models.EntityKindColumn:   {"description", "owner"},
}

func (s *suggestionService) CompleteMetadata(ctx context.Context, kind models.EntityKind, guid string) (*SuggestionResult, error) {
	entity, err := s.loadEntityContext(ctx, kind, guid)
	if err != nil {
		return nil, err
	}

	result := &SuggestionResult{}
	if len(entity.Missing) == 0 {
		return result, nil
	}

	response, err := s.complete(ctx, prompts.BuildCompletionPrompt(*entity))
	if err != nil {
		return nil, err
	}

	suggestions, err := llm.ParseJSONResponse[map[string]json.RawMessage](response)
	if err != nil {
		return nil, err
	}

	missing := make(map[string]bool, len(entity.Missing))
	for _, f := range entity.Missing {
		missing[f] = true
	}

	for _, field := range sortedKeys(suggestions) {
		value := jsonutil.FlexibleStringValue(suggestions[field])
		if !missing[field] || value == "" {
			result.Skipped = append(result.Skipped, fmt.Sprintf("field %q not requested", field))
			continue
		}
		rec := &models.Recommendation{
			EntityKind:     kind,
			EntityGUID:     guid,
			Field:          field,
			SuggestedValue: value,
		}
		if err := s.recs.Create(ctx, rec); err != nil {
			return nil, err
		}
		result.Created = append(result.Created, rec)
	}

	s.logger.Info("Metadata completion finished",
		zap.String("kind", string(kind)),
		zap.String("guid", guid),
		zap.Int("created", len(result.Created)))
	return result, nil
}

func (s *suggestionService) SuggestTags(ctx context.Context, columnGUIDs []string) (*SuggestionResult, error) {
	result := &SuggestionResult{}

	contexts, err := s.loadColumnContexts(ctx, columnGUIDs, result)
	if err != nil {
		return nil, err
	}

	response, err := s.complete(ctx, prompts.BuildTagRelationshipPrompt(contexts))
	if err != nil {
		return nil, err
	}

	parsed, err := llm.ParseJSONResponse[tagRelationshipResponse](response)
	if err != nil {
		return nil, err
	}

	for _, qn := range sortedKeys(parsed.Tags) {
		ref, err := s.resolveByQualifiedName(ctx, qn)
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("tags: unknown qualified name %q", qn))
			continue
		}
		for _, tag := range parsed.Tags[qn] {
			rec := &models.Recommendation{
				EntityKind:     ref.Kind,
				EntityGUID:     ref.GUID,
				Field:          "tags",
				SuggestedValue: tag,
			}
			if err := s.recs.Create(ctx, rec); err != nil {
				return nil, err
			}
			result.Created = append(result.Created, rec)
		}
	}

	for _, rel := range parsed.Relationships {
		if err := s.createRelationshipRecommendations(ctx, rel, result); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Tag suggestion finished",
		zap.Int("columns", len(contexts)),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

// createRelationshipRecommendations writes one directional recommendation
// on each endpoint of a suggested relationship.
func (s *suggestionService) createRelationshipRecommendations(ctx context.Context, rel relationshipSuggestion, result *SuggestionResult) error {
	source, err := s.resolveByQualifiedName(ctx, rel.From)
	if err != nil {
		result.Skipped = append(result.Skipped, fmt.Sprintf("relationship: unknown qualified name %q", rel.From))
		return nil
	}
	target, err := s.resolveByQualifiedName(ctx, rel.To)
	if err != nil {
		result.Skipped = append(result.Skipped, fmt.Sprintf("relationship: unknown qualified name %q", rel.To))
		return nil
	}

	pair := []*models.Recommendation{
		{
			EntityKind:     source.Kind,
			EntityGUID:     source.GUID,
			Field:          "relationship",
			SuggestedValue: fmt.Sprintf("%s to %s", rel.Type, rel.To),
		},
		{
			EntityKind:     target.Kind,
			EntityGUID:     target.GUID,
			Field:          "relationship",
			SuggestedValue: fmt.Sprintf("%s from %s", rel.Type, rel.From),
		},
	}
	for _, rec := range pair {
		if err := s.recs.Create(ctx, rec); err != nil {
			return err
		}
		result.Created = append(result.Created, rec)
	}
	return nil
}

func (s *suggestionService) SuggestClassifications(ctx context.Context, columnGUIDs []string) (*SuggestionResult, error) {
	result := &SuggestionResult{}

	contexts, err := s.loadColumnContexts(ctx, columnGUIDs, result)
	if err != nil {
		return nil, err
	}

	tables, err := s.loadParentTables(ctx, columnGUIDs, result)
	if err != nil {
		return nil, err
	}

	response, err := s.complete(ctx, prompts.BuildClassificationRetentionPrompt(contexts, tables))
	if err != nil {
		return nil, err
	}

	parsed, err := llm.ParseJSONResponse[classificationRetentionResponse](response)
	if err != nil {
		return nil, err
	}

	for _, qn := range sortedKeys(parsed.Classifications) {
		ref, err := s.resolveByQualifiedName(ctx, qn)
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("classification: unknown qualified name %q", qn))
			continue
		}
		rec := &models.Recommendation{
			EntityKind:     ref.Kind,
			EntityGUID:     ref.GUID,
			Field:          "classification",
			SuggestedValue: parsed.Classifications[qn],
		}
		if err := s.recs.Create(ctx, rec); err != nil {
			return nil, err
		}
		result.Created = append(result.Created, rec)
	}

	for _, tableName := range sortedKeys(parsed.Retention) {
		days, ok := jsonutil.FlexibleIntValue(parsed.Retention[tableName])
		if !ok {
			result.Skipped = append(result.Skipped, fmt.Sprintf("retention: unusable value for table %q", tableName))
			continue
		}
		table, err := s.snapshots.GetTableByName(ctx, tableName)
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("retention: unknown table %q", tableName))
			continue
		}
		// Never override an explicit retention period with a suggestion.
		if table.RetentionPeriod != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("retention: table %q already set", tableName))
			continue
		}
		rec := &models.Recommendation{
			EntityKind:     models.EntityKindTable,
			EntityGUID:     table.GUID,
			Field:          "retention_period",
			SuggestedValue: strconv.Itoa(days),
		}
		if err := s.recs.Create(ctx, rec); err != nil {
			return nil, err
		}
		result.Created = append(result.Created, rec)
	}

	s.logger.Info("Classification suggestion finished",
		zap.Int("columns", len(contexts)),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func (s *suggestionService) complete(ctx context.Context, prompt string) (string, error) {
	var response string
	err := retry.Do(ctx, s.retryCfg, func() error {
		var err error
		response, err = s.completer.Complete(ctx, prompt)
		return err
	})
	if err != nil {
		s.logger.Warn("Completion failed",
			zap.Bool("retryable", llm.IsRetryable(err)),
			zap.Error(err))
	}
	return response, err
}

// loadEntityContext builds the prompt context for one entity, splitting its
// completable attributes into known and missing.
func (s *suggestionService) loadEntityContext(ctx context.Context, kind models.EntityKind, guid string) (*prompts.EntityContext, error) {
	entity := &prompts.EntityContext{Kind: string(kind), Known: make(map[string]string)}

	var attrs map[string]*string
	switch kind {
	case models.EntityKindDatabase:
		db, err := s.snapshots.GetDatabase(ctx, guid)
		if err != nil {
			return nil, err
		}
		entity.Name = db.Name
		entity.QualifiedName = db.QualifiedName
		attrs = map[string]*string{
			"description": db.Description,
			"owner":       db.Owner,
			"location":    db.Location,
		}
	case models.EntityKindTable:
		table, err := s.snapshots.GetTable(ctx, guid)
		if err != nil {
			return nil, err
		}
		entity.Name = table.Name
		entity.QualifiedName = table.QualifiedName
		attrs = map[string]*string{
			"description": table.Description,
			"owner":       table.Owner,
		}
	case models.EntityKindColumn:
		column, err := s.snapshots.GetColumn(ctx, guid)
		if err != nil {
			return nil, err
		}
		entity.Name = column.Name
		entity.QualifiedName = column.QualifiedName
		attrs = map[string]*string{
			"description": column.Description,
			"owner":       column.Owner,
		}
		if column.ColumnType != nil {
			entity.Known["type"] = *column.ColumnType
		}
		if column.TableName != nil {
			entity.Known["table"] = *column.TableName
		}
	default:
		return nil, fmt.Errorf("kind %q: %w", kind, apperrors.ErrInvalidStatus)
	}

	for _, field := range completableFields[kind] {
		if v := attrs[field]; v != nil && *v != "" {
			entity.Known[field] = *v
		} else {
			entity.Missing = append(entity.Missing, field)
		}
	}
	return entity, nil
}

// loadColumnContexts loads each requested column snapshot, skipping unknown
// guids. At least one column must resolve.
func (s *suggestionService) loadColumnContexts(ctx context.Context, columnGUIDs []string, result *SuggestionResult) ([]prompts.ColumnContext, error) {
	var contexts []prompts.ColumnContext
	for _, guid := range columnGUIDs {
		column, err := s.snapshots.GetColumn(ctx, guid)
		if errors.Is(err, apperrors.ErrNotFound) {
			result.Skipped = append(result.Skipped, fmt.Sprintf("column %s not found", guid))
			continue
		}
		if err != nil {
			return nil, err
		}

		c := prompts.ColumnContext{
			Name:            column.Name,
			QualifiedName:   column.QualifiedName,
			Classifications: column.Classifications,
		}
		if column.ColumnType != nil {
			c.DataType = *column.ColumnType
		}
		if column.TableName != nil {
			c.TableName = *column.TableName
		}
		if column.Description != nil {
			c.Description = *column.Description
		}
		contexts = append(contexts, c)
	}

	if len(contexts) == 0 {
		return nil, fmt.Errorf("no resolvable columns in batch: %w", apperrors.ErrEntityNotFound)
	}
	return contexts, nil
}

// loadParentTables collects the distinct parent tables of the requested
// columns for retention prompting.
func (s *suggestionService) loadParentTables(ctx context.Context, columnGUIDs []string, result *SuggestionResult) ([]prompts.TableContext, error) {
	seen := make(map[string]bool)
	var tables []prompts.TableContext

	for _, guid := range columnGUIDs {
		column, err := s.snapshots.GetColumn(ctx, guid)
		if err != nil {
			continue
		}
		if column.TableGUID == nil || seen[*column.TableGUID] {
			continue
		}
		seen[*column.TableGUID] = true

		table, err := s.snapshots.GetTable(ctx, *column.TableGUID)
		if errors.Is(err, apperrors.ErrNotFound) {
			result.Skipped = append(result.Skipped, fmt.Sprintf("table %s not found", *column.TableGUID))
			continue
		}
		if err != nil {
			return nil, err
		}

		t := prompts.TableContext{
			Name:            table.Name,
			QualifiedName:   table.QualifiedName,
			RetentionPeriod: table.RetentionPeriod,
			Classifications: table.Classifications,
		}
		if table.Description != nil {
			t.Description = *table.Description
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// resolveByQualifiedName maps a qualified name back to a snapshot entity,
// trying columns first, then tables.
func (s *suggestionService) resolveByQualifiedName(ctx context.Context, qualifiedName string) (*models.EntityRef, error) {
	column, err := s.snapshots.GetColumnByQualifiedName(ctx, qualifiedName)
	if err == nil {
		return &models.EntityRef{Kind: models.EntityKindColumn, GUID: column.GUID}, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	table, err := s.snapshots.GetTableByQualifiedName(ctx, qualifiedName)
	if err == nil {
		return &models.EntityRef{Kind: models.EntityKindTable, GUID: table.GUID}, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	return nil, fmt.Errorf("qualified name %q: %w", qualifiedName, apperrors.ErrEntityNotFound)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
