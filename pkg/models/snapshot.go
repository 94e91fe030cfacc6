package models

import (
	"encoding/json"
	"time"
)

// EntityKind identifies which catalog entity variant a reference points at.
type EntityKind string

const (
	EntityKindDatabase EntityKind = "database"
	EntityKindTable    EntityKind = "table"
	EntityKindColumn   EntityKind = "column"
)

// Valid reports whether the kind is one of the three snapshot variants.
func (k EntityKind) Valid() bool {
	switch k {
	case EntityKindDatabase, EntityKindTable, EntityKindColumn:
		return true
	}
	return false
}

// EntityRef is a polymorphic reference to one catalog entity snapshot.
// GUIDs are globally unique across the whole catalog regardless of kind,
// so the pair is redundant but lets callers skip a registry lookup.
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	GUID string     `json:"guid"`
}

// HiveDatabase is a locally cached snapshot of one catalog database entity.
type HiveDatabase struct {
	GUID          string          `json:"guid"`
	Name          string          `json:"name"`
	QualifiedName string          `json:"qualified_name"`
	Location      *string         `json:"location,omitempty"`
	Owner         *string         `json:"owner,omitempty"`
	Description   *string         `json:"description,omitempty"`
	CreatedBy     *string         `json:"created_by,omitempty"`
	UpdatedBy     *string         `json:"updated_by,omitempty"`
	CreateTime    *int64          `json:"create_time,omitempty"`
	UpdateTime    *int64          `json:"update_time,omitempty"`
	RawEntity     json.RawMessage `json:"raw_entity,omitempty"`
	SyncedAt      time.Time       `json:"synced_at"`
}

// HiveTable is a locally cached snapshot of one catalog table entity.
type HiveTable struct {
	GUID            string          `json:"guid"`
	Name            string          `json:"name"`
	QualifiedName   string          `json:"qualified_name"`
	Owner           *string         `json:"owner,omitempty"`
	Description     *string         `json:"description,omitempty"`
	Temporary       bool            `json:"temporary"`
	TableType       *string         `json:"table_type,omitempty"`
	DBGUID          *string         `json:"db_guid,omitempty"`
	DBName          *string         `json:"db_name,omitempty"`
	Classifications []string        `json:"classifications,omitempty"`
	RetentionPeriod *int            `json:"retention_period,omitempty"` // Retention in days
	CreatedBy       *string         `json:"created_by,omitempty"`
	UpdatedBy       *string         `json:"updated_by,omitempty"`
	CreateTime      *int64          `json:"create_time,omitempty"`
	RawEntity       json.RawMessage `json:"raw_entity,omitempty"`
	SyncedAt        time.Time       `json:"synced_at"`
}

// HiveColumn is a locally cached snapshot of one catalog column entity.
type HiveColumn struct {
	GUID            string          `json:"guid"`
	Name            string          `json:"name"`
	QualifiedName   string          `json:"qualified_name"`
	ColumnType      *string         `json:"column_type,omitempty"`
	Position        *int            `json:"position,omitempty"`
	Owner           *string         `json:"owner,omitempty"`
	Description     *string         `json:"description,omitempty"`
	TableGUID       *string         `json:"table_guid,omitempty"`
	TableName       *string         `json:"table_name,omitempty"`
	Classifications []string        `json:"classifications,omitempty"`
	CreatedBy       *string         `json:"created_by,omitempty"`
	UpdatedBy       *string         `json:"updated_by,omitempty"`
	CreateTime      *int64          `json:"create_time,omitempty"`
	UpdateTime      *int64          `json:"update_time,omitempty"`
	RawEntity       json.RawMessage `json:"raw_entity,omitempty"`
	SyncedAt        time.Time       `json:"synced_at"`
}

// GlossaryTerm is a catalog glossary term. Unlike core snapshots, the term
// set is replaced wholesale on re-sync so stale terms are pruned.
type GlossaryTerm struct {
	TermGUID    string `json:"term_guid"`
	DisplayText string `json:"display_text"`
}
