package schema

import (
	"time"

	"gorm.io/datatypes"
)

// SubjectType represents the type of entity that was changed
type SubjectType string

const (
	// SubjectTypeItem indicates a change to an item (init, revoke, destroy)
	SubjectTypeItem SubjectType = "item"
	// SubjectTypeCollection indicates a change to a collection (mint)
	SubjectTypeCollection SubjectType = "collection"
)

// ChangesJournal represents the changes_journal table - audit log of every committed state change
type ChangesJournal struct {
	// Cursor is an auto-incrementing sequence number for pagination and ordering
	Cursor int64 `gorm:"column:\"cursor\";primaryKey;autoIncrement"`
	// SubjectType identifies what kind of entity changed
	SubjectType SubjectType `gorm:"column:subject_type;not null;type:text"`
	// SubjectID is the address of the changed entity
	SubjectID string `gorm:"column:subject_id;not null;type:text;index"`
	// ChangedAt is the timestamp when the change occurred
	ChangedAt time.Time `gorm:"column:changed_at;not null;default:now();type:timestamptz"`
	// Meta holds the operation that caused the change as JSON
	Meta datatypes.JSON `gorm:"column:meta;type:jsonb"`
}

// TableName specifies the table name for the ChangesJournal model
func (ChangesJournal) TableName() string {
	return "changes_journal"
}
