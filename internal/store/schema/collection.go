package schema

import "time"

// Collection represents the sbt_collections table
type Collection struct {
	Address       string    `gorm:"column:address;primaryKey;type:text"`
	OwnerAddress  string    `gorm:"column:owner_address;not null;type:text"`
	NextItemIndex int64     `gorm:"column:next_item_index;not null;default:0;type:bigint"`
	Content       []byte    `gorm:"column:content;type:bytea"`
	CommonContent []byte    `gorm:"column:common_content;type:bytea"`
	CreatedAt     time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Collection model
func (Collection) TableName() string {
	return "sbt_collections"
}
