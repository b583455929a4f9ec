package schema

import "time"

// ItemState mirrors the item lifecycle
type ItemState string

const (
	ItemStateUninitialized ItemState = "uninitialized"
	ItemStateActive        ItemState = "active"
	ItemStateDestroyed     ItemState = "destroyed"
)

// Item represents the sbt_items table - the persistent state of one soulbound token
type Item struct {
	// Address is the raw item address (workchain:hex)
	Address string `gorm:"column:address;primaryKey;type:text"`
	// CollectionAddress is the collection that deployed the item
	CollectionAddress string `gorm:"column:collection_address;not null;type:text;index"`
	// ItemIndex is the item's position within its collection
	ItemIndex int64 `gorm:"column:item_index;not null;type:bigint"`
	// State is one of uninitialized, active, destroyed
	State ItemState `gorm:"column:state;not null;type:text"`
	// OwnerAddress is set only while active
	OwnerAddress *string `gorm:"column:owner_address;type:text;index"`
	// AuthorityAddress is set only while active and an authority was given
	AuthorityAddress *string `gorm:"column:authority_address;type:text"`
	// Content is the CBOR-encoded individual content cell
	Content []byte `gorm:"column:content;type:bytea"`
	// RevokedAt is the unix revocation time, zero while not revoked
	RevokedAt int64 `gorm:"column:revoked_at;not null;default:0;type:bigint"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Item model
func (Item) TableName() string {
	return "sbt_items"
}
