package store

import (
	"context"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
)

// ItemFilter narrows ListItems
type ItemFilter struct {
	Collection cell.Address
	Owner      cell.Address
	Limit      int
	Offset     int
}

// Mint is a newly deployed item together with the collection update that
// deployed it. Collection is nil when the collection row does not change.
type Mint struct {
	Item           *domain.Item
	ItemMeta       domain.ChangeMeta
	Collection     *domain.Collection
	CollectionMeta domain.ChangeMeta
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// GetItem retrieves an item by address, nil when it does not exist
	GetItem(ctx context.Context, address cell.Address) (*domain.Item, error)
	// SaveItem upserts an item and journals the change in one transaction
	SaveItem(ctx context.Context, item *domain.Item, meta domain.ChangeMeta) error
	// ListItems returns items matching the filter and the total match count
	ListItems(ctx context.Context, filter ItemFilter) ([]*domain.Item, uint64, error)
	// GetCollection retrieves a collection by address, nil when it does not exist
	GetCollection(ctx context.Context, address cell.Address) (*domain.Collection, error)
	// SaveCollection upserts a collection and journals the change in one transaction
	SaveCollection(ctx context.Context, collection *domain.Collection, meta domain.ChangeMeta) error
	// SaveMint writes the item and the collection, with their journal
	// entries, in one transaction
	SaveMint(ctx context.Context, mint Mint) error
	// GetChanges returns journal entries after the cursor, oldest first.
	// A none subject matches every subject.
	GetChanges(ctx context.Context, subject cell.Address, since uint64, limit int) ([]domain.Change, error)
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}
