package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/logger"
	"github.com/feral-file/ff-sbt/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// Zero values fall back to the defaults of NormalizeConnectionPoolSettings.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	maxIdleConns = min(maxIdleConns, maxOpenConns)

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// GetItem retrieves an item by address
func (s *pgStore) GetItem(ctx context.Context, address cell.Address) (*domain.Item, error) {
	var row schema.Item
	err := s.db.WithContext(ctx).Where("address = ?", address.String()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return itemFromSchema(&row)
}

// SaveItem upserts the item row and appends a journal entry
func (s *pgStore) SaveItem(ctx context.Context, item *domain.Item, meta domain.ChangeMeta) error {
	row, err := itemToSchema(item)
	if err != nil {
		return err
	}
	if meta.State == "" {
		meta.State = string(row.State)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertItem(tx, row, meta); err != nil {
			return err
		}

		logger.DebugCtx(ctx, "Item saved",
			zap.String("address", row.Address),
			zap.String("state", string(row.State)),
			zap.String("op", meta.Op),
		)
		return nil
	})
}

// SaveMint upserts the minted item and the advanced collection in one transaction
func (s *pgStore) SaveMint(ctx context.Context, mint Mint) error {
	itemRow, err := itemToSchema(mint.Item)
	if err != nil {
		return err
	}
	itemMeta := mint.ItemMeta
	if itemMeta.State == "" {
		itemMeta.State = string(itemRow.State)
	}
	var collectionRow *schema.Collection
	if mint.Collection != nil {
		if collectionRow, err = collectionToSchema(mint.Collection); err != nil {
			return err
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertItem(tx, itemRow, itemMeta); err != nil {
			return err
		}
		if collectionRow != nil {
			if err := upsertCollection(tx, collectionRow, mint.CollectionMeta); err != nil {
				return err
			}
		}

		logger.DebugCtx(ctx, "Mint saved",
			zap.String("item", itemRow.Address),
			zap.Bool("collection_advanced", collectionRow != nil),
		)
		return nil
	})
}

// ListItems returns items matching the filter ordered by collection and index
func (s *pgStore) ListItems(ctx context.Context, filter ItemFilter) ([]*domain.Item, uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.Item{})
	if !filter.Collection.IsNone() {
		query = query.Where("collection_address = ?", filter.Collection.String())
	}
	if !filter.Owner.IsNone() {
		query = query.Where("owner_address = ?", filter.Owner.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	var rows []schema.Item
	err := query.
		Order("collection_address ASC, item_index ASC").
		Limit(normalizeLimit(filter.Limit)).
		Offset(filter.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}

	items := make([]*domain.Item, 0, len(rows))
	for i := range rows {
		item, err := itemFromSchema(&rows[i])
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, uint64(total), nil //nolint:gosec,G115
}

// GetCollection retrieves a collection by address
func (s *pgStore) GetCollection(ctx context.Context, address cell.Address) (*domain.Collection, error) {
	var row schema.Collection
	err := s.db.WithContext(ctx).Where("address = ?", address.String()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return collectionFromSchema(&row)
}

// SaveCollection upserts the collection row and appends a journal entry
func (s *pgStore) SaveCollection(ctx context.Context, collection *domain.Collection, meta domain.ChangeMeta) error {
	row, err := collectionToSchema(collection)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertCollection(tx, row, meta)
	})
}

// GetChanges returns journal entries after the cursor
func (s *pgStore) GetChanges(ctx context.Context, subject cell.Address, since uint64, limit int) ([]domain.Change, error) {
	query := s.db.WithContext(ctx).Model(&schema.ChangesJournal{}).Where("\"cursor\" > ?", since)
	if !subject.IsNone() {
		query = query.Where("subject_id = ?", subject.String())
	}

	var rows []schema.ChangesJournal
	if err := query.Order("\"cursor\" ASC").Limit(normalizeLimit(limit)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get changes: %w", err)
	}

	changes := make([]domain.Change, 0, len(rows))
	for _, row := range rows {
		subject, err := cell.ParseAddress(row.SubjectID)
		if err != nil {
			return nil, fmt.Errorf("invalid subject address: %w", err)
		}
		var meta domain.ChangeMeta
		if len(row.Meta) > 0 {
			if err := json.Unmarshal(row.Meta, &meta); err != nil {
				return nil, fmt.Errorf("failed to unmarshal change meta: %w", err)
			}
		}
		changes = append(changes, domain.Change{
			Cursor:      uint64(row.Cursor), //nolint:gosec,G115
			SubjectType: domain.SubjectType(row.SubjectType),
			Subject:     subject,
			ChangedAt:   row.ChangedAt,
			Meta:        meta,
		})
	}
	return changes, nil
}

func upsertItem(tx *gorm.DB, row *schema.Item, meta domain.ChangeMeta) error {
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"state", "owner_address", "authority_address", "content", "revoked_at", "updated_at",
		}),
	}).Create(row).Error; err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}
	return journal(tx, schema.SubjectTypeItem, row.Address, meta)
}

func upsertCollection(tx *gorm.DB, row *schema.Collection, meta domain.ChangeMeta) error {
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"owner_address", "next_item_index", "content", "common_content", "updated_at",
		}),
	}).Create(row).Error; err != nil {
		return fmt.Errorf("failed to upsert collection: %w", err)
	}
	return journal(tx, schema.SubjectTypeCollection, row.Address, meta)
}

func journal(tx *gorm.DB, subjectType schema.SubjectType, subjectID string, meta domain.ChangeMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal change meta: %w", err)
	}
	metaJSON, err := jcs.Transform(raw)
	if err != nil {
		return fmt.Errorf("failed to canonicalize change meta: %w", err)
	}
	entry := schema.ChangesJournal{
		SubjectType: subjectType,
		SubjectID:   subjectID,
		ChangedAt:   time.Now(),
		Meta:        metaJSON,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to create change journal: %w", err)
	}
	return nil
}
