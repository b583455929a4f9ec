package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
)

type memoryStore struct {
	mu          sync.RWMutex
	items       map[cell.Address]*domain.Item
	collections map[cell.Address]*domain.Collection
	changes     []domain.Change
}

// NewMemoryStore creates a store that keeps everything in process memory.
// It backs the emulator when no database is configured.
func NewMemoryStore() Store {
	return &memoryStore{
		items:       make(map[cell.Address]*domain.Item),
		collections: make(map[cell.Address]*domain.Collection),
	}
}

func (s *memoryStore) GetItem(_ context.Context, address cell.Address) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[address]
	if !ok {
		return nil, nil
	}
	return item.Clone(), nil
}

func (s *memoryStore) SaveItem(_ context.Context, item *domain.Item, meta domain.ChangeMeta) error {
	// same range checks as the database
	if _, err := itemToSchema(item); err != nil {
		return err
	}
	if meta.State == "" && item.State != nil {
		meta.State = item.State.Name()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.Address] = item.Clone()
	s.appendChange(domain.SubjectTypeItem, item.Address, meta)
	return nil
}

func (s *memoryStore) SaveMint(_ context.Context, mint Mint) error {
	if _, err := itemToSchema(mint.Item); err != nil {
		return err
	}
	if mint.Collection != nil {
		if _, err := collectionToSchema(mint.Collection); err != nil {
			return err
		}
	}
	itemMeta := mint.ItemMeta
	if itemMeta.State == "" && mint.Item.State != nil {
		itemMeta.State = mint.Item.State.Name()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[mint.Item.Address] = mint.Item.Clone()
	s.appendChange(domain.SubjectTypeItem, mint.Item.Address, itemMeta)
	if mint.Collection != nil {
		s.collections[mint.Collection.Address] = mint.Collection.Clone()
		s.appendChange(domain.SubjectTypeCollection, mint.Collection.Address, mint.CollectionMeta)
	}
	return nil
}

func (s *memoryStore) ListItems(_ context.Context, filter ItemFilter) ([]*domain.Item, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Item
	for _, item := range s.items {
		if !filter.Collection.IsNone() && !item.Collection.Equal(filter.Collection) {
			continue
		}
		if !filter.Owner.IsNone() && !item.Owner().Equal(filter.Owner) {
			continue
		}
		matched = append(matched, item)
	}
	sort.Slice(matched, func(i, j int) bool {
		ci, cj := matched[i].Collection.String(), matched[j].Collection.String()
		if ci != cj {
			return ci < cj
		}
		return matched[i].Index < matched[j].Index
	})

	total := uint64(len(matched))
	start := min(max(filter.Offset, 0), len(matched))
	end := min(start+normalizeLimit(filter.Limit), len(matched))
	out := make([]*domain.Item, 0, end-start)
	for _, item := range matched[start:end] {
		out = append(out, item.Clone())
	}
	return out, total, nil
}

func (s *memoryStore) GetCollection(_ context.Context, address cell.Address) (*domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[address]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

func (s *memoryStore) SaveCollection(_ context.Context, collection *domain.Collection, meta domain.ChangeMeta) error {
	if _, err := collectionToSchema(collection); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection.Address] = collection.Clone()
	s.appendChange(domain.SubjectTypeCollection, collection.Address, meta)
	return nil
}

func (s *memoryStore) GetChanges(_ context.Context, subject cell.Address, since uint64, limit int) ([]domain.Change, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit = normalizeLimit(limit)
	var out []domain.Change
	for _, c := range s.changes {
		if c.Cursor <= since {
			continue
		}
		if !subject.IsNone() && !c.Subject.Equal(subject) {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// appendChange must be called with s.mu held
func (s *memoryStore) appendChange(subjectType domain.SubjectType, subject cell.Address, meta domain.ChangeMeta) {
	s.changes = append(s.changes, domain.Change{
		Cursor:      uint64(len(s.changes) + 1),
		SubjectType: subjectType,
		Subject:     subject,
		ChangedAt:   time.Now(),
		Meta:        meta,
	})
}
