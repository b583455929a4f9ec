package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/content"
	"github.com/feral-file/ff-sbt/internal/domain"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func testAddress(n byte) cell.Address {
	var hash [32]byte
	for i := range hash {
		hash[i] = n
	}
	return cell.NewAddress(domain.BASECHAIN, hash)
}

func buildActiveItem(addr cell.Address, index uint64, collection, owner, authority cell.Address) *domain.Item {
	item := domain.NewUninitializedItem(addr, index, collection)
	item.State = domain.Active{Owner: owner, Authority: authority}
	item.Content = content.Encode([]byte(fmt.Sprintf("item-%d.json", index)))
	return item
}

// RunStoreTests runs the shared suite against a Store implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"ItemLifecycle", testItemLifecycle},
		{"GetItemNotFound", testGetItemNotFound},
		{"ListItems", testListItems},
		{"Collection", testCollection},
		{"GetChanges", testGetChanges},
		{"IndexOutOfRange", testIndexOutOfRange},
		{"SaveMint", testSaveMint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, initDB(t))
		})
	}
}

func testItemLifecycle(t *testing.T, store Store) {
	ctx := context.Background()
	collection := testAddress(0xc0)
	owner := testAddress(0x01)
	authority := testAddress(0x02)
	addr := testAddress(0xa0)

	t.Run("uninitialized item round trips", func(t *testing.T) {
		item := domain.NewUninitializedItem(addr, 0, collection)
		require.NoError(t, store.SaveItem(ctx, item, domain.ChangeMeta{Op: "deploy"}))

		got, err := store.GetItem(ctx, addr)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.False(t, got.Initialized())
		assert.True(t, got.Collection.Equal(collection))
		assert.Nil(t, got.Content)
	})

	t.Run("active item keeps owner authority and content", func(t *testing.T) {
		item := buildActiveItem(addr, 0, collection, owner, authority)
		require.NoError(t, store.SaveItem(ctx, item, domain.ChangeMeta{Op: "init"}))

		got, err := store.GetItem(ctx, addr)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "active", got.State.Name())
		assert.True(t, got.Owner().Equal(owner))
		assert.True(t, got.Authority().Equal(authority))
		require.NotNil(t, got.Content)
		assert.True(t, got.Content.Equal(item.Content))
	})

	t.Run("revocation time persists", func(t *testing.T) {
		item := buildActiveItem(addr, 0, collection, owner, authority)
		item.RevokedAt = 1_700_000_000
		require.NoError(t, store.SaveItem(ctx, item, domain.ChangeMeta{Op: "revoke"}))

		got, err := store.GetItem(ctx, addr)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_700_000_000), got.RevokedAt)
	})

	t.Run("destroyed item drops owner and authority", func(t *testing.T) {
		item := buildActiveItem(addr, 0, collection, owner, authority)
		item.State = domain.Destroyed{}
		require.NoError(t, store.SaveItem(ctx, item, domain.ChangeMeta{Op: "destroy"}))

		got, err := store.GetItem(ctx, addr)
		require.NoError(t, err)
		assert.Equal(t, "destroyed", got.State.Name())
		assert.True(t, got.Owner().IsNone())
		assert.True(t, got.Authority().IsNone())
	})

	t.Run("active item without authority", func(t *testing.T) {
		other := testAddress(0xa1)
		item := buildActiveItem(other, 1, collection, owner, cell.Address{})
		require.NoError(t, store.SaveItem(ctx, item, domain.ChangeMeta{Op: "init"}))

		got, err := store.GetItem(ctx, other)
		require.NoError(t, err)
		assert.True(t, got.Authority().IsNone())
	})
}

func testGetItemNotFound(t *testing.T, store Store) {
	got, err := store.GetItem(context.Background(), testAddress(0xee))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testListItems(t *testing.T, store Store) {
	ctx := context.Background()
	collectionA := testAddress(0xca)
	collectionB := testAddress(0xcb)
	alice := testAddress(0x0a)
	bob := testAddress(0x0b)

	for i := uint64(0); i < 5; i++ {
		owner := alice
		if i%2 == 1 {
			owner = bob
		}
		item := buildActiveItem(testAddress(byte(0x10+i)), i, collectionA, owner, cell.Address{})
		require.NoError(t, store.SaveItem(ctx, item, domain.ChangeMeta{Op: "init"}))
	}
	item := buildActiveItem(testAddress(0x20), 0, collectionB, alice, cell.Address{})
	require.NoError(t, store.SaveItem(ctx, item, domain.ChangeMeta{Op: "init"}))

	t.Run("by collection ordered by index", func(t *testing.T) {
		items, total, err := store.ListItems(ctx, ItemFilter{Collection: collectionA})
		require.NoError(t, err)
		assert.Equal(t, uint64(5), total)
		require.Len(t, items, 5)
		for i, it := range items {
			assert.Equal(t, uint64(i), it.Index)
		}
	})

	t.Run("by owner", func(t *testing.T) {
		items, total, err := store.ListItems(ctx, ItemFilter{Owner: bob})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), total)
		for _, it := range items {
			assert.True(t, it.Owner().Equal(bob))
		}
	})

	t.Run("pagination", func(t *testing.T) {
		items, total, err := store.ListItems(ctx, ItemFilter{Collection: collectionA, Limit: 2, Offset: 4})
		require.NoError(t, err)
		assert.Equal(t, uint64(5), total)
		require.Len(t, items, 1)
		assert.Equal(t, uint64(4), items[0].Index)
	})
}

func testCollection(t *testing.T, store Store) {
	ctx := context.Background()
	addr := testAddress(0xcc)

	got, err := store.GetCollection(ctx, addr)
	require.NoError(t, err)
	assert.Nil(t, got)

	c := &domain.Collection{
		Address:       addr,
		Owner:         testAddress(0x01),
		NextItemIndex: 3,
		Content:       content.EncodeOffChain("https://example.com/collection.json"),
		CommonContent: content.Encode([]byte("https://example.com/items/")),
	}
	require.NoError(t, store.SaveCollection(ctx, c, domain.ChangeMeta{Op: "deploy"}))

	c.NextItemIndex = 4
	require.NoError(t, store.SaveCollection(ctx, c, domain.ChangeMeta{Op: "mint"}))

	got, err = store.GetCollection(ctx, addr)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(4), got.NextItemIndex)
	assert.True(t, got.Owner.Equal(c.Owner))
	uri, err := content.DecodeOffChain(got.Content)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/collection.json", uri)
	assert.True(t, got.CommonContent.Equal(c.CommonContent))
}

func testGetChanges(t *testing.T, store Store) {
	ctx := context.Background()
	collection := testAddress(0xc1)
	addr := testAddress(0xb0)
	other := testAddress(0xb1)

	item := domain.NewUninitializedItem(addr, 0, collection)
	require.NoError(t, store.SaveItem(ctx, item, domain.ChangeMeta{Op: "deploy"}))
	item = buildActiveItem(addr, 0, collection, testAddress(0x01), cell.Address{})
	require.NoError(t, store.SaveItem(ctx, item, domain.ChangeMeta{Op: "init", Sender: collection.String()}))
	require.NoError(t, store.SaveItem(ctx, domain.NewUninitializedItem(other, 1, collection), domain.ChangeMeta{Op: "deploy"}))

	changes, err := store.GetChanges(ctx, addr, 0, 10)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, domain.SubjectTypeItem, changes[0].SubjectType)
	assert.Equal(t, "deploy", changes[0].Meta.Op)
	assert.Equal(t, "uninitialized", changes[0].Meta.State)
	assert.Equal(t, "init", changes[1].Meta.Op)
	assert.Equal(t, "active", changes[1].Meta.State)
	assert.Equal(t, collection.String(), changes[1].Meta.Sender)
	assert.Less(t, changes[0].Cursor, changes[1].Cursor)

	after, err := store.GetChanges(ctx, addr, changes[0].Cursor, 10)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, changes[1].Cursor, after[0].Cursor)

	all, err := store.GetChanges(ctx, cell.Address{}, changes[0].Cursor-1, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testIndexOutOfRange(t *testing.T, store Store) {
	item := domain.NewUninitializedItem(testAddress(0xd0), ^uint64(0), testAddress(0xc0))
	err := store.SaveItem(context.Background(), item, domain.ChangeMeta{Op: "deploy"})
	assert.Error(t, err)
}

func testSaveMint(t *testing.T, store Store) {
	ctx := context.Background()
	collection := &domain.Collection{
		Address:       testAddress(0xe0),
		Owner:         testAddress(0x01),
		CommonContent: content.Encode([]byte("https://example.com/items/")),
	}
	require.NoError(t, store.SaveCollection(ctx, collection, domain.ChangeMeta{Op: "deploy"}))

	t.Run("item and collection together", func(t *testing.T) {
		next := collection.Clone()
		next.NextItemIndex = 1
		item := domain.NewUninitializedItem(testAddress(0xe1), 0, collection.Address)
		require.NoError(t, store.SaveMint(ctx, Mint{
			Item:           item,
			ItemMeta:       domain.ChangeMeta{Op: "deploy", Sender: collection.Address.String()},
			Collection:     next,
			CollectionMeta: domain.ChangeMeta{Op: "mint_sbt"},
		}))

		got, err := store.GetItem(ctx, item.Address)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.False(t, got.Initialized())
		col, err := store.GetCollection(ctx, collection.Address)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), col.NextItemIndex)

		changes, err := store.GetChanges(ctx, item.Address, 0, 10)
		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Equal(t, "deploy", changes[0].Meta.Op)
		assert.Equal(t, "uninitialized", changes[0].Meta.State)
		changes, err = store.GetChanges(ctx, collection.Address, 0, 10)
		require.NoError(t, err)
		require.Len(t, changes, 2)
		assert.Equal(t, "mint_sbt", changes[1].Meta.Op)
	})

	t.Run("item without collection update", func(t *testing.T) {
		item := domain.NewUninitializedItem(testAddress(0xe2), 0, collection.Address)
		require.NoError(t, store.SaveMint(ctx, Mint{Item: item, ItemMeta: domain.ChangeMeta{Op: "deploy"}}))

		col, err := store.GetCollection(ctx, collection.Address)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), col.NextItemIndex)
	})

	t.Run("invalid collection writes nothing", func(t *testing.T) {
		next := collection.Clone()
		next.NextItemIndex = ^uint64(0)
		item := domain.NewUninitializedItem(testAddress(0xe3), 1, collection.Address)
		err := store.SaveMint(ctx, Mint{Item: item, Collection: next})
		require.Error(t, err)

		got, err := store.GetItem(ctx, item.Address)
		require.NoError(t, err)
		assert.Nil(t, got)
		changes, err := store.GetChanges(ctx, item.Address, 0, 10)
		require.NoError(t, err)
		assert.Empty(t, changes)
	})
}
