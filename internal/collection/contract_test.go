package collection

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sbt/internal/adapter"
	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/content"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/network"
	"github.com/feral-file/ff-sbt/internal/sbt"
	"github.com/feral-file/ff-sbt/internal/store"
)

var (
	admin    = cell.MustParseAddress("0:aa00000000000000000000000000000000000000000000000000000000000000")
	holder   = cell.MustParseAddress("0:0100000000000000000000000000000000000000000000000000000000000000")
	stranger = cell.MustParseAddress("0:0300000000000000000000000000000000000000000000000000000000000000")
	value    = domain.MustParseCoins("0.1")
	forward  = domain.MustParseCoins("0.05")
)

type fixture struct {
	ctx      context.Context
	net      *network.Network
	store    store.Store
	handler  *sbt.Handler
	contract *Contract
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, store.NewMemoryStore())
}

func newFixtureWithStore(t *testing.T, st store.Store) *fixture {
	t.Helper()
	f := &fixture{
		ctx:     context.Background(),
		store:   st,
		handler: sbt.NewHandler(domain.DEFAULT_STORAGE_RESERVE),
	}
	f.net = network.New(network.Config{}, adapter.NewManualClock(time.Unix(1_700_000_000, 0)))
	t.Cleanup(f.net.Close)

	require.NoError(t, f.net.Deploy(admin, network.Wallet{}, domain.MustParseCoins("100")))
	require.NoError(t, f.net.Deploy(stranger, network.Wallet{}, domain.MustParseCoins("100")))

	var err error
	f.contract, err = Deploy(f.ctx, f.net, f.store, f.handler, &domain.Collection{
		Address:       testCollection,
		Owner:         admin,
		Content:       content.EncodeOffChain("https://sbt.example/collection.json"),
		CommonContent: content.Encode([]byte("https://sbt.example/items/")),
	}, domain.MustParseCoins("1"))
	require.NoError(t, err)
	return f
}

func mintBody(t *testing.T, index uint64, amount domain.Coins) *cell.Cell {
	t.Helper()
	body, err := MintSBT{
		QueryID:       index + 100,
		Index:         index,
		ForwardAmount: amount,
		Init: sbt.InitBody{
			Owner:     holder,
			Content:   content.Encode([]byte("x.json")),
			Authority: admin,
		},
	}.ToCell()
	require.NoError(t, err)
	return body
}

func (f *fixture) send(t *testing.T, from cell.Address, body *cell.Cell) *network.Trace {
	t.Helper()
	trace, err := f.net.Send(f.ctx, domain.Message{Source: from, Destination: testCollection, Value: value, Bounce: true, Body: body})
	require.NoError(t, err)
	return trace
}

func (f *fixture) nextIndex(t *testing.T) uint64 {
	t.Helper()
	data, err := f.contract.GetCollectionData(f.ctx)
	require.NoError(t, err)
	return data.NextItemIndex
}

func TestMint(t *testing.T) {
	f := newFixture(t)

	trace := f.send(t, admin, mintBody(t, 0, forward))
	addr := ItemAddress(testCollection, 0)
	require.True(t, trace.Has(network.To(testCollection), network.Succeeded()))
	require.True(t, trace.Has(network.From(testCollection), network.To(addr), network.Succeeded()))
	assert.Equal(t, uint64(1), f.nextIndex(t))
	assert.True(t, f.contract.GetItemAddressByIndex(0).Equal(addr))

	item, err := f.store.GetItem(f.ctx, addr)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.True(t, item.Owner().Equal(holder))
	assert.True(t, item.Authority().Equal(admin))

	full, err := f.contract.GetNftContent(f.ctx, item.Content)
	require.NoError(t, err)
	uri, err := content.DecodeOffChain(full)
	require.NoError(t, err)
	assert.Equal(t, "https://sbt.example/items/x.json", uri)

	balance, err := f.net.Balance(addr)
	require.NoError(t, err)
	assert.Equal(t, forward, balance)
}

func TestMint_Rejections(t *testing.T) {
	f := newFixture(t)
	f.send(t, admin, mintBody(t, 0, forward))

	tests := []struct {
		name   string
		sender cell.Address
		body   *cell.Cell
		code   int
	}{
		{"not the owner", stranger, mintBody(t, 1, forward), domain.ExitAccessDenied},
		{"index past next", admin, mintBody(t, 5, forward), domain.ExitIndexOutOfRange},
		{"already minted", admin, mintBody(t, 0, forward), domain.ExitAlreadyDeployed},
		{"forward exceeds balance", admin, mintBody(t, 1, domain.MustParseCoins("50")), domain.ExitInsufficientFunds},
		{"unknown op", admin, sbt.QueryBody(domain.OpCode(2), 0), domain.ExitUnknownOperation},
		{"truncated mint", admin, sbt.QueryBody(domain.OpMintSBT, 0), domain.ExitMalformedBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trace := f.send(t, tt.sender, tt.body)
			assert.True(t, trace.Has(network.To(testCollection), network.WithExitCode(tt.code)))
			assert.True(t, trace.Has(network.To(tt.sender), network.Bounced()))
			assert.Equal(t, uint64(1), f.nextIndex(t))
		})
	}
}

func TestMint_External(t *testing.T) {
	f := newFixture(t)
	trace, err := f.net.SendExternal(f.ctx, testCollection, mintBody(t, 0, forward))
	require.NoError(t, err)
	assert.True(t, trace.Has(network.WithExitCode(domain.ExitNotAccepted)))
	assert.False(t, f.net.IsDeployed(ItemAddress(testCollection, 0)))
}

// failingStore rejects mint writes while broken is set
type failingStore struct {
	store.Store
	broken atomic.Bool
}

func (s *failingStore) SaveMint(ctx context.Context, mint store.Mint) error {
	if s.broken.Load() {
		return errors.New("connection reset")
	}
	return s.Store.SaveMint(ctx, mint)
}

func TestMint_StoreFailureLeavesNothingBehind(t *testing.T) {
	st := &failingStore{Store: store.NewMemoryStore()}
	f := newFixtureWithStore(t, st)
	addr := ItemAddress(testCollection, 0)

	st.broken.Store(true)
	trace := f.send(t, admin, mintBody(t, 0, forward))
	assert.True(t, trace.Has(network.To(testCollection), network.Failed()))
	assert.False(t, trace.Has(network.To(addr)))
	assert.False(t, f.net.IsDeployed(addr))
	item, err := f.store.GetItem(f.ctx, addr)
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.Equal(t, uint64(0), f.nextIndex(t))

	// the same index mints once the store is back
	st.broken.Store(false)
	trace = f.send(t, admin, mintBody(t, 0, forward))
	assert.True(t, trace.Has(network.To(addr), network.Succeeded()))
	assert.True(t, f.net.IsDeployed(addr))
	assert.Equal(t, uint64(1), f.nextIndex(t))

	changes, err := f.store.GetChanges(f.ctx, addr, 0, 10)
	require.NoError(t, err)
	require.NotEmpty(t, changes)
	assert.Equal(t, "deploy", changes[0].Meta.Op)
}

func TestChangeOwner(t *testing.T) {
	f := newFixture(t)

	body, err := ChangeOwner{QueryID: 1, NewOwner: stranger}.ToCell()
	require.NoError(t, err)

	trace := f.send(t, stranger, body)
	assert.True(t, trace.Has(network.WithExitCode(domain.ExitAccessDenied)))

	f.send(t, admin, body)
	data, err := f.contract.GetCollectionData(f.ctx)
	require.NoError(t, err)
	assert.True(t, data.Owner.Equal(stranger))

	trace = f.send(t, admin, mintBody(t, 0, forward))
	assert.True(t, trace.Has(network.WithExitCode(domain.ExitAccessDenied)))
	trace = f.send(t, stranger, mintBody(t, 0, forward))
	assert.True(t, trace.Has(network.To(ItemAddress(testCollection, 0)), network.Succeeded()))
}

func TestDeploy_CommonContentTooLong(t *testing.T) {
	net := network.New(network.Config{}, adapter.NewClock())
	defer net.Close()

	long := make([]byte, 300)
	_, err := Deploy(context.Background(), net, store.NewMemoryStore(), sbt.NewHandler(0), &domain.Collection{
		Address:       testCollection,
		Owner:         admin,
		CommonContent: content.Encode(long),
	}, 0)
	assert.ErrorIs(t, err, ErrCommonContentTooLong)
	assert.False(t, net.IsDeployed(testCollection))
}

func TestRestore(t *testing.T) {
	f := newFixture(t)
	f.send(t, admin, mintBody(t, 0, forward))
	f.send(t, admin, mintBody(t, 1, forward))

	net := network.New(network.Config{}, adapter.NewManualClock(time.Unix(1_800_000_000, 0)))
	defer net.Close()
	require.NoError(t, net.Deploy(stranger, network.Wallet{}, domain.MustParseCoins("1")))

	restored, err := Restore(f.ctx, net, f.store, f.handler, testCollection)
	require.NoError(t, err)
	assert.True(t, net.IsDeployed(ItemAddress(testCollection, 0)))
	assert.True(t, net.IsDeployed(ItemAddress(testCollection, 1)))

	data, err := restored.GetCollectionData(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), data.NextItemIndex)

	body, err := sbt.RequestOwner{QueryID: 3, Destination: stranger}.ToCell()
	require.NoError(t, err)
	trace, err := net.Send(f.ctx, domain.Message{
		Source:      stranger,
		Destination: ItemAddress(testCollection, 1),
		Value:       value,
		Bounce:      true,
		Body:        body,
	})
	require.NoError(t, err)
	tx := trace.Find(network.To(stranger), network.WithOp(domain.OpOwnerInfo))
	require.NotNil(t, tx)
	info, err := sbt.ParseOwnerInfo(tx.InMessage.Body)
	require.NoError(t, err)
	assert.True(t, info.Owner.Equal(holder))
}

func TestRestore_Missing(t *testing.T) {
	net := network.New(network.Config{}, adapter.NewClock())
	defer net.Close()
	_, err := Restore(context.Background(), net, store.NewMemoryStore(), sbt.NewHandler(0), testCollection)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
