package executor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sbt/internal/adapter"
	"github.com/feral-file/ff-sbt/internal/api/shared/dto"
	apierrors "github.com/feral-file/ff-sbt/internal/api/shared/errors"
	"github.com/feral-file/ff-sbt/internal/api/shared/executor"
	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/collection"
	"github.com/feral-file/ff-sbt/internal/content"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/network"
	"github.com/feral-file/ff-sbt/internal/sbt"
	"github.com/feral-file/ff-sbt/internal/store"
)

var (
	admin     = cell.MustParseAddress("0:aa00000000000000000000000000000000000000000000000000000000000000")
	owner     = cell.MustParseAddress("0:0100000000000000000000000000000000000000000000000000000000000000")
	authority = cell.MustParseAddress("0:0200000000000000000000000000000000000000000000000000000000000000")
	collAddr  = cell.MustParseAddress("0:c000000000000000000000000000000000000000000000000000000000000000")
	coin      = domain.MustParseCoins("1")
)

type fixture struct {
	ctx   context.Context
	net   *network.Network
	store store.Store
	col   *collection.Contract
	exec  executor.Executor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), store: store.NewMemoryStore()}
	f.net = network.New(network.Config{WorkerPoolSize: 2}, adapter.NewManualClock(time.Unix(1_700_000_000, 0)))
	t.Cleanup(f.net.Close)

	for _, w := range []cell.Address{admin, owner, authority} {
		require.NoError(t, f.net.Deploy(w, network.Wallet{}, 10*coin))
	}

	var err error
	f.col, err = collection.Deploy(f.ctx, f.net, f.store, sbt.NewHandler(domain.DEFAULT_STORAGE_RESERVE), &domain.Collection{
		Address:       collAddr,
		Owner:         admin,
		Content:       content.EncodeOffChain("https://sbt.example/collection.json"),
		CommonContent: content.Encode([]byte("https://sbt.example/items/")),
	}, coin)
	require.NoError(t, err)

	f.exec = executor.NewExecutor(f.store, f.col, f.net)
	return f
}

func (f *fixture) submitMint(t *testing.T, index uint64) *dto.TraceResponse {
	t.Helper()
	body, err := collection.MintSBT{
		QueryID:       1,
		Index:         index,
		ForwardAmount: domain.MustParseCoins("0.06"),
		Init: sbt.InitBody{
			Owner:     owner,
			Content:   content.Encode([]byte("0.json")),
			Authority: authority,
		},
	}.ToCell()
	require.NoError(t, err)
	encoded, err := dto.EncodeCell(body)
	require.NoError(t, err)

	resp, err := f.exec.SubmitMessage(f.ctx, dto.SubmitMessageRequest{
		Source:      admin.String(),
		Destination: collAddr.String(),
		Value:       "0.11",
		Bounce:      true,
		Body:        encoded,
	})
	require.NoError(t, err)
	return resp
}

func requireAPIError(t *testing.T, err error, code apierrors.ErrorCode) {
	t.Helper()
	var apiErr *apierrors.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, code, apiErr.Code)
}

func TestSubmitMessage_Mint(t *testing.T) {
	f := newFixture(t)
	resp := f.submitMint(t, 0)

	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, collAddr.String(), resp.Transactions[0].Account)
	assert.Equal(t, "mint_sbt", resp.Transactions[0].Op)
	assert.True(t, resp.Transactions[0].Success)
	assert.Equal(t, 1, resp.Transactions[0].OutMessages)
	assert.Equal(t, collection.ItemAddress(collAddr, 0).String(), resp.Transactions[1].Account)
	assert.True(t, resp.Transactions[1].Success)
}

func TestSubmitMessage_Rejected(t *testing.T) {
	f := newFixture(t)
	encoded, err := dto.EncodeCell(sbt.QueryBody(domain.OpDestroy, 1))
	require.NoError(t, err)
	f.submitMint(t, 0)

	resp, err := f.exec.SubmitMessage(f.ctx, dto.SubmitMessageRequest{
		Source:      admin.String(),
		Destination: collection.ItemAddress(collAddr, 0).String(),
		Value:       "0.05",
		Bounce:      true,
		Body:        encoded,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Transactions)
	assert.False(t, resp.Transactions[0].Success)
	assert.Equal(t, domain.ExitAccessDenied, resp.Transactions[0].ExitCode)
	assert.Equal(t, "destroy", resp.Transactions[0].Op)
	assert.NotEmpty(t, resp.Transactions[0].Error)
}

func TestSubmitMessage_Invalid(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  dto.SubmitMessageRequest
		code apierrors.ErrorCode
	}{
		{
			name: "invalid source",
			req:  dto.SubmitMessageRequest{Source: "nope", Destination: collAddr.String(), Value: "1"},
			code: apierrors.ErrCodeValidationFailed,
		},
		{
			name: "addr_none destination",
			req:  dto.SubmitMessageRequest{Source: admin.String(), Destination: "", Value: "1"},
			code: apierrors.ErrCodeValidationFailed,
		},
		{
			name: "invalid value",
			req:  dto.SubmitMessageRequest{Source: admin.String(), Destination: collAddr.String(), Value: "-1"},
			code: apierrors.ErrCodeValidationFailed,
		},
		{
			name: "invalid body",
			req:  dto.SubmitMessageRequest{Source: admin.String(), Destination: collAddr.String(), Value: "1", Body: "%%%"},
			code: apierrors.ErrCodeValidationFailed,
		},
		{
			name: "insufficient funds",
			req:  dto.SubmitMessageRequest{Source: admin.String(), Destination: collAddr.String(), Value: "100"},
			code: apierrors.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.exec.SubmitMessage(f.ctx, tt.req)
			requireAPIError(t, err, tt.code)
		})
	}
}

type senderFunc func(ctx context.Context, msg domain.Message) (*network.Trace, error)

func (f senderFunc) Send(ctx context.Context, msg domain.Message) (*network.Trace, error) {
	return f(ctx, msg)
}

func TestSubmitMessage_SenderError(t *testing.T) {
	f := newFixture(t)
	var got domain.Message
	exec := executor.NewExecutor(f.store, f.col, senderFunc(func(_ context.Context, msg domain.Message) (*network.Trace, error) {
		got = msg
		return nil, network.ErrTooManyWaves
	}))
	_, err := exec.SubmitMessage(f.ctx, dto.SubmitMessageRequest{
		Source:      admin.String(),
		Destination: collAddr.String(),
		Value:       "1",
	})
	requireAPIError(t, err, apierrors.ErrCodeServiceError)
	assert.Equal(t, admin, got.Source)
	assert.Equal(t, coin, got.Value)
	assert.False(t, got.Bounce)
}

func TestGetItem(t *testing.T) {
	f := newFixture(t)
	f.submitMint(t, 0)
	addr := collection.ItemAddress(collAddr, 0)

	item, err := f.exec.GetItem(f.ctx, addr.String())
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, addr.String(), item.Address)
	assert.Equal(t, uint64(0), item.Index)
	assert.Equal(t, collAddr.String(), item.Collection)
	assert.Equal(t, "active", item.State)
	require.NotNil(t, item.Owner)
	assert.Equal(t, owner.String(), *item.Owner)
	require.NotNil(t, item.Authority)
	assert.Equal(t, authority.String(), *item.Authority)
	assert.Zero(t, item.RevokedAt)

	decoded, err := dto.DecodeCell(item.Content)
	require.NoError(t, err)
	raw, err := content.Decode(decoded)
	require.NoError(t, err)
	assert.Equal(t, "0.json", string(raw))
}

func TestGetItem_NotFound(t *testing.T) {
	f := newFixture(t)

	item, err := f.exec.GetItem(f.ctx, collection.ItemAddress(collAddr, 7).String())
	require.NoError(t, err)
	assert.Nil(t, item)

	_, err = f.exec.GetItem(f.ctx, "0:xyz")
	requireAPIError(t, err, apierrors.ErrCodeValidationFailed)
}

func TestListItems(t *testing.T) {
	f := newFixture(t)
	f.submitMint(t, 0)
	f.submitMint(t, 1)

	list, err := f.exec.ListItems(f.ctx, owner.String(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), list.Total)
	assert.Len(t, list.Items, 2)

	list, err = f.exec.ListItems(f.ctx, admin.String(), 10, 0)
	require.NoError(t, err)
	assert.Zero(t, list.Total)
	assert.Empty(t, list.Items)

	list, err = f.exec.ListItems(f.ctx, "", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), list.Total)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Offset)
}

func TestGetItemContent(t *testing.T) {
	f := newFixture(t)
	f.submitMint(t, 0)

	resp, err := f.exec.GetItemContent(f.ctx, collection.ItemAddress(collAddr, 0).String())
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "https://sbt.example/items/0.json", resp.URI)
	assert.NotEmpty(t, resp.Content)

	resp, err = f.exec.GetItemContent(f.ctx, collection.ItemAddress(collAddr, 5).String())
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestGetItemContent_Uninitialized(t *testing.T) {
	f := newFixture(t)
	addr := collection.ItemAddress(collAddr, 3)
	require.NoError(t, f.store.SaveItem(f.ctx, domain.NewUninitializedItem(addr, 3, collAddr), domain.ChangeMeta{Op: "deploy"}))

	_, err := f.exec.GetItemContent(f.ctx, addr.String())
	requireAPIError(t, err, apierrors.ErrCodeConflict)
}

func TestGetCollection(t *testing.T) {
	f := newFixture(t)
	f.submitMint(t, 0)

	col, err := f.exec.GetCollection(f.ctx)
	require.NoError(t, err)
	require.NotNil(t, col)
	assert.Equal(t, collAddr.String(), col.Address)
	assert.Equal(t, admin.String(), col.Owner)
	assert.Equal(t, uint64(1), col.NextItemIndex)
	assert.Equal(t, "https://sbt.example/collection.json", col.ContentURI)
}

func TestGetCollection_NotDeployed(t *testing.T) {
	f := newFixture(t)
	other := collection.NewContract(cell.MustParseAddress("0:cc00000000000000000000000000000000000000000000000000000000000000"), f.net, f.store, sbt.NewHandler(domain.DEFAULT_STORAGE_RESERVE))
	exec := executor.NewExecutor(f.store, other, f.net)

	col, err := exec.GetCollection(f.ctx)
	require.NoError(t, err)
	assert.Nil(t, col)
}

func TestGetChanges(t *testing.T) {
	f := newFixture(t)
	f.submitMint(t, 0)
	addr := collection.ItemAddress(collAddr, 0)

	page, err := f.exec.GetChanges(f.ctx, addr.String(), 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Changes, 2)
	assert.Equal(t, "deploy", page.Changes[0].Meta.Op)
	assert.Equal(t, "init", page.Changes[1].Meta.Op)
	assert.Equal(t, "item", page.Changes[1].SubjectType)
	assert.Equal(t, page.Changes[1].Cursor, page.NextCursor)

	empty, err := f.exec.GetChanges(f.ctx, addr.String(), page.NextCursor, 10)
	require.NoError(t, err)
	assert.Empty(t, empty.Changes)
	assert.Equal(t, page.NextCursor, empty.NextCursor)

	all, err := f.exec.GetChanges(f.ctx, "", 0, 100)
	require.NoError(t, err)
	assert.Greater(t, len(all.Changes), 2)
}
