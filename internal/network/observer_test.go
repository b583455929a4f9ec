package network_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sbt/internal/adapter"
	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/mocks"
	"github.com/feral-file/ff-sbt/internal/network"
)

func TestObserver(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	alice := cell.MustParseAddress("0:a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1")
	bob := cell.MustParseAddress("0:b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0")

	n := network.New(network.Config{WorkerPoolSize: 2}, adapter.NewManualClock(time.Unix(1_700_000_000, 0)))
	defer n.Close()

	rejecting := mocks.NewMockContract(ctrl)
	rejecting.EXPECT().Receive(gomock.Any(), gomock.Any()).
		Return(nil, domain.NewExitError(domain.ExitAccessDenied, errors.New("denied")))

	require.NoError(t, n.Deploy(alice, network.Wallet{}, 100))
	require.NoError(t, n.Deploy(bob, rejecting, 0))

	observer := mocks.NewMockObserver(ctrl)
	n.Observe(observer)

	gomock.InOrder(
		observer.EXPECT().OnTransaction(gomock.Any(), gomock.Any()).Do(func(_ context.Context, tx *network.Transaction) {
			assert.True(t, tx.Account.Equal(bob))
			assert.False(t, tx.Success)
			assert.Equal(t, domain.ExitAccessDenied, tx.ExitCode)
		}),
		observer.EXPECT().OnTransaction(gomock.Any(), gomock.Any()).Do(func(_ context.Context, tx *network.Transaction) {
			assert.True(t, tx.Account.Equal(alice))
			assert.True(t, tx.InMessage.Bounced)
		}),
	)

	body := cell.BeginCell().StoreUInt(uint64(domain.OpDestroy), 32).StoreUInt(1, 64).MustEndCell()
	_, err := n.Send(context.Background(), domain.Message{Source: alice, Destination: bob, Value: 1, Bounce: true, Body: body})
	require.NoError(t, err)
}

func TestSend_StampsClockTime(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(time.Unix(1_750_000_000, 0)).Times(2)

	n := network.New(network.Config{WorkerPoolSize: 1}, clock)
	defer n.Close()

	alice := cell.MustParseAddress("0:a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1")
	bob := cell.MustParseAddress("0:b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0")
	require.NoError(t, n.Deploy(bob, network.ContractFunc(func(_ context.Context, in network.Inbound) ([]domain.Message, error) {
		assert.Equal(t, uint64(1_750_000_000), in.Now)
		return []domain.Message{{Destination: alice}}, nil
	}), 0))

	trace, err := n.Send(context.Background(), domain.Message{Destination: bob})
	require.NoError(t, err)
	require.Len(t, trace.Transactions, 2)
	assert.Equal(t, uint64(1_750_000_000), trace.Transactions[1].InMessage.CreatedAt)
}
