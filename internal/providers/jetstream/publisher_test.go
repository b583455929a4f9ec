package jetstream_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/messaging"
	"github.com/feral-file/ff-sbt/internal/mocks"
	js "github.com/feral-file/ff-sbt/internal/providers/jetstream"
)

type publisherMocks struct {
	natsJS    *mocks.MockNatsJetStream
	natsConn  *mocks.MockNatsConn
	jetStream *mocks.MockJetStream
}

func setupPublisher(t *testing.T, cfg js.Config) (messaging.Publisher, *publisherMocks) {
	ctrl := gomock.NewController(t)
	m := &publisherMocks{
		natsJS:    mocks.NewMockNatsJetStream(ctrl),
		natsConn:  mocks.NewMockNatsConn(ctrl),
		jetStream: mocks.NewMockJetStream(ctrl),
	}
	m.natsJS.EXPECT().Connect(cfg.URL, gomock.Any()).Return(m.natsConn, m.jetStream, nil)

	p, err := js.NewPublisher(cfg, m.natsJS)
	require.NoError(t, err)
	return p, m
}

func testEvent() *messaging.Event {
	return &messaging.Event{
		ID:            "tx-0",
		TransactionID: "tx",
		Name:          domain.OpOwnershipProof.String(),
		Account:       cell.MustParseAddress("0:0100000000000000000000000000000000000000000000000000000000000000"),
		Message: domain.Message{
			Destination: cell.MustParseAddress("0:0200000000000000000000000000000000000000000000000000000000000000"),
			Value:       domain.MustParseCoins("0.05"),
			Bounce:      true,
			Body:        cell.BeginCell().StoreUInt(uint64(domain.OpOwnershipProof), 32).MustEndCell(),
		},
		Now: 1_700_000_000,
	}
}

func TestNewPublisher_ConnectError(t *testing.T) {
	ctrl := gomock.NewController(t)
	natsJS := mocks.NewMockNatsJetStream(ctrl)
	natsJS.EXPECT().Connect("nats://localhost:4222", gomock.Any()).Return(nil, nil, errors.New("connection refused"))

	p, err := js.NewPublisher(js.Config{URL: "nats://localhost:4222"}, natsJS)
	assert.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}

func TestPublishEvent_Success(t *testing.T) {
	p, m := setupPublisher(t, js.Config{URL: "nats://localhost:4222"})
	event := testEvent()

	m.jetStream.EXPECT().
		Publish(gomock.Any(), "sbt.events.ownership_proof", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
			decoded, err := messaging.DecodeEvent(data)
			require.NoError(t, err)
			assert.Equal(t, event.ID, decoded.ID)
			assert.True(t, decoded.Message.Destination.Equal(event.Message.Destination))
			assert.True(t, decoded.Message.Body.Equal(event.Message.Body))
			return &jetstream.PubAck{Stream: "SBT", Sequence: 1}, nil
		})

	assert.NoError(t, p.PublishEvent(context.Background(), event))
}

func TestPublishEvent_CustomPrefix(t *testing.T) {
	p, m := setupPublisher(t, js.Config{URL: "nats://localhost:4222", SubjectPrefix: "staging.sbt"})
	m.jetStream.EXPECT().
		Publish(gomock.Any(), "staging.sbt.ownership_proof", gomock.Any(), gomock.Any()).
		Return(&jetstream.PubAck{}, nil)

	assert.NoError(t, p.PublishEvent(context.Background(), testEvent()))
}

func TestPublishEvent_RetriesTransientFailure(t *testing.T) {
	p, m := setupPublisher(t, js.Config{URL: "nats://localhost:4222"})
	gomock.InOrder(
		m.jetStream.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("no responders")),
		m.jetStream.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&jetstream.PubAck{}, nil),
	)

	assert.NoError(t, p.PublishEvent(context.Background(), testEvent()))
}

func TestPublishEvent_GivesUp(t *testing.T) {
	p, m := setupPublisher(t, js.Config{URL: "nats://localhost:4222", PublishTimeout: 300 * time.Millisecond})
	m.jetStream.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("no responders")).
		MinTimes(1)

	err := p.PublishEvent(context.Background(), testEvent())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no responders")
}

func TestPublishEvent_ContextCanceled(t *testing.T) {
	p, m := setupPublisher(t, js.Config{URL: "nats://localhost:4222"})
	m.jetStream.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("timeout")).
		AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.PublishEvent(ctx, testEvent()))
}

func TestPublisher_Close(t *testing.T) {
	p, m := setupPublisher(t, js.Config{URL: "nats://localhost:4222"})
	m.natsConn.EXPECT().Close()
	p.Close()
}
