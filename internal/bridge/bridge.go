package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sbt/internal/adapter"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/logger"
	"github.com/feral-file/ff-sbt/internal/messaging"
	"github.com/feral-file/ff-sbt/internal/network"
	natsprovider "github.com/feral-file/ff-sbt/internal/providers/jetstream"
)

// DefaultSubject is where inbound message envelopes are consumed from
const DefaultSubject = "sbt.messages.in"

// Config holds the configuration for the inbound bridge
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	Subject        string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWaitTimeout time.Duration
	MaxDeliver     int
	WorkerPoolSize int
}

// Sender delivers an internal message and everything it causes
type Sender interface {
	Send(ctx context.Context, msg domain.Message) (*network.Trace, error)
}

// Bridge consumes message envelopes from JetStream and delivers them
type Bridge interface {
	// Run consumes until ctx is done
	Run(ctx context.Context) error
	// Close closes the connection
	Close()
}

type bridge struct {
	nc     adapter.NatsConn
	js     adapter.JetStream
	sender Sender
	config Config
}

// NewBridge connects to NATS and returns a bridge delivering through sender
func NewBridge(cfg Config, natsJS adapter.NatsJetStream, sender Sender) (Bridge, error) {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 8
	}

	nc, js, err := natsJS.Connect(cfg.URL, natsprovider.ConnectionOptions(cfg.ConnectionName, cfg.MaxReconnects, cfg.ReconnectWait)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &bridge{
		nc:     nc,
		js:     js,
		sender: sender,
		config: cfg,
	}, nil
}

// Run starts consuming. Envelopes are handled on a bounded worker pool.
func (b *bridge) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting message bridge",
		zap.String("stream", b.config.StreamName),
		zap.String("consumer", b.config.ConsumerName),
		zap.String("subject", b.config.Subject),
	)

	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.config.StreamName, jetstream.ConsumerConfig{
		Durable:       b.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       b.config.AckWaitTimeout,
		MaxDeliver:    b.config.MaxDeliver,
		FilterSubject: b.config.Subject,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	info, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.InfoCtx(ctx, "Consumer created/retrieved", zap.String("consumer", info.Name))

	pool := pond.NewPool(b.config.WorkerPoolSize)
	defer pool.StopAndWait()

	msgChan := make(chan adapter.Message, 100)
	sub, err := consumer.Consume(func(msg adapter.Message) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Shutting down message bridge")
			return ctx.Err()
		case msg := <-msgChan:
			pool.Submit(func() {
				b.handleMessage(ctx, msg)
			})
		}
	}
}

// handleMessage delivers one envelope. Undecodable envelopes and messages
// the network can never accept are terminated. Failures before any
// transaction committed are retried.
func (b *bridge) handleMessage(ctx context.Context, msg adapter.Message) {
	var deliveries uint64
	if metadata, err := msg.Metadata(); err == nil && metadata != nil {
		deliveries = metadata.NumDelivered
	}

	env, err := messaging.DecodeEnvelope(msg.Data())
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to decode envelope"), zap.String("subject", msg.Subject()))
		if err := msg.Term(); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	trace, err := b.sender.Send(ctx, env.Message)
	if err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "Failed to deliver envelope"),
			zap.String("request_id", env.RequestID),
			zap.Uint64("delivery_count", deliveries),
		)
		ack := msg.Nak
		switch {
		case permanent(err):
			ack = msg.Term
		case trace != nil && len(trace.Transactions) > 0:
			// committed transactions must not be applied twice
			logger.WarnCtx(ctx, "Envelope partially delivered",
				zap.String("request_id", env.RequestID),
				zap.Int("transactions", len(trace.Transactions)),
			)
			ack = msg.Ack
		}
		if err := ack(); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "Failed to settle message"))
		}
		return
	}

	logger.InfoCtx(ctx, "Envelope delivered",
		zap.String("request_id", env.RequestID),
		zap.String("destination", env.Message.Destination.String()),
		zap.Int("transactions", len(trace.Transactions)),
		zap.Int("rejected", len(trace.FindAll(network.Failed()))),
		zap.Uint64("delivery_count", deliveries),
	)

	if err := msg.Ack(); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to ACK message"))
	}
}

// permanent reports errors a redelivery cannot fix
func permanent(err error) bool {
	return errors.Is(err, domain.ErrInsufficientFunds) || errors.Is(err, network.ErrTooManyWaves)
}

// Close closes the NATS connection
func (b *bridge) Close() {
	if b.nc == nil {
		return
	}
	b.nc.Close()
}
