package jetstream

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sbt/internal/adapter"
	"github.com/feral-file/ff-sbt/internal/logger"
	"github.com/feral-file/ff-sbt/internal/messaging"
)

// DefaultSubjectPrefix is the subject root events are published under
const DefaultSubjectPrefix = "sbt.events"

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	SubjectPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	// PublishTimeout bounds the whole retry loop of one event
	PublishTimeout time.Duration
}

type publisher struct {
	nc      adapter.NatsConn
	js      adapter.JetStream
	prefix  string
	timeout time.Duration
}

// ConnectionOptions returns the reconnect and logging options shared by
// every NATS client of the node
func ConnectionOptions(name string, maxReconnects int, reconnectWait time.Duration) []nats.Option {
	return []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}
}

// NewPublisher connects to NATS and returns a JetStream event publisher
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream) (messaging.Publisher, error) {
	nc, js, err := natsJS.Connect(cfg.URL, ConnectionOptions(cfg.ConnectionName, cfg.MaxReconnects, cfg.ReconnectWait)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &publisher{
		nc:      nc,
		js:      js,
		prefix:  prefix,
		timeout: timeout,
	}, nil
}

// PublishEvent publishes an event as CBOR on <prefix>.<event name>. The
// event id is the JetStream message id, so retried publishes deduplicate.
func (p *publisher) PublishEvent(ctx context.Context, event *messaging.Event) error {
	data, err := messaging.EncodeEvent(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	subject := p.buildSubject(event)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = p.timeout

	var attempts int
	operation := func() error {
		attempts++
		_, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.ID))
		return err
	}
	notify := func(err error, next time.Duration) {
		logger.WarnCtx(ctx, "Event publish failed, retrying",
			zap.Error(err),
			zap.String("subject", subject),
			zap.Int("attempt", attempts),
			zap.Duration("next_retry_in", next),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return fmt.Errorf("failed to publish event after %d attempts: %w", attempts, err)
	}

	logger.DebugCtx(ctx, "Event published", zap.String("subject", subject), zap.String("event_id", event.ID))
	return nil
}

func (p *publisher) buildSubject(event *messaging.Event) string {
	return fmt.Sprintf("%s.%s", p.prefix, event.Name)
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}
	p.nc.Close()
}
