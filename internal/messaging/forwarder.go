package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/feral-file/ff-sbt/internal/logger"
	"github.com/feral-file/ff-sbt/internal/network"
)

// Forwarder is a network observer that publishes the events of every transaction
type Forwarder struct {
	publisher Publisher
}

var _ network.Observer = (*Forwarder)(nil)

// NewForwarder creates a forwarder publishing through p
func NewForwarder(p Publisher) *Forwarder {
	return &Forwarder{publisher: p}
}

// OnTransaction publishes the transaction's events. Publish failures are
// logged and never undo the transaction.
func (f *Forwarder) OnTransaction(ctx context.Context, tx *network.Transaction) {
	for _, event := range EventsFromTransaction(tx) {
		if err := f.publisher.PublishEvent(ctx, event); err != nil {
			logger.ErrorCtx(ctx, err,
				zap.String("message", "Failed to publish event"),
				zap.String("event", event.Name),
				zap.String("event_id", event.ID),
			)
		}
	}
}
