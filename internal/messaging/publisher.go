package messaging

import (
	"context"
)

// Publisher defines the interface for publishing protocol events to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes one event; implementations retry transient failures
	PublishEvent(ctx context.Context, event *Event) error
	// Close closes the connection
	Close()
}
