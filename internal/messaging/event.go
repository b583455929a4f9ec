package messaging

import (
	"fmt"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/network"
)

const (
	// EventRejected names the event emitted for a transaction that failed
	EventRejected = "rejected"
	// EventBounced names outbound bounced messages
	EventBounced = "bounced"
	// EventEmpty names outbound messages without an op code, such as plain value transfers
	EventEmpty = "empty"
)

// Event is one outbound protocol message, or one rejection, emitted by a
// committed transaction
type Event struct {
	// ID is unique per event and stable across retries
	ID            string         `cbor:"1,keyasint"`
	TransactionID string         `cbor:"2,keyasint"`
	Name          string         `cbor:"3,keyasint"`
	Account       cell.Address   `cbor:"4,keyasint"`
	Message       domain.Message `cbor:"5,keyasint"`
	ExitCode      int            `cbor:"6,keyasint,omitempty"`
	Now           uint64         `cbor:"7,keyasint"`
}

// EventName returns the subject token for an outbound message
func EventName(msg domain.Message) string {
	if msg.Bounced {
		return EventBounced
	}
	op, ok := msg.OpCode()
	if !ok {
		return EventEmpty
	}
	return op.String()
}

// EventsFromTransaction returns the events a transaction produced: one per
// outbound message, or a single rejection carrying the inbound message
func EventsFromTransaction(tx *network.Transaction) []*Event {
	if !tx.Success {
		return []*Event{{
			ID:            fmt.Sprintf("%s-rejected", tx.ID),
			TransactionID: tx.ID.String(),
			Name:          EventRejected,
			Account:       tx.Account,
			Message:       tx.InMessage,
			ExitCode:      tx.ExitCode,
			Now:           tx.Now,
		}}
	}

	events := make([]*Event, 0, len(tx.OutMessages))
	for i, msg := range tx.OutMessages {
		events = append(events, &Event{
			ID:            fmt.Sprintf("%s-%d", tx.ID, i),
			TransactionID: tx.ID.String(),
			Name:          EventName(msg),
			Account:       tx.Account,
			Message:       msg,
			Now:           tx.Now,
		})
	}
	return events
}

// EncodeEvent serializes an event to deterministic CBOR
func EncodeEvent(e *Event) ([]byte, error) {
	return cell.Marshal(e)
}

// DecodeEvent parses bytes produced by EncodeEvent
func DecodeEvent(data []byte) (*Event, error) {
	var e Event
	if err := cell.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	return &e, nil
}
