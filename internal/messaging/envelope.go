package messaging

import (
	"errors"
	"fmt"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
)

// ErrMissingDestination is returned for envelopes without a destination
var ErrMissingDestination = errors.New("envelope has no destination")

// Envelope is an inbound internal message submitted through the broker
type Envelope struct {
	// RequestID correlates the resulting events with the submitter
	RequestID string         `cbor:"1,keyasint"`
	Message   domain.Message `cbor:"2,keyasint"`
}

// EncodeEnvelope serializes an envelope to deterministic CBOR
func EncodeEnvelope(e *Envelope) ([]byte, error) {
	return cell.Marshal(e)
}

// DecodeEnvelope parses and validates an inbound envelope. Only internal,
// not-yet-bounced messages may be submitted.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := cell.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if e.Message.Destination.IsNone() {
		return nil, ErrMissingDestination
	}
	e.Message.External = false
	e.Message.Bounced = false
	return &e, nil
}
