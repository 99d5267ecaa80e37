// Package protocol defines the wire envelope and per-type payload schemas
// for the duplex connection between nodes and the board (spec §4.1, §6).
package protocol

import (
	"encoding/json"
	"fmt"
)

// InvalidFrame is returned by Decode when a frame is malformed or carries
// an unknown type. The caller replies with an ERROR envelope and keeps the
// connection open (spec §4.1).
type InvalidFrame struct {
	Reason string
}

func (e *InvalidFrame) Error() string {
	return fmt.Sprintf("invalid frame: %s", e.Reason)
}

// Envelope is the outer wire frame shared by every message (spec §6.1):
// {type, payload, timestamp}. Payload is kept raw so the dispatcher can
// pick the concrete payload type from Type before unmarshaling it.
type Envelope struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// Decode parses a raw frame into an Envelope, rejecting unknown types and
// malformed JSON. It never closes the connection; that decision belongs to
// the caller.
func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &InvalidFrame{Reason: err.Error()}
	}
	if !env.Type.Valid() {
		return nil, &InvalidFrame{Reason: fmt.Sprintf("unknown type %q", env.Type)}
	}
	return &env, nil
}

// Encode stamps timestampMs and marshals payload into a full Envelope.
func Encode(msgType MessageType, payload interface{}, timestampMs int64) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for %s: %w", msgType, err)
	}
	return &Envelope{Type: msgType, Payload: raw, Timestamp: timestampMs}, nil
}

// DecodePayload unmarshals env.Payload into dst. It is the per-type second
// step of decoding, once the dispatcher knows which Go type the payload is
// shaped like.
func (e *Envelope) DecodePayload(dst interface{}) error {
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return &InvalidFrame{Reason: err.Error()}
	}
	return nil
}
