// Package events provides the event-sink implementations behind the
// real-time broadcast contract. Sinks are fire-and-forget: the core treats
// publication as at-most-once and never retries.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"wtfSocial/domain"
)

// subjectPrefix namespaces all broadcast subjects on the bus.
const subjectPrefix = "social."

// NatsSink publishes events as JSON messages on a NATS connection. Subject
// layout: social.<event>, e.g. social.post_created. Consumers (the actual
// websocket fan-out, other services) subscribe on the bus; this sink knows
// nothing about who listens.
type NatsSink struct {
	nc *nats.Conn
}

// NewNatsSink returns a sink publishing on the given connection.
func NewNatsSink(nc *nats.Conn) *NatsSink {
	return &NatsSink{nc: nc}
}

var _ domain.EventSink = &NatsSink{}

// envelope is the wire shape of a broadcast event.
type envelope struct {
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
	EmittedAt time.Time   `json:"emitted_at"`
}

// Publish marshals the payload and hands it to NATS. The send is async on
// the client side; a flush failure surfaces here and is the caller's to log.
func (s *NatsSink) Publish(event string, payload interface{}) error {
	data, err := json.Marshal(envelope{
		Event:     event,
		Payload:   payload,
		EmittedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	return s.nc.Publish(subjectPrefix+event, data)
}
