package events

import (
	"log/slog"

	"wtfSocial/domain"
)

// LogSink writes events to the structured log. It stands in for a real
// transport in development and in the tests of callers that only care that
// something was published.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink returns a sink logging on the given logger.
// A nil logger means slog.Default.
func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{log: log}
}

var _ domain.EventSink = &LogSink{}

func (s *LogSink) Publish(event string, payload interface{}) error {
	s.log.Debug("event", "name", event, "payload", payload)
	return nil
}

// NopSink drops every event.
type NopSink struct{}

var _ domain.EventSink = NopSink{}

func (NopSink) Publish(string, interface{}) error {
	return nil
}
