// Package metrics collects and exposes Prometheus metrics for the social
// engine: fan-out outcomes and feed query volume.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus instruments. It implements crud.Recorder.
type Collector struct {
	notificationsCreated    *prometheus.CounterVec
	notificationsDeduped    *prometheus.CounterVec
	notificationsSuppressed prometheus.Counter
	fanoutFailures          prometheus.Counter
	eventsPublished         *prometheus.CounterVec
	feedQueries             *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on the given
// registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		notificationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_notifications_created_total",
			Help: "Notifications persisted by fan-out, per type.",
		}, []string{"type"}),
		notificationsDeduped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_notifications_deduped_total",
			Help: "Fan-out calls collapsed into an existing notification, per type.",
		}, []string{"type"}),
		notificationsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "social_notifications_suppressed_total",
			Help: "Fan-out calls dropped because recipient and sender were the same user.",
		}),
		fanoutFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "social_fanout_failures_total",
			Help: "Notification writes that failed and were swallowed.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_events_published_total",
			Help: "Broadcast events handed to the event sink, per event.",
		}, []string{"event"}),
		feedQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_feed_queries_total",
			Help: "Feed assembly queries, per view kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		c.notificationsCreated,
		c.notificationsDeduped,
		c.notificationsSuppressed,
		c.fanoutFailures,
		c.eventsPublished,
		c.feedQueries,
	)
	return c
}

func (c *Collector) RecordNotificationCreated(ntype string) {
	c.notificationsCreated.WithLabelValues(ntype).Inc()
}

func (c *Collector) RecordNotificationDeduped(ntype string) {
	c.notificationsDeduped.WithLabelValues(ntype).Inc()
}

func (c *Collector) RecordNotificationSuppressed() {
	c.notificationsSuppressed.Inc()
}

func (c *Collector) RecordFanoutFailure() {
	c.fanoutFailures.Inc()
}

func (c *Collector) RecordEventPublished(event string) {
	c.eventsPublished.WithLabelValues(event).Inc()
}

func (c *Collector) RecordFeedQuery(kind string) {
	c.feedQueries.WithLabelValues(kind).Inc()
}
