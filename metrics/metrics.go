// Package metrics exposes the chat server's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_sent_total",
		Help: "Messages persisted, by message type.",
	}, []string{"type"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_events_published_total",
		Help: "Events handed to the fan-out broker, by event type.",
	}, []string{"type"})

	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_publish_failures_total",
		Help: "Events the fan-out broker refused or timed out on.",
	})

	FramesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_frames_delivered_total",
		Help: "Frames queued to live connections, by event type.",
	}, []string{"type"})

	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_frames_dropped_total",
		Help: "Frames dropped because a connection or subscriber buffer was full.",
	})

	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_ws_connections",
		Help: "Live websocket connections on this instance.",
	})

	CacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_cache_errors_total",
		Help: "Presence or unread cache operations that failed and were skipped.",
	})

	InvitesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_invites_expired_total",
		Help: "Invites moved to EXPIRED by the sweep.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
