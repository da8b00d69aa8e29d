// Package metrics exposes the engine's operational counters and gauges via
// prometheus/client_golang, mirroring the kind of control-plane-only
// instrumentation a host process layers on top of a realtime audio core:
// nothing in this package ever touches the audio thread.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry groups every Sushi metric under one prometheus.Registerer so a
// caller can mount them on a single /metrics endpoint.
type Registry struct {
	QueueDrops       *prometheus.CounterVec
	ClipDetections   *prometheus.CounterVec
	SyncLossEvents   prometheus.Counter
	ActiveTracks     prometheus.Gauge
	DispatcherDepth  prometheus.Gauge
	ParameterUpdates prometheus.Counter
}

// NewRegistry creates and registers every Sushi metric against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	m := &Registry{
		QueueDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sushi",
			Name:      "queue_drops_total",
			Help:      "Events dropped because a ring buffer was full.",
		}, []string{"queue"}),
		ClipDetections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sushi",
			Name:      "clip_detections_total",
			Help:      "Clip-detected notifications raised per track channel.",
		}, []string{"track", "channel"}),
		SyncLossEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sushi",
			Name:      "sync_loss_reversions_total",
			Help:      "Times the transport reverted after losing external sync.",
		}),
		ActiveTracks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sushi",
			Name:      "active_tracks",
			Help:      "Number of tracks currently registered in the audio graph.",
		}),
		DispatcherDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sushi",
			Name:      "dispatcher_queue_depth",
			Help:      "Number of control events waiting in the dispatcher queue.",
		}),
		ParameterUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sushi",
			Name:      "parameter_notifications_total",
			Help:      "Coalesced parameter-change notifications emitted to subscribers.",
		}),
	}

	reg.MustRegister(
		m.QueueDrops,
		m.ClipDetections,
		m.SyncLossEvents,
		m.ActiveTracks,
		m.DispatcherDepth,
		m.ParameterUpdates,
	)

	return m
}
