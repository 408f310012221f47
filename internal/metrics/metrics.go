// Package metrics registers the Prometheus collectors for sessions,
// admission control and the download queue.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tunesync_connections_active",
		Help: "Live socket connections in the registry",
	})

	Commands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunesync_commands_total",
			Help: "Authenticated commands routed, by verb",
		},
		[]string{"verb"},
	)

	AdmissionDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tunesync_admission_dropped_total",
		Help: "Messages dropped because the sender identity is blocked",
	})

	BlockedIdentities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tunesync_blocked_identities",
		Help: "Identities currently on the block list",
	})

	QueuePending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tunesync_queue_pending",
		Help: "URLs waiting in the download queue",
	})

	Downloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunesync_downloads_total",
			Help: "Download cycle outcomes",
		},
		[]string{"result"},
	)

	DiskFreeBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tunesync_disk_free_bytes",
		Help: "Free bytes on the filesystem holding the track cache",
	})

	CacheBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tunesync_cache_bytes",
		Help: "Bytes of downloaded tracks in the cache dir",
	})
)
