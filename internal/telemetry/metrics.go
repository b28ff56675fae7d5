package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "siloring"

var (
	Registry = prometheus.NewRegistry()

	ProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Probes sent to monitored silos, by kind and result.",
		},
		[]string{"kind", "result"},
	)

	ProbeRoundTrip = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_round_trip_seconds",
			Help:      "Round trip time of successful probes.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 15),
		},
	)

	SuspicionVotes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspicion_votes_total",
			Help:      "Suspicion votes written to the membership table by this silo.",
		},
	)

	DeclaredDead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "declared_dead_total",
			Help:      "Silos declared dead by this silo.",
		},
	)

	TableVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_version",
			Help:      "Version of the latest published membership snapshot.",
		},
	)

	TableWriteConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_write_conflicts_total",
			Help:      "Conditional membership table writes rejected because of a concurrent write.",
		},
		[]string{"op"},
	)

	TableRefreshFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_refresh_failures_total",
			Help:      "Failed membership table reads.",
		},
	)

	LocalHealthScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "local_health_score",
			Help:      "Local health degradation score, 0 is healthy.",
		},
	)

	MonitoredSilos = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitored_silos",
			Help:      "Number of silos probed by this silo.",
		},
	)

	GossipTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gossip_messages_total",
			Help:      "Gossip deliveries to remote silos, by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		ProbesTotal,
		ProbeRoundTrip,
		SuspicionVotes,
		DeclaredDead,
		TableVersion,
		TableWriteConflicts,
		TableRefreshFailures,
		LocalHealthScore,
		MonitoredSilos,
		GossipTotal,
		collectors.NewGoCollector(),
	)
}

// MetricsHandler exposes the registry in the Prometheus text format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ResultLabel(err error) string {
	if err != nil {
		return "failure"
	}

	return "success"
}
