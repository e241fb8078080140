package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeComplete  = "complete"
	outcomeTruncated = "truncated"
	outcomeEmpty     = "empty"
)

var (
	graphBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineage_graph_builds_total",
		Help: "Graph builds by outcome",
	}, []string{"outcome"})

	graphBuildLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lineage_graph_build_duration_seconds",
		Help:    "Graph build latency",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
	})

	graphNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lineage_graph_nodes",
		Help:    "Nodes per graph result",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 200},
	})

	graphLinks = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lineage_graph_links",
		Help:    "Links per graph result",
		Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 450},
	})
)

func observeBuild(outcome string, start time.Time, nodes, links int) {
	graphBuilds.WithLabelValues(outcome).Inc()
	graphBuildLatency.Observe(time.Since(start).Seconds())
	graphNodes.Observe(float64(nodes))
	graphLinks.Observe(float64(links))
}
