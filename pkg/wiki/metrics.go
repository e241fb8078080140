package wiki

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK           = "ok"
	outcomeNotFound     = "not_found"
	outcomeHTTPError    = "http_error"
	outcomeNetworkError = "network_error"
	outcomeInvalid      = "invalid"
)

var (
	wikiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineage_wiki_requests_total",
		Help: "MediaWiki API requests by outcome",
	}, []string{"outcome"})

	wikiRequestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lineage_wiki_request_duration_seconds",
		Help:    "MediaWiki API request latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
)

func observeRequest(outcome string, start time.Time) {
	wikiRequests.WithLabelValues(outcome).Inc()
	wikiRequestLatency.Observe(time.Since(start).Seconds())
}
